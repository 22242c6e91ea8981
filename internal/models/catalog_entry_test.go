package models

import (
	"reflect"
	"testing"
)

func TestCatalogStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to CatalogStatus
		want     bool
	}{
		{CatalogStatusActive, CatalogStatusInactive, true},
		{CatalogStatusInactive, CatalogStatusActive, true},
		{CatalogStatusActive, CatalogStatusArchived, true},
		{CatalogStatusInactive, CatalogStatusArchived, true},
		{CatalogStatusArchived, CatalogStatusActive, false},
		{CatalogStatusArchived, CatalogStatusInactive, false},
		{CatalogStatusArchived, CatalogStatusArchived, true},
		{CatalogStatusActive, CatalogStatusActive, true},
		{CatalogStatusActive, CatalogStatus("deleted"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTagSet(t *testing.T) {
	t.Run("value_wraps_tags_in_separators", func(t *testing.T) {
		v, err := TagSet{"fuel", "Transport"}.Value()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != "\nfuel\nTransport\n" {
			t.Errorf("expected wrapped tags, got %q", v)
		}
	})

	t.Run("empty_value", func(t *testing.T) {
		v, err := TagSet{}.Value()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != "" {
			t.Errorf("expected empty string, got %q", v)
		}
	})

	t.Run("scan_round_trip", func(t *testing.T) {
		var tags TagSet
		if err := tags.Scan([]byte("\nfuel\nTransport\n")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(tags, TagSet{"fuel", "Transport"}) {
			t.Errorf("unexpected tags: %v", tags)
		}
	})

	t.Run("scan_nil", func(t *testing.T) {
		tags := TagSet{"stale"}
		if err := tags.Scan(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tags) != 0 {
			t.Errorf("expected no tags, got %v", tags)
		}
	})

	t.Run("scan_rejects_numbers", func(t *testing.T) {
		var tags TagSet
		if err := tags.Scan(42); err == nil {
			t.Error("expected error scanning an integer")
		}
	})
}
