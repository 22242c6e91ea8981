package services

import (
	"context"
	"testing"

	"cashbook/internal/testutil"
)

func TestSyncUser(t *testing.T) {
	ctx := context.Background()

	t.Run("creates_new_identity", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		user, err := svc.SyncUser(ctx, "auth0|alice", "Alice", "Alice@Example.com")
		testutil.AssertNoError(t, err)

		if user.ID == "" {
			t.Fatal("expected user ID to be set")
		}
		if user.Email != "alice@example.com" {
			t.Errorf("expected lower-cased email, got %s", user.Email)
		}
		if user.Name != "Alice" {
			t.Errorf("expected name Alice, got %s", user.Name)
		}
	})

	t.Run("updates_display_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		first, err := svc.SyncUser(ctx, "auth0|bob", "Bob", "bob@example.com")
		testutil.AssertNoError(t, err)

		second, err := svc.SyncUser(ctx, "auth0|bob", "Robert", "")
		testutil.AssertNoError(t, err)

		if second.ID != first.ID {
			t.Errorf("expected the same user, got %s and %s", first.ID, second.ID)
		}
		if second.Name != "Robert" {
			t.Errorf("expected updated name Robert, got %s", second.Name)
		}
		if second.Email != "bob@example.com" {
			t.Errorf("expected email to be kept, got %s", second.Email)
		}
	})

	t.Run("no_display_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.SyncUser(ctx, "auth0|carol", "Carol", "carol@example.com")
		testutil.AssertNoError(t, err)

		user, err := svc.SyncUser(ctx, "auth0|carol", "", "")
		testutil.AssertNoError(t, err)
		if user.Name != "Carol" {
			t.Errorf("expected name to be kept, got %s", user.Name)
		}
	})

	t.Run("empty_subject", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.SyncUser(ctx, "  ", "Nobody", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetUserByExternalID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		created := testutil.CreateTestUser(t, db)

		user, err := svc.GetUserByExternalID(ctx, created.ExternalID)
		testutil.AssertNoError(t, err)
		if user.ID != created.ID {
			t.Errorf("expected user %s, got %s", created.ID, user.ID)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.GetUserByExternalID(ctx, "auth0|missing")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}
