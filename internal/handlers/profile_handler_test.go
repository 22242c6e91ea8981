package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "cashbook/internal/errors"
	"cashbook/internal/models"
	"cashbook/internal/services"
)

// --- mock user service ---

type mockUserService struct {
	getFn func(ctx context.Context, externalID string) (*models.User, error)
}

func (m *mockUserService) SyncUser(_ context.Context, externalID, name, email string) (*models.User, error) {
	return &models.User{ExternalID: externalID, Name: name, Email: email}, nil
}

func (m *mockUserService) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, externalID)
	}
	return &models.User{ExternalID: externalID}, nil
}

var _ services.UserServicer = (*mockUserService)(nil)

// --- mock dedupe service ---

type mockDedupeService struct {
	groups []services.DuplicateGroup
}

func (m *mockDedupeService) FindDuplicateMovements(_ context.Context) ([]services.DuplicateGroup, error) {
	return m.groups, nil
}

func (m *mockDedupeService) RemoveDuplicateMovements(_ context.Context) (int64, error) {
	return 0, nil
}

var _ services.DedupeServicer = (*mockDedupeService)(nil)

func TestProfileHandler_GetProfile(t *testing.T) {
	t.Run("returns the mirrored user", func(t *testing.T) {
		svc := &mockUserService{
			getFn: func(_ context.Context, externalID string) (*models.User, error) {
				return &models.User{ExternalID: externalID, Name: "Ana"}, nil
			},
		}
		r := gin.New()
		r.GET("/profile", injectUserID(testUserID), NewProfileHandler(svc).GetProfile)

		rec := doRequest(r, "GET", "/profile", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		user := parseJSON(t, rec)["user"].(map[string]interface{})
		if user["external_id"] != testUserID || user["name"] != "Ana" {
			t.Errorf("unexpected user %v", user)
		}
	})

	t.Run("returns 404 when not mirrored", func(t *testing.T) {
		svc := &mockUserService{
			getFn: func(context.Context, string) (*models.User, error) { return nil, apperrors.ErrUserNotFound },
		}
		r := gin.New()
		r.GET("/profile", injectUserID(testUserID), NewProfileHandler(svc).GetProfile)

		rec := doRequest(r, "GET", "/profile", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "USER_NOT_FOUND")
	})
}

func TestMaintenanceHandler_ListDuplicates(t *testing.T) {
	t.Run("counts redundant movements", func(t *testing.T) {
		svc := &mockDedupeService{groups: []services.DuplicateGroup{
			{OwnerID: "a", MovementIDs: []string{"1", "2", "3"}},
			{OwnerID: "b", MovementIDs: []string{"4", "5"}},
		}}
		r := gin.New()
		r.GET("/maintenance/duplicates", NewMaintenanceHandler(svc).ListDuplicates)

		rec := doRequest(r, "GET", "/maintenance/duplicates", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["redundant"] != float64(3) {
			t.Errorf("expected 3 redundant movements, got %v", result["redundant"])
		}
	})

	t.Run("empty report is a list", func(t *testing.T) {
		r := gin.New()
		r.GET("/maintenance/duplicates", NewMaintenanceHandler(&mockDedupeService{}).ListDuplicates)

		rec := doRequest(r, "GET", "/maintenance/duplicates", "")

		if groups, ok := parseJSON(t, rec)["groups"].([]interface{}); !ok || len(groups) != 0 {
			t.Errorf("expected an empty groups list, got %v", groups)
		}
	})
}
