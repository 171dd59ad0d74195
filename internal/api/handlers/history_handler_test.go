package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safewaters/backend/internal/models"
	"github.com/safewaters/backend/internal/services"
	"github.com/safewaters/backend/internal/threatintel"
)

func getHistory(t *testing.T, env *testEnv, token, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func seedRecords(t *testing.T, env *testEnv, profileID uint, n int) {
	t.Helper()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < n; i++ {
		record := models.NavigationRecord{
			ManagedProfileID: profileID,
			VisitedURL:       fmt.Sprintf("https://site%d.example/", i),
			VisitedAt:        base.Add(time.Duration(i) * time.Minute),
			Blocked:          i%2 == 0,
			Source:           threatintel.SourceNoSignal,
		}
		require.NoError(t, env.db.Create(&record).Error)
	}
}

func TestHistoryEndpoint_ReturnsPage(t *testing.T) {
	env := newTestEnv(t, "history_page", threatintel.Verdict{Source: threatintel.SourceNoSignal})
	token := env.registerAndLogin(t, "owner@example.com")
	var owner models.User
	require.NoError(t, env.db.Where("email = ?", "owner@example.com").First(&owner).Error)
	profile, err := env.profiles.Create(owner.ID, "Kid's Laptop")
	require.NoError(t, err)
	seedRecords(t, env, profile.ID, 5)

	w := getHistory(t, env, token, fmt.Sprintf("/api/v1/profiles/%d/history?page=1&page_size=2", profile.ID))

	require.Equal(t, http.StatusOK, w.Code)
	var page services.HistoryPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, int64(5), page.TotalItems)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "https://site4.example/", page.Items[0].VisitedURL, "newest first")
}

func TestHistoryEndpoint_BlockedOnly(t *testing.T) {
	env := newTestEnv(t, "history_blocked", threatintel.Verdict{Source: threatintel.SourceNoSignal})
	token := env.registerAndLogin(t, "owner@example.com")
	var owner models.User
	require.NoError(t, env.db.Where("email = ?", "owner@example.com").First(&owner).Error)
	profile, err := env.profiles.Create(owner.ID, "Kid's Laptop")
	require.NoError(t, err)
	seedRecords(t, env, profile.ID, 4)

	w := getHistory(t, env, token, fmt.Sprintf("/api/v1/profiles/%d/history?blocked_only=true", profile.ID))

	require.Equal(t, http.StatusOK, w.Code)
	var page services.HistoryPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, int64(2), page.TotalItems)
	for _, item := range page.Items {
		assert.True(t, item.Blocked)
	}
}

func TestHistoryEndpoint_PageOutOfRange(t *testing.T) {
	env := newTestEnv(t, "history_oor", threatintel.Verdict{Source: threatintel.SourceNoSignal})
	token := env.registerAndLogin(t, "owner@example.com")
	var owner models.User
	require.NoError(t, env.db.Where("email = ?", "owner@example.com").First(&owner).Error)
	profile, err := env.profiles.Create(owner.ID, "Kid's Laptop")
	require.NoError(t, err)
	seedRecords(t, env, profile.ID, 3)

	w := getHistory(t, env, token, fmt.Sprintf("/api/v1/profiles/%d/history?page=3&page_size=2", profile.ID))

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(2), body["total_pages"])
}

func TestHistoryEndpoint_OwnershipEnforced(t *testing.T) {
	env := newTestEnv(t, "history_ownership", threatintel.Verdict{Source: threatintel.SourceNoSignal})
	_ = env.registerAndLogin(t, "owner@example.com")
	strangerToken := env.registerAndLogin(t, "stranger@example.com")
	var owner models.User
	require.NoError(t, env.db.Where("email = ?", "owner@example.com").First(&owner).Error)
	profile, err := env.profiles.Create(owner.ID, "Kid's Laptop")
	require.NoError(t, err)

	w := getHistory(t, env, strangerToken, fmt.Sprintf("/api/v1/profiles/%d/history", profile.ID))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = getHistory(t, env, strangerToken, "/api/v1/profiles/9999/history")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistoryEndpoint_RequiresAuth(t *testing.T) {
	env := newTestEnv(t, "history_noauth", threatintel.Verdict{Source: threatintel.SourceNoSignal})

	w := getHistory(t, env, "", "/api/v1/profiles/1/history")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = getHistory(t, env, "garbage-token", "/api/v1/profiles/1/history")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
