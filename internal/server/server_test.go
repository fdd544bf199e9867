package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"guild-tracker/internal/auth"
	"guild-tracker/internal/config"
	"guild-tracker/internal/database"
	"guild-tracker/internal/repository"
	"guild-tracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	cfg := &config.Config{
		DBPath:             filepath.Join(t.TempDir(), "test.db"),
		JWTSecret:          "test-secret",
		JWTExpiry:          time.Hour,
		SuperadminPassword: "droken-pass",
		AdminPassword:      "admin-pass",
	}

	db, err := database.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	members := repository.NewMemberRepository(db, zerolog.Nop())
	points := repository.NewPointsRepository(db, zerolog.Nop())
	authSvc, err := auth.NewService(cfg, zerolog.Nop())
	require.NoError(t, err)

	srv := New(
		service.NewImportService(points, nil, zerolog.Nop()),
		service.NewHistoryService(points, members, zerolog.Nop()),
		service.NewRosterService(members, points, zerolog.Nop()),
		authSvc,
		zerolog.Nop(),
	)
	return srv.Router()
}

func login(t *testing.T, router *gin.Engine, username, password string) string {
	t.Helper()

	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.AccessToken
}

func importSnapshot(t *testing.T, router *gin.Engine, token, family, date, roster, points string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("gmbr", "gmbr.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte(roster))
	require.NoError(t, err)
	fw, err = mw.CreateFormFile("gexp", "gexp.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte(points))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/family/"+family+"/import?snapshot_date="+date, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

const (
	testRoster = "gmbr 101|9001|Foo|30|2|||||| 202|9002|Bar|45|7||||||"
	testPoints = "gexp 101|500 202|300"
)

func TestImportRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/family/pandora/import", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	router := newTestRouter(t)

	form := url.Values{"username": {"Admin"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestImportAndHistoryFlow(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "Admin", "admin-pass")

	importSnapshot(t, router, token, "pandora", "2024-01-01", testRoster, "gexp 101|500")
	importSnapshot(t, router, token, "pandora", "2024-01-08", testRoster, "gexp 101|650")

	req := httptest.NewRequest(http.MethodGet,
		"/family/pandora/history?from_date=2024-01-01&to_date=2024-01-31", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Dates   []string `json:"dates"`
		Players []struct {
			PlayerID   int64            `json:"player_id"`
			Points     map[string]int64 `json:"points"`
			PeriodDiff *int64           `json:"period_diff"`
			WeeklyDiff *int64           `json:"weekly_diff"`
		} `json:"players"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, []string{"2024-01-01", "2024-01-08"}, body.Dates)
	require.Len(t, body.Players, 2)

	for _, p := range body.Players {
		if p.PlayerID != 101 {
			continue
		}
		require.NotNil(t, p.PeriodDiff)
		assert.Equal(t, int64(150), *p.PeriodDiff)
		require.NotNil(t, p.WeeklyDiff)
		assert.Equal(t, int64(150), *p.WeeklyDiff)
		assert.Equal(t, int64(500), p.Points["2024-01-01"])
	}
}

func TestPlayerByNicknameNotFound(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet,
		"/family/pandora/player/by-nickname/ghost?from_date=2024-01-01&to_date=2024-01-31", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistoryRejectsBadDates(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet,
		"/family/pandora/history?from_date=nope&to_date=2024-01-31", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRenameConflictReturns409(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "Droken", "droken-pass")

	importSnapshot(t, router, token, "pandora", "2024-01-01", testRoster, testPoints)

	payload, err := json.Marshal(map[string]string{"nickname": "bar"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, "/family/pandora/player/101/nickname", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLatestLeaderboardEndpoint(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "Admin", "admin-pass")

	importSnapshot(t, router, token, "pandora", "2024-01-01", testRoster, testPoints)

	req := httptest.NewRequest(http.MethodGet, "/family/pandora/latest", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body []struct {
		PlayerID     int64  `json:"player_id"`
		Nickname     string `json:"nickname"`
		GexpPoints   int64  `json:"gexp_points"`
		SnapshotDate string `json:"snapshot_date"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "Foo", body[0].Nickname)
	assert.Equal(t, int64(500), body[0].GexpPoints)
	assert.Equal(t, "2024-01-01", body[0].SnapshotDate)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
