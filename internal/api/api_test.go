package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/weighttrack/internal/auth"
	"github.com/mmynk/weighttrack/internal/middleware"
	"github.com/mmynk/weighttrack/internal/migrate"
	"github.com/mmynk/weighttrack/internal/models"
	"github.com/mmynk/weighttrack/internal/service"
	"github.com/mmynk/weighttrack/internal/storage/filestore"
)

const testAPIKey = "k3y"

var testNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

type response struct {
	code    int
	body    envelope
	data    json.RawMessage
	cookies []*http.Cookie
}

type testServer struct {
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	fsys := afero.NewMemMapFs()
	store := filestore.New(fsys, "/data")
	now := func() time.Time { return testNow }
	opts := []service.Option{
		service.WithClock(now),
		service.WithMigrator(migrate.New(fsys, "/data", store)),
	}

	users := service.NewUserService(store, opts...)
	sessions := auth.NewSessionManager("secret", time.Hour)
	srv := New(Config{
		Users:    users,
		Entries:  service.NewEntryService(store, opts...),
		Settings: service.NewSettingsService(store, opts...),
		Water:    service.NewWaterService(store, opts...),
		Sessions: sessions,
		Authn: &middleware.Authenticator{
			Sessions:   sessions,
			Users:      users,
			APIKey:     testAPIKey,
			APIKeyUser: "admin",
		},
		Now: now,
	})
	return &testServer{handler: srv.Handler()}
}

// do sends body as JSON; a nil cookie sends an anonymous request.
func (s *testServer) do(t *testing.T, method, path string, body any, cookie *http.Cookie) response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw), rec.Body.String())
	return response{
		code:    rec.Code,
		body:    envelope{Success: raw.Success, Error: raw.Error},
		data:    raw.Data,
		cookies: rec.Result().Cookies(),
	}
}

func (s *testServer) login(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/auth/login", loginRequest{Username: username, Password: password}, nil)
	require.Equal(t, http.StatusOK, resp.code, resp.body.Error)
	for _, c := range resp.cookies {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

// withUser creates a regular account as admin and logs it in.
func (s *testServer) withUser(t *testing.T, admin *http.Cookie, username string) *http.Cookie {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/users", models.NewUser{Username: username, Password: "secret1"}, admin)
	require.Equal(t, http.StatusCreated, resp.code, resp.body.Error)
	return s.login(t, username, "secret1")
}

func decodeData[T any](t *testing.T, r response) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(r.data, &v))
	return v
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, resp.code)
	assert.True(t, resp.body.Success)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		req      loginRequest
		wantCode int
		wantErr  string
	}{
		{"missing password", loginRequest{Username: "admin"}, http.StatusBadRequest, "Username and password are required"},
		{"wrong password", loginRequest{Username: "admin", Password: "nope"}, http.StatusUnauthorized, "Invalid username or password"},
		{"unknown user", loginRequest{Username: "ghost", Password: "changeme"}, http.StatusUnauthorized, "Invalid username or password"},
		{"default admin", loginRequest{Username: "admin", Password: "changeme"}, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(t, http.MethodPost, "/api/auth/login", tt.req, nil)
			assert.Equal(t, tt.wantCode, resp.code)
			assert.Equal(t, tt.wantErr, resp.body.Error)
		})
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	s := newTestServer(t)
	c := s.login(t, "admin", "changeme")

	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.NotEmpty(t, c.Value)
}

func TestMe(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/api/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.code)

	resp = s.do(t, http.MethodGet, "/api/auth/me", nil, s.login(t, "admin", "changeme"))
	require.Equal(t, http.StatusOK, resp.code)
	me := decodeData[models.PublicUser](t, resp)
	assert.Equal(t, "admin", me.Username)
	assert.Equal(t, models.RoleAdmin, me.Role)
}

func TestAPIKey(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"admin"`)
}

func TestLogoutClearsCookie(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodPost, "/api/auth/logout", nil, nil)

	require.Equal(t, http.StatusOK, resp.code)
	require.Len(t, resp.cookies, 1)
	assert.Equal(t, auth.CookieName, resp.cookies[0].Name)
	assert.Negative(t, resp.cookies[0].MaxAge)
}

func TestChangePassword(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "changeme")

	resp := s.do(t, http.MethodPost, "/api/auth/change-password",
		changePasswordRequest{CurrentPassword: "wrong", NewPassword: "hunter22"}, admin)
	assert.Equal(t, http.StatusUnauthorized, resp.code)

	resp = s.do(t, http.MethodPost, "/api/auth/change-password",
		changePasswordRequest{CurrentPassword: "changeme", NewPassword: "abc"}, admin)
	assert.Equal(t, http.StatusBadRequest, resp.code)

	resp = s.do(t, http.MethodPost, "/api/auth/change-password",
		changePasswordRequest{CurrentPassword: "changeme", NewPassword: "hunter22"}, admin)
	require.Equal(t, http.StatusOK, resp.code)

	s.login(t, "admin", "hunter22")
}

func TestChangeNicknameReissuesSession(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "changeme")

	resp := s.do(t, http.MethodPost, "/api/auth/change-nickname", changeNicknameRequest{Nickname: "  "}, admin)
	assert.Equal(t, http.StatusBadRequest, resp.code)

	resp = s.do(t, http.MethodPost, "/api/auth/change-nickname", changeNicknameRequest{Nickname: "  Boss "}, admin)
	require.Equal(t, http.StatusOK, resp.code)
	assert.Equal(t, "Boss", decodeData[models.PublicUser](t, resp).Nickname)
	require.Len(t, resp.cookies, 1)
	assert.Equal(t, auth.CookieName, resp.cookies[0].Name)
}

func TestEntries(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "changeme")
	alice := s.withUser(t, admin, "alice")

	resp := s.do(t, http.MethodGet, "/api/entries", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.code)

	resp = s.do(t, http.MethodPost, "/api/entries", models.NewEntry{Weight: -1, Training: "rest", Sleep: lo.ToPtr(models.SleepGood)}, alice)
	assert.Equal(t, http.StatusBadRequest, resp.code)

	resp = s.do(t, http.MethodPost, "/api/entries", models.NewEntry{Weight: 80.5, Training: "weights", Sleep: lo.ToPtr(models.SleepPoor)}, alice)
	require.Equal(t, http.StatusCreated, resp.code, resp.body.Error)
	created := decodeData[models.WeightEntry](t, resp)
	assert.Equal(t, "alice", created.Author)
	assert.True(t, testNow.Equal(created.Timestamp))

	resp = s.do(t, http.MethodPost, "/api/entries", map[string]any{"weight": 80, "training": "rest"}, alice)
	assert.Equal(t, http.StatusBadRequest, resp.code, "sleep is required")

	resp = s.do(t, http.MethodGet, "/api/entries", nil, alice)
	require.Equal(t, http.StatusOK, resp.code)
	assert.Len(t, decodeData[[]models.WeightEntry](t, resp), 1)

	// Another user cannot see or touch alice's entry.
	resp = s.do(t, http.MethodGet, "/api/entries", nil, admin)
	assert.Empty(t, decodeData[[]models.WeightEntry](t, resp))
	resp = s.do(t, http.MethodDelete, "/api/entries/"+created.ID, nil, admin)
	assert.Equal(t, http.StatusNotFound, resp.code)

	weight := 79.0
	resp = s.do(t, http.MethodPatch, "/api/entries/"+created.ID, models.EntryPatch{Weight: &weight}, alice)
	require.Equal(t, http.StatusOK, resp.code)
	assert.Equal(t, 79.0, decodeData[models.WeightEntry](t, resp).Weight)

	resp = s.do(t, http.MethodPatch, "/api/entries/missing", models.EntryPatch{Weight: &weight}, alice)
	assert.Equal(t, http.StatusNotFound, resp.code)

	resp = s.do(t, http.MethodDelete, "/api/entries/"+created.ID, nil, alice)
	assert.Equal(t, http.StatusOK, resp.code)
	resp = s.do(t, http.MethodDelete, "/api/entries/"+created.ID, nil, alice)
	assert.Equal(t, http.StatusNotFound, resp.code)
}

func TestSettings(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "changeme")

	resp := s.do(t, http.MethodGet, "/api/settings", nil, admin)
	require.Equal(t, http.StatusOK, resp.code)
	got := decodeData[models.UserSettings](t, resp)
	assert.Equal(t, models.UnitKg, got.Unit)
	assert.Equal(t, models.WaterML, got.WaterUnit)
	assert.Len(t, got.Activities, 3)

	resp = s.do(t, http.MethodPut, "/api/settings", map[string]any{"unit": "stone"}, admin)
	assert.Equal(t, http.StatusBadRequest, resp.code)

	resp = s.do(t, http.MethodPut, "/api/settings", map[string]any{"unit": "lb", "targetWeight": 72.5}, admin)
	require.Equal(t, http.StatusOK, resp.code, resp.body.Error)
	got = decodeData[models.UserSettings](t, resp)
	assert.Equal(t, models.UnitLb, got.Unit)
	require.NotNil(t, got.TargetWeight)
	assert.Equal(t, 72.5, *got.TargetWeight)
	assert.Equal(t, "admin", got.UserID)
}

func TestWater(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "changeme")

	resp := s.do(t, http.MethodGet, "/api/water", nil, admin)
	require.Equal(t, http.StatusOK, resp.code)
	today := decodeData[models.WaterEntry](t, resp)
	assert.Equal(t, "2024-03-10", today.Date)
	assert.Zero(t, today.Amount)

	resp = s.do(t, http.MethodPost, "/api/water", addWaterRequest{Amount: 0}, admin)
	assert.Equal(t, http.StatusBadRequest, resp.code)

	resp = s.do(t, http.MethodPost, "/api/water", addWaterRequest{Amount: 250}, admin)
	require.Equal(t, http.StatusOK, resp.code)
	resp = s.do(t, http.MethodPost, "/api/water", addWaterRequest{Amount: 500}, admin)
	assert.Equal(t, 750.0, decodeData[models.WaterEntry](t, resp).Amount)

	resp = s.do(t, http.MethodPatch, "/api/water", setWaterRequest{Date: "10/03/2024", Amount: 1}, admin)
	assert.Equal(t, http.StatusBadRequest, resp.code)
	resp = s.do(t, http.MethodPatch, "/api/water", setWaterRequest{Amount: 1}, admin)
	assert.Equal(t, http.StatusBadRequest, resp.code)

	resp = s.do(t, http.MethodPatch, "/api/water", setWaterRequest{Date: "2024-03-09", Amount: 1200}, admin)
	require.Equal(t, http.StatusOK, resp.code)

	resp = s.do(t, http.MethodGet, "/api/water?date=2024-03-09", nil, admin)
	assert.Equal(t, 1200.0, decodeData[models.WaterEntry](t, resp).Amount)

	resp = s.do(t, http.MethodDelete, "/api/water", nil, admin)
	require.Equal(t, http.StatusOK, resp.code)
	assert.Zero(t, decodeData[models.WaterEntry](t, resp).Amount)

	resp = s.do(t, http.MethodGet, "/api/water?all=true", nil, admin)
	assert.Len(t, decodeData[[]models.WaterEntry](t, resp), 2)
}

func TestWaterInOunces(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "changeme")

	resp := s.do(t, http.MethodPost, "/api/water", addWaterRequest{Amount: 8, Unit: models.WaterOz}, admin)
	require.Equal(t, http.StatusOK, resp.code, resp.body.Error)
	assert.Equal(t, 237.0, decodeData[models.WaterEntry](t, resp).Amount)

	resp = s.do(t, http.MethodPatch, "/api/water", setWaterRequest{Date: "2024-03-09", Amount: 16, Unit: models.WaterOz}, admin)
	require.Equal(t, http.StatusOK, resp.code, resp.body.Error)
	assert.Equal(t, 473.0, decodeData[models.WaterEntry](t, resp).Amount)

	resp = s.do(t, http.MethodPost, "/api/water", addWaterRequest{Amount: 1, Unit: "cup"}, admin)
	assert.Equal(t, http.StatusBadRequest, resp.code)
}

func TestUsersAdminOnly(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "changeme")
	alice := s.withUser(t, admin, "alice")

	resp := s.do(t, http.MethodGet, "/api/users", nil, alice)
	assert.Equal(t, http.StatusForbidden, resp.code)

	resp = s.do(t, http.MethodGet, "/api/users", nil, admin)
	require.Equal(t, http.StatusOK, resp.code)
	assert.Len(t, decodeData[[]models.PublicUser](t, resp), 2)
	assert.NotContains(t, string(resp.data), "password")
}

func TestUsersCRUD(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "changeme")

	resp := s.do(t, http.MethodPost, "/api/users", models.NewUser{Username: "b", Password: "secret1"}, admin)
	assert.Equal(t, http.StatusBadRequest, resp.code)

	resp = s.do(t, http.MethodPost, "/api/users", models.NewUser{Username: "bob", Password: "secret1"}, admin)
	require.Equal(t, http.StatusCreated, resp.code)
	bob := decodeData[models.PublicUser](t, resp)
	assert.Equal(t, models.RoleUser, bob.Role)
	assert.Equal(t, "bob", bob.Nickname)

	resp = s.do(t, http.MethodGet, "/api/users/bob", nil, admin)
	assert.Equal(t, http.StatusOK, resp.code)
	resp = s.do(t, http.MethodGet, "/api/users/ghost", nil, admin)
	assert.Equal(t, http.StatusNotFound, resp.code)

	role := models.RoleAdmin
	resp = s.do(t, http.MethodPatch, "/api/users/bob", models.UserPatch{Role: &role}, admin)
	require.Equal(t, http.StatusOK, resp.code)
	assert.Equal(t, models.RoleAdmin, decodeData[models.PublicUser](t, resp).Role)

	resp = s.do(t, http.MethodDelete, "/api/users/bob", nil, admin)
	assert.Equal(t, http.StatusOK, resp.code)
	resp = s.do(t, http.MethodDelete, "/api/users/bob", nil, admin)
	assert.Equal(t, http.StatusNotFound, resp.code)
}

func TestAdminCannotLockThemselvesOut(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "changeme")

	resp := s.do(t, http.MethodDelete, "/api/users/admin", nil, admin)
	assert.Equal(t, http.StatusForbidden, resp.code)

	role := models.RoleUser
	resp = s.do(t, http.MethodPatch, "/api/users/admin", models.UserPatch{Role: &role}, admin)
	assert.Equal(t, http.StatusForbidden, resp.code)

	resp = s.do(t, http.MethodGet, "/api/auth/me", nil, admin)
	assert.Equal(t, models.RoleAdmin, decodeData[models.PublicUser](t, resp).Role)
}

func TestDeletedUserLosesSession(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "changeme")
	alice := s.withUser(t, admin, "alice")

	resp := s.do(t, http.MethodDelete, "/api/users/alice", nil, admin)
	require.Equal(t, http.StatusOK, resp.code)

	resp = s.do(t, http.MethodGet, "/api/entries", nil, alice)
	assert.Equal(t, http.StatusUnauthorized, resp.code)
}

func TestSummary(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "changeme")

	resp := s.do(t, http.MethodGet, "/api/summary?filter=2y", nil, admin)
	assert.Equal(t, http.StatusBadRequest, resp.code)

	for _, e := range []models.NewEntry{
		{Weight: 82, Training: "rest", Sleep: lo.ToPtr(models.SleepGood), Timestamp: testNow.AddDate(0, -2, 0)},
		{Weight: 81, Training: "cardio", Sleep: lo.ToPtr(models.SleepFair), Timestamp: testNow.AddDate(0, 0, -10)},
		{Weight: 80, Training: "weights", Sleep: lo.ToPtr(models.SleepGood)},
	} {
		resp = s.do(t, http.MethodPost, "/api/entries", e, admin)
		require.Equal(t, http.StatusCreated, resp.code, resp.body.Error)
	}
	resp = s.do(t, http.MethodPost, "/api/water", addWaterRequest{Amount: 1500}, admin)
	require.Equal(t, http.StatusOK, resp.code)

	resp = s.do(t, http.MethodGet, "/api/summary?filter=1m", nil, admin)
	require.Equal(t, http.StatusOK, resp.code, resp.body.Error)
	got := decodeData[summaryResponse](t, resp)

	assert.Equal(t, 2, got.Stats.Count)
	assert.Equal(t, 81.0, got.Stats.First)
	assert.Equal(t, 80.0, got.Stats.Latest)
	require.NotNil(t, got.Today.TodayWeight)
	assert.Equal(t, 80.0, *got.Today.TodayWeight)
	assert.Equal(t, 1500.0, got.Today.WaterML)
	assert.Equal(t, "1.5L", got.Water)
	assert.Equal(t, models.UnitKg, got.Unit)
}
