package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"roombook/internal/auth"
	"roombook/internal/cache"
	"roombook/internal/config"
	"roombook/internal/database"
	"roombook/internal/events"
	"roombook/internal/export"
	"roombook/internal/models"
	"roombook/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	handler http.Handler
	db      *database.DB
	tokens  *auth.TokenIssuer
	users   map[string]int64
	roomID  int64
}

func newTestAPI(t *testing.T, rateLimit config.APIRateLimitConfig) *testAPI {
	t.Helper()
	path := filepath.Join(t.TempDir(), "api.db")
	db, err := database.NewDB(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	hash, err := auth.HashPassword("secret-pass")
	require.NoError(t, err)

	users := map[string]int64{}
	for _, u := range []*models.User{
		{Name: "Ada", Username: "ada", Email: "ada@example.com", Role: models.RoleAdmin, PasswordHash: hash},
		{Name: "Riwa", Username: "riwa", Email: "riwa@example.com", Role: models.RoleRegular, PasswordHash: hash},
		{Name: "Sam", Username: "sam", Email: "sam@example.com", Role: models.RoleRegular},
	} {
		require.NoError(t, db.CreateUser(ctx, u))
		users[u.Username] = u.ID
	}
	room := &models.Room{Name: "Room 421", Capacity: 8}
	require.NoError(t, db.CreateRoom(ctx, room))

	dir := service.NewDirectory(db, db, cache.NewMemoryStore(time.Minute, time.Minute), time.Minute, nil)
	bookings := service.NewBookingService(db, dir, dir, events.NewEventBus(nil), nil)

	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	resolver := auth.NewResolver(config.AuthConfig{
		Mode:           config.AuthModeBoth,
		HeaderUsername: "X-User-Name",
		HeaderRole:     "X-User-Role",
	}, tokens, nil)

	srv := NewHTTPServer(config.APIConfig{RateLimit: rateLimit}, Deps{
		Bookings: bookings,
		Users:    dir,
		Rooms:    dir,
		Identity: resolver,
		Login:    auth.NewAuthenticator(db, tokens),
		Health:   db,
	}, nil)

	return &testAPI{handler: srv.Handler(), db: db, tokens: tokens, users: users, roomID: room.ID}
}

type as struct {
	username string
	role     string
}

var (
	asAdmin   = as{"ada", models.RoleAdmin}
	asRiwa    = as{"riwa", models.RoleRegular}
	asSam     = as{"sam", models.RoleRegular}
	asAuditor = as{"audrey", models.RoleAuditor}
	anonymous = as{}
)

func (a *testAPI) do(t *testing.T, caller as, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if caller.role != "" {
		req.Header.Set("X-User-Name", caller.username)
		req.Header.Set("X-User-Role", caller.role)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (a *testAPI) booking(userID int64, date, start, end string) map[string]any {
	return map[string]any{
		"user_id":    userID,
		"room_id":    a.roomID,
		"date":       date,
		"start_time": start,
		"end_time":   end,
	}
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t, config.APIRateLimitConfig{})

	w := api.do(t, asRiwa, http.MethodPost, "/bookings", api.booking(api.users["riwa"], "2025-12-01", "10:00", "11:00"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, "booking created", created["message"])
	bookingID := int64(created["booking_id"].(float64))
	assert.Positive(t, bookingID)

	w = api.do(t, asSam, http.MethodPost, "/bookings", api.booking(api.users["sam"], "2025-12-01", "10:30", "11:30"))
	require.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"Unfortunately =(, the room is not available for this time slot. Either choose another room or another time."}`, w.Body.String())

	availPath := fmt.Sprintf("/rooms/%d/availability", api.roomID)
	w = api.do(t, asSam, http.MethodPost, availPath, map[string]string{"date": "2025-12-01", "start_time": "10:15", "end_time": "10:45"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"room_id":%d,"available":false}`, api.roomID), w.Body.String())

	w = api.do(t, asSam, http.MethodGet, availPath+"?date=2025-12-01&start_time=11:00&end_time=12:00", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["available"])

	bookingPath := fmt.Sprintf("/bookings/%d", bookingID)
	w = api.do(t, asSam, http.MethodPut, bookingPath, map[string]string{"date": "2025-12-01", "start_time": "12:00", "end_time": "13:00"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, asRiwa, http.MethodPut, bookingPath, map[string]string{"date": "2025-12-01", "start_time": "10:30", "end_time": "11:30"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"message":"booking updated"}`, w.Body.String())

	w = api.do(t, asRiwa, http.MethodDelete, bookingPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"booking cancelled"}`, w.Body.String())

	w = api.do(t, asAdmin, http.MethodDelete, bookingPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"booking already cancelled"}`, w.Body.String())

	w = api.do(t, asAdmin, http.MethodGet, "/bookings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []models.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 1)
	assert.Equal(t, models.StatusCancelled, all[0].Status)
	assert.Equal(t, "10:30", all[0].StartTime)
	assert.Equal(t, "11:30", all[0].EndTime)
}

func TestCreateBookingErrors(t *testing.T) {
	api := newTestAPI(t, config.APIRateLimitConfig{})
	riwaID := api.users["riwa"]

	tests := []struct {
		name    string
		caller  as
		body    any
		status  int
		message string
	}{
		{"invalid json", asRiwa, `{"user_id":`, http.StatusBadRequest, "invalid JSON body"},
		{"empty body", asRiwa, nil, http.StatusBadRequest, "missing: user_id, room_id, date, start_time, end_time"},
		{"missing fields", asRiwa, map[string]any{"user_id": riwaID, "room_id": api.roomID}, http.StatusBadRequest, "missing: date, start_time, end_time"},
		{"bad time", asRiwa, api.booking(riwaID, "2025-12-01", "9AM", "11:00"), http.StatusBadRequest, "invalid time format HH:MM"},
		{"bad date", asRiwa, api.booking(riwaID, "2025-13-01", "10:00", "11:00"), http.StatusBadRequest, "invalid date format YYYY-MM-DD"},
		{"reversed window", asRiwa, api.booking(riwaID, "2025-12-01", "11:00", "10:00"), http.StatusBadRequest, "end_time must be after start_time"},
		{"anonymous", anonymous, api.booking(riwaID, "2025-12-01", "10:00", "11:00"), http.StatusForbidden, ""},
		{"auditor", asAuditor, api.booking(riwaID, "2025-12-01", "10:00", "11:00"), http.StatusForbidden, ""},
		{"for someone else", asSam, api.booking(riwaID, "2025-12-01", "10:00", "11:00"), http.StatusForbidden, "forbidden: you can only create bookings for yourself"},
		{"unknown user", asAdmin, api.booking(9999, "2025-12-01", "10:00", "11:00"), http.StatusNotFound, ""},
		{"unknown room", asAdmin, map[string]any{"user_id": riwaID, "room_id": 9999, "date": "2025-12-01", "start_time": "10:00", "end_time": "11:00"}, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, tt.caller, http.MethodPost, "/bookings", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			body := decode(t, w)
			assert.NotEmpty(t, body["error"])
			if tt.message != "" {
				assert.Equal(t, tt.message, body["error"])
			}
		})
	}
}

func TestListEndpoints(t *testing.T) {
	api := newTestAPI(t, config.APIRateLimitConfig{})
	w := api.do(t, asRiwa, http.MethodPost, "/bookings", api.booking(api.users["riwa"], "2025-12-02", "09:00", "10:00"))
	require.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, http.StatusUnauthorized, api.do(t, anonymous, http.MethodGet, "/bookings", nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(t, asRiwa, http.MethodGet, "/bookings", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(t, asAuditor, http.MethodGet, "/bookings", nil).Code)

	riwaPath := fmt.Sprintf("/bookings/user/%d", api.users["riwa"])
	w = api.do(t, asRiwa, http.MethodGet, riwaPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []models.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
	assert.Len(t, mine, 1)

	w = api.do(t, asSam, http.MethodGet, riwaPath, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"forbidden: you can only view your own bookings"}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, api.do(t, anonymous, http.MethodGet, riwaPath, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, asAdmin, http.MethodGet, "/bookings/user/9999", nil).Code)

	w = api.do(t, asSam, http.MethodGet, fmt.Sprintf("/bookings/user/%d", api.users["sam"]), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestPathParameters(t *testing.T) {
	api := newTestAPI(t, config.APIRateLimitConfig{})

	tests := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPut, "/bookings/abc", map[string]string{"date": "2025-12-01", "start_time": "10:00", "end_time": "11:00"}},
		{http.MethodDelete, "/bookings/abc", nil},
		{http.MethodDelete, "/bookings/0", nil},
		{http.MethodGet, "/bookings/user/riwa", nil},
		{http.MethodPost, "/rooms/abc/availability", nil},
		{http.MethodGet, "/rooms/-1", nil},
		{http.MethodDelete, "/bookings/9999", nil},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := api.do(t, asAdmin, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
		})
	}

	// authentication is checked before the path id is parsed
	for _, tt := range tests {
		if tt.path == "/rooms/-1" {
			continue
		}
		t.Run("anonymous "+tt.method+" "+tt.path, func(t *testing.T) {
			w := api.do(t, anonymous, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
			assert.JSONEq(t, `{"error":"authentication required"}`, w.Body.String())
		})
	}
}

func TestAvailabilityErrors(t *testing.T) {
	api := newTestAPI(t, config.APIRateLimitConfig{})
	path := fmt.Sprintf("/rooms/%d/availability", api.roomID)

	w := api.do(t, anonymous, http.MethodPost, path, map[string]string{"date": "2025-12-01", "start_time": "10:00", "end_time": "11:00"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(t, asRiwa, http.MethodPost, path, map[string]string{"date": "2025-12-01"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"date, start_time, end_time are required"}`, w.Body.String())

	w = api.do(t, asRiwa, http.MethodGet, path+"?date=2025-12-01&start_time=25:00&end_time=26:00", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, asRiwa, http.MethodGet, "/rooms/9999/availability?date=2025-12-01&start_time=10:00&end_time=11:00", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportBookings(t *testing.T) {
	api := newTestAPI(t, config.APIRateLimitConfig{})
	w := api.do(t, asRiwa, http.MethodPost, "/bookings", api.booking(api.users["riwa"], "2025-12-03", "09:00", "10:00"))
	require.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, http.StatusForbidden, api.do(t, asRiwa, http.MethodGet, "/bookings/export", nil).Code)

	w = api.do(t, asAuditor, http.MethodGet, "/bookings/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "bookings_export_")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")
}

func TestUserAndRoomLookups(t *testing.T) {
	api := newTestAPI(t, config.APIRateLimitConfig{})

	assert.Equal(t, http.StatusUnauthorized, api.do(t, anonymous, http.MethodGet, "/users/riwa", nil).Code)

	w := api.do(t, asRiwa, http.MethodGet, "/users/riwa", nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)
	assert.Equal(t, "riwa", user["username"])
	assert.NotContains(t, user, "password_hash")
	assert.NotContains(t, w.Body.String(), "$2a$")

	w = api.do(t, asRiwa, http.MethodGet, "/users/sam", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"forbidden: you can only view your own user profile"}`, w.Body.String())

	assert.Equal(t, http.StatusOK, api.do(t, asAuditor, http.MethodGet, "/users/sam", nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, asAdmin, http.MethodGet, "/users/nobody", nil).Code)

	w = api.do(t, anonymous, http.MethodGet, fmt.Sprintf("/rooms/%d", api.roomID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Room 421", decode(t, w)["name"])
	assert.Equal(t, http.StatusNotFound, api.do(t, anonymous, http.MethodGet, "/rooms/9999", nil).Code)
}

func TestTokenLogin(t *testing.T) {
	api := newTestAPI(t, config.APIRateLimitConfig{})

	w := api.do(t, anonymous, http.MethodPost, "/auth/token", map[string]string{"username": "riwa"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"username and password are required"}`, w.Body.String())

	w = api.do(t, anonymous, http.MethodPost, "/auth/token", map[string]string{"username": "riwa", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"invalid username or password"}`, w.Body.String())

	w = api.do(t, anonymous, http.MethodPost, "/auth/token", map[string]string{"username": "sam", "password": "secret-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "users without a password cannot log in")

	w = api.do(t, anonymous, http.MethodPost, "/auth/token", map[string]string{"username": "riwa", "password": "secret-pass"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	session := decode(t, w)
	token, _ := session["token"].(string)
	require.NotEmpty(t, token)
	assert.Equal(t, "Bearer", session["token_type"])

	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(fmt.Sprintf(
		`{"user_id":%d,"room_id":%d,"date":"2025-12-04","start_time":"08:00","end_time":"09:00"}`,
		api.users["riwa"], api.roomID)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	// The token wins over conflicting headers.
	req.Header.Set("X-User-Name", "sam")
	req.Header.Set("X-User-Role", models.RoleRegular)
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/bookings", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t, config.APIRateLimitConfig{})

	w := api.do(t, anonymous, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	require.NoError(t, api.db.Close())
	w = api.do(t, anonymous, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
