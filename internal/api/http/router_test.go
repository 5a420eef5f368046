package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oladanielT/support-system/internal/api/http/handlers"
	"github.com/oladanielT/support-system/internal/auth"
	"github.com/oladanielT/support-system/internal/blob"
	"github.com/oladanielT/support-system/internal/config"
	"github.com/oladanielT/support-system/internal/domain"
	"github.com/oladanielT/support-system/internal/events"
	"github.com/oladanielT/support-system/internal/notify"
	"github.com/oladanielT/support-system/internal/observability"
	"github.com/oladanielT/support-system/internal/repository/memory"
	"github.com/oladanielT/support-system/internal/service"
)

type testServer struct {
	app     *fiber.App
	tokens  *auth.TokenManager
	metrics *observability.Metrics
	store   *memory.Store
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newTestServer(t *testing.T, loginLimit int) *testServer {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Now().UTC()
	for _, u := range []domain.User{
		{ID: "admin-1", Email: "admin-1@example.edu", FirstName: "Ada", LastName: "Admin", Role: domain.RoleAdmin, Department: "ict", Active: true, CreatedAt: now},
		{ID: "eng-1", Email: "eng-1@example.edu", FirstName: "Eve", LastName: "Engineer", Role: domain.RoleEngineer, Department: "ict", Active: true, CreatedAt: now},
		{ID: "user-1", Email: "user-1@example.edu", FirstName: "Uma", LastName: "User", Role: domain.RoleUser, Department: "law", Active: true, CreatedAt: now},
		{ID: "user-2", Email: "user-2@example.edu", FirstName: "Ugo", LastName: "User", Role: domain.RoleUser, Department: "law", Active: false, CreatedAt: now},
	} {
		u := u
		require.NoError(t, store.Users().Create(ctx, &u))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(nil)
	notifications := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher: dispatcher,
		Sink:       notify.NewStoreSink(store.Notifications()),
		Inbox:      store.Notifications(),
		Metrics:    metrics,
	})
	notifications.RegisterHandlers()

	authService := service.NewAuthService(config.AuthConfig{JWTSecret: "router-secret", AccessTokenTTLMinutes: 15, BcryptCost: 4},
		service.AuthDependencies{UserRepo: store.Users()})
	blobs, err := blob.NewLocalStore(t.TempDir(), 1024)
	require.NoError(t, err)

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health: handlers.NewHealthHandler("support-system", "test", nil, metrics),
		Users: handlers.NewUsersHandler(authService, service.NewUserService(service.UserDependencies{UserRepo: store.Users()})),
		Complaints: handlers.NewComplaintsHandler(
			service.NewComplaintService(service.ComplaintDependencies{Store: store, Dispatcher: dispatcher, Lifecycle: config.DefaultLifecycle()}),
			service.NewStatsService(service.StatsDependencies{Store: store, Lifecycle: config.DefaultLifecycle()}),
			service.NewAttachmentService(service.AttachmentDependencies{Store: store, Blobs: blobs, MaxBytes: 1024}),
		),
		Notifications:  handlers.NewNotificationsHandler(notifications),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), store.Users()).Handle,
		LoginRateLimit: loginLimit,
	})
	return &testServer{app: app, tokens: authService.TokenManager(), metrics: metrics, store: store}
}

func (s *testServer) token(t *testing.T, userID string, role domain.Role) string {
	t.Helper()
	token, _, err := s.tokens.GenerateToken(userID, role)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestComplaintLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t, 0)
	userTok := s.token(t, "user-1", domain.RoleUser)
	adminTok := s.token(t, "admin-1", domain.RoleAdmin)
	engTok := s.token(t, "eng-1", domain.RoleEngineer)

	status, env := s.do(t, http.MethodPost, "/api/complaints", userTok, map[string]any{
		"title":       "WiFi down in library",
		"description": "No connectivity on the second floor",
		"category":    "wifi_issues",
		"priority":    "high",
	})
	require.Equal(t, http.StatusCreated, status, env.Error.Message)
	created := decode[map[string]any](t, env)
	id := created["id"].(string)
	assert.Equal(t, "pending", created["status"])

	status, env = s.do(t, http.MethodPost, "/api/complaints/"+id+"/assign", userTok, map[string]any{"engineer_id": "eng-1"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	status, _ = s.do(t, http.MethodPost, "/api/complaints/"+id+"/assign", adminTok, map[string]any{"engineer_id": "eng-1"})
	require.Equal(t, http.StatusOK, status)

	status, env = s.do(t, http.MethodPost, "/api/complaints/"+id+"/status", engTok, map[string]any{
		"status": "resolved", "resolution_notes": "Replaced access point",
	})
	require.Equal(t, http.StatusOK, status, env.Error.Message)
	resolved := decode[map[string]any](t, env)
	assert.Equal(t, "resolved", resolved["status"])
	assert.NotNil(t, resolved["resolved_at"])

	status, env = s.do(t, http.MethodGet, "/api/complaints/"+id+"/history", userTok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]map[string]any](t, env), 4)

	status, env = s.do(t, http.MethodGet, "/api/notifications", userTok, nil)
	require.Equal(t, http.StatusOK, status)
	inbox := decode[map[string]any](t, env)
	assert.EqualValues(t, 1, inbox["unread_count"])

	status, env = s.do(t, http.MethodGet, "/api/complaints/stats", adminTok, nil)
	require.Equal(t, http.StatusOK, status)
	stats := decode[map[string]any](t, env)
	assert.EqualValues(t, 1, stats["resolved"])
	assert.EqualValues(t, 1, stats["active_engineers"])
}

func TestErrorEnvelope(t *testing.T) {
	s := newTestServer(t, 0)
	userTok := s.token(t, "user-1", domain.RoleUser)

	status, env := s.do(t, http.MethodPost, "/api/complaints", userTok, map[string]any{"title": "WiFi", "description": "short"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Contains(t, env.Error.Details, "title")
	assert.Contains(t, env.Error.Details, "description")

	status, env = s.do(t, http.MethodGet, "/api/complaints/does-not-exist", userTok, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	status, env = s.do(t, http.MethodGet, "/api/complaints", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	inactive := s.token(t, "user-2", domain.RoleUser)
	status, _ = s.do(t, http.MethodGet, "/api/complaints", inactive, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = s.do(t, http.MethodPatch, "/api/users/user-1", userTok, map[string]any{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	status, env = s.do(t, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	assert.NotEmpty(t, s.metrics.Snapshot().Errors)
}

func TestRegisterLoginAndProfile(t *testing.T) {
	s := newTestServer(t, 0)

	status, env := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "fresh@example.edu", "password": "long-password", "first_name": "Fresh", "last_name": "Student",
	})
	require.Equal(t, http.StatusCreated, status, env.Error.Message)

	status, env = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "fresh@example.edu", "password": "long-password"})
	require.Equal(t, http.StatusOK, status)
	session := decode[struct {
		User struct {
			Role string `json:"role"`
		} `json:"user"`
		Auth struct {
			Token string `json:"token"`
		} `json:"auth"`
	}](t, env)
	assert.Equal(t, "user", session.User.Role)
	require.NotEmpty(t, session.Auth.Token)

	status, env = s.do(t, http.MethodGet, "/api/users/me", session.Auth.Token, nil)
	require.Equal(t, http.StatusOK, status)
	me := decode[map[string]any](t, env)
	assert.Equal(t, "Fresh Student", me["full_name"])

	status, env = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "fresh@example.edu", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestLoginRateLimit(t *testing.T) {
	s := newTestServer(t, 2)
	body := map[string]any{"email": "nobody@example.edu", "password": "whatever-pass"}

	for i := 0; i < 2; i++ {
		status, _ := s.do(t, http.MethodPost, "/api/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, status)
	}
	status, env := s.do(t, http.MethodPost, "/api/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "RATE_LIMITED", env.Error.Code)
}

func TestBulkSyncOverHTTP(t *testing.T) {
	s := newTestServer(t, 0)
	userTok := s.token(t, "user-1", domain.RoleUser)
	payload := map[string]any{"complaints": []map[string]any{
		{"offline_id": "off-1", "title": "Projector broken", "description": "Lecture hall projector has no signal"},
		{"offline_id": "off-2", "title": "Bad", "description": "too short"},
	}}

	status, env := s.do(t, http.MethodPost, "/api/complaints/sync", userTok, payload)
	require.Equal(t, http.StatusOK, status, env.Error.Message)
	first := decode[map[string]any](t, env)
	assert.EqualValues(t, 1, first["created"])
	assert.Len(t, first["failed"], 1)

	status, env = s.do(t, http.MethodPost, "/api/complaints/sync", userTok, payload)
	require.Equal(t, http.StatusOK, status)
	second := decode[map[string]any](t, env)
	assert.EqualValues(t, 0, second["created"])
	assert.EqualValues(t, 1, second["skipped"])
}

func TestAttachmentUploadOverHTTP(t *testing.T) {
	s := newTestServer(t, 0)
	userTok := s.token(t, "user-1", domain.RoleUser)
	status, env := s.do(t, http.MethodPost, "/api/complaints", userTok, map[string]any{
		"title": "Printer offline", "description": "Printer on floor three is offline",
	})
	require.Equal(t, http.StatusCreated, status)
	id := decode[map[string]any](t, env)["id"].(string)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "error.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("paper jam code 42"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/complaints/"+id+"/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+userTok)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	status, env = s.do(t, http.MethodGet, "/api/complaints/"+id+"/attachments", userTok, nil)
	require.Equal(t, http.StatusOK, status)
	items := decode[[]map[string]any](t, env)
	require.Len(t, items, 1)
	assert.Equal(t, "error.txt", items[0]["file_name"])
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, 0)
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/health/metrics", nil)
	resp, err = s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
