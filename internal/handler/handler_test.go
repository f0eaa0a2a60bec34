package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"sweetshop/internal/auth"
	"sweetshop/internal/db"
	apperrors "sweetshop/internal/errors"
	"sweetshop/internal/events"
	"sweetshop/internal/handler"
	"sweetshop/internal/logging"
	"sweetshop/internal/middleware"
	"sweetshop/internal/model"
	"sweetshop/internal/router"
	"sweetshop/internal/service"
)

type testServer struct {
	e          *echo.Echo
	store      *db.Store
	auth       service.AuthService
	jwtService *auth.JWTService
	recorder   *events.Recorder
}

// newTestServer builds the full router over a fresh in-memory database.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	gdb, err := db.OpenSQLiteMemory(context.Background())
	require.NoError(t, err)
	store := db.NewGormStore(gdb)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	jwtService := auth.NewJWTService("test-secret")
	authService := service.NewAuthService(store.Users, jwtService)
	rec := &events.Recorder{}
	inventory := service.NewInventoryService(store.Sweets, nil, rec)

	e := echo.New()
	router.Register(e, logging.Discard(), jwtService, router.Handlers{
		Auth:   handler.NewAuthHandler(authService),
		Sweets: handler.NewSweetHandler(inventory),
	})

	return &testServer{e: e, store: store, auth: authService, jwtService: jwtService, recorder: rec}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	switch b := body.(type) {
	case nil:
	case string:
		payload = []byte(b)
	default:
		var err error
		payload, err = json.Marshal(b)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if payload != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(middleware.TokenHeader, token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// userToken registers a fresh User-role account through the API.
func (s *testServer) userToken(t *testing.T, email string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Shopper", "email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out handler.TokenResponse
	decode(t, rec, &out)
	return out.Token
}

// adminToken provisions an Admin account out of band and logs it in.
func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	_, err := s.auth.Provision(context.Background(), "Admin", "admin@example.com", "adminpass", model.RoleAdmin)
	require.NoError(t, err)
	token, _, err := s.auth.Login(context.Background(), "admin@example.com", "adminpass")
	require.NoError(t, err)
	return token
}

func (s *testServer) createSweet(t *testing.T, token, name, category string, price float64, qty int) model.Sweet {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/sweets", token, map[string]any{
		"name": name, "category": category, "price": price, "quantity": qty,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sweet model.Sweet
	decode(t, rec, &sweet)
	return sweet
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func msgOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body apperrors.ErrorResponse
	decode(t, rec, &body)
	return body.Msg
}
