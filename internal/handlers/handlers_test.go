package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/readnow/bookshop-api/internal/auth"
	"github.com/readnow/bookshop-api/internal/handlers"
	"github.com/readnow/bookshop-api/internal/routes"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestApp wires the real router to a mocked database.
func newTestApp(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := &handlers.Handlers{
		DB:     db,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return routes.SetupRouter(h), mock
}

// doRequest performs a request against the router, optionally as a logged-in
// user, and returns the recorder plus the decoded JSON body.
func doRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}, userID int64) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		token, err := auth.GenerateToken(userID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	decoded := map[string]interface{}{}
	_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	return rec, decoded
}

func TestUnmatchedRoute(t *testing.T) {
	router, _ := newTestApp(t)

	rec, body := doRequest(t, router, http.MethodGet, "/api/nope", nil, 0)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Route not found", body["message"])
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	router, _ := newTestApp(t)

	rec, _ := doRequest(t, router, http.MethodGet, "/api/orders/my-orders", nil, 0)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
