package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"cybertronic/internal/logging"
	"cybertronic/internal/models"
	"cybertronic/internal/repositories"
	"cybertronic/internal/services"
	"cybertronic/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	app := fiber.New()
	app.Use(RequestLogger(zap.New(core)))
	app.Get("/ping", func(c *fiber.Ctx) error {
		logging.FromContext(c.UserContext(), nil).Info("pong")
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "req-42", resp.Header.Get(RequestIDHeader))

	entries := logs.FilterMessage("pong").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "/ping", entries[0].ContextMap()["path"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil), -1)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}

func TestAuthRequired(t *testing.T) {
	db := testutil.NewTestDB(t)
	auth := services.NewAuthService(repositories.NewGORMUserRepository(db), "test_jwt_secret", zap.NewNop())
	_, err := auth.EnsureAdmin(context.Background(), "operator", "ops@example.com", "password123")
	require.NoError(t, err)
	token, err := auth.LoginUser(context.Background(), "operator", "password123")
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/secret", AuthRequired(auth, zap.NewNop()), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("username").(string))
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer not-a-token", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/secret", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
