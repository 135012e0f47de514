package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bugtrail/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func signToken(t *testing.T, sub string, secret string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authTestApp() *fiber.App {
	InitMiddleware(&config.Config{JWTSecret: testSecret})

	app := fiber.New()
	app.Get("/protected", AuthRequired, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("userID")})
	})
	app.Get("/ws", WebSocketAuthRequired, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("userID")})
	})
	return app
}

func TestAuthRequired(t *testing.T) {
	app := authTestApp()
	userID := "64f1c2d3e4a5b6c7d8e9f0a1"

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{
			name:           "valid token",
			header:         "Bearer " + signToken(t, userID, testSecret, time.Now().Add(time.Hour)),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing header",
			header:         "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "malformed header",
			header:         "Token abc",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "expired token",
			header:         "Bearer " + signToken(t, userID, testSecret, time.Now().Add(-time.Hour)),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "wrong secret",
			header:         "Bearer " + signToken(t, userID, "another-secret-that-is-32-chars!", time.Now().Add(time.Hour)),
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestWebSocketAuthRequired_QueryToken(t *testing.T) {
	app := authTestApp()
	userID := "64f1c2d3e4a5b6c7d8e9f0a1"
	token := signToken(t, userID, testSecret, time.Now().Add(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/ws", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
