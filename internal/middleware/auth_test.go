package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"snapcircle/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestAuthRequired(t *testing.T) {
	app := fiber.New()
	InitMiddleware(&config.Config{
		JWTSecret:   testSecret,
		JWTIssuer:   "snapcircle-api",
		JWTAudience: "snapcircle-client",
	})

	app.Get("/test", AuthRequired, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": c.Locals("userID")})
	})

	claimsFor := func(userID uint, exp time.Duration) jwt.MapClaims {
		return jwt.MapClaims{
			"sub": strconv.FormatUint(uint64(userID), 10),
			"iss": "snapcircle-api",
			"aud": "snapcircle-client",
			"exp": time.Now().Add(exp).Unix(),
		}
	}

	wrongAudience := claimsFor(5, time.Hour)
	wrongAudience["aud"] = "someone-else"
	noSubject := claimsFor(5, time.Hour)
	delete(noSubject, "sub")

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedUserID uint
	}{
		{"valid token", "Bearer " + signToken(t, testSecret, claimsFor(123, time.Hour)), http.StatusOK, 123},
		{"missing header", "", http.StatusUnauthorized, 0},
		{"basic scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, 0},
		{"malformed token", "Bearer malformed.token.here", http.StatusUnauthorized, 0},
		{"expired token", "Bearer " + signToken(t, testSecret, claimsFor(123, -time.Hour)), http.StatusUnauthorized, 0},
		{"wrong secret", "Bearer " + signToken(t, "another-secret-another-secret-another", claimsFor(1, time.Hour)), http.StatusUnauthorized, 0},
		{"wrong audience", "Bearer " + signToken(t, testSecret, wrongAudience), http.StatusUnauthorized, 0},
		{"missing subject", "Bearer " + signToken(t, testSecret, noSubject), http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, float64(tt.expectedUserID), body["userID"])
			} else {
				assert.Equal(t, "UNAUTHORIZED", body["code"])
			}
		})
	}
}

func TestNewLogger_KeepsContextHandlerOnWith(t *testing.T) {
	logger := NewLogger("production", "debug").With("component", "test")
	_, ok := logger.Handler().(*ctxHandler)
	assert.True(t, ok)
}
