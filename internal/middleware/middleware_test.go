package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"marketplace-service/internal/service"
	"marketplace-service/pkg/config"
	"marketplace-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJWT() *jwtutil.JWTUtil {
	return jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "test-secret", ExpirationHours: 1})
}

// echoIdentity responds with the identity the services would see
func echoIdentity(c echo.Context) error {
	identity, ok := service.IdentityFrom(c.Request().Context())
	if !ok {
		return c.String(http.StatusTeapot, "")
	}
	return c.String(http.StatusOK, identity)
}

func serve(t *testing.T, jwt *jwtutil.JWTUtil, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Use(RequestIDMiddleware())
	e.GET("/me", echoIdentity, JWTAuthMiddleware(jwt))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequestIDIsGeneratedAndEchoed(t *testing.T) {
	rec := serve(t, newJWT(), httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = serve(t, newJWT(), req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestJWTAuthMiddleware(t *testing.T) {
	jwt := newJWT()
	token, err := jwt.GenerateToken("user-42", "u@example.com")
	require.NoError(t, err)

	other := jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "other", ExpirationHours: 1})
	foreign, err := other.GenerateToken("user-42", "")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		query  string
		status int
		body   string
	}{
		{"bearer header", "Bearer " + token, "", http.StatusOK, "user-42"},
		{"query parameter", "", "?access_token=" + token, http.StatusOK, "user-42"},
		{"missing token", "", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic " + token, "", http.StatusUnauthorized, ""},
		{"wrong key", "Bearer " + foreign, "", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := serve(t, jwt, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}
