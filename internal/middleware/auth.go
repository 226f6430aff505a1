package middleware

import (
	"errors"
	"net/http"
	"strings"

	"marketplace-service/internal/service"
	"marketplace-service/pkg/jwtutil"
	"marketplace-service/pkg/logger"
	"marketplace-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// IdentityKey is the Echo context key holding the verified identity
const IdentityKey = "identity"

// AccessTokenParam is the query parameter accepted in place of the
// Authorization header, for clients that cannot set headers (websockets)
const AccessTokenParam = "access_token"

var errMissingToken = errors.New("missing authorization header")

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		if token := c.QueryParam(AccessTokenParam); token != "" {
			return token, nil
		}
		return "", errMissingToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}

// JWTAuthMiddleware validates the bearer token and puts its identity on the
// request context, where the services read it
func JWTAuthMiddleware(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			tokenString, err := bearerToken(c)
			if err != nil {
				prometheus.RecordAuthAttempt(err)
				log.Warn("Rejected request without usable token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
			}

			claims, err := jwtUtil.ValidateToken(tokenString)
			prometheus.RecordAuthAttempt(err)
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
			}

			identity := claims.Identity()
			c.Set(IdentityKey, identity)
			c.SetRequest(c.Request().WithContext(service.WithIdentity(c.Request().Context(), identity)))
			logger.SetEcho(c, log.With(zap.String("identity", identity)))

			log.Debug("JWT token validated successfully",
				zap.String("identity", identity),
				zap.String("email", claims.Email))

			return next(c)
		}
	}
}
