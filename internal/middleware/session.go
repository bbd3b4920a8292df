// session.go issues and checks the bearer tokens that bind a client to
// one quiz session.
package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Shimizu-Technology/quizcards-api/internal/models"
)

const sessionContextKey = "session_id"

// tokenLifetime caps a token's validity. Idle sessions expire sooner.
const tokenLifetime = 24 * time.Hour

// ErrSessionMismatch means a valid token was presented for another session.
var ErrSessionMismatch = errors.New("token does not belong to this session")

// GenerateSessionToken signs a token whose subject is the session ID.
func GenerateSessionToken(sessionID, secret string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseSessionToken validates a token and returns the session ID it names.
func ParseSessionToken(tokenString, secret string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", jwt.ErrTokenInvalidSubject
	}
	return claims.Subject, nil
}

// SessionAuth requires a bearer token whose subject matches the :id route
// parameter.
func SessionAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, ok := authenticate(c, secret)
		if !ok {
			return
		}
		if sessionID != c.Param("id") {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
				Error:   "forbidden",
				Message: ErrSessionMismatch.Error(),
				Code:    http.StatusForbidden,
			})
			return
		}

		c.Set(sessionContextKey, sessionID)
		c.Next()
	}
}

// BearerAuth requires a valid session token without binding it to a route
// parameter. Handlers scope their queries with GetSessionID.
func BearerAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, ok := authenticate(c, secret)
		if !ok {
			return
		}
		c.Set(sessionContextKey, sessionID)
		c.Next()
	}
}

// authenticate parses the bearer token or aborts with 401.
func authenticate(c *gin.Context, secret string) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		unauthorized(c, "Missing or invalid Authorization header. Use 'Bearer <token>'")
		return "", false
	}

	sessionID, err := ParseSessionToken(strings.TrimPrefix(authHeader, "Bearer "), secret)
	if err != nil {
		unauthorized(c, "Invalid or expired session token")
		return "", false
	}
	return sessionID, true
}

// GetSessionID returns the authenticated session ID, or "" if unset.
func GetSessionID(c *gin.Context) string {
	return c.GetString(sessionContextKey)
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   "unauthorized",
		Message: msg,
		Code:    http.StatusUnauthorized,
	})
}
