package apiserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 12 * time.Hour

type operatorClaims struct {
	jwt.RegisteredClaims
}

// issueToken checks the supplied operator token against the configured
// bcrypt hash and, on success, mints a short-lived JWT for subsequent
// admin requests.
func (s *Server) issueToken(plainToken string) (string, error) {
	if s.cfg.OperatorToken == "" {
		return "", fmt.Errorf("apiserver: admin auth is not configured")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.OperatorToken), []byte(plainToken)); err != nil {
		return "", fmt.Errorf("apiserver: invalid operator token")
	}

	claims := operatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "operator",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// handleLogin exchanges the operator token for a JWT.
func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	signed, err := s.issueToken(req.Token)
	if err != nil {
		errorResponse(c, http.StatusUnauthorized, err.Error())
		return
	}
	successResponse(c, gin.H{"token": signed, "expires_in_seconds": int(tokenTTL.Seconds())})
}

// authMiddleware guards the admin routes with a bearer JWT minted by
// handleLogin.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.OperatorToken == "" {
			errorResponse(c, http.StatusServiceUnavailable, "admin auth is not configured")
			c.Abort()
			return
		}

		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			errorResponse(c, http.StatusUnauthorized, "missing bearer token")
			c.Abort()
			return
		}

		claims := &operatorClaims{}
		_, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(s.cfg.JWTSecret), nil
		})
		if err != nil {
			errorResponse(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Next()
	}
}
