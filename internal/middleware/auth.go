package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ContextPatientID = "patient_id"
	ContextRole      = "role"
)

// AuthMiddleware extracts identity from tokens issued by the upstream
// identity service. It verifies and parses; it never issues tokens.
type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

type claims struct {
	PatientID string `json:"patient_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

func (m *AuthMiddleware) parse(c *gin.Context) (*claims, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, false
	}

	var cl claims
	token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), &cl,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return m.secret, nil
		})
	if err != nil || !token.Valid {
		return nil, false
	}
	return &cl, true
}

// Authenticate requires a valid upstream token and exposes its identity
// claims to handlers.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, ok := m.parse(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Code:    http.StatusUnauthorized,
				Message: "invalid or missing token",
				TraceID: c.GetString(ContextRequestID),
			})
			return
		}

		c.Set(ContextPatientID, cl.PatientID)
		c.Set(ContextRole, cl.Role)
		c.Next()
	}
}

// RequireAdmin gates administrator-only routes.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRole) != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Code:    http.StatusForbidden,
				Message: "admin role required",
				TraceID: c.GetString(ContextRequestID),
			})
			return
		}
		c.Next()
	}
}
