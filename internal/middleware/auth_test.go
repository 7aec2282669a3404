package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, role string, expired bool) string {
	t.Helper()
	exp := time.Now().Add(time.Hour)
	if expired {
		exp = time.Now().Add(-time.Hour)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"patient_id": "8f6f6e0a-0000-0000-0000-000000000001",
		"role":       role,
		"exp":        exp.Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := NewAuthMiddleware(testSecret)

	r := gin.New()
	r.GET("/me", auth.Authenticate(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"patient_id": c.GetString(ContextPatientID),
			"role":       c.GetString(ContextRole),
		})
	})
	r.GET("/admin", auth.Authenticate(), auth.RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func doRequest(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	r := authRouter()

	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/me", "not-a-token").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/me", signToken(t, "patient", true)).Code)

	ok := doRequest(r, "/me", signToken(t, "patient", false))
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Contains(t, ok.Body.String(), "8f6f6e0a")
}

func TestAuthenticate_RejectsWrongSecret(t *testing.T) {
	r := authRouter()

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"patient_id": "x",
		"role":       "admin",
		"exp":        time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/admin", forged).Code)
}

func TestRequireAdmin(t *testing.T) {
	r := authRouter()

	assert.Equal(t, http.StatusForbidden, doRequest(r, "/admin", signToken(t, "patient", false)).Code)
	assert.Equal(t, http.StatusOK, doRequest(r, "/admin", signToken(t, "admin", false)).Code)
}
