package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"snapfeed/internal/middleware"
	"snapfeed/internal/pkg/jwt"
)

func newAuthedRouter(secret []byte) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", middleware.JWTAuth(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(middleware.ContextUserIDKey)})
	})
	return router
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	secret := []byte("test-secret")
	router := newAuthedRouter(secret)

	token, err := jwt.GenerateToken("user-1", "a@b.com", secret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestJWTAuthRejectsUniformly(t *testing.T) {
	secret := []byte("test-secret")
	router := newAuthedRouter(secret)

	expired, err := jwt.GenerateToken("user-1", "", secret, -time.Minute)
	require.NoError(t, err)

	cases := map[string]string{
		"missing":   "",
		"malformed": "Bearer not-a-token",
		"bad-kind":  "Basic abc",
		"expired":   "Bearer " + expired,
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code, name)
	}
}
