package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"carp-service/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubValidator map[string]*jwt.Claims

func (s stubValidator) ValidateToken(_ context.Context, token string) (*jwt.Claims, error) {
	claims, ok := s[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return claims, nil
}

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	expires := time.Now().Add(time.Hour)
	validator := stubValidator{
		"user-token": {
			UserID: 5, Role: jwt.RoleUser, Purpose: jwt.PurposeAccess,
			RegisteredClaims: gojwt.RegisteredClaims{ID: "jti-user", ExpiresAt: gojwt.NewNumericDate(expires)},
		},
		"admin-token": {
			UserID: 1, Role: jwt.RoleAdmin, Purpose: jwt.PurposeAccess,
			RegisteredClaims: gojwt.RegisteredClaims{ID: "jti-admin"},
		},
	}
	auth := NewAuthMiddleware(validator)

	r := gin.New()
	r.Use(RecoveryMiddleware(zap.NewNop()), LoggingMiddleware(zap.NewNop()))
	r.GET("/me", auth.Auth(), func(c *gin.Context) {
		jti, _ := GetJTI(c)
		_, hasExpiry := GetTokenExpiry(c)
		c.JSON(http.StatusOK, gin.H{"user_id": MustGetUserID(c), "jti": jti, "expiry": hasExpiry})
	})
	r.GET("/admin", append(auth.AdminOnly(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})...)
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return r
}

func serve(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := testRouter()

	w := serve(r, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, "/me", "forged")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, "/me", "user-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":5,"jti":"jti-user","expiry":true}`, w.Body.String())
}

func TestAuth_QueryToken(t *testing.T) {
	r := testRouter()

	w := serve(r, "/me?token=user-token", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminOnly(t *testing.T) {
	r := testRouter()

	assert.Equal(t, http.StatusForbidden, serve(r, "/admin", "user-token").Code)
	assert.Equal(t, http.StatusNoContent, serve(r, "/admin", "admin-token").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/admin", "").Code)
}

func TestRecovery(t *testing.T) {
	r := testRouter()

	w := serve(r, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"http://localhost:5173"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
