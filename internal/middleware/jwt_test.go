package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pianoteacher/studio-api/internal/service"
	appErrors "github.com/pianoteacher/studio-api/pkg/errors"
)

type validatorMock struct {
	claims *service.Claims
	err    error
	token  string
}

func (m *validatorMock) ValidateToken(token string) (*service.Claims, error) {
	m.token = token
	return m.claims, m.err
}

func jwtTestRouter(auth tokenValidator) (*gin.Engine, *bool) {
	gin.SetMode(gin.TestMode)
	reached := false
	r := gin.New()
	r.GET("/protected", JWT(auth), func(c *gin.Context) {
		reached = true
		claims, ok := ClaimsFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"subject": claims.Subject})
	})
	return r, &reached
}

func TestJWTMiddlewareAllowsValidToken(t *testing.T) {
	mock := &validatorMock{claims: &service.Claims{}}
	mock.claims.Subject = "user-1"
	r, reached := jwtTestRouter(mock)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer token-abc")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, *reached)
	assert.Equal(t, "token-abc", mock.token)
	assert.Contains(t, w.Body.String(), "user-1")
}

func TestJWTMiddlewareMissingHeader(t *testing.T) {
	r, reached := jwtTestRouter(&validatorMock{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, *reached)
}

func TestJWTMiddlewareWrongScheme(t *testing.T) {
	r, reached := jwtTestRouter(&validatorMock{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, *reached)
}

func TestJWTMiddlewareInvalidToken(t *testing.T) {
	r, reached := jwtTestRouter(&validatorMock{err: appErrors.ErrUnauthorized})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, *reached)
}
