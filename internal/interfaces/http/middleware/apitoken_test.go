package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTokenEngine(token string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/api/ping", RequireAPIToken(token), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return engine
}

func TestRequireAPIToken(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		headers    map[string]string
		wantStatus int
	}{
		{"disabled", "", nil, http.StatusNoContent},
		{"missing", "s3cret", nil, http.StatusUnauthorized},
		{"wrong", "s3cret", map[string]string{"X-API-Token": "guess"}, http.StatusUnauthorized},
		{"header", "s3cret", map[string]string{"X-API-Token": "s3cret"}, http.StatusNoContent},
		{"bearer", "s3cret", map[string]string{"Authorization": "Bearer s3cret"}, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()

			newTokenEngine(tt.token).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
