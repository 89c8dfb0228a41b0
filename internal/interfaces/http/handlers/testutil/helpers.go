// Package testutil holds helpers for exercising gin handlers without a server.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/coinpayable/internal/shared/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// APIResponse is the response envelope with Data left raw for DecodeData.
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

type ErrorInfo struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// NewTestContext builds a context for calling a handler directly. A non-nil body is sent as JSON.
func NewTestContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = newRequest(method, path, body)
	return c, w
}

// SetURLParam sets a route parameter such as :id on the gin context.
func SetURLParam(c *gin.Context, key, value string) {
	c.Params = append(c.Params, gin.Param{Key: key, Value: value})
}

// Perform sends a request through h, which is usually a fully routed engine.
func Perform(h http.Handler, method, path string, body interface{}, header http.Header) *httptest.ResponseRecorder {
	req := newRequest(method, path, body)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// ParseResponse decodes the envelope of a recorded response.
func ParseResponse(w *httptest.ResponseRecorder, target interface{}) error {
	return json.Unmarshal(w.Body.Bytes(), target)
}

// DecodeData unmarshals the envelope's data into target.
func DecodeData(t *testing.T, resp APIResponse, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Data, target))
}

// NewMockLogger returns a logger that drops every record.
func NewMockLogger() logger.Interface {
	return logger.NewDiscardLogger()
}

func newRequest(method, path string, body interface{}) *http.Request {
	if body == nil {
		return httptest.NewRequest(method, path, nil)
	}
	raw, ok := body.([]byte)
	if !ok {
		raw, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}
