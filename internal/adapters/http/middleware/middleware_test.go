package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	return w
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{"propagates incoming header", "req-123"},
		{"generates uuid when missing", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ginID, ctxID string

			engine := gin.New()
			engine.Use(RequestID())
			engine.GET("/", func(c *gin.Context) {
				ginID = GetRequestID(c)
				ctxID = RequestIDFromContext(c.Request.Context())
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(HeaderRequestID, tt.incoming)
			}

			w := serve(engine, req)

			echoed := w.Header().Get(HeaderRequestID)
			assert.Equal(t, echoed, ginID)
			assert.Equal(t, echoed, ctxID, "outbound clients read the ID from the request context")

			if tt.incoming != "" {
				assert.Equal(t, tt.incoming, echoed)
			} else {
				_, err := uuid.Parse(echoed)
				assert.NoError(t, err)
			}
		})
	}
}

func TestCorrelationID(t *testing.T) {
	var ginID, ctxID string

	engine := gin.New()
	engine.Use(CorrelationID())
	engine.GET("/", func(c *gin.Context) {
		ginID = GetCorrelationID(c)
		ctxID = CorrelationIDFromContext(c.Request.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderCorrelationID, "corr-456")

	w := serve(engine, req)

	assert.Equal(t, "corr-456", w.Header().Get(HeaderCorrelationID))
	assert.Equal(t, "corr-456", ginID)
	assert.Equal(t, "corr-456", ctxID)
}

func TestIDs_LoggerEnriched(t *testing.T) {
	var buf bytes.Buffer

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), logger))
		c.Next()
	}, RequestID(), CorrelationID())
	engine.GET("/", func(c *gin.Context) {
		logging.FromContext(c.Request.Context()).Info("handled")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	req.Header.Set(HeaderCorrelationID, "corr-1")
	serve(engine, req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "corr-1", entry["correlation_id"])
}

func TestIDFromContext_NotSet(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))
	assert.Empty(t, CorrelationIDFromContext(nil)) //nolint:staticcheck // nil guard

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Empty(t, GetRequestID(c))
	assert.Empty(t, GetCorrelationID(c))
}

func TestLogging(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		status    int
		wantLog   bool
		wantLevel string
	}{
		{"success logs info", "/api/v1/quotes", http.StatusOK, true, "INFO"},
		{"client error logs warn", "/api/v1/quotes", http.StatusBadRequest, true, "WARN"},
		{"server error logs error", "/api/v1/quotes", http.StatusServiceUnavailable, true, "ERROR"},
		{"health path skipped", "/-/live", http.StatusOK, false, ""},
		{"skip path skipped", "/api/v1/notifications/ws", http.StatusOK, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			original := logging.FromContext(context.Background())
			logging.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
			t.Cleanup(func() { logging.SetDefault(original) })

			engine := gin.New()
			engine.Use(Logging("/api/v1/notifications/ws"))
			engine.GET(tt.path, func(c *gin.Context) { c.Status(tt.status) })

			serve(engine, httptest.NewRequest(http.MethodGet, tt.path+"?category=Design", nil))

			if !tt.wantLog {
				assert.Empty(t, buf.String())
				return
			}

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, "request completed", entry["msg"])
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.path+"?category=Design", entry["path"])
			assert.InDelta(t, tt.status, entry["status"], 0)
		})
	}
}

func TestRecovery(t *testing.T) {
	engine := gin.New()
	engine.Use(Recovery())
	engine.GET("/panic", func(*gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set(HeaderRequestID, "req-9")

	w := serve(engine, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrorCodeInternal, resp.Error.Code)
	assert.Equal(t, "req-9", resp.TraceID)
}

func TestRecovery_AfterWrite(t *testing.T) {
	engine := gin.New()
	engine.Use(Recovery())
	engine.GET("/partial", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("late")
	})

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/partial", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "partial", w.Body.String())
}

func TestTimeout(t *testing.T) {
	var deadlines = map[string]bool{}

	engine := gin.New()
	engine.Use(Timeout(time.Second, "/stream"))

	for _, p := range []string{"/bounded", "/stream"} {
		engine.GET(p, func(c *gin.Context) {
			_, ok := c.Request.Context().Deadline()
			deadlines[c.FullPath()] = ok
		})
	}

	serve(engine, httptest.NewRequest(http.MethodGet, "/bounded", nil))
	serve(engine, httptest.NewRequest(http.MethodGet, "/stream", nil))

	assert.True(t, deadlines["/bounded"])
	assert.False(t, deadlines["/stream"])
}

func TestTimeout_Disabled(t *testing.T) {
	var hasDeadline bool

	engine := gin.New()
	engine.Use(Timeout(0))
	engine.GET("/", func(c *gin.Context) {
		_, hasDeadline = c.Request.Context().Deadline()
	})

	serve(engine, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, hasDeadline)
}
