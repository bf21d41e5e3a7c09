package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/robertarktes/clinic-front-desk/internal/observability"
)

// captureLogger records fields so tests can see what a request-scoped
// logger was bound with.
type captureLogger struct {
	fields map[string]interface{}
}

func newCaptureLogger() *captureLogger {
	return &captureLogger{fields: map[string]interface{}{}}
}

func (c *captureLogger) Info(args ...interface{})  {}
func (c *captureLogger) Error(args ...interface{}) {}
func (c *captureLogger) Debug(args ...interface{}) {}
func (c *captureLogger) Warn(args ...interface{})  {}

func (c *captureLogger) WithField(key string, value interface{}) observability.Logger {
	c.fields[key] = value
	return c
}

func (c *captureLogger) WithError(err error) observability.Logger { return c }

func TestRequestLoggerFromContext(t *testing.T) {
	logger := newCaptureLogger()

	var got observability.Logger
	handler := RequestIDMiddleware(LoggerMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestLogger(r.Context())
		w.WriteHeader(http.StatusOK)
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/v1/queue", nil))

	if got != logger {
		t.Fatal("expected the request-scoped logger from the context")
	}
	if _, ok := logger.fields["request_id"]; !ok {
		t.Error("expected the logger to carry a request_id field")
	}
}

func TestRequestLogger_FallsBack(t *testing.T) {
	if requestLogger(context.Background()) == nil {
		t.Fatal("expected a usable fallback logger without the middleware")
	}
}
