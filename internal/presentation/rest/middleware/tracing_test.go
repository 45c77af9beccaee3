package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func setupSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(noop.NewTracerProvider())
	})
	return sr
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) attribute.Value {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func TestTracingMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		handler    echo.HandlerFunc
		wantStatus otelcodes.Code
		wantHTTP   int64
	}{
		{
			name:       "正常系: 成功",
			handler:    func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
			wantStatus: otelcodes.Unset,
			wantHTTP:   http.StatusOK,
		},
		{
			name:       "正常系: 4xxはエラーにしない",
			handler:    func(c echo.Context) error { return c.String(http.StatusConflict, "conflict") },
			wantStatus: otelcodes.Unset,
			wantHTTP:   http.StatusConflict,
		},
		{
			name:       "正常系: 5xxはエラー",
			handler:    func(c echo.Context) error { return c.String(http.StatusServiceUnavailable, "down") },
			wantStatus: otelcodes.Error,
			wantHTTP:   http.StatusServiceUnavailable,
		},
		{
			name:       "異常系: ハンドラーエラー",
			handler:    func(c echo.Context) error { return errors.New("boom") },
			wantStatus: otelcodes.Error,
			wantHTTP:   -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := setupSpanRecorder(t)

			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/users/user123/purchase", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetPath("/api/v1/users/:user_id/purchase")

			_ = TracingMiddleware()(tt.handler)(c)

			spans := sr.Ended()
			require.Len(t, spans, 1)
			span := spans[0]
			assert.Equal(t, "POST /api/v1/users/:user_id/purchase", span.Name())
			assert.Equal(t, trace.SpanKindServer, span.SpanKind())
			assert.Equal(t, tt.wantStatus, span.Status().Code)
			if tt.wantHTTP > 0 {
				assert.Equal(t, tt.wantHTTP, spanAttr(span, "http.status_code").AsInt64())
			}
		})
	}
}

func TestTracingMiddleware_PropagatesParent(t *testing.T) {
	sr := setupSpanRecorder(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/roulette", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/roulette")

	var handlerSpan trace.SpanContext
	handler := TracingMiddleware()(func(c echo.Context) error {
		handlerSpan = trace.SpanContextFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext().TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent().SpanID().String())
	assert.Equal(t, spans[0].SpanContext().SpanID(), handlerSpan.SpanID())
}
