package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/screensync/backend/subm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func TestTracedProcessor(t *testing.T) {
	recorder := recordSpans(t)

	p := NewTracedProcessor(&subm.Processor{
		Blobs: subm.NewInMemBlobStore("http://blobs.test"),
		Subms: subm.NewInMemSubmStore(),
	})
	form := subm.NewForm("Acme").
		AddContractor(0, "Jane Doe").
		AddScreenshot(0, subm.Screenshot{Filename: "a.png", Size: 3, Content: []byte("png")})

	res := p.Process(context.Background(), *form)
	require.True(t, res.Success)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "ProcessBatch", spans[0].Name())
}

type failingLister struct{}

func (failingLister) List(context.Context) ([]subm.Subm, error) {
	return nil, errors.New("store down")
}

func TestTracedListerRecordsError(t *testing.T) {
	recorder := recordSpans(t)

	_, err := NewTracedLister(failingLister{}).List(context.Background())
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "ListSubms", spans[0].Name())
	assert.Equal(t, "store down", spans[0].Status().Description)
}

func TestMiddlewareRecordsStatus(t *testing.T) {
	recorder := recordSpans(t)

	var traceID string
	h := NewTracingMiddleware("test").Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = TraceID(r.Context())
		w.WriteHeader(http.StatusBadGateway)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/submissions", nil))

	assert.NotEmpty(t, traceID)
	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /submissions", spans[0].Name())
}
