package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/chirp/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type widget struct {
	ID   uint
	Name string
}

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func spanNames(spans []sdktrace.ReadOnlySpan) []string {
	names := make([]string, 0, len(spans))
	for _, s := range spans {
		names = append(names, s.Name())
	}
	return names
}

func TestInitTracer_Disabled(t *testing.T) {
	tp, err := InitTracer(context.Background(), config.TracingConfig{Enabled: false}, "test")
	assert.NoError(t, err)
	assert.Nil(t, tp)
}

func TestGORMTracingPlugin(t *testing.T) {
	recorder := installRecorder(t)

	db, err := gorm.Open(sqlite.Open("file:telemetry_test?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&widget{}))
	require.NoError(t, db.Use(GORMTracingPlugin()))

	ctx := context.Background()
	require.NoError(t, db.WithContext(ctx).Create(&widget{Name: "a"}).Error)

	var found widget
	err = db.WithContext(ctx).First(&found, "name = ?", "missing").Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	spans := recorder.Ended()
	assert.Contains(t, spanNames(spans), "db.insert")
	assert.Contains(t, spanNames(spans), "db.select")

	for _, s := range spans {
		if s.Name() != "db.select" {
			continue
		}
		assert.NotEqual(t, codes.Error, s.Status().Code, "not-found should not mark the span failed")
		assert.Contains(t, s.Attributes(), attribute.String(dbSystemKey, "sqlite"))
	}
}

func TestExternalCallSpans(t *testing.T) {
	recorder := installRecorder(t)

	_, span := StartExternalCall(context.Background(), "elasticsearch", "search", attribute.String("es.index", "tweets"))
	EndExternalCall(span, assert.AnError)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "elasticsearch.search", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("es.index", "tweets"))
}

func TestInstrumentedHTTPClient(t *testing.T) {
	recorder := installRecorder(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	resp, err := NewInstrumentedHTTPClient(0).Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.NotEmpty(t, recorder.Ended())
}
