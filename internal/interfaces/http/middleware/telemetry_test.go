package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/auth"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestHTTPMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := telemetry.NewMeterProviderWithReader(reader, nil)
	t.Cleanup(func() { _ = mp.Shutdown(t.Context()) })

	r := gin.New()
	r.Use(HTTPMetrics(HTTPMetricsConfig{MeterProvider: mp, Enabled: true}))
	r.GET("/api/v1/transactions/:id", func(c *gin.Context) { c.String(http.StatusOK, "tx") })

	for range 3 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/transactions/"+uuid.NewString(), nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(t.Context(), &rm))

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "http_server_request_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				route, _ := dp.Attributes.Value(telemetry.AttrHTTPRoute)
				counts[route.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(3), counts["/api/v1/transactions/:id"])
	assert.Equal(t, int64(1), counts["unknown"])
}

func TestHTTPMetrics_DisabledIsPassThrough(t *testing.T) {
	r := gin.New()
	r.Use(HTTPMetrics(HTTPMetricsConfig{Enabled: true}))
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestTracing_SpanPerRouteWithCaller(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	svc := newTestJWTService()
	residentID := uuid.New()
	token, _, err := svc.GenerateAccessToken(residentID, auth.RoleAdmin)
	require.NoError(t, err)

	r := gin.New()
	r.Use(RequestID(), Tracing(TracingConfig{ServiceName: "dues-engine", Enabled: true, TracerProvider: tp}),
		JWTAuthMiddleware(svc), SpanEnricher())
	r.POST("/api/v1/transactions/:id/approve", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/"+uuid.NewString()+"/approve", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	req.Header.Set(RequestIDHeader, "req-7")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Contains(t, span.Name(), "/api/v1/transactions/:id/approve")
	assert.Equal(t, codes.Error, span.Status().Code)

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "req-7", attrs["request_id"].AsString())
	assert.Equal(t, residentID.String(), attrs[telemetry.SpanAttrResidentID].AsString())
	assert.Equal(t, "admin", attrs["role"].AsString())
}

func TestTracing_Disabled(t *testing.T) {
	r := gin.New()
	r.Use(Tracing(TracingConfig{Enabled: false}), SpanEnricher())
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
