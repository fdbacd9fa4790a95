package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"sensorhub/backend/services/sensor-api/internal/models"
)

func TestCollectorCounts(t *testing.T) {
	c := New()

	c.ReadingsIngested("batch", 3)
	c.ReadingsIngested("single", 1)
	c.ReadingsIngested("batch", 2)
	c.UploadRejected()
	c.Publish(models.Reading{EquipmentID: "S1", Value: 21.5})
	c.Publish(models.Reading{EquipmentID: "S1", Value: 22.0})

	require.Equal(t, 5.0, testutil.ToFloat64(c.readingsIngested.WithLabelValues("batch")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.readingsIngested.WithLabelValues("single")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.uploadsRejected))
	require.Equal(t, 22.0, testutil.ToFloat64(c.lastValue.WithLabelValues("S1")))
}

func TestPublishKeepsNewestReadingByTimestamp(t *testing.T) {
	c := New()
	t0 := time.Date(2024, 12, 6, 12, 0, 0, 0, time.UTC)

	c.Publish(models.Reading{EquipmentID: "S1", Timestamp: t0, Value: 25.0})
	c.Publish(models.Reading{EquipmentID: "S1", Timestamp: t0.Add(-time.Hour), Value: 30.0})
	require.Equal(t, 25.0, testutil.ToFloat64(c.lastValue.WithLabelValues("S1")))

	c.Publish(models.Reading{EquipmentID: "S1", Timestamp: t0.Add(time.Minute), Value: 26.0})
	require.Equal(t, 26.0, testutil.ToFloat64(c.lastValue.WithLabelValues("S1")))
}

func TestPublishCapsStationSeries(t *testing.T) {
	c := New()
	c.maxStations = 2
	t0 := time.Date(2024, 12, 6, 12, 0, 0, 0, time.UTC)

	c.Publish(models.Reading{EquipmentID: "S1", Timestamp: t0, Value: 1})
	c.Publish(models.Reading{EquipmentID: "S2", Timestamp: t0, Value: 2})
	c.Publish(models.Reading{EquipmentID: "S3", Timestamp: t0, Value: 3})
	require.Equal(t, 2, testutil.CollectAndCount(c.lastValue))

	c.Publish(models.Reading{EquipmentID: "S2", Timestamp: t0.Add(time.Second), Value: 4})
	require.Equal(t, 2, testutil.CollectAndCount(c.lastValue))
	require.Equal(t, 4.0, testutil.ToFloat64(c.lastValue.WithLabelValues("S2")))
}

func TestHandlerExposesRequestMetrics(t *testing.T) {
	c := New()
	c.ObserveRequest("/sensors/average", http.MethodGet, http.StatusOK, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `sensorhub_http_requests_total{method="GET",route="/sensors/average",status="200"} 1`)
	require.Contains(t, string(body), "sensorhub_http_request_duration_seconds_bucket")
}
