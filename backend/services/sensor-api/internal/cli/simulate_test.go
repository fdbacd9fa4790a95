package cli

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sensorhub/backend/services/sensor-api/internal/models"
	"sensorhub/backend/services/sensor-api/internal/service"
)

type recordingPoster struct {
	mu       sync.Mutex
	readings []models.Reading
	failFor  string
}

func (p *recordingPoster) PostReading(_ context.Context, r models.Reading) (*service.InsertResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r.EquipmentID == p.failFor {
		return nil, errors.New("status 500")
	}
	p.readings = append(p.readings, r)
	return &service.InsertResult{Message: "Data inserted", ID: r.EquipmentID}, nil
}

func TestSimulatorRound(t *testing.T) {
	poster := &recordingPoster{failFor: "STATION_3"}
	sim, err := NewSimulator(poster, SimulatorConfig{
		Stations: StationNames(5),
		Interval: time.Second,
		Min:      20,
		Max:      30,
		Workers:  2,
	}, zap.NewNop())
	require.NoError(t, err)
	fixed := time.Date(2024, 12, 6, 12, 0, 0, 0, time.UTC)
	sim.now = func() time.Time { return fixed }

	sent, failed := sim.Round(context.Background())
	require.Equal(t, 4, sent)
	require.Equal(t, 1, failed)
	require.Len(t, poster.readings, 4)

	for _, r := range poster.readings {
		require.GreaterOrEqual(t, r.Value, 20.0)
		require.LessOrEqual(t, r.Value, 30.0)
		require.InDelta(t, r.Value, math.Round(r.Value*100)/100, 1e-9)
		require.True(t, fixed.Equal(r.Timestamp))
	}
}

func TestSimulatorRunStopsOnCancel(t *testing.T) {
	poster := &recordingPoster{}
	sim, err := NewSimulator(poster, SimulatorConfig{Stations: []string{"S1"}, Interval: 10 * time.Millisecond, Min: 1, Max: 1}, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()
	require.NoError(t, sim.Run(ctx))

	poster.mu.Lock()
	defer poster.mu.Unlock()
	require.NotEmpty(t, poster.readings)
	require.Equal(t, 1.0, poster.readings[0].Value)
}

func TestNewSimulatorValidation(t *testing.T) {
	_, err := NewSimulator(&recordingPoster{}, SimulatorConfig{Interval: time.Second}, zap.NewNop())
	require.Error(t, err)

	_, err = NewSimulator(&recordingPoster{}, SimulatorConfig{Stations: []string{"S1"}}, zap.NewNop())
	require.Error(t, err)

	_, err = NewSimulator(&recordingPoster{}, SimulatorConfig{Stations: []string{"S1"}, Interval: time.Second, Min: 5, Max: 1}, zap.NewNop())
	require.Error(t, err)
}

func TestStationNames(t *testing.T) {
	require.Equal(t, []string{"STATION_1", "STATION_2"}, StationNames(2))
	require.Empty(t, StationNames(0))
}
