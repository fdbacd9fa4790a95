package cli

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sensorhub/backend/services/sensor-api/internal/models"
	"sensorhub/backend/services/sensor-api/internal/service"
)

// ReadingPoster sends one reading to the API.
type ReadingPoster interface {
	PostReading(ctx context.Context, reading models.Reading) (*service.InsertResult, error)
}

// Simulator posts random readings for a set of stations every interval.
type Simulator struct {
	poster   ReadingPoster
	stations []string
	interval time.Duration
	min, max float64
	workers  int
	rng      *rand.Rand
	now      func() time.Time
	logger   *zap.Logger
}

// SimulatorConfig holds the tunables of a Simulator.
type SimulatorConfig struct {
	Stations []string
	Interval time.Duration
	Min, Max float64
	Workers  int
}

// NewSimulator validates cfg and builds a Simulator.
func NewSimulator(poster ReadingPoster, cfg SimulatorConfig, logger *zap.Logger) (*Simulator, error) {
	if len(cfg.Stations) == 0 {
		return nil, errors.New("simulate: at least one station is required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("simulate: interval must be positive")
	}
	if cfg.Min > cfg.Max {
		return nil, fmt.Errorf("simulate: min %.2f is above max %.2f", cfg.Min, cfg.Max)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Simulator{
		poster:   poster,
		stations: cfg.Stations,
		interval: cfg.Interval,
		min:      cfg.Min,
		max:      cfg.Max,
		workers:  cfg.Workers,
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
		now:      time.Now,
		logger:   logger,
	}, nil
}

// Run sends one round per interval until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) error {
	s.logger.Info("simulating stations", zap.Int("stations", len(s.stations)), zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		sent, failed := s.Round(ctx)
		s.logger.Debug("round finished", zap.Int("sent", sent), zap.Int("failed", failed))

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Round posts one reading per station with at most workers requests in flight.
func (s *Simulator) Round(ctx context.Context) (sent, failed int) {
	readings := make([]models.Reading, len(s.stations))
	ts := s.now().UTC()
	for i, station := range s.stations {
		readings[i] = models.Reading{EquipmentID: station, Timestamp: ts, Value: s.nextValue()}
	}

	var ok, bad atomic.Int64
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.workers)

	for _, reading := range readings {
		select {
		case <-ctx.Done():
			wg.Wait()
			return int(ok.Load()), int(bad.Load())
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(r models.Reading) {
			defer wg.Done()
			defer func() { <-sem }()
			if _, err := s.poster.PostReading(ctx, r); err != nil {
				bad.Add(1)
				s.logger.Warn("failed to send reading", zap.String("equipment_id", r.EquipmentID), zap.Error(err))
				return
			}
			ok.Add(1)
			s.logger.Info("reading sent", zap.String("equipment_id", r.EquipmentID), zap.Float64("value", r.Value))
		}(reading)
	}
	wg.Wait()
	return int(ok.Load()), int(bad.Load())
}

func (s *Simulator) nextValue() float64 {
	v := s.min + s.rng.Float64()*(s.max-s.min)
	return math.Round(v*100) / 100
}

// StationNames returns STATION_1..STATION_n.
func StationNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("STATION_%d", i+1)
	}
	return names
}

func newSimulateCommand(opts *globalOptions) *cobra.Command {
	var (
		cfg   SimulatorConfig
		count int
	)
	cmd := &cobra.Command{
		Use:   "simulate [station...]",
		Short: "Post random readings for one or more stations",
		Long: `Post a random reading for every station each interval until interrupted.

Examples:
  sensorctl simulate STATION_1
  sensorctl simulate --count 2000 --workers 100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := opts.newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			cfg.Stations = append(append([]string{}, args...), StationNames(count)...)

			client := opts.newClient()
			if err := opts.login(cmd.Context(), client); err != nil {
				return err
			}
			sim, err := NewSimulator(client, cfg, logger)
			if err != nil {
				return err
			}
			return sim.Run(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "also simulate STATION_1..STATION_n")
	cmd.Flags().DurationVar(&cfg.Interval, "interval", 2*time.Second, "delay between rounds")
	cmd.Flags().Float64Var(&cfg.Min, "min", 20, "lowest generated value")
	cmd.Flags().Float64Var(&cfg.Max, "max", 30, "highest generated value")
	cmd.Flags().IntVar(&cfg.Workers, "workers", 100, "maximum concurrent requests")
	return cmd
}
