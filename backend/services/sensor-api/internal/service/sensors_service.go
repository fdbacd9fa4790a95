package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"sensorhub/backend/services/sensor-api/internal/ingest"
	"sensorhub/backend/services/sensor-api/internal/models"
	"sensorhub/backend/services/sensor-api/internal/period"
)

// Ingest sources reported to the IngestRecorder.
const (
	SourceSingle = "single"
	SourceBatch  = "batch"
)

const (
	detailInvalidPeriod     = "Invalid period. Use '24h', '48h', '1w', or '1m'."
	detailInvalidCSV        = "Invalid CSV format."
	detailEquipmentRequired = "equipmentId is required"
	detailTimestampRequired = "timestamp is required"
	detailValueNotFinite    = "value must be a finite number"
	messageReadingInserted  = "Data inserted"
	messageBatchProcessed   = "CSV processed"
)

// ReadingStore is the persistence contract for readings.
type ReadingStore interface {
	Insert(ctx context.Context, reading models.Reading) (string, error)
	InsertMany(ctx context.Context, readings []models.Reading) (int, error)
	QueryRange(ctx context.Context, equipmentID string, since time.Time) ([]models.Reading, error)
	AverageByEquipment(ctx context.Context, since time.Time) ([]models.StationAverage, error)
}

// AveragesCache holds recent all-station results per period token.
type AveragesCache interface {
	Get(ctx context.Context, periodToken string) ([]models.StationAverage, bool, error)
	Set(ctx context.Context, periodToken string, averages []models.StationAverage) error
}

// ReadingPublisher fans stored readings out to live subscribers.
type ReadingPublisher interface {
	Publish(reading models.Reading)
}

// IngestRecorder counts ingest outcomes.
type IngestRecorder interface {
	ReadingsIngested(source string, n int)
	UploadRejected()
}

// InsertResult is returned by single inserts.
type InsertResult struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// UploadResult is returned by batch uploads.
type UploadResult struct {
	Message       string `json:"message"`
	InsertedCount int    `json:"inserted_count"`
}

// AverageResult is the mean of one station; Average is nil when the window is empty.
type AverageResult struct {
	EquipmentID string   `json:"equipmentId"`
	Average     *float64 `json:"average"`
}

// StationData pairs the mean of a station with the readings it was computed from.
type StationData struct {
	EquipmentID string                `json:"equipmentId"`
	Average     *float64              `json:"average"`
	Values      []models.ReadingValue `json:"values"`
}

// SensorsService ingests readings and answers windowed average queries.
type SensorsService struct {
	store      ReadingStore
	resolver   *period.Resolver
	cache      AveragesCache
	publishers []ReadingPublisher
	recorder   IngestRecorder
	logger     *zap.Logger
}

// Option configures optional collaborators.
type Option func(*SensorsService)

// WithAveragesCache enables read-through caching of all-station averages.
func WithAveragesCache(cache AveragesCache) Option {
	return func(s *SensorsService) { s.cache = cache }
}

// WithPublisher forwards every stored reading to publisher. It may be given more than once.
func WithPublisher(publisher ReadingPublisher) Option {
	return func(s *SensorsService) { s.publishers = append(s.publishers, publisher) }
}

// WithIngestRecorder reports ingest counts to recorder.
func WithIngestRecorder(recorder IngestRecorder) Option {
	return func(s *SensorsService) { s.recorder = recorder }
}

// NewSensorsService returns service instance.
func NewSensorsService(store ReadingStore, resolver *period.Resolver, logger *zap.Logger, opts ...Option) *SensorsService {
	s := &SensorsService{
		store:    store,
		resolver: resolver,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InsertReading validates and stores one reading.
func (s *SensorsService) InsertReading(ctx context.Context, reading models.Reading) (*InsertResult, error) {
	if strings.TrimSpace(reading.EquipmentID) == "" {
		return nil, invalidInput(detailEquipmentRequired, nil)
	}
	if reading.Timestamp.IsZero() {
		return nil, invalidInput(detailTimestampRequired, nil)
	}
	if math.IsNaN(reading.Value) || math.IsInf(reading.Value, 0) {
		return nil, invalidInput(detailValueNotFinite, nil)
	}
	reading.Timestamp = reading.Timestamp.UTC()

	id, err := s.store.Insert(ctx, reading)
	if err != nil {
		s.logger.Error("failed to insert reading", zap.String("equipment_id", reading.EquipmentID), zap.Error(err))
		return nil, internal(err)
	}
	reading.ID = id

	s.logger.Info("reading inserted", zap.String("equipment_id", reading.EquipmentID), zap.String("id", id))
	s.recordIngest(SourceSingle, 1)
	s.publish(reading)

	return &InsertResult{Message: messageReadingInserted, ID: id}, nil
}

// UploadCSV parses a delimited-text payload and stores every row, or nothing.
func (s *SensorsService) UploadCSV(ctx context.Context, payload []byte) (*UploadResult, error) {
	readings, err := ingest.ParseCSV(payload)
	if err != nil {
		s.logger.Warn("invalid csv upload", zap.Int("bytes", len(payload)), zap.Error(err))
		if s.recorder != nil {
			s.recorder.UploadRejected()
		}
		return nil, invalidInput(detailInvalidCSV, err)
	}

	count, err := s.store.InsertMany(ctx, readings)
	if err != nil {
		s.logger.Error("failed to insert csv batch", zap.Int("rows", len(readings)), zap.Error(err))
		return nil, internal(err)
	}

	s.logger.Info("csv processed", zap.Int("inserted", count))
	s.recordIngest(SourceBatch, count)
	for _, reading := range readings {
		s.publish(reading)
	}

	return &UploadResult{Message: messageBatchProcessed, InsertedCount: count}, nil
}

// Average returns the mean value of one station over the period.
func (s *SensorsService) Average(ctx context.Context, equipmentID, periodToken string) (*AverageResult, error) {
	data, err := s.StationData(ctx, equipmentID, periodToken)
	if err != nil {
		return nil, err
	}
	return &AverageResult{EquipmentID: data.EquipmentID, Average: data.Average}, nil
}

// StationData returns the readings of one station over the period together with their mean.
func (s *SensorsService) StationData(ctx context.Context, equipmentID, periodToken string) (*StationData, error) {
	if strings.TrimSpace(equipmentID) == "" {
		return nil, invalidInput(detailEquipmentRequired, nil)
	}
	since, err := s.resolve(periodToken)
	if err != nil {
		return nil, err
	}

	readings, err := s.store.QueryRange(ctx, equipmentID, since)
	if err != nil {
		s.logger.Error("failed to query readings",
			zap.String("equipment_id", equipmentID), zap.String("period", periodToken), zap.Error(err))
		return nil, internal(err)
	}

	values := make([]models.ReadingValue, len(readings))
	raw := make([]float64, len(readings))
	for i, r := range readings {
		values[i] = models.ReadingValue{Timestamp: r.Timestamp, Value: r.Value}
		raw[i] = r.Value
	}
	avg := Mean(raw)

	if avg == nil {
		s.logger.Info("no data in window", zap.String("equipment_id", equipmentID), zap.String("period", periodToken))
	} else {
		s.logger.Info("average calculated",
			zap.String("equipment_id", equipmentID), zap.String("period", periodToken),
			zap.Int("readings", len(readings)), zap.Float64("average", *avg))
	}

	return &StationData{EquipmentID: equipmentID, Average: avg, Values: values}, nil
}

// Averages returns the mean of every station with at least one reading in the period.
func (s *SensorsService) Averages(ctx context.Context, periodToken string) ([]models.StationAverage, error) {
	since, err := s.resolve(periodToken)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, periodToken)
		if err != nil {
			s.logger.Warn("averages cache read failed", zap.String("period", periodToken), zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	averages, err := s.store.AverageByEquipment(ctx, since)
	if err != nil {
		s.logger.Error("failed to aggregate averages", zap.String("period", periodToken), zap.Error(err))
		return nil, internal(err)
	}
	if averages == nil {
		averages = []models.StationAverage{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, periodToken, averages); err != nil {
			s.logger.Warn("averages cache write failed", zap.String("period", periodToken), zap.Error(err))
		}
	}

	s.logger.Info("fetched station averages", zap.String("period", periodToken), zap.Int("stations", len(averages)))
	return averages, nil
}

func (s *SensorsService) resolve(periodToken string) (time.Time, error) {
	since, err := s.resolver.Resolve(periodToken)
	if err != nil {
		if errors.Is(err, period.ErrInvalidPeriod) {
			s.logger.Warn("invalid period", zap.String("period", periodToken))
			return time.Time{}, invalidInput(detailInvalidPeriod, err)
		}
		return time.Time{}, internal(err)
	}
	return since, nil
}

func (s *SensorsService) recordIngest(source string, n int) {
	if s.recorder != nil {
		s.recorder.ReadingsIngested(source, n)
	}
}

func (s *SensorsService) publish(reading models.Reading) {
	for _, p := range s.publishers {
		p.Publish(reading)
	}
}
