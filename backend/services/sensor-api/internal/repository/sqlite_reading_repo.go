package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sensorhub/backend/services/sensor-api/internal/models"
)

// ReadingRow is the sqlite representation of a reading. Timestamps are stored as unix
// microseconds so range filters compare integers instead of formatted strings.
type ReadingRow struct {
	ID          string  `gorm:"primaryKey"`
	EquipmentID string  `gorm:"not null"`
	TimestampUS int64   `gorm:"column:timestamp_us;not null"`
	Value       float64 `gorm:"not null"`
}

// TableName pins the table name.
func (ReadingRow) TableName() string { return "readings" }

func (row ReadingRow) toModel() models.Reading {
	return models.Reading{
		ID:          row.ID,
		EquipmentID: row.EquipmentID,
		Timestamp:   time.UnixMicro(row.TimestampUS).UTC(),
		Value:       row.Value,
	}
}

func newReadingRow(reading models.Reading) ReadingRow {
	return ReadingRow{
		ID:          uuid.NewString(),
		EquipmentID: reading.EquipmentID,
		TimestampUS: reading.Timestamp.UnixMicro(),
		Value:       reading.Value,
	}
}

// SQLiteReadingRepository persists readings through gorm.
type SQLiteReadingRepository struct {
	db *gorm.DB
}

// NewSQLiteReadingRepository returns repository.
func NewSQLiteReadingRepository(db *gorm.DB) *SQLiteReadingRepository {
	return &SQLiteReadingRepository{db: db}
}

// Insert stores a single reading.
func (r *SQLiteReadingRepository) Insert(ctx context.Context, reading models.Reading) (string, error) {
	row := newReadingRow(reading)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}
	return row.ID, nil
}

// InsertMany stores all readings in one transaction.
func (r *SQLiteReadingRepository) InsertMany(ctx context.Context, readings []models.Reading) (int, error) {
	rows := make([]ReadingRow, len(readings))
	for i, reading := range readings {
		rows[i] = newReadingRow(reading)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(rows, 500).Error
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// QueryRange returns readings of one station recorded at or after since.
func (r *SQLiteReadingRepository) QueryRange(ctx context.Context, equipmentID string, since time.Time) ([]models.Reading, error) {
	var rows []ReadingRow
	err := r.db.WithContext(ctx).
		Where("equipment_id = ? AND timestamp_us >= ?", equipmentID, since.UnixMicro()).
		Order("timestamp_us ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	readings := make([]models.Reading, len(rows))
	for i, row := range rows {
		readings[i] = row.toModel()
	}
	return readings, nil
}

// AverageByEquipment computes per-station means with a single GROUP BY.
func (r *SQLiteReadingRepository) AverageByEquipment(ctx context.Context, since time.Time) ([]models.StationAverage, error) {
	var averages []models.StationAverage
	err := r.db.WithContext(ctx).
		Model(&ReadingRow{}).
		Select("equipment_id, AVG(value) AS average").
		Where("timestamp_us >= ?", since.UnixMicro()).
		Group("equipment_id").
		Order("equipment_id").
		Scan(&averages).Error
	if err != nil {
		return nil, err
	}
	return averages, nil
}
