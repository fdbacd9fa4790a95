package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sensorhub/backend/services/sensor-api/internal/models"
)

// PostgresReadingRepository persists readings in the readings table.
type PostgresReadingRepository struct {
	db *sql.DB
}

// NewPostgresReadingRepository returns repository.
func NewPostgresReadingRepository(db *sql.DB) *PostgresReadingRepository {
	return &PostgresReadingRepository{db: db}
}

// Insert stores a single reading and returns its generated id.
func (r *PostgresReadingRepository) Insert(ctx context.Context, reading models.Reading) (string, error) {
	const query = `
		INSERT INTO readings (id, equipment_id, recorded_at, value)
		VALUES ($1, $2, $3, $4)
	`
	id := uuid.NewString()
	if _, err := r.db.ExecContext(ctx, query, id, reading.EquipmentID, reading.Timestamp.UTC(), reading.Value); err != nil {
		return "", err
	}
	return id, nil
}

// InsertMany stores all readings in one transaction.
func (r *PostgresReadingRepository) InsertMany(ctx context.Context, readings []models.Reading) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO readings (id, equipment_id, recorded_at, value)
		VALUES ($1, $2, $3, $4)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, reading := range readings {
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), reading.EquipmentID, reading.Timestamp.UTC(), reading.Value); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(readings), nil
}

// QueryRange returns readings of one station recorded at or after since.
func (r *PostgresReadingRepository) QueryRange(ctx context.Context, equipmentID string, since time.Time) ([]models.Reading, error) {
	const query = `
		SELECT id, equipment_id, recorded_at, value
		FROM readings
		WHERE equipment_id = $1 AND recorded_at >= $2
		ORDER BY recorded_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, equipmentID, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []models.Reading
	for rows.Next() {
		var reading models.Reading
		if err := rows.Scan(&reading.ID, &reading.EquipmentID, &reading.Timestamp, &reading.Value); err != nil {
			return nil, err
		}
		reading.Timestamp = reading.Timestamp.UTC()
		readings = append(readings, reading)
	}
	return readings, rows.Err()
}

// AverageByEquipment computes per-station means in the database.
func (r *PostgresReadingRepository) AverageByEquipment(ctx context.Context, since time.Time) ([]models.StationAverage, error) {
	const query = `
		SELECT equipment_id, AVG(value)
		FROM readings
		WHERE recorded_at >= $1
		GROUP BY equipment_id
		ORDER BY equipment_id
	`
	rows, err := r.db.QueryContext(ctx, query, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var averages []models.StationAverage
	for rows.Next() {
		var avg models.StationAverage
		if err := rows.Scan(&avg.EquipmentID, &avg.Average); err != nil {
			return nil, err
		}
		averages = append(averages, avg)
	}
	return averages, rows.Err()
}
