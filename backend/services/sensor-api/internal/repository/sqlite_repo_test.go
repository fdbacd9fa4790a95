package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	libsqlite "sensorhub/backend/libs/sqlite"
	"sensorhub/backend/services/sensor-api/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := libsqlite.NewSQLiteDB(":memory:", SQLiteModels()...)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestSQLiteReadingRepositoryRangeAndAverages(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteReadingRepository(newTestDB(t))
	t0 := time.Date(2024, 12, 6, 12, 0, 0, 0, time.UTC)

	id, err := repo.Insert(ctx, models.Reading{EquipmentID: "S1", Timestamp: t0, Value: 25.0})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	count, err := repo.InsertMany(ctx, []models.Reading{
		{EquipmentID: "S1", Timestamp: t0.Add(-time.Hour), Value: 30.0},
		{EquipmentID: "S2", Timestamp: t0, Value: 20.0},
		{EquipmentID: "S1", Timestamp: t0.Add(-48 * time.Hour), Value: 100.0},
	})
	require.NoError(t, err)
	require.Equal(t, 3, count)

	since := t0.Add(-24 * time.Hour)

	readings, err := repo.QueryRange(ctx, "S1", since)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	require.True(t, t0.Add(-time.Hour).Equal(readings[0].Timestamp))
	require.Equal(t, 30.0, readings[0].Value)
	require.True(t, t0.Equal(readings[1].Timestamp))
	require.Equal(t, id, readings[1].ID)
	require.Equal(t, "S1", readings[1].EquipmentID)

	averages, err := repo.AverageByEquipment(ctx, since)
	require.NoError(t, err)
	require.Equal(t, []models.StationAverage{
		{EquipmentID: "S1", Average: 27.5},
		{EquipmentID: "S2", Average: 20.0},
	}, averages)
}

func TestSQLiteReadingRepositoryBoundaryIsInclusive(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteReadingRepository(newTestDB(t))
	since := time.Date(2024, 12, 6, 0, 0, 0, 0, time.UTC)

	_, err := repo.InsertMany(ctx, []models.Reading{
		{EquipmentID: "S1", Timestamp: since, Value: 1},
		{EquipmentID: "S1", Timestamp: since.Add(-time.Microsecond), Value: 2},
	})
	require.NoError(t, err)

	readings, err := repo.QueryRange(ctx, "S1", since)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	require.Equal(t, 1.0, readings[0].Value)
}

func TestSQLiteReadingRepositoryEmptyWindow(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteReadingRepository(newTestDB(t))

	readings, err := repo.QueryRange(ctx, "missing", time.Now())
	require.NoError(t, err)
	require.Empty(t, readings)

	averages, err := repo.AverageByEquipment(ctx, time.Now())
	require.NoError(t, err)
	require.Empty(t, averages)
}

func TestSQLiteUserRepositoryUniqueUsername(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteUserRepository(newTestDB(t))

	user := &models.User{Username: "alice", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, user))
	require.NotEmpty(t, user.ID)

	err := repo.Create(ctx, &models.User{Username: "alice", PasswordHash: "other"})
	require.True(t, errors.Is(err, ErrDuplicateUsername), "got %v", err)

	found, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, user.ID, found.ID)
	require.Equal(t, "hash", found.PasswordHash)

	_, err = repo.GetByUsername(ctx, "bob")
	require.ErrorIs(t, err, ErrUserNotFound)
}
