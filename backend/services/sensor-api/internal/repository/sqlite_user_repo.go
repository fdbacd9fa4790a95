package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sensorhub/backend/services/sensor-api/internal/models"
)

// UserRow is the sqlite representation of a user.
type UserRow struct {
	ID           string    `gorm:"primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName pins the table name.
func (UserRow) TableName() string { return "users" }

// SQLiteUserRepository handles users through gorm.
type SQLiteUserRepository struct {
	db *gorm.DB
}

// NewSQLiteUserRepository returns repository instance.
func NewSQLiteUserRepository(db *gorm.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

// Create inserts a new user.
func (r *SQLiteUserRepository) Create(ctx context.Context, user *models.User) error {
	row := UserRow{
		ID:           uuid.NewString(),
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateUsername
		}
		return err
	}
	user.ID = row.ID
	user.CreatedAt = row.CreatedAt
	return nil
}

// GetByUsername fetches a user by exact username.
func (r *SQLiteUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var row UserRow
	err := r.db.WithContext(ctx).Where("username = ?", username).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &models.User{
		ID:           row.ID,
		Username:     row.Username,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
	}, nil
}

// SQLiteModels lists the gorm models to migrate.
func SQLiteModels() []any {
	return []any{&ReadingRow{}, &UserRow{}}
}
