// Package replica manages the read-optimized cleaning store: a local
// SQLite database the housekeeping client can read while disconnected
// from the reservation system.
package replica

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"pensio/pkg/model"
)

// Store is the write/read surface over the cleaning replica.
type Store interface {
	DeleteWindow(ctx context.Context, start, end string) (int64, error)
	Insert(ctx context.Context, task *model.CleaningTask) error
	DeleteForReservation(ctx context.Context, reservationID string) (int64, error)
	UpdateStatus(ctx context.Context, id, status string) error
	CleanupCompleted(ctx context.Context, olderThan time.Time) (int64, error)
	ListWindow(ctx context.Context, start, end string) ([]model.CleaningTask, error)
}

type gormStore struct {
	db *gorm.DB
}

// Open connects to the replica database and migrates its schema.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open replica database: %w", err)
	}

	if err := db.AutoMigrate(&model.CleaningTask{}); err != nil {
		return nil, fmt.Errorf("failed to migrate replica schema: %w", err)
	}

	return db, nil
}

func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DeleteWindow(ctx context.Context, start, end string) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", start, end).
		Delete(&model.CleaningTask{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clear replica window: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *gormStore) Insert(ctx context.Context, task *model.CleaningTask) error {
	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to insert replica row %s: %w", task.ID, err)
	}
	return nil
}

func (s *gormStore) DeleteForReservation(ctx context.Context, reservationID string) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Delete(&model.CleaningTask{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete replica rows for reservation %s: %w", reservationID, result.Error)
	}
	return result.RowsAffected, nil
}

func (s *gormStore) UpdateStatus(ctx context.Context, id, status string) error {
	result := s.db.WithContext(ctx).
		Model(&model.CleaningTask{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update replica row status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CleanupCompleted drops finished tasks older than the cutoff so the
// replica file does not grow without bound.
func (s *gormStore) CleanupCompleted(ctx context.Context, olderThan time.Time) (int64, error) {
	cutoff := olderThan.Format(model.DateLayout)
	result := s.db.WithContext(ctx).
		Where("status = ? AND date < ?", model.TaskDone, cutoff).
		Delete(&model.CleaningTask{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clean up completed replica rows: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *gormStore) ListWindow(ctx context.Context, start, end string) ([]model.CleaningTask, error) {
	var tasks []model.CleaningTask
	err := s.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", start, end).
		Order("date, room_location, room_name").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list replica rows: %w", err)
	}
	return tasks, nil
}
