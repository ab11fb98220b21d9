package repository

import (
	"github.com/yukikurage/taskhub/internal/database"
	"github.com/yukikurage/taskhub/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTimeLogRepository is a GORM implementation of TimeLogRepository
type GormTimeLogRepository struct {
	db *gorm.DB
}

// NewTimeLogRepository creates a new TimeLogRepository
func NewTimeLogRepository(db *gorm.DB) TimeLogRepository {
	return &GormTimeLogRepository{db: db}
}

func (r *GormTimeLogRepository) Create(log *models.TimeLog) error {
	return r.db.Omit(clause.Associations).Create(log).Error
}

// FindLatestOpen returns the most recently created open log for (user, task)
func (r *GormTimeLogRepository) FindLatestOpen(userID, taskID uint64) (*models.TimeLog, error) {
	var log models.TimeLog
	if err := r.db.Where("user_id = ? AND task_id = ? AND end_time IS NULL", userID, taskID).
		Order("id DESC").
		First(&log).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *GormTimeLogRepository) Update(log *models.TimeLog) error {
	return r.db.Omit(clause.Associations).Save(log).Error
}

func (r *GormTimeLogRepository) ListByTask(taskID uint64) ([]models.TimeLog, error) {
	var logs []models.TimeLog
	if err := r.db.Preload("User").
		Where("task_id = ?", taskID).
		Scopes(database.CreationOrder("time_logs")).
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
