package repository

import (
	"github.com/yukikurage/taskhub/internal/database"
	"github.com/yukikurage/taskhub/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCommentRepository is a GORM implementation of CommentRepository
type GormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &GormCommentRepository{db: db}
}

func (r *GormCommentRepository) Create(comment *models.Comment) error {
	return r.db.Omit(clause.Associations).Create(comment).Error
}

func (r *GormCommentRepository) ListByTask(taskID uint64) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.Preload("User").
		Where("task_id = ?", taskID).
		Scopes(database.CreationOrder("comments")).
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}
