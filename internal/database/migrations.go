package database

import (
	"fmt"

	"github.com/yukikurage/taskhub/internal/logger"
	"github.com/yukikurage/taskhub/internal/models"
	"gorm.io/gorm"
)

// AddIndexes adds the composite indexes the model tags do not declare
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		model   interface{}
		table   string
		name    string
		columns string
	}{
		// Dashboard: tasks assigned to a user ordered by due date
		{&models.Task{}, "tasks", "idx_tasks_assignee_due_date", "assignee_id, due_date"},
		// Project overview listing
		{&models.Task{}, "tasks", "idx_tasks_project_created_at", "project_id, created_at"},
		// Task detail comment list
		{&models.Comment{}, "comments", "idx_comments_task_created_at", "task_id, created_at"},
		// Login redirect: first membership of a user
		{&models.Membership{}, "memberships", "idx_memberships_user_id_id", "user_id, id"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.model, idx.name) {
			logger.Debug("index already exists, skipping", "index", idx.name)
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		logger.Info("created index", "index", idx.name, "table", idx.table, "columns", idx.columns)
	}

	return nil
}
