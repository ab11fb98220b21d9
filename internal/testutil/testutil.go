// Package testutil builds in-memory databases and fixtures for package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskhub/internal/database"
	"github.com/yukikurage/taskhub/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory SQLite database that lives for the duration of the test.
// The pool is pinned to one connection because every new connection to ":memory:" would
// see an empty database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(database.Models()...))
	database.SetDB(db)

	return db
}

func CreateUser(t *testing.T, db *gorm.DB, username, email string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: "hashed",
		Role:         models.RoleMember,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateProject inserts a project with the owner's admin membership.
func CreateProject(t *testing.T, db *gorm.DB, name string, owner *models.User) *models.Project {
	t.Helper()
	project := &models.Project{Name: name, OwnerID: owner.ID}
	require.NoError(t, db.Omit("Owner").Create(project).Error)
	AddMember(t, db, project, owner, true)
	return project
}

func AddMember(t *testing.T, db *gorm.DB, project *models.Project, user *models.User, isAdmin bool) *models.Membership {
	t.Helper()
	member := &models.Membership{ProjectID: project.ID, UserID: user.ID, IsAdmin: isAdmin}
	require.NoError(t, db.Omit("User", "Project").Create(member).Error)
	return member
}

func CreateTask(t *testing.T, db *gorm.DB, project *models.Project, title string, assignee *models.User, due *time.Time) *models.Task {
	t.Helper()
	task := &models.Task{
		ProjectID: project.ID,
		Title:     title,
		Status:    models.TaskStatusTodo,
		Priority:  models.TaskPriorityMedium,
		DueDate:   due,
	}
	if assignee != nil {
		task.AssigneeID = &assignee.ID
	}
	require.NoError(t, db.Omit("Project", "Assignee").Create(task).Error)
	return task
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

// Clock is a settable time source for services that take a now func.
type Clock struct {
	Current time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{Current: start}
}

func (c *Clock) Now() time.Time {
	return c.Current
}

func (c *Clock) Advance(d time.Duration) {
	c.Current = c.Current.Add(d)
}
