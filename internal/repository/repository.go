package repository

import (
	"github.com/yukikurage/taskhub/internal/models"
	"github.com/yukikurage/taskhub/internal/utils"
)

// Lookups return gorm.ErrRecordNotFound when the row does not exist; services translate it.

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// FindByEmail finds the earliest registered user with the email, case-insensitively
	FindByEmail(email string) (*models.User, error)

	// Delete removes a user, their owned projects, memberships, comments and time logs,
	// and unassigns their tasks
	Delete(id uint64) error
}

// ProjectRepository defines the interface for project and membership data access
type ProjectRepository interface {
	// CreateWithOwner creates a project and the owner's membership atomically
	CreateWithOwner(project *models.Project, owner *models.Membership) error

	// FindByID finds a project by ID
	FindByID(id uint64) (*models.Project, error)

	// ListForUser lists projects the user owns or is a member of
	ListForUser(userID uint64, params utils.PaginationParams) ([]models.Project, int64, error)

	// Update updates a project
	Update(project *models.Project) error

	// Delete deletes a project and all related data
	Delete(id uint64) error

	// FindMember finds a specific membership
	FindMember(projectID, userID uint64) (*models.Membership, error)

	// EnsureMember returns the existing membership or creates a non-admin one
	EnsureMember(projectID, userID uint64) (*models.Membership, bool, error)

	// FirstMembership returns the user's membership with the lowest id
	FirstMembership(userID uint64) (*models.Membership, error)

	// ListMembers lists all memberships of a project with users, in creation order
	ListMembers(projectID uint64) ([]models.Membership, error)
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// ListByProject lists a project's tasks in creation order
	ListByProject(projectID uint64) ([]models.Task, error)

	// ListByAssignee lists tasks assigned to a user by due date, undated last
	ListByAssignee(userID uint64) ([]models.Task, error)

	// Update updates a task's own columns
	Update(task *models.Task) error

	// Delete deletes a task with its comments and time logs
	Delete(id uint64) error
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(comment *models.Comment) error
	ListByTask(taskID uint64) ([]models.Comment, error)
}

// TimeLogRepository defines the interface for time log data access
type TimeLogRepository interface {
	Create(log *models.TimeLog) error

	// FindLatestOpen returns the open log with the highest id for (user, task)
	FindLatestOpen(userID, taskID uint64) (*models.TimeLog, error)

	Update(log *models.TimeLog) error

	// ListByTask lists all logs of a task in creation order
	ListByTask(taskID uint64) ([]models.TimeLog, error)
}
