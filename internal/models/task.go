package models

import (
	"strings"
	"time"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "inprogress"
	TaskStatusDone       TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// Label is the human readable form used by the pages.
func (s TaskStatus) Label() string {
	switch s {
	case TaskStatusInProgress:
		return "In Progress"
	case TaskStatusDone:
		return "Done"
	default:
		return "To Do"
	}
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          uint64       `gorm:"primarykey" json:"id"`
	ProjectID   uint64       `gorm:"not null;index" json:"project_id"`
	Title       string       `gorm:"type:varchar(200);not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	AssigneeID  *uint64      `gorm:"index" json:"assignee_id"`
	Status      TaskStatus   `gorm:"type:varchar(20);not null;default:'todo'" json:"status"`
	Priority    TaskPriority `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`
	DueDate     *time.Time   `gorm:"type:date;index" json:"due_date"`
	Tags        string       `gorm:"type:varchar(100)" json:"tags"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	// Relations
	Project  Project   `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Assignee *User     `gorm:"foreignKey:AssigneeID;constraint:OnDelete:SET NULL" json:"assignee,omitempty"`
	Comments []Comment `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
	TimeLogs []TimeLog `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"time_logs,omitempty"`
}

// TagList splits the free-text tags on commas.
func (t Task) TagList() []string {
	var tags []string
	for _, tag := range strings.Split(t.Tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
