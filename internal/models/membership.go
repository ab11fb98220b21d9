package models

import "time"

// Membership links a user to a project. The (user, project) pair is unique.
type Membership struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	UserID    uint64    `gorm:"not null;uniqueIndex:idx_memberships_user_project" json:"user_id"`
	ProjectID uint64    `gorm:"not null;uniqueIndex:idx_memberships_user_project;index" json:"project_id"`
	IsAdmin   bool      `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	User    User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}
