package models

import "time"

type Project struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"type:varchar(200);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	OwnerID     uint64    `gorm:"not null;index" json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Owner       User         `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"owner,omitempty"`
	Memberships []Membership `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"memberships,omitempty"`
	Tasks       []Task       `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"tasks,omitempty"`
}

// IsOwner reports whether userID owns the project.
func (p Project) IsOwner(userID uint64) bool {
	return p.OwnerID == userID
}
