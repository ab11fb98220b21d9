package models

import "time"

// TimeLog is an interval of work by a user on a task. A nil EndTime means the log is open.
type TimeLog struct {
	ID        uint64     `gorm:"primarykey" json:"id"`
	UserID    uint64     `gorm:"not null;index:idx_time_logs_user_task" json:"user_id"`
	TaskID    uint64     `gorm:"not null;index:idx_time_logs_user_task" json:"task_id"`
	StartTime time.Time  `gorm:"not null" json:"start_time"`
	EndTime   *time.Time `json:"end_time"`

	// Relations
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (l TimeLog) IsOpen() bool {
	return l.EndTime == nil
}

// Duration returns (end or now) - start. For an open log it grows with now.
func (l TimeLog) Duration(now time.Time) time.Duration {
	end := now
	if l.EndTime != nil {
		end = *l.EndTime
	}
	return end.Sub(l.StartTime)
}
