// Package policy holds the access decisions for projects and tasks. Every function here is
// pure: callers load the facts (project owner, caller membership) and ask for a verdict.
package policy

import (
	"errors"

	"github.com/yukikurage/taskhub/internal/models"
)

// ErrForbidden is returned when an authenticated caller is not allowed to act on the target.
var ErrForbidden = errors.New("forbidden")

type Action string

const (
	ActionViewProject   Action = "project.view"
	ActionEditProject   Action = "project.edit"
	ActionDeleteProject Action = "project.delete"
	ActionInviteMember  Action = "project.invite"
	ActionCreateTask    Action = "task.create"
	ActionDraftTasks    Action = "task.draft"
	ActionViewTask      Action = "task.view"
	ActionEditTask      Action = "task.edit"
	ActionDeleteTask    Action = "task.delete"
	ActionComment       Action = "task.comment"
	ActionStartTimer    Action = "timer.start"
	ActionStopTimer     Action = "timer.stop"
)

type requirement int

const (
	requireMember requirement = iota
	requireOwner
)

var rules = map[Action]requirement{
	ActionViewProject:   requireMember,
	ActionEditProject:   requireOwner,
	ActionDeleteProject: requireOwner,
	ActionInviteMember:  requireOwner,
	ActionCreateTask:    requireMember,
	ActionDraftTasks:    requireMember,
	ActionViewTask:      requireMember,
	ActionEditTask:      requireMember,
	ActionDeleteTask:    requireOwner,
	ActionComment:       requireMember,
	ActionStartTimer:    requireMember,
	ActionStopTimer:     requireMember,
}

// Subject is the project an action targets, as seen by one caller. For task actions it is
// the task's project.
type Subject struct {
	ProjectID  uint64
	OwnerID    uint64
	Membership *models.Membership
}

// NewSubject builds a Subject from a loaded project and the caller's membership row (nil if none).
func NewSubject(project *models.Project, membership *models.Membership) Subject {
	return Subject{
		ProjectID:  project.ID,
		OwnerID:    project.OwnerID,
		Membership: membership,
	}
}

// IsOwner is strict equality with the project owner; admin memberships do not count.
func (s Subject) IsOwner(userID uint64) bool {
	return userID != 0 && s.OwnerID == userID
}

// IsMember treats the owner as a member even without a membership row.
func (s Subject) IsMember(userID uint64) bool {
	if s.IsOwner(userID) {
		return true
	}
	return s.Membership != nil && s.Membership.UserID == userID && s.Membership.ProjectID == s.ProjectID
}

// Allowed reports whether userID may perform action on the subject.
func Allowed(userID uint64, subject Subject, action Action) bool {
	req, ok := rules[action]
	if !ok {
		return false
	}
	switch req {
	case requireOwner:
		return subject.IsOwner(userID)
	default:
		return subject.IsMember(userID)
	}
}

// Authorize is Allowed expressed as an error.
func Authorize(userID uint64, subject Subject, action Action) error {
	if !Allowed(userID, subject, action) {
		return ErrForbidden
	}
	return nil
}
