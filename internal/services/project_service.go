package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/taskhub/internal/constants"
	"github.com/yukikurage/taskhub/internal/logger"
	mailer "github.com/yukikurage/taskhub/internal/mail"
	"github.com/yukikurage/taskhub/internal/models"
	"github.com/yukikurage/taskhub/internal/policy"
	"github.com/yukikurage/taskhub/internal/repository"
	"github.com/yukikurage/taskhub/internal/utils"
	"gorm.io/gorm"
)

var ErrFailedToCreateProject = errors.New("failed to create project")

// ProjectService provides business logic for projects and their members.
type ProjectService struct {
	access
	userRepo repository.UserRepository
	mailer   mailer.Mailer
	invites  *InviteTokens
	opts     ProjectOptions
}

// ProjectOptions configures invitation delivery.
type ProjectOptions struct {
	// BaseURL prefixes the registration link in invitation mails.
	BaseURL string
	// FailSilently logs delivery failures instead of returning them.
	FailSilently bool
}

// NewProjectService creates a new ProjectService.
func NewProjectService(
	projectRepo repository.ProjectRepository,
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
	m mailer.Mailer,
	invites *InviteTokens,
	opts ProjectOptions,
) *ProjectService {
	return &ProjectService{
		access:   access{projectRepo: projectRepo, taskRepo: taskRepo},
		userRepo: userRepo,
		mailer:   m,
		invites:  invites,
		opts:     opts,
	}
}

// ProjectInput represents the project form.
type ProjectInput struct {
	Name        string
	Description string
}

func (in ProjectInput) validate() error {
	verr := NewValidationError()
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		verr.Add("name", "This field is required.")
	case len([]rune(name)) > constants.MaxProjectNameLen:
		verr.Add("name", fmt.Sprintf("Ensure this value has at most %d characters.", constants.MaxProjectNameLen))
	}
	return verr.OrNil()
}

// CreateProject creates a project owned by actorID together with the owner's admin membership.
func (s *ProjectService) CreateProject(actorID uint64, input ProjectInput) (*models.Project, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	project := &models.Project{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		OwnerID:     actorID,
	}
	owner := &models.Membership{IsAdmin: true}

	if err := s.projectRepo.CreateWithOwner(project, owner); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateProject, err)
	}

	logger.Info("project created", "project_id", project.ID, "owner_id", actorID)
	return project, nil
}

// ListProjects returns the projects the user owns or belongs to, oldest first.
func (s *ProjectService) ListProjects(userID uint64, params utils.PaginationParams) ([]models.Project, utils.Page, error) {
	projects, total, err := s.projectRepo.ListForUser(userID, params)
	if err != nil {
		return nil, utils.Page{}, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, utils.NewPage(params, total), nil
}

// Overview is everything the project page shows.
type Overview struct {
	Project    *models.Project
	Membership *models.Membership
	Tasks      []models.Task
	Members    []models.Membership
}

// IsOwner reports whether the viewer owns the project.
func (o *Overview) IsOwner(userID uint64) bool {
	return o.Project.IsOwner(userID)
}

// GetOverview returns a project with its tasks and members.
func (s *ProjectService) GetOverview(actorID, projectID uint64) (*Overview, error) {
	project, membership, err := s.project(actorID, projectID, policy.ActionViewProject)
	if err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.ListByProject(project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	members, err := s.projectRepo.ListMembers(project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project members: %w", err)
	}

	return &Overview{
		Project:    project,
		Membership: membership,
		Tasks:      tasks,
		Members:    members,
	}, nil
}

// GetForEdit loads a project for its owner's edit form.
func (s *ProjectService) GetForEdit(actorID, projectID uint64) (*models.Project, error) {
	project, _, err := s.project(actorID, projectID, policy.ActionEditProject)
	return project, err
}

// UpdateProject changes the name and description of a project. Owner only.
func (s *ProjectService) UpdateProject(actorID, projectID uint64, input ProjectInput) (*models.Project, error) {
	project, _, err := s.project(actorID, projectID, policy.ActionEditProject)
	if err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return project, err
	}

	project.Name = strings.TrimSpace(input.Name)
	project.Description = input.Description
	if err := s.projectRepo.Update(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return project, nil
}

// GetForDelete loads a project for its owner's delete confirmation.
func (s *ProjectService) GetForDelete(actorID, projectID uint64) (*models.Project, error) {
	project, _, err := s.project(actorID, projectID, policy.ActionDeleteProject)
	return project, err
}

// DeleteProject removes a project with its memberships, tasks, comments and time logs. Owner only.
func (s *ProjectService) DeleteProject(actorID, projectID uint64) error {
	project, _, err := s.project(actorID, projectID, policy.ActionDeleteProject)
	if err != nil {
		return err
	}

	if err := s.projectRepo.Delete(project.ID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	logger.Info("project deleted", "project_id", project.ID, "actor_id", actorID)
	return nil
}

// InviteOutcome describes what an invitation did.
type InviteOutcome string

const (
	// InviteMemberAdded means an existing user was added to the project.
	InviteMemberAdded InviteOutcome = "member_added"
	// InviteAlreadyMember means the user was already a member; nothing changed.
	InviteAlreadyMember InviteOutcome = "already_member"
	// InviteSent means a registration invitation was mailed.
	InviteSent InviteOutcome = "invite_sent"
	// InviteDeliveryFailed means the mail could not be sent and failures are configured to be silent.
	InviteDeliveryFailed InviteOutcome = "delivery_failed"
)

// InviteResult is the explicit result of Invite.
type InviteResult struct {
	Outcome    InviteOutcome
	Membership *models.Membership
	Email      string
}

// Invite adds the user registered with email to the project, or mails a registration
// invitation when no such user exists. Owner only.
func (s *ProjectService) Invite(ctx context.Context, actorID, projectID uint64, email string) (*InviteResult, error) {
	project, _, err := s.project(actorID, projectID, policy.ActionInviteMember)
	if err != nil {
		return nil, err
	}

	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(email)
	switch {
	case err == nil:
		membership, created, err := s.projectRepo.EnsureMember(project.ID, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to add member: %w", err)
		}
		outcome := InviteAlreadyMember
		if created {
			outcome = InviteMemberAdded
			logger.Info("member added", "project_id", project.ID, "user_id", user.ID)
		}
		return &InviteResult{Outcome: outcome, Membership: membership, Email: email}, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	msg, err := s.invitationMessage(project, email)
	if err != nil {
		return nil, err
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		if !s.opts.FailSilently {
			return nil, err
		}
		logger.Warn("invitation delivery failed", "project_id", project.ID, "email", email, "error", err)
		return &InviteResult{Outcome: InviteDeliveryFailed, Email: email}, nil
	}

	return &InviteResult{Outcome: InviteSent, Email: email}, nil
}

func (s *ProjectService) invitationMessage(project *models.Project, email string) (mailer.Message, error) {
	link := s.opts.BaseURL + "/accounts/register/"
	if s.invites != nil {
		token, err := s.invites.Issue(project.ID, email)
		if err != nil {
			return mailer.Message{}, fmt.Errorf("failed to issue invite token: %w", err)
		}
		link += "?invite=" + token
	}

	return mailer.Message{
		To:      email,
		Subject: "You are invited to join a project",
		Body: fmt.Sprintf("Hi,\n\nYou've been invited to join the project '%s'.\nRegister at: %s\n\nThanks!",
			project.Name, link),
	}, nil
}

var validate = validator.New()

func validateEmail(email string) error {
	verr := NewValidationError()
	if email == "" {
		verr.Add("email", "This field is required.")
	} else if err := validate.Var(email, "email"); err != nil {
		verr.Add("email", "Enter a valid email address.")
	}
	return verr.OrNil()
}
