package services

import (
	"errors"
	"fmt"

	"github.com/yukikurage/taskhub/internal/models"
	"github.com/yukikurage/taskhub/internal/policy"
	"github.com/yukikurage/taskhub/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrTaskNotFound    = errors.New("task not found")
)

// access resolves the facts the policy needs. Missing entities are reported before any
// permission check so that an unknown id is a 404 for everybody.
type access struct {
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository
}

func (a access) project(actorID, projectID uint64, action policy.Action) (*models.Project, *models.Membership, error) {
	project, err := a.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrProjectNotFound
		}
		return nil, nil, fmt.Errorf("failed to find project: %w", err)
	}

	membership, err := a.projectRepo.FindMember(project.ID, actorID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("failed to verify membership: %w", err)
		}
		membership = nil
	}

	if err := policy.Authorize(actorID, policy.NewSubject(project, membership), action); err != nil {
		return nil, nil, err
	}
	return project, membership, nil
}

func (a access) task(actorID, taskID uint64, action policy.Action, preload ...string) (*models.Task, *models.Project, error) {
	task, err := a.taskRepo.FindByID(taskID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrTaskNotFound
		}
		return nil, nil, fmt.Errorf("failed to find task: %w", err)
	}

	project, _, err := a.project(actorID, task.ProjectID, action)
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return nil, nil, ErrTaskNotFound
		}
		return nil, nil, err
	}
	return task, project, nil
}
