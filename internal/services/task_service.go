package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/taskhub/internal/constants"
	"github.com/yukikurage/taskhub/internal/logger"
	"github.com/yukikurage/taskhub/internal/models"
	"github.com/yukikurage/taskhub/internal/policy"
	"github.com/yukikurage/taskhub/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

// TaskDrafter turns free text into task drafts.
type TaskDrafter interface {
	GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error)
}

// TaskService handles task and comment business logic
type TaskService struct {
	access
	commentRepo repository.CommentRepository
	timeLogRepo repository.TimeLogRepository
	drafter     TaskDrafter
	now         func() time.Time
}

// NewTaskService creates a new TaskService. drafter may be nil when AI drafting is disabled.
func NewTaskService(
	taskRepo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	commentRepo repository.CommentRepository,
	timeLogRepo repository.TimeLogRepository,
	drafter TaskDrafter,
) *TaskService {
	return &TaskService{
		access:      access{projectRepo: projectRepo, taskRepo: taskRepo},
		commentRepo: commentRepo,
		timeLogRepo: timeLogRepo,
		drafter:     drafter,
		now:         time.Now,
	}
}

// TaskInput represents the task form
type TaskInput struct {
	Title       string
	Description string
	AssigneeID  *uint64
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     *time.Time
	Tags        string
}

// normalize trims text fields and fills in the default status and priority.
func (in *TaskInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Tags = strings.TrimSpace(in.Tags)
	if in.Status == "" {
		in.Status = models.TaskStatusTodo
	}
	if in.Priority == "" {
		in.Priority = models.TaskPriorityMedium
	}
}

func (s *TaskService) validate(project *models.Project, in TaskInput) error {
	verr := NewValidationError()

	switch {
	case in.Title == "":
		verr.Add("title", "This field is required.")
	case len([]rune(in.Title)) > constants.MaxTaskTitleLen:
		verr.Add("title", fmt.Sprintf("Ensure this value has at most %d characters.", constants.MaxTaskTitleLen))
	}
	if len([]rune(in.Tags)) > constants.MaxTagsLen {
		verr.Add("tags", fmt.Sprintf("Ensure this value has at most %d characters.", constants.MaxTagsLen))
	}
	if !in.Status.Valid() {
		verr.Add("status", "Select a valid choice.")
	}
	if !in.Priority.Valid() {
		verr.Add("priority", "Select a valid choice.")
	}

	if in.AssigneeID != nil {
		ok, err := s.isMember(project, *in.AssigneeID)
		if err != nil {
			return err
		}
		if !ok {
			verr.Add("assignee", "Select a member of this project.")
		}
	}

	return verr.OrNil()
}

func (s *TaskService) isMember(project *models.Project, userID uint64) (bool, error) {
	membership, err := s.projectRepo.FindMember(project.ID, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("failed to verify assignee: %w", err)
		}
		membership = nil
	}
	return policy.NewSubject(project, membership).IsMember(userID), nil
}

// TaskForm is what the create and edit pages need besides the task itself
type TaskForm struct {
	Project *models.Project
	Members []models.Membership
}

func (s *TaskService) taskForm(project *models.Project) (*TaskForm, error) {
	members, err := s.projectRepo.ListMembers(project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project members: %w", err)
	}
	return &TaskForm{Project: project, Members: members}, nil
}

// PrepareCreate loads the project and its members for the create form
func (s *TaskService) PrepareCreate(actorID, projectID uint64) (*TaskForm, error) {
	project, _, err := s.project(actorID, projectID, policy.ActionCreateTask)
	if err != nil {
		return nil, err
	}
	return s.taskForm(project)
}

// CreateTask creates a task in a project. Members only.
func (s *TaskService) CreateTask(actorID, projectID uint64, input TaskInput) (*models.Task, error) {
	project, _, err := s.project(actorID, projectID, policy.ActionCreateTask)
	if err != nil {
		return nil, err
	}

	input.normalize()
	if err := s.validate(project, input); err != nil {
		return nil, err
	}

	task := &models.Task{
		ProjectID:   project.ID,
		Title:       input.Title,
		Description: input.Description,
		AssigneeID:  input.AssigneeID,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		Tags:        input.Tags,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	logger.Info("task created", "task_id", task.ID, "project_id", project.ID, "actor_id", actorID)
	return task, nil
}

// TaskDetail is a task with its discussion and time logs
type TaskDetail struct {
	Task     *models.Task
	Project  *models.Project
	Comments []models.Comment
	TimeLogs []models.TimeLog
}

// GetTaskDetail returns a task with its comments and time logs. Members only.
func (s *TaskService) GetTaskDetail(actorID, taskID uint64) (*TaskDetail, error) {
	task, project, err := s.task(actorID, taskID, policy.ActionViewTask, "Assignee")
	if err != nil {
		return nil, err
	}
	task.Project = *project

	comments, err := s.commentRepo.ListByTask(task.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	logs, err := s.timeLogRepo.ListByTask(task.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list time logs: %w", err)
	}

	return &TaskDetail{
		Task:     task,
		Project:  project,
		Comments: comments,
		TimeLogs: logs,
	}, nil
}

// PrepareEdit loads a task and its project's members for the edit form
func (s *TaskService) PrepareEdit(actorID, taskID uint64) (*models.Task, *TaskForm, error) {
	task, project, err := s.task(actorID, taskID, policy.ActionEditTask)
	if err != nil {
		return nil, nil, err
	}
	form, err := s.taskForm(project)
	if err != nil {
		return nil, nil, err
	}
	return task, form, nil
}

// UpdateTask replaces the editable fields of a task. Members only.
func (s *TaskService) UpdateTask(actorID, taskID uint64, input TaskInput) (*models.Task, error) {
	task, project, err := s.task(actorID, taskID, policy.ActionEditTask)
	if err != nil {
		return nil, err
	}

	input.normalize()
	if err := s.validate(project, input); err != nil {
		return nil, err
	}

	task.Title = input.Title
	task.Description = input.Description
	task.AssigneeID = input.AssigneeID
	task.Status = input.Status
	task.Priority = input.Priority
	task.DueDate = input.DueDate
	task.Tags = input.Tags

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

// GetForDelete loads a task for the delete confirmation. Project owner only.
func (s *TaskService) GetForDelete(actorID, taskID uint64) (*models.Task, error) {
	task, project, err := s.task(actorID, taskID, policy.ActionDeleteTask)
	if err != nil {
		return nil, err
	}
	task.Project = *project
	return task, nil
}

// DeleteTask deletes a task with its comments and time logs. Project owner only.
// It returns the id of the project the task belonged to.
func (s *TaskService) DeleteTask(actorID, taskID uint64) (uint64, error) {
	task, _, err := s.task(actorID, taskID, policy.ActionDeleteTask)
	if err != nil {
		return 0, err
	}

	if err := s.taskRepo.Delete(task.ID); err != nil {
		return 0, fmt.Errorf("failed to delete task: %w", err)
	}

	logger.Info("task deleted", "task_id", task.ID, "project_id", task.ProjectID, "actor_id", actorID)
	return task.ProjectID, nil
}

// AddComment appends a comment to a task. Members only.
func (s *TaskService) AddComment(actorID, taskID uint64, text string) (*models.Comment, error) {
	task, _, err := s.task(actorID, taskID, policy.ActionComment)
	if err != nil {
		return nil, err
	}

	verr := NewValidationError()
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		verr.Add("comment", "This field is required.")
	case len([]rune(text)) > constants.MaxCommentLen:
		verr.Add("comment", fmt.Sprintf("Ensure this value has at most %d characters.", constants.MaxCommentLen))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		TaskID: task.ID,
		UserID: actorID,
		Text:   text,
	}
	if err := s.commentRepo.Create(comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return comment, nil
}

// Dashboard lists the tasks assigned to the user by due date, undated tasks last.
func (s *TaskService) Dashboard(userID uint64) ([]models.Task, error) {
	tasks, err := s.taskRepo.ListByAssignee(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned tasks: %w", err)
	}
	return tasks, nil
}

// GenerateDrafts uses AI to propose tasks for a project from free text. Members only.
// Nothing is stored; the drafts are offered to the user for creation.
func (s *TaskService) GenerateDrafts(ctx context.Context, actorID, projectID uint64, text string) (*models.Project, []GeneratedTask, error) {
	project, _, err := s.project(actorID, projectID, policy.ActionDraftTasks)
	if err != nil {
		return nil, nil, err
	}

	if strings.TrimSpace(text) == "" {
		verr := NewValidationError()
		verr.Add("text", "This field is required.")
		return project, nil, verr
	}

	if s.drafter == nil {
		return project, nil, ErrAIServiceNotConfigured
	}

	aiTasks, err := s.drafter.GenerateTasksFromText(ctx, text)
	if err != nil {
		return project, nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return project, nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		aiTasks = aiTasks[:constants.MaxAIGeneratedTasks]
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	cutoff := s.now().Add(-24 * time.Hour)
	for _, aiTask := range aiTasks {
		aiTask.Title = strings.TrimSpace(aiTask.Title)
		if aiTask.Title == "" || len([]rune(aiTask.Title)) > constants.MaxTaskTitleLen {
			continue
		}

		if aiTask.DueDate != nil && aiTask.DueDate.Before(cutoff) {
			aiTask.DueDate = nil
		}
		if !aiTask.Priority.Valid() {
			aiTask.Priority = models.TaskPriorityMedium
		}

		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return project, nil, ErrAINoValidTasks
	}

	return project, validTasks, nil
}
