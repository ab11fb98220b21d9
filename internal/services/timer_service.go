package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/taskhub/internal/logger"
	"github.com/yukikurage/taskhub/internal/models"
	"github.com/yukikurage/taskhub/internal/policy"
	"github.com/yukikurage/taskhub/internal/repository"
	"gorm.io/gorm"
)

// TimerService starts and stops time logs on tasks.
type TimerService struct {
	access
	timeLogRepo repository.TimeLogRepository
	now         func() time.Time

	// singleOpenLog makes StartTimer return the caller's open log instead of opening another.
	singleOpenLog bool
}

// NewTimerService creates a TimerService. now may be nil to use the wall clock.
func NewTimerService(
	taskRepo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	timeLogRepo repository.TimeLogRepository,
	now func() time.Time,
	singleOpenLog bool,
) *TimerService {
	if now == nil {
		now = time.Now
	}
	return &TimerService{
		access:        access{projectRepo: projectRepo, taskRepo: taskRepo},
		timeLogRepo:   timeLogRepo,
		now:           now,
		singleOpenLog: singleOpenLog,
	}
}

// StartTimer opens a time log for the caller on the task. Members only.
func (s *TimerService) StartTimer(actorID, taskID uint64) (*models.TimeLog, error) {
	task, _, err := s.task(actorID, taskID, policy.ActionStartTimer)
	if err != nil {
		return nil, err
	}

	if s.singleOpenLog {
		open, err := s.latestOpen(actorID, task.ID)
		if err != nil {
			return nil, err
		}
		if open != nil {
			return open, nil
		}
	}

	log := &models.TimeLog{
		UserID:    actorID,
		TaskID:    task.ID,
		StartTime: s.now(),
	}
	if err := s.timeLogRepo.Create(log); err != nil {
		return nil, fmt.Errorf("failed to start timer: %w", err)
	}

	logger.Debug("timer started", "time_log_id", log.ID, "task_id", task.ID, "user_id", actorID)
	return log, nil
}

// StopTimer closes the caller's most recent open log on the task. Without an open log it
// does nothing and returns (nil, nil). Members only.
func (s *TimerService) StopTimer(actorID, taskID uint64) (*models.TimeLog, error) {
	task, _, err := s.task(actorID, taskID, policy.ActionStopTimer)
	if err != nil {
		return nil, err
	}

	open, err := s.latestOpen(actorID, task.ID)
	if err != nil || open == nil {
		return nil, err
	}

	end := s.now()
	if end.Before(open.StartTime) {
		end = open.StartTime
	}
	open.EndTime = &end

	if err := s.timeLogRepo.Update(open); err != nil {
		return nil, fmt.Errorf("failed to stop timer: %w", err)
	}

	logger.Debug("timer stopped", "time_log_id", open.ID, "task_id", task.ID, "user_id", actorID,
		"duration", open.Duration(end))
	return open, nil
}

// ActiveTimer returns the caller's open log on the task, or nil. Members only.
func (s *TimerService) ActiveTimer(actorID, taskID uint64) (*models.TimeLog, error) {
	task, _, err := s.task(actorID, taskID, policy.ActionViewTask)
	if err != nil {
		return nil, err
	}
	return s.latestOpen(actorID, task.ID)
}

// Now is the service clock.
func (s *TimerService) Now() time.Time {
	return s.now()
}

func (s *TimerService) latestOpen(userID, taskID uint64) (*models.TimeLog, error) {
	open, err := s.timeLogRepo.FindLatestOpen(userID, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find open time log: %w", err)
	}
	return open, nil
}
