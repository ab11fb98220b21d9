package services

import (
	"time"

	"github.com/yukikurage/taskhub/internal/models"
	"github.com/yukikurage/taskhub/internal/testutil"
)

func (s *ServiceSuite) TestStartStop_ClosesOneLog() {
	project := s.launch()
	task := testutil.CreateTask(s.T(), s.db, project, "Ship v1", s.bob, nil)

	started, err := s.timers.StartTimer(s.bob.ID, task.ID)
	s.Require().NoError(err)
	s.True(started.IsOpen())

	active, err := s.timers.ActiveTimer(s.bob.ID, task.ID)
	s.Require().NoError(err)
	s.Require().NotNil(active)
	s.Equal(started.ID, active.ID)

	s.clock.Advance(30 * time.Minute)
	stopped, err := s.timers.StopTimer(s.bob.ID, task.ID)
	s.Require().NoError(err)
	s.Require().NotNil(stopped)
	s.Equal(started.ID, stopped.ID)

	var logs []models.TimeLog
	s.Require().NoError(s.db.Where("task_id = ? AND user_id = ?", task.ID, s.bob.ID).Find(&logs).Error)
	s.Require().Len(logs, 1)
	s.Require().NotNil(logs[0].EndTime)
	s.False(logs[0].EndTime.Before(logs[0].StartTime))
	s.Equal(30*time.Minute, logs[0].Duration(s.clock.Now()))

	active, err = s.timers.ActiveTimer(s.bob.ID, task.ID)
	s.Require().NoError(err)
	s.Nil(active)
}

func (s *ServiceSuite) TestStopTimer_WithoutOpenLogIsNoop() {
	project := s.launch()
	task := testutil.CreateTask(s.T(), s.db, project, "Ship v1", nil, nil)

	stopped, err := s.timers.StopTimer(s.bob.ID, task.ID)
	s.NoError(err)
	s.Nil(stopped)

	var count int64
	s.db.Model(&models.TimeLog{}).Count(&count)
	s.Zero(count)
}

// Each start opens a new log; stop closes only the latest one.
func (s *ServiceSuite) TestStartTimer_RepeatedStartsOpenSeveralLogs() {
	project := s.launch()
	task := testutil.CreateTask(s.T(), s.db, project, "Ship v1", nil, nil)

	first, err := s.timers.StartTimer(s.bob.ID, task.ID)
	s.Require().NoError(err)
	s.clock.Advance(time.Minute)
	second, err := s.timers.StartTimer(s.bob.ID, task.ID)
	s.Require().NoError(err)
	s.NotEqual(first.ID, second.ID)

	s.clock.Advance(time.Minute)
	stopped, err := s.timers.StopTimer(s.bob.ID, task.ID)
	s.Require().NoError(err)
	s.Equal(second.ID, stopped.ID)

	active, err := s.timers.ActiveTimer(s.bob.ID, task.ID)
	s.Require().NoError(err)
	s.Require().NotNil(active)
	s.Equal(first.ID, active.ID)
}

func (s *ServiceSuite) TestStartTimer_SingleOpenLog() {
	project := s.launch()
	task := testutil.CreateTask(s.T(), s.db, project, "Ship v1", nil, nil)
	s.timers.singleOpenLog = true

	first, err := s.timers.StartTimer(s.bob.ID, task.ID)
	s.Require().NoError(err)
	again, err := s.timers.StartTimer(s.bob.ID, task.ID)
	s.Require().NoError(err)
	s.Equal(first.ID, again.ID)

	// Logs are per user.
	other, err := s.timers.StartTimer(s.alice.ID, task.ID)
	s.Require().NoError(err)
	s.NotEqual(first.ID, other.ID)

	var count int64
	s.db.Model(&models.TimeLog{}).Count(&count)
	s.EqualValues(2, count)
}
