package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskhub/internal/metrics"
	"github.com/yukikurage/taskhub/internal/middleware"
	"github.com/yukikurage/taskhub/internal/services"
)

// TimerHandler starts and stops the caller's time log on a task.
type TimerHandler struct {
	timerService *services.TimerService
}

func NewTimerHandler(timerService *services.TimerService) *TimerHandler {
	return &TimerHandler{timerService: timerService}
}

// StartTimer opens a time log and returns to the task
func (h *TimerHandler) StartTimer(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	taskID := middleware.GetEntityID(c)

	if _, err := h.timerService.StartTimer(userID, taskID); err != nil {
		respondError(c, err)
		return
	}

	metrics.TimerEvents.WithLabelValues("start").Inc()
	redirect(c, taskPath(taskID))
}

// StopTimer closes the caller's latest open log. Stopping without a running timer is a no-op.
func (h *TimerHandler) StopTimer(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	taskID := middleware.GetEntityID(c)

	log, err := h.timerService.StopTimer(userID, taskID)
	if err != nil {
		respondError(c, err)
		return
	}

	if log != nil {
		metrics.TimerEvents.WithLabelValues("stop").Inc()
	}
	redirect(c, taskPath(taskID))
}
