package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskhub/internal/dto"
	"github.com/yukikurage/taskhub/internal/metrics"
	"github.com/yukikurage/taskhub/internal/middleware"
	"github.com/yukikurage/taskhub/internal/models"
	"github.com/yukikurage/taskhub/internal/policy"
	"github.com/yukikurage/taskhub/internal/services"
)

type TaskHandler struct {
	taskService  *services.TaskService
	timerService *services.TimerService
}

func NewTaskHandler(taskService *services.TaskService, timerService *services.TimerService) *TaskHandler {
	return &TaskHandler{
		taskService:  taskService,
		timerService: timerService,
	}
}

// Dashboard lists the tasks assigned to the current user
func (h *TaskHandler) Dashboard(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	tasks, err := h.taskService.Dashboard(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	render(c, http.StatusOK, "dashboard.html", gin.H{
		"Title": "Dashboard",
		"Tasks": tasks,
	})
}

// CreatePage shows an empty task form for a project
func (h *TaskHandler) CreatePage(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	form, err := h.taskService.PrepareCreate(userID, middleware.GetEntityID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	renderTaskForm(c, http.StatusOK, form, nil, dto.TaskForm{
		Status:   string(models.TaskStatusTodo),
		Priority: string(models.TaskPriorityMedium),
	}, nil)
}

// CreateTask adds a task to a project
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	projectID := middleware.GetEntityID(c)

	var form dto.TaskForm
	if err := c.ShouldBind(&form); err != nil {
		h.rerenderCreate(c, userID, projectID, form, dto.FieldErrors(err))
		return
	}

	input, errs := taskInput(form)
	if errs != nil {
		h.rerenderCreate(c, userID, projectID, form, errs)
		return
	}

	task, err := h.taskService.CreateTask(userID, projectID, input)
	if err != nil {
		if fields, ok := fieldErrors(err); ok {
			h.rerenderCreate(c, userID, projectID, form, fields)
			return
		}
		respondError(c, err)
		return
	}

	metrics.TasksCreated.Inc()
	redirect(c, policy.ProjectOverviewPath(task.ProjectID))
}

func (h *TaskHandler) rerenderCreate(c *gin.Context, userID, projectID uint64, form dto.TaskForm, errs map[string]string) {
	taskForm, err := h.taskService.PrepareCreate(userID, projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	renderTaskForm(c, http.StatusBadRequest, taskForm, nil, form, errs)
}

// Detail shows a task with its comments, time logs and the caller's running timer
func (h *TaskHandler) Detail(c *gin.Context) {
	h.renderDetail(c, http.StatusOK, dto.CommentForm{}, nil)
}

func (h *TaskHandler) renderDetail(c *gin.Context, status int, comment dto.CommentForm, errs map[string]string) {
	userID, _ := middleware.GetUserID(c)
	taskID := middleware.GetEntityID(c)

	detail, err := h.taskService.GetTaskDetail(userID, taskID)
	if err != nil {
		respondError(c, err)
		return
	}

	active, err := h.timerService.ActiveTimer(userID, taskID)
	if err != nil {
		respondError(c, err)
		return
	}

	data := gin.H{
		"Title":       detail.Task.Title,
		"Detail":      detail,
		"Active":      active,
		"Now":         h.timerService.Now(),
		"IsOwner":     detail.Project.IsOwner(userID),
		"CommentForm": comment,
	}
	if errs != nil {
		data["Errors"] = errs
	}
	render(c, status, "task_detail.html", data)
}

// AddComment posts a comment from the task detail page
func (h *TaskHandler) AddComment(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	taskID := middleware.GetEntityID(c)

	var form dto.CommentForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderDetail(c, http.StatusBadRequest, form, dto.FieldErrors(err))
		return
	}

	if _, err := h.taskService.AddComment(userID, taskID, form.Comment); err != nil {
		if fields, ok := fieldErrors(err); ok {
			h.renderDetail(c, http.StatusBadRequest, form, fields)
			return
		}
		respondError(c, err)
		return
	}

	redirect(c, taskPath(taskID))
}

// EditPage shows the task form filled with the current values
func (h *TaskHandler) EditPage(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	task, form, err := h.taskService.PrepareEdit(userID, middleware.GetEntityID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	renderTaskForm(c, http.StatusOK, form, task, dto.TaskFormFrom(task), nil)
}

// UpdateTask saves the task form
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	taskID := middleware.GetEntityID(c)

	var form dto.TaskForm
	if err := c.ShouldBind(&form); err != nil {
		h.rerenderEdit(c, userID, taskID, form, dto.FieldErrors(err))
		return
	}

	input, errs := taskInput(form)
	if errs != nil {
		h.rerenderEdit(c, userID, taskID, form, errs)
		return
	}

	if _, err := h.taskService.UpdateTask(userID, taskID, input); err != nil {
		if fields, ok := fieldErrors(err); ok {
			h.rerenderEdit(c, userID, taskID, form, fields)
			return
		}
		respondError(c, err)
		return
	}

	redirect(c, taskPath(taskID))
}

func (h *TaskHandler) rerenderEdit(c *gin.Context, userID, taskID uint64, form dto.TaskForm, errs map[string]string) {
	task, taskForm, err := h.taskService.PrepareEdit(userID, taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	renderTaskForm(c, http.StatusBadRequest, taskForm, task, form, errs)
}

func renderTaskForm(c *gin.Context, status int, taskForm *services.TaskForm, task *models.Task, form dto.TaskForm, errs map[string]string) {
	data := gin.H{
		"Title":   "New task",
		"Project": taskForm.Project,
		"Members": taskForm.Members,
		"Form":    form,
	}
	if task != nil {
		data["Title"] = "Edit " + task.Title
		data["Task"] = task
	}
	if errs != nil {
		data["Errors"] = errs
	}
	render(c, status, "task_form.html", data)
}

// DeletePage asks for confirmation. Project owner only.
func (h *TaskHandler) DeletePage(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	task, err := h.taskService.GetForDelete(userID, middleware.GetEntityID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	render(c, http.StatusOK, "task_confirm_delete.html", gin.H{
		"Title": "Delete " + task.Title,
		"Task":  task,
	})
}

// DeleteTask removes a task and returns to its project. Project owner only.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	projectID, err := h.taskService.DeleteTask(userID, middleware.GetEntityID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	redirect(c, policy.ProjectOverviewPath(projectID))
}

// GenerateTasks asks the AI drafter for task suggestions and shows them for creation
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var form dto.DraftForm
	_ = c.ShouldBind(&form)

	project, drafts, err := h.taskService.GenerateDrafts(c.Request.Context(), userID, middleware.GetEntityID(c), form.Text)
	if err != nil {
		if fields, ok := fieldErrors(err); ok && project != nil {
			render(c, http.StatusBadRequest, "task_drafts.html", gin.H{
				"Title":   "Suggested tasks",
				"Project": project,
				"Errors":  fields,
			})
			return
		}
		respondError(c, err)
		return
	}

	render(c, http.StatusOK, "task_drafts.html", gin.H{
		"Title":   "Suggested tasks",
		"Project": project,
		"Drafts":  drafts,
	})
}

// taskInput converts a bound form; the returned map holds field errors the binding rules cannot express
func taskInput(form dto.TaskForm) (services.TaskInput, map[string]string) {
	assigneeID, err := form.AssigneeID()
	if err != nil {
		return services.TaskInput{}, map[string]string{"assignee": "Select a valid choice."}
	}
	return services.TaskInput{
		Title:       form.Title,
		Description: form.Description,
		AssigneeID:  assigneeID,
		Status:      models.TaskStatus(form.Status),
		Priority:    models.TaskPriority(form.Priority),
		DueDate:     form.Due(),
		Tags:        form.Tags,
	}, nil
}

func taskPath(taskID uint64) string {
	return "/tasks/" + strconv.FormatUint(taskID, 10) + "/"
}
