package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskhub/internal/dto"
	"github.com/yukikurage/taskhub/internal/logger"
	"github.com/yukikurage/taskhub/internal/mail"
	"github.com/yukikurage/taskhub/internal/metrics"
	"github.com/yukikurage/taskhub/internal/middleware"
	"github.com/yukikurage/taskhub/internal/models"
	"github.com/yukikurage/taskhub/internal/policy"
	"github.com/yukikurage/taskhub/internal/services"
	"github.com/yukikurage/taskhub/internal/utils"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// ListProjects returns the projects the user owns or belongs to
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	projects, page, err := h.projectService.ListProjects(userID, utils.GetPaginationParams(c))
	if err != nil {
		respondError(c, err)
		return
	}

	render(c, http.StatusOK, "project_list.html", gin.H{
		"Title":    "Projects",
		"Projects": projects,
		"Page":     page,
	})
}

// CreatePage shows an empty project form
func (h *ProjectHandler) CreatePage(c *gin.Context) {
	render(c, http.StatusOK, "project_form.html", gin.H{
		"Title": "New project",
		"Form":  dto.ProjectForm{},
	})
}

// CreateProject creates a project owned by the current user
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var form dto.ProjectForm
	if err := c.ShouldBind(&form); err != nil {
		renderProjectForm(c, nil, form, dto.FieldErrors(err))
		return
	}

	project, err := h.projectService.CreateProject(userID, services.ProjectInput{
		Name:        form.Name,
		Description: form.Description,
	})
	if err != nil {
		if fields, ok := fieldErrors(err); ok {
			renderProjectForm(c, nil, form, fields)
			return
		}
		respondError(c, err)
		return
	}

	metrics.ProjectsCreated.Inc()
	logger.Debug("project form accepted", "project_id", project.ID)
	redirect(c, "/projects/")
}

// Overview shows a project with its tasks and members
func (h *ProjectHandler) Overview(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	overview, err := h.projectService.GetOverview(userID, middleware.GetEntityID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	renderOverview(c, http.StatusOK, overview, dto.InviteForm{}, nil)
}

func renderOverview(c *gin.Context, status int, overview *services.Overview, invite dto.InviteForm, errs map[string]string) {
	userID, _ := middleware.GetUserID(c)
	data := gin.H{
		"Title":      overview.Project.Name,
		"Overview":   overview,
		"IsOwner":    overview.IsOwner(userID),
		"InviteForm": invite,
	}
	if errs != nil {
		data["Errors"] = errs
	}
	render(c, status, "project_overview.html", data)
}

// EditPage shows the project form filled with the current values. Owner only.
func (h *ProjectHandler) EditPage(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	project, err := h.projectService.GetForEdit(userID, middleware.GetEntityID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	renderProjectFormStatus(c, http.StatusOK, project, dto.ProjectForm{
		Name:        project.Name,
		Description: project.Description,
	}, nil)
}

// UpdateProject saves the project form. Owner only.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	projectID := middleware.GetEntityID(c)

	var form dto.ProjectForm
	bindErr := c.ShouldBind(&form)

	// Authorization comes before form errors so non-owners never see the form
	project, err := h.projectService.GetForEdit(userID, projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	if bindErr != nil {
		renderProjectForm(c, project, form, dto.FieldErrors(bindErr))
		return
	}

	project, err = h.projectService.UpdateProject(userID, projectID, services.ProjectInput{
		Name:        form.Name,
		Description: form.Description,
	})
	if err != nil {
		if fields, ok := fieldErrors(err); ok {
			renderProjectForm(c, project, form, fields)
			return
		}
		respondError(c, err)
		return
	}

	redirect(c, policy.ProjectOverviewPath(project.ID))
}

func renderProjectForm(c *gin.Context, project *models.Project, form dto.ProjectForm, errs map[string]string) {
	renderProjectFormStatus(c, http.StatusBadRequest, project, form, errs)
}

func renderProjectFormStatus(c *gin.Context, status int, project *models.Project, form dto.ProjectForm, errs map[string]string) {
	data := gin.H{
		"Title": "New project",
		"Form":  form,
	}
	if project != nil {
		data["Title"] = "Edit " + project.Name
		data["Project"] = project
	}
	if errs != nil {
		data["Errors"] = errs
	}
	render(c, status, "project_form.html", data)
}

// DeletePage asks for confirmation. Owner only.
func (h *ProjectHandler) DeletePage(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	project, err := h.projectService.GetForDelete(userID, middleware.GetEntityID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	render(c, http.StatusOK, "project_confirm_delete.html", gin.H{
		"Title":   "Delete " + project.Name,
		"Project": project,
	})
}

// DeleteProject removes the project and everything in it. Owner only.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.projectService.DeleteProject(userID, middleware.GetEntityID(c)); err != nil {
		respondError(c, err)
		return
	}

	redirect(c, "/projects/")
}

// Invite adds a registered user to the project or mails them a registration link. Owner only.
func (h *ProjectHandler) Invite(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	projectID := middleware.GetEntityID(c)

	var form dto.InviteForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderInviteErrors(c, userID, projectID, form, dto.FieldErrors(err))
		return
	}

	result, err := h.projectService.Invite(c.Request.Context(), userID, projectID, form.Email)
	if err != nil {
		if fields, ok := fieldErrors(err); ok {
			h.renderInviteErrors(c, userID, projectID, form, fields)
			return
		}
		var deliveryErr *mail.DeliveryError
		if errors.As(err, &deliveryErr) {
			metrics.Invitations.WithLabelValues(string(services.InviteDeliveryFailed)).Inc()
		}
		respondError(c, err)
		return
	}

	metrics.Invitations.WithLabelValues(string(result.Outcome)).Inc()
	addFlash(c, inviteMessage(result))
	redirect(c, policy.ProjectOverviewPath(projectID))
}

// renderInviteErrors re-renders the overview with the invite form errors, provided the
// caller may invite at all.
func (h *ProjectHandler) renderInviteErrors(c *gin.Context, userID, projectID uint64, form dto.InviteForm, errs map[string]string) {
	overview, err := h.projectService.GetOverview(userID, projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !overview.IsOwner(userID) {
		respondError(c, policy.ErrForbidden)
		return
	}
	renderOverview(c, http.StatusBadRequest, overview, form, errs)
}

func inviteMessage(result *services.InviteResult) string {
	switch result.Outcome {
	case services.InviteMemberAdded:
		return result.Email + " was added to the project."
	case services.InviteAlreadyMember:
		return result.Email + " is already a member of this project."
	case services.InviteDeliveryFailed:
		return "The invitation to " + result.Email + " could not be delivered."
	default:
		return "An invitation was sent to " + result.Email + "."
	}
}
