package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/taskhub/internal/errors"
	"github.com/yukikurage/taskhub/internal/logger"
	"github.com/yukikurage/taskhub/internal/mail"
	"github.com/yukikurage/taskhub/internal/middleware"
	"github.com/yukikurage/taskhub/internal/policy"
	"github.com/yukikurage/taskhub/internal/services"
)

// render writes a page with the values every layout needs filled in.
func render(c *gin.Context, status int, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["User"]; !ok {
		if user, ok := middleware.CurrentUser(c); ok {
			data["User"] = user
		}
	}
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = map[string]string{}
	}
	if _, ok := data["Flashes"]; !ok {
		data["Flashes"] = takeFlashes(c)
	}
	c.HTML(status, page, data)
}

// redirect answers a successful form post
func redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}

func addFlash(c *gin.Context, message string) {
	session := sessions.Default(c)
	session.AddFlash(message)
	if err := session.Save(); err != nil {
		logger.Warn("failed to save flash message", "error", err)
	}
}

func takeFlashes(c *gin.Context) []interface{} {
	session := sessions.Default(c)
	flashes := session.Flashes()
	if len(flashes) > 0 {
		_ = session.Save()
	}
	return flashes
}

// fieldErrors extracts the per-field messages of a validation failure
func fieldErrors(err error) (map[string]string, bool) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields, true
	}
	return nil, false
}

// respondError maps service errors to error pages. Validation failures are handled by
// the caller since they re-render the form.
func respondError(c *gin.Context, err error) {
	var deliveryErr *mail.DeliveryError
	switch {
	case errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "")
	case errors.Is(err, policy.ErrForbidden):
		apierrors.Forbidden(c, "")
	case errors.As(err, &deliveryErr):
		apierrors.BadGateway(c, "The invitation email could not be sent.")
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "Task drafting is not configured.")
	case errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.BadRequest(c, err.Error())
	default:
		_ = c.Error(err)
		apierrors.InternalError(c, "")
	}
}
