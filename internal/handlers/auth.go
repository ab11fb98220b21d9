package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskhub/internal/constants"
	"github.com/yukikurage/taskhub/internal/dto"
	apierrors "github.com/yukikurage/taskhub/internal/errors"
	"github.com/yukikurage/taskhub/internal/logger"
	"github.com/yukikurage/taskhub/internal/metrics"
	"github.com/yukikurage/taskhub/internal/middleware"
	"github.com/yukikurage/taskhub/internal/models"
	"github.com/yukikurage/taskhub/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// LoginPage shows the login form.
func (h *AuthHandler) LoginPage(c *gin.Context) {
	render(c, http.StatusOK, "login.html", gin.H{
		"Title": "Log in",
		"Form":  dto.LoginForm{},
	})
}

// Login authenticates a user, starts the session and sends them to their landing page.
// The landing page depends only on the user's first membership, never on ?next=.
func (h *AuthHandler) Login(c *gin.Context) {
	var form dto.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		renderLogin(c, form, dto.FieldErrors(err))
		return
	}

	user, err := h.authService.Login(services.LoginInput{
		Username: form.Username,
		Password: form.Password,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			metrics.Logins.WithLabelValues("failure").Inc()
			renderLogin(c, form, map[string]string{
				"__all__": "Please enter a correct username and password.",
			})
			return
		}
		respondError(c, err)
		return
	}

	if err := startSession(c, user); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}
	metrics.Logins.WithLabelValues("success").Inc()

	landing, err := h.authService.LandingPath(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	redirect(c, landing)
}

func renderLogin(c *gin.Context, form dto.LoginForm, errs map[string]string) {
	form.Password = ""
	render(c, http.StatusBadRequest, "login.html", gin.H{
		"Title":  "Log in",
		"Form":   form,
		"Errors": errs,
	})
}

// Logout removes the authentication session.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	redirect(c, middleware.LoginPath)
}

// RegisterPage shows the registration form. An invite token from the mailed link is
// carried along in a hidden field.
func (h *AuthHandler) RegisterPage(c *gin.Context) {
	render(c, http.StatusOK, "register.html", gin.H{
		"Title": "Register",
		"Form": dto.RegisterForm{
			Role:   string(models.RoleMember),
			Invite: c.Query("invite"),
		},
	})
}

// Register creates an account and logs the new user in.
func (h *AuthHandler) Register(c *gin.Context) {
	var form dto.RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		renderRegister(c, form, dto.FieldErrors(err))
		return
	}

	user, err := h.authService.Register(services.RegisterInput{
		Username:        form.Username,
		Email:           form.Email,
		Password:        form.Password,
		PasswordConfirm: form.PasswordConfirm,
		Role:            models.UserRole(form.Role),
		InviteToken:     form.Invite,
	})
	if err != nil {
		if fields, ok := fieldErrors(err); ok {
			renderRegister(c, form, fields)
			return
		}
		respondError(c, err)
		return
	}

	if err := startSession(c, user); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}
	logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	redirect(c, "/")
}

func renderRegister(c *gin.Context, form dto.RegisterForm, errs map[string]string) {
	form.Password, form.PasswordConfirm = "", ""
	render(c, http.StatusBadRequest, "register.html", gin.H{
		"Title":  "Register",
		"Form":   form,
		"Errors": errs,
	})
}

// DeleteAccount removes the current user and everything they own, then logs out.
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.authService.DeleteAccount(userID); err != nil {
		respondError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		logger.Error("failed to clear session after account deletion", "user_id", userID, "error", err)
		apierrors.InternalError(c, "Failed to logout")
		return
	}
	redirect(c, middleware.LoginPath)
}

func startSession(c *gin.Context, user *models.User) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set(constants.ContextKeyUserID, user.ID)
	return session.Save()
}
