package dto

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/taskhub/internal/constants"
	"github.com/yukikurage/taskhub/internal/models"
)

// LoginForm is posted by the login page
type LoginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// RegisterForm is posted by the registration page
type RegisterForm struct {
	Username        string `form:"username" binding:"required,max=150"`
	Email           string `form:"email" binding:"omitempty,email"`
	Password        string `form:"password1" binding:"required"`
	PasswordConfirm string `form:"password2" binding:"required"`
	Role            string `form:"role" binding:"required,oneof=admin member"`
	Invite          string `form:"invite"`
}

// ProjectForm is posted by the create and edit project pages
type ProjectForm struct {
	Name        string `form:"name" binding:"required,max=200"`
	Description string `form:"description"`
}

// InviteForm is posted from the project overview
type InviteForm struct {
	Email string `form:"email" binding:"required,email"`
}

// TaskForm is posted by the create and edit task pages. Optional selects arrive as empty strings.
type TaskForm struct {
	Title       string `form:"title" binding:"required,max=200"`
	Description string `form:"description"`
	Assignee    string `form:"assignee" binding:"omitempty,numeric"`
	Status      string `form:"status" binding:"omitempty,oneof=todo inprogress done"`
	Priority    string `form:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     string `form:"due_date" binding:"omitempty,datetime=2006-01-02"`
	Tags        string `form:"tags" binding:"max=100"`
}

// ErrInvalidAssignee is returned for an assignee that cannot be a user id
var ErrInvalidAssignee = errors.New("invalid assignee")

// AssigneeID parses the assignee select; empty means unassigned
func (f TaskForm) AssigneeID() (*uint64, error) {
	raw := strings.TrimSpace(f.Assignee)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, ErrInvalidAssignee
	}
	return &id, nil
}

// Due parses the due date; empty or malformed means no due date
func (f TaskForm) Due() *time.Time {
	if strings.TrimSpace(f.DueDate) == "" {
		return nil
	}
	d, err := time.Parse(constants.DateLayout, strings.TrimSpace(f.DueDate))
	if err != nil {
		return nil
	}
	return &d
}

// TaskFormFrom fills the form from a stored task for the edit page
func TaskFormFrom(task *models.Task) TaskForm {
	form := TaskForm{
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		Tags:        task.Tags,
	}
	if task.AssigneeID != nil {
		form.Assignee = strconv.FormatUint(*task.AssigneeID, 10)
	}
	if task.DueDate != nil {
		form.DueDate = task.DueDate.Format(constants.DateLayout)
	}
	return form
}

// CommentForm is posted by the task detail page
type CommentForm struct {
	Comment string `form:"comment" binding:"required"`
}

// DraftForm is posted to generate AI task drafts
type DraftForm struct {
	Text string `form:"text" binding:"required"`
}

// FieldErrors turns binding failures into per-field messages keyed by form field name.
// Errors that are not validation failures are reported under "__all__".
func FieldErrors(err error) map[string]string {
	fields := map[string]string{}
	if err == nil {
		return fields
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields["__all__"] = "Invalid form submission."
		return fields
	}

	for _, fe := range verrs {
		name := formName(fe.Field())
		if _, exists := fields[name]; exists {
			continue
		}
		fields[name] = fieldMessage(fe)
	}
	return fields
}

// formName maps struct field names to the form names the templates use
func formName(field string) string {
	switch field {
	case "Password":
		return "password"
	case "PasswordConfirm":
		return "password_confirm"
	case "DueDate":
		return "due_date"
	default:
		return strings.ToLower(field)
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return "Ensure this value has at most " + fe.Param() + " characters."
	case "email":
		return "Enter a valid email address."
	case "oneof", "numeric":
		return "Select a valid choice."
	case "datetime":
		return "Enter a valid date."
	default:
		return "Enter a valid value."
	}
}
