// Package web embeds the page templates.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/yukikurage/taskhub/internal/constants"
	"github.com/yukikurage/taskhub/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses every page and partial.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs()).ParseFS(templateFS, "templates/*.html")
}

// MustTemplates is Templates for wiring code that cannot continue without pages.
func MustTemplates() *template.Template {
	return template.Must(Templates())
}

// Funcs are the helpers available to every page.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"date":      formatDate,
		"dateValue": dateValue,
		"datetime":  formatDateTime,
		"duration":  formatDuration,
		"idstr":     func(id uint64) string { return strconv.FormatUint(id, 10) },
		"ptrid":     ptrID,
		"statuses":  func() []models.TaskStatus { return []models.TaskStatus{models.TaskStatusTodo, models.TaskStatusInProgress, models.TaskStatusDone} },
		"priorities": func() []models.TaskPriority {
			return []models.TaskPriority{models.TaskPriorityLow, models.TaskPriorityMedium, models.TaskPriorityHigh}
		},
		"roles": func() []models.UserRole { return []models.UserRole{models.RoleMember, models.RoleAdmin} },
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("Jan 2, 2006")
}

func dateValue(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(constants.DateLayout)
}

func formatDateTime(t time.Time) string {
	return t.Format("Jan 2, 2006 15:04")
}

// formatDuration renders h:mm:ss.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

func ptrID(id *uint64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatUint(*id, 10)
}
