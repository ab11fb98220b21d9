package policy

import (
	"fmt"

	"github.com/yukikurage/taskhub/internal/models"
)

const DashboardPath = "/"

// ProjectOverviewPath is the canonical page of a project.
func ProjectOverviewPath(projectID uint64) string {
	return fmt.Sprintf("/projects/%d/", projectID)
}

// LandingPath decides where a user goes right after logging in. first is the user's
// earliest membership (lowest id) or nil. Admin members land on that project's
// overview, everyone else on the dashboard.
func LandingPath(first *models.Membership) string {
	if first != nil && first.IsAdmin {
		return ProjectOverviewPath(first.ProjectID)
	}
	return DashboardPath
}
