package services

import (
	"time"

	"github.com/yukikurage/taskhub/internal/models"
	"github.com/yukikurage/taskhub/internal/policy"
	"github.com/yukikurage/taskhub/internal/testutil"
)

func (s *ServiceSuite) register(username, email, token string) (*models.User, error) {
	return s.auth.Register(RegisterInput{
		Username:        username,
		Email:           email,
		Password:        "password123",
		PasswordConfirm: "password123",
		Role:            models.RoleMember,
		InviteToken:     token,
	})
}

func (s *ServiceSuite) TestRegisterAndLogin() {
	user, err := s.register("dave", "dave@x.com", "")
	s.Require().NoError(err)
	s.Equal(models.RoleMember, user.Role)
	s.NotEqual("password123", user.PasswordHash)

	logged, err := s.auth.Login(LoginInput{Username: "dave", Password: "password123"})
	s.Require().NoError(err)
	s.Equal(user.ID, logged.ID)

	_, err = s.auth.Login(LoginInput{Username: "dave", Password: "wrong-password"})
	s.ErrorIs(err, ErrInvalidCredentials)
	_, err = s.auth.Login(LoginInput{Username: "nobody", Password: "password123"})
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestRegister_Validation() {
	_, err := s.auth.Register(RegisterInput{
		Username:        "bob",
		Email:           "not-an-email",
		Password:        "short",
		PasswordConfirm: "different",
		Role:            models.UserRole("owner"),
	})
	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields["username"], "already exists")
	s.Contains(verr.Fields, "email")
	s.Contains(verr.Fields, "password")
	s.Contains(verr.Fields, "password_confirm")
	s.Contains(verr.Fields, "role")
}

func (s *ServiceSuite) TestRegister_WithInviteJoinsProject() {
	project, err := s.projects.CreateProject(s.alice.ID, ProjectInput{Name: "Launch"})
	s.Require().NoError(err)

	token, err := s.invites.Issue(project.ID, "Dave@X.com")
	s.Require().NoError(err)

	dave, err := s.register("dave", "dave@x.com", token)
	s.Require().NoError(err)

	overview, err := s.projects.GetOverview(dave.ID, project.ID)
	s.Require().NoError(err)
	s.Require().NotNil(overview.Membership)
	s.False(overview.Membership.IsAdmin)
}

func (s *ServiceSuite) TestRegister_IgnoresMismatchedOrExpiredInvite() {
	project, err := s.projects.CreateProject(s.alice.ID, ProjectInput{Name: "Launch"})
	s.Require().NoError(err)

	token, err := s.invites.Issue(project.ID, "someone@x.com")
	s.Require().NoError(err)
	eve, err := s.register("eve", "eve@x.com", token)
	s.Require().NoError(err)
	_, err = s.projects.GetOverview(eve.ID, project.ID)
	s.ErrorIs(err, policy.ErrForbidden)

	token, err = s.invites.Issue(project.ID, "frank@x.com")
	s.Require().NoError(err)
	s.clock.Advance(25 * time.Hour)
	frank, err := s.register("frank", "frank@x.com", token)
	s.Require().NoError(err)
	_, err = s.projects.GetOverview(frank.ID, project.ID)
	s.ErrorIs(err, policy.ErrForbidden)

	_, err = s.register("gina", "gina@x.com", "garbage")
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestLandingPath() {
	path, err := s.auth.LandingPath(s.carol.ID)
	s.Require().NoError(err)
	s.Equal(policy.DashboardPath, path)

	project := s.launch()

	path, err = s.auth.LandingPath(s.alice.ID)
	s.Require().NoError(err)
	s.Equal(policy.ProjectOverviewPath(project.ID), path)

	path, err = s.auth.LandingPath(s.bob.ID)
	s.Require().NoError(err)
	s.Equal(policy.DashboardPath, path)

	// Only the first membership counts.
	other, err := s.projects.CreateProject(s.carol.ID, ProjectInput{Name: "Other"})
	s.Require().NoError(err)
	testutil.AddMember(s.T(), s.db, other, s.bob, true)
	path, err = s.auth.LandingPath(s.bob.ID)
	s.Require().NoError(err)
	s.Equal(policy.DashboardPath, path)
}

func (s *ServiceSuite) TestDeleteAccount() {
	project := s.launch()
	task := testutil.CreateTask(s.T(), s.db, project, "Ship v1", s.bob, nil)
	_, err := s.tasks.AddComment(s.bob.ID, task.ID, "on it")
	s.Require().NoError(err)

	s.Require().NoError(s.auth.DeleteAccount(s.bob.ID))

	detail, err := s.tasks.GetTaskDetail(s.alice.ID, task.ID)
	s.Require().NoError(err)
	s.Nil(detail.Task.AssigneeID)
	s.Empty(detail.Comments)

	_, err = s.auth.GetUser(s.bob.ID)
	s.ErrorIs(err, ErrUserNotFound)
	s.ErrorIs(s.auth.DeleteAccount(s.bob.ID), ErrUserNotFound)

	s.Require().NoError(s.auth.DeleteAccount(s.alice.ID))
	_, err = s.tasks.GetTaskDetail(s.carol.ID, task.ID)
	s.ErrorIs(err, ErrTaskNotFound)
}
