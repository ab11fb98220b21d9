package services

import (
	"context"
	"errors"
	"strings"

	"github.com/yukikurage/taskhub/internal/mail"
	"github.com/yukikurage/taskhub/internal/models"
	"github.com/yukikurage/taskhub/internal/policy"
	"github.com/yukikurage/taskhub/internal/testutil"
	"github.com/yukikurage/taskhub/internal/utils"
)

func (s *ServiceSuite) TestCreateProject_CreatesSingleAdminMembership() {
	project, err := s.projects.CreateProject(s.alice.ID, ProjectInput{Name: "  Launch ", Description: "Q1"})
	s.Require().NoError(err)
	s.Equal("Launch", project.Name)
	s.Equal(s.alice.ID, project.OwnerID)

	var memberships []models.Membership
	s.Require().NoError(s.db.Where("project_id = ?", project.ID).Find(&memberships).Error)
	s.Require().Len(memberships, 1)
	s.Equal(s.alice.ID, memberships[0].UserID)
	s.True(memberships[0].IsAdmin)
}

func (s *ServiceSuite) TestCreateProject_Validation() {
	_, err := s.projects.CreateProject(s.alice.ID, ProjectInput{Name: "   "})
	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields, "name")

	_, err = s.projects.CreateProject(s.alice.ID, ProjectInput{Name: strings.Repeat("x", 201)})
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields["name"], "200")

	var count int64
	s.db.Model(&models.Project{}).Count(&count)
	s.Zero(count)
}

func (s *ServiceSuite) TestListProjects_OwnedAndMember() {
	launch := s.launch()
	own, err := s.projects.CreateProject(s.bob.ID, ProjectInput{Name: "Bob's"})
	s.Require().NoError(err)
	_, err = s.projects.CreateProject(s.carol.ID, ProjectInput{Name: "Carol's"})
	s.Require().NoError(err)

	projects, page, err := s.projects.ListProjects(s.bob.ID, utils.NewPaginationParams(1, 20))
	s.Require().NoError(err)
	s.Require().Len(projects, 2)
	s.Equal(launch.ID, projects[0].ID)
	s.Equal(own.ID, projects[1].ID)
	s.EqualValues(2, page.Total)
	s.Equal(1, page.TotalPages)
}

func (s *ServiceSuite) TestOverview_MembersOnly() {
	project := s.launch()
	task := testutil.CreateTask(s.T(), s.db, project, "Ship v1", s.bob, nil)

	overview, err := s.projects.GetOverview(s.bob.ID, project.ID)
	s.Require().NoError(err)
	s.Require().Len(overview.Tasks, 1)
	s.Equal(task.ID, overview.Tasks[0].ID)
	s.Require().Len(overview.Members, 2)
	s.Equal("alice", overview.Members[0].User.Username)
	s.False(overview.IsOwner(s.bob.ID))

	_, err = s.projects.GetOverview(s.carol.ID, project.ID)
	s.ErrorIs(err, policy.ErrForbidden)

	_, err = s.projects.GetOverview(s.carol.ID, 9999)
	s.ErrorIs(err, ErrProjectNotFound)
}

func (s *ServiceSuite) TestEditAndDelete_OwnerOnly() {
	project := s.launch()

	// An admin member who is not the owner gets no owner rights.
	testutil.AddMember(s.T(), s.db, project, s.carol, true)

	for _, actor := range []*models.User{s.bob, s.carol} {
		_, err := s.projects.UpdateProject(actor.ID, project.ID, ProjectInput{Name: "Hijacked"})
		s.ErrorIs(err, policy.ErrForbidden)
		_, err = s.projects.GetForEdit(actor.ID, project.ID)
		s.ErrorIs(err, policy.ErrForbidden)
		s.ErrorIs(s.projects.DeleteProject(actor.ID, project.ID), policy.ErrForbidden)
		_, err = s.projects.Invite(context.Background(), actor.ID, project.ID, "new@x.com")
		s.ErrorIs(err, policy.ErrForbidden)
	}
	s.Empty(s.mailer.sent)

	updated, err := s.projects.UpdateProject(s.alice.ID, project.ID, ProjectInput{Name: "Launch 2", Description: "d"})
	s.Require().NoError(err)
	s.Equal("Launch 2", updated.Name)

	s.Require().NoError(s.projects.DeleteProject(s.alice.ID, project.ID))
	_, err = s.projects.GetOverview(s.alice.ID, project.ID)
	s.ErrorIs(err, ErrProjectNotFound)
}

func (s *ServiceSuite) TestUpdateProject_ValidationKeepsProject() {
	project := s.launch()

	_, err := s.projects.UpdateProject(s.alice.ID, project.ID, ProjectInput{Name: ""})
	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)

	overview, err := s.projects.GetOverview(s.alice.ID, project.ID)
	s.Require().NoError(err)
	s.Equal("Launch", overview.Project.Name)
}

func (s *ServiceSuite) TestInvite_ExistingUser() {
	project, err := s.projects.CreateProject(s.alice.ID, ProjectInput{Name: "Launch"})
	s.Require().NoError(err)

	result, err := s.projects.Invite(context.Background(), s.alice.ID, project.ID, "B@X.COM")
	s.Require().NoError(err)
	s.Equal(InviteMemberAdded, result.Outcome)
	s.Equal(s.bob.ID, result.Membership.UserID)
	s.False(result.Membership.IsAdmin)

	again, err := s.projects.Invite(context.Background(), s.alice.ID, project.ID, "b@x.com")
	s.Require().NoError(err)
	s.Equal(InviteAlreadyMember, again.Outcome)
	s.Equal(result.Membership.ID, again.Membership.ID)

	// Inviting the owner leaves the admin row untouched.
	self, err := s.projects.Invite(context.Background(), s.alice.ID, project.ID, "alice@x.com")
	s.Require().NoError(err)
	s.Equal(InviteAlreadyMember, self.Outcome)
	s.True(self.Membership.IsAdmin)

	s.Empty(s.mailer.sent)
}

func (s *ServiceSuite) TestInvite_UnknownEmailSendsRegistrationLink() {
	project, err := s.projects.CreateProject(s.alice.ID, ProjectInput{Name: "Launch"})
	s.Require().NoError(err)

	result, err := s.projects.Invite(context.Background(), s.alice.ID, project.ID, "dave@x.com")
	s.Require().NoError(err)
	s.Equal(InviteSent, result.Outcome)
	s.Nil(result.Membership)

	s.Require().Len(s.mailer.sent, 1)
	msg := s.mailer.sent[0]
	s.Equal("dave@x.com", msg.To)
	s.Contains(msg.Body, "'Launch'")
	s.Contains(msg.Body, "http://tracker.test/accounts/register/?invite=")

	token := msg.Body[strings.Index(msg.Body, "?invite=")+len("?invite="):]
	token = strings.Fields(token)[0]
	claims, err := s.invites.Parse(token)
	s.Require().NoError(err)
	s.Equal(project.ID, claims.ProjectID)
	s.Equal("dave@x.com", claims.Email)
}

func (s *ServiceSuite) TestInvite_DeliveryFailure() {
	project, err := s.projects.CreateProject(s.alice.ID, ProjectInput{Name: "Launch"})
	s.Require().NoError(err)
	s.mailer.err = errors.New("connection refused")

	_, err = s.projects.Invite(context.Background(), s.alice.ID, project.ID, "dave@x.com")
	var deliveryErr *mail.DeliveryError
	s.Require().ErrorAs(err, &deliveryErr)
	s.Equal("dave@x.com", deliveryErr.Recipient)

	s.projects.opts.FailSilently = true
	result, err := s.projects.Invite(context.Background(), s.alice.ID, project.ID, "dave@x.com")
	s.Require().NoError(err)
	s.Equal(InviteDeliveryFailed, result.Outcome)
}

func (s *ServiceSuite) TestInvite_InvalidEmail() {
	project, err := s.projects.CreateProject(s.alice.ID, ProjectInput{Name: "Launch"})
	s.Require().NoError(err)

	for _, email := range []string{"", "not-an-email"} {
		_, err := s.projects.Invite(context.Background(), s.alice.ID, project.ID, email)
		var verr *ValidationError
		s.Require().ErrorAs(err, &verr, email)
		s.Contains(verr.Fields, "email")
	}
	s.Empty(s.mailer.sent)
}
