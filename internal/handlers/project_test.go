package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"

	"github.com/yukikurage/taskhub/internal/models"
	"github.com/yukikurage/taskhub/internal/testutil"
)

func (suite *HandlerSuite) TestCreateProject() {
	w := suite.post("/projects/create/", url.Values{"name": {"Launch"}, "description": {"Q3"}}, suite.alice)
	suite.requireRedirect(w, "/projects/")

	var project models.Project
	suite.Require().NoError(suite.db.Where("name = ?", "Launch").First(&project).Error)
	suite.Equal(suite.alice.ID, project.OwnerID)

	var membership models.Membership
	suite.Require().NoError(suite.db.Where("project_id = ? AND user_id = ?", project.ID, suite.alice.ID).First(&membership).Error)
	suite.True(membership.IsAdmin)
}

func (suite *HandlerSuite) TestCreateProject_MissingName() {
	w := suite.post("/projects/create/", url.Values{"name": {""}}, suite.alice)

	suite.Require().Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), "This field is required.")
}

func (suite *HandlerSuite) TestListProjects() {
	suite.launch()
	testutil.CreateProject(suite.T(), suite.db, "Private", suite.carol)

	w := suite.get("/projects/", suite.bob)

	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "Launch")
	suite.NotContains(w.Body.String(), "Private")
}

func (suite *HandlerSuite) TestOverview_Access() {
	project := suite.launch()
	testutil.CreateTask(suite.T(), suite.db, project, "Ship v1", nil, nil)

	w := suite.get(projectURL(project, ""), suite.bob)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "Ship v1")
	suite.NotContains(w.Body.String(), "/invite/", "only the owner sees the invite form")

	w = suite.get(projectURL(project, ""), suite.alice)
	suite.Contains(w.Body.String(), "/invite/")

	suite.Equal(http.StatusForbidden, suite.get(projectURL(project, ""), suite.carol).Code)
	suite.Equal(http.StatusNotFound, suite.get("/projects/999/", suite.alice).Code)
	suite.Equal(http.StatusNotFound, suite.get("/projects/abc/", suite.alice).Code)
}

func (suite *HandlerSuite) TestForbiddenNegotiatesJSON() {
	project := suite.launch()

	req := httptest.NewRequest(http.MethodGet, projectURL(project, ""), nil)
	req.Header.Set("Accept", "application/json")
	w := suite.serve(req, suite.carol)

	suite.Require().Equal(http.StatusForbidden, w.Code)
	var body map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal("FORBIDDEN", body["code"])
}

func (suite *HandlerSuite) TestEditProject_OwnerOnly() {
	project := suite.launch()

	// An admin membership does not make bob the owner
	suite.Require().NoError(suite.db.Model(&models.Membership{}).
		Where("project_id = ? AND user_id = ?", project.ID, suite.bob.ID).
		Update("is_admin", true).Error)

	suite.Equal(http.StatusForbidden, suite.get(projectURL(project, "edit/"), suite.bob).Code)
	w := suite.post(projectURL(project, "edit/"), url.Values{"name": {"Hijacked"}}, suite.bob)
	suite.Equal(http.StatusForbidden, w.Code)
	suite.Equal(http.StatusForbidden, suite.get(projectURL(project, "delete/"), suite.bob).Code)
	suite.Equal(http.StatusForbidden, suite.post(projectURL(project, "delete/"), nil, suite.bob).Code)

	w = suite.post(projectURL(project, "edit/"), url.Values{"name": {"Launch 2"}}, suite.alice)
	suite.requireRedirect(w, projectURL(project, ""))

	var stored models.Project
	suite.Require().NoError(suite.db.First(&stored, project.ID).Error)
	suite.Equal("Launch 2", stored.Name)
}

func (suite *HandlerSuite) TestEditProject_InvalidName() {
	project := suite.launch()

	w := suite.post(projectURL(project, "edit/"), url.Values{"name": {""}}, suite.alice)

	suite.Require().Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), "This field is required.")
}

func (suite *HandlerSuite) TestDeleteProject() {
	project := suite.launch()
	testutil.CreateTask(suite.T(), suite.db, project, "Ship v1", nil, nil)

	w := suite.get(projectURL(project, "delete/"), suite.alice)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.post(projectURL(project, "delete/"), nil, suite.alice)
	suite.requireRedirect(w, "/projects/")

	var count int64
	suite.db.Model(&models.Task{}).Where("project_id = ?", project.ID).Count(&count)
	suite.Zero(count)
}

func (suite *HandlerSuite) TestInvite_ExistingUser() {
	project := suite.launch()

	w := suite.post(projectURL(project, "invite/"), url.Values{"email": {"carol@x.com"}}, suite.alice)
	suite.requireRedirect(w, projectURL(project, ""))

	var membership models.Membership
	suite.Require().NoError(suite.db.Where("project_id = ? AND user_id = ?", project.ID, suite.carol.ID).First(&membership).Error)
	suite.False(membership.IsAdmin)
	suite.Empty(suite.mailer.sent)
}

func (suite *HandlerSuite) TestInvite_UnknownEmailSendsMail() {
	project := suite.launch()

	w := suite.post(projectURL(project, "invite/"), url.Values{"email": {"new@x.com"}}, suite.alice)
	suite.requireRedirect(w, projectURL(project, ""))

	suite.Require().Len(suite.mailer.sent, 1)
	suite.Equal("new@x.com", suite.mailer.sent[0].To)
	suite.Contains(suite.mailer.sent[0].Body, "http://tracker.test/accounts/register/?invite=")
}

func (suite *HandlerSuite) TestInvite_DeliveryFailure() {
	project := suite.launch()
	suite.mailer.err = errors.New("connection refused")

	w := suite.post(projectURL(project, "invite/"), url.Values{"email": {"new@x.com"}}, suite.alice)

	suite.Equal(http.StatusBadGateway, w.Code)
}

func (suite *HandlerSuite) TestInvite_InvalidEmail() {
	project := suite.launch()

	w := suite.post(projectURL(project, "invite/"), url.Values{"email": {"not-an-email"}}, suite.alice)
	suite.Require().Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), "Enter a valid email address.")

	w = suite.post(projectURL(project, "invite/"), url.Values{"email": {"not-an-email"}}, suite.bob)
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *HandlerSuite) TestInvite_NonOwnerForbidden() {
	project := suite.launch()

	w := suite.post(projectURL(project, "invite/"), url.Values{"email": {"carol@x.com"}}, suite.bob)

	suite.Equal(http.StatusForbidden, w.Code)
	var count int64
	suite.db.Model(&models.Membership{}).Where("project_id = ? AND user_id = ?", project.ID, suite.carol.ID).Count(&count)
	suite.Zero(count)
}
