package handlers

import (
	"net/http"
	"net/url"

	"github.com/yukikurage/taskhub/internal/models"
	"github.com/yukikurage/taskhub/internal/services"
	"github.com/yukikurage/taskhub/internal/testutil"
)

func (suite *HandlerSuite) register(username string) *models.User {
	user, err := suite.auth.Register(services.RegisterInput{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "supersecret",
		PasswordConfirm: "supersecret",
		Role:            models.RoleMember,
	})
	suite.Require().NoError(err)
	return user
}

func (suite *HandlerSuite) TestAnonymousPageRedirectsToLogin() {
	w := suite.get("/projects/", nil)

	suite.requireRedirect(w, "/accounts/login/?next=%2Fprojects%2F")
}

func (suite *HandlerSuite) TestAnonymousPostRedirectsWithoutNext() {
	w := suite.post("/projects/create/", url.Values{"name": {"Launch"}}, nil)

	suite.requireRedirect(w, "/accounts/login/")
}

func (suite *HandlerSuite) TestLoginPage() {
	w := suite.get("/accounts/login/?next=/projects/", nil)

	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `name="username"`)
	suite.NotContains(w.Body.String(), `name="next"`)
}

func (suite *HandlerSuite) TestLogin_MemberLandsOnDashboard() {
	suite.register("dave")

	w := suite.post("/accounts/login/", url.Values{"username": {"dave"}, "password": {"supersecret"}}, nil)

	suite.requireRedirect(w, "/")
	suite.NotEmpty(w.Result().Cookies(), "expected session cookie to be set")
}

func (suite *HandlerSuite) TestLogin_AdminLandsOnFirstProject() {
	dave := suite.register("dave")
	project, err := suite.projects.CreateProject(dave.ID, services.ProjectInput{Name: "Ops"})
	suite.Require().NoError(err)

	w := suite.post("/accounts/login/", url.Values{"username": {"dave"}, "password": {"supersecret"}}, nil)

	suite.requireRedirect(w, projectURL(project, ""))
}

func (suite *HandlerSuite) TestLogin_IgnoresNextForAdminMember() {
	dave := suite.register("dave")
	project, err := suite.projects.CreateProject(dave.ID, services.ProjectInput{Name: "Launch"})
	suite.Require().NoError(err)

	// Opening the dashboard while logged out leads to the login page with next=/
	suite.requireRedirect(suite.get("/", nil), "/accounts/login/?next=%2F")

	for _, next := range []string{"/", "/projects/", "//evil.example.com/"} {
		w := suite.post("/accounts/login/?next="+url.QueryEscape(next), url.Values{
			"username": {"dave"}, "password": {"supersecret"}, "next": {next},
		}, nil)
		suite.requireRedirect(w, projectURL(project, ""))
	}
}

func (suite *HandlerSuite) TestLogin_IgnoresNextForMember() {
	suite.register("dave")

	w := suite.post("/accounts/login/", url.Values{
		"username": {"dave"}, "password": {"supersecret"}, "next": {"/projects/"},
	}, nil)
	suite.requireRedirect(w, "/")
}

func (suite *HandlerSuite) TestLogin_WrongPassword() {
	suite.register("dave")

	w := suite.post("/accounts/login/", url.Values{"username": {"dave"}, "password": {"nope"}}, nil)

	suite.Require().Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), "Please enter a correct username and password.")
}

func (suite *HandlerSuite) TestLogin_MissingFields() {
	w := suite.post("/accounts/login/", url.Values{}, nil)

	suite.Require().Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), "This field is required.")
}

func (suite *HandlerSuite) TestRegister_LogsInAndRedirects() {
	w := suite.post("/accounts/register/", url.Values{
		"username":  {"erin"},
		"email":     {"erin@example.com"},
		"password1": {"supersecret"},
		"password2": {"supersecret"},
		"role":      {"member"},
	}, nil)

	suite.requireRedirect(w, "/")
	suite.NotEmpty(w.Result().Cookies())

	var user models.User
	suite.Require().NoError(suite.db.Where("username = ?", "erin").First(&user).Error)
	suite.Equal(models.RoleMember, user.Role)
}

func (suite *HandlerSuite) TestRegister_ValidationFailureRerendersForm() {
	w := suite.post("/accounts/register/", url.Values{
		"username":  {"erin"},
		"password1": {"supersecret"},
		"password2": {"different1"},
		"role":      {"member"},
	}, nil)

	suite.Require().Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), `value="erin"`)

	var count int64
	suite.db.Model(&models.User{}).Where("username = ?", "erin").Count(&count)
	suite.Zero(count)
}

func (suite *HandlerSuite) TestRegisterPage_PrefillsInvite() {
	w := suite.get("/accounts/register/?invite=abc", nil)

	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `name="invite" value="abc"`)
}

func (suite *HandlerSuite) TestLogout() {
	w := suite.post("/accounts/logout/", nil, suite.alice)

	suite.requireRedirect(w, "/accounts/login/")
}

func (suite *HandlerSuite) TestDeleteAccount() {
	project := suite.launch()
	task := testutil.CreateTask(suite.T(), suite.db, project, "Ship v1", suite.bob, nil)

	w := suite.post("/accounts/delete/", nil, suite.alice)
	suite.requireRedirect(w, "/accounts/login/")
	suite.NotEmpty(w.Result().Cookies(), "the cleared session is written back")

	var count int64
	suite.db.Model(&models.Project{}).Where("id = ?", project.ID).Count(&count)
	suite.Zero(count)
	suite.db.Model(&models.Task{}).Where("id = ?", task.ID).Count(&count)
	suite.Zero(count)

	// The session now points at a deleted user
	w = suite.get("/", suite.alice)
	suite.Equal(http.StatusSeeOther, w.Code)
}

func (suite *HandlerSuite) TestHealth() {
	suite.Equal(http.StatusOK, suite.get("/health", nil).Code)
	suite.Equal(http.StatusOK, suite.get("/readyz", nil).Code)
}
