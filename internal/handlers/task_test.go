package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/yukikurage/taskhub/internal/models"
	"github.com/yukikurage/taskhub/internal/services"
	"github.com/yukikurage/taskhub/internal/testutil"
)

func (suite *HandlerSuite) TestDashboard_ListsAssignedTasks() {
	project := suite.launch()
	testutil.CreateTask(suite.T(), suite.db, project, "Ship v1", suite.bob, testutil.Date(2025, 3, 1))
	testutil.CreateTask(suite.T(), suite.db, project, "Write docs", suite.alice, nil)

	w := suite.get("/", suite.bob)

	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "Ship v1")
	suite.Contains(w.Body.String(), "Mar 1, 2025")
	suite.NotContains(w.Body.String(), "Write docs")
}

func (suite *HandlerSuite) TestCreateTask() {
	project := suite.launch()

	w := suite.get(projectURL(project, "tasks/create/"), suite.bob)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "bob")

	w = suite.post(projectURL(project, "tasks/create/"), url.Values{
		"title":    {"Ship v1"},
		"assignee": {strconv.FormatUint(suite.bob.ID, 10)},
		"priority": {"high"},
		"due_date": {"2025-03-01"},
		"tags":     {"release, web"},
	}, suite.bob)
	suite.requireRedirect(w, projectURL(project, ""))

	var task models.Task
	suite.Require().NoError(suite.db.Where("title = ?", "Ship v1").First(&task).Error)
	suite.Equal(models.TaskStatusTodo, task.Status)
	suite.Equal(models.TaskPriorityHigh, task.Priority)
	suite.Require().NotNil(task.AssigneeID)
	suite.Equal(suite.bob.ID, *task.AssigneeID)
	suite.Require().NotNil(task.DueDate)
}

func (suite *HandlerSuite) TestCreateTask_Validation() {
	project := suite.launch()

	w := suite.post(projectURL(project, "tasks/create/"), url.Values{"title": {""}}, suite.bob)
	suite.Require().Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), "This field is required.")

	// carol is not a member, so she cannot be assigned
	w = suite.post(projectURL(project, "tasks/create/"), url.Values{
		"title":    {"Ship v1"},
		"assignee": {strconv.FormatUint(suite.carol.ID, 10)},
	}, suite.bob)
	suite.Require().Equal(http.StatusBadRequest, w.Code)

	w = suite.post(projectURL(project, "tasks/create/"), url.Values{
		"title":    {"Ship v1"},
		"due_date": {"tomorrow"},
	}, suite.bob)
	suite.Require().Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), "Enter a valid date.")

	var count int64
	suite.db.Model(&models.Task{}).Count(&count)
	suite.Zero(count)
}

func (suite *HandlerSuite) TestCreateTask_NonMemberForbidden() {
	project := suite.launch()

	suite.Equal(http.StatusForbidden, suite.get(projectURL(project, "tasks/create/"), suite.carol).Code)
	w := suite.post(projectURL(project, "tasks/create/"), url.Values{"title": {"Sneaky"}}, suite.carol)
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *HandlerSuite) TestTaskDetail_AndComments() {
	project := suite.launch()
	task := testutil.CreateTask(suite.T(), suite.db, project, "Ship v1", nil, nil)

	w := suite.post(taskURL(task, ""), url.Values{"comment": {"Looks good"}}, suite.bob)
	suite.requireRedirect(w, taskURL(task, ""))

	w = suite.get(taskURL(task, ""), suite.bob)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "Looks good")
	suite.NotContains(w.Body.String(), taskURL(task, "delete/"), "only the project owner may delete")

	w = suite.post(taskURL(task, ""), url.Values{"comment": {"   "}}, suite.bob)
	suite.Equal(http.StatusBadRequest, w.Code)

	suite.Equal(http.StatusForbidden, suite.get(taskURL(task, ""), suite.carol).Code)
	suite.Equal(http.StatusNotFound, suite.get("/tasks/999/", suite.bob).Code)
}

func (suite *HandlerSuite) TestUpdateTask() {
	project := suite.launch()
	task := testutil.CreateTask(suite.T(), suite.db, project, "Ship v1", nil, nil)

	w := suite.get(taskURL(task, "edit/"), suite.bob)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `value="Ship v1"`)

	w = suite.post(taskURL(task, "edit/"), url.Values{
		"title":  {"Ship v1.1"},
		"status": {"inprogress"},
	}, suite.bob)
	suite.requireRedirect(w, taskURL(task, ""))

	var stored models.Task
	suite.Require().NoError(suite.db.First(&stored, task.ID).Error)
	suite.Equal("Ship v1.1", stored.Title)
	suite.Equal(models.TaskStatusInProgress, stored.Status)

	w = suite.post(taskURL(task, "edit/"), url.Values{"title": {"x"}, "status": {"archived"}}, suite.bob)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerSuite) TestUpdateTask_OutOfRangeAssigneeKeepsAssignment() {
	project := suite.launch()
	task := testutil.CreateTask(suite.T(), suite.db, project, "Ship v1", suite.bob, nil)

	w := suite.post(taskURL(task, "edit/"), url.Values{
		"title":    {"Ship v1"},
		"assignee": {"99999999999999999999"},
	}, suite.bob)
	suite.Require().Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), "Select a valid choice.")

	var stored models.Task
	suite.Require().NoError(suite.db.First(&stored, task.ID).Error)
	suite.Require().NotNil(stored.AssigneeID)
	suite.Equal(suite.bob.ID, *stored.AssigneeID)

	w = suite.post(projectURL(project, "tasks/create/"), url.Values{
		"title":    {"Write docs"},
		"assignee": {"99999999999999999999"},
	}, suite.bob)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerSuite) TestDeleteTask_ProjectOwnerOnly() {
	project := suite.launch()
	task := testutil.CreateTask(suite.T(), suite.db, project, "Ship v1", nil, nil)

	suite.Equal(http.StatusForbidden, suite.get(taskURL(task, "delete/"), suite.bob).Code)
	suite.Equal(http.StatusForbidden, suite.post(taskURL(task, "delete/"), nil, suite.bob).Code)

	suite.Equal(http.StatusOK, suite.get(taskURL(task, "delete/"), suite.alice).Code)
	w := suite.post(taskURL(task, "delete/"), nil, suite.alice)
	suite.requireRedirect(w, projectURL(project, ""))

	var count int64
	suite.db.Model(&models.Task{}).Where("id = ?", task.ID).Count(&count)
	suite.Zero(count)
}

func (suite *HandlerSuite) TestTimer_StartStop() {
	project := suite.launch()
	task := testutil.CreateTask(suite.T(), suite.db, project, "Ship v1", nil, nil)

	w := suite.post(taskURL(task, "start/"), nil, suite.bob)
	suite.requireRedirect(w, taskURL(task, ""))

	w = suite.get(taskURL(task, ""), suite.bob)
	suite.Contains(w.Body.String(), "Stop timer")

	w = suite.post(taskURL(task, "stop/"), nil, suite.bob)
	suite.requireRedirect(w, taskURL(task, ""))

	var logs []models.TimeLog
	suite.Require().NoError(suite.db.Where("task_id = ?", task.ID).Find(&logs).Error)
	suite.Require().Len(logs, 1)
	suite.NotNil(logs[0].EndTime)

	// Stopping again is a no-op
	w = suite.post(taskURL(task, "stop/"), nil, suite.bob)
	suite.requireRedirect(w, taskURL(task, ""))

	suite.Equal(http.StatusForbidden, suite.post(taskURL(task, "start/"), nil, suite.carol).Code)
	suite.Equal(http.StatusForbidden, suite.post(taskURL(task, "stop/"), nil, suite.carol).Code)
}

func (suite *HandlerSuite) TestGenerateTasks_NotConfigured() {
	project := suite.launch()

	w := suite.post(projectURL(project, "tasks/generate/"), url.Values{"text": {"plan the launch"}}, suite.bob)

	suite.Equal(http.StatusServiceUnavailable, w.Code)
}

func (suite *HandlerSuite) TestGenerateTasks_ShowsDrafts() {
	project := suite.launch()
	suite.drafter.tasks = []services.GeneratedTask{
		{Title: "Book venue", Priority: models.TaskPriorityHigh},
		{Title: "  "},
	}
	suite.router = suite.newRouter(suite.taskService(suite.drafter))

	w := suite.post(projectURL(project, "tasks/generate/"), url.Values{"text": {"plan the launch"}}, suite.bob)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "Book venue")

	w = suite.post(projectURL(project, "tasks/generate/"), url.Values{"text": {""}}, suite.bob)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.post(projectURL(project, "tasks/generate/"), url.Values{"text": {"x"}}, suite.carol)
	suite.Equal(http.StatusForbidden, w.Code)
}
