package projects_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/equinor/radix-common/utils/pointers"
	"github.com/golang/mock/gomock"
	orchestratormock "github.com/shapeblock/shapeblock-api/api/orchestrator/mock"
	"github.com/shapeblock/shapeblock-api/api/projects"
	"github.com/shapeblock/shapeblock-api/api/projects/models"
	controllertest "github.com/shapeblock/shapeblock-api/api/test"
	tokenmock "github.com/shapeblock/shapeblock-api/api/utils/token/mock"
	"github.com/shapeblock/shapeblock-api/internal/db"
	"github.com/shapeblock/shapeblock-api/internal/db/dbtest"
	"github.com/shapeblock/shapeblock-api/internal/db/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTest(t *testing.T) (controllertest.Utils, db.Database, *orchestratormock.MockProvisioner) {
	ctrl := gomock.NewController(t)
	validator := tokenmock.NewMockValidatorInterface(ctrl)
	validator.EXPECT().ValidateToken(gomock.Any(), "xyz").Return(controllertest.NewTestPrincipal(dbtest.Owner), nil).AnyTimes()
	validator.EXPECT().ValidateToken(gomock.Any(), "other").Return(controllertest.NewTestPrincipal("someone-else"), nil).AnyTimes()

	database := memory.New()
	provisioner := orchestratormock.NewMockProvisioner(ctrl)
	utils := controllertest.NewTestUtils(validator, projects.NewProjectController(projects.Init(database, provisioner)))
	return utils, database, provisioner
}

type projectNamed string

func (m projectNamed) Matches(arg interface{}) bool {
	project, ok := arg.(db.Project)
	return ok && project.Name == string(m)
}

func (m projectNamed) String() string {
	return "project " + string(m)
}

func TestCreateProject(t *testing.T) {
	utils, database, provisioner := setupTest(t)
	provisioner.EXPECT().SubmitProject(gomock.Any(), projectNamed("shop")).Return(nil)

	response := <-utils.ExecuteRequestWithParameters(http.MethodPost, "/api/v1/projects", models.CreateProjectRequest{Name: "shop", DisplayName: "Shop"})

	require.Equal(t, http.StatusCreated, response.Code)
	var project models.Project
	require.NoError(t, controllertest.GetResponseBody(response, &project))
	assert.Equal(t, "shop", project.Name)
	assert.Equal(t, "Shop", project.DisplayName)
	assert.Equal(t, dbtest.Owner, project.User)

	stored, err := database.Projects().Get(context.Background(), project.UUID)
	require.NoError(t, err)
	assert.Equal(t, dbtest.Owner, stored.Owner)
}

func TestCreateProject_InvalidName(t *testing.T) {
	utils, _, _ := setupTest(t)

	response := <-utils.ExecuteRequestWithParameters(http.MethodPost, "/api/v1/projects", models.CreateProjectRequest{Name: "My_Shop"})

	assert.Equal(t, http.StatusBadRequest, response.Code)
}

func TestCreateProject_NameTaken(t *testing.T) {
	utils, database, _ := setupTest(t)
	dbtest.NewProject(t, database, "shop")

	response := <-utils.ExecuteRequestWithParameters(http.MethodPost, "/api/v1/projects", models.CreateProjectRequest{Name: "shop"})

	assert.Equal(t, http.StatusBadRequest, response.Code)
}

func TestCreateProject_SubmitFailureRemovesProject(t *testing.T) {
	utils, database, provisioner := setupTest(t)
	provisioner.EXPECT().SubmitProject(gomock.Any(), gomock.Any()).Return(errors.New("forbidden"))

	response := <-utils.ExecuteRequestWithParameters(http.MethodPost, "/api/v1/projects", models.CreateProjectRequest{Name: "shop"})

	assert.Equal(t, http.StatusInternalServerError, response.Code)
	list, err := database.Projects().List(context.Background(), dbtest.Owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGetProjects_OnlyOwn(t *testing.T) {
	utils, database, _ := setupTest(t)
	project := dbtest.NewProject(t, database, "shop")

	response := <-utils.ExecuteRequest(http.MethodGet, "/api/v1/projects")
	require.Equal(t, http.StatusOK, response.Code)
	var list []models.Project
	require.NoError(t, controllertest.GetResponseBody(response, &list))
	require.Len(t, list, 1)
	assert.Equal(t, project.ID, list[0].UUID)

	response = <-utils.ExecuteRawRequest(http.MethodGet, "/api/v1/projects/"+project.ID, nil, map[string]string{"Authorization": "Bearer other"})
	assert.Equal(t, http.StatusNotFound, response.Code)
}

func TestUpdateProject(t *testing.T) {
	utils, database, provisioner := setupTest(t)
	project := dbtest.NewProject(t, database, "shop")
	provisioner.EXPECT().SubmitProject(gomock.Any(), projectNamed("shop")).Return(nil)

	response := <-utils.ExecuteRequestWithParameters(http.MethodPatch, "/api/v1/projects/"+project.ID, models.UpdateProjectRequest{Description: pointers.Ptr("Web shop")})

	require.Equal(t, http.StatusOK, response.Code)
	var updated models.Project
	require.NoError(t, controllertest.GetResponseBody(response, &updated))
	assert.Equal(t, "Web shop", updated.Description)
	assert.Equal(t, "shop", updated.DisplayName)
}

func TestDeleteProject(t *testing.T) {
	utils, database, provisioner := setupTest(t)
	project := dbtest.NewProject(t, database, "shop")
	app := dbtest.NewApp(t, database, project, "web")

	response := <-utils.ExecuteRequest(http.MethodDelete, "/api/v1/projects/"+project.ID)
	assert.Equal(t, http.StatusBadRequest, response.Code, "project still has an app")

	require.NoError(t, database.Apps().Delete(context.Background(), app.ID))
	provisioner.EXPECT().DeleteProject(gomock.Any(), projectNamed("shop")).Return(nil)

	response = <-utils.ExecuteRequest(http.MethodDelete, "/api/v1/projects/"+project.ID)
	assert.Equal(t, http.StatusNoContent, response.Code)
	_, err := database.Projects().Get(context.Background(), project.ID)
	assert.ErrorIs(t, err, db.ErrMissing)
}

func TestGetProjectAppsAndServices(t *testing.T) {
	utils, database, _ := setupTest(t)
	project := dbtest.NewProject(t, database, "shop")
	other := dbtest.NewProject(t, database, "blog")
	app := dbtest.NewApp(t, database, project, "web")
	dbtest.NewApp(t, database, other, "web")
	service, err := database.Services().Create(context.Background(), db.Service{
		ID: "6b1f0c2e-0000-4000-8000-000000000001", ProjectID: project.ID, Owner: dbtest.Owner, Name: "pg", Type: db.ServicePostgres, Status: db.ServiceStarting,
	})
	require.NoError(t, err)

	response := <-utils.ExecuteRequest(http.MethodGet, "/api/v1/projects/"+project.ID+"/apps")
	require.Equal(t, http.StatusOK, response.Code)
	var apps []models.AppRef
	require.NoError(t, controllertest.GetResponseBody(response, &apps))
	assert.Equal(t, []models.AppRef{{UUID: app.ID, Name: "web", Status: "created"}}, apps)

	response = <-utils.ExecuteRequest(http.MethodGet, "/api/v1/projects/"+project.ID+"/services")
	require.Equal(t, http.StatusOK, response.Code)
	var services []models.ServiceRef
	require.NoError(t, controllertest.GetResponseBody(response, &services))
	assert.Equal(t, []models.ServiceRef{{UUID: service.ID, Name: "pg", Type: "postgres"}}, services)
}
