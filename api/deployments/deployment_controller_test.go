package deployments_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/shapeblock/shapeblock-api/api/deployments"
	"github.com/shapeblock/shapeblock-api/api/deployments/models"
	"github.com/shapeblock/shapeblock-api/api/fanout"
	"github.com/shapeblock/shapeblock-api/api/git"
	gitmock "github.com/shapeblock/shapeblock-api/api/git/mock"
	orchestratormock "github.com/shapeblock/shapeblock-api/api/orchestrator/mock"
	"github.com/shapeblock/shapeblock-api/api/services/connection"
	controllertest "github.com/shapeblock/shapeblock-api/api/test"
	tokenmock "github.com/shapeblock/shapeblock-api/api/utils/token/mock"
	"github.com/shapeblock/shapeblock-api/internal/db"
	"github.com/shapeblock/shapeblock-api/internal/db/dbtest"
	"github.com/shapeblock/shapeblock-api/internal/db/memory"
	"github.com/stretchr/testify/suite"
)

type controllerTestSuite struct {
	suite.Suite
	database  db.Database
	resolver  *gitmock.MockCommitResolver
	submitter *orchestratormock.MockSubmitter
	publisher *controllertest.RecordingPublisher
	utils     controllertest.Utils
	project   db.Project
	app       db.App
}

func TestControllerTestSuite(t *testing.T) {
	suite.Run(t, new(controllerTestSuite))
}

func (s *controllerTestSuite) SetupTest() {
	s.setup(deployments.ResetToCreated)
}

func (s *controllerTestSuite) setup(policy deployments.FailurePolicy) {
	ctrl := gomock.NewController(s.T())
	validator := tokenmock.NewMockValidatorInterface(ctrl)
	validator.EXPECT().ValidateToken(gomock.Any(), "xyz").Return(controllertest.NewTestPrincipal(dbtest.Owner), nil).AnyTimes()
	validator.EXPECT().ValidateToken(gomock.Any(), "other").Return(controllertest.NewTestPrincipal("someone-else"), nil).AnyTimes()

	s.database = memory.New()
	s.resolver = gitmock.NewMockCommitResolver(ctrl)
	s.submitter = orchestratormock.NewMockSubmitter(ctrl)
	s.publisher = &controllertest.RecordingPublisher{}
	s.project = dbtest.NewProject(s.T(), s.database, "shop")
	s.app = dbtest.NewApp(s.T(), s.database, s.project, "web")

	handler := deployments.Init(s.database, s.resolver, s.submitter, s.publisher, connection.DefaultCredentials(), policy)
	s.utils = controllertest.NewTestUtils(validator, deployments.NewDeploymentController(handler))
}

func (s *controllerTestSuite) expectHead(sha string) {
	s.resolver.EXPECT().HeadCommit(gomock.Any(), s.app.Repo, s.app.Ref).Return(sha, nil)
}

func (s *controllerTestSuite) expectSubmit(deploymentType db.DeploymentType, sha string) {
	s.submitter.EXPECT().
		SubmitApplication(gomock.Any(), controllertest.AppWithID(s.app.ID), gomock.Any(), controllertest.RunningDeployment(deploymentType, sha)).
		Return(nil)
}

func (s *controllerTestSuite) requestDeployment(deploymentType string) (*models.Deployment, int) {
	response := <-s.utils.ExecuteRequestWithParameters(http.MethodPost, "/api/v1/apps/"+s.app.ID+"/deployments", models.CreateDeploymentRequest{Type: deploymentType})
	if response.Code != http.StatusCreated {
		return nil, response.Code
	}
	var deployment models.Deployment
	s.Require().NoError(controllertest.GetResponseBody(response, &deployment))
	return &deployment, response.Code
}

func (s *controllerTestSuite) callback(body interface{}) int {
	response := <-s.utils.ExecuteUnAuthorizedRequestWithParameters(http.MethodPost, "/api/v1/callbacks/deployments", body)
	return response.Code
}

func (s *controllerTestSuite) deployed(sha string) *models.Deployment {
	s.expectHead(sha)
	s.expectSubmit(db.DeploymentCode, sha)
	deployment, code := s.requestDeployment("code")
	s.Require().Equal(http.StatusCreated, code)
	s.Require().Equal(http.StatusOK, s.callback(models.DeploymentCallback{DeploymentID: deployment.UUID, Status: "success", Logs: "build ok\n"}))
	s.publisher.Reset()
	return deployment
}

func (s *controllerTestSuite) appStatus() db.AppStatus {
	app, err := s.database.Apps().Get(context.Background(), s.app.ID)
	s.Require().NoError(err)
	return app.Status
}

func (s *controllerTestSuite) getDeployment(id string) db.Deployment {
	deployment, err := s.database.Deployments().Get(context.Background(), id)
	s.Require().NoError(err)
	return deployment
}

func (s *controllerTestSuite) Test_CreateDeployment_FirstIsAdmitted() {
	s.expectHead("abc")
	s.expectSubmit(db.DeploymentCode, "abc")

	deployment, code := s.requestDeployment("")

	s.Require().Equal(http.StatusCreated, code)
	s.Equal("running", deployment.Status)
	s.Equal("code", deployment.Type)
	s.Equal("abc", deployment.Ref)
	s.Equal(dbtest.Owner, deployment.User)
	s.Equal(map[string]interface{}{"ENV": "x"}, deployment.Params[deployments.ParamEnvVars])
	s.Equal(db.AppBuilding, s.appStatus())
	s.Empty(s.publisher.Events())
}

func (s *controllerTestSuite) Test_CreateDeployment_UnchangedIsRejected() {
	s.deployed("abc")
	s.expectHead("abc")

	response := <-s.utils.ExecuteRequestWithParameters(http.MethodPost, "/api/v1/apps/"+s.app.ID+"/deployments", models.CreateDeploymentRequest{Type: "code"})

	s.Equal(http.StatusBadRequest, response.Code)
	errorResponse, err := controllertest.GetErrorResponse(response)
	s.Require().NoError(err)
	s.Equal(deployments.ConditionsNotMet, errorResponse.Message)

	list, err := s.database.Deployments().List(context.Background(), s.app.ID)
	s.Require().NoError(err)
	s.Len(list, 1)
	s.Equal(db.AppReady, s.appStatus())
}

func (s *controllerTestSuite) Test_CreateDeployment_AfterFailureIsAdmitted() {
	s.expectHead("abc")
	s.expectSubmit(db.DeploymentCode, "abc")
	first, _ := s.requestDeployment("code")
	s.Require().Equal(http.StatusOK, s.callback(models.DeploymentCallback{DeploymentID: first.UUID, Status: "failed", Logs: "boom\n"}))

	s.expectHead("abc")
	s.expectSubmit(db.DeploymentCode, "abc")
	second, code := s.requestDeployment("code")

	s.Require().Equal(http.StatusCreated, code)
	s.NotEqual(first.UUID, second.UUID)
}

func (s *controllerTestSuite) Test_CreateDeployment_ChangedEnvVarIsAdmitted() {
	s.deployed("abc")
	_, err := s.database.Apps().Update(context.Background(), s.app.ID, func(app *db.App) error {
		app.Config.EnvVars = []db.KeyValue{{Key: "ENV", Value: "y"}}
		return nil
	})
	s.Require().NoError(err)

	s.expectHead("abc")
	s.expectSubmit(db.DeploymentConfig, "abc")
	deployment, code := s.requestDeployment("config")

	s.Require().Equal(http.StatusCreated, code)
	s.Equal("config", deployment.Type)
	s.Equal(map[string]interface{}{"ENV": "y"}, deployment.Params[deployments.ParamEnvVars])
}

func (s *controllerTestSuite) Test_CreateDeployment_NewCommitIsAdmitted() {
	s.deployed("abc")
	s.expectHead("def")
	s.expectSubmit(db.DeploymentCode, "def")

	deployment, code := s.requestDeployment("code")

	s.Require().Equal(http.StatusCreated, code)
	s.Equal("def", deployment.Ref)
}

func (s *controllerTestSuite) Test_CreateDeployment_SubmitFailureMarksFailed() {
	s.expectHead("abc")
	s.submitter.EXPECT().SubmitApplication(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

	_, code := s.requestDeployment("code")

	s.Equal(http.StatusInternalServerError, code)
	list, err := s.database.Deployments().List(context.Background(), s.app.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(db.DeploymentFailed, list[0].Status)
	s.Contains(list[0].Log, "connection refused")
	s.Equal(db.AppCreated, s.appStatus())
}

// cancelAwareDatabase fails transitions on a done context, as postgres does.
type cancelAwareDatabase struct {
	db.Database
}

func (d cancelAwareDatabase) Deployments() db.DeploymentInterface {
	return cancelAwareDeployments{d.Database.Deployments()}
}

type cancelAwareDeployments struct {
	db.DeploymentInterface
}

func (d cancelAwareDeployments) Transition(ctx context.Context, id string, task db.TransitionFunc) (db.Deployment, db.App, error) {
	if err := ctx.Err(); err != nil {
		return db.Deployment{}, db.App{}, err
	}
	return d.DeploymentInterface.Transition(ctx, id, task)
}

func (s *controllerTestSuite) Test_CreateDeployment_SubmitFailureAfterCancelMarksFailed() {
	handler := deployments.Init(cancelAwareDatabase{s.database}, s.resolver, s.submitter, s.publisher, connection.DefaultCredentials(), deployments.ResetToCreated)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.submitter.EXPECT().
		SubmitApplication(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, db.App, db.Project, db.Deployment) error {
			cancel()
			return context.Canceled
		})

	_, err := handler.CreateDeployment(ctx, s.app.ID, dbtest.Owner, deployments.Request{Type: db.DeploymentCode, Sha: "abc"})

	s.Error(err)
	list, err := s.database.Deployments().List(context.Background(), s.app.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(db.DeploymentFailed, list[0].Status)
	s.Contains(list[0].Log, "context canceled")
	s.Equal(db.AppCreated, s.appStatus())

	s.expectHead("abc")
	s.expectSubmit(db.DeploymentCode, "abc")
	_, code := s.requestDeployment("code")
	s.Equal(http.StatusCreated, code)
}

func (s *controllerTestSuite) Test_CreateDeployment_UnknownRef() {
	s.resolver.EXPECT().HeadCommit(gomock.Any(), gomock.Any(), gomock.Any()).Return("", fmt.Errorf("github acme/web@main: %w", git.ErrRefNotFound))

	_, code := s.requestDeployment("code")

	s.Equal(http.StatusBadRequest, code)
	s.Equal(db.AppCreated, s.appStatus())
}

func (s *controllerTestSuite) Test_CreateDeployment_GitUnavailable() {
	s.resolver.EXPECT().HeadCommit(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("timeout"))

	_, code := s.requestDeployment("code")

	s.Equal(http.StatusInternalServerError, code)
}

func (s *controllerTestSuite) Test_CreateDeployment_InvalidType() {
	_, code := s.requestDeployment("rollback")
	s.Equal(http.StatusBadRequest, code)
}

func (s *controllerTestSuite) Test_CreateDeployment_ForeignApp() {
	response := <-s.utils.ExecuteRawRequest(http.MethodPost, "/api/v1/apps/"+s.app.ID+"/deployments", nil, map[string]string{"Authorization": "Bearer other"})
	s.Equal(http.StatusNotFound, response.Code)
}

func (s *controllerTestSuite) Test_CreateDeployment_RequiresToken() {
	response := <-s.utils.ExecuteUnAuthorizedRequest(http.MethodPost, "/api/v1/apps/"+s.app.ID+"/deployments")
	s.Equal(http.StatusForbidden, response.Code)
}

func (s *controllerTestSuite) Test_Callback_SuccessPublishesLogAndStatus() {
	s.expectHead("abc")
	s.expectSubmit(db.DeploymentCode, "abc")
	deployment, _ := s.requestDeployment("code")

	code := s.callback(models.DeploymentCallback{DeploymentID: deployment.UUID, Status: "success", Logs: "build ok"})

	s.Equal(http.StatusOK, code)
	stored := s.getDeployment(deployment.UUID)
	s.Equal(db.DeploymentSuccess, stored.Status)
	s.Equal("build ok", stored.Log)
	s.Equal(db.AppReady, s.appStatus())
	s.Equal([]controllertest.Published{
		{Topic: fanout.DeploymentTopic(deployment.UUID), Event: fanout.DeploymentLogsEvent("build ok", db.DeploymentSuccess)},
		{Topic: fanout.AppsTopic, Event: fanout.Event{Type: fanout.AppStatusEvent, Data: fanout.AppStatus{UUID: s.app.ID, Status: db.AppReady}}},
	}, s.publisher.Events())
}

func (s *controllerTestSuite) Test_Callback_RunningAppendsLogs() {
	s.expectHead("abc")
	s.expectSubmit(db.DeploymentCode, "abc")
	deployment, _ := s.requestDeployment("code")

	s.Equal(http.StatusOK, s.callback(models.DeploymentCallback{DeploymentID: deployment.UUID, Status: "running", Logs: "step 1\n", Pod: "web-7d9f"}))
	s.Equal(http.StatusOK, s.callback(models.DeploymentCallback{DeploymentUUID: deployment.UUID, Status: "running", Logs: "step 2\n"}))

	stored := s.getDeployment(deployment.UUID)
	s.Equal(db.DeploymentRunning, stored.Status)
	s.Equal("step 1\nstep 2\n", stored.Log)
	s.Equal("web-7d9f", stored.Pod)
	s.Equal(db.AppBuilding, s.appStatus())

	events := s.publisher.Events()
	s.Require().Len(events, 2)
	s.Equal(fanout.DeploymentLogsEvent("step 2\n", db.DeploymentRunning), events[1].Event)
}

func (s *controllerTestSuite) Test_Callback_AfterSuccessIsIgnored() {
	deployment := s.deployed("abc")

	code := s.callback(models.DeploymentCallback{DeploymentID: deployment.UUID, Status: "failed", Logs: "late\n"})

	s.Equal(http.StatusAccepted, code)
	stored := s.getDeployment(deployment.UUID)
	s.Equal(db.DeploymentSuccess, stored.Status)
	s.Equal("build ok\n", stored.Log)
	s.Equal(db.AppReady, s.appStatus())
	s.Empty(s.publisher.Events())
}

func (s *controllerTestSuite) Test_Callback_AfterFailureIsIgnored() {
	s.expectHead("abc")
	s.expectSubmit(db.DeploymentCode, "abc")
	deployment, code := s.requestDeployment("code")
	s.Require().Equal(http.StatusCreated, code)
	s.Require().Equal(http.StatusOK, s.callback(models.DeploymentCallback{DeploymentID: deployment.UUID, Status: "failed", Logs: "boom\n"}))
	s.publisher.Reset()

	code = s.callback(models.DeploymentCallback{DeploymentID: deployment.UUID, Status: "success", Logs: "late\n"})

	s.Equal(http.StatusAccepted, code)
	stored := s.getDeployment(deployment.UUID)
	s.Equal(db.DeploymentFailed, stored.Status)
	s.Equal("boom\n", stored.Log)
	s.Equal(db.AppCreated, s.appStatus())
	s.Empty(s.publisher.Events())
}

func (s *controllerTestSuite) Test_Callback_FailedResetsToCreated() {
	s.deployed("abc")
	s.expectHead("def")
	s.expectSubmit(db.DeploymentCode, "def")
	deployment, _ := s.requestDeployment("code")

	s.Equal(http.StatusOK, s.callback(models.DeploymentCallback{DeploymentID: deployment.UUID, Status: "failed"}))
	s.Equal(db.AppCreated, s.appStatus(), "app was ready before the failed deployment")
}

func (s *controllerTestSuite) Test_Callback_FailedRestoresPrevious() {
	s.setup(deployments.RestorePrevious)
	s.deployed("abc")
	s.expectHead("def")
	s.expectSubmit(db.DeploymentCode, "def")
	deployment, _ := s.requestDeployment("code")

	s.Equal(http.StatusOK, s.callback(models.DeploymentCallback{DeploymentID: deployment.UUID, Status: "failed"}))
	s.Equal(db.AppReady, s.appStatus())
}

func (s *controllerTestSuite) Test_Callback_UnknownDeployment() {
	s.Equal(http.StatusNotFound, s.callback(models.DeploymentCallback{DeploymentID: "00000000-0000-0000-0000-000000000000", Status: "success"}))
}

func (s *controllerTestSuite) Test_Callback_InvalidStatus() {
	deployment := dbtest.NewDeployment(s.T(), s.database, s.app, "abc")

	s.Equal(http.StatusBadRequest, s.callback(models.DeploymentCallback{DeploymentID: deployment.ID, Status: "done"}))
	s.Equal(db.DeploymentRunning, s.getDeployment(deployment.ID).Status)
}

func (s *controllerTestSuite) Test_Callback_MissingID() {
	s.Equal(http.StatusBadRequest, s.callback(models.DeploymentCallback{Status: "success"}))
}

func (s *controllerTestSuite) Test_GetDeployments_NewestFirst() {
	first := s.deployed("abc")
	s.expectHead("def")
	s.expectSubmit(db.DeploymentCode, "def")
	second, _ := s.requestDeployment("code")

	response := <-s.utils.ExecuteRequest(http.MethodGet, "/api/v1/apps/"+s.app.ID+"/deployments")

	s.Require().Equal(http.StatusOK, response.Code)
	var list []models.Deployment
	s.Require().NoError(controllertest.GetResponseBody(response, &list))
	s.Require().Len(list, 2)
	s.Equal(second.UUID, list[0].UUID)
	s.Equal(first.UUID, list[1].UUID)
	s.Equal("build ok\n", list[1].Log)
}

func (s *controllerTestSuite) Test_GetDeployment() {
	deployment := s.deployed("abc")

	response := <-s.utils.ExecuteRequest(http.MethodGet, "/api/v1/deployments/"+deployment.UUID)
	s.Require().Equal(http.StatusOK, response.Code)
	var got models.Deployment
	s.Require().NoError(controllertest.GetResponseBody(response, &got))
	s.Equal("success", got.Status)
	s.Equal(s.app.ID, got.AppUUID)

	response = <-s.utils.ExecuteRawRequest(http.MethodGet, "/api/v1/deployments/"+deployment.UUID, nil, map[string]string{"Authorization": "Bearer other"})
	s.Equal(http.StatusNotFound, response.Code)
}

func (s *controllerTestSuite) Test_GetPod() {
	deployment := dbtest.NewDeployment(s.T(), s.database, s.app, "abc")

	response := <-s.utils.ExecuteRequest(http.MethodGet, "/api/v1/deployments/"+deployment.ID+"/pod")
	s.Equal(http.StatusNotFound, response.Code)

	s.Require().Equal(http.StatusOK, s.callback(models.DeploymentCallback{DeploymentID: deployment.ID, Status: "running", Pod: "web-7d9f"}))

	response = <-s.utils.ExecuteRequest(http.MethodGet, "/api/v1/deployments/"+deployment.ID+"/pod")
	s.Require().Equal(http.StatusOK, response.Code)
	var pod models.Pod
	s.Require().NoError(controllertest.GetResponseBody(response, &pod))
	s.Equal(models.Pod{Pod: "web-7d9f", Namespace: "shop"}, pod)
}
