package deployments

import (
	"context"
	"errors"
	"fmt"
	"time"

	radixhttp "github.com/equinor/radix-common/net/http"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shapeblock/shapeblock-api/api/deployments/models"
	"github.com/shapeblock/shapeblock-api/api/fanout"
	"github.com/shapeblock/shapeblock-api/api/git"
	"github.com/shapeblock/shapeblock-api/api/metrics"
	"github.com/shapeblock/shapeblock-api/api/orchestrator"
	"github.com/shapeblock/shapeblock-api/api/services/connection"
	"github.com/shapeblock/shapeblock-api/internal/db"
)

// FailurePolicy selects the app status set when a deployment fails.
type FailurePolicy string

const (
	// ResetToCreated always sets the app back to created, even when it was
	// ready before the failed deployment.
	ResetToCreated FailurePolicy = "created"
	// RestorePrevious sets the app back to the status it had when the
	// deployment was admitted.
	RestorePrevious FailurePolicy = "previous"
)

// ParseFailurePolicy returns the policy named s, ResetToCreated when s is empty.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case "", ResetToCreated:
		return ResetToCreated, nil
	case RestorePrevious:
		return RestorePrevious, nil
	}
	return "", fmt.Errorf("unknown failure app status %q, expected created or previous", s)
}

func (p FailurePolicy) appStatus(deployment db.Deployment) db.AppStatus {
	if p == RestorePrevious && deployment.PreviousAppStatus != "" && deployment.PreviousAppStatus != db.AppBuilding {
		return deployment.PreviousAppStatus
	}
	return db.AppCreated
}

// markFailedTimeout bounds marking a deployment failed after its submission
// failed.
const markFailedTimeout = 10 * time.Second

// Request asks for a deployment of an app.
type Request struct {
	Type db.DeploymentType
	// Sha skips the commit lookup, as when a push event carries the commit.
	Sha string
}

// Callback is a status report of the orchestrator about a deployment.
type Callback struct {
	DeploymentID string
	Status       db.DeploymentStatus
	Logs         string
	Pod          string
}

type CallbackResult int

const (
	// Applied callbacks changed the deployment.
	Applied CallbackResult = iota
	// Ignored callbacks arrived after the deployment ended and changed nothing.
	Ignored
)

func (r CallbackResult) String() string {
	if r == Ignored {
		return "ignored"
	}
	return "applied"
}

// Deployer creates deployments through admission.
type Deployer interface {
	CreateDeployment(ctx context.Context, appID, user string, request Request) (db.Deployment, error)
}

// Handler admits deployments and applies their status callbacks.
type Handler struct {
	database    db.Database
	resolver    git.CommitResolver
	submitter   orchestrator.Submitter
	publisher   fanout.Publisher
	credentials connection.Credentials
	policy      FailurePolicy
}

var _ Deployer = &Handler{}

// Init Constructor
func Init(database db.Database, resolver git.CommitResolver, submitter orchestrator.Submitter, publisher fanout.Publisher, credentials connection.Credentials, policy FailurePolicy) *Handler {
	return &Handler{
		database:    database,
		resolver:    resolver,
		submitter:   submitter,
		publisher:   publisher,
		credentials: credentials,
		policy:      policy,
	}
}

// CreateDeployment admits a deployment of the app owned by user and submits
// it to the orchestrator. A rejection is a user error carrying ErrRejected.
func (h *Handler) CreateDeployment(ctx context.Context, appID, user string, request Request) (db.Deployment, error) {
	if request.Type == "" {
		request.Type = db.DeploymentCode
	}
	if request.Type != db.DeploymentCode && request.Type != db.DeploymentConfig {
		return db.Deployment{}, invalidDeploymentType(request.Type)
	}

	app, project, err := h.getApp(ctx, appID, user)
	if err != nil {
		return db.Deployment{}, err
	}
	logger := log.Ctx(ctx).With().Str("app_id", app.ID).Str("type", string(request.Type)).Logger()

	sha := request.Sha
	if sha == "" {
		sha, err = h.resolver.HeadCommit(ctx, app.Repo, app.Ref)
		if errors.Is(err, git.ErrRefNotFound) {
			return db.Deployment{}, unknownRef(err, app.Ref)
		}
		if err != nil {
			return db.Deployment{}, radixhttp.UnexpectedError("Failed to resolve the head commit", err)
		}
	}

	deployment, app, err := h.database.Deployments().Admit(ctx, app.ID, func(app *db.App, last *db.Deployment) (db.Deployment, error) {
		params, err := BuildParams(*app, h.credentials)
		if err != nil {
			return db.Deployment{}, err
		}
		decision := Decide(last, sha, params)
		if !decision.Admit {
			return db.Deployment{}, AdmissionRejected()
		}

		previous := app.Status
		app.Status = db.AppBuilding
		return db.Deployment{
			ID:                uuid.NewString(),
			Owner:             user,
			Status:            db.DeploymentRunning,
			Type:              request.Type,
			Ref:               decision.Sha,
			Params:            decision.Params,
			PreviousAppStatus: previous,
		}, nil
	})
	switch {
	case IsRejected(err):
		logger.Info().Str("sha", sha).Msg("deployment rejected, nothing changed")
		metrics.AddDeploymentRejected(string(request.Type))
		return db.Deployment{}, err
	case err != nil:
		return db.Deployment{}, notFoundOr(err, func() error { return nonExistingApp(err, appID) }, "Failed to admit deployment")
	}
	metrics.AddDeploymentAdmitted(string(request.Type))
	logger = logger.With().Str("deployment_id", deployment.ID).Logger()
	logger.Info().Str("sha", sha).Msg("deployment admitted")

	if err := h.submitter.SubmitApplication(ctx, app, project, deployment); err != nil {
		logger.Error().Err(err).Msg("failed to submit deployment")
		failure := Callback{DeploymentID: deployment.ID, Status: db.DeploymentFailed, Logs: fmt.Sprintf("Failed to submit deployment: %v\n", err)}
		// the request may be gone already, the deployment must still end
		failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markFailedTimeout)
		defer cancel()
		if _, cbErr := h.ApplyCallback(failCtx, failure); cbErr != nil {
			logger.Error().Err(cbErr).Msg("failed to mark deployment failed")
		}
		return db.Deployment{}, radixhttp.UnexpectedError("Failed to submit deployment", err)
	}
	return deployment, nil
}

// ApplyCallback moves a running deployment to the reported status and
// publishes the change. Callbacks for deployments that already ended are
// Ignored.
func (h *Handler) ApplyCallback(ctx context.Context, callback Callback) (CallbackResult, error) {
	if callback.DeploymentID == "" {
		return Ignored, invalidCallback("Missing deployment id")
	}
	if !callback.Status.Valid() {
		metrics.AddCallback(string(callback.Status), "invalid")
		return Ignored, invalidCallback(fmt.Sprintf("Invalid status %q, expected running, success or failed", callback.Status))
	}
	logger := log.Ctx(ctx).With().Str("deployment_id", callback.DeploymentID).Str("status", string(callback.Status)).Logger()

	deployment, app, err := h.database.Deployments().Transition(ctx, callback.DeploymentID, func(deployment *db.Deployment, app *db.App) error {
		if deployment.Status != db.DeploymentRunning {
			return errIgnored
		}
		if callback.Pod != "" {
			deployment.Pod = callback.Pod
		}
		deployment.Log += callback.Logs
		deployment.Status = callback.Status

		switch callback.Status {
		case db.DeploymentSuccess:
			app.Status = db.AppReady
		case db.DeploymentFailed:
			app.Status = h.policy.appStatus(*deployment)
		}
		return nil
	})
	switch {
	case errors.Is(err, errIgnored):
		logger.Debug().Msg("callback ignored, deployment is not running")
		metrics.AddCallback(string(callback.Status), Ignored.String())
		return Ignored, nil
	case err != nil:
		return Ignored, notFoundOr(err, func() error { return nonExistingDeployment(err, callback.DeploymentID) }, "Failed to apply callback")
	}
	metrics.AddCallback(string(callback.Status), Applied.String())

	h.publisher.Publish(fanout.DeploymentTopic(deployment.ID), fanout.DeploymentLogsEvent(callback.Logs, deployment.Status))
	if deployment.Status.Terminal() {
		logger.Info().Str("app_id", app.ID).Str("app_status", string(app.Status)).Msg("deployment ended")
		h.publisher.Publish(fanout.AppsTopic, fanout.AppStatusChangedEvent(app))
	}
	return Applied, nil
}

// GetDeployments lists the deployments of an app owned by user, newest first
func (h *Handler) GetDeployments(ctx context.Context, appID, user string) ([]models.Deployment, error) {
	if _, _, err := h.getApp(ctx, appID, user); err != nil {
		return nil, err
	}
	list, err := h.database.Deployments().List(ctx, appID)
	if err != nil {
		return nil, radixhttp.UnexpectedError("Failed to list deployments", err)
	}
	return models.BuildDeployments(list), nil
}

// GetDeployment returns a deployment of an app owned by user
func (h *Handler) GetDeployment(ctx context.Context, deploymentID, user string) (models.Deployment, error) {
	deployment, _, err := h.getDeployment(ctx, deploymentID, user)
	if err != nil {
		return models.Deployment{}, err
	}
	return models.BuildDeployment(deployment), nil
}

// GetPod returns the pod the orchestrator reported for a deployment
func (h *Handler) GetPod(ctx context.Context, deploymentID, user string) (models.Pod, error) {
	deployment, project, err := h.getDeployment(ctx, deploymentID, user)
	if err != nil {
		return models.Pod{}, err
	}
	if deployment.Pod == "" {
		return models.Pod{}, nonExistingPod(deploymentID)
	}
	return models.Pod{Pod: deployment.Pod, Namespace: project.Name}, nil
}

// getApp returns the app with its project. Apps of other users are missing.
func (h *Handler) getApp(ctx context.Context, appID, user string) (db.App, db.Project, error) {
	app, err := h.database.Apps().Get(ctx, appID)
	if err == nil && app.Owner != user {
		err = db.Missing{Table: "apps", Identity: appID}
	}
	if err != nil {
		return db.App{}, db.Project{}, notFoundOr(err, func() error { return nonExistingApp(err, appID) }, "Failed to get app")
	}
	project, err := h.database.Projects().Get(ctx, app.ProjectID)
	if err != nil {
		return db.App{}, db.Project{}, radixhttp.UnexpectedError("Failed to get project", err)
	}
	return app, project, nil
}

func (h *Handler) getDeployment(ctx context.Context, deploymentID, user string) (db.Deployment, db.Project, error) {
	deployment, err := h.database.Deployments().Get(ctx, deploymentID)
	if err != nil {
		return db.Deployment{}, db.Project{}, notFoundOr(err, func() error { return nonExistingDeployment(err, deploymentID) }, "Failed to get deployment")
	}
	app, err := h.database.Apps().Get(ctx, deployment.AppID)
	if err == nil && app.Owner != user {
		err = db.Missing{Table: "apps", Identity: app.ID}
	}
	if err != nil {
		return db.Deployment{}, db.Project{}, notFoundOr(err, func() error { return nonExistingDeployment(err, deploymentID) }, "Failed to get app")
	}
	project, err := h.database.Projects().Get(ctx, app.ProjectID)
	if err != nil {
		return db.Deployment{}, db.Project{}, radixhttp.UnexpectedError("Failed to get project", err)
	}
	return deployment, project, nil
}
