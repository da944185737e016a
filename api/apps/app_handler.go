package apps

import (
	"context"
	"errors"
	"strings"

	radixhttp "github.com/equinor/radix-common/net/http"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
	"github.com/shapeblock/shapeblock-api/api/apps/models"
	"github.com/shapeblock/shapeblock-api/api/deployments"
	"github.com/shapeblock/shapeblock-api/api/git"
	"github.com/shapeblock/shapeblock-api/api/orchestrator"
	"github.com/shapeblock/shapeblock-api/api/stacks"
	"github.com/shapeblock/shapeblock-api/internal/db"
)

const defaultRef = "main"

// Handler Instance variables
type Handler struct {
	database      db.Database
	submitter     orchestrator.Submitter
	logs          orchestrator.LogFollower
	deployer      deployments.Deployer
	stacks        *stacks.Table
	clusterDomain string
}

// Init Constructor
func Init(database db.Database, submitter orchestrator.Submitter, logs orchestrator.LogFollower, deployer deployments.Deployer, table *stacks.Table, clusterDomain string) *Handler {
	return &Handler{
		database:      database,
		submitter:     submitter,
		logs:          logs,
		deployer:      deployer,
		stacks:        table,
		clusterDomain: clusterDomain,
	}
}

// CreateApp stores a new app of user. Nothing is deployed until a deployment
// is requested.
func (h *Handler) CreateApp(ctx context.Context, user string, request models.CreateAppRequest) (models.App, error) {
	name := strings.TrimSpace(request.Name)
	if err := validateName(name); err != nil {
		return models.App{}, invalidRequest(err)
	}
	if _, _, err := git.ParseRepo(request.Repo); err != nil {
		return models.App{}, invalidRequest(err)
	}
	if !h.stacks.Known(request.Stack) {
		return models.App{}, invalidRequestf("Unknown stack %s, supported stacks are %v", request.Stack, h.stacks.Stacks())
	}
	if request.StackVersion != "" {
		if _, err := h.stacks.Resolve(request.Stack, request.StackVersion); err != nil {
			return models.App{}, invalidRequest(err)
		}
	}
	replicas := 1
	if request.Replicas != nil {
		replicas = *request.Replicas
	}
	if err := validateReplicas(replicas); err != nil {
		return models.App{}, invalidRequest(err)
	}
	ref := strings.TrimSpace(request.Ref)
	if ref == "" {
		ref = defaultRef
	}
	liveness := true
	if request.HasLivenessProbe != nil {
		liveness = *request.HasLivenessProbe
	}

	project, err := h.database.Projects().Get(ctx, request.ProjectUUID)
	if err == nil && project.Owner != user {
		err = db.Missing{Table: "projects", Identity: request.ProjectUUID}
	}
	if err != nil {
		return models.App{}, storeError(err, "Project", request.ProjectUUID)
	}

	app, err := h.database.Apps().Create(ctx, db.App{
		ID:               uuid.NewString(),
		ProjectID:        project.ID,
		Owner:            user,
		Name:             name,
		Repo:             request.Repo,
		Ref:              ref,
		SubPath:          request.SubPath,
		Stack:            request.Stack,
		StackVersion:     request.StackVersion,
		Status:           db.AppCreated,
		Replicas:         replicas,
		HasLivenessProbe: liveness,
		Autodeploy:       request.Autodeploy,
		WebhookID:        ulid.Make().String(),
	})
	if err != nil {
		return models.App{}, storeError(err, "App", name)
	}
	log.Ctx(ctx).Info().Str("app_id", app.ID).Str("project", project.Name).Msg("app created")
	return models.BuildApp(app, project, h.clusterDomain), nil
}

// GetApps lists the apps of user
func (h *Handler) GetApps(ctx context.Context, user string) ([]models.App, error) {
	list, err := h.database.Apps().List(ctx, user)
	if err != nil {
		return nil, radixhttp.UnexpectedError("Failed to list apps", err)
	}
	projects := map[string]db.Project{}
	result := make([]models.App, 0, len(list))
	for _, app := range list {
		project, ok := projects[app.ProjectID]
		if !ok {
			if project, err = h.database.Projects().Get(ctx, app.ProjectID); err != nil {
				return nil, radixhttp.UnexpectedError("Failed to get project", err)
			}
			projects[app.ProjectID] = project
		}
		result = append(result, models.BuildApp(app, project, h.clusterDomain))
	}
	return result, nil
}

// GetApp returns an app of user
func (h *Handler) GetApp(ctx context.Context, user, id string) (models.App, error) {
	app, project, err := h.getApp(ctx, user, id)
	if err != nil {
		return models.App{}, err
	}
	return models.BuildApp(app, project, h.clusterDomain), nil
}

// UpdateApp patches the app and redeploys it when it was deployed before
func (h *Handler) UpdateApp(ctx context.Context, user, id string, request models.UpdateAppRequest) (models.App, error) {
	return h.update(ctx, user, id, func(app *db.App) error {
		if request.Ref != nil {
			ref := strings.TrimSpace(*request.Ref)
			if ref == "" {
				return invalidRequestf("Ref must not be empty")
			}
			app.Ref = ref
		}
		if request.StackVersion != nil {
			if *request.StackVersion != "" {
				if _, err := h.stacks.Resolve(app.Stack, *request.StackVersion); err != nil {
					return invalidRequest(err)
				}
			}
			app.StackVersion = *request.StackVersion
		}
		if request.Replicas != nil {
			if err := validateReplicas(*request.Replicas); err != nil {
				return invalidRequest(err)
			}
			app.Replicas = *request.Replicas
		}
		if request.HasLivenessProbe != nil {
			app.HasLivenessProbe = *request.HasLivenessProbe
		}
		if request.Autodeploy != nil {
			app.Autodeploy = *request.Autodeploy
		}
		return nil
	})
}

// SetEnvVars replaces the environment variables of the app
func (h *Handler) SetEnvVars(ctx context.Context, user, id string, list []models.KeyValue) (models.App, error) {
	vars, err := keyValues(list)
	if err != nil {
		return models.App{}, invalidRequest(err)
	}
	return h.update(ctx, user, id, func(app *db.App) error {
		app.Config.EnvVars = vars
		return nil
	})
}

// SetBuildVars replaces the build variables of the app
func (h *Handler) SetBuildVars(ctx context.Context, user, id string, list []models.KeyValue) (models.App, error) {
	vars, err := keyValues(list)
	if err != nil {
		return models.App{}, invalidRequest(err)
	}
	return h.update(ctx, user, id, func(app *db.App) error {
		app.Config.BuildVars = vars
		return nil
	})
}

// SetSecrets replaces the secrets of the app
func (h *Handler) SetSecrets(ctx context.Context, user, id string, list []models.KeyValue) (models.App, error) {
	secrets, err := keyValues(list)
	if err != nil {
		return models.App{}, invalidRequest(err)
	}
	return h.update(ctx, user, id, func(app *db.App) error {
		app.Config.Secrets = secrets
		return nil
	})
}

// SetVolumes replaces the volumes of the app
func (h *Handler) SetVolumes(ctx context.Context, user, id string, list []models.Volume) (models.App, error) {
	result, err := volumes(list)
	if err != nil {
		return models.App{}, invalidRequest(err)
	}
	return h.update(ctx, user, id, func(app *db.App) error {
		app.Config.Volumes = result
		return nil
	})
}

// SetInitProcesses replaces the init processes of the app
func (h *Handler) SetInitProcesses(ctx context.Context, user, id string, list []models.Process) (models.App, error) {
	result, err := processes(list, initProcessDefaults)
	if err != nil {
		return models.App{}, invalidRequest(err)
	}
	return h.update(ctx, user, id, func(app *db.App) error {
		app.Config.InitProcesses = result
		return nil
	})
}

// SetWorkers replaces the workers of the app
func (h *Handler) SetWorkers(ctx context.Context, user, id string, list []models.Process) (models.App, error) {
	result, err := processes(list, workerDefaults)
	if err != nil {
		return models.App{}, invalidRequest(err)
	}
	return h.update(ctx, user, id, func(app *db.App) error {
		app.Config.Workers = result
		return nil
	})
}

// SetCustomDomains replaces the custom domains of the app
func (h *Handler) SetCustomDomains(ctx context.Context, user, id string, list []string) (models.App, error) {
	result, err := customDomains(list)
	if err != nil {
		return models.App{}, invalidRequest(err)
	}
	return h.update(ctx, user, id, func(app *db.App) error {
		app.Config.CustomDomains = result
		return nil
	})
}

// DeleteApp removes the desired state of the app from the cluster and the
// app with its deployments from the store
func (h *Handler) DeleteApp(ctx context.Context, user, id string) error {
	app, project, err := h.getApp(ctx, user, id)
	if err != nil {
		return err
	}
	if err := h.submitter.DeleteApplication(ctx, app, project); err != nil {
		return radixhttp.UnexpectedError("Failed to delete app", err)
	}
	if err := h.database.Apps().Delete(ctx, app.ID); err != nil {
		return storeError(err, "App", id)
	}
	log.Ctx(ctx).Info().Str("app_id", app.ID).Msg("app deleted")
	return nil
}

// update changes the app with task and redeploys it. Invalid changes are
// not stored.
func (h *Handler) update(ctx context.Context, user, id string, task func(*db.App) error) (models.App, error) {
	_, project, err := h.getApp(ctx, user, id)
	if err != nil {
		return models.App{}, err
	}
	app, err := h.database.Apps().Update(ctx, id, task)
	if err != nil {
		var apiError *radixhttp.Error
		if errors.As(err, &apiError) {
			return models.App{}, err
		}
		return models.App{}, storeError(err, "App", id)
	}
	if err := deployments.Redeploy(ctx, h.deployer, app, user); err != nil {
		var apiError *radixhttp.Error
		if errors.As(err, &apiError) {
			return models.App{}, err
		}
		return models.App{}, radixhttp.UnexpectedError("Failed to redeploy app", err)
	}
	return models.BuildApp(app, project, h.clusterDomain), nil
}

// getApp returns the app with its project when it is owned by user
func (h *Handler) getApp(ctx context.Context, user, id string) (db.App, db.Project, error) {
	app, err := h.database.Apps().Get(ctx, id)
	if err == nil && app.Owner != user {
		err = db.Missing{Table: "apps", Identity: id}
	}
	if err != nil {
		return db.App{}, db.Project{}, storeError(err, "App", id)
	}
	project, err := h.database.Projects().Get(ctx, app.ProjectID)
	if err != nil {
		return db.App{}, db.Project{}, radixhttp.UnexpectedError("Failed to get project", err)
	}
	return app, project, nil
}
