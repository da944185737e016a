package services

import (
	"context"
	"errors"
	"strings"

	radixhttp "github.com/equinor/radix-common/net/http"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shapeblock/shapeblock-api/api/deployments"
	"github.com/shapeblock/shapeblock-api/api/metrics"
	"github.com/shapeblock/shapeblock-api/api/orchestrator"
	"github.com/shapeblock/shapeblock-api/api/services/connection"
	"github.com/shapeblock/shapeblock-api/api/services/models"
	"github.com/shapeblock/shapeblock-api/internal/db"
	"k8s.io/apimachinery/pkg/util/validation"
)

// Handler Instance variables
type Handler struct {
	database    db.Database
	provisioner orchestrator.Provisioner
	deployer    deployments.Deployer
}

// Init Constructor
func Init(database db.Database, provisioner orchestrator.Provisioner, deployer deployments.Deployer) *Handler {
	return &Handler{database: database, provisioner: provisioner, deployer: deployer}
}

// CreateService stores a service of user and submits its helm release
func (h *Handler) CreateService(ctx context.Context, user string, request models.CreateServiceRequest) (models.Service, error) {
	name := strings.TrimSpace(request.Name)
	if problems := validation.IsDNS1123Label(name); len(problems) > 0 {
		return models.Service{}, invalidRequest("Invalid service name %q: %s", name, strings.Join(problems, ", "))
	}
	serviceType, err := connection.Parse(request.Type)
	if err != nil {
		return models.Service{}, invalidRequest("%v", err)
	}
	project, err := h.database.Projects().Get(ctx, request.ProjectUUID)
	if err == nil && project.Owner != user {
		err = db.Missing{Table: "projects", Identity: request.ProjectUUID}
	}
	if err != nil {
		return models.Service{}, storeError(err, "Project", request.ProjectUUID)
	}

	service, err := h.database.Services().Create(ctx, db.Service{
		ID:        uuid.NewString(),
		ProjectID: project.ID,
		Owner:     user,
		Name:      name,
		Type:      serviceType,
		Status:    db.ServiceStarting,
	})
	if err != nil {
		return models.Service{}, storeError(err, "Service", name)
	}

	logger := log.Ctx(ctx).With().Str("service_id", service.ID).Str("type", string(service.Type)).Logger()
	if err := h.provisioner.SubmitService(ctx, service, project); err != nil {
		if delErr := h.database.Services().Delete(ctx, service.ID); delErr != nil {
			logger.Error().Err(delErr).Msg("failed to remove service after failed submission")
		}
		return models.Service{}, radixhttp.UnexpectedError("Failed to provision service", err)
	}
	logger.Info().Msg("service created")
	return models.BuildService(service, nil), nil
}

// GetServices lists the services of user
func (h *Handler) GetServices(ctx context.Context, user string) ([]models.Service, error) {
	list, err := h.database.Services().List(ctx, user)
	if err != nil {
		return nil, radixhttp.UnexpectedError("Failed to list services", err)
	}
	result := make([]models.Service, 0, len(list))
	for _, service := range list {
		model, err := h.buildService(ctx, service)
		if err != nil {
			return nil, err
		}
		result = append(result, model)
	}
	return result, nil
}

// GetService returns a service of user, refreshing its status while it starts
func (h *Handler) GetService(ctx context.Context, user, id string) (models.Service, error) {
	service, _, err := h.getService(ctx, user, id)
	if err != nil {
		return models.Service{}, err
	}
	return h.buildService(ctx, service)
}

// DeleteService removes the helm release and the record of a detached service
func (h *Handler) DeleteService(ctx context.Context, user, id string) error {
	service, project, err := h.getService(ctx, user, id)
	if err != nil {
		return err
	}
	attachments, err := h.database.Services().Attachments(ctx, id)
	if err != nil {
		return radixhttp.UnexpectedError("Failed to list attachments", err)
	}
	if len(attachments) > 0 {
		return storeError(db.Conflict{Table: "services", Reason: "service is attached to an app"}, "Service", id)
	}
	if err := h.provisioner.DeleteService(ctx, service, project); err != nil {
		return radixhttp.UnexpectedError("Failed to delete service", err)
	}
	if err := h.database.Services().Delete(ctx, id); err != nil {
		return storeError(err, "Service", id)
	}
	log.Ctx(ctx).Info().Str("service_id", id).Msg("service deleted")
	return nil
}

// AttachApp hands the connection of a service to an app of the same project
// and redeploys the app
func (h *Handler) AttachApp(ctx context.Context, user, id string, request models.AttachRequest) error {
	service, _, err := h.getService(ctx, user, id)
	if err != nil {
		return err
	}
	exposedAs, err := connection.ParseExposedAs(request.ExposedAs)
	if err != nil {
		return invalidRequest("%v", err)
	}
	app, err := h.getApp(ctx, user, request.AppUUID)
	if err != nil {
		return err
	}
	if app.ProjectID != service.ProjectID {
		return invalidRequest("App %s is not in the project of service %s", app.Name, service.Name)
	}

	err = h.database.Services().Attach(ctx, db.Attachment{ServiceID: service.ID, AppID: app.ID, ExposedAs: exposedAs})
	if err != nil {
		return storeError(err, "Service", id)
	}
	log.Ctx(ctx).Info().Str("service_id", id).Str("app_id", app.ID).Str("exposed_as", string(exposedAs)).Msg("service attached")
	return deployments.Redeploy(ctx, h.deployer, app, user)
}

// DetachApp removes the connection of a service from an app and redeploys the app
func (h *Handler) DetachApp(ctx context.Context, user, id string, request models.AttachRequest) error {
	service, _, err := h.getService(ctx, user, id)
	if err != nil {
		return err
	}
	app, err := h.getApp(ctx, user, request.AppUUID)
	if err != nil {
		return err
	}
	if err := h.database.Services().Detach(ctx, service.ID, app.ID); err != nil {
		return storeError(err, "Attachment", app.ID)
	}
	log.Ctx(ctx).Info().Str("service_id", id).Str("app_id", app.ID).Msg("service detached")
	return deployments.Redeploy(ctx, h.deployer, app, user)
}

// ApplyCallback marks a service ready once the orchestrator reports success.
// Callbacks for ready services are Ignored.
func (h *Handler) ApplyCallback(ctx context.Context, id, status string) (deployments.CallbackResult, error) {
	if id == "" {
		return deployments.Ignored, invalidRequest("Missing service id")
	}
	_, err := h.database.Services().Update(ctx, id, func(service *db.Service) error {
		if service.Status == db.ServiceReady {
			return errAlreadyReady
		}
		if status == string(db.DeploymentSuccess) {
			service.Status = db.ServiceReady
		}
		return nil
	})
	switch {
	case errors.Is(err, errAlreadyReady):
		metrics.AddServiceCallback(status, deployments.Ignored.String())
		return deployments.Ignored, nil
	case err != nil:
		return deployments.Ignored, storeError(err, "Service", id)
	}
	metrics.AddServiceCallback(status, deployments.Applied.String())
	log.Ctx(ctx).Info().Str("service_id", id).Str("status", status).Msg("service callback applied")
	return deployments.Applied, nil
}

func (h *Handler) buildService(ctx context.Context, service db.Service) (models.Service, error) {
	service = h.refresh(ctx, service)
	attachments, err := h.database.Services().Attachments(ctx, service.ID)
	if err != nil {
		return models.Service{}, radixhttp.UnexpectedError("Failed to list attachments", err)
	}
	return models.BuildService(service, attachments), nil
}

// refresh marks a starting service ready when its stateful set is. Lookup
// failures leave the service as it is.
func (h *Handler) refresh(ctx context.Context, service db.Service) db.Service {
	if service.Status != db.ServiceStarting {
		return service
	}
	logger := log.Ctx(ctx).With().Str("service_id", service.ID).Logger()
	template, err := connection.Lookup(service.Type)
	if err != nil {
		return service
	}
	project, err := h.database.Projects().Get(ctx, service.ProjectID)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to get project of service")
		return service
	}
	ready, err := h.provisioner.StatefulSetReady(ctx, project.Name, template.StatefulSet(service.Name))
	if err != nil {
		logger.Warn().Err(err).Msg("failed to get stateful set of service")
		return service
	}
	if !ready {
		return service
	}
	updated, err := h.database.Services().Update(ctx, service.ID, func(s *db.Service) error {
		if s.Status == db.ServiceStarting {
			s.Status = db.ServiceReady
		}
		return nil
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to mark service ready")
		return service
	}
	return updated
}

// getService returns the service with its project when it is owned by user
func (h *Handler) getService(ctx context.Context, user, id string) (db.Service, db.Project, error) {
	service, err := h.database.Services().Get(ctx, id)
	if err == nil && service.Owner != user {
		err = db.Missing{Table: "services", Identity: id}
	}
	if err != nil {
		return db.Service{}, db.Project{}, storeError(err, "Service", id)
	}
	project, err := h.database.Projects().Get(ctx, service.ProjectID)
	if err != nil {
		return db.Service{}, db.Project{}, radixhttp.UnexpectedError("Failed to get project", err)
	}
	return service, project, nil
}

func (h *Handler) getApp(ctx context.Context, user, id string) (db.App, error) {
	if id == "" {
		return db.App{}, invalidRequest("App UUID is required")
	}
	app, err := h.database.Apps().Get(ctx, id)
	if err == nil && app.Owner != user {
		err = db.Missing{Table: "apps", Identity: id}
	}
	if err != nil {
		return db.App{}, storeError(err, "App", id)
	}
	return app, nil
}
