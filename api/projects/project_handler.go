package projects

import (
	"context"
	"strings"

	radixhttp "github.com/equinor/radix-common/net/http"
	"github.com/equinor/radix-common/utils/slice"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shapeblock/shapeblock-api/api/orchestrator"
	"github.com/shapeblock/shapeblock-api/api/projects/models"
	"github.com/shapeblock/shapeblock-api/internal/db"
	"k8s.io/apimachinery/pkg/util/validation"
)

// Handler Instance variables
type Handler struct {
	database    db.Database
	provisioner orchestrator.Provisioner
}

// Init Constructor
func Init(database db.Database, provisioner orchestrator.Provisioner) *Handler {
	return &Handler{database: database, provisioner: provisioner}
}

// CreateProject stores a project of user and submits its namespace
func (h *Handler) CreateProject(ctx context.Context, user string, request models.CreateProjectRequest) (models.Project, error) {
	name := strings.TrimSpace(request.Name)
	if problems := validation.IsDNS1123Label(name); len(problems) > 0 {
		return models.Project{}, invalidName(name, problems)
	}

	project, err := h.database.Projects().Create(ctx, db.Project{
		ID:          uuid.NewString(),
		Name:        name,
		DisplayName: request.DisplayName,
		Description: request.Description,
		Owner:       user,
	})
	if err != nil {
		return models.Project{}, storeError(err, name)
	}

	if err := h.provisioner.SubmitProject(ctx, project); err != nil {
		if delErr := h.database.Projects().Delete(ctx, project.ID); delErr != nil {
			log.Ctx(ctx).Error().Err(delErr).Str("project_id", project.ID).Msg("failed to remove project after failed submission")
		}
		return models.Project{}, radixhttp.UnexpectedError("Failed to create project namespace", err)
	}
	log.Ctx(ctx).Info().Str("project_id", project.ID).Str("name", project.Name).Msg("project created")
	return models.BuildProject(project), nil
}

// GetProjects lists the projects of user
func (h *Handler) GetProjects(ctx context.Context, user string) ([]models.Project, error) {
	list, err := h.database.Projects().List(ctx, user)
	if err != nil {
		return nil, radixhttp.UnexpectedError("Failed to list projects", err)
	}
	return slice.Map(list, models.BuildProject), nil
}

func (h *Handler) GetProject(ctx context.Context, user, id string) (models.Project, error) {
	project, err := h.getProject(ctx, user, id)
	if err != nil {
		return models.Project{}, err
	}
	return models.BuildProject(project), nil
}

// UpdateProject changes the descriptive fields of a project and resubmits it
func (h *Handler) UpdateProject(ctx context.Context, user, id string, request models.UpdateProjectRequest) (models.Project, error) {
	if _, err := h.getProject(ctx, user, id); err != nil {
		return models.Project{}, err
	}
	project, err := h.database.Projects().Update(ctx, id, func(p *db.Project) error {
		if request.DisplayName != nil {
			p.DisplayName = *request.DisplayName
		}
		if request.Description != nil {
			p.Description = *request.Description
		}
		return nil
	})
	if err != nil {
		return models.Project{}, storeError(err, id)
	}
	if err := h.provisioner.SubmitProject(ctx, project); err != nil {
		return models.Project{}, radixhttp.UnexpectedError("Failed to update project namespace", err)
	}
	return models.BuildProject(project), nil
}

// DeleteProject removes a project without apps or services
func (h *Handler) DeleteProject(ctx context.Context, user, id string) error {
	project, err := h.getProject(ctx, user, id)
	if err != nil {
		return err
	}
	if err := h.database.Projects().Delete(ctx, id); err != nil {
		return storeError(err, id)
	}
	if err := h.provisioner.DeleteProject(ctx, project); err != nil {
		return radixhttp.UnexpectedError("Failed to delete project namespace", err)
	}
	log.Ctx(ctx).Info().Str("project_id", id).Msg("project deleted")
	return nil
}

// GetProjectApps lists the apps in a project
func (h *Handler) GetProjectApps(ctx context.Context, user, id string) ([]models.AppRef, error) {
	if _, err := h.getProject(ctx, user, id); err != nil {
		return nil, err
	}
	list, err := h.database.Apps().List(ctx, user)
	if err != nil {
		return nil, radixhttp.UnexpectedError("Failed to list apps", err)
	}
	apps := slice.FindAll(list, func(app db.App) bool { return app.ProjectID == id })
	return slice.Map(apps, func(app db.App) models.AppRef {
		return models.AppRef{UUID: app.ID, Name: app.Name, Status: string(app.Status)}
	}), nil
}

// GetProjectServices lists the services in a project
func (h *Handler) GetProjectServices(ctx context.Context, user, id string) ([]models.ServiceRef, error) {
	if _, err := h.getProject(ctx, user, id); err != nil {
		return nil, err
	}
	list, err := h.database.Services().List(ctx, user)
	if err != nil {
		return nil, radixhttp.UnexpectedError("Failed to list services", err)
	}
	services := slice.FindAll(list, func(service db.Service) bool { return service.ProjectID == id })
	return slice.Map(services, func(service db.Service) models.ServiceRef {
		return models.ServiceRef{UUID: service.ID, Name: service.Name, Type: string(service.Type)}
	}), nil
}

// getProject returns the project when it is owned by user
func (h *Handler) getProject(ctx context.Context, user, id string) (db.Project, error) {
	project, err := h.database.Projects().Get(ctx, id)
	if err == nil && project.Owner != user {
		err = db.Missing{Table: "projects", Identity: id}
	}
	if err != nil {
		return db.Project{}, storeError(err, id)
	}
	return project, nil
}
