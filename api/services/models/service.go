package models

import (
	"time"

	"github.com/equinor/radix-common/utils/slice"
	"github.com/shapeblock/shapeblock-api/internal/db"
)

// Service a managed database or cache
// swagger:model Service
type Service struct {
	// required: true
	UUID string `json:"uuid"`

	// required: true
	// example: pg
	Name string `json:"name"`

	// required: true
	// enum: mysql,postgres,mongodb,redis
	Type string `json:"type"`

	// ProjectUUID the project the service is provisioned in
	//
	// required: true
	ProjectUUID string `json:"project"`

	// required: true
	// enum: starting,ready,deleted
	Status string `json:"status"`

	// User owning the service
	//
	// required: true
	User string `json:"user"`

	// Apps the service is attached to
	//
	// required: false
	Apps []AttachedApp `json:"apps"`

	// required: true
	CreatedAt time.Time `json:"created_at"`
}

// AttachedApp an app using a service
// swagger:model AttachedApp
type AttachedApp struct {
	UUID      string `json:"uuid"`
	ExposedAs string `json:"exposed_as"`
}

// CreateServiceRequest body of a service creation
// swagger:model CreateServiceRequest
type CreateServiceRequest struct {
	// ProjectUUID of a project of the user
	//
	// required: true
	ProjectUUID string `json:"project"`

	// required: true
	Name string `json:"name"`

	// required: true
	// enum: mysql,postgres,mongodb,redis
	Type string `json:"type"`
}

// AttachRequest body of attaching or detaching an app
// swagger:model AttachRequest
type AttachRequest struct {
	// required: true
	AppUUID string `json:"app_uuid"`

	// How the app receives the connection, separate_variables when empty
	//
	// required: false
	// enum: separate_variables,url
	ExposedAs string `json:"exposed_as"`
}

// ServiceCallback status report of the orchestrator about a service
// swagger:model ServiceCallback
type ServiceCallback struct {
	ServiceID   string `json:"service_id"`
	ServiceUUID string `json:"service_uuid"`
	Status      string `json:"status"`
}

// ID returns the service id, whichever key it was sent under
func (c ServiceCallback) ID() string {
	if c.ServiceID != "" {
		return c.ServiceID
	}
	return c.ServiceUUID
}

func BuildService(s db.Service, attachments []db.Attachment) Service {
	return Service{
		UUID:        s.ID,
		Name:        s.Name,
		Type:        string(s.Type),
		ProjectUUID: s.ProjectID,
		Status:      string(s.Status),
		User:        s.Owner,
		Apps: slice.Map(attachments, func(a db.Attachment) AttachedApp {
			return AttachedApp{UUID: a.AppID, ExposedAs: string(a.ExposedAs)}
		}),
		CreatedAt: s.CreatedAt,
	}
}
