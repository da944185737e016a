package models

import (
	"time"

	"github.com/shapeblock/shapeblock-api/internal/db"
)

// Project groups the apps and services sharing a namespace
// swagger:model Project
type Project struct {
	// required: true
	UUID string `json:"uuid"`

	// Name of the project, also the namespace of its apps
	//
	// required: true
	// example: shop
	Name string `json:"name"`

	// required: false
	DisplayName string `json:"display_name"`

	// required: false
	Description string `json:"description"`

	// User owning the project
	//
	// required: true
	User string `json:"user"`

	// required: true
	// example: 2006-01-02T15:04:05Z
	CreatedAt time.Time `json:"created_at"`
}

// CreateProjectRequest body of a project creation
// swagger:model CreateProjectRequest
type CreateProjectRequest struct {
	// required: true
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

// UpdateProjectRequest fields of a project that can be changed, nil fields are kept
// swagger:model UpdateProjectRequest
type UpdateProjectRequest struct {
	DisplayName *string `json:"display_name"`
	Description *string `json:"description"`
}

// AppRef an app of a project
// swagger:model AppRef
type AppRef struct {
	UUID   string `json:"uuid"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// ServiceRef a service of a project
// swagger:model ServiceRef
type ServiceRef struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
	Type string `json:"type"`
}

func BuildProject(p db.Project) Project {
	return Project{
		UUID:        p.ID,
		Name:        p.Name,
		DisplayName: p.DisplayName,
		Description: p.Description,
		User:        p.Owner,
		CreatedAt:   p.CreatedAt,
	}
}
