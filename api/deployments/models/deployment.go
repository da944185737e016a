package models

import (
	"time"

	"github.com/equinor/radix-common/utils/slice"
	"github.com/shapeblock/shapeblock-api/internal/db"
)

// Deployment describe a deployment of an app
// swagger:model Deployment
type Deployment struct {
	// UUID of the deployment
	//
	// required: true
	// example: 6f1b4c7e-2f7d-4c43-9a43-3b1b2f0c7d11
	UUID string `json:"uuid"`

	// AppUUID the app this deployment belongs to
	//
	// required: true
	AppUUID string `json:"app_uuid"`

	// CreatedAt Timestamp when the deployment was admitted
	//
	// required: true
	// example: 2006-01-02T15:04:05Z
	CreatedAt time.Time `json:"created_at"`

	// Status of the deployment
	//
	// required: true
	// enum: running,success,failed
	Status string `json:"status"`

	// Type of the deployment
	//
	// required: true
	// enum: code,config
	Type string `json:"type"`

	// Ref the commit SHA deployed
	//
	// required: true
	// example: 4faca8595c5283a9d0f17a623b9255a0d9866a2e
	Ref string `json:"ref"`

	// Params the configuration snapshot deployed. Secret values are digests.
	//
	// required: false
	Params map[string]interface{} `json:"params,omitempty"`

	// User who requested the deployment
	//
	// required: false
	User string `json:"user,omitempty"`

	// Log collected from the orchestrator callbacks
	//
	// required: false
	Log string `json:"log"`
}

// Pod where a deployment runs
// swagger:model Pod
type Pod struct {
	// required: true
	Pod string `json:"pod"`

	// Namespace of the pod, the project name
	//
	// required: true
	Namespace string `json:"namespace"`
}

// CreateDeploymentRequest body of a deployment request
// swagger:model CreateDeploymentRequest
type CreateDeploymentRequest struct {
	// Type of the deployment, code when empty
	//
	// required: false
	// enum: code,config
	Type string `json:"type"`
}

// DeploymentCallback status report of the orchestrator
// swagger:model DeploymentCallback
type DeploymentCallback struct {
	DeploymentID   string `json:"deployment_id"`
	DeploymentUUID string `json:"deployment_uuid"`

	// required: true
	// enum: running,success,failed
	Status string `json:"status"`

	// Logs chunk appended to the deployment log
	Logs string `json:"logs"`

	// Pod running the deployment, when known
	Pod string `json:"pod"`
}

// ID returns the deployment id, whichever key it was sent under
func (c DeploymentCallback) ID() string {
	if c.DeploymentID != "" {
		return c.DeploymentID
	}
	return c.DeploymentUUID
}

// BuildDeployment shapes a deployment record for the API
func BuildDeployment(d db.Deployment) Deployment {
	return Deployment{
		UUID:      d.ID,
		AppUUID:   d.AppID,
		CreatedAt: d.CreatedAt,
		Status:    string(d.Status),
		Type:      string(d.Type),
		Ref:       d.Ref,
		Params:    d.Params,
		User:      d.Owner,
		Log:       d.Log,
	}
}

// BuildDeployments shapes deployment records for the API, keeping their order
func BuildDeployments(list []db.Deployment) []Deployment {
	return slice.Map(list, BuildDeployment)
}
