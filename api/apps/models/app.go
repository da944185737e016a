package models

import (
	"fmt"
	"time"

	"github.com/equinor/radix-common/utils/slice"
	"github.com/shapeblock/shapeblock-api/internal/db"
)

// App an application built from a git repository
// swagger:model App
type App struct {
	// required: true
	UUID string `json:"uuid"`

	// required: true
	// example: web
	Name string `json:"name"`

	// ProjectUUID the project the app runs in
	//
	// required: true
	ProjectUUID string `json:"project"`

	// required: true
	// example: https://github.com/acme/web
	Repo string `json:"repo"`

	// Ref the branch deployed
	//
	// required: true
	// example: main
	Ref string `json:"ref"`

	// required: false
	SubPath string `json:"sub_path"`

	// required: true
	// example: node
	Stack string `json:"stack"`

	// StackVersion empty means the latest version of the stack
	//
	// required: false
	StackVersion string `json:"stack_version"`

	// required: true
	// enum: created,building,ready,deleted
	Status string `json:"status"`

	// required: true
	Replicas int `json:"replicas"`

	// required: true
	HasLivenessProbe bool `json:"has_liveness_probe"`

	// Autodeploy deploys every push to the ref
	//
	// required: true
	Autodeploy bool `json:"autodeploy"`

	// WebhookID identifies the app in push webhooks
	//
	// required: true
	WebhookID string `json:"webhook_id"`

	// Domain the app is served at
	//
	// required: true
	// example: https://shop-web.apps.example.com
	Domain string `json:"domain"`

	// User owning the app
	//
	// required: true
	User string `json:"user"`

	EnvVars   []KeyValue `json:"env_vars"`
	BuildVars []KeyValue `json:"build_vars"`

	// Secrets the keys of the secrets, values are never returned
	Secrets []string `json:"secrets"`

	Volumes       []Volume          `json:"volumes"`
	InitProcesses []Process         `json:"init_processes"`
	Workers       []Process         `json:"workers"`
	CustomDomains []string          `json:"custom_domains"`
	Services      []AttachedService `json:"services"`

	// required: true
	CreatedAt time.Time `json:"created_at"`
}

// KeyValue an environment, build or secret variable
// swagger:model KeyValue
type KeyValue struct {
	// required: true
	// example: NODE_ENV
	Key string `json:"key"`

	// required: true
	Value string `json:"value"`
}

// Volume a persistent volume mounted into the app
// swagger:model Volume
type Volume struct {
	// required: true
	Name string `json:"name"`

	// required: true
	// example: /workspace/uploads
	MountPath string `json:"mount_path"`

	// Size in Gi, 2 when omitted
	//
	// required: false
	Size int `json:"size"`
}

// Process an init process or worker run next to the app
// swagger:model Process
type Process struct {
	// required: true
	// example: queue
	Key string `json:"key"`

	// required: false
	// example: 1Gi
	Memory string `json:"memory"`

	// required: false
	// example: 1000m
	CPU string `json:"cpu"`
}

// AttachedService a service the app is connected to
// swagger:model AttachedService
type AttachedService struct {
	UUID      string `json:"uuid"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	ExposedAs string `json:"exposed_as"`
}

// CreateAppRequest body of an app creation
// swagger:model CreateAppRequest
type CreateAppRequest struct {
	// required: true
	ProjectUUID string `json:"project"`

	// required: true
	Name string `json:"name"`

	// required: true
	Repo string `json:"repo"`

	// required: false
	// example: main
	Ref string `json:"ref"`

	// required: false
	SubPath string `json:"sub_path"`

	// required: true
	Stack string `json:"stack"`

	// required: false
	StackVersion string `json:"stack_version"`

	// Replicas 1 when omitted
	//
	// required: false
	Replicas *int `json:"replicas"`

	// HasLivenessProbe true when omitted
	//
	// required: false
	HasLivenessProbe *bool `json:"has_liveness_probe"`

	// required: false
	Autodeploy bool `json:"autodeploy"`
}

// UpdateAppRequest fields of an app that can be changed, omitted fields are kept
// swagger:model UpdateAppRequest
type UpdateAppRequest struct {
	Ref              *string `json:"ref"`
	StackVersion     *string `json:"stack_version"`
	Replicas         *int    `json:"replicas"`
	HasLivenessProbe *bool   `json:"has_liveness_probe"`
	Autodeploy       *bool   `json:"autodeploy"`
}

// Domain is the address an app of project is served at.
func Domain(app db.App, project db.Project, clusterDomain string) string {
	return fmt.Sprintf("https://%s-%s.%s", project.Name, app.Name, clusterDomain)
}

// BuildApp builds the model of app. Secret values are left out.
func BuildApp(app db.App, project db.Project, clusterDomain string) App {
	return App{
		UUID:             app.ID,
		Name:             app.Name,
		ProjectUUID:      app.ProjectID,
		Repo:             app.Repo,
		Ref:              app.Ref,
		SubPath:          app.SubPath,
		Stack:            app.Stack,
		StackVersion:     app.StackVersion,
		Status:           string(app.Status),
		Replicas:         app.Replicas,
		HasLivenessProbe: app.HasLivenessProbe,
		Autodeploy:       app.Autodeploy,
		WebhookID:        app.WebhookID,
		Domain:           Domain(app, project, clusterDomain),
		User:             app.Owner,
		EnvVars:          BuildKeyValues(app.Config.EnvVars),
		BuildVars:        BuildKeyValues(app.Config.BuildVars),
		Secrets:          slice.Map(app.Config.Secrets, func(kv db.KeyValue) string { return kv.Key }),
		Volumes: slice.Map(app.Config.Volumes, func(v db.Volume) Volume {
			return Volume{Name: v.Name, MountPath: v.MountPath, Size: v.Size}
		}),
		InitProcesses: BuildProcesses(app.Config.InitProcesses),
		Workers:       BuildProcesses(app.Config.Workers),
		CustomDomains: append([]string{}, app.Config.CustomDomains...),
		Services: slice.Map(app.Services, func(s db.AttachedService) AttachedService {
			return AttachedService{UUID: s.Service.ID, Name: s.Service.Name, Type: string(s.Service.Type), ExposedAs: string(s.ExposedAs)}
		}),
		CreatedAt: app.CreatedAt,
	}
}

func BuildKeyValues(list []db.KeyValue) []KeyValue {
	return slice.Map(list, func(kv db.KeyValue) KeyValue { return KeyValue{Key: kv.Key, Value: kv.Value} })
}

func BuildProcesses(list []db.Process) []Process {
	return slice.Map(list, func(p db.Process) Process { return Process{Key: p.Key, Memory: p.Memory, CPU: p.CPU} })
}
