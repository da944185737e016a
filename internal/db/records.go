package db

import "time"

type AppStatus string

const (
	AppCreated  AppStatus = "created"
	AppBuilding AppStatus = "building"
	AppReady    AppStatus = "ready"
	AppDeleted  AppStatus = "deleted"
)

type DeploymentStatus string

const (
	DeploymentRunning DeploymentStatus = "running"
	DeploymentSuccess DeploymentStatus = "success"
	DeploymentFailed  DeploymentStatus = "failed"
)

// Terminal reports whether no further transition is accepted from s.
func (s DeploymentStatus) Terminal() bool {
	return s == DeploymentSuccess || s == DeploymentFailed
}

// Valid reports whether s is one of the known deployment statuses.
func (s DeploymentStatus) Valid() bool {
	return s == DeploymentRunning || s.Terminal()
}

type DeploymentType string

const (
	// DeploymentCode is triggered by a new source commit.
	DeploymentCode DeploymentType = "code"
	// DeploymentConfig is triggered by a configuration change.
	DeploymentConfig DeploymentType = "config"
)

type ServiceType string

const (
	ServiceMySQL    ServiceType = "mysql"
	ServicePostgres ServiceType = "postgres"
	ServiceMongoDB  ServiceType = "mongodb"
	ServiceRedis    ServiceType = "redis"
)

type ServiceStatus string

const (
	ServiceStarting ServiceStatus = "starting"
	ServiceReady    ServiceStatus = "ready"
	ServiceDeleted  ServiceStatus = "deleted"
)

// ExposedAs selects how an attached service is handed to an app.
type ExposedAs string

const (
	ExposedAsSeparateVariables ExposedAs = "separate_variables"
	ExposedAsURL               ExposedAs = "url"
)

type Project struct {
	ID          string
	Name        string
	DisplayName string
	Description string
	Owner       string
	CreatedAt   time.Time
}

type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Volume struct {
	Name      string `json:"name"`
	MountPath string `json:"mount_path"`
	Size      int    `json:"size"`
}

// Process is an init process or a worker run next to the app.
type Process struct {
	Key    string `json:"key"`
	Memory string `json:"memory"`
	CPU    string `json:"cpu"`
}

// AppConfig holds the configuration collections of an app.
type AppConfig struct {
	EnvVars       []KeyValue `json:"env_vars"`
	BuildVars     []KeyValue `json:"build_vars"`
	Secrets       []KeyValue `json:"secrets"`
	Volumes       []Volume   `json:"volumes"`
	InitProcesses []Process  `json:"init_processes"`
	Workers       []Process  `json:"workers"`
	CustomDomains []string   `json:"custom_domains"`
}

type App struct {
	ID               string
	ProjectID        string
	Owner            string
	Name             string
	Repo             string
	Ref              string
	SubPath          string
	Stack            string
	StackVersion     string
	Status           AppStatus
	Replicas         int
	HasLivenessProbe bool
	Autodeploy       bool
	WebhookID        string
	Config           AppConfig

	// Services is loaded with the app and not written by AppInterface.Update.
	Services []AttachedService

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Service struct {
	ID        string
	ProjectID string
	Owner     string
	Name      string
	Type      ServiceType
	Status    ServiceStatus
	CreatedAt time.Time
}

// AttachedService is a service as seen from an app it is attached to.
type AttachedService struct {
	Service   Service
	ExposedAs ExposedAs
}

type Attachment struct {
	ServiceID string
	AppID     string
	ExposedAs ExposedAs
}

// Params is the configuration snapshot captured when a deployment is
// submitted. It only holds JSON compatible values.
type Params map[string]any

type Deployment struct {
	ID     string
	AppID  string
	Owner  string
	Status DeploymentStatus
	Type   DeploymentType
	// Ref is the resolved commit SHA.
	Ref    string
	Log    string
	Params Params
	Pod    string

	// PreviousAppStatus is the app status seen when the deployment was admitted.
	PreviousAppStatus AppStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}
