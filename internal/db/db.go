// Package db defines the records of the control plane and the interfaces of
// the stores keeping them.
//
// Methods taking a callback run it while the touched rows are locked and
// persist what the callback changed in the same transaction. When the
// callback returns an error nothing is persisted and the error is returned
// as is.
package db

import (
	"context"
)

type Database interface {
	Projects() ProjectInterface
	Apps() AppInterface
	Deployments() DeploymentInterface
	Services() ServiceInterface
	Close() error
}

type ProjectInterface interface {
	// Create stores a new project. A duplicated name is a Conflict.
	Create(ctx context.Context, project Project) (Project, error)

	Get(ctx context.Context, id string) (Project, error)

	// List returns the projects of owner ordered by name.
	List(ctx context.Context, owner string) ([]Project, error)

	// Update runs task on the locked project and stores the result.
	Update(ctx context.Context, id string, task func(*Project) error) (Project, error)

	// Delete removes the project. A project with apps or services is a Conflict.
	Delete(ctx context.Context, id string) error
}

type AppInterface interface {
	// Create stores a new app. A name duplicated within the project is a Conflict.
	Create(ctx context.Context, app App) (App, error)

	Get(ctx context.Context, id string) (App, error)

	GetByWebhook(ctx context.Context, webhookID string) (App, error)

	// List returns the apps of owner ordered by name.
	List(ctx context.Context, owner string) ([]App, error)

	// Update runs task on the locked app and stores the result.
	Update(ctx context.Context, id string, task func(*App) error) (App, error)

	// Delete removes the app, its deployments and its attachments.
	Delete(ctx context.Context, id string) error
}

// AdmitFunc decides on a new deployment for app given the latest deployment
// of that app, nil when there is none. It may change app. The returned
// deployment is stored.
type AdmitFunc func(app *App, last *Deployment) (Deployment, error)

// TransitionFunc changes a deployment and its app.
type TransitionFunc func(deployment *Deployment, app *App) error

type DeploymentInterface interface {
	// Admit locks the app row, hands it with its latest deployment to decide,
	// and stores the app and the deployment decide returns. Concurrent
	// admissions for one app are serialized.
	Admit(ctx context.Context, appID string, decide AdmitFunc) (Deployment, App, error)

	// Transition locks the deployment and then its app, runs task and stores
	// both.
	Transition(ctx context.Context, id string, task TransitionFunc) (Deployment, App, error)

	Get(ctx context.Context, id string) (Deployment, error)

	// List returns the deployments of an app, newest first.
	List(ctx context.Context, appID string) ([]Deployment, error)
}

type ServiceInterface interface {
	// Create stores a new service. A name duplicated within the project is a Conflict.
	Create(ctx context.Context, service Service) (Service, error)

	Get(ctx context.Context, id string) (Service, error)

	// List returns the services of owner ordered by name.
	List(ctx context.Context, owner string) ([]Service, error)

	// Update runs task on the locked service and stores the result.
	Update(ctx context.Context, id string, task func(*Service) error) (Service, error)

	// Delete removes the service. An attached service is a Conflict.
	Delete(ctx context.Context, id string) error

	// Attach links a service to an app. Attaching twice is a Conflict.
	Attach(ctx context.Context, attachment Attachment) error

	// Detach unlinks a service from an app. Missing when they are not linked.
	Detach(ctx context.Context, serviceID, appID string) error

	// Attachments lists the apps a service is attached to.
	Attachments(ctx context.Context, serviceID string) ([]Attachment, error)
}
