package fanout

import (
	"errors"
	"net/http"

	radixhttp "github.com/equinor/radix-common/net/http"
	"github.com/gorilla/mux"
	"github.com/shapeblock/shapeblock-api/api/middleware/auth"
	"github.com/shapeblock/shapeblock-api/internal/db"
	"github.com/shapeblock/shapeblock-api/models"
)

type streamController struct {
	*models.DefaultController
	broker   *Broker
	database db.Database
}

// NewStreamController serves the status streams over websockets and server
// sent events.
func NewStreamController(broker *Broker, database db.Database) models.Controller {
	return &streamController{broker: broker, database: database}
}

// GetRoutes List the supported routes of this controller
func (c *streamController) GetRoutes() models.Routes {
	return models.Routes{
		models.Route{
			Path:        "/ws/apps",
			Method:      http.MethodGet,
			HandlerFunc: c.AppStatusWebsocket,
		},
		models.Route{
			Path:        "/ws/deployments/{deploymentId}/logs",
			Method:      http.MethodGet,
			HandlerFunc: c.DeploymentLogsWebsocket,
		},
		models.Route{
			Path:        "/events/apps",
			Method:      http.MethodGet,
			HandlerFunc: c.AppStatusEvents,
		},
		models.Route{
			Path:        "/events/deployments/{deploymentId}/logs",
			Method:      http.MethodGet,
			HandlerFunc: c.DeploymentLogsEvents,
		},
	}
}

// AppStatusWebsocket streams app status changes
func (c *streamController) AppStatusWebsocket(w http.ResponseWriter, r *http.Request) {
	ServeWebsocket(c.broker, w, r, AppsTopic)
}

// DeploymentLogsWebsocket streams the log and status of a deployment
func (c *streamController) DeploymentLogsWebsocket(w http.ResponseWriter, r *http.Request) {
	topic, err := c.deploymentTopic(r)
	if err != nil {
		c.ErrorResponse(w, r, err)
		return
	}
	ServeWebsocket(c.broker, w, r, topic)
}

// AppStatusEvents streams app status changes as server sent events
func (c *streamController) AppStatusEvents(w http.ResponseWriter, r *http.Request) {
	c.serveSSE(w, r, AppsTopic)
}

// DeploymentLogsEvents streams the log and status of a deployment as server sent events
func (c *streamController) DeploymentLogsEvents(w http.ResponseWriter, r *http.Request) {
	topic, err := c.deploymentTopic(r)
	if err != nil {
		c.ErrorResponse(w, r, err)
		return
	}
	c.serveSSE(w, r, topic)
}

func (c *streamController) serveSSE(w http.ResponseWriter, r *http.Request, topic string) {
	if _, ok := w.(http.Flusher); !ok {
		c.ErrorResponse(w, r, radixhttp.ValidationError("Stream", "Streaming unsupported"))
		return
	}
	if err := ServeSSE(c.broker, w, r, topic); err != nil {
		c.ErrorResponse(w, r, radixhttp.UnexpectedError("Failed to stream events", err))
	}
}

// deploymentTopic resolves the topic of the deployment in the path, which
// must belong to an app of the caller.
func (c *streamController) deploymentTopic(r *http.Request) (string, error) {
	id := mux.Vars(r)["deploymentId"]
	notFound := radixhttp.TypeMissingError("Deployment not found", db.Missing{Table: "deployments", Identity: id})

	deployment, err := c.database.Deployments().Get(r.Context(), id)
	if errors.Is(err, db.ErrMissing) {
		return "", notFound
	}
	if err != nil {
		return "", radixhttp.UnexpectedError("Failed to get deployment", err)
	}

	app, err := c.database.Apps().Get(r.Context(), deployment.AppID)
	if errors.Is(err, db.ErrMissing) || (err == nil && app.Owner != auth.CtxTokenPrincipal(r.Context()).Id()) {
		return "", notFound
	}
	if err != nil {
		return "", radixhttp.UnexpectedError("Failed to get app", err)
	}
	return DeploymentTopic(deployment.ID), nil
}
