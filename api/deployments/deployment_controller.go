package deployments

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	radixhttp "github.com/equinor/radix-common/net/http"
	"github.com/gorilla/mux"
	"github.com/shapeblock/shapeblock-api/api/deployments/models"
	"github.com/shapeblock/shapeblock-api/api/middleware/auth"
	"github.com/shapeblock/shapeblock-api/internal/db"
	apimodels "github.com/shapeblock/shapeblock-api/models"
)

type deploymentController struct {
	*apimodels.DefaultController
	handler *Handler
}

// NewDeploymentController Constructor
func NewDeploymentController(handler *Handler) apimodels.Controller {
	return &deploymentController{handler: handler}
}

// GetRoutes List the supported routes of this controller
func (dc *deploymentController) GetRoutes() apimodels.Routes {
	return apimodels.Routes{
		apimodels.Route{
			Path:        "/apps/{appId}/deployments",
			Method:      http.MethodPost,
			HandlerFunc: dc.CreateDeployment,
		},
		apimodels.Route{
			Path:        "/apps/{appId}/deployments",
			Method:      http.MethodGet,
			HandlerFunc: dc.GetDeployments,
		},
		apimodels.Route{
			Path:        "/deployments/{deploymentId}",
			Method:      http.MethodGet,
			HandlerFunc: dc.GetDeployment,
		},
		apimodels.Route{
			Path:        "/deployments/{deploymentId}/pod",
			Method:      http.MethodGet,
			HandlerFunc: dc.GetPod,
		},
		apimodels.Route{
			Path:                      "/callbacks/deployments",
			Method:                    http.MethodPost,
			HandlerFunc:               dc.DeploymentCallback,
			AllowUnauthenticatedUsers: true,
		},
	}
}

// CreateDeployment Requests a deployment of an app
func (dc *deploymentController) CreateDeployment(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /apps/{appId}/deployments deployment createDeployment
	// ---
	// summary: Deploys the head of the app branch, unless it is already deployed with the current configuration
	// parameters:
	// - name: appId
	//   in: path
	//   type: string
	//   required: true
	// - name: deploymentRequest
	//   in: body
	//   required: false
	//   schema:
	//     "$ref": "#/definitions/CreateDeploymentRequest"
	// responses:
	//   "201":
	//     description: "Deployment admitted"
	//     schema:
	//       "$ref": "#/definitions/Deployment"
	//   "400":
	//     description: "Deployment conditions not met"
	//   "404":
	//     description: "Not found"
	//   "500":
	//     description: "Submission failed"
	var request models.CreateDeploymentRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil && !errors.Is(err, io.EOF) {
			dc.ErrorResponse(w, r, radixhttp.ValidationError("Deployment", err.Error()))
			return
		}
	}

	user := auth.CtxTokenPrincipal(r.Context()).Id()
	deployment, err := dc.handler.CreateDeployment(r.Context(), mux.Vars(r)["appId"], user, Request{Type: db.DeploymentType(request.Type)})
	if err != nil {
		dc.ErrorResponse(w, r, err)
		return
	}
	dc.JSONResponseWithStatus(w, r, http.StatusCreated, models.BuildDeployment(deployment))
}

// GetDeployments Lists the deployments of an app
func (dc *deploymentController) GetDeployments(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /apps/{appId}/deployments deployment getDeployments
	// ---
	// summary: Lists the app deployments, newest first
	// parameters:
	// - name: appId
	//   in: path
	//   type: string
	//   required: true
	// responses:
	//   "200":
	//     description: "Successful operation"
	//     schema:
	//        type: "array"
	//        items:
	//           "$ref": "#/definitions/Deployment"
	//   "404":
	//     description: "Not found"
	list, err := dc.handler.GetDeployments(r.Context(), mux.Vars(r)["appId"], auth.CtxTokenPrincipal(r.Context()).Id())
	if err != nil {
		dc.ErrorResponse(w, r, err)
		return
	}
	dc.JSONResponse(w, r, list)
}

// GetDeployment Get deployment details
func (dc *deploymentController) GetDeployment(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /deployments/{deploymentId} deployment getDeployment
	// ---
	// summary: Get deployment details
	// parameters:
	// - name: deploymentId
	//   in: path
	//   type: string
	//   required: true
	// responses:
	//   "200":
	//     description: "Successful operation"
	//     schema:
	//       "$ref": "#/definitions/Deployment"
	//   "404":
	//     description: "Not found"
	deployment, err := dc.handler.GetDeployment(r.Context(), mux.Vars(r)["deploymentId"], auth.CtxTokenPrincipal(r.Context()).Id())
	if err != nil {
		dc.ErrorResponse(w, r, err)
		return
	}
	dc.JSONResponse(w, r, deployment)
}

// GetPod Get the pod running a deployment
func (dc *deploymentController) GetPod(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /deployments/{deploymentId}/pod deployment getDeploymentPod
	// ---
	// summary: Get the pod reported by the orchestrator for a deployment
	// parameters:
	// - name: deploymentId
	//   in: path
	//   type: string
	//   required: true
	// responses:
	//   "200":
	//     description: "Successful operation"
	//     schema:
	//       "$ref": "#/definitions/Pod"
	//   "404":
	//     description: "Not found"
	pod, err := dc.handler.GetPod(r.Context(), mux.Vars(r)["deploymentId"], auth.CtxTokenPrincipal(r.Context()).Id())
	if err != nil {
		dc.ErrorResponse(w, r, err)
		return
	}
	dc.JSONResponse(w, r, pod)
}

// DeploymentCallback Applies a status report of the orchestrator
func (dc *deploymentController) DeploymentCallback(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /callbacks/deployments deployment deploymentCallback
	// ---
	// summary: Status report of the orchestrator about a deployment
	// parameters:
	// - name: callback
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/DeploymentCallback"
	// responses:
	//   "200":
	//     description: "Applied"
	//   "202":
	//     description: "Ignored, the deployment is not running"
	//   "400":
	//     description: "Invalid callback"
	//   "404":
	//     description: "Not found"
	var callback models.DeploymentCallback
	if r.Body == nil {
		dc.ErrorResponse(w, r, radixhttp.ValidationError("Callback", "missing body"))
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&callback); err != nil {
		dc.ErrorResponse(w, r, radixhttp.ValidationError("Callback", err.Error()))
		return
	}

	result, err := dc.handler.ApplyCallback(r.Context(), Callback{
		DeploymentID: callback.ID(),
		Status:       db.DeploymentStatus(callback.Status),
		Logs:         callback.Logs,
		Pod:          callback.Pod,
	})
	if err != nil {
		dc.ErrorResponse(w, r, err)
		return
	}
	if result == Ignored {
		dc.StatusResponse(w, http.StatusAccepted)
		return
	}
	dc.StatusResponse(w, http.StatusOK)
}
