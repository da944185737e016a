package services

import (
	"encoding/json"
	"net/http"

	radixhttp "github.com/equinor/radix-common/net/http"
	"github.com/gorilla/mux"
	"github.com/shapeblock/shapeblock-api/api/deployments"
	"github.com/shapeblock/shapeblock-api/api/middleware/auth"
	"github.com/shapeblock/shapeblock-api/api/services/models"
	apimodels "github.com/shapeblock/shapeblock-api/models"
)

const rootPath = "/services"

type serviceController struct {
	*apimodels.DefaultController
	handler *Handler
}

// NewServiceController Constructor
func NewServiceController(handler *Handler) apimodels.Controller {
	return &serviceController{handler: handler}
}

// GetRoutes List the supported routes of this controller
func (sc *serviceController) GetRoutes() apimodels.Routes {
	return apimodels.Routes{
		apimodels.Route{
			Path:        rootPath,
			Method:      http.MethodPost,
			HandlerFunc: sc.CreateService,
		},
		apimodels.Route{
			Path:        rootPath,
			Method:      http.MethodGet,
			HandlerFunc: sc.GetServices,
		},
		apimodels.Route{
			Path:        rootPath + "/{serviceId}",
			Method:      http.MethodGet,
			HandlerFunc: sc.GetService,
		},
		apimodels.Route{
			Path:        rootPath + "/{serviceId}",
			Method:      http.MethodDelete,
			HandlerFunc: sc.DeleteService,
		},
		apimodels.Route{
			Path:        rootPath + "/{serviceId}/attach",
			Method:      http.MethodPatch,
			HandlerFunc: sc.AttachApp,
		},
		apimodels.Route{
			Path:        rootPath + "/{serviceId}/detach",
			Method:      http.MethodPatch,
			HandlerFunc: sc.DetachApp,
		},
		apimodels.Route{
			Path:                      "/callbacks/services",
			Method:                    http.MethodPost,
			HandlerFunc:               sc.ServiceCallback,
			AllowUnauthenticatedUsers: true,
		},
	}
}

// CreateService Provisions a managed service
func (sc *serviceController) CreateService(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /services service createService
	// ---
	// summary: Provisions a managed database or cache in a project
	// parameters:
	// - name: service
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/CreateServiceRequest"
	// responses:
	//   "201":
	//     description: "Service created"
	//     schema:
	//       "$ref": "#/definitions/Service"
	//   "400":
	//     description: "Invalid request or name taken"
	//   "404":
	//     description: "Project not found"
	var request models.CreateServiceRequest
	if err := decode(r, &request); err != nil {
		sc.ErrorResponse(w, r, err)
		return
	}
	service, err := sc.handler.CreateService(r.Context(), user(r), request)
	if err != nil {
		sc.ErrorResponse(w, r, err)
		return
	}
	sc.JSONResponseWithStatus(w, r, http.StatusCreated, service)
}

// GetServices Lists the services of the user
func (sc *serviceController) GetServices(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /services service getServices
	// ---
	// summary: Lists the services of the user
	// responses:
	//   "200":
	//     description: "Successful operation"
	//     schema:
	//        type: "array"
	//        items:
	//           "$ref": "#/definitions/Service"
	services, err := sc.handler.GetServices(r.Context(), user(r))
	if err != nil {
		sc.ErrorResponse(w, r, err)
		return
	}
	sc.JSONResponse(w, r, services)
}

// GetService Get service details
func (sc *serviceController) GetService(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /services/{serviceId} service getService
	// ---
	// summary: Get service details
	// parameters:
	// - name: serviceId
	//   in: path
	//   type: string
	//   required: true
	// responses:
	//   "200":
	//     description: "Successful operation"
	//     schema:
	//       "$ref": "#/definitions/Service"
	//   "404":
	//     description: "Not found"
	service, err := sc.handler.GetService(r.Context(), user(r), mux.Vars(r)["serviceId"])
	if err != nil {
		sc.ErrorResponse(w, r, err)
		return
	}
	sc.JSONResponse(w, r, service)
}

// DeleteService Deletes a detached service
func (sc *serviceController) DeleteService(w http.ResponseWriter, r *http.Request) {
	// swagger:operation DELETE /services/{serviceId} service deleteService
	// ---
	// summary: Deletes a service no app is attached to
	// parameters:
	// - name: serviceId
	//   in: path
	//   type: string
	//   required: true
	// responses:
	//   "204":
	//     description: "Service deleted"
	//   "400":
	//     description: "Service is attached"
	//   "404":
	//     description: "Not found"
	if err := sc.handler.DeleteService(r.Context(), user(r), mux.Vars(r)["serviceId"]); err != nil {
		sc.ErrorResponse(w, r, err)
		return
	}
	sc.StatusResponse(w, http.StatusNoContent)
}

// AttachApp Attaches a service to an app
func (sc *serviceController) AttachApp(w http.ResponseWriter, r *http.Request) {
	// swagger:operation PATCH /services/{serviceId}/attach service attachApp
	// ---
	// summary: Attaches a service to an app of the same project
	// parameters:
	// - name: serviceId
	//   in: path
	//   type: string
	//   required: true
	// - name: attachment
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/AttachRequest"
	// responses:
	//   "201":
	//     description: "Service attached"
	//   "400":
	//     description: "Invalid request or already attached"
	//   "404":
	//     description: "Not found"
	var request models.AttachRequest
	if err := decode(r, &request); err != nil {
		sc.ErrorResponse(w, r, err)
		return
	}
	if err := sc.handler.AttachApp(r.Context(), user(r), mux.Vars(r)["serviceId"], request); err != nil {
		sc.ErrorResponse(w, r, err)
		return
	}
	sc.StatusResponse(w, http.StatusCreated)
}

// DetachApp Detaches a service from an app
func (sc *serviceController) DetachApp(w http.ResponseWriter, r *http.Request) {
	// swagger:operation PATCH /services/{serviceId}/detach service detachApp
	// ---
	// summary: Detaches a service from an app
	// parameters:
	// - name: serviceId
	//   in: path
	//   type: string
	//   required: true
	// - name: attachment
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/AttachRequest"
	// responses:
	//   "200":
	//     description: "Service detached"
	//   "404":
	//     description: "Not found"
	var request models.AttachRequest
	if err := decode(r, &request); err != nil {
		sc.ErrorResponse(w, r, err)
		return
	}
	if err := sc.handler.DetachApp(r.Context(), user(r), mux.Vars(r)["serviceId"], request); err != nil {
		sc.ErrorResponse(w, r, err)
		return
	}
	sc.StatusResponse(w, http.StatusOK)
}

// ServiceCallback Applies a status report of the orchestrator about a service
func (sc *serviceController) ServiceCallback(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /callbacks/services service serviceCallback
	// ---
	// summary: Status report of the orchestrator about a service
	// parameters:
	// - name: callback
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/ServiceCallback"
	// responses:
	//   "200":
	//     description: "Applied"
	//   "202":
	//     description: "Ignored, the service is ready"
	//   "404":
	//     description: "Not found"
	var callback models.ServiceCallback
	if err := decode(r, &callback); err != nil {
		sc.ErrorResponse(w, r, err)
		return
	}
	result, err := sc.handler.ApplyCallback(r.Context(), callback.ID(), callback.Status)
	if err != nil {
		sc.ErrorResponse(w, r, err)
		return
	}
	if result == deployments.Ignored {
		sc.StatusResponse(w, http.StatusAccepted)
		return
	}
	sc.StatusResponse(w, http.StatusOK)
}

func user(r *http.Request) string {
	return auth.CtxTokenPrincipal(r.Context()).Id()
}

func decode(r *http.Request, target interface{}) error {
	if r.Body == nil {
		return radixhttp.ValidationError("Service", "missing body")
	}
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return radixhttp.ValidationError("Service", err.Error())
	}
	return nil
}
