package apps

import (
	"context"
	"encoding/json"
	"net/http"

	radixhttp "github.com/equinor/radix-common/net/http"
	"github.com/gorilla/mux"
	"github.com/shapeblock/shapeblock-api/api/apps/models"
	"github.com/shapeblock/shapeblock-api/api/middleware/auth"
	apimodels "github.com/shapeblock/shapeblock-api/models"
)

const rootPath = "/apps"

type appController struct {
	*apimodels.DefaultController
	handler *Handler
}

// NewAppController Constructor
func NewAppController(handler *Handler) apimodels.Controller {
	return &appController{handler: handler}
}

// GetRoutes List the supported routes of this controller
func (ac *appController) GetRoutes() apimodels.Routes {
	routes := apimodels.Routes{
		apimodels.Route{
			Path:        rootPath,
			Method:      http.MethodPost,
			HandlerFunc: ac.CreateApp,
		},
		apimodels.Route{
			Path:        rootPath,
			Method:      http.MethodGet,
			HandlerFunc: ac.GetApps,
		},
		apimodels.Route{
			Path:        rootPath + "/{appId}",
			Method:      http.MethodGet,
			HandlerFunc: ac.GetApp,
		},
		apimodels.Route{
			Path:        rootPath + "/{appId}",
			Method:      http.MethodPatch,
			HandlerFunc: ac.UpdateApp,
		},
		apimodels.Route{
			Path:        rootPath + "/{appId}",
			Method:      http.MethodDelete,
			HandlerFunc: ac.DeleteApp,
		},
		apimodels.Route{
			Path:        "/ws/pod-logs/{appId}",
			Method:      http.MethodGet,
			HandlerFunc: ac.PodLogs,
		},
	}
	for _, collection := range ac.collections() {
		routes = append(routes, apimodels.Route{
			Path:        rootPath + "/{appId}/" + collection.path,
			Method:      http.MethodPut,
			HandlerFunc: collection.handle,
		})
	}
	return routes
}

type collection struct {
	path   string
	handle http.HandlerFunc
}

// collections serve the PUT endpoints replacing a configuration collection
//
// swagger:operation PUT /apps/{appId}/env-vars app setEnvVars
// ---
// summary: Replaces the environment variables of an app and redeploys it
// parameters:
// - name: appId
//   in: path
//   type: string
//   required: true
// - name: envVars
//   in: body
//   required: true
//   schema:
//      type: array
//      items:
//         "$ref": "#/definitions/KeyValue"
// responses:
//   "200":
//     description: "Successful operation"
//     schema:
//       "$ref": "#/definitions/App"
//   "400":
//     description: "Invalid variables"
//   "404":
//     description: "Not found"
func (ac *appController) collections() []collection {
	h := ac.handler
	return []collection{
		{"env-vars", replace(ac, h.SetEnvVars)},
		{"build-vars", replace(ac, h.SetBuildVars)},
		{"secrets", replace(ac, h.SetSecrets)},
		{"volumes", replace(ac, h.SetVolumes)},
		{"init-processes", replace(ac, h.SetInitProcesses)},
		{"workers", replace(ac, h.SetWorkers)},
		{"custom-domains", replace(ac, h.SetCustomDomains)},
	}
}

func replace[T any](ac *appController, set func(ctx context.Context, user, id string, list []T) (models.App, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var list []T
		if err := decode(r, &list); err != nil {
			ac.ErrorResponse(w, r, err)
			return
		}
		app, err := set(r.Context(), user(r), mux.Vars(r)["appId"], list)
		if err != nil {
			ac.ErrorResponse(w, r, err)
			return
		}
		ac.JSONResponse(w, r, app)
	}
}

// CreateApp Creates an app in a project
func (ac *appController) CreateApp(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /apps app createApp
	// ---
	// summary: Creates an app in a project of the user
	// parameters:
	// - name: app
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/CreateAppRequest"
	// responses:
	//   "201":
	//     description: "App created"
	//     schema:
	//       "$ref": "#/definitions/App"
	//   "400":
	//     description: "Invalid app or name taken"
	//   "404":
	//     description: "Project not found"
	var request models.CreateAppRequest
	if err := decode(r, &request); err != nil {
		ac.ErrorResponse(w, r, err)
		return
	}
	app, err := ac.handler.CreateApp(r.Context(), user(r), request)
	if err != nil {
		ac.ErrorResponse(w, r, err)
		return
	}
	ac.JSONResponseWithStatus(w, r, http.StatusCreated, app)
}

// GetApps Lists the apps of the user
func (ac *appController) GetApps(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /apps app getApps
	// ---
	// summary: Lists the apps of the user
	// responses:
	//   "200":
	//     description: "Successful operation"
	//     schema:
	//        type: "array"
	//        items:
	//           "$ref": "#/definitions/App"
	apps, err := ac.handler.GetApps(r.Context(), user(r))
	if err != nil {
		ac.ErrorResponse(w, r, err)
		return
	}
	ac.JSONResponse(w, r, apps)
}

// GetApp Get app details
func (ac *appController) GetApp(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /apps/{appId} app getApp
	// ---
	// summary: Get app details, secret values are left out
	// parameters:
	// - name: appId
	//   in: path
	//   type: string
	//   required: true
	// responses:
	//   "200":
	//     description: "Successful operation"
	//     schema:
	//       "$ref": "#/definitions/App"
	//   "404":
	//     description: "Not found"
	app, err := ac.handler.GetApp(r.Context(), user(r), mux.Vars(r)["appId"])
	if err != nil {
		ac.ErrorResponse(w, r, err)
		return
	}
	ac.JSONResponse(w, r, app)
}

// UpdateApp Patches an app
func (ac *appController) UpdateApp(w http.ResponseWriter, r *http.Request) {
	// swagger:operation PATCH /apps/{appId} app updateApp
	// ---
	// summary: Changes ref, stack version, scale, probe or autodeploy of an app and redeploys it
	// parameters:
	// - name: appId
	//   in: path
	//   type: string
	//   required: true
	// - name: patch
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/UpdateAppRequest"
	// responses:
	//   "200":
	//     description: "Successful operation"
	//     schema:
	//       "$ref": "#/definitions/App"
	//   "400":
	//     description: "Invalid patch"
	//   "404":
	//     description: "Not found"
	var request models.UpdateAppRequest
	if err := decode(r, &request); err != nil {
		ac.ErrorResponse(w, r, err)
		return
	}
	app, err := ac.handler.UpdateApp(r.Context(), user(r), mux.Vars(r)["appId"], request)
	if err != nil {
		ac.ErrorResponse(w, r, err)
		return
	}
	ac.JSONResponse(w, r, app)
}

// DeleteApp Deletes an app
func (ac *appController) DeleteApp(w http.ResponseWriter, r *http.Request) {
	// swagger:operation DELETE /apps/{appId} app deleteApp
	// ---
	// summary: Removes an app from the cluster and deletes it with its deployments
	// parameters:
	// - name: appId
	//   in: path
	//   type: string
	//   required: true
	// responses:
	//   "204":
	//     description: "App deleted"
	//   "404":
	//     description: "Not found"
	if err := ac.handler.DeleteApp(r.Context(), user(r), mux.Vars(r)["appId"]); err != nil {
		ac.ErrorResponse(w, r, err)
		return
	}
	ac.StatusResponse(w, http.StatusNoContent)
}

// PodLogs Streams the logs of the pod of an app over a websocket
func (ac *appController) PodLogs(w http.ResponseWriter, r *http.Request) {
	if err := ac.handler.ServePodLogs(w, r, user(r), mux.Vars(r)["appId"]); err != nil {
		ac.ErrorResponse(w, r, err)
	}
}

func user(r *http.Request) string {
	return auth.CtxTokenPrincipal(r.Context()).Id()
}

func decode(r *http.Request, target interface{}) error {
	if r.Body == nil {
		return radixhttp.ValidationError("App", "missing body")
	}
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return radixhttp.ValidationError("App", err.Error())
	}
	return nil
}
