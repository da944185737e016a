package projects

import (
	"encoding/json"
	"net/http"

	radixhttp "github.com/equinor/radix-common/net/http"
	"github.com/gorilla/mux"
	"github.com/shapeblock/shapeblock-api/api/middleware/auth"
	"github.com/shapeblock/shapeblock-api/api/projects/models"
	apimodels "github.com/shapeblock/shapeblock-api/models"
)

const rootPath = "/projects"

type projectController struct {
	*apimodels.DefaultController
	handler *Handler
}

// NewProjectController Constructor
func NewProjectController(handler *Handler) apimodels.Controller {
	return &projectController{handler: handler}
}

// GetRoutes List the supported routes of this controller
func (pc *projectController) GetRoutes() apimodels.Routes {
	return apimodels.Routes{
		apimodels.Route{
			Path:        rootPath,
			Method:      http.MethodPost,
			HandlerFunc: pc.CreateProject,
		},
		apimodels.Route{
			Path:        rootPath,
			Method:      http.MethodGet,
			HandlerFunc: pc.GetProjects,
		},
		apimodels.Route{
			Path:        rootPath + "/{projectId}",
			Method:      http.MethodGet,
			HandlerFunc: pc.GetProject,
		},
		apimodels.Route{
			Path:        rootPath + "/{projectId}",
			Method:      http.MethodPatch,
			HandlerFunc: pc.UpdateProject,
		},
		apimodels.Route{
			Path:        rootPath + "/{projectId}",
			Method:      http.MethodDelete,
			HandlerFunc: pc.DeleteProject,
		},
		apimodels.Route{
			Path:        rootPath + "/{projectId}/apps",
			Method:      http.MethodGet,
			HandlerFunc: pc.GetProjectApps,
		},
		apimodels.Route{
			Path:        rootPath + "/{projectId}/services",
			Method:      http.MethodGet,
			HandlerFunc: pc.GetProjectServices,
		},
	}
}

// CreateProject Creates a project and its namespace
func (pc *projectController) CreateProject(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /projects project createProject
	// ---
	// summary: Creates a project and its namespace
	// parameters:
	// - name: project
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/CreateProjectRequest"
	// responses:
	//   "201":
	//     description: "Project created"
	//     schema:
	//       "$ref": "#/definitions/Project"
	//   "400":
	//     description: "Invalid name or name taken"
	var request models.CreateProjectRequest
	if err := decode(r, &request); err != nil {
		pc.ErrorResponse(w, r, err)
		return
	}
	project, err := pc.handler.CreateProject(r.Context(), user(r), request)
	if err != nil {
		pc.ErrorResponse(w, r, err)
		return
	}
	pc.JSONResponseWithStatus(w, r, http.StatusCreated, project)
}

// GetProjects Lists the projects of the user
func (pc *projectController) GetProjects(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /projects project getProjects
	// ---
	// summary: Lists the projects of the user
	// responses:
	//   "200":
	//     description: "Successful operation"
	//     schema:
	//        type: "array"
	//        items:
	//           "$ref": "#/definitions/Project"
	projects, err := pc.handler.GetProjects(r.Context(), user(r))
	if err != nil {
		pc.ErrorResponse(w, r, err)
		return
	}
	pc.JSONResponse(w, r, projects)
}

// GetProject Get project details
func (pc *projectController) GetProject(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /projects/{projectId} project getProject
	// ---
	// summary: Get project details
	// parameters:
	// - name: projectId
	//   in: path
	//   type: string
	//   required: true
	// responses:
	//   "200":
	//     description: "Successful operation"
	//     schema:
	//       "$ref": "#/definitions/Project"
	//   "404":
	//     description: "Not found"
	project, err := pc.handler.GetProject(r.Context(), user(r), mux.Vars(r)["projectId"])
	if err != nil {
		pc.ErrorResponse(w, r, err)
		return
	}
	pc.JSONResponse(w, r, project)
}

// UpdateProject Changes the display name or description of a project
func (pc *projectController) UpdateProject(w http.ResponseWriter, r *http.Request) {
	// swagger:operation PATCH /projects/{projectId} project updateProject
	// ---
	// summary: Changes the display name or description of a project
	// parameters:
	// - name: projectId
	//   in: path
	//   type: string
	//   required: true
	// - name: patch
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/UpdateProjectRequest"
	// responses:
	//   "200":
	//     description: "Successful operation"
	//     schema:
	//       "$ref": "#/definitions/Project"
	//   "404":
	//     description: "Not found"
	var request models.UpdateProjectRequest
	if err := decode(r, &request); err != nil {
		pc.ErrorResponse(w, r, err)
		return
	}
	project, err := pc.handler.UpdateProject(r.Context(), user(r), mux.Vars(r)["projectId"], request)
	if err != nil {
		pc.ErrorResponse(w, r, err)
		return
	}
	pc.JSONResponse(w, r, project)
}

// DeleteProject Deletes an empty project
func (pc *projectController) DeleteProject(w http.ResponseWriter, r *http.Request) {
	// swagger:operation DELETE /projects/{projectId} project deleteProject
	// ---
	// summary: Deletes a project without apps or services
	// parameters:
	// - name: projectId
	//   in: path
	//   type: string
	//   required: true
	// responses:
	//   "204":
	//     description: "Project deleted"
	//   "400":
	//     description: "Project has apps or services"
	//   "404":
	//     description: "Not found"
	if err := pc.handler.DeleteProject(r.Context(), user(r), mux.Vars(r)["projectId"]); err != nil {
		pc.ErrorResponse(w, r, err)
		return
	}
	pc.StatusResponse(w, http.StatusNoContent)
}

// GetProjectApps Lists the apps of a project
func (pc *projectController) GetProjectApps(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /projects/{projectId}/apps project getProjectApps
	// ---
	// summary: Lists the apps of a project
	// parameters:
	// - name: projectId
	//   in: path
	//   type: string
	//   required: true
	// responses:
	//   "200":
	//     description: "Successful operation"
	//     schema:
	//        type: "array"
	//        items:
	//           "$ref": "#/definitions/AppRef"
	//   "404":
	//     description: "Not found"
	apps, err := pc.handler.GetProjectApps(r.Context(), user(r), mux.Vars(r)["projectId"])
	if err != nil {
		pc.ErrorResponse(w, r, err)
		return
	}
	pc.JSONResponse(w, r, apps)
}

// GetProjectServices Lists the services of a project
func (pc *projectController) GetProjectServices(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /projects/{projectId}/services project getProjectServices
	// ---
	// summary: Lists the services of a project
	// parameters:
	// - name: projectId
	//   in: path
	//   type: string
	//   required: true
	// responses:
	//   "200":
	//     description: "Successful operation"
	//     schema:
	//        type: "array"
	//        items:
	//           "$ref": "#/definitions/ServiceRef"
	//   "404":
	//     description: "Not found"
	services, err := pc.handler.GetProjectServices(r.Context(), user(r), mux.Vars(r)["projectId"])
	if err != nil {
		pc.ErrorResponse(w, r, err)
		return
	}
	pc.JSONResponse(w, r, services)
}

func user(r *http.Request) string {
	return auth.CtxTokenPrincipal(r.Context()).Id()
}

func decode(r *http.Request, target interface{}) error {
	if r.Body == nil {
		return radixhttp.ValidationError("Project", "missing body")
	}
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return radixhttp.ValidationError("Project", err.Error())
	}
	return nil
}
