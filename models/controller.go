package models

import (
	"encoding/json"
	"net/http"

	radixhttp "github.com/equinor/radix-common/net/http"
	"github.com/rs/zerolog/log"
)

// Controller Pattern of an rest/stream controller
type Controller interface {
	GetRoutes() Routes
}

// DefaultController Default implementation
type DefaultController struct {
}

// ErrorResponse Marshals error for user requester
func (c *DefaultController) ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if err := radixhttp.ErrorResponse(w, r, err); err != nil {
		log.Ctx(r.Context()).Err(err).Msg("failed to write response")
	}
}

// JSONResponse Marshals response with header
func (c *DefaultController) JSONResponse(w http.ResponseWriter, r *http.Request, result interface{}) {
	if err := radixhttp.JSONResponse(w, r, result); err != nil {
		log.Ctx(r.Context()).Err(err).Msg("failed to write response")
	}
}

// JSONResponseWithStatus Marshals response with header and a status other than 200
func (c *DefaultController) JSONResponseWithStatus(w http.ResponseWriter, r *http.Request, status int, result interface{}) {
	body, err := json.Marshal(result)
	if err != nil {
		c.ErrorResponse(w, r, radixhttp.UnexpectedError("failed to encode response", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Ctx(r.Context()).Err(err).Msg("failed to write response")
	}
}

// StatusResponse writes status without a body
func (c *DefaultController) StatusResponse(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
}
