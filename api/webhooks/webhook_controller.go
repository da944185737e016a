package webhooks

import (
	"io"
	"net/http"

	radixhttp "github.com/equinor/radix-common/net/http"
	"github.com/shapeblock/shapeblock-api/models"
)

const (
	webhookParam    = "webhook"
	hookIDHeader    = "X-GitHub-Hook-ID"
	eventHeader     = "X-GitHub-Event"
	signatureHeader = "X-Hub-Signature-256"

	maxPayload = 25 << 20
)

type webhookController struct {
	*models.DefaultController
	handler *Handler
}

// NewWebhookController Constructor
func NewWebhookController(handler *Handler) models.Controller {
	return &webhookController{handler: handler}
}

// GetRoutes List the supported routes of this controller
func (wc *webhookController) GetRoutes() models.Routes {
	return models.Routes{
		models.Route{
			Path:                      "/webhooks/github",
			Method:                    http.MethodPost,
			HandlerFunc:               wc.GitHubWebhook,
			AllowUnauthenticatedUsers: true,
		},
	}
}

// GitHubWebhook Deploys an app on a push to its branch
func (wc *webhookController) GitHubWebhook(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /webhooks/github webhook gitHubWebhook
	// ---
	// summary: Receives GitHub deliveries and deploys apps with autodeploy on
	// parameters:
	// - name: webhook
	//   in: query
	//   description: webhook id of the app, the X-GitHub-Hook-ID header is used when omitted
	//   type: string
	//   required: false
	// - name: X-GitHub-Event
	//   in: header
	//   type: string
	//   required: true
	// - name: X-Hub-Signature-256
	//   in: header
	//   type: string
	//   required: false
	// responses:
	//   "201":
	//     description: "Deployment admitted"
	//     schema:
	//       "$ref": "#/definitions/WebhookResult"
	//   "202":
	//     description: "Delivery accepted without deploying"
	//     schema:
	//       "$ref": "#/definitions/WebhookResult"
	//   "403":
	//     description: "Invalid signature"
	//   "404":
	//     description: "No app for the webhook"
	var body []byte
	if r.Body != nil {
		var err error
		if body, err = io.ReadAll(io.LimitReader(r.Body, maxPayload)); err != nil {
			wc.ErrorResponse(w, r, radixhttp.UnexpectedError("Failed to read payload", err))
			return
		}
	}
	webhookID := r.URL.Query().Get(webhookParam)
	if webhookID == "" {
		webhookID = r.Header.Get(hookIDHeader)
	}

	result, err := wc.handler.HandleDelivery(r.Context(), Delivery{
		WebhookID: webhookID,
		Event:     r.Header.Get(eventHeader),
		Signature: r.Header.Get(signatureHeader),
		Body:      body,
	})
	if err != nil {
		wc.ErrorResponse(w, r, err)
		return
	}
	if result.Deployed {
		wc.JSONResponseWithStatus(w, r, http.StatusCreated, result)
		return
	}
	wc.JSONResponseWithStatus(w, r, http.StatusAccepted, result)
}
