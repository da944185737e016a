// Package webhooks deploys apps with autodeploy on when their branch is pushed to.
package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	radixhttp "github.com/equinor/radix-common/net/http"
	"github.com/rs/zerolog/log"
	"github.com/shapeblock/shapeblock-api/api/deployments"
	"github.com/shapeblock/shapeblock-api/api/webhooks/models"
	"github.com/shapeblock/shapeblock-api/internal/db"
)

const (
	PushEvent       = "push"
	signaturePrefix = "sha256="
	branchPrefix    = "refs/heads/"
)

// Delivery is a webhook request as received from GitHub
type Delivery struct {
	WebhookID string
	Event     string
	Signature string
	Body      []byte
}

// Handler Instance variables
type Handler struct {
	database db.Database
	deployer deployments.Deployer
	secret   []byte
}

// Init Constructor. An empty secret accepts unsigned deliveries.
func Init(database db.Database, deployer deployments.Deployer, secret string) *Handler {
	return &Handler{database: database, deployer: deployer, secret: []byte(secret)}
}

// HandleDelivery admits a code deployment of the app the delivery is for when
// it is a push to the branch of an app with autodeploy on. Deliveries that do
// not deploy are not errors and carry the reason.
func (h *Handler) HandleDelivery(ctx context.Context, delivery Delivery) (models.WebhookResult, error) {
	if err := h.verify(delivery); err != nil {
		return models.WebhookResult{}, err
	}
	if delivery.WebhookID == "" {
		return models.WebhookResult{}, invalidDelivery("Missing webhook id")
	}
	app, err := h.database.Apps().GetByWebhook(ctx, delivery.WebhookID)
	if errors.Is(err, db.ErrMissing) {
		return models.WebhookResult{}, radixhttp.TypeMissingError(fmt.Sprintf("No app for webhook %s", delivery.WebhookID), err)
	}
	if err != nil {
		return models.WebhookResult{}, radixhttp.UnexpectedError("Failed to get app", err)
	}
	logger := log.Ctx(ctx).With().Str("app_id", app.ID).Str("event", delivery.Event).Logger()

	if delivery.Event != PushEvent {
		return ignored(fmt.Sprintf("%s events are not deployed", delivery.Event)), nil
	}
	if !app.Autodeploy {
		return ignored("autodeploy is off"), nil
	}
	var push models.PushEvent
	if err := json.Unmarshal(delivery.Body, &push); err != nil {
		return models.WebhookResult{}, invalidDelivery(fmt.Sprintf("Invalid push payload: %v", err))
	}
	if push.Ref != branchPrefix+app.Ref {
		return ignored(fmt.Sprintf("push to %s, app deploys %s", strings.TrimPrefix(push.Ref, branchPrefix), app.Ref)), nil
	}
	if push.Deleted || strings.Trim(push.After, "0") == "" {
		return ignored("branch deleted"), nil
	}

	deployment, err := h.deployer.CreateDeployment(ctx, app.ID, app.Owner, deployments.Request{Type: db.DeploymentCode, Sha: push.After})
	if deployments.IsRejected(err) {
		return ignored(deployments.ConditionsNotMet), nil
	}
	if err != nil {
		return models.WebhookResult{}, err
	}
	logger.Info().Str("deployment_id", deployment.ID).Str("sha", push.After).Msg("push deployed")
	return models.WebhookResult{Deployed: true, DeploymentUUID: deployment.ID}, nil
}

// verify checks the X-Hub-Signature-256 of the delivery when a secret is set
func (h *Handler) verify(delivery Delivery) error {
	if len(h.secret) == 0 {
		return nil
	}
	signature, ok := strings.CutPrefix(delivery.Signature, signaturePrefix)
	if !ok {
		return radixhttp.ForbiddenError("Missing webhook signature")
	}
	got, err := hex.DecodeString(signature)
	if err != nil || !hmac.Equal(got, Sign(h.secret, delivery.Body)) {
		return radixhttp.ForbiddenError("Invalid webhook signature")
	}
	return nil
}

// Sign returns the HMAC-SHA256 of body with secret
func Sign(secret, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return mac.Sum(nil)
}

func ignored(reason string) models.WebhookResult {
	return models.WebhookResult{Reason: reason}
}

func invalidDelivery(message string) error {
	return &radixhttp.Error{Type: radixhttp.User, Message: message, Err: errors.New(message)}
}
