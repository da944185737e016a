package models

// PushEvent the part of a GitHub push event payload an autodeploy needs
type PushEvent struct {
	// Ref the full ref pushed to
	//
	// example: refs/heads/main
	Ref string `json:"ref"`

	// After the commit the ref points to after the push
	After string `json:"after"`

	// Deleted is set when the push removed the ref
	Deleted bool `json:"deleted"`
}

// WebhookResult outcome of a webhook delivery
// swagger:model WebhookResult
type WebhookResult struct {
	// Deployed is set when a deployment was admitted
	//
	// required: true
	Deployed bool `json:"deployed"`

	// DeploymentUUID of the admitted deployment
	//
	// required: false
	DeploymentUUID string `json:"deployment_uuid,omitempty"`

	// Reason the delivery did not deploy
	//
	// required: false
	Reason string `json:"reason,omitempty"`
}
