package deployments

import (
	"errors"
	"fmt"

	radixhttp "github.com/equinor/radix-common/net/http"
	"github.com/shapeblock/shapeblock-api/internal/db"
)

// ErrRejected is carried by the error returned when admission rejects a deployment.
var ErrRejected = errors.New(ConditionsNotMet)

var errIgnored = errors.New("deployment is not running")

// IsRejected reports whether err is an admission rejection.
func IsRejected(err error) bool {
	var apiError *radixhttp.Error
	return errors.As(err, &apiError) && apiError.Err == ErrRejected
}

// AdmissionRejected is the error of a deployment rejected by admission
func AdmissionRejected() error {
	return &radixhttp.Error{Type: radixhttp.User, Message: ConditionsNotMet, Err: ErrRejected}
}

func nonExistingApp(underlyingError error, appID string) error {
	return radixhttp.TypeMissingError(fmt.Sprintf("Unable to get app %s", appID), underlyingError)
}

func nonExistingDeployment(underlyingError error, deploymentID string) error {
	return radixhttp.TypeMissingError(fmt.Sprintf("Non existing deployment %s", deploymentID), underlyingError)
}

func nonExistingPod(deploymentID string) error {
	return radixhttp.TypeMissingError(fmt.Sprintf("No pod reported for deployment %s", deploymentID), nil)
}

func invalidDeploymentType(deploymentType db.DeploymentType) error {
	message := fmt.Sprintf("Invalid deployment type %q, expected code or config", deploymentType)
	return &radixhttp.Error{Type: radixhttp.User, Message: message, Err: errors.New(message)}
}

func invalidCallback(message string) error {
	return &radixhttp.Error{Type: radixhttp.User, Message: message, Err: errors.New(message)}
}

func unknownRef(underlyingError error, ref string) error {
	message := fmt.Sprintf("Unable to find ref %s in repository", ref)
	return &radixhttp.Error{Type: radixhttp.User, Message: message, Err: underlyingError}
}

// notFoundOr maps a missing record to notFound and anything else to a server error.
func notFoundOr(err error, notFound func() error, message string) error {
	if errors.Is(err, db.ErrMissing) {
		return notFound()
	}
	return radixhttp.UnexpectedError(message, err)
}
