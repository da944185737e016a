package projects

import (
	"errors"
	"fmt"
	"strings"

	radixhttp "github.com/equinor/radix-common/net/http"
	"github.com/shapeblock/shapeblock-api/internal/db"
)

func invalidName(name string, problems []string) error {
	message := fmt.Sprintf("Invalid project name %q: %s", name, strings.Join(problems, ", "))
	return &radixhttp.Error{Type: radixhttp.User, Message: message, Err: errors.New(message)}
}

// storeError maps store errors of the project identified by id
func storeError(err error, id string) error {
	switch {
	case errors.Is(err, db.ErrMissing):
		return radixhttp.TypeMissingError(fmt.Sprintf("Project %s not found", id), err)
	case errors.Is(err, db.ErrConflict):
		return radixhttp.CoverAllError(err, radixhttp.User)
	}
	return radixhttp.UnexpectedError("Failed to access projects", err)
}
