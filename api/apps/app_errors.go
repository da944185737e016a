package apps

import (
	"errors"
	"fmt"

	radixhttp "github.com/equinor/radix-common/net/http"
	"github.com/shapeblock/shapeblock-api/internal/db"
)

func invalidRequest(err error) error {
	return &radixhttp.Error{Type: radixhttp.User, Message: err.Error(), Err: err}
}

func invalidRequestf(format string, args ...interface{}) error {
	return invalidRequest(fmt.Errorf(format, args...))
}

// storeError maps store errors on the record of kind identified by id
func storeError(err error, kind, id string) error {
	switch {
	case errors.Is(err, db.ErrMissing):
		return radixhttp.TypeMissingError(fmt.Sprintf("%s %s not found", kind, id), err)
	case errors.Is(err, db.ErrConflict):
		return radixhttp.CoverAllError(err, radixhttp.User)
	}
	return radixhttp.UnexpectedError(fmt.Sprintf("Failed to access %s", kind), err)
}
