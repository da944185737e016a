package services

import (
	"errors"
	"fmt"

	radixhttp "github.com/equinor/radix-common/net/http"
	"github.com/shapeblock/shapeblock-api/internal/db"
)

var errAlreadyReady = errors.New("service is already ready")

func invalidRequest(format string, args ...interface{}) error {
	message := fmt.Sprintf(format, args...)
	return &radixhttp.Error{Type: radixhttp.User, Message: message, Err: errors.New(message)}
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
