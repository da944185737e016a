package recovery

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/negroni/v3"
)

// NewMiddleware answers 500 on a panicking handler and logs the panic with the
// logger of the request.
func NewMiddleware() *negroni.Recovery {
	rec := negroni.NewRecovery()
	rec.PrintStack = false
	rec.LogStack = false
	rec.Logger = &log.Logger
	rec.PanicHandlerFunc = func(info *negroni.PanicInformation) {
		logger := zerolog.Ctx(info.Request.Context())
		logger.Error().
			Interface("panic", info.RecoveredPanic).
			Bytes("stack", info.Stack).
			Msg("handler panicked")
	}
	return rec
}
