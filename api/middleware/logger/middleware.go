// Package logger attaches a request scoped zerolog logger to every request and
// logs the response.
package logger

import (
	"net"
	"net/http"
	"strings"

	"github.com/felixge/httpsnoop"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/negroni/v3"
)

// RequestIDHeader carries the id of a request, a valid incoming id is kept.
const RequestIDHeader = "X-Request-Id"

const healthPath = "/health/"

func NewZerologResponseLoggerMiddleware() negroni.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		logger := zerolog.Ctx(r.Context())

		var ev *zerolog.Event
		switch {
		case m.Code >= 500:
			ev = logger.Error() //nolint:zerologlint // Msg for ev is called later
		case m.Code >= 400:
			ev = logger.Warn() //nolint:zerologlint // Msg for ev is called later
		case strings.HasPrefix(r.URL.Path, healthPath):
			ev = logger.Debug() //nolint:zerologlint // Msg for ev is called later
		default:
			ev = logger.Info() //nolint:zerologlint // Msg for ev is called later
		}

		ev.
			Int("status", m.Code).
			Int64("body_size", m.Written).
			Dur("elapsed_ms", m.Duration).
			Msg(http.StatusText(m.Code))
	}
}

func NewZerologRequestIdMiddleware() negroni.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		id, err := xid.FromString(r.Header.Get(RequestIDHeader))
		if err != nil {
			id = xid.New()
		}
		w.Header().Set(RequestIDHeader, id.String())

		logger := log.Ctx(r.Context()).With().Str("request_id", id.String()).Logger()
		next(w, r.WithContext(logger.WithContext(r.Context())))
	}
}

func NewZerologRequestDetailsMiddleware() negroni.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		remoteIP, _, _ := net.SplitHostPort(r.RemoteAddr)
		ctx := log.Ctx(r.Context()).With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", remoteIP).
			Str("user_agent", r.UserAgent())
		if r.Header.Get("Upgrade") == "websocket" {
			ctx = ctx.Bool("websocket", true)
		}
		logger := ctx.Logger()

		next(w, r.WithContext(logger.WithContext(r.Context())))
	}
}
