package apps

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shapeblock/shapeblock-api/api/fanout"
	"github.com/shapeblock/shapeblock-api/api/orchestrator"
)

// LogsSince is how far back the logs sent on connect reach.
const LogsSince = 300 * time.Second

const logWriteWait = 10 * time.Second

// LogMessage is a log line sent to pod log websockets
type LogMessage struct {
	Message string `json:"message"`
}

// ServePodLogs upgrades the request and streams the logs of the pod of an
// app of user to the connection. Unknown and foreign apps are answered
// before the upgrade.
func (h *Handler) ServePodLogs(w http.ResponseWriter, r *http.Request, user, id string) error {
	app, project, err := h.getApp(r.Context(), user, id)
	if err != nil {
		return err
	}
	logger := log.Ctx(r.Context()).With().Str("app_id", app.ID).Logger()

	conn, err := fanout.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return nil
	}
	defer conn.Close()

	ctx, done := fanout.KeepAlive(r.Context(), conn)
	defer done()

	send := func(line string) error {
		_ = conn.SetWriteDeadline(time.Now().Add(logWriteWait))
		return conn.WriteJSON(LogMessage{Message: line + "\n"})
	}
	err = h.logs.FollowLogs(ctx, app, project, LogsSince, send)
	switch {
	case errors.Is(err, orchestrator.ErrNoPod):
		_ = send("No running pod found for app " + app.Name)
	case err != nil && ctx.Err() == nil:
		logger.Warn().Err(err).Msg("failed to follow pod logs")
	}
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(logWriteWait))
	return nil
}
