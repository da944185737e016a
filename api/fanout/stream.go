package fanout

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Upgrader accepts websocket connections from any origin. Clients
// authenticate with a bearer token, never with cookies.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// ServeWebsocket upgrades the request and writes every event of topic to the
// connection as a JSON text message until either side goes away.
func ServeWebsocket(broker *Broker, w http.ResponseWriter, r *http.Request, topic string) {
	logger := log.Ctx(r.Context()).With().Str("topic", topic).Logger()
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := broker.Subscribe(topic)
	defer sub.Close()

	ctx, done := KeepAlive(r.Context(), conn)
	defer done()

	logger.Debug().Msg("websocket subscribed")
	for {
		event, ok := sub.Next(ctx)
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(event); err != nil {
			logger.Debug().Err(err).Msg("websocket write failed")
			return
		}
	}
}

// ServeSSE writes every event of topic as a server sent event until the
// client disconnects.
func ServeSSE(broker *Broker, w http.ResponseWriter, r *http.Request, topic string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	sub := broker.Subscribe(topic)
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		event, ok := sub.Next(r.Context())
		if !ok {
			return nil
		}
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
			return nil
		}
		flusher.Flush()
	}
}
