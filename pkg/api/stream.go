package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tauraamui/scandaemon/pkg/log"
)

const writeWait = 10 * time.Second

// streamState pushes the session state to the client every time it
// changes until either side goes away.
func (h *handler) streamState(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Unable to upgrade stream for camera [%s]: %v", sess.Title(), err)
		return
	}
	defer c.Close()

	states, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log.Debug("Streaming state of camera [%s] to %s", sess.Title(), r.RemoteAddr)
	for {
		select {
		case <-gone:
			return
		case st, ok := <-states:
			if !ok {
				return
			}
			msg, err := json.Marshal(st)
			if err != nil {
				log.Error("Unable to encode state for camera [%s]: %v", sess.Title(), err)
				continue
			}
			c.SetWriteDeadline(time.Now().Add(writeWait)) //nolint
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug("Stopped streaming camera [%s]: %v", sess.Title(), err)
				return
			}
		}
	}
}
