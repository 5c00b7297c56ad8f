package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	errs "github.com/techagentng/firesafe/errors"
	"github.com/techagentng/firesafe/eventbus"
	"github.com/techagentng/firesafe/server/response"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	realtimeBuffer = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleRealtime streams every event published on one bus channel to the
// connected dashboard. Events are dropped for a client that falls more than
// realtimeBuffer events behind.
func (s *Server) handleRealtime() gin.HandlerFunc {
	return func(c *gin.Context) {
		channel := c.Param("channel")
		if !eventbus.ValidChannel(channel) {
			response.HandleErrors(c, errs.NewWithCode("unknown channel "+channel, errs.CodeValidation, http.StatusBadRequest))
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			s.Log.WithError(err).Warn("websocket upgrade failed")
			return
		}
		defer conn.Close()

		events := make(chan eventbus.Event, realtimeBuffer)
		unsubscribe := s.Bus.Subscribe(eventbus.Channel(channel), func(evt eventbus.Event) {
			select {
			case events <- evt:
			default:
				s.Log.WithField("channel", channel).Warn("realtime client is slow, dropping event")
			}
		})
		defer unsubscribe()

		// The read loop only serves control frames and notices the close.
		closed := make(chan struct{})
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-closed:
				return
			case evt := <-events:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(evt); err != nil {
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}
