// internal/httpserver/ws.go
//
// WebSocket transport for game events.
// Client → server: {"type":"letter","letter":"a"}, {"type":"submit"},
// {"type":"new_game","length":4}, {"type":"confirm_abandon","confirm":true},
// {"type":"delete"}, {"type":"reveal"}, {"type":"state"}, {"type":"ping"}.
// Server → client: {"type":"state","payload":View,"timestamp":...},
// {"type":"error","payload":{"code":...},"timestamp":...} or "pong".
//
// One read pump applies events in order; one write pump owns all writes and
// keeps the connection alive with pings.

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/robalobadob/wordle-kids/internal/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait).
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	sendBufferSize = 16

	// Time allowed for one event, store write included.
	eventTimeout = 5 * time.Second
)

// Message types beyond the session event types.
const (
	msgState = "state"
	msgError = "error"
	msgPing  = "ping"
	msgPong  = "pong"
)

// wsRequest is a client message: a session event plus the keyboard style.
type wsRequest struct {
	session.Event
	Keyboard string `json:"keyboard,omitempty"`
}

// wsMessage is a server message.
type wsMessage struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp string `json:"timestamp"`
}

type wsError struct {
	Code string `json:"code"`
}

func newMessage(t string, payload any) wsMessage {
	return wsMessage{Type: t, Payload: payload, Timestamp: time.Now().UTC().Format(time.RFC3339)}
}

// wsClient is one WebSocket connection bound to a session.
type wsClient struct {
	conn     *websocket.Conn
	svc      *session.Service
	id       string
	keyboard string
	send     chan []byte
	done     chan struct{}
	log      zerolog.Logger
	once     sync.Once
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, handshakeHeader(w.Header()))
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &wsClient{
		conn:     conn,
		svc:      s.svc,
		id:       sessionID(r),
		keyboard: r.URL.Query().Get("keyboard"),
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		log:      s.log.With().Str("session", sessionID(r)).Logger(),
	}
	c.log.Debug().Msg("websocket connected")
	c.run()
}

// handshakeHeader carries a session issued by withSession into the upgrade
// response; Upgrade ignores headers already set on the ResponseWriter.
func handshakeHeader(h http.Header) http.Header {
	out := http.Header{}
	for _, k := range []string{"Set-Cookie", sessionHeader} {
		for _, v := range h.Values(k) {
			out.Add(k, v)
		}
	}
	return out
}

// run sends the initial state and pumps until the connection ends.
func (c *wsClient) run() {
	go c.writePump()
	c.handle(wsRequest{Event: session.Event{Type: msgState}})
	c.readPump()
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
		c.log.Debug().Msg("websocket closed")
	})
}

// readPump applies client messages in order.
func (c *wsClient) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Msg("websocket read error")
			}
			return
		}
		var req wsRequest
		if err := json.Unmarshal(data, &req); err != nil {
			c.push(newMessage(msgError, wsError{Code: "bad_json"}))
			continue
		}
		c.handle(req)
	}
}

// handle applies one request and queues the reply.
func (c *wsClient) handle(req wsRequest) {
	if req.Keyboard != "" {
		c.keyboard = req.Keyboard
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	var (
		v   session.View
		err error
	)
	switch string(req.Type) {
	case msgPing:
		c.push(newMessage(msgPong, nil))
		return
	case msgState:
		v, err = c.svc.Snapshot(ctx, c.id)
	default:
		v, err = c.svc.Apply(ctx, c.id, req.Event)
	}
	if err != nil {
		status, code := errorStatus(err)
		if status >= http.StatusInternalServerError {
			c.log.Error().Err(err).Msg("websocket event failed")
		}
		c.push(newMessage(msgError, wsError{Code: code}))
		return
	}
	withKeyboard(&v, c.keyboard)
	c.push(newMessage(msgState, v))
}

// push queues a message, dropping it if the client is not keeping up.
func (c *wsClient) push(m wsMessage) {
	data, err := json.Marshal(m)
	if err != nil {
		c.log.Error().Err(err).Msg("encode websocket message")
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	default:
		c.log.Warn().Msg("send buffer full, message dropped")
	}
}

// writePump owns all writes to the connection.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
