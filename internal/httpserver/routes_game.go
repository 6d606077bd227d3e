// internal/httpserver/routes_game.go
//
// HTTP routes for playing a game. Every route returns the session View:
//   - GET  /game?keyboard=abc|qwerty → current state
//   - POST /game/letter  {"letter":"a"}
//   - POST /game/delete
//   - POST /game/submit
//   - POST /game/new     {"length":4}
//   - POST /game/confirm {"confirm":true}
//   - POST /game/reveal
//
// Gameplay conditions (word not in list, confirmation needed) are reported in
// the View's "notice" field with 200 OK; only malformed input and server
// failures are errors.

package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/robalobadob/wordle-kids/internal/game"
	"github.com/robalobadob/wordle-kids/internal/session"
)

const maxBodyBytes = 1 << 10

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.Snapshot(r.Context(), sessionID(r))
	s.respond(w, r, v, err)
}

func (s *Server) handleLetter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Letter string `json:"letter"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.apply(w, r, session.Event{Type: session.EventLetter, Letter: req.Letter})
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Length int `json:"length"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Length == 0 {
		req.Length = game.DefaultWordLength
	}
	s.apply(w, r, session.Event{Type: session.EventNewGame, Length: req.Length})
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Confirm bool `json:"confirm"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.apply(w, r, session.Event{Type: session.EventConfirm, Confirm: req.Confirm})
}

// handleEvent serves events without a body.
func (s *Server) handleEvent(t session.EventType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.apply(w, r, session.Event{Type: t})
	}
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request, ev session.Event) {
	v, err := s.svc.Apply(r.Context(), sessionID(r), ev)
	s.respond(w, r, v, err)
}

// respond writes the view with the requested keyboard, or maps err.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, v session.View, err error) {
	if err != nil {
		status, code := errorStatus(err)
		if status >= http.StatusInternalServerError {
			s.log.Error().Err(err).Str("session", sessionID(r)).Msg("game request failed")
		}
		writeError(w, status, code)
		return
	}
	withKeyboard(&v, r.URL.Query().Get("keyboard"))
	writeJSON(w, http.StatusOK, v)
}

// withKeyboard fills the on-screen keyboard for the requested style.
func withKeyboard(v *session.View, style string) {
	v.Keyboard = game.Layout(game.ParseKeyboardStyle(style), v.Hints)
}

// errorStatus maps service errors to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, game.ErrUnsupportedLength):
		return http.StatusBadRequest, "unsupported_length"
	case errors.Is(err, session.ErrUnknownEvent):
		return http.StatusBadRequest, "unknown_event"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}

// decodeBody parses an optional JSON body; an empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_json")
		return false
	}
	return true
}
