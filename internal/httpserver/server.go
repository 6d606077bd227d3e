// internal/httpserver/server.go
//
// HTTP server wiring for the word game backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs,
//     request logging).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - Game endpoints under /game (session cookie or bearer token), including
//     the WebSocket event stream at /game/ws.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Every /game request is bound to a session; a new one is issued when the
//     request carries none or an invalid one.
//   - The WebSocket route is mounted outside the request timeout.

package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/robalobadob/wordle-kids/internal/session"
	"github.com/robalobadob/wordle-kids/internal/words"
)

// WordStats reports word list sizes for diagnostics.
type WordStats interface {
	Stats() map[int]words.Count
}

// Options configures a Server.
type Options struct {
	ClientOrigin   string
	RequestTimeout time.Duration
	Logger         zerolog.Logger
}

// Server bundles the router, the session service, and the session cookies.
type Server struct {
	r        *chi.Mux
	svc      *session.Service
	words    WordStats
	cookies  *Sessions
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// New constructs a Server, installs middleware, and registers routes.
func New(svc *session.Service, ws WordStats, cookies *Sessions, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.ClientOrigin == "" {
		opts.ClientOrigin = "http://localhost:5173"
	}
	s := &Server{
		r:       chi.NewRouter(),
		svc:     svc,
		words:   ws,
		cookies: cookies,
		log:     opts.Logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     sameOrAllowedOrigin(opts.ClientOrigin),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)         // add X-Request-ID
	s.r.Use(chimw.RealIP)            // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger(s.log))    // one line per request
	s.r.Use(chimw.Recoverer)         // recover from panics
	s.r.Use(jsonContentType)         // default JSON responses
	s.r.Use(cors(opts.ClientOrigin)) // credentials-friendly CORS

	// --- diagnostics ---
	s.r.With(chimw.Timeout(opts.RequestTimeout)).Group(func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"wordle-kids","endpoints":["/health","/debug/words","GET /game","POST /game/{letter,delete,submit,new,confirm,reveal}","GET /game/ws"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/debug/words", s.handleWordStats)
	})

	// --- game ---
	s.r.Route("/game", func(r chi.Router) {
		r.Use(s.withSession)
		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(opts.RequestTimeout)) // bound handler time
			r.Get("/", s.handleState)
			r.Post("/letter", s.handleLetter)
			r.Post("/delete", s.handleEvent(session.EventDelete))
			r.Post("/submit", s.handleEvent(session.EventSubmit))
			r.Post("/new", s.handleNewGame)
			r.Post("/confirm", s.handleConfirm)
			r.Post("/reveal", s.handleEvent(session.EventReveal))
		})
		r.Get("/ws", s.handleWS) // long-lived; no request timeout
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// handleWordStats reports target/accepted counts per word length.
func (s *Server) handleWordStats(w http.ResponseWriter, r *http.Request) {
	out := map[string]words.Count{}
	for n, c := range s.words.Stats() {
		out[strconv.Itoa(n)] = c
	}
	writeJSON(w, http.StatusOK, out)
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Expose-Headers", sessionHeader)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs method, path, status and duration of every request.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Debug().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Str("request_id", chimw.GetReqID(r.Context())).
					Msg("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// sameOrAllowedOrigin accepts WebSocket upgrades from the configured client
// origin, same-host pages, and non-browser clients that send no Origin.
func sameOrAllowedOrigin(allowed string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || origin == allowed {
			return true
		}
		return origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}

// ------------------------------ helpers ------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
