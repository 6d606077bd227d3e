// internal/httpserver/sessions.go
//
// Session identity for game requests.
// Responsibilities:
//   - Sign and verify session tokens (HS256 JWT, subject = session uuid).
//   - Read the token from "Authorization: Bearer" or the session cookie.
//   - Issue a fresh session when the request carries no valid token.
//
// Notes:
//   - The signing key is derived from SESSION_SECRET with HKDF-SHA256. With no
//     secret a random key is used and sessions do not survive a restart.

package httpserver

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

// sessionHeader carries a newly issued token for non-browser clients.
const sessionHeader = "X-Session-Token"

const keyInfo = "wordle-kids session token v1"

var errInvalidToken = errors.New("invalid session token")

// SessionOptions configures session tokens and cookies.
type SessionOptions struct {
	Secret     string
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Sessions issues and verifies session tokens.
type Sessions struct {
	key    []byte
	name   string
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewSessions derives the signing key and returns a Sessions.
func NewSessions(opts SessionOptions) (*Sessions, error) {
	secret := []byte(opts.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("random session secret: %w", err)
		}
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}
	if opts.CookieName == "" {
		opts.CookieName = "wordle_session"
	}
	if opts.TTL <= 0 {
		opts.TTL = 30 * 24 * time.Hour
	}
	return &Sessions{
		key:    key,
		name:   opts.CookieName,
		ttl:    opts.TTL,
		secure: opts.Secure,
		now:    time.Now,
	}, nil
}

// Sign returns a token for the session id.
func (s *Sessions) Sign(id string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	ss, err := token.SignedString(s.key)
	return ss, exp, err
}

// Verify returns the session id carried by a valid token.
func (s *Sessions) Verify(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return "", errInvalidToken
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", errInvalidToken
	}
	return claims.Subject, nil
}

// fromRequest extracts a token from the Authorization header or cookie.
func (s *Sessions) fromRequest(r *http.Request) string {
	// Authorization: Bearer <token>
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.name); err == nil {
		return c.Value
	}
	return ""
}

// Resolve returns the request's session id, issuing a new session (cookie and
// header) when the request has none or an invalid one.
func (s *Sessions) Resolve(w http.ResponseWriter, r *http.Request) (string, error) {
	if tok := s.fromRequest(r); tok != "" {
		if id, err := s.Verify(tok); err == nil {
			return id, nil
		}
	}
	id := uuid.NewString()
	tok, exp, err := s.Sign(id)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	s.setCookie(w, tok, exp)
	w.Header().Set(sessionHeader, tok)
	return id, nil
}

func (s *Sessions) setCookie(w http.ResponseWriter, token string, exp time.Time) {
	sameSite := http.SameSiteLaxMode
	if s.secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

type ctxSessionKey struct{}

// withSession binds every request to a session id.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := s.cookies.Resolve(w, r)
		if err != nil {
			s.log.Error().Err(err).Msg("resolve session")
			writeError(w, http.StatusInternalServerError, "session_failed")
			return
		}
		ctx := context.WithValue(r.Context(), ctxSessionKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionID returns the id stored by withSession.
func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(ctxSessionKey{}).(string)
	return id
}
