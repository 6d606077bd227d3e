// internal/session/service.go
//
// Session service: the single owner of every live game.
// Responsibilities:
//   - Resolve a session id to its game (cache → store → fresh default).
//   - Apply input events (letter, delete, submit, new game, confirm, reveal)
//     atomically per session and save every mutation before returning.
//   - Gate new games that would abandon progress behind a confirmation.
//   - Recover from corrupted persisted state with a fresh default game.
//
// Notes:
//   - Sessions are independent; each has its own mutex.
//   - The pending confirmation is transient and never persisted.
//   - Idle sessions are dropped from memory by EvictIdle / RunJanitor; the
//     next request reloads them from the store.
//   - A failed save rolls the live game back to its last saved state.

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/robalobadob/wordle-kids/internal/game"
	"github.com/robalobadob/wordle-kids/internal/store"
	"github.com/robalobadob/wordle-kids/internal/words"
)

var ErrUnknownEvent = errors.New("unknown event")

// EventType names an input event.
type EventType string

const (
	EventLetter  EventType = "letter"
	EventDelete  EventType = "delete"
	EventSubmit  EventType = "submit"
	EventNewGame EventType = "new_game"
	EventConfirm EventType = "confirm_abandon"
	EventReveal  EventType = "reveal"
)

// Event is one discrete input from the player.
type Event struct {
	Type    EventType `json:"type"`
	Letter  string    `json:"letter,omitempty"`  // letter
	Length  int       `json:"length,omitempty"`  // new_game
	Confirm bool      `json:"confirm,omitempty"` // confirm_abandon
}

// Notices are transient signals for the presentation layer.
const (
	NoticeNotInWordList   = "not_in_word_list"
	NoticeConfirmRequired = "confirm_required"
	NoticeRevealed        = "revealed"
)

// Service owns the live games of all sessions.
type Service struct {
	store store.Store
	words game.Dictionary
	log   zerolog.Logger

	mu       sync.Mutex // guards sessions
	sessions map[string]*live
	now      func() time.Time
}

// live is one session's game plus its transient confirmation request.
type live struct {
	mu       sync.Mutex
	game     *game.Game
	pending  int       // requested word length awaiting confirmation, 0 if none
	lastUsed time.Time // guarded by Service.mu
	evicted  bool      // set under both locks; holders must re-acquire
}

// NewService constructs a Service.
func NewService(st store.Store, dict game.Dictionary, logger zerolog.Logger) *Service {
	return &Service{
		store:    st,
		words:    dict,
		log:      logger,
		sessions: make(map[string]*live),
		now:      time.Now,
	}
}

// acquire returns the locked live session, loading it on first use.
// The caller must unlock l.mu.
func (s *Service) acquire(ctx context.Context, id string) (*live, error) {
	var l *live
	for {
		s.mu.Lock()
		var ok bool
		l, ok = s.sessions[id]
		if !ok {
			l = &live{}
			s.sessions[id] = l
		}
		l.lastUsed = s.now()
		s.mu.Unlock()

		l.mu.Lock()
		if !l.evicted {
			break
		}
		// Evicted between lookup and lock; retry with a fresh entry.
		l.mu.Unlock()
	}
	if l.game == nil {
		g, err := s.load(ctx, id)
		if err != nil {
			l.mu.Unlock()
			return nil, err
		}
		l.game = g
	}
	return l, nil
}

// load restores a session from the store. Missing or corrupted records
// become a fresh default game; a target is assigned lazily here.
func (s *Service) load(ctx context.Context, id string) (*game.Game, error) {
	dirty := false
	st, err := s.store.Load(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		st = game.DefaultState()
	case errors.Is(err, store.ErrCorruptedState):
		s.log.Warn().Err(err).Str("session", id).Msg("discarding corrupted game state")
		st, dirty = game.DefaultState(), true
	default:
		return nil, fmt.Errorf("load session: %w", err)
	}

	g, err := game.Restore(s.words, st)
	if err != nil {
		s.log.Warn().Err(err).Str("session", id).Msg("discarding invalid game state")
		if g, err = game.Restore(s.words, game.DefaultState()); err != nil {
			return nil, err
		}
		dirty = true
	}
	picked, err := g.EnsureTarget()
	if err != nil {
		return nil, fmt.Errorf("pick target: %w", err)
	}
	if picked || dirty {
		if err := s.store.Save(ctx, id, g.State()); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
	}
	return g, nil
}

// Snapshot returns the current view of a session.
func (s *Service) Snapshot(ctx context.Context, id string) (View, error) {
	l, err := s.acquire(ctx, id)
	if err != nil {
		return View{}, err
	}
	defer l.mu.Unlock()
	return l.view(), nil
}

// Apply processes one event and returns the resulting view.
// Gameplay conditions (full buffer, unknown word, finished game) are reported
// through the view, never as errors.
func (s *Service) Apply(ctx context.Context, id string, ev Event) (View, error) {
	l, err := s.acquire(ctx, id)
	if err != nil {
		return View{}, err
	}
	defer l.mu.Unlock()

	g := l.game
	saved := g.State()
	pending := l.pending
	l.pending = 0

	var (
		changed bool
		notice  string
		reveal  string
	)
	switch ev.Type {
	case EventLetter:
		if r, ok := words.Letter(ev.Letter); ok {
			changed = g.EnterLetter(r)
		}

	case EventDelete:
		changed = g.DeleteLetter()

	case EventSubmit:
		res, err := g.SubmitGuess()
		if err != nil {
			return View{}, err
		}
		switch res.Kind {
		case game.SubmitRejected:
			notice = NoticeNotInWordList
		case game.SubmitAccepted:
			changed = true
			if res.Status.Finished() {
				s.log.Info().Str("session", id).Str("status", string(res.Status)).
					Int("guesses", len(g.Guesses())).Msg("game finished")
			}
		}

	case EventNewGame:
		if !game.SupportedLength(ev.Length) {
			return View{}, fmt.Errorf("%w: %d", game.ErrUnsupportedLength, ev.Length)
		}
		if g.HasUnsavedProgress() {
			l.pending = ev.Length
			notice = NoticeConfirmRequired
			break
		}
		if err := g.StartNewGame(ev.Length); err != nil {
			return View{}, err
		}
		changed = true

	case EventConfirm:
		if pending == 0 || !ev.Confirm {
			break
		}
		if err := g.StartNewGame(pending); err != nil {
			return View{}, err
		}
		changed = true

	case EventReveal:
		reveal = g.RevealNow()
		notice = NoticeRevealed

	default:
		return View{}, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}

	if changed {
		if err := s.store.Save(ctx, id, g.State()); err != nil {
			if prev, rerr := game.Restore(s.words, saved); rerr == nil {
				l.game = prev
			}
			l.pending = pending
			return View{}, fmt.Errorf("save session: %w", err)
		}
	}

	v := l.view()
	v.Notice = notice
	if reveal != "" {
		v.Target = reveal
	}
	return v, nil
}

// Len reports how many sessions are held in memory.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// EvictIdle drops sessions unused for at least maxIdle. Sessions busy with a
// request are skipped. Returns the number evicted.
func (s *Service) EvictIdle(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for id, l := range s.sessions {
		if now.Sub(l.lastUsed) < maxIdle || !l.mu.TryLock() {
			continue
		}
		l.evicted = true
		delete(s.sessions, id)
		l.mu.Unlock()
		n++
	}
	return n
}

// RunJanitor evicts idle sessions every interval until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictIdle(maxIdle); n > 0 {
				s.log.Debug().Int("evicted", n).Int("live", s.Len()).Msg("idle sessions evicted")
			}
		}
	}
}
