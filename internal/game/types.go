// internal/game/types.go
//
// Core type definitions for the game engine.
// Defines:
//   - Outcome: per-letter result of a guess (exact/present/absent) plus the
//     "unknown" value used by keyboard hints.
//   - Status: derived progress of a game (in_progress/won/lost).
//   - State: the persisted unit of a single game.

package game

import (
	"errors"
	"fmt"
)

const (
	// MaxGuesses bounds the guess history of a single game.
	MaxGuesses = 6

	// DefaultWordLength is used for sessions without a persisted game.
	DefaultWordLength = 3

	// MinWordLength is the shortest playable word.
	MinWordLength = 3
	// MaxWordLength is the longest playable word.
	MaxWordLength = 5
)

var (
	// ErrUnsupportedLength is returned for word lengths outside Min..MaxWordLength.
	ErrUnsupportedLength = errors.New("unsupported word length")
	// ErrLengthMismatch is returned by Score when guess and target differ in length.
	ErrLengthMismatch    = errors.New("guess and target lengths differ")
	// ErrNoTarget is returned when a guess is submitted before a target is picked.
	ErrNoTarget          = errors.New("no target picked")
	// ErrInvalidState wraps every State.Validate failure.
	ErrInvalidState      = errors.New("invalid game state")
)

// SupportedLength reports whether n is a playable word length.
func SupportedLength(n int) bool {
	return n >= MinWordLength && n <= MaxWordLength
}

// Outcome is the evaluation of a single letter.
// The numeric order is the hint dominance order:
// Unknown < Absent < Present < Exact.
type Outcome uint8

const (
	Unknown Outcome = iota
	Absent
	Present
	Exact
)

func (o Outcome) String() string {
	switch o {
	case Absent:
		return "absent"
	case Present:
		return "present"
	case Exact:
		return "exact"
	default:
		return "unknown"
	}
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an outcome name.
func (o *Outcome) UnmarshalText(b []byte) error {
	switch string(b) {
	case "unknown":
		*o = Unknown
	case "absent":
		*o = Absent
	case "present":
		*o = Present
	case "exact":
		*o = Exact
	default:
		return fmt.Errorf("unknown outcome %q", b)
	}
	return nil
}

// Status represents the coarse progress of a game.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusWon        Status = "won"
	StatusLost       Status = "lost"
)

// Finished reports whether no further guesses are accepted.
func (s Status) Finished() bool { return s == StatusWon || s == StatusLost }

// State holds everything needed to resume a game.
// Target is empty only for a fresh default state that has not been played yet.
type State struct {
	WordLength int      // Letters per word (3..5).
	Target     string   // Secret word, uppercase A-Z.
	Guesses    []string // Submitted guesses in submission order.
	Buffer     string   // In-progress, unsubmitted letters.
}

// DefaultState is the state of a session that has never played.
func DefaultState() State {
	return State{WordLength: DefaultWordLength}
}

// Status derives the game status from the history and target.
func (s State) Status() Status {
	n := len(s.Guesses)
	if n > 0 && s.Target != "" && s.Guesses[n-1] == s.Target {
		return StatusWon
	}
	if n >= MaxGuesses {
		return StatusLost
	}
	return StatusInProgress
}

// Clone returns a copy that shares no memory with s.
func (s State) Clone() State {
	c := s
	c.Guesses = append([]string(nil), s.Guesses...)
	return c
}

// Validate checks the invariants a persisted state must satisfy.
// Every violation wraps ErrInvalidState.
func (s State) Validate() error {
	if !SupportedLength(s.WordLength) {
		return fmt.Errorf("%w: word length %d", ErrInvalidState, s.WordLength)
	}
	if s.Target == "" {
		if len(s.Guesses) > 0 {
			return fmt.Errorf("%w: guesses without a target", ErrInvalidState)
		}
	} else if len(s.Target) != s.WordLength || !isUpperAlpha(s.Target) {
		return fmt.Errorf("%w: target %q", ErrInvalidState, s.Target)
	}
	if len(s.Guesses) > MaxGuesses {
		return fmt.Errorf("%w: %d guesses", ErrInvalidState, len(s.Guesses))
	}
	for i, g := range s.Guesses {
		if len(g) != s.WordLength || !isUpperAlpha(g) {
			return fmt.Errorf("%w: guess %d %q", ErrInvalidState, i, g)
		}
		if g == s.Target && i != len(s.Guesses)-1 {
			return fmt.Errorf("%w: guess after a win", ErrInvalidState)
		}
	}
	if len(s.Buffer) > s.WordLength || !isUpperAlpha(s.Buffer) {
		return fmt.Errorf("%w: buffer %q", ErrInvalidState, s.Buffer)
	}
	if s.Buffer != "" && s.Status().Finished() {
		return fmt.Errorf("%w: buffer on a finished game", ErrInvalidState)
	}
	return nil
}

// isUpperAlpha reports whether s consists only of A-Z.
func isUpperAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}
