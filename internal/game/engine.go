// internal/game/engine.go
//
// Core game engine for a single session.
// Responsibilities:
//   - Create new games for a word length (3..5) with a target from a Dictionary.
//   - Maintain the in-progress guess buffer (enter/delete letters).
//   - Validate and apply guesses (complete buffer, accepted word).
//   - Track state transitions: in_progress → won/lost.
//
// Notes:
//   - Inputs outside their legal precondition are ignored, not errors.
//     Only a missing target or a broken dictionary produce errors.
//   - Status, outcomes and hints are derived from State on demand.
//   - A Game is not safe for concurrent use; the session layer serializes access.
package game

import (
	"fmt"
)

// Dictionary supplies targets and decides which guesses are accepted.
type Dictionary interface {
	PickTarget(length int) (string, error)
	IsAccepted(word string) bool
}

// Game is the state machine of one game.
type Game struct {
	words Dictionary
	state State
}

// New starts a game of the given length with a freshly picked target.
func New(words Dictionary, length int) (*Game, error) {
	g := &Game{words: words, state: DefaultState()}
	if err := g.StartNewGame(length); err != nil {
		return nil, err
	}
	return g, nil
}

// Restore resumes a game from a persisted state.
// A state without a target is accepted; call EnsureTarget before playing.
func Restore(words Dictionary, st State) (*Game, error) {
	if err := st.Validate(); err != nil {
		return nil, err
	}
	return &Game{words: words, state: st.Clone()}, nil
}

// State returns a copy of the current state for persistence.
func (g *Game) State() State { return g.state.Clone() }

// WordLength reports the letters per word of the current game.
func (g *Game) WordLength() int { return g.state.WordLength }

// Buffer returns the in-progress guess.
func (g *Game) Buffer() string { return g.state.Buffer }

// Guesses returns a copy of the submitted guesses.
func (g *Game) Guesses() []string { return append([]string(nil), g.state.Guesses...) }

// Status derives in_progress/won/lost from the history.
func (g *Game) Status() Status { return g.state.Status() }

// GuessesLeft is the number of submissions still available.
func (g *Game) GuessesLeft() int { return MaxGuesses - len(g.state.Guesses) }

// EnsureTarget picks a target if the state has none (fresh default sessions).
// It reports whether the state changed.
func (g *Game) EnsureTarget() (bool, error) {
	if g.state.Target != "" {
		return false, nil
	}
	t, err := g.words.PickTarget(g.state.WordLength)
	if err != nil {
		return false, err
	}
	g.state.Target = t
	return true, nil
}

// HasUnsavedProgress reports whether starting a new game would abandon a game
// in progress with at least one submitted guess.
func (g *Game) HasUnsavedProgress() bool {
	return g.Status() == StatusInProgress && len(g.state.Guesses) > 0
}

// EnterLetter appends r to the buffer. Lower case is accepted and
// canonicalized; anything but a-z/A-Z is ignored. It reports whether the
// buffer changed.
func (g *Game) EnterLetter(r rune) bool {
	if r >= 'a' && r <= 'z' {
		r -= 'a' - 'A'
	}
	if r < 'A' || r > 'Z' {
		return false
	}
	if g.Status() != StatusInProgress || len(g.state.Buffer) >= g.state.WordLength {
		return false
	}
	g.state.Buffer += string(r)
	return true
}

// DeleteLetter removes the last buffered letter. It reports whether the
// buffer changed.
func (g *Game) DeleteLetter() bool {
	if g.Status() != StatusInProgress || len(g.state.Buffer) == 0 {
		return false
	}
	g.state.Buffer = g.state.Buffer[:len(g.state.Buffer)-1]
	return true
}

// SubmitKind classifies what happened to a submission.
type SubmitKind string

const (
	// SubmitIgnored: finished game or incomplete buffer; nothing changed.
	SubmitIgnored SubmitKind = "ignored"
	// SubmitRejected: complete buffer that is not an accepted word; buffer kept.
	SubmitRejected SubmitKind = "not_in_word_list"
	// SubmitAccepted: the guess was appended to the history.
	SubmitAccepted SubmitKind = "accepted"
)

// SubmitResult describes the effect of SubmitGuess.
type SubmitResult struct {
	Kind     SubmitKind
	Guess    string
	Outcomes []Outcome // Set for accepted guesses.
	Status   Status    // Status after the submission.
	Reveal   string    // Target, set only on the transition into lost.
}

// SubmitGuess submits the buffer.
//
// Rules:
//   - Game must be in progress and the buffer complete, otherwise ignored.
//   - The buffer must be an accepted word, otherwise rejected (state unchanged).
//   - An accepted guess is appended, the buffer cleared, and the status
//     recomputed: won if it equals the target, lost once MaxGuesses are used.
func (g *Game) SubmitGuess() (SubmitResult, error) {
	st := g.Status()
	if st != StatusInProgress || len(g.state.Buffer) != g.state.WordLength {
		return SubmitResult{Kind: SubmitIgnored, Status: st}, nil
	}
	if g.state.Target == "" {
		return SubmitResult{Kind: SubmitIgnored, Status: st}, ErrNoTarget
	}
	guess := g.state.Buffer
	if !g.words.IsAccepted(guess) {
		return SubmitResult{Kind: SubmitRejected, Guess: guess, Status: st}, nil
	}

	marks, err := Score(guess, g.state.Target)
	if err != nil {
		return SubmitResult{Kind: SubmitIgnored, Status: st}, fmt.Errorf("score %q: %w", guess, err)
	}
	g.state.Guesses = append(g.state.Guesses, guess)
	g.state.Buffer = ""

	res := SubmitResult{Kind: SubmitAccepted, Guess: guess, Outcomes: marks, Status: g.Status()}
	if res.Status == StatusLost {
		res.Reveal = g.state.Target
	}
	return res, nil
}

// StartNewGame resets the game with a new target of the given length.
// It is unconditional; callers gate it on HasUnsavedProgress.
// On error the current game is left untouched.
func (g *Game) StartNewGame(length int) error {
	if !SupportedLength(length) {
		return fmt.Errorf("%w: %d", ErrUnsupportedLength, length)
	}
	t, err := g.words.PickTarget(length)
	if err != nil {
		return fmt.Errorf("pick target: %w", err)
	}
	g.state = State{WordLength: length, Target: t}
	return nil
}

// Outcomes scores every submitted guess, in submission order.
func (g *Game) Outcomes() [][]Outcome {
	out := make([][]Outcome, 0, len(g.state.Guesses))
	for _, guess := range g.state.Guesses {
		marks, err := Score(guess, g.state.Target)
		if err != nil {
			marks = make([]Outcome, len(guess))
		}
		out = append(out, marks)
	}
	return out
}

// Hints aggregates keyboard hints over the history.
func (g *Game) Hints() HintMap { return Hints(g.state.Guesses, g.state.Target) }

// Reveal returns the target once the game is lost.
func (g *Game) Reveal() (string, bool) {
	if g.Status() != StatusLost {
		return "", false
	}
	return g.state.Target, true
}

// RevealNow returns the target on explicit request, regardless of status.
func (g *Game) RevealNow() string { return g.state.Target }
