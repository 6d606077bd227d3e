package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/robalobadob/wordle-kids/internal/game"
)

// record is the persisted shape of a session.
// Status is a convenience cache; it is recomputed on load.
type record struct {
	WordLength int         `json:"wordLength"`
	Target     string      `json:"target"`
	Guesses    []string    `json:"guesses"`
	Buffer     string      `json:"buffer"`
	Status     game.Status `json:"status"`
	SavedAt    time.Time   `json:"savedAt"`
}

// EncodeRecord serializes st.
func EncodeRecord(st game.State, now time.Time) ([]byte, error) {
	guesses := st.Guesses
	if guesses == nil {
		guesses = []string{}
	}
	return json.Marshal(record{
		WordLength: st.WordLength,
		Target:     st.Target,
		Guesses:    guesses,
		Buffer:     st.Buffer,
		Status:     st.Status(),
		SavedAt:    now.UTC(),
	})
}

// DecodeRecord parses and validates a record. Any failure wraps ErrCorruptedState.
func DecodeRecord(b []byte) (game.State, error) {
	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		return game.State{}, fmt.Errorf("%w: %v", ErrCorruptedState, err)
	}
	st := game.State{
		WordLength: r.WordLength,
		Target:     r.Target,
		Buffer:     r.Buffer,
	}
	if len(r.Guesses) > 0 {
		st.Guesses = r.Guesses
	}
	if err := st.Validate(); err != nil {
		return game.State{}, fmt.Errorf("%w: %v", ErrCorruptedState, err)
	}
	return st, nil
}
