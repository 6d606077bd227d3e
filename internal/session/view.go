package session

import "github.com/robalobadob/wordle-kids/internal/game"

// View is everything a presentation layer needs to draw a session.
type View struct {
	WordLength      int          `json:"wordLength"`
	MaxGuesses      int          `json:"maxGuesses"`
	GuessesLeft     int          `json:"guessesLeft"`
	Buffer          string       `json:"buffer"`
	Guesses         []GuessView  `json:"guesses"`
	Hints           game.HintMap `json:"hints"`
	Keyboard        [][]game.Key `json:"keyboard,omitempty"`
	Status          game.Status  `json:"status"`
	Reveal          bool         `json:"reveal"`           // target shown because the game was lost
	Target          string       `json:"target,omitempty"` // only on loss or explicit reveal
	UnsavedProgress bool         `json:"unsavedProgress"`
	ConfirmPending  int          `json:"confirmPending,omitempty"` // word length awaiting confirmation
	Notice          string       `json:"notice,omitempty"`
}

// GuessView is one submitted guess with its per-letter outcomes.
type GuessView struct {
	Word     string         `json:"word"`
	Outcomes []game.Outcome `json:"outcomes"`
}

// view renders the live game; l.mu must be held.
func (l *live) view() View {
	g := l.game
	guesses := g.Guesses()
	outcomes := g.Outcomes()
	gv := make([]GuessView, len(guesses))
	for i, w := range guesses {
		gv[i] = GuessView{Word: w, Outcomes: outcomes[i]}
	}

	v := View{
		WordLength:      g.WordLength(),
		MaxGuesses:      game.MaxGuesses,
		GuessesLeft:     g.GuessesLeft(),
		Buffer:          g.Buffer(),
		Guesses:         gv,
		Hints:           g.Hints(),
		Status:          g.Status(),
		UnsavedProgress: g.HasUnsavedProgress(),
		ConfirmPending:  l.pending,
	}
	if target, ok := g.Reveal(); ok {
		v.Reveal = true
		v.Target = target
	}
	return v
}
