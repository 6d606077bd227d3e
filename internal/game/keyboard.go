package game

// KeyboardStyle selects the on-screen key arrangement.
type KeyboardStyle string

const (
	KeyboardABC    KeyboardStyle = "abc"
	KeyboardQWERTY KeyboardStyle = "qwerty"
)

// ParseKeyboardStyle maps a user preference to a style; anything unknown is ABC.
func ParseKeyboardStyle(s string) KeyboardStyle {
	if KeyboardStyle(s) == KeyboardQWERTY {
		return KeyboardQWERTY
	}
	return KeyboardABC
}

// KeyAction is what pressing a key does.
type KeyAction string

const (
	ActionLetter KeyAction = "letter"
	ActionSubmit KeyAction = "submit"
	ActionDelete KeyAction = "delete"
)

// Key is one decorated key of the on-screen keyboard.
type Key struct {
	Label  string    `json:"label"`
	Action KeyAction `json:"action"`
	Hint   Outcome   `json:"hint"`
}

var layouts = map[KeyboardStyle][]string{
	KeyboardABC:    {"ABCDEFGHIJ", "KLMNOPQRS", "TUVWXYZ"},
	KeyboardQWERTY: {"QWERTYUIOP", "ASDFGHJKL", "ZXCVBNM"},
}

// Layout returns the key rows for style with each letter key carrying its
// hint. The last row is framed by the submit and delete keys.
func Layout(style KeyboardStyle, hints HintMap) [][]Key {
	rows := layouts[ParseKeyboardStyle(string(style))]
	out := make([][]Key, 0, len(rows))
	for i, row := range rows {
		keys := make([]Key, 0, len(row)+2)
		if i == len(rows)-1 {
			keys = append(keys, Key{Label: "ENTER", Action: ActionSubmit})
		}
		for _, r := range row {
			keys = append(keys, Key{Label: string(r), Action: ActionLetter, Hint: hints.Of(r)})
		}
		if i == len(rows)-1 {
			keys = append(keys, Key{Label: "DELETE", Action: ActionDelete})
		}
		out = append(out, keys)
	}
	return out
}
