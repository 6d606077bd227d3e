package game

import (
	"bytes"
	"encoding/json"
)

// HintMap holds the best-known outcome of every letter A..Z.
type HintMap [26]Outcome

// Of returns the hint for letter r (either case). Non-letters are Unknown.
func (h HintMap) Of(r rune) Outcome {
	if r >= 'a' && r <= 'z' {
		r -= 'a' - 'A'
	}
	if r < 'A' || r > 'Z' {
		return Unknown
	}
	return h[r-'A']
}

// MarshalJSON encodes the map as {"A":"exact","B":"unknown",...}.
func (h HintMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, o := range h {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteByte(byte('A' + i))
		buf.WriteString(`":"`)
		buf.WriteString(o.String())
		buf.WriteByte('"')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the object form written by MarshalJSON.
func (h *HintMap) UnmarshalJSON(b []byte) error {
	var m map[string]Outcome
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*h = HintMap{}
	for k, o := range m {
		if len(k) == 1 && idx(k[0]) >= 0 {
			h[idx(k[0])] = o
		}
	}
	return nil
}

// Hints aggregates the outcomes of every guess into one hint per letter,
// keeping the strongest outcome seen: Exact > Present > Absent > Unknown.
// It is recomputed from scratch on every call; guesses whose length does not
// match target are skipped.
func Hints(guesses []string, target string) HintMap {
	var h HintMap
	for _, g := range guesses {
		marks, err := Score(g, target)
		if err != nil {
			continue
		}
		for i, m := range marks {
			j := idx(g[i])
			if j >= 0 && m > h[j] {
				h[j] = m
			}
		}
	}
	return h
}
