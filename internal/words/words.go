// internal/words/words.go
//
// Provides word list management for the game engine.
//
// Responsibilities:
//   - Load target and accepted-guess lists per word length from a YAML file,
//     a directory of text files, or the embedded defaults.
//   - Maintain per-length target slices and one accepted-guess set.
//   - Pick uniformly random targets and answer dictionary membership.
//
// Word Lists:
//   - "targets": words that may be chosen as the secret word.
//   - "accepted": valid guesses; every target is accepted as well.
//
// Load behavior:
//   1. The embedded assets/words.yaml is the base.
//   2. If Options.File is set, that YAML document replaces the base.
//   3. If Options.Dir is set, targets_<n>.txt / accepted_<n>.txt files found
//      there replace the list of that length.
//
// Constraints:
//   • Words are width-folded, upper-cased, and must be A–Z only.
//   • A word is kept only under the length it actually has.
//   • A Source is read-only after construction and safe for concurrent use.

package words

import (
	"bufio"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/width"
	"gopkg.in/yaml.v3"

	"github.com/robalobadob/wordle-kids/assets"
	"github.com/robalobadob/wordle-kids/internal/game"
)

// ErrNoWordsAvailable means a length has no target population.
var ErrNoWordsAvailable = errors.New("no words available")

// Lists is the raw, per-length shape of a word list document.
type Lists struct {
	Targets  map[int][]string `yaml:"targets"`
	Accepted map[int][]string `yaml:"accepted"`
}

// Options selects where word lists are loaded from.
type Options struct {
	File string // YAML document replacing the embedded defaults.
	Dir  string // Directory with targets_<n>.txt / accepted_<n>.txt overrides.
}

// Source answers target and acceptance queries.
type Source struct {
	targets  map[int][]string
	accepted map[string]struct{} // accepted ∪ targets
}

var _ game.Dictionary = (*Source)(nil)

// Load builds a Source from the embedded defaults and the configured overrides.
func Load(opts Options) (*Source, error) {
	raw, err := assets.WordLists()
	if err != nil {
		return nil, fmt.Errorf("read embedded words: %w", err)
	}
	if opts.File != "" {
		if raw, err = os.ReadFile(opts.File); err != nil {
			return nil, fmt.Errorf("read words file: %w", err)
		}
	}
	lists, err := ParseYAML(raw)
	if err != nil {
		return nil, err
	}
	if opts.Dir != "" {
		if err := overlayDir(&lists, opts.Dir); err != nil {
			return nil, err
		}
	}
	return New(lists), nil
}

// ParseYAML decodes a word list document.
func ParseYAML(raw []byte) (Lists, error) {
	var l Lists
	if err := yaml.Unmarshal(raw, &l); err != nil {
		return Lists{}, fmt.Errorf("parse words yaml: %w", err)
	}
	return l, nil
}

// overlayDir replaces per-length lists with text files found in dir.
func overlayDir(l *Lists, dir string) error {
	if l.Targets == nil {
		l.Targets = map[int][]string{}
	}
	if l.Accepted == nil {
		l.Accepted = map[int][]string{}
	}
	for n := game.MinWordLength; n <= game.MaxWordLength; n++ {
		for _, f := range []struct {
			name string
			dst  map[int][]string
		}{
			{fmt.Sprintf("targets_%d.txt", n), l.Targets},
			{fmt.Sprintf("accepted_%d.txt", n), l.Accepted},
		} {
			list, err := readWordFile(filepath.Join(dir, f.name))
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			if err != nil {
				return fmt.Errorf("read %s: %w", f.name, err)
			}
			f.dst[n] = list
		}
	}
	return nil
}

// readWordFile loads one word per line, skipping blanks and # comments.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLines(f)
}

func readLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// New normalizes lists into a Source.
func New(l Lists) *Source {
	s := &Source{
		targets:  make(map[int][]string),
		accepted: make(map[string]struct{}),
	}
	for n, list := range l.Targets {
		seen := make(map[string]struct{}, len(list))
		for _, w := range list {
			w = Normalize(w)
			if len(w) != n || !isAlpha(w) {
				continue
			}
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			s.targets[n] = append(s.targets[n], w)
			s.accepted[w] = struct{}{}
		}
	}
	for n, list := range l.Accepted {
		for _, w := range list {
			w = Normalize(w)
			if len(w) == n && isAlpha(w) {
				s.accepted[w] = struct{}{}
			}
		}
	}
	return s
}

// Normalize trims, folds full-width forms and upper-cases s.
func Normalize(s string) string {
	s = width.Fold.String(strings.TrimSpace(s))
	return cases.Upper(language.Und).String(s)
}

// Letter normalizes a single typed key to A–Z.
func Letter(s string) (rune, bool) {
	n := Normalize(s)
	if len(n) != 1 || !isAlpha(n) {
		return 0, false
	}
	return rune(n[0]), true
}

// isAlpha reports whether s is all uppercase ASCII letters.
func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// PickTarget returns a cryptographically random target of the given length.
func (s *Source) PickTarget(length int) (string, error) {
	list := s.targets[length]
	if len(list) == 0 {
		return "", fmt.Errorf("%w for length %d", ErrNoWordsAvailable, length)
	}
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(len(list))))
	if err != nil {
		return "", fmt.Errorf("random index: %w", err)
	}
	return list[nBig.Int64()], nil
}

// IsAccepted reports whether w is a valid guess, ignoring case.
func (s *Source) IsAccepted(w string) bool {
	_, ok := s.accepted[Normalize(w)]
	return ok
}

// IsTarget reports whether w could be picked as a target.
func (s *Source) IsTarget(w string) bool {
	w = Normalize(w)
	for _, t := range s.targets[len(w)] {
		if t == w {
			return true
		}
	}
	return false
}

// Validate fails if any of the given lengths has no targets.
func (s *Source) Validate(lengths ...int) error {
	for _, n := range lengths {
		if len(s.targets[n]) == 0 {
			return fmt.Errorf("%w for length %d", ErrNoWordsAvailable, n)
		}
	}
	return nil
}

// Count is the number of loaded words of one length.
type Count struct {
	Targets  int `json:"targets"`
	Accepted int `json:"accepted"`
}

// Stats returns per-length word counts.
func (s *Source) Stats() map[int]Count {
	out := make(map[int]Count)
	for n, list := range s.targets {
		c := out[n]
		c.Targets = len(list)
		out[n] = c
	}
	for w := range s.accepted {
		c := out[len(w)]
		c.Accepted++
		out[len(w)] = c
	}
	return out
}
