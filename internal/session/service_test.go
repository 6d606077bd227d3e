package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/robalobadob/wordle-kids/internal/game"
	"github.com/robalobadob/wordle-kids/internal/store"
	"github.com/robalobadob/wordle-kids/internal/words"
)

// testWords has a single target per length so games are deterministic.
func testWords() *words.Source {
	return words.New(words.Lists{
		Targets: map[int][]string{
			3: {"cat"},
			4: {"cart"},
			5: {"array"},
		},
		Accepted: map[int][]string{
			3: {"bat", "dog", "hat", "rat", "mat", "sat"},
			4: {"crab", "barn"},
			5: {"error", "hello", "crane", "slate", "mouse", "piano"},
		},
	})
}

func newService(st store.Store) *Service {
	return NewService(st, testWords(), zerolog.Nop())
}

func apply(t *testing.T, s *Service, id string, ev Event) View {
	t.Helper()
	v, err := s.Apply(context.Background(), id, ev)
	if err != nil {
		t.Fatalf("Apply(%+v): %v", ev, err)
	}
	return v
}

func typeAndSubmit(t *testing.T, s *Service, id, w string) View {
	t.Helper()
	for _, r := range w {
		apply(t, s, id, Event{Type: EventLetter, Letter: string(r)})
	}
	return apply(t, s, id, Event{Type: EventSubmit})
}

func TestSnapshotFreshSession(t *testing.T) {
	st := store.NewMemoryStore()
	s := newService(st)
	v, err := s.Snapshot(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if v.WordLength != game.DefaultWordLength || v.Status != game.StatusInProgress {
		t.Fatalf("unexpected fresh view %+v", v)
	}
	if v.Target != "" || v.Reveal {
		t.Fatal("target must stay hidden")
	}
	if v.GuessesLeft != game.MaxGuesses || len(v.Guesses) != 0 {
		t.Fatalf("fresh game should have no guesses: %+v", v)
	}

	// The lazily picked target is persisted right away.
	saved, err := st.Load(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if saved.Target != "CAT" {
		t.Fatalf("persisted target %q, want CAT", saved.Target)
	}
}

func TestApplyWritesThrough(t *testing.T) {
	st := store.NewMemoryStore()
	s := newService(st)
	ctx := context.Background()

	apply(t, s, "s1", Event{Type: EventLetter, Letter: "b"})
	apply(t, s, "s1", Event{Type: EventLetter, Letter: "A"})
	saved, _ := st.Load(ctx, "s1")
	if saved.Buffer != "BA" {
		t.Fatalf("persisted buffer %q, want BA", saved.Buffer)
	}

	apply(t, s, "s1", Event{Type: EventLetter, Letter: "t"})
	v := apply(t, s, "s1", Event{Type: EventSubmit})
	if len(v.Guesses) != 1 || v.Guesses[0].Word != "BAT" {
		t.Fatalf("guesses %+v", v.Guesses)
	}
	want := []game.Outcome{game.Absent, game.Exact, game.Exact}
	for i, o := range v.Guesses[0].Outcomes {
		if o != want[i] {
			t.Fatalf("outcomes %v, want %v", v.Guesses[0].Outcomes, want)
		}
	}
	if v.Hints.Of('B') != game.Absent || v.Hints.Of('A') != game.Exact {
		t.Fatalf("hints not derived from history: %v", v.Hints)
	}
	saved, _ = st.Load(ctx, "s1")
	if len(saved.Guesses) != 1 || saved.Buffer != "" {
		t.Fatalf("persisted %+v", saved)
	}

	// A new service over the same store resumes the game.
	v2, err := newService(st).Snapshot(ctx, "s1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(v2.Guesses) != 1 || v2.Guesses[0].Word != "BAT" {
		t.Fatalf("resumed guesses %+v", v2.Guesses)
	}
}

func TestApplyNoOps(t *testing.T) {
	s := newService(store.NewMemoryStore())
	v := apply(t, s, "s1", Event{Type: EventDelete})
	if v.Buffer != "" || v.Notice != "" {
		t.Fatalf("delete on empty buffer: %+v", v)
	}
	for _, l := range []string{"c", "a", "t", "s", "7", "", "ab"} {
		v = apply(t, s, "s1", Event{Type: EventLetter, Letter: l})
	}
	if v.Buffer != "CAT" {
		t.Fatalf("buffer %q, want CAT", v.Buffer)
	}

	apply(t, s, "s1", Event{Type: EventDelete})
	v = apply(t, s, "s1", Event{Type: EventSubmit})
	if v.Notice != "" || len(v.Guesses) != 0 || v.Buffer != "CA" {
		t.Fatalf("incomplete submit should be silent: %+v", v)
	}
}

func TestNotInWordList(t *testing.T) {
	s := newService(store.NewMemoryStore())
	v := typeAndSubmit(t, s, "s1", "xyz")
	if v.Notice != NoticeNotInWordList {
		t.Fatalf("notice %q, want %q", v.Notice, NoticeNotInWordList)
	}
	if v.Buffer != "XYZ" || len(v.Guesses) != 0 {
		t.Fatalf("rejected guess must keep buffer: %+v", v)
	}
	v = apply(t, s, "s1", Event{Type: EventDelete})
	if v.Notice != "" {
		t.Fatal("notice must be transient")
	}
}

func TestLossRevealsTarget(t *testing.T) {
	s := newService(store.NewMemoryStore())
	apply(t, s, "s1", Event{Type: EventNewGame, Length: 5})
	var v View
	for _, w := range []string{"error", "hello", "crane", "slate", "mouse", "piano"} {
		v = typeAndSubmit(t, s, "s1", w)
	}
	if v.Status != game.StatusLost || !v.Reveal || v.Target != "ARRAY" {
		t.Fatalf("loss view %+v", v)
	}
	v = apply(t, s, "s1", Event{Type: EventLetter, Letter: "a"})
	if v.Buffer != "" {
		t.Fatal("finished game must ignore letters")
	}
}

func TestConfirmGate(t *testing.T) {
	st := store.NewMemoryStore()
	s := newService(st)
	typeAndSubmit(t, s, "s1", "bat")
	v := typeAndSubmit(t, s, "s1", "dog")
	if !v.UnsavedProgress {
		t.Fatal("two guesses in progress should be unsaved progress")
	}

	v = apply(t, s, "s1", Event{Type: EventNewGame, Length: 5})
	if v.Notice != NoticeConfirmRequired || v.ConfirmPending != 5 {
		t.Fatalf("expected confirmation request, got %+v", v)
	}
	if v.WordLength != 3 || len(v.Guesses) != 2 {
		t.Fatal("game must not reset before confirmation")
	}

	// Declining keeps the game.
	v = apply(t, s, "s1", Event{Type: EventConfirm, Confirm: false})
	if v.ConfirmPending != 0 || len(v.Guesses) != 2 {
		t.Fatalf("declined confirmation: %+v", v)
	}
	// Confirming without a pending request does nothing.
	v = apply(t, s, "s1", Event{Type: EventConfirm, Confirm: true})
	if len(v.Guesses) != 2 {
		t.Fatal("confirm without request must be a no-op")
	}

	// Any other event drops the pending request.
	apply(t, s, "s1", Event{Type: EventNewGame, Length: 4})
	apply(t, s, "s1", Event{Type: EventLetter, Letter: "c"})
	v = apply(t, s, "s1", Event{Type: EventConfirm, Confirm: true})
	if v.WordLength != 3 {
		t.Fatal("stale confirmation must not reset the game")
	}

	apply(t, s, "s1", Event{Type: EventNewGame, Length: 4})
	v = apply(t, s, "s1", Event{Type: EventConfirm, Confirm: true})
	if v.WordLength != 4 || len(v.Guesses) != 0 || v.Buffer != "" || v.Status != game.StatusInProgress {
		t.Fatalf("confirmed reset: %+v", v)
	}
	saved, _ := st.Load(context.Background(), "s1")
	if saved.WordLength != 4 || saved.Target != "CART" {
		t.Fatalf("persisted %+v", saved)
	}
}

func TestNewGameWithoutProgressResetsImmediately(t *testing.T) {
	s := newService(store.NewMemoryStore())
	apply(t, s, "s1", Event{Type: EventLetter, Letter: "c"})
	v := apply(t, s, "s1", Event{Type: EventNewGame, Length: 4})
	if v.Notice != "" || v.WordLength != 4 || v.Buffer != "" {
		t.Fatalf("expected immediate reset: %+v", v)
	}

	// A finished game can be replaced without confirmation.
	typeAndSubmit(t, s, "s1", "cart")
	v = apply(t, s, "s1", Event{Type: EventNewGame, Length: 3})
	if v.Notice != "" || v.WordLength != 3 {
		t.Fatalf("won game reset: %+v", v)
	}
}

func TestNewGameUnsupportedLength(t *testing.T) {
	s := newService(store.NewMemoryStore())
	_, err := s.Apply(context.Background(), "s1", Event{Type: EventNewGame, Length: 9})
	if !errors.Is(err, game.ErrUnsupportedLength) {
		t.Fatalf("expected ErrUnsupportedLength, got %v", err)
	}
}

func TestRevealAndUnknownEvent(t *testing.T) {
	s := newService(store.NewMemoryStore())
	v := apply(t, s, "s1", Event{Type: EventReveal})
	if v.Target != "CAT" || v.Notice != NoticeRevealed || v.Reveal {
		t.Fatalf("reveal view %+v", v)
	}
	v = apply(t, s, "s1", Event{Type: EventDelete})
	if v.Target != "" {
		t.Fatal("explicit reveal must not stick")
	}
	if _, err := s.Apply(context.Background(), "s1", Event{Type: "jump"}); !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
}

// brokenStore returns a fixed load error and records saves.
type brokenStore struct {
	mu      sync.Mutex
	loadErr error
	saveErr error
	saved   map[string]game.State
}

func (b *brokenStore) Save(_ context.Context, id string, st game.State) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.saveErr != nil {
		return b.saveErr
	}
	if b.saved == nil {
		b.saved = map[string]game.State{}
	}
	b.saved[id] = st
	return nil
}

func (b *brokenStore) Load(context.Context, string) (game.State, error) {
	return game.State{}, b.loadErr
}

func (b *brokenStore) Close() error { return nil }

func TestCorruptedStateFallsBackToFreshGame(t *testing.T) {
	bs := &brokenStore{loadErr: store.ErrCorruptedState}
	s := newService(bs)
	v, err := s.Snapshot(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if v.WordLength != game.DefaultWordLength || len(v.Guesses) != 0 {
		t.Fatalf("expected fresh default, got %+v", v)
	}
	if got := bs.saved["s1"]; got.Target != "CAT" {
		t.Fatalf("fresh state should be saved, got %+v", got)
	}
}

func TestStoreErrorsPropagate(t *testing.T) {
	boom := errors.New("disk on fire")
	s := newService(&brokenStore{loadErr: boom})
	if _, err := s.Snapshot(context.Background(), "s1"); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}

	bs := &brokenStore{loadErr: store.ErrNotFound}
	s = newService(bs)
	if _, err := s.Snapshot(context.Background(), "s1"); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	bs.saveErr = boom
	if _, err := s.Apply(context.Background(), "s1", Event{Type: EventLetter, Letter: "c"}); !errors.Is(err, boom) {
		t.Fatalf("expected save error, got %v", err)
	}
	v, err := s.Snapshot(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if v.Buffer != "" {
		t.Fatalf("failed save must not change the live game, buffer %q", v.Buffer)
	}
}

func TestFailedSubmitCanBeRetried(t *testing.T) {
	boom := errors.New("disk on fire")
	bs := &brokenStore{loadErr: store.ErrNotFound}
	s := newService(bs)
	ctx := context.Background()
	for _, l := range []string{"b", "a", "t"} {
		apply(t, s, "s1", Event{Type: EventLetter, Letter: l})
	}

	bs.saveErr = boom
	if _, err := s.Apply(ctx, "s1", Event{Type: EventSubmit}); !errors.Is(err, boom) {
		t.Fatalf("expected save error, got %v", err)
	}
	v, _ := s.Snapshot(ctx, "s1")
	if v.Buffer != "BAT" || len(v.Guesses) != 0 {
		t.Fatalf("after failed submit: %+v", v)
	}

	bs.saveErr = nil
	v = apply(t, s, "s1", Event{Type: EventSubmit})
	if len(v.Guesses) != 1 || v.Guesses[0].Word != "BAT" {
		t.Fatalf("retry did not submit: %+v", v)
	}
	if got := bs.saved["s1"]; len(got.Guesses) != 1 {
		t.Fatalf("persisted %+v", got)
	}
}

func TestFailedNewGameKeepsConfirmation(t *testing.T) {
	boom := errors.New("disk on fire")
	bs := &brokenStore{loadErr: store.ErrNotFound}
	s := newService(bs)
	typeAndSubmit(t, s, "s1", "bat")
	apply(t, s, "s1", Event{Type: EventNewGame, Length: 4})

	bs.saveErr = boom
	if _, err := s.Apply(context.Background(), "s1", Event{Type: EventConfirm, Confirm: true}); !errors.Is(err, boom) {
		t.Fatalf("expected save error, got %v", err)
	}
	v, _ := s.Snapshot(context.Background(), "s1")
	if v.WordLength != 3 || len(v.Guesses) != 1 || v.ConfirmPending != 4 {
		t.Fatalf("after failed confirm: %+v", v)
	}
}

func TestEvictIdleReloadsFromStore(t *testing.T) {
	st := store.NewMemoryStore()
	s := newService(st)
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	typeAndSubmit(t, s, "old", "bat")
	apply(t, s, "old", Event{Type: EventLetter, Letter: "c"})
	clock = clock.Add(time.Hour)
	apply(t, s, "fresh", Event{Type: EventLetter, Letter: "d"})
	if s.Len() != 2 {
		t.Fatalf("live sessions %d, want 2", s.Len())
	}

	if n := s.EvictIdle(30 * time.Minute); n != 1 {
		t.Fatalf("evicted %d, want 1", n)
	}
	if s.Len() != 1 {
		t.Fatalf("live sessions %d, want 1", s.Len())
	}

	v, err := s.Snapshot(context.Background(), "old")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if v.Buffer != "C" || len(v.Guesses) != 1 || v.Guesses[0].Word != "BAT" {
		t.Fatalf("reloaded session %+v", v)
	}
	if s.Len() != 2 {
		t.Fatalf("live sessions %d, want 2", s.Len())
	}
}

func TestEvictIdleSkipsBusySessions(t *testing.T) {
	s := newService(store.NewMemoryStore())
	apply(t, s, "s1", Event{Type: EventLetter, Letter: "c"})

	l, err := s.acquire(context.Background(), "s1")
	if err != nil {
		t.Fatal(err)
	}
	if n := s.EvictIdle(0); n != 0 {
		t.Fatalf("evicted busy session")
	}
	l.mu.Unlock()
	if n := s.EvictIdle(0); n != 1 {
		t.Fatalf("evicted %d, want 1", n)
	}
	if !l.evicted {
		t.Fatal("evicted entry must be marked")
	}

	// A holder of the stale entry gets a fresh one on its next acquire.
	v := apply(t, s, "s1", Event{Type: EventLetter, Letter: "a"})
	if v.Buffer != "CA" {
		t.Fatalf("buffer %q, want CA", v.Buffer)
	}
}

func TestRunJanitorStops(t *testing.T) {
	s := newService(store.NewMemoryStore())
	apply(t, s, "s1", Event{Type: EventLetter, Letter: "c"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunJanitor(ctx, time.Millisecond, 0)
		close(done)
	}()
	deadline := time.After(5 * time.Second)
	for s.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("janitor never evicted the idle session")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestNoTargetsIsAnError(t *testing.T) {
	s := NewService(store.NewMemoryStore(), words.New(words.Lists{}), zerolog.Nop())
	if _, err := s.Snapshot(context.Background(), "s1"); !errors.Is(err, words.ErrNoWordsAvailable) {
		t.Fatalf("expected ErrNoWordsAvailable, got %v", err)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	s := newService(store.NewMemoryStore())
	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_, _ = s.Apply(context.Background(), id, Event{Type: EventLetter, Letter: "c"})
				_, _ = s.Apply(context.Background(), id, Event{Type: EventDelete})
			}
			_, _ = s.Apply(context.Background(), id, Event{Type: EventLetter, Letter: "b"})
		}(id)
	}
	wg.Wait()
	for _, id := range []string{"a", "b", "c", "d"} {
		v, err := s.Snapshot(context.Background(), id)
		if err != nil {
			t.Fatal(err)
		}
		if v.Buffer != "B" {
			t.Fatalf("session %s buffer %q, want B", id, v.Buffer)
		}
	}
}
