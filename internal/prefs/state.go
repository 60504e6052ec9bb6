package prefs

import (
	stderrors "errors"
	"sync"

	"go.uber.org/zap"

	"github.com/hpungsan/attune/internal/catalog"
	"github.com/hpungsan/attune/internal/errors"
)

// ErrNoProvider is the panic value when a State is used without NewState.
// It signals a wiring bug, not a runtime condition.
var ErrNoProvider = stderrors.New("prefs: State used before NewState initialized it")

// Snapshot is the read-only view handed to presentation code.
type Snapshot struct {
	Theme                  catalog.Theme   `json:"theme"`
	Motion                 catalog.Motion  `json:"motion"`
	Density                catalog.Density `json:"density"`
	HasCompletedOnboarding bool            `json:"has_completed_onboarding"`
}

// Preferences returns the (theme, motion, density) part of the snapshot.
func (s Snapshot) Preferences() Preferences {
	return Preferences{Theme: s.Theme, Motion: s.Motion, Density: s.Density}
}

func defaultSnapshot() Snapshot {
	d := DefaultPreferences()
	return Snapshot{Theme: d.Theme, Motion: d.Motion, Density: d.Density}
}

// State is the authoritative personalization record for one visitor, plus the
// in-progress answers. Mutators mirror theme and completion into Storage
// while holding the lock, so memory and storage never disagree.
type State struct {
	mu      sync.Mutex
	ready   bool
	storage *Storage
	log     *zap.Logger
	snap    Snapshot
	answers AnswerMap
}

// NewState builds a State seeded from storage: a valid persisted theme and
// the completion flag are restored; motion and density start at defaults.
func NewState(storage *Storage, log *zap.Logger) *State {
	if log == nil {
		log = zap.NewNop()
	}
	if storage == nil {
		storage = NewStorage(NewMemoryKV(), log)
	}

	snap := defaultSnapshot()
	if theme, ok := storage.ReadTheme(); ok {
		snap.Theme = theme
	}
	snap.HasCompletedOnboarding = storage.ReadCompletionFlag()

	return &State{
		ready:   true,
		storage: storage,
		log:     log,
		snap:    snap,
		answers: make(AnswerMap),
	}
}

// lock acquires the mutex, panicking if s was not built by NewState.
func (s *State) lock() {
	if s == nil || !s.ready {
		panic(ErrNoProvider)
	}
	s.mu.Lock()
}

// Snapshot returns the current preferences and completion flag.
func (s *State) Snapshot() Snapshot {
	s.lock()
	defer s.mu.Unlock()
	return s.snap
}

// Answers returns a copy of the recorded answers.
func (s *State) Answers() AnswerMap {
	s.lock()
	defer s.mu.Unlock()
	return s.answers.Clone()
}

// AnswerQuestion records opt as the answer to question id, replacing any
// earlier answer. The onboarding controller is its only caller.
func (s *State) AnswerQuestion(id int, opt catalog.Option) {
	s.lock()
	defer s.mu.Unlock()
	s.answers[id] = opt
}

// SwitchTheme overwrites only the theme and persists it.
func (s *State) SwitchTheme(theme catalog.Theme) error {
	if !theme.Valid() {
		return errors.NewUnknownTheme(string(theme))
	}

	s.lock()
	defer s.mu.Unlock()
	s.snap.Theme = theme
	s.storage.WriteTheme(theme)
	return nil
}

// CycleTheme switches to the next theme in calm → vibrant → focused order
// and returns it.
func (s *State) CycleTheme() catalog.Theme {
	s.lock()
	defer s.mu.Unlock()
	next := s.snap.Theme.Next()
	s.snap.Theme = next
	s.storage.WriteTheme(next)
	return next
}

// CompleteOnboarding sets the completion flag. Calling it again is a no-op
// apart from rewriting the persisted flag.
func (s *State) CompleteOnboarding() {
	s.lock()
	defer s.mu.Unlock()
	s.snap.HasCompletedOnboarding = true
	s.storage.WriteCompletionFlag(true)
}

// FinalizeFromAnswers derives preferences from answers and applies them
// with Finalize.
func (s *State) FinalizeFromAnswers(answers AnswerMap) Preferences {
	derived := Derive(answers)
	s.Finalize(derived)
	return derived
}

// Finalize overwrites theme, motion and density with p, marks onboarding
// complete and persists theme and flag.
func (s *State) Finalize(p Preferences) {
	s.lock()
	defer s.mu.Unlock()
	s.snap.Theme = p.Theme
	s.snap.Motion = p.Motion
	s.snap.Density = p.Density
	s.snap.HasCompletedOnboarding = true
	s.storage.WriteTheme(p.Theme)
	s.storage.WriteCompletionFlag(true)

	s.log.Debug("onboarding finalized",
		zap.String("theme", string(p.Theme)),
		zap.String("motion", string(p.Motion)),
		zap.String("density", string(p.Density)))
}

// ResetOnboarding restores every field to its default, clears the answers,
// and removes the persisted theme and flag.
func (s *State) ResetOnboarding() {
	s.lock()
	defer s.mu.Unlock()
	s.snap = defaultSnapshot()
	s.answers = make(AnswerMap)
	s.storage.Clear()
}
