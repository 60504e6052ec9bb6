package onboarding

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hpungsan/attune/internal/catalog"
	"github.com/hpungsan/attune/internal/errors"
	"github.com/hpungsan/attune/internal/prefs"
)

// harness wires a controller to a real State the way the ops layer does.
type harness struct {
	c     *Controller
	state *prefs.State
	sched *ManualScheduler

	mu        sync.Mutex
	completed []catalog.Theme
	skipped   int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		state: prefs.NewState(prefs.NewStorage(prefs.NewMemoryKV(), nil), nil),
		sched: NewManualScheduler(),
	}
	h.c = New(catalog.Questions(), h.state, Options{
		SettleDelay:     DefaultSettleDelay,
		ProcessingDelay: DefaultProcessingDelay,
		Scheduler:       h.sched,
		OnComplete: func(p prefs.Preferences) {
			h.mu.Lock()
			h.completed = append(h.completed, p.Theme)
			h.mu.Unlock()
			h.state.Finalize(p)
		},
		OnSkip: func() {
			h.mu.Lock()
			h.skipped++
			h.mu.Unlock()
			_ = h.state.SwitchTheme(catalog.DefaultTheme)
			h.state.CompleteOnboarding()
		},
	})
	t.Cleanup(h.c.Close)
	return h
}

// answer selects optionIndex on the current question and waits out the
// settle delay.
func (h *harness) answer(t *testing.T, questionID, optionIndex int) {
	t.Helper()
	require.NoError(t, h.c.Select(questionID, optionIndex))
	h.sched.Advance(DefaultSettleDelay)
}

func requireTransitionError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrInvalidTransition), "got %v", err)
}

func TestController_InitialStep(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, Step{Phase: PhaseIntro}, h.c.Step())
	_, ok := h.c.CurrentQuestion()
	require.False(t, ok)
}

func TestController_FullPass(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.c.Start())
	require.Equal(t, Step{Phase: PhaseQuestion, Index: 1, QuestionID: 1}, h.c.Step())

	h.answer(t, 1, 0) // calm
	require.Equal(t, Step{Phase: PhaseQuestion, Index: 2, QuestionID: 2}, h.c.Step())

	h.answer(t, 2, 1) // vibrant
	q, ok := h.c.CurrentQuestion()
	require.True(t, ok)
	require.Equal(t, catalog.RhythmQuestionID, q.ID)

	require.NoError(t, h.c.Select(3, 1)) // high/dense
	require.Equal(t, Step{Phase: PhaseProcessing}, h.c.Step())

	derived, ok := h.c.Derived()
	require.True(t, ok)
	require.Equal(t, prefs.Preferences{Theme: catalog.ThemeCalm, Motion: catalog.MotionHigh, Density: catalog.DensityDense}, derived)

	// Nothing completes before the processing delay elapses.
	h.sched.Advance(DefaultProcessingDelay - time.Millisecond)
	require.Equal(t, PhaseProcessing, h.c.Step().Phase)
	require.Empty(t, h.completed)

	h.sched.Advance(time.Millisecond)
	require.Equal(t, Step{Phase: PhaseDone}, h.c.Step())
	require.Equal(t, []catalog.Theme{catalog.ThemeCalm}, h.completed)

	snap := h.state.Snapshot()
	require.Equal(t, catalog.ThemeCalm, snap.Theme)
	require.Equal(t, catalog.MotionHigh, snap.Motion)
	require.True(t, snap.HasCompletedOnboarding)
}

func TestController_VibrantPass(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Start())
	h.answer(t, 1, 1)
	h.answer(t, 2, 1)
	require.NoError(t, h.c.Select(3, 0))
	h.sched.Advance(DefaultProcessingDelay)

	require.Equal(t, []catalog.Theme{catalog.ThemeVibrant}, h.completed)
	require.Equal(t, catalog.ThemeVibrant, h.state.Snapshot().Theme)
}

func TestController_SelectLockedDuringSettle(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Start())

	require.NoError(t, h.c.Select(1, 0))
	require.True(t, h.c.Step().Locked)

	// A second selection inside the settle window is rejected and does not
	// overwrite the first answer.
	requireTransitionError(t, h.c.Select(1, 1))
	require.Equal(t, catalog.ThemeCalm, h.state.Answers()[1].(catalog.ThemeOption).Theme)

	h.sched.Advance(DefaultSettleDelay)
	require.Equal(t, 2, h.c.Step().Index)
}

func TestController_SelectUnreachedQuestion(t *testing.T) {
	h := newHarness(t)

	requireTransitionError(t, h.c.Select(1, 0)) // still in intro

	require.NoError(t, h.c.Start())
	requireTransitionError(t, h.c.Select(2, 0))
	requireTransitionError(t, h.c.Select(99, 0))
	require.Empty(t, h.state.Answers())
	require.Equal(t, Step{Phase: PhaseQuestion, Index: 1, QuestionID: 1}, h.c.Step())
}

func TestController_SelectBadOptionIndex(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Start())

	err := h.c.Select(1, 5)
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
	require.False(t, h.c.Step().Locked)
	require.Empty(t, h.state.Answers())
}

func TestController_LastQuestionLocksFurtherSelection(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Start())
	h.answer(t, 1, 0)
	h.answer(t, 2, 0)
	require.NoError(t, h.c.Select(3, 0))

	requireTransitionError(t, h.c.Select(3, 1))
	require.Equal(t, catalog.MotionLow, h.state.Answers()[3].(catalog.RhythmOption).Motion)
}

func TestController_BackKeepsAnswers(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Start())
	h.answer(t, 1, 1)
	require.Equal(t, 2, h.c.Step().Index)

	require.NoError(t, h.c.Back())
	require.Equal(t, Step{Phase: PhaseQuestion, Index: 1, QuestionID: 1}, h.c.Step())

	answer, ok := h.state.Answers()[1]
	require.True(t, ok)
	require.Equal(t, catalog.ThemeVibrant, answer.(catalog.ThemeOption).Theme)

	require.NoError(t, h.c.Back())
	require.Equal(t, Step{Phase: PhaseIntro}, h.c.Step())
	requireTransitionError(t, h.c.Back())
}

func TestController_ReanswerAfterBack(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Start())
	h.answer(t, 1, 1)
	require.NoError(t, h.c.Back())

	h.answer(t, 1, 0)
	require.Equal(t, catalog.ThemeCalm, h.state.Answers()[1].(catalog.ThemeOption).Theme)
	require.Equal(t, 2, h.c.Step().Index)
}

func TestController_BackDuringSettleDropsAdvance(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Start())
	h.answer(t, 1, 0)

	require.NoError(t, h.c.Select(2, 0))
	require.NoError(t, h.c.Back())
	h.sched.Advance(DefaultSettleDelay)

	require.Equal(t, Step{Phase: PhaseQuestion, Index: 1, QuestionID: 1}, h.c.Step())
}

func TestController_SkipFromQuestion(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Start())
	h.answer(t, 1, 1)
	h.answer(t, 2, 1)

	require.NoError(t, h.c.Skip())
	require.Equal(t, Step{Phase: PhaseProcessing, Forced: true}, h.c.Step())
	_, ok := h.c.Derived()
	require.False(t, ok)

	h.sched.Advance(DefaultProcessingDelay)
	require.Equal(t, Step{Phase: PhaseDone, Forced: true}, h.c.Step())
	require.Equal(t, 1, h.skipped)
	require.Empty(t, h.completed)

	// Two vibrant answers were recorded, but skip ignores them.
	snap := h.state.Snapshot()
	require.Equal(t, catalog.ThemeCalm, snap.Theme)
	require.True(t, snap.HasCompletedOnboarding)
}

func TestController_SkipFromIntro(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Skip())
	h.sched.Advance(DefaultProcessingDelay)

	require.Equal(t, 1, h.skipped)
	require.True(t, h.state.Snapshot().HasCompletedOnboarding)
}

func TestController_SkipDuringSettleDropsAdvance(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Start())
	require.NoError(t, h.c.Select(1, 0))
	require.NoError(t, h.c.Skip())

	h.sched.Advance(DefaultSettleDelay)
	require.Equal(t, Step{Phase: PhaseProcessing, Forced: true}, h.c.Step())
}

func TestController_DoneIsAbsorbing(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Skip())
	h.sched.Advance(DefaultProcessingDelay)

	requireTransitionError(t, h.c.Start())
	requireTransitionError(t, h.c.Select(1, 0))
	requireTransitionError(t, h.c.Back())
	requireTransitionError(t, h.c.Skip())
	require.Equal(t, PhaseDone, h.c.Step().Phase)
}

func TestController_DoubleSkipRejected(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Skip())
	requireTransitionError(t, h.c.Skip())

	h.sched.Advance(DefaultProcessingDelay)
	require.Equal(t, 1, h.skipped)
}

func TestController_StartOnlyFromIntro(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Start())
	requireTransitionError(t, h.c.Start())
}

// Skip during a pending completion does not cancel it: both callbacks fire
// in scheduling order and the later writer (skip) decides the final state.
func TestController_SkipRacesPendingCompletion(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Start())
	h.answer(t, 1, 1)
	h.answer(t, 2, 1)
	require.NoError(t, h.c.Select(3, 1)) // derives vibrant

	h.sched.Advance(time.Second)
	require.NoError(t, h.c.Skip())

	// Completion fires first, at its original deadline.
	h.sched.Advance(DefaultProcessingDelay - time.Second)
	require.Equal(t, []catalog.Theme{catalog.ThemeVibrant}, h.completed)
	require.Equal(t, catalog.ThemeVibrant, h.state.Snapshot().Theme)
	require.Equal(t, Step{Phase: PhaseDone}, h.c.Step())

	// Then skip overwrites it.
	h.sched.Advance(time.Second)
	require.Equal(t, 1, h.skipped)
	require.Equal(t, catalog.ThemeCalm, h.state.Snapshot().Theme)
	require.Equal(t, catalog.MotionHigh, h.state.Snapshot().Motion, "skip only rewrites the theme")
	require.Equal(t, Step{Phase: PhaseDone, Forced: true}, h.c.Step())
}

func TestController_ResetCancelsPending(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Skip())

	h.c.Reset()
	require.Equal(t, Step{Phase: PhaseIntro}, h.c.Step())
	require.Equal(t, 0, h.sched.Pending())

	h.sched.Advance(DefaultProcessingDelay)
	require.Equal(t, 0, h.skipped)
	require.Equal(t, PhaseIntro, h.c.Step().Phase)

	require.NoError(t, h.c.Start())
}

func TestController_CloseCancelsPending(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Start())
	require.NoError(t, h.c.Select(1, 0))
	require.NoError(t, h.c.Skip())

	h.c.Close()
	require.Equal(t, 0, h.sched.Pending())

	h.sched.Advance(DefaultProcessingDelay)
	require.Equal(t, 0, h.skipped)
	require.Equal(t, Step{Phase: PhaseProcessing, Forced: true}, h.c.Step())
}

func TestController_RealSchedulerNoLeaks(t *testing.T) {
	defer goleak.VerifyNone(t)

	state := prefs.NewState(nil, nil)
	done := make(chan catalog.Theme, 1)
	c := New(catalog.Questions(), state, Options{
		SettleDelay:     time.Millisecond,
		ProcessingDelay: time.Millisecond,
		OnComplete:      func(p prefs.Preferences) { done <- p.Theme },
	})
	defer c.Close()

	require.NoError(t, c.Start())
	for _, q := range catalog.Questions() {
		require.Eventually(t, func() bool {
			step := c.Step()
			return step.QuestionID == q.ID && !step.Locked
		}, time.Second, time.Millisecond)
		require.NoError(t, c.Select(q.ID, 1))
	}

	select {
	case theme := <-done:
		require.Equal(t, catalog.ThemeVibrant, theme)
	case <-time.After(time.Second):
		t.Fatal("completion callback did not fire")
	}
}

func TestController_CompletionUsesSelectTimePreferences(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Start())
	h.answer(t, 1, 0)
	h.answer(t, 2, 0)
	require.NoError(t, h.c.Select(3, 0))

	// Answers recorded after the last selection do not change the outcome.
	vibrant, _ := catalog.Questions()[0].OptionAt(1)
	h.state.AnswerQuestion(1, vibrant)
	h.state.AnswerQuestion(2, vibrant)

	h.sched.Advance(DefaultProcessingDelay)
	require.Equal(t, []catalog.Theme{catalog.ThemeCalm}, h.completed)
	require.Equal(t, prefs.Preferences{
		Theme:   catalog.ThemeCalm,
		Motion:  catalog.MotionLow,
		Density: catalog.DensitySpacious,
	}, h.state.Snapshot().Preferences())
}

func TestController_ResetWaitsForRunningCompletion(t *testing.T) {
	state := prefs.NewState(nil, nil)
	sched := NewManualScheduler()
	entered := make(chan struct{})
	release := make(chan struct{})
	c := New(catalog.Questions(), state, Options{
		SettleDelay:     DefaultSettleDelay,
		ProcessingDelay: DefaultProcessingDelay,
		Scheduler:       sched,
		OnComplete: func(p prefs.Preferences) {
			close(entered)
			<-release
			state.Finalize(p)
		},
	})
	t.Cleanup(c.Close)

	require.NoError(t, c.Start())
	for _, q := range catalog.Questions() {
		require.NoError(t, c.Select(q.ID, 1))
		sched.Advance(DefaultSettleDelay)
	}

	fired := make(chan struct{})
	go func() {
		defer close(fired)
		sched.Advance(DefaultProcessingDelay)
	}()
	<-entered

	resetDone := make(chan struct{})
	go func() {
		defer close(resetDone)
		c.Reset()
		state.ResetOnboarding()
	}()

	require.Never(t, func() bool {
		select {
		case <-resetDone:
			return true
		default:
			return false
		}
	}, 50*time.Millisecond, 5*time.Millisecond)

	close(release)
	<-fired
	<-resetDone

	require.Equal(t, Step{Phase: PhaseIntro}, c.Step())
	snap := state.Snapshot()
	require.False(t, snap.HasCompletedOnboarding)
	require.Equal(t, catalog.DefaultTheme, snap.Theme)
}

func TestController_Pending(t *testing.T) {
	h := newHarness(t)
	require.False(t, h.c.Pending())

	require.NoError(t, h.c.Start())
	require.NoError(t, h.c.Select(1, 0))
	require.True(t, h.c.Pending())

	h.sched.Advance(DefaultSettleDelay)
	require.False(t, h.c.Pending())

	require.NoError(t, h.c.Skip())
	require.True(t, h.c.Pending())
	h.c.Reset()
	require.False(t, h.c.Pending())
}

func TestStep_String(t *testing.T) {
	require.Equal(t, "intro", Step{Phase: PhaseIntro}.String())
	require.Equal(t, "question(2)", Step{Phase: PhaseQuestion, Index: 2}.String())
	require.Equal(t, "question(2,locked)", Step{Phase: PhaseQuestion, Index: 2, Locked: true}.String())
	require.Equal(t, "processing", Step{Phase: PhaseProcessing}.String())
	require.Equal(t, "processing(forced)", Step{Phase: PhaseProcessing, Forced: true}.String())
	require.Equal(t, "done(forced)", Step{Phase: PhaseDone, Forced: true}.String())
}

func TestNew_PanicsWithoutQuestions(t *testing.T) {
	require.Panics(t, func() { New(nil, prefs.NewState(nil, nil), Options{}) })
}
