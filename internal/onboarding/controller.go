// Package onboarding drives a visitor through the questionnaire:
//
//	Intro --start--> Question(1) --select--> ... Question(N) --select--> Processing --delay--> Done
//
// Back steps to the previous question (or Intro) without erasing answers.
// Skip from any non-terminal step forces the default theme through a forced
// Processing step. Done is absorbing.
//
// Delays are scheduled callbacks. The settle delay after a selection carries
// a generation token, so back, skip and reset drop a pending advance. The
// Processing → Done timer is not cancelled by later actions: if skip races a
// pending completion, both callbacks fire and the later one wins. Reset and
// Close cancel it, and they wait for a completion callback already running.
package onboarding

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/attune/internal/catalog"
	"github.com/hpungsan/attune/internal/errors"
	"github.com/hpungsan/attune/internal/prefs"
)

// Reference delays.
const (
	DefaultSettleDelay     = 300 * time.Millisecond
	DefaultProcessingDelay = 5000 * time.Millisecond
)

// Phase is the coarse controller state.
type Phase string

const (
	PhaseIntro      Phase = "intro"
	PhaseQuestion   Phase = "question"
	PhaseProcessing Phase = "processing"
	PhaseDone       Phase = "done"
)

// Step is the full controller state.
type Step struct {
	Phase Phase `json:"phase"`
	// Index is the 1-based position of the current question.
	Index      int  `json:"index,omitempty"`
	QuestionID int  `json:"question_id,omitempty"`
	// Locked is set between a selection and the settle-delay advance.
	Locked bool `json:"locked,omitempty"`
	// Forced marks Processing/Done reached through skip.
	Forced bool `json:"forced,omitempty"`
}

func (s Step) String() string {
	switch s.Phase {
	case PhaseQuestion:
		if s.Locked {
			return fmt.Sprintf("question(%d,locked)", s.Index)
		}
		return fmt.Sprintf("question(%d)", s.Index)
	case PhaseProcessing, PhaseDone:
		if s.Forced {
			return string(s.Phase) + "(forced)"
		}
	}
	return string(s.Phase)
}

// Recorder stores answers. *prefs.State implements it.
type Recorder interface {
	AnswerQuestion(id int, opt catalog.Option)
	Answers() prefs.AnswerMap
}

// Options configures a Controller.
type Options struct {
	SettleDelay     time.Duration
	ProcessingDelay time.Duration
	// Scheduler defaults to RealScheduler.
	Scheduler Scheduler
	// OnComplete receives the preferences derived when the last question was
	// answered, once normal processing ends.
	OnComplete func(prefs.Preferences)
	// OnSkip runs when forced processing ends.
	OnSkip func()
	// Callbacks must not call Reset or Close.
	Logger *zap.Logger
}

// Controller is the onboarding state machine. It is the only writer of the
// recorder's answers.
type Controller struct {
	// cbMu is held across completion callbacks and by Reset and Close.
	// Lock order is cbMu then mu.
	cbMu      sync.Mutex
	mu        sync.Mutex
	questions []catalog.Question
	rec       Recorder
	opts      Options
	log       *zap.Logger

	step    Step
	derived *prefs.Preferences

	gen      uint64
	epoch    uint64
	timerSeq uint64
	timers   map[uint64]Timer
	closed   bool
}

// New returns a controller in the Intro step.
func New(questions []catalog.Question, rec Recorder, opts Options) *Controller {
	if len(questions) == 0 {
		panic("onboarding: controller needs at least one question")
	}
	if opts.Scheduler == nil {
		opts.Scheduler = RealScheduler{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Controller{
		questions: questions,
		rec:       rec,
		opts:      opts,
		log:       opts.Logger,
		step:      Step{Phase: PhaseIntro},
		timers:    make(map[uint64]Timer),
	}
}

// Step returns the current state.
func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Derived returns the preferences computed when the last question was
// answered. It reports false before that and after a skip or reset.
func (c *Controller) Derived() (prefs.Preferences, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.derived == nil {
		return prefs.Preferences{}, false
	}
	return *c.derived, true
}

// CurrentQuestion returns the question being asked, if any.
func (c *Controller) CurrentQuestion() (catalog.Question, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step.Phase != PhaseQuestion {
		return catalog.Question{}, false
	}
	return c.questions[c.step.Index-1], true
}

// Start moves Intro → Question(1).
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step.Phase != PhaseIntro {
		return c.reject("start")
	}
	c.step = c.questionStep(1)
	return nil
}

// Select answers questionID with the option at optionIndex. Only the current,
// unlocked question accepts a selection.
func (c *Controller) Select(questionID, optionIndex int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	action := fmt.Sprintf("select question %d", questionID)
	if c.step.Phase != PhaseQuestion || c.step.Locked || c.step.QuestionID != questionID {
		return c.reject(action)
	}

	q := c.questions[c.step.Index-1]
	opt, ok := q.OptionAt(optionIndex)
	if !ok {
		return errors.NewInvalidRequest(fmt.Sprintf("question %d has no option %d", questionID, optionIndex))
	}
	c.rec.AnswerQuestion(q.ID, opt)

	if c.step.Index < len(c.questions) {
		c.step.Locked = true
		c.gen++
		token := c.gen
		c.schedule(c.opts.SettleDelay, func() { c.advance(token) })
		return nil
	}

	derived := prefs.Derive(c.rec.Answers())
	c.derived = &derived
	c.step = Step{Phase: PhaseProcessing}
	c.gen++
	epoch := c.epoch
	c.schedule(c.opts.ProcessingDelay, func() { c.finish(epoch, false, derived) })
	return nil
}

// Back moves Question(i) → Question(i-1), or Question(1) → Intro.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step.Phase != PhaseQuestion {
		return c.reject("back")
	}
	c.gen++
	if c.step.Index == 1 {
		c.step = Step{Phase: PhaseIntro}
		return nil
	}
	c.step = c.questionStep(c.step.Index - 1)
	return nil
}

// Skip forces the default theme from any non-terminal step without deriving
// from partial answers. A second skip while forced processing is pending is
// rejected.
func (c *Controller) Skip() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step.Phase == PhaseDone || (c.step.Phase == PhaseProcessing && c.step.Forced) {
		return c.reject("skip")
	}
	c.gen++
	c.derived = nil
	c.step = Step{Phase: PhaseProcessing, Forced: true}
	epoch := c.epoch
	c.schedule(c.opts.ProcessingDelay, func() { c.finish(epoch, true, prefs.DefaultPreferences()) })
	return nil
}

// Reset cancels pending callbacks and returns to Intro. A completion
// callback already running finishes first.
func (c *Controller) Reset() {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.epoch++
	c.stopTimers()
	c.derived = nil
	c.step = Step{Phase: PhaseIntro}
}

// Close cancels pending callbacks. The controller keeps its step but no
// scheduled callback will run afterwards.
func (c *Controller) Close() {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.stopTimers()
}

func (c *Controller) questionStep(index int) Step {
	return Step{Phase: PhaseQuestion, Index: index, QuestionID: c.questions[index-1].ID}
}

// reject logs and reports an action the current step does not permit.
// Callers hold c.mu.
func (c *Controller) reject(action string) error {
	c.log.Debug("invalid onboarding transition",
		zap.String("action", action),
		zap.Stringer("step", c.step))
	return errors.NewInvalidTransition(action, c.step.String())
}

// schedule registers f to run after d. Callers hold c.mu.
func (c *Controller) schedule(d time.Duration, f func()) {
	c.timerSeq++
	id := c.timerSeq
	c.timers[id] = c.opts.Scheduler.AfterFunc(d, func() {
		c.mu.Lock()
		delete(c.timers, id)
		c.mu.Unlock()
		f()
	})
}

func (c *Controller) stopTimers() {
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}

func (c *Controller) advance(token uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || token != c.gen || c.step.Phase != PhaseQuestion || !c.step.Locked {
		return
	}
	c.step = c.questionStep(c.step.Index + 1)
}

// Pending reports whether a scheduled callback has yet to run.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers) > 0
}

func (c *Controller) finish(epoch uint64, forced bool, p prefs.Preferences) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()

	c.mu.Lock()
	if c.closed || epoch != c.epoch {
		c.mu.Unlock()
		return
	}
	c.step = Step{Phase: PhaseDone, Forced: forced}
	c.mu.Unlock()

	if forced {
		c.log.Debug("onboarding skipped")
		if c.opts.OnSkip != nil {
			c.opts.OnSkip()
		}
		return
	}
	c.log.Debug("onboarding completed", zap.String("theme", string(p.Theme)))
	if c.opts.OnComplete != nil {
		c.opts.OnComplete(p)
	}
}
