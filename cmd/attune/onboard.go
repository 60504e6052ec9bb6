package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/hpungsan/attune/internal/onboarding"
	"github.com/hpungsan/attune/internal/ops"
)

// Sentinel choices offered alongside a question's options.
const (
	choiceBack = -1
	choiceSkip = -2
)

// wizard collects the visitor's input for each onboarding step.
type wizard interface {
	// Intro reports whether to start the questions (true) or skip them.
	Intro() (bool, error)
	// Ask returns an option index, choiceBack or choiceSkip.
	Ask(q *ops.QuestionView, n, total int) (int, error)
}

// onboardRunner drives a profile through onboarding until it is done.
type onboardRunner struct {
	svc        *ops.Service
	wizard     wizard
	wait       func(time.Duration) error
	settle     time.Duration
	processing time.Duration
	out        io.Writer
}

func (r *onboardRunner) run(ctx context.Context, id string) (*ops.StateOutput, error) {
	state, err := r.svc.GetState(id)
	if err != nil {
		return nil, err
	}
	total := len(r.svc.Questions().Items)
	announced := false

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch state.Step.Phase {
		case onboarding.PhaseDone:
			fmt.Fprintf(r.out, "All set. Theme: %s, motion: %s, density: %s\n", state.Theme, state.Motion, state.Density)
			return state, nil

		case onboarding.PhaseProcessing:
			if !announced {
				fmt.Fprintln(r.out, "Tuning your experience…")
				announced = true
			}
			if err := r.wait(r.processing); err != nil {
				return nil, err
			}
			state, err = r.svc.GetState(id)

		case onboarding.PhaseQuestion:
			if state.Step.Locked {
				if err := r.wait(r.settle); err != nil {
					return nil, err
				}
				state, err = r.svc.GetState(id)
				break
			}
			var choice int
			choice, err = r.wizard.Ask(state.Question, state.Step.Index, total)
			if err != nil {
				return nil, err
			}
			switch choice {
			case choiceBack:
				state, err = r.svc.Back(id)
			case choiceSkip:
				state, err = r.svc.Skip(id)
			default:
				state, err = r.svc.Answer(ops.AnswerInput{
					ProfileID:   id,
					QuestionID:  state.Question.ID,
					OptionIndex: choice,
				})
			}

		default:
			var start bool
			start, err = r.wizard.Intro()
			if err != nil {
				return nil, err
			}
			if start {
				state, err = r.svc.Start(id)
			} else {
				state, err = r.svc.Skip(id)
			}
		}

		if err != nil {
			return nil, err
		}
	}
}

// sleepContext returns a wait func that sleeps unless ctx is cancelled first.
func sleepContext(ctx context.Context) func(time.Duration) error {
	return func(d time.Duration) error {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	}
}

// huhWizard prompts with huh forms, falling back to accessible mode off a TTY.
type huhWizard struct{}

func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

func (huhWizard) Intro() (bool, error) {
	start := true
	form := newForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Let's tune this site to you").
				Description("Three quick questions choose your look.").
				Value(&start).
				Affirmative("Let's go").
				Negative("Skip for now"),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return start, nil
}

func (huhWizard) Ask(q *ops.QuestionView, n, total int) (int, error) {
	options := make([]huh.Option[int], 0, len(q.Options)+2)
	for _, o := range q.Options {
		options = append(options, huh.NewOption(o.Label, o.Index))
	}
	options = append(options,
		huh.NewOption("← Back", choiceBack),
		huh.NewOption("Skip the rest", choiceSkip),
	)

	choice := 0
	form := newForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title(fmt.Sprintf("Question %d of %d", n, total)).
				Description(q.Prompt).
				Options(options...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return 0, err
	}
	return choice, nil
}
