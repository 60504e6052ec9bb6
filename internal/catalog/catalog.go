// Package catalog holds the static onboarding data: the ordered question list,
// the option variants, and the theme presentation table. Everything here is
// built once at process start and never mutated.
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// RhythmQuestionID is the one question whose answer drives motion and density.
const RhythmQuestionID = 3

//go:embed questions.yaml
var questionsYAML []byte

var questions = mustParse(questionsYAML)

// Questions returns the onboarding questions in asking order.
// The returned slice is a copy; the catalog itself is immutable.
func Questions() []Question {
	out := make([]Question, len(questions))
	for i, q := range questions {
		out[i] = q
		out[i].Options = append([]Option(nil), q.Options...)
	}
	return out
}

// Lookup returns the question with the given id.
func Lookup(id int) (Question, bool) {
	for _, q := range questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// rawCatalog mirrors questions.yaml.
type rawCatalog struct {
	Questions []rawQuestion `yaml:"questions"`
}

type rawQuestion struct {
	ID       int         `yaml:"id"`
	Category string      `yaml:"category"`
	Prompt   string      `yaml:"prompt"`
	Options  []rawOption `yaml:"options"`
}

type rawOption struct {
	Label   string `yaml:"label"`
	Theme   string `yaml:"theme"`
	Motion  string `yaml:"motion"`
	Density string `yaml:"density"`
}

// Parse decodes and validates a YAML question catalog.
// Question ids must be positive and strictly ascending; every option must
// carry either a theme or a motion+density pair, never both.
func Parse(data []byte) ([]Question, error) {
	var raw rawCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(raw.Questions) == 0 {
		return nil, fmt.Errorf("catalog has no questions")
	}

	out := make([]Question, 0, len(raw.Questions))
	prevID := 0
	for _, rq := range raw.Questions {
		if rq.ID <= prevID {
			return nil, fmt.Errorf("question id %d out of order (after %d)", rq.ID, prevID)
		}
		prevID = rq.ID

		if len(rq.Options) == 0 {
			return nil, fmt.Errorf("question %d has no options", rq.ID)
		}

		q := Question{
			ID:       rq.ID,
			Category: rq.Category,
			Prompt:   rq.Prompt,
			Options:  make([]Option, 0, len(rq.Options)),
		}
		for i, ro := range rq.Options {
			opt, err := ro.toOption()
			if err != nil {
				return nil, fmt.Errorf("question %d option %d: %w", rq.ID, i, err)
			}
			q.Options = append(q.Options, opt)
		}
		out = append(out, q)
	}
	return out, nil
}

func (ro rawOption) toOption() (Option, error) {
	hasTheme := ro.Theme != ""
	hasRhythm := ro.Motion != "" || ro.Density != ""

	switch {
	case hasTheme && hasRhythm:
		return nil, fmt.Errorf("option %q has both a theme and rhythm signals", ro.Label)
	case hasTheme:
		theme, ok := ParseTheme(ro.Theme)
		if !ok {
			return nil, fmt.Errorf("option %q: unknown theme %q", ro.Label, ro.Theme)
		}
		return ThemeOption{Text: ro.Label, Theme: theme}, nil
	case hasRhythm:
		motion, ok := ParseMotion(ro.Motion)
		if !ok {
			return nil, fmt.Errorf("option %q: unknown motion %q", ro.Label, ro.Motion)
		}
		density, ok := ParseDensity(ro.Density)
		if !ok {
			return nil, fmt.Errorf("option %q: unknown density %q", ro.Label, ro.Density)
		}
		return RhythmOption{Text: ro.Label, Motion: motion, Density: density}, nil
	default:
		return nil, fmt.Errorf("option %q has neither a theme nor rhythm signals", ro.Label)
	}
}

func mustParse(data []byte) []Question {
	qs, err := Parse(data)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded questions.yaml: %v", err))
	}
	return qs
}
