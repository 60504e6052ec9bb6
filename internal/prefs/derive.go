// Package prefs turns onboarding answers into presentation preferences and
// owns the per-visitor personalization state.
package prefs

import "github.com/hpungsan/attune/internal/catalog"

// AnswerMap maps a question id to the option the visitor selected.
// Unanswered questions are absent.
type AnswerMap map[int]catalog.Option

// Clone returns an independent copy of m.
func (m AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(m))
	for id, opt := range m {
		out[id] = opt
	}
	return out
}

// Preferences is the derived (theme, motion, density) tuple.
type Preferences struct {
	Theme   catalog.Theme   `json:"theme"`
	Motion  catalog.Motion  `json:"motion"`
	Density catalog.Density `json:"density"`
}

// DefaultPreferences is what an unpersonalized visitor sees.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:   catalog.DefaultTheme,
		Motion:  catalog.MotionLow,
		Density: catalog.DensitySpacious,
	}
}

// Derive computes preferences from recorded answers. It is total: any subset
// of answers, including none, yields a valid tuple.
//
// Theme and rhythm are independent. Theme comes from a calm/vibrant vote over
// every theme-bearing answer; vibrant wins only on a strict majority, so ties
// resolve to the default theme. Other theme values cast no vote, which means
// focused is never produced here. Motion and density come solely from the
// rhythm question.
func Derive(answers AnswerMap) Preferences {
	out := DefaultPreferences()

	calmVotes, vibrantVotes := 0, 0
	for _, answer := range answers {
		opt, ok := answer.(catalog.ThemeOption)
		if !ok {
			continue
		}
		switch opt.Theme {
		case catalog.ThemeCalm:
			calmVotes++
		case catalog.ThemeVibrant:
			vibrantVotes++
		}
	}
	if vibrantVotes > calmVotes {
		out.Theme = catalog.ThemeVibrant
	}

	if rhythm, ok := answers[catalog.RhythmQuestionID].(catalog.RhythmOption); ok {
		if m, ok := catalog.ParseMotion(string(rhythm.Motion)); ok {
			out.Motion = m
		}
		if d, ok := catalog.ParseDensity(string(rhythm.Density)); ok {
			out.Density = d
		}
	}

	return out
}
