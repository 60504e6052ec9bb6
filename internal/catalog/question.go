package catalog

// Question is one onboarding prompt with its fixed choices.
type Question struct {
	ID       int      `json:"id"`
	Category string   `json:"category"`
	Prompt   string   `json:"prompt"`
	Options  []Option `json:"options"`
}

// Option is a single choice. It is sealed: the only implementations are
// ThemeOption and RhythmOption, so an option carries exactly one shape.
type Option interface {
	Label() string
	option()
}

// ThemeOption names a candidate theme directly.
type ThemeOption struct {
	Text  string `json:"label"`
	Theme Theme  `json:"theme"`
}

// Label implements Option.
func (o ThemeOption) Label() string { return o.Text }

func (ThemeOption) option() {}

// RhythmOption contributes motion and density signals.
type RhythmOption struct {
	Text    string  `json:"label"`
	Motion  Motion  `json:"motion"`
	Density Density `json:"density"`
}

// Label implements Option.
func (o RhythmOption) Label() string { return o.Text }

func (RhythmOption) option() {}

// OptionAt returns the option at index i, or false when i is out of range.
func (q Question) OptionAt(i int) (Option, bool) {
	if i < 0 || i >= len(q.Options) {
		return nil, false
	}
	return q.Options[i], true
}

// IndexOf returns the position of opt among q's options, or -1.
func (q Question) IndexOf(opt Option) int {
	for i, candidate := range q.Options {
		if candidate == opt {
			return i
		}
	}
	return -1
}
