package ops

import "github.com/hpungsan/attune/internal/catalog"

// QuestionView is a question flattened for surfaces.
type QuestionView struct {
	ID       int          `json:"id"`
	Category string       `json:"category"`
	Prompt   string       `json:"prompt"`
	Options  []OptionView `json:"options"`
}

// OptionView is one choice. Exactly one of Theme or Motion+Density is set.
type OptionView struct {
	Index   int             `json:"index"`
	Label   string          `json:"label"`
	Theme   catalog.Theme   `json:"theme,omitempty"`
	Motion  catalog.Motion  `json:"motion,omitempty"`
	Density catalog.Density `json:"density,omitempty"`
}

func newQuestionView(q catalog.Question) QuestionView {
	v := QuestionView{
		ID:       q.ID,
		Category: q.Category,
		Prompt:   q.Prompt,
		Options:  make([]OptionView, len(q.Options)),
	}
	for i, opt := range q.Options {
		ov := OptionView{Index: i, Label: opt.Label()}
		switch o := opt.(type) {
		case catalog.ThemeOption:
			ov.Theme = o.Theme
		case catalog.RhythmOption:
			ov.Motion = o.Motion
			ov.Density = o.Density
		}
		v.Options[i] = ov
	}
	return v
}

// QuestionsOutput contains the result of the Questions operation.
type QuestionsOutput struct {
	Items []QuestionView `json:"items"`
	Total int            `json:"total"`
}

// Questions returns the catalog in presentation order.
func (s *Service) Questions() *QuestionsOutput {
	items := make([]QuestionView, len(s.questions))
	for i, q := range s.questions {
		items[i] = newQuestionView(q)
	}
	return &QuestionsOutput{Items: items, Total: len(items)}
}
