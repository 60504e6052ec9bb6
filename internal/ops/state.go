package ops

import (
	"sort"
	"strings"

	"github.com/hpungsan/attune/internal/catalog"
	"github.com/hpungsan/attune/internal/onboarding"
	"github.com/hpungsan/attune/internal/prefs"
)

// StateOutput is the full personalization view of one profile.
type StateOutput struct {
	ProfileID string `json:"profile_id"`
	prefs.Snapshot
	ThemeConfig catalog.ThemeConfig `json:"theme_config"`
	Step        onboarding.Step     `json:"step"`
	// Question is set while the controller is asking one.
	Question *QuestionView `json:"question,omitempty"`
	Answers  []AnswerView  `json:"answers"`
	// Derived is set once the last question has been answered.
	Derived *prefs.Preferences `json:"derived,omitempty"`
}

// AnswerView is one recorded answer.
type AnswerView struct {
	QuestionID  int    `json:"question_id"`
	OptionIndex int    `json:"option_index"`
	Label       string `json:"label"`
}

// GetState returns the profile's preferences, onboarding step and answers.
func (s *Service) GetState(profileID string) (*StateOutput, error) {
	sess, id, err := s.session(profileID)
	if err != nil {
		return nil, err
	}
	return s.view(id, sess), nil
}

func (s *Service) view(id string, sess *session) *StateOutput {
	snap := sess.state.Snapshot()
	out := &StateOutput{
		ProfileID:   id,
		Snapshot:    snap,
		ThemeConfig: catalog.ConfigFor(snap.Theme),
		Step:        sess.ctrl.Step(),
		Answers:     s.answerViews(sess.state.Answers()),
	}
	if q, ok := sess.ctrl.CurrentQuestion(); ok {
		v := newQuestionView(q)
		out.Question = &v
	}
	if d, ok := sess.ctrl.Derived(); ok {
		out.Derived = &d
	}
	return out
}

// GuestState is the view served to a visitor without a profile: default
// preferences at the intro step. No profile is created.
func (s *Service) GuestState() *StateOutput {
	d := prefs.DefaultPreferences()
	snap := prefs.Snapshot{Theme: d.Theme, Motion: d.Motion, Density: d.Density}
	return &StateOutput{
		Snapshot:    snap,
		ThemeConfig: catalog.ConfigFor(snap.Theme),
		Step:        onboarding.Step{Phase: onboarding.PhaseIntro},
		Answers:     []AnswerView{},
	}
}

func (s *Service) answerViews(answers prefs.AnswerMap) []AnswerView {
	views := make([]AnswerView, 0, len(answers))
	for qid, opt := range answers {
		index := -1
		if q, ok := catalog.Lookup(qid); ok {
			index = q.IndexOf(opt)
		}
		views = append(views, AnswerView{QuestionID: qid, OptionIndex: index, Label: opt.Label()})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].QuestionID < views[j].QuestionID })
	return views
}

// VisitInput contains parameters for the Visit operation.
type VisitInput struct {
	ProfileID string
	// Fragment is the URL fragment the visitor arrived with, with or without '#'.
	Fragment string
}

// VisitOutput reports whether the onboarding overlay should be shown.
type VisitOutput struct {
	ShowOnboarding bool   `json:"show_onboarding"`
	Reason         string `json:"reason"`
}

// Visit decides whether to show onboarding on landing. It is shown only to a
// visitor who has not completed it and arrived without a deep link. Visit
// never changes state.
func (s *Service) Visit(input VisitInput) (*VisitOutput, error) {
	sess, _, err := s.session(input.ProfileID)
	if err != nil {
		return nil, err
	}
	return decideVisit(sess.state.Snapshot().HasCompletedOnboarding, input.Fragment), nil
}

// GuestVisit is Visit for a visitor without a profile, who has never
// completed onboarding.
func (s *Service) GuestVisit(fragment string) *VisitOutput {
	return decideVisit(false, fragment)
}

func decideVisit(completed bool, fragment string) *VisitOutput {
	if completed {
		return &VisitOutput{Reason: "completed"}
	}
	if strings.TrimPrefix(strings.TrimSpace(fragment), "#") != "" {
		return &VisitOutput{Reason: "deep_link"}
	}
	return &VisitOutput{ShowOnboarding: true, Reason: "first_visit"}
}
