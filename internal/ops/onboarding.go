package ops

// AnswerInput contains parameters for the Answer operation.
type AnswerInput struct {
	ProfileID   string
	QuestionID  int // must be the question currently asked
	OptionIndex int // 0-based
}

// Start begins the questionnaire from the intro screen.
func (s *Service) Start(profileID string) (*StateOutput, error) {
	return s.transition(profileID, func(sess *session) error {
		return sess.ctrl.Start()
	})
}

// Answer selects an option for the current question.
func (s *Service) Answer(input AnswerInput) (*StateOutput, error) {
	return s.transition(input.ProfileID, func(sess *session) error {
		return sess.ctrl.Select(input.QuestionID, input.OptionIndex)
	})
}

// Back returns to the previous question, or to the intro from the first one.
func (s *Service) Back(profileID string) (*StateOutput, error) {
	return s.transition(profileID, func(sess *session) error {
		return sess.ctrl.Back()
	})
}

// Skip bypasses the questionnaire and applies the default theme once the
// processing delay elapses.
func (s *Service) Skip(profileID string) (*StateOutput, error) {
	return s.transition(profileID, func(sess *session) error {
		return sess.ctrl.Skip()
	})
}

// Reset cancels pending onboarding work, restores default preferences and
// clears the persisted theme and completion flag.
func (s *Service) Reset(profileID string) (*StateOutput, error) {
	return s.transition(profileID, func(sess *session) error {
		sess.ctrl.Reset()
		sess.state.ResetOnboarding()
		return nil
	})
}

// transition applies f to the profile's session and returns the resulting view.
func (s *Service) transition(profileID string, f func(*session) error) (*StateOutput, error) {
	sess, id, err := s.session(profileID)
	if err != nil {
		return nil, err
	}
	if err := f(sess); err != nil {
		return nil, err
	}
	return s.view(id, sess), nil
}
