package ops

import (
	"github.com/hpungsan/attune/internal/catalog"
	"github.com/hpungsan/attune/internal/errors"
)

// ThemeInput contains parameters for the SwitchTheme operation.
type ThemeInput struct {
	ProfileID string
	Theme     string // calm | focused | vibrant
}

// SwitchTheme sets the theme directly. Motion, density and the completion
// flag are untouched.
func (s *Service) SwitchTheme(input ThemeInput) (*StateOutput, error) {
	theme, ok := catalog.ParseTheme(input.Theme)
	if !ok {
		return nil, errors.NewUnknownTheme(input.Theme)
	}
	return s.transition(input.ProfileID, func(sess *session) error {
		return sess.state.SwitchTheme(theme)
	})
}

// CycleTheme advances calm → vibrant → focused → calm.
func (s *Service) CycleTheme(profileID string) (*StateOutput, error) {
	return s.transition(profileID, func(sess *session) error {
		sess.state.CycleTheme()
		return nil
	})
}
