package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuestions_Embedded(t *testing.T) {
	qs := Questions()
	require.Len(t, qs, 3)

	for i, q := range qs {
		require.Equal(t, i+1, q.ID, "questions must be in ascending id order")
		require.Len(t, q.Options, 2)
	}

	require.Equal(t, "Emotional Tone", qs[0].Category)
	require.Equal(t, ThemeOption{Text: "Quiet time and a slow routine", Theme: ThemeCalm}, qs[0].Options[0])
	require.Equal(t, ThemeOption{Text: "Boom! It leaves you buzzing", Theme: ThemeVibrant}, qs[1].Options[1])

	rhythm, ok := Lookup(RhythmQuestionID)
	require.True(t, ok)
	require.Equal(t, "Exploration Rhythm", rhythm.Category)
	require.Equal(t, RhythmOption{Text: "Jump in and figure it out", Motion: MotionHigh, Density: DensityDense}, rhythm.Options[1])
}

func TestQuestions_NoFocusedOption(t *testing.T) {
	for _, q := range Questions() {
		for _, opt := range q.Options {
			if to, ok := opt.(ThemeOption); ok {
				require.NotEqual(t, ThemeFocused, to.Theme)
			}
		}
	}
}

func TestQuestions_ReturnsCopy(t *testing.T) {
	qs := Questions()
	qs[0].Prompt = "mutated"
	qs[0].Options[0] = ThemeOption{Text: "x", Theme: ThemeVibrant}

	again := Questions()
	require.Equal(t, "How do you usually start your day?", again[0].Prompt)
	require.Equal(t, ThemeCalm, again[0].Options[0].(ThemeOption).Theme)
}

func TestLookup_Unknown(t *testing.T) {
	_, ok := Lookup(42)
	require.False(t, ok)
}

func TestQuestion_OptionAt(t *testing.T) {
	q, _ := Lookup(1)

	opt, ok := q.OptionAt(1)
	require.True(t, ok)
	require.Equal(t, "Music, energy, and motion", opt.Label())
	require.Equal(t, 1, q.IndexOf(opt))

	_, ok = q.OptionAt(2)
	require.False(t, ok)
	_, ok = q.OptionAt(-1)
	require.False(t, ok)
	require.Equal(t, -1, q.IndexOf(RhythmOption{Text: "nope"}))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "empty",
			yaml:    "questions: []",
			wantErr: "no questions",
		},
		{
			name: "both shapes",
			yaml: `
questions:
  - id: 1
    options:
      - label: a
        theme: calm
        motion: low
        density: dense`,
			wantErr: "both a theme and rhythm",
		},
		{
			name: "neither shape",
			yaml: `
questions:
  - id: 1
    options:
      - label: a`,
			wantErr: "neither a theme nor rhythm",
		},
		{
			name: "unknown theme",
			yaml: `
questions:
  - id: 1
    options:
      - label: a
        theme: neon`,
			wantErr: "unknown theme",
		},
		{
			name: "motion without density",
			yaml: `
questions:
  - id: 1
    options:
      - label: a
        motion: high`,
			wantErr: "unknown density",
		},
		{
			name: "ids out of order",
			yaml: `
questions:
  - id: 2
    options:
      - {label: a, theme: calm}
  - id: 1
    options:
      - {label: b, theme: calm}`,
			wantErr: "out of order",
		},
		{
			name: "no options",
			yaml: `
questions:
  - id: 1`,
			wantErr: "no options",
		},
		{
			name:    "malformed",
			yaml:    "questions: [",
			wantErr: "parse catalog",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_FocusedThemeOption(t *testing.T) {
	qs, err := Parse([]byte(`
questions:
  - id: 7
    category: Focus
    prompt: Pick one
    options:
      - {label: Sharp and professional, theme: focused}`))
	require.NoError(t, err)
	require.Len(t, qs, 1)
	require.Equal(t, ThemeOption{Text: "Sharp and professional", Theme: ThemeFocused}, qs[0].Options[0])
}
