package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTheme(t *testing.T) {
	tests := []struct {
		in     string
		want   Theme
		wantOK bool
	}{
		{"calm", ThemeCalm, true},
		{"focused", ThemeFocused, true},
		{"vibrant", ThemeVibrant, true},
		{" vibrant ", ThemeVibrant, true},
		{"Calm", "", false},
		{"", "", false},
		{"neon", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTheme(tt.in)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestTheme_Next(t *testing.T) {
	require.Equal(t, ThemeVibrant, ThemeCalm.Next())
	require.Equal(t, ThemeFocused, ThemeVibrant.Next())
	require.Equal(t, ThemeCalm, ThemeFocused.Next())
	require.Equal(t, ThemeCalm, Theme("bogus").Next())
}

func TestConfigFor(t *testing.T) {
	cfg := ConfigFor(ThemeVibrant)
	require.Equal(t, "Vibrant", cfg.Label)
	require.Equal(t, "vibrant-layout", cfg.Layout)
	require.Equal(t, "var(--accent-main-vibrant)", cfg.Colors.AccentMain)
	require.Equal(t, MotionHigh, cfg.Motion)
	require.Equal(t, DensityDense, cfg.Density)

	require.Equal(t, ThemeCalm, ConfigFor("bogus").ID)
}

func TestThemes_ReturnsCopy(t *testing.T) {
	ts := Themes()
	ts[0] = ThemeVibrant
	require.Equal(t, []Theme{ThemeCalm, ThemeVibrant, ThemeFocused}, Themes())
}
