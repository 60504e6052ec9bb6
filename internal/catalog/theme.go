package catalog

import "strings"

// Theme names one of the three presentation modes views render.
type Theme string

const (
	ThemeCalm    Theme = "calm"
	ThemeFocused Theme = "focused"
	ThemeVibrant Theme = "vibrant"
)

// DefaultTheme applies whenever no derivation has happened.
const DefaultTheme = ThemeCalm

// Motion is the animation intensity axis.
type Motion string

const (
	MotionLow  Motion = "low"
	MotionHigh Motion = "high"
)

// Density is the layout spacing axis.
type Density string

const (
	DensitySpacious Density = "spacious"
	DensityDense    Density = "dense"
)

// themeOrder is also the "switch vibe" cycle: calm → vibrant → focused → calm.
var themeOrder = []Theme{ThemeCalm, ThemeVibrant, ThemeFocused}

// Themes returns all known themes in cycle order.
func Themes() []Theme {
	out := make([]Theme, len(themeOrder))
	copy(out, themeOrder)
	return out
}

// ParseTheme returns the theme named by s. Unknown values report ok=false;
// callers must fall back to a default rather than propagate s.
func ParseTheme(s string) (Theme, bool) {
	switch t := Theme(strings.TrimSpace(s)); t {
	case ThemeCalm, ThemeFocused, ThemeVibrant:
		return t, true
	}
	return "", false
}

// ParseMotion returns the motion level named by s.
func ParseMotion(s string) (Motion, bool) {
	switch m := Motion(strings.TrimSpace(s)); m {
	case MotionLow, MotionHigh:
		return m, true
	}
	return "", false
}

// ParseDensity returns the density level named by s.
func ParseDensity(s string) (Density, bool) {
	switch d := Density(strings.TrimSpace(s)); d {
	case DensitySpacious, DensityDense:
		return d, true
	}
	return "", false
}

// Next returns the theme after t in the cycle. Unknown themes restart at calm.
func (t Theme) Next() Theme {
	for i, candidate := range themeOrder {
		if candidate == t {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return DefaultTheme
}

// Valid reports whether t is one of the three known themes.
func (t Theme) Valid() bool {
	_, ok := ParseTheme(string(t))
	return ok
}

// ThemeColors holds the CSS custom properties a theme binds.
type ThemeColors struct {
	BackgroundPrimary string `json:"background_primary"`
	TextPrimary       string `json:"text_primary"`
	AccentMain        string `json:"accent_main"`
}

// ThemeConfig describes how views present a theme.
type ThemeConfig struct {
	ID      Theme       `json:"id"`
	Label   string      `json:"label"`
	Layout  string      `json:"layout"`
	Colors  ThemeColors `json:"colors"`
	Motion  Motion      `json:"motion"`
	Density Density     `json:"density"`
}

var themeConfigs = map[Theme]ThemeConfig{
	ThemeCalm:    newThemeConfig(ThemeCalm, "Calm", MotionLow, DensitySpacious),
	ThemeVibrant: newThemeConfig(ThemeVibrant, "Vibrant", MotionHigh, DensityDense),
	ThemeFocused: newThemeConfig(ThemeFocused, "Focused", MotionLow, DensityDense),
}

func newThemeConfig(id Theme, label string, motion Motion, density Density) ThemeConfig {
	return ThemeConfig{
		ID:     id,
		Label:  label,
		Layout: string(id) + "-layout",
		Colors: ThemeColors{
			BackgroundPrimary: "var(--background-primary-" + string(id) + ")",
			TextPrimary:       "var(--text-primary-" + string(id) + ")",
			AccentMain:        "var(--accent-main-" + string(id) + ")",
		},
		Motion:  motion,
		Density: density,
	}
}

// ConfigFor returns the presentation config for t, or the default theme's
// config when t is unknown.
func ConfigFor(t Theme) ThemeConfig {
	if cfg, ok := themeConfigs[t]; ok {
		return cfg
	}
	return themeConfigs[DefaultTheme]
}
