package prefs

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/attune/internal/catalog"
)

// failingKV fails every call, like a browser with storage disabled.
type failingKV struct{}

func (failingKV) Get(string) (string, bool, error) { return "", false, fmt.Errorf("storage disabled") }
func (failingKV) Set(string, string) error         { return fmt.Errorf("storage disabled") }
func (failingKV) Delete(string) error              { return fmt.Errorf("storage disabled") }

func TestStorage_ThemeRoundTrip(t *testing.T) {
	kv := NewMemoryKV()
	s := NewStorage(kv, nil)

	_, ok := s.ReadTheme()
	require.False(t, ok)

	s.WriteTheme(catalog.ThemeFocused)

	// A fresh adapter over the same store sees the write.
	theme, ok := NewStorage(kv, nil).ReadTheme()
	require.True(t, ok)
	require.Equal(t, catalog.ThemeFocused, theme)
}

func TestStorage_UnknownThemeIsAbsent(t *testing.T) {
	for _, raw := range []string{"neon", "", "CALM", "calm;drop"} {
		t.Run(raw, func(t *testing.T) {
			kv := NewMemoryKV()
			require.NoError(t, kv.Set(KeyTheme, raw))

			_, ok := NewStorage(kv, nil).ReadTheme()
			require.False(t, ok)
		})
	}
}

func TestStorage_CompletionFlag(t *testing.T) {
	kv := NewMemoryKV()
	s := NewStorage(kv, nil)

	require.False(t, s.ReadCompletionFlag())

	s.WriteCompletionFlag(true)
	require.True(t, s.ReadCompletionFlag())
	v, ok, _ := kv.Get(KeyCompleted)
	require.True(t, ok)
	require.Equal(t, "true", v)

	s.WriteCompletionFlag(false)
	require.False(t, s.ReadCompletionFlag())
	_, ok, _ = kv.Get(KeyCompleted)
	require.False(t, ok, "false removes the entry")

	require.NoError(t, kv.Set(KeyCompleted, "yes"))
	require.False(t, s.ReadCompletionFlag(), "only the literal true counts")
}

func TestStorage_Clear(t *testing.T) {
	kv := NewMemoryKV()
	s := NewStorage(kv, nil)
	s.WriteTheme(catalog.ThemeVibrant)
	s.WriteCompletionFlag(true)

	s.Clear()

	_, ok := s.ReadTheme()
	require.False(t, ok)
	require.False(t, s.ReadCompletionFlag())
}

func TestStorage_FailuresAreSwallowed(t *testing.T) {
	s := NewStorage(failingKV{}, nil)

	require.NotPanics(t, func() {
		s.WriteTheme(catalog.ThemeVibrant)
		s.WriteCompletionFlag(true)
		s.WriteCompletionFlag(false)
		s.Clear()
	})

	_, ok := s.ReadTheme()
	require.False(t, ok)
	require.False(t, s.ReadCompletionFlag())
}
