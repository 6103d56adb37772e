package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func variantOf(t *testing.T, pref string, system fyne.ThemeVariant) fyne.ThemeVariant {
	t.Helper()
	th, ok := ThemeFor(pref, system).(*planTheme)
	require.True(t, ok)
	return th.variant
}

func TestThemeFor(t *testing.T) {
	assert.Equal(t, theme.VariantLight, variantOf(t, "light", theme.VariantDark))
	assert.Equal(t, theme.VariantDark, variantOf(t, "dark", theme.VariantLight))
	assert.Equal(t, theme.VariantLight, variantOf(t, "system", theme.VariantLight))
	assert.Equal(t, theme.VariantDark, variantOf(t, "", theme.VariantDark))
}

func TestThemeCompactSizes(t *testing.T) {
	th := ThemeFor("light", theme.VariantLight)
	assert.Equal(t, float32(12), th.Size(theme.SizeNameText))
	assert.Equal(t, float32(3), th.Size(theme.SizeNamePadding))
	if got, want := th.Size(theme.SizeNameScrollBar), theme.DefaultTheme().Size(theme.SizeNameScrollBar); got != want {
		t.Errorf("scroll bar size = %v, want default %v", got, want)
	}
}

func TestThemeColorIgnoresRequestedVariant(t *testing.T) {
	th := ThemeFor("dark", theme.VariantLight)
	want := theme.DefaultTheme().Color(theme.ColorNameBackground, theme.VariantDark)
	assert.Equal(t, want, th.Color(theme.ColorNameBackground, theme.VariantLight))
}
