// Package ui is the Fyne desktop front end of the lot cutting planner: order
// and roll entry, per-strategy runs, plan review and the admin screens.
//
// This file holds the planner theme. The order grid and the cut plan table
// carry a column per garment size, so text and padding are tighter than
// the Fyne defaults.

package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// planSizes overrides Fyne sizes so a full size run fits one table row.
var planSizes = map[fyne.ThemeSizeName]float32{
	theme.SizeNameText:           12,
	theme.SizeNameCaptionText:    9,
	theme.SizeNameHeadingText:    20,
	theme.SizeNameSubHeadingText: 15,
	theme.SizeNamePadding:        3,
	theme.SizeNameInnerPadding:   6,
	theme.SizeNameInlineIcon:     16,
}

// planTheme pins the light/dark variant chosen in the planner settings and
// applies planSizes on top of the default theme.
type planTheme struct {
	base    fyne.Theme
	variant fyne.ThemeVariant
}

// ThemeFor builds the theme for the AppConfig theme preference. "light" and
// "dark" pin the variant; anything else follows the system variant.
func ThemeFor(pref string, system fyne.ThemeVariant) fyne.Theme {
	variant := system
	switch pref {
	case "light":
		variant = theme.VariantLight
	case "dark":
		variant = theme.VariantDark
	}
	return &planTheme{base: theme.DefaultTheme(), variant: variant}
}

func (t *planTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	return t.base.Color(name, t.variant)
}

func (t *planTheme) Font(style fyne.TextStyle) fyne.Resource { return t.base.Font(style) }

func (t *planTheme) Icon(name fyne.ThemeIconName) fyne.Resource { return t.base.Icon(name) }

func (t *planTheme) Size(name fyne.ThemeSizeName) float32 {
	if s, ok := planSizes[name]; ok {
		return s
	}
	return t.base.Size(name)
}
