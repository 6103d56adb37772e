package ui

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/piwi3910/lotcut/internal/model"
)

// showAdvancedSettings opens the genetic and ILP tuning dialog for the
// current job. Changes apply only after the dialog is confirmed.
func (a *App) showAdvancedSettings() {
	ga := a.job.Settings.Genetic
	ilp := a.job.Settings.ILP

	floatEntry := func(val *float64) *widget.Entry {
		e := widget.NewEntry()
		e.SetText(strconv.FormatFloat(*val, 'f', -1, 64))
		e.OnChanged = func(text string) {
			if v, err := strconv.ParseFloat(text, 64); err == nil {
				*val = v
			}
		}
		return e
	}

	intEntry := func(val *int) *widget.Entry {
		e := widget.NewEntry()
		e.SetText(fmt.Sprintf("%d", *val))
		e.OnChanged = func(text string) {
			if v, err := strconv.Atoi(text); err == nil {
				*val = v
			}
		}
		return e
	}

	seedEntry := widget.NewEntry()
	seedEntry.SetPlaceHolder("0 = random")
	seedEntry.SetText(strconv.FormatInt(ga.Seed, 10))
	seedEntry.OnChanged = func(text string) {
		if v, err := strconv.ParseInt(text, 10, 64); err == nil {
			ga.Seed = v
		}
	}

	timeLimitEntry := widget.NewEntry()
	timeLimitEntry.SetText(ilp.TimeLimit.String())
	timeLimitEntry.OnChanged = func(text string) {
		if v, err := time.ParseDuration(text); err == nil {
			ilp.TimeLimit = v
		}
	}

	searchSection := widget.NewCard("Genetic Search", "Population and operators",
		container.NewGridWithColumns(2,
			widget.NewLabel("Population Size"), intEntry(&ga.PopulationSize),
			widget.NewLabel("Generations"), intEntry(&ga.Generations),
			widget.NewLabel("Elite Fraction (0-1)"), floatEntry(&ga.EliteFraction),
			widget.NewLabel("Tournament Size"), intEntry(&ga.TournamentSize),
			widget.NewLabel("Mutation Rate (0-1)"), floatEntry(&ga.MutationRate),
			widget.NewLabel("Construction Attempts"), intEntry(&ga.InitAttempts),
			widget.NewLabel("Over-cut Buffer (layers)"), intEntry(&ga.OverCutBuffer),
			widget.NewLabel("Layer Shift"), intEntry(&ga.LayerShift),
			widget.NewLabel("Seed"), seedEntry,
		))

	fitnessSection := widget.NewCard("Genetic Fitness", "Higher weights matter more",
		container.NewGridWithColumns(2,
			widget.NewLabel("Base Score"), floatEntry(&ga.BaseScore),
			widget.NewLabel("Shortfall Weight"), floatEntry(&ga.ShortfallWeight),
			widget.NewLabel("Excess Weight"), floatEntry(&ga.ExcessWeight),
			widget.NewLabel("Within Tolerance Bonus"), floatEntry(&ga.WithinBonus),
			widget.NewLabel("Extra Lot Penalty"), floatEntry(&ga.ExtraLotPenalty),
			widget.NewLabel("Fabric Efficiency Weight"), floatEntry(&ga.EfficiencyWeight),
			widget.NewLabel("Layer Bonus"), floatEntry(&ga.LayerBonus),
			widget.NewLabel("Wide Marker Bonus"), floatEntry(&ga.WideMarkerBonus),
			widget.NewLabel("Lot Overrun Penalty"), floatEntry(&ga.OverrunPenalty),
		))

	ilpSection := widget.NewCard("Exact Solver (ILP)", "",
		container.NewGridWithColumns(2,
			widget.NewLabel("Split Penalty"), floatEntry(&ilp.SplitPenalty),
			widget.NewLabel("Big M"), floatEntry(&ilp.BigM),
			widget.NewLabel("Node Limit"), intEntry(&ilp.NodeLimit),
			widget.NewLabel("Time Limit (e.g. 30s)"), timeLimitEntry,
		))

	var d dialog.Dialog
	resetBtn := widget.NewButton("Reset to Defaults", func() {
		defaults := model.DefaultSettings()
		a.job.Settings.Genetic = defaults.Genetic
		a.job.Settings.ILP = defaults.ILP
		d.Hide()
		a.showAdvancedSettings()
	})

	content := container.NewVScroll(container.NewVBox(
		searchSection,
		fitnessSection,
		ilpSection,
		container.NewHBox(layout.NewSpacer(), resetBtn),
	))

	d = dialog.NewCustomConfirm("Solver Tuning", "Apply", "Cancel", content, func(ok bool) {
		if !ok {
			return
		}
		if err := ga.Validate(); err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if ilp.NodeLimit < 0 || ilp.TimeLimit < 0 || ilp.BigM <= 0 {
			dialog.ShowError(fmt.Errorf("ILP limits must be >= 0 and big M > 0"), a.window)
			return
		}
		a.job.Settings.Genetic = ga
		a.job.Settings.ILP = ilp
	}, a.window)
	d.Resize(fyne.NewSize(650, 650))
	d.Show()
}
