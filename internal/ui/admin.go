package ui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/piwi3910/lotcut/internal/importer"
	"github.com/piwi3910/lotcut/internal/model"
	"github.com/piwi3910/lotcut/internal/project"
)

// showPreferencesDialog displays the application preferences editor.
func (a *App) showPreferencesDialog() {
	cfg := a.config

	floatEntry := func(val *float64) *widget.Entry {
		e := widget.NewEntry()
		e.SetText(fmt.Sprintf("%g", *val))
		e.OnChanged = func(text string) {
			if v, ok := importer.ParseDecimal(text); ok {
				*val = v
			}
		}
		return e
	}
	textEntry := func(val *string, placeholder string) *widget.Entry {
		e := widget.NewEntry()
		e.SetPlaceHolder(placeholder)
		e.SetText(*val)
		e.OnChanged = func(text string) { *val = strings.TrimSpace(text) }
		return e
	}

	themeSelect := widget.NewSelect([]string{"system", "light", "dark"}, func(selected string) {
		cfg.Theme = selected
	})
	themeSelect.SetSelected(cfg.Theme)

	var strategyNames []string
	for _, st := range model.Strategies() {
		strategyNames = append(strategyNames, string(st))
	}
	strategySelect := widget.NewSelect(strategyNames, func(selected string) {
		if st, ok := model.ParseStrategy(selected); ok {
			cfg.DefaultStrategy = st
		}
	})
	strategySelect.SetSelected(string(cfg.DefaultStrategy))

	boundsEntry := widget.NewEntry()
	boundsEntry.SetText(formatBounds(cfg.DefaultBands))
	namesEntry := widget.NewEntry()
	namesEntry.SetText(strings.Join(cfg.DefaultBands.Names, " "))

	logLevelSelect := widget.NewSelect([]string{"debug", "info", "warn", "error"}, func(selected string) {
		cfg.LogLevel = selected
	})
	logLevelSelect.SetSelected(cfg.LogLevel)

	formItems := []*widget.FormItem{
		widget.NewFormItem("Theme", themeSelect),
		widget.NewFormItem("", widget.NewSeparator()),
		widget.NewFormItem("Default Strategy", strategySelect),
		widget.NewFormItem("Default Over-production (%)", floatEntry(&cfg.DefaultInflationPct)),
		widget.NewFormItem("Default Consumption (m/piece)", floatEntry(&cfg.DefaultConsumption)),
		widget.NewFormItem("Default Band Limits (%)", boundsEntry),
		widget.NewFormItem("Default Class Names", namesEntry),
		widget.NewFormItem("", widget.NewSeparator()),
		widget.NewFormItem("Log Level", logLevelSelect),
		widget.NewFormItem("Audit Log (JSONL)", textEntry(&cfg.AuditJSONL, "path, empty = off")),
		widget.NewFormItem("Audit DB (SQLite)", textEntry(&cfg.AuditSQLite, "path, empty = off")),
		widget.NewFormItem("Audit DB (Postgres)", textEntry(&cfg.AuditPostgres, "DSN, empty = off")),
	}

	d := dialog.NewForm("Preferences", "Save", "Cancel", formItems,
		func(ok bool) {
			if !ok {
				return
			}
			bands, err := parseBands(boundsEntry.Text, namesEntry.Text)
			if err != nil {
				dialog.ShowError(err, a.window)
				return
			}
			cfg.DefaultBands = bands
			if cfg.DefaultConsumption <= 0 || cfg.DefaultInflationPct < 0 {
				dialog.ShowError(fmt.Errorf("consumption must be > 0 and over-production >= 0"), a.window)
				return
			}
			a.config = cfg
			fyne.CurrentApp().Settings().SetTheme(ThemeFor(cfg.Theme, fyne.CurrentApp().Settings().ThemeVariant()))
			if err := a.saveConfig(); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save preferences: %w", err), a.window)
			} else {
				dialog.ShowInformation("Preferences Saved",
					"Preferences have been saved. Audit and log changes apply on restart.", a.window)
			}
			a.refreshLots()
		},
		a.window,
	)
	d.Resize(fyne.NewSize(550, 600))
	d.Show()
}

// showBackupDialog displays the backup and restore dialog.
func (a *App) showBackupDialog() {
	exportBtn := widget.NewButton("Export All Data...", func() {
		d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
			if err != nil || writer == nil {
				return
			}
			path := writer.URI().Path()
			writer.Close()
			if err := project.ExportBackup(path, a.config, a.customers); err != nil {
				dialog.ShowError(err, a.window)
			} else {
				dialog.ShowInformation("Export Complete",
					fmt.Sprintf("All application data exported to:\n%s", path), a.window)
			}
		}, a.window)
		d.SetFileName("lotcut-backup.json")
		d.Show()
	})

	importBtn := widget.NewButton("Import All Data...", func() {
		dialog.ShowConfirm("Import Data",
			"Importing data will replace your preferences and customers.\n\nAre you sure you want to continue?",
			func(ok bool) {
				if !ok {
					return
				}
				d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
					if err != nil || reader == nil {
						return
					}
					defer reader.Close()
					backup, err := project.ImportBackup(reader.URI().Path())
					if err != nil {
						dialog.ShowError(err, a.window)
						return
					}
					a.config = backup.Config
					a.customers = backup.Customers
					if err := a.saveConfig(); err != nil {
						dialog.ShowError(fmt.Errorf("failed to save imported settings: %w", err), a.window)
						return
					}
					a.saveCustomers()
					a.refreshSettings()
					a.refreshLots()
					a.SetupMenus()
					dialog.ShowInformation("Import Complete",
						fmt.Sprintf("Data imported successfully from backup created at %s.", backup.CreatedAt), a.window)
				}, a.window)
				d.Show()
			},
			a.window,
		)
	})

	content := container.NewVBox(
		widget.NewLabel("Export preferences and customers to a backup file,\nor restore them from a previously exported backup."),
		widget.NewSeparator(),
		exportBtn,
		widget.NewSeparator(),
		importBtn,
	)

	d := dialog.NewCustom("Backup and Restore", "Close", content, a.window)
	d.Resize(fyne.NewSize(450, 250))
	d.Show()
}

// saveConfig persists the current app config to disk.
func (a *App) saveConfig() error {
	path := a.configPath
	if path == "" {
		path = project.DefaultConfigPath()
	}
	return project.SaveAppConfig(path, a.config)
}
