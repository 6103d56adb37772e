package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/piwi3910/lotcut/internal/engine"
	"github.com/piwi3910/lotcut/internal/export"
	"github.com/piwi3910/lotcut/internal/importer"
	"github.com/piwi3910/lotcut/internal/model"
	"github.com/piwi3910/lotcut/internal/project"
	"github.com/piwi3910/lotcut/internal/tolerance"
	"github.com/piwi3910/lotcut/internal/ui/widgets"
)

// App holds all application state and UI references.
type App struct {
	window        fyne.Window
	job           model.Job
	jobPath       string
	config        model.AppConfig
	configPath    string
	customers     model.CustomerBook
	customersPath string
	history       *History
	tabs          *container.AppTabs
	logger        *zap.Logger
	recorder      engine.RunRecorder

	// UI references for dynamic updates
	ordersContainer *fyne.Container
	rollsContainer  *fyne.Container
	lotsContainer   *fyne.Container
	resultContainer *fyne.Container
	settingsPanel   *fyne.Container
}

// NewApp creates the application state. recorder may be nil.
func NewApp(window fyne.Window, config model.AppConfig, configPath string, logger *zap.Logger, recorder engine.RunRecorder) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	customers, customersPath, err := project.LoadOrCreateCustomers()
	if err != nil {
		logger.Warn("failed to load customers, using defaults", zap.Error(err))
	}
	a := &App{
		window:        window,
		config:        config,
		configPath:    configPath,
		customers:     customers,
		customersPath: customersPath,
		history:       NewHistory(),
		logger:        logger,
		recorder:      recorder,
	}
	a.job = a.newJob()
	return a
}

// newJob returns an empty job carrying the user's saved defaults.
func (a *App) newJob() model.Job {
	job := model.NewJob()
	a.config.ApplyToSettings(&job.Settings)
	if a.config.DefaultConsumption > 0 {
		job.Consumption.Average = a.config.DefaultConsumption
	}
	return job
}

// SetupMenus creates the native menu bar for the application.
func (a *App) SetupMenus() {
	recentItem := fyne.NewMenuItem("Open Recent", nil)
	recentItem.ChildMenu = a.recentMenu()

	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("New Job", func() {
			a.job = a.newJob()
			a.jobPath = ""
			a.history.Clear()
			a.refreshAll()
		}),
		fyne.NewMenuItem("Open Job...", func() {
			a.loadJob()
		}),
		recentItem,
		fyne.NewMenuItem("Save Job...", func() {
			a.saveJob()
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Import Orders from CSV...", func() {
			a.importFile("Import Orders", importer.ImportOrdersCSV, a.addImportedOrders)
		}),
		fyne.NewMenuItem("Import Orders from Excel...", func() {
			a.importFile("Import Orders", importer.ImportOrdersExcel, a.addImportedOrders)
		}),
		fyne.NewMenuItem("Import Rolls from CSV...", func() {
			a.importFile("Import Rolls", importer.ImportRollsCSV, a.addImportedRolls)
		}),
		fyne.NewMenuItem("Import Rolls from Excel...", func() {
			a.importFile("Import Rolls", importer.ImportRollsExcel, a.addImportedRolls)
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export PDF Report...", func() {
			a.exportResult("report.pdf", func(path string, r model.OptimizeResult) error {
				return export.ExportPDF(path, a.job, r)
			})
		}),
		fyne.NewMenuItem("Export Cut Tickets...", func() {
			a.exportResult("tickets.pdf", export.ExportTickets)
		}),
		fyne.NewMenuItem("Export Excel Workbook...", func() {
			a.exportResult("plans.xlsx", func(path string, r model.OptimizeResult) error {
				return export.ExportXLSX(path, a.job, r)
			})
		}),
		fyne.NewMenuItem("Export DXF Markers...", func() {
			a.exportResult("markers.dxf", func(path string, r model.OptimizeResult) error {
				return export.ExportDXF(path, r, a.job.Consumption)
			})
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() {
			a.window.Close()
		}),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", func() { a.undo() }),
		fyne.NewMenuItem("Redo", func() { a.redo() }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Paste Orders...", func() { a.showPasteOrdersDialog() }),
		fyne.NewMenuItem("Paste Rolls...", func() { a.showPasteRollsDialog() }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Clear All Orders", func() {
			a.pushHistory("Clear Orders")
			a.job.Orders = nil
			a.refreshOrdersList()
		}),
		fyne.NewMenuItem("Clear All Rolls", func() {
			a.pushHistory("Clear Rolls")
			a.job.Rolls = nil
			a.refreshRollsList()
		}),
	)

	toolsMenu := fyne.NewMenu("Tools",
		fyne.NewMenuItem("Optimize", func() {
			a.runOptimize()
		}),
		fyne.NewMenuItem("Compare Strategies...", func() {
			a.runCompare()
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Customers...", func() {
			a.showCustomersDialog()
		}),
		fyne.NewMenuItem("Solver Tuning...", func() {
			a.showAdvancedSettings()
		}),
		fyne.NewMenuItem("Preferences...", func() {
			a.showPreferencesDialog()
		}),
		fyne.NewMenuItem("Backup and Restore...", func() {
			a.showBackupDialog()
		}),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", func() {
			a.showAboutDialog()
		}),
	)

	a.window.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, toolsMenu, helpMenu))
}

func (a *App) recentMenu() *fyne.Menu {
	var items []*fyne.MenuItem
	for _, path := range a.config.RecentJobs {
		p := path
		items = append(items, fyne.NewMenuItem(filepath.Base(p), func() {
			a.openJob(p)
		}))
	}
	if len(items) == 0 {
		none := fyne.NewMenuItem("(none)", nil)
		none.Disabled = true
		items = append(items, none)
	}
	return fyne.NewMenu("Open Recent", items...)
}

func (a *App) showAboutDialog() {
	dialog.ShowInformation(
		"About LotCut",
		"LotCut - Fabric Lot Cutting Planner\n\n"+
			"Groups fabric rolls into tolerance-matched lots and plans\n"+
			"markers and layer counts that keep each order line\n"+
			"on as few lots as possible.\n\n"+
			"Version 1.0.0",
		a.window,
	)
}

// Build constructs the full UI and returns the root container.
func (a *App) Build() fyne.CanvasObject {
	ordersTab := container.NewTabItem("Orders", a.buildOrdersPanel())
	rollsTab := container.NewTabItem("Fabric Rolls", a.buildRollsPanel())
	lotsTab := container.NewTabItem("Lots", a.buildLotsPanel())
	a.settingsPanel = container.NewStack(a.buildSettingsPanel())
	settingsTab := container.NewTabItem("Settings", a.settingsPanel)
	resultsTab := container.NewTabItem("Results", a.buildResultsPanel())

	a.tabs = container.NewAppTabs(ordersTab, rollsTab, lotsTab, settingsTab, resultsTab)
	a.tabs.SetTabLocation(container.TabLocationTop)
	a.tabs.OnSelected = func(item *container.TabItem) {
		if item == lotsTab {
			a.refreshLots()
		}
	}
	return a.tabs
}

func (a *App) refreshAll() {
	a.refreshOrdersList()
	a.refreshRollsList()
	a.refreshLots()
	a.refreshSettings()
	a.refreshResults()
}

// ─── History ───────────────────────────────────────────────

func (a *App) pushHistory(label string) {
	a.history.Push(MakeSnapshot(a.job.Orders, a.job.Rolls, label))
}

func (a *App) restore(s Snapshot) {
	a.job.Orders = s.Orders
	a.job.Rolls = s.Rolls
	a.refreshOrdersList()
	a.refreshRollsList()
	a.refreshLots()
}

func (a *App) undo() {
	s, ok := a.history.Undo(MakeSnapshot(a.job.Orders, a.job.Rolls, "Redo"))
	if !ok {
		return
	}
	a.restore(s)
}

func (a *App) redo() {
	s, ok := a.history.Redo(MakeSnapshot(a.job.Orders, a.job.Rolls, "Undo"))
	if !ok {
		return
	}
	a.restore(s)
}

// ─── Orders Panel ──────────────────────────────────────────

func (a *App) buildOrdersPanel() fyne.CanvasObject {
	a.ordersContainer = container.NewVBox()
	a.refreshOrdersList()

	addBtn := widget.NewButtonWithIcon("Add Order", theme.ContentAddIcon(), func() {
		a.showOrderDialog(-1)
	})
	pasteBtn := widget.NewButtonWithIcon("Paste...", theme.ContentPasteIcon(), func() {
		a.showPasteOrdersDialog()
	})

	return container.NewBorder(
		container.NewHBox(
			widget.NewLabelWithStyle("Order Lines", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			layout.NewSpacer(),
			pasteBtn,
			addBtn,
		),
		nil, nil, nil,
		container.NewVScroll(a.ordersContainer),
	)
}

func (a *App) refreshOrdersList() {
	a.ordersContainer.RemoveAll()

	if len(a.job.Orders) == 0 {
		a.ordersContainer.Add(widget.NewLabel("No orders added yet. Click 'Add Order' or paste from a spreadsheet."))
		return
	}

	sizes := jobSizes(a.job.Orders)
	cols := len(sizes) + 4
	bold := fyne.TextStyle{Bold: true}
	header := []fyne.CanvasObject{widget.NewLabelWithStyle("Color", fyne.TextAlignLeading, bold)}
	for _, s := range sizes {
		header = append(header, widget.NewLabelWithStyle(s, fyne.TextAlignTrailing, bold))
	}
	header = append(header,
		widget.NewLabelWithStyle("Total", fyne.TextAlignTrailing, bold),
		widget.NewLabel(""), widget.NewLabel(""))
	a.ordersContainer.Add(container.NewGridWithColumns(cols, header...))
	a.ordersContainer.Add(widget.NewSeparator())

	for i := range a.job.Orders {
		idx := i
		o := a.job.Orders[idx]
		cells := []fyne.CanvasObject{widget.NewLabel(o.Color)}
		total := 0
		for _, s := range sizes {
			cells = append(cells, widget.NewLabelWithStyle(strconv.Itoa(o.Quantities[s]), fyne.TextAlignTrailing, fyne.TextStyle{}))
			total += o.Quantities[s]
		}
		cells = append(cells,
			widget.NewLabelWithStyle(strconv.Itoa(total), fyne.TextAlignTrailing, fyne.TextStyle{}),
			widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), func() {
				a.showOrderDialog(idx)
			}),
			widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
				a.pushHistory("Delete Order")
				a.job.Orders = append(a.job.Orders[:idx], a.job.Orders[idx+1:]...)
				a.refreshOrdersList()
			}),
		)
		a.ordersContainer.Add(container.NewGridWithColumns(cols, cells...))
	}
}

// showOrderDialog adds an order line when idx < 0 and edits it otherwise.
func (a *App) showOrderDialog(idx int) {
	colorEntry := widget.NewEntry()
	colorEntry.SetPlaceHolder("Color name")
	qtyEntry := widget.NewEntry()
	qtyEntry.SetPlaceHolder("32:10 34:12 36:8")

	title, confirm := "Add Order", "Add"
	if idx >= 0 {
		title, confirm = "Edit Order", "Save"
		colorEntry.SetText(a.job.Orders[idx].Color)
		qtyEntry.SetText(formatQuantities(a.job.Orders[idx].Quantities))
	}

	form := dialog.NewForm(title, confirm, "Cancel",
		[]*widget.FormItem{
			widget.NewFormItem("Color", colorEntry),
			widget.NewFormItem("Quantities (size:qty)", qtyEntry),
		},
		func(ok bool) {
			if !ok {
				return
			}
			color := strings.TrimSpace(colorEntry.Text)
			if color == "" {
				dialog.ShowError(fmt.Errorf("color is required"), a.window)
				return
			}
			q, err := parseQuantities(qtyEntry.Text)
			if err != nil {
				dialog.ShowError(err, a.window)
				return
			}
			row := model.OrderRow{Color: color, Quantities: q}
			if idx < 0 {
				a.pushHistory("Add Order")
				a.job.Orders = append(a.job.Orders, row)
			} else {
				a.pushHistory("Edit Order")
				a.job.Orders[idx] = row
			}
			a.refreshOrdersList()
		},
		a.window,
	)
	form.Resize(fyne.NewSize(450, 250))
	form.Show()
}

func (a *App) showPasteOrdersDialog() {
	sizesEntry := widget.NewEntry()
	sizesEntry.SetPlaceHolder("32 34 36 38")
	if sizes := jobSizes(a.job.Orders); len(sizes) > 0 {
		sizesEntry.SetText(strings.Join(sizes, " "))
	}
	textEntry := widget.NewMultiLineEntry()
	textEntry.SetPlaceHolder("RED\t10\t12\t8\nBLUE\t5\t6\t4")
	textEntry.SetMinRowsVisible(10)

	form := dialog.NewForm("Paste Orders", "Add", "Cancel",
		[]*widget.FormItem{
			widget.NewFormItem("Sizes", sizesEntry),
			widget.NewFormItem("Rows", textEntry),
		},
		func(ok bool) {
			if !ok {
				return
			}
			a.addImportedOrders(importer.ParseOrdersPaste(textEntry.Text, parseSizeList(sizesEntry.Text)))
		},
		a.window,
	)
	form.Resize(fyne.NewSize(600, 400))
	form.Show()
}

// ─── Fabric Rolls Panel ────────────────────────────────────

func (a *App) buildRollsPanel() fyne.CanvasObject {
	a.rollsContainer = container.NewVBox()
	a.refreshRollsList()

	addBtn := widget.NewButtonWithIcon("Add Roll", theme.ContentAddIcon(), func() {
		a.showRollDialog(-1)
	})
	pasteBtn := widget.NewButtonWithIcon("Paste...", theme.ContentPasteIcon(), func() {
		a.showPasteRollsDialog()
	})

	return container.NewBorder(
		container.NewHBox(
			widget.NewLabelWithStyle("Fabric Rolls", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			layout.NewSpacer(),
			pasteBtn,
			addBtn,
		),
		nil, nil, nil,
		container.NewVScroll(a.rollsContainer),
	)
}

func (a *App) refreshRollsList() {
	a.rollsContainer.RemoveAll()

	if len(a.job.Rolls) == 0 {
		a.rollsContainer.Add(widget.NewLabel("No fabric rolls defined. Click 'Add Roll' or paste the roll list."))
		return
	}

	bold := fyne.TextStyle{Bold: true}
	header := container.NewGridWithColumns(8,
		widget.NewLabelWithStyle("Roll", fyne.TextAlignLeading, bold),
		widget.NewLabelWithStyle("Lot", fyne.TextAlignLeading, bold),
		widget.NewLabelWithStyle("Color", fyne.TextAlignLeading, bold),
		widget.NewLabelWithStyle("Length (m)", fyne.TextAlignLeading, bold),
		widget.NewLabelWithStyle("Width %", fyne.TextAlignLeading, bold),
		widget.NewLabelWithStyle("Length %", fyne.TextAlignLeading, bold),
		widget.NewLabel(""),
		widget.NewLabel(""),
	)
	a.rollsContainer.Add(header)
	a.rollsContainer.Add(widget.NewSeparator())

	var total float64
	for i := range a.job.Rolls {
		idx := i
		r := a.job.Rolls[idx]
		total += r.Length
		row := container.NewGridWithColumns(8,
			widget.NewLabel(r.RollNo),
			widget.NewLabel(r.LotNo),
			widget.NewLabel(r.Color),
			widget.NewLabel(fmt.Sprintf("%.2f", r.Length)),
			widget.NewLabel(fmt.Sprintf("%.1f", r.WidthShrink)),
			widget.NewLabel(fmt.Sprintf("%.1f", r.LengthShrink)),
			widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), func() {
				a.showRollDialog(idx)
			}),
			widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
				a.pushHistory("Delete Roll")
				a.job.Rolls = append(a.job.Rolls[:idx], a.job.Rolls[idx+1:]...)
				a.refreshRollsList()
			}),
		)
		a.rollsContainer.Add(row)
	}
	a.rollsContainer.Add(widget.NewSeparator())
	a.rollsContainer.Add(widget.NewLabelWithStyle(
		fmt.Sprintf("%d rolls, %.2f m in total", len(a.job.Rolls), total),
		fyne.TextAlignLeading, bold))
}

// showRollDialog adds a roll when idx < 0 and edits it otherwise.
func (a *App) showRollDialog(idx int) {
	rollEntry := widget.NewEntry()
	rollEntry.SetText(fmt.Sprintf("R%d", len(a.job.Rolls)+1))
	lotEntry := widget.NewEntry()
	colorEntry := widget.NewEntry()
	colorEntry.SetPlaceHolder("Optional, restricts the roll to one color")
	lengthEntry := widget.NewEntry()
	lengthEntry.SetPlaceHolder("Meters")
	shrinkEntry := widget.NewEntry()
	shrinkEntry.SetPlaceHolder("E55 B6 or width,length")

	title, confirm := "Add Roll", "Add"
	if idx >= 0 {
		r := a.job.Rolls[idx]
		title, confirm = "Edit Roll", "Save"
		rollEntry.SetText(r.RollNo)
		lotEntry.SetText(r.LotNo)
		colorEntry.SetText(r.Color)
		lengthEntry.SetText(strconv.FormatFloat(r.Length, 'f', -1, 64))
		shrinkEntry.SetText(fmt.Sprintf("E%g B%g", r.WidthShrink, r.LengthShrink))
	}

	form := dialog.NewForm(title, confirm, "Cancel",
		[]*widget.FormItem{
			widget.NewFormItem("Roll No", rollEntry),
			widget.NewFormItem("Lot No", lotEntry),
			widget.NewFormItem("Color", colorEntry),
			widget.NewFormItem("Length (m)", lengthEntry),
			widget.NewFormItem("Shrinkage", shrinkEntry),
		},
		func(ok bool) {
			if !ok {
				return
			}
			length, valid := importer.ParseDecimal(lengthEntry.Text)
			if !valid || length <= 0 {
				dialog.ShowError(fmt.Errorf("length must be > 0"), a.window)
				return
			}
			shrink := tolerance.ParseShrinkage(shrinkEntry.Text)
			roll := model.NewRoll(strings.TrimSpace(rollEntry.Text), strings.TrimSpace(lotEntry.Text),
				length, shrink.Width, shrink.Length)
			roll.Color = strings.TrimSpace(colorEntry.Text)
			if idx < 0 {
				a.pushHistory("Add Roll")
				a.job.Rolls = append(a.job.Rolls, roll)
			} else {
				a.pushHistory("Edit Roll")
				roll.ID = a.job.Rolls[idx].ID
				a.job.Rolls[idx] = roll
			}
			a.refreshRollsList()
		},
		a.window,
	)
	form.Resize(fyne.NewSize(450, 350))
	form.Show()
}

func (a *App) showPasteRollsDialog() {
	textEntry := widget.NewMultiLineEntry()
	textEntry.SetPlaceHolder("Roll\tShrinkage\tLot\tMeters\nR1\tE5 B3\tA\t120")
	textEntry.SetMinRowsVisible(12)

	d := dialog.NewCustomConfirm("Paste Rolls", "Add", "Cancel", textEntry, func(ok bool) {
		if !ok {
			return
		}
		a.addImportedRolls(importer.ParseRollsPaste(textEntry.Text))
	}, a.window)
	d.Resize(fyne.NewSize(600, 400))
	d.Show()
}

// ─── Lots Panel ────────────────────────────────────────────

func (a *App) buildLotsPanel() fyne.CanvasObject {
	a.lotsContainer = container.NewVBox()
	a.refreshLots()

	refreshBtn := widget.NewButtonWithIcon("Regroup", theme.ViewRefreshIcon(), func() {
		a.refreshLots()
	})
	return container.NewBorder(
		container.NewHBox(
			widget.NewLabelWithStyle("Tolerance Lots", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			layout.NewSpacer(),
			refreshBtn,
		),
		nil, nil, nil,
		container.NewVScroll(a.lotsContainer),
	)
}

func (a *App) refreshLots() {
	if a.lotsContainer == nil {
		return
	}
	a.lotsContainer.RemoveAll()
	groups := tolerance.GroupRolls(a.job.Rolls, a.classifier())
	if len(groups) == 0 {
		a.lotsContainer.Add(widget.NewLabel("No usable rolls to group."))
		return
	}
	for _, line := range lotLines(groups) {
		a.lotsContainer.Add(widget.NewLabel(line))
	}
}

// classifier returns the selected customer's bands, or the configured defaults.
func (a *App) classifier() tolerance.Classifier {
	if c, ok := a.customers.Find(a.job.Customer); ok {
		return tolerance.CustomerClassifier(c)
	}
	return tolerance.BandClassifier(a.config.DefaultBands)
}

// ─── Settings Panel ────────────────────────────────────────

func (a *App) refreshSettings() {
	if a.settingsPanel == nil {
		return
	}
	a.settingsPanel.Objects = []fyne.CanvasObject{a.buildSettingsPanel()}
	a.settingsPanel.Refresh()
}

func (a *App) buildSettingsPanel() fyne.CanvasObject {
	s := &a.job.Settings
	c := &a.job.Consumption

	nameEntry := widget.NewEntry()
	nameEntry.SetText(a.job.Name)
	nameEntry.OnChanged = func(text string) { a.job.Name = text }

	customerNames := []string{"(default bands)"}
	for _, cust := range a.customers.Customers {
		customerNames = append(customerNames, cust.Name)
	}
	customerSelect := widget.NewSelect(customerNames, func(selected string) {
		if selected == customerNames[0] {
			a.job.Customer = ""
		} else {
			a.job.Customer = selected
		}
		a.refreshLots()
	})
	if cust, ok := a.customers.Find(a.job.Customer); ok {
		customerSelect.SetSelected(cust.Name)
	} else {
		customerSelect.SetSelected(customerNames[0])
	}

	var strategyNames []string
	for _, st := range model.Strategies() {
		strategyNames = append(strategyNames, string(st))
	}
	strategySelect := widget.NewSelect(strategyNames, func(selected string) {
		if st, ok := model.ParseStrategy(selected); ok {
			s.Strategy = st
		}
	})
	strategySelect.SetSelected(string(s.Strategy))

	inflationEntry := widget.NewEntry()
	inflationEntry.SetText(strconv.FormatFloat(s.InflationPct, 'f', -1, 64))
	inflationEntry.OnChanged = func(text string) {
		if v, ok := importer.ParseDecimal(text); ok && v >= 0 {
			s.InflationPct = v
		}
	}

	averageEntry := widget.NewEntry()
	averageEntry.SetText(strconv.FormatFloat(c.Average, 'f', -1, 64))
	averageEntry.OnChanged = func(text string) {
		if v, ok := importer.ParseDecimal(text); ok && v > 0 {
			c.Average = v
		}
	}

	perSizeEntry := widget.NewEntry()
	perSizeEntry.SetPlaceHolder("32:1.10 34:1.25")
	perSizeEntry.SetText(formatPerSize(c.PerSize))
	perSizeEntry.OnChanged = func(text string) {
		if m, err := parsePerSize(text); err == nil {
			c.PerSize = m
		}
	}

	modeSelect := widget.NewSelect([]string{"Average", "Per size"}, func(selected string) {
		if selected == "Per size" {
			c.Mode = model.ConsumptionPerSize
			perSizeEntry.Enable()
		} else {
			c.Mode = model.ConsumptionAverage
			perSizeEntry.Disable()
		}
	})
	if c.Mode == model.ConsumptionPerSize {
		modeSelect.SetSelected("Per size")
	} else {
		modeSelect.SetSelected("Average")
	}

	jobSection := widget.NewCard("Job", "", container.NewGridWithColumns(2,
		widget.NewLabel("Job Name"), nameEntry,
		widget.NewLabel("Customer"), customerSelect,
	))

	solverSection := widget.NewCard("Optimizer", "", container.NewVBox(
		container.NewGridWithColumns(2,
			widget.NewLabel("Strategy"), strategySelect,
			widget.NewLabel("Over-production (%)"), inflationEntry,
		),
		widget.NewButtonWithIcon("Solver Tuning...", theme.SettingsIcon(), func() {
			a.showAdvancedSettings()
		}),
	))

	consumptionSection := widget.NewCard("Fabric Consumption", "Meters of fabric per piece", container.NewGridWithColumns(2,
		widget.NewLabel("Mode"), modeSelect,
		widget.NewLabel("Average (m)"), averageEntry,
		widget.NewLabel("Per size (size:m)"), perSizeEntry,
	))

	return container.NewVScroll(container.NewVBox(
		jobSection,
		solverSection,
		consumptionSection,
	))
}

// ─── Results Panel ─────────────────────────────────────────

func (a *App) buildResultsPanel() fyne.CanvasObject {
	a.resultContainer = container.NewStack(
		widget.NewLabel("No results yet. Add orders and fabric rolls, then click Optimize."),
	)
	optimizeBtn := widget.NewButtonWithIcon("Optimize", theme.MediaPlayIcon(), func() {
		a.runOptimize()
	})
	optimizeBtn.Importance = widget.HighImportance
	compareBtn := widget.NewButton("Compare Strategies", func() {
		a.runCompare()
	})
	return container.NewBorder(
		container.NewHBox(layout.NewSpacer(), compareBtn, optimizeBtn),
		nil, nil, nil,
		a.resultContainer,
	)
}

func (a *App) refreshResults() {
	a.resultContainer.RemoveAll()
	a.resultContainer.Add(widgets.RenderPlanResults(a.job.Result, a.job.Consumption))
	a.resultContainer.Refresh()
}

// ─── Actions ───────────────────────────────────────────────

func (a *App) canSolve() bool {
	if len(a.job.Orders) == 0 {
		dialog.ShowInformation("Nothing to optimize", "Add at least one order line first.", a.window)
		return false
	}
	if len(a.job.Rolls) == 0 {
		dialog.ShowInformation("No fabric", "Add at least one fabric roll first.", a.window)
		return false
	}
	return true
}

func (a *App) engineOptions() []engine.Option {
	opts := []engine.Option{engine.WithLogger(a.logger)}
	if a.recorder != nil {
		opts = append(opts, engine.WithRecorder(a.recorder))
	}
	return opts
}

// runBusy runs work off the UI goroutine behind a cancellable progress dialog.
func (a *App) runBusy(title string, work func(ctx context.Context), done func()) {
	ctx, cancel := context.WithCancel(context.Background())
	bar := widget.NewProgressBarInfinite()
	d := dialog.NewCustom(title, "Cancel", container.NewVBox(widget.NewLabel("Working..."), bar), a.window)
	d.SetOnClosed(cancel)
	d.Show()

	go func() {
		work(ctx)
		fyne.Do(func() {
			d.Hide()
			cancel()
			done()
		})
	}()
}

func (a *App) runOptimize() {
	if !a.canSolve() {
		return
	}
	job := a.job
	job.Orders = copyOrders(a.job.Orders)
	job.Rolls = copyRolls(a.job.Rolls)
	classify := a.classifier()

	var (
		result model.OptimizeResult
		err    error
	)
	a.runBusy("Optimizing", func(ctx context.Context) {
		result, err = engine.New(job.Settings, a.engineOptions()...).Optimize(ctx, job, classify)
	}, func() {
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			a.logger.Error("optimize failed", zap.Error(err))
			dialog.ShowError(err, a.window)
			return
		}
		a.job.Result = &result
		a.refreshResults()
		a.tabs.SelectIndex(4)
	})
}

func (a *App) runCompare() {
	if !a.canSolve() {
		return
	}
	req := engine.Request{
		JobName:     a.job.Name,
		Customer:    a.job.Customer,
		Orders:      copyOrders(a.job.Orders),
		Lots:        tolerance.GroupRolls(a.job.Rolls, a.classifier()),
		Consumption: a.job.Consumption,
	}
	base := a.job.Settings

	var results []engine.ComparisonResult
	a.runBusy("Comparing Strategies", func(ctx context.Context) {
		results = engine.CompareStrategies(ctx, base, model.Strategies(), req, a.engineOptions()...)
	}, func() {
		a.showComparison(results)
	})
}

func (a *App) showComparison(results []engine.ComparisonResult) {
	bold := fyne.TextStyle{Bold: true}
	cells := []fyne.CanvasObject{
		widget.NewLabelWithStyle("Strategy", fyne.TextAlignLeading, bold),
		widget.NewLabelWithStyle("Plans", fyne.TextAlignTrailing, bold),
		widget.NewLabelWithStyle("Pieces", fyne.TextAlignTrailing, bold),
		widget.NewLabelWithStyle("Fabric (m)", fyne.TextAlignTrailing, bold),
		widget.NewLabelWithStyle("Shortfall", fyne.TextAlignTrailing, bold),
		widget.NewLabelWithStyle("Split lines", fyne.TextAlignTrailing, bold),
		widget.NewLabel(""),
	}
	for _, r := range results {
		res := r
		if res.Err != nil {
			cells = append(cells,
				widget.NewLabel(res.Scenario.Name),
				widget.NewLabel("error"),
				widget.NewLabel(""), widget.NewLabel(""), widget.NewLabel(""), widget.NewLabel(""),
				widget.NewLabel(res.Err.Error()),
			)
			continue
		}
		cells = append(cells,
			widget.NewLabel(res.Scenario.Name),
			widget.NewLabelWithStyle(strconv.Itoa(res.PlansCount), fyne.TextAlignTrailing, fyne.TextStyle{}),
			widget.NewLabelWithStyle(strconv.Itoa(res.TotalPieces), fyne.TextAlignTrailing, fyne.TextStyle{}),
			widget.NewLabelWithStyle(fmt.Sprintf("%.2f", res.UsedLength), fyne.TextAlignTrailing, fyne.TextStyle{}),
			widget.NewLabelWithStyle(strconv.Itoa(res.Shortfall), fyne.TextAlignTrailing, fyne.TextStyle{}),
			widget.NewLabelWithStyle(strconv.Itoa(res.SplitLines), fyne.TextAlignTrailing, fyne.TextStyle{}),
			widget.NewButton("Use", func() {
				a.job.Settings.Strategy = res.Result.Strategy
				a.job.Result = &res.Result
				a.refreshSettings()
				a.refreshResults()
				a.tabs.SelectIndex(4)
			}),
		)
	}
	d := dialog.NewCustom("Strategy Comparison", "Close", container.NewGridWithColumns(7, cells...), a.window)
	d.Resize(fyne.NewSize(800, 300))
	d.Show()
}

func (a *App) saveJob() {
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()
		path := writer.URI().Path()
		if err := project.SaveJob(path, a.job); err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		a.jobPath = path
		a.rememberJob(path)
		a.logger.Info("job saved", zap.String("path", path))
	}, a.window)
	d.SetFileName(a.job.Name + project.JobExt)
	d.Show()
}

func (a *App) loadJob() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		defer reader.Close()
		a.openJob(reader.URI().Path())
	}, a.window)
	d.Show()
}

func (a *App) openJob(path string) {
	job, err := project.LoadJob(path)
	if err != nil {
		dialog.ShowError(err, a.window)
		return
	}
	a.job = job
	a.jobPath = path
	a.history.Clear()
	a.rememberJob(path)
	a.refreshAll()
}

func (a *App) rememberJob(path string) {
	project.AddRecentJob(&a.config, path)
	if err := a.saveConfig(); err != nil {
		a.logger.Warn("failed to save recent jobs", zap.Error(err))
	}
	a.SetupMenus()
}

func (a *App) exportResult(defaultName string, write func(path string, r model.OptimizeResult) error) {
	if a.job.Result == nil || len(a.job.Result.Plans) == 0 {
		dialog.ShowInformation("No results", "Run the optimizer first before exporting.", a.window)
		return
	}
	result := *a.job.Result
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()
		if err := write(path, result); err != nil {
			a.logger.Error("export failed", zap.String("path", path), zap.Error(err))
			dialog.ShowError(err, a.window)
			return
		}
		dialog.ShowInformation("Export Complete", fmt.Sprintf("Saved to %s", path), a.window)
	}, a.window)
	d.SetFileName(defaultName)
	d.Show()
}

// ─── Import Functions ───────────────────────────────────────

func (a *App) importFile(title string, read func(path string) importer.ImportResult, apply func(importer.ImportResult)) {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		defer reader.Close()
		a.logger.Info(strings.ToLower(title), zap.String("path", reader.URI().Path()))
		apply(read(reader.URI().Path()))
	}, a.window)
}

func (a *App) reportImport(result importer.ImportResult, count int, what string) bool {
	if len(result.Errors) > 0 {
		dialog.ShowError(fmt.Errorf("errors encountered during import:\n\n%s", strings.Join(result.Errors, "\n")), a.window)
	}
	if len(result.Warnings) > 0 {
		a.logger.Warn("import warnings", zap.Strings("warnings", result.Warnings), zap.Int("invalid", result.Invalid))
	}
	if count == 0 {
		return false
	}
	msg := fmt.Sprintf("Successfully imported %d %s.", count, what)
	if result.Invalid > 0 {
		msg += fmt.Sprintf("\n\n%d cells were invalid and imported as 0.", result.Invalid)
	}
	dialog.ShowInformation("Import Complete", msg, a.window)
	return true
}

func (a *App) addImportedOrders(result importer.ImportResult) {
	if !a.reportImport(result, len(result.Orders), "order lines") {
		return
	}
	a.pushHistory("Import Orders")
	a.job.Orders = append(a.job.Orders, result.Orders...)
	a.refreshOrdersList()
}

func (a *App) addImportedRolls(result importer.ImportResult) {
	if !a.reportImport(result, len(result.Rolls), "rolls") {
		return
	}
	a.pushHistory("Import Rolls")
	a.job.Rolls = append(a.job.Rolls, result.Rolls...)
	a.refreshRollsList()
	a.refreshLots()
}
