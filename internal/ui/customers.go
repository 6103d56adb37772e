package ui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/piwi3910/lotcut/internal/importer"
	"github.com/piwi3910/lotcut/internal/model"
	"github.com/piwi3910/lotcut/internal/project"
)

// ─── Customer Dialog ───────────────────────────────────────

func (a *App) showCustomersDialog() {
	list := container.NewVBox()
	var refreshList func()

	refreshList = func() {
		list.RemoveAll()

		if len(a.customers.Customers) == 0 {
			list.Add(widget.NewLabel("No customers defined."))
			return
		}

		header := container.NewGridWithColumns(6,
			widget.NewLabelWithStyle("Name", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("Width Tol.", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("Length Tol.", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("Classes", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{}),
			widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{}),
		)
		list.Add(header)
		list.Add(widget.NewSeparator())

		for i := range a.customers.Customers {
			idx := i
			c := a.customers.Customers[idx]
			row := container.NewGridWithColumns(6,
				widget.NewLabel(c.Name),
				widget.NewLabel(fmt.Sprintf("±%.1f%%", c.WidthTolerance)),
				widget.NewLabel(fmt.Sprintf("±%.1f%%", c.LengthTolerance)),
				widget.NewLabel(strings.Join(c.Bands.Names, ", ")),
				widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), func() {
					a.showCustomerDialog(idx, refreshList)
				}),
				widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
					a.customers.Remove(c.ID)
					a.saveCustomers()
					refreshList()
				}),
			)
			list.Add(row)
		}
	}

	refreshList()

	addBtn := widget.NewButtonWithIcon("Add Customer", theme.ContentAddIcon(), func() {
		a.showCustomerDialog(-1, refreshList)
	})

	importBtn := widget.NewButtonWithIcon("Import...", theme.FolderOpenIcon(), func() {
		a.importCustomers(refreshList)
	})

	exportBtn := widget.NewButtonWithIcon("Export...", theme.DocumentSaveIcon(), func() {
		a.exportCustomers()
	})

	toolbar := container.NewHBox(addBtn, layout.NewSpacer(), importBtn, exportBtn)

	content := container.NewBorder(
		toolbar,
		nil, nil, nil,
		container.NewVScroll(list),
	)

	d := dialog.NewCustom("Customers", "Close", content, a.window)
	d.SetOnClosed(func() {
		a.refreshSettings()
		a.refreshLots()
	})
	d.Resize(fyne.NewSize(700, 500))
	d.Show()
}

// showCustomerDialog adds a customer when idx < 0 and edits it otherwise.
func (a *App) showCustomerDialog(idx int, onDone func()) {
	c := model.NewCustomer("New Customer", 3, 3)
	title, confirm := "Add Customer", "Add"
	if idx >= 0 {
		c = a.customers.Customers[idx]
		title, confirm = "Edit Customer", "Save"
	}

	nameEntry := widget.NewEntry()
	nameEntry.SetText(c.Name)

	widthEntry := widget.NewEntry()
	widthEntry.SetText(fmt.Sprintf("%.1f", c.WidthTolerance))

	lengthEntry := widget.NewEntry()
	lengthEntry.SetText(fmt.Sprintf("%.1f", c.LengthTolerance))

	boundsEntry := widget.NewEntry()
	boundsEntry.SetPlaceHolder("3 6")
	boundsEntry.SetText(formatBounds(c.Bands))

	namesEntry := widget.NewEntry()
	namesEntry.SetPlaceHolder("KALIP-1 KALIP-2 KALIP-3")
	namesEntry.SetText(strings.Join(c.Bands.Names, " "))

	form := dialog.NewForm(title, confirm, "Cancel",
		[]*widget.FormItem{
			widget.NewFormItem("Name", nameEntry),
			widget.NewFormItem("Width Tolerance (±%)", widthEntry),
			widget.NewFormItem("Length Tolerance (±%)", lengthEntry),
			widget.NewFormItem("Band Limits (%)", boundsEntry),
			widget.NewFormItem("Class Names", namesEntry),
		},
		func(ok bool) {
			if !ok {
				return
			}
			name := strings.TrimSpace(nameEntry.Text)
			if name == "" {
				dialog.ShowError(fmt.Errorf("name is required"), a.window)
				return
			}
			widthTol, wok := importer.ParseDecimal(widthEntry.Text)
			lengthTol, lok := importer.ParseDecimal(lengthEntry.Text)
			if !wok || !lok || widthTol < 0 || lengthTol < 0 {
				dialog.ShowError(fmt.Errorf("tolerances must be numbers >= 0"), a.window)
				return
			}
			bands, err := parseBands(boundsEntry.Text, namesEntry.Text)
			if err != nil {
				dialog.ShowError(err, a.window)
				return
			}
			c.Name = name
			c.WidthTolerance = widthTol
			c.LengthTolerance = lengthTol
			c.Bands = bands
			if idx < 0 {
				a.customers.Add(c)
			} else {
				a.customers.Customers[idx] = c
			}
			a.saveCustomers()
			onDone()
		},
		a.window,
	)
	form.Resize(fyne.NewSize(450, 400))
	form.Show()
}

func (a *App) saveCustomers() {
	if err := project.SaveCustomers(a.customersPath, a.customers); err != nil {
		a.logger.Error("failed to save customers", zap.Error(err))
		dialog.ShowError(fmt.Errorf("failed to save customers: %w", err), a.window)
	}
}

func (a *App) importCustomers(onDone func()) {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		defer reader.Close()
		book, added, err := project.ImportCustomers(reader.URI().Path(), a.customers)
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		a.customers = book
		a.saveCustomers()
		onDone()
		dialog.ShowInformation("Import Complete", fmt.Sprintf("Imported %d new customer(s).", added), a.window)
	}, a.window)
}

func (a *App) exportCustomers() {
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()
		if err := project.SaveCustomers(path, a.customers); err != nil {
			dialog.ShowError(err, a.window)
		}
	}, a.window)
	d.SetFileName("customers.json")
	d.Show()
}
