package widgets

import (
	"fmt"
	"image/color"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/piwi3910/lotcut/internal/export"
	"github.com/piwi3910/lotcut/internal/model"
)

// Size colors, cycled by position in the result's size list.
var sizeColors = []color.NRGBA{
	{R: 76, G: 175, B: 80, A: 200},  // green
	{R: 33, G: 150, B: 243, A: 200}, // blue
	{R: 255, G: 152, B: 0, A: 200},  // orange
	{R: 156, G: 39, B: 176, A: 200}, // purple
	{R: 0, G: 188, B: 212, A: 200},  // cyan
	{R: 244, G: 67, B: 54, A: 200},  // red
	{R: 255, G: 235, B: 59, A: 200}, // yellow
	{R: 121, G: 85, B: 72, A: 200},  // brown
}

// MarkerStrip renders one layer of a plan's marker as size blocks.
type MarkerStrip struct {
	widget.BaseWidget
	plan     model.CuttingPlan
	cons     model.Consumption
	palette  map[string]color.NRGBA
	maxWidth float32
	height   float32
}

func NewMarkerStrip(plan model.CuttingPlan, cons model.Consumption, sizes []string, maxW, h float32) *MarkerStrip {
	palette := make(map[string]color.NRGBA, len(sizes))
	for i, s := range sizes {
		palette[s] = sizeColors[i%len(sizeColors)]
	}
	ms := &MarkerStrip{
		plan:     plan,
		cons:     cons,
		palette:  palette,
		maxWidth: maxW,
		height:   h,
	}
	ms.ExtendBaseWidget(ms)
	return ms
}

func (ms *MarkerStrip) CreateRenderer() fyne.WidgetRenderer {
	return newMarkerStripRenderer(ms)
}

type markerStripRenderer struct {
	ms      *MarkerStrip
	objects []fyne.CanvasObject
}

func newMarkerStripRenderer(ms *MarkerStrip) *markerStripRenderer {
	r := &markerStripRenderer{ms: ms}
	r.rebuild()
	return r
}

func (r *markerStripRenderer) rebuild() {
	r.objects = nil
	plan := r.ms.plan
	w, h := r.ms.maxWidth, r.ms.height

	bg := canvas.NewRectangle(color.NRGBA{R: 235, G: 228, B: 215, A: 255}) // fabric
	bg.Resize(fyne.NewSize(w, h))
	r.objects = append(r.objects, bg)

	if plan.MarkerLength > 0 {
		scale := w / float32(plan.MarkerLength)
		for _, b := range export.MarkerBlocks(plan, r.ms.cons) {
			bx := float32(b.Offset) * scale
			bw := float32(b.Length) * scale

			block := canvas.NewRectangle(r.ms.palette[b.Size])
			block.StrokeColor = color.NRGBA{R: 30, G: 30, B: 30, A: 255}
			block.StrokeWidth = 1
			block.Resize(fyne.NewSize(bw, h))
			block.Move(fyne.NewPos(bx, 0))
			r.objects = append(r.objects, block)

			if bw > 20 {
				label := canvas.NewText(b.Size, color.Black)
				label.TextSize = 10
				label.TextStyle = fyne.TextStyle{Bold: true}
				label.Move(fyne.NewPos(bx+3, h/2-7))
				r.objects = append(r.objects, label)
			}
		}
	}

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.NRGBA{R: 100, G: 100, B: 100, A: 255}
	border.StrokeWidth = 2
	border.Resize(fyne.NewSize(w, h))
	r.objects = append(r.objects, border)
}

func (r *markerStripRenderer) Layout(size fyne.Size)        {}
func (r *markerStripRenderer) Refresh()                     { r.rebuild() }
func (r *markerStripRenderer) Destroy()                     {}
func (r *markerStripRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *markerStripRenderer) MinSize() fyne.Size {
	return fyne.NewSize(r.ms.maxWidth, r.ms.height)
}

// PlanHeader is the one-line description shown above a plan's strip.
func PlanHeader(num int, plan model.CuttingPlan) string {
	return fmt.Sprintf(
		"Plan %d: lot %s (%s), marker %s, %.2f m x %d layers, %d pieces",
		num, plan.LotNo, plan.ToleranceClass, plan.RatioLabel(),
		plan.MarkerLength, plan.TotalLayers, plan.TotalPieces(),
	)
}

// PlanRowsTable returns the per-color rows of a plan as a header plus cells.
func PlanRowsTable(plan model.CuttingPlan) [][]string {
	sizes := plan.RatioSizes()
	header := append([]string{"Color", "Layers"}, sizes...)
	rows := [][]string{header}
	for _, row := range plan.Rows {
		cells := []string{row.Color, fmt.Sprintf("%d", row.Layers)}
		for _, s := range sizes {
			cells = append(cells, fmt.Sprintf("%d", row.Quantities[s]))
		}
		rows = append(rows, cells)
	}
	return rows
}

// RenderPlanResults creates a scrollable container of all cutting plans
// followed by the demand summary.
func RenderPlanResults(result *model.OptimizeResult, cons model.Consumption) fyne.CanvasObject {
	if result == nil || len(result.Plans) == 0 {
		return widget.NewLabel("No results yet. Add orders and fabric rolls, then click Optimize.")
	}

	var items []fyne.CanvasObject
	for i, plan := range result.Plans {
		header := widget.NewLabel(PlanHeader(i+1, plan))
		header.TextStyle = fyne.TextStyle{Bold: true}
		strip := NewMarkerStrip(plan, cons, result.Sizes, 600, 40)
		rolls := widget.NewLabel(fmt.Sprintf(
			"Rolls: %s | used %.2f m, %.2f m left in lot",
			strings.Join(plan.FabricsUsed, ", "), plan.UsedLength, plan.RemainingLength,
		))
		items = append(items, header, strip, gridOf(PlanRowsTable(plan)), rolls)
		if plan.Note != "" {
			items = append(items, widget.NewLabel("Note: "+plan.Note))
		}
		items = append(items, widget.NewSeparator())
	}

	for _, u := range result.Unmet {
		warning := widget.NewLabel(fmt.Sprintf("WARNING: %s not fully planned: %s", u.Color, u.Reason))
		warning.Importance = widget.DangerImportance
		items = append(items, warning)
	}

	summaryHeader := widget.NewLabel("Demand Summary (T = demanded, P = planned):")
	summaryHeader.TextStyle = fyne.TextStyle{Bold: true}
	items = append(items, summaryHeader, gridOf(SummaryTable(result)))

	total := widget.NewLabel(fmt.Sprintf(
		"Total: %d plans, %d pieces, %.2f m fabric (%s, %s)",
		len(result.Plans), result.TotalPieces(), result.TotalUsedLength(),
		result.Strategy, result.Duration.Round(1e6),
	))
	total.TextStyle = fyne.TextStyle{Bold: true}
	items = append(items, total)

	return container.NewVScroll(container.NewVBox(items...))
}

// SummaryTable flattens the result summary into T/P/Diff lines.
func SummaryTable(result *model.OptimizeResult) [][]string {
	header := append([]string{"Color", ""}, result.Sizes...)
	header = append(header, "Total")
	rows := [][]string{header}
	for _, row := range result.Summary {
		rows = append(rows, export.SummaryLines(row, result.Sizes)...)
	}
	return rows
}

func gridOf(rows [][]string) fyne.CanvasObject {
	if len(rows) == 0 {
		return widget.NewLabel("")
	}
	cols := len(rows[0])
	var cells []fyne.CanvasObject
	for i, row := range rows {
		for j := 0; j < cols; j++ {
			text := ""
			if j < len(row) {
				text = row[j]
			}
			l := widget.NewLabel(text)
			if i == 0 {
				l.TextStyle = fyne.TextStyle{Bold: true}
			} else if strings.HasPrefix(text, "-") && len(row) > 1 && row[1] == "Diff" {
				l.Importance = widget.DangerImportance
			}
			cells = append(cells, l)
		}
	}
	return container.NewGridWithColumns(cols, cells...)
}
