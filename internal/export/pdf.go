// Package export writes cutting results to PDF reports, QR cut tickets,
// Excel workbooks and DXF marker strips.
package export

import (
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/lotcut/internal/model"
)

// sizeColor represents an RGB color for one size block of a marker.
type sizeColor struct {
	R, G, B int
}

// sizeColors mirrors the palette used by the desktop plan view.
var sizeColors = []sizeColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	stripHeight  = 18.0
	contentWidth = pageWidth - marginLeft - marginRight
)

// ExportPDF writes one page per cutting plan followed by a demand summary page.
func ExportPDF(path string, job model.Job, result model.OptimizeResult) error {
	if len(result.Plans) == 0 {
		return fmt.Errorf("no cutting plans to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	palette := paletteFor(result.Sizes)
	for i, plan := range result.Plans {
		pdf.AddPage()
		renderPlanPage(pdf, job, plan, palette, i+1, len(result.Plans))
	}

	pdf.AddPage()
	renderSummaryPage(pdf, job, result)

	return pdf.OutputFileAndClose(path)
}

// paletteFor assigns each size a stable color.
func paletteFor(sizes []string) map[string]sizeColor {
	out := make(map[string]sizeColor, len(sizes))
	for i, s := range sizes {
		out[s] = sizeColors[i%len(sizeColors)]
	}
	return out
}

func renderPlanPage(pdf *fpdf.Fpdf, job model.Job, plan model.CuttingPlan, palette map[string]sizeColor, num, total int) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Plan %d of %d - Lot %s (%s)", num, total, plan.LotNo, plan.ToleranceClass)
	pdf.CellFormat(contentWidth, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	info := fmt.Sprintf("Job: %s   Marker: %s   Marker length: %.2f m   Layers: %d   Pieces: %d",
		job.Name, plan.RatioLabel(), plan.MarkerLength, plan.TotalLayers, plan.TotalPieces())
	pdf.CellFormat(contentWidth, 6, info, "", 0, "L", false, 0, "")

	y := marginTop + headerHeight + 10
	drawMarkerStrip(pdf, plan, job.Consumption, palette, marginLeft, y, contentWidth)
	y += stripHeight + 8

	// Per-color breakdown
	sizes := plan.RatioSizes()
	headers := append([]string{"Color", "Layers"}, sizes...)
	headers = append(headers, "Pieces")
	colW := contentWidth / float64(len(headers))
	if colW > 35 {
		colW = 35
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for _, h := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colW, 6, h, "1", 0, "C", true, 0, "")
		xPos += colW
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	for i, row := range plan.Rows {
		cells := []string{row.Color, fmt.Sprintf("%d", row.Layers)}
		pieces := 0
		for _, s := range sizes {
			cells = append(cells, fmt.Sprintf("%d", row.Quantities[s]))
			pieces += row.Quantities[s]
		}
		cells = append(cells, fmt.Sprintf("%d", pieces))

		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		xPos = marginLeft
		for _, c := range cells {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colW, 6, c, "1", 0, "C", true, 0, "")
			xPos += colW
		}
		y += 6
	}

	y += 6
	pdf.SetFont("Helvetica", "", 9)
	lines := []string{
		fmt.Sprintf("Fabric used: %.2f m   Remaining in lot: %.2f m", plan.UsedLength, plan.RemainingLength),
		"Rolls: " + strings.Join(plan.FabricsUsed, ", "),
	}
	if plan.Note != "" {
		lines = append(lines, "Note: "+plan.Note)
	}
	for _, l := range lines {
		pdf.SetXY(marginLeft, y)
		pdf.MultiCell(contentWidth, 5, l, "", "L", false)
		y = pdf.GetY() + 1
	}

	renderFooter(pdf)
}

// drawMarkerStrip draws one layer of the marker as blocks proportional to
// each piece's consumption.
func drawMarkerStrip(pdf *fpdf.Fpdf, plan model.CuttingPlan, cons model.Consumption, palette map[string]sizeColor, x, y, w float64) {
	blocks := MarkerBlocks(plan, cons)
	if len(blocks) == 0 || plan.MarkerLength <= 0 {
		return
	}
	scale := w / plan.MarkerLength

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.3)
	pdf.Rect(x, y, w, stripHeight, "D")

	pdf.SetLineWidth(0.1)
	for _, b := range blocks {
		c := palette[b.Size]
		pdf.SetFillColor(c.R, c.G, c.B)
		bx := x + b.Offset*scale
		bw := b.Length * scale
		pdf.Rect(bx, y, bw, stripHeight, "FD")

		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetXY(bx, y+stripHeight/2-2)
		pdf.CellFormat(bw, 4, b.Size, "", 0, "C", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
}

// MarkerBlock is one piece on a marker strip, in meters from the strip start.
type MarkerBlock struct {
	Size   string
	Offset float64
	Length float64
}

// MarkerBlocks lays out a plan's marker pieces end to end in natural size order.
func MarkerBlocks(plan model.CuttingPlan, cons model.Consumption) []MarkerBlock {
	var out []MarkerBlock
	offset := 0.0
	for _, s := range plan.RatioSizes() {
		l := cons.For(s)
		for i := 0; i < plan.Ratio[s]; i++ {
			out = append(out, MarkerBlock{Size: s, Offset: offset, Length: l})
			offset += l
		}
	}
	return out
}

// renderSummaryPage draws demanded, planned and difference per color and size.
func renderSummaryPage(pdf *fpdf.Fpdf, job model.Job, result model.OptimizeResult) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(contentWidth, 10, "Cutting Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	summaryItems := []struct {
		label string
		value string
	}{
		{"Job", job.Name},
		{"Customer", job.Customer},
		{"Strategy", string(result.Strategy)},
		{"Cutting Plans", fmt.Sprintf("%d", len(result.Plans))},
		{"Total Pieces", fmt.Sprintf("%d", result.TotalPieces())},
		{"Fabric Used", fmt.Sprintf("%.2f m", result.TotalUsedLength())},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(45, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(80, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 6
	}
	y += 5

	headers := append([]string{"Color", ""}, result.Sizes...)
	headers = append(headers, "Total")
	colW := contentWidth / float64(len(headers))
	if colW > 28 {
		colW = 28
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for _, h := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colW, 5, h, "1", 0, "C", true, 0, "")
		xPos += colW
	}
	y += 5

	pdf.SetFont("Helvetica", "", 8)
	for _, row := range result.Summary {
		if y > pageHeight-marginBottom-20 {
			renderFooter(pdf)
			pdf.AddPage()
			y = marginTop
		}
		for _, line := range SummaryLines(row, result.Sizes) {
			xPos = marginLeft
			for i, c := range line {
				pdf.SetXY(xPos, y)
				if i > 1 && line[1] == "Diff" && strings.HasPrefix(c, "-") {
					pdf.SetTextColor(200, 0, 0)
				}
				pdf.CellFormat(colW, 5, c, "1", 0, "C", false, 0, "")
				pdf.SetTextColor(0, 0, 0)
				xPos += colW
			}
			y += 5
		}
	}

	if len(result.Unmet) > 0 {
		y += 8
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(200, 7, "WARNING: Demand not fully planned", "", 0, "L", false, 0, "")
		y += 8

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
		for _, u := range result.Unmet {
			pdf.SetXY(marginLeft+5, y)
			pdf.CellFormat(200, 5, fmt.Sprintf("- %s: %s", u.Color, u.Reason), "", 0, "L", false, 0, "")
			y += 5
		}
	}

	renderFooter(pdf)
}

// SummaryLines renders a summary row as its Demanded, Planned and Diff lines.
func SummaryLines(row model.SummaryRow, sizes []string) [][]string {
	demanded := []string{row.Color, "T"}
	planned := []string{"", "P"}
	diff := []string{"", "Diff"}
	var td, tp int
	for _, s := range sizes {
		demanded = append(demanded, fmt.Sprintf("%d", row.Demanded[s]))
		planned = append(planned, fmt.Sprintf("%d", row.Planned[s]))
		diff = append(diff, fmt.Sprintf("%+d", row.Diff(s)))
		td += row.Demanded[s]
		tp += row.Planned[s]
	}
	demanded = append(demanded, fmt.Sprintf("%d", td))
	planned = append(planned, fmt.Sprintf("%d", tp))
	diff = append(diff, fmt.Sprintf("%+d", tp-td))
	return [][]string{demanded, planned, diff}
}

func renderFooter(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(contentWidth, 4, "Generated by LotCut - Fabric Lot Cutting Planner", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}
