package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/lotcut/internal/model"
	qrcode "github.com/skip2/go-qrcode"
)

// TicketInfo holds the data encoded into a cut ticket's QR code. One ticket
// is printed per color row of a cutting plan.
type TicketInfo struct {
	RunID        string         `json:"run_id,omitempty"`
	PlanID       int            `json:"plan"`
	LotID        string         `json:"lot_id"`
	LotNo        string         `json:"lot_no"`
	Class        string         `json:"class"`
	Color        string         `json:"color"`
	Marker       string         `json:"marker"`
	Layers       int            `json:"layers"`
	MarkerLength float64        `json:"marker_m"`
	Quantities   map[string]int `json:"quantities"`
	Rolls        []string       `json:"rolls"`
}

// Pieces returns the pieces the ticket's color cuts.
func (t TicketInfo) Pieces() int {
	total := 0
	for _, q := range t.Quantities {
		total += q
	}
	return total
}

// Ticket layout constants: 2 columns x 5 rows of 99 x 55 mm on A4.
const (
	ticketMarginTop  = 8.5
	ticketMarginLeft = 6.0
	ticketWidth      = 99.0
	ticketHeight     = 55.0
	ticketCols       = 2
	ticketRows       = 5
	ticketsPerPage   = ticketCols * ticketRows
	qrSize           = 32.0
	ticketPadding    = 3.0
)

// ExportTickets generates a PDF of QR-coded cut tickets, one per plan row.
func ExportTickets(path string, result model.OptimizeResult) error {
	if len(result.Plans) == 0 {
		return fmt.Errorf("no cutting plans to generate tickets for")
	}

	tickets := CollectTickets(result)
	if len(tickets) == 0 {
		return fmt.Errorf("no plan rows to generate tickets for")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, ticket := range tickets {
		if i%ticketsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % ticketsPerPage
		col := posOnPage % ticketCols
		row := posOnPage / ticketCols

		x := ticketMarginLeft + float64(col)*ticketWidth
		y := ticketMarginTop + float64(row)*ticketHeight

		if err := renderTicket(pdf, x, y, i, ticket); err != nil {
			return fmt.Errorf("failed to render ticket for plan %d %s: %w", ticket.PlanID, ticket.Color, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

func renderTicket(pdf *fpdf.Fpdf, x, y float64, idx int, info TicketInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, ticketWidth, ticketHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal ticket info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%d", idx)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + ticketWidth - qrSize - ticketPadding
	qrY := y + (ticketHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + ticketPadding
	textW := ticketWidth - qrSize - 3*ticketPadding

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+ticketPadding)
	pdf.CellFormat(textW, 5, fmt.Sprintf("Plan %d - %s", info.PlanID, fit(pdf, info.Color, textW-20)), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	lines := []string{
		fmt.Sprintf("Lot %s (%s)", info.LotNo, info.Class),
		"Marker " + info.Marker,
		fmt.Sprintf("%d layers x %.2f m", info.Layers, info.MarkerLength),
		fmt.Sprintf("%d pieces", info.Pieces()),
	}
	ly := y + ticketPadding + 7
	for _, l := range lines {
		pdf.SetXY(textX, ly)
		pdf.CellFormat(textW, 4, fit(pdf, l, textW), "", 1, "L", false, 0, "")
		ly += 4.5
	}

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, ly+1)
	pdf.CellFormat(textW, 3, fit(pdf, "Rolls: "+strings.Join(info.Rolls, ", "), textW), "", 1, "L", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// fit truncates s with an ellipsis to the given width in the current font.
func fit(pdf *fpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s) <= w {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > w {
		s = s[:len(s)-1]
	}
	return s + "..."
}

// CollectTickets flattens a result into one ticket per plan row.
func CollectTickets(result model.OptimizeResult) []TicketInfo {
	var tickets []TicketInfo
	for _, plan := range result.Plans {
		for _, row := range plan.Rows {
			tickets = append(tickets, TicketInfo{
				RunID:        result.RunID,
				PlanID:       plan.ID,
				LotID:        plan.LotID,
				LotNo:        plan.LotNo,
				Class:        plan.ToleranceClass,
				Color:        row.Color,
				Marker:       plan.RatioLabel(),
				Layers:       row.Layers,
				MarkerLength: plan.MarkerLength,
				Quantities:   row.Quantities,
				Rolls:        plan.FabricsUsed,
			})
		}
	}
	return tickets
}
