package export

import (
	"fmt"

	"github.com/piwi3910/lotcut/internal/model"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"
)

// DXF strips are drawn in centimeters, one strip per plan stacked downward.
const (
	dxfUnitsPerMeter = 100.0
	dxfStripHeight   = 40.0
	dxfStripGap      = 30.0
	dxfTextHeight    = 8.0
)

// ExportDXF draws each plan's marker as a schematic strip: an outline the
// length of one layer, split into one block per piece. Widths are nominal;
// only lengths carry meaning.
func ExportDXF(path string, result model.OptimizeResult, cons model.Consumption) error {
	if len(result.Plans) == 0 {
		return fmt.Errorf("no cutting plans to export")
	}

	d := dxf.NewDrawing()
	y := 0.0
	for _, plan := range result.Plans {
		layer := fmt.Sprintf("PLAN_%d", plan.ID)
		if _, err := d.AddLayer(layer, color.ColorNumber(plan.ID%7+1), dxf.DefaultLineType, true); err != nil {
			return fmt.Errorf("failed to add layer %s: %w", layer, err)
		}
		if err := drawStrip(d, plan, cons, y); err != nil {
			return fmt.Errorf("failed to draw plan %d: %w", plan.ID, err)
		}
		y -= dxfStripHeight + dxfStripGap
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save DXF: %w", err)
	}
	return nil
}

func drawStrip(d *drawing.Drawing, plan model.CuttingPlan, cons model.Consumption, y float64) error {
	w := plan.MarkerLength * dxfUnitsPerMeter
	h := dxfStripHeight

	outline := [][4]float64{
		{0, y, w, y},
		{w, y, w, y + h},
		{w, y + h, 0, y + h},
		{0, y + h, 0, y},
	}
	for _, l := range outline {
		if _, err := d.Line(l[0], l[1], 0, l[2], l[3], 0); err != nil {
			return err
		}
	}

	for i, b := range MarkerBlocks(plan, cons) {
		x := b.Offset * dxfUnitsPerMeter
		if i > 0 {
			if _, err := d.Line(x, y, 0, x, y+h, 0); err != nil {
				return err
			}
		}
		if _, err := d.Text(b.Size, x+2, y+h/2, 0, dxfTextHeight); err != nil {
			return err
		}
	}

	title := fmt.Sprintf("Plan %d  Lot %s  %s  %d layers  %.2f m", plan.ID, plan.LotNo, plan.RatioLabel(), plan.TotalLayers, plan.MarkerLength)
	_, err := d.Text(title, 0, y+h+4, 0, dxfTextHeight)
	return err
}
