package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/piwi3910/lotcut/internal/model"
	"github.com/xuri/excelize/v2"
)

const summarySheet = "Summary"

// PlanSheetName is the worksheet name used for a plan.
func PlanSheetName(plan model.CuttingPlan) string {
	return fmt.Sprintf("Plan %d", plan.ID)
}

// ExportXLSX writes a workbook with a summary sheet and one sheet per plan.
func ExportXLSX(path string, job model.Job, result model.OptimizeResult) error {
	if len(result.Plans) == 0 {
		return fmt.Errorf("no cutting plans to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := writeSummarySheet(f, bold, job, result); err != nil {
		return err
	}
	for _, plan := range result.Plans {
		if err := writePlanSheet(f, bold, plan); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func boldRow(f *excelize.File, sheet string, row, cols, style int) error {
	if cols < 1 {
		cols = 1
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(cols, row)
	return f.SetCellStyle(sheet, first, last, style)
}

func writeSummarySheet(f *excelize.File, bold int, job model.Job, result model.OptimizeResult) error {
	header := [][]interface{}{
		{"Job", job.Name},
		{"Customer", job.Customer},
		{"Strategy", string(result.Strategy)},
		{"Run", result.RunID},
		{"Plans", len(result.Plans)},
		{"Total pieces", result.TotalPieces()},
		{"Fabric used (m)", result.TotalUsedLength()},
	}
	row := 1
	for _, values := range header {
		if err := setRow(f, summarySheet, row, values); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
		row++
	}
	row++

	cols := []interface{}{"Color", ""}
	for _, s := range result.Sizes {
		cols = append(cols, s)
	}
	cols = append(cols, "Total")
	if err := setRow(f, summarySheet, row, cols); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	if err := boldRow(f, summarySheet, row, len(cols), bold); err != nil {
		return fmt.Errorf("failed to style summary: %w", err)
	}
	row++

	for _, sr := range result.Summary {
		for _, line := range SummaryLines(sr, result.Sizes) {
			values := make([]interface{}, len(line))
			for i, c := range line {
				values[i] = cellValue(c, i)
			}
			if err := setRow(f, summarySheet, row, values); err != nil {
				return fmt.Errorf("failed to write summary: %w", err)
			}
			row++
		}
	}

	if len(result.Unmet) > 0 {
		row++
		if err := setRow(f, summarySheet, row, []interface{}{"Unmet", "Reason"}); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
		row++
		for _, u := range result.Unmet {
			if err := setRow(f, summarySheet, row, []interface{}{u.Color, u.Reason}); err != nil {
				return fmt.Errorf("failed to write summary: %w", err)
			}
			row++
		}
	}
	return nil
}

// cellValue keeps the label columns as text and the rest as numbers.
func cellValue(c string, col int) interface{} {
	if col < 2 {
		return c
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(c, "+")); err == nil {
		return n
	}
	return c
}

func writePlanSheet(f *excelize.File, bold int, plan model.CuttingPlan) error {
	name := PlanSheetName(plan)
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}

	info := [][]interface{}{
		{"Lot", plan.LotNo},
		{"Lot ID", plan.LotID},
		{"Tolerance class", plan.ToleranceClass},
		{"Marker", plan.RatioLabel()},
		{"Marker length (m)", plan.MarkerLength},
		{"Layers", plan.TotalLayers},
		{"Used (m)", plan.UsedLength},
		{"Remaining (m)", plan.RemainingLength},
		{"Rolls", strings.Join(plan.FabricsUsed, ", ")},
	}
	if plan.Note != "" {
		info = append(info, []interface{}{"Note", plan.Note})
	}
	row := 1
	for _, values := range info {
		if err := setRow(f, name, row, values); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		row++
	}
	row++

	sizes := plan.RatioSizes()
	cols := []interface{}{"Color", "Layers"}
	for _, s := range sizes {
		cols = append(cols, s)
	}
	if err := setRow(f, name, row, cols); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := boldRow(f, name, row, len(cols), bold); err != nil {
		return fmt.Errorf("failed to style %s: %w", name, err)
	}
	row++

	for _, pr := range plan.Rows {
		values := []interface{}{pr.Color, pr.Layers}
		for _, s := range sizes {
			values = append(values, pr.Quantities[s])
		}
		if err := setRow(f, name, row, values); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		row++
	}
	return nil
}
