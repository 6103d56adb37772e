// Package importer reads order sheets and fabric roll lists from CSV, Excel
// and tab-separated clipboard text. It detects delimiters, recognizes
// English and Turkish column headers case-insensitively, and never fails a
// whole import over one bad cell: unreadable numbers become 0 with a warning.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/piwi3910/lotcut/internal/metrics"
	"github.com/piwi3910/lotcut/internal/model"
	"github.com/piwi3910/lotcut/internal/tolerance"
	"github.com/xuri/excelize/v2"
)

// DefaultPasteColor is used for pasted order lines without a color.
const DefaultPasteColor = "REK"

// DefaultPasteLot is used for pasted roll lines without a lot number.
const DefaultPasteLot = "1"

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Orders   []model.OrderRow
	Rolls    []model.Roll
	Sizes    []string // order size columns in file order
	Errors   []string
	Warnings []string
	Invalid  int // cells replaced by 0
}

// RollColumns maps roll attributes to their indices in the data.
type RollColumns struct {
	RollNo       int
	WidthShrink  int
	LengthShrink int
	Shrinkage    int // combined "E55 B6" notation
	Lot          int
	Length       int
	Color        int
}

// rollHeaderAliases maps roll attributes to their accepted aliases (all lowercase).
var rollHeaderAliases = map[string][]string{
	"roll":      {"roll", "roll no", "roll number", "top", "top no", "topno", "no"},
	"width":     {"width shrink", "width", "en", "en %", "en çekme", "w"},
	"length":    {"length shrink", "boy", "boy %", "boy çekme", "l"},
	"shrinkage": {"shrinkage", "shrink", "çekme", "cekme", "tolerance", "tolerans"},
	"lot":       {"lot", "lot no", "lot number", "batch"},
	"meters":    {"meters", "metres", "metraj", "meter", "m", "length", "length (m)", "qty", "amount"},
	"color":     {"color", "colour", "renk"},
}

var orderColorAliases = []string{"color", "colour", "renk", "renkler"}

// columns that are never sizes in an order sheet
var orderIgnoredHeaders = []string{"total", "toplam", "sum", "#"}

var lineSplit = regexp.MustCompile(`\r?\n`)

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

func normalizeHeader(cell string) string {
	return strings.ToLower(strings.TrimSpace(cell))
}

func matchesAny(value string, aliases []string) bool {
	for _, a := range aliases {
		if value == a {
			return true
		}
	}
	return false
}

// DetectOrderColumns finds the color column and the size columns of an
// order header. Every non-empty header cell other than the color column and
// total columns is a size. ok is false when no color column exists.
func DetectOrderColumns(header []string) (colorCol int, sizes map[int]string, ok bool) {
	colorCol = -1
	sizes = make(map[int]string)
	for i, cell := range header {
		n := normalizeHeader(cell)
		if n == "" {
			continue
		}
		if colorCol == -1 && matchesAny(n, orderColorAliases) {
			colorCol = i
			continue
		}
		if matchesAny(n, orderIgnoredHeaders) {
			continue
		}
		sizes[i] = strings.TrimSpace(cell)
	}
	if colorCol == -1 {
		return -1, nil, false
	}
	return colorCol, sizes, true
}

// DetectRollColumns examines a header row and returns the roll column mapping.
// Without a recognized header it falls back to the paste layout:
// roll no, width shrink, length shrink, lot, meters.
func DetectRollColumns(row []string) (RollColumns, bool) {
	mapping := RollColumns{RollNo: -1, WidthShrink: -1, LengthShrink: -1, Shrinkage: -1, Lot: -1, Length: -1, Color: -1}

	isHeader := false
	for i, cell := range row {
		n := normalizeHeader(cell)
		for role, aliases := range rollHeaderAliases {
			if !matchesAny(n, aliases) {
				continue
			}
			isHeader = true
			switch role {
			case "roll":
				if mapping.RollNo == -1 {
					mapping.RollNo = i
				}
			case "width":
				if mapping.WidthShrink == -1 {
					mapping.WidthShrink = i
				}
			case "length":
				if mapping.LengthShrink == -1 {
					mapping.LengthShrink = i
				}
			case "shrinkage":
				if mapping.Shrinkage == -1 {
					mapping.Shrinkage = i
				}
			case "lot":
				if mapping.Lot == -1 {
					mapping.Lot = i
				}
			case "meters":
				if mapping.Length == -1 {
					mapping.Length = i
				}
			case "color":
				if mapping.Color == -1 {
					mapping.Color = i
				}
			}
		}
	}

	if !isHeader {
		return RollColumns{RollNo: 0, WidthShrink: 1, LengthShrink: 2, Shrinkage: -1, Lot: 3, Length: 4, Color: -1}, false
	}
	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ParseQuantity reads a piece count. Empty cells are 0 and valid; whole
// decimals such as "12.0" are accepted. Anything else is 0 and not ok.
func ParseQuantity(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, false
		}
		return n, true
	}
	f, ok := ParseDecimal(s)
	if !ok || f < 0 || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// ParseDecimal reads a number accepting a comma decimal separator.
func ParseDecimal(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func readCSV(data []byte, result *ImportResult) [][]string {
	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return nil
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	return readRecords(bytes.NewReader(data), delimiter, result)
}

func readRecords(r io.Reader, delimiter rune, result *ImportResult) [][]string {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return nil
	}
	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return nil
	}
	return records
}

func readExcel(path string, result *ImportResult) [][]string {
	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return nil
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return nil
	}
	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return nil
	}
	return rows
}

// ImportOrdersCSV imports order rows from a CSV file whose header holds a
// color column followed by one column per size.
func ImportOrdersCSV(path string) ImportResult {
	result := ImportResult{}
	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}
	records := readCSV(data, &result)
	if records == nil {
		return result
	}
	return ordersFromRows(records, "Line", result.Warnings)
}

// ImportOrdersCSVFromReader imports order rows with a known delimiter.
func ImportOrdersCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}
	records := readRecords(reader, delimiter, &result)
	if records == nil {
		return result
	}
	return ordersFromRows(records, "Line", nil)
}

// ImportOrdersExcel imports order rows from the first sheet of a workbook.
func ImportOrdersExcel(path string) ImportResult {
	result := ImportResult{}
	rows := readExcel(path, &result)
	if rows == nil {
		return result
	}
	return ordersFromRows(rows, "Row", nil)
}

// ImportRollsCSV imports fabric rolls from a CSV file.
func ImportRollsCSV(path string) ImportResult {
	result := ImportResult{}
	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}
	records := readCSV(data, &result)
	if records == nil {
		return result
	}
	return rollsFromRows(records, "Line", result.Warnings)
}

// ImportRollsCSVFromReader imports fabric rolls with a known delimiter.
func ImportRollsCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}
	records := readRecords(reader, delimiter, &result)
	if records == nil {
		return result
	}
	return rollsFromRows(records, "Line", nil)
}

// ImportRollsExcel imports fabric rolls from the first sheet of a workbook.
func ImportRollsExcel(path string) ImportResult {
	result := ImportResult{}
	rows := readExcel(path, &result)
	if rows == nil {
		return result
	}
	return rollsFromRows(rows, "Row", nil)
}

// ParseOrdersPaste reads tab-separated lines copied from a spreadsheet.
// The first field is the color, the rest are quantities for sizes in order.
func ParseOrdersPaste(text string, sizes []string) ImportResult {
	result := ImportResult{Sizes: append([]string(nil), sizes...)}
	for i, line := range pasteLines(text) {
		parts := strings.Split(line, "\t")
		color := strings.TrimSpace(parts[0])
		if color == "" {
			color = DefaultPasteColor
		}
		row := model.OrderRow{Color: color, Quantities: make(map[string]int, len(sizes))}
		label := fmt.Sprintf("Line %d", i+1)
		for j, size := range sizes {
			row.Quantities[size] = quantityCell(&result, getCell(parts, j+1), label, size)
		}
		result.Orders = append(result.Orders, row)
	}
	metrics.RecordInvalidInput("paste", result.Invalid)
	return result
}

// ParseRollsPaste reads tab-separated roll lines:
// roll no, width shrink, length shrink, lot, meters.
func ParseRollsPaste(text string) ImportResult {
	result := ImportResult{}
	mapping := RollColumns{RollNo: 0, WidthShrink: 1, LengthShrink: 2, Shrinkage: -1, Lot: 3, Length: 4, Color: -1}
	for i, line := range pasteLines(text) {
		parts := strings.Split(line, "\t")
		roll, errMsg := parseRollRow(&result, parts, mapping, fmt.Sprintf("Line %d", i+1))
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if roll.LotNo == "" {
			roll.LotNo = DefaultPasteLot
		}
		result.Rolls = append(result.Rolls, roll)
	}
	metrics.RecordInvalidInput("paste", result.Invalid)
	return result
}

func pasteLines(text string) []string {
	var out []string
	for _, l := range lineSplit.Split(text, -1) {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

func quantityCell(result *ImportResult, cell, rowLabel, size string) int {
	q, ok := ParseQuantity(cell)
	if !ok {
		result.Invalid++
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: Invalid quantity '%s' for size %s, using 0", rowLabel, cell, size))
	}
	return q
}

// ordersFromRows is the shared order import logic for CSV and Excel data.
func ordersFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{Warnings: initialWarnings}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	colorCol, sizeCols, ok := DetectOrderColumns(rows[0])
	if !ok {
		result.Errors = append(result.Errors, "Required column not found in header: Color")
		return result
	}
	if len(sizeCols) == 0 {
		result.Errors = append(result.Errors, "No size columns found in header")
		return result
	}
	indices := make([]int, 0, len(sizeCols))
	for i := range rows[0] {
		if s, ok := sizeCols[i]; ok {
			indices = append(indices, i)
			result.Sizes = append(result.Sizes, s)
		}
	}

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		color := getCell(row, colorCol)
		if color == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: Missing color", rowLabel))
			continue
		}
		order := model.OrderRow{Color: color, Quantities: make(map[string]int, len(indices))}
		for _, idx := range indices {
			order.Quantities[sizeCols[idx]] = quantityCell(&result, getCell(row, idx), rowLabel, sizeCols[idx])
		}
		result.Orders = append(result.Orders, order)
	}

	if len(result.Orders) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No valid order rows found")
	}
	metrics.RecordInvalidInput("file", result.Invalid)
	return result
}

// rollsFromRows is the shared roll import logic for CSV and Excel data.
func rollsFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{Warnings: initialWarnings}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectRollColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")
		if mapping.Length == -1 {
			result.Errors = append(result.Errors, "Required columns not found in header: Meters")
			return result
		}
	} else if _, ok := ParseDecimal(getCell(rows[0], mapping.Length)); !ok {
		// unrecognized header, keep the positional layout
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		roll, errMsg := parseRollRow(&result, row, mapping, fmt.Sprintf("%s %d", rowPrefix, i+1))
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		result.Rolls = append(result.Rolls, roll)
	}

	if len(result.Rolls) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No valid roll rows found")
	}
	metrics.RecordInvalidInput("file", result.Invalid)
	return result
}

// parseRollRow extracts a Roll from a row. A missing or non-positive length
// rejects the row; unreadable shrinkage becomes 0 with a warning.
func parseRollRow(result *ImportResult, row []string, mapping RollColumns, rowLabel string) (model.Roll, string) {
	lengthStr := getCell(row, mapping.Length)
	if lengthStr == "" {
		return model.Roll{}, fmt.Sprintf("%s: Missing meters value", rowLabel)
	}
	length, ok := ParseDecimal(lengthStr)
	if !ok {
		return model.Roll{}, fmt.Sprintf("%s: Invalid meters '%s'", rowLabel, lengthStr)
	}
	if length <= 0 {
		return model.Roll{}, fmt.Sprintf("%s: Meters must be positive", rowLabel)
	}

	var width, lengthShrink float64
	if cell := getCell(row, mapping.Shrinkage); cell != "" {
		s := tolerance.ParseShrinkage(cell)
		width, lengthShrink = s.Width, s.Length
	}
	width = shrinkCell(result, row, mapping.WidthShrink, rowLabel, "width", width)
	lengthShrink = shrinkCell(result, row, mapping.LengthShrink, rowLabel, "length", lengthShrink)

	roll := model.NewRoll(getCell(row, mapping.RollNo), getCell(row, mapping.Lot), length, width, lengthShrink)
	roll.Color = getCell(row, mapping.Color)
	return roll, ""
}

func shrinkCell(result *ImportResult, row []string, idx int, rowLabel, what string, fallback float64) float64 {
	cell := getCell(row, idx)
	if cell == "" {
		return fallback
	}
	v, ok := ParseDecimal(cell)
	if !ok {
		result.Invalid++
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: Invalid %s shrinkage '%s', using 0", rowLabel, what, cell))
		return 0
	}
	return v
}
