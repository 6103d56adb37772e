package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/piwi3910/lotcut/internal/importer"
	"github.com/piwi3910/lotcut/internal/model"
)

// splitPairs breaks "32:10, 34=5 36:2" into size/value pairs.
func splitPairs(text string) ([][2]string, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n'
	})
	pairs := make([][2]string, 0, len(fields))
	for _, f := range fields {
		idx := strings.IndexAny(f, ":=")
		if idx <= 0 || idx == len(f)-1 {
			return nil, fmt.Errorf("expected size:value, got %q", f)
		}
		pairs = append(pairs, [2]string{strings.TrimSpace(f[:idx]), strings.TrimSpace(f[idx+1:])})
	}
	return pairs, nil
}

// parseQuantities reads "32:10 34:5" into a size quantity map.
func parseQuantities(text string) (map[string]int, error) {
	pairs, err := splitPairs(text)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(pairs))
	for _, p := range pairs {
		q, ok := importer.ParseQuantity(p[1])
		if !ok {
			return nil, fmt.Errorf("invalid quantity %q for size %s", p[1], p[0])
		}
		out[p[0]] += q
	}
	return out, nil
}

// parsePerSize reads "32:1.1 34:1.3" into per-size consumption in meters.
func parsePerSize(text string) (map[string]float64, error) {
	pairs, err := splitPairs(text)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		v, ok := importer.ParseDecimal(p[1])
		if !ok || v <= 0 {
			return nil, fmt.Errorf("invalid consumption %q for size %s", p[1], p[0])
		}
		out[p[0]] = v
	}
	return out, nil
}

// formatQuantities is the inverse of parseQuantities, sizes in natural order.
func formatQuantities(q map[string]int) string {
	sizes := make([]string, 0, len(q))
	for s := range q {
		sizes = append(sizes, s)
	}
	model.SortSizes(sizes)
	parts := make([]string, 0, len(sizes))
	for _, s := range sizes {
		parts = append(parts, s+":"+strconv.Itoa(q[s]))
	}
	return strings.Join(parts, " ")
}

func formatPerSize(m map[string]float64) string {
	sizes := make([]string, 0, len(m))
	for s := range m {
		sizes = append(sizes, s)
	}
	model.SortSizes(sizes)
	parts := make([]string, 0, len(sizes))
	for _, s := range sizes {
		parts = append(parts, s+":"+strconv.FormatFloat(m[s], 'f', -1, 64))
	}
	return strings.Join(parts, " ")
}

// jobSizes lists every size present in the order rows, in natural order.
func jobSizes(orders []model.OrderRow) []string {
	seen := make(map[string]bool)
	var sizes []string
	for _, o := range orders {
		for s := range o.Quantities {
			if !seen[s] {
				seen[s] = true
				sizes = append(sizes, s)
			}
		}
	}
	model.SortSizes(sizes)
	return sizes
}

// parseSizeList reads the header line of a paste: "32 34 36" or "32,34,36".
func parseSizeList(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t'
	})
}

// lotLines renders one line per lot of the grouping, classes in order.
func lotLines(groups model.LotGroups) []string {
	var lines []string
	for _, class := range groups.SortedClasses() {
		lots := groups[class]
		var total float64
		for _, l := range lots {
			total += l.TotalLength
		}
		lines = append(lines, fmt.Sprintf("%s: %d lot(s), %.2f m", class, len(lots), total))
		for _, l := range lots {
			rolls := l.RollNumbers()
			sort.Strings(rolls)
			line := fmt.Sprintf("    Lot %s: %.2f m, rolls %s", l.LotNo, l.TotalLength, strings.Join(rolls, ", "))
			if l.Color != "" {
				line += " (" + l.Color + " only)"
			}
			lines = append(lines, line)
		}
	}
	return lines
}

// parseBands reads band bounds ("3 6") and class names ("A B C").
func parseBands(bounds, names string) (model.ToleranceBands, error) {
	var b model.ToleranceBands
	for _, f := range parseSizeList(bounds) {
		v, ok := importer.ParseDecimal(f)
		if !ok || v < 0 {
			return b, fmt.Errorf("invalid band bound %q", f)
		}
		b.Bounds = append(b.Bounds, v)
	}
	b.Names = parseSizeList(names)
	if !b.Valid() {
		return b, fmt.Errorf("need one more class name than bounds, with bounds ascending")
	}
	return b, nil
}

func formatBounds(b model.ToleranceBands) string {
	parts := make([]string, len(b.Bounds))
	for i, v := range b.Bounds {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, " ")
}
