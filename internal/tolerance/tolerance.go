// Package tolerance classifies fabric rolls by shrinkage and pools them into lots.
package tolerance

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/piwi3910/lotcut/internal/model"
)

// Shrinkage is a roll's measured width/length deviation in percent.
type Shrinkage struct {
	Width  float64
	Length float64
}

// Max returns the larger absolute deviation.
func (s Shrinkage) Max() float64 {
	return math.Max(math.Abs(s.Width), math.Abs(s.Length))
}

// "E55 B6", "e-35 b10", "E5,5 B0,6"
var codedPattern = regexp.MustCompile(`^E\s*(-?[\d.,]+)\s*B\s*(-?[\d.,]+)$`)

// ParseShrinkage reads the lab notation used on roll tickets. "E55 B6" means
// width 5.5% and length 0.6% (coded values are tenths of a percent). A plain
// number applies to both directions. Anything unreadable yields zero.
func ParseShrinkage(value string) Shrinkage {
	str := strings.ToUpper(strings.TrimSpace(value))
	if str == "" {
		return Shrinkage{}
	}
	if m := codedPattern.FindStringSubmatch(str); m != nil {
		w, _ := parseNumber(m[1])
		l, _ := parseNumber(m[2])
		return Shrinkage{Width: w / 10, Length: l / 10}
	}
	if n, ok := parseNumber(str); ok {
		return Shrinkage{Width: n, Length: n}
	}
	return Shrinkage{}
}

func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Classifier maps a roll to its tolerance class name.
type Classifier func(roll model.Roll) string

// BandClassifier buckets rolls by max(|width|, |length|) against the bands.
// Invalid bands fall back to the defaults.
func BandClassifier(bands model.ToleranceBands) Classifier {
	if !bands.Valid() {
		bands = model.DefaultToleranceBands()
	}
	return func(roll model.Roll) string {
		shrink := Shrinkage{Width: roll.WidthShrink, Length: roll.LengthShrink}.Max()
		for i, bound := range bands.Bounds {
			if shrink <= bound {
				return bands.Names[i]
			}
		}
		return bands.Names[len(bands.Names)-1]
	}
}

// CustomerClassifier uses the customer's bands.
func CustomerClassifier(c model.Customer) Classifier {
	return BandClassifier(c.Bands)
}

// GroupRolls calls classify once per roll and pools rolls sharing a class and
// lot number into one FabricLot. Lots within a class are sorted by total
// length, largest first.
func GroupRolls(rolls []model.Roll, classify Classifier) model.LotGroups {
	if classify == nil {
		classify = BandClassifier(model.DefaultToleranceBands())
	}
	type key struct{ class, lot string }
	index := make(map[key]int)
	groups := make(model.LotGroups)

	for _, r := range rolls {
		if r.Length <= 0 {
			continue
		}
		class := classify(r)
		lotNo := strings.TrimSpace(r.LotNo)
		if lotNo == "" {
			lotNo = model.UnknownLot
		}
		k := key{class, lotNo}
		i, ok := index[k]
		if !ok {
			groups[class] = append(groups[class], model.FabricLot{
				ID:             class + "/" + lotNo,
				LotNo:          lotNo,
				ToleranceClass: class,
				Color:          r.Color,
			})
			i = len(groups[class]) - 1
			index[k] = i
		}
		lot := &groups[class][i]
		lot.Rolls = append(lot.Rolls, r)
		lot.TotalLength += r.Length
		// a lot mixing roll colors is usable for any color
		if lot.Color != r.Color {
			lot.Color = ""
		}
	}

	for class := range groups {
		lots := groups[class]
		sort.SliceStable(lots, func(i, j int) bool {
			return lots[i].TotalLength > lots[j].TotalLength
		})
	}
	return groups
}

// ClassTotals returns the total length per class.
func ClassTotals(groups model.LotGroups) map[string]float64 {
	out := make(map[string]float64, len(groups))
	for class, lots := range groups {
		for _, l := range lots {
			out[class] += l.TotalLength
		}
	}
	return out
}
