package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// ErrCapacityOverrun is returned when a cut would drive a lot below zero.
var ErrCapacityOverrun = errors.New("lot capacity overrun")

// UnknownLot is the lot number given to rolls without one.
const UnknownLot = "UNKNOWN"

// Roll is one physical fabric roll as delivered.
type Roll struct {
	ID           string  `json:"id"`
	RollNo       string  `json:"roll_no"`
	LotNo        string  `json:"lot_no"`
	Color        string  `json:"color,omitempty"`
	Length       float64 `json:"length"`        // meters
	WidthShrink  float64 `json:"width_shrink"`  // percent
	LengthShrink float64 `json:"length_shrink"` // percent
}

func NewRoll(rollNo, lotNo string, length, widthShrink, lengthShrink float64) Roll {
	return Roll{
		ID:           uuid.New().String()[:8],
		RollNo:       rollNo,
		LotNo:        lotNo,
		Length:       length,
		WidthShrink:  widthShrink,
		LengthShrink: lengthShrink,
	}
}

// FabricLot is a group of rolls sharing a tolerance class and lot number.
type FabricLot struct {
	ID             string  `json:"lotId"`
	LotNo          string  `json:"lotNo"`
	ToleranceClass string  `json:"toleranceClass"`
	TotalLength    float64 `json:"totalLength"`
	Rolls          []Roll  `json:"constituentRolls"`
	Color          string  `json:"color,omitempty"` // restricts the lot to one color when set
}

// RollNumbers lists the roll numbers making up the lot.
func (l FabricLot) RollNumbers() []string {
	out := make([]string, 0, len(l.Rolls))
	for _, r := range l.Rolls {
		out = append(out, r.RollNo)
	}
	return out
}

// Eligible reports whether the lot may be cut for the given color.
func (l FabricLot) Eligible(color string) bool {
	return l.Color == "" || strings.EqualFold(l.Color, color)
}

// LotGroups maps a tolerance class to its lots.
type LotGroups map[string][]FabricLot

// SortedClasses returns class names in lexical order.
func (g LotGroups) SortedClasses() []string {
	classes := make([]string, 0, len(g))
	for c := range g {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	return classes
}

// Flatten lists every lot, classes in order, and stamps the class name onto
// each lot. Lots without an ID get "<class>/<lotNo>".
func (g LotGroups) Flatten() []FabricLot {
	var out []FabricLot
	for _, class := range g.SortedClasses() {
		for _, lot := range g[class] {
			lot.ToleranceClass = class
			if lot.ID == "" {
				lot.ID = class + "/" + lot.LotNo
			}
			out = append(out, lot)
		}
	}
	return out
}

// TotalLength returns the fabric available across all groups.
func (g LotGroups) TotalLength() float64 {
	var total float64
	for _, lots := range g {
		for _, l := range lots {
			total += l.TotalLength
		}
	}
	return total
}

// LotArena is a solver-private copy of lot state indexed by lot ID.
// Remaining length never goes negative.
type LotArena struct {
	order     []string
	lots      map[string]FabricLot
	remaining map[string]float64
}

// NewLotArena clones the lots into a fresh arena.
func NewLotArena(lots []FabricLot) *LotArena {
	a := &LotArena{
		lots:      make(map[string]FabricLot, len(lots)),
		remaining: make(map[string]float64, len(lots)),
	}
	for _, l := range lots {
		if _, dup := a.lots[l.ID]; dup {
			continue
		}
		rolls := make([]Roll, len(l.Rolls))
		copy(rolls, l.Rolls)
		l.Rolls = rolls
		a.order = append(a.order, l.ID)
		a.lots[l.ID] = l
		rem := l.TotalLength
		if rem < 0 {
			rem = 0
		}
		a.remaining[l.ID] = rem
	}
	return a
}

// Clone returns an independent copy of the arena including consumed state.
func (a *LotArena) Clone() *LotArena {
	c := &LotArena{
		order:     make([]string, len(a.order)),
		lots:      make(map[string]FabricLot, len(a.lots)),
		remaining: make(map[string]float64, len(a.remaining)),
	}
	copy(c.order, a.order)
	for id, l := range a.lots {
		c.lots[id] = l
		c.remaining[id] = a.remaining[id]
	}
	return c
}

// Lot returns the lot with the given ID.
func (a *LotArena) Lot(id string) (FabricLot, bool) {
	l, ok := a.lots[id]
	return l, ok
}

// IDs returns the lot IDs in insertion order.
func (a *LotArena) IDs() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Remaining returns the unused length of a lot.
func (a *LotArena) Remaining(id string) float64 {
	return a.remaining[id]
}

// Used returns the length consumed from a lot so far.
func (a *LotArena) Used(id string) float64 {
	return a.lots[id].TotalLength - a.remaining[id]
}

// Consume deducts length from a lot.
func (a *LotArena) Consume(id string, length float64) error {
	rem, ok := a.remaining[id]
	if !ok {
		return fmt.Errorf("unknown lot %q", id)
	}
	// tolerate float noise from summing marker lengths
	if length > rem+1e-9 {
		return fmt.Errorf("lot %s: need %.2f, have %.2f: %w", id, length, rem, ErrCapacityOverrun)
	}
	rem -= length
	if rem < 1e-9 {
		rem = 0
	}
	a.remaining[id] = rem
	return nil
}

// Zero marks a lot as exhausted.
func (a *LotArena) Zero(id string) {
	if _, ok := a.remaining[id]; ok {
		a.remaining[id] = 0
	}
}

// Active returns the lots with remaining length > 0 that may be cut for
// color ("" matches every lot), largest remaining first, ties by insertion order.
func (a *LotArena) Active(color string) []FabricLot {
	var out []FabricLot
	for _, id := range a.order {
		l := a.lots[id]
		if a.remaining[id] <= 0 {
			continue
		}
		if color != "" && !l.Eligible(color) {
			continue
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return a.remaining[out[i].ID] > a.remaining[out[j].ID]
	})
	return out
}

// Eligible returns every lot usable for color regardless of remaining length.
func (a *LotArena) Eligible(color string) []FabricLot {
	var out []FabricLot
	for _, id := range a.order {
		if l := a.lots[id]; l.Eligible(color) {
			out = append(out, l)
		}
	}
	return out
}

// TotalRemaining sums the remaining length of all lots.
func (a *LotArena) TotalRemaining() float64 {
	var total float64
	for _, r := range a.remaining {
		total += r
	}
	return total
}
