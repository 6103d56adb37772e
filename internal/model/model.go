package model

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Strategy represents the solver strategy to use.
type Strategy string

const (
	StrategyGreedy    Strategy = "greedy"    // Largest-lot-first scoring heuristic (fast, deterministic)
	StrategyWaterfall Strategy = "waterfall" // Proportional rationing with per-lot consolidation
	StrategyGenetic   Strategy = "genetic"   // Per-color genetic search (stochastic)
	StrategyILP       Strategy = "ilp"       // Exact integer program with a split penalty
)

// Strategies lists every supported strategy in display order.
func Strategies() []Strategy {
	return []Strategy{StrategyGreedy, StrategyWaterfall, StrategyGenetic, StrategyILP}
}

// ParseStrategy converts a user supplied name into a Strategy.
func ParseStrategy(s string) (Strategy, bool) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyGreedy:
		return StrategyGreedy, true
	case StrategyWaterfall:
		return StrategyWaterfall, true
	case StrategyGenetic, "ga":
		return StrategyGenetic, true
	case StrategyILP, "lp":
		return StrategyILP, true
	}
	return "", false
}

// Hard limits shared by every strategy.
const (
	MaxLayers          = 80   // cutting table height limit
	MaxPatternSizes    = 4    // sizes per marker
	OverProductionRate = 0.05 // allowed over-cut per demand line
)

// ILPConfig holds the tuning constants of the exact formulation.
type ILPConfig struct {
	SplitPenalty float64       `json:"split_penalty"` // cost of opening a (lot, line) connection
	BigM         float64       `json:"big_m"`         // upper bound on pieces per connection
	NodeLimit    int           `json:"node_limit"`    // branch-and-bound node budget
	TimeLimit    time.Duration `json:"time_limit"`    // 0 = no deadline beyond the caller's context
}

// DefaultILPConfig returns the penalties used by the exact solver.
func DefaultILPConfig() ILPConfig {
	return ILPConfig{
		SplitPenalty: 5000,
		BigM:         100000,
		NodeLimit:    20000,
		TimeLimit:    30 * time.Second,
	}
}

// SolveSettings holds everything a solve needs besides the job data.
type SolveSettings struct {
	Strategy     Strategy      `json:"strategy"`
	InflationPct float64       `json:"inflation_pct"` // over-production added to demand before solving
	Genetic      GeneticConfig `json:"genetic"`
	ILP          ILPConfig     `json:"ilp"`
}

func DefaultSettings() SolveSettings {
	return SolveSettings{
		Strategy:     StrategyGreedy,
		InflationPct: 0,
		Genetic:      DefaultGeneticConfig(),
		ILP:          DefaultILPConfig(),
	}
}

// CutJob is one marker laid a number of times on one lot for one color.
type CutJob struct {
	Color        string          `json:"color"`
	Pattern      SizeCombination `json:"pattern"`
	Ratio        map[string]int  `json:"ratio"`
	Layers       int             `json:"layers"`
	LotID        string          `json:"lot_id"`
	MarkerLength float64         `json:"marker_length"` // length of one layer
}

// NewCutJob builds a job whose ratio is derived from the pattern multiset.
func NewCutJob(color string, pattern SizeCombination, layers int, lotID string, cons Consumption) CutJob {
	ratio := pattern.Ratio()
	return CutJob{
		Color:        color,
		Pattern:      pattern,
		Ratio:        ratio,
		Layers:       layers,
		LotID:        lotID,
		MarkerLength: cons.MarkerLength(ratio),
	}
}

// PiecesProduced returns ratio(size) x layers.
func (j CutJob) PiecesProduced(size string) int {
	return j.Ratio[size] * j.Layers
}

// TotalPieces returns the pieces of every size cut by this job.
func (j CutJob) TotalPieces() int {
	total := 0
	for _, r := range j.Ratio {
		total += r * j.Layers
	}
	return total
}

// MetrajUsed returns the fabric length consumed by the job.
func (j CutJob) MetrajUsed() float64 {
	return float64(j.Layers) * j.MarkerLength
}

// PlanRow is the share of a plan's layers belonging to one color.
type PlanRow struct {
	Color      string         `json:"color"`
	Layers     int            `json:"layers"`
	Quantities map[string]int `json:"quantities"`
}

// CuttingPlan groups the jobs that share a lot and a marker.
type CuttingPlan struct {
	ID              int            `json:"id"`
	LotID           string         `json:"lot_id"`
	LotNo           string         `json:"lot_no"`
	ToleranceClass  string         `json:"tolerance_class"`
	Ratio           map[string]int `json:"ratio"`
	MarkerLength    float64        `json:"marker_length"`
	TotalLayers     int            `json:"total_layers"`
	Rows            []PlanRow      `json:"rows"`
	FabricsUsed     []string       `json:"fabrics_used"`
	UsedLength      float64        `json:"used_length"`
	RemainingLength float64        `json:"remaining_length"`
	Note            string         `json:"note,omitempty"`
}

// TotalPieces returns the number of pieces cut by the plan.
func (p CuttingPlan) TotalPieces() int {
	total := 0
	for _, r := range p.Rows {
		for _, q := range r.Quantities {
			total += q
		}
	}
	return total
}

// RatioSizes returns the marker sizes in natural order.
func (p CuttingPlan) RatioSizes() []string {
	sizes := make([]string, 0, len(p.Ratio))
	for s := range p.Ratio {
		sizes = append(sizes, s)
	}
	SortSizes(sizes)
	return sizes
}

// RatioLabel renders the marker as "32x2 34x1".
func (p CuttingPlan) RatioLabel() string {
	var b strings.Builder
	for i, s := range p.RatioSizes() {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s)
		b.WriteByte('x')
		b.WriteString(strconv.Itoa(p.Ratio[s]))
	}
	return b.String()
}

// Allocation records pieces of one demand line taken from one lot.
type Allocation struct {
	LotID    string `json:"lot_id"`
	Quantity int    `json:"quantity"`
}

// Integrity measures how concentrated a line's fulfilment is (0-100).
type Integrity struct {
	Score       int          `json:"score"`
	Allocations []Allocation `json:"allocations"`
}

// IntegrityMap is keyed by DemandKey(color, size).
type IntegrityMap map[string]Integrity

// SummaryRow compares demand and plans for one color.
type SummaryRow struct {
	Color     string               `json:"color"`
	Demanded  map[string]int       `json:"demanded"`
	Planned   map[string]int       `json:"planned"`
	Integrity map[string]Integrity `json:"integrity"`
}

// Diff returns planned minus demanded for a size.
func (r SummaryRow) Diff(size string) int {
	return r.Planned[size] - r.Demanded[size]
}

// Unmet describes a color that could not be fully served.
type Unmet struct {
	Color  string `json:"color"`
	Reason string `json:"reason"`
}

// OptimizeResult holds the full solution of one run.
type OptimizeResult struct {
	RunID     string        `json:"run_id"`
	Strategy  Strategy      `json:"strategy"`
	Plans     []CuttingPlan `json:"plans"`
	Integrity IntegrityMap  `json:"integrity"`
	Summary   []SummaryRow  `json:"summary"`
	Sizes     []string      `json:"sizes"`
	Unmet     []Unmet       `json:"unmet,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// TotalPieces returns every piece planned in the run.
func (r OptimizeResult) TotalPieces() int {
	total := 0
	for _, p := range r.Plans {
		total += p.TotalPieces()
	}
	return total
}

// TotalUsedLength returns the fabric consumed by all plans.
func (r OptimizeResult) TotalUsedLength() float64 {
	var total float64
	for _, p := range r.Plans {
		total += p.UsedLength
	}
	return total
}

// Job ties everything together for save/load.
type Job struct {
	Name        string          `json:"name"`
	Customer    string          `json:"customer,omitempty"`
	Orders      []OrderRow      `json:"orders"`
	Rolls       []Roll          `json:"rolls"`
	Consumption Consumption     `json:"consumption"`
	Settings    SolveSettings   `json:"settings"`
	Result      *OptimizeResult `json:"result,omitempty"`
}

func NewJob() Job {
	return Job{
		Name:        "Untitled",
		Orders:      []OrderRow{},
		Rolls:       []Roll{},
		Consumption: DefaultConsumption(),
		Settings:    DefaultSettings(),
	}
}

// SortSizes orders sizes naturally: numeric sizes by value, then the rest lexically.
func SortSizes(sizes []string) {
	sort.SliceStable(sizes, func(i, j int) bool {
		return lessSize(sizes[i], sizes[j])
	})
}

func lessSize(a, b string) bool {
	na, aok := sizeNumber(a)
	nb, bok := sizeNumber(b)
	switch {
	case aok && bok:
		if na != nb {
			return na < nb
		}
		return a < b
	case aok:
		return true
	case bok:
		return false
	}
	return a < b
}

func sizeNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// RunRecord is the audit summary of one completed run.
type RunRecord struct {
	RunID       string        `json:"run_id"`
	Strategy    Strategy      `json:"strategy"`
	JobName     string        `json:"job_name,omitempty"`
	Customer    string        `json:"customer,omitempty"`
	Plans       int           `json:"plans"`
	TotalPieces int           `json:"total_pieces"`
	UsedLength  float64       `json:"used_length"`
	Unmet       int           `json:"unmet"`
	Duration    time.Duration `json:"duration"`
	CreatedAt   time.Time     `json:"created_at"`
}

// NewRunRecord summarizes a result for auditing.
func NewRunRecord(r OptimizeResult, jobName, customer string) RunRecord {
	return RunRecord{
		RunID:       r.RunID,
		Strategy:    r.Strategy,
		JobName:     jobName,
		Customer:    customer,
		Plans:       len(r.Plans),
		TotalPieces: r.TotalPieces(),
		UsedLength:  r.TotalUsedLength(),
		Unmet:       len(r.Unmet),
		Duration:    r.Duration,
		CreatedAt:   time.Now().UTC(),
	}
}
