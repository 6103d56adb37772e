package milp

import (
	"context"
	"errors"
	"math"
)

// Options tunes the branch-and-bound search.
type Options struct {
	NodeLimit    int     // 0 = unlimited
	Tolerance    float64 // simplex tolerance
	IntTolerance float64 // distance from an integer still treated as integral
}

func DefaultOptions() Options {
	return Options{
		NodeLimit:    20000,
		Tolerance:    1e-9,
		IntTolerance: 1e-6,
	}
}

// Solution is the best integer point found.
type Solution struct {
	X         []float64
	Objective float64
	Nodes     int
	Optimal   bool // false when the search stopped early with an incumbent
}

// Value returns x[j] rounded for integer variables.
func (s Solution) Value(p *Problem, j int) float64 {
	if p.integer[j] {
		return math.Round(s.X[j])
	}
	return s.X[j]
}

type node struct {
	lower, upper []float64
}

// Solve runs depth-first branch and bound. It returns ErrInfeasible when no
// integer point exists. When the node limit or ctx stops the search, the
// incumbent is returned with Optimal=false, or ErrNodeLimit / ctx.Err() if
// none was found yet.
func Solve(ctx context.Context, p *Problem, opts Options) (Solution, error) {
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultOptions().Tolerance
	}
	if opts.IntTolerance <= 0 {
		opts.IntTolerance = DefaultOptions().IntTolerance
	}

	n := len(p.cost)
	root := node{lower: make([]float64, n), upper: make([]float64, n)}
	copy(root.lower, p.lower)
	copy(root.upper, p.upper)
	for j := 0; j < n; j++ {
		if p.integer[j] {
			root.lower[j] = math.Ceil(root.lower[j] - opts.IntTolerance)
			if !math.IsInf(root.upper[j], 1) {
				root.upper[j] = math.Floor(root.upper[j] + opts.IntTolerance)
			}
		}
	}

	best := Solution{Objective: math.Inf(1)}
	found := false
	stack := []node{root}
	nodes := 0

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return stopped(best, found, nodes, err)
		}
		if opts.NodeLimit > 0 && nodes >= opts.NodeLimit {
			return stopped(best, found, nodes, ErrNodeLimit)
		}
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		obj, x, err := relax(p, cur.lower, cur.upper, opts.Tolerance)
		if err != nil {
			if errors.Is(err, ErrInfeasible) {
				continue
			}
			return Solution{Nodes: nodes}, err
		}
		if found && obj >= best.Objective-1e-9 {
			continue
		}

		branch := mostFractional(p, x, opts.IntTolerance)
		if branch < 0 {
			for j := range x {
				if p.integer[j] {
					x[j] = math.Round(x[j])
				}
			}
			best = Solution{X: x, Objective: p.Objective(x)}
			found = true
			continue
		}

		v := x[branch]
		down := node{lower: clone(cur.lower), upper: clone(cur.upper)}
		down.upper[branch] = math.Floor(v)
		up := node{lower: clone(cur.lower), upper: clone(cur.upper)}
		up.lower[branch] = math.Ceil(v)
		// rounding up is explored first; for indicator variables it reaches a
		// feasible incumbent quickly
		stack = append(stack, down, up)
	}

	if !found {
		return Solution{Nodes: nodes}, ErrInfeasible
	}
	best.Nodes = nodes
	best.Optimal = true
	return best, nil
}

func stopped(best Solution, found bool, nodes int, cause error) (Solution, error) {
	if !found {
		return Solution{Nodes: nodes}, cause
	}
	best.Nodes = nodes
	best.Optimal = false
	return best, nil
}

func mostFractional(p *Problem, x []float64, tol float64) int {
	idx := -1
	bestFrac := 0.0
	for j, v := range x {
		if !p.integer[j] {
			continue
		}
		frac := math.Abs(v - math.Round(v))
		if frac > tol && frac > bestFrac {
			bestFrac = frac
			idx = j
		}
	}
	return idx
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
