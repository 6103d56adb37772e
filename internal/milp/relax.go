package milp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const boundTol = 1e-9

type row struct {
	coef  map[int]float64 // reduced column -> coefficient
	slack float64         // +1 for <=, -1 for >=, 0 for =
	rhs   float64
}

// relax solves the LP relaxation of p under the given bounds. Each variable is
// shifted to x = lower + y so that y >= 0; fixed variables are folded into the
// right-hand side and finite upper bounds become explicit rows, which puts the
// problem in the standard form lp.Simplex expects.
func relax(p *Problem, lower, upper []float64, tol float64) (float64, []float64, error) {
	n := len(p.cost)
	col := make([]int, n)
	var free []int
	for j := 0; j < n; j++ {
		if lower[j] > upper[j]+boundTol {
			return 0, nil, ErrInfeasible
		}
		if upper[j]-lower[j] <= boundTol {
			col[j] = -1
			continue
		}
		col[j] = len(free)
		free = append(free, j)
	}

	var rows []row
	for _, c := range p.constraints {
		r := row{coef: make(map[int]float64), rhs: c.RHS}
		for _, t := range c.Terms {
			r.rhs -= t.Coef * lower[t.Var]
			if col[t.Var] >= 0 {
				r.coef[col[t.Var]] += t.Coef
			}
		}
		for k, v := range r.coef {
			if v == 0 {
				delete(r.coef, k)
			}
		}
		switch c.Sense {
		case LessEq:
			r.slack = 1
		case GreaterEq:
			r.slack = -1
		}
		if len(r.coef) == 0 {
			if !constantRowHolds(c.Sense, r.rhs, tol) {
				return 0, nil, ErrInfeasible
			}
			continue
		}
		rows = append(rows, r)
	}
	for _, j := range free {
		if !math.IsInf(upper[j], 1) {
			rows = append(rows, row{
				coef:  map[int]float64{col[j]: 1},
				slack: 1,
				rhs:   upper[j] - lower[j],
			})
		}
	}

	x := make([]float64, n)
	copy(x, lower)

	// free variables that appear in no row sit at their lower bound
	used := make([]bool, len(free))
	for _, r := range rows {
		for k := range r.coef {
			used[k] = true
		}
	}
	colIndex := make([]int, len(free))
	ncols := 0
	for k, j := range free {
		if !used[k] {
			if p.cost[j] < 0 {
				return 0, nil, ErrUnbounded
			}
			colIndex[k] = -1
			continue
		}
		colIndex[k] = ncols
		ncols++
	}
	structural := ncols
	for _, r := range rows {
		if r.slack != 0 {
			ncols++
		}
	}

	m := len(rows)
	if m == 0 {
		return p.Objective(x), x, nil
	}

	c := make([]float64, ncols)
	for k, j := range free {
		if colIndex[k] >= 0 {
			c[colIndex[k]] = p.cost[j]
		}
	}
	A := mat.NewDense(m, ncols, nil)
	b := make([]float64, m)
	slackCol := structural
	for i, r := range rows {
		sign := 1.0
		if r.rhs < 0 {
			sign = -1
		}
		for k, v := range r.coef {
			A.Set(i, colIndex[k], sign*v)
		}
		if r.slack != 0 {
			A.Set(i, slackCol, sign*r.slack)
			slackCol++
		}
		b[i] = sign * r.rhs
	}

	_, y, err := lp.Simplex(c, A, b, tol, nil)
	if err != nil {
		switch {
		case errors.Is(err, lp.ErrInfeasible):
			return 0, nil, ErrInfeasible
		case errors.Is(err, lp.ErrUnbounded):
			return 0, nil, ErrUnbounded
		}
		return 0, nil, fmt.Errorf("simplex: %w", err)
	}
	for k, j := range free {
		if colIndex[k] >= 0 {
			v := y[colIndex[k]]
			if v < 0 {
				v = 0
			}
			x[j] = lower[j] + v
		}
	}
	return p.Objective(x), x, nil
}

func constantRowHolds(sense Sense, rhs, tol float64) bool {
	switch sense {
	case LessEq:
		return rhs >= -tol
	case GreaterEq:
		return rhs <= tol
	}
	return math.Abs(rhs) <= tol
}
