// Package milp solves small mixed-integer linear programs by branch and bound
// over gonum's simplex.
package milp

import (
	"errors"
	"math"
)

var (
	ErrInfeasible = errors.New("problem is infeasible")
	ErrUnbounded  = errors.New("problem is unbounded")
	ErrNodeLimit  = errors.New("node limit reached before a feasible solution was found")
)

// Sense is the relation of a constraint row.
type Sense int

const (
	LessEq Sense = iota
	Equal
	GreaterEq
)

// Term is one coefficient of a constraint row.
type Term struct {
	Var  int
	Coef float64
}

// Constraint is Σ terms (sense) RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Problem is: minimize Σ cost·x subject to the constraints and bounds.
type Problem struct {
	cost        []float64
	lower       []float64
	upper       []float64
	integer     []bool
	names       []string
	constraints []Constraint
}

func NewProblem() *Problem {
	return &Problem{}
}

// AddVar adds a variable and returns its index. Use math.Inf(1) for no upper bound.
func (p *Problem) AddVar(name string, cost, lower, upper float64, integer bool) int {
	p.cost = append(p.cost, cost)
	p.lower = append(p.lower, lower)
	p.upper = append(p.upper, upper)
	p.integer = append(p.integer, integer)
	p.names = append(p.names, name)
	return len(p.cost) - 1
}

// AddBinary adds a 0/1 variable.
func (p *Problem) AddBinary(name string, cost float64) int {
	return p.AddVar(name, cost, 0, 1, true)
}

// AddConstraint appends a row. Terms on the same variable are summed.
func (p *Problem) AddConstraint(name string, terms []Term, sense Sense, rhs float64) {
	p.constraints = append(p.constraints, Constraint{Name: name, Terms: terms, Sense: sense, RHS: rhs})
}

// NumVars returns the number of variables.
func (p *Problem) NumVars() int { return len(p.cost) }

// NumConstraints returns the number of rows.
func (p *Problem) NumConstraints() int { return len(p.constraints) }

// VarName returns the name given to a variable.
func (p *Problem) VarName(j int) string { return p.names[j] }

// Objective evaluates the objective at x.
func (p *Problem) Objective(x []float64) float64 {
	var total float64
	for j, c := range p.cost {
		total += c * x[j]
	}
	return total
}

// Feasible reports whether x satisfies every bound, row and integrality
// requirement within tol.
func (p *Problem) Feasible(x []float64, tol float64) bool {
	if len(x) != len(p.cost) {
		return false
	}
	for j := range x {
		if x[j] < p.lower[j]-tol || x[j] > p.upper[j]+tol {
			return false
		}
		if p.integer[j] && math.Abs(x[j]-math.Round(x[j])) > tol {
			return false
		}
	}
	for _, c := range p.constraints {
		var lhs float64
		for _, t := range c.Terms {
			lhs += t.Coef * x[t.Var]
		}
		switch c.Sense {
		case LessEq:
			if lhs > c.RHS+tol {
				return false
			}
		case GreaterEq:
			if lhs < c.RHS-tol {
				return false
			}
		case Equal:
			if math.Abs(lhs-c.RHS) > tol {
				return false
			}
		}
	}
	return true
}
