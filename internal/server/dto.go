package server

import (
	"github.com/piwi3910/lotcut/internal/engine"
	"github.com/piwi3910/lotcut/internal/model"
)

// OptimizeRequest is the body of POST /optimize.
type OptimizeRequest struct {
	JobName      string            `json:"jobName"`
	Customer     string            `json:"customer"`
	Strategy     string            `json:"strategy"`
	InflationPct *float64          `json:"inflationPct" validate:"omitempty,gte=0,lte=100"`
	Seed         int64             `json:"seed"`
	Orders       []model.OrderRow  `json:"orderLines" validate:"required,min=1,dive"`
	LotGroups    model.LotGroups   `json:"lotGroups" validate:"required,min=1"`
	Consumption  model.Consumption `json:"consumption"`
}

func (r OptimizeRequest) engineRequest() engine.Request {
	return engine.Request{
		JobName:     r.JobName,
		Customer:    r.Customer,
		Orders:      r.Orders,
		Lots:        r.LotGroups,
		Consumption: r.Consumption,
	}
}

// CompareRequest is the body of POST /compare. An empty strategy list runs all.
type CompareRequest struct {
	OptimizeRequest
	Strategies []string `json:"strategies"`
}

// GroupRequest is the body of POST /group.
type GroupRequest struct {
	Rolls []model.Roll          `json:"rolls" validate:"required,min=1,dive"`
	Bands *model.ToleranceBands `json:"bands"`
}

// GroupResponse lists the lots per tolerance class.
type GroupResponse struct {
	LotGroups model.LotGroups    `json:"lotGroups"`
	Totals    map[string]float64 `json:"totals"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ComparisonEntry is one strategy's outcome in POST /compare.
type ComparisonEntry struct {
	Scenario    string  `json:"scenario"`
	Error       string  `json:"error,omitempty"`
	Plans       int     `json:"plans"`
	TotalPieces int     `json:"totalPieces"`
	UsedLength  float64 `json:"usedLength"`
	Shortfall   int     `json:"shortfall"`
	SplitLines  int     `json:"splitLines"`
}

func newComparisonEntry(r engine.ComparisonResult) ComparisonEntry {
	e := ComparisonEntry{
		Scenario:    r.Scenario.Name,
		Plans:       r.PlansCount,
		TotalPieces: r.TotalPieces,
		UsedLength:  r.UsedLength,
		Shortfall:   r.Shortfall,
		SplitLines:  r.SplitLines,
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	}
	return e
}
