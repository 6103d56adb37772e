package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/piwi3910/lotcut/internal/metrics"
	"github.com/piwi3910/lotcut/internal/model"
	"github.com/piwi3910/lotcut/internal/tolerance"
	"go.uber.org/zap"
)

// RunRecorder receives a summary of every completed run. Record must not block.
type RunRecorder interface {
	Record(rec model.RunRecord)
}

// Optimizer runs the configured strategy and turns its output into a report.
type Optimizer struct {
	Settings model.SolveSettings
	logger   *zap.Logger
	recorder RunRecorder
}

// Option configures an Optimizer.
type Option func(*Optimizer)

func WithLogger(logger *zap.Logger) Option {
	return func(o *Optimizer) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRecorder sends a RunRecord to r after every successful run.
func WithRecorder(r RunRecorder) Option {
	return func(o *Optimizer) { o.recorder = r }
}

func New(settings model.SolveSettings, opts ...Option) *Optimizer {
	o := &Optimizer{Settings: settings, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Request is one solve over already grouped lots.
type Request struct {
	JobName     string
	Customer    string
	Orders      []model.OrderRow
	Lots        model.LotGroups
	Consumption model.Consumption
}

// Optimize groups the job's rolls with classify and solves it.
func (o *Optimizer) Optimize(ctx context.Context, job model.Job, classify tolerance.Classifier) (model.OptimizeResult, error) {
	if classify == nil {
		classify = tolerance.BandClassifier(model.DefaultToleranceBands())
	}
	return o.Run(ctx, Request{
		JobName:     job.Name,
		Customer:    job.Customer,
		Orders:      job.Orders,
		Lots:        tolerance.GroupRolls(job.Rolls, classify),
		Consumption: job.Consumption,
	})
}

// Run solves a request. Per-color shortfalls are reported in the result;
// only invalid input, ILP infeasibility, timeouts and cancellation are errors.
func (o *Optimizer) Run(ctx context.Context, req Request) (model.OptimizeResult, error) {
	timer := metrics.NewTimer()
	strategy := o.Settings.Strategy
	if strategy == "" {
		strategy = model.StrategyGreedy
	}
	settings := o.Settings
	settings.Strategy = strategy

	demand := model.BuildDemand(req.Orders, settings.InflationPct)
	if demand.IsEmpty() {
		err := fmt.Errorf("%w: no positive demand", ErrInvalidInput)
		metrics.RecordSolve(string(strategy), timer.Stop(), err)
		return model.OptimizeResult{}, err
	}

	solver, err := NewSolver(settings, o.logger)
	if err != nil {
		metrics.RecordSolve(string(strategy), timer.Stop(), err)
		return model.OptimizeResult{}, err
	}

	log := o.logger.With(zap.String("strategy", string(strategy)))
	log.Info("solve started",
		zap.Int("colors", len(demand.Colors())),
		zap.Int("pieces", demand.Total()),
		zap.Int("lots", len(req.Lots.Flatten())),
		zap.Float64("fabric", req.Lots.TotalLength()))

	res, err := solver.Solve(ctx, demand, req.Lots, req.Consumption)
	elapsed := timer.Stop()
	metrics.RecordSolve(string(strategy), elapsed, err)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", ErrSolverTimeout, err)
		}
		log.Error("solve failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		return model.OptimizeResult{}, err
	}

	result := model.OptimizeResult{
		RunID:     uuid.NewString(),
		Strategy:  strategy,
		Plans:     res.Plans,
		Integrity: res.Integrity,
		Summary:   BuildSummary(demand, res.Plans, res.Integrity),
		Sizes:     demand.AllSizes(),
		Duration:  elapsed,
	}
	for _, ce := range res.Unmet {
		result.Unmet = append(result.Unmet, model.Unmet{Color: ce.Color, Reason: ce.Err.Error()})
	}

	metrics.RecordPlans(string(strategy), len(result.Plans), result.TotalPieces(), len(result.Unmet), result.TotalUsedLength())
	log.Info("solve finished",
		zap.String("run_id", result.RunID),
		zap.Int("plans", len(result.Plans)),
		zap.Int("pieces", result.TotalPieces()),
		zap.Float64("used", result.TotalUsedLength()),
		zap.Int("unmet", len(result.Unmet)),
		zap.Duration("elapsed", elapsed))

	if o.recorder != nil {
		o.recorder.Record(model.NewRunRecord(result, req.JobName, req.Customer))
	}
	return result, nil
}
