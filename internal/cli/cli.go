// Package cli implements the lotcut command line: solve, group, compare,
// serve, runs and health.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/piwi3910/lotcut/internal/audit"
	"github.com/piwi3910/lotcut/internal/engine"
	"github.com/piwi3910/lotcut/internal/export"
	"github.com/piwi3910/lotcut/internal/importer"
	"github.com/piwi3910/lotcut/internal/logging"
	"github.com/piwi3910/lotcut/internal/model"
	"github.com/piwi3910/lotcut/internal/project"
	"github.com/piwi3910/lotcut/internal/server"
	"github.com/piwi3910/lotcut/internal/tolerance"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitError    = 1
	ExitUsage    = 2
	ExitShortage = 3 // solved, but some colors were not fully planned
)

// Env is the process environment a command runs in.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer
	Lookup func(string) (string, bool) // usually os.LookupEnv
}

// OSEnv returns the real process environment.
func OSEnv() Env {
	return Env{Stdout: os.Stdout, Stderr: os.Stderr, Lookup: os.LookupEnv}
}

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, args []string, env Env) int
}

func commands() []command {
	return []command{
		{"solve", "plan cutting for a job file or order/roll files", runSolve},
		{"group", "group fabric rolls into tolerance lots", runGroup},
		{"compare", "run several strategies on the same job", runCompare},
		{"serve", "start the HTTP optimize service", runServe},
		{"runs", "list recent runs from the audit store", runRuns},
		{"health", "check a running service", runHealth},
	}
}

// Run dispatches args[0] to a subcommand and returns the exit code.
func Run(ctx context.Context, args []string, env Env) int {
	if env.Lookup == nil {
		env.Lookup = func(string) (string, bool) { return "", false }
	}
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(env.Stderr)
		if len(args) == 0 {
			return ExitUsage
		}
		return ExitOK
	}
	for _, c := range commands() {
		if c.name == args[0] {
			return c.run(ctx, args[1:], env)
		}
	}
	fmt.Fprintf(env.Stderr, "unknown command %q\n\n", args[0])
	printUsage(env.Stderr)
	return ExitUsage
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: lotcut <command> [flags]")
	fmt.Fprintln(w)
	for _, c := range commands() {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.usage)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'lotcut <command> -h' for the flags of a command.")
}

// ─── Shared inputs ─────────────────────────────────────────

// common holds the flags shared by every command that loads config.
type common struct {
	configPath string
	logLevel   string
	logFormat  string
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", project.DefaultConfigPath(), "config file")
	fs.StringVar(&c.logLevel, "log-level", "", "log level (overrides config)")
	fs.StringVar(&c.logFormat, "log-format", "", "log format json|console (overrides config)")
}

// load reads the config file, applies LOTCUT_* overrides and then flags,
// and builds the logger. The logger writes to stderr.
func (c *common) load(env Env) (model.AppConfig, *zap.Logger, error) {
	cfg, err := project.LoadAppConfig(c.configPath)
	if err != nil {
		return cfg, nil, fmt.Errorf("failed to load config: %w", err)
	}
	problems := project.ApplyEnv(&cfg, env.Lookup)
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if c.logFormat != "" {
		cfg.LogFormat = c.logFormat
	}

	lc := logging.DefaultConfig()
	lc.Level = cfg.LogLevel
	lc.Format = cfg.LogFormat
	lc.OutputPath = "stderr"
	logger, err := logging.NewLogger(lc)
	if err != nil {
		return cfg, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	for _, p := range problems {
		logger.Warn("ignoring environment override", zap.String("problem", p))
	}
	return cfg, logger, nil
}

// jobInput selects where the job comes from.
type jobInput struct {
	jobPath       string
	ordersPath    string
	rollsPath     string
	customer      string
	customersPath string
	strategy      string
	inflation     float64
	average       float64
	perSize       string
	seed          int64
}

func (in *jobInput) register(fs *flag.FlagSet) {
	fs.StringVar(&in.jobPath, "job", "", "job file ("+project.JobExt+")")
	fs.StringVar(&in.ordersPath, "orders", "", "orders file (.csv or .xlsx)")
	fs.StringVar(&in.rollsPath, "rolls", "", "fabric rolls file (.csv or .xlsx)")
	fs.StringVar(&in.customer, "customer", "", "customer name or ID whose tolerance bands apply")
	fs.StringVar(&in.customersPath, "customers", project.DefaultCustomersPath(), "customer book file")
	fs.StringVar(&in.strategy, "strategy", "", "greedy|waterfall|genetic|ilp (default from config)")
	fs.Float64Var(&in.inflation, "inflation", -1, "over-production percent (default from config)")
	fs.Float64Var(&in.average, "consumption", 0, "average meters per piece")
	fs.StringVar(&in.perSize, "per-size", "", "per-size consumption, e.g. 32:1.1,34:1.3")
	fs.Int64Var(&in.seed, "seed", 0, "genetic seed, 0 = random")
}

// build assembles the job and the classifier from the flags and config.
func (in *jobInput) build(cfg model.AppConfig, logger *zap.Logger) (model.Job, tolerance.Classifier, error) {
	var job model.Job
	switch {
	case in.jobPath != "":
		j, err := project.LoadJob(in.jobPath)
		if err != nil {
			return job, nil, err
		}
		job = j
	case in.ordersPath != "" && in.rollsPath != "":
		job = model.NewJob()
		cfg.ApplyToSettings(&job.Settings)
		if cfg.DefaultConsumption > 0 {
			job.Consumption.Average = cfg.DefaultConsumption
		}
		job.Name = strings.TrimSuffix(filepath.Base(in.ordersPath), filepath.Ext(in.ordersPath))

		orders := importFile(in.ordersPath, importer.ImportOrdersCSV, importer.ImportOrdersExcel)
		logImport(logger, "orders", in.ordersPath, orders)
		if len(orders.Orders) == 0 {
			return job, nil, fmt.Errorf("%w: no order rows in %s", engine.ErrInvalidInput, in.ordersPath)
		}
		rolls := importFile(in.rollsPath, importer.ImportRollsCSV, importer.ImportRollsExcel)
		logImport(logger, "rolls", in.rollsPath, rolls)
		if len(rolls.Rolls) == 0 {
			return job, nil, fmt.Errorf("%w: no fabric rolls in %s", engine.ErrInvalidInput, in.rollsPath)
		}
		job.Orders = orders.Orders
		job.Rolls = rolls.Rolls
	default:
		return job, nil, errUsage("either -job or both -orders and -rolls are required")
	}

	if in.strategy != "" {
		s, ok := model.ParseStrategy(in.strategy)
		if !ok {
			return job, nil, fmt.Errorf("%w: %q", engine.ErrUnknownStrategy, in.strategy)
		}
		job.Settings.Strategy = s
	}
	if in.inflation >= 0 {
		job.Settings.InflationPct = in.inflation
	}
	if in.seed != 0 {
		job.Settings.Genetic.Seed = in.seed
	}
	if in.average > 0 {
		job.Consumption.Average = in.average
	}
	if in.perSize != "" {
		m, err := parsePerSize(in.perSize)
		if err != nil {
			return job, nil, errUsage(err.Error())
		}
		job.Consumption.Mode = model.ConsumptionPerSize
		job.Consumption.PerSize = m
	}
	if in.customer != "" {
		job.Customer = in.customer
	}

	classify := tolerance.BandClassifier(cfg.DefaultBands)
	if job.Customer != "" {
		book, err := project.LoadCustomers(in.customersPath)
		if err != nil {
			return job, nil, fmt.Errorf("failed to load customers: %w", err)
		}
		c, ok := book.Find(job.Customer)
		switch {
		case ok:
			classify = tolerance.CustomerClassifier(c)
		case in.customer != "":
			return job, nil, fmt.Errorf("%w: unknown customer %q", engine.ErrInvalidInput, job.Customer)
		default:
			logger.Warn("job customer not in customer book, using default bands", zap.String("customer", job.Customer))
		}
	}
	return job, classify, nil
}

func importFile(path string, csv, xlsx func(string) importer.ImportResult) importer.ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return xlsx(path)
	}
	return csv(path)
}

func logImport(logger *zap.Logger, what, path string, r importer.ImportResult) {
	for _, e := range r.Errors {
		logger.Error("import error", zap.String("what", what), zap.String("path", path), zap.String("error", e))
	}
	if len(r.Warnings) > 0 {
		logger.Warn("import warnings", zap.String("what", what), zap.Strings("warnings", r.Warnings), zap.Int("invalid", r.Invalid))
	}
}

// parsePerSize reads "32:1.1,34:1.3".
func parsePerSize(text string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, f := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ' ' || r == ';' }) {
		size, value, ok := strings.Cut(f, ":")
		if !ok {
			return nil, fmt.Errorf("invalid per-size entry %q, expected size:meters", f)
		}
		v, valid := importer.ParseDecimal(value)
		if !valid || v <= 0 {
			return nil, fmt.Errorf("invalid consumption %q for size %s", value, size)
		}
		out[strings.TrimSpace(size)] = v
	}
	return out, nil
}

type usageError string

func (e usageError) Error() string { return string(e) }

func errUsage(msg string) error { return usageError(msg) }

// exitCode maps an error to the process exit code and prints it.
func exitCode(env Env, err error) int {
	fmt.Fprintln(env.Stderr, "error:", err)
	var ue usageError
	if errors.As(err, &ue) {
		return ExitUsage
	}
	return ExitError
}

// openRecorder opens the configured audit sinks. With none configured it
// returns a nil recorder and a no-op close.
func openRecorder(ctx context.Context, cfg model.AppConfig, logger *zap.Logger) (*audit.Recorder, func(), error) {
	sinks, err := audit.OpenSinks(ctx, audit.Config{
		JSONLPath:   cfg.AuditJSONL,
		SQLitePath:  cfg.AuditSQLite,
		PostgresDSN: cfg.AuditPostgres,
	}, logger)
	if err != nil {
		return nil, func() {}, fmt.Errorf("failed to open audit sinks: %w", err)
	}
	if len(sinks) == 0 {
		return nil, func() {}, nil
	}
	rec := audit.NewRecorder(logger, 0, sinks...)
	return rec, func() {
		if err := rec.Close(); err != nil {
			logger.Warn("failed to close audit sinks", zap.Error(err))
		}
	}, nil
}

func engineOptions(logger *zap.Logger, rec *audit.Recorder) []engine.Option {
	opts := []engine.Option{engine.WithLogger(logger)}
	if rec != nil {
		opts = append(opts, engine.WithRecorder(rec))
	}
	return opts
}

// ─── solve ─────────────────────────────────────────────────

func runSolve(ctx context.Context, args []string, env Env) int {
	fs := flag.NewFlagSet("solve", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	var (
		c       common
		in      jobInput
		timeout time.Duration
		outPath string
		saveTo  string
		pdfPath string
		tickets string
		xlsx    string
		dxfPath string
	)
	c.register(fs)
	in.register(fs)
	fs.DurationVar(&timeout, "timeout", 0, "solve deadline, 0 = none")
	fs.StringVar(&outPath, "out", "", "write the result as JSON to this file (- for stdout)")
	fs.StringVar(&saveTo, "save", "", "save the job with its result to this file")
	fs.StringVar(&pdfPath, "pdf", "", "export the PDF plan report")
	fs.StringVar(&tickets, "tickets", "", "export PDF cut tickets with QR codes")
	fs.StringVar(&xlsx, "xlsx", "", "export the Excel workbook")
	fs.StringVar(&dxfPath, "dxf", "", "export DXF marker strips")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	cfg, logger, err := c.load(env)
	if err != nil {
		return exitCode(env, err)
	}
	defer func() { _ = logger.Sync() }()

	job, classify, err := in.build(cfg, logger)
	if err != nil {
		return exitCode(env, err)
	}

	rec, closeRec, err := openRecorder(ctx, cfg, logger)
	if err != nil {
		return exitCode(env, err)
	}
	defer closeRec()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := engine.New(job.Settings, engineOptions(logger, rec)...).Optimize(ctx, job, classify)
	if err != nil {
		return exitCode(env, err)
	}
	job.Result = &result

	if outPath == "-" {
		if err := writeResultJSON(env.Stdout, result); err != nil {
			return exitCode(env, err)
		}
	} else {
		printResult(env.Stdout, result)
		if outPath != "" {
			if err := writeResultFile(outPath, result); err != nil {
				return exitCode(env, err)
			}
		}
	}

	exports := []struct {
		path  string
		write func(string) error
	}{
		{pdfPath, func(p string) error { return export.ExportPDF(p, job, result) }},
		{tickets, func(p string) error { return export.ExportTickets(p, result) }},
		{xlsx, func(p string) error { return export.ExportXLSX(p, job, result) }},
		{dxfPath, func(p string) error { return export.ExportDXF(p, result, job.Consumption) }},
	}
	for _, e := range exports {
		if e.path == "" {
			continue
		}
		if err := e.write(e.path); err != nil {
			return exitCode(env, fmt.Errorf("failed to export %s: %w", e.path, err))
		}
		logger.Info("exported", zap.String("path", e.path))
	}
	if saveTo != "" {
		if err := project.SaveJob(saveTo, job); err != nil {
			return exitCode(env, err)
		}
	}

	if len(result.Unmet) > 0 {
		return ExitShortage
	}
	return ExitOK
}

func writeResultJSON(w io.Writer, result model.OptimizeResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func writeResultFile(path string, result model.OptimizeResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create result file: %w", err)
	}
	if err := writeResultJSON(f, result); err != nil {
		f.Close()
		return fmt.Errorf("failed to write result: %w", err)
	}
	return f.Close()
}

// printResult writes the plans and the T/P/Diff summary as aligned text.
func printResult(w io.Writer, result model.OptimizeResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Run %s (%s, %s)\n\n", result.RunID, result.Strategy, result.Duration.Round(time.Millisecond))
	fmt.Fprintln(tw, "PLAN\tLOT\tCLASS\tMARKER\tLENGTH\tLAYERS\tPIECES\tUSED\tLEFT")
	for _, p := range result.Plans {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.2f\t%d\t%d\t%.2f\t%.2f\n",
			p.ID, p.LotNo, p.ToleranceClass, p.RatioLabel(), p.MarkerLength,
			p.TotalLayers, p.TotalPieces(), p.UsedLength, p.RemainingLength)
	}
	fmt.Fprintln(tw)

	header := append([]string{"COLOR", ""}, result.Sizes...)
	header = append(header, "TOTAL")
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range result.Summary {
		for _, line := range export.SummaryLines(row, result.Sizes) {
			fmt.Fprintln(tw, strings.Join(line, "\t"))
		}
	}
	tw.Flush()

	fmt.Fprintf(w, "\n%d plans, %d pieces, %.2f m fabric\n", len(result.Plans), result.TotalPieces(), result.TotalUsedLength())
	for _, u := range result.Unmet {
		fmt.Fprintf(w, "UNMET %s: %s\n", u.Color, u.Reason)
	}
}

// ─── group ─────────────────────────────────────────────────

func runGroup(ctx context.Context, args []string, env Env) int {
	fs := flag.NewFlagSet("group", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	var (
		c             common
		rollsPath     string
		customer      string
		customersPath string
		asJSON        bool
	)
	c.register(fs)
	fs.StringVar(&rollsPath, "rolls", "", "fabric rolls file (.csv or .xlsx)")
	fs.StringVar(&customer, "customer", "", "customer name or ID whose tolerance bands apply")
	fs.StringVar(&customersPath, "customers", project.DefaultCustomersPath(), "customer book file")
	fs.BoolVar(&asJSON, "json", false, "print the lot groups as JSON")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if rollsPath == "" {
		return exitCode(env, errUsage("-rolls is required"))
	}

	cfg, logger, err := c.load(env)
	if err != nil {
		return exitCode(env, err)
	}
	defer func() { _ = logger.Sync() }()

	rolls := importFile(rollsPath, importer.ImportRollsCSV, importer.ImportRollsExcel)
	logImport(logger, "rolls", rollsPath, rolls)
	if len(rolls.Rolls) == 0 {
		return exitCode(env, fmt.Errorf("%w: no fabric rolls in %s", engine.ErrInvalidInput, rollsPath))
	}

	classify := tolerance.BandClassifier(cfg.DefaultBands)
	if customer != "" {
		book, err := project.LoadCustomers(customersPath)
		if err != nil {
			return exitCode(env, fmt.Errorf("failed to load customers: %w", err))
		}
		cust, ok := book.Find(customer)
		if !ok {
			return exitCode(env, fmt.Errorf("%w: unknown customer %q", engine.ErrInvalidInput, customer))
		}
		classify = tolerance.CustomerClassifier(cust)
	}

	groups := tolerance.GroupRolls(rolls.Rolls, classify)
	if asJSON {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(groups); err != nil {
			return exitCode(env, err)
		}
		return ExitOK
	}

	totals := tolerance.ClassTotals(groups)
	tw := tabwriter.NewWriter(env.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CLASS\tLOT\tLENGTH\tROLLS")
	for _, class := range groups.SortedClasses() {
		for _, lot := range groups[class] {
			fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n", class, lot.LotNo, lot.TotalLength, strings.Join(lot.RollNumbers(), ","))
		}
		fmt.Fprintf(tw, "%s\ttotal\t%.2f\t\n", class, totals[class])
	}
	tw.Flush()
	return ExitOK
}

// ─── compare ───────────────────────────────────────────────

func runCompare(ctx context.Context, args []string, env Env) int {
	fs := flag.NewFlagSet("compare", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	var (
		c          common
		in         jobInput
		strategies string
	)
	c.register(fs)
	in.register(fs)
	fs.StringVar(&strategies, "strategies", "", "comma separated strategies (default all)")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	cfg, logger, err := c.load(env)
	if err != nil {
		return exitCode(env, err)
	}
	defer func() { _ = logger.Sync() }()

	var list []model.Strategy
	for _, name := range strings.Split(strategies, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		s, ok := model.ParseStrategy(name)
		if !ok {
			return exitCode(env, fmt.Errorf("%w: %q", engine.ErrUnknownStrategy, name))
		}
		list = append(list, s)
	}

	job, classify, err := in.build(cfg, logger)
	if err != nil {
		return exitCode(env, err)
	}
	req := engine.Request{
		JobName:     job.Name,
		Customer:    job.Customer,
		Orders:      job.Orders,
		Lots:        tolerance.GroupRolls(job.Rolls, classify),
		Consumption: job.Consumption,
	}
	results := engine.CompareStrategies(ctx, job.Settings, list, req, engine.WithLogger(logger))
	printComparison(env.Stdout, results)
	return ExitOK
}

func printComparison(w io.Writer, results []engine.ComparisonResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STRATEGY\tPLANS\tPIECES\tFABRIC\tSHORTFALL\tSPLIT LINES\tTIME")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\terror: %v\t\t\t\t\t\n", r.Scenario.Name, r.Err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\t%d\t%d\t%s\n",
			r.Scenario.Name, r.PlansCount, r.TotalPieces, r.UsedLength,
			r.Shortfall, r.SplitLines, r.Result.Duration.Round(time.Millisecond))
	}
	tw.Flush()
}

// ─── serve ─────────────────────────────────────────────────

func runServe(ctx context.Context, args []string, env Env) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	var (
		c       common
		addr    string
		timeout time.Duration
	)
	c.register(fs)
	fs.StringVar(&addr, "addr", "", "listen address (overrides config)")
	fs.DurationVar(&timeout, "solve-timeout", 60*time.Second, "per-request solve deadline")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	cfg, logger, err := c.load(env)
	if err != nil {
		return exitCode(env, err)
	}
	defer func() { _ = logger.Sync() }()
	if addr != "" {
		cfg.ServerAddr = addr
	}

	rec, closeRec, err := openRecorder(ctx, cfg, logger)
	if err != nil {
		return exitCode(env, err)
	}
	defer closeRec()

	settings := model.DefaultSettings()
	cfg.ApplyToSettings(&settings)

	var recorder engine.RunRecorder
	if rec != nil {
		recorder = rec
	}
	srv := server.New(server.Config{
		Addr:         cfg.ServerAddr,
		Settings:     settings,
		Bands:        cfg.DefaultBands,
		SolveTimeout: timeout,
	}, logger, recorder)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return ExitError
	}
	return ExitOK
}

// ─── runs ──────────────────────────────────────────────────

func runRuns(ctx context.Context, args []string, env Env) int {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	var (
		c     common
		limit int
	)
	c.register(fs)
	fs.IntVar(&limit, "limit", 20, "number of runs to list")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	cfg, logger, err := c.load(env)
	if err != nil {
		return exitCode(env, err)
	}
	defer func() { _ = logger.Sync() }()

	sinks, err := audit.OpenSinks(ctx, audit.Config{
		JSONLPath:   cfg.AuditJSONL,
		SQLitePath:  cfg.AuditSQLite,
		PostgresDSN: cfg.AuditPostgres,
	}, logger)
	if err != nil {
		return exitCode(env, err)
	}
	defer func() {
		for _, s := range sinks {
			_ = s.Close()
		}
	}()

	var reader audit.Reader
	for _, s := range sinks {
		if r, ok := s.(audit.Reader); ok {
			reader = r
			break
		}
	}
	if reader == nil {
		return exitCode(env, errUsage("no audit store configured (set audit_sqlite, audit_postgres or audit_jsonl)"))
	}

	recs, err := reader.Recent(ctx, limit)
	if err != nil {
		return exitCode(env, fmt.Errorf("failed to read runs: %w", err))
	}
	printRuns(env.Stdout, recs)
	return ExitOK
}

func printRuns(w io.Writer, recs []model.RunRecord) {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].CreatedAt.After(recs[j].CreatedAt) })
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tRUN\tSTRATEGY\tJOB\tCUSTOMER\tPLANS\tPIECES\tFABRIC\tUNMET")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%.2f\t%d\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"), r.RunID, r.Strategy, r.JobName, r.Customer,
			r.Plans, r.TotalPieces, r.UsedLength, r.Unmet)
	}
	tw.Flush()
}

// ─── health ────────────────────────────────────────────────

func runHealth(ctx context.Context, args []string, env Env) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	var (
		url     string
		timeout time.Duration
	)
	fs.StringVar(&url, "url", "http://localhost:8080/healthz", "health endpoint")
	fs.DurationVar(&timeout, "timeout", 5*time.Second, "request timeout")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return exitCode(env, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return exitCode(env, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return exitCode(env, fmt.Errorf("unhealthy: %s %s", resp.Status, strings.TrimSpace(string(body))))
	}
	fmt.Fprintln(env.Stdout, strings.TrimSpace(string(body)))
	return ExitOK
}
