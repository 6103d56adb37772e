// LotCut desktop: plan garment cutting across fabric lots of matching
// shrinkage.
//
// Build:
//
//	go build -o lotcut-desktop ./cmd/lotcut-desktop
//
// Using fyne-cross (recommended for proper packaging):
//
//	go install github.com/fyne-io/fyne-cross@latest
//	fyne-cross windows -arch=amd64
//	fyne-cross darwin  -arch=amd64,arm64
package main

import (
	"context"
	"fmt"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"go.uber.org/zap"

	"github.com/piwi3910/lotcut/internal/audit"
	"github.com/piwi3910/lotcut/internal/engine"
	"github.com/piwi3910/lotcut/internal/logging"
	"github.com/piwi3910/lotcut/internal/model"
	"github.com/piwi3910/lotcut/internal/project"
	"github.com/piwi3910/lotcut/internal/ui"
)

func main() {
	configPath := project.DefaultConfigPath()
	cfg, err := project.LoadAppConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config, using defaults: %v\n", err)
		cfg = model.DefaultAppConfig()
	}
	problems := project.ApplyEnv(&cfg, os.LookupEnv)

	lc := logging.DefaultConfig()
	lc.Level = cfg.LogLevel
	lc.Format = cfg.LogFormat
	logger := logging.MustNewLogger(lc)
	defer func() { _ = logger.Sync() }()
	for _, p := range problems {
		logger.Warn("ignoring environment override", zap.String("problem", p))
	}

	var recorder engine.RunRecorder
	sinks, err := audit.OpenSinks(context.Background(), audit.Config{
		JSONLPath:   cfg.AuditJSONL,
		SQLitePath:  cfg.AuditSQLite,
		PostgresDSN: cfg.AuditPostgres,
	}, logger)
	if err != nil {
		logger.Error("audit disabled", zap.Error(err))
	} else if len(sinks) > 0 {
		rec := audit.NewRecorder(logger, 0, sinks...)
		defer func() {
			if err := rec.Close(); err != nil {
				logger.Warn("failed to close audit sinks", zap.Error(err))
			}
		}()
		recorder = rec
	}

	application := app.NewWithID("com.piwi3910.lotcut")
	application.Settings().SetTheme(ui.ThemeFor(cfg.Theme, application.Settings().ThemeVariant()))

	window := application.NewWindow("LotCut - Fabric Lot Cutting Planner")
	appUI := ui.NewApp(window, cfg, configPath, logger, recorder)
	appUI.SetupMenus()
	window.SetContent(appUI.Build())
	window.Resize(fyne.NewSize(1280, 800))
	window.CenterOnScreen()

	logger.Info("desktop started", zap.String("config", configPath))
	window.ShowAndRun()
}
