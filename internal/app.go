// Package internal provides the App struct that wires the vexobs
// components together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/vexhq/vexobs/internal/bridge"
	"github.com/vexhq/vexobs/internal/cli"
	"github.com/vexhq/vexobs/internal/config"
	"github.com/vexhq/vexobs/internal/estimate"
	"github.com/vexhq/vexobs/internal/health"
	"github.com/vexhq/vexobs/internal/report"
	"github.com/vexhq/vexobs/internal/store"
)

// App holds all service dependencies for vexobs.
type App struct {
	LogsRoot string

	// Configuration
	ConfigMgr config.Manager
	Config    *config.Config

	// Log stores
	TokenLog *store.TokenStore
	TraceLog *store.TraceStore
	ErrorLog *store.ErrorStore

	// Derived services
	Reporter   *bridge.Reporter
	HealthEval *health.Evaluator
	ReportGen  *report.Generator
	Estimator  estimate.Estimator
}

// NewApp creates and wires all vexobs components. root is the directory
// under which the logs, reports, and archive trees live (typically
// ~/.vexobs or VEXOBS_HOME).
func NewApp(root string) (*App, error) {
	app := &App{LogsRoot: root}

	// --- Configuration ---
	app.ConfigMgr = config.NewManager(root)
	cfg, err := app.ConfigMgr.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	app.Config = cfg

	// Diagnostic logging is vexobs's own plumbing, never the data plane.
	if level, err := logrus.ParseLevel(cfg.DiagLevel); err == nil {
		logrus.SetLevel(level)
	}
	logrus.SetOutput(os.Stderr)

	// --- Log stores ---
	app.TokenLog = store.NewTokenStore(root, cfg.Pricing)
	app.TraceLog = store.NewTraceStore(root)
	app.ErrorLog = store.NewErrorStore(root)

	// --- Derived services ---
	app.Reporter = bridge.NewReporter(app.ErrorLog)
	app.HealthEval = health.NewEvaluator(app.ErrorLog, app.TokenLog)
	app.ReportGen = report.NewGenerator(root, app.TokenLog, app.TraceLog, app.ErrorLog, cfg.SlowThresholdMS)
	app.Estimator = estimate.New()

	// --- Wire CLI package-level variables ---
	cli.LogsRoot = root
	cli.ConfigMgr = app.ConfigMgr
	cli.TokenLog = app.TokenLog
	cli.TraceLog = app.TraceLog
	cli.ErrorLog = app.ErrorLog
	cli.Reporter = app.Reporter
	cli.HealthEval = app.HealthEval
	cli.ReportGen = app.ReportGen
	cli.Estimator = app.Estimator

	return app, nil
}

// ResolveLogsRoot determines where vexobs keeps its data. VEXOBS_HOME
// wins when set; otherwise ~/.vexobs.
func ResolveLogsRoot() string {
	if home := os.Getenv("VEXOBS_HOME"); home != "" {
		return home
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vexobs"
	}
	return filepath.Join(home, ".vexobs")
}
