package cli

import (
	"github.com/vexhq/vexobs/internal/bridge"
	"github.com/vexhq/vexobs/internal/config"
	"github.com/vexhq/vexobs/internal/estimate"
	"github.com/vexhq/vexobs/internal/health"
	"github.com/vexhq/vexobs/internal/report"
	"github.com/vexhq/vexobs/internal/store"
)

// Service instances, set during app initialization in app.go.
var (
	LogsRoot string

	ConfigMgr config.Manager

	TokenLog *store.TokenStore
	TraceLog *store.TraceStore
	ErrorLog *store.ErrorStore

	Reporter   *bridge.Reporter
	HealthEval *health.Evaluator
	ReportGen  *report.Generator
	Estimator  estimate.Estimator
)
