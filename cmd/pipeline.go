package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/triplecrown/internal/adapters/http/api"
	"github.com/okian/triplecrown/internal/adapters/http/swagger"
	"github.com/okian/triplecrown/internal/adapters/output"
	"github.com/okian/triplecrown/internal/adapters/source"
	app "github.com/okian/triplecrown/internal/app"
	"github.com/okian/triplecrown/internal/config"
	"github.com/okian/triplecrown/internal/domain/aggregate"
	"github.com/okian/triplecrown/internal/domain/blocking"
	"github.com/okian/triplecrown/internal/domain/normalize"
	"github.com/okian/triplecrown/pkg/logger"
	"github.com/okian/triplecrown/pkg/metrics"
)

// newService builds the pipeline service from configuration.
func newService(cfg *config.Config, log logger.Logger) (*app.Service, error) {
	policy, err := normalize.ParsePolicy(cfg.Run.RowPolicy)
	if err != nil {
		return nil, err
	}
	tie, err := aggregate.ParseTieMode(cfg.Run.TieMode)
	if err != nil {
		return nil, err
	}
	return app.New(
		app.WithLogger(log),
		app.WithRowPolicy(policy),
		app.WithTieMode(tie),
		app.WithPreferredSource(cfg.Run.PreferredSource),
		app.WithBlockingParams(blocking.Params{
			FirstWidth:       cfg.Blocking.FirstWidth,
			LastWidth:        cfg.Blocking.LastWidth,
			FoldAccents:      cfg.Blocking.FoldAccents,
			ValidateDivision: cfg.Blocking.ValidateDivision,
		}),
	), nil
}

// runPipeline loads every configured source and runs svc over them.
func runPipeline(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) (*app.Report, error) {
	fetcher := source.NewFetcher(
		source.WithLogger(log),
		source.WithTimeout(cfg.HTTP.Timeout),
		source.WithRetryMax(cfg.HTTP.RetryMax),
	)
	tables, err := source.NewLoader(fetcher, log).LoadAll(ctx, cfg.Sources)
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}

	inputs := make([]app.Input, len(cfg.Sources))
	for i, sc := range cfg.Sources {
		inputs[i] = app.Input{Tag: sc.Tag, Kind: sc.Kind, Columns: sc.Columns, Table: tables[i]}
	}
	return svc.Run(ctx, inputs)
}

// writeOutputs writes the superset and ranked tables, and the optional
// SQLite export.
func writeOutputs(ctx context.Context, oc config.OutputConfig, rep *app.Report) error {
	if err := output.Write(oc.SupersetPath, rep.Superset, oc.SupersetIndex); err != nil {
		return fmt.Errorf("superset: %w", err)
	}
	if err := output.Write(oc.RankedPath, rep.Ranked, oc.RankedIndex); err != nil {
		return fmt.Errorf("ranked: %w", err)
	}
	if oc.SQLitePath != "" {
		if err := output.ExportSQLite(ctx, oc.SQLitePath, rep.Superset, rep.Ranked); err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
	}
	return nil
}

func printLeaderboard(w io.Writer, rep *app.Report, top int) {
	output.RenderLeaderboard(w, rep.Entries, top)
}

// pushMetrics sends the run's metrics to a Pushgateway when configured.
// Failures are logged; the run itself already succeeded.
func pushMetrics(ctx context.Context, mc config.MetricsConfig, log logger.Logger) {
	if mc.PushgatewayURL == "" {
		return
	}
	if err := metrics.Push(ctx, mc.PushgatewayURL, mc.Job); err != nil {
		log.Warn(ctx, "metrics push failed", logger.Error(err))
		return
	}
	log.Debug(ctx, "metrics pushed", logger.String("job", mc.Job))
}

// newMux registers the leaderboard API and its OpenAPI document.
func newMux(svc *app.Service, maxLimit int) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(mux)
	api.NewServer(svc, svc, maxLimit).Register(mux)
	return mux
}
