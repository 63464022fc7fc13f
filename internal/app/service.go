// Package service runs the linkage pipeline and serves its last result.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	repository "github.com/okian/triplecrown/internal/adapters/repository"
	"github.com/okian/triplecrown/internal/domain/aggregate"
	"github.com/okian/triplecrown/internal/domain/blocking"
	"github.com/okian/triplecrown/internal/domain/collision"
	"github.com/okian/triplecrown/internal/domain/linkage"
	"github.com/okian/triplecrown/internal/domain/model"
	"github.com/okian/triplecrown/internal/domain/normalize"
	"github.com/okian/triplecrown/internal/domain/schema"
	"github.com/okian/triplecrown/internal/domain/types"
	"github.com/okian/triplecrown/pkg/logger"
	"github.com/okian/triplecrown/pkg/metrics"
)

// Pipeline stage names, used for logs and metrics.
const (
	StageNormalize = "normalize"
	StageBlock     = "block"
	StageCollide   = "collisions"
	StageLink      = "link"
	StageAggregate = "aggregate"
)

// Output table names.
const (
	TableSuperset = "superset"
	TableRanked   = "ranked"
)

// Input is one materialized source handed to the pipeline.
type Input struct {
	Tag     string
	Kind    string
	Columns map[string]string // canonical field -> raw header override
	Table   model.RawTable
}

// Report is everything one run produced.
type Report struct {
	RunID      string
	StartedAt  time.Time
	Datasets   []model.KeyedDataset
	Rejected   []*model.RowError
	Collisions []collision.Collision
	Fanouts    []collision.Fanout
	Linkage    linkage.Result
	Standings  []aggregate.Standing
	Entries    []types.Entry
	Superset   model.Table
	Ranked     model.Table
}

// Service runs the pipeline and keeps the last leaderboard.
type Service struct {
	mu sync.RWMutex

	params    blocking.Params
	policy    normalize.Policy
	tieMode   aggregate.TieMode
	preferred string

	leaderboard repository.Store
	logger      logger.Logger

	runs int
	last *Report
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		params:  blocking.DefaultParams(),
		policy:  normalize.PolicyAbort,
		tieMode: aggregate.TieAverage,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.leaderboard == nil {
		s.leaderboard = repository.NewSnapshotStore()
	}
	return s
}

func (s *Service) log() logger.Logger {
	if s.logger == nil {
		return logger.Get()
	}
	return s.logger
}

// Run executes Normalize, Block, DetectCollisions, Link and Aggregate in
// order and publishes the leaderboard. Any stage error fails the run.
func (s *Service) Run(ctx context.Context, inputs []Input) (*Report, error) {
	rep := &Report{RunID: uuid.NewString(), StartedAt: time.Now()}
	log := s.log().Named("pipeline").With(logger.String("run_id", rep.RunID))
	log.Info(ctx, "run started", logger.Int("sources", len(inputs)))

	err := s.run(ctx, log, inputs, rep)
	if err != nil {
		metrics.RecordRun(metrics.StatusFailed, time.Now().Unix())
		log.Error(ctx, "run failed", logger.Error(err))
		return nil, err
	}

	s.leaderboard.Publish(ctx, rep.Entries)
	s.mu.Lock()
	s.runs++
	s.last = rep
	s.mu.Unlock()

	metrics.RecordRun(metrics.StatusOK, time.Now().Unix())
	log.Info(ctx, "run finished",
		logger.Int("matched", len(rep.Linkage.Matched)),
		logger.Int("superset", len(rep.Linkage.Superset)),
		logger.Int("rejected", len(rep.Rejected)),
		logger.Duration("took", time.Since(rep.StartedAt)),
	)
	return rep, nil
}

func (s *Service) run(ctx context.Context, log logger.Logger, inputs []Input, rep *Report) error {
	var datasets []model.Dataset
	if err := stage(ctx, log, StageNormalize, func() (err error) {
		datasets, rep.Rejected, err = s.Normalize(ctx, inputs)
		return err
	}); err != nil {
		return err
	}
	if err := stage(ctx, log, StageBlock, func() (err error) {
		rep.Datasets, err = s.Block(ctx, datasets)
		return err
	}); err != nil {
		return err
	}
	if err := stage(ctx, log, StageCollide, func() error {
		rep.Collisions = s.DetectCollisions(ctx, rep.Datasets)
		return ctx.Err()
	}); err != nil {
		return err
	}
	if err := stage(ctx, log, StageLink, func() (err error) {
		rep.Linkage, rep.Fanouts, err = s.Link(ctx, rep.Datasets)
		return err
	}); err != nil {
		return err
	}
	return stage(ctx, log, StageAggregate, func() error {
		return s.Aggregate(ctx, rep)
	})
}

// stage runs fn, logging and observing its duration.
func stage(ctx context.Context, log logger.Logger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	took := time.Since(start)
	metrics.ObserveStage(name, took.Seconds())
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	log.Debug(ctx, "stage done", logger.String("stage", name), logger.Duration("took", took))
	return nil
}

// Normalize converts every input into a dataset. Under the skip policy
// malformed rows are logged and returned; under abort the first one fails.
func (s *Service) Normalize(ctx context.Context, inputs []Input) ([]model.Dataset, []*model.RowError, error) {
	n := normalize.New(normalize.WithPolicy(s.policy))
	out := make([]model.Dataset, 0, len(inputs))
	var rejected []*model.RowError
	for _, in := range inputs {
		sc, err := schema.ForKind(in.Kind)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", in.Tag, err)
		}
		if len(in.Columns) > 0 {
			if sc, err = sc.WithOverrides(in.Columns); err != nil {
				return nil, nil, fmt.Errorf("%s: %w", in.Tag, err)
			}
		}
		metrics.RecordRowsRead(in.Tag, len(in.Table.Rows))

		res, err := n.Normalize(in.Tag, sc, in.Table)
		if err != nil {
			return nil, nil, err
		}
		for _, r := range res.Rejected {
			metrics.RecordRowRejected(in.Tag, "malformed_row")
			s.log().Warn(ctx, "row skipped",
				logger.String("source", r.Source),
				logger.Int("line", r.Line),
				logger.String("field", r.Field),
				logger.Error(r.Err),
			)
		}
		metrics.RecordRowsNormalized(in.Tag, len(res.Dataset.Rows))
		rejected = append(rejected, res.Rejected...)
		out = append(out, res.Dataset)
	}
	return out, rejected, nil
}

// Block computes the blocking key of every row. Unblockable rows are
// always fatal.
func (s *Service) Block(_ context.Context, datasets []model.Dataset) ([]model.KeyedDataset, error) {
	out := make([]model.KeyedDataset, 0, len(datasets))
	for _, ds := range datasets {
		kd, err := blocking.Block(ds, s.params)
		if err != nil {
			return nil, err
		}
		out = append(out, kd)
	}
	return out, nil
}

// DetectCollisions reports keys shared within a source. They are logged as
// a data-quality signal and never fail the run.
func (s *Service) DetectCollisions(ctx context.Context, keyed []model.KeyedDataset) []collision.Collision {
	var all []collision.Collision
	for _, kd := range keyed {
		found := collision.Within(kd)
		metrics.SetKeyCollisions(kd.Tag, len(found))
		for _, c := range found {
			s.log().Warn(ctx, "blocking key collision",
				logger.String("source", c.Source),
				logger.String("key", c.Key.String()),
				logger.Any("lines", c.Lines),
			)
		}
		all = append(all, found...)
	}
	return all
}

// Link joins the keyed datasets and reports inner-join fan-out.
func (s *Service) Link(ctx context.Context, keyed []model.KeyedDataset) (linkage.Result, []collision.Fanout, error) {
	res, err := linkage.Link(keyed)
	if err != nil {
		return linkage.Result{}, nil, err
	}
	fan := collision.Fanouts(res.Matched)
	for _, f := range fan {
		s.log().Warn(ctx, "key matched more than once",
			logger.String("key", f.Key.String()),
			logger.Int("records", f.Records),
		)
	}
	metrics.SetLinkage(len(res.Matched), len(res.Superset), len(fan))
	return res, fan, nil
}

// Aggregate ranks the inner join and renders both output tables into rep.
func (s *Service) Aggregate(_ context.Context, rep *Report) error {
	sources := make([]aggregate.Source, len(rep.Datasets))
	for i, kd := range rep.Datasets {
		sources[i] = aggregate.Source{Tag: kd.Tag, Kind: kd.Kind}
	}
	agg, err := aggregate.New(sources,
		aggregate.WithTieMode(s.tieMode),
		aggregate.WithPreferredSource(s.preferred),
	)
	if err != nil {
		return err
	}
	rep.Standings = agg.Rank(rep.Linkage.Matched)
	rep.Entries = agg.Entries(rep.Standings)
	rep.Ranked = agg.Table(TableRanked, rep.Standings)
	rep.Superset = linkage.SupersetTable(TableSuperset, rep.Datasets, rep.Linkage.Superset)
	return nil
}

// TopN returns the top N entries of the last published leaderboard.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	return s.leaderboard.TopN(ctx, n)
}

// Rank returns the entry of the runner named name.
func (s *Service) Rank(ctx context.Context, name string) (types.Entry, error) {
	return s.leaderboard.Rank(ctx, name)
}

// Last returns the report of the last successful run, or nil.
func (s *Service) Last() *Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// GetStats returns run statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"runs":       s.runs,
		"lastWidth":  s.params.LastWidth,
		"firstWidth": s.params.FirstWidth,
		"rowPolicy":  string(s.policy),
		"tieMode":    string(s.tieMode),
		"entries":    s.leaderboard.Count(context.Background()),
	}
	if s.last != nil {
		rows := map[string]int{}
		for _, ds := range s.last.Datasets {
			rows[ds.Tag] = len(ds.Rows)
		}
		stats["lastRunId"] = s.last.RunID
		stats["lastRunAt"] = s.last.StartedAt.UTC().Format(time.RFC3339)
		stats["rows"] = rows
		stats["matched"] = len(s.last.Linkage.Matched)
		stats["superset"] = len(s.last.Linkage.Superset)
		stats["rejected"] = len(s.last.Rejected)
		stats["collisions"] = len(s.last.Collisions)
		stats["fanouts"] = len(s.last.Fanouts)
	}
	return stats
}
