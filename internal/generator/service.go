package generator

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/shopdata/internal/config"
	"github.com/Additional-Code/shopdata/internal/dataset"
	"github.com/Additional-Code/shopdata/internal/messaging"
	"github.com/Additional-Code/shopdata/internal/observability"
	"github.com/Additional-Code/shopdata/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/shopdata/generator")

// Clock returns the instant generation windows are anchored to.
type Clock func() time.Time

// Result describes a finished generation run.
type Result struct {
	Dir    string
	Seed   uint64
	Counts dataset.Counts
}

// Service runs a full generation and writes the CSV files.
type Service struct {
	cfg       config.Generator
	logger    *zap.Logger
	obs       *observability.Manager
	publisher messaging.Client
	publish   bool
	clock     Clock
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Config    config.Config
	Logger    *zap.Logger
	Obs       *observability.Manager
	Publisher messaging.Client
	Clock     Clock `optional:"true"`
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	clock := p.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		cfg:       p.Config.Generator,
		logger:    p.Logger,
		obs:       p.Obs,
		publisher: p.Publisher,
		publish:   p.Config.Messaging.Enabled,
		clock:     clock,
	}
}

// Run builds a dataset from the configured seed and sizes, writes it to the
// output directory and announces it once every file is closed.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	ctx, span := serviceTracer.Start(ctx, "Generator.Run", trace.WithAttributes(
		attribute.String("dataset.dir", s.cfg.OutputDir),
		attribute.Int64("dataset.seed", int64(s.cfg.Seed)),
	))
	defer span.End()

	result, err := s.run(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return nil, err
	}
	return result, nil
}

func (s *Service) run(ctx context.Context) (*Result, error) {
	sizes := Sizes{
		Users:            s.cfg.Users,
		Products:         s.cfg.Products,
		Orders:           s.cfg.Orders,
		MaxItemsPerOrder: s.cfg.MaxItemsPerOrder,
	}
	if err := sizes.Validate(); err != nil {
		return nil, errorbank.InvalidConfig("generator sizes", errorbank.WithCause(err))
	}

	now := s.clock()
	data, err := Build(NewSource(s.cfg.Seed, now), sizes, s.stageHook(ctx))
	if err != nil {
		return nil, errorbank.Internal("build dataset", errorbank.WithCause(err))
	}

	started := time.Now()
	if err := dataset.Write(s.cfg.OutputDir, data); err != nil {
		return nil, err
	}
	s.obs.ObserveStage(ctx, "write", time.Since(started))

	counts := data.Counts()
	for _, table := range dataset.Tables {
		s.logger.Info("wrote csv",
			zap.String("file", dataset.FileName(table)),
			zap.Int("rows", counts[table]),
		)
	}

	if s.publish {
		event := messaging.DatasetGenerated{
			Dir:         s.cfg.OutputDir,
			Seed:        s.cfg.Seed,
			Counts:      counts,
			GeneratedAt: now.UTC(),
		}
		if err := messaging.PublishDatasetGenerated(ctx, s.publisher, event); err != nil {
			return nil, errorbank.IO("publish dataset event", errorbank.WithCause(err),
				errorbank.WithDetail("topic", s.publisher.Topic()))
		}
		s.logger.Info("dataset event published", zap.String("topic", s.publisher.Topic()))
	}

	return &Result{Dir: s.cfg.OutputDir, Seed: s.cfg.Seed, Counts: counts}, nil
}

// stageHook opens a span per build stage and records its rows and duration.
func (s *Service) stageHook(ctx context.Context) StageHook {
	return func(stage string) func(int) {
		_, span := serviceTracer.Start(ctx, "Generator.stage."+stage)
		started := time.Now()

		return func(rows int) {
			elapsed := time.Since(started)
			span.SetAttributes(attribute.Int("rows", rows))
			span.End()

			s.obs.ObserveStage(ctx, stage, elapsed)
			if stage == StageTotals {
				s.logger.Debug("order totals recomputed from items", zap.Int("orders", rows))
				return
			}
			s.obs.RecordGenerated(ctx, stage, rows)
		}
	}
}
