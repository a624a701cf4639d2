package seeder

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/shopdata/internal/config"
	"github.com/Additional-Code/shopdata/internal/database"
	"github.com/Additional-Code/shopdata/internal/dataset"
	"github.com/Additional-Code/shopdata/internal/migration"
	"github.com/Additional-Code/shopdata/internal/observability"
	"github.com/Additional-Code/shopdata/internal/repository"
	"github.com/Additional-Code/shopdata/pkg/errorbank"
)

var seederTracer = otel.Tracer("github.com/Additional-Code/shopdata/seeder")

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// gooseTable is dropped with the data tables so the schema migration reapplies.
const gooseTable = "goose_db_version"

// Seeder recreates the schema and bulk-copies generated CSV files into it.
// Loads are serialized: each one resets the shared target.
type Seeder struct {
	mu sync.Mutex

	target    *database.Target
	migrator  *migration.Migrator
	batchSize int
	logger    *zap.Logger
	obs       *observability.Manager
}

// Params defines dependencies for constructing Seeder.
type Params struct {
	fx.In

	Target   *database.Target
	Migrator *migration.Migrator
	Config   config.Config
	Logger   *zap.Logger
	Obs      *observability.Manager
}

// New constructs a Seeder writing into the configured target.
func New(p Params) *Seeder {
	batch := p.Config.Loader.BatchSize
	if batch <= 0 {
		batch = 500
	}
	return &Seeder{
		target:    p.Target,
		migrator:  p.Migrator,
		batchSize: batch,
		logger:    p.Logger,
		obs:       p.Obs,
	}
}

// Load replaces the target's contents with the dataset found in dir and
// returns the row count of every table as read back from the database.
func (s *Seeder) Load(ctx context.Context, dir string) (dataset.Counts, error) {
	ctx, span := seederTracer.Start(ctx, "Seeder.Load", trace.WithAttributes(attribute.String("dataset.dir", dir)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	started := time.Now()

	counts, err := s.load(ctx, dir)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, err
	}

	s.obs.ObserveStage(ctx, "load", time.Since(started))
	return counts, nil
}

func (s *Seeder) load(ctx context.Context, dir string) (dataset.Counts, error) {
	data, err := dataset.Read(dir)
	if err != nil {
		return nil, err
	}

	if err := s.target.Reset(ctx, append([]string{gooseTable}, dataset.Tables...)); err != nil {
		return nil, errorbank.IO("reset database", errorbank.WithCause(err))
	}
	if err := s.migrator.Up(ctx); err != nil {
		return nil, errorbank.Internal("create schema", errorbank.WithCause(err))
	}

	db, err := s.target.Open(ctx)
	if err != nil {
		return nil, errorbank.IO("open database", errorbank.WithCause(err))
	}

	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		repo := repository.New(tx)
		steps := []struct {
			table  string
			insert func() (int, error)
		}{
			{dataset.TableUsers, func() (int, error) {
				return repository.InsertBatches(ctx, repo, dataset.TableUsers, data.Users, s.batchSize)
			}},
			{dataset.TableProducts, func() (int, error) {
				return repository.InsertBatches(ctx, repo, dataset.TableProducts, data.Products, s.batchSize)
			}},
			{dataset.TableOrders, func() (int, error) {
				return repository.InsertBatches(ctx, repo, dataset.TableOrders, data.Orders, s.batchSize)
			}},
			{dataset.TableOrderItems, func() (int, error) {
				return repository.InsertBatches(ctx, repo, dataset.TableOrderItems, data.OrderItems, s.batchSize)
			}},
			{dataset.TablePayments, func() (int, error) {
				return repository.InsertBatches(ctx, repo, dataset.TablePayments, data.Payments, s.batchSize)
			}},
		}
		for _, step := range steps {
			n, err := step.insert()
			if err != nil {
				return classify(fmt.Sprintf("insert %s", step.table), err)
			}
			s.logger.Info("inserted rows", zap.String("table", step.table), zap.Int("count", n))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	repo := repository.New(db)
	counts := make(dataset.Counts, len(dataset.Tables))
	for _, table := range dataset.Tables {
		n, err := repo.Count(ctx, table)
		if err != nil {
			return nil, errorbank.Internal("count "+table, errorbank.WithCause(err))
		}
		counts[table] = n
		s.obs.RecordLoaded(ctx, table, n)
	}
	return counts, nil
}

var reportLabels = map[string]string{
	dataset.TableUsers:      "Users",
	dataset.TableProducts:   "Products",
	dataset.TableOrders:     "Orders",
	dataset.TableOrderItems: "Order items",
	dataset.TablePayments:   "Payments",
}

// Report writes one "<Table> in database: <n>" line per table in dependency order.
func Report(w io.Writer, counts dataset.Counts) error {
	for _, table := range dataset.Tables {
		if _, err := fmt.Fprintf(w, "%s in database: %d\n", reportLabels[table], counts[table]); err != nil {
			return err
		}
	}
	return nil
}
