// Package loader loads announced datasets into the database.
package loader

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/shopdata/internal/config"
	"github.com/Additional-Code/shopdata/internal/dataset"
	"github.com/Additional-Code/shopdata/internal/messaging"
	"github.com/Additional-Code/shopdata/internal/seeder"
	"github.com/Additional-Code/shopdata/internal/worker"
	"github.com/Additional-Code/shopdata/pkg/errorbank"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/shopdata/worker/loader")

// Module registers the dataset loader handler with the worker engine.
var Module = fx.Module("worker_loader",
	fx.Provide(
		fx.Annotate(
			NewDatasetGeneratedHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// Loader replaces the database contents with the dataset under dir.
type Loader interface {
	Load(ctx context.Context, dir string) (dataset.Counts, error)
}

// NewDatasetGeneratedHandler loads every announced dataset through the seeder.
func NewDatasetGeneratedHandler(logger *zap.Logger, cfg config.Config, seed *seeder.Seeder) worker.HandlerRegistration {
	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: newHandler(logger, seed),
	}
}

func newHandler(logger *zap.Logger, loader Loader) messaging.Handler {
	return func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.datasets.load", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		event, err := messaging.DecodeDatasetGenerated(msg)
		if err != nil {
			// Redelivery cannot fix a bad payload.
			logger.Error("dropping dataset event", zap.Error(err), zap.Int64("offset", msg.Offset))
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return nil
		}
		span.SetAttributes(attribute.String("dataset.dir", event.Dir))

		counts, err := loader.Load(ctx, event.Dir)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "load error")
			if permanent(err) {
				logger.Error("dropping unloadable dataset", zap.String("dir", event.Dir), zap.Error(err))
				return nil
			}
			logger.Error("dataset load failed", zap.String("dir", event.Dir), zap.Error(err))
			return err
		}

		fields := []zap.Field{zap.String("dir", event.Dir), zap.Uint64("seed", event.Seed)}
		for _, table := range dataset.Tables {
			fields = append(fields, zap.Int(table, counts[table]))
		}
		logger.Info("dataset loaded", fields...)
		return nil
	}
}

// permanent reports failures caused by the dataset contents, which a retry of
// the same files cannot fix.
func permanent(err error) bool {
	return errorbank.Is(err, errorbank.KindMalformedInput) || errorbank.Is(err, errorbank.KindConstraint)
}
