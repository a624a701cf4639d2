package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/shopdata/internal/config"
	"github.com/Additional-Code/shopdata/internal/database"
	"github.com/Additional-Code/shopdata/internal/generator"
	"github.com/Additional-Code/shopdata/internal/logger"
	"github.com/Additional-Code/shopdata/internal/messaging"
	"github.com/Additional-Code/shopdata/internal/migration"
	"github.com/Additional-Code/shopdata/internal/observability"
	"github.com/Additional-Code/shopdata/internal/seeder"
	"github.com/Additional-Code/shopdata/internal/worker"
	workerloader "github.com/Additional-Code/shopdata/internal/worker/loader"
)

// Core provides the foundational modules shared across commands.
var Core = fx.Options(
	config.Module,
	logger.Module,
	observability.Module,
	messaging.Module,
)

// Storage adds the load target and its schema migrations.
var Storage = fx.Options(
	database.Module,
	migration.Module,
)

// Generate wires the CSV generator.
var Generate = fx.Options(
	Core,
	generator.Module,
)

// Load wires the CSV-to-database loader.
var Load = fx.Options(
	Core,
	Storage,
	seeder.Module,
)

// Pipeline wires generation followed by loading in one process.
var Pipeline = fx.Options(
	Core,
	Storage,
	generator.Module,
	seeder.Module,
)

// Worker loads every dataset announced on the message bus.
var Worker = fx.Options(
	Load,
	worker.Module,
	workerloader.Module,
)
