package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Additional-Code/shopdata/internal/app"
	"github.com/Additional-Code/shopdata/internal/config"
	"github.com/Additional-Code/shopdata/internal/dataset"
	"github.com/Additional-Code/shopdata/internal/generator"
	"github.com/Additional-Code/shopdata/internal/migration"
	"github.com/Additional-Code/shopdata/internal/seeder"
	"github.com/Additional-Code/shopdata/pkg/errorbank"
)

const stopTimeout = 10 * time.Second

// NewRootCommand builds the root shopdata CLI command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "shopdata",
		Short:         "Synthetic e-commerce dataset generator and loader",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newLoadCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newWorkerCmd())

	return root
}

// Execute runs the shopdata CLI and prints any failure to stderr.
func Execute(ctx context.Context) error {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		return err
	}
	return nil
}

// printError writes the failure and any attached details, one per line.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)
	details := errorbank.From(err).Details()
	for _, key := range slices.Sorted(maps.Keys(details)) {
		fmt.Fprintf(w, "  %s: %v\n", key, details[key])
	}
}

// overrides holds command-line values that take precedence over the environment.
type overrides struct {
	out  string
	in   string
	seed uint64

	seedSet bool
}

func (o overrides) apply(cfg config.Config) (config.Config, error) {
	if o.out != "" {
		cfg.Generator.OutputDir = o.out
		if o.in == "" {
			cfg.Loader.InputDir = o.out
		}
	}
	if o.in != "" {
		cfg.Loader.InputDir = o.in
	}
	if o.seedSet {
		cfg.Generator.Seed = o.seed
	}
	if err := cfg.Normalize(); err != nil {
		return config.Config{}, errorbank.InvalidConfig("invalid command-line override", errorbank.WithCause(err))
	}
	return cfg, nil
}

func bindGenerateFlags(cmd *cobra.Command, o *overrides) {
	cmd.Flags().StringVar(&o.out, "out", "", "Directory the CSV files are written to (default GEN_OUTPUT_DIR)")
	cmd.Flags().Uint64Var(&o.seed, "seed", 0, "Random seed (default GEN_SEED)")
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		o.seedSet = cmd.Flags().Changed("seed")
	}
}

func newGenerateCmd() *cobra.Command {
	var o overrides
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the five CSV files",
		RunE: func(cmd *cobra.Command, args []string) error {
			var gen *generator.Service
			opts := fx.Options(app.Generate, fx.Decorate(o.apply), fx.Populate(&gen))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				result, err := gen.Run(ctx)
				if err != nil {
					return err
				}
				return printGenerated(cmd.OutOrStdout(), result)
			})
		},
	}
	bindGenerateFlags(cmd, &o)
	return cmd
}

func newLoadCmd() *cobra.Command {
	var o overrides
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Recreate the database and load the CSV files into it",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				cfg  config.Config
				seed *seeder.Seeder
			)
			opts := fx.Options(app.Load, fx.Decorate(o.apply), fx.Populate(&cfg, &seed))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				counts, err := seed.Load(ctx, cfg.Loader.InputDir)
				if err != nil {
					return err
				}
				return printLoaded(cmd.OutOrStdout(), counts)
			})
		},
	}
	cmd.Flags().StringVar(&o.in, "in", "", "Directory the CSV files are read from (default LOAD_INPUT_DIR)")
	return cmd
}

func newRunCmd() *cobra.Command {
	var o overrides
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate the CSV files, then load them",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				gen  *generator.Service
				seed *seeder.Seeder
			)
			opts := fx.Options(app.Pipeline, fx.Decorate(o.apply), fx.Populate(&gen, &seed))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				result, err := gen.Run(ctx)
				if err != nil {
					return err
				}
				if err := printGenerated(cmd.OutOrStdout(), result); err != nil {
					return err
				}
				counts, err := seed.Load(ctx, result.Dir)
				if err != nil {
					return err
				}
				return printLoaded(cmd.OutOrStdout(), counts)
			})
		},
	}
	bindGenerateFlags(cmd, &o)
	return cmd
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mig *migration.Migrator
			opts := fx.Options(app.Core, app.Storage, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := mig.Up(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			all, _ := cmd.Flags().GetBool("all")
			var mig *migration.Migrator
			opts := fx.Options(app.Core, app.Storage, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := mig.Down(ctx, steps, all); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
				return nil
			})
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migration steps to rollback")
	downCmd.Flags().Bool("all", false, "Rollback all applied migrations")

	cmd.AddCommand(upCmd, downCmd)
	return cmd
}

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage background workers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Load every dataset announced on the message bus",
		RunE: func(cmd *cobra.Command, args []string) error {
			application := fx.New(app.Worker, fx.NopLogger)
			if err := application.Start(cmd.Context()); err != nil {
				return err
			}
			<-cmd.Context().Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
			defer cancel()
			return application.Stop(stopCtx)
		},
	})
	return cmd
}

var generatedLabels = map[string]string{
	dataset.TableUsers:      "users",
	dataset.TableProducts:   "products",
	dataset.TableOrders:     "orders",
	dataset.TableOrderItems: "order items",
	dataset.TablePayments:   "payments",
}

func printGenerated(w io.Writer, result *generator.Result) error {
	for _, table := range dataset.Tables {
		if _, err := fmt.Fprintf(w, "Generated %d %s\n", result.Counts[table], generatedLabels[table]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "All CSV files generated in %s\n", result.Dir)
	return err
}

func printLoaded(w io.Writer, counts dataset.Counts) error {
	if err := seeder.Report(w, counts); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "Database ingestion completed successfully")
	return err
}

func runWithApp(ctx context.Context, opts fx.Option, fn func(context.Context) error) error {
	application := fx.New(opts, fx.NopLogger)
	if err := application.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		_ = application.Stop(stopCtx)
	}()
	return fn(ctx)
}
