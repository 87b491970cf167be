// Command csvimport loads a CSV file into a database table.
//
//	csvimport [flags] OUTPUT_DB INPUT_CSV
//
// Column names come from the sanitized header row and column types are
// inferred over the whole file (INTEGER, REAL or TEXT). The table is named
// after the CSV file and replaced if it already exists. Everything happens in
// one transaction: on failure the destination is left as it was.
//
// For the sqlite backend OUTPUT_DB is a file path; for postgres and mssql it
// is a DSN.
//
// Exit codes:
//   - 0: success.
//   - 1: the import failed.
//   - 2: usage or configuration error.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"csvimport/internal/config"
	"csvimport/internal/importer"
	"csvimport/internal/metrics"
	"csvimport/internal/metrics/datadog"
	"csvimport/internal/probe"

	// register every backend; --backend selects one at runtime.
	_ "csvimport/internal/storage/all"
)

// backendCloser is the minimal interface used by this command to manage a
// metrics backend.
type backendCloser interface {
	metrics.Backend
	Close() error
}

// deps are external seams for testability.
type deps struct {
	Stdout io.Writer
	Stderr io.Writer

	BackendFactory func(ctx context.Context, jobName string, tags []string, flushEvery time.Duration) (backendCloser, error)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], deps{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		BackendFactory: func(ctx context.Context, jobName string, tags []string, flushEvery time.Duration) (backendCloser, error) {
			return datadog.NewBackend(ctx, datadog.Options{
				JobName:    jobName,
				Tags:       tags,
				FlushEvery: flushEvery,
			})
		},
	})
	stop()
	os.Exit(code)
}

// usageError marks errors that exit with code 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// run executes the command and returns an exit code.
func run(ctx context.Context, args []string, d deps) int {
	if d.Stdout == nil {
		d.Stdout = io.Discard
	}
	if d.Stderr == nil {
		d.Stderr = io.Discard
	}

	cmd := newRootCmd(d)
	cmd.SetArgs(args)
	cmd.SetOut(d.Stdout)
	cmd.SetErr(d.Stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var ue usageError
	if errors.As(err, &ue) {
		fmt.Fprintf(d.Stderr, "Error: %v\n", err)
		fmt.Fprint(d.Stderr, cmd.UsageString())
		return 2
	}
	fmt.Fprintf(d.Stderr, "Error: %v\n", err)
	return 1
}

func newRootCmd(d deps) *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "csvimport [flags] OUTPUT_DB INPUT_CSV",
		Short: "Import a CSV file into a database table with inferred column types",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return usageError{fmt.Errorf("expected OUTPUT_DB and INPUT_CSV, got %d argument(s)", len(args))}
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return usageError{err}
			}
			if err := cfg.Validate(); err != nil {
				return usageError{err}
			}
			return execute(cmd.Context(), cfg, args[0], args[1], d)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	f := cmd.Flags()
	f.StringVar(&cfgFile, "config", "", "optional YAML config file")
	f.String("backend", config.DefaultBackend, "destination backend (sqlite, postgres, mssql)")
	f.Int("batch-size", config.DefaultBatchSize, "rows per insert batch")
	f.String("metrics-backend", config.DefaultMetricsBackend, "metrics backend (none, datadog)")
	f.String("metrics-tags", "", "extra metric tags as comma-separated key:value pairs")
	f.Duration("metrics-flush-every", config.DefaultFlushEvery, "Datadog flush interval")
	f.BoolP("verbose", "v", false, "enable verbose logs on stderr")
	f.Bool("dry-run", false, "print the inferred schema and exit without touching the database")

	return cmd
}

// execute runs one import with a resolved configuration.
func execute(ctx context.Context, cfg config.Config, outputDB, inputCSV string, d deps) error {
	runID := uuid.NewString()

	var logger importer.Logger
	if cfg.Verbose {
		logger = log.New(d.Stderr, "csvimport: run="+runID+" ", log.LstdFlags)
	}
	logf := func(format string, v ...any) {
		if logger != nil {
			logger.Printf(format, v...)
		}
	}

	if cfg.MetricsBackend == "datadog" {
		if d.BackendFactory == nil {
			return fmt.Errorf("metrics: datadog backend unavailable")
		}
		tags := append(datadog.ParseTagsCSV(cfg.MetricsTags), "backend:"+cfg.Backend)
		b, err := d.BackendFactory(ctx, "csvimport", tags, cfg.MetricsFlushEvery)
		if err != nil {
			// metrics never fail an import
			logf("metrics: failed to init datadog backend: %v; using nop", err)
		} else {
			logf("metrics: backend=datadog tags=%v", tags)
			metrics.SetBackend(b)
			defer func() {
				if err := b.Close(); err != nil {
					logf("metrics: datadog close/flush error: %v", err)
				}
				metrics.SetBackend(nil)
			}()
		}
	}

	eng := &importer.Engine{Logger: logger, BatchSize: cfg.BatchSize}

	if cfg.DryRun {
		plan, err := eng.Plan(ctx, inputCSV)
		if err != nil {
			return err
		}
		_, err = d.Stdout.Write(probe.RenderSummary(plan.Table.Name, plan.Headers, plan.Table, plan.Rows))
		return err
	}

	start := time.Now()
	res, err := eng.Import(ctx, importer.Request{
		InputPath:  inputCSV,
		Kind:       cfg.Backend,
		OutputPath: outputDB,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(d.Stdout, "Imported %d row(s) into '%s' table '%s' with %d column(s).\n",
		res.Rows, destinationLabel(cfg.Backend, outputDB), res.Table, res.Columns)
	logf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	return nil
}

// destinationLabel names the destination in the summary line. DSNs of
// server backends may carry credentials, so only the backend is shown.
func destinationLabel(backend, outputDB string) string {
	if backend == "sqlite" {
		return outputDB
	}
	return backend
}
