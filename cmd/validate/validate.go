package validate

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/ggm-tools/ddlmodel/catalog"
	"github.com/ggm-tools/ddlmodel/cmd/internal/cmdutil"
	"github.com/ggm-tools/ddlmodel/ddlparse"
	"github.com/ggm-tools/ddlmodel/modelgen"
	"github.com/ggm-tools/ddlmodel/modelstore"
	"github.com/ggm-tools/ddlmodel/snapshot"
	"github.com/ggm-tools/ddlmodel/verify"
	"github.com/ggm-tools/ddlmodel/verify/inconsistency"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type actualConfig struct {
	store    cmdutil.StoreConfig
	snapshot string
	ddlDir   string
}

func Command() *cobra.Command {
	var (
		actualCfg       actualConfig
		concurrency     int
		blocking        string
		checkReferences bool
		requireKeys     bool
		format          string
		output          string
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate models or a catalog snapshot against the DDL.",
		Long: `Validate compares an actual schema, read from models, a catalog snapshot or
other DDL, with the authoritative DDL. It fails when a blocking discrepancy
is found.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			logger, err := cmdutil.Logger()
			if err != nil {
				return err
			}
			cmdutil.RunMetricsServer(logger)

			policy, err := inconsistency.ParsePolicy(blocking)
			if err != nil {
				return err
			}

			authoritative, err := cmdutil.LoadDDL(ctx, logger)
			if err != nil {
				return err
			}
			actual, err := loadActual(ctx, logger, actualCfg)
			if err != nil {
				return err
			}

			report, err := verify.Validate(
				ctx,
				authoritative,
				actual,
				verify.WithConcurrency(concurrency),
				verify.WithTables(cmdutil.TableNames()),
				verify.WithDBFilter(cmdutil.TableFilter()),
				verify.WithReferences(checkReferences),
				verify.WithRequireKeys(requireKeys),
			)
			if err != nil {
				return errors.Wrap(err, "error validating")
			}
			for kind, n := range report.Counts() {
				cmdutil.Discrepancies.WithLabelValues(kind.Flag()).Add(float64(n))
			}

			var w io.Writer = cmd.OutOrStdout()
			reporter := inconsistency.CombinedReporter{}
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return errors.Wrapf(err, "error creating %s", output)
				}
				defer func() { _ = f.Close() }()
				w = f
				// The report goes to a file; keep the discrepancies visible
				// in the log too.
				reporter.Reporters = append(reporter.Reporters, inconsistency.LogReporter{Logger: logger})
			}
			formatReporter, err := inconsistency.NewFormatReporter(format, w)
			if err != nil {
				return err
			}
			reporter.Reporters = append(reporter.Reporters, formatReporter)

			report.Send(reporter)
			reporter.Report(inconsistency.StatusReport{
				Info: fmt.Sprintf("compared %d tables, found %d discrepancies", report.TablesCompared, len(report.Discrepancies)),
			})
			if err := reporter.Close(); err != nil {
				return err
			}

			if b := report.Blocking(policy); len(b) > 0 {
				return errors.Newf(
					"%d blocking discrepancies found (of %d)", len(b), len(report.Discrepancies),
				)
			}
			logger.Info().Int("discrepancies", len(report.Discrepancies)).Msgf("validation passed")
			return nil
		},
	}

	cmdutil.RegisterDDLFlags(cmd)
	cmdutil.RegisterTableNameFlags(cmd)
	cmdutil.RegisterNameFilterFlags(cmd)
	cmdutil.RegisterStoreFlags(cmd, &actualCfg.store, "models-dir", "directory holding the models to validate")
	cmd.PersistentFlags().StringVar(
		&actualCfg.snapshot,
		"actual-snapshot",
		"",
		"YAML or JSON catalog snapshot to validate",
	)
	cmd.PersistentFlags().StringVar(
		&actualCfg.ddlDir,
		"actual-ddl-dir",
		"",
		"directory of DDL describing the actual schema",
	)
	cmd.PersistentFlags().IntVar(
		&concurrency,
		"concurrency",
		0,
		"number of tables to compare at a time (defaults to number of CPUs)",
	)
	cmd.PersistentFlags().StringVar(
		&blocking,
		"blocking",
		"default",
		"comma separated discrepancy kinds that fail validation, or all, none or default (all but extra-table)",
	)
	cmd.PersistentFlags().BoolVar(
		&checkReferences,
		"check-references",
		false,
		"compare foreign key columns",
	)
	cmd.PersistentFlags().BoolVar(
		&requireKeys,
		"require-keys",
		true,
		"report authoritative tables that declare no key",
	)
	cmd.PersistentFlags().StringVar(
		&format,
		"format",
		"text",
		"report format (text, json or yaml)",
	)
	cmd.PersistentFlags().StringVarP(
		&output,
		"output",
		"o",
		"",
		"file to write the report to (default stdout)",
	)
	return cmd
}

// loadActual builds the actual catalog from whichever source is configured.
func loadActual(ctx context.Context, logger zerolog.Logger, cfg actualConfig) (*catalog.Catalog, error) {
	sources := 0
	if cfg.store.Configured() {
		sources++
	}
	if cfg.snapshot != "" {
		sources++
	}
	if cfg.ddlDir != "" {
		sources++
	}
	if sources != 1 {
		return nil, errors.Newf("exactly one actual source must be given (--models-dir, --s3-bucket, --gcp-bucket, --actual-snapshot or --actual-ddl-dir)")
	}

	switch {
	case cfg.snapshot != "":
		logger.Debug().Str("path", cfg.snapshot).Msgf("reading catalog snapshot")
		return snapshot.LoadFile(cfg.snapshot)
	case cfg.ddlDir != "":
		res, err := ddlparse.ParseDir(ctx, cfg.ddlDir)
		if err != nil {
			return nil, err
		}
		for _, pe := range res.Errors {
			logger.Warn().Str("file", pe.File).Str("table", pe.Table).Msg(pe.Msg)
		}
		return res.Catalog, nil
	}

	store, err := cfg.store.Store(ctx, logger)
	if err != nil {
		return nil, err
	}
	models, err := modelstore.ReadAll(ctx, store)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("models", len(models)).Msgf("read models")
	cat, err := modelgen.ReadCatalog(models...)
	if err != nil {
		return nil, errors.Wrap(err, "error reading models")
	}
	return cat, nil
}
