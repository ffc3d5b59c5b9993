package generate

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ggm-tools/ddlmodel/cmd/internal/cmdutil"
	"github.com/ggm-tools/ddlmodel/modelgen"
	"github.com/ggm-tools/ddlmodel/modelstore"
	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	var (
		storeCfg         cmdutil.StoreConfig
		schema           string
		sourceSchema     string
		mappingsFile     string
		dryRun           bool
		overwrite        bool
		nullPlaceholders bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a model per table of the DDL.",
		Long: `Generate writes one transformation model per table of the authoritative DDL.
Existing models are left alone unless --overwrite is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			logger, err := cmdutil.Logger()
			if err != nil {
				return err
			}
			cmdutil.RunMetricsServer(logger)

			cat, err := cmdutil.LoadDDL(ctx, logger)
			if err != nil {
				return err
			}
			tables, err := modelgen.SelectTables(cat, cmdutil.TableNames())
			if err != nil {
				return err
			}

			var mappings modelgen.Mappings
			if mappingsFile != "" {
				if mappings, err = modelgen.LoadMappingsFile(mappingsFile); err != nil {
					return err
				}
			}

			var store modelstore.Store
			if dryRun {
				store = modelstore.NewPreviewStore(cmd.OutOrStdout())
			} else {
				if !storeCfg.Configured() {
					return errors.Newf("an output location must be configured (--output-dir, --s3-bucket, --gcp-bucket) or --dry-run given")
				}
				if store, err = storeCfg.Store(ctx, logger); err != nil {
					return err
				}
			}

			var written, skipped int
			for _, tbl := range tables {
				opts := []modelgen.GenerateOpt{
					modelgen.WithSchema(schema),
					modelgen.WithSourceSchema(sourceSchema),
					modelgen.WithNullPlaceholders(nullPlaceholders),
				}
				opts = append(opts, mappings.Options(tbl.Table)...)
				m := modelgen.Generate(tbl, opts...)
				if len(m.Projections) == 0 {
					logger.Warn().Str("table", tbl.SafeString()).Msgf("table has no columns")
				}
				if len(m.Grain) == 0 {
					logger.Warn().Str("table", tbl.SafeString()).Msgf("table declares no key, model has no grain")
				}

				loc, err := store.WriteModel(ctx, m.FileName(), []byte(m.SQL()), overwrite)
				switch {
				case errors.Is(err, modelstore.ErrModelExists):
					skipped++
					cmdutil.ModelsWritten.WithLabelValues("skipped").Inc()
					logger.Warn().Str("table", tbl.SafeString()).Str("path", loc).Msgf("model exists, skipping (use --overwrite)")
					continue
				case err != nil:
					cmdutil.ModelsWritten.WithLabelValues("failed").Inc()
					return errors.Wrapf(err, "error writing model for %s", tbl.SafeString())
				}
				written++
				cmdutil.ModelsWritten.WithLabelValues("written").Inc()
				logger.Debug().Str("table", tbl.SafeString()).Str("path", loc).Msgf("model written")
			}
			logger.Info().
				Int("written", written).
				Int("skipped", skipped).
				Bool("dry_run", dryRun).
				Msgf("generation complete")
			return nil
		},
	}

	cmdutil.RegisterDDLFlags(cmd)
	cmdutil.RegisterTableNameFlags(cmd)
	cmdutil.RegisterStoreFlags(cmd, &storeCfg, "output-dir", "directory to write models to")
	cmd.PersistentFlags().StringVar(
		&schema,
		"schema",
		modelgen.DefaultSchema,
		"schema of the generated models",
	)
	cmd.PersistentFlags().StringVar(
		&sourceSchema,
		"source-schema",
		modelgen.DefaultSourceSchema,
		"schema the models select from",
	)
	cmd.PersistentFlags().StringVar(
		&mappingsFile,
		"mappings",
		"",
		"YAML file with per table source tables and column expressions",
	)
	cmd.PersistentFlags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"print the models instead of writing them",
	)
	cmd.PersistentFlags().BoolVar(
		&overwrite,
		"overwrite",
		false,
		"replace models that already exist",
	)
	cmd.PersistentFlags().BoolVar(
		&nullPlaceholders,
		"null-placeholders",
		false,
		"cast NULL instead of the source column, for models still to be mapped",
	)
	return cmd
}
