package dump

import (
	"context"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/ggm-tools/ddlmodel/catalog"
	"github.com/ggm-tools/ddlmodel/cmd/internal/cmdutil"
	"github.com/ggm-tools/ddlmodel/modelgen"
	"github.com/ggm-tools/ddlmodel/snapshot"
	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Write the parsed DDL as a catalog snapshot.",
		Long: `Dump writes the authoritative catalog in the snapshot format read by
validate --actual-snapshot.`,
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
			if names := cmdutil.TableNames(); len(names) > 0 {
				tables, err := modelgen.SelectTables(cat, names)
				if err != nil {
					return err
				}
				cat = catalog.New()
				for _, t := range tables {
					cat.Put(t)
				}
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return errors.Wrapf(err, "error creating %s", output)
				}
				defer func() { _ = f.Close() }()
				w = f
			}
			if err := snapshot.Dump(w, cat); err != nil {
				return err
			}
			logger.Info().Int("tables", cat.Len()).Str("path", output).Msgf("snapshot written")
			return nil
		},
	}

	cmdutil.RegisterDDLFlags(cmd)
	cmdutil.RegisterTableNameFlags(cmd)
	cmd.PersistentFlags().StringVarP(
		&output,
		"output",
		"o",
		"",
		"file to write the snapshot to (default stdout)",
	)
	return cmd
}
