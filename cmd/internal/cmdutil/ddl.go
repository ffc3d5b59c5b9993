package cmdutil

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ggm-tools/ddlmodel/catalog"
	"github.com/ggm-tools/ddlmodel/ddlparse"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type ddlConfig struct {
	files            []string
	dir              string
	allowParseErrors bool
}

var ddlCfg = ddlConfig{}

func RegisterDDLFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringArrayVar(
		&ddlCfg.files,
		"ddl",
		nil,
		"DDL file to read; may be repeated, later files win",
	)
	cmd.PersistentFlags().StringVar(
		&ddlCfg.dir,
		"ddl-dir",
		"",
		"directory whose *.sql files hold the DDL (default: discovered below the working directory)",
	)
	cmd.PersistentFlags().BoolVar(
		&ddlCfg.allowParseErrors,
		"allow-parse-errors",
		false,
		"carry on with the tables that parsed when some statements do not",
	)
}

// LoadDDL parses the authoritative DDL. Parse errors are logged one by one
// and fail the load unless --allow-parse-errors is set.
func LoadDDL(ctx context.Context, logger zerolog.Logger) (*catalog.Catalog, error) {
	var res ddlparse.Result
	var err error
	switch {
	case len(ddlCfg.files) > 0:
		logger.Debug().Strs("files", ddlCfg.files).Msgf("reading DDL files")
		res, err = ddlparse.ParseFiles(ctx, ddlCfg.files)
	default:
		dir := ddlCfg.dir
		if dir == "" {
			if dir, err = ddlparse.DiscoverDir("."); err != nil {
				return nil, errors.Wrap(err, "no DDL given (use --ddl or --ddl-dir)")
			}
			logger.Info().Str("path", dir).Msgf("using discovered DDL directory")
		}
		res, err = ddlparse.ParseDir(ctx, dir)
	}
	if err != nil {
		return nil, err
	}
	return checkParse(logger, res, ddlCfg.allowParseErrors)
}

func checkParse(logger zerolog.Logger, res ddlparse.Result, allowErrors bool) (*catalog.Catalog, error) {
	TablesParsed.Add(float64(res.Catalog.Len()))
	ParseErrors.Add(float64(len(res.Errors)))
	for _, pe := range res.Errors {
		logger.Warn().
			Str("file", pe.File).
			Str("table", pe.Table).
			Int("line", pe.Line).
			Str("fragment", pe.Fragment).
			Msg(pe.Msg)
	}
	logger.Info().
		Int("tables", res.Catalog.Len()).
		Int("errors", len(res.Errors)).
		Msgf("parsed DDL")
	if len(res.Errors) > 0 && !allowErrors {
		return nil, errors.Wrapf(res.Err(), "%d DDL statements failed to parse", len(res.Errors))
	}
	return res.Catalog, nil
}
