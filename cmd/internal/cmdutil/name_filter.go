package cmdutil

import (
	"github.com/ggm-tools/ddlmodel/verify/dbverify"
	"github.com/spf13/cobra"
)

var (
	tableNames  []string
	tableFilter = dbverify.DefaultFilterConfig()
)

// RegisterTableNameFlags adds --tables, an explicit list of tables. Every
// name must exist in the authoritative DDL.
func RegisterTableNameFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringSliceVar(
		&tableNames,
		"tables",
		nil,
		"comma separated tables to action on (default all)",
	)
}

func TableNames() []string {
	return tableNames
}

// RegisterNameFilterFlags adds regexp filters, which unlike --tables may
// match nothing.
func RegisterNameFilterFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&tableFilter.TableFilter,
		"table-filter",
		tableFilter.TableFilter,
		"POSIX regexp filter for tables to validate",
	)
	cmd.PersistentFlags().StringVar(
		&tableFilter.SchemaFilter,
		"schema-filter",
		tableFilter.SchemaFilter,
		"POSIX regexp filter for schemas to validate",
	)
}

func TableFilter() dbverify.FilterConfig {
	return tableFilter
}
