package cmd

import (
	"fmt"
	"os"

	"github.com/ggm-tools/ddlmodel/cmd/dump"
	"github.com/ggm-tools/ddlmodel/cmd/generate"
	"github.com/ggm-tools/ddlmodel/cmd/internal/cmdutil"
	"github.com/ggm-tools/ddlmodel/cmd/validate"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ddlmodel",
	Short: "Generate and validate transformation models from authoritative DDL",
	Long: `ddlmodel reads CREATE TABLE DDL and either generates a transformation model
per table, or validates existing models (or a catalog snapshot) against it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return cmdutil.ApplyConfig(cmd)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(cmdutil.InitConfig)
	cmdutil.RegisterConfigFlags(rootCmd)
	cmdutil.RegisterLoggerFlags(rootCmd)
	cmdutil.RegisterMetricsFlags(rootCmd)

	rootCmd.AddCommand(generate.Command())
	rootCmd.AddCommand(validate.Command())
	rootCmd.AddCommand(dump.Command())
}
