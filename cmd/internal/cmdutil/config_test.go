package cmdutil

import (
	"path/filepath"
	"testing"

	"github.com/ggm-tools/ddlmodel/testutils"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestApplyConfig(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{
		"ddlmodel.yaml": `
ddl-dir: ggm/ddl
schema: gold
tables: [client, zaak]
dry-run: true
`,
	})
	t.Setenv("DDLMODEL_SCHEMA", "platinum")

	var (
		ddlDir, schema, sourceSchema string
		tables                       []string
		dryRun                       bool
	)
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringVar(&ddlDir, "ddl-dir", "", "")
	flags.StringVar(&schema, "schema", "silver", "")
	flags.StringVar(&sourceSchema, "source-schema", "stg", "")
	flags.StringSliceVar(&tables, "tables", nil, "")
	flags.BoolVar(&dryRun, "dry-run", false, "")
	require.NoError(t, flags.Parse([]string{"--ddl-dir", "elders"}))

	configErr = nil
	v := viper.New()
	initConfig(v, filepath.Join(dir, "ddlmodel.yaml"))
	require.NoError(t, configErr)
	require.NoError(t, applyConfig(v, flags))

	// Flag beats env beats file beats default.
	require.Equal(t, "elders", ddlDir)
	require.Equal(t, "platinum", schema)
	require.Equal(t, []string{"client", "zaak"}, tables)
	require.True(t, dryRun)
	require.Equal(t, "stg", sourceSchema)
}

func TestApplyConfigInvalidValue(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{"c.yaml": "concurrency: veel\n"})

	var concurrency int
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.IntVar(&concurrency, "concurrency", 0, "")
	require.NoError(t, flags.Parse(nil))

	configErr = nil
	v := viper.New()
	initConfig(v, filepath.Join(dir, "c.yaml"))
	require.NoError(t, configErr)
	err := applyConfig(v, flags)
	require.Error(t, err)
	require.Contains(t, err.Error(), `invalid value "veel" for concurrency from config`)
}

func TestInitConfigMissingFile(t *testing.T) {
	configErr = nil
	initConfig(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, configErr)
	configErr = nil
}
