package cmdutil

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configName = "ddlmodel"
	envPrefix  = "DDLMODEL"
)

var (
	cfgFile string
	// configErr is kept until a command runs, as OnInitialize cannot fail.
	configErr error
)

func RegisterConfigFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./ddlmodel.yaml)",
	)
}

// InitConfig reads the config file and sets up environment lookups.
func InitConfig() {
	initConfig(viper.GetViper(), cfgFile)
}

func initConfig(v *viper.Viper, file string) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		if ex, err := os.Executable(); err == nil {
			v.AddConfigPath(filepath.Dir(ex))
		}
		v.AddConfigPath(".")
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// A missing default config is fine; a missing explicit one is not.
		if file != "" || !errors.As(err, &notFound) {
			configErr = errors.Wrap(err, "error reading config")
		}
	}
}

// ApplyConfig fills every flag not given on the command line from the
// environment or the config file, so flags win over both.
func ApplyConfig(cmd *cobra.Command) error {
	if configErr != nil {
		return configErr
	}
	return applyConfig(viper.GetViper(), cmd.Flags())
}

func applyConfig(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed || f.Name == "config" || !v.IsSet(f.Name) {
			return
		}
		vals := []string{v.GetString(f.Name)}
		switch f.Value.Type() {
		case "stringSlice", "stringArray":
			vals = v.GetStringSlice(f.Name)
		}
		for _, val := range vals {
			if setErr := f.Value.Set(val); setErr != nil {
				err = errors.Wrapf(setErr, "invalid value %q for %s from config", val, f.Name)
				return
			}
		}
	})
	return err
}
