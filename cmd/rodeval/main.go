// Command rodeval scores radar object detection results against ground
// truth with the OLS metric and keeps a history of evaluation runs.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/banshee-data/rodeval/internal/config"
	"github.com/banshee-data/rodeval/internal/monitoring"
	"github.com/banshee-data/rodeval/internal/timeutil"
	"github.com/banshee-data/rodeval/internal/version"
)

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand.
type app struct {
	v       *viper.Viper
	clock   timeutil.Clock
	cfgFile string
	opts    *config.Options
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	a := &app{v: v, clock: timeutil.RealClock{}}
	config.SetDefaults(v)

	root := &cobra.Command{
		Use:   "rodeval",
		Short: "Evaluate radar object detections with the OLS metric",
		Long: `rodeval matches radar object detections to ground truth using Object
Location Similarity (OLS) and reports COCO-style average precision and
recall over a range of OLS thresholds.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.rodeval.yaml or ./.rodeval.yaml)")
	pf.String("db", "", "SQLite database for evaluation runs")
	pf.String("log-level", config.DefaultOptions().LogLevel, "log level (debug, info, warn, error)")
	pf.Bool("dev-logs", false, "human-readable console logs")
	pf.Bool("no-color", false, "disable colored output")
	bindFlags(v, pf, map[string]string{
		"db":        "db",
		"log_level": "log-level",
		"dev_logs":  "dev-logs",
	})

	root.AddCommand(newEvalCmd(a))
	root.AddCommand(newRunsCmd(a))
	root.AddCommand(newServeCmd(a))
	root.AddCommand(newDBCmd(a))
	return root
}

// setup reads the config file and environment, decodes the options and
// installs the logger.
func (a *app) setup(cmd *cobra.Command) error {
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		color.NoColor = true
	}
	if err := a.initConfig(); err != nil {
		return err
	}
	opts, err := config.LoadOptions(a.v)
	if err != nil {
		return err
	}
	a.opts = opts

	logger, err := monitoring.NewLogger(opts.LogLevel, opts.DevLogs)
	if err != nil {
		return err
	}
	monitoring.SetLogger(logger)
	return nil
}

func (a *app) initConfig() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(home)
		}
		a.v.AddConfigPath(".")
		a.v.SetConfigName(".rodeval")
		a.v.SetConfigType("yaml")
	}

	a.v.SetEnvPrefix("RODEVAL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// bindFlags binds option keys to flag names. A missing flag is a
// programming error.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind %s to --%s: %v", key, name, err))
		}
	}
}
