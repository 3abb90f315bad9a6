// Command goeda computes exploratory statistics of CSV data and prints them
// as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sartorproj/goeda/config"
	"github.com/sartorproj/goeda/timeseries"
)

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	out        string

	cfg *config.Config
	log *logrus.Logger
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "goeda",
		Short:         "Exploratory statistics for time series and tables",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "goeda.yaml", "Configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (overrides the configuration)")
	flags.StringVarP(&a.out, "out", "o", "", "Write JSON to this file instead of stdout")

	cmd.AddCommand(
		newBoxplotCommand(a),
		newACFCommand(a),
		newControlCommand(a),
		newDecomposeCommand(a),
		newPolyfitCommand(a),
		newRunsCommand(a),
	)
	return cmd
}

// setup loads .env files, the configuration file and the environment, then
// builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	config.LoadDotEnv()

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return errors.Wrap(err, "log level")
	}
	a.log = logrus.New()
	a.log.Out = os.Stderr
	a.log.SetLevel(level)
	a.cfg = cfg

	a.log.WithFields(logrus.Fields{
		"config":    a.configPath,
		"frequency": cfg.Frequency,
		"mode":      cfg.GroupingMode,
	}).Debug("configuration loaded")
	return nil
}

// write encodes v as indented JSON to --out or stdout.
func (a *app) write(v any) error {
	var w io.Writer = os.Stdout
	if a.out != "" {
		f, err := os.Create(a.out)
		if err != nil {
			return errors.Wrap(err, "create output")
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "encode output")
	}
	return nil
}

// seriesFlags selects the columns of a single-series CSV file.
type seriesFlags struct {
	dateColumn  string
	valueColumn string
	dateFormat  string
}

func (s *seriesFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&s.dateColumn, "date-column", "", "Date column (default: ds, date, Month or Year)")
	flags.StringVar(&s.valueColumn, "value-column", "", "Value column (default: y, value or the last column)")
	flags.StringVar(&s.dateFormat, "date-format", "2006-01-02", "Preferred date layout")
}

func (s *seriesFlags) load(path string) (*timeseries.Series, error) {
	opts := timeseries.DefaultCSVOptions()
	opts.DateColumn = s.dateColumn
	opts.ValueColumn = s.valueColumn
	opts.DateFormat = s.dateFormat
	return timeseries.LoadCSV(path, opts)
}
