package main

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sartorproj/goeda/boxplot"
	"github.com/sartorproj/goeda/config"
	"github.com/sartorproj/goeda/store"
	"github.com/sartorproj/goeda/timeseries"
)

type boxplotOptions struct {
	series seriesFlags

	mode  string
	freq  string
	sigma string
	jobs  int
	save  bool
	name  string
}

// boxplotReport is the output for one input file.
type boxplotReport struct {
	File        string               `json:"file"`
	RunID       string               `json:"run_id,omitempty"`
	Rows        []boxplot.Row        `json:"rows"`
	Outliers    []boxplot.Outlier    `json:"outliers"`
	Diagnostics []boxplot.Diagnostic `json:"diagnostics,omitempty"`
}

// style is handed to whatever renders the JSON.
type style struct {
	Palette []string `json:"palette"`
}

type boxplotOutput struct {
	Config  *boxplot.Config `json:"config"`
	Style   style           `json:"style"`
	Results []boxplotReport `json:"results"`
}

func newBoxplotCommand(a *app) *cobra.Command {
	var opts boxplotOptions

	cmd := &cobra.Command{
		Use:   "boxplot FILE [FILE...]",
		Short: "Compute boxplot statistics and outliers per calendar bucket or column",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd, a.cfg)
			if err != nil {
				return err
			}
			return runBoxplot(cmd.Context(), a, opts, cfg, args)
		},
	}

	opts.series.register(cmd)
	flags := cmd.Flags()
	flags.StringVar(&opts.mode, "mode", "", "Grouping mode: time or column")
	flags.StringVar(&opts.freq, "freq", "", "Calendar bucket in time mode: year, month or week")
	flags.StringVar(&opts.sigma, "sigma", "", `Sigma clip threshold, or "none"`)
	flags.IntVarP(&opts.jobs, "jobs", "j", runtime.NumCPU(), "Files processed concurrently")
	flags.BoolVar(&opts.save, "save", false, "Save the results to the configured database")
	flags.StringVar(&opts.name, "name", "", "Run name when saving (default: file name)")
	return cmd
}

// config applies the flags that were set over the loaded configuration.
func (o *boxplotOptions) config(cmd *cobra.Command, base *config.Config) (*boxplot.Config, error) {
	cfg := base.BoxplotConfig()
	flags := cmd.Flags()
	if flags.Changed("mode") {
		m, err := boxplot.ParseMode(o.mode)
		if err != nil {
			return nil, err
		}
		cfg.Mode = m
	}
	if flags.Changed("freq") {
		f, err := timeseries.ParseFrequency(o.freq)
		if err != nil {
			return nil, err
		}
		cfg.Frequency = f
	}
	if flags.Changed("sigma") {
		k, err := config.ParseSigmaClip(o.sigma)
		if err != nil {
			return nil, err
		}
		cfg.SigmaClip = k
	}
	return cfg, cfg.Validate()
}

func runBoxplot(ctx context.Context, a *app, opts boxplotOptions, cfg *boxplot.Config, files []string) error {
	reports := make([]boxplotReport, len(files))

	g, gctx := errgroup.WithContext(ctx)
	if opts.jobs > 0 {
		g.SetLimit(opts.jobs)
	}
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := aggregateFile(file, opts.series, cfg)
			if err != nil {
				return errors.Wrap(err, file)
			}
			reports[i] = boxplotReport{
				File:        file,
				Rows:        res.Rows,
				Outliers:    res.Outliers,
				Diagnostics: res.Diagnostics,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, r := range reports {
		log := a.log.WithField("file", r.File)
		for _, d := range r.Diagnostics {
			log.WithFields(logrus.Fields{"group": d.Group, "kind": d.Kind}).Warn(d.Reason)
		}
		log.WithFields(logrus.Fields{
			"rows":     len(r.Rows),
			"outliers": len(r.Outliers),
		}).Info("aggregated")
	}

	if opts.save {
		if err := saveReports(ctx, a, opts.name, cfg, reports); err != nil {
			return err
		}
	}

	return a.write(boxplotOutput{
		Config:  cfg,
		Style:   style{Palette: a.cfg.Palette},
		Results: reports,
	})
}

func aggregateFile(path string, sf seriesFlags, cfg *boxplot.Config) (*boxplot.Result, error) {
	if cfg.Mode == boxplot.ModeColumn {
		table, err := timeseries.LoadTableCSV(path)
		if err != nil {
			return nil, err
		}
		return boxplot.AggregateTable(table, cfg)
	}

	series, err := sf.load(path)
	if err != nil {
		return nil, err
	}
	return boxplot.AggregateSeries(series, cfg)
}

func saveReports(ctx context.Context, a *app, name string, cfg *boxplot.Config, reports []boxplotReport) error {
	db := a.cfg.Database
	st, err := store.Open(db.Driver, db.DSN, a.log)
	if err != nil {
		return err
	}
	defer st.Close()

	for i := range reports {
		r := &reports[i]
		runName := name
		if runName == "" {
			runName = strings.TrimSuffix(filepath.Base(r.File), filepath.Ext(r.File))
		}
		res := &boxplot.Result{Rows: r.Rows, Outliers: r.Outliers, Diagnostics: r.Diagnostics}
		run, err := st.SaveRun(ctx, runName, cfg, res)
		if err != nil {
			return errors.Wrapf(err, "save %s", r.File)
		}
		r.RunID = run.ID
		a.log.WithFields(logrus.Fields{"file": r.File, "run": run.ID}).Info("saved")
	}
	return nil
}
