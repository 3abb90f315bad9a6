package main

import (
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sartorproj/goeda/polyfit"
	"github.com/sartorproj/goeda/stats"
	"github.com/sartorproj/goeda/timeseries"
)

type acfOutput struct {
	ACF      *stats.ACFResult      `json:"acf"`
	PACF     []float64             `json:"pacf"`
	LjungBox *stats.LjungBoxResult `json:"ljung_box,omitempty"`
	ADF      *stats.ADFResult      `json:"adf,omitempty"`
	KPSS     *stats.KPSSResult     `json:"kpss,omitempty"`
	NDiffs   int                   `json:"ndiffs"`
}

func newACFCommand(a *app) *cobra.Command {
	var (
		sf     seriesFlags
		maxLag int
		lags   int
	)

	cmd := &cobra.Command{
		Use:   "acf FILE",
		Short: "Autocorrelation and partial autocorrelation of a series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			series, err := sf.load(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("max-lag") {
				maxLag = a.cfg.MaxLag
			}

			res, err := stats.Autocorrelation(series, maxLag)
			if err != nil {
				return err
			}
			out := acfOutput{ACF: res, PACF: stats.PACF(series, maxLag)}
			if lags > 0 {
				if out.LjungBox, err = stats.LjungBox(series, lags, 0); err != nil {
					return err
				}
			}
			if out.ADF, err = stats.ADF(series, -1); err != nil {
				a.log.WithError(err).Debug("ADF test skipped")
			}
			if out.KPSS, err = stats.KPSS(series, stats.KPSSLevel, -1); err != nil {
				a.log.WithError(err).Debug("KPSS test skipped")
			}
			out.NDiffs = stats.NDiffs(series, 2)

			a.log.WithFields(logrus.Fields{
				"file":        args[0],
				"significant": len(stats.SignificantLags(res.Values, res.Conf95)),
			}).Info("autocorrelation")
			return a.write(out)
		},
	}

	sf.register(cmd)
	cmd.Flags().IntVar(&maxLag, "max-lag", 40, "Largest lag (negative for all)")
	cmd.Flags().IntVar(&lags, "ljung-box", 10, "Lags of the Ljung-Box test (0 to skip)")
	return cmd
}

type controlOutput struct {
	Limits *stats.ControlLimits `json:"limits"`
	Values []float64            `json:"values"`
	SES    []float64            `json:"ses,omitempty"`
}

func newControlCommand(a *app) *cobra.Command {
	var (
		sf    seriesFlags
		alpha float64
	)

	cmd := &cobra.Command{
		Use:   "control FILE",
		Short: "Control chart limits of a series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			series, err := sf.load(args[0])
			if err != nil {
				return err
			}
			limits, err := stats.ControlChart(series)
			if err != nil {
				return err
			}

			out := controlOutput{Limits: limits, Values: series.Values}
			if alpha > 0 {
				out.SES = stats.SESSeries(series.Values, alpha, false)
			}
			if n := len(limits.OutOfControl); n > 0 {
				a.log.WithFields(logrus.Fields{"file": args[0], "points": n}).Warn("out of control")
			}
			return a.write(out)
		},
	}

	sf.register(cmd)
	cmd.Flags().Float64Var(&alpha, "ses-alpha", 0, "Add simple exponential smoothing with this factor")
	return cmd
}

type decomposeOutput struct {
	Method   string                `json:"method"`
	Period   int                   `json:"period"`
	Observed []float64             `json:"observed"`
	Trend    []*float64            `json:"trend"`
	Seasonal []float64             `json:"seasonal"`
	Residual []*float64            `json:"residual"`
	Test     *stats.LjungBoxResult `json:"residual_test,omitempty"`
	Strength struct {
		Trend    float64 `json:"trend"`
		Seasonal float64 `json:"seasonal"`
	} `json:"strength"`
}

func newDecomposeCommand(a *app) *cobra.Command {
	var (
		sf   seriesFlags
		opts stats.DecomposeOptions
	)

	cmd := &cobra.Command{
		Use:   "decompose FILE",
		Short: "Split a series into trend, seasonal and residual components",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			series, err := sf.load(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("period") {
				opts.Period = a.cfg.Period
			}

			d, err := stats.Decompose(series, opts)
			if err != nil {
				return err
			}
			out := decomposeOutput{
				Method:   d.Method,
				Period:   d.Period,
				Observed: d.Observed.Values,
				Trend:    nanToNull(d.Trend.Values),
				Seasonal: d.Seasonal.Values,
				Residual: nanToNull(d.Residual.Values),
			}
			out.Strength.Trend = d.TrendStrength()
			out.Strength.Seasonal = d.SeasonalStrength()
			if test, err := d.ResidualTest(2 * d.Period); err == nil {
				out.Test = test
			} else {
				a.log.WithError(err).Debug("residual test skipped")
			}
			return a.write(out)
		},
	}

	sf.register(cmd)
	flags := cmd.Flags()
	flags.IntVar(&opts.Period, "period", 12, "Observations per seasonal cycle")
	flags.StringVar(&opts.Method, "method", stats.MethodSTL, "stl or classical")
	flags.BoolVar(&opts.Log, "log", false, "Decompose the logarithm of the series")
	flags.BoolVar(&opts.Multiplicative, "multiplicative", false, "Multiplicative classical decomposition")
	return cmd
}

type polyfitOutput struct {
	X          string             `json:"x"`
	Y          string             `json:"y"`
	Selection  *polyfit.Selection `json:"selection,omitempty"`
	Fit        *polyfit.BaggedFit `json:"fit"`
	Validation []polyfit.Score    `json:"validation"`
}

func newPolyfitCommand(a *app) *cobra.Command {
	var (
		xName, yName string
		degree       int
		maxDegree    int
		samples      int
		bags         int
		seed         int64
	)

	cmd := &cobra.Command{
		Use:   "polyfit FILE",
		Short: "Bagged polynomial regression between two columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := timeseries.LoadTableCSV(args[0])
			if err != nil {
				return err
			}
			x, ok := table.Column(xName)
			if !ok {
				return errors.Errorf("column %q not found", xName)
			}
			y, ok := table.Column(yName)
			if !ok {
				return errors.Errorf("column %q not found", yName)
			}

			if !cmd.Flags().Changed("seed") {
				seed = time.Now().UnixNano()
			}
			rng := rand.New(rand.NewSource(seed))

			out := polyfitOutput{X: xName, Y: yName}
			if degree < 1 {
				if out.Selection, err = polyfit.SelectDegree(x.Values, y.Values, maxDegree, samples, rng); err != nil {
					return err
				}
				degree = out.Selection.Best
			}
			if out.Fit, err = polyfit.Bagged(x.Values, y.Values, degree, bags, 0.8, rng); err != nil {
				return err
			}
			out.Validation, err = polyfit.Validate(x.Values, y.Values, maxDegree, polyfit.ValidateOptions{
				Bagged: true,
				Rand:   rng,
			})
			if err != nil {
				return err
			}

			a.log.WithFields(logrus.Fields{
				"degree":    degree,
				"r_squared": out.Fit.RSquared,
				"seed":      seed,
			}).Info("polynomial fit")
			return a.write(out)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&xName, "x", "x", "", "Independent column")
	flags.StringVarP(&yName, "y", "y", "", "Dependent column")
	flags.IntVar(&degree, "degree", 0, "Polynomial degree (0 selects by cross validation)")
	flags.IntVar(&maxDegree, "max-degree", 3, "Highest degree considered")
	flags.IntVar(&samples, "samples", 20, "Cross validation samples per degree")
	flags.IntVar(&bags, "bags", 10, "Bootstrap fits averaged")
	flags.Int64Var(&seed, "seed", 0, "Random seed (default: time based)")
	cmd.MarkFlagRequired("x")
	cmd.MarkFlagRequired("y")
	return cmd
}

// nanToNull replaces NaN with nil so the slice encodes as JSON.
func nanToNull(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		if !math.IsNaN(values[i]) {
			out[i] = &values[i]
		}
	}
	return out
}
