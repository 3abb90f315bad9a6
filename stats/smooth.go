package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// SES is one step of simple exponential smoothing: the next forecast given
// the observation y and the previous forecast. The weighted-average form is
// alpha*y + (1-alpha)*prev; errorCorrection selects the algebraically
// equivalent error-correction form prev + alpha*(y-prev), kept for callers
// that use that formulation.
func SES(y, prev, alpha float64, errorCorrection bool) float64 {
	if errorCorrection {
		return prev + alpha*(y-prev)
	}
	return alpha*y + (1-alpha)*prev
}

// SESSeries smooths values with factor alpha. The result has one element more
// than values: element 0 is the first observation, element i+1 the forecast
// after observing values[i], so the last element is the one-step-ahead
// forecast.
func SESSeries(values []float64, alpha float64, errorCorrection bool) []float64 {
	if len(values) == 0 {
		return nil
	}
	out := make([]float64, 0, len(values)+1)
	out = append(out, values[0])
	for _, y := range values {
		out = append(out, SES(y, out[len(out)-1], alpha, errorCorrection))
	}
	return out
}

// RMSE is the root mean squared error between y and yhat. It panics if the
// lengths differ.
func RMSE(y, yhat []float64) float64 {
	if len(y) == 0 {
		return math.NaN()
	}
	return floats.Distance(y, yhat, 2) / math.Sqrt(float64(len(y)))
}

// MAE is the mean absolute error between y and yhat. It panics if the
// lengths differ.
func MAE(y, yhat []float64) float64 {
	if len(y) == 0 {
		return math.NaN()
	}
	return floats.Distance(y, yhat, 1) / float64(len(y))
}

// MSE is the mean squared error between y and yhat.
func MSE(y, yhat []float64) float64 {
	r := RMSE(y, yhat)
	return r * r
}
