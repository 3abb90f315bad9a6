package polyfit

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func points(n int, f func(float64) float64) (x, y []float64) {
	for i := 0; i < n; i++ {
		v := float64(i)/float64(n-1)*4 - 2
		x = append(x, v)
		y = append(y, f(v))
	}
	return x, y
}

func TestFitRecoversQuadratic(t *testing.T) {
	x, y := points(20, func(v float64) float64 { return 1 + 2*v + 3*v*v })

	p, err := Fit(x, y, 2)
	require.NoError(t, err)
	require.Equal(t, 2, p.Degree())
	require.InDeltaSlice(t, []float64{1, 2, 3}, []float64(p), 1e-9)
}

func TestFitIgnoresMissing(t *testing.T) {
	x := []float64{0, 1, math.NaN(), 2, 3}
	y := []float64{1, 3, 7, 5, math.Inf(1)}

	p, err := Fit(x, y, 1)
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{1, 2}, []float64(p), 1e-9)
}

func TestFitErrors(t *testing.T) {
	_, err := Fit([]float64{1, 2}, []float64{1, 2}, 2)
	require.True(t, errors.Is(err, ErrNotEnoughPoints))

	_, err = Fit([]float64{1, 2}, []float64{1}, 1)
	require.Error(t, err)

	_, err = Fit([]float64{1, 2}, []float64{1, 2}, -1)
	require.Error(t, err)
}

func TestEval(t *testing.T) {
	p := Polynomial{1, 0, -1}
	require.Equal(t, []float64{1, 0, -3}, Eval(p, []float64{0, 1, 2}))
	require.Equal(t, 0.0, Polynomial{}.At(3))
}

func TestSplit(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	y := []float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}

	trainX, trainY, testX, testY := Split(x, y, 0.2, rand.New(rand.NewSource(3)))
	require.Len(t, testX, 2)
	require.Len(t, trainX, 8)

	all := append(append([]float64{}, trainX...), testX...)
	sort.Float64s(all)
	require.Equal(t, x, all)

	for i := range trainX {
		require.Equal(t, trainX[i]+10, trainY[i])
	}
	for i := range testX {
		require.Equal(t, testX[i]+10, testY[i])
	}
}

func TestSplitKeepsBothSides(t *testing.T) {
	trainX, _, testX, _ := Split([]float64{1, 2}, []float64{1, 2}, 0.9, nil)
	require.Len(t, trainX, 1)
	require.Len(t, testX, 1)
}

func TestFitCV(t *testing.T) {
	x, y := points(30, func(v float64) float64 { return 4 - v })

	cv, err := FitCV(x, y, 1, 0.2, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{4, -1}, []float64(cv.Coefficients), 1e-9)
	require.InDelta(t, 0, cv.MSE, 1e-18)
}

func TestSelectDegree(t *testing.T) {
	x, y := points(40, func(v float64) float64 { return v * v * v })

	s, err := SelectDegree(x, y, 3, 5, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	require.Equal(t, 3, s.Best)
	require.Len(t, s.Errors, 3)
	require.Len(t, s.Errors[0], 5)
	require.Greater(t, s.MeanErrors[0], s.MeanErrors[2])

	_, err = SelectDegree(x, y, 0, 5, nil)
	require.Error(t, err)
}

func TestBagged(t *testing.T) {
	x, y := points(50, func(v float64) float64 { return 2*v + 1 })

	b, err := Bagged(x, y, 1, 10, 0.8, rand.New(rand.NewSource(11)))
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{1, 2}, []float64(b.Coefficients), 1e-9)
	require.InDelta(t, 0, b.MSE, 1e-15)
	require.InDelta(t, 1, b.RSquared, 1e-12)
}

func TestBaggedTooFewPoints(t *testing.T) {
	_, err := Bagged([]float64{1, 2, 3}, []float64{1, 2, 3}, 2, 5, 0.5, nil)
	require.True(t, errors.Is(err, ErrNotEnoughPoints))
}

func TestValidate(t *testing.T) {
	x, y := points(50, func(v float64) float64 { return 3*v - 2 })

	for _, bagged := range []bool{false, true} {
		scores, err := Validate(x, y, 3, ValidateOptions{
			Bagged: bagged,
			Rand:   rand.New(rand.NewSource(5)),
		})
		require.NoError(t, err)
		require.Len(t, scores, 3)
		for i, s := range scores {
			require.Equal(t, i+1, s.Degree)
			require.InDelta(t, 0, s.MAE, 1e-8)
			require.InDelta(t, 0, s.RMSE, 1e-8)
		}
	}
}
