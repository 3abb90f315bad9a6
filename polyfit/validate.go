package polyfit

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/goeda/stats"
)

// CrossValidated is a fit on a training split scored on the held out points.
type CrossValidated struct {
	Coefficients Polynomial `json:"coefficients"`
	MSE          float64    `json:"mse"` // Test mean squared error
}

// FitCV fits a polynomial on a random training split and scores it on the
// remaining testFrac of the points.
func FitCV(x, y []float64, degree int, testFrac float64, rng *rand.Rand) (*CrossValidated, error) {
	x, y = finitePairs(x, y)
	trainX, trainY, testX, testY := Split(x, y, testFrac, rng)
	p, err := Fit(trainX, trainY, degree)
	if err != nil {
		return nil, err
	}
	return &CrossValidated{
		Coefficients: p,
		MSE:          stats.MSE(testY, Eval(p, testX)),
	}, nil
}

// Selection is the outcome of SelectDegree.
type Selection struct {
	Best int `json:"best"`

	// Errors[d-1] holds the test MSE of every sample for degree d.
	Errors [][]float64 `json:"errors"`
	// MeanErrors[d-1] is the average of Errors[d-1].
	MeanErrors []float64 `json:"mean_errors"`
}

// SelectDegree cross validates degrees 1 to maxDegree over the given number
// of random splits and picks the degree with the lowest mean test error.
// Ties go to the lower degree.
func SelectDegree(x, y []float64, maxDegree, samples int, rng *rand.Rand) (*Selection, error) {
	if maxDegree < 1 {
		return nil, errors.Errorf("invalid max degree %d", maxDegree)
	}
	if samples < 1 {
		return nil, errors.Errorf("invalid sample count %d", samples)
	}
	rng = randOrDefault(rng)

	s := &Selection{
		Errors:     make([][]float64, maxDegree),
		MeanErrors: make([]float64, maxDegree),
	}
	for i := 0; i < samples; i++ {
		for d := 1; d <= maxDegree; d++ {
			cv, err := FitCV(x, y, d, DefaultTestFraction, rng)
			if err != nil {
				return nil, errors.Wrapf(err, "sample %d", i)
			}
			s.Errors[d-1] = append(s.Errors[d-1], cv.MSE)
		}
	}

	best := math.Inf(1)
	for d := range s.Errors {
		s.MeanErrors[d] = stat.Mean(s.Errors[d], nil)
		if s.MeanErrors[d] < best {
			best = s.MeanErrors[d]
			s.Best = d + 1
		}
	}
	if s.Best == 0 {
		return nil, errors.New("no degree produced a finite error")
	}
	return s, nil
}

// BaggedFit is a polynomial averaged over bootstrap fits.
type BaggedFit struct {
	Coefficients Polynomial `json:"coefficients"`
	MSE          float64    `json:"mse"`       // Test mean squared error
	RSquared     float64    `json:"r_squared"` // On the training points
}

// Bagged holds out a test split, fits the polynomial on the given number of
// bootstrap samples of the training points, each frac of the training size
// and drawn with replacement, and averages the coefficients.
func Bagged(x, y []float64, degree, bags int, frac float64, rng *rand.Rand) (*BaggedFit, error) {
	if bags < 1 {
		return nil, errors.Errorf("invalid bag count %d", bags)
	}
	rng = randOrDefault(rng)
	x, y = finitePairs(x, y)
	trainX, trainY, testX, testY := Split(x, y, DefaultTestFraction, rng)

	p, err := bag(trainX, trainY, degree, bags, frac, true, rng)
	if err != nil {
		return nil, err
	}
	return &BaggedFit{
		Coefficients: p,
		MSE:          stats.MSE(testY, Eval(p, testX)),
		RSquared:     stat.RSquaredFrom(Eval(p, trainX), trainY, nil),
	}, nil
}

func bag(x, y []float64, degree, bags int, frac float64, replace bool, rng *rand.Rand) (Polynomial, error) {
	size := int(math.Round(frac * float64(len(x))))
	if size <= degree {
		return nil, errors.Wrapf(ErrNotEnoughPoints, "bags of %d points for degree %d", size, degree)
	}

	sum := make([]float64, degree+1)
	sx := make([]float64, size)
	sy := make([]float64, size)
	for b := 0; b < bags; b++ {
		if replace {
			for i := range sx {
				j := rng.Intn(len(x))
				sx[i], sy[i] = x[j], y[j]
			}
		} else {
			for i, j := range rng.Perm(len(x))[:size] {
				sx[i], sy[i] = x[j], y[j]
			}
		}
		p, err := Fit(sx, sy, degree)
		if err != nil {
			return nil, errors.Wrapf(err, "bag %d", b)
		}
		floats.Add(sum, p)
	}
	floats.Scale(1/float64(bags), sum)
	return Polynomial(sum), nil
}

// ValidateOptions configures Validate.
type ValidateOptions struct {
	Bagged bool    // Average fits over subsamples of the training split
	Bags   int     // Subsamples when Bagged (default: 5)
	Frac   float64 // Subsample share of the training split (default: 0.75)
	Rand   *rand.Rand
}

// Score is the test error of one degree.
type Score struct {
	Degree int     `json:"degree"`
	MAE    float64 `json:"mae"`
	RMSE   float64 `json:"rmse"`
}

// Validate scores polynomials of degree 1 to maxDegree on a held out split.
// With opts.Bagged the coefficients are averaged over subsamples drawn
// without replacement.
func Validate(x, y []float64, maxDegree int, opts ValidateOptions) ([]Score, error) {
	if maxDegree < 1 {
		return nil, errors.Errorf("invalid max degree %d", maxDegree)
	}
	if opts.Bags < 1 {
		opts.Bags = 5
	}
	if opts.Frac <= 0 || opts.Frac > 1 {
		opts.Frac = 0.75
	}
	rng := randOrDefault(opts.Rand)
	x, y = finitePairs(x, y)

	scores := make([]Score, 0, maxDegree)
	for d := 1; d <= maxDegree; d++ {
		trainX, trainY, testX, testY := Split(x, y, DefaultTestFraction, rng)

		var p Polynomial
		var err error
		if opts.Bagged {
			p, err = bag(trainX, trainY, d, opts.Bags, opts.Frac, false, rng)
		} else {
			p, err = Fit(trainX, trainY, d)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "degree %d", d)
		}

		yhat := Eval(p, testX)
		scores = append(scores, Score{
			Degree: d,
			MAE:    stats.MAE(testY, yhat),
			RMSE:   stats.RMSE(testY, yhat),
		})
	}
	return scores, nil
}
