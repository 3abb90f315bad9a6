package polyfit

import (
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// DefaultTestFraction is the share of points held out for testing.
const DefaultTestFraction = 0.2

// ErrNotEnoughPoints is returned when a fit has fewer points than
// coefficients.
var ErrNotEnoughPoints = errors.New("not enough points")

// Polynomial holds coefficients in ascending order: p[i] multiplies x^i.
type Polynomial []float64

// Degree is the degree of the polynomial.
func (p Polynomial) Degree() int {
	return len(p) - 1
}

// At evaluates the polynomial at x using Horner's scheme.
func (p Polynomial) At(x float64) float64 {
	y := 0.0
	for i := len(p) - 1; i >= 0; i-- {
		y = y*x + p[i]
	}
	return y
}

// Eval evaluates p at every x.
func Eval(p Polynomial, x []float64) []float64 {
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = p.At(v)
	}
	return y
}

// Fit returns the least squares polynomial of the given degree through the
// points (x[i], y[i]). Pairs with a NaN or infinite value are ignored.
func Fit(x, y []float64, degree int) (Polynomial, error) {
	if len(x) != len(y) {
		return nil, errors.Errorf("length mismatch: %d x values, %d y values", len(x), len(y))
	}
	if degree < 0 {
		return nil, errors.Errorf("invalid degree %d", degree)
	}
	x, y = finitePairs(x, y)
	if len(x) <= degree {
		return nil, errors.Wrapf(ErrNotEnoughPoints, "degree %d needs %d points, have %d",
			degree, degree+1, len(x))
	}

	a := mat.NewDense(len(x), degree+1, nil)
	for i, v := range x {
		p := 1.0
		for j := 0; j <= degree; j++ {
			a.Set(i, j, p)
			p *= v
		}
	}

	var c mat.VecDense
	if err := c.SolveVec(a, mat.NewVecDense(len(y), y)); err != nil {
		return nil, errors.Wrapf(err, "degree %d fit", degree)
	}
	return Polynomial(c.RawVector().Data), nil
}

// Split shuffles the points and holds out testFrac of them, rounded up, for
// testing. Both parts keep at least one point when there are two or more.
func Split(x, y []float64, testFrac float64, rng *rand.Rand) (trainX, trainY, testX, testY []float64) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	nTest := int(math.Ceil(testFrac * float64(n)))
	if n >= 2 {
		if nTest < 1 {
			nTest = 1
		}
		if nTest > n-1 {
			nTest = n - 1
		}
	}

	for i, j := range randOrDefault(rng).Perm(n) {
		if i < nTest {
			testX = append(testX, x[j])
			testY = append(testY, y[j])
		} else {
			trainX = append(trainX, x[j])
			trainY = append(trainY, y[j])
		}
	}
	return trainX, trainY, testX, testY
}

func finitePairs(x, y []float64) ([]float64, []float64) {
	fx := make([]float64, 0, len(x))
	fy := make([]float64, 0, len(y))
	for i := range x {
		if bad(x[i]) || bad(y[i]) {
			continue
		}
		fx = append(fx, x[i])
		fy = append(fy, y[i])
	}
	return fx, fy
}

func bad(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

func randOrDefault(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
