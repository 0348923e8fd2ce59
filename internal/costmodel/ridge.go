package costmodel

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DefaultAlpha is the L2 regularization strength.
const DefaultAlpha = 1.0

// ErrSingular is returned when the regularized normal equations cannot be
// factorized.
var ErrSingular = errors.New("ridge system is not positive definite")

// Ridge is an L2-regularized linear regression with an unpenalized intercept.
type Ridge struct {
	Alpha        float64   `json:"alpha"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

// FitRidge solves (XcᵀXc + αI)w = Xcᵀyc on column-centered data, where
// every row of x has the same width.
func FitRidge(x [][]float64, y []float64, alpha float64) (*Ridge, error) {
	n := len(x)
	if n == 0 || n != len(y) {
		return nil, fmt.Errorf("fit ridge: %d rows for %d targets", n, len(y))
	}
	p := len(x[0])

	xMean := make([]float64, p)
	var yMean float64
	for i, row := range x {
		if len(row) != p {
			return nil, fmt.Errorf("fit ridge: row %d has %d columns, want %d", i, len(row), p)
		}
		for j, v := range row {
			xMean[j] += v
		}
		yMean += y[i]
	}
	for j := range xMean {
		xMean[j] /= float64(n)
	}
	yMean /= float64(n)

	xc := mat.NewDense(n, p, nil)
	yc := mat.NewVecDense(n, nil)
	for i, row := range x {
		for j, v := range row {
			xc.Set(i, j, v-xMean[j])
		}
		yc.SetVec(i, y[i]-yMean)
	}

	var gram mat.Dense
	gram.Mul(xc.T(), xc)
	a := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			v := gram.At(i, j)
			if i == j {
				v += alpha
			}
			a.SetSym(i, j, v)
		}
	}

	b := mat.NewVecDense(p, nil)
	b.MulVec(xc.T(), yc)

	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return nil, ErrSingular
	}
	w := mat.NewVecDense(p, nil)
	if err := chol.SolveVecTo(w, b); err != nil {
		return nil, fmt.Errorf("fit ridge: %w", err)
	}

	r := &Ridge{Alpha: alpha, Coefficients: make([]float64, p)}
	r.Intercept = yMean
	for j := 0; j < p; j++ {
		r.Coefficients[j] = w.AtVec(j)
		r.Intercept -= xMean[j] * r.Coefficients[j]
	}
	return r, nil
}

// Predict evaluates the linear model on one feature vector.
func (r *Ridge) Predict(features []float64) float64 {
	out := r.Intercept
	for j, c := range r.Coefficients {
		if j < len(features) {
			out += c * features[j]
		}
	}
	return out
}
