package costmodel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearData() ([][]float64, []float64) {
	var x [][]float64
	var y []float64
	for i := 0; i < 20; i++ {
		a := float64(i)
		b := float64((i * 7) % 5)
		x = append(x, []float64{a, b})
		y = append(y, 3+2*a-b)
	}
	return x, y
}

func TestFitRidge_RecoversLinearRelation(t *testing.T) {
	x, y := linearData()

	r, err := FitRidge(x, y, 1e-8)
	require.NoError(t, err)
	require.Len(t, r.Coefficients, 2)
	assert.InDelta(t, 2.0, r.Coefficients[0], 1e-4)
	assert.InDelta(t, -1.0, r.Coefficients[1], 1e-4)
	assert.InDelta(t, 3.0, r.Intercept, 1e-3)
	assert.InDelta(t, 3+2*4.0-1, r.Predict([]float64{4, 1}), 1e-3)
}

func TestFitRidge_PenaltyShrinksCoefficients(t *testing.T) {
	x, y := linearData()

	loose, err := FitRidge(x, y, 1e-8)
	require.NoError(t, err)
	tight, err := FitRidge(x, y, 1000)
	require.NoError(t, err)

	norm := func(w []float64) float64 {
		var s float64
		for _, v := range w {
			s += v * v
		}
		return math.Sqrt(s)
	}
	assert.Less(t, norm(tight.Coefficients), norm(loose.Coefficients))
	assert.Equal(t, 1000.0, tight.Alpha)
}

func TestFitRidge_ConstantTarget(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}}
	y := []float64{5, 5, 5}

	r, err := FitRidge(x, y, DefaultAlpha)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, r.Coefficients[0], 1e-12)
	assert.InDelta(t, 5.0, r.Intercept, 1e-12)
}

func TestFitRidge_ShapeErrors(t *testing.T) {
	_, err := FitRidge(nil, nil, 1)
	assert.Error(t, err)

	_, err = FitRidge([][]float64{{1}, {2}}, []float64{1}, 1)
	assert.Error(t, err)

	_, err = FitRidge([][]float64{{1, 2}, {2}}, []float64{1, 2}, 1)
	assert.Error(t, err)
}
