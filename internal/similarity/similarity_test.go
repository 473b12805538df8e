package similarity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float64{1, 0, 1}, []float64{1, 0, 1}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, 0.7071, Cosine([]float64{1, 0}, []float64{1, 1}), 1e-4)
}

func TestCosine_OppositeVectorsClampToZero(t *testing.T) {
	assert.Zero(t, Cosine([]float64{1, 2}, []float64{-1, -2}))
}

func TestCosine_DegradedInputs(t *testing.T) {
	assert.Zero(t, Cosine(nil, nil))
	assert.Zero(t, Cosine([]float64{1, 2}, []float64{1, 2, 3}))
	assert.Zero(t, Cosine([]float64{0, 0}, []float64{1, 1}))
}

func TestEuclidean(t *testing.T) {
	assert.Zero(t, Euclidean([]float64{1, 2, 3}, []float64{1, 2, 3}))
	assert.InDelta(t, 5.0, Euclidean([]float64{0, 0}, []float64{3, 4}), 1e-9)
	assert.InDelta(t, 1.0, Euclidean([]float64{1, 0, 0}, []float64{0, 0, 0}), 1e-9)
}

func TestEuclidean_DegradedInputsAreInfinite(t *testing.T) {
	assert.True(t, math.IsInf(Euclidean(nil, nil), 1))
	assert.True(t, math.IsInf(Euclidean([]float64{1, 2}, []float64{1, 2, 3}), 1))
}
