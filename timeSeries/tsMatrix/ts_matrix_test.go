package tsMatrix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"usageforecast/infra/errorx"
	"usageforecast/infra/errorx/errCode"
)

func TestFromRows(t *testing.T) {
	y, err := FromRows([][]float64{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)

	T, k := y.Dims()
	assert.Equal(t, 3, T)
	assert.Equal(t, 2, k)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}, {5, 6}}, Rows(y))

	_, err = FromRows([][]float64{{1, 2}, {3}})
	assert.True(t, errorx.Is(err, errCode.DIMENSION_MISMATCH))

	_, err = FromRows(nil)
	assert.True(t, errorx.Is(err, errCode.EMPTY_VALUE))
}

func TestValidateNonFinite(t *testing.T) {
	y := mat.NewDense(2, 2, []float64{1, 2, math.NaN(), 4})
	assert.True(t, errorx.Is(Validate(y), errCode.PRECONDITION))

	y.Set(1, 0, math.Inf(-1))
	assert.True(t, errorx.Is(Validate(y), errCode.PRECONDITION))

	y.Set(1, 0, 3)
	assert.NoError(t, Validate(y))
}

func TestCenterRoundTrip(t *testing.T) {
	y := mat.NewDense(4, 2, []float64{
		2, 10,
		4, 10,
		6, 10,
		8, 10,
	})
	before := Clone(y)

	mu := ColumnMean(y)
	assert.Equal(t, []float64{5, 10}, mu)

	yc := Center(y, mu)
	assert.Equal(t, []float64{-3, -1, 1, 3}, mat.Col(nil, 0, yc))
	assert.Equal(t, []float64{0, 0, 0, 0}, mat.Col(nil, 1, yc))
	assert.True(t, mat.Equal(y, before), "Center must not modify input")

	Uncenter(yc, mu)
	assert.True(t, mat.Equal(y, yc))
}
