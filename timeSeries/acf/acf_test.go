package acf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"usageforecast/infra/errorx"
	"usageforecast/infra/errorx/errCode"
)

func TestAutoCorrSingeSegment(t *testing.T) {
	acf, err := AutoCorrSingeSegment([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)
	require.Len(t, acf, 3)

	// u = [-2 -1 0 1 2], σ² = 2
	assert.InDelta(t, 1.0, acf[0], 1e-12)
	assert.InDelta(t, 4.0/(2*4), acf[1], 1e-12)
	assert.InDelta(t, -1.0/(2*3), acf[2], 1e-12)
}

func TestAutoCorrFFTMatchesDirect(t *testing.T) {
	series := make([]float64, 300)
	for i := range series {
		series[i] = math.Sin(float64(i)/5) + float64(i%7)/10
	}

	direct, err := AutoCorrSingeSegment(series, 20)
	require.NoError(t, err)
	fft, err := AutoCorrFFT(series, 20)
	require.NoError(t, err)

	require.Len(t, fft, len(direct))
	for k := range direct {
		assert.InDelta(t, direct[k], fft[k], 1e-9, "lag %d", k)
	}
}

func TestAutoCorrZeroVariance(t *testing.T) {
	_, err := AutoCorrSingeSegment([]float64{0, 0, 0, 0}, 2)
	assert.Error(t, err)
	_, err = AutoCorrFFT([]float64{0, 0, 0, 0}, 2)
	assert.Error(t, err)
}

// 方差非零但低于阈值，两条路径给出同样的结果
func TestAutoCorrTinyVarianceSameRule(t *testing.T) {
	tiny := []float64{0, 1e-160, 0, 1e-160, 0, 1e-160}
	_, errDirect := AutoCorrSingeSegment(tiny, 2)
	_, errFFT := AutoCorrFFT(tiny, 2)
	assert.True(t, errorx.Is(errDirect, errCode.INVALID_VALUE), "direct: %v", errDirect)
	assert.True(t, errorx.Is(errFFT, errCode.INVALID_VALUE), "fft: %v", errFFT)

	long := make([]float64, fftThreshold+10)
	for i := range long {
		long[i] = 2
	}
	_, err := AutoCorr(long, 3)
	assert.True(t, errorx.Is(err, errCode.INVALID_VALUE))
}

func TestLjungBoxKnownValue(t *testing.T) {
	// r1 = 0.4, Q = 5·7·0.16/4 = 1.4
	lb, err := LjungBox([]float64{1, 2, 3, 4, 5}, 1, 0, 0.05)
	require.NoError(t, err)
	assert.InDelta(t, 1.4, lb.Q, 1e-12)
	assert.Equal(t, 1, lb.DF)
	assert.InDelta(t, 0.4, lb.ACF[0], 1e-12)
	assert.InDelta(t, 0.2367, lb.PValue, 1e-3)
	assert.False(t, lb.Reject)
}

func TestLjungBoxDetectsAutocorrelation(t *testing.T) {
	series := make([]float64, 200)
	for i := range series {
		series[i] = math.Sin(float64(i) / 8)
	}
	lb, err := LjungBox(series, 10, 0, 0.05)
	require.NoError(t, err)
	assert.True(t, lb.Reject)
	t.Log("Q:", lb.Q, "p:", lb.PValue)
}

func TestLjungBoxInvalid(t *testing.T) {
	_, err := LjungBox([]float64{1, 2, 3}, 3, 0, 0.05)
	assert.Error(t, err)
	_, err = LjungBox([]float64{1, 2, 3, 4, 5}, 2, 2, 0.05)
	assert.Error(t, err)
}

func TestColumnDiagnostics(t *testing.T) {
	T := 60
	E := mat.NewDense(T, 3, nil)
	for i := 1; i < T; i++ {
		E.Set(i, 0, math.Sin(float64(i)/4))
		E.Set(i, 1, float64((i*7)%11)-5)
		// 第三列全 0，方差为 0
	}

	diag := ColumnDiagnostics(E, 1, 5, 0, 0.05)
	require.Len(t, diag, 3)
	for j, d := range diag {
		assert.Equal(t, j, d.Column)
	}
	assert.NoError(t, diag[0].Err)
	assert.True(t, diag[0].LjungBox.Reject)
	assert.NoError(t, diag[1].Err)
	assert.Error(t, diag[2].Err)
	// 诊断失败也给出分布
	require.Len(t, diag[2].Hist, residualBins)
	assert.Equal(t, T-1, diag[2].Hist[residualBins/2].Count)

	none := ColumnDiagnostics(E, T, 5, 0, 0.05)
	assert.Error(t, none[0].Err)
}

func TestHist(t *testing.T) {
	h := Hist([]float64{0, 1, 2, 3, 4, math.NaN()}, 4)
	require.Len(t, h, 4)
	assert.Equal(t, []int{1, 1, 1, 2}, []int{h[0].Count, h[1].Count, h[2].Count, h[3].Count})
	assert.InDelta(t, 0.0, h[0].From, 1e-12)
	assert.InDelta(t, 4.0, h[3].To, 1e-12)

	// 常数
	c := Hist([]float64{2, 2, 2}, 2)
	require.Len(t, c, 2)
	assert.InDelta(t, 1.5, c[0].From, 1e-12)
	assert.Equal(t, 0, c[0].Count)
	assert.Equal(t, 3, c[1].Count)

	assert.Nil(t, Hist(nil, 3))
	assert.Nil(t, Hist([]float64{1}, 0))
}
