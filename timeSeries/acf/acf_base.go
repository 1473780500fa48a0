package acf

import (
	"gonum.org/v1/gonum/stat"

	"usageforecast/infra/errorx"
	"usageforecast/infra/errorx/errCode"
	"usageforecast/numpy/npCorr"
)

// 单序列超过该长度时改用 FFT
const fftThreshold = 512

// 方差不超过该值视为常数序列，直接相关与 FFT 两条路径共用
const minVariance = 1e-300

func checkVariance(v float64) error {
	if v <= minVariance {
		return errorx.New(errCode.INVALID_VALUE, "variance is zero")
	}
	return nil
}

// AutoCorr 按长度选择直接相关或 FFT
func AutoCorr(series []float64, maxLag int) ([]float64, error) {
	if len(series) >= fftThreshold {
		return AutoCorrFFT(series, maxLag)
	}
	return AutoCorrSingeSegment(series, maxLag)
}

// 单一序列自相关函数
// acf[k] = Σ(u_t·u_{t+k}) / (σ²·(n-k))，k = 0..maxLag-1
func AutoCorrSingeSegment(series []float64, maxLag int) ([]float64, error) {
	n := len(series)
	if n == 0 {
		return nil, errorx.New(errCode.EMPTY_VALUE, "input series empty")
	}
	if maxLag <= 0 {
		return nil, errorx.New(errCode.INVALID_VALUE, "maxLag must be > 0")
	}

	u := demean(series)

	// full correlate
	acfFull, err := npCorr.Correlate(u, u, npCorr.FULL_MODE)
	if err != nil {
		return nil, err
	}

	// take positive lags: acf[n-1:]
	acf := acfFull[n-1:]
	if len(acf) > maxLag {
		acf = acf[:maxLag]
	}

	varValue := acf[0] / float64(n)
	if err := checkVariance(varValue); err != nil {
		return nil, err
	}

	// normalize: acf[k] /= var * (n-k)
	for k := 0; k < len(acf); k++ {
		acf[k] /= varValue * float64(n-k)
	}

	return acf, nil
}

func demean(series []float64) []float64 {
	mean := stat.Mean(series, nil)
	u := make([]float64, len(series))
	for i := range series {
		u[i] = series[i] - mean
	}
	return u
}
