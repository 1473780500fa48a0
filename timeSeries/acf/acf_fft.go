// 自相关 => 卷积 => FFT
// 自相关 C(τ) 就是 x 和翻转后的 x 做卷积
// 频域: C = IFFT(X·conj(X))，复杂度 O(N⋅maxLag) => O(NlogN)
package acf

import (
	"gonum.org/v1/gonum/dsp/fourier"

	"usageforecast/infra/errorx"
	"usageforecast/infra/errorx/errCode"
)

// AutoCorrFFT 与 AutoCorrSingeSegment 同样的归一化
func AutoCorrFFT(series []float64, maxLag int) ([]float64, error) {
	T := len(series)
	if T == 0 {
		return nil, errorx.New(errCode.EMPTY_VALUE, "input series empty")
	}
	if maxLag <= 0 {
		return nil, errorx.New(errCode.INVALID_VALUE, "maxLag must be > 0")
	}

	// ---------- Step 1: 去均值 + 零填充 ----------
	L := nextPow2(2 * T) // 避免 wrap-around
	seq := make([]float64, L)
	copy(seq, demean(series))

	// ---------- Step 2: 实数 FFT ----------
	fft := fourier.NewFFT(L)
	coeff := fft.Coefficients(nil, seq)

	// ---------- Step 3: |FFT|^2 ----------
	for i, c := range coeff {
		re, im := real(c), imag(c)
		coeff[i] = complex(re*re+im*im, 0)
	}

	// ---------- Step 4: IFFT，Sequence 结果需除以 L ----------
	acTime := fft.Sequence(nil, coeff)
	scale := 1.0 / float64(L)

	maxK := min(maxLag, T)
	varValue := acTime[0] * scale / float64(T)
	if err := checkVariance(varValue); err != nil {
		return nil, err
	}

	// ---------- Step 5: 标准化 ----------
	acf := make([]float64, maxK)
	for k := 0; k < maxK; k++ {
		acf[k] = acTime[k] * scale / (varValue * float64(T-k))
	}
	return acf, nil
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
