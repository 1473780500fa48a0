package npCorr

import (
	"usageforecast/infra/errorx"
	"usageforecast/infra/errorx/errCode"
)

// Correlate 对应 np.correlate(a, v, mode)
// full 模式: c[k] = Σ_n a[n+k-(m-1)]·v[n]，k = 0..n+m-2
// 下标 m-1+τ 即为滞后 τ 的互相关
func Correlate(a, v []float64, mode CORRELATE_MODE) ([]float64, error) {
	n, m := len(a), len(v)
	if n == 0 || m == 0 {
		return nil, errorx.New(errCode.EMPTY_VALUE, "input length is not enough")
	}
	if mode != FULL_MODE && mode != VALID_MODE && mode != SAME_MODE {
		return nil, errorx.New(errCode.INVALID_VALUE, "invalid mode, expected 'full', 'same' or 'valid'")
	}
	if mode == VALID_MODE && m > n {
		return []float64{}, errorx.New(errCode.INVALID_VALUE, "valid mode requires len(v) <= len(a)")
	}

	var outLen, start int
	switch mode {
	case FULL_MODE:
		outLen = n + m - 1
	case VALID_MODE:
		outLen = n - m + 1
		start = m - 1
	case SAME_MODE:
		// 与 numpy 一致: 取 full 结果中以短序列中心对齐的一段
		outLen = max(n, m)
		start = (min(n, m) - 1) - min(n, m)/2
	}

	out := make([]float64, outLen)
	for i := 0; i < outLen; i++ {
		shift := i + start - (m - 1)
		sum := 0.0
		for j := 0; j < m; j++ {
			ai := j + shift
			if ai >= 0 && ai < n {
				sum += a[ai] * v[j]
			}
		}
		out[i] = sum
	}

	return out, nil
}

type CORRELATE_MODE uint

const (
	FULL_MODE CORRELATE_MODE = iota
	VALID_MODE
	SAME_MODE
)
