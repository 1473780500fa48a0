package npLinalg

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"usageforecast/infra/errorx"
	"usageforecast/infra/errorx/errCode"
)

// Lstsq 对应 np.linalg.lstsq(a, b, rcond=None)
// 用 SVD 求最小范数最小二乘解 x，使 ||a·x - b|| 最小且 ||x|| 最小
// 奇异值 <= eps·max(m,n)·σmax 视为 0，矩阵奇异/欠定时不会报错
// 返回: x (n×nrhs)，有效秩 rank
func Lstsq(a, b mat.Matrix) (*mat.Dense, int, error) {
	m, n := a.Dims()
	mb, nrhs := b.Dims()
	if m == 0 || n == 0 || nrhs == 0 {
		return nil, 0, errorx.New(errCode.EMPTY_VALUE, "lstsq: empty input matrix")
	}
	if mb != m {
		return nil, 0, errorx.New(errCode.DIMENSION_MISMATCH, fmt.Sprintf("lstsq: a has %d rows, b has %d rows", m, mb))
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, 0, errorx.New(errCode.INVALID_VALUE, "SVD分解失败")
	}

	var u, v mat.Dense
	svd.UTo(&u) // m×r
	svd.VTo(&v) // n×r
	sigma := svd.Values(nil)

	// Uᵀ·b，再逐行乘以 Σ⁺
	var utb mat.Dense
	utb.Mul(u.T(), b)

	tol := cutoff(sigma, m, n)
	rank := 0
	for i, s := range sigma {
		row := utb.RawRowView(i)
		if s > tol {
			rank++
			for j := range row {
				row[j] /= s
			}
			continue
		}
		for j := range row {
			row[j] = 0
		}
	}

	// x = V·Σ⁺·Uᵀ·b
	x := mat.NewDense(n, nrhs, nil)
	x.Mul(&v, &utb)
	return x, rank, nil
}

// 小奇异值截断阈值，与 numpy rcond=None 一致
func cutoff(sigma []float64, m, n int) float64 {
	if len(sigma) == 0 {
		return 0
	}
	return eps * float64(max(m, n)) * sigma[0]
}

var eps = math.Nextafter(1, 2) - 1
