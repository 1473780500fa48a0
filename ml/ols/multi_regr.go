package ols

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"usageforecast/infra/errorx"
	"usageforecast/infra/errorx/errCode"
	"usageforecast/numpy/npLinalg"
)

type MultiOutputModel struct {
	Coeffs   *mat.Dense // 回归系数 (nx × ny)，每列对应一个因变量
	RSS      []float64  // 每列残差平方和
	RSquared []float64  // 每列 R²，TSS=0 时为 NaN
	Rank     int        // X 的有效秩
}

// MultiOutputRegression 多因变量 OLS: Y ≈ X·B，不加常数项
// X 共线或样本数少于自变量个数时返回最小范数解
func MultiOutputRegression(matX, matY *mat.Dense) (MultiOutputModel, error) {
	n, _ := matX.Dims()
	nY, ny := matY.Dims()
	if n == 0 || ny == 0 {
		return MultiOutputModel{}, errorx.New(errCode.EMPTY_VALUE, "输入数据为空")
	}
	if n != nY {
		return MultiOutputModel{}, errorx.New(errCode.DIMENSION_MISMATCH, fmt.Sprintf("数据长度不匹配 X=%d Y=%d", n, nY))
	}

	// B = X⁺·Y
	beta, rank, err := npLinalg.Lstsq(matX, matY)
	if err != nil {
		return MultiOutputModel{}, err
	}

	// 预测值 & 残差
	var yHat, resid mat.Dense
	yHat.Mul(matX, beta)
	resid.Sub(matY, &yHat)

	rss := make([]float64, ny)
	rSq := make([]float64, ny)
	ones := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		ones.SetVec(i, 1)
	}
	centered := mat.NewVecDense(n, nil)
	for j := 0; j < ny; j++ {
		// TSS = Σ(y - ȳ)²
		mean := stat.Mean(mat.Col(nil, j, matY), nil)
		centered.AddScaledVec(matY.ColView(j), -mean, ones)
		tss := mat.Dot(centered, centered)

		e := resid.ColView(j)
		rss[j] = mat.Dot(e, e)
		if tss == 0 {
			rSq[j] = math.NaN()
		} else {
			rSq[j] = 1 - rss[j]/tss
		}
	}

	return MultiOutputModel{
		Coeffs:   beta,
		RSS:      rss,
		RSquared: rSq,
		Rank:     rank,
	}, nil
}

// RankDeficient X 是否列不满秩
func (m MultiOutputModel) RankDeficient() bool {
	if m.Coeffs == nil {
		return false
	}
	nx, _ := m.Coeffs.Dims()
	return m.Rank < nx
}
