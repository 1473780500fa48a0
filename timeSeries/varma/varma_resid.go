package varma

import (
	"gonum.org/v1/gonum/mat"

	"usageforecast/numpy/npLinalg"
)

// residualRecursion 原地填充 E，t < max(p,q) 的行保持 0
// yc 为去均值序列，E 与 yc 同形
func residualRecursion(yc *mat.Dense, phi, theta []*mat.Dense, E *mat.Dense) {
	T, k := yc.Dims()
	start := max(len(phi), len(theta))

	yHat := make([]float64, k)
	for t := start; t < T; t++ {
		oneStep(yHat, phi, yc, t, theta, E, t)
		y := yc.RawRowView(t)
		e := E.RawRowView(t)
		for j := range e {
			e[j] = y[j] - yHat[j]
		}
	}
}

// oneStep 一步预测
// AR 输入取 y 的第 yEnd-1, yEnd-2, ... 行，MA 输入取 e 的第 eEnd-1, eEnd-2, ... 行
func oneStep(dst []float64, phi []*mat.Dense, y *mat.Dense, yEnd int, theta []*mat.Dense, e *mat.Dense, eEnd int) {
	for j := range dst {
		dst[j] = 0
	}
	for i, a := range phi {
		npLinalg.AddVec(dst, npLinalg.MatVec(a, y.RawRowView(yEnd-i-1)))
	}
	for j, b := range theta {
		npLinalg.AddVec(dst, npLinalg.MatVec(b, e.RawRowView(eEnd-j-1)))
	}
}
