package varma

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"usageforecast/infra/errorx"
	"usageforecast/infra/errorx/errCode"
	"usageforecast/infra/observe/log/staticLog"
	"usageforecast/ml/ols"
	"usageforecast/timeSeries/tsMatrix"
)

// Fit 从 T×k 历史矩阵估计 mu、Φ、Θ，要求 T > max(p,q)
// 输入不会被修改
func (m *Model) Fit(y mat.Matrix) error {
	if err := tsMatrix.Validate(y); err != nil {
		return err
	}
	T, k := y.Dims()
	p, q := m.order.P, m.order.Q
	start := m.order.start()
	if T <= start {
		return errorx.New(errCode.INSUFFICIENT_DATA, fmt.Sprintf("%s needs more than %d rows, got %d", m.order, start, T))
	}

	// 1. 去均值
	mu := tsMatrix.ColumnMean(y)
	if err := finite("mu", mu...); err != nil {
		return err
	}
	yc := tsMatrix.Center(y, mu)
	if err := finite("centered", yc.RawMatrix().Data...); err != nil {
		return err
	}

	// 2. 参数置 0
	phi := zeros(p, k)
	theta := zeros(q, k)
	E := mat.NewDense(T, k, nil)

	// 3. 零参数下的残差递推，结果 E[t] = yc[t] (t >= start)
	residualRecursion(yc, phi, theta, E)

	fits := make([]LagFit, 0, p+q)

	// 4. AR: yc[t-i-1] -> yc[t]
	target := tsMatrix.Clone(yc.Slice(start, T, 0, k))
	for i := 0; i < p; i++ {
		coef, fit, err := regressLag(yc, target, start, i, "ar")
		if err != nil {
			return err
		}
		phi[i] = coef
		fits = append(fits, fit)
	}

	// 5. MA: E[t-j-1] -> E[t]
	eTarget := tsMatrix.Clone(E.Slice(start, T, 0, k))
	for j := 0; j < q; j++ {
		coef, fit, err := regressLag(E, eTarget, start, j, "ma")
		if err != nil {
			return err
		}
		theta[j] = coef
		fits = append(fits, fit)
	}
	if err := finiteAll("phi", phi); err != nil {
		return err
	}
	if err := finiteAll("theta", theta); err != nil {
		return err
	}

	// 6. 保存
	m.k = k
	m.mu = mu
	m.phi = phi
	m.theta = theta
	m.fits = fits
	m.fitted = true

	staticLog.Log.WithFields(logrus.Fields{
		"order": m.order.String(),
		"rows":  T,
		"cols":  k,
	}).Debug("varma fitted")
	return nil
}

// regressLag 设计矩阵为 src 的第 [start-lag-1, T-lag-1) 行，即每个 t 对应 src[t-lag-1]
// lstsq 解 X·B ≈ target 得到 B = Φᵀ，转置后 Φ 把滞后输入映射到输出
func regressLag(src, target *mat.Dense, start, lag int, term string) (*mat.Dense, LagFit, error) {
	T, k := src.Dims()
	X := tsMatrix.Clone(src.Slice(start-lag-1, T-lag-1, 0, k))

	model, err := ols.MultiOutputRegression(X, target)
	if err != nil {
		return nil, LagFit{}, err
	}
	if model.RankDeficient() {
		staticLog.Log.WithFields(logrus.Fields{
			"term": term,
			"lag":  lag + 1,
			"rank": model.Rank,
			"cols": k,
		}).Debug("rank-deficient design matrix, using minimum-norm solution")
	}
	fit := LagFit{
		Term:     term,
		Lag:      lag + 1,
		Rank:     model.Rank,
		RSS:      model.RSS,
		RSquared: model.RSquared,
	}
	return tsMatrix.Clone(model.Coeffs.T()), fit, nil
}
