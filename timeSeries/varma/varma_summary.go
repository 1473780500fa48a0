package varma

import (
	"gonum.org/v1/gonum/mat"

	"usageforecast/timeSeries/acf"
)

type Summary struct {
	Order     Order
	K         int
	NObs      int
	Mu        []float64
	Phi       []*mat.Dense
	Theta     []*mat.Dense
	Fits      []LagFit               // 每个滞后回归的秩与 R²
	Residuals []acf.ColumnDiagnostic // 每列残差的 Ljung-Box
}

// Summary 拟合参数 + 残差诊断，诊断失败记录在对应列的 Err 中
func (m *Model) Summary(y mat.Matrix, lags int, alpha float64) (*Summary, error) {
	E, err := m.Residuals(y)
	if err != nil {
		return nil, err
	}
	T, _ := E.Dims()

	return &Summary{
		Order:     m.order,
		K:         m.k,
		NObs:      T,
		Mu:        m.Mu(),
		Phi:       m.Phi(),
		Theta:     m.Theta(),
		Fits:      m.LagFits(),
		Residuals: acf.ColumnDiagnostics(E, m.order.start(), lags, 0, alpha),
	}, nil
}
