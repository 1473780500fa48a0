package varma

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"usageforecast/infra/errorx"
	"usageforecast/infra/errorx/errCode"
	"usageforecast/timeSeries/tsMatrix"
)

// Predict 递推预测 steps 步，返回 steps×k（原始量纲）
// y 的列数和列顺序必须与 Fit 时一致；y 不会被修改
func (m *Model) Predict(y mat.Matrix, steps int) (*mat.Dense, error) {
	if steps < 1 {
		return nil, errorx.New(errCode.INVALID_PARAMETER, fmt.Sprintf("steps must be at least 1, got %d", steps))
	}
	yc, E, err := m.inSample(y)
	if err != nil {
		return nil, err
	}
	T, k := yc.Dims()

	// 扩展序列: 前 T 行为样本，预测值依次追加作为新的 AR 滞后
	ext := mat.NewDense(T+steps, k, nil)
	ext.Slice(0, T, 0, k).(*mat.Dense).Copy(yc)

	out := mat.NewDense(steps, k, nil)
	for s := 0; s < steps; s++ {
		row := out.RawRowView(s)
		// MA 输入固定为样本内残差尾部 E[T-1], E[T-2], ...
		oneStep(row, m.phi, ext, T+s, m.theta, E, T)
		copy(ext.RawRowView(T+s), row)
	}

	tsMatrix.Uncenter(out, m.mu)
	if err := finite("forecast", out.RawMatrix().Data...); err != nil {
		return nil, err
	}
	return out, nil
}

// Residuals 用拟合参数计算 y 的样本内残差，t < max(p,q) 的行为 0
func (m *Model) Residuals(y mat.Matrix) (*mat.Dense, error) {
	_, E, err := m.inSample(y)
	return E, err
}

func (m *Model) inSample(y mat.Matrix) (yc, E *mat.Dense, err error) {
	if !m.fitted {
		return nil, nil, errorx.New(errCode.NOT_FITTED, "model must be fitted before prediction")
	}
	if err := tsMatrix.Validate(y); err != nil {
		return nil, nil, err
	}
	T, k := y.Dims()
	if k != m.k {
		return nil, nil, errorx.New(errCode.DIMENSION_MISMATCH, fmt.Sprintf("model fitted on %d columns, got %d", m.k, k))
	}
	if start := m.order.start(); T < start {
		return nil, nil, errorx.New(errCode.INSUFFICIENT_DATA, fmt.Sprintf("%s needs at least %d rows, got %d", m.order, start, T))
	}

	yc = tsMatrix.Center(y, m.mu)
	if err := finite("centered", yc.RawMatrix().Data...); err != nil {
		return nil, nil, err
	}
	E = mat.NewDense(T, k, nil)
	residualRecursion(yc, m.phi, m.theta, E)
	return yc, E, nil
}
