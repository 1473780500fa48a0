// Package varma 多元 VARMA(p,q) 估计与预测
//
//	ŷ[t] = Σ_{i<p} Φ[i]·Y[t-i-1] + Σ_{j<q} Θ[j]·E[t-j-1]     (Y 已去均值)
//	E[t] = Y[t] - ŷ[t],  t >= max(p,q)
//
// 估计为单次回归: 拟合时的残差递推在 Φ=Θ=0 下进行，E[t] 等于去均值后的序列，
// MA 回归的自变量因此是原序列滞后而非真实新息。不做迭代求精、极大似然、定阶与区间估计。
// 预测时 MA 项只使用样本内残差尾部，不随预测步更新，超过 q 步后为常数偏移。
package varma

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"usageforecast/infra/errorx"
	"usageforecast/infra/errorx/errCode"
	"usageforecast/timeSeries/tsMatrix"
)

type Order struct {
	P int // AR 阶数
	Q int // MA 阶数
}

// 需要的最少历史行数 max(p,q)
func (o Order) start() int {
	return max(o.P, o.Q)
}

func (o Order) String() string {
	return fmt.Sprintf("VARMA(%d,%d)", o.P, o.Q)
}

// Model 拟合后只读，可并发 Predict
type Model struct {
	order  Order
	k      int          // 列数，predict 时必须一致
	mu     []float64    // 列均值
	phi    []*mat.Dense // p 个 k×k
	theta  []*mat.Dense // q 个 k×k
	fits   []LagFit     // 每个滞后回归的拟合质量，AR 在前
	fitted bool
}

// LagFit 单个滞后回归的结果
type LagFit struct {
	Term     string    // "ar" / "ma"
	Lag      int       // 从 1 开始
	Rank     int       // 设计矩阵有效秩
	RSS      []float64 // 每列残差平方和
	RSquared []float64 // 每列 R²，目标列为常数时为 NaN
}

func New(p, q int) (*Model, error) {
	if p < 0 || q < 0 {
		return nil, errorx.New(errCode.INVALID_PARAMETER, fmt.Sprintf("lag orders must be non-negative, got p=%d q=%d", p, q))
	}
	return &Model{order: Order{P: p, Q: q}}, nil
}

func (m *Model) Order() Order { return m.order }

func (m *Model) Fitted() bool { return m.fitted }

// K 拟合时的列数，未拟合为 0
func (m *Model) K() int { return m.k }

// Mu 返回均值向量的拷贝
func (m *Model) Mu() []float64 {
	if !m.fitted {
		return nil
	}
	out := make([]float64, len(m.mu))
	copy(out, m.mu)
	return out
}

// Phi 返回 AR 系数矩阵的拷贝
func (m *Model) Phi() []*mat.Dense {
	if !m.fitted {
		return nil
	}
	return cloneAll(m.phi)
}

// Theta 返回 MA 系数矩阵的拷贝
func (m *Model) Theta() []*mat.Dense {
	if !m.fitted {
		return nil
	}
	return cloneAll(m.theta)
}

// LagFits 返回各滞后回归结果的拷贝
func (m *Model) LagFits() []LagFit {
	if !m.fitted {
		return nil
	}
	out := make([]LagFit, len(m.fits))
	for i, f := range m.fits {
		f.RSS = append([]float64(nil), f.RSS...)
		f.RSquared = append([]float64(nil), f.RSquared...)
		out[i] = f
	}
	return out
}

func cloneAll(ms []*mat.Dense) []*mat.Dense {
	out := make([]*mat.Dense, len(ms))
	for i, a := range ms {
		out[i] = tsMatrix.Clone(a)
	}
	return out
}

// 溢出检查: 极大的有限输入可能让均值或系数变成 Inf/NaN
func finite(what string, vs ...float64) error {
	for i, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errorx.New(errCode.PRECONDITION, fmt.Sprintf("%s[%d] is not finite (%v), input values too large", what, i, v))
		}
	}
	return nil
}

func finiteAll(what string, ms []*mat.Dense) error {
	for i, a := range ms {
		if err := finite(fmt.Sprintf("%s%d", what, i+1), a.RawMatrix().Data...); err != nil {
			return err
		}
	}
	return nil
}

func zeros(n, k int) []*mat.Dense {
	out := make([]*mat.Dense, n)
	for i := range out {
		out[i] = mat.NewDense(k, k, nil)
	}
	return out
}
