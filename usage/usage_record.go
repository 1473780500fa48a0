package usage

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/mat"

	"usageforecast/infra/errorx"
	"usageforecast/infra/errorx/errCode"
)

const roundPlaces = 4

// Record 每个用户一条: User + Week_1..Week_T + Pred_Week_1..Pred_Week_S
type Record map[string]any

// Combine 合并历史与预测，列顺序与 tb.Keys 一致
func Combine(tb *Table, forecast mat.Matrix) ([]Record, error) {
	T, K := tb.Values.Dims()
	steps, fk := forecast.Dims()
	if fk != K {
		return nil, errorx.New(errCode.DIMENSION_MISMATCH, fmt.Sprintf("forecast has %d columns, table has %d", fk, K))
	}

	out := make([]Record, 0, K)
	for j, key := range tb.Keys {
		rec := make(Record, 1+T+steps)
		rec["User"] = key.Values()
		for t := 0; t < T; t++ {
			rec[fmt.Sprintf("Week_%d", t+1)] = Round(tb.Values.At(t, j))
		}
		for s := 0; s < steps; s++ {
			rec[fmt.Sprintf("Pred_Week_%d", s+1)] = Round(forecast.At(s, j))
		}
		out = append(out, rec)
	}
	return out, nil
}

// Prediction 单个用户单个预测周，字段名与前端 /get_predictions_data 一致
type Prediction struct {
	User     string  `json:"nama_pemakai"`
	Category string  `json:"Kategori"`
	Location string  `json:"Wilayah"`
	Power    float64 `json:"daya_tersambung"`
	WeekPred int     `json:"week_pred"` // 从 1 开始
	Result   float64 `json:"prediction_result"`
}

// Predictions 展开成行，按 (Key, week_pred) 排列
func Predictions(tb *Table, forecast mat.Matrix) ([]Prediction, error) {
	steps, fk := forecast.Dims()
	if fk != len(tb.Keys) {
		return nil, errorx.New(errCode.DIMENSION_MISMATCH, fmt.Sprintf("forecast has %d columns, table has %d", fk, len(tb.Keys)))
	}
	out := make([]Prediction, 0, steps*fk)
	for j, key := range tb.Keys {
		for s := 0; s < steps; s++ {
			out = append(out, Prediction{
				User:     key.User,
				Category: key.Category,
				Location: key.Location,
				Power:    key.Power,
				WeekPred: s + 1,
				Result:   Round(forecast.At(s, j)),
			})
		}
	}
	return out, nil
}

// Round 保留 4 位小数，NaN/Inf 原样返回
func Round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(roundPlaces).InexactFloat64()
}
