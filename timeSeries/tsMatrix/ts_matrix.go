// Package tsMatrix 观测矩阵 Y (T×k)：行为时间，列为序列，列只按位置识别
package tsMatrix

import (
	"fmt"
	"math"

	"github.com/gonum/stat"
	"gonum.org/v1/gonum/mat"

	"usageforecast/infra/errorx"
	"usageforecast/infra/errorx/errCode"
)

// FromRows 二维切片转 mat.Dense，要求每行等长
func FromRows(rows [][]float64) (*mat.Dense, error) {
	T := len(rows)
	if T == 0 || len(rows[0]) == 0 {
		return nil, errorx.New(errCode.EMPTY_VALUE, "observation rows is empty")
	}
	k := len(rows[0])
	data := make([]float64, 0, T*k)
	for t, row := range rows {
		if len(row) != k {
			return nil, errorx.New(errCode.DIMENSION_MISMATCH, fmt.Sprintf("row %d: expected %d columns, got %d", t, k, len(row)))
		}
		data = append(data, row...)
	}
	return mat.NewDense(T, k, data), nil
}

// Validate 检查 NaN/Inf，缺失值需由调用方先填充
func Validate(y mat.Matrix) error {
	T, k := y.Dims()
	if T == 0 || k == 0 {
		return errorx.New(errCode.EMPTY_VALUE, "observation matrix is empty")
	}
	for t := 0; t < T; t++ {
		for j := 0; j < k; j++ {
			v := y.At(t, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errorx.New(errCode.PRECONDITION, fmt.Sprintf("non-finite value %v at row %d col %d", v, t, j))
			}
		}
	}
	return nil
}

// ColumnMean 列均值 mu
func ColumnMean(y mat.Matrix) []float64 {
	_, k := y.Dims()
	mu := make([]float64, k)
	for j := 0; j < k; j++ {
		mu[j] = stat.Mean(mat.Col(nil, j, y), nil)
	}
	return mu
}

// Center 返回新矩阵 Y - mu，不修改输入
func Center(y mat.Matrix, mu []float64) *mat.Dense {
	T, k := y.Dims()
	if len(mu) != k {
		panic(mat.ErrShape)
	}
	out := mat.NewDense(T, k, nil)
	for t := 0; t < T; t++ {
		row := out.RawRowView(t)
		for j := 0; j < k; j++ {
			row[j] = y.At(t, j) - mu[j]
		}
	}
	return out
}

// Uncenter 原地加回 mu
func Uncenter(y *mat.Dense, mu []float64) {
	T, k := y.Dims()
	if len(mu) != k {
		panic(mat.ErrShape)
	}
	for t := 0; t < T; t++ {
		row := y.RawRowView(t)
		for j := range row {
			row[j] += mu[j]
		}
	}
}

// Clone 深拷贝
func Clone(y mat.Matrix) *mat.Dense {
	return mat.DenseCopyOf(y)
}

// Rows mat.Dense 转二维切片（JSON 输出用）
func Rows(y mat.Matrix) [][]float64 {
	T, k := y.Dims()
	out := make([][]float64, T)
	for t := 0; t < T; t++ {
		out[t] = make([]float64, k)
		for j := 0; j < k; j++ {
			out[t][j] = y.At(t, j)
		}
	}
	return out
}
