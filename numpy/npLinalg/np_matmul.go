package npLinalg

import (
	"gonum.org/v1/gonum/mat"
)

// Dot 矩阵乘法 a·b，维度不符时 panic(mat.ErrShape)
func Dot(a, b mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Mul(a, b)
	return &out
}

// MatVec 计算 a·x，维度不符时 panic(mat.ErrShape)
func MatVec(a mat.Matrix, x []float64) []float64 {
	r, _ := a.Dims()
	out := mat.NewVecDense(r, nil)
	out.MulVec(a, mat.NewVecDense(len(x), x))
	return out.RawVector().Data
}

// AddVec dst += x，直接写入 dst 的底层数组
func AddVec(dst, x []float64) {
	d := mat.NewVecDense(len(dst), dst)
	d.AddVec(d, mat.NewVecDense(len(x), x))
}
