package acf

import (
	"fmt"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"usageforecast/infra/errorx"
	"usageforecast/infra/errorx/errCode"
)

type LjungBoxResult struct {
	Q      float64   // 统计量
	DF     int       // 自由度 lags - fitDf
	PValue float64   // p值
	Reject bool      // 拒绝原假设 => 残差存在自相关
	ACF    []float64 // 1..lags 的样本自相关 r_k
}

// Ljung-Box检验
// 样本自相关系数: rk = Σ((rt - rmean)(rt-k - rmean)) / Σ((rt - rmean)^2)
// Ljung-Box统计量: Q = n(n+2)Σ(rk^2/(n-k))  k=1~lags
// Q服从自由度为 lags-fitDf 的卡方分布
func LjungBox(resid []float64, lags, fitDf int, alpha float64) (LjungBoxResult, error) {
	n := len(resid)
	if lags <= 0 {
		return LjungBoxResult{}, errorx.New(errCode.INVALID_VALUE, "lags must be > 0")
	}
	if n <= lags {
		return LjungBoxResult{}, errorx.New(errCode.INVALID_VALUE, fmt.Sprintf("样本量过小(n=%d, lags=%d), 无法进行Ljung-Box检验", n, lags))
	}
	df := lags - fitDf
	if df <= 0 {
		return LjungBoxResult{}, errorx.New(errCode.INVALID_VALUE, fmt.Sprintf("自由度 df=%d 非法", df))
	}

	acf, err := AutoCorr(resid, lags+1)
	if err != nil {
		return LjungBoxResult{}, err
	}

	nf := float64(n)
	r := make([]float64, lags)
	Q := 0.0
	for k := 1; k <= lags; k++ {
		// acf[k] 以 σ²·(n-k) 归一化，换算回 Σ/Σ(u²)
		rk := acf[k] * (nf - float64(k)) / nf
		r[k-1] = rk
		Q += rk * rk / (nf - float64(k))
	}
	Q = nf * (nf + 2) * Q

	chi2 := distuv.ChiSquared{K: float64(df)}
	pValue := chi2.Survival(Q)
	return LjungBoxResult{
		Q:      Q,
		DF:     df,
		PValue: pValue,
		Reject: pValue < alpha,
		ACF:    r,
	}, nil
}

type ColumnDiagnostic struct {
	Column   int
	LjungBox LjungBoxResult
	Hist     []HistogramBin // 残差分布
	Err      error
}

// ColumnDiagnostics 对残差矩阵 E[start:] 每列做 Ljung-Box，列之间并行
func ColumnDiagnostics(E mat.Matrix, start, lags, fitDf int, alpha float64) []ColumnDiagnostic {
	T, k := E.Dims()
	results := make([]ColumnDiagnostic, k)
	if start >= T {
		for j := range results {
			results[j] = ColumnDiagnostic{Column: j, Err: errorx.New(errCode.INSUFFICIENT_DATA, "no residual rows")}
		}
		return results
	}

	numWorkers := min(runtime.NumCPU(), k)
	wg := sync.WaitGroup{}
	tasks := make(chan int, k)

	// 每个 worker 只写自己的下标
	worker := func() {
		defer wg.Done()
		for j := range tasks {
			col := make([]float64, T-start)
			for t := start; t < T; t++ {
				col[t-start] = E.At(t, j)
			}
			lb, err := LjungBox(col, lags, fitDf, alpha)
			results[j] = ColumnDiagnostic{Column: j, LjungBox: lb, Hist: Hist(col, residualBins), Err: err}
		}
	}

	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go worker()
	}
	for j := 0; j < k; j++ {
		tasks <- j
	}
	close(tasks)
	wg.Wait()

	return results
}
