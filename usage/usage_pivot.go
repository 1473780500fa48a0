package usage

import (
	"fmt"
	"math"
	"slices"

	"github.com/bits-and-blooms/bitset"
	"gonum.org/v1/gonum/mat"

	"usageforecast/infra/errorx"
	"usageforecast/infra/errorx/errCode"
	"usageforecast/timeSeries/tsMatrix"
)

// Table 透视结果: 行为周(升序)，列为 Key(升序)，缺失填 0
type Table struct {
	Keys     []Key
	Weeks    []int
	Values   *mat.Dense
	observed *bitset.BitSet // 下标 t*len(Keys)+j
}

// Pivot rows -> weeks × keys
// 同一 (key, week) 出现两次时报错
func Pivot(rows []Row) (*Table, error) {
	if len(rows) == 0 {
		return nil, errorx.New(errCode.EMPTY_VALUE, "no usage rows")
	}

	keyIdx := make(map[Key]int)
	weekIdx := make(map[int]int)
	keys := make([]Key, 0)
	weeks := make([]int, 0)
	for _, r := range rows {
		k := r.Key()
		if _, ok := keyIdx[k]; !ok {
			keyIdx[k] = 0
			keys = append(keys, k)
		}
		if _, ok := weekIdx[r.Week]; !ok {
			weekIdx[r.Week] = 0
			weeks = append(weeks, r.Week)
		}
	}

	slices.SortFunc(keys, Key.Compare)
	slices.Sort(weeks)
	for j, k := range keys {
		keyIdx[k] = j
	}
	for t, w := range weeks {
		weekIdx[w] = t
	}

	T, K := len(weeks), len(keys)
	grid := make([][]float64, T)
	for t := range grid {
		grid[t] = make([]float64, K)
	}
	seen := bitset.New(uint(T * K))
	observed := bitset.New(uint(T * K))
	for _, r := range rows {
		t, j := weekIdx[r.Week], keyIdx[r.Key()]
		pos := uint(t*K + j)
		if seen.Test(pos) {
			return nil, errorx.New(errCode.INVALID_VALUE, fmt.Sprintf("duplicate usage for %s week %d", r.Key(), r.Week))
		}
		seen.Set(pos)
		// NaN 视为缺失，与未出现一样填 0
		if math.IsNaN(r.Usage) {
			continue
		}
		grid[t][j] = r.Usage
		observed.Set(pos)
	}

	values, err := tsMatrix.FromRows(grid)
	if err != nil {
		return nil, err
	}

	return &Table{Keys: keys, Weeks: weeks, Values: values, observed: observed}, nil
}

// Observed (t, j) 是否来自真实记录
func (tb *Table) Observed(t, j int) bool {
	return tb.observed.Test(uint(t*len(tb.Keys) + j))
}

// Missing 被填 0 的格子数
func (tb *Table) Missing() int {
	T, K := tb.Values.Dims()
	return T*K - int(tb.observed.Count())
}
