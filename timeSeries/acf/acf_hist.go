package acf

import "math"

// residualBins 残差分布的默认分箱数
const residualBins = 10

// HistogramBin 左闭右开，最后一个箱右闭
type HistogramBin struct {
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Count int     `json:"count"`
}

// Hist 等宽分箱，NaN/Inf 不计入
func Hist(data []float64, bins int) []HistogramBin {
	if bins <= 0 {
		return nil
	}

	// 1. 有限值的最小最大
	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	if math.IsInf(minV, 1) {
		return nil
	}

	// 常数序列同 numpy: 区间扩成 [v-0.5, v+0.5]
	if maxV == minV {
		minV -= 0.5
		maxV += 0.5
	}

	// 2. 分箱
	width := (maxV - minV) / float64(bins)
	result := make([]HistogramBin, bins)
	for i := range result {
		result[i].From = minV + float64(i)*width
		result[i].To = minV + float64(i+1)*width
	}
	result[bins-1].To = maxV

	// 3. 计数
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		idx := int(math.Floor((v - minV) / width))
		if idx >= bins {
			idx = bins - 1
		}
		if idx < 0 {
			idx = 0
		}
		result[idx].Count++
	}
	return result
}
