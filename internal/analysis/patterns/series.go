package patterns

import (
	"math"
	"sort"

	"github.com/skalibog/bpsa/pkg/models"
)

// Вспомогательные функции для работы с ценовыми рядами.

func highsOf(candles []*models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

func lowsOf(candles []*models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}

func closesOf(candles []*models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// isTrailingMax сообщает, является ли значение максимумом скользящего окна
func isTrailingMax(values []float64, i, window int) bool {
	if i < window-1 {
		return false
	}
	for j := i - window + 1; j < i; j++ {
		if values[j] > values[i] {
			return false
		}
	}
	return true
}

// isTrailingMin сообщает, является ли значение минимумом скользящего окна
func isTrailingMin(values []float64, i, window int) bool {
	if i < window-1 {
		return false
	}
	for j := i - window + 1; j < i; j++ {
		if values[j] < values[i] {
			return false
		}
	}
	return true
}

// isLocalMax сообщает, является ли точка максимумом окрестности ±n
func isLocalMax(values []float64, i, n int) bool {
	for j := i - n; j <= i+n; j++ {
		if j < 0 || j >= len(values) || j == i {
			continue
		}
		if values[j] > values[i] {
			return false
		}
	}
	return true
}

// isLocalMin сообщает, является ли точка минимумом окрестности ±n
func isLocalMin(values []float64, i, n int) bool {
	for j := i - n; j <= i+n; j++ {
		if j < 0 || j >= len(values) || j == i {
			continue
		}
		if values[j] < values[i] {
			return false
		}
	}
	return true
}

// percentile возвращает p-й перцентиль значений с линейной интерполяцией
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func maxOf(values []float64) float64 {
	out := values[0]
	for _, v := range values[1:] {
		if v > out {
			out = v
		}
	}
	return out
}

func minOf(values []float64) float64 {
	out := values[0]
	for _, v := range values[1:] {
		if v < out {
			out = v
		}
	}
	return out
}

// linearFitXY рассчитывает линейную регрессию y(x) и коэффициент корреляции
func linearFitXY(xs, ys []float64) (slope, intercept, r float64) {
	n := float64(len(xs))
	if n < 2 {
		return 0, 0, 0
	}

	var sumX, sumY, sumXY, sumXX, sumYY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
		sumYY += ys[i] * ys[i]
	}

	denomX := n*sumXX - sumX*sumX
	if denomX == 0 {
		return 0, sumY / n, 0
	}

	slope = (n*sumXY - sumX*sumY) / denomX
	intercept = (sumY - slope*sumX) / n

	denomY := n*sumYY - sumY*sumY
	if denomY <= 0 {
		// Нулевая дисперсия y: корреляция не определена
		return slope, intercept, 0
	}
	r = (n*sumXY - sumX*sumY) / math.Sqrt(denomX*denomY)
	return slope, intercept, r
}

// fitAtIndexes строит регрессию значений по их индексам в ряду
func fitAtIndexes(indexes []int, values []float64) (slope, r float64) {
	xs := make([]float64, len(indexes))
	ys := make([]float64, len(indexes))
	for i, idx := range indexes {
		xs[i] = float64(idx)
		ys[i] = values[idx]
	}
	slope, _, r = linearFitXY(xs, ys)
	return slope, r
}

// clusterNear сообщает, есть ли кластер ликвидаций в пределах tolerance от цены
func clusterNear(clusters []*models.LiquidationCluster, price, tolerance float64) bool {
	for _, c := range clusters {
		if math.Abs(c.Price-price)/price <= tolerance {
			return true
		}
	}
	return false
}
