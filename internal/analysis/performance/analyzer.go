package performance

import (
	"math"

	"github.com/skalibog/bpsa/pkg/models"
)

// Квантиль нормального распределения для 95% интервала Уилсона
const wilsonZ = 1.96

// Фиксированная поправка на безрисковую ставку в процентных пунктах.
// Формула сохранена в исходном виде: единицы (на сделку / годовые)
// в ней не согласованы, это известная неоднозначность.
const riskFreeOffset = 2.0

// Минимум сделок для содержательного интервала Уилсона
const minTradesForInterval = 10

// Analyzer агрегирует закрытые сделки одного направления
// в статистику доходности
type Analyzer struct{}

// NewAnalyzer создает анализатор доходности
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze рассчитывает статистику по списку закрытых сделок.
// Пустой список дает нулевой результат с интервалом (0, 0), а не ошибку.
// Вырожденные случаи закрываются документированными значениями:
// нулевые убытки - бесконечный профит-фактор, нулевая дисперсия -
// нулевой Шарп, нулевая просадка - нулевые производные коэффициенты.
func (a *Analyzer) Analyze(direction models.TradeDirection, trades []*models.SimulationTrade) *models.WinRatioAnalysis {
	result := &models.WinRatioAnalysis{Direction: direction}
	if len(trades) == 0 {
		return result
	}

	var winSum, lossSum, totalPnL float64
	var pnlPercents []float64

	consecutiveWins, consecutiveLosses := 0, 0
	for _, t := range trades {
		totalPnL += t.PnL
		pnlPercents = append(pnlPercents, t.PnLPercent)

		if t.PnL > 0 {
			result.WinningTrades++
			winSum += t.PnL
			consecutiveWins++
			consecutiveLosses = 0
			if consecutiveWins > result.MaxConsecutiveWins {
				result.MaxConsecutiveWins = consecutiveWins
			}
		} else {
			result.LosingTrades++
			lossSum += t.PnL
			consecutiveLosses++
			consecutiveWins = 0
			if consecutiveLosses > result.MaxConsecutiveLosses {
				result.MaxConsecutiveLosses = consecutiveLosses
			}
		}
	}

	result.TotalTrades = len(trades)
	result.TotalPnL = totalPnL
	result.WinRatio = float64(result.WinningTrades) / float64(result.TotalTrades)

	if result.WinningTrades > 0 {
		result.AverageWin = winSum / float64(result.WinningTrades)
	}
	if result.LosingTrades > 0 {
		result.AverageLoss = math.Abs(lossSum) / float64(result.LosingTrades)
	}

	// Профит-фактор: бесконечность при нулевых убытках - это
	// документированное значение, а не ошибка
	if lossSum == 0 {
		if winSum > 0 {
			result.ProfitFactor = math.Inf(1)
		}
	} else {
		result.ProfitFactor = winSum / math.Abs(lossSum)
	}

	result.SharpeRatio, result.SortinoRatio = riskAdjustedRatios(pnlPercents)
	result.MaxDrawdown = maxDrawdown(trades)
	result.ConfidenceLow, result.ConfidenceHigh = wilsonInterval(result.WinRatio, result.TotalTrades)

	// Производные коэффициенты определены только при ненулевой просадке
	if result.MaxDrawdown > 0 {
		result.CalmarRatio = totalPnL / float64(result.TotalTrades) / result.MaxDrawdown
		result.RecoveryFactor = totalPnL / result.MaxDrawdown
		result.ProfitToDrawdown = winSum / result.MaxDrawdown
	}

	return result
}

// riskAdjustedRatios рассчитывает коэффициенты Шарпа и Сортино
// по ряду процентных доходностей сделок
func riskAdjustedRatios(pnlPercents []float64) (sharpe, sortino float64) {
	mean := 0.0
	for _, p := range pnlPercents {
		mean += p
	}
	mean /= float64(len(pnlPercents))

	stdev := populationStdev(pnlPercents, mean)
	if stdev > 0 {
		sharpe = (mean - riskFreeOffset) / stdev
	}

	// Сортино: в знаменателе только отрицательные наблюдения;
	// без них (или при их нулевом разбросе) падаем обратно на Шарпа
	var negatives []float64
	for _, p := range pnlPercents {
		if p < 0 {
			negatives = append(negatives, p)
		}
	}
	if len(negatives) == 0 {
		return sharpe, sharpe
	}

	negMean := 0.0
	for _, p := range negatives {
		negMean += p
	}
	negMean /= float64(len(negatives))

	downside := populationStdev(negatives, negMean)
	if downside == 0 {
		return sharpe, sharpe
	}
	sortino = (mean - riskFreeOffset) / downside
	return sharpe, sortino
}

// populationStdev рассчитывает стандартное отклонение генеральной
// совокупности (деление на n)
func populationStdev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// maxDrawdown рассчитывает максимальное снижение накопленного PnL
// от пикового значения в порядке следования сделок
func maxDrawdown(trades []*models.SimulationTrade) float64 {
	var cumulative, peak, maxDD float64
	for _, t := range trades {
		cumulative += t.PnL
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// wilsonInterval рассчитывает двусторонний интервал Уилсона для доли
// выигрышей. Менее десяти сделок - интервал вырождается в (0, 1).
func wilsonInterval(p float64, n int) (low, high float64) {
	if n < minTradesForInterval {
		return 0.0, 1.0
	}

	nf := float64(n)
	z2 := wilsonZ * wilsonZ

	denom := 1 + z2/nf
	center := (p + z2/(2*nf)) / denom
	margin := wilsonZ * math.Sqrt(p*(1-p)/nf+z2/(4*nf*nf)) / denom

	low = center - margin
	high = center + margin
	if low < 0 {
		low = 0
	}
	if high > 1 {
		high = 1
	}
	return low, high
}
