package regime

import (
	"math"

	"github.com/markcheno/go-talib"
	"github.com/skalibog/bpsa/internal/config"
	"github.com/skalibog/bpsa/pkg/models"
)

// Analyzer размечает ценовой ряд на окна рыночных режимов
type Analyzer struct {
	config config.RegimeConfig
}

// NewAnalyzer создает анализатор рыночных режимов
func NewAnalyzer(cfg config.RegimeConfig) *Analyzer {
	return &Analyzer{config: cfg}
}

// Timeline делит ряд на последовательные окна и классифицирует каждое
// по наклону цены, волатильности и выходу за границы предыдущего окна
func (a *Analyzer) Timeline(candles []*models.Candle) []*models.MarketCondition {
	window := a.config.WindowBars
	if window <= 0 {
		window = 24
	}
	if len(candles) < window {
		return nil
	}

	var conditions []*models.MarketCondition
	var prevHigh, prevLow float64

	for start := 0; start+window <= len(candles); start += window {
		end := start + window
		segment := candles[start:end]

		closes := make([]float64, window)
		highs := make([]float64, window)
		lows := make([]float64, window)
		var firstVol, secondVol float64
		for i, c := range segment {
			closes[i] = c.Close
			highs[i] = c.High
			lows[i] = c.Low
			if i < window/2 {
				firstVol += c.Volume
			} else {
				secondVol += c.Volume
			}
		}

		slope := normalizedSlope(closes)
		volatility := atrPercent(highs, lows, closes)
		volumeProfile := classifyVolume(firstVol, secondVol)

		regime, confidence := a.classify(slope, volatility, closes[window-1], prevHigh, prevLow)

		conditions = append(conditions, &models.MarketCondition{
			Regime:        regime,
			Start:         segment[0].OpenTime,
			End:           segment[window-1].CloseTime,
			Volatility:    volatility,
			VolumeProfile: volumeProfile,
			Confidence:    confidence,
		})

		prevHigh = maxOf(highs)
		prevLow = minOf(lows)
	}

	return conditions
}

// classify выбирает режим окна. Пробой границ предыдущего окна имеет
// приоритет над трендовой и волатильностной классификацией.
func (a *Analyzer) classify(slope, volatility, lastClose, prevHigh, prevLow float64) (models.RegimeKind, float64) {
	if prevHigh > 0 && lastClose > prevHigh {
		return models.RegimeBreakout, 0.7
	}
	if prevLow > 0 && lastClose < prevLow {
		return models.RegimeBreakdown, 0.7
	}

	if slope > a.config.TrendSlopeMin {
		return models.RegimeTrendingUp, trendConfidence(slope, a.config.TrendSlopeMin)
	}
	if slope < -a.config.TrendSlopeMin {
		return models.RegimeTrendingDown, trendConfidence(slope, a.config.TrendSlopeMin)
	}

	if volatility > a.config.HighVolATR {
		return models.RegimeHighVolatility, 0.6
	}
	if volatility > 0 && volatility < a.config.LowVolATR {
		return models.RegimeLowVolatility, 0.6
	}

	return models.RegimeRanging, 0.5
}

// normalizedSlope возвращает наклон цены закрытия за бар,
// нормированный к средней цене окна
func normalizedSlope(closes []float64) float64 {
	n := float64(len(closes))
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range closes {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	slope := (n*sumXY - sumX*sumY) / denom

	mean := sumY / n
	if mean == 0 {
		return 0
	}
	return slope / mean
}

// atrPercent возвращает последний ATR окна в процентах от цены закрытия
func atrPercent(highs, lows, closes []float64) float64 {
	period := 14
	if len(closes) <= period {
		period = len(closes) - 1
	}
	if period < 1 {
		return 0
	}

	atr := talib.Atr(highs, lows, closes, period)
	last := atr[len(atr)-1]
	lastClose := closes[len(closes)-1]
	if lastClose == 0 {
		return 0
	}
	return last / lastClose * 100
}

func trendConfidence(slope, slopeMin float64) float64 {
	confidence := 0.5 + math.Min(math.Abs(slope)/slopeMin*0.1, 0.4)
	return confidence
}

func classifyVolume(firstHalf, secondHalf float64) string {
	if firstHalf == 0 {
		return "stable"
	}
	change := (secondHalf - firstHalf) / firstHalf
	switch {
	case change > 0.2:
		return "rising"
	case change < -0.2:
		return "falling"
	default:
		return "stable"
	}
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
