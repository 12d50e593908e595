package patterns

import (
	"github.com/skalibog/bpsa/pkg/models"
)

const (
	consolidationBars = 20
	breakoutBars      = 5
)

// BreakoutDetector детектор пробоев консолидации вверх и вниз
type BreakoutDetector struct{}

// NewBreakoutDetector создает детектор пробоев
func NewBreakoutDetector() *BreakoutDetector {
	return &BreakoutDetector{}
}

func (d *BreakoutDetector) Name() string { return "breakout" }

func (d *BreakoutDetector) MinCandles() int { return consolidationBars + breakoutBars }

// Detect требует предшествующую консолидацию 20 баров с размахом
// менее 5%; пробой фиксируется, когда следующие 5 баров выходят
// за границу консолидации не менее чем на 2%
func (d *BreakoutDetector) Detect(candles []*models.Candle, clusters []*models.LiquidationCluster) ([]*models.PatternMatch, error) {
	highs := highsOf(candles)
	lows := lowsOf(candles)
	closes := closesOf(candles)

	var matches []*models.PatternMatch
	for start := 0; start+consolidationBars+breakoutBars <= len(candles); start += breakoutBars {
		consEnd := start + consolidationBars

		consHigh := maxOf(highs[start:consEnd])
		consLow := minOf(lows[start:consEnd])
		if (consHigh-consLow)/consLow >= 0.05 {
			continue
		}

		// Средний объем консолидации для подтверждения пробоя
		var consVolume float64
		for i := start; i < consEnd; i++ {
			consVolume += candles[i].Volume
		}
		consVolume /= float64(consolidationBars)

		breakIdx := -1
		var kind models.PatternKind
		var direction models.Direction
		for i := consEnd; i < consEnd+breakoutBars; i++ {
			if closes[i] >= consHigh*1.02 {
				breakIdx = i
				kind = models.Breakout
				direction = models.Bullish
				break
			}
			if closes[i] <= consLow*0.98 {
				breakIdx = i
				kind = models.Breakdown
				direction = models.Bearish
				break
			}
		}
		if breakIdx < 0 {
			continue
		}

		confidence := 0.65
		var breakVolume float64
		for i := consEnd; i < consEnd+breakoutBars; i++ {
			breakVolume += candles[i].Volume
		}
		breakVolume /= float64(breakoutBars)
		if consVolume > 0 && breakVolume > 1.5*consVolume {
			confidence += 0.1
		}

		level := closes[breakIdx]
		rng := consHigh - consLow

		var target, stop float64
		if direction == models.Bullish {
			target = consHigh + rng
			stop = consLow
		} else {
			target = consLow - rng
			stop = consHigh
		}
		if target <= 0 {
			continue
		}

		match, err := models.NewPatternMatch(models.PatternMatch{
			Kind:        kind,
			Timestamp:   candles[breakIdx].OpenTime,
			Confidence:  confidence,
			PriceLevel:  level,
			Direction:   direction,
			TargetPrice: target,
			StopLoss:    stop,
			Metadata: map[string]float64{
				"consolidation_high": consHigh,
				"consolidation_low":  consLow,
				"volume_ratio":       safeRatio(breakVolume, consVolume),
			},
			Timeframe:   candles[breakIdx].Interval,
			Strength:    confidence,
			Reliability: 0.65,
		})
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)

		// Пропускаем хвост уже разобранной консолидации
		start = breakIdx
	}

	return matches, nil
}

func safeRatio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
