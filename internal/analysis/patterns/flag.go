package patterns

import (
	"math"

	"github.com/skalibog/bpsa/pkg/models"
)

const (
	flagpoleBars = 15
	flagBars     = 15
)

// FlagDetector детектор флагов: направленное движение ("флагшток")
// с последующей узкой консолидацией ("полотно")
type FlagDetector struct{}

// NewFlagDetector создает детектор флагов
func NewFlagDetector() *FlagDetector {
	return &FlagDetector{}
}

func (d *FlagDetector) Name() string { return "flag" }

func (d *FlagDetector) MinCandles() int { return flagpoleBars + flagBars }

// Detect ищет движение не менее 5% за 15 баров, за которым сразу
// следует консолидация с размахом не более 3% на 15 барах
func (d *FlagDetector) Detect(candles []*models.Candle, clusters []*models.LiquidationCluster) ([]*models.PatternMatch, error) {
	highs := highsOf(candles)
	lows := lowsOf(candles)
	closes := closesOf(candles)

	var matches []*models.PatternMatch
	for start := 0; start+flagpoleBars+flagBars <= len(candles); start += 5 {
		poleEnd := start + flagpoleBars
		flagEnd := poleEnd + flagBars

		move := (closes[poleEnd-1] - closes[start]) / closes[start]
		if math.Abs(move) < 0.05 {
			continue
		}

		flagHigh := maxOf(highs[poleEnd:flagEnd])
		flagLow := minOf(lows[poleEnd:flagEnd])
		if (flagHigh-flagLow)/flagLow > 0.03 {
			continue
		}

		confidence := 0.6
		if math.Abs(move) > 0.08 {
			confidence += 0.1
		}

		level := closes[flagEnd-1]

		var kind models.PatternKind
		var direction models.Direction
		var target, stop float64
		if move > 0 {
			kind = models.BullFlag
			direction = models.Bullish
			target = level * (1 + math.Abs(move))
			stop = flagLow
		} else {
			kind = models.BearFlag
			direction = models.Bearish
			target = level * (1 - math.Abs(move))
			stop = flagHigh
		}
		if target <= 0 {
			continue
		}

		match, err := models.NewPatternMatch(models.PatternMatch{
			Kind:        kind,
			Timestamp:   candles[flagEnd-1].OpenTime,
			Confidence:  confidence,
			PriceLevel:  level,
			Direction:   direction,
			TargetPrice: target,
			StopLoss:    stop,
			Metadata: map[string]float64{
				"pole_move":  move,
				"flag_range": (flagHigh - flagLow) / flagLow,
			},
			Timeframe:   candles[flagEnd-1].Interval,
			Strength:    confidence,
			Reliability: 0.6,
		})
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}

	return matches, nil
}
