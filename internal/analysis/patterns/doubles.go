package patterns

import (
	"math"

	"github.com/skalibog/bpsa/pkg/models"
)

// DoubleExtremeDetector детектор двойной вершины и двойного дна.
// Одна реализация обслуживает обе фигуры: вершины ищутся по максимумам
// выше 90-го перцентиля, основания - по минимумам ниже 10-го.
type DoubleExtremeDetector struct {
	top bool
}

// NewDoubleTopDetector создает детектор двойной вершины
func NewDoubleTopDetector() *DoubleExtremeDetector {
	return &DoubleExtremeDetector{top: true}
}

// NewDoubleBottomDetector создает детектор двойного дна
func NewDoubleBottomDetector() *DoubleExtremeDetector {
	return &DoubleExtremeDetector{top: false}
}

func (d *DoubleExtremeDetector) Name() string {
	if d.top {
		return "double_top"
	}
	return "double_bottom"
}

func (d *DoubleExtremeDetector) MinCandles() int { return 40 }

// Detect ищет пары экстремумов в пределах 2% друг от друга
// с промежуточным откатом не менее 5%
func (d *DoubleExtremeDetector) Detect(candles []*models.Candle, clusters []*models.LiquidationCluster) ([]*models.PatternMatch, error) {
	highs := highsOf(candles)
	lows := lowsOf(candles)

	// Кандидаты: экстремумы окна ±10 баров за порогом перцентиля
	var extremes []int
	if d.top {
		threshold := percentile(highs, 90)
		for i := 10; i < len(candles)-10; i++ {
			if isLocalMax(highs, i, 10) && highs[i] >= threshold {
				extremes = append(extremes, i)
			}
		}
	} else {
		threshold := percentile(lows, 10)
		for i := 10; i < len(candles)-10; i++ {
			if isLocalMin(lows, i, 10) && lows[i] <= threshold {
				extremes = append(extremes, i)
			}
		}
	}

	var matches []*models.PatternMatch
	for a := 0; a < len(extremes); a++ {
		for b := a + 1; b < len(extremes); b++ {
			i, j := extremes[a], extremes[b]
			// Смежные экстремумы плато не оставляют места для отката
			if j-i < 2 {
				continue
			}

			var first, second float64
			if d.top {
				first, second = highs[i], highs[j]
			} else {
				first, second = lows[i], lows[j]
			}
			level := (first + second) / 2
			if math.Abs(first-second)/level > 0.02 {
				continue
			}

			// Откат между экстремумами
			if d.top {
				retr := minOf(lows[i+1 : j])
				if (level-retr)/level < 0.05 {
					continue
				}
			} else {
				retr := maxOf(highs[i+1 : j])
				if (retr-level)/level < 0.05 {
					continue
				}
			}

			confidence := 0.65
			if clusterNear(clusters, level, 0.015) {
				confidence += 0.1
			}

			kind := models.DoubleTop
			direction := models.Bearish
			target := level * 0.95
			stop := level * 1.02
			if !d.top {
				kind = models.DoubleBottom
				direction = models.Bullish
				target = level * 1.05
				stop = level * 0.98
			}

			match, err := models.NewPatternMatch(models.PatternMatch{
				Kind:        kind,
				Timestamp:   candles[j].OpenTime,
				Confidence:  confidence,
				PriceLevel:  level,
				Direction:   direction,
				TargetPrice: target,
				StopLoss:    stop,
				Metadata: map[string]float64{
					"first_index":  float64(i),
					"second_index": float64(j),
				},
				Timeframe:   candles[j].Interval,
				Strength:    confidence,
				Reliability: 0.65,
			})
			if err != nil {
				return nil, err
			}
			matches = append(matches, match)

			// Первая подходящая пара закрывает экстремум
			break
		}
	}

	return matches, nil
}
