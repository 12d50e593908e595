package patterns

import (
	"math"

	"github.com/skalibog/bpsa/pkg/models"
)

// HeadShouldersDetector детектор фигуры "голова и плечи"
type HeadShouldersDetector struct {
	window int
}

// NewHeadShouldersDetector создает детектор "головы и плеч"
func NewHeadShouldersDetector(window int) *HeadShouldersDetector {
	if window <= 0 {
		window = 30
	}
	return &HeadShouldersDetector{window: window}
}

func (d *HeadShouldersDetector) Name() string { return "head_and_shoulders" }

func (d *HeadShouldersDetector) MinCandles() int { return d.window }

// Detect ищет фигуру в скользящих окнах фиксированной ширины.
// Локальные максимумы берутся по скользящему максимуму 5 баров,
// самый высокий считается головой, максимумы в пределах 5% от
// второго по высоте - плечами.
func (d *HeadShouldersDetector) Detect(candles []*models.Candle, clusters []*models.LiquidationCluster) ([]*models.PatternMatch, error) {
	highs := highsOf(candles)

	var matches []*models.PatternMatch
	for start := 0; start+d.window <= len(candles); start += d.window / 2 {
		end := start + d.window

		var peaks []int
		for i := start + 4; i < end; i++ {
			if isTrailingMax(highs, i, 5) {
				peaks = append(peaks, i)
			}
		}
		if len(peaks) < 2 {
			continue
		}

		// Голова - самый высокий максимум окна
		head := peaks[0]
		for _, p := range peaks {
			if highs[p] > highs[head] {
				head = p
			}
		}

		// Второй по высоте максимум задает уровень плеч
		second := -1
		for _, p := range peaks {
			if p == head {
				continue
			}
			if second < 0 || highs[p] > highs[second] {
				second = p
			}
		}
		if second < 0 {
			continue
		}

		shoulders := 0
		for _, p := range peaks {
			if p == head {
				continue
			}
			if math.Abs(highs[p]-highs[second])/highs[second] <= 0.05 {
				shoulders++
			}
		}
		if shoulders == 0 {
			continue
		}

		headPrice := highs[head]

		confidence := 0.6
		if shoulders >= 2 {
			confidence += 0.2
		}
		if clusterNear(clusters, headPrice, 0.02) {
			confidence += 0.15
		}
		if confidence > 1 {
			confidence = 1
		}

		match, err := models.NewPatternMatch(models.PatternMatch{
			Kind:        models.HeadAndShoulders,
			Timestamp:   candles[head].OpenTime,
			Confidence:  confidence,
			PriceLevel:  headPrice,
			Direction:   models.Bearish,
			TargetPrice: headPrice * 0.95,
			StopLoss:    headPrice * 1.02,
			Metadata: map[string]float64{
				"shoulders":  float64(shoulders),
				"head_index": float64(head),
			},
			Timeframe:   candles[head].Interval,
			Strength:    confidence,
			Reliability: 0.7,
		})
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}

	return matches, nil
}
