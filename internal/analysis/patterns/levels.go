package patterns

import (
	"math"
	"sort"

	"github.com/skalibog/bpsa/pkg/models"
)

// LevelDetector детектор уровней поддержки и сопротивления
type LevelDetector struct{}

// NewLevelDetector создает детектор уровней
func NewLevelDetector() *LevelDetector {
	return &LevelDetector{}
}

func (d *LevelDetector) Name() string { return "support_resistance" }

func (d *LevelDetector) MinCandles() int { return 30 }

// touch одно касание уровня
type touch struct {
	index int
	price float64
}

// Detect собирает скользящие экстремумы 10 баров, группирует цены
// с допуском 2% и оставляет группы с тремя и более касаниями
func (d *LevelDetector) Detect(candles []*models.Candle, clusters []*models.LiquidationCluster) ([]*models.PatternMatch, error) {
	highs := highsOf(candles)
	lows := lowsOf(candles)

	var resistanceTouches, supportTouches []touch
	for i := range candles {
		if isTrailingMax(highs, i, 10) {
			resistanceTouches = append(resistanceTouches, touch{index: i, price: highs[i]})
		}
		if isTrailingMin(lows, i, 10) {
			supportTouches = append(supportTouches, touch{index: i, price: lows[i]})
		}
	}

	var matches []*models.PatternMatch

	emit := func(group []touch, kind models.PatternKind) error {
		level := 0.0
		last := 0
		for _, t := range group {
			level += t.price
			if t.index > last {
				last = t.index
			}
		}
		level /= float64(len(group))

		confidence := math.Min(0.8, 0.5+0.1*float64(len(group)))
		if clusterNear(clusters, level, 0.01) {
			confidence += 0.15
		}
		if confidence > 1 {
			confidence = 1
		}

		direction := models.Bullish
		target := level * 1.05
		stop := level * 0.98
		if kind == models.Resistance {
			direction = models.Bearish
			target = level * 0.95
			stop = level * 1.02
		}

		match, err := models.NewPatternMatch(models.PatternMatch{
			Kind:        kind,
			Timestamp:   candles[last].OpenTime,
			Confidence:  confidence,
			PriceLevel:  level,
			Direction:   direction,
			TargetPrice: target,
			StopLoss:    stop,
			Metadata: map[string]float64{
				"touches": float64(len(group)),
			},
			Timeframe:   candles[last].Interval,
			Strength:    confidence,
			Reliability: 0.75,
		})
		if err != nil {
			return err
		}
		matches = append(matches, match)
		return nil
	}

	for _, group := range clusterTouches(resistanceTouches) {
		if len(group) < 3 {
			continue
		}
		if err := emit(group, models.Resistance); err != nil {
			return nil, err
		}
	}
	for _, group := range clusterTouches(supportTouches) {
		if len(group) < 3 {
			continue
		}
		if err := emit(group, models.Support); err != nil {
			return nil, err
		}
	}

	return matches, nil
}

// clusterTouches группирует касания по цене с допуском 2%
func clusterTouches(touches []touch) [][]touch {
	if len(touches) == 0 {
		return nil
	}

	sorted := make([]touch, len(touches))
	copy(sorted, touches)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].price < sorted[j].price })

	var groups [][]touch
	current := []touch{sorted[0]}
	sum := sorted[0].price

	for _, t := range sorted[1:] {
		mean := sum / float64(len(current))
		if math.Abs(t.price-mean)/mean <= 0.02 {
			current = append(current, t)
			sum += t.price
			continue
		}
		groups = append(groups, current)
		current = []touch{t}
		sum = t.price
	}
	groups = append(groups, current)

	return groups
}
