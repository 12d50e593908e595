package patterns

import (
	"math"

	"github.com/skalibog/bpsa/pkg/models"
)

// ClusterDetector детектор паттернов по кластерам ликвидаций.
// Работает только при наличии внешнего снимка кластеров.
type ClusterDetector struct {
	maxRange float64
}

// NewClusterDetector создает детектор кластеров ликвидаций.
// maxRange - максимальное относительное удаление кластера от цены.
func NewClusterDetector(maxRange float64) *ClusterDetector {
	if maxRange <= 0 {
		maxRange = 0.10
	}
	return &ClusterDetector{maxRange: maxRange}
}

func (d *ClusterDetector) Name() string { return "liquidation_cluster" }

func (d *ClusterDetector) MinCandles() int { return 1 }

// Detect интерпретирует кластеры относительно последней цены:
// кластер длинных ликвидаций ниже цены тянет ее вниз (медвежий),
// кластер коротких выше цены - вверх (бычий).
func (d *ClusterDetector) Detect(candles []*models.Candle, clusters []*models.LiquidationCluster) ([]*models.PatternMatch, error) {
	if len(clusters) == 0 {
		return nil, nil
	}

	last := candles[len(candles)-1]
	price := last.Close

	var matches []*models.PatternMatch
	for _, c := range clusters {
		distance := math.Abs(c.Price-price) / price
		if distance > d.maxRange {
			continue
		}

		var direction models.Direction
		var target, stop float64
		switch {
		case c.Type == models.LongLiquidations && c.Price < price:
			direction = models.Bearish
			target = c.Price
			stop = price * 1.02
		case c.Type == models.ShortLiquidations && c.Price > price:
			direction = models.Bullish
			target = c.Price
			stop = price * 0.98
		default:
			// Кластер не по ту сторону цены - магнитного эффекта нет
			continue
		}

		// Бонус за размер кластера (до 0.2) и за близость (до 0.1)
		sizeBonus := math.Min(0.2, c.Size/10_000_000*0.2)
		proximityBonus := 0.1 * (1 - distance/d.maxRange)

		confidence := 0.7 + sizeBonus + proximityBonus
		if confidence > 1 {
			confidence = 1
		}

		match, err := models.NewPatternMatch(models.PatternMatch{
			Kind:        models.ClusterPattern,
			Timestamp:   last.OpenTime,
			Confidence:  confidence,
			PriceLevel:  price,
			Direction:   direction,
			TargetPrice: target,
			StopLoss:    stop,
			Metadata: map[string]float64{
				"cluster_price": c.Price,
				"cluster_size":  c.Size,
				"distance":      distance,
			},
			Timeframe:   last.Interval,
			Strength:    confidence,
			Reliability: 0.8,
		})
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}

	return matches, nil
}
