package exchange

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/skalibog/bpsa/pkg/models"
)

// Ширина ценовой корзины при агрегации уровней стакана
var bucketWidth = decimal.NewFromFloat(0.005)

// Кратность медианного номинала, с которой корзина считается кластером
var clusterSizeFactor = decimal.NewFromInt(3)

// FetchLiquidationClusters оценивает кластеры ликвидаций по стакану
// заявок: крупные плотности ниже цены отмечают зоны ликвидаций
// длинных позиций, выше цены - коротких. Это снимок по умолчанию;
// движок принимает и внешние данные о кластерах.
func (c *BinanceClient) FetchLiquidationClusters(ctx context.Context, symbol string, lastPrice, maxRange float64) ([]*models.LiquidationCluster, error) {
	bids, asks, err := c.GetDepth(ctx, symbol, 500)
	if err != nil {
		return nil, err
	}

	price := decimal.NewFromFloat(lastPrice)
	if price.IsZero() {
		return nil, fmt.Errorf("нулевая последняя цена для %s", symbol)
	}

	longClusters, err := aggregateLevels(bids, price, maxRange, models.LongLiquidations)
	if err != nil {
		return nil, err
	}
	shortClusters, err := aggregateLevels(asks, price, maxRange, models.ShortLiquidations)
	if err != nil {
		return nil, err
	}

	clusters := append(longClusters, shortClusters...)
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Price < clusters[j].Price })
	return clusters, nil
}

// aggregateLevels складывает номиналы уровней в ценовые корзины и
// оставляет корзины, заметно превышающие медианную
func aggregateLevels(levels []DepthLevel, price decimal.Decimal, maxRange float64, clusterType models.ClusterType) ([]*models.LiquidationCluster, error) {
	bucketStep := price.Mul(bucketWidth)
	if bucketStep.IsZero() {
		return nil, nil
	}
	limit := decimal.NewFromFloat(maxRange)

	// Суммарный номинал по корзинам
	notionals := make(map[int64]decimal.Decimal)
	for _, level := range levels {
		levelPrice, err := decimal.NewFromString(level.Price)
		if err != nil {
			return nil, fmt.Errorf("ошибка парсинга цены уровня: %w", err)
		}
		quantity, err := decimal.NewFromString(level.Quantity)
		if err != nil {
			return nil, fmt.Errorf("ошибка парсинга объема уровня: %w", err)
		}

		distance := levelPrice.Sub(price).Abs().Div(price)
		if distance.GreaterThan(limit) {
			continue
		}

		bucket := levelPrice.Div(bucketStep).IntPart()
		notionals[bucket] = notionals[bucket].Add(levelPrice.Mul(quantity))
	}
	if len(notionals) == 0 {
		return nil, nil
	}

	// Медианный номинал как база значимости
	values := make([]decimal.Decimal, 0, len(notionals))
	for _, n := range notionals {
		values = append(values, n)
	}
	sort.Slice(values, func(i, j int) bool { return values[i].LessThan(values[j]) })
	median := values[len(values)/2]
	threshold := median.Mul(clusterSizeFactor)

	var clusters []*models.LiquidationCluster
	for bucket, notional := range notionals {
		if notional.LessThan(threshold) {
			continue
		}

		center := decimal.NewFromInt(bucket).Mul(bucketStep).Add(bucketStep.Div(decimal.NewFromInt(2)))
		size, _ := notional.Float64()
		centerPrice, _ := center.Float64()

		confidence := notional.Div(decimal.NewFromInt(10_000_000))
		conf, _ := confidence.Float64()
		if conf > 1 {
			conf = 1
		}

		clusters = append(clusters, &models.LiquidationCluster{
			Price:      centerPrice,
			Size:       size,
			Type:       clusterType,
			Confidence: conf,
		})
	}

	return clusters, nil
}
