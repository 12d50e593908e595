package simulation

import (
	"time"

	"github.com/skalibog/bpsa/pkg/models"
)

// Волатильность по умолчанию для снимка рыночных условий сигнала
const defaultVolatility = 2.0

// GenerateSignal строит торговый сигнал из паттерна для заданного
// направления. Входом служит первый бар на отметке времени паттерна
// или позже; если такого бара нет или за ним нет ни одного бара
// будущих данных, сигнал не создается.
func GenerateSignal(pattern *models.PatternMatch, candles []*models.Candle, symbol string, direction models.TradeDirection) (*models.TradingSignal, int) {
	entryIdx := -1
	for i, c := range candles {
		if !c.OpenTime.Before(pattern.Timestamp) {
			entryIdx = i
			break
		}
	}
	if entryIdx < 0 || entryIdx+1 >= len(candles) {
		return nil, -1
	}

	entry := candles[entryIdx]

	// Снимок рыночных условий: окно 24 часа вперед от точки входа
	condition := &models.MarketCondition{
		Regime:        models.RegimeRanging,
		Start:         entry.OpenTime,
		End:           entry.OpenTime.Add(24 * time.Hour),
		Volatility:    defaultVolatility,
		VolumeProfile: "stable",
		Confidence:    0.5,
	}

	return &models.TradingSignal{
		Timestamp:  entry.OpenTime,
		Symbol:     symbol,
		Direction:  direction,
		EntryPrice: entry.Close,
		Confidence: pattern.Confidence,
		Condition:  condition,
		Indicators: map[string]float64{
			"target_price": pattern.TargetPrice,
			"stop_loss":    pattern.StopLoss,
		},
	}, entryIdx
}
