package simulation

import (
	"testing"
	"time"

	"github.com/skalibog/bpsa/internal/config"
	"github.com/skalibog/bpsa/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var simStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// hourlyCandles строит часовые свечи по параллельным рядам цен
func hourlyCandles(highs, lows, closes []float64) []*models.Candle {
	candles := make([]*models.Candle, len(closes))
	for i := range closes {
		candles[i] = &models.Candle{
			Symbol:    "BTCUSDT",
			Interval:  "1h",
			OpenTime:  simStart.Add(time.Duration(i) * time.Hour),
			Open:      closes[i],
			High:      highs[i],
			Low:       lows[i],
			Close:     closes[i],
			Volume:    10,
			CloseTime: simStart.Add(time.Duration(i+1) * time.Hour),
		}
	}
	return candles
}

func longSignal(entry, target, stop float64) *models.TradingSignal {
	return &models.TradingSignal{
		Timestamp:  simStart,
		Symbol:     "BTCUSDT",
		Direction:  models.Long,
		EntryPrice: entry,
		Confidence: 0.8,
		Indicators: map[string]float64{
			"target_price": target,
			"stop_loss":    stop,
		},
	}
}

func TestSimulateLongTargetHit(t *testing.T) {
	sim := NewSimulator(config.SimulationConfig{PositionSize: 1000, MaxHoldingBars: 48})

	// Вход 49000, цель 51000, стоп 47000; второй бар достает цель
	candles := hourlyCandles(
		[]float64{49100, 51500},
		[]float64{48900, 48500},
		[]float64{49000, 51200},
	)

	trade, err := sim.Simulate(longSignal(49000, 51000, 47000), candles, 0)
	require.NoError(t, err)
	require.NotNil(t, trade)

	assert.Equal(t, models.TradeTargetHit, trade.State)
	assert.Equal(t, models.ExitTargetHit, trade.ExitReason)
	assert.InDelta(t, 51000.0, trade.ExitPrice, 1e-9)
	assert.InDelta(t, 2_000_000.0, trade.PnL, 1e-9)
	assert.InDelta(t, 4.0816, trade.PnLPercent, 0.001)
	assert.InDelta(t, 51500.0, trade.MaxFavorable, 1e-9)
	assert.InDelta(t, 48500.0, trade.MaxAdverse, 1e-9)
}

func TestSimulateTargetCheckedBeforeStop(t *testing.T) {
	sim := NewSimulator(config.SimulationConfig{PositionSize: 1000, MaxHoldingBars: 48})

	// Один бар задевает и цель, и стоп: цель имеет приоритет
	candles := hourlyCandles(
		[]float64{49100, 52000},
		[]float64{48900, 46000},
		[]float64{49000, 48000},
	)

	trade, err := sim.Simulate(longSignal(49000, 51000, 47000), candles, 0)
	require.NoError(t, err)
	require.NotNil(t, trade)
	assert.Equal(t, models.ExitTargetHit, trade.ExitReason)
}

func TestSimulateShortStopLoss(t *testing.T) {
	sim := NewSimulator(config.SimulationConfig{PositionSize: 10, MaxHoldingBars: 48})

	signal := &models.TradingSignal{
		Timestamp:  simStart,
		Symbol:     "ETHUSDT",
		Direction:  models.Short,
		EntryPrice: 2000,
		Indicators: map[string]float64{
			"target_price": 1900,
			"stop_loss":    2100,
		},
	}
	candles := hourlyCandles(
		[]float64{2010, 2120},
		[]float64{1990, 1995},
		[]float64{2000, 2110},
	)

	trade, err := sim.Simulate(signal, candles, 0)
	require.NoError(t, err)
	require.NotNil(t, trade)

	assert.Equal(t, models.ExitStopLoss, trade.ExitReason)
	assert.InDelta(t, 2100.0, trade.ExitPrice, 1e-9)
	assert.InDelta(t, -1000.0, trade.PnL, 1e-9)
}

func TestSimulateTimeExit(t *testing.T) {
	sim := NewSimulator(config.SimulationConfig{PositionSize: 1000, MaxHoldingBars: 3})

	// Ни цель, ни стоп не достигаются за окно удержания
	candles := hourlyCandles(
		[]float64{49100, 49200, 49300, 49400, 49500, 49600},
		[]float64{48900, 48800, 48700, 48600, 48500, 48400},
		[]float64{49000, 49050, 49100, 49150, 49200, 49250},
	)

	trade, err := sim.Simulate(longSignal(49000, 60000, 40000), candles, 0)
	require.NoError(t, err)
	require.NotNil(t, trade)

	assert.Equal(t, models.ExitTime, trade.ExitReason)
	// Выход по закрытию последнего бара окна (entryIdx + 3)
	assert.InDelta(t, 49150.0, trade.ExitPrice, 1e-9)
	assert.Equal(t, candles[3].CloseTime, trade.ExitTime)
}

func TestSimulateDiscardsSignalWithoutForwardBar(t *testing.T) {
	sim := NewSimulator(config.SimulationConfig{PositionSize: 1000, MaxHoldingBars: 48})

	candles := hourlyCandles([]float64{49100}, []float64{48900}, []float64{49000})

	trade, err := sim.Simulate(longSignal(49000, 51000, 47000), candles, 0)
	require.NoError(t, err)
	assert.Nil(t, trade, "сигнал на последнем баре не дает сделки")
}

func TestSimulateRequiresExitLevels(t *testing.T) {
	sim := NewSimulator(config.SimulationConfig{PositionSize: 1000, MaxHoldingBars: 48})

	candles := hourlyCandles(
		[]float64{49100, 49200},
		[]float64{48900, 48800},
		[]float64{49000, 49050},
	)

	signal := longSignal(49000, 51000, 47000)
	delete(signal.Indicators, "target_price")
	_, err := sim.Simulate(signal, candles, 0)
	assert.Error(t, err)

	signal = longSignal(49000, 51000, 47000)
	delete(signal.Indicators, "stop_loss")
	_, err = sim.Simulate(signal, candles, 0)
	assert.Error(t, err)
}
