package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenTradeValidation(t *testing.T) {
	entryTime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := NewOpenTrade("BTCUSDT", Long, entryTime, 0, 1000, 1, 51000, 47000)
	assert.Error(t, err, "нулевая цена входа должна отклоняться")

	_, err = NewOpenTrade("BTCUSDT", Long, entryTime, 49000, -1, 1, 51000, 47000)
	assert.Error(t, err, "отрицательный размер позиции должен отклоняться")

	_, err = NewOpenTrade("BTCUSDT", Long, entryTime, 49000, 1000, 0, 51000, 47000)
	assert.Error(t, err, "нулевое плечо должно отклоняться")

	_, err = NewOpenTrade("BTCUSDT", NoDirection, entryTime, 49000, 1000, 1, 51000, 47000)
	assert.Error(t, err, "направление должно быть long или short")

	trade, err := NewOpenTrade("BTCUSDT", Long, entryTime, 49000, 1000, 1, 51000, 47000)
	require.NoError(t, err)
	assert.NotEmpty(t, trade.ID)
	assert.Equal(t, TradeOpen, trade.State)
	assert.False(t, trade.IsClosed())
}

func TestTradeCloseLongPnL(t *testing.T) {
	entryTime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	exitTime := entryTime.Add(6 * time.Hour)

	trade, err := NewOpenTrade("BTCUSDT", Long, entryTime, 49000, 1000, 1, 51000, 47000)
	require.NoError(t, err)

	require.NoError(t, trade.Close(TradeTargetHit, exitTime, 51000, 51500, 48500))

	assert.Equal(t, TradeTargetHit, trade.State)
	assert.Equal(t, ExitTargetHit, trade.ExitReason)
	assert.InDelta(t, 2_000_000.0, trade.PnL, 1e-9)
	assert.InDelta(t, 4.0816, trade.PnLPercent, 0.001)
	assert.InDelta(t, 6.0, trade.Duration, 1e-9)
	assert.InDelta(t, 1.0, trade.RiskReward, 1e-9)
	assert.True(t, trade.IsClosed())
}

func TestTradeCloseShortPnL(t *testing.T) {
	entryTime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	trade, err := NewOpenTrade("ETHUSDT", Short, entryTime, 2000, 10, 1, 1900, 2100)
	require.NoError(t, err)

	require.NoError(t, trade.Close(TradeStopLossHit, entryTime.Add(time.Hour), 2100, 1950, 2100))

	// Для шорта рост цены дает убыток
	assert.Equal(t, ExitStopLoss, trade.ExitReason)
	assert.InDelta(t, -1000.0, trade.PnL, 1e-9)
	assert.InDelta(t, -5.0, trade.PnLPercent, 1e-9)
}

func TestTradeCloseOnlyOnce(t *testing.T) {
	entryTime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	trade, err := NewOpenTrade("BTCUSDT", Long, entryTime, 49000, 1000, 1, 51000, 47000)
	require.NoError(t, err)

	require.NoError(t, trade.Close(TradeTimeExit, entryTime.Add(48*time.Hour), 49500, 50000, 48000))

	// Повторное закрытие запрещено, итоги не перезаписываются
	firstPnL := trade.PnL
	err = trade.Close(TradeTargetHit, entryTime.Add(49*time.Hour), 51000, 51000, 48000)
	assert.Error(t, err)
	assert.Equal(t, TradeTimeExit, trade.State)
	assert.Equal(t, firstPnL, trade.PnL)
}

func TestTradeCloseRejectsNonTerminalState(t *testing.T) {
	entryTime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	trade, err := NewOpenTrade("BTCUSDT", Long, entryTime, 49000, 1000, 1, 51000, 47000)
	require.NoError(t, err)

	assert.Error(t, trade.Close(TradeOpen, entryTime, 49000, 49000, 49000))
	assert.False(t, trade.IsClosed())
}
