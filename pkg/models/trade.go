package models

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// TradingSignal представляет сигнал на вход в позицию.
// Живет только в пределах одного прогона симуляции, не сохраняется.
type TradingSignal struct {
	Timestamp  time.Time
	Symbol     string
	Direction  TradeDirection
	EntryPrice float64
	Confidence float64
	Condition  *MarketCondition
	Indicators map[string]float64
}

// TradeState состояние жизненного цикла сделки
type TradeState string

const (
	TradeOpen        TradeState = "open"
	TradeTargetHit   TradeState = "target_hit"
	TradeStopLossHit TradeState = "stop_loss_hit"
	TradeTimeExit    TradeState = "time_exit"
)

// SimulationTrade представляет симулируемую сделку.
// Создается открытой, переводится в терминальное состояние ровно один раз
// и после этого не изменяется.
type SimulationTrade struct {
	ID           string
	Symbol       string
	Direction    TradeDirection
	EntryTime    time.Time
	EntryPrice   float64
	PositionSize float64
	Leverage     float64
	TargetPrice  float64
	StopLoss     float64

	State        TradeState
	ExitTime     time.Time
	ExitPrice    float64
	ExitReason   ExitReason
	PnL          float64
	PnLPercent   float64
	Duration     float64 // Часы удержания позиции
	MaxFavorable float64
	MaxAdverse   float64
	RiskReward   float64
}

// NewOpenTrade проверяет инварианты и создает открытую сделку
func NewOpenTrade(symbol string, direction TradeDirection, entryTime time.Time, entryPrice, positionSize, leverage, target, stop float64) (*SimulationTrade, error) {
	if entryPrice <= 0 {
		return nil, fmt.Errorf("недопустимая цена входа: %f", entryPrice)
	}
	if positionSize <= 0 {
		return nil, fmt.Errorf("недопустимый размер позиции: %f", positionSize)
	}
	if leverage <= 0 {
		return nil, fmt.Errorf("недопустимое плечо: %f", leverage)
	}
	switch direction {
	case Long, Short:
	default:
		return nil, fmt.Errorf("недопустимое направление сделки: %q", direction)
	}

	return &SimulationTrade{
		ID:           uuid.NewString(),
		Symbol:       symbol,
		Direction:    direction,
		EntryTime:    entryTime,
		EntryPrice:   entryPrice,
		PositionSize: positionSize,
		Leverage:     leverage,
		TargetPrice:  target,
		StopLoss:     stop,
		State:        TradeOpen,
	}, nil
}

// Close переводит сделку в терминальное состояние и рассчитывает итоги.
// Повторный перевод - ошибка: сделка закрывается ровно один раз.
func (t *SimulationTrade) Close(state TradeState, exitTime time.Time, exitPrice, maxFavorable, maxAdverse float64) error {
	if t.State != TradeOpen {
		return fmt.Errorf("сделка %s уже закрыта: %s", t.ID, t.State)
	}

	switch state {
	case TradeTargetHit:
		t.ExitReason = ExitTargetHit
	case TradeStopLossHit:
		t.ExitReason = ExitStopLoss
	case TradeTimeExit:
		t.ExitReason = ExitTime
	default:
		return fmt.Errorf("недопустимое терминальное состояние: %q", state)
	}

	t.State = state
	t.ExitTime = exitTime
	t.ExitPrice = exitPrice
	t.MaxFavorable = maxFavorable
	t.MaxAdverse = maxAdverse

	// Направленная дельта цены
	delta := exitPrice - t.EntryPrice
	if t.Direction == Short {
		delta = -delta
	}

	t.PnL = delta * t.PositionSize * t.Leverage
	t.PnLPercent = t.PnL / (t.EntryPrice * t.PositionSize) * 100
	t.Duration = exitTime.Sub(t.EntryTime).Hours()

	// Соотношение риск/прибыль по заявленным уровням входа
	risk := math.Abs(t.EntryPrice - t.StopLoss)
	if risk > 0 {
		t.RiskReward = math.Abs(t.TargetPrice-t.EntryPrice) / risk
	}

	return nil
}

// IsClosed сообщает, завершен ли жизненный цикл сделки
func (t *SimulationTrade) IsClosed() bool {
	return t.State != TradeOpen
}
