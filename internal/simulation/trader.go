package simulation

import (
	"fmt"

	"github.com/skalibog/bpsa/internal/config"
	"github.com/skalibog/bpsa/pkg/models"
)

// Плечо фиксировано: симуляция не моделирует маржинальные позиции
const simulationLeverage = 1.0

// Simulator воспроизводит сигнал вперед по ценовому ряду и
// закрывает сделку по первому сработавшему условию выхода
type Simulator struct {
	config config.SimulationConfig
}

// NewSimulator создает симулятор сделок
func NewSimulator(cfg config.SimulationConfig) *Simulator {
	if cfg.MaxHoldingBars <= 0 {
		cfg.MaxHoldingBars = 48
	}
	if cfg.PositionSize <= 0 {
		cfg.PositionSize = 1000
	}
	return &Simulator{config: cfg}
}

// Simulate проигрывает сигнал бар за баром начиная со следующего
// после входа. Цель проверяется раньше стоп-лосса внутри одного бара:
// OHLC-представление не позволяет восстановить внутрибарный порядок,
// это документированное упрощение. Сигнал без единого бара будущих
// данных отбрасывается без создания сделки.
func (s *Simulator) Simulate(signal *models.TradingSignal, candles []*models.Candle, entryIdx int) (*models.SimulationTrade, error) {
	if entryIdx < 0 || entryIdx+1 >= len(candles) {
		return nil, nil
	}

	target, ok := signal.Indicators["target_price"]
	if !ok {
		return nil, fmt.Errorf("в сигнале отсутствует целевая цена")
	}
	stop, ok := signal.Indicators["stop_loss"]
	if !ok {
		return nil, fmt.Errorf("в сигнале отсутствует стоп-лосс")
	}

	trade, err := models.NewOpenTrade(
		signal.Symbol,
		signal.Direction,
		signal.Timestamp,
		signal.EntryPrice,
		s.config.PositionSize,
		simulationLeverage,
		target,
		stop,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия сделки: %w", err)
	}

	end := entryIdx + s.config.MaxHoldingBars
	if end > len(candles)-1 {
		end = len(candles) - 1
	}

	// Лучшая и худшая внутрибарные цены за время удержания
	maxFavorable := signal.EntryPrice
	maxAdverse := signal.EntryPrice

	for i := entryIdx + 1; i <= end; i++ {
		bar := candles[i]

		if signal.Direction == models.Long {
			if bar.High > maxFavorable {
				maxFavorable = bar.High
			}
			if bar.Low < maxAdverse {
				maxAdverse = bar.Low
			}
			if bar.High >= target {
				err = trade.Close(models.TradeTargetHit, bar.CloseTime, target, maxFavorable, maxAdverse)
				return trade, err
			}
			if bar.Low <= stop {
				err = trade.Close(models.TradeStopLossHit, bar.CloseTime, stop, maxFavorable, maxAdverse)
				return trade, err
			}
		} else {
			if bar.Low < maxFavorable {
				maxFavorable = bar.Low
			}
			if bar.High > maxAdverse {
				maxAdverse = bar.High
			}
			if bar.Low <= target {
				err = trade.Close(models.TradeTargetHit, bar.CloseTime, target, maxFavorable, maxAdverse)
				return trade, err
			}
			if bar.High >= stop {
				err = trade.Close(models.TradeStopLossHit, bar.CloseTime, stop, maxFavorable, maxAdverse)
				return trade, err
			}
		}
	}

	// Окно воспроизведения исчерпано - выход по времени
	lastBar := candles[end]
	err = trade.Close(models.TradeTimeExit, lastBar.CloseTime, lastBar.Close, maxFavorable, maxAdverse)
	return trade, err
}
