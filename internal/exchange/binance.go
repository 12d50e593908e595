package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/jpillora/backoff"
	"github.com/skalibog/bpsa/internal/config"
	"github.com/skalibog/bpsa/pkg/logger"
	"github.com/skalibog/bpsa/pkg/models"
	"go.uber.org/zap"
)

// Число попыток запроса к бирже до отказа
const maxFetchAttempts = 4

// BinanceClient клиент для взаимодействия с Binance
type BinanceClient struct {
	futures *futures.Client
	spot    *binance.Client
}

// NewBinanceClient создает новый клиент Binance
func NewBinanceClient(cfg config.BinanceConfig) (*BinanceClient, error) {
	// Флаги testnet читаются при создании клиента, поэтому
	// выставляются до вызова конструкторов
	binance.UseTestnet = cfg.Testnet
	futures.UseTestnet = cfg.Testnet

	return &BinanceClient{
		futures: futures.NewClient(cfg.APIKey, cfg.APISecret),
		spot:    binance.NewClient(cfg.APIKey, cfg.APISecret),
	}, nil
}

// retryDelay возвращает новый расчет задержек между попытками
func retryDelay() *backoff.Backoff {
	return &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
	}
}

// GetKlines получает исторические свечи с повторами при сбое
func (c *BinanceClient) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]*models.Candle, error) {
	var klines []*futures.Kline
	var err error

	delay := retryDelay()
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		klines, err = c.futures.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			Limit(limit).
			Do(ctx)
		if err == nil {
			break
		}
		if attempt == maxFetchAttempts {
			return nil, fmt.Errorf("ошибка получения свечей: %w", err)
		}

		wait := delay.Duration()
		logger.Warn("Повтор запроса свечей",
			zap.String("symbol", symbol),
			zap.Int("attempt", attempt),
			zap.Duration("delay", wait),
			zap.Error(err))
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	candles := make([]*models.Candle, 0, len(klines))
	for _, k := range klines {
		candle, err := parseKline(symbol, interval, k)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}

	return candles, nil
}

// parseKline конвертирует свечу биржи во внутреннюю модель
func parseKline(symbol, interval string, k *futures.Kline) (*models.Candle, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга цены открытия: %w", err)
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга максимума: %w", err)
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга минимума: %w", err)
	}
	closePrice, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга цены закрытия: %w", err)
	}
	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга объема: %w", err)
	}

	return &models.Candle{
		Symbol:    symbol,
		Interval:  interval,
		OpenTime:  time.Unix(k.OpenTime/1000, 0).UTC(),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    volume,
		CloseTime: time.Unix(k.CloseTime/1000, 0).UTC(),
	}, nil
}

// DepthLevel уровень стакана заявок
type DepthLevel struct {
	Price    string
	Quantity string
}

// GetDepth получает стакан заявок фьючерсного рынка
func (c *BinanceClient) GetDepth(ctx context.Context, symbol string, limit int) (bids, asks []DepthLevel, err error) {
	ob, err := c.futures.NewDepthService().
		Symbol(symbol).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка получения стакана: %w", err)
	}

	bids = make([]DepthLevel, len(ob.Bids))
	for i, bid := range ob.Bids {
		bids[i] = DepthLevel{Price: bid.Price, Quantity: bid.Quantity}
	}
	asks = make([]DepthLevel, len(ob.Asks))
	for i, ask := range ob.Asks {
		asks[i] = DepthLevel{Price: ask.Price, Quantity: ask.Quantity}
	}

	return bids, asks, nil
}

// GetOpenInterest получает текущий открытый интерес
func (c *BinanceClient) GetOpenInterest(ctx context.Context, symbol string) (float64, error) {
	oi, err := c.futures.NewGetOpenInterestService().
		Symbol(symbol).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка получения открытого интереса: %w", err)
	}

	value, err := strconv.ParseFloat(oi.OpenInterest, 64)
	if err != nil {
		return 0, fmt.Errorf("ошибка парсинга открытого интереса: %w", err)
	}
	return value, nil
}
