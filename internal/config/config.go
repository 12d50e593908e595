package config

import (
	"os"

	"github.com/skalibog/bpsa/pkg/logger"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// Config представляет полную конфигурацию приложения
type Config struct {
	Binance    BinanceConfig    `yaml:"binance"`
	Trading    TradingConfig    `yaml:"trading"`
	Simulation SimulationConfig `yaml:"simulation"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Storage    StorageConfig    `yaml:"storage"`
	UI         UIConfig         `yaml:"ui"`
}

// BinanceConfig содержит настройки подключения к Binance
type BinanceConfig struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Testnet   bool   `yaml:"testnet"`
}

// TradingConfig содержит настройки анализируемых инструментов
type TradingConfig struct {
	Symbols      []string `yaml:"symbols"`
	Interval     string   `yaml:"interval"`
	LookbackDays int      `yaml:"lookback_days"`
}

// SimulationConfig содержит настройки симуляции сделок
type SimulationConfig struct {
	PositionSize   float64 `yaml:"position_size"`
	MaxHoldingBars int     `yaml:"max_holding_bars"`
	MinCandles     int     `yaml:"min_candles"`
}

// AnalysisConfig содержит настройки аналитических модулей
type AnalysisConfig struct {
	Patterns  PatternsConfig  `yaml:"patterns"`
	Regime    RegimeConfig    `yaml:"regime"`
	Technical TechnicalConfig `yaml:"technical"`
}

// PatternsConfig настройки распознавания паттернов
type PatternsConfig struct {
	WindowSize      int     `yaml:"window_size"`
	ClusterMaxRange float64 `yaml:"cluster_max_range"`
}

// RegimeConfig настройки разметки рыночных режимов
type RegimeConfig struct {
	WindowBars    int     `yaml:"window_bars"`
	TrendSlopeMin float64 `yaml:"trend_slope_min"`
	HighVolATR    float64 `yaml:"high_vol_atr"`
	LowVolATR     float64 `yaml:"low_vol_atr"`
}

// TechnicalConfig настройки среза технических индикаторов
type TechnicalConfig struct {
	RSIPeriod  int `yaml:"rsi_period"`
	BBPeriod   int `yaml:"bb_period"`
	MACDFast   int `yaml:"macd_fast"`
	MACDSlow   int `yaml:"macd_slow"`
	MACDSignal int `yaml:"macd_signal"`
	ATRPeriod  int `yaml:"atr_period"`
}

// StorageConfig настройки хранения данных
type StorageConfig struct {
	Type         string `yaml:"type"`
	URL          string `yaml:"url"`
	Token        string `yaml:"token"`
	Organization string `yaml:"organization"`
	Bucket       string `yaml:"bucket"`
}

// UIConfig настройки вывода отчета
type UIConfig struct {
	Color   bool `yaml:"color"`
	Verbose bool `yaml:"verbose"`
}

// Load загружает конфигурацию из файла
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Fatal("Ошибка чтения файла конфигурации", zap.Error(err))
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		logger.Fatal("Ошибка разбора файла конфигурации", zap.Error(err))
	}

	config.applyDefaults()

	logger.Info("Загружена конфигурация", zap.Any("Symbols", config.Trading.Symbols))
	return &config, nil
}

// applyDefaults проставляет значения по умолчанию для пропущенных полей
func (c *Config) applyDefaults() {
	if c.Trading.Interval == "" {
		c.Trading.Interval = "1h"
	}
	if c.Trading.LookbackDays == 0 {
		c.Trading.LookbackDays = 30
	}
	if c.Simulation.PositionSize == 0 {
		c.Simulation.PositionSize = 1000
	}
	if c.Simulation.MaxHoldingBars == 0 {
		c.Simulation.MaxHoldingBars = 48
	}
	if c.Simulation.MinCandles == 0 {
		c.Simulation.MinCandles = 30
	}
	if c.Analysis.Patterns.WindowSize == 0 {
		c.Analysis.Patterns.WindowSize = 30
	}
	if c.Analysis.Patterns.ClusterMaxRange == 0 {
		c.Analysis.Patterns.ClusterMaxRange = 0.10
	}
	if c.Analysis.Regime.WindowBars == 0 {
		c.Analysis.Regime.WindowBars = 24
	}
	if c.Analysis.Regime.TrendSlopeMin == 0 {
		c.Analysis.Regime.TrendSlopeMin = 0.001
	}
	if c.Analysis.Regime.HighVolATR == 0 {
		c.Analysis.Regime.HighVolATR = 3.0
	}
	if c.Analysis.Regime.LowVolATR == 0 {
		c.Analysis.Regime.LowVolATR = 0.5
	}
	if c.Analysis.Technical.RSIPeriod == 0 {
		c.Analysis.Technical.RSIPeriod = 14
	}
	if c.Analysis.Technical.BBPeriod == 0 {
		c.Analysis.Technical.BBPeriod = 20
	}
	if c.Analysis.Technical.MACDFast == 0 {
		c.Analysis.Technical.MACDFast = 12
	}
	if c.Analysis.Technical.MACDSlow == 0 {
		c.Analysis.Technical.MACDSlow = 26
	}
	if c.Analysis.Technical.MACDSignal == 0 {
		c.Analysis.Technical.MACDSignal = 9
	}
	if c.Analysis.Technical.ATRPeriod == 0 {
		c.Analysis.Technical.ATRPeriod = 14
	}
}
