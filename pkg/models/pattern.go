package models

import (
	"fmt"
	"time"
)

// PatternKind вид графического паттерна. Набор закрытый:
// новые виды добавляются только вместе с детектором.
type PatternKind string

const (
	HeadAndShoulders    PatternKind = "head_and_shoulders"
	DoubleTop           PatternKind = "double_top"
	DoubleBottom        PatternKind = "double_bottom"
	AscendingTriangle   PatternKind = "ascending_triangle"
	DescendingTriangle  PatternKind = "descending_triangle"
	SymmetricalTriangle PatternKind = "symmetrical_triangle"
	BullFlag            PatternKind = "bull_flag"
	BearFlag            PatternKind = "bear_flag"
	RisingWedge         PatternKind = "rising_wedge"
	FallingWedge        PatternKind = "falling_wedge"
	Support             PatternKind = "support"
	Resistance          PatternKind = "resistance"
	Breakout            PatternKind = "breakout"
	Breakdown           PatternKind = "breakdown"
	ClusterPattern      PatternKind = "liquidation_cluster"
)

// PatternMatch представляет обнаруженный паттерн.
// Создается детектором один раз и далее не изменяется.
type PatternMatch struct {
	Kind        PatternKind
	Timestamp   time.Time
	Confidence  float64
	PriceLevel  float64
	Direction   Direction
	TargetPrice float64
	StopLoss    float64
	Metadata    map[string]float64
	Timeframe   string
	Strength    float64
	Reliability float64
}

// NewPatternMatch проверяет инварианты и создает паттерн.
// Цены должны быть строго положительными, направление - одним из трех
// допустимых значений. Уверенность обрезается в диапазон [0,1].
func NewPatternMatch(p PatternMatch) (*PatternMatch, error) {
	if p.PriceLevel <= 0 {
		return nil, fmt.Errorf("недопустимый уровень цены паттерна %s: %f", p.Kind, p.PriceLevel)
	}
	if p.TargetPrice <= 0 {
		return nil, fmt.Errorf("недопустимая целевая цена паттерна %s: %f", p.Kind, p.TargetPrice)
	}
	if p.StopLoss <= 0 {
		return nil, fmt.Errorf("недопустимый стоп-лосс паттерна %s: %f", p.Kind, p.StopLoss)
	}
	switch p.Direction {
	case Bullish, Bearish, Neutral:
	default:
		return nil, fmt.Errorf("недопустимое направление паттерна %s: %q", p.Kind, p.Direction)
	}

	if p.Confidence < 0 {
		p.Confidence = 0
	}
	if p.Confidence > 1 {
		p.Confidence = 1
	}
	if p.Metadata == nil {
		p.Metadata = make(map[string]float64)
	}

	return &p, nil
}
