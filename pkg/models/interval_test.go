package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntervalDuration(t *testing.T) {
	assert.Equal(t, time.Minute, IntervalDuration("1m"))
	assert.Equal(t, 15*time.Minute, IntervalDuration("15m"))
	assert.Equal(t, time.Hour, IntervalDuration("1h"))
	assert.Equal(t, 4*time.Hour, IntervalDuration("4h"))
	assert.Equal(t, 24*time.Hour, IntervalDuration("1d"))
	assert.Equal(t, 7*24*time.Hour, IntervalDuration("1w"))
	// Неизвестный интервал откатывается на час
	assert.Equal(t, time.Hour, IntervalDuration("9x"))
}
