// Package marketdata fetches OHLC bars from external quote providers.
// Two sources are implemented behind the same interface: Yahoo Finance
// (the default) and Alpaca. Zero-row responses and transport errors are
// first-class outcomes the caller must handle.
package marketdata

import (
	"context"
	"time"
)

// Bar is a single OHLC bar. Timestamp is whatever the provider stamps the
// bar with (UTC or exchange-local); consumers convert to Eastern as needed.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// BarSource is the narrow provider contract the price resolver consumes.
type BarSource interface {
	// DailyBars returns daily-granularity bars for [start, end], oldest first.
	DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error)

	// MinuteBars returns minute-granularity bars for [start, end], oldest
	// first. extendedHours asks for pre-/post-market sessions where the
	// provider supports the distinction.
	MinuteBars(ctx context.Context, symbol string, start, end time.Time, extendedHours bool) ([]Bar, error)

	// Name identifies the provider in reports and logs.
	Name() string
}
