// Package gap resolves time-aware price pairs and classifies the percentage
// gap between them. It owns the price resolver (tiered fallback over a bar
// source), the scan engine, and the aggregator that orders results.
package gap

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tier records which fallback level produced a quote. Downstream reports use
// it as a provenance/confidence tag.
type Tier string

const (
	// TierExactMinute: close of the chronologically last minute bar,
	// including extended-hours sessions.
	TierExactMinute Tier = "EXACT_MINUTE"
	// TierDailyClose: close of the most recent daily bar. The quote's
	// timestamp is the resolution instant, not the bar's date: the value is
	// historical but the comparison context is "as of now".
	TierDailyClose Tier = "DAILY_CLOSE"
	// TierDailyOpen: open of the most recent daily bar, last resort.
	TierDailyOpen Tier = "DAILY_OPEN_FALLBACK"
	// TierMarketOpen: minute bar stamped exactly at the requested hh:mm.
	TierMarketOpen Tier = "MARKET_OPEN_EXACT"
	// TierRegularOpen: regular session open, used when no minute bar matches
	// the requested time.
	TierRegularOpen Tier = "REGULAR_OPEN_FALLBACK"
)

// Quote is a resolved price with its exchange-local timestamp and the
// fallback tier that produced it.
type Quote struct {
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
	Tier      Tier            `json:"tier"`
}
