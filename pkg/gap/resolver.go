package gap

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pkonduri/gap-down-stocks/pkg/calendar"
	"github.com/pkonduri/gap-down-stocks/pkg/marketdata"
)

// Providers may omit rows around session boundaries; a 7-day request window
// guarantees at least 5 calendar days of daily bars around any weekend.
const lookbackDays = 7

// Resolver turns (symbol, instant) into the best-available price, falling
// back through data granularities and tagging each quote with its tier.
type Resolver struct {
	src marketdata.BarSource
	log *zap.Logger
}

func NewResolver(src marketdata.BarSource, log *zap.Logger) *Resolver {
	return &Resolver{src: src, log: log}
}

// PreviousClose resolves the reference close for the given session date.
// The bar stamped on the session date is preferred; if none exists (market
// holiday, thin listing), the latest earlier bar in the window is used.
func (r *Resolver) PreviousClose(ctx context.Context, symbol string, session time.Time) (Quote, error) {
	start := session.AddDate(0, 0, -lookbackDays)
	end := session.AddDate(0, 0, 1)

	bars, err := r.src.DailyBars(ctx, symbol, start, end)
	if err != nil {
		r.log.Debug("previous close fetch failed", zap.String("symbol", symbol), zap.Error(err))
		return Quote{}, ErrNoData
	}

	var best *marketdata.Bar
	for i := range bars {
		day := bars[i].Timestamp.In(calendar.Eastern())
		if day.After(calendar.SessionClose(session)) {
			continue
		}
		if best == nil || bars[i].Timestamp.After(best.Timestamp) {
			best = &bars[i]
		}
	}
	if best == nil || best.Close <= 0 {
		return Quote{}, ErrNoData
	}

	return Quote{
		Price:     decimal.NewFromFloat(best.Close),
		Timestamp: calendar.SessionClose(best.Timestamp.In(calendar.Eastern())),
		Tier:      TierDailyClose,
	}, nil
}

// Current resolves the most recent available price as of now, trying three
// tiers in order: last extended-hours minute bar, last daily close, last
// daily open. First success wins.
func (r *Resolver) Current(ctx context.Context, symbol string, now time.Time) (Quote, error) {
	start := now.AddDate(0, 0, -lookbackDays)

	minutes, err := r.src.MinuteBars(ctx, symbol, start, now, true)
	if err != nil {
		r.log.Debug("minute data unavailable, falling back to daily",
			zap.String("symbol", symbol), zap.Error(err))
	}
	if len(minutes) > 0 {
		last := minutes[len(minutes)-1]
		if last.Close > 0 {
			return Quote{
				Price:     decimal.NewFromFloat(last.Close),
				Timestamp: last.Timestamp.In(calendar.Eastern()),
				Tier:      TierExactMinute,
			}, nil
		}
	}

	daily, err := r.src.DailyBars(ctx, symbol, start, now)
	if err != nil || len(daily) == 0 {
		return Quote{}, ErrNoData
	}
	last := daily[len(daily)-1]

	if last.Close > 0 {
		return Quote{
			Price:     decimal.NewFromFloat(last.Close),
			Timestamp: now.In(calendar.Eastern()),
			Tier:      TierDailyClose,
		}, nil
	}
	if last.Open > 0 {
		return Quote{
			Price:     decimal.NewFromFloat(last.Open),
			Timestamp: now.In(calendar.Eastern()),
			Tier:      TierDailyOpen,
		}, nil
	}

	return Quote{}, ErrNoData
}

// AtTime scans the day's extended-session minute bars for one stamped
// exactly hour:minute Eastern and returns its close. A miss returns
// (nil, nil) so the caller can fall back to RegularOpen.
func (r *Resolver) AtTime(ctx context.Context, symbol string, day time.Time, hour, minute int) (*Quote, error) {
	d := day.In(calendar.Eastern())
	start := time.Date(d.Year(), d.Month(), d.Day(), 4, 0, 0, 0, calendar.Eastern())
	end := time.Date(d.Year(), d.Month(), d.Day(), 20, 0, 0, 0, calendar.Eastern())

	minutes, err := r.src.MinuteBars(ctx, symbol, start, end, true)
	if err != nil {
		r.log.Debug("target-time minute fetch failed",
			zap.String("symbol", symbol), zap.Error(err))
		return nil, nil
	}

	for _, b := range minutes {
		ts := b.Timestamp.In(calendar.Eastern())
		if ts.Hour() == hour && ts.Minute() == minute && b.Close > 0 {
			return &Quote{
				Price:     decimal.NewFromFloat(b.Close),
				Timestamp: ts,
				Tier:      TierMarketOpen,
			}, nil
		}
	}
	return nil, nil
}

// RegularOpen resolves the regular-session open price for the given day,
// accepting the latest daily bar at or before it.
func (r *Resolver) RegularOpen(ctx context.Context, symbol string, day time.Time) (Quote, error) {
	bars, err := r.src.DailyBars(ctx, symbol, day.AddDate(0, 0, -lookbackDays), day.AddDate(0, 0, 1))
	if err != nil || len(bars) == 0 {
		return Quote{}, ErrNoData
	}
	last := bars[len(bars)-1]
	if last.Open <= 0 {
		return Quote{}, ErrNoData
	}
	return Quote{
		Price:     decimal.NewFromFloat(last.Open),
		Timestamp: calendar.SessionOpen(last.Timestamp.In(calendar.Eastern())),
		Tier:      TierRegularOpen,
	}, nil
}
