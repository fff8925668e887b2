package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"go.uber.org/zap"
)

// YahooSource serves bars from the Yahoo Finance chart API.
type YahooSource struct {
	log *zap.Logger
}

func NewYahooSource(log *zap.Logger) *YahooSource {
	return &YahooSource{log: log}
}

func (s *YahooSource) Name() string { return "Yahoo Finance" }

func (s *YahooSource) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error) {
	return s.bars(ctx, symbol, start, end, datetime.OneDay, false)
}

func (s *YahooSource) MinuteBars(ctx context.Context, symbol string, start, end time.Time, extendedHours bool) ([]Bar, error) {
	return s.bars(ctx, symbol, start, end, datetime.OneMin, extendedHours)
}

func (s *YahooSource) bars(ctx context.Context, symbol string, start, end time.Time, interval datetime.Interval, ext bool) ([]Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	iter := chart.Get(&chart.Params{
		Symbol:     symbol,
		Start:      datetime.New(&start),
		End:        datetime.New(&end),
		Interval:   interval,
		IncludeExt: ext,
	})

	var bars []Bar
	for iter.Next() {
		b := iter.Bar()
		open, _ := b.Open.Float64()
		high, _ := b.High.Float64()
		low, _ := b.Low.Float64()
		closePx, _ := b.Close.Float64()
		bars = append(bars, Bar{
			Timestamp: time.Unix(int64(b.Timestamp), 0),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePx,
			Volume:    int64(b.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		s.log.Debug("yahoo chart fetch failed",
			zap.String("symbol", symbol),
			zap.String("interval", string(interval)),
			zap.Error(err))
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}

	return bars, nil
}
