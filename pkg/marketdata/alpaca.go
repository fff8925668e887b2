package marketdata

import (
	"context"
	"fmt"
	"time"

	alpacadata "github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"go.uber.org/zap"
)

// AlpacaSource serves bars from the Alpaca market data API.
type AlpacaSource struct {
	client *alpacadata.Client
	feed   alpacadata.Feed
	log    *zap.Logger
}

func NewAlpacaSource(apiKey, apiSecret string, log *zap.Logger) *AlpacaSource {
	return &AlpacaSource{
		client: alpacadata.NewClient(alpacadata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}),
		feed: alpacadata.SIP,
		log:  log,
	}
}

func (s *AlpacaSource) Name() string { return "Alpaca" }

func (s *AlpacaSource) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error) {
	// Alpaca's End is exclusive for daily bars, so add one day to include
	// bars on the end date itself.
	return s.bars(ctx, symbol, alpacadata.OneDay, start, end.AddDate(0, 0, 1))
}

// MinuteBars ignores extendedHours: Alpaca minute bars always cover the
// pre-/post-market sessions.
func (s *AlpacaSource) MinuteBars(ctx context.Context, symbol string, start, end time.Time, _ bool) ([]Bar, error) {
	return s.bars(ctx, symbol, alpacadata.OneMin, start, end)
}

func (s *AlpacaSource) bars(ctx context.Context, symbol string, tf alpacadata.TimeFrame, start, end time.Time) ([]Bar, error) {
	// The SDK calls are not context-aware; honor cancellation at the edges.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := s.client.GetBars(symbol, alpacadata.GetBarsRequest{
		TimeFrame:  tf,
		Start:      start,
		End:        end,
		Adjustment: alpacadata.Raw,
		Feed:       s.feed,
	})
	if err != nil {
		s.log.Debug("alpaca bars fetch failed",
			zap.String("symbol", symbol),
			zap.String("timeframe", tf.String()),
			zap.Error(err))
		return nil, fmt.Errorf("alpaca bars %s: %w", symbol, err)
	}

	bars := make([]Bar, 0, len(raw))
	for _, b := range raw {
		bars = append(bars, Bar{
			Timestamp: b.Timestamp,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    int64(b.Volume),
		})
	}
	return bars, nil
}
