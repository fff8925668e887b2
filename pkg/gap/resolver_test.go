package gap

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pkonduri/gap-down-stocks/pkg/calendar"
	"github.com/pkonduri/gap-down-stocks/pkg/marketdata"
)

// stubSource serves canned bars per symbol.
type stubSource struct {
	daily     map[string][]marketdata.Bar
	minute    map[string][]marketdata.Bar
	dailyErr  error
	minuteErr error
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) DailyBars(_ context.Context, symbol string, _, _ time.Time) ([]marketdata.Bar, error) {
	if s.dailyErr != nil {
		return nil, s.dailyErr
	}
	return s.daily[symbol], nil
}

func (s *stubSource) MinuteBars(_ context.Context, symbol string, _, _ time.Time, _ bool) ([]marketdata.Bar, error) {
	if s.minuteErr != nil {
		return nil, s.minuteErr
	}
	return s.minute[symbol], nil
}

func etTime(day, hour, min int) time.Time {
	return time.Date(2025, time.March, day, hour, min, 0, 0, calendar.Eastern())
}

func dailyBar(day int, open, close float64) marketdata.Bar {
	return marketdata.Bar{Timestamp: etTime(day, 9, 30), Open: open, Close: close}
}

func newTestResolver(src marketdata.BarSource) *Resolver {
	return NewResolver(src, zap.NewNop())
}

func TestPreviousCloseExactSession(t *testing.T) {
	src := &stubSource{daily: map[string][]marketdata.Bar{
		"AAPL": {dailyBar(6, 99, 98.50), dailyBar(7, 99, 99.25), dailyBar(10, 101, 100.00)},
	}}
	r := newTestResolver(src)

	// Session = Monday the 10th.
	q, err := r.PreviousClose(context.Background(), "AAPL", etTime(10, 0, 0))
	if err != nil {
		t.Fatalf("PreviousClose: %v", err)
	}
	if got := q.Price.InexactFloat64(); got != 100.00 {
		t.Errorf("price = %v, want 100.00", got)
	}
	if q.Tier != TierDailyClose {
		t.Errorf("tier = %s, want %s", q.Tier, TierDailyClose)
	}
	if q.Timestamp.Hour() != calendar.SessionCloseHour || q.Timestamp.Day() != 10 {
		t.Errorf("timestamp = %v, want 4 PM ET on the 10th", q.Timestamp)
	}
}

func TestPreviousCloseHolidayFallsBack(t *testing.T) {
	// No bar on the 10th (holiday): the latest earlier bar is used.
	src := &stubSource{daily: map[string][]marketdata.Bar{
		"AAPL": {dailyBar(6, 99, 98.50), dailyBar(7, 99, 99.25)},
	}}
	r := newTestResolver(src)

	q, err := r.PreviousClose(context.Background(), "AAPL", etTime(10, 0, 0))
	if err != nil {
		t.Fatalf("PreviousClose: %v", err)
	}
	if got := q.Price.InexactFloat64(); got != 99.25 {
		t.Errorf("price = %v, want 99.25", got)
	}
	if q.Timestamp.Day() != 7 {
		t.Errorf("timestamp day = %d, want 7", q.Timestamp.Day())
	}
}

func TestPreviousCloseNoData(t *testing.T) {
	r := newTestResolver(&stubSource{})
	if _, err := r.PreviousClose(context.Background(), "GONE", etTime(10, 0, 0)); !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}

	r = newTestResolver(&stubSource{dailyErr: errors.New("timeout")})
	if _, err := r.PreviousClose(context.Background(), "AAPL", etTime(10, 0, 0)); !errors.Is(err, ErrNoData) {
		t.Errorf("transport error: err = %v, want ErrNoData", err)
	}
}

func TestCurrentExactMinute(t *testing.T) {
	src := &stubSource{
		minute: map[string][]marketdata.Bar{
			"AAPL": {
				{Timestamp: etTime(11, 13, 58), Close: 94.40},
				{Timestamp: etTime(11, 13, 59), Close: 94.50},
			},
		},
	}
	r := newTestResolver(src)

	q, err := r.Current(context.Background(), "AAPL", etTime(11, 14, 0))
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if q.Tier != TierExactMinute {
		t.Errorf("tier = %s, want %s", q.Tier, TierExactMinute)
	}
	if got := q.Price.InexactFloat64(); got != 94.50 {
		t.Errorf("price = %v, want 94.50 (last minute bar)", got)
	}
	if !q.Timestamp.Equal(etTime(11, 13, 59)) {
		t.Errorf("timestamp = %v, want bar's own time", q.Timestamp)
	}
}

func TestCurrentFallsBackToDailyClose(t *testing.T) {
	// Minute fetch errors out but daily bars exist: DAILY_CLOSE, not a failure.
	now := etTime(11, 14, 0)
	src := &stubSource{
		minuteErr: errors.New("granularity unavailable"),
		daily: map[string][]marketdata.Bar{
			"AAPL": {dailyBar(7, 99, 99.25), dailyBar(10, 101, 100.00)},
		},
	}
	r := newTestResolver(src)

	q, err := r.Current(context.Background(), "AAPL", now)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if q.Tier != TierDailyClose {
		t.Errorf("tier = %s, want %s", q.Tier, TierDailyClose)
	}
	if got := q.Price.InexactFloat64(); got != 100.00 {
		t.Errorf("price = %v, want 100.00", got)
	}
	// The value is historical but the comparison context is "as of now".
	if !q.Timestamp.Equal(now) {
		t.Errorf("timestamp = %v, want resolution instant %v", q.Timestamp, now)
	}
}

func TestCurrentFallsBackToDailyOpen(t *testing.T) {
	src := &stubSource{
		daily: map[string][]marketdata.Bar{
			"AAPL": {{Timestamp: etTime(10, 9, 30), Open: 101.00, Close: 0}},
		},
	}
	r := newTestResolver(src)

	q, err := r.Current(context.Background(), "AAPL", etTime(11, 14, 0))
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if q.Tier != TierDailyOpen {
		t.Errorf("tier = %s, want %s", q.Tier, TierDailyOpen)
	}
	if got := q.Price.InexactFloat64(); got != 101.00 {
		t.Errorf("price = %v, want 101.00", got)
	}
}

func TestCurrentNoData(t *testing.T) {
	r := newTestResolver(&stubSource{})
	if _, err := r.Current(context.Background(), "GONE", etTime(11, 14, 0)); !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}

func TestAtTimeExactMatch(t *testing.T) {
	src := &stubSource{
		minute: map[string][]marketdata.Bar{
			"AAPL": {
				{Timestamp: etTime(11, 9, 29), Close: 95.00},
				{Timestamp: etTime(11, 9, 30), Close: 95.10},
				{Timestamp: etTime(11, 9, 31), Close: 95.20},
			},
		},
	}
	r := newTestResolver(src)

	q, err := r.AtTime(context.Background(), "AAPL", etTime(11, 0, 0), 9, 30)
	if err != nil {
		t.Fatalf("AtTime: %v", err)
	}
	if q == nil {
		t.Fatal("AtTime returned nil, want a quote")
	}
	if got := q.Price.InexactFloat64(); got != 95.10 {
		t.Errorf("price = %v, want 95.10", got)
	}
	if q.Tier != TierMarketOpen {
		t.Errorf("tier = %s, want %s", q.Tier, TierMarketOpen)
	}
}

func TestAtTimeMissIsNotFatal(t *testing.T) {
	src := &stubSource{
		minute: map[string][]marketdata.Bar{
			"AAPL": {{Timestamp: etTime(11, 9, 31), Close: 95.20}},
		},
	}
	r := newTestResolver(src)

	q, err := r.AtTime(context.Background(), "AAPL", etTime(11, 0, 0), 9, 30)
	if err != nil {
		t.Fatalf("AtTime: %v", err)
	}
	if q != nil {
		t.Errorf("AtTime = %+v, want nil for an unmatched minute", q)
	}
}

func TestRegularOpen(t *testing.T) {
	src := &stubSource{daily: map[string][]marketdata.Bar{
		"AAPL": {dailyBar(10, 101.50, 100.00)},
	}}
	r := newTestResolver(src)

	q, err := r.RegularOpen(context.Background(), "AAPL", etTime(10, 0, 0))
	if err != nil {
		t.Fatalf("RegularOpen: %v", err)
	}
	if got := q.Price.InexactFloat64(); got != 101.50 {
		t.Errorf("price = %v, want 101.50", got)
	}
	if q.Tier != TierRegularOpen {
		t.Errorf("tier = %s, want %s", q.Tier, TierRegularOpen)
	}
}
