package gap

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pkonduri/gap-down-stocks/pkg/marketdata"
)

func newTestEngine(src marketdata.BarSource, policy string, th Thresholds) *Engine {
	return NewEngine(NewResolver(src, zap.NewNop()), policy, th, 1, time.Millisecond, zap.NewNop())
}

func TestClassify(t *testing.T) {
	th := Thresholds{Down: -5, Up: 1}
	tests := []struct {
		gapPct float64
		want   Classification
	}{
		{-10.0, GapDown},
		{-5.0, GapDown}, // boundary: exactly the down threshold
		{-4.99, Neutral},
		{0, Neutral},
		{0.99, Neutral},
		{1.0, GapUp}, // boundary: exactly the up threshold
		{7.5, GapUp},
	}
	for _, tt := range tests {
		if got := Classify(tt.gapPct, th); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.gapPct, got, tt.want)
		}
	}
}

func TestClassifyDownWinsWhenBothMatch(t *testing.T) {
	// Degenerate thresholds where a value satisfies both: down is
	// evaluated first.
	th := Thresholds{Down: 2, Up: 1}
	if got := Classify(1.5, th); got != GapDown {
		t.Errorf("Classify = %s, want %s", got, GapDown)
	}
}

func TestScanGapDown(t *testing.T) {
	// Previous close $100.00, current $94.50 -> gap -5.50%.
	src := &stubSource{
		daily: map[string][]marketdata.Bar{
			"AAPL": {dailyBar(10, 101, 100.00)},
		},
		minute: map[string][]marketdata.Bar{
			"AAPL": {{Timestamp: etTime(11, 13, 59), Close: 94.50}},
		},
	}
	e := newTestEngine(src, PolicyLatest, Thresholds{Down: -5, Up: 1})

	records, stats, err := e.Scan(context.Background(), []string{"AAPL"}, etTime(11, 14, 0))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if stats.Succeeded != 1 || stats.Failed != 0 {
		t.Fatalf("stats = %+v, want 1 succeeded", stats)
	}

	rec := records[0]
	if math.Abs(rec.GapPct-(-5.50)) > 1e-9 {
		t.Errorf("GapPct = %v, want -5.50", rec.GapPct)
	}
	if rec.Class != GapDown {
		t.Errorf("Class = %s, want %s", rec.Class, GapDown)
	}

	// Round-trip: the stored gap must match the formula recomputed from the
	// stored quotes.
	recomputed := rec.Current.Price.Sub(rec.PrevClose.Price).
		Div(rec.PrevClose.Price).
		Mul(decimal.NewFromInt(100)).
		InexactFloat64()
	if math.Abs(rec.GapPct-recomputed) > 1e-9 {
		t.Errorf("GapPct = %v, recomputed = %v", rec.GapPct, recomputed)
	}
}

func TestScanSkipsFailedSymbols(t *testing.T) {
	src := &stubSource{
		daily: map[string][]marketdata.Bar{
			"AAPL": {dailyBar(10, 101, 100.00)},
		},
		minute: map[string][]marketdata.Bar{
			"AAPL": {{Timestamp: etTime(11, 13, 59), Close: 103.00}},
		},
	}
	e := newTestEngine(src, PolicyLatest, Thresholds{Down: -5, Up: 1})

	records, stats, err := e.Scan(context.Background(), []string{"GONE", "AAPL"}, etTime(11, 14, 0))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if stats.Failed != 1 || stats.Succeeded != 1 {
		t.Errorf("stats = %+v, want 1 failed / 1 succeeded", stats)
	}
	if len(records) != 1 || records[0].Symbol != "AAPL" {
		t.Errorf("records = %+v, want only AAPL", records)
	}
	if records[0].Class != GapUp {
		t.Errorf("Class = %s, want %s", records[0].Class, GapUp)
	}
}

func TestScanTotalFailure(t *testing.T) {
	e := newTestEngine(&stubSource{}, PolicyLatest, Thresholds{Down: -5, Up: 1})

	_, stats, err := e.Scan(context.Background(), []string{"A", "B", "C"}, etTime(11, 14, 0))
	tsf, ok := err.(*TotalScanFailureError)
	if !ok {
		t.Fatalf("err = %v, want *TotalScanFailureError", err)
	}
	if tsf.Attempted != 3 || tsf.Failed != 3 {
		t.Errorf("failure = %+v, want 3/3", tsf)
	}
	if stats.Failed != 3 {
		t.Errorf("stats = %+v, want 3 failed", stats)
	}
}

func TestScanEmptyUniverse(t *testing.T) {
	e := newTestEngine(&stubSource{}, PolicyLatest, Thresholds{Down: -5, Up: 1})
	records, _, err := e.Scan(context.Background(), nil, etTime(11, 14, 0))
	if err != nil {
		t.Fatalf("Scan of empty universe: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records = %+v, want none", records)
	}
}

func TestScanOpenPolicyUsesExactOpenBar(t *testing.T) {
	src := &stubSource{
		daily: map[string][]marketdata.Bar{
			"AAPL": {dailyBar(10, 101, 100.00)},
		},
		minute: map[string][]marketdata.Bar{
			"AAPL": {
				{Timestamp: etTime(11, 9, 30), Close: 96.00},
				{Timestamp: etTime(11, 9, 31), Close: 97.00},
			},
		},
	}
	e := newTestEngine(src, PolicyOpen, Thresholds{Down: -5, Up: 1})

	records, _, err := e.Scan(context.Background(), []string{"AAPL"}, etTime(11, 9, 45))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if records[0].Current.Tier != TierMarketOpen {
		t.Errorf("tier = %s, want %s", records[0].Current.Tier, TierMarketOpen)
	}
	if got := records[0].Current.Price.InexactFloat64(); got != 96.00 {
		t.Errorf("price = %v, want the 09:30 bar close 96.00", got)
	}
}

func TestScanOpenPolicyFallsBackToRegularOpen(t *testing.T) {
	// No 09:30 minute bar: the daily bar's open is the fallback.
	src := &stubSource{
		daily: map[string][]marketdata.Bar{
			"AAPL": {dailyBar(10, 101, 100.00), dailyBar(11, 95.50, 0)},
		},
		minute: map[string][]marketdata.Bar{
			"AAPL": {{Timestamp: etTime(11, 9, 31), Close: 97.00}},
		},
	}
	e := newTestEngine(src, PolicyOpen, Thresholds{Down: -5, Up: 1})

	records, _, err := e.Scan(context.Background(), []string{"AAPL"}, etTime(11, 9, 45))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if records[0].Current.Tier != TierRegularOpen {
		t.Errorf("tier = %s, want %s", records[0].Current.Tier, TierRegularOpen)
	}
	if got := records[0].Current.Price.InexactFloat64(); got != 95.50 {
		t.Errorf("price = %v, want 95.50", got)
	}
}
