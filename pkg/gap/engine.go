package gap

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pkonduri/gap-down-stocks/pkg/calendar"
)

// Log a progress line every N processed symbols.
const progressEvery = 100

// Classification buckets a gap percentage against the configured thresholds.
type Classification string

const (
	GapDown Classification = "GAP_DOWN"
	GapUp   Classification = "GAP_UP"
	Neutral Classification = "NEUTRAL"
)

// Thresholds hold the configured gap cutoffs: Down <= 0 <= Up, in percent.
type Thresholds struct {
	Down float64
	Up   float64
}

// Classify buckets gapPct. Down is checked first, so a value that somehow
// satisfies both thresholds settles as GAP_DOWN.
func Classify(gapPct float64, t Thresholds) Classification {
	if gapPct <= t.Down {
		return GapDown
	}
	if gapPct >= t.Up {
		return GapUp
	}
	return Neutral
}

// Record is one symbol's resolved price pair and its classified gap.
type Record struct {
	Symbol    string         `json:"symbol"`
	PrevClose Quote          `json:"prev_close"`
	Current   Quote          `json:"current"`
	GapPct    float64        `json:"gap_pct"`
	Class     Classification `json:"classification"`
}

// Stats counts per-scan outcomes for the summary report.
type Stats struct {
	Attempted int
	Succeeded int
	Failed    int
}

// CurrentPriceFunc is the pluggable "current price" strategy. The intraday,
// at-the-open, and pre-market scans share one engine and differ only here.
type CurrentPriceFunc func(ctx context.Context, symbol string, now time.Time) (Quote, error)

// Engine iterates a ticker universe, resolving a previous-close/current
// price pair per symbol and classifying the gap. Individual symbol failures
// are counted and skipped; the scan is fatal only when every symbol fails.
type Engine struct {
	resolver   *Resolver
	current    CurrentPriceFunc
	thresholds Thresholds
	workers    int
	rateDelay  time.Duration
	log        *zap.Logger
}

// Price policies selectable via configuration.
const (
	PolicyLatest    = "latest"
	PolicyOpen      = "open"
	PolicyPremarket = "premarket"
)

// Pre-market scans sample the 8:00 AM Eastern minute bar.
const premarketHour = 8

// NewEngine builds an engine over the resolver. policy selects the current
// price strategy; workers and rateDelay bound the provider request rate
// (workers=1 scans strictly sequentially).
func NewEngine(resolver *Resolver, policy string, thresholds Thresholds, workers int, rateDelay time.Duration, log *zap.Logger) *Engine {
	e := &Engine{
		resolver:   resolver,
		thresholds: thresholds,
		workers:    workers,
		rateDelay:  rateDelay,
		log:        log,
	}
	if e.workers < 1 {
		e.workers = 1
	}
	if e.rateDelay <= 0 {
		e.rateDelay = time.Millisecond
	}

	switch policy {
	case PolicyOpen:
		e.current = e.atTimeOrOpen(calendar.SessionOpenHour, calendar.SessionOpenMinute)
	case PolicyPremarket:
		e.current = e.atTimeOrOpen(premarketHour, 0)
	default:
		e.current = resolver.Current
	}
	return e
}

// atTimeOrOpen resolves the minute bar stamped exactly hh:mm on the scan
// day, falling back to the regular session open when no bar matches.
func (e *Engine) atTimeOrOpen(hour, minute int) CurrentPriceFunc {
	return func(ctx context.Context, symbol string, now time.Time) (Quote, error) {
		day := now.In(calendar.Eastern())
		q, err := e.resolver.AtTime(ctx, symbol, day, hour, minute)
		if err == nil && q != nil {
			return *q, nil
		}
		return e.resolver.RegularOpen(ctx, symbol, day)
	}
}

// Scan resolves every ticker against the most recent closed session. A
// single rate-limit ticker is shared across workers; result ordering is
// left entirely to the aggregator's sort.
func (e *Engine) Scan(ctx context.Context, tickers []string, now time.Time) ([]Record, Stats, error) {
	session := calendar.MostRecentClosedSession(now)
	e.log.Info("starting gap scan",
		zap.Int("tickers", len(tickers)),
		zap.Time("session", session),
		zap.Int("workers", e.workers))

	var (
		mu        sync.Mutex
		records   []Record
		failed    int
		processed int
	)

	sem := make(chan struct{}, e.workers)
	limiter := time.Tick(e.rateDelay)
	var wg sync.WaitGroup

	for _, symbol := range tickers {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			select {
			case <-ctx.Done():
				return
			case <-limiter:
			}

			rec, err := e.scanOne(ctx, sym, session, now)

			mu.Lock()
			defer mu.Unlock()
			processed++
			if processed%progressEvery == 0 || processed == len(tickers) {
				e.log.Info("scan progress",
					zap.Int("processed", processed),
					zap.Int("total", len(tickers)),
					zap.Int("records", len(records)),
					zap.Int("failed", failed))
			}
			if err != nil {
				failed++
				e.log.Debug("skipping symbol", zap.String("symbol", sym), zap.Error(err))
				return
			}
			records = append(records, *rec)
		}(symbol)
	}
	wg.Wait()

	stats := Stats{Attempted: len(tickers), Succeeded: len(records), Failed: failed}

	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}
	if len(tickers) > 0 && len(records) == 0 {
		return nil, stats, &TotalScanFailureError{Attempted: len(tickers), Failed: failed}
	}
	return records, stats, nil
}

func (e *Engine) scanOne(ctx context.Context, symbol string, session, now time.Time) (*Record, error) {
	prev, err := e.resolver.PreviousClose(ctx, symbol, session)
	if err != nil {
		return nil, err
	}
	cur, err := e.current(ctx, symbol, now)
	if err != nil {
		return nil, err
	}

	gapPct := cur.Price.Sub(prev.Price).
		Div(prev.Price).
		Mul(decimal.NewFromInt(100)).
		InexactFloat64()

	return &Record{
		Symbol:    symbol,
		PrevClose: prev,
		Current:   cur,
		GapPct:    gapPct,
		Class:     Classify(gapPct, e.thresholds),
	}, nil
}
