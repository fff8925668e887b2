// Command gapscan scans an equity universe for overnight gaps against the
// most recent closed session and reports the results.
//
// Usage:
//
//	gapscan [command]
//
// Commands:
//
//	scan            run the scan and print results (no email)
//	email           run the scan and email PERSONAL_EMAILS (default)
//	email-all       run the scan and email RECEIVER_EMAIL_ADDRESS
//	fetch-universe  refresh the ticker CSV from the S&P 500 constituent list
//	daemon          run once now, then daily at DAEMON_AT Eastern
//
// Exit codes: 0 success, 1 total scan failure, 2 configuration error,
// 3 delivery failure.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/pkonduri/gap-down-stocks/pkg/calendar"
	"github.com/pkonduri/gap-down-stocks/pkg/config"
	"github.com/pkonduri/gap-down-stocks/pkg/gap"
	"github.com/pkonduri/gap-down-stocks/pkg/marketdata"
	"github.com/pkonduri/gap-down-stocks/pkg/report"
	"github.com/pkonduri/gap-down-stocks/pkg/universe"
)

const (
	exitOK       = 0
	exitScan     = 1
	exitConfig   = 2
	exitDelivery = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: could not build logger: %v\n", err)
		return exitConfig
	}
	defer logger.Sync()

	command := "email"
	if len(args) > 0 {
		command = args[0]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return exitConfig
	}

	ctx := context.Background()

	switch command {
	case "scan":
		_, code := runScan(ctx, cfg, logger)
		return code
	case "email":
		return runEmail(ctx, cfg, cfg.PersonalEmails, logger)
	case "email-all":
		return runEmail(ctx, cfg, cfg.ReceiverEmails, logger)
	case "fetch-universe":
		return runFetchUniverse(cfg)
	case "daemon":
		return runDaemon(ctx, cfg, logger)
	default:
		fmt.Fprintf(os.Stderr, "ERROR: unknown command %q (want scan, email, email-all, fetch-universe, or daemon)\n", command)
		return exitConfig
	}
}

type scanOutput struct {
	result  gap.Result
	stats   gap.Stats
	source  string
	session time.Time
	now     time.Time
}

func runScan(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*scanOutput, int) {
	tickers, err := universe.Load(cfg.TickersCSV, cfg.TestingLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return nil, exitConfig
	}

	src, err := buildSource(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return nil, exitConfig
	}

	now := time.Now()
	session := calendar.MostRecentClosedSession(now)
	fmt.Printf("Scanning %d tickers against the %s close (%s, %s policy)...\n",
		len(tickers), session.Format("2006-01-02"), src.Name(), cfg.PricePolicy)

	engine := gap.NewEngine(gap.NewResolver(src, logger), cfg.PricePolicy, cfg.Thresholds(), cfg.ScanWorkers, cfg.RateDelay, logger)
	records, stats, err := engine.Scan(ctx, tickers, now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return nil, exitScan
	}

	out := &scanOutput{
		result:  gap.Aggregate(records),
		stats:   stats,
		source:  src.Name(),
		session: session,
		now:     now,
	}
	printSummary(out, cfg)
	runID := report.WriteArtifacts(cfg.ArtifactDir, &out.result, out.stats, out.source, out.session, out.now, logger)
	logger.Info("scan complete",
		zap.String("run_id", runID),
		zap.Int("gap_downs", len(out.result.GapDowns)),
		zap.Int("gap_ups", len(out.result.GapUps)),
		zap.Int("analyzed", out.result.TotalAnalyzed()),
		zap.Int("failed", out.stats.Failed))
	return out, exitOK
}

func runEmail(ctx context.Context, cfg *config.Config, recipients []string, logger *zap.Logger) int {
	if err := cfg.RequireEmail(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return exitConfig
	}
	if len(recipients) == 0 {
		fmt.Fprintln(os.Stderr, "ERROR: no recipients configured")
		return exitConfig
	}

	out, code := runScan(ctx, cfg, logger)
	if code != exitOK {
		return code
	}

	html := report.BuildHTML(&out.result, report.HTMLParams{
		DataSource: out.source,
		Now:        out.now,
		Session:    out.session,
		Thresholds: cfg.Thresholds(),
	})
	csvBytes, err := report.BuildCSV(&out.result)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return exitScan
	}

	email := &report.Email{
		From:           cfg.EmailFrom,
		To:             recipients,
		Subject:        report.Subject(cfg.SubjectPrefix, &out.result, out.now),
		HTML:           html,
		AttachmentName: fmt.Sprintf("gap_analysis_%s.csv", out.now.In(calendar.Eastern()).Format("20060102")),
		Attachment:     csvBytes,
	}
	if err := report.NewEmailClient(cfg.ResendAPIKey, logger).Send(ctx, email); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return exitDelivery
	}
	fmt.Printf("Email sent to %d recipient(s)\n", len(recipients))
	return exitOK
}

func runFetchUniverse(cfg *config.Config) int {
	fmt.Println("Fetching S&P 500 constituents...")
	symbols, err := universe.FetchSP500()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return exitScan
	}
	if err := universe.WriteCSV(cfg.TickersCSV, symbols); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return exitScan
	}
	fmt.Printf("Wrote %d tickers to %s\n", len(symbols), cfg.TickersCSV)
	return exitOK
}

// runDaemon runs one scan immediately, then repeats every day at DAEMON_AT
// Eastern. Individual run failures are logged and the loop continues.
func runDaemon(ctx context.Context, cfg *config.Config, logger *zap.Logger) int {
	if err := cfg.RequireEmail(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return exitConfig
	}

	job := func() {
		if code := runEmail(ctx, cfg, cfg.PersonalEmails, logger); code != exitOK {
			logger.Error("scheduled run failed", zap.Int("exit_code", code))
		}
	}

	logger.Info("daemon starting", zap.String("daily_at", cfg.DaemonAt))
	job()

	lastRun := time.Now().In(calendar.Eastern()).Format("2006-01-02")
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return exitOK
		case <-ticker.C:
			now := time.Now().In(calendar.Eastern())
			day := now.Format("2006-01-02")
			if day == lastRun || now.Format("15:04") != cfg.DaemonAt {
				continue
			}
			lastRun = day
			job()
		}
	}
}

func buildSource(cfg *config.Config, logger *zap.Logger) (marketdata.BarSource, error) {
	switch cfg.PriceSource {
	case config.SourceAlpaca:
		return marketdata.NewAlpacaSource(cfg.AlpacaAPIKey, cfg.AlpacaSecretKey, logger), nil
	case config.SourceYahoo:
		return marketdata.NewYahooSource(logger), nil
	}
	return nil, fmt.Errorf("unknown PRICE_SOURCE %q", cfg.PriceSource)
}

func printSummary(out *scanOutput, cfg *config.Config) {
	fmt.Printf("\nAnalyzed %d of %d tickers (%d failed)\n",
		out.stats.Succeeded, out.stats.Attempted, out.stats.Failed)
	fmt.Printf("Gap downs (<= %v%%): %d\n", cfg.MinGapDownPct, len(out.result.GapDowns))
	for _, r := range out.result.GapDowns {
		fmt.Printf("  %-6s %8s -> %8s  %+.2f%%\n",
			r.Symbol, r.PrevClose.Price.StringFixed(2), r.Current.Price.StringFixed(2), r.GapPct)
	}
	fmt.Printf("Gap ups (>= %v%%): %d\n", cfg.MinGapUpPct, len(out.result.GapUps))
	for _, r := range out.result.GapUps {
		fmt.Printf("  %-6s %8s -> %8s  %+.2f%%\n",
			r.Symbol, r.PrevClose.Price.StringFixed(2), r.Current.Price.StringFixed(2), r.GapPct)
	}
}
