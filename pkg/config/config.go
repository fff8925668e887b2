// Package config loads the process configuration from the environment
// (optionally seeded by a .env file) once at startup. The resulting value
// is immutable; components receive it or its fields explicitly.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/pkonduri/gap-down-stocks/pkg/gap"
)

// Price data sources.
const (
	SourceYahoo  = "yahoo"
	SourceAlpaca = "alpaca"
)

type Config struct {
	// Universe.
	TickersCSV   string
	TestingLimit int

	// Gap thresholds, percent. Down <= 0 <= Up.
	MinGapDownPct float64
	MinGapUpPct   float64

	// Price resolution.
	PriceSource string // yahoo | alpaca
	PricePolicy string // latest | open | premarket

	// Scan pacing.
	ScanWorkers int
	RateDelay   time.Duration

	// Alpaca credentials (required only when PriceSource is alpaca).
	AlpacaAPIKey    string
	AlpacaSecretKey string

	// Email delivery.
	ResendAPIKey   string
	EmailFrom      string
	PersonalEmails []string
	ReceiverEmails []string
	SubjectPrefix  string

	// Local artifacts.
	ArtifactDir string

	// Daemon schedule, "HH:MM" Eastern.
	DaemonAt string
}

// Load reads the configuration. A missing .env file is not an error; the
// environment alone may carry everything.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TickersCSV:      envStr("TICKERS_CSV", "sp500_tickers.csv"),
		TestingLimit:    envInt("TESTING_LIMIT", 0),
		MinGapDownPct:   envFloat("MIN_GAP_DOWN_PCT", -5),
		MinGapUpPct:     envFloat("MIN_GAP_UP_PCT", 1),
		PriceSource:     envStr("PRICE_SOURCE", SourceYahoo),
		PricePolicy:     envStr("PRICE_POLICY", gap.PolicyLatest),
		ScanWorkers:     envInt("SCAN_WORKERS", 1),
		RateDelay:       time.Duration(envInt("RATE_DELAY_MS", 100)) * time.Millisecond,
		AlpacaAPIKey:    os.Getenv("ALPACA_API_KEY"),
		AlpacaSecretKey: os.Getenv("ALPACA_SECRET_KEY"),
		ResendAPIKey:    os.Getenv("RESEND_API_KEY"),
		EmailFrom:       os.Getenv("EMAIL_FROM"),
		PersonalEmails:  splitEmails(os.Getenv("PERSONAL_EMAILS")),
		ReceiverEmails:  splitEmails(os.Getenv("RECEIVER_EMAIL_ADDRESS")),
		SubjectPrefix:   envStr("EMAIL_SUBJECT_PREFIX", "[Daily Gaps]"),
		ArtifactDir:     envStr("ARTIFACT_DIR", "."),
		DaemonAt:        envStr("DAEMON_AT", "08:00"),
	}

	// Legacy switch from the first version of this tool: TESTING_MODE=true
	// capped the scan at the first 50 symbols.
	if strings.EqualFold(os.Getenv("TESTING_MODE"), "true") && cfg.TestingLimit == 0 {
		cfg.TestingLimit = 50
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MinGapDownPct > 0 {
		return fmt.Errorf("MIN_GAP_DOWN_PCT must be <= 0, got %v", c.MinGapDownPct)
	}
	if c.MinGapUpPct < 0 {
		return fmt.Errorf("MIN_GAP_UP_PCT must be >= 0, got %v", c.MinGapUpPct)
	}
	switch c.PriceSource {
	case SourceYahoo:
	case SourceAlpaca:
		if c.AlpacaAPIKey == "" || c.AlpacaSecretKey == "" {
			return fmt.Errorf("PRICE_SOURCE=alpaca requires ALPACA_API_KEY and ALPACA_SECRET_KEY")
		}
	default:
		return fmt.Errorf("unknown PRICE_SOURCE %q", c.PriceSource)
	}
	switch c.PricePolicy {
	case gap.PolicyLatest, gap.PolicyOpen, gap.PolicyPremarket:
	default:
		return fmt.Errorf("unknown PRICE_POLICY %q", c.PricePolicy)
	}
	if _, err := time.Parse("15:04", c.DaemonAt); err != nil {
		return fmt.Errorf("DAEMON_AT must be HH:MM, got %q", c.DaemonAt)
	}
	return nil
}

// RequireEmail validates the settings the email commands need. Checked
// before scanning so a misconfigured run fails fast.
func (c *Config) RequireEmail() error {
	if c.ResendAPIKey == "" || c.EmailFrom == "" {
		return fmt.Errorf("missing RESEND_API_KEY/EMAIL_FROM")
	}
	return nil
}

// Thresholds returns the configured gap cutoffs.
func (c *Config) Thresholds() gap.Thresholds {
	return gap.Thresholds{Down: c.MinGapDownPct, Up: c.MinGapUpPct}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func splitEmails(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
