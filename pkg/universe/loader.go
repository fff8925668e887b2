// Package universe produces the deduplicated, exchange-normalized set of
// ticker symbols a scan iterates over. Symbols come from a local CSV file
// or from the Wikipedia S&P 500 constituents table.
package universe

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const sp500URL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

// Some endpoints reject requests without a browser User-Agent.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// CSV header written and skipped on read.
const csvHeader = "TICKER"

// Normalize uppercases a raw symbol and rewrites exchange-incompatible
// characters to the provider's accepted delimiter (BRK.B -> BRK-B).
func Normalize(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	return strings.ReplaceAll(s, ".", "-")
}

// Load reads ticker symbols from a CSV file: one symbol per row, first
// column, optional TICKER header. Symbols are normalized and deduplicated,
// first occurrence winning. limit > 0 caps the result (testing mode).
func Load(path string, limit int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tickers file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var symbols []string
	seen := make(map[string]bool)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tickers file: %w", err)
		}
		if len(row) == 0 {
			continue
		}
		sym := Normalize(row[0])
		if sym == "" || sym == csvHeader || seen[sym] {
			continue
		}
		seen[sym] = true
		symbols = append(symbols, sym)
	}

	if limit > 0 && len(symbols) > limit {
		symbols = symbols[:limit]
	}
	return symbols, nil
}

// FetchSP500 scrapes the current S&P 500 constituents from Wikipedia. The
// first wikitable on the page lists the companies; the first cell of each
// row is the symbol.
func FetchSP500() ([]string, error) {
	req, err := http.NewRequest(http.MethodGet, sp500URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch S&P 500 page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch S&P 500 page: %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse S&P 500 page: %w", err)
	}

	var symbols []string
	seen := make(map[string]bool)
	doc.Find("table.wikitable").First().Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cell := row.Find("td").First()
		sym := Normalize(cell.Text())
		if sym == "" || seen[sym] {
			return
		}
		seen[sym] = true
		symbols = append(symbols, sym)
	})

	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols found in S&P 500 table")
	}
	return symbols, nil
}

// WriteCSV saves symbols to path in the format Load reads back.
func WriteCSV(path string, symbols []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create tickers file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{csvHeader}); err != nil {
		return err
	}
	for _, sym := range symbols {
		if err := w.Write([]string{sym}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
