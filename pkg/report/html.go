// Package report renders scan results into the delivery formats: the HTML
// email body, the CSV attachment, local JSON/CSV artifacts, and the Resend
// API call that carries them.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pkonduri/gap-down-stocks/pkg/calendar"
	"github.com/pkonduri/gap-down-stocks/pkg/gap"
)

// Subject formats the email subject line, e.g.
// "[Daily Gaps] [30/08/2026] [4 gap down, 12 gap up, 503 stocks]".
func Subject(prefix string, res *gap.Result, now time.Time) string {
	day := now.In(calendar.Eastern()).Format("02/01/2006")
	return fmt.Sprintf("%s [%s] [%d gap down, %d gap up, %d stocks]",
		prefix, day, len(res.GapDowns), len(res.GapUps), res.TotalAnalyzed())
}

// HTMLParams carries the context lines shown above the tables.
type HTMLParams struct {
	DataSource string
	Now        time.Time
	Session    time.Time // most recent closed session, ET midnight
	Thresholds gap.Thresholds
}

// BuildHTML renders the email body: a header block describing the run,
// then the gap-down and gap-up tables.
func BuildHTML(res *gap.Result, p HTMLParams) string {
	nowET := p.Now.In(calendar.Eastern())

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<h2>Daily Gap Analysis - %s</h2>", nowET.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("<p><strong>Data Source:</strong> %s</p>", p.DataSource))
	b.WriteString(fmt.Sprintf("<p><strong>Current Timestamp:</strong> %s</p>",
		nowET.Format("Monday, 2006-01-02 at 3:04 PM ET")))
	b.WriteString(fmt.Sprintf("<p><strong>Previous Close Timestamp:</strong> %s at ~4:00 PM ET</p>",
		p.Session.Format("Monday, 2006-01-02")))
	b.WriteString("<p><strong>Gap Calculation:</strong> Current price vs Previous close price</p>")
	b.WriteString(fmt.Sprintf("<p><strong>Gap Down Threshold:</strong> &le; %v%%</p>", p.Thresholds.Down))
	b.WriteString(fmt.Sprintf("<p><strong>Gap Up Threshold:</strong> &ge; %v%%</p>", p.Thresholds.Up))
	b.WriteString(fmt.Sprintf("<p><strong>Total Stocks Analyzed:</strong> %d</p>", res.TotalAnalyzed()))
	b.WriteString(htmlTable(res.GapDowns, "Gap Down Stocks"))
	b.WriteString(htmlTable(res.GapUps, "Gap Up Stocks"))
	b.WriteString("<p><em>Complete data with all stocks attached as CSV.</em></p>")
	return b.String()
}

func htmlTable(rows []gap.Record, title string) string {
	if len(rows) == 0 {
		return fmt.Sprintf("<h3>%s</h3><p>No stocks found.</p>", title)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<h3>%s (%d stocks)</h3>", title, len(rows)))
	b.WriteString("<table border='1' cellpadding='6' cellspacing='0' style='border-collapse:collapse; margin-bottom:20px;'>")
	b.WriteString("<thead><tr><th>Ticker</th><th>Prev Close</th><th>Today Current</th><th>$ Change</th><th>Gap %</th></tr></thead><tbody>")
	for _, r := range rows {
		change := r.Current.Price.Sub(r.PrevClose.Price)
		b.WriteString("<tr>")
		b.WriteString(fmt.Sprintf("<td><b>%s</b></td>", r.Symbol))
		b.WriteString(fmt.Sprintf("<td>$%s</td>", r.PrevClose.Price.StringFixed(2)))
		b.WriteString(fmt.Sprintf("<td>$%s</td>", r.Current.Price.StringFixed(2)))
		b.WriteString(fmt.Sprintf("<td style='color:%s'>$%s</td>", signColor(change.Sign()), signedFixed(change)))
		b.WriteString(fmt.Sprintf("<td style='color:%s'>%+.2f%%</td>", pctColor(r.GapPct), r.GapPct))
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

func signColor(sign int) string {
	switch {
	case sign < 0:
		return "red"
	case sign > 0:
		return "green"
	}
	return "black"
}

func pctColor(pct float64) string {
	switch {
	case pct < 0:
		return "red"
	case pct > 0:
		return "green"
	}
	return "black"
}

func signedFixed(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if d.Sign() >= 0 {
		return "+" + s
	}
	return s
}
