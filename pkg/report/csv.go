package report

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/pkonduri/gap-down-stocks/pkg/gap"
)

// BuildCSV renders the full record set as the email attachment. AllData is
// already sorted by gap percent ascending, so the steepest drops lead.
func BuildCSV(res *gap.Result) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Ticker", "Previous_Close", "Current_Price", "Dollar_Change", "Gap_Percent", "Category"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range res.AllData {
		change := r.Current.Price.Sub(r.PrevClose.Price)
		row := []string{
			r.Symbol,
			r.PrevClose.Price.StringFixed(2),
			r.Current.Price.StringFixed(2),
			change.StringFixed(2),
			fmt.Sprintf("%.2f", r.GapPct),
			string(r.Class),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row %s: %w", r.Symbol, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
