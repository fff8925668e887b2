package gap

import "sort"

// Result is the aggregator's three views over a scan's records. Built once
// per scan, immutable afterwards.
type Result struct {
	// GapDowns: classification GAP_DOWN, most negative gap first.
	GapDowns []Record
	// GapUps: classification GAP_UP, most positive gap first.
	GapUps []Record
	// AllData: every resolved record, ascending by gap.
	AllData []Record
}

// TotalAnalyzed is the number of symbols with a resolved price pair.
func (r Result) TotalAnalyzed() int { return len(r.AllData) }

// Aggregate deduplicates records by symbol (first occurrence wins),
// partitions by classification, and sorts each view. Pure and
// deterministic; an empty input yields empty views.
func Aggregate(records []Record) Result {
	seen := make(map[string]bool, len(records))
	unique := make([]Record, 0, len(records))
	for _, rec := range records {
		if seen[rec.Symbol] {
			continue
		}
		seen[rec.Symbol] = true
		unique = append(unique, rec)
	}

	var res Result
	for _, rec := range unique {
		res.AllData = append(res.AllData, rec)
		switch rec.Class {
		case GapDown:
			res.GapDowns = append(res.GapDowns, rec)
		case GapUp:
			res.GapUps = append(res.GapUps, rec)
		}
	}

	sort.SliceStable(res.GapDowns, func(i, j int) bool {
		return res.GapDowns[i].GapPct < res.GapDowns[j].GapPct
	})
	sort.SliceStable(res.GapUps, func(i, j int) bool {
		return res.GapUps[i].GapPct > res.GapUps[j].GapPct
	})
	sort.SliceStable(res.AllData, func(i, j int) bool {
		return res.AllData[i].GapPct < res.AllData[j].GapPct
	})

	return res
}
