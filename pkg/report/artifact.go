package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"

	"github.com/pkonduri/gap-down-stocks/pkg/calendar"
	"github.com/pkonduri/gap-down-stocks/pkg/gap"
)

// Artifact is the JSON snapshot written next to each run so a scan can be
// inspected after the email is gone.
type Artifact struct {
	RunID       string       `json:"run_id"`
	GeneratedAt time.Time    `json:"generated_at"`
	DataSource  string       `json:"data_source"`
	Session     string       `json:"session"`
	GapDowns    []gap.Record `json:"gap_downs"`
	GapUps      []gap.Record `json:"gap_ups"`
	AllData     []gap.Record `json:"all_data"`
	Stats       gap.Stats    `json:"stats"`
}

// WriteArtifacts saves the prettified JSON snapshot and the CSV next to it.
// Artifact failures are logged, not fatal; the email is the deliverable.
func WriteArtifacts(dir string, res *gap.Result, stats gap.Stats, dataSource string, session, now time.Time, logger *zap.Logger) string {
	runID := uuid.NewString()
	day := now.In(calendar.Eastern()).Format("20060102")

	art := &Artifact{
		RunID:       runID,
		GeneratedAt: now,
		DataSource:  dataSource,
		Session:     session.Format("2006-01-02"),
		GapDowns:    res.GapDowns,
		GapUps:      res.GapUps,
		AllData:     res.AllData,
		Stats:       stats,
	}

	raw, err := json.Marshal(art)
	if err != nil {
		logger.Warn("could not marshal scan artifact", zap.Error(err))
		return runID
	}
	jsonPath := filepath.Join(dir, fmt.Sprintf("gap_analysis_%s_%s.json", day, runID))
	if err := os.WriteFile(jsonPath, pretty.Pretty(raw), 0o644); err != nil {
		logger.Warn("could not write scan artifact", zap.String("path", jsonPath), zap.Error(err))
	}

	csvBytes, err := BuildCSV(res)
	if err != nil {
		logger.Warn("could not build csv artifact", zap.Error(err))
		return runID
	}
	csvPath := filepath.Join(dir, fmt.Sprintf("gap_analysis_%s_%s.csv", day, runID))
	if err := os.WriteFile(csvPath, csvBytes, 0o644); err != nil {
		logger.Warn("could not write csv artifact", zap.String("path", csvPath), zap.Error(err))
	}
	return runID
}
