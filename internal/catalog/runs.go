package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/jawviewer/internal/pairing"
)

// Run is one collection over a data directory.
type Run struct {
	RunID      string       `json:"run_id"`
	DataDir    string       `json:"data_dir"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	FilesSeen  int          `json:"files_seen"`
	PairCount  int          `json:"pair_count"`
	SkipCount  int          `json:"skip_count"`
	ConfigJSON string       `json:"config_json,omitempty"`
	Pairs      []PairRecord `json:"pairs,omitempty"`
	Skips      []SkipRecord `json:"skips,omitempty"`
}

// PairRecord is the persisted summary of one pair.
type PairRecord struct {
	Index       int    `json:"index"`
	CaseID      int    `json:"case_id"`
	UpperFile   string `json:"upper_file"`
	LowerFile   string `json:"lower_file"`
	UpperPoints int    `json:"upper_points"`
	LowerPoints int    `json:"lower_points"`
	UpperSource string `json:"upper_source"`
	LowerSource string `json:"lower_source"`
	UpperTeeth  int    `json:"upper_teeth"`
	LowerTeeth  int    `json:"lower_teeth"`
}

// SkipRecord is the persisted form of a pairing.Skip.
type SkipRecord struct {
	Filename string `json:"filename"`
	CaseID   *int   `json:"case_id,omitempty"`
	Role     string `json:"role"`
	Reason   string `json:"reason"`
	Detail   string `json:"detail,omitempty"`
}

// NewRun summarises a collection result. The run id is left empty and
// assigned by RecordRun.
func NewRun(dataDir string, res pairing.Result, configJSON []byte) Run {
	run := Run{
		DataDir:    dataDir,
		StartedAt:  res.Started,
		FinishedAt: res.Finished,
		FilesSeen:  res.FilesSeen,
		PairCount:  len(res.Pairs),
		SkipCount:  len(res.Skipped),
		ConfigJSON: string(configJSON),
	}
	for i, p := range res.Pairs {
		run.Pairs = append(run.Pairs, PairRecord{
			Index:       i,
			CaseID:      p.CaseID,
			UpperFile:   p.Upper.File,
			LowerFile:   p.Lower.File,
			UpperPoints: p.Upper.Mesh.NumPoints(),
			LowerPoints: p.Lower.Mesh.NumPoints(),
			UpperSource: p.Upper.Source.String(),
			LowerSource: p.Lower.Source.String(),
			UpperTeeth:  p.Upper.Teeth,
			LowerTeeth:  p.Lower.Teeth,
		})
	}
	for _, s := range res.Skipped {
		rec := SkipRecord{
			Filename: s.Filename,
			Role:     s.Role.String(),
			Reason:   string(s.Reason),
			Detail:   s.Detail,
		}
		if s.CaseID.Valid {
			v := s.CaseID.Value
			rec.CaseID = &v
		}
		run.Skips = append(run.Skips, rec)
	}
	return run
}

// RecordRun stores run with its pairs and skips in one transaction.
// If run.RunID is empty a new UUID is generated and written back.
func (c *Catalog) RecordRun(ctx context.Context, run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.PairCount = len(run.Pairs)
	run.SkipCount = len(run.Skips)

	return c.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO collection_runs (
				run_id, data_dir, started_at_ns, finished_at_ns,
				files_seen, pair_count, skip_count, config_json
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.RunID,
			run.DataDir,
			run.StartedAt.UnixNano(),
			nullTime(run.FinishedAt),
			run.FilesSeen,
			run.PairCount,
			run.SkipCount,
			nullString(run.ConfigJSON),
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		for _, p := range run.Pairs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO collection_pairs (
					run_id, pair_index, case_id, upper_file, lower_file,
					upper_points, lower_points, upper_source, lower_source,
					upper_teeth, lower_teeth
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				run.RunID, p.Index, p.CaseID, p.UpperFile, p.LowerFile,
				p.UpperPoints, p.LowerPoints, p.UpperSource, p.LowerSource,
				p.UpperTeeth, p.LowerTeeth,
			)
			if err != nil {
				return fmt.Errorf("insert pair %d: %w", p.Index, err)
			}
		}

		for _, s := range run.Skips {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO collection_skips (run_id, filename, case_id, role, reason, detail)
				VALUES (?, ?, ?, ?, ?, ?)
			`,
				run.RunID, s.Filename, nullInt(s.CaseID), s.Role, s.Reason, nullString(s.Detail),
			)
			if err != nil {
				return fmt.Errorf("insert skip %s: %w", s.Filename, err)
			}
		}
		return nil
	})
}

// ListRuns returns run headers, newest first. limit <= 0 means no limit.
// Pairs and Skips are not loaded.
func (c *Catalog) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT run_id, data_dir, started_at_ns, finished_at_ns,
		       files_seen, pair_count, skip_count, config_json
		FROM collection_runs
		ORDER BY started_at_ns DESC, run_id
	`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedNs int64
		var finishedNs sql.NullInt64
		var cfg sql.NullString
		if err := rows.Scan(
			&r.RunID, &r.DataDir, &startedNs, &finishedNs,
			&r.FilesSeen, &r.PairCount, &r.SkipCount, &cfg,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.Unix(0, startedNs)
		if finishedNs.Valid {
			r.FinishedAt = time.Unix(0, finishedNs.Int64)
		}
		if cfg.Valid {
			r.ConfigJSON = cfg.String
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunPairs returns the pairs of a run in index order.
func (c *Catalog) RunPairs(ctx context.Context, runID string) ([]PairRecord, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT pair_index, case_id, upper_file, lower_file,
		       upper_points, lower_points, upper_source, lower_source,
		       upper_teeth, lower_teeth
		FROM collection_pairs
		WHERE run_id = ?
		ORDER BY pair_index
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("run pairs: %w", err)
	}
	defer rows.Close()

	var out []PairRecord
	for rows.Next() {
		var p PairRecord
		if err := rows.Scan(
			&p.Index, &p.CaseID, &p.UpperFile, &p.LowerFile,
			&p.UpperPoints, &p.LowerPoints, &p.UpperSource, &p.LowerSource,
			&p.UpperTeeth, &p.LowerTeeth,
		); err != nil {
			return nil, fmt.Errorf("scan pair: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RunSkips returns the skipped files of a run, ordered by filename.
func (c *Catalog) RunSkips(ctx context.Context, runID string) ([]SkipRecord, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT filename, case_id, role, reason, detail
		FROM collection_skips
		WHERE run_id = ?
		ORDER BY filename, reason
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("run skips: %w", err)
	}
	defer rows.Close()

	var out []SkipRecord
	for rows.Next() {
		var s SkipRecord
		var caseID sql.NullInt64
		var detail sql.NullString
		if err := rows.Scan(&s.Filename, &caseID, &s.Role, &s.Reason, &detail); err != nil {
			return nil, fmt.Errorf("scan skip: %w", err)
		}
		if caseID.Valid {
			v := int(caseID.Int64)
			s.CaseID = &v
		}
		if detail.Valid {
			s.Detail = detail.String
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullTime(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}
