package db

import (
	"fmt"

	"github.com/solatis/kitkeeper/internal/types"
)

// RunRecord is the aggregate row for one batch run.
type RunRecord struct {
	RunID        string `db:"run_id"`
	Phase        string `db:"phase"` // "listing" or "generate"
	Policy       string `db:"policy"`
	StartedAt    string `db:"started_at"` // RFC3339 UTC
	KitsTotal    int    `db:"kits_total"`
	KitsOK       int    `db:"kits_ok"`
	KitsRejected int    `db:"kits_rejected"`
	SamplesTotal int    `db:"samples_total"`
}

// KitResult is one kit's disposition within a run.
type KitResult struct {
	RunID   string `db:"run_id"`
	KitName string `db:"kit_name"`
	Status  string `db:"status"` // generated | valid | rejected | overflow_rejected
	Reason  string `db:"reason"` // validity string, empty when ok
	Samples int    `db:"samples"`
}

// Kit result statuses.
const (
	StatusGenerated        = "generated"
	StatusValid            = "valid"
	StatusRejected         = "rejected"
	StatusOverflowRejected = "overflow_rejected"
)

// RecordRun stores a run and its per-kit results atomically.
func RecordRun(q *Queries, run RunRecord, results []KitResult) error {
	tx, err := q.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin run record: %w", err)
	}

	insertRun, err := q.dot.Raw("insert-run")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("query not found: insert-run")
	}
	if _, err := tx.Exec(tx.Rebind(insertRun),
		run.RunID, run.Phase, run.Policy, run.StartedAt,
		run.KitsTotal, run.KitsOK, run.KitsRejected, run.SamplesTotal); err != nil {
		tx.Rollback()
		return fmt.Errorf("insert run %s: %w", run.RunID, err)
	}

	insertKit, err := q.dot.Raw("insert-kit-result")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("query not found: insert-kit-result")
	}
	for _, r := range results {
		if _, err := tx.Exec(tx.Rebind(insertKit),
			run.RunID, r.KitName, r.Status, r.Reason, r.Samples); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert kit result %s/%s: %w", run.RunID, r.KitName, err)
		}
	}

	return tx.Commit()
}

// RecentRuns returns the most recent runs, newest first.
// UUIDv7 run IDs sort chronologically, so ordering by ID is ordering by time.
func RecentRuns(q *Queries, limit int) ([]RunRecord, error) {
	var runs []RunRecord
	if err := q.Select("recent-runs", &runs, limit); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// RunResults returns the per-kit dispositions of one run.
func RunResults(q *Queries, runID types.RunID) ([]KitResult, error) {
	var results []KitResult
	if err := q.Select("run-results", &results, string(runID)); err != nil {
		return nil, fmt.Errorf("run %s results: %w", runID, err)
	}
	return results, nil
}
