package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

// Totals is the headline spend summary.
type Totals struct {
	TotalCost        float64
	PromptTokens     int
	CompletionTokens int
	Calls            int
}

// GroupRow is one line of a grouped spend report.
type GroupRow struct {
	Key       string
	TotalCost float64
	Calls     int
}

// DailyRow is one day's rollup.
type DailyRow struct {
	Date              string
	TotalTokens       int
	TotalCost         float64
	CallsByBackend    map[string]int
	CallsByWorkflow   map[string]int
	CallsByDepartment map[string]int
}

// ReportOptions filters spend reports.
type ReportOptions struct {
	// Week restricts the report to the last seven days.
	Week bool
}

func whereClause(opts ReportOptions) (string, []interface{}) {
	if opts.Week {
		cutoff := time.Now().UTC().AddDate(0, 0, -7).Format(time.RFC3339)
		return "WHERE created_at >= ?", []interface{}{cutoff}
	}
	return "", nil
}

// Report returns the headline totals.
func (s *Store) Report(opts ReportOptions) (*Totals, error) {
	where, args := whereClause(opts)
	t := &Totals{}
	err := s.conn.QueryRow(fmt.Sprintf(`
		SELECT
			ROUND(COALESCE(SUM(estimated_cost), 0), 4),
			COALESCE(SUM(prompt_tokens), 0),
			COALESCE(SUM(completion_tokens), 0),
			COUNT(*)
		FROM ledger_entries %s`, where), args...,
	).Scan(&t.TotalCost, &t.PromptTokens, &t.CompletionTokens, &t.Calls)
	if err != nil {
		return nil, fmt.Errorf("spend totals: %w", err)
	}
	return t, nil
}

// ReportBy groups spend by one of backend, workflow, or department.
func (s *Store) ReportBy(column string, opts ReportOptions) ([]GroupRow, error) {
	switch column {
	case "backend", "workflow", "department":
	default:
		return nil, fmt.Errorf("cannot group spend by %q", column)
	}

	where, args := whereClause(opts)
	rows, err := s.conn.Query(fmt.Sprintf(`
		SELECT COALESCE(%s, ''), ROUND(SUM(estimated_cost), 4), COUNT(*)
		FROM ledger_entries %s
		GROUP BY %s
		ORDER BY SUM(estimated_cost) DESC, COUNT(*) DESC`, column, where, column), args...)
	if err != nil {
		return nil, fmt.Errorf("grouped spend: %w", err)
	}
	defer rows.Close()

	var out []GroupRow
	for rows.Next() {
		var r GroupRow
		if err := rows.Scan(&r.Key, &r.TotalCost, &r.Calls); err != nil {
			return nil, fmt.Errorf("scan spend row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Daily returns the per-day rollups, newest first.
func (s *Store) Daily() ([]DailyRow, error) {
	rows, err := s.conn.Query(`
		SELECT date, total_tokens, total_cost, calls_by_backend, calls_by_workflow, calls_by_department
		FROM daily_summary
		ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("daily summary: %w", err)
	}
	defer rows.Close()

	parse := func(raw sql.NullString) map[string]int {
		counts := map[string]int{}
		if raw.Valid && raw.String != "" {
			_ = json.Unmarshal([]byte(raw.String), &counts)
		}
		return counts
	}

	var out []DailyRow
	for rows.Next() {
		var (
			r                            DailyRow
			byBackend, byWorkflow, byDept sql.NullString
		)
		if err := rows.Scan(&r.Date, &r.TotalTokens, &r.TotalCost, &byBackend, &byWorkflow, &byDept); err != nil {
			return nil, fmt.Errorf("scan daily row: %w", err)
		}
		r.CallsByBackend = parse(byBackend)
		r.CallsByWorkflow = parse(byWorkflow)
		r.CallsByDepartment = parse(byDept)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Recent returns the latest n entries, newest first.
func (s *Store) Recent(n int) ([]models.LedgerEntry, error) {
	rows, err := s.conn.Query(`
		SELECT created_at, command, backend, model, COALESCE(workflow, ''), COALESCE(department, ''),
			prompt_tokens, completion_tokens, estimated_cost, duration_ms,
			success, escalated, COALESCE(session_id, ''), COALESCE(project, ''), COALESCE(metadata_json, '{}')
		FROM ledger_entries
		ORDER BY id DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("recent ledger entries: %w", err)
	}
	defer rows.Close()

	var out []models.LedgerEntry
	for rows.Next() {
		var (
			e            models.LedgerEntry
			createdAt    string
			success      int
			escalated    int
			metadataJSON string
		)
		err := rows.Scan(&createdAt, &e.Command, &e.Backend, &e.Model, &e.Workflow, &e.Department,
			&e.PromptTokens, &e.CompletionTokens, &e.EstimatedCost, &e.DurationMS,
			&success, &escalated, &e.SessionID, &e.Project, &metadataJSON)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			e.CreatedAt = ts
		}
		e.Success = success == 1
		e.Escalated = escalated == 1
		e.Metadata = map[string]string{}
		_ = json.Unmarshal([]byte(metadataJSON), &e.Metadata)
		out = append(out, e)
	}
	return out, rows.Err()
}
