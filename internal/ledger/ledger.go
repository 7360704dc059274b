// Package ledger records every backend invocation in an append-only SQLite
// database. One row per invocation, plus a per-day rollup kept current on
// every append.
package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

// Store wraps the ledger database.
type Store struct {
	conn *sql.DB
	mu   sync.Mutex
}

// Open opens (and if necessary creates) the ledger at path. WAL mode is
// enabled for concurrent readers.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}

	// _txlock=immediate takes the write lock at BEGIN so two blacksmith
	// processes appending at once queue on busy_timeout instead of failing
	// mid-transaction.
	conn, err := sql.Open("sqlite", "file:"+path+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS ledger_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT NOT NULL,
			command TEXT NOT NULL,
			backend TEXT NOT NULL,
			model TEXT NOT NULL,
			workflow TEXT,
			department TEXT,
			prompt_tokens INTEGER DEFAULT 0,
			completion_tokens INTEGER DEFAULT 0,
			estimated_cost REAL DEFAULT 0,
			duration_ms INTEGER DEFAULT 0,
			success INTEGER NOT NULL,
			escalated INTEGER DEFAULT 0,
			session_id TEXT,
			project TEXT,
			metadata_json TEXT
		);

		CREATE TABLE IF NOT EXISTS daily_summary (
			date TEXT PRIMARY KEY,
			total_tokens INTEGER DEFAULT 0,
			total_cost REAL DEFAULT 0,
			calls_by_backend TEXT,
			calls_by_workflow TEXT,
			calls_by_department TEXT
		);
	`)
	if err != nil {
		return fmt.Errorf("create ledger schema: %w", err)
	}

	// Columns added after the first release; older databases get them
	// backfilled here.
	for _, col := range []struct{ name, def string }{
		{"escalated", "INTEGER DEFAULT 0"},
		{"session_id", "TEXT"},
		{"project", "TEXT"},
	} {
		if err := s.ensureColumn(col.name, col.def); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ensureColumn(name, def string) error {
	rows, err := s.conn.Query(`PRAGMA table_info(ledger_entries)`)
	if err != nil {
		return fmt.Errorf("inspect ledger schema: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			colName string
			rest    [4]interface{}
		)
		if err := rows.Scan(&cid, &colName, &rest[0], &rest[1], &rest[2], &rest[3]); err != nil {
			return fmt.Errorf("scan ledger schema: %w", err)
		}
		if colName == name {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if _, err := s.conn.Exec(fmt.Sprintf("ALTER TABLE ledger_entries ADD COLUMN %s %s", name, def)); err != nil {
		return fmt.Errorf("add ledger column %s: %w", name, err)
	}
	return nil
}

// Append records one invocation and updates the day's rollup.
func (s *Store) Append(entry *models.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal ledger metadata: %w", err)
	}

	boolInt := func(b bool) int {
		if b {
			return 1
		}
		return 0
	}

	// The entry insert and the rollup bump commit together; an error in
	// either leaves the two tables consistent.
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin ledger append: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO ledger_entries (
			created_at, command, backend, model, workflow, department,
			prompt_tokens, completion_tokens, estimated_cost, duration_ms,
			success, escalated, session_id, project, metadata_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		createdAt.Format(time.RFC3339),
		entry.Command,
		entry.Backend,
		entry.Model,
		entry.Workflow,
		entry.Department,
		entry.PromptTokens,
		entry.CompletionTokens,
		entry.EstimatedCost,
		entry.DurationMS,
		boolInt(entry.Success),
		boolInt(entry.Escalated),
		entry.SessionID,
		entry.Project,
		string(metadataJSON),
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}

	if err := bumpDailySummary(tx, createdAt.Format("2006-01-02"), entry); err != nil {
		return err
	}
	return tx.Commit()
}

// bumpDailySummary folds one entry into the per-day rollup row inside the
// caller's transaction. All counter arithmetic happens in SQL, so a writer
// in another process can never lose an increment to an interleaved read.
func bumpDailySummary(tx *sql.Tx, date string, entry *models.LedgerEntry) error {
	key := func(k string) string {
		if k == "" {
			return "unknown"
		}
		return k
	}

	_, err := tx.Exec(`
		INSERT INTO daily_summary (date, total_tokens, total_cost, calls_by_backend, calls_by_workflow, calls_by_department)
		VALUES (?1, ?2, ?3, json_object(?4, 1), json_object(?5, 1), json_object(?6, 1))
		ON CONFLICT(date) DO UPDATE SET
			total_tokens = total_tokens + ?2,
			total_cost = total_cost + ?3,
			calls_by_backend = json_set(COALESCE(calls_by_backend, '{}'), '$."' || ?4 || '"',
				COALESCE(json_extract(calls_by_backend, '$."' || ?4 || '"'), 0) + 1),
			calls_by_workflow = json_set(COALESCE(calls_by_workflow, '{}'), '$."' || ?5 || '"',
				COALESCE(json_extract(calls_by_workflow, '$."' || ?5 || '"'), 0) + 1),
			calls_by_department = json_set(COALESCE(calls_by_department, '{}'), '$."' || ?6 || '"',
				COALESCE(json_extract(calls_by_department, '$."' || ?6 || '"'), 0) + 1)`,
		date,
		entry.PromptTokens+entry.CompletionTokens,
		entry.EstimatedCost,
		key(entry.Backend),
		key(entry.Workflow),
		key(entry.Department),
	)
	if err != nil {
		return fmt.Errorf("update daily summary: %w", err)
	}
	return nil
}

// TotalCalls returns the number of ledger entries ever recorded.
func (s *Store) TotalCalls() (int, error) {
	var n int
	if err := s.conn.QueryRow(`SELECT COUNT(*) FROM ledger_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count ledger entries: %w", err)
	}
	return n, nil
}

// Purge deletes entries older than retentionDays and returns how many
// rows were removed. Zero or negative retention disables purging.
func (s *Store) Purge(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Format(time.RFC3339)
	res, err := s.conn.Exec(`DELETE FROM ledger_entries WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge ledger: %w", err)
	}
	return res.RowsAffected()
}
