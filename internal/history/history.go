// Package history records finished runs in a MySQL database so CI can
// aggregate results across machines. It is enabled by setting
// STP_HISTORY_DSN (a .env file in the project directory is honored).
package history

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"stp/internal/domain"
)

const schema = `CREATE TABLE IF NOT EXISTS runs (
	id         BIGINT AUTO_INCREMENT PRIMARY KEY,
	run_id     VARCHAR(36)  NOT NULL,
	script     VARCHAR(512) NOT NULL,
	executed   INT          NOT NULL,
	failed     INT          NOT NULL,
	skipped    INT          NOT NULL,
	duration_s DOUBLE       NOT NULL,
	failures   TEXT,
	started_at DATETIME     NOT NULL,
	UNIQUE KEY uniq_run (run_id)
)`

// RunRow is one recorded run.
type RunRow struct {
	RunID     string
	Script    string
	Executed  int
	Failed    int
	Skipped   int
	Duration  float64
	StartedAt time.Time
}

// Store persists run records in MySQL.
type Store struct {
	db *sql.DB
}

// Open connects to the history database and ensures the schema exists.
func Open(dsn string) (*Store, error) {
	if strings.Contains(dsn, "?") {
		dsn += "&parseTime=true"
	} else {
		dsn += "?parseTime=true"
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record inserts one finished run.
func (s *Store) Record(rec *domain.RunRecord, duration time.Duration) error {
	var failed []string
	for _, f := range rec.Failures {
		failed = append(failed, f.TestID)
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, script, executed, failed, skipped, duration_s, failures, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Script, rec.Executed, rec.Failed, len(rec.Skips),
		duration.Seconds(), strings.Join(failed, "\n"), rec.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns the most recent runs, newest first.
func (s *Store) Recent(limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT run_id, script, executed, failed, skipped, duration_s, started_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.RunID, &r.Script, &r.Executed, &r.Failed, &r.Skipped, &r.Duration, &r.StartedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
