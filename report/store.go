// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: store.go — SQLite run history
//
// Purpose:
//   - Appends every harness report to a local SQLite file so runs can be
//     compared over time.
//
// Notes:
//   - One row per run; per-consumer counters are kept as the JSON array the
//     result file carries.
//   - WAL journal keeps concurrent readers off the writer's back.
// ─────────────────────────────────────────────────────────────────────────────

package report

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sugawarayuuta/sonnet"

	"onetomany/harness"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	scenario      TEXT    NOT NULL,
	pow_size      INTEGER NOT NULL,
	consumers     INTEGER NOT NULL,
	messages      INTEGER NOT NULL,
	payload_size  INTEGER NOT NULL,
	record_length INTEGER NOT NULL,
	started_at    INTEGER NOT NULL,
	elapsed_ns    INTEGER NOT NULL,
	msgs_per_sec  REAL    NOT NULL,
	mb_per_sec    REAL    NOT NULL,
	write_retries INTEGER NOT NULL,
	delivered     TEXT    NOT NULL,
	corrupt       TEXT    NOT NULL,
	out_of_order  TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_scenario ON runs(scenario, started_at);
`

// Store is an append-only history of harness runs.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("report: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("report: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Append records rep and returns its row id.
func (s *Store) Append(rep harness.Report) (int64, error) {
	delivered, err := sonnet.Marshal(rep.Delivered)
	if err != nil {
		return 0, err
	}
	corrupt, err := sonnet.Marshal(rep.Corrupt)
	if err != nil {
		return 0, err
	}
	outOfOrder, err := sonnet.Marshal(rep.OutOfOrder)
	if err != nil {
		return 0, err
	}

	res, err := s.db.Exec(`
		INSERT INTO runs (
			scenario, pow_size, consumers, messages, payload_size, record_length,
			started_at, elapsed_ns, msgs_per_sec, mb_per_sec, write_retries,
			delivered, corrupt, out_of_order
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.Scenario, rep.PowSize, rep.Consumers, rep.Messages, rep.PayloadSize, rep.RecordLength,
		rep.StartedAt.UnixNano(), int64(rep.Elapsed), rep.MsgsPerSec, rep.MBPerSec, rep.WriteRetries,
		string(delivered), string(corrupt), string(outOfOrder))
	if err != nil {
		return 0, fmt.Errorf("report: insert: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit runs of scenario, newest first.  An empty
// scenario matches every run.
func (s *Store) Recent(scenario string, limit int) ([]harness.Report, error) {
	rows, err := s.db.Query(`
		SELECT scenario, pow_size, consumers, messages, payload_size, record_length,
		       started_at, elapsed_ns, msgs_per_sec, mb_per_sec, write_retries,
		       delivered, corrupt, out_of_order
		FROM runs
		WHERE ? = '' OR scenario = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, scenario, scenario, limit)
	if err != nil {
		return nil, fmt.Errorf("report: query: %w", err)
	}
	defer rows.Close()

	var out []harness.Report
	for rows.Next() {
		var (
			rep                            harness.Report
			startedAt, elapsed             int64
			delivered, corrupt, outOfOrder string
		)
		if err := rows.Scan(
			&rep.Scenario, &rep.PowSize, &rep.Consumers, &rep.Messages, &rep.PayloadSize, &rep.RecordLength,
			&startedAt, &elapsed, &rep.MsgsPerSec, &rep.MBPerSec, &rep.WriteRetries,
			&delivered, &corrupt, &outOfOrder,
		); err != nil {
			return nil, fmt.Errorf("report: scan: %w", err)
		}
		rep.StartedAt = time.Unix(0, startedAt)
		rep.Elapsed = time.Duration(elapsed)
		if err := sonnet.Unmarshal([]byte(delivered), &rep.Delivered); err != nil {
			return nil, err
		}
		if err := sonnet.Unmarshal([]byte(corrupt), &rep.Corrupt); err != nil {
			return nil, err
		}
		if err := sonnet.Unmarshal([]byte(outOfOrder), &rep.OutOfOrder); err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}
