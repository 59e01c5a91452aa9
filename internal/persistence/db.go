// Package persistence stores the decision log and outage history in
// SQLite. The core only hands records in; reporting tooling reads the
// database on its own.
package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/powergrid/internal/agents"
	"github.com/talgya/powergrid/internal/grid"
)

// DB wraps a SQLite connection for the decision log.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS decisions (
		step INTEGER PRIMARY KEY,
		deficit REAL NOT NULL,
		severity REAL NOT NULL,
		converged INTEGER NOT NULL,
		feasible INTEGER NOT NULL,
		plan_json TEXT NOT NULL,
		intentions_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS outages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		circuit TEXT NOT NULL,
		step INTEGER NOT NULL,
		duration REAL NOT NULL,
		magnitude REAL NOT NULL,
		cause TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_outages_circuit ON outages(circuit, step);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RecordDecision appends one timestep's committed decision.
func (db *DB) RecordDecision(d agents.Decision) error {
	planJSON, err := json.Marshal(d.Plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	intentionsJSON, err := json.Marshal(d.Intentions)
	if err != nil {
		return fmt.Errorf("marshal intentions: %w", err)
	}

	converged, feasible := 0, 0
	if d.Converged {
		converged = 1
	}
	if d.Feasible {
		feasible = 1
	}

	_, err = db.conn.Exec(`INSERT OR REPLACE INTO decisions
		(step, deficit, severity, converged, feasible, plan_json, intentions_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.Step, d.Deficit, d.Severity, converged, feasible,
		string(planJSON), string(intentionsJSON),
	)
	if err != nil {
		return fmt.Errorf("insert decision %d: %w", d.Step, err)
	}
	return nil
}

// RecordOutages appends realized outage events. Events are history:
// there is no update path, corrections are new rows.
func (db *DB) RecordOutages(events []grid.OutageEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, ev := range events {
		_, err := tx.Exec(`INSERT INTO outages
			(circuit, step, duration, magnitude, cause)
			VALUES (?, ?, ?, ?, ?)`,
			string(ev.Circuit), ev.Step, ev.Duration, ev.Magnitude, grid.CauseName(ev.Cause),
		)
		if err != nil {
			return fmt.Errorf("insert outage for %q: %w", ev.Circuit, err)
		}
	}

	return tx.Commit()
}

// OutageCount returns how many outages a circuit has on record.
func (db *DB) OutageCount(c grid.CircuitID) (int, error) {
	var n int
	if err := db.conn.Get(&n, `SELECT COUNT(*) FROM outages WHERE circuit = ?`, string(c)); err != nil {
		return 0, fmt.Errorf("count outages: %w", err)
	}
	return n, nil
}

// DecisionRow is a decision log entry as read back from storage.
type DecisionRow struct {
	Step       uint64  `db:"step"`
	Deficit    float64 `db:"deficit"`
	Severity   float64 `db:"severity"`
	Converged  bool    `db:"converged"`
	Feasible   bool    `db:"feasible"`
	PlanJSON   string  `db:"plan_json"`
	Intentions string  `db:"intentions_json"`
}

// RecentDecisions returns up to limit decisions, newest first.
func (db *DB) RecentDecisions(limit int) ([]DecisionRow, error) {
	rows := []DecisionRow{}
	err := db.conn.Select(&rows, `SELECT step, deficit, severity, converged, feasible, plan_json, intentions_json
		FROM decisions ORDER BY step DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select decisions: %w", err)
	}
	return rows, nil
}
