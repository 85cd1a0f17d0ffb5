// Package export stores candidate runs in SQLite or PostgreSQL so corpora can
// be compared across configurations with plain SQL.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/platinummonkey/morph/pkg/analysis"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Run describes one invocation over a corpus
type Run struct {
	ID         int64
	StartedAt  time.Time
	ConfigPath string
	Plugins    []string
}

// Line is the candidate set of one input line
type Line struct {
	Source string
	LineNo int
	Text   string
	Nodes  []analysis.Node
	Errors []string
}

// Store writes runs, lines and nodes
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to a PostgreSQL URL (postgres://...) or opens a SQLite file
func Open(dsn string) (*Store, error) {
	driver := DriverSQLite
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = DriverPostgres
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		// one writer at a time
		db.SetMaxOpenConns(1)
	}

	s, err := New(db, driver)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and creates the tables if needed
func New(db *sql.DB, driver string) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	s := &Store{db: db, driver: driver}
	if err := s.ensureTables(); err != nil {
		return nil, fmt.Errorf("failed to ensure export tables: %w", err)
	}
	return s, nil
}

func (s *Store) ensureTables() error {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.driver == DriverPostgres {
		id = "BIGSERIAL PRIMARY KEY"
	}

	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS oov_runs (
		id %[1]s,
		started_at TIMESTAMP NOT NULL,
		config_path TEXT NOT NULL,
		plugins TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS oov_lines (
		id %[1]s,
		run_id BIGINT NOT NULL REFERENCES oov_runs(id),
		source TEXT NOT NULL,
		line_no INTEGER NOT NULL,
		text TEXT NOT NULL,
		errors TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS oov_nodes (
		line_id BIGINT NOT NULL REFERENCES oov_lines(id),
		begin_offset INTEGER NOT NULL,
		end_offset INTEGER NOT NULL,
		left_id INTEGER NOT NULL,
		right_id INTEGER NOT NULL,
		cost INTEGER NOT NULL,
		pos_id INTEGER NOT NULL,
		surface TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_oov_lines_run ON oov_lines(run_id);
	CREATE INDEX IF NOT EXISTS idx_oov_nodes_line ON oov_nodes(line_id);
	`, id)

	_, err := s.db.Exec(query)
	return err
}

// BeginRun records a run and sets its ID
func (s *Store) BeginRun(ctx context.Context, run *Run) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	err := s.db.QueryRowContext(ctx,
		s.rebind(`INSERT INTO oov_runs (started_at, config_path, plugins) VALUES (?, ?, ?) RETURNING id`),
		run.StartedAt, run.ConfigPath, strings.Join(run.Plugins, ","),
	).Scan(&run.ID)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// WriteLines stores lines and their nodes in one transaction
func (s *Store) WriteLines(ctx context.Context, runID int64, lines []Line) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertLine := s.rebind(`INSERT INTO oov_lines (run_id, source, line_no, text, errors) VALUES (?, ?, ?, ?, ?) RETURNING id`)
	insertNode := s.rebind(`INSERT INTO oov_nodes (line_id, begin_offset, end_offset, left_id, right_id, cost, pos_id, surface) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	for _, line := range lines {
		var lineID int64
		err := tx.QueryRowContext(ctx, insertLine,
			runID, line.Source, line.LineNo, line.Text, strings.Join(line.Errors, "\n"),
		).Scan(&lineID)
		if err != nil {
			return fmt.Errorf("failed to insert line %s:%d: %w", line.Source, line.LineNo, err)
		}

		for _, n := range line.Nodes {
			var surface string
			var posID uint16
			if n.WordInfo != nil {
				surface = n.WordInfo.Surface
				posID = n.WordInfo.POSID
			}
			if _, err := tx.ExecContext(ctx, insertNode,
				lineID, n.Begin, n.End, int64(n.LeftID), int64(n.RightID), int64(n.Cost), int64(posID), surface,
			); err != nil {
				return fmt.Errorf("failed to insert node of %s:%d: %w", line.Source, line.LineNo, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// SurfaceCount is how often a surface was proposed in a run
type SurfaceCount struct {
	Surface string
	Count   int
}

// TopSurfaces returns the most frequent candidate surfaces of a run
func (s *Store) TopSurfaces(ctx context.Context, runID int64, limit int) ([]SurfaceCount, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT n.surface, COUNT(*) AS c
		FROM oov_nodes n JOIN oov_lines l ON n.line_id = l.id
		WHERE l.run_id = ?
		GROUP BY n.surface
		ORDER BY c DESC, n.surface
		LIMIT ?`), runID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query surfaces: %w", err)
	}
	defer rows.Close()

	var out []SurfaceCount
	for rows.Next() {
		var sc SurfaceCount
		if err := rows.Scan(&sc.Surface, &sc.Count); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind turns ? placeholders into $n for PostgreSQL
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
