package export

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/platinummonkey/morph/pkg/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func node(surface string, begin, end int) analysis.Node {
	n := analysis.NewOOVNode(1, 2, 300, &analysis.WordInfo{Surface: surface, POSID: 4})
	n.SetRange(begin, end)
	return n
}

func TestNew(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS oov_runs").WillReturnResult(sqlmock.NewResult(0, 0))

		s, err := New(db, DriverPostgres)
		require.NoError(t, err)
		assert.NotNil(t, s)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil database", func(t *testing.T) {
		_, err := New(nil, DriverSQLite)
		assert.ErrorContains(t, err, "database connection is required")
	})

	t.Run("unsupported driver", func(t *testing.T) {
		db, _ := setupMockDB(t)
		_, err := New(db, "mysql")
		assert.ErrorContains(t, err, "unsupported driver")
	})

	t.Run("table creation error", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS oov_runs").WillReturnError(errors.New("permission denied"))

		_, err := New(db, DriverPostgres)
		assert.ErrorContains(t, err, "failed to ensure export tables")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_BeginRun_Postgres(t *testing.T) {
	db, mock := setupMockDB(t)
	s := &Store{db: db, driver: DriverPostgres}
	started := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO oov_runs \(started_at, config_path, plugins\) VALUES \(\$1, \$2, \$3\) RETURNING id`).
		WithArgs(started, "morph.yaml", "MeCabOovPlugin,SimpleOovPlugin").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	run := &Run{StartedAt: started, ConfigPath: "morph.yaml", Plugins: []string{"MeCabOovPlugin", "SimpleOovPlugin"}}
	require.NoError(t, s.BeginRun(context.Background(), run))
	assert.Equal(t, int64(7), run.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WriteLines_Postgres(t *testing.T) {
	db, mock := setupMockDB(t)
	s := &Store{db: db, driver: DriverPostgres}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO oov_lines`).
		WithArgs(int64(7), "a.txt", 1, "漢x", "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectExec(`INSERT INTO oov_nodes .* VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8\)`).
		WithArgs(int64(11), 0, 3, int64(1), int64(2), int64(300), int64(4), "漢").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.WriteLines(context.Background(), 7, []Line{
		{Source: "a.txt", LineNo: 1, Text: "漢x", Nodes: []analysis.Node{node("漢", 0, 3)}},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WriteLines_RollbackOnError(t *testing.T) {
	db, mock := setupMockDB(t)
	s := &Store{db: db, driver: DriverPostgres}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO oov_lines`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := s.WriteLines(context.Background(), 7, []Line{{Source: "a.txt", LineNo: 3, Text: "x"}})
	assert.ErrorContains(t, err, "a.txt:3")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Rebind(t *testing.T) {
	pg := &Store{driver: DriverPostgres}
	lite := &Store{driver: DriverSQLite}

	assert.Equal(t, "VALUES ($1, $2, $3)", pg.rebind("VALUES (?, ?, ?)"))
	assert.Equal(t, "VALUES (?, ?)", lite.rebind("VALUES (?, ?)"))
}

func TestStore_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer s.Close()

	run := &Run{ConfigPath: "morph.yaml", Plugins: []string{"MeCabOovPlugin"}}
	require.NoError(t, s.BeginRun(ctx, run))
	assert.NotZero(t, run.ID)
	assert.False(t, run.StartedAt.IsZero())

	require.NoError(t, s.WriteLines(ctx, run.ID, []Line{
		{Source: "a.txt", LineNo: 1, Text: "漢x", Nodes: []analysis.Node{node("漢", 0, 3), node("漢", 0, 3), node("x", 3, 4)}},
		{Source: "a.txt", LineNo: 2, Text: "y", Nodes: []analysis.Node{node("y", 0, 1)}, Errors: []string{"boom"}},
	}))

	top, err := s.TopSurfaces(ctx, run.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []SurfaceCount{{"漢", 2}, {"x", 1}}, top)

	other := &Run{ConfigPath: "other.yaml"}
	require.NoError(t, s.BeginRun(ctx, other))
	top, err = s.TopSurfaces(ctx, other.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestOpen_SQLiteTablesAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}
