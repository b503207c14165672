package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io/fs"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopDriver struct{}

func (d nopDriver) Open(name string) (driver.Conn, error) {
	return nopConn{}, nil
}

type nopConn struct{}

func (nopConn) Prepare(query string) (driver.Stmt, error) { return nopStmt{}, nil }
func (nopConn) Close() error                              { return nil }
func (nopConn) Begin() (driver.Tx, error)                 { return nopTx{}, nil }
func (nopConn) Ping(ctx context.Context) error            { return nil }

type nopStmt struct{}

func (nopStmt) Close() error                                    { return nil }
func (nopStmt) NumInput() int                                   { return -1 }
func (nopStmt) Exec(args []driver.Value) (driver.Result, error) { return nopResult{}, nil }
func (nopStmt) Query(args []driver.Value) (driver.Rows, error)  { return nopRows{}, nil }

type nopTx struct{}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

type nopResult struct{}

func (nopResult) LastInsertId() (int64, error) { return 0, nil }
func (nopResult) RowsAffected() (int64, error) { return 0, nil }

type nopRows struct{}

func (nopRows) Columns() []string              { return []string{} }
func (nopRows) Close() error                   { return nil }
func (nopRows) Next(dest []driver.Value) error { return driver.ErrBadConn }

// flakyDriver fails the first failures pings.
type flakyDriver struct {
	failures int32
	pings    atomic.Int32
}

func (d *flakyDriver) Open(name string) (driver.Conn, error) {
	return flakyConn{d: d}, nil
}

type flakyConn struct {
	nopConn
	d *flakyDriver
}

func (c flakyConn) Ping(ctx context.Context) error {
	if c.d.pings.Add(1) <= c.d.failures {
		return errors.New("connection refused")
	}
	return nil
}

var registerTestDriverOnce sync.Once

func ensureTestDriverRegistered() {
	registerTestDriverOnce.Do(func() {
		sql.Register("dbtest", nopDriver{})
	})
}

func withTestDriver(t *testing.T) {
	t.Helper()
	ensureTestDriverRegistered()
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		return sql.Open("dbtest", dsn)
	}
	t.Cleanup(func() { openDB = prev })
}

func withFlakyDriver(t *testing.T, name string, failures int32) *flakyDriver {
	t.Helper()
	d := &flakyDriver{failures: failures}
	sql.Register(name, d)
	prev := openDB
	openDB = func(_, dsn string) (*sql.DB, error) {
		return sql.Open(name, dsn)
	}
	t.Cleanup(func() { openDB = prev })
	return d
}

func TestConnectRejectsEmptyURL(t *testing.T) {
	_, err := Connect(context.Background(), "  ", DefaultServerOptions())
	assert.Error(t, err)
}

func TestOptionsFromEnvAppliesOverrides(t *testing.T) {
	withTestDriver(t)

	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45s")
	t.Setenv("DB_PING_TIMEOUT", "1s")
	t.Setenv("DB_CONNECT_ATTEMPTS", "2")

	opts := OptionsFromEnv(DefaultServerOptions())
	db, err := Connect(context.Background(), "ignored", opts)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 7, db.Stats().MaxOpenConnections)
	assert.Equal(t, 3, opts.MaxIdleConns)
	assert.Equal(t, 20*time.Minute, opts.ConnMaxLifetime)
	assert.Equal(t, 45*time.Second, opts.ConnMaxIdleTime)
	assert.Equal(t, time.Second, opts.PingTimeout)
	assert.Equal(t, 2, opts.ConnectAttempts)
}

func TestOptionsFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	t.Setenv("DB_PING_TIMEOUT", "soon")

	opts := OptionsFromEnv(DefaultMigrateOptions())
	assert.Equal(t, 1, opts.MaxOpenConns)
	assert.Equal(t, 5*time.Second, opts.PingTimeout)
}

func TestConnectRetriesUntilPingSucceeds(t *testing.T) {
	d := withFlakyDriver(t, "dbtest-flaky-ok", 2)

	opts := DefaultServerOptions()
	opts.ConnectAttempts = 3
	db, err := Connect(context.Background(), "ignored", opts)
	require.NoError(t, err)
	defer db.Close()
	assert.GreaterOrEqual(t, d.pings.Load(), int32(3))
}

func TestConnectGivesUpAfterAttempts(t *testing.T) {
	withFlakyDriver(t, "dbtest-flaky-down", 100)

	opts := DefaultServerOptions()
	opts.ConnectAttempts = 2
	_, err := Connect(context.Background(), "ignored", opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping database")
}

func TestConnectOpenFailureIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		calls.Add(1)
		return nil, driver.ErrBadConn
	}
	t.Cleanup(func() { openDB = prev })

	_, err := Connect(context.Background(), "ignored", DefaultServerOptions())
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestEmbeddedMigrationsCreateLedger(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	body, err := fs.ReadFile(migrationFiles, "migrations/"+entries[0].Name())
	require.NoError(t, err)
	sqlText := string(body)
	assert.True(t, strings.Contains(sqlText, "-- +goose Up"))
	assert.True(t, strings.Contains(sqlText, "-- +goose Down"))
	assert.Contains(t, sqlText, "CREATE TABLE IF NOT EXISTS usage_ledger")
}

func TestRunMigrationsNilIsNoop(t *testing.T) {
	assert.NoError(t, RunMigrations(context.Background(), nil))
}
