package mapping

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // register the pure-Go sqlite driver

	"github.com/aretw0/ubrain/pkg/core"
)

const (
	// KVKey is the key the mapping document is stored under.
	KVKey = "ub:mapping"

	kvTable = "ub_kv"
)

type dialect struct {
	driver string
	// placeholder renders the n-th (1-based) bind parameter.
	placeholder func(n int) string
}

var (
	postgresDialect = dialect{driver: "pgx", placeholder: func(n int) string { return fmt.Sprintf("$%d", n) }}
	sqliteDialect   = dialect{driver: "sqlite", placeholder: func(int) string { return "?" }}
)

// ParseKVURL maps a key-value store URL to a driver and DSN.
// postgres:// and postgresql:// use pgx; sqlite: and file: use sqlite.
func ParseKVURL(raw string) (driver, dsn string, err error) {
	d, dsn, err := parseKVURL(raw)
	return d.driver, dsn, err
}

func parseKVURL(raw string) (dialect, string, error) {
	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return postgresDialect, raw, nil
	case strings.HasPrefix(raw, "sqlite://"):
		return sqliteDialect, strings.TrimPrefix(raw, "sqlite://"), nil
	case strings.HasPrefix(raw, "sqlite:"):
		return sqliteDialect, strings.TrimPrefix(raw, "sqlite:"), nil
	case strings.HasPrefix(raw, "file:"):
		return sqliteDialect, raw, nil
	}
	return dialect{}, "", fmt.Errorf("unsupported key-value store url %q", raw)
}

// SQLProvider stores the mapping document as one row of a key-value table
// in Postgres or SQLite.
type SQLProvider struct {
	db      *sql.DB
	dialect dialect
	key     string
}

// OpenSQL connects to the store at url and ensures the table exists.
func OpenSQL(ctx context.Context, url string) (*SQLProvider, error) {
	d, dsn, err := parseKVURL(url)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.driver, err)
	}

	p := &SQLProvider{db: db, dialect: d, key: KVKey}
	if err := p.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func (p *SQLProvider) migrate(ctx context.Context) error {
	stmt := `CREATE TABLE IF NOT EXISTS ` + kvTable + ` (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`
	if _, err := p.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create %s: %w", kvTable, err)
	}
	return nil
}

func (p *SQLProvider) Name() string { return "kv:" + p.dialect.driver }

func (p *SQLProvider) Writable() bool { return true }

func (p *SQLProvider) TryRead(ctx context.Context) (*core.Mapping, bool, error) {
	q := fmt.Sprintf(`SELECT value FROM %s WHERE key = %s`, kvTable, p.dialect.placeholder(1))
	var value string
	err := p.db.QueryRowContext(ctx, q, p.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", p.key, err)
	}

	m := core.NewMapping()
	if err := json.Unmarshal([]byte(value), m); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", p.key, err)
	}
	return m, true, nil
}

func (p *SQLProvider) TryWrite(ctx context.Context, m *core.Mapping) error {
	value, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}
	ph := p.dialect.placeholder
	q := fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES (%s, %s, %s)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		kvTable, ph(1), ph(2), ph(3))
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := p.db.ExecContext(ctx, q, p.key, string(value), now); err != nil {
		return fmt.Errorf("write %s: %w", p.key, err)
	}
	return nil
}

// Close releases the database handle.
func (p *SQLProvider) Close() error {
	return p.db.Close()
}
