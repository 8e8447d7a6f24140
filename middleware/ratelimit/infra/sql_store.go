package infra

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	"contact-gateway/middleware/ratelimit/domain"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

type sqlDialect struct {
	schema []string
	upsert string
}

var sqlDialects = map[string]sqlDialect{
	"sqlite3": {
		schema: []string{
			`CREATE TABLE IF NOT EXISTS rate_windows (
				window_key TEXT PRIMARY KEY,
				hits INTEGER NOT NULL,
				reset_at INTEGER NOT NULL,
				expires_at INTEGER NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_rate_windows_expires ON rate_windows(expires_at)`,
		},
		upsert: `INSERT INTO rate_windows (window_key, hits, reset_at, expires_at)
			VALUES (?, 1, ?, ?)
			ON CONFLICT(window_key) DO UPDATE SET hits = hits + 1, expires_at = excluded.expires_at`,
	},
	"mysql": {
		schema: []string{
			`CREATE TABLE IF NOT EXISTS rate_windows (
				window_key VARCHAR(255) PRIMARY KEY,
				hits BIGINT NOT NULL,
				reset_at BIGINT NOT NULL,
				expires_at BIGINT NOT NULL,
				INDEX idx_rate_windows_expires (expires_at)
			)`,
		},
		upsert: `INSERT INTO rate_windows (window_key, hits, reset_at, expires_at)
			VALUES (?, 1, ?, ?)
			ON DUPLICATE KEY UPDATE hits = hits + 1, expires_at = VALUES(expires_at)`,
	},
}

// SQLStore é um RateStore transacional (SQLite ou MySQL).
//
// O upsert pega o lock da linha e o select seguinte lê o valor dentro da mesma
// transação, então dois hits na mesma chave nunca leem o mesmo count.
// Linhas expiradas são apagadas no próprio caminho de escrita, no máximo uma vez
// a cada purgeEvery.
type SQLStore struct {
	db         *sql.DB
	dialect    sqlDialect
	purgeEvery time.Duration
	lastPurge  atomic.Int64
	now        func() time.Time
}

// OpenSQLStore abre a base, valida a conexão e cria a tabela se necessário.
// driver: "sqlite3" ou "mysql".
func OpenSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	s, err := NewSQLStore(ctx, db, driver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func NewSQLStore(ctx context.Context, db *sql.DB, driver string) (*SQLStore, error) {
	d, ok := sqlDialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	if driver == "sqlite3" {
		// SQLite só tem um escritor; uma conexão evita "database is locked".
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	for _, stmt := range d.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("create rate_windows: %w", err)
		}
	}
	return &SQLStore{db: db, dialect: d, purgeEvery: time.Minute, now: time.Now}, nil
}

// Hit implementa domain.RateStore.
func (s *SQLStore) Hit(ctx context.Context, key domain.WindowKey, resetAt time.Time, ttl time.Duration) (domain.WindowRecord, error) {
	now := s.now()
	k := key.String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.WindowRecord{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.dialect.upsert, k, resetAt.UnixMilli(), now.Add(ttl).UnixMilli()); err != nil {
		return domain.WindowRecord{}, fmt.Errorf("upsert window: %w", err)
	}

	var hits, resetMs int64
	err = tx.QueryRowContext(ctx, `SELECT hits, reset_at FROM rate_windows WHERE window_key = ?`, k).Scan(&hits, &resetMs)
	if err != nil {
		return domain.WindowRecord{}, fmt.Errorf("read window: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.WindowRecord{}, err
	}

	s.maybePurge(ctx, now)
	return domain.WindowRecord{Count: hits, ResetAt: time.UnixMilli(resetMs)}, nil
}

func (s *SQLStore) maybePurge(ctx context.Context, now time.Time) {
	last := s.lastPurge.Load()
	if now.UnixNano()-last < int64(s.purgeEvery) {
		return
	}
	if !s.lastPurge.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	// best-effort: uma falha aqui só atrasa a limpeza
	_, _ = s.db.ExecContext(ctx, `DELETE FROM rate_windows WHERE expires_at <= ?`, now.UnixMilli())
}

func (s *SQLStore) Close() error { return s.db.Close() }
