package storage

import (
	"database/sql"
	"strings"
	"time"

	"github.com/ignatij/sheetflow/pkg/storage"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Driver names as registered with database/sql.
const (
	PostgresDriver = "postgres"
	SQLiteDriver   = "sqlite"
)

// DBInterface is satisfied by both *sqlx.DB and *sqlx.Tx.
type DBInterface interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Exec(query string, args ...interface{}) (sql.Result, error)
	Rebind(query string) string
}

// SQLStore keeps journal records in a single key/value table.
type SQLStore struct {
	db     DBInterface
	driver string
	now    func() time.Time
}

// ParseDSN picks the database driver for a journal location.
// postgres:// and postgresql:// URLs go to lib/pq; everything else is
// treated as a sqlite path, with an optional sqlite:// prefix.
func ParseDSN(dsn string) (driver, source string, err error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return "", "", errors.New("empty journal dsn")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return PostgresDriver, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		source = strings.TrimPrefix(dsn, "sqlite://")
		if source == "" {
			return "", "", errors.Errorf("missing path in journal dsn '%s'", dsn)
		}
		return SQLiteDriver, source, nil
	case strings.Contains(dsn, "://"):
		return "", "", errors.Errorf("unsupported journal dsn '%s'", dsn)
	default:
		return SQLiteDriver, dsn, nil
	}
}

// NewSQLStore opens the journal database and applies the embedded migrations.
func NewSQLStore(dsn string) (*SQLStore, error) {
	driver, source, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(driver, source)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s journal", driver)
	}
	if driver == SQLiteDriver {
		// one writer; also keeps :memory: databases on a single connection
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "ping %s journal", driver)
	}
	if err := migrateUp(db, driver, source); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLStore{db: db, driver: driver, now: time.Now}, nil
}

// Driver reports which database backs the store.
func (s *SQLStore) Driver() string {
	return s.driver
}

func (s *SQLStore) Begin() (*SQLStore, error) {
	if db, ok := s.db.(*sqlx.DB); ok {
		tx, err := db.Beginx()
		if err != nil {
			return nil, err
		}
		return &SQLStore{db: tx, driver: s.driver, now: s.now}, nil
	}
	return nil, errors.New("cannot begin transaction on unknown type")
}

func (s *SQLStore) Commit() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Commit()
	}
	return errors.New("cannot commit: not a transaction")
}

func (s *SQLStore) Rollback() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Rollback()
	}
	return errors.New("cannot rollback: not a transaction")
}

func (s *SQLStore) Close() error {
	if db, ok := s.db.(*sqlx.DB); ok {
		return db.Close()
	}
	return nil // No-op for *sqlx.Tx
}

// Get returns the value stored under key
func (s *SQLStore) Get(key string) ([]byte, error) {
	var value string
	err := s.db.Get(&value, s.db.Rebind("SELECT value FROM journal WHERE key = ?"), key)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", key)
	}
	return []byte(value), nil
}

// Update reads, transforms and writes the value under key in one transaction.
// On postgres concurrent updates of the same key are serialized with a
// transaction-scoped advisory lock, which also covers keys not stored yet.
func (s *SQLStore) Update(key string, fn func(current []byte) ([]byte, error)) (err error) {
	tx, err := s.Begin()
	if err != nil {
		return errors.Wrapf(err, "begin update of %s", key)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if s.driver == PostgresDriver {
		if _, err = tx.db.Exec("SELECT pg_advisory_xact_lock(hashtext($1))", key); err != nil {
			return errors.Wrapf(err, "lock %s", key)
		}
	}
	current, err := tx.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		current, err = nil, nil
	}
	if err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if err = tx.Put(key, next); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrapf(err, "commit update of %s", key)
	}
	return nil
}

// Put creates or replaces the value under key
func (s *SQLStore) Put(key string, value []byte) error {
	_, err := s.db.Exec(s.db.Rebind(`
		INSERT INTO journal (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`),
		key, string(value), s.now().UTC())
	if err != nil {
		return errors.Wrapf(err, "put %s", key)
	}
	return nil
}

var (
	_ storage.Store   = (*SQLStore)(nil)
	_ storage.Updater = (*SQLStore)(nil)
)
