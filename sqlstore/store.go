package sqlstore

import (
	"database/sql"
	"log"

	"github.com/BurntSushi/migration"
	_ "github.com/cznic/ql/driver"
	_ "github.com/go-sql-driver/mysql"
)

// Store owns a pooled SQL connection and knows which dialect it is
// speaking. It is the factory for the per-call Tx values the archive
// package's operations require.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// OpenMySQL connects to a MySQL database at dial, running any pending
// schema migrations, and returns a Store that drives it.
func OpenMySQL(dial string) (*Store, error) {
	db, err := migration.OpenWith("mysql", dial, mysqlMigrations, mysqlVersioning.Get, mysqlVersioning.Set)
	if err != nil {
		log.Printf("sqlstore: open mysql: %s", err)
		return nil, err
	}
	return &Store{db: db, dialect: MySQL}, nil
}

// OpenQL opens an embedded ql database at filename, running any pending
// schema migrations. filename == "memory" opens an in-memory database,
// the configuration the test suite uses.
func OpenQL(filename string) (*Store, error) {
	driver := "ql"
	if filename == "memory" {
		driver = "ql-mem"
		filename = "mem.db"
	}
	db, err := migration.OpenWith(driver, filename, qlMigrations, qlVersioning.Get, qlVersioning.Set)
	if err != nil {
		log.Printf("sqlstore: open ql: %s", err)
		return nil, err
	}
	return &Store{db: db, dialect: QL}, nil
}

// Begin starts a new transaction. The returned Tx implements both
// archive.Tx and blobstore.Backend, and must be committed or rolled back
// by the caller.
func (s *Store) Begin() (*Tx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, dialect: s.dialect}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tx wraps one ambient *sql.Tx, translating every archive.Tx and
// blobstore.Backend call into dialect-appropriate SQL. The caller owns
// Commit/Rollback; Tx never calls either itself, matching the core's
// contract that it is never in charge of transaction boundaries.
type Tx struct {
	tx      *sql.Tx
	dialect Dialect
}

// Commit commits the underlying transaction.
func (t *Tx) Commit() error { return t.tx.Commit() }

// Rollback aborts the underlying transaction.
func (t *Tx) Rollback() error { return t.tx.Rollback() }
