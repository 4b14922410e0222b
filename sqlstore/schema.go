package sqlstore

import (
	"database/sql"

	"github.com/BurntSushi/migration"
)

// dbVersion adapts the BurntSushi/migration version-tracking callbacks to a
// single small table, the same shape bendo used for its own MySQL and QL
// migration tracking.
type dbVersion struct {
	GetSQL    string
	SetSQL    string
	CreateSQL string
}

func (v dbVersion) Get(tx migration.LimitedTx) (int, error) {
	row := tx.QueryRow(v.GetSQL)
	var version sql.NullInt64
	if err := row.Scan(&version); err != nil {
		return 0, err
	}
	return int(version.Int64), nil
}

func (v dbVersion) Set(tx migration.LimitedTx, version int) error {
	_, err := tx.Exec(v.SetSQL, version)
	return err
}

func execlist(tx migration.LimitedTx, statements []string) error {
	for _, s := range statements {
		if _, err := tx.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

var mysqlVersioning = dbVersion{
	GetSQL:    `SELECT max(version) FROM migration_version`,
	SetSQL:    `INSERT INTO migration_version (version, applied) VALUES (?, now())`,
	CreateSQL: `CREATE TABLE migration_version (version INTEGER, applied datetime)`,
}

var mysqlMigrations = []migration.Migrator{mysqlSchema1}

func mysqlSchema1(tx migration.LimitedTx) error {
	return execlist(tx, []string{
		`CREATE TABLE IF NOT EXISTS object (
			docid BIGINT PRIMARY KEY,
			created DATETIME NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS class (
			class_id INTEGER PRIMARY KEY AUTO_INCREMENT,
			module VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			UNIQUE KEY class_module_name (module, name))`,
		`CREATE TABLE IF NOT EXISTS version (
			docid BIGINT NOT NULL,
			version_num INTEGER NOT NULL,
			derived_from_version INTEGER,
			archive_time DATETIME NOT NULL,
			class_id INTEGER NOT NULL,
			path VARCHAR(1024) NOT NULL,
			modified DATETIME NOT NULL,
			user VARCHAR(255) NOT NULL,
			title TEXT,
			description TEXT,
			attrs TEXT,
			comment TEXT,
			PRIMARY KEY (docid, version_num))`,
		`CREATE TABLE IF NOT EXISTS current_pointer (
			docid BIGINT PRIMARY KEY,
			version_num INTEGER NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS blob (
			blob_id BIGINT PRIMARY KEY AUTO_INCREMENT,
			length BIGINT NOT NULL,
			md5 VARBINARY(16) NOT NULL,
			sha256 VARBINARY(32) NOT NULL,
			chunk_count INTEGER NOT NULL DEFAULT 0,
			UNIQUE KEY blob_fingerprint (length, md5, sha256))`,
		`CREATE TABLE IF NOT EXISTS chunk (
			blob_id BIGINT NOT NULL,
			chunk_index INTEGER NOT NULL,
			data LONGBLOB NOT NULL,
			PRIMARY KEY (blob_id, chunk_index))`,
		`CREATE TABLE IF NOT EXISTS blob_link (
			docid BIGINT NOT NULL,
			version_num INTEGER NOT NULL,
			name VARCHAR(1024) NOT NULL,
			blob_id BIGINT NOT NULL,
			PRIMARY KEY (docid, version_num, name))`,
		`CREATE TABLE IF NOT EXISTS container (
			container_id BIGINT PRIMARY KEY,
			path VARCHAR(1024) NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS container_item (
			container_id BIGINT NOT NULL,
			namespace VARCHAR(255) NOT NULL,
			name VARCHAR(1024) NOT NULL,
			docid BIGINT NOT NULL,
			PRIMARY KEY (container_id, namespace, name))`,
		`CREATE INDEX container_item_docid ON container_item (docid)`,
		`CREATE TABLE IF NOT EXISTS deleted_item (
			container_id BIGINT NOT NULL,
			docid BIGINT NOT NULL,
			namespace VARCHAR(255) NOT NULL,
			name VARCHAR(1024) NOT NULL,
			deleted_time DATETIME NOT NULL,
			deleted_by VARCHAR(255) NOT NULL,
			PRIMARY KEY (container_id, docid))`,
	})
}

var qlVersioning = dbVersion{
	GetSQL:    `SELECT max(version) FROM migration_version`,
	SetSQL:    `INSERT INTO migration_version VALUES (?1, now())`,
	CreateSQL: `CREATE TABLE migration_version (version int, applied time)`,
}

var qlMigrations = []migration.Migrator{qlSchema1}

func qlSchema1(tx migration.LimitedTx) error {
	return execlist(tx, []string{
		`CREATE TABLE IF NOT EXISTS object (
			docid int64,
			created time)`,
		`CREATE INDEX IF NOT EXISTS object_docid ON object (docid)`,
		`CREATE TABLE IF NOT EXISTS class (
			module string,
			name string)`,
		`CREATE TABLE IF NOT EXISTS version (
			docid int64,
			version_num int,
			derived_from_version int,
			archive_time time,
			class_id int64,
			path string,
			modified time,
			user string,
			title string,
			description string,
			attrs string,
			comment string)`,
		`CREATE INDEX IF NOT EXISTS version_docid ON version (docid)`,
		`CREATE TABLE IF NOT EXISTS current_pointer (
			docid int64,
			version_num int)`,
		`CREATE INDEX IF NOT EXISTS current_pointer_docid ON current_pointer (docid)`,
		`CREATE TABLE IF NOT EXISTS blob (
			length int64,
			md5 blob,
			sha256 blob,
			chunk_count int)`,
		`CREATE TABLE IF NOT EXISTS chunk (
			blob_id int64,
			chunk_index int,
			data blob)`,
		`CREATE INDEX IF NOT EXISTS chunk_blob_id ON chunk (blob_id)`,
		`CREATE TABLE IF NOT EXISTS blob_link (
			docid int64,
			version_num int,
			name string,
			blob_id int64)`,
		`CREATE INDEX IF NOT EXISTS blob_link_docid ON blob_link (docid)`,
		`CREATE TABLE IF NOT EXISTS container (
			container_id int64,
			path string)`,
		`CREATE INDEX IF NOT EXISTS container_container_id ON container (container_id)`,
		`CREATE TABLE IF NOT EXISTS container_item (
			container_id int64,
			namespace string,
			name string,
			docid int64)`,
		`CREATE INDEX IF NOT EXISTS container_item_container_id ON container_item (container_id)`,
		`CREATE INDEX IF NOT EXISTS container_item_docid ON container_item (docid)`,
		`CREATE TABLE IF NOT EXISTS deleted_item (
			container_id int64,
			docid int64,
			namespace string,
			name string,
			deleted_time time,
			deleted_by string)`,
		`CREATE INDEX IF NOT EXISTS deleted_item_container_id ON deleted_item (container_id)`,
	})
}
