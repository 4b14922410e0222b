package sqlstore

import (
	"database/sql"

	"github.com/ndlib/repoarchive/archive"
)

// idColumn returns the expression this dialect uses to name a table's
// autoincrement row id: an explicit column in MySQL, ql's built-in id()
// function in QL, which has no room for a user-declared autoincrement
// column of its own.
func (t *Tx) idColumn(mysqlColumn string) string {
	if t.dialect == QL {
		return "id()"
	}
	return mysqlColumn
}

// LookupClass implements archive.ClassTx.
func (t *Tx) LookupClass(module, name string) (archive.ClassID, bool, error) {
	query := `SELECT ` + t.idColumn("class_id") + ` FROM class WHERE module = ` + t.dialect.p(1) + ` AND name = ` + t.dialect.p(2)
	var id int64
	err := t.tx.QueryRow(query, module, name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return archive.ClassID(id), true, nil
}

// InsertClass implements archive.ClassTx.
func (t *Tx) InsertClass(module, name string) (archive.ClassID, error) {
	query := `INSERT INTO class (module, name) VALUES (` + t.dialect.ph(2) + `)`
	result, err := t.tx.Exec(query, module, name)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	return archive.ClassID(id), err
}

// GetClass implements archive.ClassTx.
func (t *Tx) GetClass(id archive.ClassID) (string, string, error) {
	query := `SELECT module, name FROM class WHERE ` + t.idColumn("class_id") + ` = ` + t.dialect.p(1)
	var module, name string
	err := t.tx.QueryRow(query, int64(id)).Scan(&module, &name)
	return module, name, err
}
