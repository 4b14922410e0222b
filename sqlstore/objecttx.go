package sqlstore

import (
	"database/sql"
	"time"

	"github.com/ndlib/repoarchive/archive"
)

// GetObjectCreated implements archive.ObjectTx.
func (t *Tx) GetObjectCreated(docid int64) (time.Time, bool, error) {
	query := `SELECT created FROM object WHERE docid = ` + t.dialect.p(1)
	var created time.Time
	err := t.tx.QueryRow(query, docid).Scan(&created)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	return created, err == nil, err
}

// InsertObject implements archive.ObjectTx.
func (t *Tx) InsertObject(docid int64, created time.Time) error {
	query := `INSERT INTO object (docid, created) VALUES (` + t.dialect.ph(2) + `)`
	_, err := t.tx.Exec(query, docid, created)
	return err
}

// MaxVersion implements archive.ObjectTx.
func (t *Tx) MaxVersion(docid int64) (int, error) {
	query := `SELECT max(version_num) FROM version WHERE docid = ` + t.dialect.p(1)
	var max sql.NullInt64
	err := t.tx.QueryRow(query, docid).Scan(&max)
	if err != nil {
		return 0, err
	}
	return int(max.Int64), nil
}

// CurrentVersion implements archive.ObjectTx.
func (t *Tx) CurrentVersion(docid int64) (int, bool, error) {
	query := `SELECT version_num FROM current_pointer WHERE docid = ` + t.dialect.p(1)
	var versionNum int
	err := t.tx.QueryRow(query, docid).Scan(&versionNum)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	return versionNum, err == nil, err
}

// SetCurrentVersion implements archive.ObjectTx.
func (t *Tx) SetCurrentVersion(docid int64, versionNum int) error {
	_, found, err := t.CurrentVersion(docid)
	if err != nil {
		return err
	}
	if found {
		query := `UPDATE current_pointer SET version_num = ` + t.dialect.p(1) + ` WHERE docid = ` + t.dialect.p(2)
		_, err := t.tx.Exec(query, versionNum, docid)
		return err
	}
	query := `INSERT INTO current_pointer (docid, version_num) VALUES (` + t.dialect.ph(2) + `)`
	_, err = t.tx.Exec(query, docid, versionNum)
	return err
}

// InsertVersion implements archive.ObjectTx.
func (t *Tx) InsertVersion(v archive.VersionRow) error {
	attrs, err := encodeAttrs(v.Attrs)
	if err != nil {
		return err
	}
	query := `INSERT INTO version
		(docid, version_num, derived_from_version, archive_time, class_id, path, modified, user, title, description, attrs, comment)
		VALUES (` + t.dialect.ph(12) + `)`
	_, err = t.tx.Exec(query,
		v.Docid, v.VersionNum, toNullInt64(v.DerivedFromVersion), v.ArchiveTime, int64(v.ClassID), v.Path, v.Modified, v.User,
		toNullString(v.Title), toNullString(v.Description), attrs, toNullString(v.Comment))
	return err
}

// GetVersion implements archive.ObjectTx.
func (t *Tx) GetVersion(docid int64, versionNum int) (archive.VersionRow, bool, error) {
	query := `SELECT docid, version_num, derived_from_version, archive_time, class_id, path, modified, user, title, description, attrs, comment
		FROM version WHERE docid = ` + t.dialect.p(1) + ` AND version_num = ` + t.dialect.p(2)
	row := t.tx.QueryRow(query, docid, versionNum)
	v, err := scanVersionRow(row.Scan)
	if err == sql.ErrNoRows {
		return archive.VersionRow{}, false, nil
	}
	if err != nil {
		return archive.VersionRow{}, false, err
	}
	return v, true, nil
}

// ListVersions implements archive.ObjectTx.
func (t *Tx) ListVersions(docid int64) ([]archive.VersionRow, error) {
	query := `SELECT docid, version_num, derived_from_version, archive_time, class_id, path, modified, user, title, description, attrs, comment
		FROM version WHERE docid = ` + t.dialect.p(1)
	rows, err := t.tx.Query(query, docid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []archive.VersionRow
	for rows.Next() {
		v, err := scanVersionRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func scanVersionRow(scan func(...interface{}) error) (archive.VersionRow, error) {
	var v archive.VersionRow
	var classID int64
	var derivedFrom sql.NullInt64
	var title, description, attrs, comment sql.NullString

	err := scan(&v.Docid, &v.VersionNum, &derivedFrom, &v.ArchiveTime, &classID, &v.Path, &v.Modified, &v.User,
		&title, &description, &attrs, &comment)
	if err != nil {
		return archive.VersionRow{}, err
	}
	v.ClassID = archive.ClassID(classID)
	v.DerivedFromVersion = fromNullInt64(derivedFrom)
	v.Title = fromNullString(title)
	v.Description = fromNullString(description)
	v.Comment = fromNullString(comment)
	v.Attrs, err = decodeAttrs(attrs)
	return v, err
}

// InsertBlobLink implements archive.ObjectTx.
func (t *Tx) InsertBlobLink(docid int64, versionNum int, name string, blobID int64) error {
	query := `INSERT INTO blob_link (docid, version_num, name, blob_id) VALUES (` + t.dialect.ph(4) + `)`
	_, err := t.tx.Exec(query, docid, versionNum, name, blobID)
	return err
}

// ListBlobLinks implements archive.ObjectTx.
func (t *Tx) ListBlobLinks(docid int64, versionNum int) (map[string]int64, error) {
	query := `SELECT name, blob_id FROM blob_link WHERE docid = ` + t.dialect.p(1) + ` AND version_num = ` + t.dialect.p(2)
	rows, err := t.tx.Query(query, docid, versionNum)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := make(map[string]int64)
	for rows.Next() {
		var name string
		var blobID int64
		if err := rows.Scan(&name, &blobID); err != nil {
			return nil, err
		}
		links[name] = blobID
	}
	return links, rows.Err()
}

// BlobLinksForDocid implements archive.ObjectTx.
func (t *Tx) BlobLinksForDocid(docid int64) ([]int64, error) {
	query := `SELECT DISTINCT blob_id FROM blob_link WHERE docid = ` + t.dialect.p(1)
	rows, err := t.tx.Query(query, docid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// BlobReferenced implements archive.ObjectTx.
func (t *Tx) BlobReferenced(blobID int64) (bool, error) {
	query := `SELECT 1 FROM blob_link WHERE blob_id = ` + t.dialect.p(1) + ` LIMIT 1`
	var dummy int
	err := t.tx.QueryRow(query, blobID).Scan(&dummy)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteDocid implements archive.ShredTx.
func (t *Tx) DeleteDocid(docid int64) error {
	statements := []string{
		`DELETE FROM version WHERE docid = ` + t.dialect.p(1),
		`DELETE FROM blob_link WHERE docid = ` + t.dialect.p(1),
		`DELETE FROM container_item WHERE docid = ` + t.dialect.p(1),
		`DELETE FROM deleted_item WHERE docid = ` + t.dialect.p(1),
		`DELETE FROM current_pointer WHERE docid = ` + t.dialect.p(1),
		`DELETE FROM object WHERE docid = ` + t.dialect.p(1),
	}
	for _, query := range statements {
		if _, err := t.tx.Exec(query, docid); err != nil {
			return err
		}
	}
	return nil
}
