package sqlstore

import "database/sql"

// FindBlob implements blobstore.Backend.
func (t *Tx) FindBlob(length int64, md5, sha256 []byte) (int64, bool, error) {
	query := `SELECT ` + t.idColumn("blob_id") + ` FROM blob WHERE length = ` + t.dialect.p(1) +
		` AND md5 = ` + t.dialect.p(2) + ` AND sha256 = ` + t.dialect.p(3)
	var id int64
	err := t.tx.QueryRow(query, length, md5, sha256).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	return id, err == nil, err
}

// InsertBlob implements blobstore.Backend.
func (t *Tx) InsertBlob(length int64, md5, sha256 []byte) (int64, error) {
	query := `INSERT INTO blob (length, md5, sha256, chunk_count) VALUES (` + t.dialect.ph(4) + `)`
	result, err := t.tx.Exec(query, length, md5, sha256, 0)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// InsertChunk implements blobstore.Backend.
func (t *Tx) InsertChunk(blobID int64, index int, data []byte) error {
	query := `INSERT INTO chunk (blob_id, chunk_index, data) VALUES (` + t.dialect.ph(3) + `)`
	_, err := t.tx.Exec(query, blobID, index, data)
	return err
}

// SetChunkCount implements blobstore.Backend.
func (t *Tx) SetChunkCount(blobID int64, count int) error {
	query := `UPDATE blob SET chunk_count = ` + t.dialect.p(1) + ` WHERE ` + t.idColumn("blob_id") + ` = ` + t.dialect.p(2)
	_, err := t.tx.Exec(query, count, blobID)
	return err
}

// BlobInfo implements blobstore.Backend.
func (t *Tx) BlobInfo(blobID int64) (int64, int, bool, error) {
	query := `SELECT length, chunk_count FROM blob WHERE ` + t.idColumn("blob_id") + ` = ` + t.dialect.p(1)
	var length int64
	var chunkCount int
	err := t.tx.QueryRow(query, blobID).Scan(&length, &chunkCount)
	if err == sql.ErrNoRows {
		return 0, 0, false, nil
	}
	return length, chunkCount, err == nil, err
}

// Chunk implements blobstore.Backend.
func (t *Tx) Chunk(blobID int64, index int) ([]byte, error) {
	query := `SELECT data FROM chunk WHERE blob_id = ` + t.dialect.p(1) + ` AND chunk_index = ` + t.dialect.p(2)
	var data []byte
	err := t.tx.QueryRow(query, blobID, index).Scan(&data)
	return data, err
}

// DeleteBlob implements blobstore.Backend.
func (t *Tx) DeleteBlob(blobID int64) error {
	statements := []string{
		`DELETE FROM chunk WHERE blob_id = ` + t.dialect.p(1),
		`DELETE FROM blob WHERE ` + t.idColumn("blob_id") + ` = ` + t.dialect.p(1),
	}
	for _, query := range statements {
		if _, err := t.tx.Exec(query, blobID); err != nil {
			return err
		}
	}
	return nil
}
