package sqlstore

import (
	"database/sql"

	"github.com/ndlib/repoarchive/archive"
)

// UpsertContainer implements archive.ContainerTx.
func (t *Tx) UpsertContainer(containerID int64, path string) error {
	_, found, err := t.GetContainer(containerID)
	if err != nil {
		return err
	}
	if found {
		query := `UPDATE container SET path = ` + t.dialect.p(1) + ` WHERE container_id = ` + t.dialect.p(2)
		_, err := t.tx.Exec(query, path, containerID)
		return err
	}
	query := `INSERT INTO container (container_id, path) VALUES (` + t.dialect.ph(2) + `)`
	_, err = t.tx.Exec(query, containerID, path)
	return err
}

// GetContainer implements archive.ContainerTx.
func (t *Tx) GetContainer(containerID int64) (string, bool, error) {
	query := `SELECT path FROM container WHERE container_id = ` + t.dialect.p(1)
	var path string
	err := t.tx.QueryRow(query, containerID).Scan(&path)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	return path, err == nil, err
}

// DeleteContainer implements archive.ContainerTx.
func (t *Tx) DeleteContainer(containerID int64) error {
	statements := []string{
		`DELETE FROM container_item WHERE container_id = ` + t.dialect.p(1),
		`DELETE FROM deleted_item WHERE container_id = ` + t.dialect.p(1),
		`DELETE FROM container WHERE container_id = ` + t.dialect.p(1),
	}
	for _, query := range statements {
		if _, err := t.tx.Exec(query, containerID); err != nil {
			return err
		}
	}
	return nil
}

// ListContainerItems implements archive.ContainerTx.
func (t *Tx) ListContainerItems(containerID int64) ([]archive.ContainerItemRow, error) {
	query := `SELECT container_id, namespace, name, docid FROM container_item WHERE container_id = ` + t.dialect.p(1)
	rows, err := t.tx.Query(query, containerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanContainerItems(rows)
}

func scanContainerItems(rows *sql.Rows) ([]archive.ContainerItemRow, error) {
	var result []archive.ContainerItemRow
	for rows.Next() {
		var it archive.ContainerItemRow
		if err := rows.Scan(&it.ContainerID, &it.Namespace, &it.Name, &it.Docid); err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	return result, rows.Err()
}

// InsertContainerItem implements archive.ContainerTx.
func (t *Tx) InsertContainerItem(row archive.ContainerItemRow) error {
	query := `INSERT INTO container_item (container_id, namespace, name, docid) VALUES (` + t.dialect.ph(4) + `)`
	_, err := t.tx.Exec(query, row.ContainerID, row.Namespace, row.Name, row.Docid)
	return err
}

// UpdateContainerItemDocid implements archive.ContainerTx.
func (t *Tx) UpdateContainerItemDocid(containerID int64, namespace, name string, docid int64) error {
	query := `UPDATE container_item SET docid = ` + t.dialect.p(1) +
		` WHERE container_id = ` + t.dialect.p(2) + ` AND namespace = ` + t.dialect.p(3) + ` AND name = ` + t.dialect.p(4)
	_, err := t.tx.Exec(query, docid, containerID, namespace, name)
	return err
}

// DeleteContainerItem implements archive.ContainerTx.
func (t *Tx) DeleteContainerItem(containerID int64, namespace, name string) error {
	query := `DELETE FROM container_item WHERE container_id = ` + t.dialect.p(1) + ` AND namespace = ` + t.dialect.p(2) + ` AND name = ` + t.dialect.p(3)
	_, err := t.tx.Exec(query, containerID, namespace, name)
	return err
}

// ListDeletedItems implements archive.ContainerTx.
func (t *Tx) ListDeletedItems(containerID int64) ([]archive.DeletedItemRow, error) {
	query := `SELECT container_id, docid, namespace, name, deleted_time, deleted_by FROM deleted_item WHERE container_id = ` + t.dialect.p(1)
	rows, err := t.tx.Query(query, containerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDeletedItems(rows)
}

func scanDeletedItems(rows *sql.Rows) ([]archive.DeletedItemRow, error) {
	var result []archive.DeletedItemRow
	for rows.Next() {
		var d archive.DeletedItemRow
		if err := rows.Scan(&d.ContainerID, &d.Docid, &d.Namespace, &d.Name, &d.DeletedTime, &d.DeletedBy); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// InsertDeletedItem implements archive.ContainerTx.
func (t *Tx) InsertDeletedItem(row archive.DeletedItemRow) error {
	query := `INSERT INTO deleted_item (container_id, docid, namespace, name, deleted_time, deleted_by) VALUES (` + t.dialect.ph(6) + `)`
	_, err := t.tx.Exec(query, row.ContainerID, row.Docid, row.Namespace, row.Name, row.DeletedTime, row.DeletedBy)
	return err
}

// DeleteDeletedItem implements archive.ContainerTx.
func (t *Tx) DeleteDeletedItem(containerID int64, docid int64) error {
	query := `DELETE FROM deleted_item WHERE container_id = ` + t.dialect.p(1) + ` AND docid = ` + t.dialect.p(2)
	_, err := t.tx.Exec(query, containerID, docid)
	return err
}

// ContainerIDsHoldingDocid implements archive.ContainerTx.
func (t *Tx) ContainerIDsHoldingDocid(docid int64) ([]int64, error) {
	query := `SELECT DISTINCT container_id FROM container_item WHERE docid = ` + t.dialect.p(1)
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

// FilterExistingContainers implements archive.ContainerTx.
func (t *Tx) FilterExistingContainers(ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `SELECT container_id FROM container WHERE ` + t.dialect.inClause("container_id", len(ids), 1)
	rows, err := t.tx.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	return result, rows.Err()
}

// LoadLevel implements archive.ContainerTx. It batches the per-level work
// IterHierarchy and WhichContainDeleted need into a fixed number of
// round trips regardless of how many containers are in the frontier.
func (t *Tx) LoadLevel(containerIDs []int64) (map[int64]archive.LevelData, error) {
	result := make(map[int64]archive.LevelData, len(containerIDs))
	if len(containerIDs) == 0 {
		return result, nil
	}

	args := make([]interface{}, len(containerIDs))
	for i, id := range containerIDs {
		args[i] = id
		result[id] = archive.LevelData{}
	}

	pathQuery := `SELECT container_id, path FROM container WHERE ` + t.dialect.inClause("container_id", len(containerIDs), 1)
	rows, err := t.tx.Query(pathQuery, args...)
	if err != nil {
		return nil, err
	}
	found := make(map[int64]bool, len(containerIDs))
	for rows.Next() {
		var id int64
		var path string
		if err := rows.Scan(&id, &path); err != nil {
			rows.Close()
			return nil, err
		}
		data := result[id]
		data.Path = path
		data.Found = true
		result[id] = data
		found[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	itemQuery := `SELECT container_id, namespace, name, docid FROM container_item WHERE ` + t.dialect.inClause("container_id", len(containerIDs), 1)
	itemRows, err := t.tx.Query(itemQuery, args...)
	if err != nil {
		return nil, err
	}
	items, err := scanContainerItems(itemRows)
	itemRows.Close()
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		data := result[it.ContainerID]
		data.Items = append(data.Items, it)
		result[it.ContainerID] = data
	}

	delQuery := `SELECT container_id, docid, namespace, name, deleted_time, deleted_by FROM deleted_item WHERE ` + t.dialect.inClause("container_id", len(containerIDs), 1)
	delRows, err := t.tx.Query(delQuery, args...)
	if err != nil {
		return nil, err
	}
	deleted, err := scanDeletedItems(delRows)
	delRows.Close()
	if err != nil {
		return nil, err
	}

	docidSet := make(map[int64]bool)
	for _, d := range deleted {
		data := result[d.ContainerID]
		data.Deleted = append(data.Deleted, d)
		result[d.ContainerID] = data
		docidSet[d.Docid] = true
	}

	if len(docidSet) > 0 {
		docids := make([]int64, 0, len(docidSet))
		for id := range docidSet {
			docids = append(docids, id)
		}
		holderArgs := make([]interface{}, len(docids))
		for i, id := range docids {
			holderArgs[i] = id
		}
		holderQuery := `SELECT docid, container_id FROM container_item WHERE ` + t.dialect.inClause("docid", len(docids), 1)
		holderRows, err := t.tx.Query(holderQuery, holderArgs...)
		if err != nil {
			return nil, err
		}
		holders := make(map[int64][]int64)
		for holderRows.Next() {
			var docid, containerID int64
			if err := holderRows.Scan(&docid, &containerID); err != nil {
				holderRows.Close()
				return nil, err
			}
			holders[docid] = append(holders[docid], containerID)
		}
		holderRows.Close()
		if err := holderRows.Err(); err != nil {
			return nil, err
		}

		for id, data := range result {
			if len(data.Deleted) == 0 {
				continue
			}
			data.NewHolders = make(map[int64][]int64, len(data.Deleted))
			for _, d := range data.Deleted {
				data.NewHolders[d.Docid] = holders[d.Docid]
			}
			result[id] = data
		}
	}

	return result, nil
}
