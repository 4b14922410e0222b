// Package archivetest provides an in-memory archive.Tx for exercising the
// archive and server packages without a real database, the same role
// bendo's in-memory store.Store fakes play in its own test suite.
package archivetest

import (
	"database/sql"
	"time"

	"github.com/ndlib/repoarchive/archive"
)

type blob struct {
	length int64
	md5    []byte
	sha256 []byte
	chunks [][]byte
}

// MemTx is a non-concurrent-safe, in-process implementation of
// archive.Tx. Commit and Rollback are no-ops: every mutation already
// landed directly in the backing maps, matching the archive's own
// contract that it never manages transaction boundaries itself.
type MemTx struct {
	objects   map[int64]time.Time
	classes   map[archive.ClassID][2]string
	classSeq  archive.ClassID
	versions  map[int64]map[int]archive.VersionRow
	current   map[int64]int
	blobLinks map[int64]map[int]map[string]int64

	blobs     map[int64]*blob
	blobSeq   int64
	blobIndex map[string]int64 // "length:md5:sha256" -> blob_id

	containers     map[int64]string
	containerItems map[int64]map[[2]string]int64 // container_id -> (namespace,name) -> docid
	deletedItems   map[int64]map[int64]archive.DeletedItemRow
}

// New returns an empty MemTx.
func New() *MemTx {
	return &MemTx{
		objects:        make(map[int64]time.Time),
		classes:        make(map[archive.ClassID][2]string),
		versions:       make(map[int64]map[int]archive.VersionRow),
		current:        make(map[int64]int),
		blobLinks:      make(map[int64]map[int]map[string]int64),
		blobs:          make(map[int64]*blob),
		blobIndex:      make(map[string]int64),
		containers:     make(map[int64]string),
		containerItems: make(map[int64]map[[2]string]int64),
		deletedItems:   make(map[int64]map[int64]archive.DeletedItemRow),
	}
}

// Commit is a no-op: MemTx mutates its maps eagerly.
func (m *MemTx) Commit() error { return nil }

// Rollback is a no-op, since MemTx keeps no undo log; tests that need
// rollback semantics should take a fresh MemTx per scenario instead.
func (m *MemTx) Rollback() error { return nil }

// LookupClass implements archive.ClassTx.
func (m *MemTx) LookupClass(module, name string) (archive.ClassID, bool, error) {
	for id, pair := range m.classes {
		if pair[0] == module && pair[1] == name {
			return id, true, nil
		}
	}
	return 0, false, nil
}

// InsertClass implements archive.ClassTx.
func (m *MemTx) InsertClass(module, name string) (archive.ClassID, error) {
	m.classSeq++
	m.classes[m.classSeq] = [2]string{module, name}
	return m.classSeq, nil
}

// GetClass implements archive.ClassTx.
func (m *MemTx) GetClass(id archive.ClassID) (string, string, error) {
	pair, ok := m.classes[id]
	if !ok {
		return "", "", sql.ErrNoRows
	}
	return pair[0], pair[1], nil
}

// GetObjectCreated implements archive.ObjectTx.
func (m *MemTx) GetObjectCreated(docid int64) (time.Time, bool, error) {
	created, ok := m.objects[docid]
	return created, ok, nil
}

// InsertObject implements archive.ObjectTx.
func (m *MemTx) InsertObject(docid int64, created time.Time) error {
	m.objects[docid] = created
	return nil
}

// MaxVersion implements archive.ObjectTx.
func (m *MemTx) MaxVersion(docid int64) (int, error) {
	max := 0
	for v := range m.versions[docid] {
		if v > max {
			max = v
		}
	}
	return max, nil
}

// CurrentVersion implements archive.ObjectTx.
func (m *MemTx) CurrentVersion(docid int64) (int, bool, error) {
	v, ok := m.current[docid]
	return v, ok, nil
}

// SetCurrentVersion implements archive.ObjectTx.
func (m *MemTx) SetCurrentVersion(docid int64, versionNum int) error {
	m.current[docid] = versionNum
	return nil
}

// InsertVersion implements archive.ObjectTx.
func (m *MemTx) InsertVersion(v archive.VersionRow) error {
	if m.versions[v.Docid] == nil {
		m.versions[v.Docid] = make(map[int]archive.VersionRow)
	}
	m.versions[v.Docid][v.VersionNum] = v
	return nil
}

// GetVersion implements archive.ObjectTx.
func (m *MemTx) GetVersion(docid int64, versionNum int) (archive.VersionRow, bool, error) {
	v, ok := m.versions[docid][versionNum]
	return v, ok, nil
}

// ListVersions implements archive.ObjectTx.
func (m *MemTx) ListVersions(docid int64) ([]archive.VersionRow, error) {
	var result []archive.VersionRow
	for _, v := range m.versions[docid] {
		result = append(result, v)
	}
	return result, nil
}

// InsertBlobLink implements archive.ObjectTx.
func (m *MemTx) InsertBlobLink(docid int64, versionNum int, name string, blobID int64) error {
	if m.blobLinks[docid] == nil {
		m.blobLinks[docid] = make(map[int]map[string]int64)
	}
	if m.blobLinks[docid][versionNum] == nil {
		m.blobLinks[docid][versionNum] = make(map[string]int64)
	}
	m.blobLinks[docid][versionNum][name] = blobID
	return nil
}

// ListBlobLinks implements archive.ObjectTx.
func (m *MemTx) ListBlobLinks(docid int64, versionNum int) (map[string]int64, error) {
	links := make(map[string]int64)
	for name, id := range m.blobLinks[docid][versionNum] {
		links[name] = id
	}
	return links, nil
}

// BlobLinksForDocid implements archive.ObjectTx.
func (m *MemTx) BlobLinksForDocid(docid int64) ([]int64, error) {
	seen := make(map[int64]bool)
	var ids []int64
	for _, links := range m.blobLinks[docid] {
		for _, id := range links {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// BlobReferenced implements archive.ObjectTx.
func (m *MemTx) BlobReferenced(blobID int64) (bool, error) {
	for _, versions := range m.blobLinks {
		for _, links := range versions {
			for _, id := range links {
				if id == blobID {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

// DeleteDocid implements archive.ShredTx.
func (m *MemTx) DeleteDocid(docid int64) error {
	delete(m.objects, docid)
	delete(m.versions, docid)
	delete(m.current, docid)
	delete(m.blobLinks, docid)
	for containerID, items := range m.containerItems {
		for key, d := range items {
			if d == docid {
				delete(m.containerItems[containerID], key)
			}
		}
	}
	for containerID, items := range m.deletedItems {
		delete(items, docid)
		_ = containerID
	}
	return nil
}

// UpsertContainer implements archive.ContainerTx.
func (m *MemTx) UpsertContainer(containerID int64, path string) error {
	m.containers[containerID] = path
	return nil
}

// GetContainer implements archive.ContainerTx.
func (m *MemTx) GetContainer(containerID int64) (string, bool, error) {
	path, ok := m.containers[containerID]
	return path, ok, nil
}

// DeleteContainer implements archive.ContainerTx.
func (m *MemTx) DeleteContainer(containerID int64) error {
	delete(m.containers, containerID)
	delete(m.containerItems, containerID)
	delete(m.deletedItems, containerID)
	return nil
}

// ListContainerItems implements archive.ContainerTx.
func (m *MemTx) ListContainerItems(containerID int64) ([]archive.ContainerItemRow, error) {
	var result []archive.ContainerItemRow
	for key, docid := range m.containerItems[containerID] {
		result = append(result, archive.ContainerItemRow{
			ContainerID: containerID,
			Namespace:   key[0],
			Name:        key[1],
			Docid:       docid,
		})
	}
	return result, nil
}

// InsertContainerItem implements archive.ContainerTx.
func (m *MemTx) InsertContainerItem(row archive.ContainerItemRow) error {
	if m.containerItems[row.ContainerID] == nil {
		m.containerItems[row.ContainerID] = make(map[[2]string]int64)
	}
	m.containerItems[row.ContainerID][[2]string{row.Namespace, row.Name}] = row.Docid
	return nil
}

// UpdateContainerItemDocid implements archive.ContainerTx.
func (m *MemTx) UpdateContainerItemDocid(containerID int64, namespace, name string, docid int64) error {
	if m.containerItems[containerID] == nil {
		m.containerItems[containerID] = make(map[[2]string]int64)
	}
	m.containerItems[containerID][[2]string{namespace, name}] = docid
	return nil
}

// DeleteContainerItem implements archive.ContainerTx.
func (m *MemTx) DeleteContainerItem(containerID int64, namespace, name string) error {
	delete(m.containerItems[containerID], [2]string{namespace, name})
	return nil
}

// ListDeletedItems implements archive.ContainerTx.
func (m *MemTx) ListDeletedItems(containerID int64) ([]archive.DeletedItemRow, error) {
	var result []archive.DeletedItemRow
	for _, d := range m.deletedItems[containerID] {
		result = append(result, d)
	}
	return result, nil
}

// InsertDeletedItem implements archive.ContainerTx.
func (m *MemTx) InsertDeletedItem(row archive.DeletedItemRow) error {
	if m.deletedItems[row.ContainerID] == nil {
		m.deletedItems[row.ContainerID] = make(map[int64]archive.DeletedItemRow)
	}
	m.deletedItems[row.ContainerID][row.Docid] = row
	return nil
}

// DeleteDeletedItem implements archive.ContainerTx.
func (m *MemTx) DeleteDeletedItem(containerID int64, docid int64) error {
	delete(m.deletedItems[containerID], docid)
	return nil
}

// ContainerIDsHoldingDocid implements archive.ContainerTx.
func (m *MemTx) ContainerIDsHoldingDocid(docid int64) ([]int64, error) {
	var ids []int64
	for containerID, items := range m.containerItems {
		for _, d := range items {
			if d == docid {
				ids = append(ids, containerID)
				break
			}
		}
	}
	return ids, nil
}

// FilterExistingContainers implements archive.ContainerTx.
func (m *MemTx) FilterExistingContainers(ids []int64) ([]int64, error) {
	var result []int64
	for _, id := range ids {
		if _, ok := m.containers[id]; ok {
			result = append(result, id)
		}
	}
	return result, nil
}

// LoadLevel implements archive.ContainerTx.
func (m *MemTx) LoadLevel(containerIDs []int64) (map[int64]archive.LevelData, error) {
	result := make(map[int64]archive.LevelData, len(containerIDs))
	for _, id := range containerIDs {
		path, found := m.containers[id]
		data := archive.LevelData{Path: path, Found: found}
		if !found {
			result[id] = data
			continue
		}
		items, _ := m.ListContainerItems(id)
		data.Items = items
		deleted, _ := m.ListDeletedItems(id)
		data.Deleted = deleted
		if len(deleted) > 0 {
			data.NewHolders = make(map[int64][]int64, len(deleted))
			for _, d := range deleted {
				holders, _ := m.ContainerIDsHoldingDocid(d.Docid)
				data.NewHolders[d.Docid] = holders
			}
		}
		result[id] = data
	}
	return result, nil
}

// FindBlob implements blobstore.Backend.
func (m *MemTx) FindBlob(length int64, md5, sha256 []byte) (int64, bool, error) {
	id, ok := m.blobIndex[fingerprintKey(length, md5, sha256)]
	return id, ok, nil
}

// InsertBlob implements blobstore.Backend.
func (m *MemTx) InsertBlob(length int64, md5, sha256 []byte) (int64, error) {
	m.blobSeq++
	id := m.blobSeq
	m.blobs[id] = &blob{length: length, md5: md5, sha256: sha256}
	m.blobIndex[fingerprintKey(length, md5, sha256)] = id
	return id, nil
}

// InsertChunk implements blobstore.Backend.
func (m *MemTx) InsertChunk(blobID int64, index int, data []byte) error {
	b := m.blobs[blobID]
	for len(b.chunks) <= index {
		b.chunks = append(b.chunks, nil)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	b.chunks[index] = cp
	return nil
}

// SetChunkCount implements blobstore.Backend. MemTx infers chunk count
// from the chunks slice directly, so this is a deliberate no-op.
func (m *MemTx) SetChunkCount(blobID int64, count int) error {
	return nil
}

// BlobInfo implements blobstore.Backend.
func (m *MemTx) BlobInfo(blobID int64) (int64, int, bool, error) {
	b, ok := m.blobs[blobID]
	if !ok {
		return 0, 0, false, nil
	}
	return b.length, len(b.chunks), true, nil
}

// Chunk implements blobstore.Backend.
func (m *MemTx) Chunk(blobID int64, index int) ([]byte, error) {
	b, ok := m.blobs[blobID]
	if !ok || index >= len(b.chunks) {
		return nil, sql.ErrNoRows
	}
	return b.chunks[index], nil
}

// DeleteBlob implements blobstore.Backend.
func (m *MemTx) DeleteBlob(blobID int64) error {
	if b, ok := m.blobs[blobID]; ok {
		delete(m.blobIndex, fingerprintKey(b.length, b.md5, b.sha256))
	}
	delete(m.blobs, blobID)
	return nil
}

func fingerprintKey(length int64, md5, sha256 []byte) string {
	return string(rune(length)) + ":" + string(md5) + ":" + string(sha256)
}
