package archive

import (
	"io"
	"os"
	"sort"
	"time"
)

// ArchiveVersion appends a new version for input.Docid, interning its class,
// storing its blobs (deduplicated via the blob store), and moving the
// CurrentPointer to the newly created version. It returns the new
// version_num.
func (a *Archive) ArchiveVersion(tx Tx, input VersionInput) (int, error) {
	if input.Docid == 0 {
		return 0, ErrInvalidInput("docid must be non-zero")
	}
	if input.Path == "" {
		return 0, ErrInvalidInput("path must be non-empty")
	}
	if input.User == "" {
		return 0, ErrInvalidInput("user must be non-empty")
	}

	created, found, err := tx.GetObjectCreated(input.Docid)
	if err != nil {
		return 0, WrapStorageError(err, "get object")
	}
	var maxVersion int
	if !found {
		created = input.Created
		if err := tx.InsertObject(input.Docid, created); err != nil {
			return 0, WrapStorageError(err, "insert object")
		}
	} else {
		maxVersion, err = tx.MaxVersion(input.Docid)
		if err != nil {
			return 0, WrapStorageError(err, "max version")
		}
	}

	var derivedFrom *int
	if cur, ok, err := tx.CurrentVersion(input.Docid); err != nil {
		return 0, WrapStorageError(err, "current version")
	} else if ok {
		v := cur
		derivedFrom = &v
	}

	classID, err := a.intern(tx, input.Class)
	if err != nil {
		return 0, err
	}

	versionNum := maxVersion + 1
	row := VersionRow{
		Docid:              input.Docid,
		VersionNum:         versionNum,
		DerivedFromVersion: derivedFrom,
		ArchiveTime:        a.now(),
		ClassID:            classID,
		Path:               input.Path,
		Modified:           input.Modified,
		User:               input.User,
		Title:              input.Title,
		Description:        input.Description,
		Attrs:              input.Attrs,
		Comment:            input.Comment,
	}
	if err := tx.InsertVersion(row); err != nil {
		return 0, WrapStorageError(err, "insert version")
	}

	for name, src := range input.Blobs {
		if name == "" {
			return 0, ErrInvalidInput("blob name must be non-empty")
		}
		blobID, err := a.putBlobSource(tx, src)
		if err != nil {
			return 0, err
		}
		if err := tx.InsertBlobLink(input.Docid, versionNum, name, blobID); err != nil {
			return 0, WrapStorageError(err, "insert blob link")
		}
	}

	if err := tx.SetCurrentVersion(input.Docid, versionNum); err != nil {
		return 0, WrapStorageError(err, "set current version")
	}

	a.bump("archive_version.count")
	return versionNum, nil
}

func (a *Archive) putBlobSource(tx Tx, src BlobSource) (int64, error) {
	if src.Reader != nil {
		return a.Blobs.Put(tx, src.Reader)
	}
	if src.Path == "" {
		return 0, ErrInvalidInput("blob source must set Path or Reader")
	}
	f, err := os.Open(src.Path)
	if err != nil {
		return 0, WrapStorageError(err, "open blob source file")
	}
	defer f.Close()
	return a.Blobs.Put(tx, f)
}

// Revert moves docid's CurrentPointer to versionNum without creating a new
// Version. It requires that versionNum already exists.
func (a *Archive) Revert(tx Tx, docid int64, versionNum int) error {
	_, found, err := tx.GetVersion(docid, versionNum)
	if err != nil {
		return WrapStorageError(err, "get version")
	}
	if !found {
		return ErrNotFound("version")
	}
	if err := tx.SetCurrentVersion(docid, versionNum); err != nil {
		return WrapStorageError(err, "set current version")
	}
	a.bump("revert.count")
	return nil
}

// History returns every archived version of docid, most recent first. If
// onlyCurrent is true, only the version currently pointed to is returned.
func (a *Archive) History(tx Tx, docid int64, onlyCurrent bool) ([]*HistoryRecord, error) {
	created, found, err := tx.GetObjectCreated(docid)
	if err != nil {
		return nil, WrapStorageError(err, "get object")
	}
	if !found {
		return nil, ErrNotFound("document")
	}
	current, ok, err := tx.CurrentVersion(docid)
	if err != nil {
		return nil, WrapStorageError(err, "current version")
	}
	if !ok {
		return nil, ErrNotFound("current version")
	}

	if onlyCurrent {
		row, found, err := tx.GetVersion(docid, current)
		if err != nil {
			return nil, WrapStorageError(err, "get version")
		}
		if !found {
			return nil, ErrNotFound("version")
		}
		rec, err := a.toHistoryRecord(tx, row, created, current)
		if err != nil {
			return nil, err
		}
		return []*HistoryRecord{rec}, nil
	}

	rows, err := tx.ListVersions(docid)
	if err != nil {
		return nil, WrapStorageError(err, "list versions")
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].VersionNum > rows[j].VersionNum })

	records := make([]*HistoryRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := a.toHistoryRecord(tx, row, created, current)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// GetVersion returns one specific version, or NotFound if it does not exist.
func (a *Archive) GetVersion(tx Tx, docid int64, versionNum int) (*HistoryRecord, error) {
	created, found, err := tx.GetObjectCreated(docid)
	if err != nil {
		return nil, WrapStorageError(err, "get object")
	}
	if !found {
		return nil, ErrNotFound("document")
	}
	current, _, err := tx.CurrentVersion(docid)
	if err != nil {
		return nil, WrapStorageError(err, "current version")
	}
	row, found, err := tx.GetVersion(docid, versionNum)
	if err != nil {
		return nil, WrapStorageError(err, "get version")
	}
	if !found {
		return nil, ErrNotFound("version")
	}
	return a.toHistoryRecord(tx, row, created, current)
}

func (a *Archive) toHistoryRecord(tx Tx, row VersionRow, created time.Time, current int) (*HistoryRecord, error) {
	class, err := a.resolveClass(tx, row.ClassID)
	if err != nil {
		return nil, err
	}
	links, err := tx.ListBlobLinks(row.Docid, row.VersionNum)
	if err != nil {
		return nil, WrapStorageError(err, "list blob links")
	}
	names := make([]string, 0, len(links))
	for name := range links {
		names = append(names, name)
	}
	sort.Strings(names)

	rec := &HistoryRecord{
		Docid:              row.Docid,
		VersionNum:         row.VersionNum,
		CurrentVersion:     current,
		DerivedFromVersion: row.DerivedFromVersion,
		ArchiveTime:        row.ArchiveTime,
		Created:            created,
		Path:               row.Path,
		Modified:           row.Modified,
		User:               row.User,
		Title:              row.Title,
		Description:        row.Description,
		Attrs:              row.Attrs,
		Comment:            row.Comment,
		Class:              class,
		BlobNames:          names,
	}
	rec.openBlob = func(name string) (io.ReadCloser, error) {
		blobID, ok := links[name]
		if !ok {
			return nil, ErrNotFound("blob link")
		}
		return a.Blobs.Open(tx, blobID)
	}
	return rec, nil
}
