package archive

import (
	"time"

	"github.com/ndlib/repoarchive/blobstore"
)

// ClassRow is a persisted Class record.
type ClassRow struct {
	ClassID ClassID
	Module  string
	Name    string
}

// VersionRow is a persisted Version (State) record.
type VersionRow struct {
	Docid              int64
	VersionNum         int
	DerivedFromVersion *int
	ArchiveTime        time.Time
	ClassID            ClassID
	Path               string
	Modified           time.Time
	User               string
	Title              *string
	Description        *string
	Attrs              map[string]interface{}
	Comment            *string
}

// ContainerItemRow is a persisted ContainerItem record.
type ContainerItemRow struct {
	ContainerID int64
	Namespace   string
	Name        string
	Docid       int64
}

// DeletedItemRow is a persisted DeletedItem record.
type DeletedItemRow struct {
	ContainerID int64
	Docid       int64
	Namespace   string
	Name        string
	DeletedTime time.Time
	DeletedBy   string
}

// ClassTx is the class registry's (C1) persistence contract.
type ClassTx interface {
	LookupClass(module, name string) (ClassID, bool, error)
	InsertClass(module, name string) (ClassID, error)
	GetClass(id ClassID) (module, name string, err error)
}

// ObjectTx is the version log's (C3, C4) persistence contract.
type ObjectTx interface {
	// GetObjectCreated returns the Object row's created timestamp, or
	// found == false if docid has no Object row yet.
	GetObjectCreated(docid int64) (created time.Time, found bool, err error)
	InsertObject(docid int64, created time.Time) error

	// MaxVersion returns the highest version_num recorded for docid, or 0
	// if none exists.
	MaxVersion(docid int64) (int, error)

	// CurrentVersion returns the CurrentPointer for docid.
	CurrentVersion(docid int64) (versionNum int, found bool, err error)
	SetCurrentVersion(docid int64, versionNum int) error

	InsertVersion(v VersionRow) error
	GetVersion(docid int64, versionNum int) (VersionRow, bool, error)
	// ListVersions returns every Version for docid, in no particular order;
	// callers sort as needed.
	ListVersions(docid int64) ([]VersionRow, error)

	InsertBlobLink(docid int64, versionNum int, name string, blobID int64) error
	// ListBlobLinks returns name -> blob_id for one version.
	ListBlobLinks(docid int64, versionNum int) (map[string]int64, error)
	// BlobLinksForDocid returns every blob_id ever linked from any version
	// of docid, used by Shred to find candidate orphans.
	BlobLinksForDocid(docid int64) ([]int64, error)

	// BlobReferenced reports whether any BlobLink still points at blobID.
	// Used as the blobstore.LinkChecker after Shred removes BlobLinks.
	BlobReferenced(blobID int64) (bool, error)
}

// ContainerTx is the container differ's and traversal's (C5, C6)
// persistence contract.
type ContainerTx interface {
	UpsertContainer(containerID int64, path string) error
	GetContainer(containerID int64) (path string, found bool, err error)
	DeleteContainer(containerID int64) error

	ListContainerItems(containerID int64) ([]ContainerItemRow, error)
	InsertContainerItem(row ContainerItemRow) error
	UpdateContainerItemDocid(containerID int64, namespace, name string, docid int64) error
	DeleteContainerItem(containerID int64, namespace, name string) error

	ListDeletedItems(containerID int64) ([]DeletedItemRow, error)
	InsertDeletedItem(row DeletedItemRow) error
	DeleteDeletedItem(containerID int64, docid int64) error

	// ContainerIDsHoldingDocid returns every container_id that currently has
	// a live ContainerItem pointing at docid.
	ContainerIDsHoldingDocid(docid int64) ([]int64, error)

	// FilterExistingContainers returns the subset of ids that have a
	// Container row.
	FilterExistingContainers(ids []int64) ([]int64, error)

	// LoadLevel batch-loads everything iter_hierarchy and
	// which_contain_deleted need for one BFS level: each requested
	// container's path, its live ContainerItems, and its DeletedItems
	// (each annotated with the docid's current holder set).
	LoadLevel(containerIDs []int64) (map[int64]LevelData, error)
}

// LevelData is everything one BFS level needs about a single container.
type LevelData struct {
	Path    string
	Found   bool
	Items   []ContainerItemRow
	Deleted []DeletedItemRow
	// NewHolders maps a deleted docid to the set of container_ids that
	// currently hold it live, for the Moved()/new_container_ids computation.
	NewHolders map[int64][]int64
}

// ShredTx is the shredder's (C7) persistence contract.
type ShredTx interface {
	// DeleteDocid removes every Version, BlobLink, ContainerItem,
	// DeletedItem, CurrentPointer, and Object row for docid.
	DeleteDocid(docid int64) error
}

// Tx bundles every persistence contract the archive's operations need. A
// single sqlstore transaction type implements all of them plus
// blobstore.Backend, so one object can be threaded through a call. The
// archive's own methods never call Commit or Rollback themselves — that
// stays the caller's responsibility — but both are part of the interface
// so a generic caller (the server package, a CLI command) can manage the
// transaction boundary without knowing the concrete Tx type underneath.
type Tx interface {
	ClassTx
	ObjectTx
	ContainerTx
	ShredTx
	blobstore.Backend

	Commit() error
	Rollback() error
}
