package archive

import (
	"io"
	"time"

	"github.com/ndlib/repoarchive/blobstore"
)

// ClassID is the small integer a (module, name) pair interns to.
type ClassID int64

// ClassHandle is the application-side token identifying a document's
// runtime class. Per the archive's design, the dynamic (module, name)
// lookup of the original system becomes an explicit, comparable token here;
// the archive never interprets it beyond comparing it for identity, and the
// mapping between a token and a concrete application type lives entirely in
// the embedding application's ClassResolver.
type ClassHandle int64

// ClassResolver lets the archive verify a class reference at write time
// and resolve a class back to a handle at read time. The embedding
// application supplies one implementation, typically backed by a registry
// of known document types.
type ClassResolver interface {
	// Resolve returns the handle that (module, name) currently designates,
	// or ok == false if no such class is registered.
	Resolve(module, name string) (handle ClassHandle, ok bool)

	// Describe returns the (module, name) pair that identifies handle's
	// runtime class.
	Describe(handle ClassHandle) (module, name string)
}

// BlobSource is one named attachment supplied to ArchiveVersion: either an
// open, positionable stream or a filesystem path.
type BlobSource struct {
	Path   string             // used when Reader is nil
	Reader blobstore.ReadSeeker // used in preference to Path when non-nil
}

// VersionInput is the capability set ArchiveVersion requires of its caller.
// Zero values for optional fields are represented with pointers / nil maps.
type VersionInput struct {
	Docid       int64
	Created     time.Time // only used if this is the document's first version
	Modified    time.Time
	Path        string
	User        string
	Title       *string
	Description *string
	Attrs       map[string]interface{} // must be JSON-encodable
	Comment     *string
	// Class must be supplied: unlike the dynamically typed original, a Go
	// embedder has no implicit "runtime class of input" to fall back on.
	// See DESIGN.md for this Open Question's resolution.
	Class ClassHandle
	Blobs map[string]BlobSource
}

// ContainerInput is the capability set ArchiveContainer requires.
type ContainerInput struct {
	ContainerID int64
	Path        string
	Map         map[string]int64            // namespace "" entries
	NSMap       map[string]map[string]int64 // namespace -> name -> docid
}

// HistoryRecord is one archived version, decorated with the document's
// current-version pointer and lazily openable blob links.
type HistoryRecord struct {
	Docid               int64
	VersionNum          int
	CurrentVersion      int
	DerivedFromVersion  *int
	ArchiveTime         time.Time
	Created             time.Time
	Path                string
	Modified            time.Time
	User                string
	Title               *string
	Description         *string
	Attrs               map[string]interface{}
	Comment             *string
	Class               ClassHandle
	BlobNames           []string // names of blobs linked to this version, for enumeration without opening them
	openBlob            func(name string) (io.ReadCloser, error)
}

// Blob opens the named blob link's content. It returns a KindNotFound
// *Error if no such link exists on this version, and
// blobstore.ErrBlobNotFound if the link names a blob row that is missing.
func (h *HistoryRecord) Blob(name string) (io.ReadCloser, error) {
	return h.openBlob(name)
}

// DeletedItemView describes one historical removal of a docid from a
// container.
type DeletedItemView struct {
	Docid             int64
	Namespace         string
	Name              string
	DeletedTime       time.Time
	DeletedBy         string
	NewContainerIDs   []int64
}

// Moved reports whether the docid that was removed now lives in at least
// one other container (a move) as opposed to having vanished entirely.
func (d DeletedItemView) Moved() bool {
	return len(d.NewContainerIDs) > 0
}

// ContainerRecord is the current membership snapshot of one container.
type ContainerRecord struct {
	ContainerID int64
	Path        string
	Map         map[string]int64
	NSMap       map[string]map[string]int64
	Deleted     []DeletedItemView
}
