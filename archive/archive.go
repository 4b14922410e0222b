package archive

import (
	"log"
	"time"

	"github.com/facebookgo/clock"
	"github.com/facebookgo/stats"

	"github.com/ndlib/repoarchive/blobstore"
)

// Archive composes the versioning engine, blob store, container differ, and
// traversal engine into the top-level operations: ArchiveVersion,
// ArchiveContainer, Revert, Shred, and the reads (History, GetVersion,
// ContainerContents, IterHierarchy, FilterContainerIDs,
// WhichContainDeleted). It holds no database connection itself: every method takes
// the caller's Tx directly, and every method may be called concurrently as
// long as distinct calls use distinct Tx values.
type Archive struct {
	Blobs    *blobstore.Store
	Classes  ClassResolver
	Clock    clock.Clock
	Stats    stats.Client
	Logger   *log.Logger
}

// New returns an Archive ready to use. classes must not be nil; Blobs, if
// nil, defaults to blobstore.New().
func New(classes ClassResolver, blobs *blobstore.Store) *Archive {
	if blobs == nil {
		blobs = blobstore.New()
	}
	return &Archive{
		Blobs:   blobs,
		Classes: classes,
		Clock:   clock.New(),
		Stats:   stats.NullClient{},
	}
}

func (a *Archive) now() time.Time {
	return a.Clock.Now().UTC()
}

func (a *Archive) log() *log.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return log.Default()
}

func (a *Archive) bump(stat string) {
	if a.Stats != nil {
		a.Stats.BumpSum(stat, 1)
	}
}
