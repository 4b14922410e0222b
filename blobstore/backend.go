package blobstore

// Backend is the persistence contract the blob store needs from the
// caller's transaction. It is implemented by sqlstore's transaction types.
// All methods run against the ambient transaction; none of them commit.
type Backend interface {
	// FindBlob returns the blob_id matching the given fingerprint, or
	// found == false if no such blob exists yet.
	FindBlob(length int64, md5, sha256 []byte) (blobID int64, found bool, err error)

	// InsertBlob creates a new Blob row with chunk_count 0 and returns its
	// generated id.
	InsertBlob(length int64, md5, sha256 []byte) (blobID int64, err error)

	// InsertChunk appends a chunk row (blob_id, chunk_index, data). No
	// separate chunk_length is stored; a chunk's length is len(data).
	InsertChunk(blobID int64, index int, data []byte) error

	// SetChunkCount finalizes chunk_count on the Blob row.
	SetChunkCount(blobID int64, count int) error

	// BlobInfo returns the length and chunk_count of an existing blob.
	BlobInfo(blobID int64) (length int64, chunkCount int, found bool, err error)

	// Chunk returns the data of a single chunk.
	Chunk(blobID int64, index int) ([]byte, error)

	// DeleteBlob removes a Blob row and all of its Chunk rows.
	DeleteBlob(blobID int64) error
}

// LinkChecker reports whether a blob is still referenced by a surviving
// BlobLink. drop_orphans uses it to decide which candidate blobs can
// actually be deleted; it is implemented on the archive side, since the
// blob store itself has no notion of BlobLink.
type LinkChecker func(blobID int64) (referenced bool, err error)
