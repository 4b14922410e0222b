package blobstore

import (
	"errors"
	"io"
	"log"
	"strconv"

	raven "github.com/getsentry/raven-go"

	"github.com/ndlib/repoarchive/util"
)

// DefaultChunkSize is the fixed chunk size used to split blob content,
// matching the original archive's Archive.chunk_size of 1 MiB.
const DefaultChunkSize = 1 << 20 // 1 MiB

// DefaultMemoryLimit is the largest blob length that Open will buffer
// entirely in memory before spilling to a temporary file.
const DefaultMemoryLimit = 1 << 20 // 1 MiB

// ErrNotRewindable is returned by Put when the reader cannot be seeked back
// to the start for the second, storing pass.
var ErrNotRewindable = errors.New("blobstore: reader is not rewindable")

// ReadSeeker is the capability Put requires of its input: a positionable
// byte stream, read twice (once to fingerprint, once to store).
type ReadSeeker interface {
	io.Reader
	io.Seeker
}

// Store is the content-addressable blob store. It is safe for concurrent
// use; concurrent Put calls are limited by a Gate so a burst of large
// uploads does not exhaust memory buffering chunks.
type Store struct {
	ChunkSize   int
	MemoryLimit int64
	Logger      *log.Logger

	writeGate util.Gate
}

// New returns a Store with the default chunk size and memory limit. Use the
// struct fields directly to override them before first use.
func New() *Store {
	return &Store{
		ChunkSize:   DefaultChunkSize,
		MemoryLimit: DefaultMemoryLimit,
		writeGate:   util.NewGate(8),
	}
}

func (s *Store) log() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.Default()
}

func (s *Store) chunkSize() int {
	if s.ChunkSize > 0 {
		return s.ChunkSize
	}
	return DefaultChunkSize
}

// Put consumes r in fixed-size chunks, computing length, MD5, and SHA-256
// in one pass. If a blob with a matching (length, md5, sha256) fingerprint
// already exists it is reused and its id returned; otherwise a new Blob row
// and its Chunk rows are inserted.
func (s *Store) Put(be Backend, r ReadSeeker) (blobID int64, err error) {
	s.writeGate.Enter()
	defer s.writeGate.Leave()

	length, md5sum, sha256sum, err := s.fingerprint(r)
	if err != nil {
		return 0, err
	}
	if _, err = r.Seek(0, io.SeekStart); err != nil {
		return 0, ErrNotRewindable
	}

	if id, found, ferr := be.FindBlob(length, md5sum, sha256sum); ferr != nil {
		return 0, ferr
	} else if found {
		return id, nil
	}

	blobID, err = be.InsertBlob(length, md5sum, sha256sum)
	if err != nil {
		return 0, err
	}

	chunkSize := s.chunkSize()
	buf := make([]byte, chunkSize)
	var index int
	for {
		n, rerr := io.ReadFull(r, buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if err = be.InsertChunk(blobID, index, chunk); err != nil {
				return 0, err
			}
			index++
		}
		if rerr == io.EOF || rerr == io.ErrUnexpectedEOF {
			break
		}
		if rerr != nil {
			return 0, rerr
		}
	}
	if err = be.SetChunkCount(blobID, index); err != nil {
		return 0, err
	}
	return blobID, nil
}

// fingerprint reads r to EOF using a HashWriter-backed discard sink,
// computing its length, MD5, and SHA-256 digests without holding the whole
// stream in memory.
func (s *Store) fingerprint(r ReadSeeker) (length int64, md5sum, sha256sum []byte, err error) {
	hw := util.NewHashWriterPlain()
	n, err := io.Copy(hw, r)
	if err != nil {
		return 0, nil, nil, err
	}
	md5sum, _ = hw.CheckMD5(nil)
	sha256sum, _ = hw.CheckSHA256(nil)
	return n, md5sum, sha256sum, nil
}

// Open returns a read-only, seekable view of a previously stored blob.
// Blobs at or under MemoryLimit bytes are buffered in memory; larger blobs
// are spilled to a temporary file (see readstream.go).
func (s *Store) Open(be Backend, blobID int64) (ReadHandle, error) {
	length, chunkCount, found, err := be.BlobInfo(blobID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrBlobNotFound
	}

	limit := s.MemoryLimit
	if limit <= 0 {
		limit = DefaultMemoryLimit
	}

	if length <= limit {
		return s.openInMemory(be, blobID, chunkCount, length)
	}
	return s.openSpilled(be, blobID, chunkCount, length)
}

func (s *Store) openInMemory(be Backend, blobID int64, chunkCount int, length int64) (ReadHandle, error) {
	buf := make([]byte, 0, length)
	for i := 0; i < chunkCount; i++ {
		data, err := be.Chunk(blobID, i)
		if err != nil {
			return nil, err
		}
		buf = append(buf, data...)
	}
	return newMemoryHandle(buf), nil
}

func (s *Store) openSpilled(be Backend, blobID int64, chunkCount int, length int64) (ReadHandle, error) {
	h, err := newSpilledHandle(length)
	if err != nil {
		return nil, err
	}
	for i := 0; i < chunkCount; i++ {
		data, err := be.Chunk(blobID, i)
		if err != nil {
			h.Close()
			raven.CaptureError(err, map[string]string{"blob_id": strconv.FormatInt(blobID, 10)})
			return nil, err
		}
		if _, err := h.file.Write(data); err != nil {
			h.Close()
			return nil, err
		}
	}
	if err := h.finishWrite(); err != nil {
		h.Close()
		return nil, err
	}
	return h, nil
}

// ErrBlobNotFound is returned by Open when blobID does not exist.
var ErrBlobNotFound = errors.New("blobstore: blob not found")

// DropOrphans deletes every blob in candidateBlobIDs that referenced reports
// as no longer linked from any BlobLink.
func (s *Store) DropOrphans(be Backend, candidateBlobIDs []int64, referenced LinkChecker) error {
	for _, id := range candidateBlobIDs {
		ok, err := referenced(id)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		if err := be.DeleteBlob(id); err != nil {
			return err
		}
		s.log().Printf("blobstore: dropped orphan blob %d", id)
	}
	return nil
}
