package blobstore

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
)

// ReadHandle is a read-only, seekable view of a blob's content. Writes
// always fail with ErrReadOnlyBlob. The caller owns the handle and must
// Close it when done; Close releases any backing memory map or temp file.
type ReadHandle interface {
	io.ReadSeeker
	io.Writer // present only so ErrReadOnlyBlob can be returned cleanly
	io.Closer
	Len() int64
}

// ErrReadOnlyBlob is returned by a ReadHandle's Write method.
var ErrReadOnlyBlob = errors.New("blobstore: blob stream is read-only")

// memoryHandle backs small blobs with an in-memory buffer.
type memoryHandle struct {
	*bytes.Reader
}

func newMemoryHandle(data []byte) *memoryHandle {
	return &memoryHandle{Reader: bytes.NewReader(data)}
}

func (h *memoryHandle) Write(p []byte) (int, error) { return 0, ErrReadOnlyBlob }
func (h *memoryHandle) Close() error                { return nil }
func (h *memoryHandle) Len() int64                  { return h.Reader.Size() }

// spilledHandle backs large blobs with a temporary file, memory-mapped for
// reading once fully written. It follows the teacher's store.FileSystem
// temp-then-finalize pattern, but keeps the file unlinked immediately since
// nothing else needs to find it by name.
type spilledHandle struct {
	file   *os.File
	mapped mmap.MMap
	reader *bytes.Reader
	length int64
}

func newSpilledHandle(length int64) (*spilledHandle, error) {
	f, err := os.CreateTemp("", "repoarchive-blob-*")
	if err != nil {
		return nil, err
	}
	// Unlink immediately: the fd keeps the data alive for as long as this
	// handle is open, and nothing else needs to address the file by name.
	_ = os.Remove(f.Name())
	return &spilledHandle{file: f, length: length}, nil
}

// finishWrite is called once all chunk data has been written to the temp
// file; it memory-maps the file read-only for subsequent Read/Seek calls.
func (h *spilledHandle) finishWrite() error {
	if h.length == 0 {
		h.reader = bytes.NewReader(nil)
		return nil
	}
	m, err := mmap.Map(h.file, mmap.RDONLY, 0)
	if err != nil {
		// fall back to plain *os.File reads/seeks if mmap is unavailable
		// (e.g. tmpfs quirks in a container). The file's cursor is sitting
		// at EOF from the preceding writes, so it has to be rewound before
		// any caller can read from the start.
		h.reader = nil
		_, err := h.file.Seek(0, io.SeekStart)
		return err
	}
	h.mapped = m
	h.reader = bytes.NewReader(m)
	return nil
}

func (h *spilledHandle) Read(p []byte) (int, error) {
	if h.reader != nil {
		return h.reader.Read(p)
	}
	return h.file.Read(p)
}

func (h *spilledHandle) Seek(offset int64, whence int) (int64, error) {
	if h.reader != nil {
		return h.reader.Seek(offset, whence)
	}
	return h.file.Seek(offset, whence)
}

func (h *spilledHandle) Write(p []byte) (int, error) { return 0, ErrReadOnlyBlob }

func (h *spilledHandle) Len() int64 { return h.length }

func (h *spilledHandle) Close() error {
	if h.mapped != nil {
		_ = h.mapped.Unmap()
	}
	return h.file.Close()
}
