package sqlstore

import (
	"bytes"
	"testing"
	"time"

	"github.com/ndlib/repoarchive/archive"
)

type fakeClasses struct{}

func (fakeClasses) Resolve(module, name string) (archive.ClassHandle, bool) {
	if module == "doc" && name == "pdf" {
		return 1, true
	}
	return 0, false
}

func (fakeClasses) Describe(handle archive.ClassHandle) (string, string) {
	return "doc", "pdf"
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenQL("memory")
	if err != nil {
		t.Fatalf("OpenQL: %s", err)
	}
	return store
}

func TestArchiveVersionRoundTrip(t *testing.T) {
	store := openTestStore(t)
	defer store.Close()

	a := archive.New(fakeClasses{}, nil)
	tx, err := store.Begin()
	if err != nil {
		t.Fatalf("Begin: %s", err)
	}

	versionNum, err := a.ArchiveVersion(tx, archive.VersionInput{
		Docid:    1,
		Created:  time.Now().UTC(),
		Modified: time.Now().UTC(),
		Path:     "/docs/report.pdf",
		User:     "alice",
		Class:    1,
		Blobs: map[string]archive.BlobSource{
			"content": {Reader: bytes.NewReader([]byte("hello world"))},
		},
	})
	if err != nil {
		t.Fatalf("ArchiveVersion: %s", err)
	}
	if versionNum != 1 {
		t.Errorf("version_num = %d, want 1", versionNum)
	}

	rec, err := a.GetVersion(tx, 1, 1)
	if err != nil {
		t.Fatalf("GetVersion: %s", err)
	}
	if rec.Class != archive.ClassHandle(1) {
		t.Errorf("Class = %v, want 1", rec.Class)
	}
	r, err := rec.Blob("content")
	if err != nil {
		t.Fatalf("Blob: %s", err)
	}
	defer r.Close()
	buf := make([]byte, 11)
	if _, err := r.Read(buf); err != nil {
		t.Fatalf("Read: %s", err)
	}
	if string(buf) != "hello world" {
		t.Errorf("blob content = %q, want %q", buf, "hello world")
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %s", err)
	}
}

func TestArchiveContainerDiffAndShred(t *testing.T) {
	store := openTestStore(t)
	defer store.Close()

	a := archive.New(fakeClasses{}, nil)
	tx, err := store.Begin()
	if err != nil {
		t.Fatalf("Begin: %s", err)
	}
	defer tx.Rollback()

	if _, err := a.ArchiveVersion(tx, archive.VersionInput{
		Docid: 10, Path: "/a", User: "bob", Class: 1,
	}); err != nil {
		t.Fatalf("ArchiveVersion 10: %s", err)
	}
	if _, err := a.ArchiveVersion(tx, archive.VersionInput{
		Docid: 11, Path: "/b", User: "bob", Class: 1,
	}); err != nil {
		t.Fatalf("ArchiveVersion 11: %s", err)
	}

	err = a.ArchiveContainer(tx, archive.ContainerInput{
		ContainerID: 100,
		Path:        "/collection",
		Map:         map[string]int64{"a.pdf": 10, "b.pdf": 11},
	}, "bob")
	if err != nil {
		t.Fatalf("ArchiveContainer: %s", err)
	}

	err = a.ArchiveContainer(tx, archive.ContainerInput{
		ContainerID: 100,
		Path:        "/collection",
		Map:         map[string]int64{"a.pdf": 10},
	}, "bob")
	if err != nil {
		t.Fatalf("ArchiveContainer (remove b): %s", err)
	}

	rec, err := a.ContainerContents(tx, 100)
	if err != nil {
		t.Fatalf("ContainerContents: %s", err)
	}
	if len(rec.Deleted) != 1 || rec.Deleted[0].Docid != 11 {
		t.Fatalf("Deleted = %+v, want one entry for docid 11", rec.Deleted)
	}
	if rec.Deleted[0].Moved() {
		t.Errorf("Moved() = true, want false")
	}

	if err := a.Shred(tx, nil, []int64{100}); err == nil {
		t.Errorf("Shred non-empty container: want ContainerNotEmpty, got nil")
	}

	if err := a.Shred(tx, []int64{10}, []int64{100}); err != nil {
		t.Fatalf("Shred: %s", err)
	}
	if _, err := a.GetVersion(tx, 10, 1); !archive.IsKind(err, archive.KindNotFound) {
		t.Errorf("GetVersion after shred: err = %v, want NotFound", err)
	}
}
