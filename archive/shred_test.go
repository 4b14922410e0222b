package archive_test

import (
	"testing"

	"github.com/ndlib/repoarchive/archive"
)

func TestShredRejectsNonEmptyContainer(t *testing.T) {
	a, tx := newArchive()
	if _, err := a.ArchiveVersion(tx, archive.VersionInput{
		Docid: 1, Path: "/a", User: "alice", Class: 1,
	}); err != nil {
		t.Fatal(err)
	}
	if err := a.ArchiveContainer(tx, archive.ContainerInput{
		ContainerID: 10, Path: "/c", Map: map[string]int64{"item1": 1},
	}, "alice"); err != nil {
		t.Fatal(err)
	}

	err := a.Shred(tx, nil, []int64{10})
	if !archive.IsKind(err, archive.KindContainerNotEmpty) {
		t.Fatalf("err = %v, want KindContainerNotEmpty", err)
	}
	// no partial effect: the container must still exist untouched.
	if _, err := a.ContainerContents(tx, 10); err != nil {
		t.Fatalf("container should survive a rejected shred: %v", err)
	}
}

func TestShredDeletesDocidAndEmptyContainerTogether(t *testing.T) {
	a, tx := newArchive()
	if _, err := a.ArchiveVersion(tx, archive.VersionInput{
		Docid: 1, Path: "/a", User: "alice", Class: 1,
		Blobs: map[string]archive.BlobSource{"content": reader("bytes")},
	}); err != nil {
		t.Fatal(err)
	}
	if err := a.ArchiveContainer(tx, archive.ContainerInput{
		ContainerID: 10, Path: "/c", Map: map[string]int64{"item1": 1},
	}, "alice"); err != nil {
		t.Fatal(err)
	}

	if err := a.Shred(tx, []int64{1}, []int64{10}); err != nil {
		t.Fatal(err)
	}

	if _, err := a.GetVersion(tx, 1, 1); !archive.IsKind(err, archive.KindNotFound) {
		t.Fatalf("err = %v, want KindNotFound after shred", err)
	}
	if _, err := a.ContainerContents(tx, 10); !archive.IsKind(err, archive.KindNotFound) {
		t.Fatalf("err = %v, want KindNotFound after shred", err)
	}
}

func TestShredDropsOrphanedBlobsButKeepsSharedOnes(t *testing.T) {
	a, tx := newArchive()
	if _, err := a.ArchiveVersion(tx, archive.VersionInput{
		Docid: 1, Path: "/a", User: "alice", Class: 1,
		Blobs: map[string]archive.BlobSource{"content": reader("shared bytes")},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := a.ArchiveVersion(tx, archive.VersionInput{
		Docid: 2, Path: "/b", User: "alice", Class: 1,
		Blobs: map[string]archive.BlobSource{"content": reader("shared bytes")},
	}); err != nil {
		t.Fatal(err)
	}
	links, err := tx.ListBlobLinks(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	blobID := links["content"]

	if err := a.Shred(tx, []int64{1}, nil); err != nil {
		t.Fatal(err)
	}
	if referenced, err := tx.BlobReferenced(blobID); err != nil || !referenced {
		t.Fatalf("referenced = %v, err = %v; docid 2 still links this blob", referenced, err)
	}
	if _, _, found, err := tx.BlobInfo(blobID); err != nil || !found {
		t.Fatalf("found = %v, err = %v; shared blob should survive the first shred", found, err)
	}

	if err := a.Shred(tx, []int64{2}, nil); err != nil {
		t.Fatal(err)
	}
	if referenced, err := tx.BlobReferenced(blobID); err != nil || referenced {
		t.Fatalf("referenced = %v, err = %v; blob should now be orphaned", referenced, err)
	}
	if _, _, found, err := tx.BlobInfo(blobID); err != nil || found {
		t.Fatalf("found = %v, err = %v; orphaned blob should have been dropped", found, err)
	}
}
