package archive_test

import (
	"testing"

	"github.com/ndlib/repoarchive/archive"
)

func TestArchiveContainerInsertsAndRemovesItems(t *testing.T) {
	a, tx := newArchive()
	if err := a.ArchiveContainer(tx, archive.ContainerInput{
		ContainerID: 10,
		Path:        "/collection",
		Map:         map[string]int64{"item1": 1, "item2": 2},
	}, "alice"); err != nil {
		t.Fatal(err)
	}
	rec, err := a.ContainerContents(tx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Map["item1"] != 1 || rec.Map["item2"] != 2 {
		t.Fatalf("Map = %+v", rec.Map)
	}
	if len(rec.Deleted) != 0 {
		t.Fatalf("Deleted = %+v, want none yet", rec.Deleted)
	}

	if err := a.ArchiveContainer(tx, archive.ContainerInput{
		ContainerID: 10,
		Path:        "/collection",
		Map:         map[string]int64{"item1": 1},
	}, "alice"); err != nil {
		t.Fatal(err)
	}
	rec, err = a.ContainerContents(tx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := rec.Map["item2"]; ok {
		t.Fatalf("item2 should have been removed, Map = %+v", rec.Map)
	}
	if len(rec.Deleted) != 1 || rec.Deleted[0].Docid != 2 {
		t.Fatalf("Deleted = %+v, want one entry for docid 2", rec.Deleted)
	}
	if rec.Deleted[0].Moved() {
		t.Fatalf("item2 was dropped entirely, Moved() should be false")
	}
}

func TestArchiveContainerRenameDoesNotRecordDeletion(t *testing.T) {
	a, tx := newArchive()
	if err := a.ArchiveContainer(tx, archive.ContainerInput{
		ContainerID: 10, Path: "/c", Map: map[string]int64{"old-name": 1},
	}, "alice"); err != nil {
		t.Fatal(err)
	}
	if err := a.ArchiveContainer(tx, archive.ContainerInput{
		ContainerID: 10, Path: "/c", Map: map[string]int64{"new-name": 1},
	}, "alice"); err != nil {
		t.Fatal(err)
	}
	rec, err := a.ContainerContents(tx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Map["new-name"] != 1 {
		t.Fatalf("Map = %+v, want new-name -> 1", rec.Map)
	}
	if len(rec.Deleted) != 0 {
		t.Fatalf("Deleted = %+v, a rename within the same container is not a deletion", rec.Deleted)
	}
}

func TestArchiveContainerMoveBetweenContainersReportsMoved(t *testing.T) {
	a, tx := newArchive()
	if err := a.ArchiveContainer(tx, archive.ContainerInput{
		ContainerID: 10, Path: "/src", Map: map[string]int64{"item1": 1},
	}, "alice"); err != nil {
		t.Fatal(err)
	}
	if err := a.ArchiveContainer(tx, archive.ContainerInput{
		ContainerID: 20, Path: "/dst", Map: map[string]int64{"item1": 1},
	}, "alice"); err != nil {
		t.Fatal(err)
	}
	// item1 is now listed live in both 10 and 20; drop it from 10 so it
	// lives only in container 20.
	if err := a.ArchiveContainer(tx, archive.ContainerInput{
		ContainerID: 10, Path: "/src", Map: map[string]int64{},
	}, "alice"); err != nil {
		t.Fatal(err)
	}
	rec, err := a.ContainerContents(tx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.Deleted) != 1 {
		t.Fatalf("Deleted = %+v, want one entry", rec.Deleted)
	}
	if !rec.Deleted[0].Moved() {
		t.Fatalf("item1 still lives in container 20, Moved() should be true")
	}
	if len(rec.Deleted[0].NewContainerIDs) != 1 || rec.Deleted[0].NewContainerIDs[0] != 20 {
		t.Fatalf("NewContainerIDs = %v, want [20]", rec.Deleted[0].NewContainerIDs)
	}
}

func TestArchiveContainerUndeletesReappearingDocid(t *testing.T) {
	a, tx := newArchive()
	if err := a.ArchiveContainer(tx, archive.ContainerInput{
		ContainerID: 10, Path: "/c", Map: map[string]int64{"item1": 1},
	}, "alice"); err != nil {
		t.Fatal(err)
	}
	if err := a.ArchiveContainer(tx, archive.ContainerInput{
		ContainerID: 10, Path: "/c", Map: map[string]int64{},
	}, "alice"); err != nil {
		t.Fatal(err)
	}
	rec, _ := a.ContainerContents(tx, 10)
	if len(rec.Deleted) != 1 {
		t.Fatalf("Deleted = %+v, want one entry after drop", rec.Deleted)
	}

	if err := a.ArchiveContainer(tx, archive.ContainerInput{
		ContainerID: 10, Path: "/c", Map: map[string]int64{"item1": 1},
	}, "alice"); err != nil {
		t.Fatal(err)
	}
	rec, err := a.ContainerContents(tx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.Deleted) != 0 {
		t.Fatalf("Deleted = %+v, want the entry cleared once item1 reappears", rec.Deleted)
	}
	if rec.Map["item1"] != 1 {
		t.Fatalf("Map = %+v", rec.Map)
	}
}

func TestArchiveContainerNamespacedItems(t *testing.T) {
	a, tx := newArchive()
	if err := a.ArchiveContainer(tx, archive.ContainerInput{
		ContainerID: 10,
		Path:        "/c",
		NSMap:       map[string]map[string]int64{"pages": {"p1": 1}},
	}, "alice"); err != nil {
		t.Fatal(err)
	}
	rec, err := a.ContainerContents(tx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if rec.NSMap["pages"]["p1"] != 1 {
		t.Fatalf("NSMap = %+v", rec.NSMap)
	}
}

func TestContainerContentsNotFound(t *testing.T) {
	a, tx := newArchive()
	_, err := a.ContainerContents(tx, 999)
	if !archive.IsKind(err, archive.KindNotFound) {
		t.Fatalf("err = %v, want KindNotFound", err)
	}
}

func TestArchiveContainerRejectsZeroID(t *testing.T) {
	a, tx := newArchive()
	err := a.ArchiveContainer(tx, archive.ContainerInput{Path: "/c"}, "alice")
	if !archive.IsKind(err, archive.KindInvalidInput) {
		t.Fatalf("err = %v, want KindInvalidInput", err)
	}
}
