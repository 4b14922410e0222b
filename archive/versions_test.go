package archive_test

import (
	"bytes"
	"io/ioutil"
	"testing"

	"github.com/ndlib/repoarchive/archive"
	"github.com/ndlib/repoarchive/archive/archivetest"
)

type fakeClasses struct{}

func (fakeClasses) Resolve(module, name string) (archive.ClassHandle, bool) {
	if module == "doc" && name == "report" {
		return 1, true
	}
	return 0, false
}

func (fakeClasses) Describe(handle archive.ClassHandle) (string, string) {
	if handle == 1 {
		return "doc", "report"
	}
	return "", ""
}

func newArchive() (*archive.Archive, archive.Tx) {
	return archive.New(fakeClasses{}, nil), archivetest.New()
}

func reader(s string) archive.BlobSource {
	return archive.BlobSource{Reader: bytes.NewReader([]byte(s))}
}

func TestArchiveVersionFirstVersionBecomesCurrent(t *testing.T) {
	a, tx := newArchive()
	v, err := a.ArchiveVersion(tx, archive.VersionInput{
		Docid: 1,
		Path:  "/readingroom/item1",
		User:  "alice",
		Class: 1,
		Blobs: map[string]archive.BlobSource{"content": reader("v1")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if v != 1 {
		t.Fatalf("version = %d, want 1", v)
	}

	rec, err := a.GetVersion(tx, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if rec.CurrentVersion != 1 {
		t.Fatalf("CurrentVersion = %d, want 1", rec.CurrentVersion)
	}
	if rec.DerivedFromVersion != nil {
		t.Fatalf("DerivedFromVersion = %v, want nil for a first version", rec.DerivedFromVersion)
	}

	blob, err := rec.Blob("content")
	if err != nil {
		t.Fatal(err)
	}
	defer blob.Close()
	data, err := ioutil.ReadAll(blob)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "v1" {
		t.Fatalf("blob content = %q, want %q", data, "v1")
	}
}

func TestArchiveVersionSecondVersionDerivesFromCurrent(t *testing.T) {
	a, tx := newArchive()
	if _, err := a.ArchiveVersion(tx, archive.VersionInput{
		Docid: 1, Path: "/a", User: "alice", Class: 1,
		Blobs: map[string]archive.BlobSource{"content": reader("v1")},
	}); err != nil {
		t.Fatal(err)
	}
	v2, err := a.ArchiveVersion(tx, archive.VersionInput{
		Docid: 1, Path: "/a", User: "alice", Class: 1,
		Blobs: map[string]archive.BlobSource{"content": reader("v2")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if v2 != 2 {
		t.Fatalf("version = %d, want 2", v2)
	}
	rec, err := a.GetVersion(tx, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if rec.DerivedFromVersion == nil || *rec.DerivedFromVersion != 1 {
		t.Fatalf("DerivedFromVersion = %v, want pointer to 1", rec.DerivedFromVersion)
	}
}

func TestArchiveVersionDeduplicatesIdenticalBlobContent(t *testing.T) {
	a, tx := newArchive()
	if _, err := a.ArchiveVersion(tx, archive.VersionInput{
		Docid: 1, Path: "/a", User: "alice", Class: 1,
		Blobs: map[string]archive.BlobSource{"content": reader("same bytes")},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := a.ArchiveVersion(tx, archive.VersionInput{
		Docid: 2, Path: "/b", User: "alice", Class: 1,
		Blobs: map[string]archive.BlobSource{"content": reader("same bytes")},
	}); err != nil {
		t.Fatal(err)
	}
	links1, err := tx.ListBlobLinks(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	links2, err := tx.ListBlobLinks(2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if links1["content"] != links2["content"] {
		t.Fatalf("identical content was stored under two different blob ids: %d != %d", links1["content"], links2["content"])
	}
}

func TestArchiveVersionRejectsMissingRequiredFields(t *testing.T) {
	a, tx := newArchive()
	_, err := a.ArchiveVersion(tx, archive.VersionInput{Path: "/a", User: "alice"})
	if !archive.IsKind(err, archive.KindInvalidInput) {
		t.Fatalf("err = %v, want KindInvalidInput for zero docid", err)
	}
	_, err = a.ArchiveVersion(tx, archive.VersionInput{Docid: 1, User: "alice"})
	if !archive.IsKind(err, archive.KindInvalidInput) {
		t.Fatalf("err = %v, want KindInvalidInput for empty path", err)
	}
	_, err = a.ArchiveVersion(tx, archive.VersionInput{Docid: 1, Path: "/a"})
	if !archive.IsKind(err, archive.KindInvalidInput) {
		t.Fatalf("err = %v, want KindInvalidInput for empty user", err)
	}
}

func TestRevertMovesCurrentPointerWithoutNewVersion(t *testing.T) {
	a, tx := newArchive()
	for i := 0; i < 2; i++ {
		if _, err := a.ArchiveVersion(tx, archive.VersionInput{
			Docid: 1, Path: "/a", User: "alice", Class: 1,
			Blobs: map[string]archive.BlobSource{"content": reader("v")},
		}); err != nil {
			t.Fatal(err)
		}
	}
	if err := a.Revert(tx, 1, 1); err != nil {
		t.Fatal(err)
	}
	history, err := a.History(tx, 1, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].VersionNum != 1 {
		t.Fatalf("history = %+v, want only version 1 as current", history)
	}
	all, err := a.History(tx, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("len(all) = %d, want 2 (revert creates no new version)", len(all))
	}
}

func TestRevertRejectsNonexistentVersion(t *testing.T) {
	a, tx := newArchive()
	if _, err := a.ArchiveVersion(tx, archive.VersionInput{
		Docid: 1, Path: "/a", User: "alice", Class: 1,
	}); err != nil {
		t.Fatal(err)
	}
	err := a.Revert(tx, 1, 99)
	if !archive.IsKind(err, archive.KindNotFound) {
		t.Fatalf("err = %v, want KindNotFound", err)
	}
}

func TestGetVersionNotFound(t *testing.T) {
	a, tx := newArchive()
	_, err := a.GetVersion(tx, 42, 1)
	if !archive.IsKind(err, archive.KindNotFound) {
		t.Fatalf("err = %v, want KindNotFound", err)
	}
}

func TestHistoryOrdersMostRecentFirst(t *testing.T) {
	a, tx := newArchive()
	for i := 0; i < 3; i++ {
		if _, err := a.ArchiveVersion(tx, archive.VersionInput{
			Docid: 1, Path: "/a", User: "alice", Class: 1,
		}); err != nil {
			t.Fatal(err)
		}
	}
	records, err := a.History(tx, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}
	for i, rec := range records {
		want := 3 - i
		if rec.VersionNum != want {
			t.Fatalf("records[%d].VersionNum = %d, want %d", i, rec.VersionNum, want)
		}
	}
}
