package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ndlib/repoarchive/archive"
	"github.com/ndlib/repoarchive/archive/archivetest"
	"github.com/ndlib/repoarchive/blobstore"
)

type fakeClasses struct{}

func (fakeClasses) Resolve(module, name string) (archive.ClassHandle, bool) {
	if module == "doc" && name == "report" {
		return 1, true
	}
	return 0, false
}

func (fakeClasses) Describe(handle archive.ClassHandle) (string, string) {
	return "doc", "report"
}

func newTestServer(t *testing.T) (*Server, *archive.Archive) {
	t.Helper()
	a := archive.New(fakeClasses{}, nil)
	s := New(a, func() (archive.Tx, error) {
		return archivetest.New(), nil
	})
	return s, a
}

func newReadSeeker(s string) blobstore.ReadSeeker {
	return bytes.NewReader([]byte(s))
}

func TestWelcomeHandler(t *testing.T) {
	s, _ := newTestServer(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "repoarchive") {
		t.Fatalf("body = %q, want it to mention repoarchive", rr.Body.String())
	}
}

func TestHistoryHandlerNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/document/99/history", nil)
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestHistoryAndVersionAndBlobHandlers(t *testing.T) {
	// Use a single fixed MemTx across seeding and every request by
	// overriding OpenTx to always return the same instance, since a real
	// deployment's sqlstore.Store shares one database across requests but
	// archivetest.New() only gives a blank map per call.
	shared := archivetest.New()
	a := archive.New(fakeClasses{}, nil)
	s := New(a, func() (archive.Tx, error) { return shared, nil })

	if _, err := a.ArchiveVersion(shared, archive.VersionInput{
		Docid: 1,
		Path:  "/readingroom/item1",
		User:  "tester",
		Class: 1,
		Blobs: map[string]archive.BlobSource{
			"content": {Reader: newReadSeeker("hello world")},
		},
	}); err != nil {
		t.Fatal(err)
	}

	t.Run("history", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/document/1/history", nil)
		s.Handler().ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
		}
		var views []historyView
		if err := json.Unmarshal(rr.Body.Bytes(), &views); err != nil {
			t.Fatal(err)
		}
		if len(views) != 1 || views[0].VersionNum != 1 {
			t.Fatalf("views = %+v", views)
		}
	})

	t.Run("get version", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/document/1/version/1", nil)
		s.Handler().ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("blob", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/document/1/version/1/blob/content", nil)
		s.Handler().ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
		}
		if rr.Body.String() != "hello world" {
			t.Fatalf("body = %q, want %q", rr.Body.String(), "hello world")
		}
	})

	t.Run("blob not found", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/document/1/version/1/blob/missing", nil)
		s.Handler().ServeHTTP(rr, req)
		if rr.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rr.Code)
		}
	})
}

func TestContainerHandlers(t *testing.T) {
	shared := archivetest.New()
	a := archive.New(fakeClasses{}, nil)
	s := New(a, func() (archive.Tx, error) { return shared, nil })

	if _, err := a.ArchiveVersion(shared, archive.VersionInput{
		Docid: 1, Path: "/a", User: "tester", Class: 1,
		Blobs: map[string]archive.BlobSource{"content": {Reader: newReadSeeker("x")}},
	}); err != nil {
		t.Fatal(err)
	}
	if err := a.ArchiveContainer(shared, archive.ContainerInput{
		ContainerID: 10,
		Path:        "/collection",
		Map:         map[string]int64{"item1": 1},
	}, "tester"); err != nil {
		t.Fatal(err)
	}

	t.Run("contents", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/container/10", nil)
		s.Handler().ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
		}
		var rec archive.ContainerRecord
		if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
			t.Fatal(err)
		}
		if rec.Map["item1"] != 1 {
			t.Fatalf("rec.Map = %+v", rec.Map)
		}
	})

	t.Run("hierarchy", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/container/10/hierarchy", nil)
		s.Handler().ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("bad container id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/container/notanumber", nil)
		s.Handler().ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rr.Code)
		}
	})
}
