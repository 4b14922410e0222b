package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"github.com/ndlib/repoarchive/archive"
)

// Version identifies this server binary's build, reported on the
// welcome route the same way bendo reports its own on GET /.
const Version = "1"

// WelcomeHandler handles GET /.
func (s *Server) WelcomeHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	fmt.Fprintf(w, "repoarchive (%s)\n", Version)
}

func (s *Server) withTx(w http.ResponseWriter, fn func(tx archive.Tx) error) {
	tx, err := s.OpenTx()
	if err != nil {
		writeError(w, err)
		return
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		writeError(w, err)
		return
	}
	if err := tx.Commit(); err != nil {
		writeError(w, err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if archive.IsKind(err, archive.KindNotFound) {
		status = http.StatusNotFound
	} else if archive.IsKind(err, archive.KindInvalidInput) {
		status = http.StatusBadRequest
	} else if archive.IsKind(err, archive.KindContainerNotEmpty) {
		status = http.StatusConflict
	}
	w.WriteHeader(status)
	fmt.Fprintln(w, err.Error())
}

func parseDocid(ps httprouter.Params) (int64, error) {
	return strconv.ParseInt(ps.ByName("docid"), 10, 64)
}

// HistoryHandler handles GET /document/:docid/history.
func (s *Server) HistoryHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	docid, err := parseDocid(ps)
	if err != nil {
		writeError(w, archive.ErrInvalidInput("bad docid: %s", err))
		return
	}
	onlyCurrent := r.URL.Query().Get("current") == "1"

	s.withTx(w, func(tx archive.Tx) error {
		records, err := s.Archive.History(tx, docid, onlyCurrent)
		if err != nil {
			return err
		}
		return writeJSON(w, toHistoryViews(records))
	})
}

// GetVersionHandler handles GET /document/:docid/version/:version.
func (s *Server) GetVersionHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	docid, err := parseDocid(ps)
	if err != nil {
		writeError(w, archive.ErrInvalidInput("bad docid: %s", err))
		return
	}
	versionNum, err := strconv.Atoi(ps.ByName("version"))
	if err != nil {
		writeError(w, archive.ErrInvalidInput("bad version: %s", err))
		return
	}

	s.withTx(w, func(tx archive.Tx) error {
		rec, err := s.Archive.GetVersion(tx, docid, versionNum)
		if err != nil {
			return err
		}
		return writeJSON(w, toHistoryView(rec))
	})
}

// BlobHandler handles GET /document/:docid/version/:version/blob/:name.
func (s *Server) BlobHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	docid, err := parseDocid(ps)
	if err != nil {
		writeError(w, archive.ErrInvalidInput("bad docid: %s", err))
		return
	}
	versionNum, err := strconv.Atoi(ps.ByName("version"))
	if err != nil {
		writeError(w, archive.ErrInvalidInput("bad version: %s", err))
		return
	}
	name := ps.ByName("name")

	s.withTx(w, func(tx archive.Tx) error {
		rec, err := s.Archive.GetVersion(tx, docid, versionNum)
		if err != nil {
			return err
		}
		blob, err := rec.Blob(name)
		if err != nil {
			return err
		}
		defer blob.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		_, err = io.Copy(w, blob)
		return err
	})
}

// ContainerContentsHandler handles GET /container/:id.
func (s *Server) ContainerContentsHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := strconv.ParseInt(ps.ByName("id"), 10, 64)
	if err != nil {
		writeError(w, archive.ErrInvalidInput("bad container id: %s", err))
		return
	}
	s.withTx(w, func(tx archive.Tx) error {
		rec, err := s.Archive.ContainerContents(tx, id)
		if err != nil {
			return err
		}
		return writeJSON(w, rec)
	})
}

// HierarchyHandler handles GET /container/:id/hierarchy.
func (s *Server) HierarchyHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := strconv.ParseInt(ps.ByName("id"), 10, 64)
	if err != nil {
		writeError(w, archive.ErrInvalidInput("bad container id: %s", err))
		return
	}
	opts := archive.HierarchyOptions{
		FollowDeleted: r.URL.Query().Get("follow_deleted") == "1",
		FollowMoved:   r.URL.Query().Get("follow_moved") == "1",
	}

	s.withTx(w, func(tx archive.Tx) error {
		var records []*archive.ContainerRecord
		err := s.Archive.IterHierarchy(tx, id, opts, func(rec *archive.ContainerRecord) error {
			records = append(records, rec)
			return nil
		})
		if err != nil {
			return err
		}
		return writeJSON(w, records)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.NewEncoder(w).Encode(v)
}

// historyView flattens a HistoryRecord's lazily-opened blobs down to
// their names for JSON rendering; content is fetched separately via
// BlobHandler.
type historyView struct {
	Docid              int64                  `json:"docid"`
	VersionNum         int                    `json:"version_num"`
	CurrentVersion     int                    `json:"current_version"`
	DerivedFromVersion *int                   `json:"derived_from_version,omitempty"`
	Path               string                 `json:"path"`
	User               string                 `json:"user"`
	Title              *string                `json:"title,omitempty"`
	Description        *string                `json:"description,omitempty"`
	Attrs              map[string]interface{} `json:"attrs,omitempty"`
	Comment            *string                `json:"comment,omitempty"`
	BlobNames          []string               `json:"blobs"`
}

func toHistoryView(rec *archive.HistoryRecord) historyView {
	return historyView{
		Docid:              rec.Docid,
		VersionNum:         rec.VersionNum,
		CurrentVersion:     rec.CurrentVersion,
		DerivedFromVersion: rec.DerivedFromVersion,
		Path:               rec.Path,
		User:               rec.User,
		Title:              rec.Title,
		Description:        rec.Description,
		Attrs:              rec.Attrs,
		Comment:            rec.Comment,
		BlobNames:          rec.BlobNames,
	}
}

func toHistoryViews(records []*archive.HistoryRecord) []historyView {
	views := make([]historyView, len(records))
	for i, rec := range records {
		views[i] = toHistoryView(rec)
	}
	return views
}
