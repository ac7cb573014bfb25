package server

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/koustreak/playerdb/internal/logger"
)

func (s *Server) handleSnapshotExport(w http.ResponseWriter, r *http.Request) {
	entry, err := s.deps.Snapshots.Export(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resultsBody{Results: entry})
}

func (s *Server) handleSnapshotList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.deps.Snapshots.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeResults(w, entries)
}

// handleSnapshotDownload streams a stored snapshot through the API for
// clients that cannot reach the object store directly.
func (s *Server) handleSnapshotDownload(w http.ResponseWriter, r *http.Request) {
	obj, err := s.deps.Snapshots.Open(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer obj.Close()

	info := obj.Info()
	w.Header().Set("Content-Type", "application/json")
	if info != nil && info.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj); err != nil {
		logger.FromContext(r.Context(), s.log).ErrorWith("snapshot download interrupted", err, nil)
	}
}
