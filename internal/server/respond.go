package server

import (
	"encoding/json"
	"net/http"

	"github.com/koustreak/playerdb/internal/errs"
	"github.com/koustreak/playerdb/internal/logger"
)

type resultsBody struct {
	Results any `json:"results"`
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeResults(w http.ResponseWriter, results any) {
	writeJSON(w, http.StatusOK, resultsBody{Results: results})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// fail maps err to a status code and writes it. Server-side failures are
// logged with the request's logger.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errs.IsInvalidInput(err):
		status = http.StatusBadRequest
	case errs.IsNotFound(err):
		status = http.StatusNotFound
	}

	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context(), s.log).ErrorWith("request failed", err, logger.Fields{
			"kind": errs.KindOf(err).String(),
		})
	}
	writeError(w, status, err.Error())
}
