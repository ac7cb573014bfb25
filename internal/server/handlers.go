package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/koustreak/playerdb/internal/database"
	"github.com/koustreak/playerdb/internal/players"
)

// entityRequest uses pointers so a zero value still counts as present.
type entityRequest struct {
	ID    *int64 `json:"id"`
	Coins *int64 `json:"coins"`
	Goods *int64 `json:"goods"`
}

type createResponse struct {
	InsertID     int64 `json:"insertId"`
	AffectedRows int64 `json:"affectedRows"`
}

type affectedResponse struct {
	AffectedRows int64 `json:"affectedRows"`
}

type healthResponse struct {
	Status string          `json:"status"`
	Pool   *database.Stats `json:"pool,omitempty"`
}

// handleDiagnostic serves GET /diagnostic:
//
//	?init=1  create the table and seed it
//	?id=N    read one player
//	?schema=1 describe the players table
//	(none)   report the server version
func (s *Server) handleDiagnostic(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	if q.Get("init") != "" {
		if err := s.deps.Players.CreateTable(ctx); err != nil {
			s.fail(w, r, err)
			return
		}
		seeded, err := s.deps.Players.Seed(ctx)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeResults(w, seeded)
		return
	}

	if q.Get("schema") != "" {
		if s.deps.Schema == nil {
			writeError(w, http.StatusNotFound, "schema inspection is not available")
			return
		}
		info, err := s.deps.Schema.InspectTable(ctx, players.TableName)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeResults(w, info)
		return
	}

	if raw := q.Get("id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "id must be an integer")
			return
		}
		found, err := s.deps.Players.ReadByID(ctx, id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeResults(w, found)
		return
	}

	version, err := s.deps.Players.ServerVersion(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeResults(w, []map[string]string{{"version": version}})
}

func (s *Server) handleHello(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Players.Hello(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeResults(w, res.Rows)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeEntity(w, r)
	if !ok {
		return
	}
	if req.Coins == nil || req.Goods == nil {
		writeError(w, http.StatusBadRequest, "coins and goods are required")
		return
	}

	id, affected, err := s.deps.Players.Create(r.Context(), *req.Coins, *req.Goods)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeResults(w, createResponse{InsertID: id, AffectedRows: affected})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeEntity(w, r)
	if !ok {
		return
	}
	if req.ID == nil || req.Coins == nil || req.Goods == nil {
		writeError(w, http.StatusBadRequest, "id, coins and goods are required")
		return
	}

	n, err := s.deps.Players.Update(r.Context(), *req.ID, *req.Coins, *req.Goods)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeResults(w, affectedResponse{AffectedRows: n})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeEntity(w, r)
	if !ok {
		return
	}
	if req.ID == nil {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	n, err := s.deps.Players.DeleteByID(r.Context(), *req.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeResults(w, affectedResponse{AffectedRows: n})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	status := http.StatusOK

	if s.deps.Pool != nil {
		st := s.deps.Pool.Stats()
		resp.Pool = &st
		if st.Closed {
			resp.Status = "closed"
			status = http.StatusServiceUnavailable
		}
	}
	if s.draining.Load() {
		resp.Status = "shutting_down"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// decodeEntity reads the JSON body. On failure it writes a 400 and
// returns false.
func decodeEntity(w http.ResponseWriter, r *http.Request) (*entityRequest, bool) {
	var req entityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		msg := "invalid JSON body"
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &typeErr):
			msg = typeErr.Field + " must be an integer"
		case errors.As(err, &maxErr):
			msg = "request body too large"
		}
		writeError(w, http.StatusBadRequest, msg)
		return nil, false
	}
	return &req, true
}

var _ Players = (*players.Repository)(nil)
