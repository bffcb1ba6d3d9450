package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sprite-ai/trawl/internal/checklist"
	"github.com/sprite-ai/trawl/internal/model"
	"github.com/sprite-ai/trawl/internal/repo"
)

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Search ---

type hitJSON struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Preview string `json:"preview"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	useRegex, _ := strconv.ParseBool(r.URL.Query().Get("regex"))
	glob := r.URL.Query().Get("glob")

	hits, err := s.repo.Search(r.Context(), q, useRegex, glob)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search: "+err.Error())
		return
	}

	resp := make([]hitJSON, 0, len(hits))
	for _, h := range hits {
		resp = append(resp, hitJSON{
			File:    h.ArtifactID,
			Line:    h.Line,
			Column:  h.Column,
			Preview: h.Preview,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Artifacts ---

type fileJSON struct {
	Content string `json:"content"`
	Version string `json:"version"`
}

func (s *Server) handleReadFile(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	art, err := s.repo.Read(path)
	switch {
	case errors.Is(err, repo.ErrInvalidPath):
		writeError(w, http.StatusBadRequest, "invalid path")
	case errors.Is(err, repo.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, repo.ErrBinary):
		writeError(w, http.StatusUnsupportedMediaType, "binary file")
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, fileJSON{Content: art.Content, Version: art.Version})
	}
}

type saveRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Version string `json:"version"`
}

type saveResponse struct {
	Status     string `json:"status"`
	NewVersion string `json:"new_version,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (s *Server) handleSaveFile(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	res, err := s.repo.Write(req.Path, req.Content, req.Version)
	switch {
	case errors.Is(err, repo.ErrInvalidPath):
		writeError(w, http.StatusBadRequest, "invalid path")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if !res.Accepted {
		// A stale version is part of the protocol, not an HTTP failure.
		writeJSON(w, http.StatusOK, saveResponse{
			Status:  "conflict",
			Message: "artifact changed on disk; reload required",
		})
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{Status: "ok", NewVersion: res.NewVersion})
}

// --- Checklist ---

type recordJSON struct {
	Status    string `json:"status"`
	Note      string `json:"note"`
	UpdatedTS int64  `json:"updated_ts"`
}

func toRecordJSON(rec model.StatusRecord) recordJSON {
	return recordJSON{
		Status:    rec.Status.String(),
		Note:      rec.Note,
		UpdatedTS: rec.UpdatedAt.Unix(),
	}
}

func (s *Server) handleGetChecklist(w http.ResponseWriter, r *http.Request) {
	all, err := s.list.All()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "checklist: "+err.Error())
		return
	}

	resp := make(map[string]recordJSON, len(all))
	for id, rec := range all {
		resp[id] = toRecordJSON(rec)
	}
	writeJSON(w, http.StatusOK, resp)
}

type patchRequest struct {
	Path   string  `json:"path"`
	Status *string `json:"status,omitempty"`
	Note   *string `json:"note,omitempty"`
}

func (s *Server) handlePatchChecklist(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	upd := checklist.Update{Note: req.Note}
	if req.Status != nil {
		status := model.ParseStatus(*req.Status)
		upd.Status = &status
	}

	rec, err := s.list.Patch(req.Path, upd)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "checklist: "+err.Error())
		return
	}

	s.hub.broadcast(wsMsgChecklistUpdated, checklistEvent{
		Path:   req.Path,
		Record: toRecordJSON(rec),
	})
	writeJSON(w, http.StatusOK, toRecordJSON(rec))
}
