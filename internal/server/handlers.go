package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stigoleg/movemouse/internal/keepalive"
	"github.com/stigoleg/movemouse/internal/profile"
	"github.com/stigoleg/movemouse/internal/store"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type toggleResponse struct {
	Accepted bool             `json:"accepted"`
	Status   keepalive.Status `json:"status"`
}

type stopRequest struct {
	State string `json:"state"`
}

type profileResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Active        bool   `json:"active"`
	LowerInterval int    `json:"lower_interval_s"`
	UpperInterval int    `json:"upper_interval_s"`
	Random        bool   `json:"random_interval"`
	Actions       int    `json:"actions"`
}

type activateRequest struct {
	Profile string `json:"profile"`
}

type createProfileRequest struct {
	Name string `json:"name"`
	From string `json:"from"`
}

type renameProfileRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Keeper.Status())
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	accepted := s.deps.Keeper.Toggle()
	writeJSON(w, http.StatusOK, toggleResponse{Accepted: accepted, Status: s.deps.Keeper.Status()})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.deps.Keeper.Start()
	writeJSON(w, http.StatusOK, s.deps.Keeper.Status())
}

// handleStop stops into Idle, or into Paused when asked; other targets are
// owned by the monitors and rejected.
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	target := keepalive.Idle
	var req stopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	if req.State != "" {
		st, err := keepalive.ParseMouseState(req.State)
		if err != nil || (st != keepalive.Idle && st != keepalive.Paused) {
			writeError(w, http.StatusBadRequest, "invalid_input", "state must be idle or paused")
			return
		}
		target = st
	}
	s.deps.Keeper.Stop(target)
	writeJSON(w, http.StatusOK, s.deps.Keeper.Status())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		writeError(w, http.StatusNotFound, "journal_disabled", "the activity journal is disabled")
		return
	}
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_input", "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := s.deps.History.History(r.Context(), limit)
	if err != nil {
		s.logger.Error("read history", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to read history")
		return
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	active := s.deps.Profiles.Active()
	list := s.deps.Profiles.Profiles()
	out := make([]profileResponse, 0, len(list))
	for _, p := range list {
		out = append(out, newProfileResponse(p, active))
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": out})
}

func newProfileResponse(p, active *profile.Profile) profileResponse {
	return profileResponse{
		ID:            p.ID,
		Name:          p.Name,
		Active:        active != nil && p.ID == active.ID,
		LowerInterval: p.LowerInterval(),
		UpperInterval: p.UpperInterval(),
		Random:        p.RandomInterval,
		Actions:       len(p.Actions),
	}
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "name is required")
		return
	}
	p, err := s.deps.Profiles.Create(name, strings.TrimSpace(req.From))
	if err != nil {
		s.writeProfileError(w, "create profile", name, err)
		return
	}
	writeJSON(w, http.StatusCreated, newProfileResponse(p, s.deps.Profiles.Active()))
}

func (s *Server) handleRenameProfile(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "id")
	var req renameProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "name is required")
		return
	}
	p, err := s.deps.Profiles.Rename(ref, name)
	if err != nil {
		s.writeProfileError(w, "rename profile", ref, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileResponse(p, s.deps.Profiles.Active()))
}

func (s *Server) handleRemoveProfile(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "id")
	if err := s.deps.Profiles.Remove(ref); err != nil {
		s.writeProfileError(w, "remove profile", ref, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeProfileError(w http.ResponseWriter, op, ref string, err error) {
	switch {
	case errors.Is(err, profile.ErrUnknownProfile):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, profile.ErrDuplicateProfile), errors.Is(err, profile.ErrLastProfile):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	default:
		s.logger.Error(op, "profile", ref, "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to "+op)
	}
}

func (s *Server) handleSetActiveProfile(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	ref := strings.TrimSpace(req.Profile)
	if ref == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "profile is required")
		return
	}
	p, err := s.deps.Profiles.Activate(ref)
	if err != nil {
		s.writeProfileError(w, "activate profile", ref, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": p.ID, "name": p.Name})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	payload := map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	}
	writeJSON(w, status, payload)
}
