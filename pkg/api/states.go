package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ahodyhq/ahody/pkg/browser"
)

func (s *Server) handleListStates(w http.ResponseWriter, r *http.Request) {
	states, err := s.store.List()
	if err != nil {
		s.log.Error("failed to list auth states", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list auth states")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"states": states,
		"total":  len(states),
	})
}

func (s *Server) handleDeleteState(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")
	if !s.store.Delete(site) {
		writeError(w, http.StatusNotFound, "no auth state for site "+site)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"site": site, "status": "deleted"})
}

func (s *Server) handleBackupState(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")
	path, err := s.store.Backup(site)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, browser.ErrStateNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"site": site, "backup_path": path})
}
