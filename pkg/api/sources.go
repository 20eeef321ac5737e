package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ahodyhq/ahody/pkg/llm"
)

type addSourceRequest struct {
	UserPrompt string `json:"userPrompt"`
	URL        string `json:"url"`
}

func (s *Server) handleAddSource(w http.ResponseWriter, r *http.Request) {
	var req addSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !strings.HasPrefix(req.URL, "http") {
		writeError(w, http.StatusBadRequest, "invalid URL - must start with http or https")
		return
	}

	if s.planner == nil {
		writeJSON(w, http.StatusOK, llm.FallbackSourcePlan(req.URL))
		return
	}

	plan, err := s.planner.PlanSource(r.Context(), req.UserPrompt, req.URL)
	if err != nil {
		s.log.Warn("source planning failed, using fallback", "url", req.URL, "err", err)
		writeJSON(w, http.StatusOK, llm.FallbackSourcePlan(req.URL))
		return
	}
	writeJSON(w, http.StatusOK, plan)
}
