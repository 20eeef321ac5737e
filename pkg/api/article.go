package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ahodyhq/ahody/pkg/browser"
	"github.com/ahodyhq/ahody/pkg/scraper"
)

type scrapeArticleRequest struct {
	URL string `json:"url"`
}

type scrapeArticleResponse struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	HTMLContent string `json:"html_content"`
	TextContent string `json:"text_content"`
	Date        string `json:"date,omitempty"`
	Author      string `json:"author,omitempty"`
}

func (s *Server) handleScrapeArticle(w http.ResponseWriter, r *http.Request) {
	var req scrapeArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !strings.HasPrefix(req.URL, "http") {
		writeError(w, http.StatusBadRequest, "invalid URL")
		return
	}

	article, err := s.scraper.ScrapeArticle(r.Context(), req.URL)
	if err != nil {
		s.log.Error("scrape failed", "url", req.URL, "err", err)
		writeError(w, scrapeStatus(err), "error scraping article: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, scrapeArticleResponse{
		Title:       article.Title,
		URL:         article.URL,
		HTMLContent: article.HTMLContent,
		TextContent: article.TextContent,
		Date:        article.Date,
		Author:      article.Author,
	})
}

// scrapeStatus maps pipeline failures to response codes: credential and
// login problems are the operator's to fix, an empty extraction is a content
// problem, anything else is a gateway failure.
func scrapeStatus(err error) int {
	switch {
	case errors.Is(err, browser.ErrCredentialsMissing):
		return http.StatusServiceUnavailable
	case errors.Is(err, browser.ErrAuthenticationFailed):
		return http.StatusBadGateway
	case errors.Is(err, scraper.ErrExtractionEmpty):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
