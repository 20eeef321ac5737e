// Package scraper fetches article pages through authenticated browser
// sessions and reduces them to structured articles.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/ahodyhq/ahody/pkg/browser"
	"github.com/ahodyhq/ahody/pkg/extract"
	"github.com/ahodyhq/ahody/pkg/llm"
)

// ErrExtractionEmpty means the page loaded but no visible text survived
// cleaning. Reported to the caller, never retried here.
var ErrExtractionEmpty = errors.New("extracted content is empty")

// Browser opens ready browsing sessions. *browser.Manager implements it.
type Browser interface {
	Browse(rawURL string, forceLogin bool) (*browser.Session, error)
}

// Agent is the structured-extraction model behind ScrapeArticle. Its
// failures are tolerated; the raw article is served instead.
type Agent interface {
	ExtractArticle(ctx context.Context, cleanedHTML string) (llm.ArticleFields, error)
}

// Service turns URLs into articles.
type Service struct {
	browser Browser
	agent   Agent
	log     *log.Logger
}

// NewService wires a scraper. agent may be nil, in which case articles are
// served without model post-processing.
func NewService(b Browser, agent Agent, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		browser: b,
		agent:   agent,
		log:     logger.With("component", "scraper"),
	}
}

// FetchArticle browses to url, waits for the page to finish loading, and
// returns the cleaned article. The browsing session is closed on every exit
// path.
func (s *Service) FetchArticle(url string) (*Article, error) {
	fetchID := uuid.NewString()
	logger := s.log.With("fetch_id", fetchID, "url", url)
	logger.Info("fetching article")

	sess, err := s.browser.Browse(url, false)
	if err != nil {
		return nil, fmt.Errorf("browse %s: %w", url, err)
	}
	defer sess.Close()

	if err := sess.Page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateLoad,
	}); err != nil {
		logger.Warn("load wait did not complete, reading page anyway", "err", err)
	}

	rawHTML, err := sess.Page.Content()
	if err != nil {
		return nil, fmt.Errorf("read page content: %w", err)
	}
	pageTitle, err := sess.Page.Title()
	if err != nil {
		logger.Warn("failed to read page title", "err", err)
	}

	fetchedAt := time.Now()
	content := extract.New(url, rawHTML, fetchedAt)
	if content.Text == "" {
		return nil, fmt.Errorf("%s: %w", url, ErrExtractionEmpty)
	}

	logger.Info("article fetched",
		"title", pageTitle,
		"html_bytes", len(content.CleanedHTML),
		"words", content.WordCount)

	return &Article{
		Title:       pageTitle,
		URL:         url,
		HTMLContent: content.CleanedHTML,
		TextContent: content.Text,
		Metadata: ArticleMetadata{
			PageTitle: pageTitle,
			FetchTime: fetchedAt.Format(time.RFC3339),
			WordCount: content.WordCount,
		},
	}, nil
}

// ScrapeArticle fetches the article and runs the extraction agent over the
// cleaned HTML for the text boundaries, date, and author. When the agent is
// unavailable or fails, the raw fetched article is returned instead.
func (s *Service) ScrapeArticle(ctx context.Context, url string) (*Article, error) {
	article, err := s.FetchArticle(url)
	if err != nil {
		return nil, err
	}
	if s.agent == nil {
		return article, nil
	}

	fields, err := s.agent.ExtractArticle(ctx, article.HTMLContent)
	if err != nil {
		s.log.Error("agent extraction failed, returning raw article", "url", url, "err", err)
		return article, nil
	}

	if fields.TextContent != "" {
		article.TextContent = fields.TextContent
		article.Metadata.WordCount = len(strings.Fields(fields.TextContent))
	}
	article.Date = fields.Date
	article.Author = fields.Author
	return article, nil
}
