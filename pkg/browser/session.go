package browser

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/playwright-community/playwright-go"
)

// Closable is the teardown capability every resource in the session chain
// exposes. Teardown is a typed call, not a runtime probe.
type Closable interface {
	Close() error
}

// Engine owns the underlying automation runtime and launches browsers from
// it. The production implementation wraps Playwright; tests substitute a
// fake.
type Engine interface {
	Launch(headless bool) (playwright.Browser, error)
	Close() error
}

// EngineFactory creates a fresh engine for one session.
type EngineFactory func() (Engine, error)

type playwrightEngine struct {
	pw *playwright.Playwright
}

// NewEngine starts a Playwright driver instance. The driver must already be
// installed (see playwright.Install).
func NewEngine() (Engine, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	return &playwrightEngine{pw: pw}, nil
}

func (e *playwrightEngine) Launch(headless bool) (playwright.Browser, error) {
	return e.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
}

func (e *playwrightEngine) Close() error {
	return e.pw.Stop()
}

// Session bundles the live automation handles for one fetch: engine,
// browser, context, and page. It is exclusively owned by the caller that
// opened it and must be closed on every exit path.
type Session struct {
	// Site is the identifier the session was opened for.
	Site string

	// Authenticated reports whether the context carries auth state.
	Authenticated bool

	// CurrentURL is the URL of the page after the last navigation.
	CurrentURL string

	Engine  Engine
	Browser playwright.Browser
	Context playwright.BrowserContext
	Page    playwright.Page

	log       *log.Logger
	closeOnce sync.Once
}

// Close tears the session down top-down: page, context, browser, engine.
// It is idempotent, tolerates nil and already-closed handles, and swallows
// teardown errors after logging them so cleanup never masks the primary
// error.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		logger := s.log
		if logger == nil {
			logger = log.Default()
		}
		if s.Page != nil {
			if err := s.Page.Close(); err != nil {
				logger.Debug("page close failed", "site", s.Site, "err", err)
			}
		}
		if s.Context != nil {
			if err := s.Context.Close(); err != nil {
				logger.Debug("context close failed", "site", s.Site, "err", err)
			}
		}
		if s.Browser != nil {
			if err := s.Browser.Close(); err != nil {
				logger.Debug("browser close failed", "site", s.Site, "err", err)
			}
		}
		if s.Engine != nil {
			if err := s.Engine.Close(); err != nil {
				logger.Debug("engine close failed", "site", s.Site, "err", err)
			}
		}
	})
	return nil
}
