package browser

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/playwright-community/playwright-go"
)

// settleDelayMs absorbs the multi-hop redirects after the final submit, in
// milliseconds.
const settleDelayMs = 2000

// MultiStepStrategy logs in through a shared identity provider: the site's
// login entry point redirects to a common login host, the identity field and
// credential field live on separate steps, and success lands back on the
// site after several redirects. The NTM papers share this flow.
type MultiStepStrategy struct {
	Log *log.Logger
}

// AttemptLogin implements LoginStrategy.
func (m *MultiStepStrategy) AttemptLogin(page playwright.Page, cfg LoginConfig, creds Credentials) bool {
	logger := m.logger().With("site", cfg.Site)

	if creds.Username == "" || creds.Password == "" {
		logger.Warn("missing credentials, skipping login",
			"username_key", cfg.Credentials.UsernameKey,
			"password_key", cfg.Credentials.PasswordKey)
		return false
	}

	entryURL := fmt.Sprintf("https://%s/logga-in", cfg.Domain)
	logger.Info("navigating to login entry point", "url", entryURL)
	if _, err := page.Goto(entryURL); err != nil {
		logger.Error("failed to reach login entry point", "err", err)
		return false
	}
	if err := waitNetworkIdle(page); err != nil {
		logger.Error("login page never settled", "err", err)
		return false
	}

	// Step 1: identity, then advance to the credential step.
	if err := page.Fill(cfg.UsernameSelector, creds.Username); err != nil {
		logger.Error("failed to fill identity field", "selector", cfg.UsernameSelector, "err", err)
		return false
	}
	if err := page.Click(cfg.ContinueButton); err != nil {
		logger.Error("failed to advance past identity step", "selector", cfg.ContinueButton, "err", err)
		return false
	}
	if err := waitNetworkIdle(page); err != nil {
		logger.Error("credential step never settled", "err", err)
		return false
	}

	// Step 2: credential, then submit.
	if err := page.Fill(cfg.PasswordSelector, creds.Password); err != nil {
		logger.Error("failed to fill credential field", "selector", cfg.PasswordSelector, "err", err)
		return false
	}
	if err := page.Click(cfg.LoginButton); err != nil {
		logger.Error("failed to submit credentials", "selector", cfg.LoginButton, "err", err)
		return false
	}
	if err := waitNetworkIdle(page); err != nil {
		logger.Error("post-login navigation never settled", "err", err)
		return false
	}

	if cfg.SuccessURLPattern != "" {
		// The identity provider bounces through several hosts before landing
		// back on the site; let that settle before judging the URL.
		page.WaitForTimeout(settleDelayMs)
		if err := waitNetworkIdle(page); err != nil {
			logger.Warn("settle wait after login did not complete", "err", err)
		}

		current := page.URL()
		if !strings.Contains(current, cfg.SuccessURLPattern) {
			logger.Warn("success URL pattern not reached",
				"pattern", cfg.SuccessURLPattern, "url", current)
			return false
		}
		logger.Info("success URL pattern matched", "url", current)

		// Let cookies and storage finish writing before the state export.
		if err := page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
			State: playwright.LoadStateLoad,
		}); err != nil {
			logger.Warn("final load wait did not complete", "err", err)
		}
	}

	logger.Info("login successful")
	return true
}

func (m *MultiStepStrategy) logger() *log.Logger {
	if m.Log != nil {
		return m.Log
	}
	return log.Default()
}

func waitNetworkIdle(page playwright.Page) error {
	return page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateNetworkidle,
	})
}
