package browser

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/playwright-community/playwright-go"
)

// Timing constants for the single-step flow, in milliseconds.
const (
	// redirectGraceMs is how long to wait for client-side redirects when the
	// success URL is not reached immediately after submit.
	redirectGraceMs = 3000
	// successElementTimeoutMs bounds the best-effort success element check.
	successElementTimeoutMs = 5000
)

// SingleStepStrategy logs in through a single form: navigate to the fixed
// login URL, fill username and password, submit, and verify the resulting
// URL. Sites like NWT expose this shape.
type SingleStepStrategy struct {
	Log *log.Logger
}

// AttemptLogin implements LoginStrategy.
func (s *SingleStepStrategy) AttemptLogin(page playwright.Page, cfg LoginConfig, creds Credentials) bool {
	logger := s.logger().With("site", cfg.Site)

	// Bail before touching the page so a retry starts from a clean state.
	if creds.Username == "" || creds.Password == "" {
		logger.Warn("missing credentials, skipping login",
			"username_key", cfg.Credentials.UsernameKey,
			"password_key", cfg.Credentials.PasswordKey)
		return false
	}

	logger.Info("navigating to login page", "url", cfg.LoginURL)
	if _, err := page.Goto(cfg.LoginURL); err != nil {
		logger.Error("failed to reach login page", "err", err)
		return false
	}

	if err := page.Fill(cfg.UsernameSelector, creds.Username); err != nil {
		logger.Error("failed to fill username field", "selector", cfg.UsernameSelector, "err", err)
		return false
	}
	if err := page.Fill(cfg.PasswordSelector, creds.Password); err != nil {
		logger.Error("failed to fill password field", "selector", cfg.PasswordSelector, "err", err)
		return false
	}

	logger.Info("submitting login form")
	if err := page.Click(cfg.SubmitSelector); err != nil {
		logger.Error("failed to submit login form", "selector", cfg.SubmitSelector, "err", err)
		return false
	}

	if cfg.SuccessURLPattern != "" {
		current := page.URL()
		if !strings.Contains(current, cfg.SuccessURLPattern) {
			// Give client-side redirects a bounded chance to land.
			page.WaitForTimeout(redirectGraceMs)
			current = page.URL()
			if !strings.Contains(current, cfg.SuccessURLPattern) {
				logger.Warn("success URL pattern not reached",
					"pattern", cfg.SuccessURLPattern, "url", current)
				return false
			}
		}
		logger.Info("success URL pattern matched", "url", current)
	}

	// The URL check is authoritative; a missing success element only gets
	// logged.
	if cfg.SuccessElementSelector != "" {
		_, err := page.WaitForSelector(cfg.SuccessElementSelector, playwright.PageWaitForSelectorOptions{
			State:   playwright.WaitForSelectorStateVisible,
			Timeout: playwright.Float(successElementTimeoutMs),
		})
		if err != nil {
			logger.Info("success element check skipped", "selector", cfg.SuccessElementSelector, "err", err)
		}
	}

	logger.Info("login successful")
	return true
}

func (s *SingleStepStrategy) logger() *log.Logger {
	if s.Log != nil {
		return s.Log
	}
	return log.Default()
}
