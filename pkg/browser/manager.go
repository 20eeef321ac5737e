package browser

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/playwright-community/playwright-go"
	"golang.org/x/sync/singleflight"
)

// Options tunes session behaviour.
type Options struct {
	// Headless controls whether browsing sessions show a window. Login
	// sessions are always headless.
	Headless bool

	// NavigationTimeoutMs bounds every page navigation, in milliseconds.
	// Zero means 30s.
	NavigationTimeoutMs float64

	// NewEngine overrides how the automation engine is created. Nil means
	// the Playwright engine.
	NewEngine EngineFactory

	// Credentials overrides credential resolution. Nil means environment
	// variables.
	Credentials CredentialSource
}

const defaultNavigationTimeoutMs = 30000

// Manager orchestrates authenticated browsing: it derives the site identity
// from a URL, reuses stored auth state when present, runs the registered
// login strategy when not, and opens a ready session either way.
type Manager struct {
	store      *StateStore
	registry   *Registry
	creds      CredentialSource
	headless   bool
	navTimeout float64
	newEngine  EngineFactory
	log        *log.Logger

	// loginGroup collapses concurrent first-requests for the same site into
	// one login attempt, so state-file writes never race.
	loginGroup singleflight.Group
}

// NewManager wires a session manager from its collaborators.
func NewManager(store *StateStore, registry *Registry, opts Options, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	if opts.NavigationTimeoutMs <= 0 {
		opts.NavigationTimeoutMs = defaultNavigationTimeoutMs
	}
	if opts.NewEngine == nil {
		opts.NewEngine = NewEngine
	}
	if opts.Credentials == nil {
		opts.Credentials = os.Getenv
	}
	return &Manager{
		store:      store,
		registry:   registry,
		creds:      opts.Credentials,
		headless:   opts.Headless,
		navTimeout: opts.NavigationTimeoutMs,
		newEngine:  opts.NewEngine,
		log:        logger.With("component", "browser"),
	}
}

// Browse opens a session on url, authenticating first when the site has a
// registered login strategy and no usable stored state. The returned session
// has already navigated to url; the caller owns it and must Close it.
//
// A site without login configuration browses unauthenticated; that is the
// expected path for public sites. A configured site whose login fails is a
// hard error, because the caller relies on authenticated content.
func (m *Manager) Browse(rawURL string, forceLogin bool) (*Session, error) {
	site := SiteName(rawURL)
	m.log.Info("browsing", "url", rawURL, "site", site, "force_login", forceLogin)

	if forceLogin || !m.store.Exists(site) {
		if !m.registry.HasConfig(site) {
			m.log.Info("no login configuration, browsing unauthenticated", "site", site)
			return m.open(rawURL, site, "")
		}

		sess, err := m.loginOnce(site)
		if err != nil {
			return nil, err
		}
		if sess != nil {
			// We claimed the freshly authenticated session; point it at the
			// target instead of reopening.
			if err := m.navigate(sess, rawURL); err != nil {
				return nil, err
			}
			return sess, nil
		}
		// Another caller claimed the login session; ours opens from the
		// state it saved.
	}

	statePath, err := m.store.Load(site)
	if err != nil {
		// The file vanished between the existence check and the load; fall
		// back rather than fail.
		m.log.Warn("auth state disappeared, browsing unauthenticated", "site", site)
		return m.open(rawURL, site, "")
	}
	return m.open(rawURL, site, statePath)
}

// loginOutcome carries one successful login session through singleflight.
// Exactly one of the collapsed callers claims the session; the rest reopen
// from the saved state.
type loginOutcome struct {
	sess    *Session
	claimed atomic.Bool
}

// loginOnce runs the site's login strategy, collapsing concurrent attempts
// for the same site. On success it returns the live authenticated session to
// exactly one caller and nil to the others.
func (m *Manager) loginOnce(site string) (*Session, error) {
	v, err, _ := m.loginGroup.Do(site, func() (interface{}, error) {
		sess, err := m.performLogin(site)
		if err != nil {
			return nil, err
		}
		return &loginOutcome{sess: sess}, nil
	})
	if err != nil {
		return nil, err
	}

	outcome := v.(*loginOutcome)
	if outcome.claimed.CompareAndSwap(false, true) {
		return outcome.sess, nil
	}
	return nil, nil
}

// performLogin opens a throwaway headless session, runs the registered
// strategy, and persists the resulting auth state. On success the session is
// returned still open, sitting on the post-login page.
func (m *Manager) performLogin(site string) (*Session, error) {
	cfg, ok := m.registry.ConfigFor(site)
	if !ok {
		return nil, fmt.Errorf("site %s: no login configuration", site)
	}
	strategy, _ := m.registry.StrategyFor(site)

	creds, err := resolveCredentials(cfg, m.creds)
	if err != nil {
		// No session was opened; nothing to tear down.
		m.log.Warn("cannot attempt login", "site", site, "err", err)
		return nil, err
	}

	m.log.Info("attempting automated login", "site", site)
	sess, err := m.openBlank(site)
	if err != nil {
		return nil, err
	}

	if !strategy.AttemptLogin(sess.Page, cfg, creds) {
		sess.Close()
		return nil, fmt.Errorf("site %s: %w", site, ErrAuthenticationFailed)
	}

	if _, err := m.store.Save(sess.Context, site); err != nil {
		// Keep the authenticated session usable; only persistence degraded.
		m.log.Error("failed to persist auth state, continuing unsaved", "site", site, "err", err)
	}
	sess.Authenticated = true
	return sess, nil
}

// open creates a full session and navigates it to url. statePath seeds the
// context with stored auth state; empty opens a clean context.
func (m *Manager) open(rawURL, site, statePath string) (*Session, error) {
	sess, err := m.newSession(site, statePath, m.headless)
	if err != nil {
		return nil, err
	}
	if err := m.navigate(sess, rawURL); err != nil {
		return nil, err
	}
	return sess, nil
}

// openBlank creates a session without navigating anywhere, for login flows
// that manage their own navigation. Always headless.
func (m *Manager) openBlank(site string) (*Session, error) {
	return m.newSession(site, "", true)
}

func (m *Manager) newSession(site, statePath string, headless bool) (*Session, error) {
	engine, err := m.newEngine()
	if err != nil {
		return nil, fmt.Errorf("start browser engine: %w", err)
	}

	browser, err := engine.Launch(headless)
	if err != nil {
		if cerr := engine.Close(); cerr != nil {
			m.log.Debug("engine close failed", "err", cerr)
		}
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	ctxOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: 1280, Height: 800},
	}
	if statePath != "" {
		ctxOpts.StorageStatePath = playwright.String(statePath)
	}

	sess := &Session{
		Site:          site,
		Authenticated: statePath != "",
		Engine:        engine,
		Browser:       browser,
		log:           m.log,
	}

	context, err := browser.NewContext(ctxOpts)
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("create browser context: %w", err)
	}
	sess.Context = context

	page, err := context.NewPage()
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}
	page.SetDefaultTimeout(m.navTimeout)
	sess.Page = page

	return sess, nil
}

// navigate drives the session to url. On failure the session is torn down
// before the error surfaces.
func (m *Manager) navigate(sess *Session, rawURL string) error {
	_, err := sess.Page.Goto(rawURL, playwright.PageGotoOptions{
		Timeout: playwright.Float(m.navTimeout),
	})
	if err != nil {
		sess.Close()
		return &NavigationError{URL: rawURL, Err: err}
	}
	sess.CurrentURL = sess.Page.URL()
	m.log.Info("page loaded", "url", sess.CurrentURL, "site", sess.Site, "authenticated", sess.Authenticated)
	return nil
}
