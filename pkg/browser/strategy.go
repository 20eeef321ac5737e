package browser

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/playwright-community/playwright-go"
)

// CredentialRef points at a username/password pair in the credential source
// (environment variables). Configs only ever hold the reference, never the
// secret itself.
type CredentialRef struct {
	UsernameKey string
	PasswordKey string
}

// CredentialSource resolves a credential key to its value. The zero case is
// os.Getenv; tests substitute a map lookup.
type CredentialSource func(key string) string

// Credentials is a resolved username/password pair.
type Credentials struct {
	Username string
	Password string
}

// LoginConfig describes how to log in to one site. Immutable after
// registration.
type LoginConfig struct {
	// Site is the identifier the config is registered under.
	Site string

	// Domain is the site's host, used by the multi-step flow to build the
	// login entry point URL.
	Domain string

	// LoginURL is the fixed login form URL used by the single-step flow.
	LoginURL string

	UsernameSelector string
	PasswordSelector string
	SubmitSelector   string

	// ContinueButton advances from the identity step to the credential step
	// in the multi-step flow.
	ContinueButton string
	// LoginButton submits the credential step in the multi-step flow.
	LoginButton string

	// SuccessURLPattern is a substring the post-login URL must contain.
	SuccessURLPattern string
	// SuccessElementSelector, when set, is checked best-effort after the URL
	// match. Its absence is logged, never fatal.
	SuccessElementSelector string

	Credentials CredentialRef
}

// LoginStrategy runs one site family's login sequence on a page. It reports
// success only when the success predicate matched after all steps; every
// precondition failure or automation error yields false with the cause
// logged, never an error.
type LoginStrategy interface {
	AttemptLogin(page playwright.Page, cfg LoginConfig, creds Credentials) bool
}

type registration struct {
	cfg      LoginConfig
	strategy LoginStrategy
}

// Registry maps site identifiers to their login configuration and strategy
// variant. Membership is fixed at construction and safe for concurrent
// reads.
type Registry struct {
	sites map[string]registration
	log   *log.Logger
}

// NewRegistry builds the registry with the known site families registered:
// the NTM papers behind the shared identity provider (multi-step) and NWT
// with its single-form login (single-step).
func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	r := &Registry{
		sites: make(map[string]registration),
		log:   logger.With("component", "registry"),
	}

	multi := &MultiStepStrategy{Log: logger.With("strategy", "multistep")}
	single := &SingleStepStrategy{Log: logger.With("strategy", "singlestep")}

	// NTM sites share one login system; kuriren authenticates with the NSD
	// account.
	ntm := []struct {
		site    string
		envSite string
	}{
		{"nt", "NT"},
		{"nsd", "NSD"},
		{"kuriren", "NSD"},
		{"norran", "NORRAN"},
		{"corren", "CORREN"},
	}
	for _, s := range ntm {
		r.Register(LoginConfig{
			Site:              s.site,
			Domain:            "www." + s.site + ".se",
			UsernameSelector:  "#Input_Username",
			PasswordSelector:  "#passwordField",
			ContinueButton:    "button:has-text('Fortsätt')",
			LoginButton:       "button:has-text('Logga in')",
			SuccessURLPattern: s.site + ".se",
			Credentials: CredentialRef{
				UsernameKey: s.envSite + "_USERNAME",
				PasswordKey: s.envSite + "_PASSWORD",
			},
		}, multi)
	}

	r.Register(LoginConfig{
		Site:              "nwt",
		LoginURL:          "https://www.nwt.se/login/?returnUrl=%252F",
		UsernameSelector:  "#email",
		PasswordSelector:  "#password",
		SubmitSelector:    "button[type='submit']",
		SuccessURLPattern: "nwt.se",
		Credentials: CredentialRef{
			UsernameKey: "NWT_USERNAME",
			PasswordKey: "NWT_PASSWORD",
		},
	}, single)

	return r
}

// Register binds one site to its config and strategy variant. Called during
// construction; not intended for use after the registry is shared.
func (r *Registry) Register(cfg LoginConfig, strategy LoginStrategy) {
	r.sites[cfg.Site] = registration{cfg: cfg, strategy: strategy}
	r.log.Debug("registered login configuration", "site", cfg.Site)
}

// HasConfig reports whether automated login is configured for the site.
func (r *Registry) HasConfig(site string) bool {
	_, ok := r.sites[site]
	return ok
}

// ConfigFor returns the site's login configuration.
func (r *Registry) ConfigFor(site string) (LoginConfig, bool) {
	reg, ok := r.sites[site]
	return reg.cfg, ok
}

// StrategyFor returns the strategy variant registered for the site.
func (r *Registry) StrategyFor(site string) (LoginStrategy, bool) {
	reg, ok := r.sites[site]
	return reg.strategy, ok
}

// Sites returns the registered site identifiers.
func (r *Registry) Sites() []string {
	names := make([]string, 0, len(r.sites))
	for site := range r.sites {
		names = append(names, site)
	}
	return names
}

// resolveCredentials looks up both halves of a credential reference.
func resolveCredentials(cfg LoginConfig, source CredentialSource) (Credentials, error) {
	creds := Credentials{
		Username: source(cfg.Credentials.UsernameKey),
		Password: source(cfg.Credentials.PasswordKey),
	}
	if creds.Username == "" || creds.Password == "" {
		return Credentials{}, fmt.Errorf(
			"site %s (set %s and %s): %w",
			cfg.Site, cfg.Credentials.UsernameKey, cfg.Credentials.PasswordKey, ErrCredentialsMissing,
		)
	}
	return creds, nil
}
