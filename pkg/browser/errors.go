package browser

import (
	"errors"
	"fmt"
)

// Sentinel errors for the authentication pipeline. Callers match them with
// errors.Is; the wrapped message carries the site name.
var (
	// ErrCredentialsMissing means a site has a registered login strategy but
	// no username/password configured in the environment. Only an operator
	// can fix this.
	ErrCredentialsMissing = errors.New("login credentials missing")

	// ErrAuthenticationFailed means a login strategy ran to completion but
	// the success predicate never matched.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrStateNotFound means no stored authentication state exists for a site.
	ErrStateNotFound = errors.New("auth state not found")
)

// NavigationError wraps a failure to reach the target URL, either a timeout
// or a browser engine error. The session is already torn down by the time
// this surfaces.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}
