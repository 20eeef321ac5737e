package browser

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStrategy records attempts and answers with a fixed result.
type countingStrategy struct {
	attempts atomic.Int32
	delay    time.Duration
	result   bool
}

func (s *countingStrategy) AttemptLogin(page playwright.Page, cfg LoginConfig, creds Credentials) bool {
	s.attempts.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.result
}

func testRegistry(strategy LoginStrategy) *Registry {
	r := NewRegistry(nil)
	r.Register(LoginConfig{
		Site:              "testsite",
		Domain:            "www.testsite.se",
		SuccessURLPattern: "testsite.se",
		Credentials: CredentialRef{
			UsernameKey: "TESTSITE_USERNAME",
			PasswordKey: "TESTSITE_PASSWORD",
		},
	}, strategy)
	return r
}

var testCreds = mapCredentials(map[string]string{
	"TESTSITE_USERNAME": "reader@example.com",
	"TESTSITE_PASSWORD": "hunter2",
})

func TestBrowseUnknownSiteUnauthenticated(t *testing.T) {
	store := newTestStore(t)
	engines := &fakeEngines{}
	m := NewManager(store, NewRegistry(nil), Options{
		NewEngine:   engines.factory,
		Credentials: mapCredentials(nil),
	}, nil)

	sess, err := m.Browse("https://example.com/story", false)
	require.NoError(t, err)
	defer sess.Close()

	assert.False(t, sess.Authenticated)
	assert.Equal(t, "example", sess.Site)
	assert.Equal(t, "https://example.com/story", sess.CurrentURL)
	require.Equal(t, 1, engines.count())
	assert.Equal(t, []string{"https://example.com/story"}, engines.pages[0].gotoCalls)
	assert.False(t, store.Exists("example"), "unauthenticated browsing must not write state")
}

func TestBrowseFirstLoginPersistsStateAndReusesSession(t *testing.T) {
	store := newTestStore(t)
	engines := &fakeEngines{}
	strategy := &countingStrategy{result: true}
	m := NewManager(store, testRegistry(strategy), Options{
		NewEngine:   engines.factory,
		Credentials: testCreds,
	}, nil)

	sess, err := m.Browse("https://www.testsite.se/artikel/1", false)
	require.NoError(t, err)
	defer sess.Close()

	assert.True(t, sess.Authenticated)
	assert.EqualValues(t, 1, strategy.attempts.Load())
	assert.True(t, store.Exists("testsite"), "successful login must persist auth state")

	// The login session itself was claimed and navigated; no second session.
	require.Equal(t, 1, engines.count())
	assert.Equal(t, "https://www.testsite.se/artikel/1", sess.CurrentURL)
}

func TestBrowseNTLoginEndToEnd(t *testing.T) {
	store := newTestStore(t)
	engines := &fakeEngines{}
	m := NewManager(store, NewRegistry(nil), Options{
		NewEngine: engines.factory,
		Credentials: mapCredentials(map[string]string{
			"NT_USERNAME": "reader@example.com",
			"NT_PASSWORD": "hunter2",
		}),
	}, nil)

	sess, err := m.Browse("https://www.nt.se/article/1", false)
	require.NoError(t, err)
	defer sess.Close()

	assert.True(t, sess.Authenticated)
	assert.True(t, store.Exists("nt"))

	// The registered multi-step flow drove the page.
	page := engines.pages[0]
	assert.Equal(t, "reader@example.com", page.fills["#Input_Username"])
	assert.Equal(t, "hunter2", page.fills["#passwordField"])
	assert.Contains(t, page.gotoCalls, "https://www.nt.se/logga-in")
	assert.Equal(t, "https://www.nt.se/article/1", sess.CurrentURL)
}

func TestBrowseLoginFailureClosesEverything(t *testing.T) {
	store := newTestStore(t)
	engines := &fakeEngines{}
	strategy := &countingStrategy{result: false}
	m := NewManager(store, testRegistry(strategy), Options{
		NewEngine:   engines.factory,
		Credentials: testCreds,
	}, nil)

	sess, err := m.Browse("https://www.testsite.se/artikel/1", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthenticationFailed))
	assert.Nil(t, sess)

	require.Equal(t, 1, engines.count())
	assert.True(t, engines.allClosed(), "failed login must release every handle")
	assert.True(t, engines.pages[0].closed)
	assert.False(t, store.Exists("testsite"))
}

func TestBrowseMissingCredentials(t *testing.T) {
	store := newTestStore(t)
	engines := &fakeEngines{}
	strategy := &countingStrategy{result: true}
	m := NewManager(store, testRegistry(strategy), Options{
		NewEngine:   engines.factory,
		Credentials: mapCredentials(nil),
	}, nil)

	_, err := m.Browse("https://www.testsite.se/artikel/1", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCredentialsMissing))

	// Resolution happens before any browser starts.
	assert.Equal(t, 0, engines.count())
	assert.EqualValues(t, 0, strategy.attempts.Load())
}

func TestBrowseReusesStoredState(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Save(&stubExporter{content: `{"cookies":[]}`}, "testsite")
	require.NoError(t, err)

	engines := &fakeEngines{}
	strategy := &countingStrategy{result: true}
	m := NewManager(store, testRegistry(strategy), Options{
		NewEngine:   engines.factory,
		Credentials: testCreds,
	}, nil)

	sess, err := m.Browse("https://www.testsite.se/artikel/2", false)
	require.NoError(t, err)
	defer sess.Close()

	assert.True(t, sess.Authenticated)
	assert.EqualValues(t, 0, strategy.attempts.Load(), "stored state must skip login")
	require.Equal(t, 1, engines.count())
	assert.Equal(t, store.PathFor("testsite"), engines.engines[0].browser.statePath,
		"context must be seeded with the stored state file")
}

func TestBrowseForceLoginIgnoresStoredState(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Save(&stubExporter{content: `{"cookies":[]}`}, "testsite")
	require.NoError(t, err)

	engines := &fakeEngines{}
	strategy := &countingStrategy{result: true}
	m := NewManager(store, testRegistry(strategy), Options{
		NewEngine:   engines.factory,
		Credentials: testCreds,
	}, nil)

	sess, err := m.Browse("https://www.testsite.se/artikel/3", true)
	require.NoError(t, err)
	defer sess.Close()

	assert.EqualValues(t, 1, strategy.attempts.Load(), "forceLogin must re-run the strategy")
	assert.True(t, sess.Authenticated)
}

func TestBrowseNavigationFailure(t *testing.T) {
	store := newTestStore(t)
	engines := &fakeEngines{}
	m := NewManager(store, NewRegistry(nil), Options{
		NewEngine:   engines.factory,
		Credentials: mapCredentials(nil),
	}, nil)

	// Prime the single fake engine with a failing page by browsing after
	// setting the error on the page the factory will hand out next. The
	// factory builds lazily, so inject through a wrapper instead.
	gotoErr := errors.New("net::ERR_CONNECTION_REFUSED")
	m.newEngine = func() (Engine, error) {
		engine, err := engines.factory()
		if err != nil {
			return nil, err
		}
		engines.pages[len(engines.pages)-1].gotoErr = gotoErr
		return engine, nil
	}

	_, err := m.Browse("https://example.com/down", false)
	require.Error(t, err)

	var navErr *NavigationError
	require.True(t, errors.As(err, &navErr))
	assert.Equal(t, "https://example.com/down", navErr.URL)
	assert.True(t, errors.Is(err, gotoErr))
	assert.True(t, engines.allClosed(), "failed navigation must release every handle")
}

func TestBrowseConcurrentLoginRunsOnce(t *testing.T) {
	store := newTestStore(t)
	engines := &fakeEngines{}
	strategy := &countingStrategy{result: true, delay: 50 * time.Millisecond}
	m := NewManager(store, testRegistry(strategy), Options{
		NewEngine:   engines.factory,
		Credentials: testCreds,
	}, nil)

	const callers = 4
	var wg sync.WaitGroup
	sessions := make([]*Session, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i], errs[i] = m.Browse("https://www.testsite.se/artikel/1", false)
		}(i)
	}
	wg.Wait()

	authenticated := 0
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, sessions[i])
		if sessions[i].Authenticated {
			authenticated++
		}
		sessions[i].Close()
	}

	assert.EqualValues(t, 1, strategy.attempts.Load(), "concurrent first requests must collapse into one login")
	assert.Equal(t, callers, authenticated, "every caller ends up with an authenticated session")
	assert.True(t, store.Exists("testsite"))
}
