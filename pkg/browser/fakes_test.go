package browser

import (
	"os"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// The fakes embed the playwright interfaces and override only what the code
// under test touches; anything else panics, which is exactly what we want.

type fakePage struct {
	playwright.Page

	mu           sync.Mutex
	url          string
	urlAfterWait string
	gotoErr      error
	loadStateErr error
	content      string
	title        string

	gotoCalls   []string
	fills       map[string]string
	clicks      []string
	waitedMs    []float64
	selectorErr error
	closed      bool
}

func newFakePage() *fakePage {
	return &fakePage{fills: make(map[string]string)}
}

func (p *fakePage) Goto(url string, opts ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gotoCalls = append(p.gotoCalls, url)
	if p.gotoErr != nil {
		return nil, p.gotoErr
	}
	p.url = url
	return nil, nil
}

func (p *fakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *fakePage) Fill(selector, value string, opts ...playwright.PageFillOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fills[selector] = value
	return nil
}

func (p *fakePage) Click(selector string, opts ...playwright.PageClickOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clicks = append(p.clicks, selector)
	return nil
}

func (p *fakePage) WaitForLoadState(opts ...playwright.PageWaitForLoadStateOptions) error {
	return p.loadStateErr
}

func (p *fakePage) WaitForTimeout(timeout float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waitedMs = append(p.waitedMs, timeout)
	if p.urlAfterWait != "" {
		p.url = p.urlAfterWait
	}
}

func (p *fakePage) WaitForSelector(selector string, opts ...playwright.PageWaitForSelectorOptions) (playwright.ElementHandle, error) {
	if p.selectorErr != nil {
		return nil, p.selectorErr
	}
	return nil, nil
}

func (p *fakePage) Content() (string, error) { return p.content, nil }

func (p *fakePage) Title() (string, error) { return p.title, nil }

func (p *fakePage) SetDefaultTimeout(timeout float64) {}

func (p *fakePage) Close(opts ...playwright.PageCloseOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

type fakeContext struct {
	playwright.BrowserContext

	page   *fakePage
	closed bool
}

func (c *fakeContext) NewPage() (playwright.Page, error) {
	return c.page, nil
}

func (c *fakeContext) StorageState(paths ...string) (*playwright.StorageState, error) {
	if len(paths) > 0 {
		if err := os.WriteFile(paths[0], []byte(`{"cookies":[],"origins":[]}`), 0o644); err != nil {
			return nil, err
		}
	}
	return &playwright.StorageState{}, nil
}

func (c *fakeContext) Close(opts ...playwright.BrowserContextCloseOptions) error {
	c.closed = true
	return nil
}

type fakeBrowser struct {
	playwright.Browser

	context   *fakeContext
	closed    bool
	statePath string
}

func (b *fakeBrowser) NewContext(opts ...playwright.BrowserNewContextOptions) (playwright.BrowserContext, error) {
	if len(opts) > 0 && opts[0].StorageStatePath != nil {
		b.statePath = *opts[0].StorageStatePath
	}
	return b.context, nil
}

func (b *fakeBrowser) Close(opts ...playwright.BrowserCloseOptions) error {
	b.closed = true
	return nil
}

type fakeEngine struct {
	browser *fakeBrowser
	closed  bool
}

func (e *fakeEngine) Launch(headless bool) (playwright.Browser, error) {
	return e.browser, nil
}

func (e *fakeEngine) Close() error {
	e.closed = true
	return nil
}

// fakeEngines builds a fresh engine per session and remembers every one so
// tests can assert teardown.
type fakeEngines struct {
	mu      sync.Mutex
	engines []*fakeEngine
	pages   []*fakePage
}

func (f *fakeEngines) factory() (Engine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	page := newFakePage()
	engine := &fakeEngine{browser: &fakeBrowser{context: &fakeContext{page: page}}}
	f.engines = append(f.engines, engine)
	f.pages = append(f.pages, page)
	return engine, nil
}

func (f *fakeEngines) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.engines)
}

func (f *fakeEngines) allClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.engines {
		if !e.closed || !e.browser.closed {
			return false
		}
	}
	return true
}

func mapCredentials(values map[string]string) CredentialSource {
	return func(key string) string { return values[key] }
}
