package browser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/playwright-community/playwright-go"
)

const stateFileSuffix = "_auth_state.json"

// StateExporter is the slice of playwright.BrowserContext the store needs to
// persist a session's authentication snapshot.
type StateExporter interface {
	StorageState(paths ...string) (*playwright.StorageState, error)
}

// StateInfo describes one stored authentication snapshot.
type StateInfo struct {
	Site      string    `json:"site"`
	Path      string    `json:"path"`
	Modified  time.Time `json:"modified"`
	SizeBytes int64     `json:"size_bytes"`
}

// StateStore persists per-site authentication states as JSON files under a
// base directory. The file body is whatever the browser context exports;
// the store never parses it.
type StateStore struct {
	baseDir string
	log     *log.Logger
}

// NewStateStore creates a store rooted at baseDir, creating the directory if
// needed. An empty baseDir defaults to "./browser_data".
func NewStateStore(baseDir string, logger *log.Logger) (*StateStore, error) {
	if baseDir == "" {
		baseDir = "./browser_data"
	}
	if logger == nil {
		logger = log.Default()
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory %s: %w", baseDir, err)
	}
	return &StateStore{baseDir: baseDir, log: logger.With("component", "statestore")}, nil
}

// PathFor returns the deterministic file path for a site's auth state.
// Pure; performs no I/O.
func (s *StateStore) PathFor(site string) string {
	return filepath.Join(s.baseDir, site+stateFileSuffix)
}

// Exists reports whether an auth state is stored for the site.
func (s *StateStore) Exists(site string) bool {
	_, err := os.Stat(s.PathFor(site))
	return err == nil
}

// Save exports the context's current authentication snapshot to the site's
// state path, overwriting any previous snapshot.
func (s *StateStore) Save(exporter StateExporter, site string) (string, error) {
	path := s.PathFor(site)
	if _, err := exporter.StorageState(path); err != nil {
		return "", fmt.Errorf("save auth state for %s: %w", site, err)
	}
	s.log.Info("saved auth state", "site", site, "path", path)
	return path, nil
}

// Load returns the path of the site's stored auth state. The caller passes
// the path to context creation; the JSON body is validated by the browser
// engine, not here.
func (s *StateStore) Load(site string) (string, error) {
	path := s.PathFor(site)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("site %s: %w", site, ErrStateNotFound)
	}
	return path, nil
}

// Delete removes the site's auth state. Returns true only if a file existed
// and was removed.
func (s *StateStore) Delete(site string) bool {
	path := s.PathFor(site)
	if _, err := os.Stat(path); err != nil {
		return false
	}
	if err := os.Remove(path); err != nil {
		s.log.Error("failed to delete auth state", "site", site, "err", err)
		return false
	}
	s.log.Info("deleted auth state", "site", site)
	return true
}

// Backup copies the current snapshot to a timestamp-suffixed file next to
// it. The original is left untouched and backups are never read back
// automatically.
func (s *StateStore) Backup(site string) (string, error) {
	src := s.PathFor(site)
	if _, err := os.Stat(src); err != nil {
		return "", fmt.Errorf("site %s: %w", site, ErrStateNotFound)
	}

	stamp := time.Now().Format("20060102_150405")
	dst := filepath.Join(s.baseDir, fmt.Sprintf("%s_auth_state_backup_%s.json", site, stamp))

	if err := copyFile(src, dst); err != nil {
		return "", fmt.Errorf("backup auth state for %s: %w", site, err)
	}
	s.log.Info("backed up auth state", "site", site, "path", dst)
	return dst, nil
}

// List enumerates all current (non-backup) snapshots.
func (s *StateStore) List() ([]StateInfo, error) {
	matches, err := filepath.Glob(filepath.Join(s.baseDir, "*"+stateFileSuffix))
	if err != nil {
		return nil, fmt.Errorf("list auth states: %w", err)
	}

	infos := make([]StateInfo, 0, len(matches))
	for _, path := range matches {
		fi, err := os.Stat(path)
		if err != nil {
			continue
		}
		site := strings.TrimSuffix(filepath.Base(path), stateFileSuffix)
		infos = append(infos, StateInfo{
			Site:      site,
			Path:      path,
			Modified:  fi.ModTime(),
			SizeBytes: fi.Size(),
		})
	}
	return infos, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
