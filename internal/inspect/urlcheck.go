package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// Validity classifies a link target.
type Validity string

const (
	Broken   Validity = "broken"
	Valid    Validity = "valid"
	Local    Validity = "local"    // file:// target, works only on the author's machine
	Relative Validity = "relative" // resolves to a file inside the repo
	External Validity = "external" // reachable http(s) target
	Unknown  Validity = "unknown"  // probe inconclusive, not counted against the student
	Skipped  Validity = ""         // empty or same-page anchor
)

// URLCache remembers probe results across runs. Entries never expire; a stale
// verdict is only replaced by an explicit force refresh, so grading stays
// reproducible and offline-friendly between refreshes.
type URLCache struct {
	mu      sync.Mutex
	path    string
	targets map[string]Validity
	client  *http.Client
}

func NewURLCache(path string) *URLCache {
	return &URLCache{
		path:    path,
		targets: map[string]Validity{},
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Load reads the persisted cache. A missing file is a fresh cache, not an
// error.
func (c *URLCache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, &c.targets)
}

func (c *URLCache) Save() error {
	c.mu.Lock()
	data, err := json.MarshalIndent(c.targets, "", "  ")
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o644)
}

// Validate classifies one target. repo may be nil; when given, targets that
// resolve to files inside it are relative links and never probed.
func (c *URLCache) Validate(ctx context.Context, target string, repo *Repo, force bool) Validity {
	target = strings.TrimSpace(target)
	if target == "" || strings.HasPrefix(target, "#") {
		return Skipped
	}
	if target == "/" {
		return Relative
	}
	if strings.Contains(target, "file://") {
		return Local
	}
	if repo != nil && repo.FileExists(target) {
		return Relative
	}

	c.mu.Lock()
	v, cached := c.targets[target]
	c.mu.Unlock()
	if cached && !force {
		return v
	}

	v = c.probe(ctx, target)
	c.mu.Lock()
	c.targets[target] = v
	c.mu.Unlock()
	return v
}

func (c *URLCache) probe(ctx context.Context, target string) Validity {
	url := target
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Broken
	}
	resp, err := c.client.Do(req)
	if err != nil {
		// Could be the prober's network, not the student's link.
		return Unknown
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return Broken
	}
	if resp.StatusCode >= 400 {
		return Unknown
	}
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return External
	}
	return Valid
}

// Reachable reports whether a target resolves at all, for existence checks on
// repos and live sites.
func (c *URLCache) Reachable(ctx context.Context, target string, force bool) bool {
	switch c.Validate(ctx, target, nil, force) {
	case Valid, External:
		return true
	}
	return false
}

func (c *URLCache) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("url cache %s (%d targets)", c.path, len(c.targets))
}
