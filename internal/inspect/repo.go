package inspect

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Repo is one student repository checked out under the work directory.
type Repo struct {
	Dir   string
	Links GitHubLinks

	// files maps extension (".html") to repo-relative paths. The "" key holds
	// every file.
	files map[string][]string
}

// NewRepo keys the checkout directory by submission id so re-grades reuse the
// same clone.
func NewRepo(workDir, submissionID string, links GitHubLinks) *Repo {
	return &Repo{
		Dir:   filepath.Join(workDir, submissionID),
		Links: links,
	}
}

// pullWindow bounds how often an existing checkout is re-pulled. Repeated
// grading runs inside the window reuse the clone as-is.
const pullWindow = 30 * time.Minute

// Sync brings the checkout up to date: clone on first contact, pull after. A
// failed pull keeps the previous checkout usable, so it only logs through the
// returned error when nothing is on disk at all.
func (r *Repo) Sync(ctx context.Context) error {
	if fi, err := os.Stat(filepath.Join(r.Dir, ".git")); err == nil {
		if time.Since(r.lastSync(fi)) < pullWindow {
			return r.Scan()
		}
		if out, err := gitRun(ctx, r.Dir, "pull", "--ff-only"); err != nil {
			if _, statErr := os.Stat(r.Dir); statErr == nil {
				return r.Scan()
			}
			return fmt.Errorf("git pull %s: %v: %s", r.Links.RepoLink, err, out)
		}
		return r.Scan()
	}
	if err := os.MkdirAll(filepath.Dir(r.Dir), 0o755); err != nil {
		return err
	}
	if out, err := gitRun(ctx, "", "clone", "--depth", "1", r.Links.RepoLink+".git", r.Dir); err != nil {
		return fmt.Errorf("git clone %s: %v: %s", r.Links.RepoLink, err, out)
	}
	return r.Scan()
}

// lastSync reports when the checkout last talked to the remote, falling back
// to the .git directory mtime for a fresh clone.
func (r *Repo) lastSync(gitDir os.FileInfo) time.Time {
	if fi, err := os.Stat(filepath.Join(r.Dir, ".git", "FETCH_HEAD")); err == nil {
		return fi.ModTime()
	}
	return gitDir.ModTime()
}

func gitRun(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// Scan walks the checkout and rebuilds the per-extension file census,
// skipping dotfiles and tool directories.
func (r *Repo) Scan() error {
	r.files = map[string][]string{}
	return filepath.WalkDir(r.Dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if name == ".git" || name == ".vscode" {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		rel, err := filepath.Rel(r.Dir, path)
		if err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(name))
		r.files[""] = append(r.files[""], rel)
		if ext != "" {
			r.files[ext] = append(r.files[ext], rel)
		}
		return nil
	})
}

// Files returns repo-relative paths with the given extension (".html"), or
// every file for "".
func (r *Repo) Files(ext string) []string {
	return r.files[strings.ToLower(ext)]
}

// Abs resolves a repo-relative path.
func (r *Repo) Abs(rel string) string { return filepath.Join(r.Dir, rel) }

// CountFiletype counts files by extension.
func (r *Repo) CountFiletype(ext string) int { return len(r.Files(ext)) }

// FileExists checks for a file by exact relative path, by path suffix, or by
// substring when the name is wrapped in "*".
func (r *Repo) FileExists(name string) bool {
	if strings.Contains(name, "*") {
		needle := strings.Trim(name, "*")
		for _, f := range r.files[""] {
			if strings.Contains(f, needle) {
				return true
			}
		}
		return false
	}
	for _, f := range r.files[""] {
		if f == name || strings.HasSuffix(f, name) {
			return true
		}
	}
	return false
}
