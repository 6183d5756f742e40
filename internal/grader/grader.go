package grader

import (
	"context"
	"fmt"

	"github.com/classworks/gradekeeper/internal/inspect"
	"github.com/classworks/gradekeeper/internal/judge"
	"github.com/classworks/gradekeeper/internal/rubric"
	"github.com/classworks/gradekeeper/internal/store"
)

// Target is everything a strategy may ask about the submission being graded.
// Repo checkout, site facts and markdown facts are built lazily so a judge-
// only problem set never touches git.
type Target struct {
	Student    store.Student
	Submission store.Submission
	Problem    store.Problem
	URLs       []string
	Links      inspect.GitHubLinks

	cache   *inspect.URLCache
	workDir string
	force   bool
	judge   judgeSource

	repo     *inspect.Repo
	repoErr  error
	repoDone bool
	site     *inspect.Site
	md       *inspect.MarkdownFacts
}

type judgeSource interface {
	Result(ctx context.Context, t *Target, slug string) (judge.Result, bool)
}

// repoCheckout clones or pulls once per grading pass. A repo that cannot be
// reached is not an error: facts stay nil and criteria stay at zero.
func (t *Target) repoCheckout(ctx context.Context) *inspect.Repo {
	if t.repoDone {
		return t.repo
	}
	t.repoDone = true
	if t.Links.RepoLink == "" || !t.cache.Reachable(ctx, t.Links.RepoLink, t.force) {
		return nil
	}
	r := inspect.NewRepo(t.workDir, t.Submission.ID, t.Links)
	if err := r.Sync(ctx); err != nil {
		t.repoErr = err
		return nil
	}
	t.repo = r
	return r
}

func (t *Target) siteFacts(ctx context.Context) (*inspect.Site, error) {
	if t.site != nil {
		return t.site, nil
	}
	r := t.repoCheckout(ctx)
	if r == nil {
		return nil, nil
	}
	site, err := inspect.BuildSite(ctx, r, t.cache, t.force)
	if err != nil {
		return nil, fmt.Errorf("inspect site %s: %w", t.Links.RepoLink, err)
	}
	t.site = site
	return site, nil
}

func (t *Target) markdownFacts(ctx context.Context) (*inspect.MarkdownFacts, error) {
	if t.md != nil {
		return t.md, nil
	}
	r := t.repoCheckout(ctx)
	if r == nil {
		return nil, nil
	}
	md, err := inspect.InspectMarkdown(r, nil)
	if err != nil {
		return nil, fmt.Errorf("inspect markdown %s: %w", t.Links.RepoLink, err)
	}
	t.md = md
	return md, nil
}

// Strategy scores one problem's criteria through the cursor. Strategies must
// be idempotent: re-grading refreshes automated scores and leaves manual
// entries alone (the cursor enforces the latter).
type Strategy interface {
	Name() string
	Grade(ctx context.Context, c *rubric.Cursor, t *Target) error
}

// Registry resolves strategy names at problem-load time. Unknown or empty
// names grade nothing, leaving the problem to manual scoring.
type Registry struct {
	strategies map[string]Strategy
}

func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{strategies: map[string]Strategy{}}
	for _, s := range strategies {
		r.strategies[s.Name()] = s
	}
	return r
}

// DefaultRegistry installs the built-in strategies.
func DefaultRegistry() *Registry {
	return NewRegistry(
		multipageWebsite{},
		websiteProject{},
		markdownRepo{},
		profileRepo{},
		judgeImport{},
		manual{},
	)
}

func (r *Registry) Resolve(name string) Strategy {
	if s, ok := r.strategies[name]; ok {
		return s
	}
	return noop{name: name}
}

type noop struct{ name string }

func (n noop) Name() string { return n.name }
func (noop) Grade(context.Context, *rubric.Cursor, *Target) error {
	return nil
}

// manual is the explicit "a human grades this" strategy: same behavior as an
// unknown name, but intentional.
type manual struct{}

func (manual) Name() string { return "manual" }
func (manual) Grade(context.Context, *rubric.Cursor, *Target) error {
	return nil
}

// check is one automated criterion: title, category, max points, and how to
// earn them once facts are available.
type check struct {
	title  string
	cat    string
	max    int
	earned func() int
}

// applyChecks creates every criterion so the rubric shape is stable, and
// scores them only when facts were gathered. Without facts the criteria stay
// ungraded and aggregate to zero.
func applyChecks(c *rubric.Cursor, checks []check, haveFacts bool) error {
	for _, ck := range checks {
		cur := c.Criterion(ck.title, ck.max, 0).Category(ck.cat)
		if haveFacts {
			cur.Score(clamp(ck.earned(), 0, ck.max), ck.max)
		}
		if err := c.Err(); err != nil {
			return err
		}
	}
	return nil
}

// seedManual creates ungraded criteria for the rows only a teacher can judge.
func seedManual(c *rubric.Cursor, cat string, titles []string, max int) error {
	for _, title := range titles {
		c.Criterion(title, max, 0).Category(cat)
	}
	return c.Err()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
