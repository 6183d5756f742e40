package grader

import (
	"context"

	"github.com/classworks/gradekeeper/internal/inspect"
	"github.com/classworks/gradekeeper/internal/rubric"
)

// markdownRepo grades a repository whose substance is its markdown: a README
// site with an accompanying live page.
type markdownRepo struct{}

func (markdownRepo) Name() string { return "markdown_repo" }

func (markdownRepo) Grade(ctx context.Context, c *rubric.Cursor, t *Target) error {
	md, err := t.markdownFacts(ctx)
	if err != nil {
		return err
	}
	// A profile repo means the student pasted the wrong link. Everything
	// scores zero rather than grading the wrong work.
	wrongRepo := t.Links.IsProfileRepo()
	have := md != nil && !wrongRepo
	if wrongRepo {
		md = &inspect.MarkdownFacts{}
		have = true
	}

	repoChecks := []check{
		{"repo: link to repo submitted", "PRODUCT", 1, func() int {
			return boolInt(!wrongRepo && inspect.SubmittedLink(t.URLs, t.Links.RepoLink))
		}},
		{"repo: repo is accessible", "PRODUCT", 1, func() int {
			return boolInt(!wrongRepo && t.cache.Reachable(ctx, t.Links.RepoLink, false))
		}},
		{"repo: link to live site submitted", "PRODUCT", 1, func() int {
			return boolInt(!wrongRepo && inspect.SubmittedLink(t.URLs, t.Links.LiveLink))
		}},
		{"repo: live site is accessible", "PRODUCT", 1, func() int {
			return boolInt(!wrongRepo && t.cache.Reachable(ctx, t.Links.LiveLink, false))
		}},
	}
	if err := applyChecks(c, repoChecks, have); err != nil {
		return err
	}

	mdChecks := []check{
		{"markdown: includes an image from the repository", "EXPERTISE", 1, func() int {
			repo := t.repoCheckout(ctx)
			if repo == nil {
				return 0
			}
			for _, img := range md.Images {
				if repo.FileExists(img) {
					return 1
				}
			}
			return 0
		}},
		{"markdown: includes 7 types of formatting", "EXPERTISE", 5, func() int {
			return len(md.ElementsUsed()) - 2
		}},
	}
	if err := applyChecks(c, mdChecks, have); err != nil {
		return err
	}

	return seedManual(c, "PRODUCT", []string{
		"repo: demonstrates sophistication or creativity",
		"repo: includes all content required by the instructions",
	}, 1)
}

// profileRepo grades the github.com/username/username profile README.
type profileRepo struct{}

func (profileRepo) Name() string { return "github_account_profile" }

func (profileRepo) Grade(ctx context.Context, c *rubric.Cursor, t *Target) error {
	md, err := t.markdownFacts(ctx)
	if err != nil {
		return err
	}
	exists := t.repoCheckout(ctx) != nil
	if md == nil {
		md = &inspect.MarkdownFacts{}
	}

	repoChecks := []check{
		{"repo: exists and is public", "PRODUCT", 2, func() int { return boolInt(exists) * 2 }},
		{"repo: is named correctly", "PRODUCT", 1, func() int { return boolInt(t.Links.IsProfileRepo()) }},
		{"repo: submitted link leads to profile page", "PRODUCT", 1, func() int {
			return boolInt(inspect.SubmittedLink(t.URLs, t.Links.ProfileLink))
		}},
		{"repo: link submitted", "PRODUCT", 3, func() int { return boolInt(len(t.URLs) > 0) * 3 }},
	}
	if err := applyChecks(c, repoChecks, true); err != nil {
		return err
	}

	mdChecks := []check{
		{"markdown: includes a link", "EXPERTISE", 1, func() int { return boolInt(len(md.Links) > 0) }},
		{"markdown: includes an image", "EXPERTISE", 1, func() int { return boolInt(len(md.Images) > 0) }},
		{"markdown: includes 4 other types of formatting", "EXPERTISE", 4, func() int {
			n := 0
			for _, e := range md.ElementsUsed() {
				if e != "images" && e != "links" {
					n++
				}
			}
			return n
		}},
	}
	if err := applyChecks(c, mdChecks, true); err != nil {
		return err
	}

	return seedManual(c, "EXPERTISE", []string{
		"markdown: demonstrates sophistication or creativity",
		"markdown: displays original content",
	}, 1)
}
