package grader

import (
	"context"

	"github.com/classworks/gradekeeper/internal/inspect"
	"github.com/classworks/gradekeeper/internal/rubric"
)

// multipageWebsite scores the structure/HTML/CSS checklist for the multi-page
// site unit.
type multipageWebsite struct{}

func (multipageWebsite) Name() string { return "multipage_website" }

func (multipageWebsite) Grade(ctx context.Context, c *rubric.Cursor, t *Target) error {
	site, err := t.siteFacts(ctx)
	if err != nil {
		return err
	}
	if err := applyChecks(c, structureChecks(t, site), site != nil); err != nil {
		return err
	}
	if site == nil || site.Stats.HTMLCount == 0 {
		return nil
	}
	if err := applyChecks(c, htmlChecks(site, false), true); err != nil {
		return err
	}
	return applyChecks(c, cssChecks(site, false), true)
}

// websiteProject is the final-project variant: the same automated checklist
// plus Bootstrap checks, submission credit, and teacher-judged design rows.
type websiteProject struct{}

func (websiteProject) Name() string { return "website_project" }

func (websiteProject) Grade(ctx context.Context, c *rubric.Cursor, t *Target) error {
	site, err := t.siteFacts(ctx)
	if err != nil {
		return err
	}
	if err := applyChecks(c, structureChecks(t, site), site != nil); err != nil {
		return err
	}

	submitted := boolInt(len(t.URLs) > 0) * 4
	if err := applyChecks(c, []check{
		{"the website: submitted", "PRODUCT", 4, func() int { return submitted }},
		{"the layout: submitted", "PRODUCT", 4, func() int { return submitted }},
	}, true); err != nil {
		return err
	}
	if err := seedManual(c, "PRODUCT", []string{
		"the website: has real value for its intended users",
		"the website: has a clear purpose and audience",
		"the website: is designed and curated purposefully",
		"the website: does not throw errors in the console",
		"the layout: demonstrates revision work and fine tuning",
		"the layout: is appropriate for the content and purpose",
		"the layout: is consistent throughout the site",
		"the layout: displays as intended without bugs",
	}, 1); err != nil {
		return err
	}
	if err := seedManual(c, "EXPERTISE", []string{
		"css: the design employs the box model in some way",
	}, 1); err != nil {
		return err
	}

	if site == nil || site.Stats.HTMLCount == 0 {
		return nil
	}
	if err := applyChecks(c, htmlChecks(site, true), true); err != nil {
		return err
	}
	return applyChecks(c, cssChecks(site, true), true)
}

func structureChecks(t *Target, site *inspect.Site) []check {
	return []check{
		{"structure: index.html exists", "EXPERTISE", 1, func() int {
			return boolInt(site.Repo.FileExists("index.html"))
		}},
		{"structure: external style sheet file exists", "EXPERTISE", 1, func() int {
			return boolInt(site.Repo.CountFiletype(".css") > 0)
		}},
		{"structure: at least 3 html files exist", "EXPERTISE", 3, func() int {
			return site.Repo.CountFiletype(".html")
		}},
		{"structure: no links point at the dev's own computer", "EXPERTISE", 1, func() int {
			working := len(site.ValidLinks)+len(site.ValidImages)+len(site.RelativeLinks)+len(site.ExternalLinks) > 0
			return boolInt(working && len(site.LocalLinks) == 0)
		}},
		{"structure: each page is reachable via an internal link", "EXPERTISE", 1, func() int {
			return boolInt(site.PagesLinkedInternally() == 1)
		}},
		{"structure: at least 1 external link on any page", "EXPERTISE", 1, func() int {
			return boolInt(site.Stats.ExternalLink > 0)
		}},
		{"structure: link to live site submitted", "EXPERTISE", 1, func() int {
			return boolInt(inspect.SubmittedLink(t.URLs, t.Links.LiveLink))
		}},
		{"structure: link to repo submitted", "EXPERTISE", 1, func() int {
			return boolInt(inspect.SubmittedLink(t.URLs, t.Links.RepoLink))
		}},
	}
}

// htmlChecks grade per-page structure: "on each page" rows earn one point per
// conforming page out of the page count, "on any page" rows are all or
// nothing.
func htmlChecks(site *inspect.Site, withComments bool) []check {
	st := site.Stats
	n := st.HTMLCount
	checks := []check{
		{"html: exactly 1 opening html tag on each page", "EXPERTISE", n, func() int { return st.OneHTMLTag }},
		{"html: no content after the closing html tag on each page", "EXPERTISE", n, func() int { return st.NoTrailing }},
		{"html: exactly 1 head section on each page", "EXPERTISE", n, func() int { return st.OneHead }},
		{"html: exactly 1 title on each page", "EXPERTISE", n, func() int { return st.OneTitle }},
		{"html: exactly 1 body on each page", "EXPERTISE", n, func() int { return st.OneBody }},
		{"html: at least one heading on any page", "EXPERTISE", 1, func() int { return boolInt(st.Heading > 0) }},
		{"html: at least 1 paragraph on any page", "EXPERTISE", 1, func() int { return boolInt(st.Paragraph > 0) }},
		{"html: a list or table on any page", "EXPERTISE", 1, func() int { return boolInt(st.List > 0) }},
		{"html: at least one image on each page", "EXPERTISE", 1, func() int { return boolInt(site.ImagesPerPage() >= 1) }},
		{"html: height or width attribute used on any image", "EXPERTISE", 1, func() int {
			for _, p := range site.Pages {
				if p.HeightWidthOnImage {
					return 1
				}
			}
			return 0
		}},
		{"html: some form of css on each page", "EXPERTISE", n, func() int { return st.AnyCSS }},
	}
	if withComments {
		checks = append(checks, check{"html: comments on any page", "EXPERTISE", 1, func() int { return boolInt(st.Comment > 0) }})
	}
	return checks
}

func cssChecks(site *inspect.Site, withBootstrap bool) []check {
	st := site.Stats
	checks := []check{
		{"css: external style sheet linked to at least one page", "EXPERTISE", 1, func() int { return boolInt(st.ExternalSheet > 0) }},
		{"css: classes are defined and used on any page", "EXPERTISE", 1, func() int {
			return boolInt(site.Style.DefinesClass(site.ClassesUsed))
		}},
		{"css: tag selectors are defined on any page", "EXPERTISE", 1, func() int { return boolInt(len(site.Style.TagSelectors) > 0) }},
		{"css: inline css or id selectors on any page", "EXPERTISE", 1, func() int {
			return boolInt(st.InlineCSS > 0 || st.PagesWithIDs > 0)
		}},
		{"css: background attribute in any style rule", "EXPERTISE", 1, func() int { return boolInt(st.BackgroundRule) }},
		{"css: border attribute in any style rule", "EXPERTISE", 1, func() int { return boolInt(st.BorderRule) }},
		{"css: font attributes in any style rule", "EXPERTISE", 1, func() int { return boolInt(st.FontRule) }},
	}
	if withBootstrap {
		checks = append(checks,
			check{"css: bootstrap styles linked on any page", "EXPERTISE", 1, func() int { return boolInt(st.Bootstrap) }},
			check{"css: bootstrap classes used on any page", "EXPERTISE", 1, func() int { return boolInt(st.Bootstrap) }},
			check{"css: at least one styled div on any page", "EXPERTISE", 1, func() int { return boolInt(st.StyledDiv > 0) }},
		)
	}
	return checks
}
