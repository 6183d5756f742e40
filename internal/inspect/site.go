package inspect

import (
	"context"
	"os"
	"strings"
)

// SiteStats are the per-criterion tallies the website strategies score from.
// Counter fields count pages that satisfy the check.
type SiteStats struct {
	HTMLCount      int
	OneHTMLTag     int
	NoTrailing     int
	OneHead        int
	OneTitle       int
	OneBody        int
	Heading        int
	Paragraph      int
	List           int
	Comment        int
	StyledDiv      int
	InlineCSS      int
	StyleTag       int
	ExternalSheet  int
	LinkedSheets   int
	AnyCSS         int
	PagesWithIDs   int
	ExternalLink   int
	Bootstrap      bool
	BackgroundRule bool
	BorderRule     bool
	FontRule       bool
}

// Site is the full inspection of one submitted website: checkout, per-page
// facts, style facts, and every link target classified through the URL cache.
type Site struct {
	Repo  *Repo
	Pages []*PageFacts
	Style *StyleFacts
	Stats SiteStats

	ValidLinks     []string
	BrokenLinks    []string
	LocalLinks     []string
	ExternalLinks  []string
	RelativeLinks  []string
	ValidImages    []string
	BrokenImages   []string
	PossiblyBroken []string

	AllTags     []string
	ClassesUsed []string
	IDsUsed     []string
	NumImages   int
	JS          string
}

// BuildSite inspects every HTML page in the checkout and rolls the facts up.
// Link probes go through the cache; force re-probes everything.
func BuildSite(ctx context.Context, repo *Repo, cache *URLCache, force bool) (*Site, error) {
	site := &Site{Repo: repo}
	for _, rel := range repo.Files(".html") {
		pf, err := InspectPage(repo, rel)
		if err != nil {
			return nil, err
		}
		site.Pages = append(site.Pages, pf)
	}

	style, err := CollectStyles(repo, site.Pages)
	if err != nil {
		return nil, err
	}
	site.Style = style

	for _, p := range site.Pages {
		site.AllTags = append(site.AllTags, p.AllTags...)
		site.ClassesUsed = append(site.ClassesUsed, p.ClassesUsed...)
		site.IDsUsed = append(site.IDsUsed, p.IDsUsed...)
		site.NumImages += len(p.ImageTargets)
		if p.Script != "" {
			site.JS += p.Script
		}

		for _, target := range p.LinkTargets {
			switch cache.Validate(ctx, target, repo, force) {
			case Valid:
				site.ValidLinks = append(site.ValidLinks, target)
			case Broken:
				site.BrokenLinks = append(site.BrokenLinks, target)
			case Local:
				site.LocalLinks = append(site.LocalLinks, target)
			case Relative:
				site.RelativeLinks = append(site.RelativeLinks, target)
			case External:
				site.ExternalLinks = append(site.ExternalLinks, target)
			case Unknown:
				site.PossiblyBroken = append(site.PossiblyBroken, target)
			}
		}
		for _, target := range p.ImageTargets {
			switch cache.Validate(ctx, target, repo, force) {
			case Valid, Relative, External:
				site.ValidImages = append(site.ValidImages, target)
			case Broken, Local:
				site.BrokenImages = append(site.BrokenImages, target)
			default:
				site.PossiblyBroken = append(site.PossiblyBroken, target)
			}
		}
	}
	for _, rel := range repo.Files(".js") {
		raw, err := os.ReadFile(repo.Abs(rel))
		if err != nil {
			return nil, err
		}
		site.JS += "\n" + string(raw)
	}

	site.ValidLinks = dedupe(site.ValidLinks)
	site.BrokenLinks = dedupe(site.BrokenLinks)
	site.LocalLinks = dedupe(site.LocalLinks)
	site.ExternalLinks = dedupe(site.ExternalLinks)
	site.RelativeLinks = dedupe(site.RelativeLinks)
	site.ValidImages = dedupe(site.ValidImages)
	site.BrokenImages = dedupe(site.BrokenImages)
	site.PossiblyBroken = dedupe(site.PossiblyBroken)

	site.Stats = site.tally()
	return site, nil
}

func (s *Site) tally() SiteStats {
	st := SiteStats{HTMLCount: len(s.Pages)}
	count := func(b bool) int {
		if b {
			return 1
		}
		return 0
	}
	for _, p := range s.Pages {
		st.OneHTMLTag += count(p.OneHTMLTag)
		st.NoTrailing += count(p.NoTrailing)
		st.OneHead += count(p.OneHead)
		st.OneTitle += count(p.OneTitle)
		st.OneBody += count(p.OneBody)
		st.Heading += count(p.HasHeading)
		st.Paragraph += count(p.HasParagraph)
		st.List += count(p.HasList)
		st.Comment += count(p.HasComment)
		st.StyledDiv += count(p.HasStyledDiv)
		st.InlineCSS += count(p.InlineStyle)
		st.StyleTag += count(p.StyleTag)
		st.ExternalSheet += count(p.ExternalSheet)
		st.LinkedSheets += count(len(p.LinkedSheets) > 0)
		st.AnyCSS += count(p.InlineStyle || p.StyleTag || len(p.LinkedSheets) > 0)
		st.PagesWithIDs += count(len(p.IDsUsed) > 0)
		if p.Bootstrap {
			st.Bootstrap = true
		}
	}
	st.ExternalLink = len(s.ExternalLinks)
	st.BackgroundRule = s.Style.BackgroundRule
	st.BorderRule = s.Style.BorderRule
	st.FontRule = s.Style.FontRule
	return st
}

// HasJS reports whether the site ships any JavaScript, inline or as files.
func (s *Site) HasJS() bool {
	return strings.TrimSpace(s.JS) != "" || s.Repo.CountFiletype(".js") > 0
}

// PagesLinkedInternally measures how much of the site is reachable through
// relative links: 1.0 when every page is a link target, else the reached
// fraction rounded to one decimal.
func (s *Site) PagesLinkedInternally() float64 {
	numHTML := s.Repo.CountFiletype(".html")
	if numHTML == 0 {
		return 0
	}
	linked := 0
	for _, page := range s.Repo.Files(".html") {
		for _, target := range s.RelativeLinks {
			if linksToPage(page, target) {
				linked++
				break
			}
		}
	}
	if linked == numHTML {
		return 1
	}
	return float64(int(float64(linked)/float64(numHTML)*10+0.5)) / 10
}

// linksToPage matches a relative link target against a repo-relative page
// path on a path-segment boundary, so a link to a.html never claims
// data.html.
func linksToPage(page, target string) bool {
	target = strings.TrimPrefix(strings.TrimSpace(target), "./")
	return page == target || strings.HasSuffix(page, "/"+target)
}

// ImagesPerPage averages valid image count over page count.
func (s *Site) ImagesPerPage() float64 {
	if len(s.Pages) == 0 {
		return 0
	}
	return float64(s.NumImages) / float64(len(s.Pages))
}
