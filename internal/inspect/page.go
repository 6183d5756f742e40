package inspect

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// PageFacts is everything the grading strategies ask about one HTML page.
// The bool fields answer "does this page satisfy criterion X"; the slices
// feed site-level rollups.
type PageFacts struct {
	File string

	OneHTMLTag    bool // exactly one <html>
	NoTrailing    bool // no content after </html>
	OneHead       bool
	OneTitle      bool
	OneBody       bool
	HasHeading    bool
	HasParagraph  bool
	HasList       bool // ul, ol or table
	HasComment    bool
	HasStyledDiv  bool // a div carrying style/class/id
	HasScript     bool
	InlineStyle   bool
	StyleTag      bool
	ExternalSheet bool // <link> to a stylesheet that lives in the repo
	Bootstrap     bool

	AllTags            []string
	LinkTargets        []string
	ImageTargets       []string
	LinkedSheets       []string
	InlineStyleRules   []string
	InternalStyleRules []string
	ClassesUsed        []string
	IDsUsed            []string
	HeightWidthOnImage bool
	Script             string
}

// InspectPage parses one HTML file from the repo checkout.
func InspectPage(repo *Repo, rel string) (*PageFacts, error) {
	raw, err := os.ReadFile(repo.Abs(rel))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rel, err)
	}

	f := &PageFacts{File: rel}
	f.OneHTMLTag = doc.Find("html").Length() == 1
	trimmed := strings.TrimSpace(strings.ReplaceAll(string(raw), "\n", ""))
	f.NoTrailing = strings.HasSuffix(trimmed, "</html>")
	f.OneHead = doc.Find("head").Length() == 1
	f.OneTitle = doc.Find("title").Length() == 1
	f.OneBody = doc.Find("body").Length() == 1
	f.HasHeading = doc.Find("h1,h2,h3,h4,h5,h6").Length() > 0
	f.HasParagraph = doc.Find("p").Length() > 0
	f.HasList = doc.Find("ul,ol,table").Length() > 0
	f.HasScript = doc.Find("script").Length() > 0

	doc.Find("div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, attr := range []string{"style", "class", "id"} {
			if _, ok := s.Attr(attr); ok {
				f.HasStyledDiv = true
				return false
			}
		}
		return true
	})

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		if style, ok := s.Attr("style"); ok && style != "" {
			f.InlineStyle = true
			f.InlineStyleRules = append(f.InlineStyleRules, style)
		}
		if classes, ok := s.Attr("class"); ok {
			f.ClassesUsed = append(f.ClassesUsed, strings.Fields(classes)...)
		}
		if id, ok := s.Attr("id"); ok && id != "" {
			f.IDsUsed = append(f.IDsUsed, id)
		}
	})

	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		f.StyleTag = true
		f.InternalStyleRules = append(f.InternalStyleRules, s.Text())
	})

	doc.Find("link").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href == "" {
			return
		}
		f.LinkedSheets = append(f.LinkedSheets, href)
		for _, css := range repo.Files(".css") {
			if strings.Contains(href, css) || strings.HasSuffix(href, css) {
				f.ExternalSheet = true
			}
		}
		if strings.Contains(href, "bootstrap") {
			f.Bootstrap = true
		}
	})

	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && href != "" {
			f.LinkTargets = append(f.LinkTargets, href)
		}
	})

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && src != "" {
			f.ImageTargets = append(f.ImageTargets, src)
		}
		if _, ok := s.Attr("height"); ok {
			f.HeightWidthOnImage = true
		}
		if _, ok := s.Attr("width"); ok {
			f.HeightWidthOnImage = true
		}
	})

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if s.Text() != "" {
			f.Script += "\n" + s.Text()
		}
	})

	for _, n := range doc.Nodes {
		walkNodes(n, f)
	}
	f.LinkTargets = dedupe(f.LinkTargets)
	f.ImageTargets = dedupe(f.ImageTargets)
	return f, nil
}

func walkNodes(n *html.Node, f *PageFacts) {
	switch n.Type {
	case html.CommentNode:
		f.HasComment = true
	case html.ElementNode:
		f.AllTags = append(f.AllTags, n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkNodes(c, f)
	}
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
