package inspect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testRepo(t *testing.T) *Repo {
	t.Helper()
	r := &Repo{Dir: t.TempDir()}
	return r
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<title>Home</title>
<link rel="stylesheet" href="css/style.css">
</head>
<body>
<!-- navigation -->
<h1>Welcome</h1>
<p style="color: red">Hi there.</p>
<div class="hero" id="top">
<ul><li><a href="about.html">About</a></li></ul>
<a href="#top">Back to top</a>
<img src="img/cat.png" width="100">
</div>
</body>
</html>`

func TestRepoFileCensus(t *testing.T) {
	r := testRepo(t)
	writeFile(t, r.Dir, "index.html", indexHTML)
	writeFile(t, r.Dir, "css/style.css", "body { font-family: serif; }")
	writeFile(t, r.Dir, ".hidden", "x")
	writeFile(t, r.Dir, "img/cat.png", "png")
	if err := r.Scan(); err != nil {
		t.Fatal(err)
	}
	if got := r.CountFiletype(".html"); got != 1 {
		t.Fatalf("html count = %d", got)
	}
	if got := len(r.Files("")); got != 3 {
		t.Fatalf("census = %v", r.Files(""))
	}
	if !r.FileExists("css/style.css") || !r.FileExists("style.css") {
		t.Fatal("exact and suffix lookup failed")
	}
	if !r.FileExists("*cat*") {
		t.Fatal("glob lookup failed")
	}
	if r.FileExists("missing.txt") {
		t.Fatal("phantom file")
	}
}

func TestInspectPage(t *testing.T) {
	r := testRepo(t)
	writeFile(t, r.Dir, "index.html", indexHTML)
	writeFile(t, r.Dir, "css/style.css", "body { }")
	if err := r.Scan(); err != nil {
		t.Fatal(err)
	}
	pf, err := InspectPage(r, "index.html")
	if err != nil {
		t.Fatal(err)
	}
	if !pf.OneHTMLTag || !pf.OneHead || !pf.OneTitle || !pf.OneBody || !pf.NoTrailing {
		t.Fatalf("structure facts: %+v", pf)
	}
	if !pf.HasHeading || !pf.HasParagraph || !pf.HasList || !pf.HasComment || !pf.HasStyledDiv {
		t.Fatalf("content facts: %+v", pf)
	}
	if !pf.InlineStyle || !pf.ExternalSheet {
		t.Fatalf("style facts: %+v", pf)
	}
	if len(pf.LinkTargets) != 2 || len(pf.ImageTargets) != 1 {
		t.Fatalf("targets: %v %v", pf.LinkTargets, pf.ImageTargets)
	}
	if !pf.HeightWidthOnImage {
		t.Fatal("width attribute missed")
	}
	if len(pf.ClassesUsed) != 1 || pf.ClassesUsed[0] != "hero" {
		t.Fatalf("classes: %v", pf.ClassesUsed)
	}
}

func TestCollectStyles(t *testing.T) {
	r := testRepo(t)
	writeFile(t, r.Dir, "css/style.css", `
/* layout */
.hero { background: navy; }
#top { border: 1px solid; }
p { font-size: 12px; }
@media print { body { color: black; } }
`)
	if err := r.Scan(); err != nil {
		t.Fatal(err)
	}
	sf, err := CollectStyles(r, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !sf.BackgroundRule || !sf.BorderRule || !sf.FontRule {
		t.Fatalf("rule flags: %+v", sf)
	}
	if len(sf.ClassesDefined) != 1 || sf.ClassesDefined[0] != "hero" {
		t.Fatalf("classes defined: %v", sf.ClassesDefined)
	}
	if len(sf.IDsDefined) != 1 || sf.IDsDefined[0] != "top" {
		t.Fatalf("ids defined: %v", sf.IDsDefined)
	}
	if !sf.DefinesClass([]string{"hero"}) || sf.DefinesClass([]string{"missing"}) {
		t.Fatal("class cross-reference wrong")
	}
}

func TestInspectMarkdown(t *testing.T) {
	r := testRepo(t)
	writeFile(t, r.Dir, "README.md", `# Project

Some *emphasis* and **strong** text, plus ~~gone~~.

- item one
- item two

[docs](https://example.com/docs) and ![logo](img/logo.png)

> worth quoting

`+"```python\nprint('hi')\n```\n")
	if err := r.Scan(); err != nil {
		t.Fatal(err)
	}
	mf, err := InspectMarkdown(r, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(mf.Headers) != 1 || len(mf.Lists) != 2 || len(mf.CodeBlocks) != 1 {
		t.Fatalf("facts: %+v", mf)
	}
	if len(mf.Links) != 1 || mf.Links[0] != "https://example.com/docs" {
		t.Fatalf("links: %v", mf.Links)
	}
	if len(mf.Images) != 1 || mf.Images[0] != "img/logo.png" {
		t.Fatalf("images: %v", mf.Images)
	}
	used := mf.ElementsUsed()
	if len(used) < 7 {
		t.Fatalf("elements used: %v", used)
	}
}

func TestURLCachePersistsVerdicts(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		hits++
		if req.URL.Path == "/missing" {
			http.NotFound(w, req)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "targets.json")
	c := NewURLCache(path)
	if v := c.Validate(ctx, srv.URL+"/ok", nil, false); v != External {
		t.Fatalf("ok target = %q", v)
	}
	if v := c.Validate(ctx, srv.URL+"/missing", nil, false); v != Broken {
		t.Fatalf("missing target = %q", v)
	}
	// Cached: no new probe.
	c.Validate(ctx, srv.URL+"/ok", nil, false)
	if hits != 2 {
		t.Fatalf("probe count = %d, want 2", hits)
	}
	c.Validate(ctx, srv.URL+"/ok", nil, true)
	if hits != 3 {
		t.Fatalf("force refresh did not probe, count = %d", hits)
	}
	if err := c.Save(); err != nil {
		t.Fatal(err)
	}

	c2 := NewURLCache(path)
	if err := c2.Load(); err != nil {
		t.Fatal(err)
	}
	if v := c2.Validate(ctx, srv.URL+"/missing", nil, false); v != Broken {
		t.Fatalf("persisted verdict lost: %q", v)
	}
	if hits != 3 {
		t.Fatalf("reloaded cache probed anyway, count = %d", hits)
	}
}

func TestPagesLinkedInternallyMatchesWholeNames(t *testing.T) {
	r := testRepo(t)
	writeFile(t, r.Dir, "index.html", "<html></html>")
	writeFile(t, r.Dir, "a.html", "<html></html>")
	writeFile(t, r.Dir, "data.html", "<html></html>")
	if err := r.Scan(); err != nil {
		t.Fatal(err)
	}
	s := &Site{Repo: r, RelativeLinks: []string{"a.html"}}
	// One page reached out of three: the a.html link must not claim data.html.
	if got := s.PagesLinkedInternally(); got != 0.3 {
		t.Fatalf("linkage = %v, want 0.3", got)
	}
	if !linksToPage("pages/b.html", "b.html") || !linksToPage("a.html", "./a.html") {
		t.Fatal("segment-boundary match failed")
	}
	if linksToPage("data.html", "a.html") {
		t.Fatal("substring match leaked through")
	}
}

func TestBuildSiteClassifiesLinks(t *testing.T) {
	r := testRepo(t)
	writeFile(t, r.Dir, "index.html", `<html><head><title>t</title></head><body>
<a href="about.html">about</a>
<a href="#top">anchor</a>
<a href="file:///C:/Users/me/about.html">local</a>
<img src="img/cat.png">
</body></html>`)
	writeFile(t, r.Dir, "about.html", `<html><head><title>a</title></head><body><a href="index.html">home</a></body></html>`)
	writeFile(t, r.Dir, "img/cat.png", "png")
	if err := r.Scan(); err != nil {
		t.Fatal(err)
	}

	cache := NewURLCache(filepath.Join(t.TempDir(), "targets.json"))
	site, err := BuildSite(context.Background(), r, cache, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(site.RelativeLinks) != 2 {
		t.Fatalf("relative links: %v", site.RelativeLinks)
	}
	if len(site.LocalLinks) != 1 {
		t.Fatalf("local links: %v", site.LocalLinks)
	}
	if len(site.ValidImages) != 1 {
		t.Fatalf("images: valid=%v broken=%v", site.ValidImages, site.BrokenImages)
	}
	if got := site.PagesLinkedInternally(); got != 1 {
		t.Fatalf("internal linkage = %v", got)
	}
	if site.Stats.OneTitle != 2 || site.Stats.HTMLCount != 2 {
		t.Fatalf("stats: %+v", site.Stats)
	}
}
