package inspect

import (
	"os"
	"regexp"
)

// MarkdownFacts counts the markdown constructs used across a set of files.
type MarkdownFacts struct {
	Headers         []string
	Links           []string
	Images          []string
	CodeBlocks      []string
	Strikethrough   []string
	Emphasis        []string
	StrongEmphasis  []string
	HorizontalRules int
	Lists           []string
	Footnotes       []string
	YouTubeVideos   []string
	Blockquotes     []string
	Emoji           []string
	Tables          bool
}

var (
	mdHeader     = regexp.MustCompile(`(?m)^#+\s(.*)`)
	mdLink       = regexp.MustCompile(`(?m)[^!]\[[^\]]*\]\(([^)]*)\)`)
	mdImage      = regexp.MustCompile(`!\[[^\]]*\]\(([^)]*)\)`)
	mdCodeBlock  = regexp.MustCompile("```.*\n([\\s\\S]*?)\n```")
	mdStrike     = regexp.MustCompile(`~~(.+?)~~`)
	mdEmph       = regexp.MustCompile(`\*([^*\n]+)\*|_([^_\n]+)_`)
	mdStrong     = regexp.MustCompile(`\*\*([^*\n]+)\*\*|__([^_\n]+)__`)
	mdHRule      = regexp.MustCompile(`(?m)^---\s*$`)
	mdList       = regexp.MustCompile(`(?m)^[*\-+]\s(.*)`)
	mdFootnote   = regexp.MustCompile(`(?m)\[\^([^\]]+)\]:\s+([^\n]+)`)
	mdYouTube    = regexp.MustCompile(`https?://(?:www\.)?youtu(?:be\.com/watch\?v=|\.be/)([\w\-]+)`)
	mdBlockquote = regexp.MustCompile(`(?m)^> \S.*`)
	mdEmoji      = regexp.MustCompile(`:[a-z0-9_]+:`)
	mdTableRow   = regexp.MustCompile(`(?m)^\|.*\|\s*$`)
)

// InspectMarkdown scans the given repo-relative markdown files. With no list
// it scans every .md file in the checkout.
func InspectMarkdown(repo *Repo, files []string) (*MarkdownFacts, error) {
	if files == nil {
		files = repo.Files(".md")
	}
	mf := &MarkdownFacts{}
	for _, rel := range files {
		raw, err := os.ReadFile(repo.Abs(rel))
		if err != nil {
			return nil, err
		}
		mf.scan(string(raw))
	}
	return mf, nil
}

func (mf *MarkdownFacts) scan(content string) {
	mf.Headers = append(mf.Headers, firstGroups(mdHeader, content)...)
	mf.Links = append(mf.Links, firstGroups(mdLink, content)...)
	mf.Images = append(mf.Images, firstGroups(mdImage, content)...)
	mf.CodeBlocks = append(mf.CodeBlocks, firstGroups(mdCodeBlock, content)...)
	mf.Strikethrough = append(mf.Strikethrough, firstGroups(mdStrike, content)...)
	mf.Emphasis = append(mf.Emphasis, anyGroup(mdEmph, content)...)
	mf.StrongEmphasis = append(mf.StrongEmphasis, anyGroup(mdStrong, content)...)
	mf.HorizontalRules += len(mdHRule.FindAllString(content, -1))
	mf.Lists = append(mf.Lists, firstGroups(mdList, content)...)
	mf.Footnotes = append(mf.Footnotes, firstGroups(mdFootnote, content)...)
	mf.YouTubeVideos = append(mf.YouTubeVideos, firstGroups(mdYouTube, content)...)
	mf.Blockquotes = append(mf.Blockquotes, mdBlockquote.FindAllString(content, -1)...)
	mf.Emoji = append(mf.Emoji, mdEmoji.FindAllString(content, -1)...)
	if len(mdTableRow.FindAllString(content, -1)) >= 2 {
		mf.Tables = true
	}
}

// ElementsUsed names the construct kinds present, for "uses at least N
// markdown elements" criteria.
func (mf *MarkdownFacts) ElementsUsed() []string {
	var used []string
	add := func(name string, n int) {
		if n > 0 {
			used = append(used, name)
		}
	}
	add("headers", len(mf.Headers))
	add("links", len(mf.Links))
	add("images", len(mf.Images))
	add("code_blocks", len(mf.CodeBlocks))
	add("strikethrough", len(mf.Strikethrough))
	add("emphasis", len(mf.Emphasis))
	add("strong_emphasis", len(mf.StrongEmphasis))
	add("horizontal_rules", mf.HorizontalRules)
	add("lists", len(mf.Lists))
	add("footnotes", len(mf.Footnotes))
	add("youtube_videos", len(mf.YouTubeVideos))
	add("blockquotes", len(mf.Blockquotes))
	add("emoji", len(mf.Emoji))
	if mf.Tables {
		used = append(used, "tables")
	}
	return used
}

func firstGroups(re *regexp.Regexp, content string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(content, -1) {
		out = append(out, m[1])
	}
	return out
}

func anyGroup(re *regexp.Regexp, content string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(content, -1) {
		for _, g := range m[1:] {
			if g != "" {
				out = append(out, g)
				break
			}
		}
	}
	return out
}
