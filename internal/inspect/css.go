package inspect

import (
	"os"
	"strings"
)

// StyleFacts collects every style rule in the project: external sheets,
// <style> sections and inline style attributes, broken down by selector kind.
type StyleFacts struct {
	Rules          []string
	InlineRules    []string
	ClassesDefined []string
	IDsDefined     []string
	TagSelectors   []string
	BackgroundRule bool
	BorderRule     bool
	FontRule       bool
}

// CollectStyles parses the repo's .css files plus the per-page internal and
// inline rules. Parsing is deliberately shallow: rules split on "}", comments
// stripped, selector kind read off the first "." or "#". Student CSS that a
// browser tolerates should count, so no strict parser.
func CollectStyles(repo *Repo, pages []*PageFacts) (*StyleFacts, error) {
	sf := &StyleFacts{}
	for _, rel := range repo.Files(".css") {
		raw, err := os.ReadFile(repo.Abs(rel))
		if err != nil {
			return nil, err
		}
		sf.addSheet(string(raw))
	}
	for _, p := range pages {
		for _, sheet := range p.InternalStyleRules {
			sf.addSheet(sheet)
		}
		for _, inline := range p.InlineStyleRules {
			for _, rule := range strings.Split(inline, ";") {
				if rule = strings.TrimSpace(rule); rule != "" {
					sf.InlineRules = append(sf.InlineRules, rule+";")
				}
			}
		}
	}
	sf.classify()
	return sf, nil
}

func (sf *StyleFacts) addSheet(sheet string) {
	for _, rule := range strings.Split(sheet, "}") {
		rule = stripComment(rule)
		rule = strings.TrimSpace(strings.ReplaceAll(rule, "\n", ""))
		if rule != "" {
			sf.Rules = append(sf.Rules, rule+"}")
		}
	}
}

func stripComment(rule string) string {
	for {
		start := strings.Index(rule, "/*")
		end := strings.Index(rule, "*/")
		if start < 0 || end < start {
			return rule
		}
		rule = rule[:start] + rule[end+2:]
	}
}

func (sf *StyleFacts) classify() {
	for _, rule := range sf.Rules {
		if strings.Contains(rule, "background") {
			sf.BackgroundRule = true
		}
		if strings.Contains(rule, "border") {
			sf.BorderRule = true
		}
		if strings.Contains(rule, "font") {
			sf.FontRule = true
		}
		if strings.Contains(rule, "@") {
			if i := strings.Index(rule, "{"); i >= 0 {
				rule = rule[i+1:]
			}
		}
		open := strings.Index(rule, "{")
		if open < 0 {
			continue
		}
		switch {
		case strings.Contains(rule, "."):
			sel := rule[strings.Index(rule, ".")+1:]
			if j := strings.Index(sel, "{"); j >= 0 {
				sf.ClassesDefined = append(sf.ClassesDefined, strings.TrimSpace(sel[:j]))
			}
		case strings.Contains(rule, "#"):
			sel := rule[strings.Index(rule, "#")+1:]
			if j := strings.Index(sel, "{"); j >= 0 {
				sf.IDsDefined = append(sf.IDsDefined, strings.TrimSpace(sel[:j]))
			}
		default:
			sf.TagSelectors = append(sf.TagSelectors, strings.TrimSpace(rule[:open]))
		}
	}
}

// DefinesClass reports whether any used class name is also defined in a
// stylesheet.
func (sf *StyleFacts) DefinesClass(used []string) bool {
	for _, u := range used {
		for _, d := range sf.ClassesDefined {
			if u == d || strings.HasPrefix(d, u+" ") || strings.HasPrefix(d, u+":") {
				return true
			}
		}
	}
	return false
}
