package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/classworks/gradekeeper/internal/rubric"
)

var classDots = map[string]string{
	classGreen:  "🟢",
	classYellow: "🟡",
	classRed:    "🔴",
	classGrey:   "⚪",
}

// RenderMarkdown writes the graded tree as a Markdown digest suitable for a
// repo comment or classroom post.
func RenderMarkdown(w io.Writer, r *rubric.Rubric) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n## Overall\n\n", r.Root.Title)
	writeGradeLines(&b, r.Root.Overall, 0)
	b.WriteString("\n")
	writeNodeMD(&b, r.Root, 0)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeGradeLines(b *strings.Builder, overall map[rubric.Category]int, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, cg := range orderedGrades(overall) {
		fmt.Fprintf(b, "%s- %s %s: %d\n", indent, classDots[classOf(cg.Grade)], cg.Category, cg.Grade)
	}
}

func writeNodeMD(b *strings.Builder, n *rubric.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, p := range n.Problems {
		if p.Ref != nil {
			dot := classDots[GradeClass(gradeValues(p.Ref.Overall), p.Requirement)]
			fmt.Fprintf(b, "%s- %s **%d. %s** (%s)\n", indent, dot, p.Sequence, p.Ref.Title, p.Requirement)
			writeGradeLines(b, p.Ref.Overall, depth+1)
			writeNodeMD(b, p.Ref, depth+1)
			continue
		}
		dot := classDots[GradeClass(gradeValues(p.Overall), p.Requirement)]
		fmt.Fprintf(b, "%s- %s **%d. %s** (%s)\n", indent, dot, p.Sequence, p.Title, p.Requirement)
		for _, cr := range p.Criteria {
			gs, cats := criterionSummary(cr)
			score := "-"
			if cr.Graded {
				score = fmt.Sprint(cr.Score)
			}
			fmt.Fprintf(b, "%s  - %s %s: %s/%d (%s)\n",
				indent, classDots[GradeClass(gs, p.Requirement)], cr.Title, score, cr.MaxPoints,
				strings.Join(cats, ", "))
		}
	}
}
