// Package report renders graded rubrics for humans: an HTML tree for the
// classroom page, a Markdown digest for repo comments, and CSV exports for
// the gradebook spreadsheet.
package report

import (
	"sort"

	"github.com/classworks/gradekeeper/internal/rubric"
)

// Traffic-light classes used by the HTML and Markdown renderers. A grade of
// 7 or 8 is green, 4 through 6 is yellow, below that red. Grey marks items
// that carry no grade and optional items that were skipped.
const (
	classGreen  = "yesyes"
	classYellow = "maybemaybe"
	classRed    = "nono"
	classGrey   = "nomatter"
)

func classOf(grade int) string {
	switch {
	case grade > 6:
		return classGreen
	case grade > 3:
		return classYellow
	default:
		return classRed
	}
}

// GradeClass rolls a list of grades up to one class: any red or yellow next
// to a green demotes the whole item to yellow. An empty list is red for
// required work and grey otherwise.
func GradeClass(grades []int, req rubric.RequirementType) string {
	var green, yellow, red bool
	for _, g := range grades {
		switch classOf(g) {
		case classGreen:
			green = true
		case classYellow:
			yellow = true
		default:
			red = true
		}
	}
	switch {
	case green && (red || yellow):
		return classYellow
	case green:
		return classGreen
	case yellow:
		return classYellow
	case red || req == rubric.Required:
		return classRed
	}
	return classGrey
}

type catGrade struct {
	Category rubric.Category
	Grade    int
}

// orderedGrades flattens a category grade map in display order.
func orderedGrades(m map[rubric.Category]int) []catGrade {
	var out []catGrade
	for _, cat := range rubric.Categories {
		if g, ok := m[cat]; ok {
			out = append(out, catGrade{cat, g})
		}
	}
	return out
}

func gradeValues(m map[rubric.Category]int) []int {
	var out []int
	for _, cg := range orderedGrades(m) {
		out = append(out, cg.Grade)
	}
	return out
}

// criterionSummary renders a criterion's per-category grades as the original
// one-liner: the grade values, then the category names.
func criterionSummary(cr *rubric.Criterion) (grades []int, cats []string) {
	for _, cat := range rubric.Categories {
		if gs, ok := cr.Grades[cat]; ok {
			grades = append(grades, gs...)
			cats = append(cats, string(cat))
		}
	}
	sort.Strings(cats)
	return grades, cats
}
