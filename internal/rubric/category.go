package rubric

import (
	"fmt"
	"math"
	"strings"
)

// Category is one of the four axes on which student work is evaluated.
type Category string

const (
	CategoryEngagement Category = "ENGAGEMENT"
	CategoryProcess    Category = "PROCESS"
	CategoryProduct    Category = "PRODUCT"
	CategoryExpertise  Category = "EXPERTISE"
)

// Categories in display order. The order also fixes each category's digit
// position in the scaled composite grade.
var Categories = []Category{CategoryEngagement, CategoryProcess, CategoryProduct, CategoryExpertise}

// categoryWeights assigns each category its decimal position in the composite
// grade posted upstream: an all-8 rubric scales to 8888.
var categoryWeights = map[Category]int{
	CategoryEngagement: 8000,
	CategoryProcess:    800,
	CategoryProduct:    80,
	CategoryExpertise:  8,
}

// Weight returns the category's composite-grade weight, 0 for unknown values.
func (c Category) Weight() int { return categoryWeights[c] }

// ParseCategory resolves a case-insensitive category name.
func ParseCategory(name string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := categoryWeights[c]; !ok {
		return "", fmt.Errorf("unknown grading category %q", name)
	}
	return c, nil
}

// EightPointGrade converts an earned/max point pair to the internal 8-point
// scale (4..8). A max of 0 marks an ungraded category and returns earned
// unchanged. A max strictly between 1 and 9 is itself an 8-point grade being
// re-graded, so near misses on that sub-scale are credited back before
// converting. The result never drops below 4; true zero scores are the
// aggregator's job, not this function's.
func EightPointGrade(earned, max int) int {
	if max == 0 {
		return earned
	}
	var pct float64
	if max > 1 && max < 9 {
		pct = float64(earned+(8-max)) / 8
	} else {
		pct = float64(earned) / float64(max)
	}
	g := int(math.Round(pct*9)) - 1
	if g < 4 {
		return 4
	}
	if g > 8 {
		return 8
	}
	return g
}

// LetterGrade maps a points/max pair to a letter. Optional and choice work is
// never marked failing: below 60% with required=false yields "-".
func LetterGrade(points, max int, required bool) string {
	if max <= 0 {
		return "-"
	}
	pct := float64(points) / float64(max)
	switch {
	case pct >= 0.9:
		return "A"
	case pct >= 0.8:
		return "B"
	case pct >= 0.7:
		return "C"
	case pct >= 0.6:
		return "D"
	}
	if !required {
		return "-"
	}
	return "F"
}

// ScaledGrade composes per-category overall grades into the single integer
// posted to the classroom service: one decimal digit per category, floored at
// 1000 so the upstream scale never sees a sub-4-digit grade.
func ScaledGrade(overall map[Category]int) int {
	total := 0
	for _, c := range Categories {
		g, ok := overall[c]
		if !ok || g < 0 {
			continue
		}
		total += c.Weight() / 8 * g
	}
	if total < 1000 {
		return 1000
	}
	return total
}
