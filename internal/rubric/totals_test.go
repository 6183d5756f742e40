package rubric

import (
	"fmt"
	"strings"
	"testing"
)

func scoredLeaf(r *Rubric, id string, seq, earned, max int) {
	r.At().Problem(&ItemRef{ID: id, Title: id, Sequence: seq}).
		Criterion("result", max, 0).
		Category("product").
		Score(earned, max)
}

func TestTotalScoresSingleProblem(t *testing.T) {
	r := New(ItemRef{ID: "ps-1"})
	scoredLeaf(r, "prob-1", 1, 10, 10)
	r.TotalScores(true)
	if got := r.Root.Overall[CategoryProduct]; got != 8 {
		t.Fatalf("overall = %d, want 8", got)
	}
}

func TestTotalScoresUngradedCountsAsZero(t *testing.T) {
	r := New(ItemRef{ID: "ps-1"})
	scoredLeaf(r, "prob-1", 1, 10, 10)
	scoredLeaf(r, "prob-2", 2, 10, 10)
	r.At().Problem(&ItemRef{ID: "prob-3", Title: "skipped", Sequence: 3}).
		Criterion("result", 10, 0).
		Category("product")
	r.TotalScores(true)
	// Two perfect problems and one untouched one: the zero costs one point.
	if got := r.Root.Overall[CategoryProduct]; got != 7 {
		t.Fatalf("overall = %d, want 7", got)
	}
}

func TestTotalScoresIdempotent(t *testing.T) {
	r := New(ItemRef{ID: "ps-1"})
	scoredLeaf(r, "prob-1", 1, 9, 10)
	scoredLeaf(r, "prob-2", 2, 10, 10)
	r.TotalScores(true)
	first := r.Root.Overall[CategoryProduct]
	gradeLen := len(r.Root.Grades[CategoryProduct])
	r.TotalScores(true).TotalScores(true)
	if r.Root.Overall[CategoryProduct] != first {
		t.Fatalf("overall drifted: %d -> %d", first, r.Root.Overall[CategoryProduct])
	}
	if len(r.Root.Grades[CategoryProduct]) != gradeLen {
		t.Fatalf("grade list grew across passes: %d -> %d", gradeLen, len(r.Root.Grades[CategoryProduct]))
	}
}

func TestTotalScoresMemoGuard(t *testing.T) {
	r := New(ItemRef{ID: "ps-1"})
	scoredLeaf(r, "prob-1", 1, 10, 10)
	r.TotalScores(true)
	// Mutate a leaf behind the memo's back: force=false must not recompute.
	r.Root.problem("prob-1").Criteria[0].Score = 1
	r.TotalScores(false)
	if got := r.Root.Overall[CategoryProduct]; got != 8 {
		t.Fatalf("memoized overall recomputed to %d", got)
	}
	r.TotalScores(true)
	if got := r.Root.Overall[CategoryProduct]; got == 8 {
		t.Fatal("force pass did not recompute")
	}
}

func TestTotalScoresComfortBonus(t *testing.T) {
	for comfort, want := range map[ComfortLevel]int{
		ComfortLess: 7,
		ComfortMore: 8,
		ComfortMost: 8,
	} {
		r := New(ItemRef{ID: "ps-1"})
		r.At().Problem(&ItemRef{ID: "prob-1", Sequence: 1, Comfort: comfort}).
			Criterion("result", 10, 0).
			Category("product").
			Score(9, 10)
		r.TotalScores(true)
		if got := r.Root.Overall[CategoryProduct]; got != want {
			t.Errorf("comfort %s: overall = %d, want %d", comfort, got, want)
		}
	}
}

func TestTotalScoresChoicePicksBest(t *testing.T) {
	r := New(ItemRef{ID: "ps-1", NumRequired: 1})
	r.At().Problem(&ItemRef{ID: "prob-1", Sequence: 1, Requirement: Choice}).
		Criterion("result", 10, 0).Category("product").Score(7, 10)
	r.At().Problem(&ItemRef{ID: "prob-2", Sequence: 2, Requirement: Choice}).
		Criterion("result", 10, 0).Category("product").Score(10, 10)
	r.TotalScores(true)
	if got := r.Root.Overall[CategoryProduct]; got != 8 {
		t.Fatalf("overall = %d, want the stronger choice (8)", got)
	}
	if got := len(r.Root.Grades[CategoryProduct]); got != 1 {
		t.Fatalf("merged %d choice grades, want 1", got)
	}
}

func TestTotalScoresChoicePoolExhausted(t *testing.T) {
	var warnings []string
	r := New(ItemRef{ID: "ps-1", NumRequired: 3})
	r.SetWarnFunc(func(format string, args ...interface{}) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	})
	r.At().Problem(&ItemRef{ID: "prob-1", Sequence: 1, Requirement: Choice}).
		Criterion("result", 10, 0).Category("product").Score(10, 10)
	r.TotalScores(true)
	if got := r.Root.Overall[CategoryProduct]; got != 8 {
		t.Fatalf("overall = %d, want 8 from the one completed choice", got)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "exhausted") {
		t.Fatalf("warnings = %v", warnings)
	}
}

func TestTotalScoresOptionalOnlyHelps(t *testing.T) {
	r := New(ItemRef{ID: "ps-1"})
	scoredLeaf(r, "prob-1", 1, 9, 10)
	r.At().Problem(&ItemRef{ID: "prob-2", Sequence: 2, Requirement: Optional}).
		Criterion("result", 10, 0).Category("product").Score(5, 10)
	r.TotalScores(true)
	if got := r.Root.Overall[CategoryProduct]; got != 7 {
		t.Fatalf("weak extra credit changed the grade to %d", got)
	}

	r2 := New(ItemRef{ID: "ps-1"})
	scoredLeaf(r2, "prob-1", 1, 9, 10)
	r2.At().Problem(&ItemRef{ID: "prob-2", Sequence: 2, Requirement: Optional}).
		Criterion("result", 10, 0).Category("product").Score(10, 10)
	r2.TotalScores(true)
	if got := r2.Root.Overall[CategoryProduct]; got != 8 {
		t.Fatalf("strong extra credit ignored, overall = %d", got)
	}
}

func TestTotalScoresMeanMethod(t *testing.T) {
	r := New(ItemRef{ID: "ps-1"})
	c := r.At().Problem(&ItemRef{ID: "prob-1", Sequence: 1, AvgMethod: AvgMean})
	c.Criterion("part a", 60, 1).Category("product").Score(60, 60)
	c.Criterion("part b", 40, 2).Category("product").Score(20, 40)
	r.TotalScores(true)
	// Pooled 80/100 rather than a vote between an 8 and a 4.
	if got := r.Root.Overall[CategoryProduct]; got != 6 {
		t.Fatalf("mean overall = %d, want 6", got)
	}
}

func TestTotalScoresNestedSet(t *testing.T) {
	r := New(ItemRef{ID: "ps-1"})
	sub := r.At().Problem(&ItemRef{ID: "ps-2", Title: "unit", Sequence: 1})
	sub.Problem(&ItemRef{ID: "prob-1", Sequence: 1}).
		Criterion("result", 10, 0).Category("expertise").Score(10, 10)
	scoredLeaf(r, "prob-2", 2, 10, 10)
	r.TotalScores(true)
	if got := r.Root.Overall[CategoryExpertise]; got != 8 {
		t.Fatalf("expertise = %d, want 8 bubbled up from the nested set", got)
	}
	if got := r.Root.Overall[CategoryProduct]; got != 8 {
		t.Fatalf("product = %d, want 8", got)
	}
	slot := r.Root.problem("ps-2")
	if slot.Overall[CategoryExpertise] != 8 || len(slot.AvgGrades) == 0 {
		t.Fatalf("summary slot not populated: %+v", slot)
	}
}

func TestTotalScoresDanglingReferenceDropped(t *testing.T) {
	var warnings []string
	r := New(ItemRef{ID: "ps-1"})
	r.SetWarnFunc(func(format string, args ...interface{}) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	})
	scoredLeaf(r, "prob-1", 1, 10, 10)
	r.Root.Problems = append(r.Root.Problems, &Problem{
		ItemID: "ps-404", Sequence: 2, Requirement: Required,
		Grades: map[Category][]int{},
	})
	r.TotalScores(true)
	if got := r.Root.Overall[CategoryProduct]; got != 8 {
		t.Fatalf("overall = %d, want 8 with the bad reference dropped", got)
	}
	if r.Root.problem("ps-404") != nil {
		t.Fatal("dangling reference still attached")
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "dangling") {
		t.Fatalf("warnings = %v", warnings)
	}
}

func TestTotalScoresCycleDropped(t *testing.T) {
	var warnings []string
	r := New(ItemRef{ID: "ps-1"})
	r.SetWarnFunc(func(format string, args ...interface{}) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	})
	sub := r.At().Problem(&ItemRef{ID: "ps-2", Sequence: 1})
	sub.Problem(&ItemRef{ID: "prob-1", Sequence: 1}).
		Criterion("result", 10, 0).Category("product").Score(10, 10)
	// Wire the child back to its ancestor.
	r.NodeByID("ps-2").Problems = append(r.NodeByID("ps-2").Problems, &Problem{
		ItemID: "ps-1", Sequence: 2, Requirement: Required,
		Grades: map[Category][]int{},
	})
	r.TotalScores(true)
	if got := r.Root.Overall[CategoryProduct]; got != 8 {
		t.Fatalf("overall = %d, want 8 with the cycle cut", got)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "cyclic") {
		t.Fatalf("warnings = %v", warnings)
	}
}

func TestTotalScoresCourseworkImport(t *testing.T) {
	imported := New(ItemRef{ID: "ps-10", Title: "project"})
	scoredLeaf(imported, "prob-1", 1, 10, 10)
	imported.TotalScores(true)

	r := New(ItemRef{ID: "ps-1"})
	scoredLeaf(r, "prob-2", 1, 10, 10)
	c := r.At().Problem(&ItemRef{ID: "cw-1", Title: "project grade", Sequence: 2}).
		Coursework(imported)
	if err := c.Err(); err != nil {
		t.Fatal(err)
	}
	r.TotalScores(true)
	if got := r.Root.Overall[CategoryProduct]; got != 8 {
		t.Fatalf("overall = %d, want 8", got)
	}
	slot := r.Root.problem("cw-1")
	if slot.Overall[CategoryProduct] != 8 {
		t.Fatalf("imported slot overall = %v", slot.Overall)
	}
}
