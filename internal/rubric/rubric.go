package rubric

import (
	"fmt"
	"sort"
	"strings"
)

// RequirementType controls how an item counts toward its parent's grade.
type RequirementType string

const (
	Required RequirementType = "REQUIRED" // always counted
	Choice   RequirementType = "CHOICE"   // best-N selected
	Optional RequirementType = "OPTIONAL" // extra credit, only helps
)

// ComfortLevel is the difficulty/choice tag students pick per problem.
// MORE and MOST earn a rounding bonus at the 7/8 boundary.
type ComfortLevel string

const (
	ComfortLeast ComfortLevel = "LEAST"
	ComfortLess  ComfortLevel = "LESS"
	ComfortMore  ComfortLevel = "MORE"
	ComfortMost  ComfortLevel = "MOST"
	ComfortAll   ComfortLevel = "ALL"
)

// AvgMethod selects how a node's criteria collapse into category grades.
type AvgMethod string

const (
	AvgBool AvgMethod = "bool" // consensus vote per criterion (default)
	AvgMean AvgMethod = "mean" // pooled earned/max percentage
)

// Item id tags. The tag prefix is the discriminant used everywhere instead of
// a type switch.
const (
	ProblemSetTag = "ps-"
	ProblemTag    = "prob-"
	CourseworkTag = "cw-"
)

func IsProblemSetID(id string) bool { return strings.HasPrefix(id, ProblemSetTag) }
func IsProblemID(id string) bool    { return strings.HasPrefix(id, ProblemTag) }
func IsCourseworkID(id string) bool { return strings.HasPrefix(id, CourseworkTag) }

// UngradedScore is the wire sentinel for a criterion nobody has scored yet.
// In memory, Criterion.Graded is the source of truth.
const UngradedScore = -1

// ItemRef carries the persisted metadata the cursor needs to materialize a
// tree slot. The store layer builds these from problem-set items.
type ItemRef struct {
	ID          string
	Title       string
	Sequence    int
	Requirement RequirementType
	Comfort     ComfortLevel
	AvgMethod   AvgMethod
	NumRequired int // problem-set refs only
}

// Criterion is a single gradable line item within a problem.
type Criterion struct {
	Title      string
	Sequence   int
	Categories []Category
	Score      int
	MaxPoints  int
	Graded     bool
	Manual     bool // human-entered; automated strategies must not clobber
	Grades     map[Category][]int
}

// Problem is one entry in a node's ordered children list: a leaf problem with
// criteria, a nested problem-set summary, or an imported coursework summary.
// Summary entries carry a Ref to the node that owns the real subtree.
type Problem struct {
	ItemID      string
	Title       string
	Sequence    int
	Requirement RequirementType
	Comfort     ComfortLevel
	AvgMethod   AvgMethod
	Criteria    []*Criterion

	Ref *Node // nested problem-set or imported coursework root

	// Derived, recomputed every aggregation pass.
	Grades    map[Category][]int
	Overall   map[Category]int
	AvgGrades []int

	meanEarned map[Category]int
	meanMax    map[Category]int
}

// Leaf reports whether the entry is a directly-graded problem.
func (p *Problem) Leaf() bool { return IsProblemID(p.ItemID) }

// CriterionBySequence returns the criterion with the given ordinal, or nil.
func (p *Problem) CriterionBySequence(seq int) *Criterion {
	for _, c := range p.Criteria {
		if c.Sequence == seq {
			return c
		}
	}
	return nil
}

// CriterionByTitle returns the named criterion, or nil.
func (p *Problem) CriterionByTitle(title string) *Criterion {
	for _, c := range p.Criteria {
		if c.Title == title {
			return c
		}
	}
	return nil
}

func (p *Problem) sortCriteria() {
	sort.SliceStable(p.Criteria, func(i, j int) bool {
		return p.Criteria[i].Sequence < p.Criteria[j].Sequence
	})
}

// Node mirrors one problem set (or imported coursework root) being graded.
type Node struct {
	ItemID      string
	Title       string
	Sequence    int
	Requirement RequirementType
	Comfort     ComfortLevel
	AvgMethod   AvgMethod
	NumRequired int
	Parent      string

	Problems []*Problem
	Grades   map[Category][]int
	Overall  map[Category]int
}

func (n *Node) problem(id string) *Problem {
	for _, p := range n.Problems {
		if p.ItemID == id {
			return p
		}
	}
	return nil
}

func (n *Node) removeProblem(id string) {
	for i, p := range n.Problems {
		if p.ItemID == id {
			n.Problems = append(n.Problems[:i], n.Problems[i+1:]...)
			return
		}
	}
}

// Rubric is the mutable aggregate for one grading pass over one submission.
// It owns the base registry: the flat itemID→node arena that guarantees each
// nested problem set is materialized exactly once, no matter how many parents
// reference it.
type Rubric struct {
	Root     *Node
	registry map[string]*Node

	warnf func(format string, args ...interface{})
}

// New builds a fresh rubric rooted at the given problem set.
func New(root ItemRef) *Rubric {
	n := newNode(root, "")
	r := &Rubric{
		Root:     n,
		registry: map[string]*Node{n.ItemID: n},
	}
	return r
}

func newNode(ref ItemRef, parent string) *Node {
	return &Node{
		ItemID:      ref.ID,
		Title:       ref.Title,
		Sequence:    ref.Sequence,
		Requirement: defaultRequirement(ref.Requirement),
		Comfort:     ref.Comfort,
		AvgMethod:   defaultAvgMethod(ref.AvgMethod),
		NumRequired: ref.NumRequired,
		Parent:      parent,
		Grades:      map[Category][]int{},
	}
}

func defaultRequirement(rt RequirementType) RequirementType {
	if rt == "" {
		return Required
	}
	return rt
}

func defaultAvgMethod(m AvgMethod) AvgMethod {
	if m == "" {
		return AvgBool
	}
	return m
}

// SetWarnFunc installs the sink for data-integrity warnings (dangling
// references, cycles, exhausted choice pools). Defaults to a no-op.
func (r *Rubric) SetWarnFunc(f func(format string, args ...interface{})) { r.warnf = f }

func (r *Rubric) warn(format string, args ...interface{}) {
	if r.warnf != nil {
		r.warnf(format, args...)
	}
}

// NodeByID resolves an item id in the base registry.
func (r *Rubric) NodeByID(id string) *Node { return r.registry[id] }

// Cursor is the builder used by scoring strategies to record results without
// knowing tree shape. Each navigation call narrows focus and returns a cursor
// for chaining; errors stick and surface via Err.
type Cursor struct {
	rub       *Rubric
	node      *Node
	problem   *Problem
	criterion *Criterion
	err       error
}

// At returns a cursor positioned at the rubric root.
func (r *Rubric) At() *Cursor {
	return &Cursor{rub: r, node: r.Root}
}

// Err reports the first contract violation hit while chaining, if any.
func (c *Cursor) Err() error { return c.err }

// Node exposes the problem-set node the cursor is focused on.
func (c *Cursor) Node() *Node { return c.node }

// CurrentProblem exposes the problem slot the cursor is focused on, nil when
// focus is cleared.
func (c *Cursor) CurrentProblem() *Problem { return c.problem }

func (c *Cursor) fail(format string, args ...interface{}) *Cursor {
	if c.err == nil {
		c.err = fmt.Errorf(format, args...)
	}
	return c
}

// Problem navigates to (or creates) a child slot of the current node. A
// problem-set ref descends into the nested node, registering it in the base
// registry on first visit; the same id is only ever materialized once and
// re-linked by reference afterwards. A nil ref clears problem focus.
func (c *Cursor) Problem(ref *ItemRef) *Cursor {
	if c.err != nil {
		return c
	}
	if ref == nil {
		c.problem = nil
		c.criterion = nil
		return c
	}
	id := ref.ID

	if IsProblemSetID(id) {
		node, ok := c.rub.registry[id]
		if !ok {
			node = newNode(*ref, c.node.ItemID)
			c.rub.registry[id] = node
			c.node.Problems = append(c.node.Problems, &Problem{
				ItemID:      id,
				Title:       ref.Title,
				Sequence:    ref.Sequence,
				Requirement: defaultRequirement(ref.Requirement),
				Comfort:     ref.Comfort,
				AvgMethod:   node.AvgMethod,
				Ref:         node,
				Grades:      map[Category][]int{},
			})
		} else if c.node.problem(id) == nil {
			// Re-used problem set: link, never duplicate.
			c.node.Problems = append(c.node.Problems, &Problem{
				ItemID:      id,
				Title:       node.Title,
				Sequence:    ref.Sequence,
				Requirement: defaultRequirement(ref.Requirement),
				Comfort:     ref.Comfort,
				AvgMethod:   node.AvgMethod,
				Ref:         node,
				Grades:      map[Category][]int{},
			})
		}
		c.problem = c.node.problem(id)
		c.criterion = nil
		return &Cursor{rub: c.rub, node: node}
	}

	p := c.node.problem(id)
	if p == nil {
		p = &Problem{
			ItemID:      id,
			Title:       ref.Title,
			Sequence:    ref.Sequence,
			Requirement: defaultRequirement(ref.Requirement),
			Comfort:     ref.Comfort,
			AvgMethod:   defaultAvgMethod(ref.AvgMethod),
			Grades:      map[Category][]int{},
		}
		c.node.Problems = append(c.node.Problems, p)
	}
	c.problem = p
	c.criterion = nil
	return c
}

// Criterion finds or creates a criterion on the current problem, matching by
// sequence number when given (non-zero), else by title. New criteria get the
// next sequential ordinal and start ungraded.
func (c *Cursor) Criterion(title string, maxPoints, sequence int) *Cursor {
	if c.err != nil {
		return c
	}
	if c.problem == nil || !c.problem.Leaf() {
		return c.fail("criterion %q: no current problem", title)
	}
	var cr *Criterion
	if sequence > 0 {
		cr = c.problem.CriterionBySequence(sequence)
	}
	if cr == nil {
		cr = c.problem.CriterionByTitle(title)
	}
	if cr == nil {
		seq := sequence
		if seq <= 0 {
			seq = 1
			for _, existing := range c.problem.Criteria {
				if existing.Sequence >= seq {
					seq = existing.Sequence + 1
				}
			}
		}
		if maxPoints < 1 {
			maxPoints = 1
		}
		cr = &Criterion{
			Title:     title,
			Sequence:  seq,
			Score:     UngradedScore,
			MaxPoints: maxPoints,
			Grades:    map[Category][]int{},
		}
		c.problem.Criteria = append(c.problem.Criteria, cr)
		c.problem.sortCriteria()
	}
	c.criterion = cr
	return c
}

// Category tags the current criterion with a grading category. Tagging twice
// is a no-op; unknown names are a contract violation.
func (c *Cursor) Category(name string) *Cursor {
	if c.err != nil {
		return c
	}
	if c.criterion == nil {
		return c.fail("category %q: no current criterion", name)
	}
	cat, err := ParseCategory(name)
	if err != nil {
		c.err = err
		return c
	}
	for _, existing := range c.criterion.Categories {
		if existing == cat {
			return c
		}
	}
	c.criterion.Categories = append(c.criterion.Categories, cat)
	return c
}

// Score records earned/max points on the current criterion. A human-entered
// score is never overwritten by an automated pass; use ScoreManual for entry
// by a grader and Force to discard an override.
func (c *Cursor) Score(earned, max int) *Cursor {
	return c.setScore(earned, max, false, false)
}

// ScoreManual records a human-entered score that automated strategies must
// preserve on re-grade.
func (c *Cursor) ScoreManual(earned, max int) *Cursor {
	return c.setScore(earned, max, true, true)
}

// Force overwrites the current criterion's score even if it was manual.
func (c *Cursor) Force(earned, max int) *Cursor {
	return c.setScore(earned, max, false, true)
}

func (c *Cursor) setScore(earned, max int, manual, force bool) *Cursor {
	if c.err != nil {
		return c
	}
	if c.criterion == nil {
		return c.fail("score: no current criterion")
	}
	if c.criterion.Manual && !force {
		return c
	}
	c.criterion.Score = earned
	if max > 0 {
		c.criterion.MaxPoints = max
	}
	c.criterion.Graded = true
	c.criterion.Manual = manual
	return c
}

// ScoreValue reads the current criterion's score. Ungraded criteria report
// the -1 sentinel.
func (c *Cursor) ScoreValue() int {
	if c.criterion == nil || !c.criterion.Graded {
		return UngradedScore
	}
	return c.criterion.Score
}

// Coursework imports another submission's fully-graded tree into the current
// problem slot by reference. The imported tree is not recomputed during this
// node's aggregation.
func (c *Cursor) Coursework(other *Rubric) *Cursor {
	if c.err != nil {
		return c
	}
	if c.problem == nil {
		return c.fail("coursework: no current problem")
	}
	if other == nil || other.Root == nil {
		return c.fail("coursework %s: nil import", c.problem.ItemID)
	}
	c.problem.Ref = other.Root
	c.problem.Grades = other.Root.Grades
	c.problem.Overall = other.Root.Overall
	return c
}
