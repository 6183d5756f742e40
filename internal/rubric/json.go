package rubric

import "encoding/json"

// Wire form of a stored rubric. Nested problem sets are embedded inline at
// their first occurrence in document order; later slots that reference the
// same set carry only the item id and are re-linked through the registry on
// load. Ungraded criteria travel as score -1.

type wireCriterion struct {
	Title      string             `json:"title"`
	Sequence   int                `json:"sequence"`
	Categories []Category         `json:"categories,omitempty"`
	Score      int                `json:"score"`
	MaxPoints  int                `json:"max_points"`
	Manual     bool               `json:"manual,omitempty"`
	Grades     map[Category][]int `json:"grades,omitempty"`
}

type wireProblem struct {
	ItemID      string             `json:"item_id"`
	Title       string             `json:"title,omitempty"`
	Sequence    int                `json:"sequence"`
	Requirement RequirementType    `json:"requirement,omitempty"`
	Comfort     ComfortLevel       `json:"comfort,omitempty"`
	AvgMethod   AvgMethod          `json:"avg_method,omitempty"`
	Criteria    []*wireCriterion   `json:"criteria,omitempty"`
	Node        *wireNode          `json:"node,omitempty"`
	Grades      map[Category][]int `json:"grades,omitempty"`
	Overall     map[Category]int   `json:"overall,omitempty"`
	AvgGrades   []int              `json:"avg_grades,omitempty"`
}

type wireNode struct {
	ItemID      string             `json:"item_id"`
	Title       string             `json:"title,omitempty"`
	Sequence    int                `json:"sequence"`
	Requirement RequirementType    `json:"requirement,omitempty"`
	Comfort     ComfortLevel       `json:"comfort,omitempty"`
	AvgMethod   AvgMethod          `json:"avg_method,omitempty"`
	NumRequired int                `json:"num_required,omitempty"`
	Problems    []*wireProblem     `json:"problems"`
	Grades      map[Category][]int `json:"grades,omitempty"`
	Overall     map[Category]int   `json:"overall,omitempty"`
}

// MarshalJSON emits the whole tree rooted at Root.
func (r *Rubric) MarshalJSON() ([]byte, error) {
	seen := map[string]bool{}
	return json.Marshal(r.wireOf(r.Root, seen))
}

func (r *Rubric) wireOf(n *Node, seen map[string]bool) *wireNode {
	seen[n.ItemID] = true
	wn := &wireNode{
		ItemID:      n.ItemID,
		Title:       n.Title,
		Sequence:    n.Sequence,
		Requirement: n.Requirement,
		Comfort:     n.Comfort,
		AvgMethod:   n.AvgMethod,
		NumRequired: n.NumRequired,
		Problems:    []*wireProblem{},
		Grades:      n.Grades,
		Overall:     n.Overall,
	}
	for _, p := range n.Problems {
		wp := &wireProblem{
			ItemID:      p.ItemID,
			Title:       p.Title,
			Sequence:    p.Sequence,
			Requirement: p.Requirement,
			Comfort:     p.Comfort,
			AvgMethod:   p.AvgMethod,
			Grades:      p.Grades,
			Overall:     p.Overall,
			AvgGrades:   p.AvgGrades,
		}
		switch {
		case p.Leaf():
			for _, cr := range p.Criteria {
				score := cr.Score
				if !cr.Graded {
					score = UngradedScore
				}
				wp.Criteria = append(wp.Criteria, &wireCriterion{
					Title:      cr.Title,
					Sequence:   cr.Sequence,
					Categories: cr.Categories,
					Score:      score,
					MaxPoints:  cr.MaxPoints,
					Manual:     cr.Manual,
					Grades:     cr.Grades,
				})
			}
		case IsProblemSetID(p.ItemID):
			if ref := r.registry[p.ItemID]; ref != nil && !seen[p.ItemID] {
				wp.Node = r.wireOf(ref, seen)
			}
		default: // coursework
			if p.Ref != nil && !seen[p.Ref.ItemID] {
				wp.Node = r.wireOf(p.Ref, seen)
			}
		}
		wn.Problems = append(wn.Problems, wp)
	}
	return wn
}

// UnmarshalJSON rebuilds the tree and the base registry. Duplicate inline
// payloads for the same problem-set id collapse onto the first one loaded;
// reference-only slots resolve through the registry at aggregation time.
func (r *Rubric) UnmarshalJSON(data []byte) error {
	var wn wireNode
	if err := json.Unmarshal(data, &wn); err != nil {
		return err
	}
	r.registry = map[string]*Node{}
	r.Root = r.nodeOf(&wn, "")
	return nil
}

func (r *Rubric) nodeOf(wn *wireNode, parent string) *Node {
	if existing, ok := r.registry[wn.ItemID]; ok {
		return existing
	}
	n := &Node{
		ItemID:      wn.ItemID,
		Title:       wn.Title,
		Sequence:    wn.Sequence,
		Requirement: defaultRequirement(wn.Requirement),
		Comfort:     wn.Comfort,
		AvgMethod:   defaultAvgMethod(wn.AvgMethod),
		NumRequired: wn.NumRequired,
		Parent:      parent,
		Grades:      orGrades(wn.Grades),
		Overall:     wn.Overall,
	}
	r.registry[n.ItemID] = n

	for _, wp := range wn.Problems {
		p := &Problem{
			ItemID:      wp.ItemID,
			Title:       wp.Title,
			Sequence:    wp.Sequence,
			Requirement: defaultRequirement(wp.Requirement),
			Comfort:     wp.Comfort,
			AvgMethod:   defaultAvgMethod(wp.AvgMethod),
			Grades:      orGrades(wp.Grades),
			Overall:     wp.Overall,
			AvgGrades:   wp.AvgGrades,
		}
		switch {
		case p.Leaf():
			for _, wc := range wp.Criteria {
				p.Criteria = append(p.Criteria, &Criterion{
					Title:      wc.Title,
					Sequence:   wc.Sequence,
					Categories: wc.Categories,
					Score:      wc.Score,
					MaxPoints:  wc.MaxPoints,
					Graded:     wc.Score != UngradedScore,
					Manual:     wc.Manual,
					Grades:     orGrades(wc.Grades),
				})
			}
			p.sortCriteria()
		default:
			if wp.Node != nil {
				p.Ref = r.nodeOf(wp.Node, n.ItemID)
			} else if IsProblemSetID(p.ItemID) {
				p.Ref = r.registry[p.ItemID]
			}
		}
		n.Problems = append(n.Problems, p)
	}
	return n
}

func orGrades(g map[Category][]int) map[Category][]int {
	if g == nil {
		return map[Category][]int{}
	}
	return g
}
