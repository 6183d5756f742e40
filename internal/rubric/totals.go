package rubric

// TotalScores runs the recursive bottom-up aggregation and stores per-node
// category grades and overall consensus grades. It can be called any number
// of times: leaf scores are inputs, never outputs, so re-running is pure with
// respect to entered data. With force=false a fully-populated tree is left
// untouched.
func (r *Rubric) TotalScores(force bool) *Rubric {
	active := map[string]bool{}
	r.totalNode(r.Root, force, active)
	return r
}

func (r *Rubric) totalNode(n *Node, force bool, active map[string]bool) {
	if !force && aggregated(n) {
		return
	}
	active[n.ItemID] = true
	defer delete(active, n.ItemID)

	n.Grades = map[Category][]int{}
	numCompleted := 0
	var choicePool, optionalPool []*Problem

	for _, p := range snapshot(n.Problems) {
		switch {
		case IsProblemSetID(p.ItemID):
			ref := r.registry[p.ItemID]
			if ref == nil {
				r.warn("dropping dangling problem-set reference %s under %s", p.ItemID, n.ItemID)
				n.removeProblem(p.ItemID)
				continue
			}
			if active[p.ItemID] {
				r.warn("dropping cyclic problem-set reference %s under %s", p.ItemID, n.ItemID)
				n.removeProblem(p.ItemID)
				continue
			}
			// Nested sets always recompute: their leaves may have changed.
			r.totalNode(ref, true, active)
			p.Grades = ref.Grades
			p.Overall = ref.Overall
			p.AvgGrades = flattenGrades(ref.Grades)
		case IsCourseworkID(p.ItemID):
			if p.Ref == nil {
				r.warn("dropping coursework slot %s under %s: nothing imported", p.ItemID, n.ItemID)
				n.removeProblem(p.ItemID)
				continue
			}
			// Imported trees were graded by their own pass; the memo guard
			// keeps this from recomputing them.
			r.totalNode(p.Ref, false, active)
			p.Grades = p.Ref.Grades
			p.Overall = p.Ref.Overall
			p.AvgGrades = flattenGrades(p.Ref.Grades)
		default:
			r.scoreLeaf(p)
		}

		switch p.Requirement {
		case Choice:
			choicePool = append(choicePool, p)
		case Optional:
			optionalPool = append(optionalPool, p)
		default:
			mergeOverall(p.Overall, n.Grades)
			numCompleted++
		}
	}

	numRequired := n.NumRequired
	if numRequired <= 0 {
		numRequired = numCompleted + len(choicePool)
	}
	for numCompleted < numRequired {
		best := popBest(&choicePool)
		if best == nil {
			r.warn("choice pool exhausted under %s: %d of %d required", n.ItemID, numCompleted, numRequired)
			break
		}
		mergeOverall(best.Overall, n.Grades)
		numCompleted++
	}

	n.Overall = overallGrades(n.Grades, n.NumRequired)

	// Extra credit: merged only when it beats the standing grade.
	for _, p := range optionalPool {
		if improves(p.Overall, n.Overall) {
			mergeOverall(p.Overall, n.Grades)
			n.Overall = overallGrades(n.Grades, n.NumRequired)
		}
	}
}

// aggregated reports whether a node (and every child summary) already holds
// computed grades, letting TotalScores short-circuit.
func aggregated(n *Node) bool {
	if len(n.Grades) == 0 || len(n.Overall) == 0 {
		return false
	}
	for _, p := range n.Problems {
		if len(p.Grades) == 0 && len(p.Overall) == 0 {
			return false
		}
	}
	return true
}

func snapshot(ps []*Problem) []*Problem {
	out := make([]*Problem, len(ps))
	copy(out, ps)
	return out
}

func (r *Rubric) scoreLeaf(p *Problem) {
	p.Grades = map[Category][]int{}
	p.AvgGrades = nil
	p.meanEarned = map[Category]int{}
	p.meanMax = map[Category]int{}

	for _, cr := range p.Criteria {
		cr.Grades = map[Category][]int{}
		g := criterionGrade(cr, p.Comfort)
		earned := 0
		if cr.Graded && cr.Score > 0 {
			earned = cr.Score
		}
		for _, cat := range cr.Categories {
			cr.Grades[cat] = []int{g}
			p.Grades[cat] = append(p.Grades[cat], g)
			p.AvgGrades = append(p.AvgGrades, g)
			p.meanEarned[cat] += earned
			p.meanMax[cat] += cr.MaxPoints
		}
	}
	p.Overall = p.overall()
}

// criterionGrade maps one criterion to the 8-point scale. Ungraded and zero
// scores become 0 so the consensus zero policy sees them; the scale floor in
// EightPointGrade only applies to real scores.
func criterionGrade(cr *Criterion, comfort ComfortLevel) int {
	if !cr.Graded || cr.Score <= 0 {
		return 0
	}
	return comfortBonus(EightPointGrade(cr.Score, cr.MaxPoints), comfort)
}

// comfortBonus rounds up at the B/A boundary only, for the harder comfort
// levels only.
func comfortBonus(g int, comfort ComfortLevel) int {
	if g == 7 && (comfort == ComfortMore || comfort == ComfortMost) {
		return 8
	}
	return g
}

func (p *Problem) overall() map[Category]int {
	out := map[Category]int{}
	if p.AvgMethod == AvgMean {
		for _, cat := range Categories {
			max, ok := p.meanMax[cat]
			if !ok {
				continue
			}
			mg := 0
			if earned := p.meanEarned[cat]; earned > 0 && max > 0 {
				mg = comfortBonus(EightPointGrade(earned, max), p.Comfort)
			}
			if g, ok := BoolAvg([]int{mg}, 0); ok {
				out[cat] = g
			}
		}
		return out
	}
	for cat, grades := range p.Grades {
		if g, ok := BoolAvg(grades, 0); ok {
			out[cat] = g
		}
	}
	return out
}

func overallGrades(grades map[Category][]int, numRequired int) map[Category]int {
	out := map[Category]int{}
	for cat, gs := range grades {
		if g, ok := BoolAvg(gs, numRequired); ok {
			out[cat] = g
		}
	}
	return out
}

// mergeOverall folds a child's per-category overall grades into a parent's
// grade lists.
func mergeOverall(src map[Category]int, dst map[Category][]int) {
	for _, cat := range Categories {
		if g, ok := src[cat]; ok {
			dst[cat] = append(dst[cat], g)
		}
	}
}

// popBest removes and returns the choice-pool entry with the highest
// consensus of its own grades. Ties keep the earliest entry.
func popBest(pool *[]*Problem) *Problem {
	if len(*pool) == 0 {
		return nil
	}
	bestIdx := 0
	bestScore := poolScore((*pool)[0])
	for i := 1; i < len(*pool); i++ {
		if s := poolScore((*pool)[i]); s > bestScore {
			bestIdx, bestScore = i, s
		}
	}
	best := (*pool)[bestIdx]
	*pool = append((*pool)[:bestIdx], (*pool)[bestIdx+1:]...)
	return best
}

func poolScore(p *Problem) int {
	g, ok := BoolAvg(p.AvgGrades, 0)
	if !ok {
		return -1
	}
	return g
}

func improves(candidate, current map[Category]int) bool {
	for cat, g := range candidate {
		cur, ok := current[cat]
		if !ok || g > cur {
			return true
		}
	}
	return false
}

func flattenGrades(grades map[Category][]int) []int {
	var out []int
	for _, cat := range Categories {
		out = append(out, grades[cat]...)
	}
	return out
}
