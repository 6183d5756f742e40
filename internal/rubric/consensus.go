package rubric

// BoolAvg collapses a list of 8-point grades into one consensus grade by
// plurality vote with a drop-worst trim, not by averaging. The second return
// is false when the input is empty ("no data", distinct from a failing 0).
//
// Zero handling is asymmetric on purpose: each zero/ungraded score costs
// exactly one point off the consensus of the remaining scores instead of
// being averaged in proportionally.
func BoolAvg(input []int, numRequired int) (int, bool) {
	return boolAvg(input, numRequired, true)
}

func boolAvg(input []int, numRequired int, excludeZero bool) (int, bool) {
	if len(input) == 0 {
		return 0, false
	}
	if numRequired <= 0 {
		numRequired = len(input)
	}

	scores := make([]int, 0, len(input))
	zeros := 0
	for _, s := range input {
		if s <= 0 {
			zeros++
			continue
		}
		scores = append(scores, s)
	}

	if zeros > 0 && excludeZero {
		g, ok := boolAvg(scores, len(scores), false)
		if !ok {
			return 0, true
		}
		g -= zeros
		if g < 0 {
			return 0, true
		}
		return g, true
	}
	scores = append(scores, make([]int, zeros)...)

	// Drop the single lowest score until only numRequired remain. Ties break
	// by list order.
	for len(scores) > numRequired {
		low := 0
		for i, s := range scores {
			if s < scores[low] {
				low = i
			}
		}
		scores = append(scores[:low], scores[low+1:]...)
	}

	below := func(limit int) int {
		n := 0
		for _, s := range scores {
			if s < limit {
				n++
			}
		}
		return n
	}
	above := func(limit int) int {
		n := 0
		for _, s := range scores {
			if s > limit {
				n++
			}
		}
		return n
	}

	meets := below(7) == 0
	switch {
	case meets && above(7) > 0:
		return 8, true
	case meets:
		return 7, true
	case below(6) == 0:
		return 6, true
	case below(5) == 0: // sufficient, but mixed
		if below(6) < above(5) {
			return 6, true
		}
		return 5, true
	}
	if below(5) <= above(4) {
		return 5, true
	}
	return 4, true
}
