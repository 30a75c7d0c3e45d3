package scoring

// applyPriorities min-max normalizes densities to [0, 100] within each scope
// group, in place. A degenerate group (max == min, including all-empty) maps
// every segment to 0 rather than erroring; the count of degenerate groups is
// returned for diagnostics so flat data is distinguishable from a failed run.
func applyPriorities(segments []ScoredSegment, scope Scope) int {
	groups := make(map[string][]int)
	for i := range segments {
		key := scopeKey(&segments[i], scope)
		groups[key] = append(groups[key], i)
	}

	degenerate := 0
	for _, idxs := range groups {
		minD, maxD := segments[idxs[0]].Density, segments[idxs[0]].Density
		for _, i := range idxs[1:] {
			d := segments[i].Density
			if d < minD {
				minD = d
			}
			if d > maxD {
				maxD = d
			}
		}

		if maxD <= minD {
			for _, i := range idxs {
				segments[i].Priority = 0
			}
			degenerate++
			continue
		}

		span := maxD - minD
		for _, i := range idxs {
			segments[i].Priority = 100 * (segments[i].Density - minD) / span
		}
	}

	return degenerate
}

func scopeKey(seg *ScoredSegment, scope Scope) string {
	switch scope {
	case ScopePerUF:
		return string(seg.UF)
	case ScopePerHighway:
		return string(seg.UF) + "|" + seg.Highway
	default:
		return ""
	}
}
