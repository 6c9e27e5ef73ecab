package score

// jaroWinkler computes the Jaro-Winkler similarity of s1 and s2 in [0,1].
//
// No ecosystem Jaro-Winkler package turned up anywhere in the retrieval
// pack (only github.com/agnivade/levenshtein recurs, which covers edit
// distance, not this metric) — see DESIGN.md for the standard-library
// justification. This is the classic Winkler 1990 formulation: Jaro
// similarity plus a bonus for a shared prefix (capped at 4 chars, scale
// 0.1).
func jaroWinkler(s1, s2 string) float64 {
	j := jaro(s1, s2)
	if j <= 0 {
		return j
	}

	prefix := 0
	maxPrefix := 4
	r1, r2 := []rune(s1), []rune(s2)
	for i := 0; i < maxPrefix && i < len(r1) && i < len(r2); i++ {
		if r1[i] != r2[i] {
			break
		}
		prefix++
	}

	const scalingFactor = 0.1
	return j + float64(prefix)*scalingFactor*(1-j)
}

func jaro(s1, s2 string) float64 {
	r1, r2 := []rune(s1), []rune(s2)
	len1, len2 := len(r1), len(r2)
	if len1 == 0 && len2 == 0 {
		return 1
	}
	if len1 == 0 || len2 == 0 {
		return 0
	}

	matchDistance := max(len1, len2)/2 - 1
	if matchDistance < 0 {
		matchDistance = 0
	}

	s1Matches := make([]bool, len1)
	s2Matches := make([]bool, len2)

	matches := 0
	for i := 0; i < len1; i++ {
		start := max(0, i-matchDistance)
		end := min(i+matchDistance+1, len2)
		for j := start; j < end; j++ {
			if s2Matches[j] || r1[i] != r2[j] {
				continue
			}
			s1Matches[i] = true
			s2Matches[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}

	transpositions := 0
	k := 0
	for i := 0; i < len1; i++ {
		if !s1Matches[i] {
			continue
		}
		for !s2Matches[k] {
			k++
		}
		if r1[i] != r2[k] {
			transpositions++
		}
		k++
	}
	transpositions /= 2

	m := float64(matches)
	return (m/float64(len1) + m/float64(len2) + (m-float64(transpositions))/m) / 3
}
