package navigation

import "math"

// PartialRatio scores from 0 to 100 how well the shorter string matches the
// best aligned substring of the longer one.
func PartialRatio(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		if len(rb) == 0 {
			return 100
		}
		return 0
	}

	best := 0.0
	for start := 0; start+len(ra) <= len(rb); start++ {
		r := ratio(ra, rb[start:start+len(ra)])
		if r > best {
			best = r
			if best == 1 {
				break
			}
		}
	}
	return int(math.Round(best * 100))
}

// ratio is 2*LCS/(len(a)+len(b)).
func ratio(a, b []rune) float64 {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return 2 * float64(prev[len(b)]) / float64(len(a)+len(b))
}
