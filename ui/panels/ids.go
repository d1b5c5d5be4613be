package panels

import (
	"strconv"
	"strings"
)

// idLess orders polygon ids field by field on '-': numeric fields compare
// as numbers and sort before words, so polygon-2 < polygon-10 and a slice
// result polygon-3-a follows polygon-3.
func idLess(a, b string) bool {
	fa, fb := strings.Split(a, "-"), strings.Split(b, "-")
	for i := 0; i < len(fa) && i < len(fb); i++ {
		na, errA := strconv.Atoi(fa[i])
		nb, errB := strconv.Atoi(fb[i])
		switch {
		case errA == nil && errB == nil:
			if na != nb {
				return na < nb
			}
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			if c := strings.Compare(strings.ToLower(fa[i]), strings.ToLower(fb[i])); c != 0 {
				return c < 0
			}
		}
	}
	return len(fa) < len(fb)
}
