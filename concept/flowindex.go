package concept

import (
	"strconv"
	"strings"
)

// CompareFlowIndex orders two dot-delimited hierarchical addresses
// lexicographically by numeric component; a shorter prefix sorts before a
// longer one that extends it.
func CompareFlowIndex(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aerr := strconv.Atoi(as[i])
		bn, berr := strconv.Atoi(bs[i])
		if aerr == nil && berr == nil {
			if an != bn {
				if an < bn {
					return -1
				}
				return 1
			}
			continue
		}
		if as[i] != bs[i] {
			if as[i] < bs[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	default:
		return 0
	}
}

// HasPrefix reports whether flowIndex is equal to prefix or is strictly
// nested under it (prefix followed by a '.' boundary).
func HasPrefix(flowIndex, prefix string) bool {
	if flowIndex == prefix {
		return true
	}
	return strings.HasPrefix(flowIndex, prefix+".")
}
