package evaluation

import "strings"

// RecallAtK is the fraction of relevant terms present in the first k
// retrieved ones. Terms compare case-insensitively.
func RecallAtK(relevant, retrieved []string, k int) float64 {
	if len(relevant) == 0 {
		return 0
	}

	want := termSet(relevant)
	found := 0
	for _, term := range topK(retrieved, k) {
		if _, ok := want[strings.ToLower(term)]; ok {
			found++
			delete(want, strings.ToLower(term))
		}
	}
	return float64(found) / float64(len(relevant))
}

// MRRAtK is the reciprocal rank of the first relevant term in the first k
// retrieved ones, or 0 when none is present.
func MRRAtK(relevant, retrieved []string, k int) float64 {
	want := termSet(relevant)
	for i, term := range topK(retrieved, k) {
		if _, ok := want[strings.ToLower(term)]; ok {
			return 1 / float64(i+1)
		}
	}
	return 0
}

func termSet(terms []string) map[string]struct{} {
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[strings.ToLower(t)] = struct{}{}
	}
	return set
}

func topK(items []string, k int) []string {
	if k > 0 && k < len(items) {
		return items[:k]
	}
	return items
}
