package textutil

// TokenOverlap scores two token lists as |intersection| / max(|a|, |b|) over
// unique tokens. Returns 0 when either side is empty.
func TokenOverlap(a, b []string) float64 {
	setA := uniqueTokens(a)
	setB := uniqueTokens(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	shared := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			shared++
		}
	}
	if shared == 0 {
		return 0
	}
	return float64(shared) / float64(max(len(setA), len(setB)))
}

func uniqueTokens(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		if token == "" {
			continue
		}
		set[token] = struct{}{}
	}
	return set
}
