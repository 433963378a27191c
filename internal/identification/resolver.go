package identification

import (
	"strings"

	"vpxmerge/internal/textutil"
)

// Stage names the resolver step that produced a match.
type Stage string

const (
	StageExact        Stage = "exact"
	StageTokenOverlap Stage = "token_overlap"
	StageSubstring    Stage = "substring"
	// StageOverride marks a match pinned by the user rather than scored.
	StageOverride Stage = "override"
)

const (
	DefaultThreshold          = 0.5
	DefaultMinReferenceKeyLen = 3
)

// MatchResult describes an accepted resolution.
type MatchResult struct {
	ReferenceID  string  `json:"reference_id"`
	Score        float64 `json:"score"`
	MatchedKey   string  `json:"matched_key"`
	CandidateKey string  `json:"candidate_key"`
	Stage        Stage   `json:"stage"`
}

// Resolver scores candidate keys against an Index. The zero value uses the
// default threshold and minimum key length.
type Resolver struct {
	Threshold          float64
	MinReferenceKeyLen int
}

// NewResolver returns a resolver with the given threshold; values outside
// (0, 1] fall back to DefaultThreshold.
func NewResolver(threshold float64) Resolver {
	return Resolver{Threshold: threshold}.withDefaults()
}

func (r Resolver) withDefaults() Resolver {
	if r.Threshold <= 0 || r.Threshold > 1 {
		r.Threshold = DefaultThreshold
	}
	if r.MinReferenceKeyLen <= 0 {
		r.MinReferenceKeyLen = DefaultMinReferenceKeyLen
	}
	return r
}

type resolveStage struct {
	name Stage
	run  func(r Resolver, cands []keyTokens, refs []keyTokens, idx *Index) (MatchResult, bool)
}

// resolveStages run in order; the first stage to accept wins.
var resolveStages = []resolveStage{
	{StageExact, exactStage},
	{StageTokenOverlap, tokenOverlapStage},
	{StageSubstring, substringStage},
}

type keyTokens struct {
	key    string
	tokens []string
	id     string
}

// Resolve returns the best reference for the candidates, or false when no
// stage accepts. Ties resolve to the first candidate, then the first index
// entry, reaching the winning score.
func (r Resolver) Resolve(candidates []string, idx *Index) (MatchResult, bool) {
	return r.run(resolveStages, candidates, idx)
}

// ResolveTokenOverlap runs the token-overlap stage alone.
func (r Resolver) ResolveTokenOverlap(candidates []string, idx *Index) (MatchResult, bool) {
	return r.run(resolveStages[1:2], candidates, idx)
}

func (r Resolver) run(stages []resolveStage, candidates []string, idx *Index) (MatchResult, bool) {
	if idx.Len() == 0 || len(candidates) == 0 {
		return MatchResult{}, false
	}
	r = r.withDefaults()
	cands := candidateTokens(candidates)
	refs := referenceTokens(idx, r.MinReferenceKeyLen)
	for _, stage := range stages {
		if result, ok := stage.run(r, cands, refs, idx); ok {
			result.Stage = stage.name
			return result, true
		}
	}
	return MatchResult{}, false
}

func candidateTokens(candidates []string) []keyTokens {
	out := make([]keyTokens, 0, len(candidates))
	for _, candidate := range candidates {
		key := textutil.FoldKey(candidate)
		if key == "" {
			continue
		}
		out = append(out, keyTokens{key: key, tokens: textutil.Tokenize(key)})
	}
	return out
}

func referenceTokens(idx *Index, minLen int) []keyTokens {
	out := make([]keyTokens, 0, idx.Len())
	for pos, key := range idx.keys {
		if len(key) < minLen {
			continue
		}
		out = append(out, keyTokens{key: key, tokens: textutil.Tokenize(key), id: idx.ids[pos]})
	}
	return out
}

func exactStage(_ Resolver, cands []keyTokens, _ []keyTokens, idx *Index) (MatchResult, bool) {
	for _, cand := range cands {
		if id, ok := idx.Lookup(cand.key); ok {
			return MatchResult{ReferenceID: id, Score: 1, MatchedKey: cand.key, CandidateKey: cand.key}, true
		}
	}
	return MatchResult{}, false
}

func tokenOverlapStage(r Resolver, cands []keyTokens, refs []keyTokens, _ *Index) (MatchResult, bool) {
	return bestPair(r, cands, refs, func(cand, ref keyTokens) float64 {
		return textutil.TokenOverlap(cand.tokens, ref.tokens)
	})
}

func substringStage(r Resolver, cands []keyTokens, refs []keyTokens, _ *Index) (MatchResult, bool) {
	return bestPair(r, cands, refs, func(cand, ref keyTokens) float64 {
		if len(cand.tokens) != 1 || len(ref.tokens) != 1 {
			return 0
		}
		return containment(cand.key, ref.key)
	})
}

// containment scores a key contained in the other by the ratio of their
// lengths.
func containment(a, b string) float64 {
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	if short == "" || !strings.Contains(long, short) {
		return 0
	}
	return float64(len(short)) / float64(len(long))
}

func bestPair(r Resolver, cands []keyTokens, refs []keyTokens, score func(cand, ref keyTokens) float64) (MatchResult, bool) {
	var best MatchResult
	found := false
	for _, cand := range cands {
		for _, ref := range refs {
			s := score(cand, ref)
			if s <= 0 || (found && s <= best.Score) {
				continue
			}
			best = MatchResult{ReferenceID: ref.id, Score: s, MatchedKey: ref.key, CandidateKey: cand.key}
			found = true
		}
	}
	if !found || best.Score < r.Threshold {
		return MatchResult{}, false
	}
	return best, true
}
