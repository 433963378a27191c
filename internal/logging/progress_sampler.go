package logging

import "strings"

// ProgressSampler suppresses repetitive batch progress logs while preserving
// signal when the phase changes or completion crosses a percentage bucket.
type ProgressSampler struct {
	bucketSize float64
	lastPhase  string
	lastBucket int
}

// NewProgressSampler constructs a sampler that emits when completion crosses
// bucket boundaries (default 10%) or when the phase changes.
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether progress for done of total tables should be
// logged. A non-positive total means completion is unknown and only phase
// changes emit.
func (s *ProgressSampler) ShouldLog(done, total int, phase string) bool {
	if s == nil {
		return true
	}
	phase = strings.TrimSpace(phase)
	emit := false
	if phase != "" && phase != s.lastPhase {
		s.lastPhase = phase
		s.lastBucket = -1
		emit = true
	}
	percent := CompletionPercent(done, total)
	if percent < 0 {
		return emit
	}
	bucket := int(percent / s.bucketSize)
	if percent >= 100 {
		bucket = int(100 / s.bucketSize)
	}
	if bucket > s.lastBucket {
		s.lastBucket = bucket
		emit = true
	}
	return emit
}

// Reset clears the sampler state before a new batch.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastPhase = ""
	s.lastBucket = -1
}

// CompletionPercent returns done/total as a percentage, or -1 when total is
// unknown.
func CompletionPercent(done, total int) float64 {
	if total <= 0 {
		return -1
	}
	if done < 0 {
		done = 0
	}
	return float64(done) * 100 / float64(total)
}
