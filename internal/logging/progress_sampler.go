package logging

import "strings"

// ProgressSampler decides which progress updates are worth a log line. A
// line is emitted when the phase changes or the percentage enters a new
// bucket; everything in between is dropped.
type ProgressSampler struct {
	bucketSize float64
	lastPhase  string
	lastBucket int
}

const defaultProgressBucket = 10

func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = defaultProgressBucket
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether the update deserves a line. A negative percent
// means progress is unknown, so only a phase change can trigger output.
// A nil sampler logs everything.
func (s *ProgressSampler) ShouldLog(percent float64, phase string) bool {
	if s == nil {
		return true
	}
	changed := s.enterPhase(strings.TrimSpace(phase))
	if percent < 0 {
		return changed
	}
	bucket := int(min(percent, 100) / s.bucketSize)
	if bucket <= s.lastBucket {
		return changed
	}
	s.lastBucket = bucket
	return true
}

func (s *ProgressSampler) enterPhase(phase string) bool {
	if phase == "" || phase == s.lastPhase {
		return false
	}
	s.lastPhase = phase
	s.lastBucket = -1
	return true
}

// Reset forgets the last phase and bucket.
func (s *ProgressSampler) Reset() {
	if s != nil {
		*s = ProgressSampler{bucketSize: s.bucketSize, lastBucket: -1}
	}
}
