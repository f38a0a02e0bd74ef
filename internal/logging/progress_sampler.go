package logging

// ProgressSampler suppresses repetitive progress logs, emitting only when the
// percentage crosses a bucket boundary or the tracked key changes.
type ProgressSampler struct {
	bucketSize float64
	lastKey    string
	lastBucket int
}

// NewProgressSampler constructs a sampler with the given bucket size in
// percent (default 25).
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 25
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a progress event for key at percent should be
// logged. A negative percent means unknown and only logs on key changes.
func (s *ProgressSampler) ShouldLog(key string, percent float64) bool {
	if s == nil {
		return true
	}
	emit := false
	if key != s.lastKey {
		s.lastKey = key
		s.lastBucket = -1
		emit = true
	}
	if percent >= 0 {
		if percent > 100 {
			percent = 100
		}
		bucket := int(percent / s.bucketSize)
		if bucket > s.lastBucket {
			s.lastBucket = bucket
			emit = true
		}
	}
	return emit
}
