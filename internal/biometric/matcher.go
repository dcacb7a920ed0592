package biometric

import (
	"image"
	"math"
)

// DefaultThreshold is the acceptance score below which a capture is treated as
// not recognized. Calibrated against the deployed scanner hardware; change only
// with new calibration data.
const DefaultThreshold = 0.36

// Template is one enrolled person's reference image. Immutable after
// enrollment; the matcher only reads it.
type Template struct {
	PersonID string
	Image    *image.Gray
}

// Result is the outcome of matching one capture against a roster.
// When Matched is false, Score still carries the best score seen (negative
// infinity for an empty roster) for diagnostics.
type Result struct {
	Matched  bool
	PersonID string
	Score    float64
	Skipped  int
}

// Matcher scores a capture against every enrolled template and applies a fixed
// acceptance threshold.
type Matcher struct {
	Threshold float64
	BlockSize int
}

// NewMatcher returns a matcher with the given threshold, falling back to the
// calibrated defaults when zero values are passed.
func NewMatcher(threshold float64, blockSize int) *Matcher {
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Matcher{Threshold: threshold, BlockSize: blockSize}
}

// Match runs a linear scan over the roster. Ties resolve to the template that
// appears first in roster order, which keeps the decision deterministic.
// Templates whose dimensions don't match the capture are skipped, never fatal
// to the whole attempt.
func (m *Matcher) Match(capture *image.Gray, roster []Template) Result {
	best := Result{Score: math.Inf(-1)}
	for _, tpl := range roster {
		score, err := Score(capture, tpl.Image, m.BlockSize)
		if err != nil {
			best.Skipped++
			continue
		}
		if score > best.Score {
			best.Score = score
			best.PersonID = tpl.PersonID
		}
	}
	if best.Score >= m.Threshold {
		best.Matched = true
	} else {
		best.PersonID = ""
	}
	return best
}
