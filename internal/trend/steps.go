// Package trend segments benchmark timing series into piecewise-constant
// runs. A run ends wherever the relative change between adjacent points
// exceeds a caller-tuned threshold; every point is then replaced by the mean
// of its run. This is a deliberately simple single-pass heuristic, not a
// changepoint detector with statistical guarantees.
package trend

import (
	"errors"
	"math"

	"github.com/numpex/exa-di-g5k-dashboard/pkg/alg/stats"
)

// epsilon guards the relative-change denominator against division by zero.
const epsilon = 1e-8

// MaxThreshold is the upper bound of the accepted threshold range.
const MaxThreshold = 100.0

// ErrThresholdRange reports a threshold outside (0, 100].
var ErrThresholdRange = errors.New("threshold must be in (0, 100]")

// Segment is a maximal contiguous run of series indices [Start, End)
// represented by the arithmetic mean of the values it covers.
type Segment struct {
	Start int     `json:"start"`
	End   int     `json:"end"`
	Mean  float64 `json:"mean"`
}

// Len returns the number of series points the segment covers.
func (s Segment) Len() int {
	return s.End - s.Start
}

// Segments partitions series into piecewise-constant runs. Scanning left to
// right, a run is closed before index i when the relative change from
// series[i-1] to series[i] exceeds threshold; the final run is closed at the
// end of the scan. Segments cover the series with no gaps or overlaps.
// Returns nil for an empty series.
func Segments(series []float64, threshold float64) []Segment {
	count := len(series)
	if count == 0 {
		return nil
	}

	segments := make([]Segment, 0, 1)
	start := 0

	for i := 1; i < count; i++ {
		if relativeChange(series[i-1], series[i]) > threshold {
			segments = append(segments, closeSegment(series, start, i))
			start = i
		}
	}

	return append(segments, closeSegment(series, start, count))
}

// DetectSteps returns a series of the same length as the input where every
// element is the mean of the segment it belongs to, as computed by
// [Segments]. A constant series comes back unchanged; an empty series yields
// an empty output. The function is pure: identical inputs give identical
// output.
func DetectSteps(series []float64, threshold float64) []float64 {
	stepped := make([]float64, len(series))

	for _, seg := range Segments(series, threshold) {
		for i := seg.Start; i < seg.End; i++ {
			stepped[i] = seg.Mean
		}
	}

	return stepped
}

// ValidateThreshold checks that threshold lies in (0, [MaxThreshold]].
// The detector itself accepts any positive value; interactive surfaces
// reject inputs outside this range.
func ValidateThreshold(threshold float64) error {
	if threshold <= 0 || threshold > MaxThreshold {
		return ErrThresholdRange
	}

	return nil
}

// relativeChange returns |cur - prev| / max(|prev|, epsilon).
func relativeChange(prev, cur float64) float64 {
	return math.Abs(cur-prev) / max(math.Abs(prev), epsilon)
}

func closeSegment(series []float64, start, end int) Segment {
	return Segment{Start: start, End: end, Mean: stats.Mean(series[start:end])}
}
