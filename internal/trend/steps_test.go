package trend

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectSteps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		series    []float64
		threshold float64
		expected  []float64
	}{
		{
			name:      "empty_returns_empty",
			series:    nil,
			threshold: 0.5,
			expected:  []float64{},
		},
		{
			name:      "single_element_is_own_segment",
			series:    []float64{42.0},
			threshold: 0.5,
			expected:  []float64{42.0},
		},
		{
			name:      "constant_series_unchanged",
			series:    []float64{7.0, 7.0, 7.0, 7.0},
			threshold: 0.5,
			expected:  []float64{7.0, 7.0, 7.0, 7.0},
		},
		{
			name:      "two_plateaus_split_at_jump",
			series:    []float64{10, 10, 10, 100, 100, 100},
			threshold: 0.5,
			expected:  []float64{10, 10, 10, 100, 100, 100},
		},
		{
			name:      "threshold_at_max_change_collapses_to_global_mean",
			series:    []float64{10, 10, 10, 100, 100, 100},
			threshold: 9.0,
			expected:  []float64{55, 55, 55, 55, 55, 55},
		},
		{
			name:      "large_threshold_collapses_to_global_mean",
			series:    []float64{10, 10, 10, 100, 100, 100},
			threshold: 50.0,
			expected:  []float64{55, 55, 55, 55, 55, 55},
		},
		{
			name:      "noise_within_threshold_is_averaged",
			series:    []float64{10.0, 10.1, 9.9, 50.0, 50.5},
			threshold: 0.5,
			expected:  []float64{10.0, 10.0, 10.0, 50.25, 50.25},
		},
		{
			name:      "zero_predecessor_always_splits",
			series:    []float64{0.0, 5.0},
			threshold: 100.0,
			expected:  []float64{0.0, 5.0},
		},
		{
			name:      "negative_values_use_absolute_change",
			series:    []float64{-10.0, -5.0, -5.0},
			threshold: 0.4,
			expected:  []float64{-10.0, -5.0, -5.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := DetectSteps(tt.series, tt.threshold)

			require.Len(t, got, len(tt.series))

			if len(tt.expected) == 0 {
				assert.Empty(t, got)

				return
			}

			assert.InDeltaSlice(t, tt.expected, got, 0.0001)
		})
	}
}

func TestDetectStepsOutputLengthMatchesInput(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 2, 3, 10, 257} {
		series := make([]float64, n)
		for i := range series {
			series[i] = float64(i % 7)
		}

		got := DetectSteps(series, 0.3)
		assert.Len(t, got, n)
	}
}

func TestDetectStepsTinyThresholdSplitsEveryChange(t *testing.T) {
	t.Parallel()

	series := []float64{1.0, 2.0, 2.0, 3.0}

	got := DetectSteps(series, math.SmallestNonzeroFloat64)

	// Equal neighbors stay in one run; any difference at all opens a new one,
	// so the stepped series reproduces the input.
	assert.InDeltaSlice(t, series, got, 0.0001)
}

func TestSegmentsPartitionWithoutGapsOrOverlaps(t *testing.T) {
	t.Parallel()

	series := []float64{1, 1, 5, 5, 5, 2, 2, 9}

	segments := Segments(series, 0.5)

	require.NotEmpty(t, segments)
	assert.Equal(t, 0, segments[0].Start)
	assert.Equal(t, len(series), segments[len(segments)-1].End)

	for i := 1; i < len(segments); i++ {
		assert.Equal(t, segments[i-1].End, segments[i].Start)
	}

	total := 0
	for _, seg := range segments {
		total += seg.Len()
	}

	assert.Equal(t, len(series), total)
}

func TestSegmentsBoundariesAndMeans(t *testing.T) {
	t.Parallel()

	segments := Segments([]float64{10, 10, 10, 100, 100, 100}, 0.5)

	require.Len(t, segments, 2)
	assert.Equal(t, Segment{Start: 0, End: 3, Mean: 10}, segments[0])
	assert.Equal(t, Segment{Start: 3, End: 6, Mean: 100}, segments[1])
}

func TestSegmentsEmptySeries(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Segments(nil, 0.5))
}

func TestValidateThreshold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		threshold float64
		wantErr   bool
	}{
		{name: "mid_range_ok", threshold: 30, wantErr: false},
		{name: "small_positive_ok", threshold: 0.5, wantErr: false},
		{name: "upper_bound_ok", threshold: 100, wantErr: false},
		{name: "zero_rejected", threshold: 0, wantErr: true},
		{name: "negative_rejected", threshold: -1, wantErr: true},
		{name: "above_upper_bound_rejected", threshold: 100.1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateThreshold(tt.threshold)

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrThresholdRange)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
