package healthdata

import (
	"math"
	"slices"
	"time"
)

// AverageHeartRate returns round(sum/count). ok is false when there are no
// samples, so callers can tell "no data" from a real reading.
func AverageHeartRate(samples []RawSample) (avg int64, ok bool) {
	if len(samples) == 0 {
		return 0, false
	}
	var sum float64
	for _, s := range samples {
		sum += s.Value
	}
	return int64(math.Round(sum / float64(len(samples)))), true
}

// SleepOptions controls how sleep intervals are totalled.
type SleepOptions struct {
	// MergeOverlaps unions overlapping intervals before summing. When false,
	// overlapping samples are counted twice.
	MergeOverlaps bool
}

// SleepMinutes sums (End - Start) over every sample in minutes. A sample
// ending before it starts contributes nothing; the normalizer logs such
// samples when they arrive.
func SleepMinutes(samples []RawSample, opts SleepOptions) float64 {
	if opts.MergeOverlaps {
		samples = mergeIntervals(samples)
	}
	var total time.Duration
	for _, s := range samples {
		if d := s.End.Sub(s.Start); d > 0 {
			total += d
		}
	}
	return total.Minutes()
}

// TotalSleepHours is SleepMinutes / 60.
func TotalSleepHours(samples []RawSample, opts SleepOptions) float64 {
	return SleepMinutes(samples, opts) / 60
}

// SleepBounds returns the earliest start and latest end across samples.
func SleepBounds(samples []RawSample) (start, end time.Time, ok bool) {
	if len(samples) == 0 {
		return time.Time{}, time.Time{}, false
	}
	start, end = samples[0].Start, samples[0].End
	for _, s := range samples[1:] {
		if s.Start.Before(start) {
			start = s.Start
		}
		if s.End.After(end) {
			end = s.End
		}
	}
	return start, end, true
}

func mergeIntervals(samples []RawSample) []RawSample {
	if len(samples) < 2 {
		return samples
	}
	sorted := slices.Clone(samples)
	slices.SortFunc(sorted, func(a, b RawSample) int { return a.Start.Compare(b.Start) })

	merged := []RawSample{sorted[0]}
	for _, s := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !s.Start.After(last.End) {
			if s.End.After(last.End) {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}
