// Package stats computes summary statistics over a full benchmark run.
package stats

import (
	"sort"
	"time"

	"voiceload/internal/core"
)

// Summary aggregates every recorded row of a run.
type Summary struct {
	TotalRequests  int
	CompletedCount int
	CompletionRate float64 // completed / total, 0..1
	Sessions       int     // distinct session indices that produced rows
	Span           time.Duration
	Throughput     float64 // completed requests per second over Span

	// Text and Audio are nil when the corresponding metric has no samples.
	Text  *Distribution
	Audio *Distribution
}

// Distribution holds latency statistics for one metric.
type Distribution struct {
	Count int
	Mean  time.Duration
	Min   time.Duration
	Max   time.Duration
	P50   time.Duration
	P90   time.Duration
	P95   time.Duration
	P99   time.Duration
}

// Compute builds a Summary from the complete record set. Pure function, no
// side effects. Records missing one metric simply do not contribute to that
// metric's distribution.
func Compute(records []core.Record) *Summary {
	s := &Summary{TotalRequests: len(records)}
	if len(records) == 0 {
		return s
	}

	var textDelays, audioDelays []time.Duration
	var minStart, maxArrival time.Time
	sessions := make(map[int]struct{})

	for _, r := range records {
		sessions[r.SessionIndex] = struct{}{}
		if r.Completed {
			s.CompletedCount++
		}
		if minStart.IsZero() || r.Start.Before(minStart) {
			minStart = r.Start
		}
		if d, ok := r.TextDelay(); ok {
			textDelays = append(textDelays, d)
			if r.TextFirst.After(maxArrival) {
				maxArrival = r.TextFirst
			}
		}
		if d, ok := r.AudioDelay(); ok {
			audioDelays = append(audioDelays, d)
			if r.AudioFirst.After(maxArrival) {
				maxArrival = r.AudioFirst
			}
		}
	}

	s.Sessions = len(sessions)
	s.CompletionRate = float64(s.CompletedCount) / float64(s.TotalRequests)
	s.Text = ComputeDistribution(textDelays)
	s.Audio = ComputeDistribution(audioDelays)

	// Wall-clock span runs from the earliest submission to the latest
	// first-arrival on either channel.
	if !maxArrival.IsZero() && maxArrival.After(minStart) {
		s.Span = maxArrival.Sub(minStart)
		s.Throughput = float64(s.CompletedCount) / s.Span.Seconds()
	}

	return s
}

// Percentile calculates the percentile value from a sorted slice of delays
// using linear interpolation at rank p*(n-1). The percentile p should be
// between 0 and 1 (e.g., 0.95 for p95). The slice must be sorted ascending.
func Percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}

	rank := p * float64(len(sorted)-1)
	lo := int(rank)
	if lo+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + time.Duration(frac*float64(sorted[lo+1]-sorted[lo]))
}

// ComputeDistribution calculates all statistics for one metric's samples.
// Returns nil when there are no samples rather than a zeroed struct, so
// callers can tell "no data" apart from "all zeros".
func ComputeDistribution(delays []time.Duration) *Distribution {
	if len(delays) == 0 {
		return nil
	}

	sorted := make([]time.Duration, len(delays))
	copy(sorted, delays)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	var total time.Duration
	for _, d := range sorted {
		total += d
	}

	return &Distribution{
		Count: len(sorted),
		Mean:  total / time.Duration(len(sorted)),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		P50:   Percentile(sorted, 0.50),
		P90:   Percentile(sorted, 0.90),
		P95:   Percentile(sorted, 0.95),
		P99:   Percentile(sorted, 0.99),
	}
}
