package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// FormatText writes the summary in human-readable format.
func FormatText(w io.Writer, s *Summary) {
	if s.TotalRequests == 0 {
		fmt.Fprintln(w, "No requests recorded")
		return
	}

	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "voiceload - Benchmark Results")
	fmt.Fprintln(w, "==============================")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Total Requests:  %d\n", s.TotalRequests)
	fmt.Fprintf(w, "Completed:       %d (%.1f%%)\n", s.CompletedCount, s.CompletionRate*100)
	fmt.Fprintf(w, "Sessions:        %d\n", s.Sessions)
	if s.Span > 0 {
		fmt.Fprintf(w, "Span:            %v\n", s.Span.Round(time.Millisecond))
		fmt.Fprintf(w, "Throughput:      %.2f req/s\n", s.Throughput)
	}

	writeDistribution(w, "Text First-Packet Latency", s.Text)
	writeDistribution(w, "Audio First-Packet Latency", s.Audio)
}

func writeDistribution(w io.Writer, name string, d *Distribution) {
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "%s:\n", name)
	if d == nil {
		fmt.Fprintln(w, "  no samples")
		return
	}
	fmt.Fprintf(w, "  Count:  %d\n", d.Count)
	fmt.Fprintf(w, "  Mean:   %s\n", FormatDuration(d.Mean))
	fmt.Fprintf(w, "  Min:    %s\n", FormatDuration(d.Min))
	fmt.Fprintf(w, "  P50:    %s\n", FormatDuration(d.P50))
	fmt.Fprintf(w, "  P90:    %s\n", FormatDuration(d.P90))
	fmt.Fprintf(w, "  P95:    %s\n", FormatDuration(d.P95))
	fmt.Fprintf(w, "  P99:    %s\n", FormatDuration(d.P99))
	fmt.Fprintf(w, "  Max:    %s\n", FormatDuration(d.Max))
}

// FormatJSON writes the summary in JSON format.
func FormatJSON(w io.Writer, s *Summary) {
	output := struct {
		TotalRequests  int               `json:"totalRequests"`
		CompletedCount int               `json:"completedCount"`
		CompletionRate float64           `json:"completionRate"`
		Sessions       int               `json:"sessions"`
		SpanMs         int64             `json:"spanMs"`
		Throughput     float64           `json:"throughput"`
		Text           *jsonDistribution `json:"text,omitempty"`
		Audio          *jsonDistribution `json:"audio,omitempty"`
	}{
		TotalRequests:  s.TotalRequests,
		CompletedCount: s.CompletedCount,
		CompletionRate: s.CompletionRate,
		Sessions:       s.Sessions,
		SpanMs:         s.Span.Milliseconds(),
		Throughput:     s.Throughput,
		Text:           toJSONDistribution(s.Text),
		Audio:          toJSONDistribution(s.Audio),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(output) // stdout errors are unrecoverable
}

type jsonDistribution struct {
	Count  int     `json:"count"`
	MeanMs float64 `json:"meanMs"`
	MinMs  float64 `json:"minMs"`
	MaxMs  float64 `json:"maxMs"`
	P50Ms  float64 `json:"p50Ms"`
	P90Ms  float64 `json:"p90Ms"`
	P95Ms  float64 `json:"p95Ms"`
	P99Ms  float64 `json:"p99Ms"`
}

func toJSONDistribution(d *Distribution) *jsonDistribution {
	if d == nil {
		return nil
	}
	return &jsonDistribution{
		Count:  d.Count,
		MeanMs: millis(d.Mean),
		MinMs:  millis(d.Min),
		MaxMs:  millis(d.Max),
		P50Ms:  millis(d.P50),
		P90Ms:  millis(d.P90),
		P95Ms:  millis(d.P95),
		P99Ms:  millis(d.P99),
	}
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}
