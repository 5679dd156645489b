package main

import (
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"time"
)

// modeStats collects the outcome of every request sent in one ranking mode.
type modeStats struct {
	mu          sync.Mutex
	latencies   []time.Duration
	statusCodes map[int]int
	failures    int
	zeroResults int
}

func newModeStats() *modeStats {
	return &modeStats{
		latencies:   make([]time.Duration, 0, 1<<14),
		statusCodes: make(map[int]int),
	}
}

// record adds one request. status 0 means the request never got a response.
func (s *modeStats) record(d time.Duration, status int, returned int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		s.failures++
		return
	}
	s.statusCodes[status]++
	s.latencies = append(s.latencies, d)
	if status == 200 && returned == 0 {
		s.zeroResults++
	}
}

// summary is the printable digest of a modeStats.
type summary struct {
	Requests    int
	Failures    int
	ZeroResults int
	Min, Max    time.Duration
	Mean        time.Duration
	P50, P95    time.Duration
	P99         time.Duration
	StdDev      time.Duration
	StatusCodes map[int]int
}

func (s *modeStats) summarize() summary {
	s.mu.Lock()
	latencies := append([]time.Duration(nil), s.latencies...)
	codes := make(map[int]int, len(s.statusCodes))
	for code, n := range s.statusCodes {
		codes[code] = n
	}
	out := summary{Failures: s.failures, ZeroResults: s.zeroResults, StatusCodes: codes}
	s.mu.Unlock()

	out.Requests = len(latencies) + out.Failures
	if len(latencies) == 0 {
		return out
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	out.Mean = sum / time.Duration(len(latencies))
	var sq float64
	for _, l := range latencies {
		d := float64(l - out.Mean)
		sq += d * d
	}
	out.StdDev = time.Duration(math.Sqrt(sq / float64(len(latencies))))
	out.Min = latencies[0]
	out.Max = latencies[len(latencies)-1]
	out.P50 = percentile(latencies, 50)
	out.P95 = percentile(latencies, 95)
	out.P99 = percentile(latencies, 99)
	return out
}

func (s summary) print(w io.Writer, mode string, elapsed time.Duration) {
	fmt.Fprintf(w, "=== %s ===\n", mode)
	fmt.Fprintf(w, "Requests:     %d (%.1f/s)\n", s.Requests, float64(s.Requests)/elapsed.Seconds())
	fmt.Fprintf(w, "Failures:     %d\n", s.Failures)
	fmt.Fprintf(w, "Zero results: %d\n", s.ZeroResults)
	if s.Requests > s.Failures {
		fmt.Fprintf(w, "Latency:      min %s  mean %s  p50 %s  p95 %s  p99 %s  max %s  stddev %s\n",
			s.Min, s.Mean, s.P50, s.P95, s.P99, s.Max, s.StdDev)
	}
	codes := make([]int, 0, len(s.StatusCodes))
	for code := range s.StatusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Fprintf(w, "  %d: %d\n", code, s.StatusCodes[code])
	}
	fmt.Fprintln(w)
}

// percentile uses the nearest-rank method on an ascending slice.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}
