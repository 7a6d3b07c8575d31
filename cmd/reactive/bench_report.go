package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"runtime/metrics"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/vango-dev/reactive/pkg/reactive"
)

// heapCounters are cumulative allocation counters from runtime/metrics.
type heapCounters struct {
	bytes   uint64
	objects uint64
	cycles  uint64
}

var heapSamples = [...]string{
	"/gc/heap/allocs:bytes",
	"/gc/heap/allocs:objects",
	"/gc/cycles/total:gc-cycles",
}

func readHeapCounters() heapCounters {
	samples := make([]metrics.Sample, len(heapSamples))
	for i, name := range heapSamples {
		samples[i].Name = name
	}
	metrics.Read(samples)

	var values [len(heapSamples)]uint64
	for i, s := range samples {
		if s.Value.Kind() == metrics.KindUint64 {
			values[i] = s.Value.Uint64()
		}
	}
	return heapCounters{bytes: values[0], objects: values[1], cycles: values[2]}
}

// percentile picks the nearest-rank sample from sorted.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p * float64(len(sorted))))
	return sorted[min(max(rank, 1), len(sorted))-1]
}

func us(d time.Duration) float64 {
	return float64(d) / float64(time.Microsecond)
}

type benchReport struct {
	Version    string             `json:"version"`
	Run        runInfo            `json:"run"`
	Workload   workloadInfo       `json:"workload"`
	LatencyUS  latencyInfo        `json:"latency_us"`
	Throughput throughputInfo     `json:"throughput"`
	Graph      graphInfo          `json:"graph"`
	Alloc      allocInfo          `json:"alloc"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

type runInfo struct {
	Timestamp string `json:"timestamp"`
	Go        string `json:"go"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPUCount  int    `json:"cpu_count"`
}

type workloadInfo struct {
	Profile     string `json:"profile"`
	Description string `json:"description"`
	Iterations  int    `json:"iterations"`
	Width       int    `json:"width"`
	Depth       int    `json:"depth"`
	Nodes       int    `json:"nodes"`
}

type latencyInfo struct {
	Min float64 `json:"min"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

type throughputInfo struct {
	DurationMS   float64 `json:"duration_ms"`
	WritesPerSec float64 `json:"writes_per_sec"`
}

type graphInfo struct {
	Writes             uint64  `json:"writes"`
	Flushes            uint64  `json:"flushes"`
	EffectRuns         uint64  `json:"effect_runs"`
	Recomputes         uint64  `json:"recomputes"`
	EffectRunsPerWrite float64 `json:"effect_runs_per_write"`
	RecomputesPerWrite float64 `json:"recomputes_per_write"`
	Glitches           int     `json:"glitches"`
}

// allocInfo is process-wide; the runtime does not attribute allocations to
// the graph.
type allocInfo struct {
	BytesPerWrite   float64 `json:"bytes_per_write"`
	ObjectsPerWrite float64 `json:"objects_per_write"`
	GCCycles        uint64  `json:"gc_cycles"`
}

type benchSample struct {
	profile     profile
	params      benchParams
	graph       *benchGraph
	elapsed     time.Duration
	latencies   []time.Duration
	statsBefore reactive.Stats
	statsAfter  reactive.Stats
	heapBefore  heapCounters
	heapAfter   heapCounters
}

// buildReport expects s.latencies to be sorted.
func buildReport(s benchSample) benchReport {
	iterations := len(s.latencies)

	latency := latencyInfo{}
	if iterations > 0 {
		latency = latencyInfo{
			Min: us(s.latencies[0]),
			P50: us(percentile(s.latencies, 0.50)),
			P95: us(percentile(s.latencies, 0.95)),
			P99: us(percentile(s.latencies, 0.99)),
			Max: us(s.latencies[iterations-1]),
		}
	}

	elapsedSeconds := math.Max(0.000001, s.elapsed.Seconds())

	graph := graphInfo{
		Writes:     s.statsAfter.Writes - s.statsBefore.Writes,
		Flushes:    s.statsAfter.Flushes - s.statsBefore.Flushes,
		EffectRuns: s.statsAfter.EffectRuns - s.statsBefore.EffectRuns,
		Recomputes: s.statsAfter.Recomputes - s.statsBefore.Recomputes,
		Glitches:   s.graph.glitches(),
	}
	alloc := allocInfo{GCCycles: s.heapAfter.cycles - s.heapBefore.cycles}
	if iterations > 0 {
		graph.EffectRunsPerWrite = float64(graph.EffectRuns) / float64(iterations)
		graph.RecomputesPerWrite = float64(graph.Recomputes) / float64(iterations)
		alloc.BytesPerWrite = float64(s.heapAfter.bytes-s.heapBefore.bytes) / float64(iterations)
		alloc.ObjectsPerWrite = float64(s.heapAfter.objects-s.heapBefore.objects) / float64(iterations)
	}

	return benchReport{
		Version: "1",
		Run: runInfo{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Go:        runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			CPUCount:  runtime.NumCPU(),
		},
		Workload: workloadInfo{
			Profile:     s.profile.Name,
			Description: s.profile.Description,
			Iterations:  iterations,
			Width:       s.params.Width,
			Depth:       s.params.Depth,
			Nodes:       s.graph.nodes,
		},
		LatencyUS: latency,
		Throughput: throughputInfo{
			DurationMS:   s.elapsed.Seconds() * 1000,
			WritesPerSec: float64(iterations) / elapsedSeconds,
		},
		Graph: graph,
		Alloc: alloc,
	}
}

// gatherMetrics flattens counters and histogram sample counts into
// name{labels} keys.
func gatherMetrics(g prometheus.Gatherer) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				out[mf.GetName()+labelSuffix(m)] += m.GetCounter().GetValue()
			case dto.MetricType_HISTOGRAM:
				out[mf.GetName()+"_count"+labelSuffix(m)] += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out, nil
}

func labelSuffix(m *dto.Metric) string {
	labels := m.GetLabel()
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func writeSummary(w io.Writer, report benchReport) {
	fmt.Fprintln(w, "=== Reactive Propagation Benchmark ===")
	fmt.Fprintf(w, "Profile: %s (%s)\n", report.Workload.Profile, report.Workload.Description)
	fmt.Fprintf(w, "Graph: %d nodes (width %d, depth %d)\n", report.Workload.Nodes, report.Workload.Width, report.Workload.Depth)
	fmt.Fprintf(w, "Iterations: %d\n", report.Workload.Iterations)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Duration: %.2f ms\n", report.Throughput.DurationMS)
	fmt.Fprintf(w, "Throughput: %.1f writes/s\n", report.Throughput.WritesPerSec)
	fmt.Fprintln(w)

	if report.LatencyUS.Max == 0 {
		fmt.Fprintln(w, "No latency samples recorded.")
	} else {
		fmt.Fprintln(w, "Write latency (set -> flush complete):")
		fmt.Fprintf(w, "  min: %.2f µs\n", report.LatencyUS.Min)
		fmt.Fprintf(w, "  p50: %.2f µs\n", report.LatencyUS.P50)
		fmt.Fprintf(w, "  p95: %.2f µs\n", report.LatencyUS.P95)
		fmt.Fprintf(w, "  p99: %.2f µs\n", report.LatencyUS.P99)
		fmt.Fprintf(w, "  max: %.2f µs\n", report.LatencyUS.Max)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Propagation:")
	fmt.Fprintf(w, "  writes:       %d\n", report.Graph.Writes)
	fmt.Fprintf(w, "  flushes:      %d\n", report.Graph.Flushes)
	fmt.Fprintf(w, "  effects/write:    %.2f\n", report.Graph.EffectRunsPerWrite)
	fmt.Fprintf(w, "  recomputes/write: %.2f\n", report.Graph.RecomputesPerWrite)
	fmt.Fprintf(w, "  glitches:     %d\n", report.Graph.Glitches)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Allocation (process-wide):")
	fmt.Fprintf(w, "  bytes/write:   %.1f\n", report.Alloc.BytesPerWrite)
	fmt.Fprintf(w, "  objects/write: %.1f\n", report.Alloc.ObjectsPerWrite)
	fmt.Fprintf(w, "  gc cycles:     %d\n", report.Alloc.GCCycles)

	if len(report.Metrics) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Metrics:")
		names := make([]string, 0, len(report.Metrics))
		for name := range report.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s %g\n", name, report.Metrics[name])
		}
	}
}

// writeJSON writes the report to path, or to stdout when path is "-".
func writeJSON(path string, stdout io.Writer, report benchReport) error {
	out := stdout
	if path != "-" {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
