package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestBenchProfiles(t *testing.T) {
	tests := []struct {
		profile       string
		effectsPerRun float64
		writesPerRun  uint64
	}{
		{"chain", 1, 1},
		{"fanout", 8, 1},
		{"diamond", 1, 1},
		{"collection", 1, 1},
		{"batch", 1, 8},
	}

	for _, tt := range tests {
		t.Run(tt.profile, func(t *testing.T) {
			report, err := runBench(benchConfig{Profile: tt.profile, Iterations: 40, Width: 8, Depth: 8}, nil)
			if err != nil {
				t.Fatalf("runBench: %v", err)
			}
			if report.Graph.Glitches != 0 {
				t.Errorf("expected no glitches, got %d", report.Graph.Glitches)
			}
			if report.Graph.EffectRunsPerWrite != tt.effectsPerRun {
				t.Errorf("expected %.0f effect runs per write, got %.2f", tt.effectsPerRun, report.Graph.EffectRunsPerWrite)
			}
			if report.Graph.Writes < 40*tt.writesPerRun {
				t.Errorf("expected at least %d writes, got %d", 40*tt.writesPerRun, report.Graph.Writes)
			}
			if report.Workload.Iterations != 40 || report.Workload.Profile != tt.profile {
				t.Errorf("unexpected workload %+v", report.Workload)
			}
			if report.LatencyUS.Max < report.LatencyUS.P50 {
				t.Errorf("latencies out of order: %+v", report.LatencyUS)
			}
		})
	}
}

func TestBenchChainRecomputesEveryNode(t *testing.T) {
	report, err := runBench(benchConfig{Profile: "chain", Iterations: 10, Depth: 5}, nil)
	if err != nil {
		t.Fatalf("runBench: %v", err)
	}
	if report.Graph.RecomputesPerWrite != 5 {
		t.Errorf("expected 5 recomputes per write, got %.2f", report.Graph.RecomputesPerWrite)
	}
	if report.Workload.Nodes != 7 {
		t.Errorf("expected 7 nodes, got %d", report.Workload.Nodes)
	}
}

func TestBenchUnknownProfile(t *testing.T) {
	_, err := runBench(benchConfig{Profile: "nope", Iterations: 1}, nil)
	if code := errorCode(err); code != "L001" {
		t.Errorf("expected L001, got %q (%v)", code, err)
	}
}

func TestBenchRejectsZeroIterations(t *testing.T) {
	_, err := runBench(benchConfig{Profile: "chain"}, nil)
	if code := errorCode(err); code != "C003" {
		t.Errorf("expected C003, got %q (%v)", code, err)
	}
}

func TestBenchCommandWritesReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	out, _, err := execute(t, "--config", testConfig(t, ""), "bench",
		"--profile=diamond", "-n", "25", "--width=4", "--metrics", "--json", path)
	if err != nil {
		t.Fatalf("bench: %v", err)
	}
	if !strings.Contains(out, "Reactive Propagation Benchmark") || !strings.Contains(out, "Report written") {
		t.Errorf("unexpected output:\n%s", out)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var report benchReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Workload.Profile != "diamond" || report.Workload.Width != 4 {
		t.Errorf("unexpected workload %+v", report.Workload)
	}
	if got := report.Metrics[`reactive_flushes_total{status="success"}`]; got < 25 {
		t.Errorf("expected at least 25 flushes in metrics, got %v (%v)", got, report.Metrics)
	}
	if got := report.Metrics["reactive_effect_duration_seconds_count"]; got < 25 {
		t.Errorf("expected effect duration samples, got %v", got)
	}
}

func TestBenchList(t *testing.T) {
	out, _, err := execute(t, "bench", "--list")
	if err != nil {
		t.Fatalf("bench --list: %v", err)
	}
	for _, name := range profileNames() {
		if !strings.Contains(out, name) {
			t.Errorf("expected %s in list:\n%s", name, out)
		}
	}
}

func TestPercentile(t *testing.T) {
	sorted := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	tests := []struct {
		p    float64
		want time.Duration
	}{
		{0, 1},
		{0.5, 5},
		{0.95, 10},
		{1, 10},
	}
	for _, tt := range tests {
		if got := percentile(sorted, tt.p); got != tt.want {
			t.Errorf("percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
	if percentile(nil, 0.5) != 0 {
		t.Error("expected 0 for empty input")
	}
}

func TestProfileParams(t *testing.T) {
	p := profiles["chain"]
	if got := p.params(0, 0); got.Depth != 50 || got.Width != 1 {
		t.Errorf("unexpected defaults %+v", got)
	}
	if got := p.params(3, 7); got.Depth != 7 || got.Width != 3 {
		t.Errorf("overrides not applied: %+v", got)
	}
}

func TestBuildReportAllocationsPerWrite(t *testing.T) {
	s := benchSample{
		profile:    profiles["chain"],
		graph:      &benchGraph{glitches: func() int { return 0 }},
		latencies:  []time.Duration{1, 2, 3, 4},
		heapBefore: heapCounters{bytes: 100, objects: 10, cycles: 2},
		heapAfter:  heapCounters{bytes: 500, objects: 30, cycles: 3},
	}
	report := buildReport(s)
	if report.Alloc.BytesPerWrite != 100 || report.Alloc.ObjectsPerWrite != 5 || report.Alloc.GCCycles != 1 {
		t.Errorf("unexpected allocation summary %+v", report.Alloc)
	}
}
