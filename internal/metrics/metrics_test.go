package metrics

import (
	"bytes"
	"errors"
	"math"
	"sync"
	"testing"
)

func TestCollectorCounters(t *testing.T) {
	c := NewCollector()

	c.RecordOps(100)
	c.RecordOps(50)
	c.RecordFailure()

	if c.TotalOps() != 150 {
		t.Errorf("expected 150 total ops, got %d", c.TotalOps())
	}
	if c.FailedOps() != 1 {
		t.Errorf("expected 1 failed op, got %d", c.FailedOps())
	}
}

func TestCollectorAddSamples(t *testing.T) {
	c := NewCollector()

	c.AddSamples([]float64{1.0, 2.0})
	c.AddSamples([]float64{3.0})
	c.AddSamples(nil)

	samples := c.Samples()
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	if c.TotalOps() != 3 {
		t.Errorf("expected sample count in total ops, got %d", c.TotalOps())
	}

	// Returned slice is a copy
	samples[0] = 99.0
	if c.Samples()[0] != 1.0 {
		t.Error("expected Samples to return a copy")
	}
}

func TestCollectorConcurrentMerge(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for _i := 0; _i < 10; _i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.AddSamples([]float64{1, 2, 3, 4, 5})
		}()
	}
	wg.Wait()

	if got := len(c.Samples()); got != 50 {
		t.Errorf("expected 50 samples after concurrent merge, got %d", got)
	}
}

func TestSummarizeKnownSet(t *testing.T) {
	// Samples 1..100 ms: p95 must be the value at index 95 (0-indexed), i.e. 96
	samples := make([]float64, 100)
	for i := range samples {
		samples[i] = float64(i + 1)
	}

	s, err := Summarize(samples)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if s.Count != 100 {
		t.Errorf("expected count 100, got %d", s.Count)
	}
	if s.Min != 1 {
		t.Errorf("expected min 1, got %f", s.Min)
	}
	if s.Max != 100 {
		t.Errorf("expected max 100, got %f", s.Max)
	}
	if math.Abs(s.Mean-50.5) > 1e-9 {
		t.Errorf("expected mean 50.5, got %f", s.Mean)
	}
	if math.Abs(s.Median-50.5) > 1e-9 {
		t.Errorf("expected median 50.5, got %f", s.Median)
	}
	if s.P95 != 96 {
		t.Errorf("expected p95 96, got %f", s.P95)
	}
}

func TestSummarizeSingleSample(t *testing.T) {
	s, err := Summarize([]float64{2.5})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	// Index floor(0.95*1) = 0 clamps to the only sample
	if s.Min != 2.5 || s.Max != 2.5 || s.P95 != 2.5 {
		t.Errorf("expected all stats 2.5, got %+v", s)
	}
}

func TestSummarizeUnsortedInput(t *testing.T) {
	s, err := Summarize([]float64{5, 1, 4, 2, 3})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if s.Min != 1 || s.Max != 5 || s.Median != 3 {
		t.Errorf("unexpected stats for unsorted input: %+v", s)
	}
	// floor(0.95*5) = 4 -> sorted[4] = 5
	if s.P95 != 5 {
		t.Errorf("expected p95 5, got %f", s.P95)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if _, err := Summarize(nil); !errors.Is(err, ErrNoSamples) {
		t.Errorf("expected ErrNoSamples, got %v", err)
	}
}

func TestWriteHistogram(t *testing.T) {
	samples := []float64{1, 1, 2, 2, 2, 3, 10}

	var buf bytes.Buffer
	if err := WriteHistogram(&buf, samples, 5); err != nil {
		t.Fatalf("WriteHistogram failed: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("expected histogram output")
	}
}

func TestWriteHistogramEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHistogram(&buf, nil, 5); !errors.Is(err, ErrNoSamples) {
		t.Errorf("expected ErrNoSamples, got %v", err)
	}
}
