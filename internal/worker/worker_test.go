package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"assetwatch/internal/models"
	"assetwatch/internal/worker"
)

// MockIngestor counts ingest calls and can simulate failures and panics
type MockIngestor struct {
	calls       atomic.Uint64
	shouldFail  bool
	shouldPanic bool
}

func (m *MockIngestor) Ingest(ctx context.Context, sample *models.Sample) error {
	m.calls.Add(1)
	if m.shouldPanic {
		panic("ingestor blew up")
	}
	if m.shouldFail {
		return errors.New("ingest failed")
	}
	return nil
}

func testSample(assetID string) *models.Sample {
	return &models.Sample{
		AssetID:   assetID,
		Kind:      models.MetricTemperature,
		Value:     72.5,
		Timestamp: time.Now().UTC(),
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestPoolProcessesSamples(t *testing.T) {
	ingestor := &MockIngestor{}
	ch := make(chan *models.Sample, 100)

	pool := worker.NewPool(worker.Config{
		Ingestor:   ingestor,
		SampleChan: ch,
		Workers:    4,
	})
	pool.Start()

	const n = 50
	for i := 0; i < n; i++ {
		ch <- testSample("press-01")
	}

	if !waitFor(t, 3*time.Second, func() bool { return pool.Stats().Processed == n }) {
		t.Errorf("ingest calls = %d, want %d", ingestor.calls.Load(), n)
	}
	pool.Stop()

	stats := pool.Stats()
	if stats.Processed != n {
		t.Errorf("processed = %d, want %d", stats.Processed, n)
	}
	if stats.Failed != 0 {
		t.Errorf("failed = %d, want 0", stats.Failed)
	}
}

func TestPoolCountsFailures(t *testing.T) {
	ingestor := &MockIngestor{shouldFail: true}
	ch := make(chan *models.Sample, 10)

	pool := worker.NewPool(worker.Config{
		Ingestor:   ingestor,
		SampleChan: ch,
		Workers:    2,
	})
	pool.Start()

	for i := 0; i < 5; i++ {
		ch <- testSample("press-01")
	}

	if !waitFor(t, 3*time.Second, func() bool { return pool.Stats().Failed == 5 }) {
		t.Errorf("failed = %d, want 5", pool.Stats().Failed)
	}
	pool.Stop()

	if pool.Stats().Processed != 0 {
		t.Errorf("processed = %d, want 0", pool.Stats().Processed)
	}
}

func TestPoolStopsOnClosedChannel(t *testing.T) {
	ingestor := &MockIngestor{}
	ch := make(chan *models.Sample, 10)

	pool := worker.NewPool(worker.Config{
		Ingestor:   ingestor,
		SampleChan: ch,
		Workers:    2,
	})
	pool.Start()

	ch <- testSample("press-01")
	if !waitFor(t, 3*time.Second, func() bool { return ingestor.calls.Load() == 1 }) {
		t.Fatalf("ingest calls = %d, want 1", ingestor.calls.Load())
	}
	close(ch)

	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("pool did not stop after the channel was closed")
	}

	if got := ingestor.calls.Load(); got != 1 {
		t.Errorf("ingest calls = %d, want 1", got)
	}
}

func TestPoolDefaultsWorkerCount(t *testing.T) {
	pool := worker.NewPool(worker.Config{
		Ingestor:   &MockIngestor{},
		SampleChan: make(chan *models.Sample),
	})
	pool.Start()
	pool.Stop()
}
