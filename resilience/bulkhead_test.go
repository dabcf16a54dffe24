package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBulkhead_Limit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"positive", 4, 4},
		{"zero raised to one", 0, 1},
		{"negative raised to one", -3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBulkhead("batch", tt.limit)
			if b.Limit() != tt.want {
				t.Errorf("expected limit %d, got %d", tt.want, b.Limit())
			}
			if b.Name() != "batch" {
				t.Errorf("expected name batch, got %q", b.Name())
			}
		})
	}
}

func TestBulkhead_NeverExceedsLimit(t *testing.T) {
	b := NewBulkhead("batch", 3)

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := b.Do(context.Background(), func() error {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)
				return nil
			})
			if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		}()
	}
	wg.Wait()

	if peak.Load() > 3 {
		t.Errorf("expected at most 3 concurrent items, got %d", peak.Load())
	}
	if b.InFlight() != 0 {
		t.Errorf("expected all slots released, got %d in flight", b.InFlight())
	}
}

func TestBulkhead_QueuedCallerRunsWhenSlotFrees(t *testing.T) {
	b := NewBulkhead("batch", 1)
	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = b.Do(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	done := make(chan error, 1)
	go func() {
		done <- b.Do(context.Background(), func() error { return nil })
	}()

	deadline := time.Now().Add(time.Second)
	for b.Waiting() != 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if b.Waiting() != 1 {
		t.Fatalf("expected 1 waiting caller, got %d", b.Waiting())
	}
	close(release)

	if err := <-done; err != nil {
		t.Errorf("expected queued call to run, got %v", err)
	}
	if b.Waiting() != 0 {
		t.Errorf("expected no waiting callers, got %d", b.Waiting())
	}
}

func TestBulkhead_ContextEndsWhileQueued(t *testing.T) {
	b := NewBulkhead("batch", 1)
	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})
	go func() {
		_ = b.Do(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	called := false
	err := b.Do(ctx, func() error {
		called = true
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if called {
		t.Error("expected fn not to run")
	}
}

func TestBulkhead_CancelledBeforeCall(t *testing.T) {
	b := NewBulkhead("batch", 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Do(ctx, func() error {
		t.Error("fn should not run on a cancelled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBulkhead_ReturnsFnErrorAndReleases(t *testing.T) {
	b := NewBulkhead("batch", 1)
	wantErr := errors.New("upstream 502")

	if err := b.Do(context.Background(), func() error { return wantErr }); !errors.Is(err, wantErr) {
		t.Errorf("expected fn error, got %v", err)
	}
	if b.InFlight() != 0 {
		t.Errorf("expected slot released after error, got %d in flight", b.InFlight())
	}
}
