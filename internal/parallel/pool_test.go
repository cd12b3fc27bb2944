package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

func TestWorkerPool_Workers(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		want    int
	}{
		{"explicit", 4, 4},
		{"zero", 0, runtime.GOMAXPROCS(0)},
		{"negative", -5, runtime.GOMAXPROCS(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewWorkerPool(tt.workers)
			defer p.Close()
			if got := p.Workers(); got != tt.want {
				t.Errorf("Workers() = %d, want %d", got, tt.want)
			}
			if !p.IsRunning() {
				t.Error("pool should be running after creation")
			}
		})
	}
}

func TestWorkerPool_ExecuteAll(t *testing.T) {
	p := NewWorkerPool(4)
	defer p.Close()

	const n = 100
	var mu sync.Mutex
	seen := make(map[int]bool)

	work := make([]func(), n)
	for i := range work {
		work[i] = func() {
			mu.Lock()
			seen[i] = true
			mu.Unlock()
		}
	}
	p.ExecuteAll(work)

	if len(seen) != n {
		t.Errorf("executed %d items, want %d", len(seen), n)
	}
}

func TestWorkerPool_ExecuteAllEmpty(t *testing.T) {
	p := NewWorkerPool(2)
	defer p.Close()

	p.ExecuteAll(nil)
	p.ExecuteAll([]func(){})
}

func TestWorkerPool_ExecuteAllAfterClose(t *testing.T) {
	p := NewWorkerPool(2)
	p.Close()

	var count atomic.Int32
	p.ExecuteAll([]func(){
		func() { count.Add(1) },
		func() { count.Add(1) },
	})
	if count.Load() != 2 {
		t.Errorf("executed %d items after Close, want 2 on the caller", count.Load())
	}
}

func TestWorkerPool_CloseTwice(t *testing.T) {
	p := NewWorkerPool(2)
	p.Close()
	p.Close()
	if p.IsRunning() {
		t.Error("pool still running after Close")
	}
}

func TestWorkerPool_ConcurrentExecuteAll(t *testing.T) {
	p := NewWorkerPool(4)
	defer p.Close()

	var total atomic.Int64
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			work := make([]func(), 25)
			for i := range work {
				work[i] = func() { total.Add(1) }
			}
			p.ExecuteAll(work)
		}()
	}
	wg.Wait()

	if total.Load() != 200 {
		t.Errorf("total = %d, want 200", total.Load())
	}
}
