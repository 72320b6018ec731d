package workflow

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestGuard(t *testing.T) {
	var g Guard
	if g.Busy() {
		t.Fatal("zero guard should be idle")
	}
	if err := g.Enter(); err != nil {
		t.Fatalf("first Enter: %v", err)
	}
	if err := g.Enter(); err != ErrInProgress {
		t.Fatalf("second Enter = %v; want ErrInProgress", err)
	}
	if !g.Busy() {
		t.Error("guard should be busy")
	}
	g.Leave()
	if err := g.Enter(); err != nil {
		t.Fatalf("Enter after Leave: %v", err)
	}
}

func TestGuard_SingleWinner(t *testing.T) {
	var g Guard
	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Enter() == nil {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	if winners.Load() != 1 {
		t.Errorf("winners = %d; want 1", winners.Load())
	}
}
