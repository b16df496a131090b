package flow

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestLatchSingleHolder(t *testing.T) {
	var l Latch
	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Acquire() {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("%d goroutines acquired the latch, want 1", wins.Load())
	}
	if !l.Busy() {
		t.Error("latch not busy after acquire")
	}
	l.Release()
	if !l.Acquire() {
		t.Error("acquire after release failed")
	}
}

func TestLatchClose(t *testing.T) {
	var l Latch
	if l.Closed() {
		t.Fatal("zero latch closed")
	}
	l.Close()
	if !l.Closed() {
		t.Fatal("not closed after Close")
	}
}

func TestResults(t *testing.T) {
	if r := Ignore(); r.Kind != Ignored || !errors.Is(r.Err, ErrInFlight) {
		t.Errorf("Ignore() = %+v", r)
	}
	if r := Discard(); r.Kind != Discarded || !errors.Is(r.Err, ErrClosed) {
		t.Errorf("Discard() = %+v", r)
	}
	if r := Invalid("pin", "bad", nil); r.Field != "pin" || r.OK() {
		t.Errorf("Invalid() = %+v", r)
	}
	if Kind(99).String() != "unknown" || Warning.String() != "warning" {
		t.Error("Kind.String mismatch")
	}
}
