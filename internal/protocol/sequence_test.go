package protocol

import (
	"sync"
	"testing"
)

func TestSequence_WrapsModulo256(t *testing.T) {
	s := new(Sequence)
	for i := 1; i <= 600; i++ {
		got := s.Next()
		if want := uint8(i); got != want {
			t.Fatalf("call %d: Next() = %d, want %d", i, got, want)
		}
	}
}

func TestSequence_Concurrent(t *testing.T) {
	const goroutines = 32
	const perGoroutine = 100

	s := new(Sequence)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				s.Next()
			}
		}()
	}
	wg.Wait()

	// No increment may be lost: the next value is the total count + 1.
	total := goroutines * perGoroutine
	if got, want := s.Next(), uint8(total+1); got != want {
		t.Errorf("after %d concurrent calls Next() = %d, want %d", goroutines*perGoroutine, got, want)
	}
}

func TestSequence_IndependentInstances(t *testing.T) {
	a, b := new(Sequence), new(Sequence)
	a.Next()
	a.Next()

	if got := b.Next(); got != 1 {
		t.Errorf("fresh instance Next() = %d, want 1", got)
	}
}

func TestNextSequence_SharedCounter(t *testing.T) {
	first := NextSequence()
	second := NextSequence()

	if second != first+1 {
		t.Errorf("consecutive NextSequence() = %d then %d, want increment by 1", first, second)
	}
}

func TestNewNonce(t *testing.T) {
	a, err := NewNonce()
	if err != nil {
		t.Fatalf("NewNonce() error = %v", err)
	}
	b, err := NewNonce()
	if err != nil {
		t.Fatalf("NewNonce() error = %v", err)
	}

	if a == b {
		t.Errorf("two nonces are identical: %s", a)
	}
}

func TestNonce_String(t *testing.T) {
	n := Nonce{0xDE, 0xAD, 0xBE, 0xEF}
	if got := n.String(); got != "deadbeef" {
		t.Errorf("String() = %q, want \"deadbeef\"", got)
	}
}
