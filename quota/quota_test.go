package quota

import (
	"errors"
	"testing"
)

func TestConsumeUntilExceeded(t *testing.T) {
	g := NewMemoryGate(2)
	if st, err := g.Consume("a"); err != nil || st.Used != 1 || st.Remaining != 1 {
		t.Fatalf("first consume: %+v %v", st, err)
	}
	if st, err := g.Consume("a"); err != nil || st.Remaining != 0 || !st.Exceeded {
		t.Fatalf("second consume: %+v %v", st, err)
	}
	st, err := g.Consume("a")
	if !errors.Is(err, ErrExceeded) {
		t.Fatalf("third consume: %v", err)
	}
	if st.Used != 2 {
		t.Fatalf("exceeded consume recorded usage: %+v", st)
	}
}

func TestKeysIndependent(t *testing.T) {
	g := NewMemoryGate(1)
	if _, err := g.Consume("a"); err != nil {
		t.Fatalf("a: %v", err)
	}
	if _, err := g.Consume("b"); err != nil {
		t.Fatalf("b: %v", err)
	}
	if _, err := g.Consume("a"); !errors.Is(err, ErrExceeded) {
		t.Fatal("key a not exhausted")
	}
}

func TestUnlimited(t *testing.T) {
	g := NewMemoryGate(0)
	for i := 0; i < 100; i++ {
		if _, err := g.Consume("a"); err != nil {
			t.Fatalf("unlimited gate refused: %v", err)
		}
	}
	if st := g.Check("a"); st.Used != 100 || st.Remaining != -1 {
		t.Fatalf("status: %+v", st)
	}
}

func TestCheckDoesNotConsume(t *testing.T) {
	g := NewMemoryGate(5)
	for i := 0; i < 10; i++ {
		g.Check("a")
	}
	if st := g.Check("a"); st.Used != 0 {
		t.Fatalf("Check consumed budget: %+v", st)
	}
}
