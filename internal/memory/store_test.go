package memory

import "testing"

func TestNewStoreValidation(t *testing.T) {
	if _, err := NewStore(0, 1); err == nil {
		t.Fatal("expected error for zero memory size")
	}
	if _, err := NewStore(4, 0); err == nil {
		t.Fatal("expected error for zero block count")
	}
}

func TestEnsureCreatesFullCapacity(t *testing.T) {
	store, err := NewStore(4, 3)
	if err != nil {
		t.Fatalf("new store failed: %v", err)
	}
	buf := store.Ensure(1)
	if len(buf) != 12 {
		t.Fatalf("unexpected capacity: %d", len(buf))
	}
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("fresh buffer not zeroed at %d: %f", i, v)
		}
	}
}

func TestGrowResetsEntireBuffer(t *testing.T) {
	store, err := NewStore(4, 3)
	if err != nil {
		t.Fatalf("new store failed: %v", err)
	}

	// A restored buffer from a smaller model: two blocks worth of state.
	short := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	store.Restore(1, short)

	if err := store.WriteBlock(1, 2, []float64{9, 9, 9, 9}); err != nil {
		t.Fatalf("write block failed: %v", err)
	}

	buf, ok := store.Get(1)
	if !ok {
		t.Fatal("expected buffer for agent 1")
	}
	if len(buf) != 12 {
		t.Fatalf("expected resize to full capacity, got=%d", len(buf))
	}
	// The grow path zeroes everything, not just the added tail.
	for i := 0; i < 8; i++ {
		if buf[i] != 0 {
			t.Fatalf("old block state survived the grow at %d: %f", i, buf[i])
		}
	}
	for i := 8; i < 12; i++ {
		if buf[i] != 9 {
			t.Fatalf("unexpected block 2 value at %d: %f", i, buf[i])
		}
	}
}

func TestEnsureNeverShrinks(t *testing.T) {
	store, err := NewStore(2, 2)
	if err != nil {
		t.Fatalf("new store failed: %v", err)
	}
	long := []float64{1, 2, 3, 4, 5, 6}
	store.Restore(1, long)

	buf := store.Ensure(1)
	if len(buf) != 6 {
		t.Fatalf("oversized buffer must not shrink, got=%d", len(buf))
	}
	if buf[5] != 6 {
		t.Fatalf("oversized buffer contents changed: %v", buf)
	}
}

func TestWriteBlockIsolation(t *testing.T) {
	store, err := NewStore(3, 2)
	if err != nil {
		t.Fatalf("new store failed: %v", err)
	}
	if err := store.WriteBlock(4, 0, []float64{1, 2, 3}); err != nil {
		t.Fatalf("write block 0 failed: %v", err)
	}
	if err := store.WriteBlock(4, 1, []float64{7, 8, 9}); err != nil {
		t.Fatalf("write block 1 failed: %v", err)
	}
	// Overwrite block 0; block 1 must be untouched.
	if err := store.WriteBlock(4, 0, []float64{4, 5, 6}); err != nil {
		t.Fatalf("rewrite block 0 failed: %v", err)
	}

	block0 := store.Block(4, 0)
	block1 := store.Block(4, 1)
	if block0[0] != 4 || block0[2] != 6 {
		t.Fatalf("unexpected block 0: %v", block0)
	}
	if block1[0] != 7 || block1[2] != 9 {
		t.Fatalf("unexpected block 1: %v", block1)
	}
}

func TestWriteBlockRange(t *testing.T) {
	store, err := NewStore(2, 2)
	if err != nil {
		t.Fatalf("new store failed: %v", err)
	}
	if err := store.WriteBlock(1, 2, []float64{1, 2}); err == nil {
		t.Fatal("expected error for out-of-range block index")
	}
	if err := store.WriteBlock(1, -1, []float64{1, 2}); err == nil {
		t.Fatal("expected error for negative block index")
	}
}

func TestAgentsAndRemove(t *testing.T) {
	store, err := NewStore(2, 1)
	if err != nil {
		t.Fatalf("new store failed: %v", err)
	}
	store.Ensure(3)
	store.Ensure(1)
	ids := store.Agents()
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Fatalf("unexpected agents: %v", ids)
	}
	store.Remove(1)
	if store.Len() != 1 {
		t.Fatalf("unexpected size after remove: %d", store.Len())
	}
}
