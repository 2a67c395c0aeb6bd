package applier

import (
	"errors"
	"testing"

	"effector/internal/action"
	"effector/internal/memory"
	"effector/internal/sampler"
	"effector/internal/tensor"
)

func newActionStore(t *testing.T, continuous int, branches []int) *action.Store {
	t.Helper()
	spec, err := action.NewSpec(continuous, branches)
	if err != nil {
		t.Fatalf("new spec failed: %v", err)
	}
	return action.NewStore(spec)
}

func TestContinuousCopiesRegisteredAgents(t *testing.T) {
	store := newActionStore(t, 3, nil)
	store.Register(1)
	store.Register(3)

	out := tensor.MustNew("continuous_actions", tensor.Float32, 3, 3)
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			out.Set(row, col, float64(10*row+col))
		}
	}

	a := &Continuous{Actions: store}
	if err := a.Apply(out, []int{1, 2, 3}); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	buf1, _ := store.Get(1)
	if buf1.Continuous[0] != 0 || buf1.Continuous[2] != 2 {
		t.Fatalf("unexpected agent 1 buffer: %v", buf1.Continuous)
	}
	buf3, _ := store.Get(3)
	if buf3.Continuous[0] != 20 || buf3.Continuous[2] != 22 {
		t.Fatalf("unexpected agent 3 buffer: %v", buf3.Continuous)
	}
	if len(buf1.Continuous) != 3 {
		t.Fatalf("buffer length changed: %d", len(buf1.Continuous))
	}
	// Agent 2 was never registered: no entry may appear.
	if _, ok := store.Get(2); ok {
		t.Fatal("applier created an entry for an unregistered agent")
	}
}

func TestContinuousLazilyAllocatesEmptyEntry(t *testing.T) {
	store := newActionStore(t, 2, nil)
	entry := store.Register(5)
	if !entry.Empty() {
		t.Fatal("expected empty entry before apply")
	}

	out := tensor.MustNew("continuous_actions", tensor.Float32, 1, 2)
	out.Set(0, 0, 1.5)
	out.Set(0, 1, -2.5)

	if err := (&Continuous{Actions: store}).Apply(out, []int{5}); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if entry.Empty() {
		t.Fatal("expected entry allocated by first write")
	}
	if entry.Continuous[0] != 1.5 || entry.Continuous[1] != -2.5 {
		t.Fatalf("unexpected values: %v", entry.Continuous)
	}
}

func TestDiscreteDirectTruncatesTowardZero(t *testing.T) {
	store := newActionStore(t, 0, []int{5, 5})
	store.Register(1)

	out := tensor.MustNew("discrete_actions", tensor.Float32, 1, 2)
	out.Set(0, 0, 2.9)
	out.Set(0, 1, -1.9)

	if err := (&DiscreteDirect{Actions: store}).Apply(out, []int{1}); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	buf, _ := store.Get(1)
	if buf.Discrete[0] != 2 || buf.Discrete[1] != -1 {
		t.Fatalf("expected truncation toward zero, got=%v", buf.Discrete)
	}
}

func TestDuplicateAgentLastRowWins(t *testing.T) {
	store := newActionStore(t, 1, nil)
	store.Register(5)

	out := tensor.MustNew("continuous_actions", tensor.Float32, 3, 1)
	out.Set(0, 0, 1)
	out.Set(1, 0, 2)
	out.Set(2, 0, 3)

	// Duplicate ids are defined-but-discouraged: rows are traversed in
	// order, so the last matching row overwrites earlier ones.
	if err := (&Continuous{Actions: store}).Apply(out, []int{5, 2, 5}); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	buf, _ := store.Get(5)
	if buf.Continuous[0] != 3 {
		t.Fatalf("expected last row to win, got=%f", buf.Continuous[0])
	}
}

func TestDiscreteProbabilityBranchSplitting(t *testing.T) {
	store := newActionStore(t, 0, []int{2, 3})
	store.Register(1)
	store.Register(2)

	// Row layout [a0 a1 | b0 b1 b2] with dominant logits forcing the
	// sampled indices regardless of seed.
	out := tensor.MustNew("action_probs", tensor.Float32, 2, 5)
	rows := [][]float64{
		{100, -100, -100, -100, 100}, // branch 0 -> 0, branch 1 -> 2
		{-100, 100, 100, -100, -100}, // branch 0 -> 1, branch 1 -> 0
	}
	for row, values := range rows {
		out.SetRow(row, values)
	}

	a := &DiscreteProbability{
		Actions: store,
		Sampler: sampler.NewMultinomial(11),
		Alloc:   tensor.HeapAllocator{},
	}
	if err := a.Apply(out, []int{1, 2}); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	buf1, _ := store.Get(1)
	if buf1.Discrete[0] != 0 || buf1.Discrete[1] != 2 {
		t.Fatalf("unexpected agent 1 actions: %v", buf1.Discrete)
	}
	buf2, _ := store.Get(2)
	if buf2.Discrete[0] != 1 || buf2.Discrete[1] != 0 {
		t.Fatalf("unexpected agent 2 actions: %v", buf2.Discrete)
	}
}

func TestDiscreteProbabilityReleasesScratch(t *testing.T) {
	store := newActionStore(t, 0, []int{2, 3})
	store.Register(1)

	out := tensor.MustNew("action_probs", tensor.Float32, 1, 5)
	pool := tensor.NewPoolAllocator()
	a := &DiscreteProbability{
		Actions: store,
		Sampler: sampler.NewMultinomial(3),
		Alloc:   pool,
	}
	if err := a.Apply(out, []int{1}); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	// Every scratch tensor must be parked back on the free lists:
	// [1,2] and [1,3] branch logits plus the reused [1,1] result.
	if pool.FreeCount(2) != 1 || pool.FreeCount(3) != 1 || pool.FreeCount(1) != 1 {
		t.Fatalf("scratch tensors leaked: free(2)=%d free(3)=%d free(1)=%d",
			pool.FreeCount(2), pool.FreeCount(3), pool.FreeCount(1))
	}
}

func TestDiscreteProbabilityPropagatesSamplerErrors(t *testing.T) {
	store := newActionStore(t, 0, []int{2})
	store.Register(1)

	out := tensor.MustNew("action_probs", tensor.Int32, 1, 2)
	pool := tensor.NewPoolAllocator()
	a := &DiscreteProbability{
		Actions: store,
		Sampler: sampler.NewMultinomial(3),
		Alloc:   pool,
	}
	err := a.Apply(out, []int{1})
	if !errors.Is(err, tensor.ErrUnsupportedType) {
		t.Fatalf("expected unsupported type error, got=%v", err)
	}
	// Scratch is released on the error path too.
	if pool.FreeCount(2) != 1 || pool.FreeCount(1) != 1 {
		t.Fatalf("scratch leaked on error: free(2)=%d free(1)=%d", pool.FreeCount(2), pool.FreeCount(1))
	}
}

func TestMemorySizeEnsuresBuffers(t *testing.T) {
	memories, err := memory.NewStore(4, 2)
	if err != nil {
		t.Fatalf("new store failed: %v", err)
	}
	out := tensor.MustNew("recurrent_out", tensor.Float32, 3, 4)

	if err := (&MemorySize{Memories: memories}).Apply(out, []int{1, 2, 3}); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	for _, agentID := range []int{1, 2, 3} {
		buf, ok := memories.Get(agentID)
		if !ok || len(buf) != 8 {
			t.Fatalf("agent %d buffer not ensured: ok=%v len=%d", agentID, ok, len(buf))
		}
	}
}

func TestMemoryBlockWritesOwnSlice(t *testing.T) {
	memories, err := memory.NewStore(2, 3)
	if err != nil {
		t.Fatalf("new store failed: %v", err)
	}

	block1 := tensor.MustNew("recurrent_out_1", tensor.Float32, 1, 2)
	block1.Set(0, 0, 5)
	block1.Set(0, 1, 6)

	if err := (&MemoryBlock{Memories: memories, BlockIndex: 1}).Apply(block1, []int{4}); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	buf, _ := memories.Get(4)
	want := []float64{0, 0, 5, 6, 0, 0}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("unexpected buffer at %d: got=%f want=%f", i, buf[i], want[i])
		}
	}
}

func TestSetDispatchAndSkip(t *testing.T) {
	store := newActionStore(t, 2, nil)
	store.Register(1)

	set := NewSet()
	if err := set.Register("continuous_actions", &Continuous{Actions: store}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := set.Register("continuous_actions", &Continuous{Actions: store}); !errors.Is(err, ErrDuplicateOutput) {
		t.Fatalf("expected duplicate registration error, got=%v", err)
	}

	cont := tensor.MustNew("continuous_actions", tensor.Float32, 1, 2)
	cont.Set(0, 0, 7)
	value := tensor.MustNew("value_estimate", tensor.Float32, 1, 1)

	outputs := map[string]*tensor.Tensor{
		"continuous_actions": cont,
		"value_estimate":     value, // no applier registered: skipped
	}
	if err := set.Apply(outputs, []int{1}); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	buf, _ := store.Get(1)
	if buf.Continuous[0] != 7 {
		t.Fatalf("dispatch did not reach the continuous applier: %v", buf.Continuous)
	}

	names := set.Registered()
	if len(names) != 1 || names[0] != "continuous_actions" {
		t.Fatalf("unexpected registered names: %v", names)
	}
}
