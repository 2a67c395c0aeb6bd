package applier

import (
	"effector/internal/action"
	"effector/internal/sampler"
	"effector/internal/tensor"
)

// DiscreteProbability decodes a flat row of concatenated per-branch logits:
// it splits the row at the spec's branch offsets, samples one action per
// branch and writes the results into each registered agent's discrete
// buffer in branch order.
type DiscreteProbability struct {
	Actions *action.Store
	Sampler *sampler.Multinomial
	Alloc   tensor.Allocator
}

func (a *DiscreteProbability) Apply(t *tensor.Tensor, agentIDs []int) error {
	spec := a.Actions.Spec()
	batch := t.Batch()
	branches := spec.NumBranches()
	offsets := spec.BranchOffsets()

	sampled := make([][]int, batch)
	for row := range sampled {
		sampled[row] = make([]int, branches)
	}

	for branch := 0; branch < branches; branch++ {
		if err := a.sampleBranch(t, branch, offsets[branch], spec.BranchSize(branch), sampled); err != nil {
			return err
		}
	}

	for row, agentID := range agentIDs {
		if _, ok := a.Actions.Get(agentID); !ok {
			continue
		}
		buf := a.Actions.Ensure(agentID)
		copy(buf.Discrete, sampled[row])
	}
	return nil
}

// sampleBranch extracts the branch's [batch, branchSize] sub-view into a
// scratch tensor, samples one action per row and records the results.
// Scratch tensors come from the allocator and are released before return on
// every path, so no transient buffer outlives its branch iteration.
func (a *DiscreteProbability) sampleBranch(t *tensor.Tensor, branch, offset, size int, sampled [][]int) error {
	batch := t.Batch()

	logits, err := a.Alloc.Alloc("branch_logits", t.DType(), batch, size)
	if err != nil {
		return err
	}
	defer a.Alloc.Release(logits)

	result, err := a.Alloc.Alloc("branch_sample", t.DType(), batch, 1)
	if err != nil {
		return err
	}
	defer a.Alloc.Release(result)

	for row := 0; row < batch; row++ {
		copy(logits.Row(row), t.Row(row)[offset:offset+size])
	}
	if err := a.Sampler.Eval(logits, result); err != nil {
		return err
	}
	for row := 0; row < batch; row++ {
		sampled[row][branch] = int(result.At(row, 0))
	}
	return nil
}
