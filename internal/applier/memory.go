package applier

import (
	"effector/internal/memory"
	"effector/internal/tensor"
)

// MemorySize ties agent presence to memory-buffer existence: it ignores the
// tensor's values and only ensures every agent in the batch has a correctly
// sized (possibly freshly zeroed) recurrent buffer.
type MemorySize struct {
	Memories *memory.Store
}

func (a *MemorySize) Apply(_ *tensor.Tensor, agentIDs []int) error {
	for _, agentID := range agentIDs {
		a.Memories.Ensure(agentID)
	}
	return nil
}

// MemoryBlock writes one stacked recurrent block. One instance is
// registered per block index; each writes only its own slice of the flat
// per-agent buffer.
type MemoryBlock struct {
	Memories   *memory.Store
	BlockIndex int
}

func (a *MemoryBlock) Apply(t *tensor.Tensor, agentIDs []int) error {
	for row, agentID := range agentIDs {
		if err := a.Memories.WriteBlock(agentID, a.BlockIndex, t.Row(row)); err != nil {
			return err
		}
	}
	return nil
}
