package applier

import (
	"effector/internal/action"
	"effector/internal/tensor"
)

// Continuous copies each agent's row into its continuous action buffer.
// Only agents already registered in the store receive updates; the tensor's
// shape is trusted (hot path, no validation by design).
type Continuous struct {
	Actions *action.Store
}

func (a *Continuous) Apply(t *tensor.Tensor, agentIDs []int) error {
	for row, agentID := range agentIDs {
		if _, ok := a.Actions.Get(agentID); !ok {
			continue
		}
		buf := a.Actions.Ensure(agentID)
		copy(buf.Continuous, t.Row(row))
	}
	return nil
}

// DiscreteDirect writes already chosen integer actions, one per branch.
// Each cell is truncated toward zero; no sampling is performed.
type DiscreteDirect struct {
	Actions *action.Store
}

func (a *DiscreteDirect) Apply(t *tensor.Tensor, agentIDs []int) error {
	for row, agentID := range agentIDs {
		if _, ok := a.Actions.Get(agentID); !ok {
			continue
		}
		buf := a.Actions.Ensure(agentID)
		for branch := range buf.Discrete {
			buf.Discrete[branch] = int(t.At(row, branch))
		}
	}
	return nil
}
