// Package decoder assembles the applier set for one model and runs the
// per-step dispatch: forward-pass outputs in, updated action and memory
// stores out.
package decoder

import (
	"fmt"

	"effector/internal/action"
	"effector/internal/applier"
	"effector/internal/memory"
	"effector/internal/sampler"
	"effector/internal/tensor"
)

// Standard output tensor names emitted by the forward-pass engine.
const (
	ContinuousOutputName    = "continuous_actions"
	DiscreteOutputName      = "discrete_actions"
	DiscreteProbsOutputName = "action_probs"
	RecurrentOutputName     = "recurrent_out"
)

// RecurrentBlockOutputName names the output of one stacked recurrent block.
func RecurrentBlockOutputName(blockIndex int) string {
	return fmt.Sprintf("%s_%d", RecurrentOutputName, blockIndex)
}

type Config struct {
	Spec action.Spec
	Seed int64

	// MemorySize and MemoryBlocks describe the model's recurrent state;
	// both zero means the model is feed-forward.
	MemorySize   int
	MemoryBlocks int

	// Allocator provides scratch tensors for sampling. Defaults to the
	// heap allocator.
	Allocator tensor.Allocator

	// SampleProbabilities selects the logits-emitting model contract
	// (action_probs output) instead of direct discrete actions.
	SampleProbabilities bool
}

// Decoder owns the stores and applier set for one model. All mutation
// happens inside Step; the accessors hand the live stores to the single
// caller that drives the loop.
type Decoder struct {
	spec     action.Spec
	actions  *action.Store
	memories *memory.Store
	set      *applier.Set
}

func New(cfg Config) (*Decoder, error) {
	alloc := cfg.Allocator
	if alloc == nil {
		alloc = tensor.HeapAllocator{}
	}
	if cfg.Spec.ContinuousCount() == 0 && cfg.Spec.NumBranches() == 0 {
		return nil, fmt.Errorf("action spec is empty")
	}

	d := &Decoder{
		spec:    cfg.Spec,
		actions: action.NewStore(cfg.Spec),
		set:     applier.NewSet(),
	}
	if cfg.MemorySize > 0 {
		blocks := cfg.MemoryBlocks
		if blocks <= 0 {
			blocks = 1
		}
		memories, err := memory.NewStore(cfg.MemorySize, blocks)
		if err != nil {
			return nil, err
		}
		d.memories = memories
	}

	for _, b := range outputBindings(cfg) {
		var a applier.Applier
		switch b.kind {
		case applier.KindContinuous:
			a = &applier.Continuous{Actions: d.actions}
		case applier.KindDiscreteDirect:
			a = &applier.DiscreteDirect{Actions: d.actions}
		case applier.KindDiscreteProbabilities:
			a = &applier.DiscreteProbability{
				Actions: d.actions,
				Sampler: sampler.NewMultinomial(cfg.Seed),
				Alloc:   alloc,
			}
		case applier.KindMemory:
			if b.blockIndex < 0 {
				a = &applier.MemorySize{Memories: d.memories}
			} else {
				a = &applier.MemoryBlock{Memories: d.memories, BlockIndex: b.blockIndex}
			}
		default:
			return nil, fmt.Errorf("unsupported output kind: %s", b.kind)
		}
		if err := d.set.Register(b.name, a); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// outputBinding ties one named output tensor to its applier kind. Memory
// bindings with blockIndex < 0 only size buffers; indexed ones write a
// single block.
type outputBinding struct {
	name       string
	kind       applier.OutputKind
	blockIndex int
}

func outputBindings(cfg Config) []outputBinding {
	var bindings []outputBinding
	if cfg.Spec.ContinuousCount() > 0 {
		bindings = append(bindings, outputBinding{name: ContinuousOutputName, kind: applier.KindContinuous})
	}
	if cfg.Spec.NumBranches() > 0 {
		if cfg.SampleProbabilities {
			bindings = append(bindings, outputBinding{name: DiscreteProbsOutputName, kind: applier.KindDiscreteProbabilities})
		} else {
			bindings = append(bindings, outputBinding{name: DiscreteOutputName, kind: applier.KindDiscreteDirect})
		}
	}
	if cfg.MemorySize > 0 {
		blocks := cfg.MemoryBlocks
		if blocks <= 0 {
			blocks = 1
		}
		bindings = append(bindings, outputBinding{name: RecurrentOutputName, kind: applier.KindMemory, blockIndex: -1})
		for block := 0; block < blocks; block++ {
			bindings = append(bindings, outputBinding{
				name:       RecurrentBlockOutputName(block),
				kind:       applier.KindMemory,
				blockIndex: block,
			})
		}
	}
	return bindings
}

// Register pre-registers an agent so appliers will update it. Appliers skip
// agents the caller never registered.
func (d *Decoder) Register(agentID int) {
	d.actions.Register(agentID)
}

// Step routes one batch of named outputs through the applier set. Row i of
// every tensor corresponds to agentIDs[i].
func (d *Decoder) Step(outputs map[string]*tensor.Tensor, agentIDs []int) error {
	return d.set.Apply(outputs, agentIDs)
}

func (d *Decoder) Actions() *action.Store {
	return d.actions
}

// Memories returns the recurrent store, or nil for a feed-forward model.
func (d *Decoder) Memories() *memory.Store {
	return d.memories
}

func (d *Decoder) RegisteredOutputs() []string {
	return d.set.Registered()
}
