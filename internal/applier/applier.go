// Package applier decodes named forward-pass output tensors into the
// per-agent action and memory stores. Row i of every output tensor belongs
// to agentIDs[i]; every applier derives its row-to-agent mapping from that
// one sequence.
package applier

import (
	"errors"
	"fmt"
	"sort"

	"effector/internal/tensor"
)

// Applier consumes one output tensor for one batch and mutates a store in
// place. Implementations must not retain the tensor past Apply returning.
type Applier interface {
	Apply(t *tensor.Tensor, agentIDs []int) error
}

// OutputKind tags the closed set of output tensor kinds a model can emit.
type OutputKind int

const (
	KindContinuous OutputKind = iota
	KindDiscreteDirect
	KindDiscreteProbabilities
	KindMemory
)

func (k OutputKind) String() string {
	switch k {
	case KindContinuous:
		return "continuous"
	case KindDiscreteDirect:
		return "discrete"
	case KindDiscreteProbabilities:
		return "discrete_probabilities"
	case KindMemory:
		return "memory"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var ErrDuplicateOutput = errors.New("output name already registered")

// Set routes named output tensors to their appliers. The caller assembles
// it once from the action spec; dispatch is a map lookup per tensor.
type Set struct {
	appliers map[string]Applier
}

func NewSet() *Set {
	return &Set{appliers: make(map[string]Applier)}
}

func (s *Set) Register(name string, a Applier) error {
	if name == "" {
		return errors.New("output name is required")
	}
	if a == nil {
		return fmt.Errorf("applier is required for output %s", name)
	}
	if _, exists := s.appliers[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateOutput, name)
	}
	s.appliers[name] = a
	return nil
}

func (s *Set) MustRegister(name string, a Applier) {
	if err := s.Register(name, a); err != nil {
		panic(err)
	}
}

// Apply routes every output with a registered applier. Outputs the model
// emits but this layer does not consume are skipped. Names are visited in
// sorted order so a multi-output failure is deterministic.
func (s *Set) Apply(outputs map[string]*tensor.Tensor, agentIDs []int) error {
	names := make([]string, 0, len(outputs))
	for name := range outputs {
		if _, ok := s.appliers[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err := s.appliers[name].Apply(outputs[name], agentIDs); err != nil {
			return fmt.Errorf("apply output %s: %w", name, err)
		}
	}
	return nil
}

func (s *Set) Registered() []string {
	names := make([]string, 0, len(s.appliers))
	for name := range s.appliers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
