package action

import "sort"

// Buffers holds one agent's action values for the current step. A freshly
// registered entry is empty; the first write allocates both sub-buffers to
// the spec's lengths and they never change length afterwards.
type Buffers struct {
	Continuous []float64
	Discrete   []int
}

func (b *Buffers) Empty() bool {
	return b.Continuous == nil && b.Discrete == nil
}

// Store maps agent ids to their action buffers. Entries are created by the
// caller via Register and mutated in place by appliers; appliers never
// create entries. Eviction is the caller's job, never an applier's.
type Store struct {
	spec    Spec
	buffers map[int]*Buffers
}

func NewStore(spec Spec) *Store {
	return &Store{
		spec:    spec,
		buffers: make(map[int]*Buffers),
	}
}

func (s *Store) Spec() Spec {
	return s.spec
}

// Register creates an empty entry for the agent if absent and returns it.
func (s *Store) Register(agentID int) *Buffers {
	if b, ok := s.buffers[agentID]; ok {
		return b
	}
	b := &Buffers{}
	s.buffers[agentID] = b
	return b
}

func (s *Store) Get(agentID int) (*Buffers, bool) {
	b, ok := s.buffers[agentID]
	return b, ok
}

// Ensure returns the agent's buffers with sub-buffers allocated to the
// spec, or nil if the agent was never registered.
func (s *Store) Ensure(agentID int) *Buffers {
	b, ok := s.buffers[agentID]
	if !ok {
		return nil
	}
	if b.Empty() {
		b.Continuous = make([]float64, s.spec.ContinuousCount())
		b.Discrete = make([]int, s.spec.NumBranches())
	}
	return b
}

func (s *Store) Remove(agentID int) {
	delete(s.buffers, agentID)
}

func (s *Store) Len() int {
	return len(s.buffers)
}

func (s *Store) Agents() []int {
	ids := make([]int, 0, len(s.buffers))
	for id := range s.buffers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
