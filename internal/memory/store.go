// Package memory holds per-agent recurrent state carried between inference
// steps. Buffers grow on demand and never shrink; a capacity-triggered grow
// zeroes the entire buffer, not just the added tail, so stale recurrent
// state is never mixed with a new layout.
package memory

import (
	"fmt"
	"sort"
)

type Store struct {
	memorySize int
	blockCount int
	buffers    map[int][]float64
}

// NewStore builds a store for a model with blockCount stacked recurrent
// blocks of memorySize floats each. Both are fixed for the model's life.
func NewStore(memorySize, blockCount int) (*Store, error) {
	if memorySize <= 0 {
		return nil, fmt.Errorf("memory size must be > 0, got=%d", memorySize)
	}
	if blockCount <= 0 {
		return nil, fmt.Errorf("block count must be > 0, got=%d", blockCount)
	}
	return &Store{
		memorySize: memorySize,
		blockCount: blockCount,
		buffers:    make(map[int][]float64),
	}, nil
}

func (s *Store) MemorySize() int {
	return s.memorySize
}

func (s *Store) BlockCount() int {
	return s.blockCount
}

// Capacity is the full per-agent buffer length.
func (s *Store) Capacity() int {
	return s.memorySize * s.blockCount
}

// Ensure returns the agent's buffer, creating or growing it to full
// capacity. An undersized buffer is replaced by a fresh zeroed one; an
// already large enough buffer is returned untouched.
func (s *Store) Ensure(agentID int) []float64 {
	buf, ok := s.buffers[agentID]
	if !ok || len(buf) < s.Capacity() {
		buf = make([]float64, s.Capacity())
		s.buffers[agentID] = buf
	}
	return buf
}

// WriteBlock overwrites exactly one block's slice of the agent's buffer,
// growing first if needed. Other blocks are untouched unless the grow path
// reset the whole buffer.
func (s *Store) WriteBlock(agentID, blockIndex int, values []float64) error {
	if blockIndex < 0 || blockIndex >= s.blockCount {
		return fmt.Errorf("block index out of range: index=%d blocks=%d", blockIndex, s.blockCount)
	}
	buf := s.Ensure(agentID)
	start := blockIndex * s.memorySize
	n := len(values)
	if n > s.memorySize {
		n = s.memorySize
	}
	copy(buf[start:start+n], values[:n])
	return nil
}

// Block returns a copy of one block's slice, or nil if the agent is absent.
func (s *Store) Block(agentID, blockIndex int) []float64 {
	buf, ok := s.buffers[agentID]
	if !ok || blockIndex < 0 || blockIndex >= s.blockCount {
		return nil
	}
	start := blockIndex * s.memorySize
	if len(buf) < start+s.memorySize {
		return nil
	}
	return append([]float64(nil), buf[start:start+s.memorySize]...)
}

// Restore installs a persisted buffer as-is, even if it is shorter than
// the current capacity (a snapshot from a model with fewer blocks). A later
// Ensure grows and zeroes it per the reset-on-grow policy.
func (s *Store) Restore(agentID int, values []float64) {
	s.buffers[agentID] = append([]float64(nil), values...)
}

// Get returns the live buffer. The single-writer discipline applies: only
// the decode call site mutates entries.
func (s *Store) Get(agentID int) ([]float64, bool) {
	buf, ok := s.buffers[agentID]
	return buf, ok
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
