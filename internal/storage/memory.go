package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"effector/internal/model"
)

type MemoryStore struct {
	mu        sync.RWMutex
	runs      map[string]model.RunRecord
	snapshots map[string]map[int]model.StepSnapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = make(map[string]model.RunRecord)
	s.snapshots = make(map[string]map[int]model.StepSnapshot)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run.BranchSizes = append([]int(nil), run.BranchSizes...)
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return model.RunRecord{}, false, nil
	}
	run.BranchSizes = append([]int(nil), run.BranchSizes...)
	return run, true, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		run.BranchSizes = append([]int(nil), run.BranchSizes...)
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID < runs[j].ID })
	return runs, nil
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, snapshot model.StepSnapshot) error {
	if snapshot.RunID == "" {
		return fmt.Errorf("snapshot run id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	steps, ok := s.snapshots[snapshot.RunID]
	if !ok {
		steps = make(map[int]model.StepSnapshot)
		s.snapshots[snapshot.RunID] = steps
	}
	steps[snapshot.Step] = copySnapshot(snapshot)
	return nil
}

func (s *MemoryStore) GetSnapshot(_ context.Context, runID string, step int) (model.StepSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.snapshots[runID][step]
	if !ok {
		return model.StepSnapshot{}, false, nil
	}
	return copySnapshot(snapshot), true, nil
}

func (s *MemoryStore) LatestStep(_ context.Context, runID string) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	steps, ok := s.snapshots[runID]
	if !ok || len(steps) == 0 {
		return 0, false, nil
	}
	latest := 0
	first := true
	for step := range steps {
		if first || step > latest {
			latest = step
			first = false
		}
	}
	return latest, true, nil
}

func copySnapshot(snapshot model.StepSnapshot) model.StepSnapshot {
	copied := snapshot
	copied.Actions = make([]model.AgentActions, 0, len(snapshot.Actions))
	for _, a := range snapshot.Actions {
		copied.Actions = append(copied.Actions, model.AgentActions{
			AgentID:    a.AgentID,
			Continuous: append([]float64(nil), a.Continuous...),
			Discrete:   append([]int(nil), a.Discrete...),
		})
	}
	copied.Memories = make([]model.AgentMemory, 0, len(snapshot.Memories))
	for _, m := range snapshot.Memories {
		copied.Memories = append(copied.Memories, model.AgentMemory{
			AgentID: m.AgentID,
			Values:  append([]float64(nil), m.Values...),
		})
	}
	return copied
}
