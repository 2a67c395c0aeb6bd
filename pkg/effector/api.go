// Package effector is the facade over the output-decoding layer: it builds
// decoders from run configuration, applies forward-pass outputs step by
// step and persists decoded snapshots through the storage backend.
package effector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"effector/internal/action"
	"effector/internal/decoder"
	"effector/internal/model"
	"effector/internal/storage"
	"effector/internal/tensor"
)

const defaultDBPath = "effector.db"

type Options struct {
	StoreKind string
	DBPath    string
}

type Client struct {
	store storage.Store
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

// SessionConfig describes one decoding run. Zero-value fields are
// defaulted: the run id becomes a fresh uuid and the allocator the pooling
// one.
type SessionConfig struct {
	RunID               string
	Seed                int64
	ContinuousCount     int
	BranchSizes         []int
	MemorySize          int
	MemoryBlocks        int
	SampleProbabilities bool

	// Agents pre-registers the agents whose action buffers appliers may
	// update. Agents can also be registered later via Session.Register.
	Agents []int
}

// Session binds a decoder to a persisted run record and tracks the step
// counter for snapshots.
type Session struct {
	client *Client
	run    model.RunRecord
	dec    *decoder.Decoder
	step   int
}

func (c *Client) OpenSession(ctx context.Context, cfg SessionConfig) (*Session, error) {
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}

	spec, err := action.NewSpec(cfg.ContinuousCount, cfg.BranchSizes)
	if err != nil {
		return nil, err
	}
	dec, err := decoder.New(decoder.Config{
		Spec:                spec,
		Seed:                cfg.Seed,
		MemorySize:          cfg.MemorySize,
		MemoryBlocks:        cfg.MemoryBlocks,
		Allocator:           tensor.NewPoolAllocator(),
		SampleProbabilities: cfg.SampleProbabilities,
	})
	if err != nil {
		return nil, err
	}
	for _, agentID := range cfg.Agents {
		dec.Register(agentID)
	}

	run := model.RunRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:                  cfg.RunID,
		Seed:                cfg.Seed,
		ContinuousCount:     cfg.ContinuousCount,
		BranchSizes:         append([]int(nil), cfg.BranchSizes...),
		MemorySize:          cfg.MemorySize,
		MemoryBlocks:        cfg.MemoryBlocks,
		SampleProbabilities: cfg.SampleProbabilities,
		CreatedAtUTC:        time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return nil, err
	}

	return &Session{client: c, run: run, dec: dec}, nil
}

func (s *Session) RunID() string {
	return s.run.ID
}

func (s *Session) Step() int {
	return s.step
}

func (s *Session) Decoder() *decoder.Decoder {
	return s.dec
}

func (s *Session) Register(agentID int) {
	s.dec.Register(agentID)
}

// Apply decodes one batch of forward-pass outputs and advances the step
// counter. Row i of every output belongs to agentIDs[i].
func (s *Session) Apply(outputs map[string]*tensor.Tensor, agentIDs []int) error {
	if err := s.dec.Step(outputs, agentIDs); err != nil {
		return err
	}
	s.step++
	return nil
}

// Snapshot persists the decoded state of every registered agent at the
// current step.
func (s *Session) Snapshot(ctx context.Context) error {
	snapshot := model.StepSnapshot{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		RunID: s.run.ID,
		Step:  s.step,
	}

	actions := s.dec.Actions()
	for _, agentID := range actions.Agents() {
		buf, ok := actions.Get(agentID)
		if !ok || buf.Empty() {
			continue
		}
		snapshot.Actions = append(snapshot.Actions, model.AgentActions{
			AgentID:    agentID,
			Continuous: append([]float64(nil), buf.Continuous...),
			Discrete:   append([]int(nil), buf.Discrete...),
		})
	}
	if memories := s.dec.Memories(); memories != nil {
		for _, agentID := range memories.Agents() {
			values, ok := memories.Get(agentID)
			if !ok {
				continue
			}
			snapshot.Memories = append(snapshot.Memories, model.AgentMemory{
				AgentID: agentID,
				Values:  append([]float64(nil), values...),
			})
		}
	}

	return s.client.store.SaveSnapshot(ctx, snapshot)
}

// Restore loads a persisted snapshot into the session's stores and resets
// the step counter to the snapshot's step. Memory buffers shorter than the
// current capacity are grown and zeroed on the next decode step.
func (s *Session) Restore(snapshot model.StepSnapshot) {
	actions := s.dec.Actions()
	for _, a := range snapshot.Actions {
		actions.Register(a.AgentID)
		buf := actions.Ensure(a.AgentID)
		copy(buf.Continuous, a.Continuous)
		copy(buf.Discrete, a.Discrete)
	}
	if memories := s.dec.Memories(); memories != nil {
		for _, m := range snapshot.Memories {
			memories.Restore(m.AgentID, m.Values)
		}
	}
	s.step = snapshot.Step
}

type RunItem struct {
	RunID           string
	Seed            int64
	ContinuousCount int
	BranchSizes     []int
	MemorySize      int
	MemoryBlocks    int
	CreatedAtUTC    string
}

func (c *Client) Runs(ctx context.Context) ([]RunItem, error) {
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RunItem, 0, len(runs))
	for _, run := range runs {
		out = append(out, RunItem{
			RunID:           run.ID,
			Seed:            run.Seed,
			ContinuousCount: run.ContinuousCount,
			BranchSizes:     append([]int(nil), run.BranchSizes...),
			MemorySize:      run.MemorySize,
			MemoryBlocks:    run.MemoryBlocks,
			CreatedAtUTC:    run.CreatedAtUTC,
		})
	}
	return out, nil
}

type SnapshotRequest struct {
	RunID  string
	Step   int
	Latest bool
}

func (c *Client) Snapshot(ctx context.Context, req SnapshotRequest) (model.StepSnapshot, error) {
	if req.RunID == "" {
		return model.StepSnapshot{}, errors.New("run id is required")
	}
	step := req.Step
	if req.Latest {
		latest, ok, err := c.store.LatestStep(ctx, req.RunID)
		if err != nil {
			return model.StepSnapshot{}, err
		}
		if !ok {
			return model.StepSnapshot{}, fmt.Errorf("no snapshots for run id: %s", req.RunID)
		}
		step = latest
	}

	snapshot, ok, err := c.store.GetSnapshot(ctx, req.RunID, step)
	if err != nil {
		return model.StepSnapshot{}, err
	}
	if !ok {
		return model.StepSnapshot{}, fmt.Errorf("snapshot not found: run=%s step=%d", req.RunID, step)
	}
	return snapshot, nil
}
