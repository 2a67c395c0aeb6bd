package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord describes one decoding run: the model's action/memory geometry
// and the sampler seed, enough to rebuild an identical decoder.
type RunRecord struct {
	VersionedRecord
	ID                  string `json:"id"`
	Seed                int64  `json:"seed"`
	ContinuousCount     int    `json:"continuous_count"`
	BranchSizes         []int  `json:"branch_sizes"`
	MemorySize          int    `json:"memory_size"`
	MemoryBlocks        int    `json:"memory_blocks"`
	SampleProbabilities bool   `json:"sample_probabilities"`
	CreatedAtUTC        string `json:"created_at_utc"`
}

// AgentActions is one agent's decoded action buffers at a step.
type AgentActions struct {
	AgentID    int       `json:"agent_id"`
	Continuous []float64 `json:"continuous,omitempty"`
	Discrete   []int     `json:"discrete,omitempty"`
}

// AgentMemory is one agent's flat recurrent buffer at a step.
type AgentMemory struct {
	AgentID int       `json:"agent_id"`
	Values  []float64 `json:"values"`
}

// StepSnapshot is the decoded state of every agent after one step.
type StepSnapshot struct {
	VersionedRecord
	RunID    string         `json:"run_id"`
	Step     int            `json:"step"`
	Actions  []AgentActions `json:"actions"`
	Memories []AgentMemory  `json:"memories,omitempty"`
}
