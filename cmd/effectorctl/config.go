package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// RolloutConfig describes a synthetic decoding run: the action/memory
// geometry plus how many agents and steps to drive through the decoder.
type RolloutConfig struct {
	RunID               string
	Seed                int64
	Agents              int
	Steps               int
	Continuous          int
	Branches            []int
	MemorySize          int
	MemoryBlocks        int
	SampleProbabilities bool
	SnapshotEvery       int
}

func loadRolloutConfig(path string) (RolloutConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RolloutConfig{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return RolloutConfig{}, err
	}

	var cfg RolloutConfig
	if v, ok := asString(raw["run_id"]); ok {
		cfg.RunID = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		cfg.Seed = v
	}
	if v, ok := asInt(raw["agents"]); ok {
		cfg.Agents = v
	}
	if v, ok := asInt(raw["steps"]); ok {
		cfg.Steps = v
	}
	if v, ok := asInt(raw["continuous"]); ok {
		cfg.Continuous = v
	}
	if v, ok := asIntSlice(raw["branches"]); ok {
		cfg.Branches = v
	}
	if v, ok := asInt(raw["memory_size"]); ok {
		cfg.MemorySize = v
	}
	if v, ok := asInt(raw["memory_blocks"]); ok {
		cfg.MemoryBlocks = v
	}
	if v, ok := asBool(raw["sample_probabilities"]); ok {
		cfg.SampleProbabilities = v
	}
	if v, ok := asInt(raw["snapshot_every"]); ok {
		cfg.SnapshotEvery = v
	}

	return cfg, validateRolloutConfig(cfg)
}

func validateRolloutConfig(cfg RolloutConfig) error {
	if cfg.Agents <= 0 {
		return fmt.Errorf("agents must be > 0, got=%d", cfg.Agents)
	}
	if cfg.Steps <= 0 {
		return fmt.Errorf("steps must be > 0, got=%d", cfg.Steps)
	}
	if cfg.Continuous <= 0 && len(cfg.Branches) == 0 {
		return fmt.Errorf("config needs continuous actions or discrete branches")
	}
	for i, size := range cfg.Branches {
		if size < 1 {
			return fmt.Errorf("branch %d size must be >= 1, got=%d", i, size)
		}
	}
	if cfg.MemoryBlocks > 0 && cfg.MemorySize <= 0 {
		return fmt.Errorf("memory_blocks set without memory_size")
	}
	return nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asInt(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func asInt64(v any) (int64, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

func asIntSlice(v any) ([]int, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]int, 0, len(list))
	for _, item := range list {
		n, ok := asInt(item)
		if !ok {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}
