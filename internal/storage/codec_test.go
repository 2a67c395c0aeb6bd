package storage

import (
	"errors"
	"testing"

	"effector/internal/model"
)

func TestRunCodecRoundTrip(t *testing.T) {
	run := model.RunRecord{
		VersionedRecord: versioned(),
		ID:              "run-1",
		Seed:            7,
		BranchSizes:     []int{2, 3},
	}
	data, err := EncodeRun(run)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := DecodeRun(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.ID != "run-1" || decoded.Seed != 7 || decoded.BranchSizes[1] != 3 {
		t.Fatalf("unexpected decoded run: %+v", decoded)
	}
}

func TestSnapshotCodecRoundTrip(t *testing.T) {
	snapshot := model.StepSnapshot{
		VersionedRecord: versioned(),
		RunID:           "run-1",
		Step:            4,
		Actions:         []model.AgentActions{{AgentID: 2, Discrete: []int{1}}},
	}
	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Step != 4 || decoded.Actions[0].AgentID != 2 {
		t.Fatalf("unexpected decoded snapshot: %+v", decoded)
	}
}

func TestCodecRejectsVersionMismatch(t *testing.T) {
	run := model.RunRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: 2, CodecVersion: 1},
		ID:              "run-1",
	}
	data, err := EncodeRun(run)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if _, err := DecodeRun(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch error, got=%v", err)
	}

	snapshot := model.StepSnapshot{
		VersionedRecord: model.VersionedRecord{SchemaVersion: 1, CodecVersion: 9},
		RunID:           "run-1",
	}
	data, err = EncodeSnapshot(snapshot)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if _, err := DecodeSnapshot(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch error, got=%v", err)
	}
}
