package storage

import (
	"encoding/json"
	"errors"

	"effector/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeRun(r model.RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeSnapshot(s model.StepSnapshot) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeSnapshot(data []byte) (model.StepSnapshot, error) {
	var snapshot model.StepSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return model.StepSnapshot{}, err
	}
	if err := checkVersion(snapshot.VersionedRecord); err != nil {
		return model.StepSnapshot{}, err
	}
	return snapshot, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
