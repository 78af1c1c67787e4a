package session

import (
	"encoding/json"
	"fmt"
	"time"
)

const recordVersion = 1

// record is the persisted form of a snapshot.
type record struct {
	Version   int       `json:"version"`
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updated_at"`
	Snapshot
}

func encode(id string, snap Snapshot) ([]byte, error) {
	data, err := json.Marshal(record{
		Version:   recordVersion,
		ID:        id,
		UpdatedAt: time.Now().UTC(),
		Snapshot:  snap,
	})
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", id, err)
	}
	return data, nil
}

func decode(id string, data []byte) (Snapshot, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Snapshot{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	if rec.Version != recordVersion {
		return Snapshot{}, fmt.Errorf("decode session %s: unsupported version %d", id, rec.Version)
	}
	return rec.Snapshot, nil
}
