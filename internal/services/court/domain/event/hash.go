package event

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashEnvelope fixes the field order hashed for an event. Sequence and
// integrity fields are excluded; they are covered by the chain hash.
type hashEnvelope struct {
	CourtID      string          `json:"court_id"`
	Type         string          `json:"type"`
	TimestampMs  int64           `json:"ts_ms"`
	ActorType    string          `json:"actor_type"`
	ActorID      string          `json:"actor_id"`
	RequestID    string          `json:"request_id"`
	InvocationID string          `json:"invocation_id"`
	EntityType   string          `json:"entity_type"`
	EntityID     string          `json:"entity_id"`
	Payload      json.RawMessage `json:"payload"`
}

type chainEnvelope struct {
	CourtID   string `json:"court_id"`
	Seq       uint64 `json:"seq"`
	EventHash string `json:"event_hash"`
	PrevHash  string `json:"prev_hash"`
}

// EventHash computes the SHA-256 content hash of a single event.
func EventHash(evt Event) (string, error) {
	payload := json.RawMessage(evt.PayloadJSON)
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	data, err := json.Marshal(hashEnvelope{
		CourtID:      evt.CourtID,
		Type:         string(evt.Type),
		TimestampMs:  evt.Timestamp.UTC().UnixMilli(),
		ActorType:    string(evt.ActorType),
		ActorID:      evt.ActorID,
		RequestID:    evt.RequestID,
		InvocationID: evt.InvocationID,
		EntityType:   evt.EntityType,
		EntityID:     evt.EntityID,
		Payload:      payload,
	})
	if err != nil {
		return "", fmt.Errorf("encode event envelope: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ChainHash links an event to its predecessor's chain hash.
func ChainHash(evt Event, prevHash string) (string, error) {
	hash := evt.Hash
	if hash == "" {
		computed, err := EventHash(evt)
		if err != nil {
			return "", err
		}
		hash = computed
	}
	data, err := json.Marshal(chainEnvelope{
		CourtID:   evt.CourtID,
		Seq:       evt.Seq,
		EventHash: hash,
		PrevHash:  prevHash,
	})
	if err != nil {
		return "", fmt.Errorf("encode chain envelope: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
