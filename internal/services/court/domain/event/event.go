package event

import "time"

// Type identifies the event type string.
type Type string

// ActorType identifies who caused the event.
type ActorType string

const (
	// ActorTypeSystem marks events caused by the court itself.
	ActorTypeSystem ActorType = "system"
	// ActorTypeAccount marks events caused by a ledger account holder.
	ActorTypeAccount ActorType = "account"
)

// Event is the canonical journal envelope.
//
// Seq, Hash, PrevHash, ChainHash, Signature and SignatureKeyID are assigned by
// the journal on append; deciders leave them empty.
type Event struct {
	CourtID        string
	Seq            uint64
	Hash           string
	PrevHash       string
	ChainHash      string
	Signature      string
	SignatureKeyID string
	Type           Type
	Timestamp      time.Time
	ActorType      ActorType
	ActorID        string
	RequestID      string
	InvocationID   string
	EntityType     string
	EntityID       string
	PayloadJSON    []byte
}
