package event

import (
	"testing"
	"time"
)

func TestEventHashIsStableAndContentSensitive(t *testing.T) {
	evt := Event{
		CourtID:     "court-1",
		Type:        Type("vote.revealed"),
		Timestamp:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		ActorType:   ActorTypeAccount,
		ActorID:     "juror-a",
		EntityType:  "case",
		EntityID:    "1",
		PayloadJSON: []byte(`{"vote":1}`),
	}
	first, err := EventHash(evt)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := EventHash(evt)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first != second {
		t.Fatalf("expected stable hash, got %s and %s", first, second)
	}

	evt.PayloadJSON = []byte(`{"vote":2}`)
	changed, err := EventHash(evt)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if changed == first {
		t.Fatal("expected payload change to alter hash")
	}
}

func TestChainHashDependsOnPredecessorAndSeq(t *testing.T) {
	evt := Event{CourtID: "court-1", Seq: 2, Type: Type("case.created"), PayloadJSON: []byte(`{}`)}
	a, err := ChainHash(evt, "prev-a")
	if err != nil {
		t.Fatalf("chain hash: %v", err)
	}
	b, err := ChainHash(evt, "prev-b")
	if err != nil {
		t.Fatalf("chain hash: %v", err)
	}
	if a == b {
		t.Fatal("expected predecessor to alter chain hash")
	}
	evt.Seq = 3
	c, err := ChainHash(evt, "prev-a")
	if err != nil {
		t.Fatalf("chain hash: %v", err)
	}
	if c == a {
		t.Fatal("expected sequence to alter chain hash")
	}
}
