package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
)

func payload(s string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf("%q", s))
}

func TestChannel_OfferAnswerFlow(t *testing.T) {
	ch := NewChannel()
	id := uuid.New()
	ch.Open(id)

	if err := ch.SendAnswer(id, "patient", payload("sdp-answer")); !errors.Is(err, ErrNoPendingOffer) {
		t.Fatalf("answer before offer: %v", err)
	}

	if err := ch.SendOffer(id, "provider", payload("sdp-offer")); err != nil {
		t.Fatalf("SendOffer: %v", err)
	}
	if err := ch.SendOffer(id, "provider", payload("sdp-offer-2")); !errors.Is(err, ErrDuplicateOffer) {
		t.Fatalf("duplicate offer: %v", err)
	}

	if err := ch.SendAnswer(id, "patient", payload("sdp-answer")); err != nil {
		t.Fatalf("SendAnswer: %v", err)
	}
	if !ch.Negotiated(id) {
		t.Error("expected negotiated after offer+answer")
	}
}

func TestChannel_UnknownSession(t *testing.T) {
	ch := NewChannel()
	id := uuid.New()

	if err := ch.SendOffer(id, "a", payload("x")); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("offer: %v", err)
	}
	if err := ch.SendCandidate(id, "a", payload("x")); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("candidate: %v", err)
	}
	if _, err := ch.Collect(id, "a"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("collect: %v", err)
	}
}

func TestChannel_ClosedSessionRejectsTraffic(t *testing.T) {
	ch := NewChannel()
	id := uuid.New()
	ch.Open(id)
	ch.Close(id)

	if err := ch.SendOffer(id, "a", payload("x")); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("offer after close: %v", err)
	}
}

func TestChannel_CandidateOrderingPerEndpoint(t *testing.T) {
	ch := NewChannel()
	id := uuid.New()
	ch.Open(id)

	for _, c := range []string{"a", "b", "c"} {
		if err := ch.SendCandidate(id, "provider", payload(c)); err != nil {
			t.Fatalf("SendCandidate(%s): %v", c, err)
		}
	}

	msgs, err := ch.Collect(id, "patient")
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	for i, want := range []string{"a", "b", "c"} {
		var got string
		json.Unmarshal(msgs[i].Payload, &got)
		if got != want {
			t.Errorf("msgs[%d] = %q, want %q", i, got, want)
		}
	}

	// Drained; nothing left.
	msgs, _ = ch.Collect(id, "patient")
	if len(msgs) != 0 {
		t.Errorf("second collect returned %d messages", len(msgs))
	}
}

func TestChannel_CollectDoesNotReturnOwnMessages(t *testing.T) {
	ch := NewChannel()
	id := uuid.New()
	ch.Open(id)

	ch.SendOffer(id, "provider", payload("offer"))
	ch.SendCandidate(id, "provider", payload("cand-p"))
	ch.SendCandidate(id, "patient", payload("cand-q"))

	msgs, err := ch.Collect(id, "provider")
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	for _, m := range msgs {
		if m.From == "provider" {
			t.Errorf("provider received own %s message", m.Type)
		}
	}
	if len(msgs) != 1 || msgs[0].Type != MessageCandidate {
		t.Errorf("provider messages = %+v", msgs)
	}
}

func TestChannel_OfferDeliveredOnce(t *testing.T) {
	ch := NewChannel()
	id := uuid.New()
	ch.Open(id)

	ch.SendOffer(id, "provider", payload("offer"))

	first, _ := ch.Collect(id, "patient")
	if len(first) != 1 || first[0].Type != MessageOffer {
		t.Fatalf("first collect = %+v", first)
	}
	second, _ := ch.Collect(id, "patient")
	if len(second) != 0 {
		t.Errorf("offer delivered twice")
	}

	// A consumed offer may be replaced (renegotiation).
	if err := ch.SendOffer(id, "provider", payload("offer-2")); err != nil {
		t.Errorf("replacing consumed offer: %v", err)
	}
}

func TestChannel_ResetClearsArtifacts(t *testing.T) {
	ch := NewChannel()
	id := uuid.New()
	ch.Open(id)

	ch.SendOffer(id, "provider", payload("offer"))
	ch.SendAnswer(id, "patient", payload("answer"))
	ch.SendCandidate(id, "provider", payload("cand"))

	ch.Reset(id)

	if ch.Negotiated(id) {
		t.Error("negotiated after reset")
	}
	msgs, err := ch.Collect(id, "patient")
	if err != nil {
		t.Fatalf("Collect after reset: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("messages survived reset: %+v", msgs)
	}
	// Still open for new traffic.
	if err := ch.SendOffer(id, "patient", payload("fresh")); err != nil {
		t.Errorf("offer after reset: %v", err)
	}
}
