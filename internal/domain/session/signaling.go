package session

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MessageType classifies a relayed signaling message.
type MessageType string

const (
	MessageOffer     MessageType = "offer"
	MessageAnswer    MessageType = "answer"
	MessageCandidate MessageType = "ice_candidate"
)

// Message is one relayed signaling payload. The relay never inspects the
// payload; it is opaque SDP or candidate JSON.
type Message struct {
	Type      MessageType     `json:"type"`
	From      string          `json:"from"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

type signalState struct {
	offer         *Message
	offerConsumed bool
	answer        *Message
	answerTaken   bool
	// Per-endpoint FIFO candidate queues, keyed by sender. Order within a
	// queue is preserved; cross-endpoint order is not guaranteed.
	candidates map[string][]*Message
}

// Channel relays offer/answer/candidate messages between the two endpoints
// of a session. Only sessions the service has opened accept traffic;
// terminal sessions are closed and yield ErrSessionNotFound.
type Channel struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*signalState
}

func NewChannel() *Channel {
	return &Channel{sessions: map[uuid.UUID]*signalState{}}
}

// Open makes the session id accept signaling traffic.
func (c *Channel) Open(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[id]; !ok {
		c.sessions[id] = &signalState{candidates: map[string][]*Message{}}
	}
}

// Close drops the session and all buffered messages.
func (c *Channel) Close(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, id)
}

// Reset clears a session's signaling artifacts while keeping it open. Used
// when a fallback re-creates the WebRTC leg from scratch.
func (c *Channel) Reset(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[id]; ok {
		c.sessions[id] = &signalState{candidates: map[string][]*Message{}}
	}
}

// SendOffer stores the session's offer. A second offer before the first is
// consumed is rejected.
func (c *Channel) SendOffer(id uuid.UUID, from string, payload json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if st.offer != nil && !st.offerConsumed {
		return ErrDuplicateOffer
	}
	st.offer = &Message{Type: MessageOffer, From: from, Payload: payload, CreatedAt: time.Now().UTC()}
	st.offerConsumed = false
	return nil
}

// SendAnswer stores the answer; valid only once an offer exists.
func (c *Channel) SendAnswer(id uuid.UUID, from string, payload json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if st.offer == nil {
		return ErrNoPendingOffer
	}
	st.answer = &Message{Type: MessageAnswer, From: from, Payload: payload, CreatedAt: time.Now().UTC()}
	st.answerTaken = false
	return nil
}

// SendCandidate appends to the sender's FIFO queue. Candidates may arrive
// before the remote description; they stay buffered until the peer drains
// them (trickle ICE).
func (c *Channel) SendCandidate(id uuid.UUID, from string, payload json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	st.candidates[from] = append(st.candidates[from], &Message{
		Type: MessageCandidate, From: from, Payload: payload, CreatedAt: time.Now().UTC(),
	})
	return nil
}

// Collect drains everything pending for the given endpoint: the offer or
// answer sent by the peer (each delivered once) and the peer's buffered
// candidates in send order.
func (c *Channel) Collect(id uuid.UUID, endpoint string) ([]*Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	var out []*Message
	if st.offer != nil && !st.offerConsumed && st.offer.From != endpoint {
		out = append(out, st.offer)
		st.offerConsumed = true
	}
	if st.answer != nil && !st.answerTaken && st.answer.From != endpoint {
		out = append(out, st.answer)
		st.answerTaken = true
	}
	for from, queue := range st.candidates {
		if from == endpoint {
			continue
		}
		out = append(out, queue...)
		delete(st.candidates, from)
	}
	return out, nil
}

// Negotiated reports whether both descriptions have been exchanged, the
// webrtc gate for the waiting-to-active transition.
func (c *Channel) Negotiated(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.sessions[id]
	if !ok {
		return false
	}
	return st.offer != nil && st.answer != nil
}
