package message

import (
	"sync"

	"github.com/coreproto/tl/codec"
)

// PendingTable indexes in-flight OutgoingMessages by their wire msg_id,
// implementing codec.OutgoingLookup so the deserializer can resolve an
// rpc_result's expected result type (spec §4.6 "resolve via req_msg_id").
type PendingTable struct {
	mu      sync.Mutex
	byMsgID map[int64]*OutgoingMessage
}

func NewPendingTable() *PendingTable {
	return &PendingTable{byMsgID: make(map[int64]*OutgoingMessage)}
}

// Track registers m under its current msg_id. Call again after a resend
// allocates a new msg_id, since the old mapping is stale.
func (t *PendingTable) Track(m *OutgoingMessage) {
	id := m.MsgID()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byMsgID[id] = m
}

// Untrack removes msgID from the table, e.g. once its message can be
// garbage-collected.
func (t *PendingTable) Untrack(msgID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byMsgID, msgID)
}

// Lookup implements codec.OutgoingLookup.
func (t *PendingTable) Lookup(msgID int64) (codec.OutgoingMessageRef, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.byMsgID[msgID]
	if !ok {
		return nil, false
	}
	return m, true
}

// Get returns the concrete OutgoingMessage for msgID, for callers (the
// session loop) that need more than the codec.OutgoingMessageRef surface.
func (t *PendingTable) Get(msgID int64) (*OutgoingMessage, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.byMsgID[msgID]
	return m, ok
}

// Sweep removes and returns every message for which canGarbageCollect is
// true (spec §4.7), letting the session loop reclaim memory periodically
// rather than on every reply.
func (t *PendingTable) Sweep() []*OutgoingMessage {
	t.mu.Lock()
	defer t.mu.Unlock()

	var collected []*OutgoingMessage
	for id, m := range t.byMsgID {
		if m.CanGarbageCollect() {
			collected = append(collected, m)
			delete(t.byMsgID, id)
		}
	}
	return collected
}

// Len reports the number of tracked messages.
func (t *PendingTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byMsgID)
}
