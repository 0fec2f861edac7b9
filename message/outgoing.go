package message

import (
	"fmt"
	"sync"
	"time"

	"github.com/coreproto/tl/tl"
)

// State is the OutgoingMessage lifecycle bitfield (spec §3 "Outgoing
// message entity").
type State uint8

const (
	StatePending State = 0

	bitSent    State = 1
	bitAcked   State = 2
	bitReplied State = 4

	// StateReplied is ACKED|4, spec's literal REPLIED=6: testing
	// state&StateReplied==StateReplied checks both the acked and
	// reply-fired bits regardless of whatever SENT bit accumulated
	// earlier in the OR sequence.
	StateReplied = bitAcked | bitReplied
)

// notContentRelated is the static set of constructors spec §4.7 calls
// "non-content-related" (service-level framing, not user-visible content),
// used to derive OutgoingMessage.ContentRelated once at construction.
var notContentRelated = map[string]bool{
	"msgs_ack":              true,
	"ping":                  true,
	"ping_delay_disconnect": true,
	"pong":                  true,
	"msg_container":         true,
	"gzip_packed":           true,
	"http_wait":             true,
	"destroy_session":       true,
	"destroy_sessionRes":    true,
	"msgs_state_info":       true,
	"msg_resend_req":        true,
	"bad_server_salt":       true,
	"bad_msg_notification":  true,
	"new_session_created":   true,
	"rpc_result":            true,
}

// OutgoingMessage tracks one request's lifecycle: pending, sent,
// acknowledged, replied (spec §3/§4.7).
type OutgoingMessage struct {
	mu sync.Mutex

	body       tl.Value
	hasBody    bool
	serialized []byte

	constructor string
	resultType  string
	method      bool
	unencrypted bool

	state State
	msgID int64
	tries int
	sent  time.Time

	userRelated       bool
	fileRelated       bool
	botAPI            bool
	refreshReferences bool
	contentRelated    bool
	queueID           string

	floodWaitLimit    int
	hasFloodWaitLimit bool

	sendPromise   *Promise[struct{}]
	resultPromise *Promise[tl.Value]
}

// New constructs a PENDING OutgoingMessage for constructor, whose declared
// result type is resultType (used to seed Type() for rpc_result decoding).
// resultPromise is allocated iff method is true (spec invariant
// "resultPromise is created iff method=true").
func New(constructor, resultType string, method bool, body tl.Value) *OutgoingMessage {
	m := &OutgoingMessage{
		body:        body,
		hasBody:     true,
		constructor: constructor,
		resultType:  resultType,
		method:      method,
		state:       StatePending,
		sendPromise: NewPromise[struct{}](),
	}
	if method {
		m.resultPromise = NewPromise[tl.Value]()
	}
	m.contentRelated = !notContentRelated[constructor]
	return m
}

// Constructor/Type satisfy codec.OutgoingMessageRef, the interface the
// deserializer consults to resolve an rpc_result's expected shape.
func (m *OutgoingMessage) Constructor() string { return m.constructor }
func (m *OutgoingMessage) Type() string        { return m.resultType }

func (m *OutgoingMessage) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *OutgoingMessage) IsSent() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state&bitSent != 0
}

func (m *OutgoingMessage) IsAcked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state&bitAcked != 0
}

func (m *OutgoingMessage) IsReplied() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state&StateReplied == StateReplied
}

func (m *OutgoingMessage) MsgID() int64 { return m.msgIDLocked() }

func (m *OutgoingMessage) msgIDLocked() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.msgID
}

// SetMsgID is called by the session layer once it has allocated the wire
// id for this message.
func (m *OutgoingMessage) SetMsgID(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgID = id
}

func (m *OutgoingMessage) SetSerialized(b []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.serialized = b
}

func (m *OutgoingMessage) Serialized() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.serialized
}

func (m *OutgoingMessage) Tries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tries
}

// TrySend increments the attempt counter and returns the send-readiness
// promise, allocating it if this is somehow the first call to see a nil
// sendPromise (spec §4.7 "trySend() allocates sendPromise (if none) and
// increments tries").
func (m *OutgoingMessage) TrySend() *Promise[struct{}] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tries++
	if m.sendPromise == nil || m.sendPromise.Settled() {
		m.sendPromise = NewPromise[struct{}]()
	}
	return m.sendPromise
}

// Sent marks the message SENT, stamps the send time, and fulfils
// sendPromise exactly once (idempotent on repeat delivery confirmations).
func (m *OutgoingMessage) Sent() error {
	m.mu.Lock()
	m.state |= bitSent
	m.sent = time.Now()
	p := m.sendPromise
	m.mu.Unlock()

	if p == nil {
		return nil
	}
	if err := p.Resolve(struct{}{}); err != nil {
		return fmt.Errorf("message: outgoing %s: %w", m.constructor, err)
	}
	return nil
}

// ResetSent clears the last-sent timestamp, signalling the caller should
// resend (spec §4.7 "any --resetSent--> sent=0").
func (m *OutgoingMessage) ResetSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = time.Time{}
}

// Ack ORs ACKED into state (spec §4.7 "SENT --ack(msg_ack)--> ACKED").
func (m *OutgoingMessage) Ack() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state |= bitAcked
}

// Reply sets REPLIED, clears body/serialized, and fulfils resultPromise
// with (value, nil) exactly once (spec §4.7/§9). The second call to Reply
// (by value or error) returns tl.ErrDoubleReply, same as a second Sent().
func (m *OutgoingMessage) Reply(value tl.Value) error {
	return m.reply(value, nil)
}

// ReplyError is Reply's error-carrying counterpart (e.g. an RPC error or a
// cancellation delivered by the session layer).
func (m *OutgoingMessage) ReplyError(err error) error {
	return m.reply(tl.Value{}, err)
}

func (m *OutgoingMessage) reply(value tl.Value, replyErr error) error {
	m.mu.Lock()
	m.state |= bitAcked | bitReplied
	m.hasBody = false
	m.body = tl.Value{}
	m.serialized = nil
	p := m.resultPromise
	m.mu.Unlock()

	if p == nil {
		// No waiter registered (method=false never allocates one); a
		// reply on a non-method message is a protocol-level no-op.
		return nil
	}

	var err error
	if replyErr != nil {
		err = p.Reject(replyErr)
	} else {
		err = p.Resolve(value)
	}
	if err != nil {
		return fmt.Errorf("message: outgoing %s: %w", m.constructor, err)
	}
	return nil
}

// ResultPromise exposes the completion sink; nil if method is false.
func (m *OutgoingMessage) ResultPromise() *Promise[tl.Value] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resultPromise
}

// SendPromise exposes the send-readiness sink.
func (m *OutgoingMessage) SendPromise() *Promise[struct{}] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sendPromise
}

// CanGarbageCollect implements spec §4.7 "canGarbageCollect is true iff
// REPLIED, or there is no resultPromise (no waiter)".
func (m *OutgoingMessage) CanGarbageCollect() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state&StateReplied == StateReplied || m.resultPromise == nil
}

// ContentRelated reports whether this constructor is content-related
// (derived once at construction from the non-content-related set).
func (m *OutgoingMessage) ContentRelated() bool { return m.contentRelated }

func (m *OutgoingMessage) Unencrypted() bool { return m.unencrypted }
func (m *OutgoingMessage) SetUnencrypted(v bool) { m.unencrypted = v }

func (m *OutgoingMessage) Method() bool { return m.method }

func (m *OutgoingMessage) Body() (tl.Value, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.body, m.hasBody
}

func (m *OutgoingMessage) SetQueueID(id string) { m.queueID = id }
func (m *OutgoingMessage) QueueID() string       { return m.queueID }

func (m *OutgoingMessage) SetFloodWaitLimit(seconds int) {
	m.floodWaitLimit, m.hasFloodWaitLimit = seconds, true
}

func (m *OutgoingMessage) FloodWaitLimit() (int, bool) {
	return m.floodWaitLimit, m.hasFloodWaitLimit
}
