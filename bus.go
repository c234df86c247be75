package rondo

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// maxSubscriptions bounds the number of distinct topics the bus will carry,
// mirroring the subscriber table of the device firmware this protocol ships
// on. Exceeding it is a rejected subscription, not a crash.
const maxSubscriptions = 15

// ErrSubscriptionsFull is returned by Subscribe when the topic table is full.
var ErrSubscriptionsFull = errors.New("bus: subscription table full")

// Transport is the duplex link collaborator. Send is best-effort: a
// disconnected transport drops outbound text rather than blocking; that
// policy lives in the transport, not in the bus.
type Transport interface {
	Send(text string) error
}

// Handler receives the payload of a routed message as raw text. Object and
// array payloads arrive re-serialized compact; string payloads pass through
// unchanged. Handlers run synchronously on the publishing goroutine and must
// acquire the UI lock themselves before touching the tree.
type Handler func(payload string)

// Bus is a topic-keyed publish/subscribe router with an uplink to the
// transport, a downlink from it, and a local-only loop-back path. Topics are
// opaque case-sensitive strings matched by exact equality; one handler per
// topic, last-writer-wins.
type Bus struct {
	mu        sync.Mutex
	subs      map[string]Handler
	transport Transport
	deviceID  string
	log       zerolog.Logger
}

// NewBus creates an empty bus. A transport is attached separately once the
// link layer is up.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subs: make(map[string]Handler),
		log:  log.With().Str("component", "bus").Logger(),
	}
}

// AttachTransport sets the uplink collaborator. A nil transport reverts the
// bus to local-only operation.
func (b *Bus) AttachTransport(t Transport) {
	b.mu.Lock()
	b.transport = t
	b.mu.Unlock()
}

// SetDeviceID attaches a device identity to every subsequent uplink envelope.
func (b *Bus) SetDeviceID(id string) {
	b.mu.Lock()
	b.deviceID = id
	b.mu.Unlock()
}

// Subscribe registers the handler for a topic. Re-subscribing an existing
// topic replaces the previous handler; a new topic beyond the table bound
// returns ErrSubscriptionsFull.
func (b *Bus) Subscribe(topic string, h Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.subs[topic]; !exists && len(b.subs) >= maxSubscriptions {
		b.log.Error().Str("topic", topic).Msg("subscription rejected: table full")
		return ErrSubscriptionsFull
	}
	b.subs[topic] = h
	b.log.Debug().Str("topic", topic).Msg("subscribed")
	return nil
}

// envelope is the wire form in both directions.
type envelope struct {
	Topic    string          `json:"topic"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	DeviceID string          `json:"device_id,omitempty"`
}

// RouteDown parses a raw downlink envelope and dispatches it to the matching
// subscriber on the calling goroutine. Parse failures, missing topics, and
// unmatched topics are logged and swallowed; the transport's receive loop
// never sees an error from here.
func (b *Bus) RouteDown(raw string) {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		b.log.Warn().Err(err).Msg("drop downlink: unparsable envelope")
		return
	}
	if env.Topic == "" {
		b.log.Warn().Msg("drop downlink: envelope missing topic")
		return
	}
	payload := payloadText(env.Payload)

	b.mu.Lock()
	h := b.subs[env.Topic]
	b.mu.Unlock()
	if h == nil {
		b.log.Debug().Str("topic", env.Topic).Msg("no subscriber for downlink topic")
		return
	}
	h(payload)
}

// PublishUp wraps the payload in an envelope and forwards it to the
// transport. The publish always succeeds locally; a missing or disconnected
// transport drops the message silently.
func (b *Bus) PublishUp(topic, payload string) {
	b.mu.Lock()
	t := b.transport
	dev := b.deviceID
	b.mu.Unlock()

	env := envelope{Topic: topic, Payload: encodePayload(payload), DeviceID: dev}
	out, err := json.Marshal(env)
	if err != nil {
		b.log.Error().Err(err).Str("topic", topic).Msg("marshal uplink envelope")
		return
	}
	if t == nil {
		b.log.Debug().Str("topic", topic).Msg("drop uplink: no transport")
		return
	}
	if err := t.Send(string(out)); err != nil {
		b.log.Debug().Err(err).Str("topic", topic).Msg("drop uplink: transport send")
	}
}

// PublishLocal invokes the topic's local subscriber synchronously without
// touching the transport.
func (b *Bus) PublishLocal(topic, payload string) {
	b.mu.Lock()
	h := b.subs[topic]
	b.mu.Unlock()
	if h == nil {
		b.log.Debug().Str("topic", topic).Msg("no subscriber for local topic")
		return
	}
	h(payload)
}

// encodePayload embeds valid JSON structurally and wraps everything else as a
// JSON string.
func encodePayload(payload string) json.RawMessage {
	raw := []byte(payload)
	if json.Valid(raw) && len(bytes.TrimSpace(raw)) > 0 {
		return json.RawMessage(raw)
	}
	quoted, _ := json.Marshal(payload)
	return json.RawMessage(quoted)
}

// payloadText renders a downlink payload for subscribers: string payloads
// pass through, anything else is re-serialized compact.
func payloadText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed)
	}
	return buf.String()
}
