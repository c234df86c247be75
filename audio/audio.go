// Package audio implements the device's capture and playback pipeline.
// Captured PCM is chunked, base64-encoded, and streamed uplink; playback
// frames arrive the same way on the downlink. The actual hardware sits
// behind the Source and Sink interfaces so the pipeline is testable.
package audio

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Bus topics.
const (
	TopicRecord = "audio/record" // downlink or local: {"action":"start"|"stop"}
	TopicStream = "audio/stream" // uplink: base64 PCM chunks
	TopicPlay   = "audio/play"   // downlink: base64 PCM to the speaker

	// Local action targets for hold-to-talk bindings, e.g. a button with
	// "on_press": "local://audio/cmd/record_start". The dispatched payload
	// carries only the widget id and is ignored here.
	TopicRecordStart = "audio/cmd/record_start"
	TopicRecordStop  = "audio/cmd/record_stop"
)

// Source delivers raw PCM from the microphone. ReadChunk blocks until a
// chunk is available or the source is closed.
type Source interface {
	ReadChunk() ([]byte, error)
}

// Sink plays raw PCM on the speaker.
type Sink interface {
	Play(pcm []byte) error
}

// Publisher is the slice of the message bus the recorder needs.
type Publisher interface {
	PublishUp(topic, payload string)
}

// streamFrame is one uplink chunk of captured audio.
type streamFrame struct {
	Seq   int    `json:"seq"`
	Rate  int    `json:"rate"`
	Data  string `json:"data"` // base64 PCM, little-endian s16
	Final bool   `json:"final,omitempty"`
}

// recordCmd is the control payload on TopicRecord.
type recordCmd struct {
	Action string `json:"action"`
}

// Recorder streams microphone chunks uplink while recording. Its Recording
// probe doubles as the busy signal other subsystems defer to.
type Recorder struct {
	source     Source
	bus        Publisher
	sampleRate int
	log        zerolog.Logger

	recording atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewRecorder wires a capture source to the uplink.
func NewRecorder(source Source, bus Publisher, sampleRate int, log zerolog.Logger) *Recorder {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &Recorder{
		source:     source,
		bus:        bus,
		sampleRate: sampleRate,
		log:        log.With().Str("component", "audio").Logger(),
	}
}

// Recording reports whether a capture session is active.
func (r *Recorder) Recording() bool {
	return r.recording.Load()
}

// HandleRecord is the bus handler for TopicRecord.
func (r *Recorder) HandleRecord(payload string) {
	var cmd recordCmd
	if err := json.Unmarshal([]byte(payload), &cmd); err != nil {
		r.log.Warn().Err(err).Msg("record command rejected")
		return
	}
	switch cmd.Action {
	case "start":
		r.Start()
	case "stop":
		r.Stop()
	default:
		r.log.Warn().Str("action", cmd.Action).Msg("unknown record action")
	}
}

// HandleRecordStart is the bus handler for TopicRecordStart.
func (r *Recorder) HandleRecordStart(string) { r.Start() }

// HandleRecordStop is the bus handler for TopicRecordStop.
func (r *Recorder) HandleRecordStop(string) { r.Stop() }

// Start begins a capture session. Starting while recording is a no-op.
func (r *Recorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording.Load() {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.recording.Store(true)
	r.log.Info().Msg("recording started")
	go r.stream(ctx)
}

// Stop ends the capture session and emits a final empty frame so the server
// can close its side of the stream.
func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording.Load() {
		return
	}
	r.cancel()
	r.cancel = nil
	r.recording.Store(false)
	r.log.Info().Msg("recording stopped")
}

func (r *Recorder) stream(ctx context.Context) {
	seq := 0
	for {
		if ctx.Err() != nil {
			r.publishFrame(streamFrame{Seq: seq, Rate: r.sampleRate, Final: true})
			return
		}
		pcm, err := r.source.ReadChunk()
		if err != nil {
			r.log.Error().Err(err).Msg("capture source failed")
			r.Stop()
			r.publishFrame(streamFrame{Seq: seq, Rate: r.sampleRate, Final: true})
			return
		}
		r.publishFrame(streamFrame{
			Seq:  seq,
			Rate: r.sampleRate,
			Data: base64.StdEncoding.EncodeToString(pcm),
		})
		seq++
	}
}

func (r *Recorder) publishFrame(f streamFrame) {
	body, err := json.Marshal(f)
	if err != nil {
		r.log.Error().Err(err).Msg("stream frame encode")
		return
	}
	r.bus.PublishUp(TopicStream, string(body))
}

// Player feeds downlink audio frames to the speaker.
type Player struct {
	sink Sink
	log  zerolog.Logger
}

func NewPlayer(sink Sink, log zerolog.Logger) *Player {
	return &Player{
		sink: sink,
		log:  log.With().Str("component", "audio").Logger(),
	}
}

// HandlePlay is the bus handler for TopicPlay. The payload is either a bare
// base64 string or a stream frame object.
func (p *Player) HandlePlay(payload string) {
	pcm, err := decodePlayPayload(payload)
	if err != nil {
		p.log.Warn().Err(err).Msg("play frame rejected")
		return
	}
	if len(pcm) == 0 {
		return
	}
	if err := p.sink.Play(pcm); err != nil {
		p.log.Error().Err(err).Msg("playback failed")
	}
}

func decodePlayPayload(payload string) ([]byte, error) {
	var frame streamFrame
	if err := json.Unmarshal([]byte(payload), &frame); err == nil && frame.Data != "" {
		pcm, err := base64.StdEncoding.DecodeString(frame.Data)
		return pcm, errors.Wrap(err, "decode frame data")
	}
	pcm, err := base64.StdEncoding.DecodeString(payload)
	return pcm, errors.Wrap(err, "decode payload")
}

// SilentSource is a Source that produces silence at the configured chunk
// cadence. It stands in on hardware without a microphone.
type SilentSource struct {
	ChunkBytes int
	Interval   time.Duration
}

func (s *SilentSource) ReadChunk() ([]byte, error) {
	d := s.Interval
	if d <= 0 {
		d = 100 * time.Millisecond
	}
	time.Sleep(d)
	n := s.ChunkBytes
	if n <= 0 {
		n = 3200
	}
	return make([]byte, n), nil
}

// DiscardSink drops playback frames. It stands in on hardware without a
// speaker.
type DiscardSink struct{}

func (DiscardSink) Play([]byte) error { return nil }
