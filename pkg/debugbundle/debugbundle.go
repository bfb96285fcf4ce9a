// Package debugbundle records a running session's frames and input
// events and exports them as a single versioned JSON file, for
// attaching to a bug report or replaying offline.
package debugbundle

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/inkterm/zrui/pkg/drawlist"
	"github.com/inkterm/zrui/pkg/zrevent"
)

// Version is the bundle schema version. A consumer should reject a
// bundle whose Version it doesn't recognize rather than guess at a
// compatible field layout.
const Version = 1

// FrameRecord summarizes one rendered frame. Opcodes are decoded from
// the drawlist rather than stored as raw bytes so the exported JSON is
// directly human-readable without a second decoding pass.
type FrameRecord struct {
	Index      int      `json:"index"`
	ByteLen    int      `json:"byte_len"`
	FullRedraw bool     `json:"full_redraw"`
	Opcodes    []string `json:"opcodes"`
}

// EventRecord summarizes one input event.
type EventRecord struct {
	Index  int    `json:"index"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// Bundle is the exported debug artifact. Metadata is a free-form map
// for caller-supplied context (terminal type, app version, OS); since
// encoding/json always marshals map keys in sorted order, Metadata's
// JSON output is deterministic across runs without any extra work here.
type Bundle struct {
	Version   int            `json:"version"`
	SessionID string         `json:"session_id"`
	CreatedAt time.Time      `json:"created_at"`
	Viewport  Viewport       `json:"viewport"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Frames    []FrameRecord  `json:"frames"`
	Events    []EventRecord  `json:"events"`
	Dropped   DroppedCounts  `json:"dropped"`
}

// Viewport is the terminal size recorded at bundle export time.
type Viewport struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

// DroppedCounts reports how many frames/events the recorder discarded
// because they exceeded its configured caps, so a reader of the bundle
// knows the history is truncated rather than assuming it's complete.
type DroppedCounts struct {
	Frames int `json:"frames,omitempty"`
	Events int `json:"events,omitempty"`
}

// Recorder accumulates frame and event history for a running session.
// It is bounded: once MaxFrames/MaxEvents is reached, the oldest entry
// is dropped to make room rather than growing without limit.
type Recorder struct {
	mu sync.Mutex

	sessionID string
	viewport  Viewport
	metadata  map[string]any

	maxFrames int
	maxEvents int

	frames       []FrameRecord
	events       []EventRecord
	droppedFrame int
	droppedEvent int
}

// NewRecorder constructs a Recorder tagged with a fresh time-ordered
// session ID. maxFrames/maxEvents <= 0 mean "unbounded".
func NewRecorder(viewport Viewport, maxFrames, maxEvents int) *Recorder {
	id, err := uuid.NewV7()
	sessionID := id.String()
	if err != nil {
		// NewV7 only fails if the system clock/entropy source is broken;
		// fall back to a random v4 rather than tagging the session "".
		sessionID = uuid.New().String()
	}
	return &Recorder{
		sessionID: sessionID,
		viewport:  viewport,
		metadata:  make(map[string]any),
		maxFrames: maxFrames,
		maxEvents: maxEvents,
	}
}

// SessionID returns the recorder's session tag.
func (r *Recorder) SessionID() string { return r.sessionID }

// SetMetadata records a caller-supplied key/value pair (terminal type,
// app version) included verbatim in the exported bundle.
func (r *Recorder) SetMetadata(key string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metadata[key] = value
}

// RecordFrame decodes frame's opcode sequence and appends a FrameRecord.
// A decode failure is recorded as a single "decode-error" opcode entry
// rather than dropping the frame silently, since a corrupt drawlist is
// itself useful debugging signal.
func (r *Recorder) RecordFrame(frame []byte, fullRedraw bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := FrameRecord{Index: len(r.frames) + r.droppedFrame, ByteLen: len(frame), FullRedraw: fullRedraw}
	d, err := drawlist.Decode(frame)
	if err != nil {
		rec.Opcodes = []string{"decode-error: " + err.Error()}
	} else {
		it := d.Commands()
		for {
			c, ok := it.Next()
			if !ok {
				break
			}
			rec.Opcodes = append(rec.Opcodes, c.Opcode.String())
		}
	}

	if r.maxFrames > 0 && len(r.frames) >= r.maxFrames {
		r.frames = r.frames[1:]
		r.droppedFrame++
	}
	r.frames = append(r.frames, rec)
}

// RecordEvent appends a summarized input event. Use SummarizeEvent to
// turn a decoded zrevent value into (kind, detail).
func (r *Recorder) RecordEvent(kind, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxEvents > 0 && len(r.events) >= r.maxEvents {
		r.events = r.events[1:]
		r.droppedEvent++
	}
	r.events = append(r.events, EventRecord{Index: len(r.events) + r.droppedEvent, Kind: kind, Detail: detail})
}

// Export builds the Bundle as of now. The recorder keeps accumulating
// after Export returns; call it again for a later snapshot.
func (r *Recorder) Export() Bundle {
	r.mu.Lock()
	defer r.mu.Unlock()

	meta := make(map[string]any, len(r.metadata))
	for k, v := range r.metadata {
		meta[k] = v
	}
	return Bundle{
		Version:   Version,
		SessionID: r.sessionID,
		CreatedAt: time.Now(),
		Viewport:  r.viewport,
		Metadata:  meta,
		Frames:    append([]FrameRecord(nil), r.frames...),
		Events:    append([]EventRecord(nil), r.events...),
		Dropped:   DroppedCounts{Frames: r.droppedFrame, Events: r.droppedEvent},
	}
}

// WriteFile exports the current state and writes it as indented JSON to
// path.
func (r *Recorder) WriteFile(path string) error {
	b := r.Export()
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return errors.Wrap(err, "debugbundle: marshal")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "debugbundle: writing %s", path)
	}
	return nil
}

// SummarizeEvent turns a decoded zrevent value into a short (kind,
// detail) pair suitable for RecordEvent, so a caller driving the frame
// loop doesn't need to hand-write a formatter for every event type.
func SummarizeEvent(ev any) (kind, detail string) {
	switch e := ev.(type) {
	case zrevent.KeyEvent:
		if e.Rune != 0 {
			return "key", fmt.Sprintf("rune=%q mods=%d repeat=%v", e.Rune, e.Mods, e.Repeat)
		}
		return "key", fmt.Sprintf("code=%d mods=%d repeat=%v", e.Code, e.Mods, e.Repeat)
	case zrevent.MouseEvent:
		return "mouse", fmt.Sprintf("x=%d y=%d button=%d action=%d", e.X, e.Y, e.Button, e.Action)
	case zrevent.PasteEvent:
		return "paste", fmt.Sprintf("len=%d bracketed=%v", len(e.Data), e.Bracketed)
	case zrevent.ResizeEvent:
		return "resize", fmt.Sprintf("cols=%d rows=%d", e.Cols, e.Rows)
	default:
		return "unknown", fmt.Sprintf("%T", ev)
	}
}
