// Package ring holds the encoded-packet/segment data model and the
// bounded FIFO of segments that backs the rolling recording window.
package ring

import "sync"

// MinCapacitySecs and MaxCapacitySecs bound the ring buffer's size in
// seconds. Values outside this range are clamped, never rejected.
const (
	MinCapacitySecs = 5
	MaxCapacitySecs = 120
)

// Packet is one compressed access unit: one H.264 NAL unit stream fragment
// or one AAC access unit. Once constructed by the encoder it is never
// mutated; it is shared by reference from the ring into the flush worker.
type Packet struct {
	Data     []byte
	PTS      int64
	DTS      int64
	Duration int64
	// IsKey is true iff this packet begins a new decodable group (an IDR
	// frame for H.264).
	IsKey bool
}

// VideoParams are the encoder-side video descriptors captured once when the
// H.264 encoder is opened.
type VideoParams struct {
	Extradata []byte
	Width     int
	Height    int
	// TimeBaseNum/TimeBaseDen express the codec time base as a rational,
	// e.g. (1, 60) for 60fps.
	TimeBaseNum int
	TimeBaseDen int
}

// AudioParams are the encoder-side audio descriptors captured once when the
// AAC encoder is opened.
type AudioParams struct {
	Extradata   []byte
	SampleRate  int
	Channels    int
	TimeBaseNum int
	TimeBaseDen int
}

// Segment is one independently decodable window of encoded video and audio,
// nominally one second long. VideoPackets must start with exactly one key
// packet once the encoder has produced at least one IDR; PTS values
// are monotonically non-decreasing within each list.
type Segment struct {
	VideoPackets []Packet
	AudioPackets []Packet
}

// Buffer is a bounded FIFO of Segments. It is safe for concurrent use: the
// pipeline's encoder loop pushes while the daemon's event loop may clear,
// resize, or snapshot it from a different goroutine.
type Buffer struct {
	mu       sync.Mutex
	segments []Segment
	capacity int

	videoParams *VideoParams
	audioParams *AudioParams
}

// New constructs an empty ring with capacitySecs clamped to
// [MinCapacitySecs, MaxCapacitySecs].
func New(capacitySecs int) *Buffer {
	return &Buffer{capacity: clampCapacity(capacitySecs)}
}

func clampCapacity(secs int) int {
	if secs < MinCapacitySecs {
		return MinCapacitySecs
	}
	if secs > MaxCapacitySecs {
		return MaxCapacitySecs
	}
	return secs
}

// Push appends segment, evicting the oldest segment first if the buffer is
// already at capacity. O(1) amortised.
func (b *Buffer) Push(segment Segment) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.segments) == b.capacity {
		b.segments = b.segments[1:]
	}
	b.segments = append(b.segments, segment)
}

// Resize clamps newSecs to [MinCapacitySecs, MaxCapacitySecs], updates the
// capacity, and evicts the oldest segments until len(segments) <= capacity.
// It never grows the segment list and never touches codec params.
func (b *Buffer) Resize(newSecs int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.capacity = clampCapacity(newSecs)
	if over := len(b.segments) - b.capacity; over > 0 {
		b.segments = b.segments[over:]
	}
}

// Snapshot is a cloned, ordered copy of the ring's current contents plus a
// clone of whatever codec params are currently set. Video/audio params are
// nil if the encoder has not yet published them.
type Snapshot struct {
	Segments    []Segment
	VideoParams *VideoParams
	AudioParams *AudioParams
}

// Snapshot returns a copy of the current segment order and codec params.
// Only the Segment values (each a pair of packet slice headers) are copied;
// the packet lists and their byte slices are shared, so this is cheap even
// for a full buffer.
func (b *Buffer) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	segs := make([]Segment, len(b.segments))
	copy(segs, b.segments)

	snap := Snapshot{Segments: segs}
	if b.videoParams != nil {
		vp := *b.videoParams
		snap.VideoParams = &vp
	}
	if b.audioParams != nil {
		ap := *b.audioParams
		snap.AudioParams = &ap
	}
	return snap
}

// Clear drops all segments. Codec params are left untouched.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.segments = nil
}

// Len returns the number of segments currently retained.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.segments)
}

// IsEmpty reports whether the buffer currently holds no segments.
func (b *Buffer) IsEmpty() bool {
	return b.Len() == 0
}

// Capacity returns the current clamped capacity in segments (nominally
// seconds, since the encoder emits one segment per second of video).
func (b *Buffer) Capacity() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.capacity
}

// SetVideoParams publishes the video codec params. Once set they
// must not change for the lifetime of the ring; callers (the encoder, via
// the pipeline) are expected to call this exactly once per recording
// session, immediately after resizing on ProcessStarted.
func (b *Buffer) SetVideoParams(p VideoParams) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.videoParams = &p
}

// SetAudioParams publishes the audio codec params. See SetVideoParams.
func (b *Buffer) SetAudioParams(p AudioParams) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.audioParams = &p
}
