package encoder

import "github.com/george-e-shaw-iv/peaking-daemon-go/internal/ring"

// segmentBuilder accumulates packets between IDR boundaries. It holds no
// codec state and is exercised directly by tests so the splitting logic
// can be verified without a real encoder.
type segmentBuilder struct {
	videoPackets []ring.Packet
	audioPackets []ring.Packet
}

// pushVideo appends p to the open video list. If p is a key packet and a
// prior segment had already accumulated video data, the prior video list
// plus whatever audio has accumulated so far is returned as a completed
// segment; p then starts the next segment's video list and the audio
// accumulator resets.
func (b *segmentBuilder) pushVideo(p ring.Packet) *ring.Segment {
	if p.IsKey && len(b.videoPackets) > 0 {
		seg := &ring.Segment{
			VideoPackets: b.videoPackets,
			AudioPackets: b.audioPackets,
		}
		b.videoPackets = []ring.Packet{p}
		b.audioPackets = nil
		return seg
	}
	b.videoPackets = append(b.videoPackets, p)
	return nil
}

// pushAudio appends p to the open audio list.
func (b *segmentBuilder) pushAudio(p ring.Packet) {
	b.audioPackets = append(b.audioPackets, p)
}

// flush returns whatever has accumulated as a final segment, or nil if
// both lists are empty.
func (b *segmentBuilder) flush() *ring.Segment {
	if len(b.videoPackets) == 0 && len(b.audioPackets) == 0 {
		return nil
	}
	seg := &ring.Segment{
		VideoPackets: b.videoPackets,
		AudioPackets: b.audioPackets,
	}
	b.videoPackets = nil
	b.audioPackets = nil
	return seg
}
