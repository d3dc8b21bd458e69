package encoder

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/ring"
)

func key(pts int64) ring.Packet    { return ring.Packet{PTS: pts, IsKey: true} }
func nonKey(pts int64) ring.Packet { return ring.Packet{PTS: pts} }

func TestPushVideoFirstKeyDoesNotSplit(t *testing.T) {
	var b segmentBuilder
	seg := b.pushVideo(key(0))
	assert.Nil(t, seg)
	assert.Len(t, b.videoPackets, 1)
}

func TestPushVideoNonKeyAccumulates(t *testing.T) {
	var b segmentBuilder
	b.pushVideo(key(0))
	seg := b.pushVideo(nonKey(1))
	assert.Nil(t, seg)
	assert.Len(t, b.videoPackets, 2)
}

func TestPushVideoSecondKeySplitsSegment(t *testing.T) {
	var b segmentBuilder
	b.pushVideo(key(0))
	b.pushVideo(nonKey(1))
	b.pushAudio(ring.Packet{PTS: 100})

	seg := b.pushVideo(key(60))
	assert := assert.New(t)
	assert.NotNil(seg)
	assert.Len(seg.VideoPackets, 2)
	assert.True(seg.VideoPackets[0].IsKey)
	assert.Len(seg.AudioPackets, 1)

	// The new segment starts fresh with only the new key packet and no audio.
	assert.Len(b.videoPackets, 1)
	assert.True(b.videoPackets[0].IsKey)
	assert.Empty(b.audioPackets)
}

func TestPushAudioAccumulatesWithinSegment(t *testing.T) {
	var b segmentBuilder
	b.pushAudio(ring.Packet{PTS: 0})
	b.pushAudio(ring.Packet{PTS: 10})
	assert.Len(t, b.audioPackets, 2)
}

func TestFlushReturnsNilWhenEmpty(t *testing.T) {
	var b segmentBuilder
	assert.Nil(t, b.flush())
}

func TestFlushReturnsResidualPackets(t *testing.T) {
	var b segmentBuilder
	b.pushVideo(key(0))
	b.pushAudio(ring.Packet{PTS: 5})

	seg := b.flush()
	assert := assert.New(t)
	assert.NotNil(seg)
	assert.Len(seg.VideoPackets, 1)
	assert.Len(seg.AudioPackets, 1)

	// Builder is reset after flush.
	assert.Nil(b.flush())
}

func TestFlushAfterSplitOnlyReturnsTrailingData(t *testing.T) {
	var b segmentBuilder
	b.pushVideo(key(0))
	b.pushVideo(key(60)) // completes first segment, starts second
	b.pushVideo(nonKey(61))

	seg := b.flush()
	if assert.NotNil(t, seg) {
		assert.Len(t, seg.VideoPackets, 2)
		assert.EqualValues(t, 60, seg.VideoPackets[0].PTS)
	}
}
