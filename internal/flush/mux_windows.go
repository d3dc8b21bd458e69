//go:build windows

package flush

import (
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/rs/zerolog"

	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/ring"
)

// ToMP4 muxes a ring snapshot into a single self-contained MP4 file with
// faststart metadata placement. Per-packet write failures are logged and
// skipped rather than aborting the whole flush, mirroring the reference
// daemon's non-fatal packet error handling.
func ToMP4(log zerolog.Logger, snap ring.Snapshot, outputPath string) error {
	if len(snap.Segments) == 0 {
		return fmt.Errorf("flush: ring buffer is empty, nothing to write")
	}
	if snap.VideoParams == nil {
		return fmt.Errorf("flush: no video codec params published yet")
	}

	oc, err := astiav.AllocOutputFormatContext(nil, "mp4", outputPath)
	if err != nil || oc == nil {
		return fmt.Errorf("flush: AllocOutputFormatContext: %w", err)
	}
	defer oc.Free()

	ioFlags := astiav.NewIOContextFlags(astiav.IOContextFlagWrite)
	pb, err := astiav.OpenIOContext(outputPath, ioFlags, nil, nil)
	if err != nil {
		return fmt.Errorf("flush: OpenIOContext: %w", err)
	}
	defer pb.Close()
	oc.SetPb(pb)

	videoStream := oc.NewStream(nil)
	if videoStream == nil {
		return fmt.Errorf("flush: creating video stream failed")
	}
	vp := videoStream.CodecParameters()
	vp.SetMediaType(astiav.MediaTypeVideo)
	vp.SetCodecID(astiav.CodecIDH264)
	vp.SetWidth(snap.VideoParams.Width)
	vp.SetHeight(snap.VideoParams.Height)
	if err := vp.SetExtraData(snap.VideoParams.Extradata); err != nil {
		return fmt.Errorf("flush: setting video extradata: %w", err)
	}
	videoTB := astiav.NewRational(snap.VideoParams.TimeBaseNum, snap.VideoParams.TimeBaseDen)
	videoStream.SetTimeBase(videoTB)

	var audioStream *astiav.Stream
	var audioTB astiav.Rational
	if snap.AudioParams != nil {
		audioStream = oc.NewStream(nil)
		if audioStream == nil {
			return fmt.Errorf("flush: creating audio stream failed")
		}
		ap := audioStream.CodecParameters()
		ap.SetMediaType(astiav.MediaTypeAudio)
		ap.SetCodecID(astiav.CodecIDAac)
		ap.SetSampleRate(snap.AudioParams.SampleRate)
		ap.SetChannelLayout(astiav.ChannelLayoutStereo)
		if err := ap.SetExtraData(snap.AudioParams.Extradata); err != nil {
			return fmt.Errorf("flush: setting audio extradata: %w", err)
		}
		audioTB = astiav.NewRational(snap.AudioParams.TimeBaseNum, snap.AudioParams.TimeBaseDen)
		audioStream.SetTimeBase(audioTB)
	}

	headerOpts := astiav.NewDictionary()
	defer headerOpts.Free()
	headerOpts.Set("movflags", "faststart", 0)

	if err := oc.WriteHeader(headerOpts); err != nil {
		return fmt.Errorf("flush: WriteHeader: %w", err)
	}

	var videoOrigin, audioOrigin int64
	videoOriginSet, audioOriginSet := false, false

	pkt := astiav.AllocPacket()
	defer pkt.Free()

	writePacket := func(p ring.Packet, streamIndex int, inTB astiav.Rational, origin *int64, originSet *bool) {
		if !*originSet {
			*origin = p.PTS
			*originSet = true
		}
		pkt.Unref()
		if err := pkt.FromData(p.Data); err != nil {
			log.Error().Err(err).Msg("flush: packet ref failed, skipping")
			return
		}
		pkt.SetPts(p.PTS - *origin)
		pkt.SetDts(p.DTS - *origin)
		pkt.SetDuration(p.Duration)
		pkt.SetStreamIndex(streamIndex)
		pkt.RescaleTs(inTB, oc.Streams()[streamIndex].TimeBase())
		if p.IsKey {
			pkt.SetFlags(pkt.Flags().Add(astiav.PacketFlagKey))
		}
		if err := oc.WriteInterleavedFrame(pkt); err != nil {
			log.Error().Err(err).Msg("flush: WriteInterleavedFrame failed, skipping packet")
		}
	}

	for _, seg := range snap.Segments {
		for _, p := range seg.VideoPackets {
			writePacket(p, videoStream.Index(), videoTB, &videoOrigin, &videoOriginSet)
		}
		if audioStream != nil {
			for _, p := range seg.AudioPackets {
				writePacket(p, audioStream.Index(), audioTB, &audioOrigin, &audioOriginSet)
			}
		}
	}

	if err := oc.WriteTrailer(); err != nil {
		return fmt.Errorf("flush: WriteTrailer: %w", err)
	}
	return nil
}
