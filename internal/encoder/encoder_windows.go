//go:build windows

package encoder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/asticode/go-astiav"

	"github.com/george-e-shaw-iv/peaking-daemon-go/internal/ring"
)

// astiavEncoder is the real encoder backed by FFmpeg via go-astiav,
// preferring NVENC and falling back to libx264 for H.264.
type astiavEncoder struct {
	cfg Config

	videoCtx *astiav.CodecContext
	audioCtx *astiav.CodecContext

	scaler    *astiav.SoftwareScaleContext
	nv12Frame *astiav.Frame
	encPkt    *astiav.Packet

	videoParams ring.VideoParams
	audioParams ring.AudioParams

	frameCounter  int64
	sampleCounter int64
	audioFrameLen int

	audioAccum [][2]float32 // interleaved stereo samples pending encode
	builder    segmentBuilder
}

func newPlatformEncoder(cfg Config) (Encoder, error) {
	e := &astiavEncoder{cfg: cfg}
	if err := e.openVideo(); err != nil {
		e.Close()
		return nil, err
	}
	if err := e.openAudio(); err != nil {
		e.Close()
		return nil, err
	}
	e.encPkt = astiav.AllocPacket()
	return e, nil
}

func (e *astiavEncoder) openVideo() error {
	codec := astiav.FindEncoderByName("h264_nvenc")
	opts := astiav.NewDictionary()
	defer opts.Free()

	if codec != nil {
		opts.Set("preset", "p4", 0)
		opts.Set("tune", "ull", 0)
		opts.Set("rc", "vbr", 0)
	} else {
		codec = astiav.FindEncoderByName("libx264")
		if codec != nil {
			opts.Set("preset", "fast", 0)
			opts.Set("tune", "zerolatency", 0)
		}
	}
	if codec == nil {
		return fmt.Errorf("encoder: %w: no H.264 encoder (nvenc/libx264) found", ErrEncoderUnavailable)
	}

	ctx := astiav.AllocCodecContext(codec)
	if ctx == nil {
		return fmt.Errorf("encoder: %w: AllocCodecContext(h264) failed", ErrEncoderUnavailable)
	}

	ctx.SetWidth(e.cfg.Width)
	ctx.SetHeight(e.cfg.Height)
	ctx.SetPixelFormat(astiav.PixelFormatNv12)
	ctx.SetTimeBase(astiav.NewRational(1, e.cfg.FPS))
	ctx.SetFramerate(astiav.NewRational(e.cfg.FPS, 1))
	ctx.SetGopSize(e.cfg.FPS)
	ctx.SetMaxBFrames(0)
	ctx.SetBitRate(e.cfg.VideoBitrate)
	ctx.SetFlags(ctx.Flags().Add(astiav.CodecContextFlagGlobalHeader))

	if err := ctx.Open(codec, opts); err != nil {
		ctx.Free()
		return fmt.Errorf("encoder: opening H.264 encoder %q: %w", codec.Name(), err)
	}

	e.videoCtx = ctx
	e.videoParams = ring.VideoParams{
		Extradata:   append([]byte(nil), ctx.ExtraData()...),
		Width:       e.cfg.Width,
		Height:      e.cfg.Height,
		TimeBaseNum: 1,
		TimeBaseDen: e.cfg.FPS,
	}
	return nil
}

func (e *astiavEncoder) openAudio() error {
	codec := astiav.FindEncoder(astiav.CodecIDAac)
	if codec == nil {
		return fmt.Errorf("encoder: %w: AAC encoder not found", ErrEncoderUnavailable)
	}

	ctx := astiav.AllocCodecContext(codec)
	if ctx == nil {
		return fmt.Errorf("encoder: %w: AllocCodecContext(aac) failed", ErrEncoderUnavailable)
	}

	ctx.SetSampleRate(e.cfg.SampleRate)
	ctx.SetChannelLayout(astiav.ChannelLayoutStereo)
	ctx.SetSampleFormat(astiav.SampleFormatFltp)
	ctx.SetTimeBase(astiav.NewRational(1, e.cfg.SampleRate))
	ctx.SetBitRate(e.cfg.AudioBitrate)
	ctx.SetFlags(ctx.Flags().Add(astiav.CodecContextFlagGlobalHeader))
	// Some FFmpeg builds gate the native AAC encoder behind experimental
	// compliance.
	ctx.SetStrictStdCompliance(astiav.StrictStdComplianceExperimental)

	if err := ctx.Open(codec, nil); err != nil {
		ctx.Free()
		return fmt.Errorf("encoder: opening AAC encoder: %w", err)
	}

	e.audioCtx = ctx
	e.audioFrameLen = ctx.FrameSize()
	if e.audioFrameLen <= 0 {
		e.audioFrameLen = 1024
	}
	e.audioParams = ring.AudioParams{
		Extradata:   append([]byte(nil), ctx.ExtraData()...),
		SampleRate:  e.cfg.SampleRate,
		Channels:    e.cfg.Channels,
		TimeBaseNum: 1,
		TimeBaseDen: e.cfg.SampleRate,
	}
	return nil
}

func (e *astiavEncoder) VideoParams() ring.VideoParams { return e.videoParams }
func (e *astiavEncoder) AudioParams() ring.AudioParams { return e.audioParams }

// PushVideoFrame converts frame (BGRA) to NV12, submits it for encoding,
// and drains any produced packets.
func (e *astiavEncoder) PushVideoFrame(frame []byte) (*ring.Segment, error) {
	if err := e.ensureScaler(); err != nil {
		return nil, err
	}

	src := astiav.AllocFrame()
	defer src.Free()
	src.SetWidth(e.cfg.Width)
	src.SetHeight(e.cfg.Height)
	src.SetPixelFormat(astiav.PixelFormatBgra)
	if err := src.AllocBuffer(1); err != nil {
		return nil, fmt.Errorf("encoder: video src AllocBuffer: %w", err)
	}
	if err := src.Data().SetBytes(frame, 1); err != nil {
		return nil, fmt.Errorf("encoder: video src copy: %w", err)
	}

	if err := e.scaler.ScaleFrame(src, e.nv12Frame); err != nil {
		return nil, fmt.Errorf("encoder: scale BGRA->NV12: %w", err)
	}

	e.nv12Frame.SetPts(e.frameCounter)
	e.frameCounter++

	if err := e.videoCtx.SendFrame(e.nv12Frame); err != nil {
		return nil, fmt.Errorf("encoder: video SendFrame: %w", err)
	}

	var completed *ring.Segment
	for {
		err := e.videoCtx.ReceivePacket(e.encPkt)
		if err != nil {
			if errorsIsEagainOrEOF(err) {
				break
			}
			return completed, fmt.Errorf("encoder: video ReceivePacket: %w", err)
		}

		p := ring.Packet{
			Data:     append([]byte(nil), e.encPkt.Data()...),
			PTS:      e.encPkt.Pts(),
			DTS:      e.encPkt.Dts(),
			Duration: e.encPkt.Duration(),
			IsKey:    e.encPkt.Flags().Has(astiav.PacketFlagKey),
		}
		e.encPkt.Unref()

		if seg := e.builder.pushVideo(p); seg != nil {
			completed = seg
		}
	}
	return completed, nil
}

func (e *astiavEncoder) ensureScaler() error {
	if e.scaler != nil {
		return nil
	}
	flags := astiav.NewSoftwareScaleContextFlags()
	ssc, err := astiav.CreateSoftwareScaleContext(
		e.cfg.Width, e.cfg.Height, astiav.PixelFormatBgra,
		e.cfg.Width, e.cfg.Height, astiav.PixelFormatNv12,
		flags,
	)
	if err != nil {
		return fmt.Errorf("encoder: CreateSoftwareScaleContext: %w", err)
	}

	dst := astiav.AllocFrame()
	dst.SetWidth(e.cfg.Width)
	dst.SetHeight(e.cfg.Height)
	dst.SetPixelFormat(astiav.PixelFormatNv12)
	if err := dst.AllocBuffer(1); err != nil {
		dst.Free()
		ssc.Free()
		return fmt.Errorf("encoder: dst AllocBuffer: %w", err)
	}

	e.scaler = ssc
	e.nv12Frame = dst
	return nil
}

// PushAudio appends interleaved stereo f32 samples and drains whole
// encoder frames as they accumulate.
func (e *astiavEncoder) PushAudio(pcm []float32) error {
	for i := 0; i+1 < len(pcm); i += 2 {
		e.audioAccum = append(e.audioAccum, [2]float32{pcm[i], pcm[i+1]})
	}

	for len(e.audioAccum) >= e.audioFrameLen {
		chunk := e.audioAccum[:e.audioFrameLen]
		e.audioAccum = e.audioAccum[e.audioFrameLen:]

		frame := astiav.AllocFrame()
		frame.SetSampleFormat(astiav.SampleFormatFltp)
		frame.SetChannelLayout(astiav.ChannelLayoutStereo)
		frame.SetSampleRate(e.cfg.SampleRate)
		frame.SetNbSamples(e.audioFrameLen)
		if err := frame.AllocBuffer(0); err != nil {
			frame.Free()
			return fmt.Errorf("encoder: audio frame AllocBuffer: %w", err)
		}

		// Planar float layout: the left plane followed by the right plane
		// in one contiguous buffer.
		planar := make([]byte, e.audioFrameLen*2*4)
		for i, s := range chunk {
			writeFloat32(planar, i, s[0])
			writeFloat32(planar, e.audioFrameLen+i, s[1])
		}
		if err := frame.Data().SetBytes(planar, 0); err != nil {
			frame.Free()
			return fmt.Errorf("encoder: audio frame SetBytes: %w", err)
		}
		frame.SetPts(e.sampleCounter)
		e.sampleCounter += int64(e.audioFrameLen)

		err := e.sendAudioFrame(frame)
		frame.Free()
		if err != nil {
			return err
		}
	}
	return nil
}

func writeFloat32(plane []byte, sampleIndex int, v float32) {
	binary.LittleEndian.PutUint32(plane[sampleIndex*4:], math.Float32bits(v))
}

func (e *astiavEncoder) sendAudioFrame(frame *astiav.Frame) error {
	if err := e.audioCtx.SendFrame(frame); err != nil {
		return fmt.Errorf("encoder: audio SendFrame: %w", err)
	}
	for {
		err := e.audioCtx.ReceivePacket(e.encPkt)
		if err != nil {
			if errorsIsEagainOrEOF(err) {
				return nil
			}
			return fmt.Errorf("encoder: audio ReceivePacket: %w", err)
		}
		p := ring.Packet{
			Data:     append([]byte(nil), e.encPkt.Data()...),
			PTS:      e.encPkt.Pts(),
			DTS:      e.encPkt.Dts(),
			Duration: e.encPkt.Duration(),
			IsKey:    true,
		}
		e.encPkt.Unref()
		e.builder.pushAudio(p)
	}
}

// Flush signals EOF to both encoders and drains residual packets.
func (e *astiavEncoder) Flush() (*ring.Segment, error) {
	if e.videoCtx != nil {
		if err := e.videoCtx.SendFrame(nil); err == nil {
			for {
				err := e.videoCtx.ReceivePacket(e.encPkt)
				if err != nil {
					break
				}
				p := ring.Packet{
					Data:     append([]byte(nil), e.encPkt.Data()...),
					PTS:      e.encPkt.Pts(),
					DTS:      e.encPkt.Dts(),
					Duration: e.encPkt.Duration(),
					IsKey:    e.encPkt.Flags().Has(astiav.PacketFlagKey),
				}
				e.encPkt.Unref()
				e.builder.pushVideo(p)
			}
		}
	}
	if e.audioCtx != nil {
		if err := e.audioCtx.SendFrame(nil); err == nil {
			for {
				err := e.audioCtx.ReceivePacket(e.encPkt)
				if err != nil {
					break
				}
				p := ring.Packet{
					Data:     append([]byte(nil), e.encPkt.Data()...),
					PTS:      e.encPkt.Pts(),
					DTS:      e.encPkt.Dts(),
					Duration: e.encPkt.Duration(),
					IsKey:    true,
				}
				e.encPkt.Unref()
				e.builder.pushAudio(p)
			}
		}
	}
	return e.builder.flush(), nil
}

func (e *astiavEncoder) Close() {
	if e.encPkt != nil {
		e.encPkt.Free()
		e.encPkt = nil
	}
	if e.nv12Frame != nil {
		e.nv12Frame.Free()
		e.nv12Frame = nil
	}
	if e.scaler != nil {
		e.scaler.Free()
		e.scaler = nil
	}
	if e.videoCtx != nil {
		e.videoCtx.Free()
		e.videoCtx = nil
	}
	if e.audioCtx != nil {
		e.audioCtx.Free()
		e.audioCtx = nil
	}
}

func errorsIsEagainOrEOF(err error) bool {
	return errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof)
}
