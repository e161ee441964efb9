package stream

import (
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
)

type OpusPacketHandler func(pkt []byte) error

// Encoder wraps libopus at 48 kHz stereo with 20 ms frames.
type Encoder struct {
	cc     *astiav.CodecContext
	packet *astiav.Packet
	pts    int64
}

func NewEncoder(bitrateKbps int) (*Encoder, error) {
	if bitrateKbps <= 0 {
		bitrateKbps = 128
	}

	codec := astiav.FindEncoderByName("libopus")
	if codec == nil {
		return nil, errors.New("libopus encoder not found (check ffmpeg installation)")
	}
	cc := astiav.AllocCodecContext(codec)
	if cc == nil {
		return nil, errors.New("alloc codec context for libopus")
	}
	cc.SetSampleRate(sampleRate)
	cc.SetChannelLayout(astiav.ChannelLayoutStereo)
	cc.SetSampleFormat(astiav.SampleFormatS16)
	cc.SetTimeBase(astiav.NewRational(1, sampleRate))
	cc.SetBitRate(int64(bitrateKbps) * 1000)

	opts := astiav.NewDictionary()
	defer opts.Free()
	_ = opts.Set("frame_duration", "20", 0)
	_ = opts.Set("application", "audio", 0)
	_ = opts.Set("vbr", "on", 0)

	if err := cc.Open(codec, opts); err != nil {
		cc.Free()
		return nil, fmt.Errorf("open opus encoder: %w", err)
	}

	pkt := astiav.AllocPacket()
	if pkt == nil {
		cc.Free()
		return nil, errors.New("alloc packet for encoder")
	}
	return &Encoder{cc: cc, packet: pkt}, nil
}

func (e *Encoder) Close() {
	if e.packet != nil {
		e.packet.Free()
	}
	if e.cc != nil {
		e.cc.Free()
	}
}

// Encode takes a frame of at most 960 samples; only the last frame of a
// stream may be short.
func (e *Encoder) Encode(f *astiav.Frame, onPacket OpusPacketHandler) error {
	f.SetPts(e.pts)
	e.pts += int64(f.NbSamples())
	if err := e.cc.SendFrame(f); err != nil {
		return fmt.Errorf("send frame to encoder: %w", err)
	}
	return e.receive(onPacket)
}

func (e *Encoder) Flush(onPacket OpusPacketHandler) error {
	if err := e.cc.SendFrame(nil); err != nil {
		if errors.Is(err, astiav.ErrEof) {
			return nil
		}
		return fmt.Errorf("send flush frame: %w", err)
	}
	return e.receive(onPacket)
}

func (e *Encoder) receive(onPacket OpusPacketHandler) error {
	for {
		e.packet.Unref()
		if err := e.cc.ReceivePacket(e.packet); err != nil {
			if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
				return nil
			}
			return fmt.Errorf("receive opus packet: %w", err)
		}
		if err := onPacket(e.packet.Data()); err != nil {
			return err
		}
	}
}
