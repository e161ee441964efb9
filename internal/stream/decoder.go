package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/asticode/go-astiav"

	"github.com/sonroyaalmerol/warden/internal/utils"
)

const (
	sampleRate   = 48000
	frameSamples = 960 // 20 ms per channel at 48 kHz
)

// Decoder demuxes and decodes a media URL and hands out 20 ms frames of
// 48 kHz stereo s16 audio.
type Decoder struct {
	fc    *astiav.FormatContext
	ii    *astiav.IOInterrupter
	index int
	dec   *astiav.CodecContext
	swr   *astiav.SoftwareResampleContext
	pkt   *astiav.Packet
	frame *astiav.Frame
	conv  *astiav.Frame
	out   *astiav.Frame
	fifo  *astiav.AudioFifo
	eof   bool
}

func inputOptions(mediaURL string) *astiav.Dictionary {
	d := astiav.NewDictionary()
	if strings.HasPrefix(mediaURL, "http") {
		_ = d.Set("reconnect", "1", 0)
		_ = d.Set("reconnect_streamed", "1", 0)
		_ = d.Set("reconnect_delay_max", "5", 0)
		_ = d.Set("rw_timeout", "15000000", 0)
		_ = d.Set("headers", utils.BuildFFmpegHeaders(nil), 0)
	}
	return d
}

// OpenDecoder opens mediaURL and prepares its best audio stream.
func OpenDecoder(mediaURL string) (*Decoder, error) {
	d := &Decoder{index: -1}
	ok := false
	defer func() {
		if !ok {
			d.Close()
		}
	}()

	d.fc = astiav.AllocFormatContext()
	if d.fc == nil {
		return nil, errors.New("alloc format context")
	}
	d.ii = astiav.NewIOInterrupter()
	d.fc.SetIOInterrupter(d.ii)
	opts := inputOptions(mediaURL)
	defer opts.Free()
	if err := d.fc.OpenInput(mediaURL, nil, opts); err != nil {
		d.fc.Free()
		d.fc = nil
		return nil, fmt.Errorf("open input: %w", err)
	}
	if err := d.fc.FindStreamInfo(nil); err != nil {
		return nil, fmt.Errorf("find stream info: %w", err)
	}

	var params *astiav.CodecParameters
	for _, s := range d.fc.Streams() {
		if s.CodecParameters().MediaType() == astiav.MediaTypeAudio {
			d.index = s.Index()
			params = s.CodecParameters()
			break
		}
	}
	if params == nil {
		return nil, errors.New("no audio stream")
	}

	codec := astiav.FindDecoder(params.CodecID())
	if codec == nil {
		return nil, fmt.Errorf("no decoder for %s", params.CodecID())
	}
	d.dec = astiav.AllocCodecContext(codec)
	if d.dec == nil {
		return nil, errors.New("alloc decoder context")
	}
	if err := params.ToCodecContext(d.dec); err != nil {
		return nil, fmt.Errorf("decoder params: %w", err)
	}
	if err := d.dec.Open(codec, nil); err != nil {
		return nil, fmt.Errorf("open decoder: %w", err)
	}

	d.swr = astiav.AllocSoftwareResampleContext()
	d.pkt = astiav.AllocPacket()
	d.frame = astiav.AllocFrame()
	d.conv = astiav.AllocFrame()
	d.out = astiav.AllocFrame()
	d.fifo = astiav.AllocAudioFifo(astiav.SampleFormatS16, 2, frameSamples*4)
	if d.swr == nil || d.pkt == nil || d.frame == nil || d.conv == nil || d.out == nil || d.fifo == nil {
		return nil, errors.New("alloc decode buffers")
	}

	ok = true
	return d, nil
}

func setOutputFormat(f *astiav.Frame, nbSamples int) error {
	f.Unref()
	f.SetChannelLayout(astiav.ChannelLayoutStereo)
	f.SetSampleFormat(astiav.SampleFormatS16)
	f.SetSampleRate(sampleRate)
	f.SetNbSamples(nbSamples)
	return f.AllocBuffer(0)
}

// Next returns the next frame of at most 960 samples. The frame is owned
// by the decoder and valid until the following call. io.EOF marks the end.
func (d *Decoder) Next(ctx context.Context) (*astiav.Frame, error) {
	for d.fifo.Size() < frameSamples && !d.eof {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := d.fill(); err != nil {
			return nil, err
		}
	}

	n := min(frameSamples, d.fifo.Size())
	if n == 0 {
		return nil, io.EOF
	}
	if err := setOutputFormat(d.out, n); err != nil {
		return nil, fmt.Errorf("alloc output frame: %w", err)
	}
	if _, err := d.fifo.Read(d.out); err != nil {
		return nil, fmt.Errorf("read fifo: %w", err)
	}
	return d.out, nil
}

func (d *Decoder) fill() error {
	d.pkt.Unref()
	if err := d.fc.ReadFrame(d.pkt); err != nil {
		if errors.Is(err, astiav.ErrEof) {
			d.eof = true
			_ = d.dec.SendPacket(nil)
			return d.drain()
		}
		return fmt.Errorf("read frame: %w", err)
	}
	defer d.pkt.Unref()

	if d.pkt.StreamIndex() != d.index {
		return nil
	}
	if err := d.dec.SendPacket(d.pkt); err != nil && !errors.Is(err, astiav.ErrEagain) {
		return fmt.Errorf("send packet: %w", err)
	}
	return d.drain()
}

func (d *Decoder) drain() error {
	for {
		d.frame.Unref()
		if err := d.dec.ReceiveFrame(d.frame); err != nil {
			if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
				return nil
			}
			return fmt.Errorf("receive frame: %w", err)
		}

		nb := int(astiav.RescaleQ(int64(d.frame.NbSamples()),
			astiav.NewRational(1, d.frame.SampleRate()), astiav.NewRational(1, sampleRate)))
		if nb <= 0 {
			continue
		}
		// headroom for samples the resampler held back from earlier frames
		if err := setOutputFormat(d.conv, nb+64); err != nil {
			return fmt.Errorf("alloc resample frame: %w", err)
		}
		if err := d.swr.ConvertFrame(d.frame, d.conv); err != nil {
			return fmt.Errorf("resample: %w", err)
		}
		if _, err := d.fifo.Write(d.conv); err != nil {
			return fmt.Errorf("write fifo: %w", err)
		}
	}
}

// Interrupt aborts a blocking read. The pending and all later reads fail
// with astiav.ErrExit. Safe to call from any goroutine, also after Close.
func (d *Decoder) Interrupt() {
	d.ii.Interrupt()
}

func (d *Decoder) Close() {
	if d.fifo != nil {
		d.fifo.Free()
	}
	for _, f := range []*astiav.Frame{d.frame, d.conv, d.out} {
		if f != nil {
			f.Free()
		}
	}
	if d.pkt != nil {
		d.pkt.Free()
	}
	if d.swr != nil {
		d.swr.Free()
	}
	if d.dec != nil {
		d.dec.Free()
	}
	if d.fc != nil {
		d.fc.CloseInput()
		d.fc.Free()
	}
	if d.ii != nil {
		d.ii.Free()
	}
}
