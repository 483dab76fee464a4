// Package volume implements BS.1770 loudness measurement and the output-gain
// rewrite transform that normalizes an Opus stream's playback loudness.
package volume

import (
	gopus "gopkg.in/hraban/opus.v2"

	"github.com/skystar-p/zoog"
)

// sampleRate is the fixed output rate the analyzer decodes at, matching
// Opus's native 48 kHz internal rate so no resampling is needed.
const sampleRate = 48000

// maxFrameSamples sizes the scratch decode buffer for Opus's maximum packet
// duration, 120 ms, per channel.
const maxFrameSamples = sampleRate * 120 / 1000

// PCMDecoder decodes one Opus packet into interleaved float32 PCM, writing
// into pcm and returning the number of samples per channel produced. This
// is the seam the analyzer tests substitute a fake over, so they never call
// into the real codec (the package still links it, so building it needs
// cgo).
type PCMDecoder interface {
	DecodeFloat32(data []byte, pcm []float32) (int, error)
}

// opusDecoder adapts gopkg.in/hraban/opus.v2's cgo-backed decoder to
// PCMDecoder.
type opusDecoder struct {
	dec *gopus.Decoder
}

// NewDecoder constructs a PCMDecoder for channels (1 or 2) at the fixed
// 48 kHz analyzer rate.
func NewDecoder(channels int) (PCMDecoder, error) {
	dec, err := gopus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, &zoog.Error{Kind: zoog.OggDecode, Err: err}
	}
	return &opusDecoder{dec: dec}, nil
}

func (d *opusDecoder) DecodeFloat32(data []byte, pcm []float32) (int, error) {
	n, err := d.dec.DecodeFloat32(data, pcm)
	if err != nil {
		return 0, &zoog.Error{Kind: zoog.OggDecode, Err: err}
	}
	return n, nil
}
