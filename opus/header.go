// Package opus implements the two Opus header packets a rewriter cares
// about: the identification header (channel count, output gain) and the
// comment header (vendor string plus a Vorbis-style key=value list).
package opus

import (
	"bytes"
	"encoding/binary"

	"github.com/skystar-p/zoog"
)

// idMagic is the 8-byte magic every Opus identification header begins with.
const idMagic = "OpusHead"

// minHeaderLen is the shortest buffer ParseHeader accepts: magic (8) + version
// (1) + channel count (1) + pre-skip (2) + sample rate (4) + output gain (2)
// + channel mapping family (1) = 19.
const minHeaderLen = 19

const (
	channelCountOffset = 9
	outputGainOffset   = 16
)

// Header is a mutable zero-copy view over an Opus identification header
// packet's bytes. It never copies the buffer; callers that need to compare
// against the pre-mutation bytes must clone the buffer themselves before
// constructing a Header over it.
type Header struct {
	data []byte
}

// ParseHeader validates that data begins with the OpusHead magic and is
// long enough to hold every fixed field, then returns a view over it.
// ParseHeader fails with MissingOpusStream if the magic does not match or
// the buffer is too short.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < minHeaderLen || string(data[:len(idMagic)]) != idMagic {
		return nil, &zoog.Error{Kind: zoog.MissingOpusStream}
	}
	return &Header{data: data}, nil
}

// Bytes returns the underlying buffer. Mutating it outside the accessor
// methods bypasses the Header's bookkeeping and is the caller's
// responsibility.
func (h *Header) Bytes() []byte {
	return h.data
}

// ChannelCount returns the number of audio channels encoded in byte 9.
func (h *Header) ChannelCount() int {
	return int(h.data[channelCountOffset])
}

// OutputGain returns the current output-gain field (bytes 16..18, little
// endian, Q7.8 dB).
func (h *Header) OutputGain() zoog.FixedPointGain {
	raw := int16(binary.LittleEndian.Uint16(h.data[outputGainOffset : outputGainOffset+2]))
	return zoog.FixedPointGainFromRaw(raw)
}

// SetOutputGain overwrites the output-gain field unconditionally.
func (h *Header) SetOutputGain(gain zoog.FixedPointGain) {
	binary.LittleEndian.PutUint16(h.data[outputGainOffset:outputGainOffset+2], uint16(gain.Raw()))
}

// AdjustOutputGain adds delta to the current output gain and writes the
// result back, failing with GainOutOfBounds on i16 overflow and leaving the
// header unmodified in that case.
func (h *Header) AdjustOutputGain(delta zoog.FixedPointGain) error {
	next, ok := h.OutputGain().CheckedAdd(delta)
	if !ok {
		return &zoog.Error{Kind: zoog.GainOutOfBounds}
	}
	h.SetOutputGain(next)
	return nil
}

// Equal compares the whole underlying buffer byte-wise. This is what lets
// the rewriter distinguish "semantically identical" changes (e.g. a
// no-op rewrite) from a genuine byte-level mutation.
func (h *Header) Equal(other *Header) bool {
	return bytes.Equal(h.data, other.data)
}
