// Package oggstream implements the Ogg container codec the rewriter
// consumes as an external collaborator: packet-level reading and writing
// of an Ogg bitstream, with page CRC-32 computation and lacing.
//
// Unlike the single-purpose encoders/decoders pion/webrtc's oggwriter and
// oggreader packages implement, Writer here preserves an existing stream's
// serial numbers and granule positions verbatim rather than assigning its
// own, which is what letting the stream rewriter re-emit packets 3..N
// byte-for-byte requires.
package oggstream

// EndInfo classifies where a packet falls relative to Ogg page and stream
// boundaries, mirroring what the writer needs to know to start a fresh
// page or mark the final one.
type EndInfo int

const (
	// NormalPacket is neither the last packet of its page nor of the
	// stream.
	NormalPacket EndInfo = iota
	// EndPage is the last packet of its page, but not of the stream.
	EndPage
	// EndStream is the last packet of the whole logical stream.
	EndStream
)

// Packet is the unit the rewriter operates on: an opaque payload plus the
// framing metadata needed to re-emit it unchanged.
type Packet struct {
	Data []byte

	StreamSerial  uint32
	AbsGranulePos uint64
	LastInPage    bool
	LastInStream  bool
}

// EndInfoValue derives the EndInfo a writer needs from LastInPage/LastInStream.
func (p Packet) EndInfoValue() EndInfo {
	switch {
	case p.LastInStream:
		return EndStream
	case p.LastInPage:
		return EndPage
	default:
		return NormalPacket
	}
}

// Source yields packets from an Ogg bitstream in order, one logical stream
// at a time. Next returns (nil, nil) at a clean end of stream.
type Source interface {
	Next() (*Packet, error)
}

// Sink accepts packets to be re-serialized into an Ogg bitstream. Each call
// writes one packet; the sink groups packets into pages according to
// EndInfo.
type Sink interface {
	WritePacket(data []byte, serial uint32, end EndInfo, absgp uint64) error
}
