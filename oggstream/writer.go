package oggstream

import (
	"encoding/binary"
	"io"

	"github.com/skystar-p/zoog"
)

// Writer re-serializes packets into an Ogg bitstream, grouping them into
// pages according to the EndInfo each WritePacket call is given: EndPage
// and EndStream force a page break (EndStream additionally sets the EOS
// flag), NormalPacket accumulates into the page currently being built.
//
// Page construction (lacing-value computation, checksum placement) is
// grounded on pion/webrtc's oggwriter.createPage, generalized to accept an
// externally supplied serial and granule position per page instead of
// assigning its own, so that re-emitting an existing stream's packets
// preserves their original serials and granule positions exactly.
type Writer struct {
	w         io.Writer
	sequence  uint32
	buf       [][]byte
	bosWritten map[uint32]bool
}

// NewWriter wraps w as a packet sink.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, bosWritten: make(map[uint32]bool)}
}

// WritePacket buffers data as part of the page currently being built for
// serial, flushing a page when end is EndPage or EndStream.
func (wr *Writer) WritePacket(data []byte, serial uint32, end EndInfo, absgp uint64) error {
	wr.buf = append(wr.buf, data)

	if end == NormalPacket {
		return nil
	}

	headerType := byte(0)
	if !wr.bosWritten[serial] {
		headerType |= headerTypeBOS
		wr.bosWritten[serial] = true
	}
	if end == EndStream {
		headerType |= headerTypeEOS
	}

	page, err := buildPage(wr.buf, headerType, absgp, serial, wr.sequence)
	wr.buf = nil
	wr.sequence++
	if err != nil {
		return &zoog.Error{Kind: zoog.WriteError, Err: err}
	}

	if _, err := wr.w.Write(page); err != nil {
		return &zoog.Error{Kind: zoog.WriteError, Err: err}
	}
	return nil
}

// buildPage serializes one or more packets as a single Ogg page, computing
// the lacing table and CRC-32 checksum.
func buildPage(packets [][]byte, headerType byte, granule uint64, serial, sequence uint32) ([]byte, error) {
	var payload []byte
	var segments []byte

	for _, p := range packets {
		n := len(p) / 255
		for i := 0; i < n; i++ {
			segments = append(segments, 255)
		}
		segments = append(segments, byte(len(p)%255))
		payload = append(payload, p...)
	}
	if len(segments) > 255 {
		// A single page cannot carry more than 255 lacing values; this
		// only happens for pathologically large or numerous packets
		// batched into one page. The rewriter forwards each packet's
		// original page boundary, so its pages group the same packets as
		// the input pages did.
		return nil, io.ErrShortBuffer
	}

	page := make([]byte, pageHeaderLen+len(segments)+len(payload))
	copy(page[0:4], pageHeaderSignature)
	page[4] = 0
	page[5] = headerType
	binary.LittleEndian.PutUint64(page[6:14], granule)
	binary.LittleEndian.PutUint32(page[14:18], serial)
	binary.LittleEndian.PutUint32(page[18:22], sequence)
	page[26] = byte(len(segments))
	copy(page[pageHeaderLen:], segments)
	copy(page[pageHeaderLen+len(segments):], payload)

	checksum := pageChecksum(page)
	binary.LittleEndian.PutUint32(page[22:26], checksum)

	return page, nil
}
