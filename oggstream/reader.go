package oggstream

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/skystar-p/zoog"
)

const (
	pageHeaderSignature = "OggS"
	pageHeaderLen        = 27

	headerTypeContinuation = 0x01
	headerTypeBOS          = 0x02
	headerTypeEOS           = 0x04
)

// UnknownGranulePos is assigned to every completed packet within a page
// except the last: per Ogg convention only the packet that terminates a
// page carries that page's granule position.
const UnknownGranulePos = ^uint64(0)

type pageHeader struct {
	version    uint8
	headerType uint8
	granule    uint64
	serial     uint32
	sequence   uint32
	checksum   uint32
	segments   []byte
}

// Reader reads packets from an Ogg bitstream, reassembling packets that
// span page boundaries and deriving each packet's LastInPage/LastInStream
// flags from the page it completes on.
type Reader struct {
	r io.Reader

	pending       []byte
	pendingSerial uint32
	havePending   bool

	queue []*Packet
	done  bool
}

// NewReader wraps r as a packet source.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Next returns the next packet, or (nil, nil) at a clean end of stream.
func (rd *Reader) Next() (*Packet, error) {
	for len(rd.queue) == 0 {
		if rd.done {
			return nil, nil
		}

		hdr, payload, err := rd.readPage()
		if errors.Is(err, io.EOF) {
			rd.done = true
			return nil, nil
		}
		if err != nil {
			return nil, &zoog.Error{Kind: zoog.OggDecode, Err: err}
		}

		packets, trailing, err := splitPackets(hdr.segments, payload)
		if err != nil {
			return nil, &zoog.Error{Kind: zoog.OggDecode, Err: err}
		}

		if hdr.headerType&headerTypeContinuation != 0 && rd.havePending {
			if len(packets) > 0 {
				packets[0] = append(append([]byte{}, rd.pending...), packets[0]...)
			} else {
				trailing = append(append([]byte{}, rd.pending...), trailing...)
			}
			rd.havePending = false
			rd.pending = nil
		}

		eos := hdr.headerType&headerTypeEOS != 0

		for i, data := range packets {
			isLastOnPage := i == len(packets)-1 && trailing == nil
			pkt := &Packet{
				Data:          data,
				StreamSerial:  hdr.serial,
				AbsGranulePos: UnknownGranulePos,
				LastInPage:    isLastOnPage,
				LastInStream:  isLastOnPage && eos,
			}
			if isLastOnPage {
				pkt.AbsGranulePos = hdr.granule
			}
			rd.queue = append(rd.queue, pkt)
		}

		if trailing != nil {
			rd.pending = trailing
			rd.pendingSerial = hdr.serial
			rd.havePending = true
		}
	}

	pkt := rd.queue[0]
	rd.queue = rd.queue[1:]
	return pkt, nil
}

func (rd *Reader) readPage() (*pageHeader, []byte, error) {
	raw := make([]byte, pageHeaderLen)
	if _, err := io.ReadFull(rd.r, raw); err != nil {
		return nil, nil, err
	}
	if string(raw[0:4]) != pageHeaderSignature {
		return nil, nil, errors.New("oggstream: bad page signature")
	}

	hdr := &pageHeader{
		version:    raw[4],
		headerType: raw[5],
		granule:    binary.LittleEndian.Uint64(raw[6:14]),
		serial:     binary.LittleEndian.Uint32(raw[14:18]),
		sequence:   binary.LittleEndian.Uint32(raw[18:22]),
		checksum:   binary.LittleEndian.Uint32(raw[22:26]),
	}
	nSegments := int(raw[26])

	segments := make([]byte, nSegments)
	if _, err := io.ReadFull(rd.r, segments); err != nil {
		return nil, nil, err
	}
	hdr.segments = segments

	payloadSize := 0
	for _, s := range segments {
		payloadSize += int(s)
	}
	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(rd.r, payload); err != nil {
		return nil, nil, err
	}

	if err := verifyChecksum(raw, segments, payload, hdr.checksum); err != nil {
		return nil, nil, err
	}

	return hdr, payload, nil
}

func verifyChecksum(header, segments, payload []byte, want uint32) error {
	zeroed := append([]byte{}, header...)
	zeroed[22], zeroed[23], zeroed[24], zeroed[25] = 0, 0, 0, 0

	var checksum uint32
	updateChecksum := func(b byte) {
		checksum = (checksum << 8) ^ crcTable[byte(checksum>>24)^b]
	}
	for _, b := range zeroed {
		updateChecksum(b)
	}
	for _, b := range segments {
		updateChecksum(b)
	}
	for _, b := range payload {
		updateChecksum(b)
	}

	if checksum != want {
		return errors.New("oggstream: page checksum mismatch")
	}
	return nil
}

// splitPackets applies the lacing rule to a page's segment table and
// payload: a run of 255-valued segments followed by a shorter one ends a
// packet; a run of 255s reaching the end of the segment table leaves a
// trailing, not-yet-complete packet (returned separately, nil if none).
func splitPackets(segments, payload []byte) (packets [][]byte, trailing []byte, err error) {
	start := 0
	var cur []byte

	for i, segLen := range segments {
		end := start + int(segLen)
		if end > len(payload) {
			return nil, nil, errors.New("oggstream: segment table overruns payload")
		}
		cur = append(cur, payload[start:end]...)
		start = end

		if segLen < 255 {
			packets = append(packets, cur)
			cur = nil
		} else if i == len(segments)-1 {
			trailing = cur
			cur = nil
		}
	}

	return packets, trailing, nil
}
