package rewriter

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/skystar-p/zoog"
	"github.com/skystar-p/zoog/oggstream"
	"github.com/skystar-p/zoog/opus"
)

func buildHeaderPacket(outputGain int16) []byte {
	buf := make([]byte, 19)
	copy(buf, "OpusHead")
	buf[8] = 1
	buf[9] = 2
	binary.LittleEndian.PutUint16(buf[10:12], 312)
	binary.LittleEndian.PutUint32(buf[12:16], 48000)
	binary.LittleEndian.PutUint16(buf[16:18], uint16(outputGain))
	buf[18] = 0
	return buf
}

func buildCommentPacket(vendor string, entries ...string) []byte {
	var buf bytes.Buffer
	buf.WriteString("OpusTags")
	writeLE32(&buf, uint32(len(vendor)))
	buf.WriteString(vendor)
	writeLE32(&buf, uint32(len(entries)))
	for _, e := range entries {
		writeLE32(&buf, uint32(len(e)))
		buf.WriteString(e)
	}
	return buf.Bytes()
}

func writeLE32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

// noopTransform never mutates anything; used to test the HeadersUnchanged
// path and pass-through packet ordering.
type noopTransform struct{}

func (noopTransform) Summarize(id *opus.Header, comment *opus.CommentHeader) string {
	return ""
}

func (noopTransform) Rewrite(id *opus.Header, comment *opus.CommentHeader) error {
	return nil
}

// gainBumpTransform adjusts the output gain by a fixed delta, used to test
// the HeadersChanged path.
type gainBumpTransform struct {
	delta zoog.FixedPointGain
}

func (t gainBumpTransform) Summarize(id *opus.Header, comment *opus.CommentHeader) int16 {
	return id.OutputGain().Raw()
}

func (t gainBumpTransform) Rewrite(id *opus.Header, comment *opus.CommentHeader) error {
	return id.AdjustOutputGain(t.delta)
}

type fakeSink struct {
	writes []fakeWrite
}

type fakeWrite struct {
	data   []byte
	serial uint32
	end    oggstream.EndInfo
	absgp  uint64
}

func (s *fakeSink) WritePacket(data []byte, serial uint32, end oggstream.EndInfo, absgp uint64) error {
	cp := append([]byte{}, data...)
	s.writes = append(s.writes, fakeWrite{data: cp, serial: serial, end: end, absgp: absgp})
	return nil
}

func TestRewriter_HeadersUnchanged(t *testing.T) {
	sink := &fakeSink{}
	rw := New[string](sink, noopTransform{})

	headerData := buildHeaderPacket(0)
	commentData := buildCommentPacket("vendor")

	res, err := rw.Submit(&oggstream.Packet{Data: headerData, StreamSerial: 1})
	if err != nil {
		t.Fatalf("submit header: %v", err)
	}
	if res.Kind != Good {
		t.Fatalf("expected Good, got %v", res.Kind)
	}

	res, err = rw.Submit(&oggstream.Packet{Data: commentData, StreamSerial: 1, LastInPage: true})
	if err != nil {
		t.Fatalf("submit comment: %v", err)
	}
	if res.Kind != HeadersUnchanged {
		t.Fatalf("expected HeadersUnchanged, got %v", res.Kind)
	}

	if len(sink.writes) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(sink.writes))
	}
	if !bytes.Equal(sink.writes[0].data, headerData) {
		t.Errorf("header packet bytes changed unexpectedly")
	}
	if !bytes.Equal(sink.writes[1].data, commentData) {
		t.Errorf("comment packet bytes changed unexpectedly")
	}
}

func TestRewriter_HeadersChanged(t *testing.T) {
	sink := &fakeSink{}
	rw := New[int16](sink, gainBumpTransform{delta: 256})

	res, err := rw.Submit(&oggstream.Packet{Data: buildHeaderPacket(0)})
	if err != nil {
		t.Fatalf("submit header: %v", err)
	}
	if res.Kind != Good {
		t.Fatalf("expected Good, got %v", res.Kind)
	}

	res, err = rw.Submit(&oggstream.Packet{Data: buildCommentPacket("vendor"), LastInPage: true})
	if err != nil {
		t.Fatalf("submit comment: %v", err)
	}
	if res.Kind != HeadersChanged {
		t.Fatalf("expected HeadersChanged, got %v", res.Kind)
	}
	if res.From != 0 || res.To != 256 {
		t.Errorf("expected From=0 To=256, got From=%d To=%d", res.From, res.To)
	}

	rewrittenHeader, err := opus.ParseHeader(sink.writes[0].data)
	if err != nil {
		t.Fatalf("parse rewritten header: %v", err)
	}
	if rewrittenHeader.OutputGain().Raw() != 256 {
		t.Errorf("expected output gain 256 in emitted bytes, got %d", rewrittenHeader.OutputGain().Raw())
	}
}

func TestRewriter_PassThroughOrdering(t *testing.T) {
	sink := &fakeSink{}
	rw := New[string](sink, noopTransform{})

	if _, err := rw.Submit(&oggstream.Packet{Data: buildHeaderPacket(0), StreamSerial: 7}); err != nil {
		t.Fatal(err)
	}
	if _, err := rw.Submit(&oggstream.Packet{Data: buildCommentPacket("v")}); err != nil {
		t.Fatal(err)
	}

	audio1 := []byte{1, 2, 3}
	audio2 := []byte{4, 5, 6, 7}
	if _, err := rw.Submit(&oggstream.Packet{Data: audio1, StreamSerial: 7, AbsGranulePos: 960}); err != nil {
		t.Fatal(err)
	}
	if _, err := rw.Submit(&oggstream.Packet{Data: audio2, StreamSerial: 7, AbsGranulePos: 1920, LastInStream: true}); err != nil {
		t.Fatal(err)
	}

	if len(sink.writes) != 4 {
		t.Fatalf("expected 4 writes, got %d", len(sink.writes))
	}
	if !bytes.Equal(sink.writes[2].data, audio1) || !bytes.Equal(sink.writes[3].data, audio2) {
		t.Fatalf("pass-through packets were not emitted in order")
	}
	if sink.writes[3].end != oggstream.EndStream {
		t.Errorf("expected final packet to carry EndStream, got %v", sink.writes[3].end)
	}
	if sink.writes[3].absgp != 1920 {
		t.Errorf("expected granule position preserved, got %d", sink.writes[3].absgp)
	}
}
