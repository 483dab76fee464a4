package volume

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/skystar-p/zoog"
)

// fakeDecoder produces a fixed number of samples of a constant PCM value
// per channel, regardless of the input packet bytes, so tests can drive the
// analyzer's state machine without depending on a real Opus bitstream.
type fakeDecoder struct {
	channels      int
	samplesPerPkt int
	value         float32
	decodeErr     error
}

func (d *fakeDecoder) DecodeFloat32(data []byte, pcm []float32) (int, error) {
	if d.decodeErr != nil {
		return 0, d.decodeErr
	}
	for i := 0; i < d.samplesPerPkt*d.channels; i++ {
		pcm[i] = d.value
	}
	return d.samplesPerPkt, nil
}

func withFakeDecoder(t *testing.T, dec *fakeDecoder) {
	t.Helper()
	prev := decoderFactory
	decoderFactory = func(channels int) (PCMDecoder, error) {
		dec.channels = channels
		return dec, nil
	}
	t.Cleanup(func() { decoderFactory = prev })
}

func buildOpusHeaderPacket(channels uint8) []byte {
	buf := make([]byte, 19)
	copy(buf, "OpusHead")
	buf[8] = 1
	buf[9] = channels
	binary.LittleEndian.PutUint16(buf[10:12], 0)
	binary.LittleEndian.PutUint32(buf[12:16], 48000)
	binary.LittleEndian.PutUint16(buf[16:18], 0)
	buf[18] = 0
	return buf
}

func buildOpusCommentPacket() []byte {
	var buf []byte
	buf = append(buf, "OpusTags"...)
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], 0)
	buf = append(buf, u32[:]...) // vendor len 0
	binary.LittleEndian.PutUint32(u32[:], 0)
	buf = append(buf, u32[:]...) // 0 entries
	return buf
}

func TestAnalyzer_SilentTrackReportsZeroLUFS(t *testing.T) {
	dec := &fakeDecoder{samplesPerPkt: windowSamples, value: 0}
	withFakeDecoder(t, dec)

	a := NewAnalyzer()
	if err := a.Submit(buildOpusHeaderPacket(2)); err != nil {
		t.Fatalf("header submit: %v", err)
	}
	if err := a.Submit(buildOpusCommentPacket()); err != nil {
		t.Fatalf("comment submit: %v", err)
	}
	for i := 0; i < 10; i++ {
		if err := a.Submit([]byte("opaque-audio-packet")); err != nil {
			t.Fatalf("audio submit %d: %v", i, err)
		}
	}
	a.FileComplete()

	lufs, ok := a.LastTrackLUFS()
	if !ok {
		t.Fatal("expected a recorded track LUFS")
	}
	if lufs != 0.0 {
		t.Errorf("LastTrackLUFS() = %v, want 0.0 for silence", lufs)
	}
}

func TestAnalyzer_RejectsInvalidChannelCount(t *testing.T) {
	a := NewAnalyzer()
	err := a.Submit(buildOpusHeaderPacket(6))
	zerr, ok := err.(*zoog.Error)
	if !ok || zerr.Kind != zoog.InvalidChannelCount {
		t.Fatalf("expected InvalidChannelCount, got %v", err)
	}
}

func TestAnalyzer_RejectsMissingCommentHeader(t *testing.T) {
	dec := &fakeDecoder{samplesPerPkt: windowSamples}
	withFakeDecoder(t, dec)

	a := NewAnalyzer()
	if err := a.Submit(buildOpusHeaderPacket(2)); err != nil {
		t.Fatalf("header submit: %v", err)
	}
	err := a.Submit([]byte("not a comment header"))
	zerr, ok := err.(*zoog.Error)
	if !ok || zerr.Kind != zoog.MissingCommentHeader {
		t.Fatalf("expected MissingCommentHeader, got %v", err)
	}
}

func TestAnalyzer_ResetsBetweenTracks(t *testing.T) {
	dec := &fakeDecoder{samplesPerPkt: windowSamples}
	withFakeDecoder(t, dec)

	a := NewAnalyzer()
	for track := 0; track < 2; track++ {
		if err := a.Submit(buildOpusHeaderPacket(2)); err != nil {
			t.Fatalf("track %d header: %v", track, err)
		}
		if err := a.Submit(buildOpusCommentPacket()); err != nil {
			t.Fatalf("track %d comment: %v", track, err)
		}
		for i := 0; i < 5; i++ {
			if err := a.Submit([]byte("packet")); err != nil {
				t.Fatalf("track %d audio: %v", track, err)
			}
		}
		a.FileComplete()
	}

	if len(a.TrackLUFS()) != 2 {
		t.Fatalf("expected 2 recorded tracks, got %d", len(a.TrackLUFS()))
	}
}

func TestMeanLUFSAcrossMultiple_UnionOfWindowsNotMeanOfTracks(t *testing.T) {
	quietDec := &fakeDecoder{samplesPerPkt: windowSamples, value: 0}
	a1 := NewAnalyzer()
	withFakeDecoder(t, quietDec)
	_ = a1.Submit(buildOpusHeaderPacket(2))
	_ = a1.Submit(buildOpusCommentPacket())
	for i := 0; i < 8; i++ {
		_ = a1.Submit([]byte("packet"))
	}
	a1.FileComplete()

	a2 := NewAnalyzer()
	withFakeDecoder(t, quietDec)
	_ = a2.Submit(buildOpusHeaderPacket(2))
	_ = a2.Submit(buildOpusCommentPacket())
	for i := 0; i < 8; i++ {
		_ = a2.Submit([]byte("packet"))
	}
	a2.FileComplete()

	combined := MeanLUFSAcrossMultiple([]*Analyzer{a1, a2})
	if combined != 0.0 {
		t.Errorf("MeanLUFSAcrossMultiple of two silent tracks = %v, want 0.0", combined)
	}

	// One track of four -20 LUFS windows and one of four -30 LUFS windows:
	// the union's five 400ms blocks all pass both gates and average to the
	// mean of the two window powers (about -22.6 LUFS), whereas the mean of
	// the two per-track values would be -25 LUFS.
	loudPower, quietPower := lufsToPower(-20), lufsToPower(-30)
	loud := &Analyzer{windows: []float64{loudPower, loudPower, loudPower, loudPower}}
	quiet := &Analyzer{windows: []float64{quietPower, quietPower, quietPower, quietPower}}
	got := MeanLUFSAcrossMultiple([]*Analyzer{loud, quiet})
	want := powerToLUFS((loudPower + quietPower) / 2)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("MeanLUFSAcrossMultiple of -20 and -30 LUFS tracks = %v, want %v (union of windows)", got, want)
	}
}
