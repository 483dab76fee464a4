package volume

import (
	"math"

	"github.com/skystar-p/zoog"
	"github.com/skystar-p/zoog/opus"
)

// analyzerState tracks which of the first two packets of a track have been
// seen, mirroring the stream rewriter's own state machine.
type analyzerState int

const (
	awaitingHeader analyzerState = iota
	awaitingComments
	analyzing
)

// decodeState holds everything needed to decode and measure one track's
// audio packets: the PCM decoder, a scratch buffer sized for Opus's longest
// packet, and one loudness meter per channel.
type decodeState struct {
	channelCount int
	decoder      PCMDecoder
	meters       []*ChannelLoudnessMeter

	scratch []float32
	chanBuf []float32
}

// decoderFactory builds the PCMDecoder each new track's decodeState uses.
// Tests substitute a fake here so the analyzer's state machine and BS.1770
// accumulation can be exercised without the cgo-backed codec.
var decoderFactory = NewDecoder

func newDecodeState(channelCount int) (*decodeState, error) {
	if channelCount != 1 && channelCount != 2 {
		return nil, &zoog.Error{Kind: zoog.InvalidChannelCount, ChannelCount: channelCount}
	}
	decoder, err := decoderFactory(channelCount)
	if err != nil {
		return nil, err
	}
	meters := make([]*ChannelLoudnessMeter, channelCount)
	for i := range meters {
		meters[i] = NewChannelLoudnessMeter()
	}
	return &decodeState{
		channelCount: channelCount,
		decoder:      decoder,
		meters:       meters,
		scratch:      make([]float32, channelCount*maxFrameSamples),
	}, nil
}

func (ds *decodeState) pushPacket(data []byte) error {
	n, err := ds.decoder.DecodeFloat32(data, ds.scratch)
	if err != nil {
		return err
	}
	if cap(ds.chanBuf) < n {
		ds.chanBuf = make([]float32, n)
	}
	buf := ds.chanBuf[:n]
	for c := 0; c < ds.channelCount; c++ {
		for i := 0; i < n; i++ {
			buf[i] = ds.scratch[i*ds.channelCount+c]
		}
		ds.meters[c].Push(buf)
	}
	return nil
}

// windows combines each channel's 100ms power windows into the track's
// windows, applying the channel power scaling (mono doubled, since a mono
// file is reproduced to both speakers; stereo taken as-is).
func (ds *decodeState) windows() []float64 {
	scale := 1.0
	if ds.channelCount == 1 {
		scale = 2.0
	}

	chanWindows := make([][]float64, ds.channelCount)
	numWindows := -1
	for c, m := range ds.meters {
		w := m.Windows100ms()
		chanWindows[c] = w
		if numWindows == -1 || len(w) < numWindows {
			numWindows = len(w)
		}
	}
	if numWindows < 0 {
		numWindows = 0
	}

	result := make([]float64, numWindows)
	for i := 0; i < numWindows; i++ {
		var power float64
		for c := 0; c < ds.channelCount; c++ {
			power += chanWindows[c][i]
		}
		result[i] = power * scale
	}
	return result
}

// Analyzer measures BS.1770 loudness across one or more Opus tracks fed to
// it sequentially. Submit drives the per-track {AwaitingHeader,
// AwaitingComments, Analyzing} state machine; FileComplete folds the
// current track's windows into the running total and resets to
// AwaitingHeader so the same Analyzer can measure the next file.
type Analyzer struct {
	decodeState *decodeState
	state       analyzerState

	windows       []float64
	trackLoudness []float64
}

// NewAnalyzer constructs an Analyzer ready to measure its first track.
func NewAnalyzer() *Analyzer {
	return &Analyzer{state: awaitingHeader}
}

// Submit advances the analyzer's state machine with the next packet of the
// current track.
func (a *Analyzer) Submit(data []byte) error {
	switch a.state {
	case awaitingHeader:
		hdr, err := opus.ParseHeader(data)
		if err != nil {
			return err
		}
		ds, err := newDecodeState(hdr.ChannelCount())
		if err != nil {
			return err
		}
		a.decodeState = ds
		a.state = awaitingComments
	case awaitingComments:
		if _, err := opus.ParseCommentHeader(data); err != nil {
			return err
		}
		a.state = analyzing
	case analyzing:
		if err := a.decodeState.pushPacket(data); err != nil {
			return err
		}
	}
	return nil
}

// FileComplete finishes analysis of the current track: its windows are
// folded into the analyzer's running total and its gated-mean LUFS is
// recorded, then the state machine resets for the next track.
func (a *Analyzer) FileComplete() {
	if a.decodeState != nil {
		w := a.decodeState.windows()
		a.trackLoudness = append(a.trackLoudness, gatedMeanToLUFS(w))
		a.windows = append(a.windows, w...)
		a.decodeState = nil
	}
	a.state = awaitingHeader
}

// MeanLUFS returns the gated mean loudness over every window accumulated
// across every track submitted so far.
func (a *Analyzer) MeanLUFS() float64 {
	return gatedMeanToLUFS(a.windows)
}

// TrackLUFS returns the per-track gated-mean loudness, one entry per
// completed track, in submission order.
func (a *Analyzer) TrackLUFS() []float64 {
	return append([]float64(nil), a.trackLoudness...)
}

// LastTrackLUFS returns the most recently completed track's loudness.
func (a *Analyzer) LastTrackLUFS() (float64, bool) {
	if len(a.trackLoudness) == 0 {
		return 0, false
	}
	return a.trackLoudness[len(a.trackLoudness)-1], true
}

// MeanLUFSAcrossMultiple computes the gated mean over the union of every
// window from every given analyzer — not the mean of their individual
// per-track LUFS values, which album-loudness measurement requires.
func MeanLUFSAcrossMultiple(analyzers []*Analyzer) float64 {
	var all []float64
	for _, a := range analyzers {
		all = append(all, a.windows...)
	}
	return gatedMeanToLUFS(all)
}

// gatedMeanToLUFS applies BS.1770 gating and reports 0.0 LUFS, instead of
// NaN or -Inf, when the input is effectively silent: a NaN gain target
// would otherwise propagate into an unbounded output gain.
func gatedMeanToLUFS(windows []float64) float64 {
	power := gatedMeanPower(windows)
	if math.IsNaN(power) {
		return 0.0
	}
	return powerToLUFS(power)
}
