package volume

import "math"

// windowSamples is the 100ms analysis window at the fixed 48kHz sample
// rate the analyzer always decodes at.
const windowSamples = sampleRate / 10

// referenceOffset is BS.1770's fixed calibration constant relating mean
// square power to LUFS: loudness = referenceOffset + 10*log10(power).
const referenceOffset = -0.691

// absoluteGateLUFS is the BS.1770 absolute silence gate: 100ms blocks
// quieter than this are excluded from the loudness estimate entirely.
const absoluteGateLUFS = -70.0

// relativeGateOffsetDB is added to the absolute-gated mean loudness to form
// the second, relative gate threshold, 10 dB below that mean.
const relativeGateOffsetDB = -10.0

// blockWindows is the number of consecutive 100ms windows that make up one
// 400ms gating block (75% overlap, stepping one window at a time).
const blockWindows = 4

// biquad is a direct-form-I IIR biquad filter section.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64

	x1, x2 float64
	y1, y2 float64
}

func (f *biquad) process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

// newKWeightingStages builds the two cascaded biquads ITU-R BS.1770-4
// specifies for K-weighting at 48kHz: a high-frequency shelving pre-filter
// followed by a high-pass (RLB) filter.
func newKWeightingStages() (stage1, stage2 *biquad) {
	stage1 = &biquad{
		b0: 1.53512485958697,
		b1: -2.69169618940638,
		b2: 1.19839281085285,
		a1: -1.69065929318241,
		a2: 0.73248077421585,
	}
	stage2 = &biquad{
		b0: 1.0,
		b1: -2.0,
		b2: 1.0,
		a1: -1.99004745483398,
		a2: 0.99007225036621,
	}
	return stage1, stage2
}

// ChannelLoudnessMeter accumulates K-weighted mean-square power for one
// audio channel into consecutive 100ms windows. Samples are pushed
// incrementally as packets are decoded; a final partial window shorter than
// 100ms is discarded, matching the precision the packet-by-packet decode
// loop can realistically offer.
type ChannelLoudnessMeter struct {
	stage1, stage2 *biquad

	accumSumSq float64
	accumCount int

	windows []float64
}

// NewChannelLoudnessMeter constructs a meter for one channel.
func NewChannelLoudnessMeter() *ChannelLoudnessMeter {
	s1, s2 := newKWeightingStages()
	return &ChannelLoudnessMeter{stage1: s1, stage2: s2}
}

// Push feeds additional samples for this channel into the meter.
func (m *ChannelLoudnessMeter) Push(samples []float32) {
	for _, s := range samples {
		filtered := m.stage2.process(m.stage1.process(float64(s)))
		m.accumSumSq += filtered * filtered
		m.accumCount++
		if m.accumCount == windowSamples {
			m.windows = append(m.windows, m.accumSumSq/float64(windowSamples))
			m.accumSumSq = 0
			m.accumCount = 0
		}
	}
}

// Windows100ms returns the completed 100ms mean-square power windows
// accumulated so far.
func (m *ChannelLoudnessMeter) Windows100ms() []float64 {
	return m.windows
}

// powerToLUFS converts a BS.1770 mean-square power value to LUFS.
func powerToLUFS(power float64) float64 {
	return referenceOffset + 10*math.Log10(power)
}

// lufsToPower is powerToLUFS's inverse.
func lufsToPower(lufs float64) float64 {
	return math.Pow(10, (lufs-referenceOffset)/10)
}

// gatedMeanPower applies BS.1770's two-stage gating (absolute, then
// relative) over 400ms blocks formed from windows and returns the mean
// power of the surviving blocks. Returns NaN if no block survives gating
// (including the all-silent or too-short-to-analyze case).
func gatedMeanPower(windows []float64) float64 {
	if len(windows) == 0 {
		return math.NaN()
	}

	blocks := blocksFromWindows(windows)
	if len(blocks) == 0 {
		return math.NaN()
	}

	absoluteThreshold := lufsToPower(absoluteGateLUFS)
	var absoluteGated []float64
	for _, p := range blocks {
		if p > absoluteThreshold {
			absoluteGated = append(absoluteGated, p)
		}
	}
	if len(absoluteGated) == 0 {
		return math.NaN()
	}

	relativeThreshold := lufsToPower(powerToLUFS(mean(absoluteGated)) + relativeGateOffsetDB)
	var relativeGated []float64
	for _, p := range absoluteGated {
		if p > relativeThreshold {
			relativeGated = append(relativeGated, p)
		}
	}
	if len(relativeGated) == 0 {
		return math.NaN()
	}

	return mean(relativeGated)
}

// blocksFromWindows forms 400ms gating blocks from 100ms windows with a
// 100ms (75% overlap) step. If fewer than blockWindows windows are
// available, the whole run is treated as a single block so very short
// clips still produce a measurement.
func blocksFromWindows(windows []float64) []float64 {
	if len(windows) < blockWindows {
		return []float64{mean(windows)}
	}
	blocks := make([]float64, 0, len(windows)-blockWindows+1)
	for i := 0; i+blockWindows <= len(windows); i++ {
		blocks = append(blocks, mean(windows[i:i+blockWindows]))
	}
	return blocks
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
