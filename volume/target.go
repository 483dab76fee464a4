package volume

import "github.com/skystar-p/zoog"

// TargetKind tags which case a VolumeTarget carries.
type TargetKind int

const (
	// TargetLUFS normalizes the output gain so the measured loudness lands
	// at the given LUFS value.
	TargetLUFS TargetKind = iota
	// TargetZeroGain sets the output gain to 0 dB regardless of measured
	// loudness, restoring the stream to its encoded volume.
	TargetZeroGain
	// TargetNoChange leaves the output gain untouched and skips R128
	// tagging entirely; used for clear-tags mode.
	TargetNoChange
)

// VolumeTarget selects how Rewrite computes the new output gain.
type VolumeTarget struct {
	Kind TargetKind
	LUFS zoog.Decibels // meaningful only when Kind == TargetLUFS
}

// LUFSTarget builds a VolumeTarget that normalizes to the given LUFS level.
func LUFSTarget(lufs zoog.Decibels) VolumeTarget {
	return VolumeTarget{Kind: TargetLUFS, LUFS: lufs}
}

// ZeroGainTarget builds the "original" preset: 0 dB output gain.
func ZeroGainTarget() VolumeTarget {
	return VolumeTarget{Kind: TargetZeroGain}
}

// NoChangeTarget builds the "no-change"/clear preset.
func NoChangeTarget() VolumeTarget {
	return VolumeTarget{Kind: TargetNoChange}
}

// OutputGainMode selects whether the output gain is computed against the
// track's own measured loudness or a shared album loudness.
type OutputGainMode int

const (
	// ModeTrack computes output gain against the track's own loudness.
	ModeTrack OutputGainMode = iota
	// ModeAlbum computes output gain against a shared album loudness,
	// keeping relative volume differences between tracks on the same
	// album.
	ModeAlbum
)

// OpusGains summarizes the gain-relevant state of an Opus header pair: the
// output gain plus whichever R128 tags are present.
type OpusGains struct {
	Output    zoog.FixedPointGain
	TrackR128 *zoog.FixedPointGain
	AlbumR128 *zoog.FixedPointGain
}
