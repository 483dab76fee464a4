package volume

import (
	"strings"

	"github.com/skystar-p/zoog"
	"github.com/skystar-p/zoog/opus"
)

// Rewrite implements rewriter.HeaderRewrite[OpusGains] by structural typing
// (Summarize/Rewrite match the interface without this package importing
// package rewriter), normalizing an Opus stream's output gain per the
// configured Target/Mode and re-tagging R128_TRACK_GAIN/R128_ALBUM_GAIN to
// match.
type Rewrite struct {
	Target VolumeTarget
	Mode   OutputGainMode

	// TrackVolume is this track's own measured loudness; required whenever
	// Target is TargetLUFS, and used to compute R128_TRACK_GAIN whenever
	// present regardless of mode.
	TrackVolume *zoog.Decibels
	// AlbumVolume is the shared album loudness; required when Mode is
	// ModeAlbum and Target is TargetLUFS, and used to compute
	// R128_ALBUM_GAIN.
	AlbumVolume *zoog.Decibels
}

// Summarize reports the output gain and whichever R128 tags are currently
// present in comment, without requiring them to have come from this
// Rewrite's own prior pass.
func (r *Rewrite) Summarize(id *opus.Header, comment *opus.CommentHeader) OpusGains {
	g := OpusGains{Output: id.OutputGain()}
	if v, ok := comment.List.GetFirst(zoog.TagTrackGain); ok {
		if parsed, err := parseR128(v); err == nil {
			g.TrackR128 = &parsed
		}
	}
	if v, ok := comment.List.GetFirst(zoog.TagAlbumGain); ok {
		if parsed, err := parseR128(v); err == nil {
			g.AlbumR128 = &parsed
		}
	}
	return g
}

// Rewrite applies the six-step output-gain and R128-tagging algorithm: drop
// any existing R128 tags, compute the new output gain from Target/Mode,
// set it (failing GainOutOfBounds on overflow), then push freshly computed
// R128 tags relative to the EBU R128 -23 LUFS reference.
func (r *Rewrite) Rewrite(id *opus.Header, comment *opus.CommentHeader) error {
	comment.List.Retain(func(k, v string) bool {
		return !strings.EqualFold(k, zoog.TagTrackGain) && !strings.EqualFold(k, zoog.TagAlbumGain)
	})

	if r.Target.Kind == TargetNoChange {
		return nil
	}

	currentGain := id.OutputGain()
	var newGainDB zoog.Decibels
	switch r.Target.Kind {
	case TargetZeroGain:
		newGainDB = 0
	case TargetLUFS:
		switch r.Mode {
		case ModeTrack:
			newGainDB = r.Target.LUFS.Sub(*r.TrackVolume)
		case ModeAlbum:
			newGainDB = r.Target.LUFS.Sub(*r.AlbumVolume)
		}
	}

	newGain, err := zoog.FixedPointGainFromDecibels(newGainDB)
	if err != nil {
		return err
	}
	id.SetOutputGain(newGain)

	applied := newGain.ToDecibels().Sub(currentGain.ToDecibels())

	if r.TrackVolume != nil {
		trackGainDB := zoog.Decibels(zoog.R128LUFS).Sub(r.TrackVolume.Add(applied))
		trackGain, err := zoog.FixedPointGainFromDecibels(trackGainDB)
		if err != nil {
			return err
		}
		if err := comment.List.Push(zoog.TagTrackGain, formatR128(trackGain)); err != nil {
			return err
		}
	}

	if r.Mode == ModeAlbum && r.AlbumVolume != nil {
		albumGainDB := zoog.Decibels(zoog.R128LUFS).Sub(r.AlbumVolume.Add(applied))
		albumGain, err := zoog.FixedPointGainFromDecibels(albumGainDB)
		if err != nil {
			return err
		}
		if err := comment.List.Push(zoog.TagAlbumGain, formatR128(albumGain)); err != nil {
			return err
		}
	}

	return nil
}
