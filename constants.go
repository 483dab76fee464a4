package zoog

// R128LUFS is the EBU R128 reference loudness, in LUFS.
const R128LUFS = -23.0

// ReplayGainLUFS is the ReplayGain-convention reference loudness, in LUFS.
const ReplayGainLUFS = -18.0

// FieldNameTerminator separates a comment entry's key from its value.
const FieldNameTerminator = '='

// TagTrackGain is the comment key carrying the per-track R128 gain.
const TagTrackGain = "R128_TRACK_GAIN"

// TagAlbumGain is the comment key carrying the per-album R128 gain.
const TagAlbumGain = "R128_ALBUM_GAIN"
