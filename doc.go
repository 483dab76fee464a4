// Package zoog rewrites Ogg Opus files in place to normalize playback
// loudness and to edit the embedded Vorbis-style comment header.
//
// zoog isolates exactly the first two packets of an Opus logical stream
// (the identification header and the comment header), mutates them through
// a pluggable transform, and re-emits the rest of the stream byte-for-byte.
// Two transforms ship with the library:
//
//   - volume: measures BS.1770 loudness from decoded PCM and rewrites the
//     Opus output gain plus R128_TRACK_GAIN/R128_ALBUM_GAIN comment tags.
//   - comment: case-insensitive list/append/replace/delete operations on
//     comment entries, with Vorbis-compliant backslash escaping.
//
// # Quick Start
//
// Rewriting loudness requires a packet source/sink pair (an Ogg container
// library) and a PCM decoder; see package oggstream and package volume.
//
//	rw := rewriter.New[volume.OpusGains](sink, volumeTransform)
//	for {
//		pkt, err := source.Next()
//		if err != nil || pkt == nil {
//			break
//		}
//		result, err := rw.Submit(pkt)
//		...
//	}
//
// # Architecture
//
//	[rewriter.Rewriter[S]]   - state machine: AwaitingHeader -> AwaitingComments -> Forwarding
//	  ├─ [opus.Header]       - mutable view of the identification header
//	  ├─ [opus.CommentHeader]- parsed comment header with framing tail
//	  └─ [rewriter.HeaderRewrite[S]] - volume.Rewrite or comment.Rewrite
//
// [oggstream] supplies the Ogg container codec (packet framing, page CRCs)
// the rewriter consumes as an external collaborator. [fsio] supplies atomic
// file commit, interrupt polling, and bounded concurrent file processing.
//
// # Error Handling
//
// Every failure the core surfaces is a *zoog.Error with a Kind identifying
// which contract was violated (MissingOpusStream, GainOutOfBounds, and so
// on). Nothing is recovered inside the core; callers decide what to do.
package zoog
