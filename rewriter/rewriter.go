// Package rewriter implements the stream-rewriting state machine: it reads
// packets from an oggstream.Source, hands the first two packets of the
// logical stream to a pluggable HeaderRewrite transform, and re-emits
// every packet (rewritten headers included) to an oggstream.Sink in the
// exact order received.
package rewriter

import (
	"bytes"

	"github.com/skystar-p/zoog/oggstream"
	"github.com/skystar-p/zoog/opus"
)

// HeaderRewrite is implemented by a pluggable transform (volume.Rewrite,
// comment.Rewrite). Go's type parameter S stands in for the associated
// "Summary" type a Rust trait would declare.
type HeaderRewrite[S any] interface {
	// Summarize returns a snapshot of whatever state of id/comment this
	// transform cares about.
	Summarize(id *opus.Header, comment *opus.CommentHeader) S

	// Rewrite mutates id and/or comment in place.
	Rewrite(id *opus.Header, comment *opus.CommentHeader) error
}

// ResultKind tags which case a SubmitResult carries.
type ResultKind int

const (
	// Good means the packet was accepted; the caller should keep feeding
	// packets.
	Good ResultKind = iota
	// HeadersUnchanged means both header packets were parsed and the
	// transform produced byte-identical output; Summary holds the
	// pre-rewrite summary.
	HeadersUnchanged
	// HeadersChanged means the rewrite produced different bytes; From and
	// To hold the summaries before and after.
	HeadersChanged
)

// SubmitResult is the tagged result of Submit.
type SubmitResult[S any] struct {
	Kind    ResultKind
	Summary S
	From    S
	To      S
}

type state int

const (
	awaitingHeader state = iota
	awaitingComments
	forwarding
)

// Rewriter is the state machine itself: AwaitingHeader -> AwaitingComments
// -> Forwarding. It is strictly single-threaded and synchronous; Submit
// blocks only on the sink's writes.
type Rewriter[S any] struct {
	sink      oggstream.Sink
	transform HeaderRewrite[S]

	state        state
	headerPacket *oggstream.Packet
	queue        []*oggstream.Packet
}

// New builds a Rewriter that writes to sink and applies transform to the
// first two packets of the stream.
func New[S any](sink oggstream.Sink, transform HeaderRewrite[S]) *Rewriter[S] {
	return &Rewriter[S]{sink: sink, transform: transform}
}

// Submit feeds one packet into the state machine. It implements the
// transitions listed on Rewriter, as spec-level step 4.I describes:
// buffer packet 1, then on packet 2 parse both headers, summarize, rewrite,
// summarize again, re-parse independently from cloned original buffers,
// compare byte-for-byte, enqueue both rewritten packets, and transition to
// Forwarding. Every subsequent packet is simply enqueued. After the state
// transition the queue is drained to the sink.
func (rw *Rewriter[S]) Submit(pkt *oggstream.Packet) (SubmitResult[S], error) {
	switch rw.state {
	case awaitingHeader:
		rw.headerPacket = pkt
		rw.state = awaitingComments
		return SubmitResult[S]{Kind: Good}, nil

	case awaitingComments:
		result, err := rw.submitComments(pkt)
		if err != nil {
			return SubmitResult[S]{}, err
		}
		if err := rw.drain(); err != nil {
			return SubmitResult[S]{}, err
		}
		return result, nil

	default: // forwarding
		rw.queue = append(rw.queue, pkt)
		if err := rw.drain(); err != nil {
			return SubmitResult[S]{}, err
		}
		return SubmitResult[S]{Kind: Good}, nil
	}
}

func (rw *Rewriter[S]) submitComments(commentPkt *oggstream.Packet) (SubmitResult[S], error) {
	headerPkt := rw.headerPacket
	rw.headerPacket = nil

	// Clone the original buffers before any mutation so the "changed"
	// comparison below is against pristine bytes, not the in-place
	// rewritten ones.
	origHeaderData := append([]byte{}, headerPkt.Data...)
	origCommentData := append([]byte{}, commentPkt.Data...)

	id, err := opus.ParseHeader(headerPkt.Data)
	if err != nil {
		return SubmitResult[S]{}, err
	}
	comment, err := opus.ParseCommentHeader(commentPkt.Data)
	if err != nil {
		return SubmitResult[S]{}, err
	}

	summaryBefore := rw.transform.Summarize(id, comment)
	if err := rw.transform.Rewrite(id, comment); err != nil {
		return SubmitResult[S]{}, err
	}
	summaryAfter := rw.transform.Summarize(id, comment)

	origID, err := opus.ParseHeader(origHeaderData)
	if err != nil {
		return SubmitResult[S]{}, err
	}
	origComment, err := opus.ParseCommentHeader(origCommentData)
	if err != nil {
		return SubmitResult[S]{}, err
	}

	idChanged := !bytes.Equal(id.Bytes(), origID.Bytes())
	commentChanged := !comment.Equal(origComment)
	changed := idChanged || commentChanged

	rewrittenHeaderData := id.Bytes()
	rewrittenCommentData := comment.Serialize()

	rw.queue = append(rw.queue,
		&oggstream.Packet{
			Data:          rewrittenHeaderData,
			StreamSerial:  headerPkt.StreamSerial,
			AbsGranulePos: headerPkt.AbsGranulePos,
			LastInPage:    headerPkt.LastInPage,
			LastInStream:  headerPkt.LastInStream,
		},
		&oggstream.Packet{
			Data:          rewrittenCommentData,
			StreamSerial:  commentPkt.StreamSerial,
			AbsGranulePos: commentPkt.AbsGranulePos,
			LastInPage:    commentPkt.LastInPage,
			LastInStream:  commentPkt.LastInStream,
		},
	)
	rw.state = forwarding

	if changed {
		return SubmitResult[S]{Kind: HeadersChanged, From: summaryBefore, To: summaryAfter}, nil
	}
	return SubmitResult[S]{Kind: HeadersUnchanged, Summary: summaryBefore}, nil
}

func (rw *Rewriter[S]) drain() error {
	for _, pkt := range rw.queue {
		end := oggstream.NormalPacket
		switch {
		case pkt.LastInStream:
			end = oggstream.EndStream
		case pkt.LastInPage:
			end = oggstream.EndPage
		}
		if err := rw.sink.WritePacket(pkt.Data, pkt.StreamSerial, end, pkt.AbsGranulePos); err != nil {
			return err
		}
	}
	rw.queue = rw.queue[:0]
	return nil
}
