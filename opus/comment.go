package opus

import (
	"bytes"
	"fmt"
	"strings"

	zbinary "github.com/skystar-p/zoog/internal/binary"

	"github.com/skystar-p/zoog"
)

// tagsMagic is the 8-byte magic every Opus comment header begins with.
const tagsMagic = "OpusTags"

// CommentHeader is the parsed form of the second Opus header packet: a
// vendor string, an ordered comment list, and a framing tail of bytes that
// follow the declared entries. The framing tail is opaque and is preserved
// verbatim across Parse/Serialize round trips because some encoders append
// trailing bytes of their own after the entries the layout declares.
type CommentHeader struct {
	Vendor      string
	List        *DiscreteCommentList
	FramingTail []byte
}

// ParseCommentHeader parses data as an Opus comment header. It fails with
// MissingCommentHeader if the magic does not match, and
// MalformedCommentHeader if any declared length runs past the buffer, an
// entry lacks '=', or a key is invalid.
func ParseCommentHeader(data []byte) (*CommentHeader, error) {
	if len(data) < len(tagsMagic) || string(data[:len(tagsMagic)]) != tagsMagic {
		return nil, &zoog.Error{Kind: zoog.MissingCommentHeader}
	}

	sr := zbinary.NewSafeReader(bytes.NewReader(data), int64(len(data)), "comment header")
	r := zbinary.NewReader(sr, int64(len(tagsMagic)))

	// internal/binary's Reader advances its offset itself only for
	// ReadString; every length field here is a little-endian uint32, so it
	// is read directly via ReadLE against the SafeReader and the Reader's
	// offset is advanced by hand with Skip.
	readLenLE := func(what string) (uint32, error) {
		v, err := zbinary.ReadLE[uint32](sr, r.Offset(), what)
		if err != nil {
			return 0, err
		}
		r.Skip(4)
		return v, nil
	}

	vendorLen, err := readLenLE("vendor length")
	if err != nil {
		return nil, &zoog.Error{Kind: zoog.MalformedCommentHeader, Reason: err.Error()}
	}
	vendor, err := r.ReadString(int(vendorLen), "vendor string")
	if err != nil {
		return nil, &zoog.Error{Kind: zoog.MalformedCommentHeader, Reason: err.Error()}
	}
	listLen, err := readLenLE("comment count")
	if err != nil {
		return nil, &zoog.Error{Kind: zoog.MalformedCommentHeader, Reason: err.Error()}
	}

	list := WithCapacity(int(listLen))
	for i := uint32(0); i < listLen; i++ {
		entryLen, err := readLenLE("comment entry length")
		if err != nil {
			return nil, &zoog.Error{Kind: zoog.MalformedCommentHeader, Reason: err.Error()}
		}
		entry, err := r.ReadString(int(entryLen), "comment entry")
		if err != nil {
			return nil, &zoog.Error{Kind: zoog.MalformedCommentHeader, Reason: err.Error()}
		}

		idx := strings.IndexByte(entry, zoog.FieldNameTerminator)
		if idx < 0 {
			return nil, &zoog.Error{Kind: zoog.MalformedCommentHeader, Reason: fmt.Sprintf("entry %d has no '='", i)}
		}
		key, value := entry[:idx], entry[idx+1:]
		if err := list.Push(key, value); err != nil {
			return nil, &zoog.Error{Kind: zoog.MalformedCommentHeader, Reason: fmt.Sprintf("entry %d: %v", i, err)}
		}
	}

	tail := data[r.Offset():]
	tailCopy := make([]byte, len(tail))
	copy(tailCopy, tail)

	return &CommentHeader{Vendor: vendor, List: list, FramingTail: tailCopy}, nil
}

// Serialize writes the header back out in the layout Parse expects:
// magic, vendor, entry count, entries, then the framing tail unchanged.
// Serializing a header that was parsed without any mutation reproduces the
// original bytes exactly; this is what lets the rewriter detect
// "unchanged" by byte comparison.
func (c *CommentHeader) Serialize() []byte {
	var buf bytes.Buffer
	sw := zbinary.NewSafeWriter(&buf)

	sw.WriteString(tagsMagic)
	zbinary.WriteLE(sw, uint32(len(c.Vendor)))
	sw.WriteString(c.Vendor)
	zbinary.WriteLE(sw, uint32(c.List.Len()))
	for _, e := range c.List.Iter() {
		entry := e.Key + "=" + e.Value
		zbinary.WriteLE(sw, uint32(len(entry)))
		sw.WriteString(entry)
	}
	sw.WriteBytes(c.FramingTail)

	return buf.Bytes()
}

// Equal compares two comment headers by their serialized bytes, matching
// the byte-level equality contract the identification header uses.
func (c *CommentHeader) Equal(other *CommentHeader) bool {
	return bytes.Equal(c.Serialize(), other.Serialize())
}
