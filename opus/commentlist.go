package opus

import (
	"github.com/skystar-p/zoog"
)

// CommentEntry is a single parsed "KEY=VALUE" comment.
type CommentEntry struct {
	Key   string
	Value string
}

// validateKey enforces the key constraint from the comment header layout:
// every byte in 0x20..0x7E except '=', and non-empty.
func validateKey(key string) error {
	if key == "" {
		return &zoog.Error{Kind: zoog.InvalidCommentFieldName, Reason: "key is empty"}
	}
	for i := 0; i < len(key); i++ {
		b := key[i]
		if b == zoog.FieldNameTerminator || b < 0x20 || b > 0x7E {
			return &zoog.Error{Kind: zoog.InvalidCommentFieldName, Reason: "key contains an invalid byte"}
		}
	}
	return nil
}

// keysEqual compares keys ignoring ASCII case only, matching the Vorbis
// comment convention (Rust's eq_ignore_ascii_case): non-ASCII bytes, which
// validateKey already restricts to 0x20..0x7E, compare literally rather than
// through full Unicode case folding.
func keysEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if asciiLower(a[i]) != asciiLower(b[i]) {
			return false
		}
	}
	return true
}

func asciiLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// DiscreteCommentList is an ordered, case-insensitively-keyed list of
// comment entries, matching the Vorbis comment convention that key
// comparisons ignore ASCII case but preserve the case entries were written
// with.
type DiscreteCommentList struct {
	entries []CommentEntry
}

// NewDiscreteCommentList returns an empty list.
func NewDiscreteCommentList() *DiscreteCommentList {
	return &DiscreteCommentList{}
}

// WithCapacity returns an empty list pre-sized for n entries.
func WithCapacity(n int) *DiscreteCommentList {
	return &DiscreteCommentList{entries: make([]CommentEntry, 0, n)}
}

// Len reports the number of entries.
func (l *DiscreteCommentList) Len() int {
	return len(l.entries)
}

// IsEmpty reports whether the list has no entries.
func (l *DiscreteCommentList) IsEmpty() bool {
	return len(l.entries) == 0
}

// Clear removes every entry.
func (l *DiscreteCommentList) Clear() {
	l.entries = l.entries[:0]
}

// Push validates key and appends (key, value) at the end of the list.
func (l *DiscreteCommentList) Push(key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	l.entries = append(l.entries, CommentEntry{Key: key, Value: value})
	return nil
}

// Extend pushes every entry from entries in order, validating each key. If
// a push fails partway through, the entries pushed before the failure
// remain in the list.
func (l *DiscreteCommentList) Extend(entries []CommentEntry) error {
	for _, e := range entries {
		if err := l.Push(e.Key, e.Value); err != nil {
			return err
		}
	}
	return nil
}

// GetFirst returns the value of the first-inserted entry whose key matches
// key case-insensitively.
func (l *DiscreteCommentList) GetFirst(key string) (string, bool) {
	for _, e := range l.entries {
		if keysEqual(e.Key, key) {
			return e.Value, true
		}
	}
	return "", false
}

// RemoveAll removes every entry whose key matches key case-insensitively.
func (l *DiscreteCommentList) RemoveAll(key string) {
	l.Retain(func(k, _ string) bool {
		return !keysEqual(k, key)
	})
}

// Replace replaces the first entry whose key matches key case-insensitively
// with (key, value) and drops any later duplicates of that key. If no entry
// matches, (key, value) is appended. After Replace, at most one entry has a
// key equal to key ignoring case, and the relative order of the other
// entries is preserved.
func (l *DiscreteCommentList) Replace(key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	replaced := false
	out := l.entries[:0:0]
	for _, e := range l.entries {
		if keysEqual(e.Key, key) {
			if replaced {
				continue
			}
			out = append(out, CommentEntry{Key: key, Value: value})
			replaced = true
			continue
		}
		out = append(out, e)
	}
	if !replaced {
		out = append(out, CommentEntry{Key: key, Value: value})
	}
	l.entries = out
	return nil
}

// Retain keeps only entries for which predicate(key, value) returns true,
// preserving relative order.
func (l *DiscreteCommentList) Retain(predicate func(key, value string) bool) {
	out := l.entries[:0:0]
	for _, e := range l.entries {
		if predicate(e.Key, e.Value) {
			out = append(out, e)
		}
	}
	l.entries = out
}

// Iter returns the entries in insertion order. The returned slice must not
// be mutated by the caller.
func (l *DiscreteCommentList) Iter() []CommentEntry {
	return l.entries
}

// Clone returns a deep copy of the list.
func (l *DiscreteCommentList) Clone() *DiscreteCommentList {
	out := make([]CommentEntry, len(l.entries))
	copy(out, l.entries)
	return &DiscreteCommentList{entries: out}
}
