// Package comment implements the comment-header transform: given an
// action (NoChange / Modify{retain, append} / Replace), it mutates an Opus
// comment header's entry list.
package comment

import (
	"strings"

	"github.com/skystar-p/zoog"
)

// RemovePattern is a parsed CLI `-d` delete pattern: either a bare KEY
// (matches any value with that key) or a KEY=VALUE (matches only that
// exact value). Key comparison is always case-insensitive; value
// comparison, when present, is case-sensitive.
type RemovePattern struct {
	Key        string
	Value      string
	HasValue   bool
}

// ParseRemovePattern parses s per the rule in the comment-transform spec:
// try KEY=VALUE first; if that fails (no '='), validate as a bare KEY;
// otherwise reject.
func ParseRemovePattern(s string) (RemovePattern, error) {
	if idx := strings.IndexByte(s, '='); idx >= 0 {
		key, value := s[:idx], s[idx+1:]
		if key == "" {
			return RemovePattern{}, &zoog.Error{Kind: zoog.InvalidCommentFieldName, Reason: "pattern key is empty"}
		}
		if err := validatePatternKey(key); err != nil {
			return RemovePattern{}, err
		}
		return RemovePattern{Key: key, Value: value, HasValue: true}, nil
	}

	if err := validatePatternKey(s); err != nil {
		return RemovePattern{}, err
	}
	return RemovePattern{Key: s}, nil
}

func validatePatternKey(key string) error {
	if key == "" {
		return &zoog.Error{Kind: zoog.InvalidCommentFieldName, Reason: "pattern key is empty"}
	}
	for i := 0; i < len(key); i++ {
		b := key[i]
		if b == '=' || b < 0x20 || b > 0x7E {
			return &zoog.Error{Kind: zoog.InvalidCommentFieldName, Reason: "pattern key contains an invalid byte"}
		}
	}
	return nil
}

// Matches reports whether (key, value) matches this pattern.
func (p RemovePattern) Matches(key, value string) bool {
	if !strings.EqualFold(p.Key, key) {
		return false
	}
	if !p.HasValue {
		return true
	}
	return p.Value == value
}

// Patterns is a union of RemovePattern values used to build a retain
// predicate: true iff (k, v) does not match any of them.
type Patterns []RemovePattern

// Retain returns the CLI delete semantics' retain predicate: keep (k, v)
// unless some pattern in p matches it.
func (p Patterns) Retain(key, value string) bool {
	for _, pat := range p {
		if pat.Matches(key, value) {
			return false
		}
	}
	return true
}
