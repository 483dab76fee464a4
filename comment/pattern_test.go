package comment

import (
	"testing"

	"github.com/skystar-p/zoog"
)

func TestParseRemovePattern(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantKey  string
		wantVal  string
		wantHasV bool
		wantErr  bool
	}{
		{"bare key", "TITLE", "TITLE", "", false, false},
		{"key equals value", "TITLE=Old", "TITLE", "Old", true, false},
		{"value contains equals", "TITLE=a=b", "TITLE", "a=b", true, false},
		{"empty key before equals", "=value", "", "", false, true},
		{"empty pattern", "", "", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRemovePattern(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Key != tt.wantKey || got.Value != tt.wantVal || got.HasValue != tt.wantHasV {
				t.Errorf("ParseRemovePattern(%q) = %+v, want key=%q value=%q hasValue=%v",
					tt.in, got, tt.wantKey, tt.wantVal, tt.wantHasV)
			}
		})
	}
}

func TestRemovePattern_Matches(t *testing.T) {
	t.Run("bare key matches any value, case-insensitive key", func(t *testing.T) {
		p, err := ParseRemovePattern("TITLE")
		if err != nil {
			t.Fatal(err)
		}
		if !p.Matches("title", "anything") {
			t.Error("expected bare-key pattern to match regardless of value and key case")
		}
		if p.Matches("ARTIST", "x") {
			t.Error("expected no match for a different key")
		}
	})

	t.Run("key=value matches only the exact value, case-sensitive value", func(t *testing.T) {
		p, err := ParseRemovePattern("TITLE=Old")
		if err != nil {
			t.Fatal(err)
		}
		if !p.Matches("Title", "Old") {
			t.Error("expected match on exact value with case-insensitive key")
		}
		if p.Matches("Title", "old") {
			t.Error("expected value comparison to be case-sensitive")
		}
	})
}

func TestPatterns_Retain(t *testing.T) {
	titlePattern, err := ParseRemovePattern("TITLE")
	if err != nil {
		t.Fatal(err)
	}
	patterns := Patterns{titlePattern}

	if patterns.Retain("TITLE", "a") {
		t.Error("expected TITLE entries to be dropped")
	}
	if !patterns.Retain("ARTIST", "b") {
		t.Error("expected ARTIST entries to be kept")
	}
}

func TestParseRemovePattern_InvalidCommentFieldNameKind(t *testing.T) {
	_, err := ParseRemovePattern("")
	zerr, ok := err.(*zoog.Error)
	if !ok || zerr.Kind != zoog.InvalidCommentFieldName {
		t.Errorf("expected InvalidCommentFieldName error, got %v", err)
	}
}
