package escaping

import (
	"bytes"
	"testing"

	"github.com/skystar-p/zoog"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain ascii unchanged", "hello world", "hello world"},
		{"nul", "a\x00b", `a\0b`},
		{"lf", "a\nb", `a\nb`},
		{"cr", "a\rb", `a\rb`},
		{"backslash", `a\b`, `a\\b`},
		{"mixed", "a\x00\n\r\\b", `a\0\n\r\\b`},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Escape([]byte(tt.in))
			if string(got) != tt.want {
				t.Errorf("Escape(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEscape_NoAllocationFastPath(t *testing.T) {
	in := []byte("nothing special here")
	got := Escape(in)
	if &got[0] != &in[0] {
		t.Errorf("Escape() on a clean string should return the original slice, not a copy")
	}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain ascii unchanged", "hello world", "hello world"},
		{`\0`, `a\0b`, "a\x00b"},
		{`\n`, `a\nb`, "a\nb"},
		{`\r`, `a\rb`, "a\rb"},
		{`\\`, `a\\b`, `a\b`},
		{"mixed", `a\0\n\r\\b`, "a\x00\n\r\\b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unescape([]byte(tt.in))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Unescape(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestUnescape_Errors(t *testing.T) {
	t.Run("trailing backslash", func(t *testing.T) {
		_, err := Unescape([]byte(`foo\`))
		if err == nil {
			t.Fatal("expected error")
		}
		zerr, ok := err.(*zoog.Error)
		if !ok || zerr.Kind != zoog.EscapeDecode || zerr.Escape != zoog.TrailingBackslash {
			t.Errorf("expected TrailingBackslash EscapeDecode error, got %v", err)
		}
	})

	t.Run("invalid escape", func(t *testing.T) {
		_, err := Unescape([]byte(`foo\q`))
		zerr, ok := err.(*zoog.Error)
		if !ok || zerr.Kind != zoog.EscapeDecode || zerr.Escape != zoog.InvalidEscape || zerr.EscapeByte != 'q' {
			t.Errorf("expected InvalidEscape('q') EscapeDecode error, got %v", err)
		}
	})
}

func TestRoundTrip(t *testing.T) {
	inputs := [][]byte{
		[]byte("plain text"),
		[]byte("a\x00b\nc\rd\\e"),
		{},
		{0x00, 0x0A, 0x0D, '\\'},
		bytes.Repeat([]byte{'\\'}, 10),
	}

	for _, in := range inputs {
		escaped := Escape(in)
		back, err := Unescape(escaped)
		if err != nil {
			t.Fatalf("Unescape(Escape(%q)) failed: %v", in, err)
		}
		if !bytes.Equal(back, in) {
			t.Errorf("round trip failed: Unescape(Escape(%q)) = %q", in, back)
		}
	}
}
