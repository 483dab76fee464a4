package zoog

import "testing"

func TestDecibels_AddSub(t *testing.T) {
	a := Decibels(-14.0)
	b := Decibels(4.0)

	if got, want := a.Add(b), Decibels(-10.0); got != want {
		t.Errorf("Add() = %v, want %v", got, want)
	}
	if got, want := a.Sub(b), Decibels(-18.0); got != want {
		t.Errorf("Sub() = %v, want %v", got, want)
	}
}

func TestDecibels_String(t *testing.T) {
	tests := []struct {
		d    Decibels
		want string
	}{
		{0, "0 dB"},
		{-18, "-18 dB"},
		{1.5, "1.5 dB"},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
