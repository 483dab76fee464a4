package oggstream

import "testing"

func TestGenerateChecksumTable(t *testing.T) {
	table := generateChecksumTable()
	if table[0] != 0 {
		t.Errorf("table[0] = %d, want 0", table[0])
	}
	// Every entry for i>0 must be nonzero for this polynomial.
	for i := 1; i < 256; i++ {
		if table[i] == 0 {
			t.Errorf("table[%d] = 0, unexpected for polynomial 0x04c11db7", i)
		}
	}
}

func TestPageChecksum_Deterministic(t *testing.T) {
	page := []byte("OggS\x00\x02" + string(make([]byte, 21)))
	a := pageChecksum(page)
	b := pageChecksum(page)
	if a != b {
		t.Errorf("pageChecksum not deterministic: %d != %d", a, b)
	}

	other := append([]byte{}, page...)
	other[len(other)-1] ^= 0xff
	if pageChecksum(other) == a {
		t.Error("expected checksum to change when page bytes change")
	}
}
