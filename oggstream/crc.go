package oggstream

// crcTable is the CRC-32 lookup table Ogg page checksums use (polynomial
// 0x04c11db7, MSB-first), grounded on the same construction pion/webrtc's
// oggwriter/oggreader packages use.
var crcTable = generateChecksumTable()

func generateChecksumTable() *[256]uint32 {
	var table [256]uint32
	const poly = 0x04c11db7

	for i := range table {
		r := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if (r & 0x80000000) != 0 {
				r = (r << 1) ^ poly
			} else {
				r <<= 1
			}
			table[i] = r & 0xffffffff
		}
	}
	return &table
}

// pageChecksum computes the running CRC-32 over a full serialized page,
// assuming the checksum field itself (bytes 22..26) has already been
// zeroed.
func pageChecksum(page []byte) uint32 {
	var checksum uint32
	for _, b := range page {
		checksum = (checksum << 8) ^ crcTable[byte(checksum>>24)^b]
	}
	return checksum
}
