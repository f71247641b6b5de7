package converter

import "encoding/binary"

// BytesToFloat maps the first 4 bytes of a hash onto [0, 1) with
// 2^32 discrete outcomes. The same construction provably-fair
// casinos expose in their verifier pages, so third parties can
// replay draws byte for byte.
func BytesToFloat(b []byte) float64 {
	var f float64

	divider := 256.0

	for i := 0; i < 4 && i < len(b); i++ {
		f += float64(b[i]) / divider
		divider *= 256
	}

	return f
}

// BytesToUint64 interprets the first 8 bytes of a hash as a
// big-endian unsigned integer. Shorter input is zero-padded on the
// right.
func BytesToUint64(b []byte) uint64 {
	var buf [8]byte

	copy(buf[:], b)

	return binary.BigEndian.Uint64(buf[:])
}
