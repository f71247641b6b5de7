package random

import (
	"crypto/rand"
	"encoding/hex"
)

// NewRandomString returns a hex string of the given length sourced
// from the platform CSPRNG. Used for server seeds, so math/rand is
// not acceptable here.
func NewRandomString(length int) string {
	b := make([]byte, (length+1)/2)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}

	return hex.EncodeToString(b)[:length]
}

// NewRandomBytes returns n bytes from the platform CSPRNG.
func NewRandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}

	return b
}
