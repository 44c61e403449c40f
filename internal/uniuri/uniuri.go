package uniuri

import (
	"crypto/rand"
)

const (
	// StdLen is the length of oauth state values, ~95 bits of entropy.
	StdLen = 16
	// TokenLen is the length of session and verification tokens, ~190 bits of entropy.
	TokenLen = 32

	byteRange = 256
)

// StdChars is the alphabet of generated strings.
var StdChars = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789") //nolint:gochecknoglobals

// New returns a random string of StdLen.
func New() string {
	return NewLen(StdLen)
}

// Token returns a random string of TokenLen.
func Token() string {
	return NewLen(TokenLen)
}

// NewLen returns a random string of the given length over StdChars.
func NewLen(length int) string {
	return string(newLenChars(length, StdChars))
}

// newLenChars draws bytes from crypto/rand and rejects values above the
// largest multiple of len(chars) so every character is equally likely.
func newLenChars(length int, chars []byte) []byte {
	if length <= 0 {
		return nil
	}

	clen := len(chars)
	if clen < 2 || clen > byteRange {
		panic("uniuri: wrong charset length")
	}

	limit := byteRange - (byteRange % clen)
	out := make([]byte, 0, length)
	buf := make([]byte, length+length/4+1) //nolint:mnd

	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			panic("uniuri: error reading random bytes: " + err.Error())
		}

		for _, rb := range buf {
			if int(rb) >= limit {
				continue
			}

			out = append(out, chars[int(rb)%clen])
			if len(out) == length {
				break
			}
		}
	}

	return out
}
