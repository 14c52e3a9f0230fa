package order

import (
	"math/rand/v2"
	"strconv"
	"strings"
)

const maxCodeLength = 32

// NewCode returns a human-readable order code: three uppercase letters
// followed by a number between 1000 and 9999.
func NewCode() string {
	var b strings.Builder
	b.Grow(7)
	for range 3 {
		b.WriteByte(byte('A' + rand.IntN(26)))
	}
	b.WriteString(strconv.Itoa(1000 + rand.IntN(9000)))
	return b.String()
}

// NormalizeCode trims a client-supplied order code. Supplied codes are
// otherwise accepted as-is.
func NormalizeCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if len(code) > maxCodeLength {
		return "", ErrInvalidCode
	}
	return code, nil
}
