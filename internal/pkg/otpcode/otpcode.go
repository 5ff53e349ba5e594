// Package otpcode generates and normalizes the 6-digit one-time passcodes
// used to verify guest submissions.
package otpcode

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode"
)

// Length is the number of digits in a code
const Length = 6

// Generate creates a cryptographically secure random numeric code
func Generate() (string, error) {
	var sb strings.Builder
	for i := 0; i < Length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}
	return sb.String(), nil
}

// Normalize strips every non-digit rune from the input. Pasted codes often
// arrive with spaces or dashes; they are cleaned rather than rejected.
func Normalize(input string) string {
	var sb strings.Builder
	for _, r := range input {
		if unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Valid reports whether the normalized input is a complete code
func Valid(input string) bool {
	return len(Normalize(input)) == Length
}
