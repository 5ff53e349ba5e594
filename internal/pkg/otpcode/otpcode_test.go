package otpcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate_SixDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := Generate()
		assert.NoError(t, err)
		assert.Len(t, code, Length)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "code %q contains non-digit", code)
		}
	}
}

func TestNormalize_StripsNonDigits(t *testing.T) {
	cases := map[string]string{
		"123456":    "123456",
		"123 456":   "123456",
		"12-34-56":  "123456",
		"a1b2c3":    "123",
		"":          "",
		"  654321 ": "654321",
	}
	for input, want := range cases {
		assert.Equal(t, want, Normalize(input), "input %q", input)
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("123456"))
	assert.True(t, Valid("12 34 56"), "non-digits are stripped, not rejected")
	assert.False(t, Valid("12345"))
	assert.False(t, Valid("1234567"))
	assert.False(t, Valid("abcdef"))
}
