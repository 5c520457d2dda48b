package otp

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// Alphabet is the character set a code is drawn from.
type Alphabet string

const (
	// Numeric produces codes such as 042917.
	Numeric Alphabet = "0123456789"
	// Alphanumeric produces uppercase codes such as 7KQ2ZD.
	Alphanumeric Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Bounds on the length of a code a person is asked to type back.
const (
	MinLength = 4
	MaxLength = 12
)

var (
	// ErrInvalidLength is returned when the requested code length is not positive.
	ErrInvalidLength = errors.New("otp: code length must be positive")

	// ErrInvalidAlphabet is returned when the alphabet has fewer than two symbols.
	ErrInvalidAlphabet = errors.New("otp: alphabet must contain at least two symbols")
)

// ParseAlphabet maps a configuration name to an Alphabet. Unknown names
// fall back to Numeric.
func ParseAlphabet(name string) Alphabet {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "alphanumeric", "alnum":
		return Alphanumeric
	default:
		return Numeric
	}
}

// Generator produces a fixed-length random code.
type Generator interface {
	Generate(length int, alphabet Alphabet) (string, error)
}

// Random is a Generator backed by crypto/rand.
type Random struct{}

// NewRandom returns a crypto/rand backed generator.
func NewRandom() *Random {
	return &Random{}
}

// Generate returns a code of exactly length symbols picked uniformly from alphabet.
func (Random) Generate(length int, alphabet Alphabet) (string, error) {
	if length <= 0 {
		return "", ErrInvalidLength
	}
	if len(alphabet) < 2 {
		return "", ErrInvalidAlphabet
	}

	var sb strings.Builder
	sb.Grow(length)

	limit := big.NewInt(int64(len(alphabet)))
	for range length {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		sb.WriteByte(alphabet[n.Int64()])
	}

	return sb.String(), nil
}

// Normalize trims surrounding whitespace and upper-cases a submitted code so it
// matches the case of the generated alphabets.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
