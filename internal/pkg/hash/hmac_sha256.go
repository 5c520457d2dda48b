package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 keys SHA-256 with a server secret, so a leaked session store does
// not let anyone brute force the short code space offline.
type HMACSHA256 struct {
	secret []byte
}

func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{secret: []byte(secret)}
}

// Hash returns the hex encoded MAC of str.
func (s *HMACSHA256) Hash(str string) ([]byte, error) {
	sum := s.mac(str)
	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum)
	return out, nil
}

// Verify compares in constant time. A digest that is not valid hex never matches.
func (s *HMACSHA256) Verify(hashed, str string) bool {
	want, err := hex.DecodeString(hashed)
	if err != nil || len(want) != sha256.Size {
		return false
	}
	return hmac.Equal(want, s.mac(str))
}

func (s *HMACSHA256) mac(str string) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(str))
	return h.Sum(nil)
}
