package hash

// Hash produces a one-way digest of a secret and verifies plaintext against it.
type Hash interface {
	Hash(str string) ([]byte, error)
	Verify(hashed, str string) bool
}
