package hash

// Hash produces and checks digests of short secrets.
type Hash interface {
	// Hash returns the digest of str.
	Hash(str string) ([]byte, error)
	// Verify reports whether str matches the hashed digest.
	Verify(hashed, str string) bool
}
