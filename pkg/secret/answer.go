package secret

import "strings"

// NormalizeAnswer trims surrounding whitespace and lowercases the answer so
// "Red", " red " and "RED" hash to equivalent secrets.
func NormalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}

// HashAnswer normalizes then hashes a security-question answer.
func HashAnswer(h Hasher, answer string) (string, error) {
	return h.Hash(NormalizeAnswer(answer))
}

// VerifyAnswer normalizes answer and compares it against the stored hash.
// A malformed stored hash is reported as a mismatch.
func VerifyAnswer(h Hasher, answer, encoded string) bool {
	ok, err := h.Verify(NormalizeAnswer(answer), encoded)
	return err == nil && ok
}
