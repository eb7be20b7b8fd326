package utils

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// ==================== UUID & TOKEN ====================

func ParseUUID(uuidStr string) (uuid.UUID, error) {
	return uuid.Parse(uuidStr)
}

func GenerateSessionToken() uuid.UUID {
	return uuid.New()
}

// ==================== OTP ====================

// GenerateOTP returns a uniformly random numeric code of the given length.
// Leading zeros are kept.
func GenerateOTP(length int) (string, error) {
	if length <= 0 {
		length = 6
	}

	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	return b.String(), nil
}

// ==================== USERNAME ====================

const (
	usernameLength  = 12
	usernameCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateUsername builds a 12 character username from the initials of the
// bank name, e.g. "First Coast Bank" -> "FCB-7QK2M9XA".
func GenerateUsername(bankName string) (string, error) {
	var prefix strings.Builder
	for _, word := range strings.Fields(bankName) {
		r := []rune(word)[0]
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			prefix.WriteRune(unicode.ToUpper(r))
		}
	}
	if prefix.Len() == 0 {
		return "", errors.New("bank name has no usable initials")
	}
	if prefix.Len() > usernameLength-2 {
		return "", errors.New("bank name has too many words for a username prefix")
	}

	remaining := usernameLength - prefix.Len() - 1
	suffix := make([]byte, remaining)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(usernameCharset))))
		if err != nil {
			return "", err
		}
		suffix[i] = usernameCharset[n.Int64()]
	}

	return prefix.String() + "-" + string(suffix), nil
}
