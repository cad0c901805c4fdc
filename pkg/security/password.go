package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var tempPasswordCharset = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*()-_")

const (
	minGeneratedLength     = 12
	defaultGeneratedLength = 24
)

// GenerateTempPassword returns a random password for accounts created on a
// shopper's behalf. Lengths below the minimum are raised to it.
func GenerateTempPassword(length int) (string, error) {
	switch {
	case length <= 0:
		length = defaultGeneratedLength
	case length < minGeneratedLength:
		length = minGeneratedLength
	}
	result := make([]rune, length)
	for i := range result {
		idx, err := randInt(len(tempPasswordCharset))
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		result[i] = tempPasswordCharset[idx]
	}
	return string(result), nil
}

func randInt(max int) (int, error) {
	if max <= 0 {
		return 0, fmt.Errorf("invalid max %d", max)
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
