package random

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// Alphabet leaves out characters that are easy to confuse when a short
// link is read aloud or typed: 0/O, 1/l/I.
const Alphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewRandomString returns a uniformly random string of the given length
// drawn from Alphabet.
func NewRandomString(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("length must be positive")
	}

	max := big.NewInt(int64(len(Alphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = Alphabet[n.Int64()]
	}
	return string(b), nil
}
