package provision

import (
	"crypto/rand"
	"math/big"
)

const (
	passwordLength = 12

	lowerChars   = "abcdefghijkmnopqrstuvwxyz"
	upperChars   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	digitChars   = "23456789"
	specialChars = "!#$%&*+-?@"
)

// NewOneTimePassword generates a random initial password containing at least
// one character from each complexity class. Visually ambiguous characters
// (l, I, O, 0, 1) are excluded.
func NewOneTimePassword() (string, error) {
	classes := []string{lowerChars, upperChars, digitChars, specialChars}
	all := lowerChars + upperChars + digitChars + specialChars

	buf := make([]byte, passwordLength)
	for i := range buf {
		var set string
		if i < len(classes) {
			set = classes[i]
		} else {
			set = all
		}
		c, err := randomChar(set)
		if err != nil {
			return "", err
		}
		buf[i] = c
	}

	if err := shuffle(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func randomChar(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}
	return set[n.Int64()], nil
}

func shuffle(buf []byte) error {
	for i := len(buf) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}
		j := n.Int64()
		buf[i], buf[j] = buf[j], buf[i]
	}
	return nil
}
