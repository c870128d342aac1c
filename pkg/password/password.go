// Package password generates initial console passwords for provisioned IAM
// users. Values meet the default AWS account password policy.
package password

import (
	"crypto/rand"
	"math/big"
)

const (
	uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowercase = "abcdefghijklmnopqrstuvwxyz"
	digits    = "0123456789"
	symbols   = "!@#$%^&*"

	// Length is the generated password length.
	Length = 12
)

// Generate returns a random password of Length characters containing at
// least one uppercase letter, one lowercase letter, one digit and one symbol.
// The guaranteed characters are shuffled into random positions so the class
// order leaks nothing.
func Generate() (string, error) {
	chars := make([]byte, 0, Length)

	for _, class := range []string{uppercase, lowercase, digits, symbols} {
		c, err := pick(class)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	all := uppercase + lowercase + digits + symbols
	for len(chars) < Length {
		c, err := pick(all)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	if err := shuffle(chars); err != nil {
		return "", err
	}

	return string(chars), nil
}

func pick(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, err
	}
	return alphabet[n.Int64()], nil
}

// shuffle performs a Fisher-Yates shuffle using crypto/rand.
func shuffle(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}
		j := n.Int64()
		b[i], b[j] = b[j], b[i]
	}
	return nil
}
