// Package token generates the secrets exchanged with cluster agents. Install tokens authorize a
// single install callback, agent tokens authenticate every snapshot an agent submits.
package token

import (
	"crypto/rand"
	"fmt"
	"io"
)

const (
	// Length is the number of characters of a generated token.
	Length = 64
	// Alphabet are the characters a token is made of. 64 characters of a 36 character alphabet
	// amount to about 330 bits of entropy.
	Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Generate returns a new token read from crypto/rand.
func Generate() (string, error) {
	return generate(rand.Reader)
}

// generate draws bytes from r and discards the ones that would bias the modulo, so every character
// of Alphabet is equally likely.
func generate(r io.Reader) (string, error) {
	const maxUnbiased = 256 - (256 % len(Alphabet))

	token := make([]byte, 0, Length)
	buf := make([]byte, Length)
	for len(token) < Length {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %v", err)
		}

		for _, b := range buf {
			if int(b) >= maxUnbiased {
				continue
			}
			token = append(token, Alphabet[int(b)%len(Alphabet)])
			if len(token) == Length {
				break
			}
		}
	}

	return string(token), nil
}
