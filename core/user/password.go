package user

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/pkg/errors"
)

// saltLen is the number of random bytes in a salt; salts are stored hex encoded.
const saltLen = 16

var ErrInvalidSalt = errors.New("salt must be 32 hexadecimal characters")

// GenerateSalt returns 16 random bytes, hex encoded.
func GenerateSalt() (string, error) {
	b := make([]byte, saltLen)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "generating salt")
	}
	return hex.EncodeToString(b), nil
}

// Hash returns the hex encoded sha256 digest of password + salt.
func Hash(password, salt string) (string, error) {
	if !validSalt(salt) {
		return "", ErrInvalidSalt
	}
	sum := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(sum[:]), nil
}

func validSalt(salt string) bool {
	if len(salt) != 2*saltLen {
		return false
	}
	_, err := hex.DecodeString(salt)
	return err == nil
}
