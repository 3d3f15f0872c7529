package db

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"

	"taskmanager/internal/constants"
)

const (
	UserIDPrefix    = "usr"
	TaskIDPrefix    = "tsk"
	SessionIDPrefix = "ses"
)

var idPattern = regexp.MustCompile(`^[a-z]{3}_[0-9a-f]+$`)

func GenerateID(prefix string) (string, error) {
	b := make([]byte, constants.IDRandomBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return prefix + "_" + hex.EncodeToString(b), nil
}

// IsValidID reports whether id has the shape produced by GenerateID for prefix.
func IsValidID(prefix, id string) bool {
	if len(id) != len(prefix)+1+2*constants.IDRandomBytes {
		return false
	}
	return idPattern.MatchString(id) && id[:len(prefix)] == prefix
}
