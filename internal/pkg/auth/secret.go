package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the cost used when hashing shared secrets
const BcryptCost = 12

// HashSecret hashes a shared secret (scheduler token) for storage in config
func HashSecret(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckSecret compares a presented secret with its bcrypt hash
func CheckSecret(hashedSecret, secret string) bool {
	if hashedSecret == "" || secret == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(hashedSecret), []byte(secret))
	return err == nil
}
