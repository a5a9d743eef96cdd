package service

import (
	"noxa-api/logger"

	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier hashes passwords and checks presented secrets against stored hashes.
type CredentialVerifier struct {
	cost int
}

// NewCredentialVerifier clamps cost into bcrypt's accepted range; zero means bcrypt.DefaultCost.
func NewCredentialVerifier(cost int) *CredentialVerifier {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &CredentialVerifier{cost: cost}
}

func (v *CredentialVerifier) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), v.cost)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		return "", err
	}
	return string(bytes), nil
}

func (v *CredentialVerifier) CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
