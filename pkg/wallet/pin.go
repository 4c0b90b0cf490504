package wallet

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GeneratePIN generates a random 6-digit PIN.
func GeneratePIN() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// ValidatePIN checks that pin is 4 to 8 digits.
func ValidatePIN(pin string) bool {
	if len(pin) < 4 || len(pin) > 8 {
		return false
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
