package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var otpUpperBound = big.NewInt(1_000_000)

// GenerateOTP returns a uniformly distributed 6-digit numeric code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpUpperBound)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
