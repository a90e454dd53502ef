package otpcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Lifetime is how long an issued code stays valid.
const Lifetime = 10 * time.Minute

var upper = big.NewInt(1000000)

// Generate returns a uniformly random 6-digit decimal code. Leading zeros are kept.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, upper)
	if err != nil {
		return "", fmt.Errorf("generating otp code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
