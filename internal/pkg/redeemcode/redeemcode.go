// Package redeemcode generates the short codes printed on redemption tickets.
package redeemcode

import "math/rand"

const (
	Length   = 6
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Generate returns Length characters drawn uniformly from 0-9A-Z. Codes are
// not secrets and are not checked for uniqueness; the redemption id is the key.
func Generate() string {
	b := make([]byte, Length)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}
