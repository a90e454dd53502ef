package id

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// New returns a ULID for the current instant.
func New() string {
	return At(time.Now())
}

// At returns a ULID whose timestamp component is t, so ids sort with the
// records they key (reports, redemptions).
func At(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}
