package id

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewAt returns a ULID whose timestamp part is t, so ids created under an
// injected clock still sort by that clock.
func NewAt(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}
