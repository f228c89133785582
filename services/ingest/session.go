package ingest

import (
	"fmt"
	"wtbmonitor-backend/lib/timezone"

	"github.com/mazen160/go-random"
)

// NewSessionID allocates a session identifier that sorts by creation time.
// The nanosecond timestamp is zero padded so lexicographic order matches
// chronological order, and the random suffix keeps two scrapes started in
// the same instant from colliding.
func NewSessionID() (string, error) {
	suffix, err := random.String(6)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%020d-%s", timezone.Now().UnixNano(), suffix), nil
}
