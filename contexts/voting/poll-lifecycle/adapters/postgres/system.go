package postgresadapter

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SystemClock implements ports.Clock with wall-clock UTC time. Poll windows
// are compared in UTC everywhere, so the adapter normalizes here.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator implements ports.IDGenerator. Poll, option, ballot and vote
// ids are all v4 UUID strings.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
