package lf

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies the current time to the service. It stamps item records,
// names snapshots and sets the retention cutoff for automatic snapshots.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator issues the reference that ties an operation's log lines
// together.
type IDGenerator interface {
	New() string
}

// UUIDGenerator issues random v4 UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }
