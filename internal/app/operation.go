package app

import "time"

// Invocation tracks one CLI command. Its ID tags every log line the command writes.
type Invocation struct {
	ID         string
	Command    string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string // "running", "success" or "error"
}

// NewInvocation starts tracking command at now.
func NewInvocation(command string, now time.Time) *Invocation {
	return &Invocation{
		ID:        now.UTC().Format("20060102T150405Z"),
		Command:   command,
		StartedAt: now,
		Status:    "running",
	}
}

// Finish marks the invocation done; a non-nil err marks it failed.
func (i *Invocation) Finish(now time.Time, err error) {
	i.FinishedAt = now
	if err != nil {
		i.Status = "error"
		return
	}
	i.Status = "success"
}

// Duration reports how long the invocation ran, or zero while it is running.
func (i *Invocation) Duration() time.Duration {
	if i.FinishedAt.IsZero() {
		return 0
	}
	return i.FinishedAt.Sub(i.StartedAt)
}
