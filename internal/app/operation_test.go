package app

import (
	"errors"
	"testing"
	"time"
)

func TestNewInvocation(t *testing.T) {
	now := time.Date(2025, 7, 31, 21, 15, 9, 0, time.FixedZone("CEST", 2*60*60))

	inv := NewInvocation("backup create", now)

	if inv.ID != "20250731T191509Z" {
		t.Errorf("ID = %q, want UTC stamp %q", inv.ID, "20250731T191509Z")
	}
	if inv.Command != "backup create" {
		t.Errorf("Command = %q", inv.Command)
	}
	if inv.Status != "running" {
		t.Errorf("Status = %q, want running", inv.Status)
	}
	if inv.Duration() != 0 {
		t.Errorf("Duration() = %v before Finish, want 0", inv.Duration())
	}
}

func TestInvocation_Finish(t *testing.T) {
	start := time.Date(2025, 7, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "success", err: nil, want: "success"},
		{name: "failure", err: errors.New("vault offline"), want: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := NewInvocation("serve", start)
			inv.Finish(start.Add(3*time.Second), tt.err)

			if inv.Status != tt.want {
				t.Errorf("Status = %q, want %q", inv.Status, tt.want)
			}
			if inv.Duration() != 3*time.Second {
				t.Errorf("Duration() = %v, want 3s", inv.Duration())
			}
		})
	}
}
