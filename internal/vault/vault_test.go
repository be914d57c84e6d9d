package vault

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"

	"lostfound/internal/lf"
)

// testSnapshotVault runs the behaviour every lf.SnapshotVault must share.
func testSnapshotVault(t *testing.T, newVault func(t *testing.T) lf.SnapshotVault) {
	ctx := context.Background()

	put := func(t *testing.T, v lf.SnapshotVault, name, content string) error {
		t.Helper()
		return v.PutSnapshot(ctx, name, strings.NewReader(content), int64(len(content)))
	}

	t.Run("put then get", func(t *testing.T) {
		v := newVault(t)
		if err := put(t, v, "backup_2025-06-01_10-00-00.json", `{"data":[]}`); err != nil {
			t.Fatalf("PutSnapshot() error = %v", err)
		}

		var buf bytes.Buffer
		if err := v.GetSnapshot(ctx, "backup_2025-06-01_10-00-00.json", &buf); err != nil {
			t.Fatalf("GetSnapshot() error = %v", err)
		}
		if got := buf.String(); got != `{"data":[]}` {
			t.Errorf("GetSnapshot() = %q, want %q", got, `{"data":[]}`)
		}
	})

	t.Run("put refuses to overwrite", func(t *testing.T) {
		v := newVault(t)
		if err := put(t, v, "auto_backup_2025-06-01_10-00.json", "first"); err != nil {
			t.Fatalf("PutSnapshot() error = %v", err)
		}

		err := put(t, v, "auto_backup_2025-06-01_10-00.json", "second")
		if !errors.Is(err, lf.ErrConflict) {
			t.Fatalf("second PutSnapshot() error = %v, want ErrConflict", err)
		}

		var buf bytes.Buffer
		if err := v.GetSnapshot(ctx, "auto_backup_2025-06-01_10-00.json", &buf); err != nil {
			t.Fatalf("GetSnapshot() error = %v", err)
		}
		if buf.String() != "first" {
			t.Errorf("content = %q, want original %q", buf.String(), "first")
		}
	})

	t.Run("missing snapshot is ErrNotFound", func(t *testing.T) {
		v := newVault(t)
		name := "backup_2020-01-01_00-00-00.json"

		var buf bytes.Buffer
		if err := v.GetSnapshot(ctx, name, &buf); !errors.Is(err, lf.ErrNotFound) {
			t.Errorf("GetSnapshot() error = %v, want ErrNotFound", err)
		}
		if _, err := v.StatSnapshot(ctx, name); !errors.Is(err, lf.ErrNotFound) {
			t.Errorf("StatSnapshot() error = %v, want ErrNotFound", err)
		}
		if err := v.DeleteSnapshot(ctx, name); !errors.Is(err, lf.ErrNotFound) {
			t.Errorf("DeleteSnapshot() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("stat reports size", func(t *testing.T) {
		v := newVault(t)
		if err := put(t, v, "backup_2025-06-01_10-00-00.json", "12345"); err != nil {
			t.Fatalf("PutSnapshot() error = %v", err)
		}
		info, err := v.StatSnapshot(ctx, "backup_2025-06-01_10-00-00.json")
		if err != nil {
			t.Fatalf("StatSnapshot() error = %v", err)
		}
		if info.Size != 5 {
			t.Errorf("Size = %d, want 5", info.Size)
		}
		if info.ModifiedAt.IsZero() {
			t.Error("ModifiedAt is zero")
		}
	})

	t.Run("list and delete", func(t *testing.T) {
		v := newVault(t)
		names := []string{
			"backup_2025-06-01_10-00-00.json",
			"auto_backup_2025-06-01_10-10.json",
		}
		for _, n := range names {
			if err := put(t, v, n, "{}"); err != nil {
				t.Fatalf("PutSnapshot(%s) error = %v", n, err)
			}
		}

		got := listNames(t, v)
		want := []string{"auto_backup_2025-06-01_10-10.json", "backup_2025-06-01_10-00-00.json"}
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("ListSnapshots() = %v, want %v", got, want)
		}

		if err := v.DeleteSnapshot(ctx, names[0]); err != nil {
			t.Fatalf("DeleteSnapshot() error = %v", err)
		}
		got = listNames(t, v)
		if len(got) != 1 || got[0] != names[1] {
			t.Errorf("ListSnapshots() after delete = %v, want [%s]", got, names[1])
		}
		if err := v.DeleteSnapshot(ctx, names[0]); !errors.Is(err, lf.ErrNotFound) {
			t.Errorf("second DeleteSnapshot() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("size mismatch leaves nothing behind", func(t *testing.T) {
		v := newVault(t)
		err := v.PutSnapshot(ctx, "backup_2025-06-01_10-00-00.json", strings.NewReader("abc"), 10)
		if err == nil {
			t.Fatal("PutSnapshot() expected error for size mismatch")
		}
		if got := listNames(t, v); len(got) != 0 {
			t.Errorf("ListSnapshots() = %v, want empty", got)
		}
	})

	t.Run("validate setup", func(t *testing.T) {
		v := newVault(t)
		if err := v.ValidateSetup(ctx); err != nil {
			t.Errorf("ValidateSetup() error = %v", err)
		}
	})
}

func listNames(t *testing.T, v lf.SnapshotVault) []string {
	t.Helper()
	infos, err := v.ListSnapshots(context.Background())
	if err != nil {
		t.Fatalf("ListSnapshots() error = %v", err)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	sort.Strings(names)
	return names
}
