package lf_test

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"lostfound/internal/lf"
	"lostfound/internal/model"
	"lostfound/internal/testutil"
)

func TestRestoreSnapshot_RoundTrip(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addItem(t, "D1", model.CategoryDocuments)
	item2 := env.addItem(t, "T1", model.CategoryPhones)

	meta, err := env.svc.CreateSnapshot(ctx, lf.KindManual)
	if err != nil {
		t.Fatalf("CreateSnapshot() error = %v", err)
	}
	if meta.Filename != "backup_2025-06-01_10-00-00.json" {
		t.Fatalf("Filename = %q", meta.Filename)
	}
	before := env.items(t)

	// Modify the store after the snapshot.
	env.clock.Advance(time.Hour)
	if err := env.svc.DeleteItem(ctx, item2.ID); err != nil {
		t.Fatalf("DeleteItem() error = %v", err)
	}
	env.addItem(t, "K1", model.CategoryKeys)
	if _, err := env.svc.ToggleStatus(ctx, before[0].ID); err != nil {
		t.Fatalf("ToggleStatus() error = %v", err)
	}

	result, err := env.svc.RestoreSnapshot(ctx, meta.Filename)
	if err != nil {
		t.Fatalf("RestoreSnapshot() error = %v", err)
	}
	if result.RecordCount != 2 {
		t.Errorf("RecordCount = %d, want 2", result.RecordCount)
	}

	after := env.items(t)
	if len(after) != len(before) {
		t.Fatalf("restored %d items, want %d", len(after), len(before))
	}
	for i := range before {
		b, a := before[i], after[i]
		if a.ID != b.ID || a.LP != b.LP || a.Status != b.Status {
			t.Errorf("item[%d] = {%d %s %s}, want {%d %s %s}", i, a.ID, a.LP, a.Status, b.ID, b.LP, b.Status)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) || !a.ModifiedAt.Equal(b.ModifiedAt) {
			t.Errorf("item[%d] timestamps = %s/%s, want %s/%s", i, a.CreatedAt, a.ModifiedAt, b.CreatedAt, b.ModifiedAt)
		}
		if model.StringValue(a.OwnerName) != model.StringValue(b.OwnerName) || model.StringValue(a.Brand) != model.StringValue(b.Brand) {
			t.Errorf("item[%d] optional fields differ: %+v vs %+v", i, a, b)
		}
	}
	if after[1].ID != item2.ID {
		t.Errorf("restored T1 id = %d, want %d", after[1].ID, item2.ID)
	}
}

func TestRestoreSnapshot_NotFound(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addItem(t, "K1", model.CategoryKeys)

	_, err := env.svc.RestoreSnapshot(ctx, "backup_2024-01-01_00-00-00.json")
	if !errors.Is(err, lf.ErrNotFound) {
		t.Fatalf("RestoreSnapshot() error = %v, want ErrNotFound", err)
	}
	if got := lps(env.items(t)); got != "K1" {
		t.Errorf("store = %s, want K1", got)
	}
}

func TestRestoreSnapshot_InvalidFormat(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "this is not a snapshot"},
		{name: "missing data", content: `{"version":"1.0","created_at":"2025-06-01 10:00:00","total_records":0}`},
		{name: "null data", content: `{"version":"1.0","data":null}`},
		{name: "data not an array", content: `{"version":"1.0","data":{"id":1}}`},
		{name: "null record", content: `{"data":[null]}`},
		{name: "bad timestamp", content: `{"data":[{"id":1,"lp":"K1","data_utworzenia":"yesterday"}]}`},
		{name: "duplicate id", content: `{"data":[{"id":1,"lp":"K1"},{"id":1,"lp":"K2"}]}`},
		{name: "duplicate lp", content: `{"data":[{"id":1,"lp":"K1"},{"id":2,"lp":"K1"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			env := newTestEnv(t)
			env.addItem(t, "E1", model.CategoryElectrics)
			env.putRaw(t, "backup_2025-05-01_00-00-00.json", tt.content)

			_, err := env.svc.RestoreSnapshot(ctx, "backup_2025-05-01_00-00-00.json")
			if !errors.Is(err, lf.ErrInvalidFormat) {
				t.Fatalf("RestoreSnapshot() error = %v, want ErrInvalidFormat", err)
			}
			if got := lps(env.items(t)); got != "E1" {
				t.Errorf("store = %s, want unchanged E1", got)
			}
		})
	}
}

func TestRestoreSnapshot_EmptyPayload(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addItem(t, "E1", model.CategoryElectrics)
	env.putRaw(t, "backup_2025-05-01_00-00-00.json", `{"version":"1.0","total_records":0,"data":[]}`)

	result, err := env.svc.RestoreSnapshot(ctx, "backup_2025-05-01_00-00-00.json")
	if err != nil {
		t.Fatalf("RestoreSnapshot() error = %v", err)
	}
	if result.RecordCount != 0 {
		t.Errorf("RecordCount = %d, want 0", result.RecordCount)
	}
	if n := len(env.items(t)); n != 0 {
		t.Errorf("store has %d items, want 0", n)
	}
}

func TestRestoreSnapshot_InvalidName(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     error
	}{
		{"parent path", "../../items.db", lf.ErrValidation},
		{"backslash", `..\items.db`, lf.ErrValidation},
		{"dotfile", ".hidden.json", lf.ErrValidation},
		{"empty", "", lf.ErrValidation},
		{"unknown prefix", "missing.json", lf.ErrNotFound},
		{"no timestamp", "backup_latest.json", lf.ErrNotFound},
		{"impossible timestamp", "backup_2025-13-40_99-99-99.json", lf.ErrNotFound},
		{"well formed but absent", "backup_2025-01-01_00-00-00.json", lf.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.addItem(t, "D1", model.CategoryDocuments)

			_, err := env.svc.RestoreSnapshot(context.Background(), tt.filename)
			if !errors.Is(err, tt.want) {
				t.Fatalf("RestoreSnapshot(%q) error = %v, want %v", tt.filename, err, tt.want)
			}
			if got := lps(env.items(t)); got != "D1" {
				t.Errorf("store = %s, want D1", got)
			}
		})
	}
}

func TestRestoreSnapshot_WriteFailureKeepsStore(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addItem(t, "D1", model.CategoryDocuments)
	meta, err := env.svc.CreateSnapshot(ctx, lf.KindManual)
	if err != nil {
		t.Fatalf("CreateSnapshot() error = %v", err)
	}
	env.addItem(t, "D2", model.CategoryDocuments)

	env.store.FailReplace = true
	_, err = env.svc.RestoreSnapshot(ctx, meta.Filename)
	if !errors.Is(err, lf.ErrWriteFailure) {
		t.Fatalf("RestoreSnapshot() error = %v, want ErrWriteFailure", err)
	}
	if got := lps(env.items(t)); got != "D1,D2" {
		t.Errorf("store = %s, want D1,D2", got)
	}
}

func TestRestoreSnapshot_PartialFailureIsRolledBack(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addItem(t, "K1", model.CategoryKeys)
	env.addItem(t, "K2", model.CategoryKeys)
	env.addItem(t, "K3", model.CategoryKeys)
	meta, err := env.svc.CreateSnapshot(ctx, lf.KindManual)
	if err != nil {
		t.Fatalf("CreateSnapshot() error = %v", err)
	}

	env.addItem(t, "E1", model.CategoryElectrics)
	before := env.items(t)

	env.store.PartialReplace = true
	env.store.PartialReplaceAfter = 1

	_, err = env.svc.RestoreSnapshot(ctx, meta.Filename)
	if !errors.Is(err, lf.ErrWriteFailure) {
		t.Fatalf("RestoreSnapshot() error = %v, want ErrWriteFailure", err)
	}
	var restoreErr *lf.RestoreError
	if !errors.As(err, &restoreErr) {
		t.Fatalf("RestoreSnapshot() error = %v, want *lf.RestoreError in chain", err)
	}
	if restoreErr.Index != 1 {
		t.Errorf("RestoreError.Index = %d, want 1", restoreErr.Index)
	}
	if !errors.Is(err, testutil.ErrInjected) {
		t.Errorf("RestoreSnapshot() error = %v, want cause ErrInjected", err)
	}

	after := env.items(t)
	if lps(after) != lps(before) {
		t.Fatalf("store = %s, want pre-restore %s", lps(after), lps(before))
	}
	for i := range before {
		if after[i].ID != before[i].ID {
			t.Errorf("item[%d].ID = %d, want %d", i, after[i].ID, before[i].ID)
		}
	}
}

func TestRestoreSnapshot_BlocksItemWrites(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addItem(t, "K1", model.CategoryKeys)
	meta, err := env.svc.CreateSnapshot(ctx, lf.KindManual)
	if err != nil {
		t.Fatalf("CreateSnapshot() error = %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := env.svc.RestoreSnapshot(ctx, meta.Filename)
		done <- err
	}()

	// Whatever the interleaving, an item created concurrently either lands
	// before the restore (and is discarded) or after it (and is kept).
	item := &model.Item{LP: "K2", Category: model.CategoryKeys, Description: "pęk kluczy", ReceivedBy: "Anna"}
	if _, err := env.svc.CreateItem(ctx, item); err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("RestoreSnapshot() error = %v", err)
	}

	got := lps(env.items(t))
	if got != "K1" && got != "K1,K2" {
		t.Errorf("store = %s, want K1 or K1,K2", got)
	}
}
