package lf_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"lostfound/internal/lf"
	"lostfound/internal/model"
	"lostfound/internal/testutil"
	"lostfound/internal/vault"
)

type testEnv struct {
	svc    *lf.LFService
	store  *testutil.FaultyStore
	vault  *vault.MemoryVault
	faults *testutil.FaultyVault
	clock  *testutil.StubClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := testutil.FixedClock()
	store := testutil.NewFaultyStore(testutil.NewTestStore(t))
	v := testutil.NewTestVault(clock)
	faults := testutil.NewFaultyVault(v)

	svc := lf.NewLFService(store, faults, lf.NewNopLogger(), clock, testutil.NewStubIDGenerator(), lf.Options{
		DatabaseName: "brz_test",
		Location:     time.UTC,
	})
	return &testEnv{svc: svc, store: store, vault: v, faults: faults, clock: clock}
}

func (e *testEnv) addItem(t *testing.T, lp string, category model.Category) *model.Item {
	t.Helper()
	item := &model.Item{
		LP:          lp,
		Category:    category,
		Description: "opis " + lp,
		ReceivedBy:  "Anna",
	}
	if category.RequiresOwner() {
		item.OwnerName = model.StringPtr("Jan Kowalski")
		item.DocumentType = model.StringPtr("Dowód osobisty")
	}
	if category == model.CategoryPhones {
		item.Brand = model.StringPtr("Samsung")
	}
	created, err := e.svc.CreateItem(context.Background(), item)
	if err != nil {
		t.Fatalf("CreateItem(%s) error = %v", lp, err)
	}
	return created
}

func (e *testEnv) items(t *testing.T) []*model.Item {
	t.Helper()
	items, err := e.store.FetchAllOrderedByID(context.Background())
	if err != nil {
		t.Fatalf("FetchAllOrderedByID() error = %v", err)
	}
	return items
}

func (e *testEnv) putRaw(t *testing.T, name, content string) {
	t.Helper()
	if err := e.vault.PutSnapshot(context.Background(), name, strings.NewReader(content), int64(len(content))); err != nil {
		t.Fatalf("PutSnapshot(%s) error = %v", name, err)
	}
}

func (e *testEnv) readDocument(t *testing.T, name string) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	if err := e.vault.GetSnapshot(context.Background(), name, &buf); err != nil {
		t.Fatalf("GetSnapshot(%s) error = %v", name, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("snapshot %s is not JSON: %v", name, err)
	}
	return doc
}

func lps(items []*model.Item) string {
	var out []string
	for _, item := range items {
		out = append(out, item.LP)
	}
	return strings.Join(out, ",")
}
