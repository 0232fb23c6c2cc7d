package kvs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "lq.db")
	store, err := Open(path, zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func TestSetGetRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, ok := store.Get(ctx, Vocab, DataKey); ok {
		t.Fatalf("expected missing record on fresh store")
	}
	if !store.Set(ctx, Vocab, DataKey, []byte(`[1,2]`)) {
		t.Fatalf("set failed")
	}
	got, ok := store.Get(ctx, Vocab, DataKey)
	if !ok || string(got) != `[1,2]` {
		t.Fatalf("unexpected value %q ok=%v", got, ok)
	}
	if !store.Set(ctx, Vocab, DataKey, []byte(`[3]`)) {
		t.Fatalf("overwrite failed")
	}
	got, _ = store.Get(ctx, Vocab, DataKey)
	if string(got) != `[3]` {
		t.Fatalf("overwrite not applied: %q", got)
	}
}

func TestNamespacesAreIsolated(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	store.Set(ctx, Vocab, DataKey, []byte(`"v"`))
	store.Set(ctx, Trash, DataKey, []byte(`"t"`))
	if !store.Clear(ctx, Vocab) {
		t.Fatalf("clear failed")
	}
	if _, ok := store.Get(ctx, Vocab, DataKey); ok {
		t.Fatalf("vocab should be cleared")
	}
	got, ok := store.Get(ctx, Trash, DataKey)
	if !ok || string(got) != `"t"` {
		t.Fatalf("trash should be untouched, got %q", got)
	}
}

func TestListAllAndKeysOrdered(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	store.Set(ctx, Mentor, "roleplay", []byte(`"b"`))
	store.Set(ctx, Mentor, "grammar", []byte(`"a"`))
	keys := store.Keys(ctx, Mentor)
	if len(keys) != 2 || keys[0] != "grammar" || keys[1] != "roleplay" {
		t.Fatalf("unexpected keys %v", keys)
	}
	values := store.ListAll(ctx, Mentor)
	if len(values) != 2 || string(values[0]) != `"a"` {
		t.Fatalf("unexpected values %q", values)
	}
	if !store.Delete(ctx, Mentor, "grammar") {
		t.Fatalf("delete failed")
	}
	if got := store.Keys(ctx, Mentor); len(got) != 1 {
		t.Fatalf("expected one key after delete, got %v", got)
	}
	if !store.Delete(ctx, Mentor, "absent") {
		t.Fatalf("deleting a missing key should succeed")
	}
}

func TestUnknownNamespaceDegrades(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if store.Set(ctx, Namespace("bogus"), DataKey, []byte(`1`)) {
		t.Fatalf("set into unknown namespace should fail")
	}
	if _, ok := store.Get(ctx, Namespace("bogus"), DataKey); ok {
		t.Fatalf("get from unknown namespace should fail")
	}
	if got := store.ListAll(ctx, Namespace("bogus")); got != nil {
		t.Fatalf("expected nil list, got %v", got)
	}
}

func TestJSONHelpers(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	type record struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	if !store.SetJSON(ctx, Progress, DataKey, record{Name: "x", Count: 3}) {
		t.Fatalf("set json failed")
	}
	var got record
	if !store.GetJSON(ctx, Progress, DataKey, &got) {
		t.Fatalf("get json failed")
	}
	if got.Name != "x" || got.Count != 3 {
		t.Fatalf("unexpected record %+v", got)
	}

	store.Set(ctx, Settings, DataKey, []byte(`{not json`))
	var broken record
	if store.GetJSON(ctx, Settings, DataKey, &broken) {
		t.Fatalf("corrupt record should report missing")
	}
}

func TestFailuresAfterCloseDegrade(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lq.db")
	store, err := Open(path, zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	ctx := context.Background()
	if store.Set(ctx, Vocab, DataKey, []byte(`1`)) {
		t.Fatalf("set on closed store should report false")
	}
	if _, ok := store.Get(ctx, Vocab, DataKey); ok {
		t.Fatalf("get on closed store should report false")
	}
	if store.Keys(ctx, Vocab) != nil {
		t.Fatalf("keys on closed store should be nil")
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lq.db")
	store, err := Open(path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	store.Set(context.Background(), Meta, "migrated", []byte(`true`))
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("db file missing: %v", err)
	}
	reopened, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() {
		if cerr := reopened.Close(); cerr != nil {
			_ = cerr
		}
	}()
	if _, ok := reopened.Get(context.Background(), Meta, "migrated"); !ok {
		t.Fatalf("record lost across reopen")
	}
}
