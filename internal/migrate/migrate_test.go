package migrate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/verte-zerg/lingoquest/internal/kvs"
)

func openStore(t *testing.T) *kvs.Store {
	t.Helper()
	store, err := kvs.Open(filepath.Join(t.TempDir(), "lq.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if cerr := store.Close(); cerr != nil {
			_ = cerr
		}
	})
	return store
}

func TestRunCopiesPresentRecords(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	src := MapSource{
		LegacyVocabKey:    `[{"id":"1","word":"apple","meaning":"apel"}]`,
		LegacySettingsKey: `{"theme":"dark"}`,
	}

	res := Run(ctx, store, src, nil)
	if res.Skipped || !res.Done() {
		t.Fatalf("expected completed run, got %+v", res)
	}
	if len(res.Copied) != 2 {
		t.Fatalf("expected two copies, got %v", res.Copied)
	}
	got, ok := store.Get(ctx, kvs.Vocab, kvs.DataKey)
	if !ok || string(got) != src[LegacyVocabKey] {
		t.Fatalf("vocab not copied verbatim: %q", got)
	}
	if _, ok := store.Get(ctx, kvs.Progress, kvs.DataKey); ok {
		t.Fatalf("absent legacy record must not create a destination")
	}
	if _, ok := src.Lookup(LegacyVocabKey); !ok {
		t.Fatalf("legacy data must stay in place")
	}
}

func TestRunDoesNotOverwritePopulatedStore(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	store.Set(ctx, kvs.Settings, kvs.DataKey, []byte(`{"theme":"light"}`))

	res := Run(ctx, store, MapSource{LegacySettingsKey: `{"theme":"dark"}`}, nil)
	if len(res.Kept) != 1 || res.Kept[0] != kvs.Settings {
		t.Fatalf("expected settings kept, got %+v", res)
	}
	got, _ := store.Get(ctx, kvs.Settings, kvs.DataKey)
	if string(got) != `{"theme":"light"}` {
		t.Fatalf("populated store overwritten: %q", got)
	}
}

func TestRunIsGuardedByFlag(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	src := MapSource{LegacyTrashKey: `[]`}

	if res := Run(ctx, store, src, nil); !res.Done() {
		t.Fatalf("first run should complete: %+v", res)
	}
	store.Clear(ctx, kvs.Trash)
	res := Run(ctx, store, src, nil)
	if !res.Skipped {
		t.Fatalf("second run should be skipped, got %+v", res)
	}
	if _, ok := store.Get(ctx, kvs.Trash, kvs.DataKey); ok {
		t.Fatalf("skipped run must not copy again")
	}
}

func TestRunSkipsInvalidJSON(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	res := Run(ctx, store, MapSource{LegacyProgressKey: `{broken`}, nil)
	if len(res.Invalid) != 1 {
		t.Fatalf("expected invalid record reported, got %+v", res)
	}
	if _, ok := store.Get(ctx, kvs.Progress, kvs.DataKey); ok {
		t.Fatalf("invalid record must not be copied")
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	missing, err := FileSource(filepath.Join(dir, "absent.json"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("expected empty source")
	}

	path := filepath.Join(dir, "legacy.json")
	body := `{"vocab_app_data":"[{\"id\":\"1\"}]","vocab_app_settings":{"theme":"dark"}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write legacy: %v", err)
	}
	src, err := FileSource(path)
	if err != nil {
		t.Fatalf("load legacy: %v", err)
	}
	if v, _ := src.Lookup(LegacyVocabKey); v != `[{"id":"1"}]` {
		t.Fatalf("unexpected vocab value %q", v)
	}
	if v, _ := src.Lookup(LegacySettingsKey); v != `{"theme":"dark"}` {
		t.Fatalf("unexpected settings value %q", v)
	}
}
