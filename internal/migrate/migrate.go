// Package migrate copies records from the legacy flat storage into the
// key-value store, once.
package migrate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/verte-zerg/lingoquest/internal/kvs"
)

// FlagKey marks a completed migration in the meta namespace.
const FlagKey = "migrated"

// Legacy flat-storage keys.
const (
	LegacyVocabKey    = "vocab_app_data"
	LegacyProgressKey = "vocab_app_progress"
	LegacySettingsKey = "vocab_app_settings"
	LegacyTrashKey    = "vocab_app_trash"
)

// Mapping pairs a legacy key with its destination namespace.
type Mapping struct {
	Legacy    string
	Namespace kvs.Namespace
}

// Mappings lists the records that are migrated.
var Mappings = []Mapping{
	{Legacy: LegacyVocabKey, Namespace: kvs.Vocab},
	{Legacy: LegacyProgressKey, Namespace: kvs.Progress},
	{Legacy: LegacySettingsKey, Namespace: kvs.Settings},
	{Legacy: LegacyTrashKey, Namespace: kvs.Trash},
}

// Source is read-only access to legacy flat storage.
type Source interface {
	Lookup(key string) (string, bool)
}

// MapSource is an in-memory Source.
type MapSource map[string]string

// Lookup returns the legacy value stored under key.
func (m MapSource) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// FileSource loads a JSON object dump of legacy storage. Values may be
// JSON-encoded strings (as flat storage holds them) or inline JSON. A missing
// file is an empty source.
func FileSource(path string) (MapSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return MapSource{}, nil
		}
		return nil, fmt.Errorf("failed to read legacy storage: %w", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse legacy storage: %w", err)
	}
	out := make(MapSource, len(raw))
	for key, value := range raw {
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			out[key] = s
			continue
		}
		out[key] = string(value)
	}
	return out, nil
}

// Result summarises one Run.
type Result struct {
	Skipped bool
	Copied  []kvs.Namespace
	Kept    []kvs.Namespace
	Invalid []string
	Failed  []kvs.Namespace
}

// Done reports whether the migration flag was set by this run.
func (r Result) Done() bool {
	return !r.Skipped && len(r.Failed) == 0
}

// Run copies legacy records into empty destinations and marks the store as
// migrated. It runs at most once per store and never deletes legacy data.
func Run(ctx context.Context, store *kvs.Store, src Source, log *zap.Logger) Result {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("migrate")
	if _, ok := store.Get(ctx, kvs.Meta, FlagKey); ok {
		return Result{Skipped: true}
	}

	var res Result
	for _, m := range Mappings {
		value, ok := src.Lookup(m.Legacy)
		if !ok || value == "" {
			continue
		}
		if !json.Valid([]byte(value)) {
			log.Warn("legacy record is not valid JSON", zap.String("key", m.Legacy))
			res.Invalid = append(res.Invalid, m.Legacy)
			continue
		}
		if _, exists := store.Get(ctx, m.Namespace, kvs.DataKey); exists {
			res.Kept = append(res.Kept, m.Namespace)
			continue
		}
		if !store.Set(ctx, m.Namespace, kvs.DataKey, []byte(value)) {
			res.Failed = append(res.Failed, m.Namespace)
			continue
		}
		log.Info("migrated legacy record", zap.String("key", m.Legacy), zap.String("store", string(m.Namespace)))
		res.Copied = append(res.Copied, m.Namespace)
	}

	if len(res.Failed) > 0 {
		log.Error("migration incomplete, will retry on next start", zap.Int("failed", len(res.Failed)))
		return res
	}
	if !store.Set(ctx, kvs.Meta, FlagKey, []byte("true")) {
		res.Failed = append(res.Failed, kvs.Meta)
	}
	return res
}
