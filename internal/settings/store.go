// Package settings persists user preferences merged over defaults.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/verte-zerg/lingoquest/internal/kvs"
	"github.com/verte-zerg/lingoquest/internal/model"
)

// ErrUnknownSetting is returned by Set and Lookup for unsupported keys.
var ErrUnknownSetting = errors.New("unknown setting")

// Setting keys accepted by Set.
const (
	KeyReminderTime  = "reminderTime"
	KeyNotifications = "notifications"
	KeyTheme         = "theme"
	KeyVoiceType     = "voiceType"
	KeyDailyGoal     = "dailyGoal"
	KeyFontSize      = "fontSize"
	KeyAutoPlayAudio = "autoPlayAudio"
	KeyAPIKey        = "apiKey"
)

type field struct {
	get func(model.Settings) string
	set func(*model.Settings, string) error
}

var fields = map[string]field{
	KeyReminderTime: {
		get: func(s model.Settings) string { return s.ReminderTime },
		set: func(s *model.Settings, v string) error { s.ReminderTime = v; return nil },
	},
	KeyNotifications: {
		get: func(s model.Settings) string { return strconv.FormatBool(s.Notifications) },
		set: func(s *model.Settings, v string) error {
			b, err := parseBool(v)
			s.Notifications = b
			return err
		},
	},
	KeyTheme: {
		get: func(s model.Settings) string { return s.Theme },
		set: func(s *model.Settings, v string) error { s.Theme = strings.ToLower(v); return nil },
	},
	KeyVoiceType: {
		get: func(s model.Settings) string { return s.VoiceType },
		set: func(s *model.Settings, v string) error { s.VoiceType = strings.ToLower(v); return nil },
	},
	KeyDailyGoal: {
		get: func(s model.Settings) string { return strconv.Itoa(s.DailyGoal) },
		set: func(s *model.Settings, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("dailyGoal must be a number: %w", err)
			}
			s.DailyGoal = n
			return nil
		},
	},
	KeyFontSize: {
		get: func(s model.Settings) string { return s.FontSize },
		set: func(s *model.Settings, v string) error { s.FontSize = strings.ToUpper(v); return nil },
	},
	KeyAutoPlayAudio: {
		get: func(s model.Settings) string { return strconv.FormatBool(s.AutoPlayAudio) },
		set: func(s *model.Settings, v string) error {
			b, err := parseBool(v)
			s.AutoPlayAudio = b
			return err
		},
	},
	KeyAPIKey: {
		get: func(s model.Settings) string { return s.APIKey },
		set: func(s *model.Settings, v string) error { s.APIKey = v; return nil },
	},
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("expected true/false, got %q", v)
	}
	return b, nil
}

// Keys lists every setting key in sorted order.
func Keys() []string {
	out := make([]string, 0, len(fields))
	for k := range fields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the string form of key in s.
func Lookup(s model.Settings, key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}
	return f.get(s), nil
}

// Store holds settings in memory and persists every change.
type Store struct {
	kv       *kvs.Store
	log      *zap.Logger
	validate *validator.Validate

	mu    sync.Mutex
	state model.Settings
}

// New returns a store holding defaults.
func New(kv *kvs.Store, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		kv:       kv,
		log:      log.Named("settings"),
		validate: validator.New(),
		state:    model.DefaultSettings(),
	}
}

// Load reads saved settings over defaults. Saved fields that fail
// validation fall back to their defaults; the rest are kept.
func (s *Store) Load(ctx context.Context) model.Settings {
	state := model.DefaultSettings()
	if raw, ok := s.kv.Get(ctx, kvs.Settings, kvs.DataKey); ok {
		var typeErr *json.UnmarshalTypeError
		if err := json.Unmarshal(raw, &state); err != nil && !errors.As(err, &typeErr) {
			s.log.Error("settings record is corrupt, using defaults", zap.Error(err))
			state = model.DefaultSettings()
		} else if err != nil {
			// the decoder skips mistyped values, leaving their defaults
			s.log.Warn("saved setting has wrong type, using default",
				zap.String("field", typeErr.Field), zap.Error(err))
		}
		state = s.sanitize(state)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	return state
}

// sanitize resets every field failing validation to its default.
func (s *Store) sanitize(state model.Settings) model.Settings {
	err := s.validate.Struct(state)
	if err == nil {
		return state
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		s.log.Warn("saved settings invalid, using defaults", zap.Error(err))
		return model.DefaultSettings()
	}
	for _, fe := range verrs {
		s.log.Warn("saved setting invalid, using default",
			zap.String("field", fe.Field()), zap.String("tag", fe.Tag()))
		resetStructField(&state, fe.StructField())
	}
	return state
}

func resetStructField(state *model.Settings, name string) {
	dst := reflect.ValueOf(state).Elem().FieldByName(name)
	if !dst.IsValid() || !dst.CanSet() {
		return
	}
	dst.Set(reflect.ValueOf(model.DefaultSettings()).FieldByName(name))
}

// Get returns the current settings.
func (s *Store) Get() model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Update applies fn to a copy of the settings, validates and persists it.
func (s *Store) Update(ctx context.Context, fn func(*model.Settings)) (model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state
	fn(&next)
	if err := s.validate.Struct(next); err != nil {
		return s.state, fmt.Errorf("invalid settings: %w", err)
	}
	s.state = next
	s.persistLocked(ctx)
	return next, nil
}

// Set parses value for key and stores it.
func (s *Store) Set(ctx context.Context, key, value string) (model.Settings, error) {
	f, ok := fields[key]
	if !ok {
		return s.Get(), fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}
	var perr error
	next, err := s.Update(ctx, func(st *model.Settings) {
		perr = f.set(st, strings.TrimSpace(value))
	})
	if perr != nil {
		return s.Get(), perr
	}
	return next, err
}

// ToggleTheme switches between light and dark.
func (s *Store) ToggleTheme(ctx context.Context) model.Settings {
	next, err := s.Update(ctx, func(st *model.Settings) {
		if st.Theme == "dark" {
			st.Theme = "light"
		} else {
			st.Theme = "dark"
		}
	})
	if err != nil {
		s.log.Error("toggle theme failed", zap.Error(err))
	}
	return next
}

// Replace installs settings wholesale, as imported from a backup.
func (s *Store) Replace(ctx context.Context, st model.Settings) error {
	if err := s.validate.Struct(st); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	s.persistLocked(ctx)
	return nil
}

// Reset restores defaults and removes the saved record.
func (s *Store) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = model.DefaultSettings()
	s.kv.Clear(ctx, kvs.Settings)
}

func (s *Store) persistLocked(ctx context.Context) {
	s.kv.SetJSON(ctx, kvs.Settings, kvs.DataKey, s.state)
}
