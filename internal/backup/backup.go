// Package backup encodes and validates export documents.
package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/verte-zerg/lingoquest/internal/model"
	"github.com/verte-zerg/lingoquest/internal/streak"
)

// ErrInvalidBackup wraps every reason a backup is rejected.
var ErrInvalidBackup = errors.New("invalid backup file")

// Document is the export file. Nil sections were absent from the file and
// are left untouched on import.
type Document struct {
	Vocab      []model.VocabEntry   `json:"vocab" validate:"omitempty,dive"`
	Progress   *model.ProgressState `json:"progress,omitempty" validate:"omitempty"`
	Settings   *model.Settings      `json:"settings,omitempty" validate:"omitempty"`
	ExportedAt time.Time            `json:"exportedAt"`
}

var validate = validator.New()

// Filename returns the default export file name for now.
func Filename(now time.Time) string {
	return fmt.Sprintf("lingoquest-backup-%s.json", streak.DayKey(now))
}

// Encode writes doc as indented JSON.
func Encode(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return nil
}

type rawDocument struct {
	Vocab      json.RawMessage `json:"vocab"`
	Progress   json.RawMessage `json:"progress"`
	Settings   json.RawMessage `json:"settings"`
	ExportedAt *time.Time      `json:"exportedAt"`
}

func present(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null"
}

// Decode parses and validates a backup. Progress and settings are merged
// over defaults so older exports with missing fields still load. Nothing
// is returned unless the whole document is valid.
func Decode(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	var raw rawDocument
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	var doc Document
	if raw.ExportedAt != nil {
		doc.ExportedAt = *raw.ExportedAt
	}
	if present(raw.Vocab) {
		if err := json.Unmarshal(raw.Vocab, &doc.Vocab); err != nil {
			return Document{}, fmt.Errorf("%w: vocab: %v", ErrInvalidBackup, err)
		}
		if doc.Vocab == nil {
			doc.Vocab = []model.VocabEntry{}
		}
	}
	if present(raw.Progress) {
		p := model.DefaultProgress()
		if err := json.Unmarshal(raw.Progress, &p); err != nil {
			return Document{}, fmt.Errorf("%w: progress: %v", ErrInvalidBackup, err)
		}
		p.Normalize()
		doc.Progress = &p
	}
	if present(raw.Settings) {
		s := model.DefaultSettings()
		if err := json.Unmarshal(raw.Settings, &s); err != nil {
			return Document{}, fmt.Errorf("%w: settings: %v", ErrInvalidBackup, err)
		}
		doc.Settings = &s
	}
	if doc.Vocab == nil && doc.Progress == nil && doc.Settings == nil {
		return Document{}, fmt.Errorf("%w: no vocab, progress or settings section", ErrInvalidBackup)
	}
	if err := Validate(doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Validate checks field constraints and id uniqueness.
func Validate(doc Document) error {
	if err := validate.Struct(doc); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidBackup, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	seen := make(map[string]struct{}, len(doc.Vocab))
	for _, e := range doc.Vocab {
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("%w: duplicate vocab id %q", ErrInvalidBackup, e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}
