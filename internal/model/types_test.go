package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDayRecordDecodesLegacyArray(t *testing.T) {
	var log map[string]DayRecord
	body := `{"2024-03-01":["learn","game","bogus"],"2024-03-02":{"vocab":2,"custom":1}}`
	if err := json.Unmarshal([]byte(body), &log); err != nil {
		t.Fatalf("decode: %v", err)
	}
	legacy := log["2024-03-01"]
	if legacy["learn"] != 1 || legacy["game"] != 1 || legacy["vocab"] != 0 {
		t.Fatalf("unexpected legacy record %v", legacy)
	}
	if _, ok := legacy["bogus"]; ok {
		t.Fatalf("unknown legacy names should be dropped")
	}
	current := log["2024-03-02"]
	if current["vocab"] != 2 || current["custom"] != 1 || current["mastered"] != 0 {
		t.Fatalf("unexpected record %v", current)
	}
	if current.Total() != 3 || !current.Active() {
		t.Fatalf("unexpected totals for %v", current)
	}
}

func TestExamplesRoundTrip(t *testing.T) {
	in := []Example{
		{Text: "It was pure serendipity.", Translation: "Itu kebetulan murni."},
		{Text: "No translation here"},
		{Text: "   "},
	}
	joined := JoinExamples(in)
	want := "It was pure serendipity. (Itu kebetulan murni.)|||No translation here"
	if joined != want {
		t.Fatalf("join = %q, want %q", joined, want)
	}
	out := SplitExamples(joined)
	if len(out) != 2 {
		t.Fatalf("expected two examples, got %v", out)
	}
	if out[0] != in[0] || out[1] != in[1] {
		t.Fatalf("unexpected split %v", out)
	}
	if SplitExamples("") != nil {
		t.Fatalf("empty input should give nil")
	}
}

func TestSplitMeanings(t *testing.T) {
	got := SplitMeanings(" apel, buah ,, ")
	if len(got) != 2 || got[0] != "apel" || got[1] != "buah" {
		t.Fatalf("unexpected meanings %v", got)
	}
}

func TestParseLevelAndStatus(t *testing.T) {
	if l, ok := ParseLevel(" b2 "); !ok || l != LevelB2 {
		t.Fatalf("ParseLevel = %v %v", l, ok)
	}
	if _, ok := ParseLevel("D1"); ok {
		t.Fatalf("D1 should be invalid")
	}
	if s, ok := ParseStatus("Mastered"); !ok || s != StatusMastered {
		t.Fatalf("ParseStatus = %v %v", s, ok)
	}
}

func TestProgressCloneIsDeep(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	p := DefaultProgress()
	p.LastPracticeDate = &ts
	p.ActivityLog["2024-03-01"] = DayRecord{"learn": 1}
	p.BestRecords["hangman"] = 30
	p.UnlockedAchievements = append(p.UnlockedAchievements, "scholar_1")

	cp := p.Clone()
	cp.ActivityLog["2024-03-01"]["learn"] = 5
	cp.BestRecords["hangman"] = 10
	cp.UnlockedAchievements[0] = "changed"
	*cp.LastPracticeDate = ts.Add(time.Hour)

	if p.ActivityLog["2024-03-01"]["learn"] != 1 || p.BestRecords["hangman"] != 30 {
		t.Fatalf("clone shares maps with original")
	}
	if p.UnlockedAchievements[0] != "scholar_1" || !p.LastPracticeDate.Equal(ts) {
		t.Fatalf("clone shares slices or pointers with original")
	}
}

func TestNormalizeBackfillsMaps(t *testing.T) {
	var p ProgressState
	if err := json.Unmarshal([]byte(`{"name":"Old","currentStreak":3}`), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	p.Normalize()
	if p.ActivityLog == nil || p.TimeFlags == nil || p.BestRecords == nil || p.UnlockedAchievements == nil {
		t.Fatalf("normalize left nil fields: %+v", p)
	}
}
