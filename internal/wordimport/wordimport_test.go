package wordimport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadCSVWithHeader(t *testing.T) {
	path := writeFile(t, "words.csv", "word,meaning,example\nephemeral,short-lived,\"An ephemeral trend, gone fast.\"\n,missing word\nubiquitous,found everywhere\n")
	res, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(res.Rows))
	}
	if res.Rows[0].Example != "An ephemeral trend, gone fast." {
		t.Fatalf("example = %q", res.Rows[0].Example)
	}
	if res.Skipped != 1 {
		t.Fatalf("skipped = %d, want 1", res.Skipped)
	}
}

func TestLoadCSVSemicolon(t *testing.T) {
	path := writeFile(t, "words.csv", "serendipity;happy accident;;luck;C1\n")
	res, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("rows = %d", len(res.Rows))
	}
	row := res.Rows[0]
	if row.Meaning != "happy accident" || row.Synonyms != "luck" || row.Level != "C1" {
		t.Fatalf("unexpected row %+v", row)
	}
}

func TestLoadText(t *testing.T) {
	path := writeFile(t, "words.txt", "# my list\nbenevolent\tkind\n\nresilient - able to recover\nlonely\n")
	res, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(res.Rows))
	}
	if res.Rows[1].Word != "resilient" || res.Rows[1].Meaning != "able to recover" {
		t.Fatalf("unexpected row %+v", res.Rows[1])
	}
	if res.Skipped != 1 {
		t.Fatalf("skipped = %d, want 1", res.Skipped)
	}
}

func TestLoadExcel(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	cells := map[string]string{
		"A1": "Word", "B1": "Meaning",
		"A2": "eloquent", "B2": "fluent",
		"A3": "meticulous", "B3": "careful",
	}
	for ref, v := range cells {
		if err := f.SetCellValue(sheet, ref, v); err != nil {
			t.Fatalf("set cell: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "words.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = f.Close()

	res, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Rows) != 2 || res.Rows[0].Word != "eloquent" || res.Rows[1].Meaning != "careful" {
		t.Fatalf("unexpected rows %+v", res.Rows)
	}
}

func TestLoadUnsupported(t *testing.T) {
	path := writeFile(t, "words.pdf", "x")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
}
