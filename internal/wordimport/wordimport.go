// Package wordimport reads word lists from spreadsheet and text files.
package wordimport

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one importable word. Columns after Meaning are optional.
type Row struct {
	Word     string
	Meaning  string
	Example  string
	Synonyms string
	Level    string
}

// Result holds the parsed rows and the number of rows that were dropped.
type Result struct {
	Rows    []Row
	Skipped int
}

// Load reads path according to its extension: .xlsx (first sheet), .csv or
// .txt. A leading header row is ignored.
func Load(path string) (Result, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return loadExcel(path)
	case ".csv":
		return loadCSV(path)
	case ".txt", "":
		return loadText(path)
	default:
		return Result{}, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}

func loadExcel(path string) (Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close for read-only workbook.
			_ = cerr
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Result{}, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Result{}, fmt.Errorf("failed to read rows: %w", err)
	}
	return fromRecords(rows), nil
}

func loadCSV(path string) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only import file.
			_ = cerr
		}
	}()

	br := bufio.NewReader(file)
	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("failed to read csv: %w", err)
		}
		records = append(records, rec)
	}
	return fromRecords(records), nil
}

func loadText(path string) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only import file.
			_ = cerr
		}
	}()

	var records [][]string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		records = append(records, splitLine(line))
	}
	if err := scanner.Err(); err != nil {
		return Result{}, err
	}
	return fromRecords(records), nil
}

// sniffDelimiter peeks at the first line and picks the most frequent of
// comma, semicolon and tab.
func sniffDelimiter(br *bufio.Reader) rune {
	head, _ := br.Peek(4096)
	line := string(head)
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	best, bestCount := ',', strings.Count(line, ",")
	for _, r := range []rune{';', '\t'} {
		if n := strings.Count(line, string(r)); n > bestCount {
			best, bestCount = r, n
		}
	}
	return best
}

func splitLine(line string) []string {
	if strings.Contains(line, "\t") {
		return strings.Split(line, "\t")
	}
	if word, meaning, ok := strings.Cut(line, " - "); ok {
		return []string{word, meaning}
	}
	return []string{line}
}

func fromRecords(records [][]string) Result {
	var res Result
	for i, rec := range records {
		if i == 0 && isHeader(rec) {
			continue
		}
		row := Row{
			Word:     cell(rec, 0),
			Meaning:  cell(rec, 1),
			Example:  cell(rec, 2),
			Synonyms: cell(rec, 3),
			Level:    cell(rec, 4),
		}
		if row.Word == "" && row.Meaning == "" && row.Example == "" {
			continue
		}
		if row.Word == "" || row.Meaning == "" {
			res.Skipped++
			continue
		}
		res.Rows = append(res.Rows, row)
	}
	return res
}

func isHeader(rec []string) bool {
	first := strings.ToLower(cell(rec, 0))
	return first == "word" || first == "term"
}

func cell(rec []string, idx int) string {
	if idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(rec[idx], "\ufeff"))
}
