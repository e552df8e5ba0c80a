package dataset

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tetraminz/emotion_insights/internal/store"
)

// Review is one text to analyze, with where it came from.
type Review struct {
	SourceFile string `json:"source_file"`
	Line       int    `json:"line"`
	Text       string `json:"text"`
}

// Supported input extensions.
const (
	extCSV   = ".csv"
	extJSONL = ".jsonl"
	extTXT   = ".txt"
)

// LoadReviews reads one file or every supported file under a directory.
// limit 0 means no limit.
func LoadReviews(path string, limit int) ([]Review, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("input path is required")
	}
	if limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}
	paths := []string{path}
	if info.IsDir() {
		paths, err = listInputFiles(path)
		if err != nil {
			return nil, err
		}
	}

	reviews := make([]Review, 0, 64)
	for _, p := range paths {
		loaded, err := LoadReviewFile(p)
		if err != nil {
			return nil, err
		}
		for _, review := range loaded {
			reviews = append(reviews, review)
			if limit > 0 && len(reviews) >= limit {
				return reviews, nil
			}
		}
	}
	return reviews, nil
}

// LoadReviewFile parses a CSV (text column), JSONL ({"text": ...}) or plain
// text file (one review per line). Blank texts are skipped.
func LoadReviewFile(path string) ([]Review, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer file.Close()

	source := filepath.ToSlash(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case extCSV:
		return readCSVReviews(file, source)
	case extJSONL:
		return readJSONLReviews(file, source)
	case extTXT:
		return readTextReviews(file, source)
	default:
		return nil, fmt.Errorf("unsupported input file %q: want .csv, .jsonl or .txt", path)
	}
}

func readCSVReviews(r io.Reader, source string) ([]Review, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read %q: empty csv", source)
		}
		return nil, fmt.Errorf("read %q header: %w", source, err)
	}

	textIdx, err := textColumn(header)
	if err != nil {
		return nil, fmt.Errorf("parse %q header: %w", source, err)
	}

	reviews := make([]Review, 0, 32)
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read %q row: %w", source, err)
		}
		line, _ := reader.FieldPos(0)

		text := strings.TrimSpace(valueAt(record, textIdx))
		if text == "" {
			continue
		}
		reviews = append(reviews, Review{SourceFile: source, Line: line, Text: text})
	}
	return reviews, nil
}

func readJSONLReviews(r io.Reader, source string) ([]Review, error) {
	reviews := make([]Review, 0, 32)
	err := scanJSONL(r, source, func(line int, raw []byte) error {
		var row struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(raw, &row); err != nil {
			return err
		}
		if text := strings.TrimSpace(row.Text); text != "" {
			reviews = append(reviews, Review{SourceFile: source, Line: line, Text: text})
		}
		return nil
	})
	return reviews, err
}

func readTextReviews(r io.Reader, source string) ([]Review, error) {
	reviews := make([]Review, 0, 32)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if text == "" {
			continue
		}
		reviews = append(reviews, Review{SourceFile: source, Line: line, Text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %q: %w", source, err)
	}
	return reviews, nil
}

// LoadSubmissions reads save payloads, one JSON object per line.
func LoadSubmissions(path string) ([]store.Submission, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer file.Close()

	out := make([]store.Submission, 0, 64)
	err = scanJSONL(file, filepath.ToSlash(path), func(_ int, raw []byte) error {
		var sub store.Submission
		if err := json.Unmarshal(raw, &sub); err != nil {
			return err
		}
		out = append(out, sub)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanJSONL(r io.Reader, source string, fn func(line int, raw []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := []byte(strings.TrimSpace(scanner.Text()))
		if len(raw) == 0 {
			continue
		}
		if err := fn(line, raw); err != nil {
			return fmt.Errorf("parse %q line %d: %w", source, line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %q: %w", source, err)
	}
	return nil
}

func listInputFiles(root string) ([]string, error) {
	paths := make([]string, 0, 64)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case extCSV, extJSONL, extTXT:
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %q: %w", root, err)
	}

	sort.Strings(paths)
	return paths, nil
}

func valueAt(record []string, index int) string {
	if index < 0 || index >= len(record) {
		return ""
	}
	return record[index]
}

func textColumn(header []string) (int, error) {
	fallback := -1
	for i, col := range header {
		switch normalizeHeader(col) {
		case "text":
			return i, nil
		case "review", "content", "comment", "feedback":
			if fallback == -1 {
				fallback = i
			}
		}
	}
	if fallback != -1 {
		return fallback, nil
	}
	if len(header) == 1 {
		return 0, nil
	}
	return -1, fmt.Errorf("missing text column in header %v", header)
}

func normalizeHeader(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "")
	return s
}
