package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tetraminz/emotion_insights/internal/emotion"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadReviewFileCSVUsesTextColumn(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "reviews.csv", ""+
		"\ufeffId,Text,Rating\n"+
		"1,Loved the service,5\n"+
		"2,  ,3\n"+
		"3,\"Slow, but friendly\",4\n")

	reviews, err := LoadReviewFile(path)
	if err != nil {
		t.Fatalf("LoadReviewFile error: %v", err)
	}
	if got, want := len(reviews), 2; got != want {
		t.Fatalf("review count mismatch: got %d want %d", got, want)
	}
	if got, want := reviews[0].Text, "Loved the service"; got != want {
		t.Fatalf("first text mismatch: got %q want %q", got, want)
	}
	if got, want := reviews[1].Text, "Slow, but friendly"; got != want {
		t.Fatalf("second text mismatch: got %q want %q", got, want)
	}
	if got, want := reviews[1].Line, 4; got != want {
		t.Fatalf("second line mismatch: got %d want %d", got, want)
	}
}

func TestLoadReviewFileCSVFallbackColumn(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "feedback.csv", "Review,Stars\nGreat,5\n")
	reviews, err := LoadReviewFile(path)
	if err != nil {
		t.Fatalf("LoadReviewFile error: %v", err)
	}
	if len(reviews) != 1 || reviews[0].Text != "Great" {
		t.Fatalf("reviews mismatch: %+v", reviews)
	}
}

func TestLoadReviewFileCSVMissingColumn(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "bad.csv", "a,b\n1,2\n")
	if _, err := LoadReviewFile(path); err == nil || !strings.Contains(err.Error(), "missing text column") {
		t.Fatalf("error got %v", err)
	}
}

func TestLoadReviewFileJSONLAndText(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jsonl := writeFile(t, dir, "a.jsonl", `{"text":"first"}`+"\n\n"+`{"text":"  "}`+"\n"+`{"text":"third"}`+"\n")
	reviews, err := LoadReviewFile(jsonl)
	if err != nil {
		t.Fatalf("LoadReviewFile jsonl error: %v", err)
	}
	if len(reviews) != 2 || reviews[1].Text != "third" || reviews[1].Line != 4 {
		t.Fatalf("jsonl reviews mismatch: %+v", reviews)
	}

	txt := writeFile(t, dir, "b.txt", "one\n\ntwo\n")
	reviews, err = LoadReviewFile(txt)
	if err != nil {
		t.Fatalf("LoadReviewFile txt error: %v", err)
	}
	if len(reviews) != 2 || reviews[1].Line != 3 {
		t.Fatalf("txt reviews mismatch: %+v", reviews)
	}

	bad := writeFile(t, dir, "c.jsonl", "{broken\n")
	if _, err := LoadReviewFile(bad); err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("error got %v", err)
	}
}

func TestLoadReviewsDirectoryAndLimit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "b1\nb2\n")
	writeFile(t, dir, "a.csv", "text\na1\na2\n")
	writeFile(t, dir, "notes.md", "ignored\n")

	reviews, err := LoadReviews(dir, 0)
	if err != nil {
		t.Fatalf("LoadReviews error: %v", err)
	}
	var texts []string
	for _, r := range reviews {
		texts = append(texts, r.Text)
	}
	if got, want := strings.Join(texts, ","), "a1,a2,b1,b2"; got != want {
		t.Fatalf("texts mismatch: got %q want %q", got, want)
	}

	limited, err := LoadReviews(dir, 3)
	if err != nil {
		t.Fatalf("LoadReviews limit error: %v", err)
	}
	if len(limited) != 3 {
		t.Fatalf("limited count got %d want 3", len(limited))
	}

	if _, err := LoadReviews(dir, -1); err == nil {
		t.Fatalf("expected error for negative limit")
	}
}

func TestLoadSubmissions(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "saved.jsonl", ""+
		`{"content":"Great","emotion_result":[{"label":"joy","score":0.9}],"dominant_emotion":"joy","created_at":"2024-01-01T10:00:00Z"}`+"\n"+
		`{"content":"Bad","dominant_emotion":"anger"}`+"\n")

	subs, err := LoadSubmissions(path)
	if err != nil {
		t.Fatalf("LoadSubmissions error: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("submission count got %d want 2", len(subs))
	}
	rec := subs[0].Record()
	if rec.Dominant != emotion.Joy || rec.Scores[emotion.Joy] != 0.9 {
		t.Fatalf("record mismatch: %+v", rec)
	}
	if rec.CreatedAt.Format("2006-01-02") != "2024-01-01" {
		t.Fatalf("created_at got %v", rec.CreatedAt)
	}
	if !subs[1].Record().CreatedAt.IsZero() {
		t.Fatalf("missing created_at should stay zero")
	}
}
