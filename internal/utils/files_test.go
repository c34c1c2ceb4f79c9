package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/datalens-cli/internal/utils"
)

func TestWriteOutputCreatesDirsAndNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	if err := utils.WriteOutput(path, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "{\"a\":1}\n" {
		t.Fatalf("unexpected content %q", b)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestPrettyJSON(t *testing.T) {
	b, err := utils.PrettyJSON(map[string]int{"b": 2, "a": 1})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "{\n  \"a\": 1,\n  \"b\": 2\n}" {
		t.Fatalf("unexpected json %q", b)
	}
	if _, err := utils.PrettyJSON(func() {}); err == nil {
		t.Fatal("expected error for unsupported value")
	}
}

func TestReportName(t *testing.T) {
	cases := map[string]string{
		"data/sales.csv":    "sales.report.json",
		"/tmp/q1.2024.xlsx": "q1.2024.report.json",
		"noext":             "noext.report.json",
		"dir/.hidden":       "report.report.json",
	}
	for in, want := range cases {
		if got := utils.ReportName(in, "json"); got != want {
			t.Errorf("ReportName(%q) = %q, want %q", in, got, want)
		}
	}
	if got := utils.ReportName("a.csv", utils.ExtForFormat("markdown")); got != "a.report.md" {
		t.Errorf("markdown ext: %q", got)
	}
}
