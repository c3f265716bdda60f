package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/mabhi256/hangdiag/internal/config"
	"github.com/mabhi256/hangdiag/internal/splist"
	"github.com/mabhi256/hangdiag/internal/store"
)

const hangDump = `dump: w3wp.dmp
threads:
  - id: 4
    frames:
      - function: Microsoft.SharePoint.SPListItemCollection.EnsureListItemsData
        address: 4096
    objects:
      - type: Microsoft.SharePoint.SPListItemCollection
        fields:
          m_Query:
            m_strViewXml: ""
            m_strQuery: "<Where/>"
  - id: 5
    frames:
      - function: System.Threading.Monitor.Wait
        address: 8192
`

const idleDump = `{"dump": "idle.dmp", "threads": [{"id": 1, "frames": [{"function": "a.b", "address": 1}]}]}`

func writeDump(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func setupSplist(t *testing.T, output, out string) {
	t.Helper()
	cfg = config.Default()
	prevOutput, prevOut, prevServe, prevJobs := splistOutput, splistOut, splistServe, splistJobs
	splistOutput, splistOut, splistServe, splistJobs = output, out, "", 2
	t.Cleanup(func() {
		splistOutput, splistOut, splistServe, splistJobs = prevOutput, prevOut, prevServe, prevJobs
	})
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level, format string
		wantErr       bool
	}{
		{"debug", "text", false},
		{"info", "json", false},
		{"WARN", "text", false},
		{"loud", "text", true},
		{"warn", "xml", true},
	}

	for _, tt := range tests {
		_, err := newLogger(tt.level, tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("newLogger(%q, %q) error = %v, wantErr %v", tt.level, tt.format, err, tt.wantErr)
		}
	}
}

func TestAnalyzeDumps(t *testing.T) {
	setupSplist(t, "cli", "")
	dir := t.TempDir()
	dumps := []string{
		writeDump(t, dir, "hang.yaml", hangDump),
		writeDump(t, dir, "idle.json", idleDump),
	}

	var seen []string
	progressFor := func(dump string) splist.Progress {
		seen = append(seen, dump)
		return newProgressLog(io.Discard).For(dump)
	}
	splistJobs = 1 // progressFor is not synchronized

	results, err := analyzeDumps(context.Background(), newSplistAnalyzer(), dumps, discardSinks(2), progressFor)
	if err != nil {
		t.Fatalf("analyzeDumps: %v", err)
	}

	if len(results) != 2 || results[0].Dump != "w3wp.dmp" || results[1].Dump != "idle.dmp" {
		t.Fatalf("results out of argument order: %+v", results)
	}
	if !slices.Equal(results[0].Findings.WildcardQueries, []int{4}) {
		t.Errorf("wildcard = %v, want [4]", results[0].Findings.WildcardQueries)
	}
	if !slices.Equal(results[0].Findings.UnboundedQueries, []int{4}) {
		t.Errorf("unbounded = %v, want [4]", results[0].Findings.UnboundedQueries)
	}
	if !results[1].Findings.Empty() {
		t.Errorf("idle dump findings = %+v", results[1].Findings)
	}
	if len(seen) != 2 {
		t.Errorf("progress requested for %v", seen)
	}
}

func TestAnalyzeDumpsLoadError(t *testing.T) {
	setupSplist(t, "cli", "")
	dir := t.TempDir()
	dumps := []string{
		writeDump(t, dir, "hang.yaml", hangDump),
		writeDump(t, dir, "broken.json", "{"),
	}

	_, err := analyzeDumps(context.Background(), newSplistAnalyzer(), dumps, discardSinks(2),
		newProgressLog(io.Discard).For)
	if err == nil || !strings.Contains(err.Error(), "broken.json") {
		t.Errorf("err = %v, want load failure naming broken.json", err)
	}
}

func TestRunSplistAnalyzeOutputs(t *testing.T) {
	dir := t.TempDir()
	dump := writeDump(t, dir, "hang.yaml", hangDump)

	t.Run("cli", func(t *testing.T) {
		setupSplist(t, "cli", "")
		var out bytes.Buffer
		if err := runSplistAnalyze(context.Background(), &out, []string{dump}); err != nil {
			t.Fatalf("run: %v", err)
		}
		if !strings.Contains(out.String(), "w3wp.dmp") || !strings.Contains(out.String(), "Thread 4") {
			t.Errorf("cli output = %q", out.String())
		}
	})

	t.Run("html", func(t *testing.T) {
		report := filepath.Join(dir, "reports", "hang.html")
		setupSplist(t, "html", report)
		var out bytes.Buffer
		if err := runSplistAnalyze(context.Background(), &out, []string{dump}); err != nil {
			t.Fatalf("run: %v", err)
		}

		data, err := os.ReadFile(report)
		if err != nil {
			t.Fatalf("report not written: %v", err)
		}
		if !strings.Contains(string(data), "<a id='thread4'><h3>Thread 4</h3></a>") {
			t.Error("report is missing the thread anchor")
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		db := filepath.Join(dir, "findings.db")
		setupSplist(t, "sqlite", db)
		for range 2 {
			if err := runSplistAnalyze(context.Background(), io.Discard, []string{dump}); err != nil {
				t.Fatalf("run: %v", err)
			}
		}

		runs, err := store.RunCount(db)
		if err != nil {
			t.Fatalf("RunCount: %v", err)
		}
		if runs != 2 {
			t.Errorf("runs = %d, want 2", runs)
		}
	})
}

func TestRunSplistAnalyzeSameDumpName(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"srv1", "srv2"} {
		if err := os.Mkdir(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	dumps := []string{
		writeDump(t, dir, "srv1/w3wp.yaml", hangDump),
		writeDump(t, dir, "srv2/w3wp.yaml", hangDump),
	}

	t.Run("html", func(t *testing.T) {
		base := filepath.Join(dir, "out", "report.html")
		setupSplist(t, "html", base)
		var out bytes.Buffer
		if err := runSplistAnalyze(context.Background(), &out, dumps); err != nil {
			t.Fatalf("run: %v", err)
		}

		for _, name := range []string{"report-w3wp.yaml.html", "report-w3wp.yaml-1.html"} {
			if _, err := os.Stat(filepath.Join(dir, "out", name)); err != nil {
				t.Errorf("report %s not written: %v", name, err)
			}
		}
		if n := strings.Count(out.String(), "HTML report written"); n != 2 {
			t.Errorf("written %d reports, want 2:\n%s", n, out.String())
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		db := filepath.Join(dir, "same.db")
		setupSplist(t, "sqlite", db)
		if err := runSplistAnalyze(context.Background(), io.Discard, append(dumps, dumps[0])); err != nil {
			t.Fatalf("run: %v", err)
		}

		runs, err := store.RunCount(db)
		if err != nil || runs != 1 {
			t.Errorf("RunCount = %d, %v; want 1", runs, err)
		}
	})
}
