package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mabhi256/hangdiag/internal/splist"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hangdiag.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Rule != splist.DefaultRule() {
		t.Errorf("Rule = %+v", cfg.Rule)
	}
	if cfg.Rule.MaxViewFields != 10 || cfg.Rule.SignatureFrame != "Microsoft.SharePoint.SPListItemCollection.EnsureListItemsData" {
		t.Errorf("defaults differ from the rule constants: %+v", cfg.Rule)
	}
	if cfg.Report.HighlightColor != "red" || cfg.Report.Title != "" {
		t.Errorf("Report = %+v", cfg.Report)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "rule:\n  max_view_fields: 25\nreport:\n  title: Farm A\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Rule.MaxViewFields != 25 {
		t.Errorf("MaxViewFields = %d", cfg.Rule.MaxViewFields)
	}
	if cfg.Rule.QueryShape != splist.QueryShape {
		t.Errorf("QueryShape lost its default: %q", cfg.Rule.QueryShape)
	}
	if cfg.Report.Title != "Farm A" || cfg.Report.HighlightColor != "red" {
		t.Errorf("Report = %+v", cfg.Report)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative threshold", "rule:\n  max_view_fields: -1\n"},
		{"empty signature", "rule:\n  signature_frame: \"\"\n"},
		{"not yaml", "rule: [\n"},
		{"wrong type", "rule:\n  max_view_fields: many\n"},
		{"markup in color", "report:\n  highlight_color: \"red' onclick='x\"\n"},
		{"empty color", "report:\n  highlight_color: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, want read error", err)
	}
}
