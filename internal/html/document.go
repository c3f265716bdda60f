package html

import (
	_ "embed"
	"fmt"
	stdhtml "html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mabhi256/hangdiag/internal/splist"
)

//go:embed templates/report.html
var htmlTemplate string

//go:embed templates/styles.css
var cssContent string

// Document collects one analysis report. Body writes and warnings are kept
// apart so the rendered page can show the warnings first.
type Document struct {
	Title       string
	GeneratedAt time.Time

	body     strings.Builder
	warnings []splist.Warning
}

func NewDocument(title string) *Document {
	return &Document{Title: title, GeneratedAt: time.Now()}
}

func (d *Document) Write(s string) error {
	d.body.WriteString(s)
	return nil
}

func (d *Document) WriteLine(s string) error {
	d.body.WriteString(s)
	d.body.WriteString("\n")
	return nil
}

func (d *Document) ReportWarning(message, category string) error {
	d.warnings = append(d.warnings, splist.Warning{Message: message, Category: category})
	return nil
}

func (d *Document) Warnings() []splist.Warning {
	return d.warnings
}

func (d *Document) Body() string {
	return d.body.String()
}

// Render produces a self-contained page. Messages are already HTML.
func (d *Document) Render() string {
	var warnings strings.Builder
	if len(d.warnings) == 0 {
		warnings.WriteString("<p class='none'>No problems found.</p>\n")
	}
	for _, w := range d.warnings {
		warnings.WriteString("<div class='warning'>")
		if w.Category != "" {
			fmt.Fprintf(&warnings, "<span class='category'>%s</span>", escape(w.Category))
		}
		warnings.WriteString(w.Message)
		warnings.WriteString("</div>\n")
	}

	// body last so report text cannot be taken for a placeholder
	r := strings.NewReplacer(
		"{{TITLE}}", escape(d.Title),
		"{{CSS_CONTENT}}", cssContent,
		"{{CATEGORY}}", escape(splist.Category),
		"{{DESCRIPTION}}", escape(splist.Description),
		"{{GENERATED_AT}}", d.GeneratedAt.Format(time.RFC1123),
	)
	content := r.Replace(htmlTemplate)
	content = strings.Replace(content, "{{WARNINGS}}", warnings.String(), 1)
	return strings.Replace(content, "{{BODY}}", d.body.String(), 1)
}

// WriteReport renders the document to path and returns the absolute path.
func WriteReport(doc *Document, path string) (string, error) {
	absPath, err := GetOutputPath(path)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(absPath, []byte(doc.Render()), 0644); err != nil {
		return "", fmt.Errorf("failed to write HTML file: %w", err)
	}
	return absPath, nil
}

// GetOutputPath returns a safe output path, creating directories if needed
func GetOutputPath(path string) (string, error) {
	outputPath := path
	if outputPath == "" {
		outputPath = GetDefaultOutputPath()
	}

	if !strings.HasSuffix(strings.ToLower(outputPath), ".html") {
		outputPath += ".html"
	}

	absPath, err := filepath.Abs(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for %s: %w", outputPath, err)
	}

	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	return absPath, nil
}

// GetDefaultOutputPath returns a default HTML output path
func GetDefaultOutputPath() string {
	timestamp := time.Now().Format("20060102_150405")
	return fmt.Sprintf("splist-analysis-%s.html", timestamp)
}

// PathForDump derives a per-dump report path from a base path when several
// dumps are analyzed in one run.
func PathForDump(base, dump string) string {
	if base == "" {
		base = GetDefaultOutputPath()
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if ext == "" {
		ext = ".html"
	}
	return stem + "-" + sanitizeFileName(dump) + ext
}

// ReportPaths returns one output path per dump name. A single dump writes to
// base itself; several dumps get distinct suffixed paths even when names repeat.
func ReportPaths(base string, names []string) []string {
	if len(names) == 1 {
		return []string{base}
	}
	if base == "" {
		base = GetDefaultOutputPath()
	}

	clean := make([]string, len(names))
	for i, name := range names {
		clean[i] = sanitizeFileName(name)
	}

	paths := uniqueNames(clean)
	for i, name := range paths {
		paths[i] = PathForDump(base, name)
	}
	return paths
}

// uniqueNames suffixes repeated names with -1, -2, ... skipping suffixed
// forms that are already taken.
func uniqueNames(names []string) []string {
	taken := make(map[string]bool, len(names))
	for _, name := range names {
		taken[name] = true
	}

	out := make([]string, len(names))
	used := make(map[string]bool, len(names))
	for i, name := range names {
		candidate := name
		for n := 1; used[candidate] || (candidate != name && taken[candidate]); n++ {
			candidate = fmt.Sprintf("%s-%d", name, n)
		}
		used[candidate] = true
		out[i] = candidate
	}
	return out
}

func sanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ', '{', '}':
			return '_'
		}
		return r
	}, name)
}

func escape(s string) string {
	return stdhtml.EscapeString(s)
}
