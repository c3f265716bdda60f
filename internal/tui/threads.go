package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/mabhi256/hangdiag/internal/splist"
	"github.com/mabhi256/hangdiag/utils"
)

type threadItem struct {
	dump   string
	result *splist.Result
	thread splist.ThreadResult
}

func (i threadItem) Title() string {
	title := fmt.Sprintf("Thread %d", i.thread.ThreadID)
	if i.thread.Classification.Any() || i.thread.Err != nil {
		title = "⚠ " + title
	}
	return title
}

func (i threadItem) Description() string {
	var parts []string
	if i.dump != "" {
		parts = append(parts, sanitize(i.dump))
	}
	parts = append(parts, describeQuery(i.thread))
	return strings.Join(parts, " · ")
}

func (i threadItem) FilterValue() string {
	return fmt.Sprintf("%d %s", i.thread.ThreadID, i.dump)
}

func describeQuery(t splist.ThreadResult) string {
	switch {
	case t.Err != nil:
		return "malformed SPQuery"
	case t.Descriptor == nil && !t.QueryObjectFound:
		return "no SPListItemCollection"
	case t.Descriptor == nil:
		return "no query text"
	}

	d := t.Descriptor
	var parts []string
	if d.HasViewFields {
		parts = append(parts, fmt.Sprintf("%d fields", d.FieldCount))
	} else {
		parts = append(parts, "all fields")
	}
	if d.HasRowLimit {
		parts = append(parts, fmt.Sprintf("row limit %d", d.RowLimit))
	} else {
		parts = append(parts, "no row limit")
	}
	return strings.Join(parts, ", ")
}

func threadItems(results []*splist.Result) []list.Item {
	var items []list.Item
	for _, r := range results {
		dump := ""
		if len(results) > 1 {
			dump = r.Dump
		}
		for _, t := range r.Threads {
			items = append(items, threadItem{dump: dump, result: r, thread: t})
		}
	}
	return items
}

// RenderThreadDetail shows the query and stack of one matched thread.
func RenderThreadDetail(dump string, t splist.ThreadResult, r *splist.Result, width int) string {
	var sb strings.Builder

	title := fmt.Sprintf("Thread %d", t.ThreadID)
	if dump != "" {
		title += "  (" + sanitize(dump) + ")"
	}
	sb.WriteString(utils.TitleStyle.Render(title) + "\n")
	sb.WriteString(strings.Repeat("─", max(width, 10)) + "\n")

	c := t.Classification
	if c.LargeFieldCount {
		sb.WriteString(utils.CriticalStyle.Render(fmt.Sprintf("🔴 more than %d fields requested", r.Rule.MaxViewFields)) + "\n")
	}
	if c.Wildcard {
		sb.WriteString(utils.WarningStyle.Render("⚠️  all fields requested") + "\n")
	}
	if c.Unbounded {
		sb.WriteString(utils.WarningStyle.Render("⚠️  no row limit") + "\n")
	}

	switch {
	case t.Err != nil:
		sb.WriteString(utils.CriticalLightStyle.Render(sanitize(t.Err.Error())) + "\n")
	case t.Descriptor != nil:
		d := t.Descriptor
		if d.HasViewFields {
			sb.WriteString("\n" + sectionStyle.Render(fmt.Sprintf("Fields (%d)", d.FieldCount)) + "\n")
			for _, f := range d.Fields {
				sb.WriteString("  " + sanitize(f) + "\n")
			}
		}
		sb.WriteString("\n" + sectionStyle.Render("SPQuery") + "\n")
		sb.WriteString(descriptorStyle.Width(max(width-4, 20)).Render(sanitize(d.Text)) + "\n")
	default:
		sb.WriteString(utils.MutedStyle.Render(describeQuery(t)) + "\n")
	}

	sb.WriteString("\n" + sectionStyle.Render("Stack") + "\n")
	for i, frame := range t.Frames {
		line := splist.FormatFrame(frame, sanitize)
		if i == t.SignatureIndex {
			line = signatureLineStyle.Render(line)
		}
		sb.WriteString(lipgloss.NewStyle().MaxWidth(max(width, 20)).Render(line) + "\n")
	}

	return sb.String()
}
