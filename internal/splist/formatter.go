package splist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mabhi256/hangdiag/utils"
)

// PrintReport renders the result for a terminal: summary, the three finding
// sections in report order, then one block per matched thread.
func (r *Result) PrintReport(w io.Writer) {
	clean := utils.SanitizeTerminal

	fmt.Fprintln(w, utils.TitleStyle.Render("🔍 SPList Query Analysis: "+clean(r.Dump)))
	fmt.Fprintf(w, "Threads scanned: %d  |  In %s: %d\n",
		r.ThreadsScanned, shortFrame(r.Rule.SignatureFrame), len(r.Threads))
	fmt.Fprintln(w, strings.Repeat("═", 65))

	if r.Findings.Empty() && len(r.MalformedThreads()) == 0 {
		fmt.Fprintln(w, utils.GoodStyle.Render("✅ No problematic SPList queries found"))
	}

	if len(r.Findings.LargeQueries) > 0 {
		printSection(w, "🔴", utils.CriticalStyle, LargeQueriesMessage)
		for _, fc := range r.Findings.LargeQueries {
			fmt.Fprintf(w, "   • Thread %d (%d fields)\n", fc.ThreadID, fc.Count)
		}
	}
	if len(r.Findings.WildcardQueries) > 0 {
		printSection(w, "⚠️ ", utils.WarningStyle, WildcardQueriesMessage)
		fmt.Fprintf(w, "   %s\n", joinIDs(r.Findings.WildcardQueries))
	}
	if len(r.Findings.UnboundedQueries) > 0 {
		printSection(w, "⚠️ ", utils.WarningStyle, UnboundedQueriesMessage)
		fmt.Fprintf(w, "   %s\n", joinIDs(r.Findings.UnboundedQueries))
	}
	if malformed := r.MalformedThreads(); len(malformed) > 0 {
		printSection(w, "❌", utils.CriticalStyle, "SPQuery could not be parsed on these threads.")
		fmt.Fprintf(w, "   %s\n", joinIDs(malformed))
	}

	for _, t := range r.Threads {
		fmt.Fprintln(w)
		fmt.Fprintln(w, utils.InfoStyle.Bold(true).Render(fmt.Sprintf("Thread %d", t.ThreadID)))
		fmt.Fprintln(w, strings.Repeat("─", 35))

		switch {
		case t.Err != nil:
			fmt.Fprintln(w, utils.CriticalLightStyle.Render("   "+clean(t.Err.Error())))
		case t.Descriptor != nil:
			if t.Descriptor.HasViewFields {
				fmt.Fprintf(w, "   Fields (%d): %s\n", t.Descriptor.FieldCount, clean(strings.Join(t.Descriptor.Fields, ", ")))
			} else {
				fmt.Fprintln(w, "   Fields: ALL")
			}
			if t.Descriptor.HasRowLimit {
				fmt.Fprintf(w, "   RowLimit: %d\n", t.Descriptor.RowLimit)
			} else {
				fmt.Fprintln(w, "   RowLimit: none")
			}
		case !t.QueryObjectFound:
			fmt.Fprintln(w, utils.MutedStyle.Render("   no SPListItemCollection on the stack"))
		default:
			fmt.Fprintln(w, utils.MutedStyle.Render("   no query text"))
		}

		for i, frame := range t.Frames {
			line := "   " + FormatFrame(frame, clean)
			if i == t.SignatureIndex {
				line = utils.CriticalStyle.Render(line)
			}
			fmt.Fprintln(w, line)
		}
	}
}

func printSection(w io.Writer, icon string, style lipgloss.Style, message string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", icon, style.Render(message))
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}

// shortFrame trims the namespace of a frame name for display.
func shortFrame(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) <= 2 {
		return name
	}
	return strings.Join(parts[len(parts)-2:], ".")
}
