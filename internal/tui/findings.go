package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mabhi256/hangdiag/internal/splist"
	"github.com/mabhi256/hangdiag/utils"
)

// RenderFindings lists every category per dump, in report order.
func RenderFindings(results []*splist.Result, width int) string {
	var sb strings.Builder
	wrap := lipgloss.NewStyle().Width(max(width-4, 20))

	for _, r := range results {
		sb.WriteString(utils.TitleStyle.Render(sanitize(r.Dump)) + "\n")

		f := r.Findings
		malformed := r.MalformedThreads()
		if f.Empty() && len(malformed) == 0 {
			sb.WriteString(utils.GoodStyle.Render("  ✅ No problems found") + "\n\n")
			continue
		}

		if len(f.LargeQueries) > 0 {
			sb.WriteString(utils.CriticalStyle.Render(wrap.Render("🔴 "+splist.LargeQueriesMessage)) + "\n")
			for _, fc := range f.LargeQueries {
				sb.WriteString(fmt.Sprintf("   • Thread %d (%d fields)\n", fc.ThreadID, fc.Count))
			}
		}
		if len(f.WildcardQueries) > 0 {
			sb.WriteString(utils.WarningStyle.Render(wrap.Render("⚠️  "+splist.WildcardQueriesMessage)) + "\n")
			sb.WriteString("   " + joinIDs(f.WildcardQueries) + "\n")
		}
		if len(f.UnboundedQueries) > 0 {
			sb.WriteString(utils.WarningStyle.Render(wrap.Render("⚠️  "+splist.UnboundedQueriesMessage)) + "\n")
			sb.WriteString("   " + joinIDs(f.UnboundedQueries) + "\n")
		}
		if len(malformed) > 0 {
			sb.WriteString(utils.CriticalLightStyle.Render("❌ SPQuery could not be parsed on these threads.") + "\n")
			sb.WriteString("   " + joinIDs(malformed) + "\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}
