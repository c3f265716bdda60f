package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/mabhi256/hangdiag/internal/splist"
	"github.com/mabhi256/hangdiag/utils"
)

type totals struct {
	scanned   int
	matched   int
	large     int
	wildcard  int
	unbounded int
	malformed int
}

func sumResults(results []*splist.Result) totals {
	var t totals
	for _, r := range results {
		t.scanned += r.ThreadsScanned
		t.matched += len(r.Threads)
		t.large += len(r.Findings.LargeQueries)
		t.wildcard += len(r.Findings.WildcardQueries)
		t.unbounded += len(r.Findings.UnboundedQueries)
		t.malformed += len(r.MalformedThreads())
	}
	return t
}

// RenderSummary shows run totals, a per-dump table and a chart of category counts.
func RenderSummary(results []*splist.Result, width, height int) string {
	var sb strings.Builder
	t := sumResults(results)

	sb.WriteString(sectionStyle.Render(fmt.Sprintf("%d dump(s) analyzed", len(results))) + "\n\n")
	sb.WriteString(labelStyle.Render("Threads") + fmt.Sprintf("%d\n", t.scanned))
	sb.WriteString(labelStyle.Render("In fill") + fmt.Sprintf("%d\n", t.matched))
	sb.WriteString(labelStyle.Render("Large") + fmt.Sprintf("%d\n", t.large))
	sb.WriteString(labelStyle.Render("All fields") + fmt.Sprintf("%d\n", t.wildcard))
	sb.WriteString(labelStyle.Render("No limit") + fmt.Sprintf("%d\n", t.unbounded))
	if t.malformed > 0 {
		sb.WriteString(labelStyle.Render("Malformed") + utils.CriticalLightStyle.Render(fmt.Sprint(t.malformed)) + "\n")
	}
	sb.WriteString("\n")

	if len(results) > 1 {
		for _, r := range results {
			sb.WriteString(fmt.Sprintf("  %-30s %4d threads  %3d large  %3d all  %3d unbounded\n",
				utils.TruncateString(sanitize(r.Dump), 30), r.ThreadsScanned,
				len(r.Findings.LargeQueries), len(r.Findings.WildcardQueries), len(r.Findings.UnboundedQueries)))
		}
		sb.WriteString("\n")
	}

	if t.large+t.wildcard+t.unbounded+t.malformed == 0 {
		sb.WriteString(utils.GoodStyle.Render("✅ No problematic SPList queries found"))
		return sb.String()
	}

	used := lipgloss.Height(sb.String())
	chartHeight := min(height-used, 12)
	if chartHeight >= 4 && width >= 20 {
		if t.large > 0 {
			sb.WriteString(sectionStyle.Render("Fields requested by large queries") + "\n")
			sb.WriteString(renderFieldCountChart(results, min(width-2, 60), chartHeight-1))
		} else {
			sb.WriteString(renderCategoryChart(t, min(width-2, 60), chartHeight))
		}
	}

	return sb.String()
}

func renderCategoryChart(t totals, width, height int) string {
	bc := barchart.New(width, height)
	bc.PushAll([]barchart.BarData{
		{Label: "large", Values: []barchart.BarValue{{Name: "large", Value: float64(t.large), Style: largeBarStyle}}},
		{Label: "all", Values: []barchart.BarValue{{Name: "all", Value: float64(t.wildcard), Style: wildcardBarStyle}}},
		{Label: "nolimit", Values: []barchart.BarValue{{Name: "nolimit", Value: float64(t.unbounded), Style: unboundedBarStyle}}},
		{Label: "bad", Values: []barchart.BarValue{{Name: "bad", Value: float64(t.malformed), Style: malformedBarStyle}}},
	})
	bc.Draw()
	return bc.View()
}

func renderFieldCountChart(results []*splist.Result, width, height int) string {
	var bars []barchart.BarData
	for _, r := range results {
		for _, fc := range r.Findings.LargeQueries {
			label := fmt.Sprintf("T%d", fc.ThreadID)
			bars = append(bars, barchart.BarData{
				Label:  label,
				Values: []barchart.BarValue{{Name: label, Value: float64(fc.Count), Style: largeBarStyle}},
			})
		}
	}

	bc := barchart.New(width, height)
	bc.PushAll(bars)
	bc.Draw()
	return bc.View()
}
