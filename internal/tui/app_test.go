package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mabhi256/hangdiag/internal/snapshot"
	"github.com/mabhi256/hangdiag/internal/splist"
)

func sampleResults() []*splist.Result {
	frames := []snapshot.Frame{
		{Function: "Foo.Bar", Address: 0x10},
		{Function: splist.SignatureFrame + "()", Address: 0x20},
	}

	return []*splist.Result{{
		Dump:           "w3wp.dmp",
		Rule:           splist.DefaultRule(),
		ThreadsScanned: 4,
		Threads: []splist.ThreadResult{
			{
				ThreadID:         7,
				Frames:           frames,
				SignatureIndex:   1,
				QueryObjectFound: true,
				Descriptor: &splist.Descriptor{
					Fields:        []string{"Title", "Author"},
					FieldCount:    2,
					HasViewFields: true,
					Text:          "<View/>",
				},
				Classification: splist.Classification{Unbounded: true},
			},
			{
				ThreadID:         9,
				Frames:           frames,
				SignatureIndex:   1,
				QueryObjectFound: true,
				Err:              splist.ErrMalformedDescriptor,
			},
		},
		Findings: splist.Findings{UnboundedQueries: []int{7}},
	}}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelTabs(t *testing.T) {
	m := initialModel(sampleResults())
	if got := m.View(); got != "Loading..." {
		t.Fatalf("View before size = %q", got)
	}

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	tests := []struct {
		msg  tea.KeyMsg
		want TabType
	}{
		{keyRunes("2"), ThreadsTab},
		{keyRunes("3"), FindingsTab},
		{tea.KeyMsg{Type: tea.KeyRight}, SummaryTab},
		{tea.KeyMsg{Type: tea.KeyLeft}, FindingsTab},
		{keyRunes("1"), SummaryTab},
	}

	for _, tt := range tests {
		m.Update(tt.msg)
		if m.currentTab != tt.want {
			t.Errorf("after %q tab = %d, want %d", tt.msg.String(), m.currentTab, tt.want)
		}
	}
}

func TestModelThreadDetail(t *testing.T) {
	m := initialModel(sampleResults())
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m.Update(keyRunes("2"))

	if !strings.Contains(m.View(), "Thread 7") {
		t.Fatalf("thread list missing Thread 7:\n%s", m.View())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.showDetail {
		t.Fatal("enter did not open the detail view")
	}
	view := m.View()
	for _, want := range []string{"Fields (2)", "Author", "no row limit", "Stack"} {
		if !strings.Contains(view, want) {
			t.Errorf("detail view missing %q", want)
		}
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.showDetail {
		t.Error("esc did not close the detail view")
	}
}

func TestModelQuit(t *testing.T) {
	m := initialModel(sampleResults())
	_, cmd := m.Update(keyRunes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestDescribeQuery(t *testing.T) {
	tests := []struct {
		name   string
		thread splist.ThreadResult
		want   string
	}{
		{"malformed", splist.ThreadResult{Err: splist.ErrMalformedDescriptor}, "malformed SPQuery"},
		{"no object", splist.ThreadResult{}, "no SPListItemCollection"},
		{"no text", splist.ThreadResult{QueryObjectFound: true}, "no query text"},
		{"wildcard", splist.ThreadResult{Descriptor: &splist.Descriptor{HasRowLimit: true, RowLimit: 50}}, "all fields, row limit 50"},
		{"fields", splist.ThreadResult{Descriptor: &splist.Descriptor{HasViewFields: true, FieldCount: 12}}, "12 fields, no row limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeQuery(tt.thread); got != tt.want {
				t.Errorf("describeQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderFindings(t *testing.T) {
	out := RenderFindings(sampleResults(), 200)
	if !strings.Contains(out, "no RowFilter specified") {
		t.Errorf("unbounded section missing:\n%s", out)
	}
	if !strings.Contains(out, "could not be parsed") {
		t.Errorf("malformed section missing:\n%s", out)
	}
	if strings.Contains(out, "requesting ALL fields") {
		t.Errorf("empty wildcard section rendered:\n%s", out)
	}

	clean := RenderFindings([]*splist.Result{{Dump: "clean.dmp"}}, 80)
	if !strings.Contains(clean, "No problems found") {
		t.Errorf("clean dump output = %q", clean)
	}
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary([]*splist.Result{{Dump: "clean.dmp", ThreadsScanned: 3}}, 80, 30)
	if !strings.Contains(out, "No problematic SPList queries found") {
		t.Errorf("clean summary = %q", out)
	}

	out = RenderSummary(sampleResults(), 80, 30)
	if strings.Contains(out, "No problematic") {
		t.Errorf("summary with findings reported clean:\n%s", out)
	}
}

func TestProgramProgress(t *testing.T) {
	var msgs []progressMsg
	p := &programProgress{
		send:    func(msg tea.Msg) { msgs = append(msgs, msg.(progressMsg)) },
		dump:    "a.dmp",
		lastPct: -1,
	}

	p.SetOverallRange(0, 2)
	p.SetOverall(1, "Analyzing threads")
	p.SetCurrentRange(0, 1000)
	for i := 1; i <= 1000; i++ {
		p.SetCurrent(i, "Analyzing Thread")
	}
	p.SetOverall(2, "Generating Report")

	// 0..100 percent plus the two phase changes
	if len(msgs) != 103 {
		t.Errorf("sent %d messages, want 103", len(msgs))
	}

	last := msgs[len(msgs)-1]
	if last.dump != "a.dmp" || last.state.phase != "Generating Report" || last.state.fraction() != 1 {
		t.Errorf("last message = %+v", last)
	}
}

func TestRunModel(t *testing.T) {
	m := newRunModel([]string{"a.dmp"})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m.Update(progressMsg{dump: "a.dmp", state: dumpProgress{overall: 1, overallMax: 2, phase: "Analyzing threads", current: 5, currentMax: 10}})

	if view := m.View(); !strings.Contains(view, "[1/2] Analyzing threads") {
		t.Errorf("progress view = %q", view)
	}

	m.Update(doneMsg{results: sampleResults()})
	if m.browser == nil {
		t.Fatal("done did not open the browser")
	}
	if !strings.Contains(m.View(), "Summary") {
		t.Error("browser header missing")
	}
}

func TestRunModelError(t *testing.T) {
	m := newRunModel([]string{"a.dmp"})
	boom := errors.New("boom")

	_, cmd := m.Update(doneMsg{err: boom})
	if !errors.Is(m.err, boom) {
		t.Errorf("err = %v", m.err)
	}
	if cmd == nil {
		t.Error("error did not quit")
	}
}

func TestRunModelQuitCancelsWork(t *testing.T) {
	m := newRunModel([]string{"a.dmp"})
	cancelled := false
	m.cancel = func() { cancelled = true }

	_, cmd := m.Update(keyRunes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if !m.aborted || !cancelled {
		t.Errorf("aborted = %v, cancelled = %v; want both", m.aborted, cancelled)
	}
	if !strings.Contains(m.View(), "Analyzing dumps") {
		t.Errorf("progress heading = %q", m.View())
	}
}
