package splist

import (
	"fmt"
	"html"
	"strings"

	"github.com/mabhi256/hangdiag/internal/snapshot"
)

const (
	LargeQueriesMessage     = "The following threads appear to be executing SPList queries requesting many fields."
	WildcardQueriesMessage  = "The following threads appear to be executing SPList queries requesting ALL fields."
	UnboundedQueriesMessage = "The following threads appear to be executing SPList queries with no RowFilter specified."
)

// ThreadAnchor is the id of a thread's heading in the report body.
func ThreadAnchor(threadID int) string {
	return fmt.Sprintf("thread%d", threadID)
}

func threadLink(threadID int) string {
	return fmt.Sprintf("<a href='#%s'>%d</a>", ThreadAnchor(threadID), threadID)
}

// reporter renders the per-thread pass and the aggregate pass.
type reporter struct {
	sink      Sink
	signature string
	highlight string
}

func (r *reporter) heading(title string) error {
	return r.sink.WriteLine("<h1>" + html.EscapeString(title) + "</h1>")
}

func (r *reporter) threadHeading(threadID int) error {
	return r.sink.WriteLine(fmt.Sprintf("<a id='%s'><h3>Thread %d</h3></a>", ThreadAnchor(threadID), threadID))
}

func (r *reporter) fieldTable(fields []string) error {
	if err := r.sink.Write("<table border='1'><tr><td>Fields</td><td>"); err != nil {
		return err
	}
	for _, name := range fields {
		if err := r.sink.WriteLine(html.EscapeString(name)); err != nil {
			return err
		}
	}
	return r.sink.WriteLine("</td></tr></table>")
}

func (r *reporter) descriptor(d *Descriptor) error {
	return r.sink.WriteLine("SPQuery: <pre>" + html.EscapeString(d.Text) + "</pre>")
}

func (r *reporter) malformed(threadID int, err error) error {
	msg := fmt.Sprintf("The SPQuery executing on thread %d could not be parsed: %s", threadID, html.EscapeString(err.Error()))
	return r.sink.ReportWarning(msg, fmt.Sprintf("Thread %d", threadID))
}

func (r *reporter) stack(frames []snapshot.Frame) error {
	if err := r.sink.WriteLine("<pre>"); err != nil {
		return err
	}
	for _, frame := range frames {
		line := FormatFrame(frame, html.EscapeString)
		if strings.Contains(line, r.signature) {
			line = fmt.Sprintf("<font color='%s'>%s</font>", html.EscapeString(r.highlight), line)
		}
		if err := r.sink.WriteLine(line); err != nil {
			return err
		}
	}
	return r.sink.WriteLine("</pre>")
}

// FormatFrame renders a stack line as a 16-digit hex address and the function
// name, passed through escape.
func FormatFrame(frame snapshot.Frame, escape func(string) string) string {
	return fmt.Sprintf("%016x  %s", frame.Address, escape(frame.Function))
}

// aggregate writes one warning per non-empty category, in a fixed order.
func (r *reporter) aggregate(f *Findings) error {
	if len(f.LargeQueries) > 0 {
		var sb strings.Builder
		sb.WriteString(LargeQueriesMessage)
		sb.WriteString("<br/><ul>")
		for _, fc := range f.LargeQueries {
			fmt.Fprintf(&sb, "<li>%s (%d fields)</li>", threadLink(fc.ThreadID), fc.Count)
		}
		sb.WriteString("</ul>")
		if err := r.sink.ReportWarning(sb.String(), ""); err != nil {
			return err
		}
	}

	if len(f.WildcardQueries) > 0 {
		if err := r.sink.ReportWarning(linkList(WildcardQueriesMessage, f.WildcardQueries), ""); err != nil {
			return err
		}
	}

	if len(f.UnboundedQueries) > 0 {
		if err := r.sink.ReportWarning(linkList(UnboundedQueriesMessage, f.UnboundedQueries), ""); err != nil {
			return err
		}
	}

	return nil
}

func linkList(message string, threadIDs []int) string {
	links := make([]string, len(threadIDs))
	for i, id := range threadIDs {
		links[i] = threadLink(id)
	}
	return message + "<br/>" + strings.Join(links, ", ")
}
