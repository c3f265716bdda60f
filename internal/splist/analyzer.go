package splist

import (
	"fmt"
	"log/slog"

	"github.com/mabhi256/hangdiag/internal/snapshot"
)

// ThreadResult is the outcome for one thread that hit the signature frame.
type ThreadResult struct {
	ThreadID         int
	Frames           []snapshot.Frame
	SignatureIndex   int
	QueryObjectFound bool
	Descriptor       *Descriptor // nil when there was nothing to classify
	Err              error       // wraps ErrMalformedDescriptor
	Classification   Classification
}

type Result struct {
	Dump           string
	Path           string
	Rule           Rule
	ThreadsScanned int
	Threads        []ThreadResult
	Findings       Findings
}

// MalformedThreads lists threads whose descriptor could not be parsed.
func (r *Result) MalformedThreads() []int {
	var ids []int
	for _, t := range r.Threads {
		if t.Err != nil {
			ids = append(ids, t.ThreadID)
		}
	}
	return ids
}

type Analyzer struct {
	rule      Rule
	logger    *slog.Logger
	highlight string
	title     string
}

type Option func(*Analyzer)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithHighlightColor sets the font color of the signature line in stacks.
func WithHighlightColor(color string) Option {
	return func(a *Analyzer) {
		if color != "" {
			a.highlight = color
		}
	}
}

// WithTitle overrides the report heading, which defaults to the dump name.
func WithTitle(title string) Option {
	return func(a *Analyzer) {
		a.title = title
	}
}

func NewAnalyzer(rule Rule, opts ...Option) *Analyzer {
	a := &Analyzer{
		rule:      rule,
		logger:    slog.New(slog.DiscardHandler),
		highlight: "red",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Analyzer) Rule() Rule {
	return a.rule
}

// Run analyzes every thread of the snapshot in order, writing per-thread
// blocks as it goes and the category summaries at the end. progress may be nil.
// Only sink failures are returned as errors.
func (a *Analyzer) Run(snap *snapshot.Snapshot, sink Sink, progress Progress) (*Result, error) {
	if progress == nil {
		progress = nopProgress{}
	}

	rep := &reporter{sink: sink, signature: a.rule.SignatureFrame, highlight: a.highlight}
	result := &Result{
		Dump:           snap.Name,
		Path:           snap.Path,
		Rule:           a.rule,
		ThreadsScanned: len(snap.Threads),
	}

	progress.SetOverallRange(0, 2)

	title := a.title
	if title == "" {
		title = snap.Name
	}
	if err := rep.heading(title); err != nil {
		return nil, fmt.Errorf("failed to write report heading: %w", err)
	}

	progress.SetOverall(1, "Analyzing threads")
	progress.SetCurrentRange(0, len(snap.Threads))

	for i, thread := range snap.Threads {
		progress.SetCurrent(i+1, fmt.Sprintf("Analyzing Thread %d", thread.ID))

		tr, matched, err := a.analyzeThread(thread, rep, &result.Findings)
		if err != nil {
			return nil, fmt.Errorf("failed to write report for thread %d: %w", thread.ID, err)
		}
		if matched {
			result.Threads = append(result.Threads, tr)
		}
	}

	progress.SetOverall(2, "Generating Report")
	if err := rep.aggregate(&result.Findings); err != nil {
		return nil, fmt.Errorf("failed to write report summary: %w", err)
	}

	a.logger.Debug("splist analysis complete",
		"dump", snap.Name,
		"threads", result.ThreadsScanned,
		"matched", len(result.Threads),
		"large", len(result.Findings.LargeQueries),
		"wildcard", len(result.Findings.WildcardQueries),
		"unbounded", len(result.Findings.UnboundedQueries),
	)

	return result, nil
}

// analyzeThread returns matched=false for threads without the signature frame.
// The error is a sink failure only.
func (a *Analyzer) analyzeThread(thread *snapshot.Thread, rep *reporter, findings *Findings) (ThreadResult, bool, error) {
	idx := signatureIndex(thread.Frames, a.rule.SignatureFrame)
	if idx < 0 {
		return ThreadResult{}, false, nil
	}

	tr := ThreadResult{
		ThreadID:       thread.ID,
		Frames:         thread.Frames,
		SignatureIndex: idx,
	}
	a.logger.Debug("thread in SPList fill", "thread", thread.ID, "frame", idx)

	if err := rep.threadHeading(thread.ID); err != nil {
		return tr, true, err
	}

	obj, found := LocateQueryObject(thread, a.rule.QueryShape)
	tr.QueryObjectFound = found

	if found {
		d, err := ExtractDescriptor(obj, a.rule)
		switch {
		case err != nil:
			tr.Err = err
			a.logger.Warn("skipping malformed SPQuery", "thread", thread.ID, "error", err)
			if err := rep.malformed(thread.ID, err); err != nil {
				return tr, true, err
			}
		case d != nil:
			tr.Descriptor = d
			tr.Classification = findings.Classify(thread.ID, d, a.rule.MaxViewFields)
			if d.HasViewFields {
				if err := rep.fieldTable(d.Fields); err != nil {
					return tr, true, err
				}
			}
			if err := rep.descriptor(d); err != nil {
				return tr, true, err
			}
		}
	}

	if err := rep.stack(thread.Frames); err != nil {
		return tr, true, err
	}
	return tr, true, nil
}
