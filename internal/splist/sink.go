package splist

import (
	"fmt"
	"io"
)

// Sink receives the rich-text report. Any error aborts the run.
type Sink interface {
	Write(s string) error
	WriteLine(s string) error
	ReportWarning(message, category string) error
}

// Progress observes the run. Overall covers the two phases; current counts
// threads within the analysis phase.
type Progress interface {
	SetOverallRange(min, max int)
	SetOverall(position int, status string)
	SetCurrentRange(min, max int)
	SetCurrent(position int, status string)
}

type nopProgress struct{}

func (nopProgress) SetOverallRange(int, int) {}
func (nopProgress) SetOverall(int, string)   {}
func (nopProgress) SetCurrentRange(int, int) {}
func (nopProgress) SetCurrent(int, string)   {}

// Warning is a structured report entry.
type Warning struct {
	Message  string
	Category string
}

// TextSink writes the report body to w and keeps warnings in memory. Warnings
// are written to w as well, prefixed with "WARNING".
type TextSink struct {
	w        io.Writer
	Warnings []Warning
}

func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: w}
}

func (s *TextSink) Write(text string) error {
	_, err := io.WriteString(s.w, text)
	return err
}

func (s *TextSink) WriteLine(text string) error {
	_, err := io.WriteString(s.w, text+"\n")
	return err
}

func (s *TextSink) ReportWarning(message, category string) error {
	s.Warnings = append(s.Warnings, Warning{Message: message, Category: category})
	if category != "" {
		_, err := fmt.Fprintf(s.w, "WARNING [%s]: %s\n", category, message)
		return err
	}
	_, err := fmt.Fprintf(s.w, "WARNING: %s\n", message)
	return err
}
