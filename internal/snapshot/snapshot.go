// Package snapshot models a captured, read-only view of a hung process: its
// threads, their call stacks and the objects reachable from each stack.
package snapshot

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported snapshot format")
	ErrNoThreads         = errors.New("snapshot contains no threads")
)

// Snapshot is immutable once loaded.
type Snapshot struct {
	Name    string // short name of the dump, used as the report title
	Path    string
	Threads []*Thread
}

type Thread struct {
	ID      int
	Frames  []Frame
	Objects ObjectSource
}

type Frame struct {
	Function string
	Address  uint64
}

// ObjectSource locates objects reachable from a thread's stack by their runtime
// type name. Implementations return the first match in stack order.
type ObjectSource interface {
	FindFirstOfShape(shape string) (Object, bool)
}

// Object is an opaque object located in the snapshot.
type Object interface {
	Shape() string
	// StringField resolves a dot-separated field path ("m_Query.m_strViewXml")
	// to a string value. Missing fields and null references report false.
	StringField(path string) (string, bool)
}

// FindFirstOfShape returns the first stack-reachable object of the given shape.
func (t *Thread) FindFirstOfShape(shape string) (Object, bool) {
	if t.Objects == nil {
		return nil, false
	}
	return t.Objects.FindFirstOfShape(shape)
}

// FrameCount returns the number of frames across all threads.
func (s *Snapshot) FrameCount() int {
	total := 0
	for _, thread := range s.Threads {
		total += len(thread.Frames)
	}
	return total
}

// ShortName derives a dump short name from a file path.
func ShortName(path string) string {
	return filepath.Base(path)
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}
