package splist

import (
	"strings"

	"github.com/mabhi256/hangdiag/internal/snapshot"
)

// ContainsFrame reports whether any frame's function name contains name.
func ContainsFrame(thread *snapshot.Thread, name string) bool {
	return signatureIndex(thread.Frames, name) >= 0
}

// signatureIndex returns the index of the first frame containing name, or -1.
func signatureIndex(frames []snapshot.Frame, name string) int {
	for i, frame := range frames {
		if strings.Contains(frame.Function, name) {
			return i
		}
	}
	return -1
}

// LocateQueryObject returns the first object of the given shape reachable from
// the thread's stack. Only one object is ever considered per thread.
func LocateQueryObject(thread *snapshot.Thread, shape string) (snapshot.Object, bool) {
	return thread.FindFirstOfShape(shape)
}
