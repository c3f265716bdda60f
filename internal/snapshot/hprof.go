package snapshot

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"

	"github.com/mabhi256/hangdiag/internal/heap/model"
	"github.com/mabhi256/hangdiag/internal/heap/parser"
	"github.com/mabhi256/hangdiag/internal/heap/registry"
)

func loadHprof(path string) (*Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open heap dump: %w", err)
	}
	defer file.Close()

	heap, err := parser.Parse(bufio.NewReaderSize(file, 1<<20), slog.Default().With("dump", path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse heap dump %s: %w", path, err)
	}
	return FromHeap(ShortName(path), path, heap), nil
}

// FromHeap builds a snapshot from a parsed HPROF dump. Thread IDs are thread
// serial numbers, frame addresses are stack frame IDs and the objects of a
// thread are the ones rooted in its Java frames.
func FromHeap(name, path string, heap *registry.HeapRegistries) *Snapshot {
	snap := &Snapshot{Name: name, Path: path}

	for _, info := range heap.Threads.Threads() {
		serial := info.StartRecord.ThreadSerialNumber
		thread := &Thread{
			ID:      int(serial),
			Objects: &heapObjects{heap: heap, roots: heap.Threads.FrameRoots(serial)},
		}

		if trace, ok := heap.Stack.GetTrace(info.StartRecord.StackTraceSerialNumber); ok {
			thread.Frames = make([]Frame, 0, len(trace.StackFrameIDs))
			for _, frameID := range trace.StackFrameIDs {
				thread.Frames = append(thread.Frames, Frame{
					Function: frameFunction(heap, frameID),
					Address:  uint64(frameID),
				})
			}
		}
		snap.Threads = append(snap.Threads, thread)
	}

	return snap
}

func frameFunction(heap *registry.HeapRegistries, frameID model.ID) string {
	frame, ok := heap.Stack.GetFrame(frameID)
	if !ok {
		return fmt.Sprintf("unresolved_frame_0x%x", uint64(frameID))
	}
	return heap.FrameFunction(frame)
}

type heapObjects struct {
	heap  *registry.HeapRegistries
	roots []model.GCRootJavaFrame
}

func (o *heapObjects) FindFirstOfShape(shape string) (Object, bool) {
	for _, root := range o.roots {
		instance, ok := o.heap.Objects.GetInstance(root.ObjectID)
		if !ok {
			continue
		}
		if o.heap.ClassName(instance) == shape {
			return &heapObject{heap: o.heap, instance: instance}, true
		}
	}
	return nil, false
}

type heapObject struct {
	heap     *registry.HeapRegistries
	instance *model.GCInstanceDump
}

func (o *heapObject) Shape() string {
	return o.heap.ClassName(o.instance)
}

func (o *heapObject) StringField(path string) (string, bool) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return "", false
	}

	current := o.instance
	for _, part := range parts {
		ref, ok := o.heap.Objects.ReferenceField(current, part, o.heap.Strings)
		if !ok {
			return "", false
		}
		current, ok = o.heap.Objects.GetInstance(ref)
		if !ok {
			return "", false
		}
	}

	if o.heap.ClassName(current) != registry.StringClassName {
		return "", false
	}
	value, err := o.heap.Objects.DecodeString(current, o.heap.Strings)
	if err != nil {
		return "", false
	}
	return value, true
}
