package registry

import (
	"cmp"
	"slices"

	"github.com/mabhi256/hangdiag/internal/heap/model"
)

type ThreadInfo struct {
	StartRecord *model.StartThreadBody
	ThreadName  string // Resolved from string table
}

// ThreadRegistry tracks START_THREAD records and the JAVA_FRAME roots owned by
// each thread.
type ThreadRegistry struct {
	threadsBySerial map[model.SerialNum]*ThreadInfo
	frameRoots      map[model.SerialNum][]model.GCRootJavaFrame
}

func NewThreadRegistry() *ThreadRegistry {
	return &ThreadRegistry{
		threadsBySerial: make(map[model.SerialNum]*ThreadInfo),
		frameRoots:      make(map[model.SerialNum][]model.GCRootJavaFrame),
	}
}

func (tr *ThreadRegistry) StartThread(thread *model.StartThreadBody, stringReg *StringRegistry) {
	tr.threadsBySerial[thread.ThreadSerialNumber] = &ThreadInfo{
		StartRecord: thread,
		ThreadName:  stringReg.GetOrUnresolved(thread.ThreadNameID),
	}
}

// AddThreadObject registers a thread known only from a ROOT_THREAD_OBJ record.
// Dumps written by jmap carry these instead of START_THREAD records.
func (tr *ThreadRegistry) AddThreadObject(root model.GCRootThreadObject) {
	if _, exists := tr.threadsBySerial[root.ThreadSerialNumber]; exists {
		return
	}
	tr.threadsBySerial[root.ThreadSerialNumber] = &ThreadInfo{
		StartRecord: &model.StartThreadBody{
			ThreadSerialNumber:     root.ThreadSerialNumber,
			ThreadObjectID:         root.ThreadObjectID,
			StackTraceSerialNumber: root.StackTraceSerialNumber,
		},
	}
}

func (tr *ThreadRegistry) AddFrameRoot(root model.GCRootJavaFrame) {
	tr.frameRoots[root.ThreadSerialNumber] = append(tr.frameRoots[root.ThreadSerialNumber], root)
}

// FrameRoots returns the thread's stack roots ordered innermost frame first.
// Roots with an unknown frame sort last; ties keep record order.
func (tr *ThreadRegistry) FrameRoots(serial model.SerialNum) []model.GCRootJavaFrame {
	roots := slices.Clone(tr.frameRoots[serial])
	slices.SortStableFunc(roots, func(a, b model.GCRootJavaFrame) int {
		return cmp.Compare(frameOrder(a.FrameNumber), frameOrder(b.FrameNumber))
	})
	return roots
}

// Threads returns all threads ordered by serial number.
func (tr *ThreadRegistry) Threads() []*ThreadInfo {
	threads := make([]*ThreadInfo, 0, len(tr.threadsBySerial))
	for _, info := range tr.threadsBySerial {
		threads = append(threads, info)
	}
	slices.SortFunc(threads, func(a, b *ThreadInfo) int {
		return cmp.Compare(a.StartRecord.ThreadSerialNumber, b.StartRecord.ThreadSerialNumber)
	})
	return threads
}

func (tr *ThreadRegistry) Count() int {
	return len(tr.threadsBySerial)
}

func frameOrder(frame int32) int64 {
	if frame < 0 {
		return int64(^uint32(0)) + 1
	}
	return int64(frame)
}
