package registry

import "github.com/mabhi256/hangdiag/internal/heap/model"

// HeapRegistries groups everything the parser collects from one dump.
type HeapRegistries struct {
	Header  *model.HprofHeader
	Strings *StringRegistry
	Classes *ClassRegistry
	Stack   *StackRegistry
	Threads *ThreadRegistry
	Objects *ObjectRegistry
}

func NewHeapRegistries() *HeapRegistries {
	return &HeapRegistries{
		Strings: NewStringRegistry(),
		Classes: NewClassRegistry(),
		Stack:   NewStackRegistry(),
		Threads: NewThreadRegistry(),
		Objects: NewObjectRegistry(),
	}
}

// ClassName resolves the class name of an instance.
func (h *HeapRegistries) ClassName(instance *model.GCInstanceDump) string {
	if info, ok := h.Classes.GetByObjectID(instance.ClassObjectID); ok {
		return info.Name
	}
	return ""
}

// FrameFunction renders a stack frame as "<class>.<method>".
func (h *HeapRegistries) FrameFunction(frame *model.FrameBody) string {
	method := h.Strings.GetOrUnresolved(frame.MethodNameID)
	info, ok := h.Classes.GetBySerial(frame.ClassSerialNumber)
	if !ok {
		return method
	}
	return info.Name + "." + method
}
