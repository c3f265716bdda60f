// Package hproftest builds small HPROF dumps in memory for tests.
package hproftest

import (
	"bytes"
	"encoding/binary"
	"strings"
	"unicode/utf16"

	"github.com/mabhi256/hangdiag/internal/heap/model"
)

// Field declares an instance field of a class dump.
type Field struct {
	Name string
	Type model.HProfTagFieldType
}

// Frame is one stack frame, innermost first when passed to Thread.
type Frame struct {
	Class  string
	Method string
}

type loadedClass struct {
	serial   uint32
	objectID model.ID
}

// Builder accumulates top-level records and heap sub-records and renders them
// as a single dump. IDs are allocated sequentially starting at 0x1000.
type Builder struct {
	idSize  int
	records bytes.Buffer
	heap    bytes.Buffer
	nextID  uint64
	serial  uint32
	names   map[string]model.ID
	classes map[string]loadedClass

	// JDK8 strings use a char[] value; compact strings use byte[] plus coder.
	CharArrayStrings bool
	stringClass      model.ID
}

func New(idSize int) *Builder {
	return &Builder{
		idSize:  idSize,
		nextID:  0x1000,
		names:   make(map[string]model.ID),
		classes: make(map[string]loadedClass),
	}
}

func (b *Builder) ID() model.ID {
	b.nextID += 8
	return model.ID(b.nextID)
}

// Name interns a UTF8 record.
func (b *Builder) Name(s string) model.ID {
	if id, ok := b.names[s]; ok {
		return id
	}
	id := b.ID()
	body := b.id(id)
	body = append(body, s...)
	b.record(model.HPROF_UTF8, body)
	b.names[s] = id
	return id
}

func (b *Builder) loadClass(name string) loadedClass {
	if c, ok := b.classes[name]; ok {
		return c
	}
	nameID := b.Name(name)
	b.serial++
	c := loadedClass{serial: b.serial, objectID: b.ID()}

	var body []byte
	body = binary.BigEndian.AppendUint32(body, c.serial)
	body = append(body, b.id(c.objectID)...)
	body = binary.BigEndian.AppendUint32(body, 0)
	body = append(body, b.id(nameID)...)
	b.record(model.HPROF_LOAD_CLASS, body)

	b.classes[name] = c
	return c
}

// Class writes LOAD_CLASS and CLASS_DUMP records and returns the class object ID.
// Names use the dotted form; they are stored with slashes as the JVM does.
func (b *Builder) Class(name string, super model.ID, fields ...Field) model.ID {
	for i := range fields {
		b.Name(fields[i].Name)
	}
	c := b.loadClass(internalName(name))

	h := &b.heap
	h.WriteByte(byte(model.HPROF_GC_CLASS_DUMP))
	h.Write(b.id(c.objectID))
	h.Write(u4(0))
	h.Write(b.id(super))
	for range 5 {
		h.Write(b.id(0))
	}
	h.Write(u4(uint32(b.instanceSize(fields))))

	// one constant pool entry and one static field, both skipped by the reader
	h.Write(u2(1))
	h.Write(u2(7))
	h.WriteByte(byte(model.HPROF_INT))
	h.Write(u4(42))
	h.Write(u2(1))
	h.Write(b.id(b.Name("serialVersionUID")))
	h.WriteByte(byte(model.HPROF_LONG))
	h.Write(make([]byte, 8))

	h.Write(u2(uint16(len(fields))))
	for _, f := range fields {
		h.Write(b.id(b.names[f.Name]))
		h.WriteByte(byte(f.Type))
	}
	return c.objectID
}

// Instance writes an INSTANCE_DUMP. Values must follow the field layout:
// declared fields first, then superclass fields.
func (b *Builder) Instance(classID model.ID, values ...[]byte) model.ID {
	objectID := b.ID()
	data := bytes.Join(values, nil)

	h := &b.heap
	h.WriteByte(byte(model.HPROF_GC_INSTANCE_DUMP))
	h.Write(b.id(objectID))
	h.Write(u4(0))
	h.Write(b.id(classID))
	h.Write(u4(uint32(len(data))))
	h.Write(data)
	return objectID
}

// PrimitiveArray writes a PRIM_ARRAY_DUMP with already encoded elements.
func (b *Builder) PrimitiveArray(elementType model.HProfTagFieldType, length int, elements []byte) model.ID {
	objectID := b.ID()
	h := &b.heap
	h.WriteByte(byte(model.HPROF_GC_PRIM_ARRAY_DUMP))
	h.Write(b.id(objectID))
	h.Write(u4(0))
	h.Write(u4(uint32(length)))
	h.WriteByte(byte(elementType))
	h.Write(elements)
	return objectID
}

// ObjectArray writes an OBJ_ARRAY_DUMP, which the reader skips.
func (b *Builder) ObjectArray(elements ...model.ID) model.ID {
	objectID := b.ID()
	h := &b.heap
	h.WriteByte(byte(model.HPROF_GC_OBJ_ARRAY_DUMP))
	h.Write(b.id(objectID))
	h.Write(u4(0))
	h.Write(u4(uint32(len(elements))))
	h.Write(b.id(0))
	for _, e := range elements {
		h.Write(b.id(e))
	}
	return objectID
}

// String writes a java.lang.String instance and its value array.
func (b *Builder) String(text string) model.ID {
	if b.stringClass == 0 {
		fields := []Field{{Name: "value", Type: model.HPROF_NORMAL_OBJECT}}
		if !b.CharArrayStrings {
			fields = append(fields, Field{Name: "coder", Type: model.HPROF_BYTE})
		}
		fields = append(fields, Field{Name: "hash", Type: model.HPROF_INT})
		b.stringClass = b.Class("java.lang.String", 0, fields...)
	}

	if b.CharArrayStrings {
		units := utf16Units(text)
		var elements []byte
		for _, u := range units {
			elements = binary.BigEndian.AppendUint16(elements, u)
		}
		array := b.PrimitiveArray(model.HPROF_CHAR, len(units), elements)
		return b.Instance(b.stringClass, b.Ref(array), u4(0))
	}

	if latin1, ok := toLatin1(text); ok {
		array := b.PrimitiveArray(model.HPROF_BYTE, len(latin1), latin1)
		return b.Instance(b.stringClass, b.Ref(array), []byte{0}, u4(0))
	}
	units := utf16Units(text)
	var elements []byte
	for _, u := range units {
		elements = binary.LittleEndian.AppendUint16(elements, u)
	}
	array := b.PrimitiveArray(model.HPROF_BYTE, len(elements), elements)
	return b.Instance(b.stringClass, b.Ref(array), []byte{1}, u4(0))
}

// Thread writes FRAME, TRACE and START_THREAD records plus a THREAD_OBJ root.
func (b *Builder) Thread(threadSerial uint32, name string, frames ...Frame) {
	traceSerial := threadSerial + 1000
	frameIDs := make([]model.ID, len(frames))
	for i, f := range frames {
		methodID := b.Name(f.Method)
		sigID := b.Name("()V")
		c := b.loadClass(internalName(f.Class))
		frameIDs[i] = b.ID()

		var body []byte
		body = append(body, b.id(frameIDs[i])...)
		body = append(body, b.id(methodID)...)
		body = append(body, b.id(sigID)...)
		body = append(body, b.id(0)...)
		body = binary.BigEndian.AppendUint32(body, c.serial)
		body = binary.BigEndian.AppendUint32(body, ^uint32(0)) // line number -1
		b.record(model.HPROF_FRAME, body)
	}

	var trace []byte
	trace = binary.BigEndian.AppendUint32(trace, traceSerial)
	trace = binary.BigEndian.AppendUint32(trace, threadSerial)
	trace = binary.BigEndian.AppendUint32(trace, uint32(len(frameIDs)))
	for _, id := range frameIDs {
		trace = append(trace, b.id(id)...)
	}
	b.record(model.HPROF_TRACE, trace)

	threadObject := b.ID()
	if name != "" {
		nameID := b.Name(name)
		var start []byte
		start = binary.BigEndian.AppendUint32(start, threadSerial)
		start = append(start, b.id(threadObject)...)
		start = binary.BigEndian.AppendUint32(start, traceSerial)
		start = append(start, b.id(nameID)...)
		start = append(start, b.id(0)...)
		start = append(start, b.id(0)...)
		b.record(model.HPROF_START_THREAD, start)
	}

	h := &b.heap
	h.WriteByte(byte(model.HPROF_GC_ROOT_THREAD_OBJ))
	h.Write(b.id(threadObject))
	h.Write(u4(threadSerial))
	h.Write(u4(traceSerial))
}

// FrameRoot writes a ROOT_JAVA_FRAME for an object held by a thread's frame.
func (b *Builder) FrameRoot(threadSerial uint32, frame int32, objectID model.ID) {
	h := &b.heap
	h.WriteByte(byte(model.HPROF_GC_ROOT_JAVA_FRAME))
	h.Write(b.id(objectID))
	h.Write(u4(threadSerial))
	h.Write(u4(uint32(frame)))
}

// StickyClassRoot writes a root kind the reader skips.
func (b *Builder) StickyClassRoot(objectID model.ID) {
	b.heap.WriteByte(byte(model.HPROF_GC_ROOT_STICKY_CLASS))
	b.heap.Write(b.id(objectID))
}

// Ref encodes an object reference field value.
func (b *Builder) Ref(id model.ID) []byte {
	return b.id(id)
}

// Bytes renders the header, the top-level records, one heap dump segment and
// the HEAP_DUMP_END record.
func (b *Builder) Bytes() []byte {
	var out bytes.Buffer
	out.WriteString(model.HprofFormat)
	out.WriteByte(0)
	out.Write(u4(uint32(b.idSize)))
	out.Write(make([]byte, 8))
	out.Write(b.records.Bytes())

	writeRecord(&out, model.HPROF_HEAP_DUMP_SEGMENT, b.heap.Bytes())
	writeRecord(&out, model.HPROF_HEAP_DUMP_END, nil)
	return out.Bytes()
}

func (b *Builder) record(tag model.HProfTagRecord, body []byte) {
	writeRecord(&b.records, tag, body)
}

func (b *Builder) id(id model.ID) []byte {
	if b.idSize == 4 {
		return u4(uint32(id))
	}
	return binary.BigEndian.AppendUint64(nil, uint64(id))
}

func (b *Builder) instanceSize(fields []Field) int {
	size := 0
	for _, f := range fields {
		size += f.Type.Size(uint32(b.idSize))
	}
	return size
}

func writeRecord(out *bytes.Buffer, tag model.HProfTagRecord, body []byte) {
	out.WriteByte(byte(tag))
	out.Write(u4(0))
	out.Write(u4(uint32(len(body))))
	out.Write(body)
}

func u2(v uint16) []byte { return binary.BigEndian.AppendUint16(nil, v) }
func u4(v uint32) []byte { return binary.BigEndian.AppendUint32(nil, v) }

// U4 encodes an int field value.
func U4(v uint32) []byte { return u4(v) }

func internalName(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}

func utf16Units(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

func toLatin1(s string) ([]byte, bool) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			return nil, false
		}
		out = append(out, byte(r))
	}
	return out, true
}
