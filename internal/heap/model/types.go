package model

import (
	"fmt"
	"time"
)

type ID uint64        // Object or record identifier, 4 or 8 bytes depending on the dump
type SerialNum uint32 // u4, just a counter

type HProfTagRecord byte

const (
	// top-level records
	HPROF_UTF8             HProfTagRecord = 0x01
	HPROF_LOAD_CLASS       HProfTagRecord = 0x02
	HPROF_UNLOAD_CLASS     HProfTagRecord = 0x03
	HPROF_FRAME            HProfTagRecord = 0x04
	HPROF_TRACE            HProfTagRecord = 0x05
	HPROF_ALLOC_SITES      HProfTagRecord = 0x06
	HPROF_HEAP_SUMMARY     HProfTagRecord = 0x07
	HPROF_START_THREAD     HProfTagRecord = 0x0A
	HPROF_END_THREAD       HProfTagRecord = 0x0B
	HPROF_HEAP_DUMP        HProfTagRecord = 0x0C
	HPROF_CPU_SAMPLES      HProfTagRecord = 0x0D
	HPROF_CONTROL_SETTINGS HProfTagRecord = 0x0E

	// 1.0.2 record types
	HPROF_HEAP_DUMP_SEGMENT HProfTagRecord = 0x1C
	HPROF_HEAP_DUMP_END     HProfTagRecord = 0x2C
)

func (h HProfTagRecord) String() string {
	switch h {
	case HPROF_UTF8:
		return "UTF8"
	case HPROF_LOAD_CLASS:
		return "LOAD_CLASS"
	case HPROF_UNLOAD_CLASS:
		return "UNLOAD_CLASS"
	case HPROF_FRAME:
		return "STACK_FRAME"
	case HPROF_TRACE:
		return "STACK_TRACE"
	case HPROF_ALLOC_SITES:
		return "ALLOC_SITES"
	case HPROF_HEAP_SUMMARY:
		return "HEAP_SUMMARY"
	case HPROF_START_THREAD:
		return "START_THREAD"
	case HPROF_END_THREAD:
		return "END_THREAD"
	case HPROF_HEAP_DUMP:
		return "HEAP_DUMP"
	case HPROF_CPU_SAMPLES:
		return "CPU_SAMPLES"
	case HPROF_CONTROL_SETTINGS:
		return "CONTROL_SETTINGS"
	case HPROF_HEAP_DUMP_SEGMENT:
		return "HEAP_DUMP_SEGMENT"
	case HPROF_HEAP_DUMP_END:
		return "HEAP_DUMP_END"
	default:
		return fmt.Sprintf("HProfTagRecord(0x%02X)", byte(h))
	}
}

type HProfTagFieldType byte

const (
	HPROF_ARRAY_OBJECT  HProfTagFieldType = 0x01
	HPROF_NORMAL_OBJECT HProfTagFieldType = 0x02
	HPROF_BOOLEAN       HProfTagFieldType = 0x04
	HPROF_CHAR          HProfTagFieldType = 0x05
	HPROF_FLOAT         HProfTagFieldType = 0x06
	HPROF_DOUBLE        HProfTagFieldType = 0x07
	HPROF_BYTE          HProfTagFieldType = 0x08
	HPROF_SHORT         HProfTagFieldType = 0x09
	HPROF_INT           HProfTagFieldType = 0x0A
	HPROF_LONG          HProfTagFieldType = 0x0B
)

// Size returns the encoded width of a value of this type, 0 for unknown types.
func (ft HProfTagFieldType) Size(identifierSize uint32) int {
	switch ft {
	case HPROF_BOOLEAN, HPROF_BYTE:
		return 1
	case HPROF_CHAR, HPROF_SHORT:
		return 2
	case HPROF_INT, HPROF_FLOAT:
		return 4
	case HPROF_LONG, HPROF_DOUBLE:
		return 8
	case HPROF_NORMAL_OBJECT, HPROF_ARRAY_OBJECT:
		return int(identifierSize)
	default:
		return 0
	}
}

func (ft HProfTagFieldType) IsReference() bool {
	return ft == HPROF_NORMAL_OBJECT || ft == HPROF_ARRAY_OBJECT
}

type HProfTagSubRecord byte

const (
	HPROF_GC_ROOT_UNKNOWN      HProfTagSubRecord = 0xFF
	HPROF_GC_ROOT_JNI_GLOBAL   HProfTagSubRecord = 0x01
	HPROF_GC_ROOT_JNI_LOCAL    HProfTagSubRecord = 0x02
	HPROF_GC_ROOT_JAVA_FRAME   HProfTagSubRecord = 0x03
	HPROF_GC_ROOT_NATIVE_STACK HProfTagSubRecord = 0x04
	HPROF_GC_ROOT_STICKY_CLASS HProfTagSubRecord = 0x05
	HPROF_GC_ROOT_THREAD_BLOCK HProfTagSubRecord = 0x06
	HPROF_GC_ROOT_MONITOR_USED HProfTagSubRecord = 0x07
	HPROF_GC_ROOT_THREAD_OBJ   HProfTagSubRecord = 0x08
	HPROF_GC_CLASS_DUMP        HProfTagSubRecord = 0x20
	HPROF_GC_INSTANCE_DUMP     HProfTagSubRecord = 0x21
	HPROF_GC_OBJ_ARRAY_DUMP    HProfTagSubRecord = 0x22
	HPROF_GC_PRIM_ARRAY_DUMP   HProfTagSubRecord = 0x23
)

func (s HProfTagSubRecord) String() string {
	switch s {
	case HPROF_GC_ROOT_UNKNOWN:
		return "ROOT_UNKNOWN"
	case HPROF_GC_ROOT_JNI_GLOBAL:
		return "ROOT_JNI_GLOBAL"
	case HPROF_GC_ROOT_JNI_LOCAL:
		return "ROOT_JNI_LOCAL"
	case HPROF_GC_ROOT_JAVA_FRAME:
		return "ROOT_JAVA_FRAME"
	case HPROF_GC_ROOT_NATIVE_STACK:
		return "ROOT_NATIVE_STACK"
	case HPROF_GC_ROOT_STICKY_CLASS:
		return "ROOT_STICKY_CLASS"
	case HPROF_GC_ROOT_THREAD_BLOCK:
		return "ROOT_THREAD_BLOCK"
	case HPROF_GC_ROOT_MONITOR_USED:
		return "ROOT_MONITOR_USED"
	case HPROF_GC_ROOT_THREAD_OBJ:
		return "ROOT_THREAD_OBJ"
	case HPROF_GC_CLASS_DUMP:
		return "CLASS_DUMP"
	case HPROF_GC_INSTANCE_DUMP:
		return "INSTANCE_DUMP"
	case HPROF_GC_OBJ_ARRAY_DUMP:
		return "OBJ_ARRAY_DUMP"
	case HPROF_GC_PRIM_ARRAY_DUMP:
		return "PRIM_ARRAY_DUMP"
	default:
		return fmt.Sprintf("HProfTagSubRecord(0x%02X)", byte(s))
	}
}

// EmptyFrame marks a root whose frame is unknown.
const EmptyFrame int32 = -1

const HprofFormat = "JAVA PROFILE 1.0.2"

type HprofHeader struct {
	Format         string    // Typically "JAVA PROFILE 1.0.2"
	IdentifierSize uint32    // u4 size of object IDs
	Timestamp      time.Time // u4 + u4, milliseconds since 0:00 GMT, 1/1/70
}

type HprofRecord struct {
	Type       HProfTagRecord // u1 tag
	TimeOffset uint32         // u4 - microseconds since header timestamp
	Length     uint32         // u4 bytes remaining (excludes tag+length)
}
