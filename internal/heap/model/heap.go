package model

// HPROF_GC_ROOT_JAVA_FRAME: a local variable or operand held by a stack frame.
type GCRootJavaFrame struct {
	ObjectID           ID
	ThreadSerialNumber SerialNum
	FrameNumber        int32 // depth in the thread's trace, EmptyFrame when unknown
}

// HPROF_GC_ROOT_THREAD_OBJ
type GCRootThreadObject struct {
	ThreadObjectID         ID
	ThreadSerialNumber     SerialNum
	StackTraceSerialNumber SerialNum
}

// HPROF_GC_CLASS_DUMP. Only the parts needed to lay out instance data are kept;
// the constant pool and static values are consumed and dropped.
type ClassDump struct {
	ClassObjectID      ID
	SuperClassObjectID ID
	InstanceSize       uint32
	InstanceFields     []InstanceField
}

type InstanceField struct {
	NameID ID
	Type   HProfTagFieldType
}

// HPROF_GC_INSTANCE_DUMP
type GCInstanceDump struct {
	ObjectID      ID
	ClassObjectID ID
	InstanceData  []byte
}

// HPROF_GC_PRIM_ARRAY_DUMP
type GCPrimitiveArrayDump struct {
	ObjectID ID
	Length   uint32
	Type     HProfTagFieldType
	Elements []byte
}
