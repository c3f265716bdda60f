package model

// Body of a HPROF_UTF8 record
type UTF8Body struct {
	StringID ID
	Text     string
}

// Body of a HPROF_LOAD_CLASS record
type LoadClassBody struct {
	ClassSerialNumber      SerialNum
	ObjectID               ID
	StackTraceSerialNumber SerialNum
	ClassNameID            ID // References UTF8
}

// Body of a HPROF_FRAME record
type FrameBody struct {
	StackFrameID      ID
	MethodNameID      ID // References UTF8
	MethodSignatureID ID // References UTF8
	SourceFileNameID  ID // References UTF8
	ClassSerialNumber SerialNum
	LineNumber        int32 // >0: normal line, -1: unknown, -2: compiled method, -3: native method
}

// Body of a HPROF_TRACE record
type TraceBody struct {
	StackTraceSerialNumber SerialNum
	ThreadSerialNumber     SerialNum // Thread that produced this trace
	StackFrameIDs          []ID      // innermost frame first
}

// Body of a HPROF_START_THREAD record
type StartThreadBody struct {
	ThreadSerialNumber      SerialNum
	ThreadObjectID          ID
	StackTraceSerialNumber  SerialNum
	ThreadNameID            ID // References UTF8
	ThreadGroupNameID       ID
	ParentThreadGroupNameID ID
}
