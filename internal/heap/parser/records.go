package parser

import (
	"fmt"

	"github.com/mabhi256/hangdiag/internal/heap/model"
)

/*
ParseUTF8 parses a HPROF_UTF8 record

id   		ID for this string
[u1]*		UTF-8 characters (no null terminator)
*/
func ParseUTF8(reader *BinaryReader, length uint32) (*model.UTF8Body, error) {
	stringID, err := reader.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read string ID: %w", err)
	}

	textLength := int(length) - reader.IdentifierSize()
	if textLength < 0 {
		return nil, fmt.Errorf("invalid string length: %d", textLength)
	}

	text, err := reader.ReadNBytes(textLength)
	if err != nil {
		return nil, fmt.Errorf("failed to read string data: %w", err)
	}

	return &model.UTF8Body{StringID: stringID, Text: string(text)}, nil
}

/*
ParseLoadClass parses a HPROF_LOAD_CLASS record:

u4      Unique class serial number
id      Object ID of the Class object
u4      Stack trace serial number when loaded
id      class name ID - reference to UTF8 string
*/
func ParseLoadClass(reader *BinaryReader) (*model.LoadClassBody, error) {
	serialNum, err := reader.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read class serial number: %w", err)
	}

	objectID, err := reader.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read class object ID: %w", err)
	}

	stackTraceSerialNum, err := reader.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read stack trace serial number: %w", err)
	}

	nameID, err := reader.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read class name ID: %w", err)
	}

	return &model.LoadClassBody{
		ClassSerialNumber:      model.SerialNum(serialNum),
		ObjectID:               objectID,
		StackTraceSerialNumber: model.SerialNum(stackTraceSerialNum),
		ClassNameID:            nameID,
	}, nil
}

/*
ParseStackFrame parses a HPROF_FRAME record:

id      stack frame ID
id      Method name ID (UTF8 reference)
id      Method signature ID (UTF8 reference)
id      Source file name ID (UTF8 reference)
u4      Class serial number
i4      Line number
*/
func ParseStackFrame(reader *BinaryReader) (*model.FrameBody, error) {
	stackFrameID, err := reader.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read stack frame ID: %w", err)
	}

	methodNameID, err := reader.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read method name ID: %w", err)
	}

	methodSignatureID, err := reader.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read method signature ID: %w", err)
	}

	sourceFileNameID, err := reader.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read source file name ID: %w", err)
	}

	classSerialNumber, err := reader.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read class serial number: %w", err)
	}

	lineNumber, err := reader.ReadI4()
	if err != nil {
		return nil, fmt.Errorf("failed to read line number: %w", err)
	}

	return &model.FrameBody{
		StackFrameID:      stackFrameID,
		MethodNameID:      methodNameID,
		MethodSignatureID: methodSignatureID,
		SourceFileNameID:  sourceFileNameID,
		ClassSerialNumber: model.SerialNum(classSerialNumber),
		LineNumber:        lineNumber,
	}, nil
}

/*
ParseStackTrace parses a HPROF_TRACE record:

u4          Stack trace serial number
u4          Thread serial number that produced this trace
u4          Number of frames
[id]*       Array of stack frame IDs (references HPROF_FRAME records)
*/
func ParseStackTrace(reader *BinaryReader) (*model.TraceBody, error) {
	stackTraceSerialNumber, err := reader.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read stack trace serial number: %w", err)
	}

	threadSerialNumber, err := reader.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read thread serial number: %w", err)
	}

	numFrames, err := reader.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read number of frames: %w", err)
	}

	stackFrameIDs := make([]model.ID, numFrames)
	for i := range stackFrameIDs {
		frameID, err := reader.ReadID()
		if err != nil {
			return nil, fmt.Errorf("failed to read frame ID %d: %w", i, err)
		}
		stackFrameIDs[i] = frameID
	}

	return &model.TraceBody{
		StackTraceSerialNumber: model.SerialNum(stackTraceSerialNumber),
		ThreadSerialNumber:     model.SerialNum(threadSerialNumber),
		StackFrameIDs:          stackFrameIDs,
	}, nil
}

/*
* ParseStartThread parses a HPROF_START_THREAD record
*
* 	u4		thread serial number (> 0)
* 	id		thread object ID
* 	u4		stack trace serial number
* 	id		thread name ID (references UTF8)
* 	id		thread group name ID (references UTF8)
* 	id		thread group parent name ID (references UTF8)
 */
func ParseStartThread(reader *BinaryReader) (*model.StartThreadBody, error) {
	threadSerialNumber, err := reader.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read thread serial number: %w", err)
	}

	threadObjectID, err := reader.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read thread object ID: %w", err)
	}

	stackTraceSerialNumber, err := reader.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read stack trace serial number: %w", err)
	}

	threadNameID, err := reader.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read thread name ID: %w", err)
	}

	threadGroupNameID, err := reader.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read thread group name ID: %w", err)
	}

	parentThreadGroupNameID, err := reader.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read parent thread group name ID: %w", err)
	}

	return &model.StartThreadBody{
		ThreadSerialNumber:      model.SerialNum(threadSerialNumber),
		ThreadObjectID:          threadObjectID,
		StackTraceSerialNumber:  model.SerialNum(stackTraceSerialNumber),
		ThreadNameID:            threadNameID,
		ThreadGroupNameID:       threadGroupNameID,
		ParentThreadGroupNameID: parentThreadGroupNameID,
	}, nil
}
