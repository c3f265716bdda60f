package parser

import (
	"fmt"

	"github.com/mabhi256/hangdiag/internal/heap/model"
	"github.com/mabhi256/hangdiag/internal/heap/registry"
)

/*
* ParseHeapDumpSegment parses a HPROF_HEAP_DUMP or HPROF_HEAP_DUMP_SEGMENT record:
*
* 	[sub-record]*		A sequence of heap dump sub-records
*
* Each sub-record has this format:
* 	u1    				Sub-record tag (see HProfTagSubRecord)
* 	[data]				Sub-record specific data (variable length)
*
* The segment ends when we've consumed exactly 'length' bytes.
* Returns the per-tag sub-record counts.
 */
func ParseHeapDumpSegment(reader *BinaryReader, length uint32,
	heap *registry.HeapRegistries,
) (map[model.HProfTagSubRecord]int, error) {
	counts := make(map[model.HProfTagSubRecord]int)
	if length == 0 {
		return counts, nil
	}

	segmentEnd := reader.BytesRead() + int64(length)

	for reader.BytesRead() < segmentEnd {
		beforeSubRecord := reader.BytesRead()

		subRecordRaw, err := reader.ReadU1()
		if err != nil {
			return nil, fmt.Errorf("failed to read sub-record type at offset %d: %w", beforeSubRecord, err)
		}
		subRecordType := model.HProfTagSubRecord(subRecordRaw)
		counts[subRecordType]++

		if err := parseSubRecord(reader, subRecordType, heap); err != nil {
			return nil, fmt.Errorf("failed to parse sub-record %s at offset %d: %w",
				subRecordType, beforeSubRecord, err)
		}

		if reader.BytesRead() > segmentEnd {
			return nil, fmt.Errorf("sub-record %s exceeded segment boundary: at %d, segment ends at %d",
				subRecordType, reader.BytesRead(), segmentEnd)
		}
	}

	return counts, nil
}

// parseSubRecord keeps the sub-records needed to rebuild thread stacks and
// String contents, and skips the rest.
func parseSubRecord(reader *BinaryReader, subRecordType model.HProfTagSubRecord,
	heap *registry.HeapRegistries,
) error {
	idSize := reader.IdentifierSize()

	switch subRecordType {
	case model.HPROF_GC_ROOT_JAVA_FRAME:
		root, err := parseRootJavaFrame(reader)
		if err != nil {
			return err
		}
		heap.Threads.AddFrameRoot(*root)

	case model.HPROF_GC_ROOT_THREAD_OBJ:
		root, err := parseRootThreadObject(reader)
		if err != nil {
			return err
		}
		heap.Threads.AddThreadObject(*root)

	case model.HPROF_GC_ROOT_UNKNOWN, model.HPROF_GC_ROOT_STICKY_CLASS, model.HPROF_GC_ROOT_MONITOR_USED:
		// id
		return reader.Skip(idSize)

	case model.HPROF_GC_ROOT_JNI_GLOBAL:
		// id object, id JNI global ref
		return reader.Skip(2 * idSize)

	case model.HPROF_GC_ROOT_JNI_LOCAL:
		// id, u4 thread serial, u4 frame number
		return reader.Skip(idSize + 8)

	case model.HPROF_GC_ROOT_NATIVE_STACK, model.HPROF_GC_ROOT_THREAD_BLOCK:
		// id, u4 thread serial
		return reader.Skip(idSize + 4)

	case model.HPROF_GC_CLASS_DUMP:
		classDump, err := ParseClassDump(reader)
		if err != nil {
			return err
		}
		heap.Objects.AddClassDump(classDump)

	case model.HPROF_GC_INSTANCE_DUMP:
		instance, err := ParseInstanceDump(reader)
		if err != nil {
			return err
		}
		heap.Objects.AddInstance(instance)

	case model.HPROF_GC_OBJ_ARRAY_DUMP:
		return skipObjectArray(reader)

	case model.HPROF_GC_PRIM_ARRAY_DUMP:
		array, err := ParsePrimitiveArray(reader)
		if err != nil {
			return err
		}
		heap.Objects.AddPrimitiveArray(array)

	default:
		return fmt.Errorf("unknown sub-record type: 0x%02x", byte(subRecordType))
	}

	return nil
}

/*
* HPROF_GC_ROOT_JAVA_FRAME
*
* 	id		object ID
* 	u4		thread serial number
* 	u4		frame number in stack trace (-1 for empty)
 */
func parseRootJavaFrame(reader *BinaryReader) (*model.GCRootJavaFrame, error) {
	objectID, err := reader.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read object ID: %w", err)
	}

	threadSerial, err := reader.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read thread serial number: %w", err)
	}

	frameNumber, err := reader.ReadI4()
	if err != nil {
		return nil, fmt.Errorf("failed to read frame number: %w", err)
	}

	return &model.GCRootJavaFrame{
		ObjectID:           objectID,
		ThreadSerialNumber: model.SerialNum(threadSerial),
		FrameNumber:        frameNumber,
	}, nil
}

/*
* HPROF_GC_ROOT_THREAD_OBJ
*
* 	id		thread object ID
* 	u4		thread sequence number
* 	u4		stack trace sequence number
 */
func parseRootThreadObject(reader *BinaryReader) (*model.GCRootThreadObject, error) {
	objectID, err := reader.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read thread object ID: %w", err)
	}

	threadSerial, err := reader.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read thread serial number: %w", err)
	}

	traceSerial, err := reader.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read stack trace serial number: %w", err)
	}

	return &model.GCRootThreadObject{
		ThreadObjectID:         objectID,
		ThreadSerialNumber:     model.SerialNum(threadSerial),
		StackTraceSerialNumber: model.SerialNum(traceSerial),
	}, nil
}

/*
* ParseClassDump parses a HPROF_GC_CLASS_DUMP sub-record
*
* 	id		class object ID
* 	u4		stack trace serial number
* 	id		super class object ID
* 	id		class loader object ID
* 	id		signers object ID
* 	id		protection domain object ID
* 	id		reserved
* 	id		reserved
* 	u4		instance size (in bytes)
* 	u2		size of constant pool
* 	[u2, ty, val]*	constant pool entries
* 	u2		number of static fields
* 	[id, ty, val]*	static fields
* 	u2		number of instance fields
* 	[id, ty]*	instance fields (not including super class's)
 */
func ParseClassDump(reader *BinaryReader) (*model.ClassDump, error) {
	idSize := reader.IdentifierSize()

	classObjectID, err := reader.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read class object ID: %w", err)
	}

	// stack trace serial
	if err := reader.Skip(4); err != nil {
		return nil, err
	}

	superClassObjectID, err := reader.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read super class ID: %w", err)
	}

	// class loader, signers, protection domain, 2 reserved
	if err := reader.Skip(5 * idSize); err != nil {
		return nil, err
	}

	instanceSize, err := reader.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read instance size: %w", err)
	}

	constantPoolSize, err := reader.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("failed to read constant pool size: %w", err)
	}
	for i := 0; i < int(constantPoolSize); i++ {
		// u2 constant pool index
		if err := reader.Skip(2); err != nil {
			return nil, err
		}
		if err := skipTypedValue(reader); err != nil {
			return nil, fmt.Errorf("constant pool entry %d: %w", i, err)
		}
	}

	staticFieldCount, err := reader.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("failed to read static field count: %w", err)
	}
	for i := 0; i < int(staticFieldCount); i++ {
		// id static field name
		if err := reader.Skip(idSize); err != nil {
			return nil, err
		}
		if err := skipTypedValue(reader); err != nil {
			return nil, fmt.Errorf("static field %d: %w", i, err)
		}
	}

	instanceFieldCount, err := reader.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("failed to read instance field count: %w", err)
	}

	fields := make([]model.InstanceField, instanceFieldCount)
	for i := range fields {
		nameID, err := reader.ReadID()
		if err != nil {
			return nil, fmt.Errorf("failed to read instance field %d name: %w", i, err)
		}
		fieldType, err := reader.ReadU1()
		if err != nil {
			return nil, fmt.Errorf("failed to read instance field %d type: %w", i, err)
		}
		fields[i] = model.InstanceField{NameID: nameID, Type: model.HProfTagFieldType(fieldType)}
	}

	return &model.ClassDump{
		ClassObjectID:      classObjectID,
		SuperClassObjectID: superClassObjectID,
		InstanceSize:       instanceSize,
		InstanceFields:     fields,
	}, nil
}

// skipTypedValue consumes a u1 type tag followed by a value of that type.
func skipTypedValue(reader *BinaryReader) error {
	rawType, err := reader.ReadU1()
	if err != nil {
		return fmt.Errorf("failed to read value type: %w", err)
	}
	size := model.HProfTagFieldType(rawType).Size(uint32(reader.IdentifierSize()))
	if size == 0 {
		return fmt.Errorf("invalid value type: 0x%02x", rawType)
	}
	return reader.Skip(size)
}

/*
* ParseInstanceDump parses a HPROF_GC_INSTANCE_DUMP sub-record
*
* 	id		object ID
* 	u4		stack trace serial number
* 	id		class object ID
* 	u4		number of bytes that follow
* 	[vl]*	instance field values (class, followed by super, super's super ...)
 */
func ParseInstanceDump(reader *BinaryReader) (*model.GCInstanceDump, error) {
	objectID, err := reader.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read object ID: %w", err)
	}

	if err := reader.Skip(4); err != nil {
		return nil, err
	}

	classObjectID, err := reader.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read class object ID: %w", err)
	}

	dataLength, err := reader.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read instance data length: %w", err)
	}

	data, err := reader.ReadNBytes(int(dataLength))
	if err != nil {
		return nil, fmt.Errorf("failed to read instance data: %w", err)
	}

	return &model.GCInstanceDump{
		ObjectID:      objectID,
		ClassObjectID: classObjectID,
		InstanceData:  data,
	}, nil
}

/*
* HPROF_GC_OBJ_ARRAY_DUMP
*
* 	id		array object ID
* 	u4		stack trace serial number
* 	u4		number of elements
* 	id		array class object ID
* 	[id]*	elements
 */
func skipObjectArray(reader *BinaryReader) error {
	idSize := reader.IdentifierSize()

	if err := reader.Skip(idSize + 4); err != nil {
		return err
	}

	length, err := reader.ReadU4()
	if err != nil {
		return fmt.Errorf("failed to read array length: %w", err)
	}

	return reader.Skip(idSize + int(length)*idSize)
}

/*
* ParsePrimitiveArray parses a HPROF_GC_PRIM_ARRAY_DUMP sub-record
*
* 	id		array object ID
* 	u4		stack trace serial number
* 	u4		number of elements
* 	u1		element type
* 	[u1]*	elements
 */
func ParsePrimitiveArray(reader *BinaryReader) (*model.GCPrimitiveArrayDump, error) {
	objectID, err := reader.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read array object ID: %w", err)
	}

	if err := reader.Skip(4); err != nil {
		return nil, err
	}

	length, err := reader.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read array length: %w", err)
	}

	rawType, err := reader.ReadU1()
	if err != nil {
		return nil, fmt.Errorf("failed to read element type: %w", err)
	}
	elementType := model.HProfTagFieldType(rawType)

	elementSize := elementType.Size(uint32(reader.IdentifierSize()))
	if elementSize == 0 || elementType.IsReference() {
		return nil, fmt.Errorf("invalid primitive array type: 0x%02x", rawType)
	}

	elements, err := reader.ReadNBytes(int(length) * elementSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read array elements: %w", err)
	}

	return &model.GCPrimitiveArrayDump{
		ObjectID: objectID,
		Length:   length,
		Type:     elementType,
		Elements: elements,
	}, nil
}
