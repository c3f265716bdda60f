package registry

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"

	"github.com/mabhi256/hangdiag/internal/heap/model"
)

const StringClassName = "java.lang.String"

// FieldInfo represents a field with its position in instance data
type FieldInfo struct {
	Name   string
	Type   model.HProfTagFieldType
	Size   int
	Offset int
}

// ObjectRegistry holds the heap side of the dump: class layouts, instances and
// primitive arrays. Object arrays are not retained.
type ObjectRegistry struct {
	identifierSize uint32

	classDumps *BaseRegistry[model.ID, *model.ClassDump]
	instances  *BaseRegistry[model.ID, *model.GCInstanceDump]
	primArrays *BaseRegistry[model.ID, *model.GCPrimitiveArrayDump]

	layouts map[model.ID][]FieldInfo
}

func NewObjectRegistry() *ObjectRegistry {
	return &ObjectRegistry{
		classDumps: NewBaseRegistry[model.ID, *model.ClassDump](),
		instances:  NewBaseRegistry[model.ID, *model.GCInstanceDump](),
		primArrays: NewBaseRegistry[model.ID, *model.GCPrimitiveArrayDump](),
		layouts:    make(map[model.ID][]FieldInfo),
	}
}

func (r *ObjectRegistry) SetIdentifierSize(size uint32) {
	r.identifierSize = size
}

func (r *ObjectRegistry) AddClassDump(classDump *model.ClassDump) {
	r.classDumps.Add(classDump.ClassObjectID, classDump)
}

func (r *ObjectRegistry) AddInstance(instance *model.GCInstanceDump) {
	r.instances.Add(instance.ObjectID, instance)
}

func (r *ObjectRegistry) AddPrimitiveArray(array *model.GCPrimitiveArrayDump) {
	r.primArrays.Add(array.ObjectID, array)
}

func (r *ObjectRegistry) GetInstance(objectID model.ID) (*model.GCInstanceDump, bool) {
	return r.instances.Get(objectID)
}

func (r *ObjectRegistry) InstanceCount() int {
	return r.instances.Count()
}

// FieldLayout returns every instance field of a class in the order the values
// appear in instance data: the declared class first, then each superclass.
func (r *ObjectRegistry) FieldLayout(classObjectID model.ID, stringReg *StringRegistry) []FieldInfo {
	if layout, ok := r.layouts[classObjectID]; ok {
		return layout
	}

	var fields []FieldInfo
	offset := 0
	seen := make(map[model.ID]bool)
	for current := classObjectID; current != 0 && !seen[current]; {
		seen[current] = true
		classDump, ok := r.classDumps.Get(current)
		if !ok {
			break
		}
		for _, field := range classDump.InstanceFields {
			size := field.Type.Size(r.identifierSize)
			fields = append(fields, FieldInfo{
				Name:   stringReg.GetOrUnresolved(field.NameID),
				Type:   field.Type,
				Size:   size,
				Offset: offset,
			})
			offset += size
		}
		current = classDump.SuperClassObjectID
	}

	r.layouts[classObjectID] = fields
	return fields
}

// FieldData returns the raw bytes of a named field of an instance. The first
// match wins, so a subclass field shadows a superclass field of the same name.
func (r *ObjectRegistry) FieldData(instance *model.GCInstanceDump, name string,
	stringReg *StringRegistry,
) (FieldInfo, []byte, bool) {
	for _, field := range r.FieldLayout(instance.ClassObjectID, stringReg) {
		if field.Name != name {
			continue
		}
		end := field.Offset + field.Size
		if end > len(instance.InstanceData) {
			return FieldInfo{}, nil, false
		}
		return field, instance.InstanceData[field.Offset:end], true
	}
	return FieldInfo{}, nil, false
}

// ReferenceField reads an object reference field; a null reference reports false.
func (r *ObjectRegistry) ReferenceField(instance *model.GCInstanceDump, name string,
	stringReg *StringRegistry,
) (model.ID, bool) {
	field, data, ok := r.FieldData(instance, name, stringReg)
	if !ok || !field.Type.IsReference() {
		return 0, false
	}
	id := r.readID(data)
	return id, id != 0
}

// DecodeString decodes a java.lang.String instance. Both layouts are handled:
// a char[] value (JDK 8) and a byte[] value with a coder field (JDK 9+).
func (r *ObjectRegistry) DecodeString(instance *model.GCInstanceDump, stringReg *StringRegistry) (string, error) {
	valueID, ok := r.ReferenceField(instance, "value", stringReg)
	if !ok {
		return "", fmt.Errorf("string 0x%x has no value array", uint64(instance.ObjectID))
	}

	array, ok := r.primArrays.Get(valueID)
	if !ok {
		return "", fmt.Errorf("value array 0x%x not found", uint64(valueID))
	}

	switch array.Type {
	case model.HPROF_CHAR:
		return decodeUTF16(array.Elements, binary.BigEndian), nil
	case model.HPROF_BYTE:
		coder := byte(0)
		if field, data, ok := r.FieldData(instance, "coder", stringReg); ok && field.Type == model.HPROF_BYTE {
			coder = data[0]
		}
		if coder == 1 {
			// compact strings store UTF16 in the JVM's native order
			return decodeUTF16(array.Elements, binary.LittleEndian), nil
		}
		return decodeLatin1(array.Elements), nil
	default:
		return "", fmt.Errorf("unexpected string value type %d", array.Type)
	}
}

func (r *ObjectRegistry) readID(data []byte) model.ID {
	switch len(data) {
	case 4:
		return model.ID(binary.BigEndian.Uint32(data))
	case 8:
		return model.ID(binary.BigEndian.Uint64(data))
	default:
		return 0
	}
}

func decodeUTF16(data []byte, order binary.ByteOrder) string {
	units := make([]uint16, len(data)/2)
	for i := range units {
		units[i] = order.Uint16(data[i*2:])
	}
	return string(utf16.Decode(units))
}

func decodeLatin1(data []byte) string {
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}
