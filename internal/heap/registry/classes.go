package registry

import (
	"strings"

	"github.com/mabhi256/hangdiag/internal/heap/model"
)

type ClassInfo struct {
	SerialNumber model.SerialNum
	ObjectID     model.ID
	Name         string // dotted form, e.g. "java.lang.String"
}

// ClassRegistry indexes LOAD_CLASS records by serial number and class object ID.
type ClassRegistry struct {
	bySerial   *BaseRegistry[model.SerialNum, *ClassInfo]
	byObjectID *BaseRegistry[model.ID, *ClassInfo]
}

func NewClassRegistry() *ClassRegistry {
	return &ClassRegistry{
		bySerial:   NewBaseRegistry[model.SerialNum, *ClassInfo](),
		byObjectID: NewBaseRegistry[model.ID, *ClassInfo](),
	}
}

func (cr *ClassRegistry) AddLoadedClass(body *model.LoadClassBody, rawName string) {
	info := &ClassInfo{
		SerialNumber: body.ClassSerialNumber,
		ObjectID:     body.ObjectID,
		Name:         NormalizeClassName(rawName),
	}
	cr.bySerial.Add(body.ClassSerialNumber, info)
	cr.byObjectID.Add(body.ObjectID, info)
}

func (cr *ClassRegistry) GetBySerial(serial model.SerialNum) (*ClassInfo, bool) {
	return cr.bySerial.Get(serial)
}

func (cr *ClassRegistry) GetByObjectID(objectID model.ID) (*ClassInfo, bool) {
	return cr.byObjectID.Get(objectID)
}

func (cr *ClassRegistry) Count() int {
	return cr.bySerial.Count()
}

// NormalizeClassName converts JVM internal names ("java/lang/String") to the
// dotted form used in stack traces.
func NormalizeClassName(name string) string {
	return strings.ReplaceAll(name, "/", ".")
}
