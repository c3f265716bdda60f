package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Document is the export format written by debugger extensions. The same
// structure is accepted as JSON or YAML.
type Document struct {
	Dump    string           `json:"dump" yaml:"dump"`
	Threads []ThreadDocument `json:"threads" yaml:"threads"`
}

type ThreadDocument struct {
	ID      int              `json:"id" yaml:"id"`
	Frames  []FrameDocument  `json:"frames" yaml:"frames"`
	Objects []ObjectDocument `json:"objects,omitempty" yaml:"objects,omitempty"`
}

type FrameDocument struct {
	Function string `json:"function" yaml:"function"`
	Address  uint64 `json:"address" yaml:"address"`
}

// ObjectDocument lists a stack-reachable object. Nested objects are nested
// maps inside Fields; leaf strings are string fields.
type ObjectDocument struct {
	Type    string         `json:"type" yaml:"type"`
	Address uint64         `json:"address,omitempty" yaml:"address,omitempty"`
	Fields  map[string]any `json:"fields,omitempty" yaml:"fields,omitempty"`
}

func loadJSON(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode JSON snapshot %s: %w", path, err)
	}
	return doc.Snapshot(path), nil
}

func loadYAML(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode YAML snapshot %s: %w", path, err)
	}
	return doc.Snapshot(path), nil
}

// Snapshot converts the document into the read-only snapshot model.
func (d *Document) Snapshot(path string) *Snapshot {
	name := d.Dump
	if name == "" {
		name = ShortName(path)
	}

	snap := &Snapshot{
		Name:    name,
		Path:    path,
		Threads: make([]*Thread, 0, len(d.Threads)),
	}

	for _, td := range d.Threads {
		thread := &Thread{
			ID:     td.ID,
			Frames: make([]Frame, len(td.Frames)),
		}
		for i, fd := range td.Frames {
			thread.Frames[i] = Frame{Function: fd.Function, Address: fd.Address}
		}
		if len(td.Objects) > 0 {
			thread.Objects = documentObjects(td.Objects)
		}
		snap.Threads = append(snap.Threads, thread)
	}

	return snap
}

type documentObjects []ObjectDocument

func (objs documentObjects) FindFirstOfShape(shape string) (Object, bool) {
	for i := range objs {
		if objs[i].Type == shape {
			return &documentObject{doc: &objs[i]}, true
		}
	}
	return nil, false
}

type documentObject struct {
	doc *ObjectDocument
}

func (o *documentObject) Shape() string {
	return o.doc.Type
}

func (o *documentObject) StringField(path string) (string, bool) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return "", false
	}

	var current any = o.doc.Fields
	for _, part := range parts {
		fields, ok := asFieldMap(current)
		if !ok {
			return "", false
		}
		current, ok = fields[part]
		if !ok || current == nil {
			return "", false
		}
	}

	return scalarString(current)
}

// asFieldMap accepts both decoder shapes: encoding/json and yaml.v3 produce
// map[string]any, older YAML documents may yield map[any]any.
func asFieldMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		converted := make(map[string]any, len(m))
		for k, val := range m {
			converted[fmt.Sprint(k)] = val
		}
		return converted, true
	default:
		return nil, false
	}
}

func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case int:
		return strconv.Itoa(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return "", false
	}
}
