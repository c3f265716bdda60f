package splist

import (
	"errors"
	"strings"
	"testing"
)

type fakeObject map[string]string

func (o fakeObject) Shape() string { return QueryShape }
func (o fakeObject) StringField(path string) (string, bool) {
	v, ok := o[path]
	return v, ok
}

func TestParseDescriptor(t *testing.T) {
	d, err := ParseDescriptor(`<View><ViewFields><FieldRef Name="Title"/><FieldRef Name="ID"/><ProjectedField/></ViewFields><RowLimit Paged="TRUE">30</RowLimit></View>`)
	if err != nil {
		t.Fatalf("ParseDescriptor: %v", err)
	}
	if !d.HasViewFields || d.FieldCount != 3 {
		t.Errorf("FieldCount = %d, want every child element", d.FieldCount)
	}
	if strings.Join(d.Fields, ",") != "Title,ID" {
		t.Errorf("Fields = %v", d.Fields)
	}
	if !d.HasRowLimit || d.RowLimit != 30 {
		t.Errorf("RowLimit = %d, %v", d.RowLimit, d.HasRowLimit)
	}
	if !strings.Contains(d.Text, "\n  <ViewFields>") {
		t.Errorf("Text not indented:\n%s", d.Text)
	}
}

func TestParseDescriptorMalformed(t *testing.T) {
	for _, text := range []string{
		"<View><<",
		"not xml",
		"",
		"<View/><View><ViewFields/></View>",
		"<View/>trailing",
		"leading<View/>",
	} {
		if _, err := ParseDescriptor(text); !errors.Is(err, ErrMalformedDescriptor) {
			t.Errorf("ParseDescriptor(%q) err = %v, want ErrMalformedDescriptor", text, err)
		}
	}
}

func TestParseDescriptorSurroundingWhitespace(t *testing.T) {
	d, err := ParseDescriptor("<?xml version=\"1.0\"?>\n<View><RowLimit>5</RowLimit></View>\n")
	if err != nil {
		t.Fatalf("ParseDescriptor: %v", err)
	}
	if !d.HasRowLimit || d.RowLimit != 5 {
		t.Errorf("RowLimit = %d (present %v), want 5", d.RowLimit, d.HasRowLimit)
	}
}

func TestExtractDescriptor(t *testing.T) {
	rule := DefaultRule()

	tests := []struct {
		name        string
		obj         fakeObject
		wantNil     bool
		synthesized bool
	}{
		{"view xml", fakeObject{ViewXMLField: "<View><RowLimit>1</RowLimit></View>"}, false, false},
		{"view xml wins over query", fakeObject{ViewXMLField: "<View/>", QueryField: "Foo"}, false, false},
		{"fallback", fakeObject{ViewXMLField: "", QueryField: "Foo"}, false, true},
		{"fallback when view missing", fakeObject{QueryField: "<Where><Eq/></Where>"}, false, true},
		{"both empty", fakeObject{ViewXMLField: "", QueryField: ""}, true, false},
		{"both missing", fakeObject{}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ExtractDescriptor(tt.obj, rule)
			if err != nil {
				t.Fatalf("ExtractDescriptor: %v", err)
			}
			if (d == nil) != tt.wantNil {
				t.Fatalf("descriptor = %+v, wantNil %v", d, tt.wantNil)
			}
			if d == nil {
				return
			}
			if d.Synthesized != tt.synthesized {
				t.Errorf("Synthesized = %v", d.Synthesized)
			}
			if tt.synthesized && (d.HasViewFields || d.HasRowLimit) {
				t.Errorf("synthesized descriptor has fields or limit: %+v", d)
			}
		})
	}

	if d, err := ExtractDescriptor(nil, rule); d != nil || err != nil {
		t.Errorf("nil object: %v, %v", d, err)
	}
}

func TestContainsFrame(t *testing.T) {
	thread := newSnapshot(queryThread(1, "", "")).Threads[0]
	tests := []struct {
		name string
		want bool
	}{
		{SignatureFrame, true},
		{"SPListItemCollection.EnsureListItemsData", true},
		{"splistitemcollection.ensurelistitemsdata", false},
		{SignatureFrame + "Async", false},
	}
	for _, tt := range tests {
		if got := ContainsFrame(thread, tt.name); got != tt.want {
			t.Errorf("ContainsFrame(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
