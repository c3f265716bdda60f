package splist

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/mabhi256/hangdiag/internal/snapshot"
)

var ErrMalformedDescriptor = errors.New("malformed query descriptor")

// Descriptor is the parsed view XML of a query.
type Descriptor struct {
	Fields        []string // Name attribute of each ViewFields/FieldRef
	FieldCount    int      // every child element of ViewFields
	HasViewFields bool
	RowLimit      int
	HasRowLimit   bool
	Synthesized   bool   // built from the bare query string
	Text          string // indented document
}

// Wildcard reports whether the query requests all fields.
func (d *Descriptor) Wildcard() bool {
	return !d.HasViewFields
}

// ParseDescriptor parses view XML. Any parse failure wraps ErrMalformedDescriptor.
func ParseDescriptor(text string) (*Descriptor, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(text); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDescriptor, err)
	}

	if n := len(doc.ChildElements()); n != 1 {
		return nil, fmt.Errorf("%w: %d root elements", ErrMalformedDescriptor, n)
	}
	for _, tok := range doc.Child {
		if cd, ok := tok.(*etree.CharData); ok && strings.TrimSpace(cd.Data) != "" {
			return nil, fmt.Errorf("%w: text outside the root element", ErrMalformedDescriptor)
		}
	}
	view := doc.Root()

	d := &Descriptor{}
	if viewFields := view.SelectElement("ViewFields"); viewFields != nil {
		d.HasViewFields = true
		d.FieldCount = len(viewFields.ChildElements())
		for _, fieldRef := range viewFields.SelectElements("FieldRef") {
			d.Fields = append(d.Fields, fieldRef.SelectAttrValue("Name", ""))
		}
	}

	if rowLimit := view.SelectElement("RowLimit"); rowLimit != nil {
		d.HasRowLimit = true
		// a non-numeric limit still counts as present
		if n, err := strconv.Atoi(strings.TrimSpace(rowLimit.Text())); err == nil {
			d.RowLimit = n
		}
	}

	doc.Indent(2)
	rendered, err := doc.WriteToString()
	if err != nil {
		return nil, fmt.Errorf("failed to render descriptor: %w", err)
	}
	d.Text = strings.TrimSpace(rendered)

	return d, nil
}

// SynthesizeView wraps a bare query body the way an SPQuery without view XML
// is executed: no ViewFields and no RowLimit.
func SynthesizeView(query string) string {
	return "<View><Query>" + query + "</Query></View>"
}

// ExtractDescriptor reads the query descriptor from a located query object.
// It returns nil without error when there is nothing to classify.
func ExtractDescriptor(obj snapshot.Object, rule Rule) (*Descriptor, error) {
	if obj == nil {
		return nil, nil
	}

	if viewXML, _ := obj.StringField(rule.ViewXMLField); viewXML != "" {
		return ParseDescriptor(viewXML)
	}

	query, _ := obj.StringField(rule.QueryField)
	if query == "" {
		return nil, nil
	}

	d, err := ParseDescriptor(SynthesizeView(query))
	if err != nil {
		return nil, err
	}
	d.Synthesized = true
	return d, nil
}
