// Package splist detects threads of a hang dump that are blocked filling an
// SPList item collection, and classifies the query that collection is running.
package splist

const (
	// SignatureFrame identifies the query-fill code path.
	SignatureFrame = "Microsoft.SharePoint.SPListItemCollection.EnsureListItemsData"
	// QueryShape is the runtime type of the object holding the active query.
	QueryShape    = "Microsoft.SharePoint.SPListItemCollection"
	ViewXMLField  = "m_Query.m_strViewXml"
	QueryField    = "m_Query.m_strQuery"
	MaxViewFields = 10

	Category    = "Performance Analyzers"
	Description = "Analyzes SPList queries in SharePoint"
)

// Rule holds the names and threshold the analysis runs with.
type Rule struct {
	SignatureFrame string `yaml:"signature_frame"`
	QueryShape     string `yaml:"query_shape"`
	ViewXMLField   string `yaml:"view_xml_field"`
	QueryField     string `yaml:"query_field"`
	MaxViewFields  int    `yaml:"max_view_fields"`
}

func DefaultRule() Rule {
	return Rule{
		SignatureFrame: SignatureFrame,
		QueryShape:     QueryShape,
		ViewXMLField:   ViewXMLField,
		QueryField:     QueryField,
		MaxViewFields:  MaxViewFields,
	}
}
