// =============================================================================
// SEPA Direct Debit - XML Writer Module
// =============================================================================
//
// This module serializes an in-memory element tree to indented XML. It knows
// nothing about pain.008; the pain008 package builds the tree and hands it
// over here.
//
// OUTPUT SHAPE:
//
//   <?xml version="1.0" encoding="UTF-8"?>   <!-- optional declaration -->
//   <Document xmlns="...">                   <!-- root with ordered attributes -->
//     <GrpHdr>                               <!-- container element -->
//       <MsgId>MSG-1</MsgId>                 <!-- leaf element, escaped text -->
//       <InstdAmt Ccy="EUR">1.00</InstdAmt>  <!-- leaf element with attribute -->
//     </GrpHdr>
//   </Document>
//
// Attributes are written in insertion order, never sorted, so namespace
// declarations stay where the caller put them.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// XMLVersion is the XML version for the declaration.
	// Default: "1.0"
	XMLVersion string

	// Encoding is the encoding for the XML declaration.
	// Default: "UTF-8"
	Encoding string
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		XMLVersion:            "1.0",
		Encoding:              "UTF-8",
	}
}

// =============================================================================
// ELEMENT TREE
// =============================================================================

// XMLElement is one node of the tree. An element carries either a text
// value or children, never both.
type XMLElement struct {
	XMLName    xml.Name
	Attributes []xml.Attr
	Value      string
	Children   []*XMLElement
}

// NewElement creates a container element.
func NewElement(name string, children ...*XMLElement) *XMLElement {
	return &XMLElement{
		XMLName:  xml.Name{Local: name},
		Children: children,
	}
}

// SimpleElement creates a leaf element with a text value.
func SimpleElement(name, value string) *XMLElement {
	return &XMLElement{
		XMLName: xml.Name{Local: name},
		Value:   value,
	}
}

// Append adds children in order and returns e for chaining.
func (e *XMLElement) Append(children ...*XMLElement) *XMLElement {
	e.Children = append(e.Children, children...)
	return e
}

// WithAttr adds an attribute and returns e for chaining.
func (e *XMLElement) WithAttr(name, value string) *XMLElement {
	e.Attributes = append(e.Attributes, xml.Attr{
		Name:  xml.Name{Local: name},
		Value: value,
	})
	return e
}

// Path creates a chain of nested container elements ending in leaf. For
// example Path(leaf, "Id", "PrvtId") yields <Id><PrvtId>leaf</PrvtId></Id>.
func Path(leaf *XMLElement, names ...string) *XMLElement {
	current := leaf
	for i := len(names) - 1; i >= 0; i-- {
		current = NewElement(names[i], current)
	}
	return current
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Generate serializes root with the default options.
func Generate(root *XMLElement) ([]byte, error) {
	return GenerateWithOptions(root, DefaultGenerateOptions())
}

// GenerateWithOptions serializes root with custom options.
func GenerateWithOptions(root *XMLElement, options GenerateOptions) ([]byte, error) {
	if root == nil {
		return nil, fmt.Errorf("failed to marshal XML: no root element")
	}

	var buffer bytes.Buffer

	// Write XML declaration if requested.
	if options.IncludeXMLDeclaration {
		version := options.XMLVersion
		if version == "" {
			version = "1.0"
		}
		encoding := options.Encoding
		if encoding == "" {
			encoding = "UTF-8"
		}
		buffer.WriteString(fmt.Sprintf("<?xml version=\"%s\" encoding=\"%s\"?>\n", version, encoding))
	}

	if err := writeElement(&buffer, root, options.Indent, 0); err != nil {
		return nil, fmt.Errorf("failed to marshal XML: %w", err)
	}

	return buffer.Bytes(), nil
}

// writeElement writes an XML element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, element *XMLElement, indent string, level int) error {
	if element.XMLName.Local == "" {
		return fmt.Errorf("element at depth %d has no name", level)
	}
	if element.Value != "" && len(element.Children) > 0 {
		return fmt.Errorf("element %s has both a value and children", element.XMLName.Local)
	}

	writeIndent(buffer, indent, level)

	// Write opening tag.
	buffer.WriteString("<")
	buffer.WriteString(element.XMLName.Local)

	// Write attributes.
	for _, attr := range element.Attributes {
		buffer.WriteString(fmt.Sprintf(" %s=\"%s\"", attr.Name.Local, escapeXML(attr.Value)))
	}

	// Self-closing tag.
	if len(element.Children) == 0 && element.Value == "" {
		buffer.WriteString("/>\n")
		return nil
	}

	buffer.WriteString(">")

	if element.Value != "" {
		buffer.WriteString(escapeXML(element.Value))
	} else {
		buffer.WriteString("\n")

		for _, child := range element.Children {
			if err := writeElement(buffer, child, indent, level+1); err != nil {
				return err
			}
		}

		writeIndent(buffer, indent, level)
	}

	// Write closing tag.
	buffer.WriteString("</")
	buffer.WriteString(element.XMLName.Local)
	buffer.WriteString(">\n")

	return nil
}

func writeIndent(buffer *bytes.Buffer, indent string, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(indent)
	}
}

// escapeXML escapes special characters for XML.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		default:
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}
