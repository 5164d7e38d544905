package infer

import (
	"encoding/xml"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/exstruct-io/exstruct/internal/structtree"
)

// XSDExtractor infers structure from an XML Schema document. Declared
// elements are walked recursively; an element whose type is already on the
// ancestor chain is emitted without children, so recursive schemas terminate
// at the first cycle.
type XSDExtractor struct{}

// Decoded subset of xs:schema. Groups and attributes beyond what structure
// inference needs are not modeled.
type xsdSchema struct {
	TargetNamespace string           `xml:"targetNamespace,attr"`
	Elements        []xsdElement     `xml:"element"`
	ComplexTypes    []xsdComplexType `xml:"complexType"`
	SimpleTypes     []xsdSimpleType  `xml:"simpleType"`
}

type xsdElement struct {
	Name        string          `xml:"name,attr"`
	Type        string          `xml:"type,attr"`
	MinOccurs   string          `xml:"minOccurs,attr"`
	Annotation  *xsdAnnotation  `xml:"annotation"`
	ComplexType *xsdComplexType `xml:"complexType"`
	SimpleType  *xsdSimpleType  `xml:"simpleType"`
}

type xsdAnnotation struct {
	Documentation []string `xml:"documentation"`
}

type xsdComplexType struct {
	Name          string            `xml:"name,attr"`
	Sequence      *xsdGroup         `xml:"sequence"`
	All           *xsdGroup         `xml:"all"`
	Choice        *xsdGroup         `xml:"choice"`
	SimpleContent *xsdSimpleContent `xml:"simpleContent"`
}

type xsdGroup struct {
	Elements  []xsdElement `xml:"element"`
	Sequences []xsdGroup   `xml:"sequence"`
	Choices   []xsdGroup   `xml:"choice"`
	Alls      []xsdGroup   `xml:"all"`
}

type xsdSimpleContent struct {
	Extension   *xsdBase `xml:"extension"`
	Restriction *xsdBase `xml:"restriction"`
}

type xsdBase struct {
	Base string `xml:"base,attr"`
}

type xsdSimpleType struct {
	Name        string   `xml:"name,attr"`
	Restriction *xsdBase `xml:"restriction"`
}

func (e *XSDExtractor) BuildStructure(r io.Reader, opts Options) (*structtree.Tree, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	var schema xsdSchema
	if err := xml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	b := &xsdBuilder{
		opts:         opts,
		complexTypes: make(map[string]*xsdComplexType),
		simpleTypes:  make(map[string]*xsdSimpleType),
	}
	for i := range schema.ComplexTypes {
		b.complexTypes[schema.ComplexTypes[i].Name] = &schema.ComplexTypes[i]
	}
	for i := range schema.SimpleTypes {
		b.simpleTypes[schema.SimpleTypes[i].Name] = &schema.SimpleTypes[i]
	}

	tree := structtree.New()
	for i := range schema.Elements {
		el := &schema.Elements[i]
		if err := checkReservedKey(el.Name); err != nil {
			return nil, err
		}
		node, err := b.parseElement(el, nil, "")
		if err != nil {
			return nil, err
		}
		tree.Root.Put(el.Name, node)
	}

	spliceLevels(tree.Root, opts.IgnoreDepth)
	return tree, nil
}

type xsdBuilder struct {
	opts         Options
	complexTypes map[string]*xsdComplexType
	simpleTypes  map[string]*xsdSimpleType
}

// parseElement emits the node for one declared element. ancestors carries
// the named complex types already being expanded on this branch; parentModel
// is the compositor ("sequence", "all", "choice") of the group holding the
// element, empty at the top level.
func (b *xsdBuilder) parseElement(el *xsdElement, ancestors []string, parentModel string) (*structtree.Node, error) {
	typeName := localName(el.Type)
	aliases := dedupe([]string{el.Name, el.Type, typeName})

	info := newInfo(b.opts, annotationText(el.Annotation), aliases)
	info.Required = b.required(el, parentModel)

	ct := b.complexType(el, typeName)
	if ct == nil || ct.SimpleContent != nil {
		info.Type = b.simpleElementType(el, ct, typeName)
		return structtree.NewNode(info), nil
	}

	info.Type = structtree.TypeObject
	node := structtree.NewNode(info)

	// Self-referential type: stop descending.
	if typeName != "" && slices.Contains(ancestors, typeName) {
		return node, nil
	}
	childAncestors := ancestors
	if typeName != "" {
		childAncestors = append(slices.Clone(ancestors), typeName)
	}

	for _, member := range groupMembers(ct) {
		if err := checkReservedKey(member.el.Name); err != nil {
			return nil, err
		}
		child, err := b.parseElement(member.el, childAncestors, member.model)
		if err != nil {
			return nil, err
		}
		node.Put(member.el.Name, child)
	}
	return node, nil
}

// complexType resolves the element's complex type, named or inline.
func (b *xsdBuilder) complexType(el *xsdElement, typeName string) *xsdComplexType {
	if el.ComplexType != nil {
		return el.ComplexType
	}
	return b.complexTypes[typeName]
}

// simpleElementType follows restriction/extension base chains down to the
// built-in type and maps it to a canonical one.
func (b *xsdBuilder) simpleElementType(el *xsdElement, ct *xsdComplexType, typeName string) structtree.DataType {
	name := typeName
	if el.SimpleType != nil && el.SimpleType.Restriction != nil {
		name = localName(el.SimpleType.Restriction.Base)
	}
	if ct != nil && ct.SimpleContent != nil {
		switch {
		case ct.SimpleContent.Extension != nil:
			name = localName(ct.SimpleContent.Extension.Base)
		case ct.SimpleContent.Restriction != nil:
			name = localName(ct.SimpleContent.Restriction.Base)
		}
	}
	for i := 0; i < maxTypeChain; i++ {
		st, ok := b.simpleTypes[name]
		if !ok || st.Restriction == nil {
			break
		}
		name = localName(st.Restriction.Base)
	}
	if t, ok := b.opts.TypeMapping[name]; ok {
		return t
	}
	return structtree.TypeString
}

// maxTypeChain bounds restriction-chain walking on malformed circular
// schemas.
const maxTypeChain = 32

// required derives occurrence: only a member of a choice group with
// minOccurs="0" is optional; when occurrence cannot be determined the field
// is treated as required.
func (b *xsdBuilder) required(el *xsdElement, parentModel string) bool {
	minOccurs := 1
	if el.MinOccurs != "" {
		if n, err := strconv.Atoi(el.MinOccurs); err == nil {
			minOccurs = n
		}
	}
	return minOccurs > 0 || parentModel != "choice"
}

type groupMember struct {
	el    *xsdElement
	model string
}

// groupMembers flattens a complex type's content model, keeping the
// innermost compositor of each element.
func groupMembers(ct *xsdComplexType) []groupMember {
	var members []groupMember
	var walk func(g *xsdGroup, model string)
	walk = func(g *xsdGroup, model string) {
		if g == nil {
			return
		}
		for i := range g.Elements {
			members = append(members, groupMember{el: &g.Elements[i], model: model})
		}
		for i := range g.Sequences {
			walk(&g.Sequences[i], "sequence")
		}
		for i := range g.Choices {
			walk(&g.Choices[i], "choice")
		}
		for i := range g.Alls {
			walk(&g.Alls[i], "all")
		}
	}
	walk(ct.Sequence, "sequence")
	walk(ct.All, "all")
	walk(ct.Choice, "choice")
	return members
}

func annotationText(a *xsdAnnotation) string {
	if a == nil {
		return ""
	}
	parts := make([]string, 0, len(a.Documentation))
	for _, doc := range a.Documentation {
		if s := strings.TrimSpace(doc); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// localName strips a namespace prefix: "xs:string" -> "string".
func localName(qname string) string {
	if i := strings.LastIndex(qname, ":"); i >= 0 {
		return qname[i+1:]
	}
	return qname
}

func dedupe(in []string) []string {
	var out []string
	for _, s := range in {
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
