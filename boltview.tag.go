package boltview

import (
	"github.com/itsatony/go-boltview/internal"
)

// Attribute is one parsed tag attribute. Flag attributes carry no value and
// compile to true.
type Attribute = internal.Attribute

// Attributes is the ordered attribute list of a tag.
type Attributes = internal.Attributes

// ParseAttributes parses the text following a tag name.
func ParseAttributes(s string) Attributes {
	return internal.ParseAttributes(s)
}

// Node is an element of an extracted tag tree: Text or *Tag.
type Node interface {
	isNode()
}

// Text is a literal run between structural tags.
type Text string

func (Text) isNode() {}

// Tag is one structural tag matched during extraction. Registered compilers
// receive it and may rewrite its value, attributes and inner code.
type Tag struct {
	Name        string
	Value       string
	Attributes  Attributes
	SelfClosing bool
	// Children is nil iff SelfClosing.
	Children []Node

	inner     string
	hasInner  bool
	finalized bool
}

func (*Tag) isNode() {}

// newTag builds a tag from parsed attributes, lifting the leading free text
// into Value.
func newTag(name string, attrs Attributes, selfClosing bool) *Tag {
	value, _ := attrs.Get(internal.AttrKeyValue)
	tag := &Tag{
		Name:        name,
		Value:       value,
		Attributes:  attrs.Remove(internal.AttrKeyValue),
		SelfClosing: selfClosing,
	}
	if !selfClosing {
		tag.Children = []Node{}
	}
	return tag
}

// Attr returns the attribute value; flags read as "1".
func (t *Tag) Attr(name string) (string, bool) {
	return t.Attributes.Get(name)
}

// AttrDefault returns the attribute value or defaultVal when absent.
func (t *Tag) AttrDefault(name, defaultVal string) string {
	return t.Attributes.GetDefault(name, defaultVal)
}

// SetAttr sets or replaces an attribute.
func (t *Tag) SetAttr(name, value string) {
	t.Attributes = t.Attributes.Set(name, value)
}

// MergeAttrs sets every attribute of attrs, replacing existing ones in place.
func (t *Tag) MergeAttrs(attrs Attributes) {
	for _, attr := range attrs {
		t.Attributes = t.Attributes.Put(attr)
	}
}

// RemoveAttr drops the named attributes.
func (t *Tag) RemoveAttr(names ...string) {
	t.Attributes = t.Attributes.Remove(names...)
}

// KeepAttr drops every attribute not named.
func (t *Tag) KeepAttr(names ...string) {
	t.Attributes = t.Attributes.Keep(names...)
}

// ClearAttrs drops all attributes.
func (t *Tag) ClearAttrs() {
	t.Attributes = nil
}

// AttributeString renders the attributes as a host array literal.
func (t *Tag) AttributeString() string {
	return internal.StringifyAttributes(t.Attributes)
}

// SetValue overrides the tag's leading free text.
func (t *Tag) SetValue(value string) {
	t.Value = value
}

// Inner returns the compiled replacement for the tag's children. ok is false
// for self-closing tags until a compiler sets it.
func (t *Tag) Inner() (code string, ok bool) {
	return t.inner, t.hasInner
}

// SetInner sets the code the tag compiles to.
func (t *Tag) SetInner(code string) {
	t.inner = code
	t.hasInner = true
}

// ClearInner removes the inner code; the tag then compiles to nothing.
func (t *Tag) ClearInner() {
	t.inner = ""
	t.hasInner = false
}

// Finalized reports whether the inner code bypasses the scalar pass.
func (t *Tag) Finalized() bool {
	return t.finalized
}

// SetFinalized marks the inner code as final output.
func (t *Tag) SetFinalized(finalized bool) {
	t.finalized = finalized
}
