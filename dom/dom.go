// Package dom provides thin helpers over the etree document model for the
// element patterns used throughout an L5X export: attribute-ordered child
// creation, CDATA text payloads, and positioned Description elements.
package dom

import (
	"github.com/beevik/etree"
)

// Attr is a single XML attribute. Helpers take a slice rather than a map so
// attribute order in the output document is deterministic.
type Attr struct {
	Key   string
	Value string
}

// NewChild creates a new element with the given attributes and appends it to
// parent's children.
func NewChild(parent *etree.Element, name string, attrs ...Attr) *etree.Element {
	el := parent.CreateElement(name)
	for _, a := range attrs {
		el.CreateAttr(a.Key, a.Value)
	}
	return el
}

// InsertBefore places child immediately before ref among parent's children.
// If ref is nil the child is appended instead.
func InsertBefore(parent, child, ref *etree.Element) {
	if ref == nil {
		parent.AddChild(child)
		return
	}
	parent.InsertChildAt(ref.Index(), child)
}

// CDATA returns the character data content of an element. Elements with no
// text payload yield an empty string.
func CDATA(el *etree.Element) string {
	return el.Text()
}

// SetCDATA replaces the element's text content with a CDATA section.
func SetCDATA(el *etree.Element, s string) {
	el.SetCData(s)
}

// Description reads the CDATA content of a named description child element.
// The second return is false when no such child exists.
func Description(el *etree.Element, name string) (string, bool) {
	d := el.SelectElement(name)
	if d == nil {
		return "", false
	}
	return CDATA(d), true
}

// SetDescription writes text into the named description child, creating the
// element if necessary. A newly created element is placed after the last
// child whose tag appears in follow, or first when none match. The position
// is only chosen at creation time; existing elements are left where they are.
func SetDescription(el *etree.Element, name, text string, follow ...string) {
	d := el.SelectElement(name)
	if d == nil {
		d = etree.NewElement(name)
		idx := 0
		for _, c := range el.ChildElements() {
			for _, f := range follow {
				if c.Tag == f {
					idx = c.Index() + 1
				}
			}
		}
		el.InsertChildAt(idx, d)
	}
	SetCDATA(d, text)
}

// RemoveDescription deletes the named description child if present.
func RemoveDescription(el *etree.Element, name string) {
	if d := el.SelectElement(name); d != nil {
		el.RemoveChild(d)
	}
}
