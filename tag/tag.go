// Package tag implements typed, structured access to tag values stored in
// an RSLogix 5000 L5X export. A tag's decorated data subtree is mapped onto
// value variants (Integer, Bit, Bool, Real, Structure, Array) that support
// reads, round-trip-safe writes, nested indexing, and per-operand comments.
package tag

import (
	"fmt"

	"github.com/beevik/etree"

	"l5xkit/dom"
)

// Tag kinds stored in the TagType attribute.
const (
	TypeBase     = "Base"
	TypeAlias    = "Alias"
	TypeConsumed = "Consumed"
)

// Tag is a single named tag within a scope.
type Tag struct {
	element *etree.Element
	types   TypeTable
}

// NewTag wraps an existing Tag element. The type table decides which
// DataType names map to scalar variants.
func NewTag(el *etree.Element, types TypeTable) *Tag {
	if types == nil {
		types = BaseTypes()
	}
	return &Tag{element: el, types: types}
}

// Element returns the backing Tag element.
func (t *Tag) Element() *etree.Element { return t.element }

// Name returns the tag's name.
func (t *Tag) Name() string { return t.element.SelectAttrValue("Name", "") }

// TagType returns the tag kind: Base, Alias, or Consumed.
func (t *Tag) TagType() string { return t.element.SelectAttrValue("TagType", "") }

// DataType returns the declared element type name.
func (t *Tag) DataType() string { return t.element.SelectAttrValue("DataType", "") }

// AliasFor returns the alias target, empty for non-alias tags.
func (t *Tag) AliasFor() string { return t.element.SelectAttrValue("AliasFor", "") }

// ExternalAccess returns the tag's external access mode.
func (t *Tag) ExternalAccess() string { return t.element.SelectAttrValue("ExternalAccess", "") }

// Constant reports whether the tag is marked constant.
func (t *Tag) Constant() bool { return t.element.SelectAttrValue("Constant", "") == "true" }

// Description returns the tag's top-level description. The second return is
// false when none exists.
func (t *Tag) Description() (string, bool) {
	return dom.Description(t.element, "Description")
}

// SetDescription writes the tag's top-level description. A new Description
// element is placed after any ConsumeInfo element, else first.
func (t *Tag) SetDescription(text string) {
	dom.SetDescription(t.element, "Description", text, "ConsumeInfo")
}

// ClearDescription removes the tag's top-level description.
func (t *Tag) ClearDescription() {
	dom.RemoveDescription(t.element, "Description")
}

// Producer returns the producing controller of a consumed tag.
func (t *Tag) Producer() (string, error) { return t.consumeAttr("Producer") }

// SetProducer sets the producing controller of a consumed tag. The name
// must be non-empty.
func (t *Tag) SetProducer(name string) error { return t.setConsumeAttr("Producer", name) }

// RemoteTag returns the remote tag name of a consumed tag.
func (t *Tag) RemoteTag() (string, error) { return t.consumeAttr("RemoteTag") }

// SetRemoteTag sets the remote tag name of a consumed tag.
func (t *Tag) SetRemoteTag(name string) error { return t.setConsumeAttr("RemoteTag", name) }

func (t *Tag) consumeInfo() (*etree.Element, error) {
	if t.TagType() != TypeConsumed {
		return nil, fmt.Errorf("tag %q is not a consumed tag: %w", t.Name(), ErrNotApplicable)
	}
	info := t.element.SelectElement("ConsumeInfo")
	if info == nil {
		return nil, fmt.Errorf("tag %q has no ConsumeInfo element: %w", t.Name(), ErrNotFound)
	}
	return info, nil
}

func (t *Tag) consumeAttr(name string) (string, error) {
	info, err := t.consumeInfo()
	if err != nil {
		return "", err
	}
	return info.SelectAttrValue(name, ""), nil
}

func (t *Tag) setConsumeAttr(name, value string) error {
	info, err := t.consumeInfo()
	if err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("%s cannot be empty: %w", name, ErrDomain)
	}
	info.CreateAttr(name, value)
	return nil
}

// dataElement returns the sole child of the decorated Data element, or nil
// when the tag carries no decorated data.
func (t *Tag) dataElement() *etree.Element {
	for _, c := range t.element.SelectElements("Data") {
		if c.SelectAttrValue("Format", "") == "Decorated" {
			kids := c.ChildElements()
			if len(kids) > 0 {
				return kids[0]
			}
		}
	}
	return nil
}

// Data returns the tag's top-level value accessor. Only Base tags with a
// decorated data subtree have one.
func (t *Tag) Data() (Data, error) {
	if t.TagType() != TypeBase {
		return nil, fmt.Errorf("tag %q: data access on non-base tag: %w", t.Name(), ErrNotApplicable)
	}
	el := t.dataElement()
	if el == nil {
		return nil, fmt.Errorf("tag %q has no decorated data: %w", t.Name(), ErrNotApplicable)
	}
	return newData(el, t, nil)
}

// Value reads the tag's whole value through its top-level accessor.
func (t *Tag) Value() (interface{}, error) {
	d, err := t.Data()
	if err != nil {
		return nil, err
	}
	return d.Value()
}

// SetValue writes the tag's whole value through its top-level accessor.
func (t *Tag) SetValue(v interface{}) error {
	d, err := t.Data()
	if err != nil {
		return err
	}
	return d.SetValue(v)
}

// Index dispatches an index into the tag's value: string keys address
// structure members, integer keys address array elements or integer bits.
func (t *Tag) Index(key interface{}) (Data, error) {
	d, err := t.Data()
	if err != nil {
		return nil, err
	}
	switch dv := d.(type) {
	case *Structure:
		name, ok := key.(string)
		if !ok {
			return nil, fmt.Errorf("structure indices must be strings, got %T: %w", key, ErrType)
		}
		return dv.Member(name)
	case *Array:
		i, ok := toInt64(key)
		if !ok {
			return nil, fmt.Errorf("array indices must be integers, got %T: %w", key, ErrType)
		}
		return dv.Index(int(i))
	case *Integer:
		i, ok := toInt64(key)
		if !ok {
			return nil, fmt.Errorf("bit indices must be integers, got %T: %w", key, ErrType)
		}
		return dv.Bit(int(i))
	default:
		return nil, fmt.Errorf("tag %q of type %s does not support indexing: %w", t.Name(), t.DataType(), ErrNotApplicable)
	}
}

// Len mirrors Index applicability: bit width for integers, outermost
// dimension size for arrays, member count for structures.
func (t *Tag) Len() (int, error) {
	d, err := t.Data()
	if err != nil {
		return 0, err
	}
	switch dv := d.(type) {
	case *Integer:
		return dv.Width(), nil
	case *Array:
		return dv.Len(), nil
	case *Structure:
		return len(dv.Names()), nil
	default:
		return 0, fmt.Errorf("tag %q of type %s has no length: %w", t.Name(), t.DataType(), ErrNotApplicable)
	}
}

// ClearRawData removes the unformatted Data element, if any. Called on
// every value mutation so a stale raw serialization never shadows the
// modified decorated data.
func (t *Tag) ClearRawData() {
	for _, c := range t.element.SelectElements("Data") {
		if c.SelectAttr("Format") == nil {
			t.element.RemoveChild(c)
			return
		}
	}
}

// Scope is a named container of tags, either controller-wide or
// program-local. It owns the Tags element and the base-type table shared by
// every tag it yields.
type Scope struct {
	element *etree.Element
	tagsEl  *etree.Element
	types   TypeTable
}

// NewScope wraps an element owning a Tags child (a Controller or Program
// element). A nil type table selects the standard base types.
func NewScope(el *etree.Element, types TypeTable) (*Scope, error) {
	tagsEl := el.SelectElement("Tags")
	if tagsEl == nil {
		return nil, fmt.Errorf("scope element %q has no Tags child: %w", el.Tag, ErrDomain)
	}
	if types == nil {
		types = BaseTypes()
	}
	return &Scope{element: el, tagsEl: tagsEl, types: types}, nil
}

// Name returns the scope's name attribute.
func (s *Scope) Name() string { return s.element.SelectAttrValue("Name", "") }

// TagNames lists the scope's tags in document order.
func (s *Scope) TagNames() []string {
	var names []string
	for _, e := range s.tagsEl.SelectElements("Tag") {
		names = append(names, e.SelectAttrValue("Name", ""))
	}
	return names
}

// Tag returns the named tag.
func (s *Scope) Tag(name string) (*Tag, error) {
	if e := s.findTag(name); e != nil {
		return &Tag{element: e, types: s.types}, nil
	}
	return nil, fmt.Errorf("tag %q not found in scope %q: %w", name, s.Name(), ErrNotFound)
}

// RemoveTag deletes the named tag from the scope.
func (s *Scope) RemoveTag(name string) error {
	e := s.findTag(name)
	if e == nil {
		return fmt.Errorf("tag %q not found in scope %q: %w", name, s.Name(), ErrNotFound)
	}
	s.tagsEl.RemoveChild(e)
	return nil
}

func (s *Scope) findTag(name string) *etree.Element {
	for _, e := range s.tagsEl.SelectElements("Tag") {
		if e.SelectAttrValue("Name", "") == name {
			return e
		}
	}
	return nil
}
