package tag

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"l5xkit/dom"
)

// Structure provides access to a named, ordered composite of typed members.
type Structure struct {
	base
}

func newStructure(el *etree.Element, tg *Tag, parent Data) (*Structure, error) {
	b := newBase(el, tg, parent)

	// An array element of structures wraps the structure body in an extra
	// Element node; the operand comes from the wrapper, the members from
	// the body.
	if el.Tag == "Element" {
		inner := el.SelectElement("Structure")
		if inner == nil {
			return nil, fmt.Errorf("array element %q has no structure body: %w", b.operand, ErrDomain)
		}
		b.el = inner
	}
	return &Structure{base: b}, nil
}

// DataType returns the structure's declared type name.
func (s *Structure) DataType() string {
	return s.el.SelectAttrValue("DataType", "")
}

// Names lists the structure's member names in document order. Hidden
// members never appear in decorated data, so no filtering is needed here.
func (s *Structure) Names() []string {
	var names []string
	for _, c := range s.el.ChildElements() {
		if a := c.SelectAttr("Name"); a != nil {
			names = append(names, a.Value)
		}
	}
	return names
}

// Member returns the named member's value accessor. Member names are
// case-sensitive.
func (s *Structure) Member(name string) (Data, error) {
	for _, c := range s.el.ChildElements() {
		if c.SelectAttrValue("Name", "") == name {
			return newData(c, s.tag, s)
		}
	}
	return nil, fmt.Errorf("structure %q has no member %q: %w", s.DataType(), name, ErrNotFound)
}

// Value reads every member recursively into a map keyed by member name.
func (s *Structure) Value() (interface{}, error) {
	out := make(map[string]interface{})
	for _, name := range s.Names() {
		m, err := s.Member(name)
		if err != nil {
			return nil, err
		}
		v, err := m.Value()
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// SetValue assigns members from a map. Members absent from the map are left
// unchanged; an unknown key fails at member lookup. Assignments already
// applied when a later one fails are not rolled back.
func (s *Structure) SetValue(v interface{}) error {
	m, ok := v.(map[string]interface{})
	if !ok {
		return fmt.Errorf("structure value must be a map, got %T: %w", v, ErrType)
	}
	for name, mv := range m {
		member, err := s.Member(name)
		if err != nil {
			return err
		}
		if err := member.SetValue(mv); err != nil {
			return err
		}
	}
	s.tag.ClearRawData()
	return nil
}

// createStructure builds the decorated element subtree for a structure of
// the named user-defined type under parent, filling member values from
// value (a map keyed by member name, or nil for defaults). Member order
// follows the schema, hidden members are skipped, and BIT members map to
// BOOL. Unknown types are fatal.
func createStructure(res Resolver, types TypeTable, parent *etree.Element, datatype string, value interface{}) error {
	if res == nil {
		return fmt.Errorf("no type resolver for data type %q: %w", datatype, ErrDomain)
	}
	members, ok := res.TypeMembers(datatype)
	if !ok {
		return fmt.Errorf("unknown data type %q: %w", datatype, ErrDomain)
	}

	var vmap map[string]interface{}
	if value != nil {
		m, ok := value.(map[string]interface{})
		if !ok {
			return fmt.Errorf("structure value for %q must be a map, got %T: %w", datatype, value, ErrType)
		}
		vmap = m
	}

	// A StructureMember element already names the type; everything else
	// gets a Structure body element.
	structEl := parent
	if parent.Tag != "StructureMember" {
		structEl = dom.NewChild(parent, "Structure", dom.Attr{Key: "DataType", Value: datatype})
	}

	debugLogVerbose("createStructure: building %q with %d schema members", datatype, len(members))

	for _, m := range members {
		if m.Hidden {
			continue
		}

		dt := m.DataType
		if dt == "BIT" {
			dt = "BOOL"
		}
		isBase := types.IsBase(dt)

		switch {
		case m.Dimension > 0:
			if err := createArrayMember(res, types, structEl, m, dt, isBase, vmap); err != nil {
				return err
			}

		case isBase:
			val := interface{}(0)
			if vmap != nil {
				if mv, present := vmap[m.Name]; present {
					val = mv
				}
			}
			text, err := formatScalar(val)
			if err != nil {
				return fmt.Errorf("member %q: %w", m.Name, err)
			}
			attrs := []dom.Attr{
				{Key: "Name", Value: m.Name},
				{Key: "DataType", Value: dt},
			}
			if m.Radix != "" {
				attrs = append(attrs, dom.Attr{Key: "Radix", Value: m.Radix})
			}
			attrs = append(attrs, dom.Attr{Key: "Value", Value: text})
			dom.NewChild(structEl, "DataValueMember", attrs...)

		default:
			sm := dom.NewChild(structEl, "StructureMember",
				dom.Attr{Key: "Name", Value: m.Name},
				dom.Attr{Key: "DataType", Value: dt})
			var sub interface{}
			if vmap != nil {
				sub = vmap[m.Name]
			}
			if err := createStructure(res, types, sm, dt, sub); err != nil {
				return err
			}
		}
	}
	return nil
}

// createArrayMember builds the ArrayMember subtree for an array-valued
// schema member. Array members are single-dimensional by construction.
func createArrayMember(res Resolver, types TypeTable, structEl *etree.Element, m Member, dt string, isBase bool, vmap map[string]interface{}) error {
	attrs := []dom.Attr{
		{Key: "Name", Value: m.Name},
		{Key: "DataType", Value: dt},
		{Key: "Dimensions", Value: strconv.Itoa(m.Dimension)},
	}
	if isBase && m.Radix != "" {
		attrs = append(attrs, dom.Attr{Key: "Radix", Value: m.Radix})
	}
	arr := dom.NewChild(structEl, "ArrayMember", attrs...)

	var list []interface{}
	if vmap != nil {
		if mv, present := vmap[m.Name]; present && mv != nil {
			l, ok := mv.([]interface{})
			if !ok {
				return fmt.Errorf("member %q value must be a list, got %T: %w", m.Name, mv, ErrType)
			}
			list = l
		}
	}

	for j := 0; j < m.Dimension; j++ {
		key := "[" + strconv.Itoa(j) + "]"
		if isBase {
			val := interface{}(0)
			if list != nil {
				if j >= len(list) {
					return fmt.Errorf("member %q list has %d elements, need %d: %w", m.Name, len(list), m.Dimension, ErrRange)
				}
				val = list[j]
			}
			text, err := formatScalar(val)
			if err != nil {
				return fmt.Errorf("member %q%s: %w", m.Name, key, err)
			}
			dom.NewChild(arr, "Element",
				dom.Attr{Key: "Index", Value: key},
				dom.Attr{Key: "Value", Value: text})
			continue
		}

		elem := dom.NewChild(arr, "Element", dom.Attr{Key: "Index", Value: key})
		var ev interface{}
		if list != nil && j < len(list) {
			ev = list[j]
		}
		if err := createStructure(res, types, elem, dt, ev); err != nil {
			return err
		}
	}
	return nil
}
