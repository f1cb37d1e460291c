package tag

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"l5xkit/dom"
)

// TagSpec describes a tag to be created within a scope.
type TagSpec struct {
	Name        string
	TagType     string      // Base or Alias
	DataType    string      // Required for Base tags
	Value       interface{} // Optional; no decorated data is built when nil
	Description string
	Radix       string // Defaults to Decimal for base scalar types
	Dimensions  int    // Element count for a one-dimensional array tag, 0 for a scalar
	AliasFor    string // Required for Alias tags
}

// CreateTag builds a new tag element in the scope and returns its accessor.
// Structure values need a resolver for the user-defined type schemas; name
// collisions are a scope-level concern and are not re-validated here.
func (s *Scope) CreateTag(res Resolver, spec TagSpec) (*Tag, error) {
	switch spec.TagType {
	case TypeBase:
		return s.createBaseTag(res, spec)
	case TypeAlias:
		return s.createAliasTag(spec)
	default:
		return nil, fmt.Errorf("unsupported tag type %q: %w", spec.TagType, ErrDomain)
	}
}

func (s *Scope) createAliasTag(spec TagSpec) (*Tag, error) {
	if spec.AliasFor == "" {
		return nil, fmt.Errorf("alias tag %q requires an alias target: %w", spec.Name, ErrDomain)
	}
	attrs := []dom.Attr{
		{Key: "Name", Value: spec.Name},
		{Key: "TagType", Value: TypeAlias},
		{Key: "AliasFor", Value: spec.AliasFor},
		{Key: "ExternalAccess", Value: "Read/Write"},
	}
	if spec.Radix != "" {
		attrs = append(attrs, dom.Attr{Key: "Radix", Value: spec.Radix})
	}
	el := dom.NewChild(s.tagsEl, "Tag", attrs...)
	tg := &Tag{element: el, types: s.types}
	if spec.Description != "" {
		tg.SetDescription(spec.Description)
	}
	debugLog("created alias tag %q -> %q in scope %q", spec.Name, spec.AliasFor, s.Name())
	return tg, nil
}

func (s *Scope) createBaseTag(res Resolver, spec TagSpec) (*Tag, error) {
	if spec.DataType == "" {
		return nil, fmt.Errorf("base tag %q requires a data type: %w", spec.Name, ErrDomain)
	}

	radix := spec.Radix
	if radix == "" {
		radix = "Decimal"
	}
	isBase := s.types.IsBase(spec.DataType)

	attrs := []dom.Attr{
		{Key: "Name", Value: spec.Name},
		{Key: "TagType", Value: TypeBase},
		{Key: "DataType", Value: spec.DataType},
		{Key: "Constant", Value: "false"},
		{Key: "ExternalAccess", Value: "Read/Write"},
	}
	if isBase {
		attrs = append(attrs, dom.Attr{Key: "Radix", Value: radix})
	}
	if spec.Dimensions > 0 {
		attrs = append(attrs, dom.Attr{Key: "Dimensions", Value: strconv.Itoa(spec.Dimensions)})
	}
	el := dom.NewChild(s.tagsEl, "Tag", attrs...)

	if spec.Value != nil {
		if err := s.createTagData(res, el, spec, radix, isBase); err != nil {
			// Leave no half-built tag behind.
			s.tagsEl.RemoveChild(el)
			return nil, err
		}
	}

	tg := &Tag{element: el, types: s.types}
	if spec.Description != "" {
		tg.SetDescription(spec.Description)
	}
	debugLog("created base tag %q of type %s in scope %q", spec.Name, spec.DataType, s.Name())
	return tg, nil
}

// createTagData builds the decorated Data subtree for a new base tag.
func (s *Scope) createTagData(res Resolver, el *etree.Element, spec TagSpec, radix string, isBase bool) error {
	data := dom.NewChild(el, "Data", dom.Attr{Key: "Format", Value: "Decorated"})

	switch {
	case isBase && spec.Dimensions == 0:
		text, err := formatScalar(spec.Value)
		if err != nil {
			return fmt.Errorf("tag %q: %w", spec.Name, err)
		}
		dom.NewChild(data, "DataValue",
			dom.Attr{Key: "DataType", Value: spec.DataType},
			dom.Attr{Key: "Radix", Value: radix},
			dom.Attr{Key: "Value", Value: text})
		return nil

	case isBase:
		list, err := tagValueList(spec)
		if err != nil {
			return err
		}
		arr := dom.NewChild(data, "Array",
			dom.Attr{Key: "DataType", Value: spec.DataType},
			dom.Attr{Key: "Dimensions", Value: strconv.Itoa(spec.Dimensions)},
			dom.Attr{Key: "Radix", Value: radix})
		for i := 0; i < spec.Dimensions; i++ {
			text, err := formatScalar(list[i])
			if err != nil {
				return fmt.Errorf("tag %q[%d]: %w", spec.Name, i, err)
			}
			dom.NewChild(arr, "Element",
				dom.Attr{Key: "Index", Value: "[" + strconv.Itoa(i) + "]"},
				dom.Attr{Key: "Value", Value: text})
		}
		return nil

	case spec.Dimensions == 0:
		return createStructure(res, s.types, data, spec.DataType, spec.Value)

	default:
		list, err := tagValueList(spec)
		if err != nil {
			return err
		}
		arr := dom.NewChild(data, "Array",
			dom.Attr{Key: "DataType", Value: spec.DataType},
			dom.Attr{Key: "Dimensions", Value: strconv.Itoa(spec.Dimensions)})
		for i := 0; i < spec.Dimensions; i++ {
			elem := dom.NewChild(arr, "Element",
				dom.Attr{Key: "Index", Value: "[" + strconv.Itoa(i) + "]"})
			if err := createStructure(res, s.types, elem, spec.DataType, list[i]); err != nil {
				return err
			}
		}
		return nil
	}
}

// tagValueList validates an array tag's creation value: a list covering
// every declared element.
func tagValueList(spec TagSpec) ([]interface{}, error) {
	list, ok := spec.Value.([]interface{})
	if !ok {
		return nil, fmt.Errorf("array tag %q value must be a list, got %T: %w", spec.Name, spec.Value, ErrType)
	}
	if len(list) < spec.Dimensions {
		return nil, fmt.Errorf("array tag %q value has %d elements, need %d: %w",
			spec.Name, len(list), spec.Dimensions, ErrRange)
	}
	return list, nil
}
