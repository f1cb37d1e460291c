package tag

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Array provides access to a possibly multi-dimensional indexed collection
// of a single element type. Indexing accumulates an address one dimension
// at a time: partial addresses yield new Array views over the same
// elements, and a complete address resolves to the leaf element.
//
// An array that is a structure member (an ArrayMember element) may carry
// its own description; plain arrays may not, because only individual
// elements can be commented.
type Array struct {
	base
	elemType string
	dims     []int // Dimension sizes, most-significant first as declared
	address  []int // Accumulated indices, outermost dimension first
	member   bool  // True when this array is a structure member
}

func newArray(el *etree.Element, tg *Tag, parent Data, address []int) (*Array, error) {
	a := &Array{
		base:     newBase(el, tg, parent),
		elemType: el.SelectAttrValue("DataType", ""),
		address:  address,
		member:   el.Tag == "ArrayMember",
	}
	for _, d := range strings.Split(el.SelectAttrValue("Dimensions", ""), ",") {
		n, err := strconv.Atoi(strings.TrimSpace(d))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("malformed array dimensions %q: %w",
				el.SelectAttrValue("Dimensions", ""), ErrDomain)
		}
		a.dims = append(a.dims, n)
	}
	return a, nil
}

// Shape returns the dimension sizes in declared order.
func (a *Array) Shape() []int {
	out := make([]int, len(a.dims))
	copy(out, a.dims)
	return out
}

// Len returns the size of the outermost unresolved dimension.
func (a *Array) Len() int {
	return a.dims[len(a.address)]
}

// Index resolves one more dimension of the address. When the accumulated
// address covers every dimension the concrete leaf element is returned;
// otherwise the result is a narrowed Array view.
func (a *Array) Index(i int) (Data, error) {
	dim := a.dims[len(a.address)]
	if i < 0 || i >= dim {
		return nil, fmt.Errorf("array index %d outside dimension of size %d: %w", i, dim, ErrRange)
	}

	addr := make([]int, len(a.address), len(a.address)+1)
	copy(addr, a.address)
	addr = append(addr, i)

	if len(addr) < len(a.dims) {
		view := &Array{
			base:     a.base,
			elemType: a.elemType,
			dims:     a.dims,
			address:  addr,
			member:   a.member,
		}
		return view, nil
	}

	key := indexKey(addr)
	for _, c := range a.el.SelectElements("Element") {
		if c.SelectAttrValue("Index", "") == key {
			return a.newElement(c)
		}
	}
	return nil, fmt.Errorf("array element %s missing from document: %w", key, ErrNotFound)
}

// newElement builds the leaf accessor for a resolved Element node, typed by
// the array's declared element type.
func (a *Array) newElement(el *etree.Element) (Data, error) {
	if bt, ok := a.tag.types[a.elemType]; ok {
		switch bt.Kind {
		case KindReal:
			return newReal(el, a.tag, a), nil
		case KindBool:
			return newBool(el, a.tag, a), nil
		default:
			return newInteger(el, a.tag, a, bt), nil
		}
	}
	return newStructure(el, a.tag, a)
}

// Value reads every index of the outermost unresolved dimension.
func (a *Array) Value() (interface{}, error) {
	n := a.dims[len(a.address)]
	out := make([]interface{}, n)
	for i := 0; i < n; i++ {
		d, err := a.Index(i)
		if err != nil {
			return nil, err
		}
		v, err := d.Value()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// SetValue assigns element-wise from a list over the outermost unresolved
// dimension. The list may be shorter than the dimension but not longer.
func (a *Array) SetValue(v interface{}) error {
	list, ok := v.([]interface{})
	if !ok {
		return fmt.Errorf("array value must be a list, got %T: %w", v, ErrType)
	}
	if len(list) > a.dims[len(a.address)] {
		return fmt.Errorf("source list of %d elements exceeds dimension of size %d: %w",
			len(list), a.dims[len(a.address)], ErrRange)
	}
	for i, item := range list {
		d, err := a.Index(i)
		if err != nil {
			return err
		}
		if err := d.SetValue(item); err != nil {
			return err
		}
	}
	a.tag.ClearRawData()
	return nil
}

// Descriptions are refused on plain arrays: Logix only supports comments on
// individual elements, never on subarrays. Structure-member arrays are
// single-dimensional by construction and keep the default behavior.

func (a *Array) Description() (string, error) {
	if !a.member {
		return "", fmt.Errorf("descriptions for subarrays are not supported: %w", ErrNotApplicable)
	}
	return a.base.Description()
}

func (a *Array) SetDescription(text string) error {
	if !a.member {
		return fmt.Errorf("descriptions for subarrays are not supported: %w", ErrNotApplicable)
	}
	return a.base.SetDescription(text)
}

func (a *Array) ClearDescription() error {
	if !a.member {
		return fmt.Errorf("descriptions for subarrays are not supported: %w", ErrNotApplicable)
	}
	return a.base.ClearDescription()
}

// indexKey forms the canonical bracketed element key for a complete
// address, most-significant dimension first.
func indexKey(addr []int) string {
	parts := make([]string, len(addr))
	for i, a := range addr {
		parts[i] = strconv.Itoa(a)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
