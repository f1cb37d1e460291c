package tag

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Data is implemented by every value variant of a tag: Integer, Bit, Bool,
// Real, Structure, and Array. Variant-specific accessors (Bit, Member,
// Index) live on the concrete types.
type Data interface {
	// Element returns the backing document element.
	Element() *etree.Element

	// Tag returns the tag that owns this value.
	Tag() *Tag

	// Operand returns the comment-lookup key for this value. The tag's
	// top-level value has an empty operand.
	Operand() string

	// Value reads the current value: int64 for integer kinds and bits,
	// float64 for REAL, map[string]interface{} for structures, and
	// []interface{} for arrays.
	Value() (interface{}, error)

	// SetValue writes a new value and invalidates the tag's raw data.
	SetValue(v interface{}) error

	// Description returns the comment attached to this value's operand,
	// or an empty string when none exists.
	Description() (string, error)

	// SetDescription attaches or replaces the comment for this operand.
	SetDescription(text string) error

	// ClearDescription removes the comment for this operand if present.
	ClearDescription() error
}

// base carries the state shared by all value variants: the backing element,
// the owning tag, the parent value, and the derived operand.
type base struct {
	el      *etree.Element
	tag     *Tag
	parent  Data
	operand string
}

func newBase(el *etree.Element, tg *Tag, parent Data) base {
	b := base{el: el, tag: tg, parent: parent}
	if parent != nil {
		b.operand = childOperand(parent.Operand(), el)
	}
	return b
}

// childOperand derives a member's operand from its parent's. Named members
// join with a dot, array indices append their bracketed key directly.
// Logix stores operand attributes in upper case only.
func childOperand(parentOp string, el *etree.Element) string {
	if a := el.SelectAttr("Name"); a != nil {
		name := strings.ToUpper(a.Value)
		if parentOp == "" {
			return name
		}
		return parentOp + "." + name
	}
	if a := el.SelectAttr("Index"); a != nil {
		return parentOp + strings.ToUpper(a.Value)
	}
	return parentOp
}

func (b *base) Element() *etree.Element { return b.el }
func (b *base) Tag() *Tag               { return b.tag }
func (b *base) Operand() string         { return b.operand }

func (b *base) Description() (string, error) {
	text, _ := b.tag.comment(b.operand)
	return text, nil
}

func (b *base) SetDescription(text string) error {
	b.tag.setComment(b.operand, text)
	return nil
}

func (b *base) ClearDescription() error {
	b.tag.clearComment(b.operand)
	return nil
}

// newData constructs the value variant for a decorated data element. The
// element is inspected first: Array elements yield array views, elements
// whose DataType is in the base table yield scalars, and everything else is
// treated as a structure.
func newData(el *etree.Element, tg *Tag, parent Data) (Data, error) {
	if strings.HasPrefix(el.Tag, "Array") {
		return newArray(el, tg, parent, nil)
	}

	dt := el.SelectAttrValue("DataType", "")
	if bt, ok := tg.types[dt]; ok {
		switch bt.Kind {
		case KindReal:
			return newReal(el, tg, parent), nil
		case KindBool:
			return newBool(el, tg, parent), nil
		default:
			return newInteger(el, tg, parent, bt), nil
		}
	}
	return newStructure(el, tg, parent)
}

// toInt64 coerces integer-compatible inputs. Bools map to 0/1 and floats
// are accepted only when exactly integral, since JSON decoding hands all
// numbers over as float64.
func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case float32:
		return floatToInt64(float64(n))
	case float64:
		return floatToInt64(n)
	default:
		return 0, false
	}
}

func floatToInt64(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
		return 0, false
	}
	if f < math.MinInt64 || f > math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// formatScalar renders a value for a Value attribute during tag or structure
// construction. Range checks are deferred to the value setters.
func formatScalar(v interface{}) (string, error) {
	switch n := v.(type) {
	case string:
		return n, nil
	case float32:
		return strconv.FormatFloat(float64(n), 'g', -1, 64), nil
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return strconv.FormatInt(int64(n), 10), nil
		}
		return strconv.FormatFloat(n, 'g', -1, 64), nil
	default:
		if i, ok := toInt64(v); ok {
			return strconv.FormatInt(i, 10), nil
		}
		return "", fmt.Errorf("cannot encode %T as a tag value: %w", v, ErrType)
	}
}

// widthCast truncates v to an exact-width signed representation.
func widthCast(v int64, bits int) int64 {
	switch bits {
	case 8:
		return int64(int8(v))
	case 16:
		return int64(int16(v))
	default:
		return int64(int32(v))
	}
}
