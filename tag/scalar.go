package tag

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Integer provides access to SINT, INT, and DINT values. Integer bit
// positions are addressed through Bit.
type Integer struct {
	base
	typ BaseType
}

func newInteger(el *etree.Element, tg *Tag, parent Data, bt BaseType) *Integer {
	return &Integer{base: newBase(el, tg, parent), typ: bt}
}

// Width returns the integer's size in bits.
func (n *Integer) Width() int { return n.typ.Bits }

func (n *Integer) Value() (interface{}, error) {
	return n.intValue()
}

func (n *Integer) intValue() (int64, error) {
	return decodeIntegerAttr(n.el)
}

func (n *Integer) SetValue(v interface{}) error {
	val, ok := toInt64(v)
	if !ok {
		return fmt.Errorf("%s value must be an integer, got %T: %w", n.typ.Name, v, ErrType)
	}
	if val < n.typ.Min || val > n.typ.Max {
		return fmt.Errorf("%d outside %s range [%d, %d]: %w", val, n.typ.Name, n.typ.Min, n.typ.Max, ErrRange)
	}
	n.el.CreateAttr("Value", strconv.FormatInt(val, 10))
	n.tag.ClearRawData()
	return nil
}

// Bit returns an accessor for a single bit of the integer. The index is
// validated here, at indexing time.
func (n *Integer) Bit(i int) (*Bit, error) {
	if i < 0 || i >= n.typ.Bits {
		return nil, fmt.Errorf("bit index %d invalid for %d-bit integer: %w", i, n.typ.Bits, ErrRange)
	}
	b := &Bit{
		base:   base{el: n.el, tag: n.tag, parent: n},
		parent: n,
		bit:    i,
		mask:   widthCast(1<<uint(i), n.typ.Bits),
	}
	b.operand = bitOperand(n.operand, i)
	return b, nil
}

func bitOperand(parentOp string, bit int) string {
	if parentOp == "" {
		return strconv.Itoa(bit)
	}
	return parentOp + "." + strconv.Itoa(bit)
}

// Bit addresses one bit of a parent Integer. The mask is precomputed in the
// parent's exact-width signed representation so sign-bit writes produce
// correct negative and positive results.
type Bit struct {
	base
	parent *Integer
	bit    int
	mask   int64
}

// Index returns the bit position within the parent integer.
func (b *Bit) Index() int { return b.bit }

func (b *Bit) Value() (interface{}, error) {
	pv, err := b.parent.intValue()
	if err != nil {
		return nil, err
	}
	if widthCast(pv, b.parent.typ.Bits)&b.mask != 0 {
		return int64(1), nil
	}
	return int64(0), nil
}

func (b *Bit) SetValue(v interface{}) error {
	bv, ok := toInt64(v)
	if !ok {
		return fmt.Errorf("bit value must be an integer, got %T: %w", v, ErrType)
	}
	if bv < 0 || bv > 1 {
		return fmt.Errorf("bit value %d is not 0 or 1: %w", bv, ErrRange)
	}

	pv, err := b.parent.intValue()
	if err != nil {
		return err
	}
	cv := widthCast(pv, b.parent.typ.Bits)
	if bv == 1 {
		cv |= b.mask
	} else {
		cv &^= b.mask
	}
	// Route the write through the parent's encode path so range checks and
	// raw-data invalidation apply.
	return b.parent.SetValue(widthCast(cv, b.parent.typ.Bits))
}

// Bool provides access to BOOL values. Unlike Integer it carries no bit
// indexing; its domain is exactly {0, 1}.
type Bool struct {
	base
}

func newBool(el *etree.Element, tg *Tag, parent Data) *Bool {
	return &Bool{base: newBase(el, tg, parent)}
}

func (b *Bool) Value() (interface{}, error) {
	return decodeIntegerAttr(b.el)
}

func (b *Bool) SetValue(v interface{}) error {
	val, ok := toInt64(v)
	if !ok {
		return fmt.Errorf("BOOL value must be an integer or bool, got %T: %w", v, ErrType)
	}
	if val < 0 || val > 1 {
		return fmt.Errorf("BOOL value %d is not 0 or 1: %w", val, ErrRange)
	}
	b.el.CreateAttr("Value", strconv.FormatInt(val, 10))
	b.tag.ClearRawData()
	return nil
}

// Real provides access to REAL values.
type Real struct {
	base
}

func newReal(el *etree.Element, tg *Tag, parent Data) *Real {
	return &Real{base: newBase(el, tg, parent)}
}

func (r *Real) Value() (interface{}, error) {
	s := r.el.SelectAttrValue("Value", "")
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, fmt.Errorf("malformed REAL value %q: %w", s, ErrDomain)
	}
	return f, nil
}

func (r *Real) SetValue(v interface{}) error {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	default:
		return fmt.Errorf("REAL value must be a float, got %T: %w", v, ErrType)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("NaN and infinite values are not supported: %w", ErrDomain)
	}
	r.el.CreateAttr("Value", strconv.FormatFloat(f, 'g', -1, 64))
	r.tag.ClearRawData()
	return nil
}

// decodeIntegerAttr reads an integer Value attribute, honoring the ASCII
// radix marker when present.
func decodeIntegerAttr(el *etree.Element) (int64, error) {
	s := el.SelectAttrValue("Value", "")
	if el.SelectAttrValue("Radix", "") == "ASCII" {
		return decodeASCII(s)
	}
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed integer value %q: %w", s, ErrDomain)
	}
	return v, nil
}

// decodeASCII unpacks the Logix ASCII radix text form: printable characters
// and $NN escapes (two decimal digits naming a character code) packed
// most-significant-byte first, left-padded with zero bytes to the 4-byte
// representation. Surrounding apostrophes are stripped whether or not the
// document reader has already unescaped them.
func decodeASCII(s string) (int64, error) {
	s = strings.ReplaceAll(s, "&apos;", "")
	s = strings.ReplaceAll(s, "'", "")

	var packed []byte
	for i := 0; i < len(s); i++ {
		if s[i] == '$' && i+2 < len(s) && isDigit(s[i+1]) && isDigit(s[i+2]) {
			packed = append(packed, byte((s[i+1]-'0')*10+(s[i+2]-'0')))
			i += 2
			continue
		}
		packed = append(packed, s[i])
	}
	if len(packed) > 4 {
		return 0, fmt.Errorf("ASCII value %q exceeds 4 bytes: %w", s, ErrDomain)
	}

	buf := make([]byte, 4)
	copy(buf[4-len(packed):], packed)
	return int64(int32(binary.BigEndian.Uint32(buf))), nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
