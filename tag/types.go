package tag

// Kind classifies the base scalar families for value dispatch.
type Kind int

const (
	KindInteger Kind = iota
	KindBool
	KindReal
)

// BaseType describes one of the atomic Logix data types.
type BaseType struct {
	Name string
	Kind Kind
	Bits int   // Width in bits; 1 for BOOL, 0 for REAL
	Min  int64 // Smallest encodable value (integer kinds)
	Max  int64 // Largest encodable value (integer kinds)
}

// TypeTable maps base data type names to their definitions. The table is
// passed explicitly to scopes and construction functions rather than living
// in package state, so tests can substitute restricted tables.
type TypeTable map[string]BaseType

// BaseTypes returns the standard table of atomic Logix types.
func BaseTypes() TypeTable {
	return TypeTable{
		"SINT": {Name: "SINT", Kind: KindInteger, Bits: 8, Min: -128, Max: 127},
		"INT":  {Name: "INT", Kind: KindInteger, Bits: 16, Min: -32768, Max: 32767},
		"DINT": {Name: "DINT", Kind: KindInteger, Bits: 32, Min: -2147483648, Max: 2147483647},
		"BOOL": {Name: "BOOL", Kind: KindBool, Bits: 1, Min: 0, Max: 1},
		"REAL": {Name: "REAL", Kind: KindReal},
	}
}

// IsBase reports whether name is an atomic type in this table.
func (t TypeTable) IsBase(name string) bool {
	_, ok := t[name]
	return ok
}

// Member describes one entry of a user-defined type's ordered member schema.
type Member struct {
	Name     string
	DataType string
	Radix    string
	Dimension int  // Element count for array members, 0 for scalars
	Hidden   bool // Hidden members are skipped during construction and listing
}

// Resolver supplies user-defined type schemas. It is consumed during
// structure construction and when creating tags of non-base types.
// project.Project implements it over the export's DataTypes element.
type Resolver interface {
	// TypeMembers returns the ordered member schema for a named type.
	// The second return is false when the type is unknown.
	TypeMembers(name string) ([]Member, bool)
}
