package tag

import (
	"errors"
	"reflect"
	"testing"
)

// schemaTable is a static Resolver for construction tests.
type schemaTable map[string][]Member

func (s schemaTable) TypeMembers(name string) ([]Member, bool) {
	m, ok := s[name]
	return m, ok
}

func testSchemas() schemaTable {
	return schemaTable{
		"TIMER": {
			{Name: "PRE", DataType: "DINT", Radix: "Decimal"},
			{Name: "ACC", DataType: "DINT", Radix: "Decimal"},
			{Name: "EN", DataType: "BOOL"},
			{Name: "ZZZZZZZZZZ", DataType: "SINT", Radix: "Decimal", Hidden: true},
		},
		"COUNTS": {
			{Name: "FLAG", DataType: "BIT"},
			{Name: "VALS", DataType: "DINT", Radix: "Decimal", Dimension: 3},
			{Name: "RUNTIME", DataType: "TIMER"},
		},
	}
}

func emptyScope(t *testing.T) *Scope {
	t.Helper()
	return parseScope(t, `<Controller Name="LINE_1"><Tags/></Controller>`)
}

func TestCreateScalarTag(t *testing.T) {
	s := emptyScope(t)
	tg, err := s.CreateTag(nil, TagSpec{
		Name:        "SPEED",
		TagType:     TypeBase,
		DataType:    "DINT",
		Value:       42,
		Description: "line speed",
	})
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}

	v, err := tg.Value()
	if err != nil {
		t.Fatalf("Value() failed: %v", err)
	}
	if v.(int64) != 42 {
		t.Errorf("Value() = %v, want 42", v)
	}
	text, ok := tg.Description()
	if !ok || text != "line speed" {
		t.Errorf("Description() = %q, %v", text, ok)
	}
	if !reflect.DeepEqual(s.TagNames(), []string{"SPEED"}) {
		t.Errorf("TagNames() = %v", s.TagNames())
	}

	// Created element carries the expected radix.
	dv := tg.Element().FindElement("Data/DataValue")
	if dv == nil || dv.SelectAttrValue("Radix", "") != "Decimal" {
		t.Error("DataValue missing default Decimal radix")
	}
}

func TestCreateScalarTagWithoutValue(t *testing.T) {
	s := emptyScope(t)
	tg, err := s.CreateTag(nil, TagSpec{Name: "SPARE", TagType: TypeBase, DataType: "INT"})
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}
	if _, err := tg.Data(); !errors.Is(err, ErrNotApplicable) {
		t.Errorf("Data() error = %v, want ErrNotApplicable", err)
	}
}

func TestCreateRealTag(t *testing.T) {
	s := emptyScope(t)
	tg, err := s.CreateTag(nil, TagSpec{
		Name: "RATE", TagType: TypeBase, DataType: "REAL", Radix: "Float", Value: 1.5,
	})
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}
	v, _ := tg.Value()
	if v.(float64) != 1.5 {
		t.Errorf("Value() = %v, want 1.5", v)
	}
}

func TestCreateArrayTag(t *testing.T) {
	s := emptyScope(t)
	tg, err := s.CreateTag(nil, TagSpec{
		Name: "SETPOINTS", TagType: TypeBase, DataType: "DINT",
		Dimensions: 3, Value: []interface{}{10, 20, 30},
	})
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}
	v, err := tg.Value()
	if err != nil {
		t.Fatalf("Value() failed: %v", err)
	}
	want := []interface{}{int64(10), int64(20), int64(30)}
	if !reflect.DeepEqual(v, want) {
		t.Errorf("Value() = %v, want %v", v, want)
	}
}

func TestCreateArrayTagShortValue(t *testing.T) {
	s := emptyScope(t)
	_, err := s.CreateTag(nil, TagSpec{
		Name: "SETPOINTS", TagType: TypeBase, DataType: "DINT",
		Dimensions: 3, Value: []interface{}{10, 20},
	})
	if !errors.Is(err, ErrRange) {
		t.Fatalf("CreateTag error = %v, want ErrRange", err)
	}
	// A failed creation leaves no partial tag behind.
	if len(s.TagNames()) != 0 {
		t.Errorf("TagNames() = %v, want empty", s.TagNames())
	}
}

func TestCreateStructureTag(t *testing.T) {
	s := emptyScope(t)
	res := testSchemas()
	tg, err := s.CreateTag(res, TagSpec{
		Name: "RUN_TIMER", TagType: TypeBase, DataType: "TIMER",
		Value: map[string]interface{}{"PRE": 500},
	})
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}

	d, err := tg.Data()
	if err != nil {
		t.Fatalf("Data() failed: %v", err)
	}
	st := d.(*Structure)

	// Hidden schema members never make it into decorated data.
	want := []string{"PRE", "ACC", "EN"}
	if got := st.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}

	v, _ := st.Value()
	m := v.(map[string]interface{})
	if m["PRE"].(int64) != 500 {
		t.Errorf("PRE = %v, want 500", m["PRE"])
	}
	if m["ACC"].(int64) != 0 {
		t.Errorf("ACC = %v, want 0 (default)", m["ACC"])
	}
}

func TestCreateStructureTagBitAndArrayMembers(t *testing.T) {
	s := emptyScope(t)
	res := testSchemas()
	tg, err := s.CreateTag(res, TagSpec{
		Name: "COUNTERS", TagType: TypeBase, DataType: "COUNTS",
		Value: map[string]interface{}{
			"FLAG": 1,
			"VALS": []interface{}{7, 8, 9},
			"RUNTIME": map[string]interface{}{
				"PRE": 100,
			},
		},
	})
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}

	d, _ := tg.Data()
	st := d.(*Structure)

	// BIT schema members become BOOL values.
	flag, err := st.Member("FLAG")
	if err != nil {
		t.Fatalf("Member(FLAG) failed: %v", err)
	}
	if _, ok := flag.(*Bool); !ok {
		t.Errorf("FLAG variant = %T, want *Bool", flag)
	}
	fv, _ := flag.Value()
	if fv.(int64) != 1 {
		t.Errorf("FLAG = %v, want 1", fv)
	}

	vals, _ := st.Member("VALS")
	vv, err := vals.Value()
	if err != nil {
		t.Fatalf("VALS Value() failed: %v", err)
	}
	if !reflect.DeepEqual(vv, []interface{}{int64(7), int64(8), int64(9)}) {
		t.Errorf("VALS = %v", vv)
	}

	rt, _ := st.Member("RUNTIME")
	rv, _ := rt.Value()
	rm := rv.(map[string]interface{})
	if rm["PRE"].(int64) != 100 {
		t.Errorf("RUNTIME.PRE = %v, want 100", rm["PRE"])
	}
	if rm["ACC"].(int64) != 0 {
		t.Errorf("RUNTIME.ACC = %v, want 0 (default)", rm["ACC"])
	}
}

func TestCreateStructureArrayTag(t *testing.T) {
	s := emptyScope(t)
	res := testSchemas()
	tg, err := s.CreateTag(res, TagSpec{
		Name: "TIMERS", TagType: TypeBase, DataType: "TIMER", Dimensions: 2,
		Value: []interface{}{
			map[string]interface{}{"PRE": 100},
			map[string]interface{}{"PRE": 200},
		},
	})
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}

	// Each element owns a distinct structure body.
	for i, want := range []int64{100, 200} {
		e, err := tg.Index(i)
		if err != nil {
			t.Fatalf("Index(%d) failed: %v", i, err)
		}
		pre, err := e.(*Structure).Member("PRE")
		if err != nil {
			t.Fatalf("Member(PRE) failed: %v", err)
		}
		v, _ := pre.Value()
		if v.(int64) != want {
			t.Errorf("[%d].PRE = %v, want %d", i, v, want)
		}
	}
}

func TestCreateStructureTagErrors(t *testing.T) {
	s := emptyScope(t)
	res := testSchemas()

	t.Run("unknown type", func(t *testing.T) {
		_, err := s.CreateTag(res, TagSpec{
			Name: "X", TagType: TypeBase, DataType: "WIDGET",
			Value: map[string]interface{}{},
		})
		if !errors.Is(err, ErrDomain) {
			t.Errorf("CreateTag error = %v, want ErrDomain", err)
		}
	})

	t.Run("no resolver", func(t *testing.T) {
		_, err := s.CreateTag(nil, TagSpec{
			Name: "X", TagType: TypeBase, DataType: "TIMER",
			Value: map[string]interface{}{},
		})
		if !errors.Is(err, ErrDomain) {
			t.Errorf("CreateTag error = %v, want ErrDomain", err)
		}
	})

	t.Run("non-map value", func(t *testing.T) {
		_, err := s.CreateTag(res, TagSpec{
			Name: "X", TagType: TypeBase, DataType: "TIMER", Value: 5,
		})
		if !errors.Is(err, ErrType) {
			t.Errorf("CreateTag error = %v, want ErrType", err)
		}
	})

	t.Run("short array member value", func(t *testing.T) {
		_, err := s.CreateTag(res, TagSpec{
			Name: "X", TagType: TypeBase, DataType: "COUNTS",
			Value: map[string]interface{}{"VALS": []interface{}{1}},
		})
		if !errors.Is(err, ErrRange) {
			t.Errorf("CreateTag error = %v, want ErrRange", err)
		}
	})

	if len(s.TagNames()) != 0 {
		t.Errorf("TagNames() = %v, want empty after failed creations", s.TagNames())
	}
}

func TestCreateAliasTag(t *testing.T) {
	s := emptyScope(t)
	tg, err := s.CreateTag(nil, TagSpec{
		Name: "SPEED_ALIAS", TagType: TypeAlias, AliasFor: "SPEED",
	})
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}
	if tg.TagType() != TypeAlias {
		t.Errorf("TagType() = %q", tg.TagType())
	}
	if tg.AliasFor() != "SPEED" {
		t.Errorf("AliasFor() = %q", tg.AliasFor())
	}

	if _, err := s.CreateTag(nil, TagSpec{Name: "BAD", TagType: TypeAlias}); !errors.Is(err, ErrDomain) {
		t.Errorf("CreateTag without target error = %v, want ErrDomain", err)
	}
}

func TestCreateTagInvalidSpecs(t *testing.T) {
	s := emptyScope(t)
	if _, err := s.CreateTag(nil, TagSpec{Name: "X", TagType: "Produced"}); !errors.Is(err, ErrDomain) {
		t.Errorf("unsupported tag type error = %v, want ErrDomain", err)
	}
	if _, err := s.CreateTag(nil, TagSpec{Name: "X", TagType: TypeBase}); !errors.Is(err, ErrDomain) {
		t.Errorf("missing data type error = %v, want ErrDomain", err)
	}
}
