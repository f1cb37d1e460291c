package tag

import (
	"errors"
	"reflect"
	"testing"
)

func timerTag(t *testing.T) *Tag {
	t.Helper()
	return parseTagXML(t, `<Tag Name="RUN_TIMER" TagType="Base" DataType="TIMER">
<Data Format="Decorated">
<Structure DataType="TIMER">
<DataValueMember Name="PRE" DataType="DINT" Radix="Decimal" Value="500"/>
<DataValueMember Name="ACC" DataType="DINT" Radix="Decimal" Value="120"/>
<DataValueMember Name="EN" DataType="BOOL" Value="0"/>
<DataValueMember Name="TT" DataType="BOOL" Value="0"/>
<DataValueMember Name="DN" DataType="BOOL" Value="1"/>
</Structure>
</Data>
</Tag>`)
}

func nestedTag(t *testing.T) *Tag {
	t.Helper()
	return parseTagXML(t, `<Tag Name="MOTOR" TagType="Base" DataType="MOTOR_DATA">
<Data Format="Decorated">
<Structure DataType="MOTOR_DATA">
<DataValueMember Name="SPEED" DataType="REAL" Radix="Float" Value="12.5"/>
<StructureMember Name="RUNTIME" DataType="TIMER">
<DataValueMember Name="PRE" DataType="DINT" Radix="Decimal" Value="1000"/>
<DataValueMember Name="ACC" DataType="DINT" Radix="Decimal" Value="0"/>
</StructureMember>
<ArrayMember Name="FAULTS" DataType="DINT" Dimensions="3" Radix="Decimal">
<Element Index="[0]" Value="0"/>
<Element Index="[1]" Value="0"/>
<Element Index="[2]" Value="0"/>
</ArrayMember>
</Structure>
</Data>
</Tag>`)
}

func TestStructureRead(t *testing.T) {
	tg := timerTag(t)
	d, err := tg.Data()
	if err != nil {
		t.Fatalf("Data() failed: %v", err)
	}
	s, ok := d.(*Structure)
	if !ok {
		t.Fatalf("variant = %T, want *Structure", d)
	}
	if s.DataType() != "TIMER" {
		t.Errorf("DataType() = %q, want TIMER", s.DataType())
	}

	want := []string{"PRE", "ACC", "EN", "TT", "DN"}
	if got := s.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}

	pre, err := s.Member("PRE")
	if err != nil {
		t.Fatalf("Member(PRE) failed: %v", err)
	}
	v, _ := pre.Value()
	if v.(int64) != 500 {
		t.Errorf("PRE = %v, want 500", v)
	}
	if pre.Operand() != "PRE" {
		t.Errorf("PRE operand = %q, want PRE", pre.Operand())
	}

	if _, err := s.Member("NOPE"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Member(NOPE) error = %v, want ErrNotFound", err)
	}

	whole, err := s.Value()
	if err != nil {
		t.Fatalf("Value() failed: %v", err)
	}
	wantMap := map[string]interface{}{
		"PRE": int64(500), "ACC": int64(120),
		"EN": int64(0), "TT": int64(0), "DN": int64(1),
	}
	if !reflect.DeepEqual(whole, wantMap) {
		t.Errorf("Value() = %v, want %v", whole, wantMap)
	}
}

func TestStructureWrite(t *testing.T) {
	tg := timerTag(t)
	d, _ := tg.Data()
	s := d.(*Structure)

	if err := s.SetValue(map[string]interface{}{"PRE": 750, "EN": 1}); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	whole, _ := s.Value()
	m := whole.(map[string]interface{})
	if m["PRE"].(int64) != 750 {
		t.Errorf("PRE = %v, want 750", m["PRE"])
	}
	if m["EN"].(int64) != 1 {
		t.Errorf("EN = %v, want 1", m["EN"])
	}
	if m["ACC"].(int64) != 120 {
		t.Errorf("ACC = %v, want 120 (unchanged)", m["ACC"])
	}

	if err := s.SetValue([]interface{}{1, 2}); !errors.Is(err, ErrType) {
		t.Errorf("SetValue(list) error = %v, want ErrType", err)
	}
	if err := s.SetValue(map[string]interface{}{"NOPE": 1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetValue(unknown member) error = %v, want ErrNotFound", err)
	}
}

func TestStructureNested(t *testing.T) {
	tg := nestedTag(t)
	d, _ := tg.Data()
	s := d.(*Structure)

	rt, err := s.Member("RUNTIME")
	if err != nil {
		t.Fatalf("Member(RUNTIME) failed: %v", err)
	}
	inner, ok := rt.(*Structure)
	if !ok {
		t.Fatalf("RUNTIME variant = %T, want *Structure", rt)
	}
	pre, err := inner.Member("PRE")
	if err != nil {
		t.Fatalf("Member(PRE) failed: %v", err)
	}
	if pre.Operand() != "RUNTIME.PRE" {
		t.Errorf("nested operand = %q, want RUNTIME.PRE", pre.Operand())
	}

	faults, err := s.Member("FAULTS")
	if err != nil {
		t.Fatalf("Member(FAULTS) failed: %v", err)
	}
	arr, ok := faults.(*Array)
	if !ok {
		t.Fatalf("FAULTS variant = %T, want *Array", faults)
	}
	if arr.Operand() != "FAULTS" {
		t.Errorf("array member operand = %q, want FAULTS", arr.Operand())
	}
	e, err := arr.Index(2)
	if err != nil {
		t.Fatalf("Index(2) failed: %v", err)
	}
	if e.Operand() != "FAULTS[2]" {
		t.Errorf("array element operand = %q, want FAULTS[2]", e.Operand())
	}

	// Array members may carry a description, unlike freestanding arrays.
	if err := arr.SetDescription("fault codes"); err != nil {
		t.Fatalf("SetDescription failed: %v", err)
	}
	text, err := arr.Description()
	if err != nil {
		t.Fatalf("Description failed: %v", err)
	}
	if text != "fault codes" {
		t.Errorf("description = %q, want fault codes", text)
	}

	speed, _ := s.Member("SPEED")
	if _, ok := speed.(*Real); !ok {
		t.Errorf("SPEED variant = %T, want *Real", speed)
	}
}

func TestStructureBitOperand(t *testing.T) {
	tg := timerTag(t)
	d, _ := tg.Data()
	acc, err := d.(*Structure).Member("ACC")
	if err != nil {
		t.Fatalf("Member(ACC) failed: %v", err)
	}
	b, err := acc.(*Integer).Bit(3)
	if err != nil {
		t.Fatalf("Bit(3) failed: %v", err)
	}
	if b.Operand() != "ACC.3" {
		t.Errorf("bit operand = %q, want ACC.3", b.Operand())
	}
	v, _ := b.Value()
	if v.(int64) != 1 {
		t.Errorf("bit 3 of 120 = %v, want 1", v)
	}
}
