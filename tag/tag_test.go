package tag

import (
	"errors"
	"reflect"
	"testing"

	"github.com/beevik/etree"
)

func parseScope(t *testing.T, src string) *Scope {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(src); err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	s, err := NewScope(doc.Root(), nil)
	if err != nil {
		t.Fatalf("NewScope failed: %v", err)
	}
	return s
}

func TestTagAttributes(t *testing.T) {
	tg := parseTagXML(t, `<Tag Name="SPEED_SP" TagType="Base" DataType="REAL" Constant="true" ExternalAccess="Read Only">
<Data Format="Decorated">
<DataValue DataType="REAL" Radix="Float" Value="0.0"/>
</Data>
</Tag>`)
	if tg.Name() != "SPEED_SP" {
		t.Errorf("Name() = %q", tg.Name())
	}
	if tg.TagType() != TypeBase {
		t.Errorf("TagType() = %q", tg.TagType())
	}
	if tg.DataType() != "REAL" {
		t.Errorf("DataType() = %q", tg.DataType())
	}
	if !tg.Constant() {
		t.Error("Constant() = false, want true")
	}
	if tg.ExternalAccess() != "Read Only" {
		t.Errorf("ExternalAccess() = %q", tg.ExternalAccess())
	}
}

func TestTagIndexDispatch(t *testing.T) {
	t.Run("integer bit", func(t *testing.T) {
		tg := scalarTag(t, "INT", "Decimal", "5")
		d, err := tg.Index(0)
		if err != nil {
			t.Fatalf("Index(0) failed: %v", err)
		}
		v, _ := d.Value()
		if v.(int64) != 1 {
			t.Errorf("bit 0 of 5 = %v, want 1", v)
		}
		if _, err := tg.Index("PRE"); !errors.Is(err, ErrType) {
			t.Errorf("string index on integer error = %v, want ErrType", err)
		}
	})

	t.Run("array element", func(t *testing.T) {
		tg := arrayTag1D(t)
		d, err := tg.Index(1)
		if err != nil {
			t.Fatalf("Index(1) failed: %v", err)
		}
		v, _ := d.Value()
		if v.(int64) != 20 {
			t.Errorf("[1] = %v, want 20", v)
		}
		if _, err := tg.Index("PRE"); !errors.Is(err, ErrType) {
			t.Errorf("string index on array error = %v, want ErrType", err)
		}
	})

	t.Run("structure member", func(t *testing.T) {
		tg := timerTag(t)
		d, err := tg.Index("ACC")
		if err != nil {
			t.Fatalf("Index(ACC) failed: %v", err)
		}
		v, _ := d.Value()
		if v.(int64) != 120 {
			t.Errorf("ACC = %v, want 120", v)
		}
		if _, err := tg.Index(0); !errors.Is(err, ErrType) {
			t.Errorf("integer index on structure error = %v, want ErrType", err)
		}
	})

	t.Run("bool refuses indexing", func(t *testing.T) {
		tg := scalarTag(t, "BOOL", "Decimal", "1")
		if _, err := tg.Index(0); !errors.Is(err, ErrNotApplicable) {
			t.Errorf("Index(0) on BOOL error = %v, want ErrNotApplicable", err)
		}
	})
}

func TestTagLen(t *testing.T) {
	tests := []struct {
		name string
		tg   func(*testing.T) *Tag
		want int
	}{
		{"integer width", func(t *testing.T) *Tag { return scalarTag(t, "INT", "Decimal", "0") }, 16},
		{"array outer dimension", arrayTag2D, 2},
		{"structure member count", timerTag, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.tg(t).Len()
			if err != nil {
				t.Fatalf("Len() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Len() = %d, want %d", got, tt.want)
			}
		})
	}

	tg := scalarTag(t, "REAL", "Float", "0.0")
	if _, err := tg.Len(); !errors.Is(err, ErrNotApplicable) {
		t.Errorf("Len() on REAL error = %v, want ErrNotApplicable", err)
	}
}

func TestTagDescription(t *testing.T) {
	tg := scalarTag(t, "DINT", "Decimal", "0")

	if _, ok := tg.Description(); ok {
		t.Error("Description() reported text on a bare tag")
	}

	tg.SetDescription("line speed setpoint")
	text, ok := tg.Description()
	if !ok || text != "line speed setpoint" {
		t.Errorf("Description() = %q, %v", text, ok)
	}

	// The Description element goes before the tag's data.
	desc := tg.Element().SelectElement("Description")
	data := tg.Element().SelectElement("Data")
	if desc == nil || data == nil || desc.Index() > data.Index() {
		t.Error("Description element not placed before Data")
	}

	tg.SetDescription("updated")
	if text, _ := tg.Description(); text != "updated" {
		t.Errorf("Description() = %q, want updated", text)
	}

	tg.ClearDescription()
	if _, ok := tg.Description(); ok {
		t.Error("Description() reported text after removal")
	}
}

func TestMemberComments(t *testing.T) {
	tg := timerTag(t)
	d, _ := tg.Data()
	s := d.(*Structure)
	pre, _ := s.Member("PRE")

	text, err := pre.Description()
	if err != nil {
		t.Fatalf("Description failed: %v", err)
	}
	if text != "" {
		t.Errorf("description on uncommented member = %q, want empty", text)
	}

	if err := pre.SetDescription("preset ms"); err != nil {
		t.Fatalf("SetDescription failed: %v", err)
	}
	text, _ = pre.Description()
	if text != "preset ms" {
		t.Errorf("description = %q, want preset ms", text)
	}

	comments := tg.Element().SelectElement("Comments")
	if comments == nil {
		t.Fatal("no Comments element created")
	}
	data := tg.Element().SelectElement("Data")
	if comments.Index() > data.Index() {
		t.Error("Comments element not placed before Data")
	}
	entry := comments.SelectElement("Comment")
	if entry == nil || entry.SelectAttrValue("Operand", "") != "PRE" {
		t.Errorf("comment operand = %q, want PRE", entry.SelectAttrValue("Operand", ""))
	}

	if err := pre.ClearDescription(); err != nil {
		t.Fatalf("ClearDescription failed: %v", err)
	}
	text, _ = pre.Description()
	if text != "" {
		t.Errorf("description after removal = %q, want empty", text)
	}
	// The emptied container stays behind.
	if tg.Element().SelectElement("Comments") == nil {
		t.Error("Comments container removed along with its last entry")
	}
}

func TestConsumedTag(t *testing.T) {
	tg := parseTagXML(t, `<Tag Name="REMOTE_SPEED" TagType="Consumed" DataType="DINT">
<ConsumeInfo Producer="PLC_EAST" RemoteTag="SPEED"/>
</Tag>`)

	p, err := tg.Producer()
	if err != nil {
		t.Fatalf("Producer() failed: %v", err)
	}
	if p != "PLC_EAST" {
		t.Errorf("Producer() = %q", p)
	}
	r, _ := tg.RemoteTag()
	if r != "SPEED" {
		t.Errorf("RemoteTag() = %q", r)
	}

	if err := tg.SetProducer("PLC_WEST"); err != nil {
		t.Fatalf("SetProducer failed: %v", err)
	}
	p, _ = tg.Producer()
	if p != "PLC_WEST" {
		t.Errorf("Producer() = %q, want PLC_WEST", p)
	}

	if err := tg.SetProducer(""); !errors.Is(err, ErrDomain) {
		t.Errorf("SetProducer(empty) error = %v, want ErrDomain", err)
	}
	if err := tg.SetRemoteTag(""); !errors.Is(err, ErrDomain) {
		t.Errorf("SetRemoteTag(empty) error = %v, want ErrDomain", err)
	}

	if _, err := tg.Data(); !errors.Is(err, ErrNotApplicable) {
		t.Errorf("Data() on consumed tag error = %v, want ErrNotApplicable", err)
	}
}

func TestConsumedOnBaseTag(t *testing.T) {
	tg := scalarTag(t, "DINT", "Decimal", "0")
	if _, err := tg.Producer(); !errors.Is(err, ErrNotApplicable) {
		t.Errorf("Producer() on base tag error = %v, want ErrNotApplicable", err)
	}
	if err := tg.SetRemoteTag("X"); !errors.Is(err, ErrNotApplicable) {
		t.Errorf("SetRemoteTag on base tag error = %v, want ErrNotApplicable", err)
	}
}

func TestAliasTag(t *testing.T) {
	tg := parseTagXML(t, `<Tag Name="SPEED_ALIAS" TagType="Alias" AliasFor="SPEED"/>`)
	if tg.AliasFor() != "SPEED" {
		t.Errorf("AliasFor() = %q", tg.AliasFor())
	}
	if _, err := tg.Data(); !errors.Is(err, ErrNotApplicable) {
		t.Errorf("Data() on alias error = %v, want ErrNotApplicable", err)
	}
	if _, err := tg.Value(); !errors.Is(err, ErrNotApplicable) {
		t.Errorf("Value() on alias error = %v, want ErrNotApplicable", err)
	}
}

func TestScope(t *testing.T) {
	s := parseScope(t, `<Controller Name="LINE_1">
<Tags>
<Tag Name="A" TagType="Base" DataType="DINT">
<Data Format="Decorated"><DataValue DataType="DINT" Radix="Decimal" Value="1"/></Data>
</Tag>
<Tag Name="B" TagType="Base" DataType="DINT">
<Data Format="Decorated"><DataValue DataType="DINT" Radix="Decimal" Value="2"/></Data>
</Tag>
</Tags>
</Controller>`)

	if s.Name() != "LINE_1" {
		t.Errorf("Name() = %q", s.Name())
	}
	if got := s.TagNames(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("TagNames() = %v", got)
	}

	tg, err := s.Tag("B")
	if err != nil {
		t.Fatalf("Tag(B) failed: %v", err)
	}
	v, _ := tg.Value()
	if v.(int64) != 2 {
		t.Errorf("B = %v, want 2", v)
	}

	if _, err := s.Tag("C"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Tag(C) error = %v, want ErrNotFound", err)
	}

	if err := s.RemoveTag("A"); err != nil {
		t.Fatalf("RemoveTag(A) failed: %v", err)
	}
	if got := s.TagNames(); !reflect.DeepEqual(got, []string{"B"}) {
		t.Errorf("TagNames() after removal = %v", got)
	}
	if err := s.RemoveTag("A"); !errors.Is(err, ErrNotFound) {
		t.Errorf("RemoveTag(A) again error = %v, want ErrNotFound", err)
	}
}

func TestScopeWithoutTags(t *testing.T) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(`<Controller Name="EMPTY"/>`); err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	if _, err := NewScope(doc.Root(), nil); !errors.Is(err, ErrDomain) {
		t.Errorf("NewScope error = %v, want ErrDomain", err)
	}
}
