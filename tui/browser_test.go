package tui

import "testing"

func TestParseValue(t *testing.T) {
	tests := []struct {
		in      string
		want    interface{}
		wantErr bool
	}{
		{"42", int64(42), false},
		{"-7", int64(-7), false},
		{" 3 ", int64(3), false},
		{"2.5", 2.5, false},
		{"1e3", 1000.0, false},
		{"fast", nil, true},
		{"", nil, true},
	}
	for _, tt := range tests {
		got, err := parseValue(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseValue(%q) = %v, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseValue(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseValue(%q) = %v (%T), want %v (%T)", tt.in, got, got, tt.want, tt.want)
		}
	}
}

func TestFormatValue(t *testing.T) {
	if got := formatValue(nil); got != "<nil>" {
		t.Errorf("formatValue(nil) = %q", got)
	}
	if got := formatValue(int64(5)); got != "5" {
		t.Errorf("formatValue(5) = %q", got)
	}
	if got := formatValue([]interface{}{}); got != "[]" {
		t.Errorf("formatValue(empty list) = %q", got)
	}
	if got := formatValue([]interface{}{int64(1), int64(2)}); got != "[1, 2]" {
		t.Errorf("formatValue(list) = %q", got)
	}
	got := formatValue(map[string]interface{}{"B": int64(2), "A": int64(1)})
	want := "{\n  A: 1,\n  B: 2\n}"
	if got != want {
		t.Errorf("formatValue(map) = %q, want %q", got, want)
	}
}
