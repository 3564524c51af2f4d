package core

import (
	"strings"
	"testing"
)

// ----------------------------------------------------------------------------
// renderCSV Tests
// ----------------------------------------------------------------------------

func TestRenderCSV(t *testing.T) {
	ds := &Dataset{Columns: []Column{
		{Name: "name", Type: TypeString},
		{Name: "age", Type: TypeNumber},
	}}
	rows := rowsFrom(
		Record{"name": "alice", "age": "30"},
		Record{"name": "bob", "age": "25"},
	)

	got := string(renderCSV(ds, rows))
	want := "name,age\n\"alice\",\"30\"\n\"bob\",\"25\""
	if got != want {
		t.Errorf("renderCSV = %q, want %q", got, want)
	}
}

func TestRenderCSV_EscapesSpecialCharacters(t *testing.T) {
	ds := &Dataset{Columns: []Column{{Name: "note", Type: TypeString}}}
	rows := rowsFrom(Record{"note": "line1\nsaid \"hi\", bye"})

	got := string(renderCSV(ds, rows))
	want := "note\n\"line1\\nsaid \\\"hi\\\", bye\""
	if got != want {
		t.Errorf("renderCSV = %q, want %q", got, want)
	}
}

func TestRenderCSV_MissingValuesRenderEmpty(t *testing.T) {
	ds := &Dataset{Columns: []Column{
		{Name: "a", Type: TypeString},
		{Name: "b", Type: TypeString},
	}}
	rows := rowsFrom(Record{"a": "1"})

	got := string(renderCSV(ds, rows))
	want := "a,b\n\"1\",\"\""
	if got != want {
		t.Errorf("renderCSV = %q, want %q", got, want)
	}
}

func TestRenderCSV_NoRows(t *testing.T) {
	ds := &Dataset{Columns: []Column{{Name: "x", Type: TypeString}}}

	got := string(renderCSV(ds, nil))
	if got != "x" {
		t.Errorf("renderCSV = %q, want header only", got)
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("renderCSV output must not end with a newline")
	}
}
