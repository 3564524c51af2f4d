package core

import "testing"

func rowsWithPrefix(prefix string, records ...Record) []*Row {
	out := make([]*Row, len(records))
	for i, rec := range records {
		out[i] = &Row{ID: prefix + string(rune('0'+i)), Seq: int64(i), Data: rec}
	}
	return out
}

func rowsFrom(records ...Record) []*Row {
	return rowsWithPrefix("l", records...)
}

// ----------------------------------------------------------------------------
// joinRows Tests
// ----------------------------------------------------------------------------

func TestJoinRows_InnerFanOut(t *testing.T) {
	left := rowsFrom(Record{"id": "1", "city": "oslo"})
	right := rowsWithPrefix("r",
		Record{"id": "1", "score": "10"},
		Record{"id": "1", "score": "20"},
	)

	out := joinRows(left, right, []string{"id"}, JoinInner)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	scores := map[string]bool{}
	for _, rec := range out {
		if rec["city"] != "oslo" {
			t.Errorf("city = %q, want oslo", rec["city"])
		}
		scores[rec["score"]] = true
	}
	if !scores["10"] || !scores["20"] {
		t.Errorf("scores = %v, want both 10 and 20", scores)
	}
}

func TestJoinRows_LeftWinsOnOverlap(t *testing.T) {
	left := rowsFrom(Record{"id": "1", "name": "left-name"})
	right := rowsWithPrefix("r", Record{"id": "1", "name": "right-name", "extra": "x"})

	out := joinRows(left, right, []string{"id"}, JoinInner)
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
	if out[0]["name"] != "left-name" {
		t.Errorf("name = %q, want left-name", out[0]["name"])
	}
	if out[0]["extra"] != "x" {
		t.Errorf("extra = %q, want x", out[0]["extra"])
	}
}

func TestJoinRows_Modes(t *testing.T) {
	left := rowsFrom(
		Record{"id": "1", "l": "a"},
		Record{"id": "2", "l": "b"},
	)
	right := rowsWithPrefix("r",
		Record{"id": "2", "r": "c"},
		Record{"id": "3", "r": "d"},
	)

	tests := []struct {
		mode JoinMode
		want int
	}{
		{JoinInner, 1},
		{JoinLeft, 2},
		{JoinRight, 2},
		{JoinOuter, 3},
	}
	for _, tt := range tests {
		out := joinRows(left, right, []string{"id"}, tt.mode)
		if len(out) != tt.want {
			t.Errorf("mode %s: len(out) = %d, want %d", tt.mode, len(out), tt.want)
		}
	}
}

func TestJoinRows_OuterKeepsBothSides(t *testing.T) {
	left := rowsFrom(Record{"id": "1", "l": "a"})
	right := rowsWithPrefix("r", Record{"id": "9", "r": "z"})

	out := joinRows(left, right, []string{"id"}, JoinOuter)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	if out[0]["l"] != "a" {
		t.Errorf("unmatched left should come first, got %v", out[0])
	}
	if out[1]["r"] != "z" {
		t.Errorf("unmatched right should be appended, got %v", out[1])
	}
}

func TestJoinRows_DuplicateRightRowsConsumedIndependently(t *testing.T) {
	// Two identical right rows both match; both must count as consumed
	// so neither reappears in a right/outer pass.
	left := rowsFrom(Record{"id": "1"})
	right := rowsWithPrefix("r",
		Record{"id": "1", "v": "same"},
		Record{"id": "1", "v": "same"},
	)

	out := joinRows(left, right, []string{"id"}, JoinOuter)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2 (fan-out only, no right re-append)", len(out))
	}
}

func TestJoinRows_CompositeKey(t *testing.T) {
	left := rowsFrom(Record{"a": "1", "b": "2", "l": "x"})
	right := rowsWithPrefix("r",
		Record{"a": "1", "b": "2", "r": "hit"},
		Record{"a": "1", "b": "9", "r": "miss"},
	)

	out := joinRows(left, right, []string{"a", "b"}, JoinInner)
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
	if out[0]["r"] != "hit" {
		t.Errorf("r = %q, want hit", out[0]["r"])
	}
}

func TestJoinRows_EmptyKeyListMatchesEverything(t *testing.T) {
	// With no key columns every row shares the same composite key, so
	// inner degrades to a full cross of left against right.
	left := rowsFrom(Record{"l": "1"}, Record{"l": "2"})
	right := rowsWithPrefix("r", Record{"r": "a"}, Record{"r": "b"})

	out := joinRows(left, right, nil, JoinInner)
	if len(out) != 4 {
		t.Errorf("len(out) = %d, want 4", len(out))
	}
}

// ----------------------------------------------------------------------------
// mergedColumns Tests
// ----------------------------------------------------------------------------

func TestMergedColumns(t *testing.T) {
	left := &Dataset{Columns: []Column{
		{Name: "id", Type: TypeNumber},
		{Name: "name", Type: TypeString},
	}}
	right := &Dataset{Columns: []Column{
		{Name: "id", Type: TypeNumber},
		{Name: "score", Type: TypeNumber},
		{Name: "unused", Type: TypeString},
	}}
	result := []Record{
		{"id": "1", "name": "alice", "score": "10", "edited": "yes"},
	}

	cols := mergedColumns(left, right, result)
	want := []string{"id", "name", "score", "edited"}
	if len(cols) != len(want) {
		t.Fatalf("cols = %v, want names %v", cols, want)
	}
	for i, name := range want {
		if cols[i].Name != name {
			t.Errorf("cols[%d].Name = %q, want %q", i, cols[i].Name, name)
		}
		if cols[i].Type != TypeString {
			t.Errorf("cols[%d].Type = %q, want string", i, cols[i].Type)
		}
	}
}

func TestValidJoinMode(t *testing.T) {
	for _, mode := range []string{"inner", "left", "right", "outer"} {
		if !ValidJoinMode(mode) {
			t.Errorf("ValidJoinMode(%q) = false", mode)
		}
	}
	for _, mode := range []string{"", "cross", "INNER"} {
		if ValidJoinMode(mode) {
			t.Errorf("ValidJoinMode(%q) = true", mode)
		}
	}
}
