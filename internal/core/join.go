package core

// join.go implements the merge engine: a hash join between two stored
// datasets with configurable mode. The right side is indexed once by
// composite key, then each left row probes the index. Expected cost is
// O(left + right); pathological key collisions degrade toward O(n·m).

import (
	"sort"
	"strings"
)

// JoinMode controls which unmatched rows survive a merge.
type JoinMode string

const (
	JoinInner JoinMode = "inner"
	JoinLeft  JoinMode = "left"
	JoinRight JoinMode = "right"
	JoinOuter JoinMode = "outer"
)

// keySeparator joins the values of a composite key.
const keySeparator = "|"

// joinKey builds the composite probe key for a record: the join-column
// values in order, separated by "|". Missing columns contribute the
// empty string, so an empty key list maps every row to the same bucket.
func joinKey(rec Record, on []string) string {
	if len(on) == 1 {
		return rec[on[0]]
	}
	parts := make([]string, len(on))
	for i, col := range on {
		parts[i] = rec[col]
	}
	return strings.Join(parts, keySeparator)
}

// joinRows computes the merge of left against right on the given key
// columns. Matched pairs fan out: one output record per matching right
// row, with left values overriding right values on overlapping column
// names. Unmatched left rows are kept for left/outer modes; unmatched
// right rows are appended afterwards for right/outer modes.
//
// Consumed right rows are tracked by row ID, so duplicate right rows
// with identical content are matched and completed independently.
func joinRows(left, right []*Row, on []string, mode JoinMode) []Record {
	index := make(map[string][]*Row, len(right))
	for _, r := range right {
		k := joinKey(r.Data, on)
		index[k] = append(index[k], r)
	}

	consumed := make(map[string]struct{})
	var out []Record

	for _, l := range left {
		matches := index[joinKey(l.Data, on)]
		if len(matches) > 0 {
			for _, m := range matches {
				consumed[m.ID] = struct{}{}
				out = append(out, overlay(m.Data, l.Data))
			}
			continue
		}
		if mode == JoinLeft || mode == JoinOuter {
			out = append(out, l.Data.Clone())
		}
	}

	if mode == JoinRight || mode == JoinOuter {
		for _, r := range right {
			if _, ok := consumed[r.ID]; !ok {
				out = append(out, r.Data.Clone())
			}
		}
	}

	return out
}

// overlay merges two records with over taking precedence on shared keys.
func overlay(base, over Record) Record {
	out := make(Record, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// mergedColumns builds the output schema for a merge result: the left
// schema's columns first, then right columns not already present, each
// kept only if the name actually appears in an emitted record. All
// output columns are typed string; values are not re-inferred.
func mergedColumns(left, right *Dataset, result []Record) []Column {
	present := make(map[string]bool)
	for _, rec := range result {
		for k := range rec {
			present[k] = true
		}
	}

	seen := make(map[string]bool)
	var cols []Column
	appendCol := func(name string) {
		if present[name] && !seen[name] {
			seen[name] = true
			cols = append(cols, Column{Name: name, Type: TypeString})
		}
	}
	for _, c := range left.Columns {
		appendCol(c.Name)
	}
	for _, c := range right.Columns {
		appendCol(c.Name)
	}

	// Row edits can introduce fields outside either schema; keep those
	// too, in sorted order so the output schema is deterministic.
	var extra []string
	for name := range present {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		appendCol(name)
	}
	return cols
}

// ValidJoinMode reports whether s names a supported join mode.
func ValidJoinMode(s string) bool {
	switch JoinMode(s) {
	case JoinInner, JoinLeft, JoinRight, JoinOuter:
		return true
	}
	return false
}
