package core

import (
	"strconv"
	"strings"
	"time"
)

// InferSampleSize caps how many values per column are inspected during
// type inference. Larger datasets are deliberately under-sampled,
// trading accuracy for ingestion speed.
var InferSampleSize = 50

// booleanTokens are the accepted boolean literals, lowercased.
var booleanTokens = map[string]bool{
	"true": true, "false": true, "1": true, "0": true,
}

// dateLayouts are the calendar formats recognized by inference, covering
// ISO, US and EU conventions plus timestamp variants.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"1/2/2006", "01/02/2006",
	"1-2-2006", "01-02-2006",
	"Jan 2, 2006", "2 Jan 2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// InferType assigns one semantic type to a column given a sample of its
// raw values. It is pure and never fails: unrecognized content falls
// back to string, as does an empty sample.
//
// Checks run in priority order: number, boolean, date, string. The order
// matters for ambiguous tokens: "1" and "0" satisfy both the numeric and
// boolean rules, and because numeric is checked first an all-{0,1}
// column is classified number, never boolean.
func InferType(values []string) ColumnType {
	sample := values
	if len(sample) > InferSampleSize {
		sample = sample[:InferSampleSize]
	}
	if len(sample) == 0 {
		return TypeString
	}

	if allOf(sample, isNumericLiteral) {
		return TypeNumber
	}
	if allOf(sample, isBooleanLiteral) {
		return TypeBoolean
	}
	if allOf(sample, isDateLiteral) {
		return TypeDate
	}
	return TypeString
}

func allOf(values []string, pred func(string) bool) bool {
	for _, v := range values {
		if !pred(v) {
			return false
		}
	}
	return true
}

// isNumericLiteral reports whether s is a non-empty numeric literal.
func isNumericLiteral(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// isBooleanLiteral reports whether s is one of true/false/1/0, case-insensitive.
func isBooleanLiteral(s string) bool {
	return booleanTokens[strings.ToLower(s)]
}

// isDateLiteral reports whether s parses under any recognized date layout.
func isDateLiteral(s string) bool {
	if s == "" {
		return false
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
