package core

import "testing"

// ----------------------------------------------------------------------------
// InferType Tests
// ----------------------------------------------------------------------------

func TestInferType(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   ColumnType
	}{
		// Numbers
		{
			name:   "integers",
			values: []string{"1", "2", "3"},
			want:   TypeNumber,
		},
		{
			name:   "decimals and negatives",
			values: []string{"-1.5", "0.25", "1e3"},
			want:   TypeNumber,
		},
		{
			name:   "zeros and ones classify as number before boolean",
			values: []string{"1", "0", "1", "0"},
			want:   TypeNumber,
		},

		// Booleans
		{
			name:   "word booleans",
			values: []string{"true", "false", "TRUE"},
			want:   TypeBoolean,
		},
		{
			name:   "mixed word and digit booleans",
			values: []string{"true", "0", "False"},
			want:   TypeBoolean,
		},

		// Dates
		{
			name:   "iso dates",
			values: []string{"2024-01-15", "2023-12-31"},
			want:   TypeDate,
		},
		{
			name:   "us slash dates",
			values: []string{"1/15/2024", "12/31/2023"},
			want:   TypeDate,
		},
		{
			name:   "timestamps",
			values: []string{"2024-01-15 10:30:00", "2024-01-15T10:30:00"},
			want:   TypeDate,
		},

		// Strings
		{
			name:   "plain text",
			values: []string{"alice", "bob"},
			want:   TypeString,
		},
		{
			name:   "one non-numeric poisons a numeric column",
			values: []string{"1", "2", "abc"},
			want:   TypeString,
		},
		{
			name:   "empty value forces string",
			values: []string{"1", "", "3"},
			want:   TypeString,
		},
		{
			name:   "empty sample",
			values: nil,
			want:   TypeString,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferType(tt.values); got != tt.want {
				t.Errorf("InferType(%v) = %q, want %q", tt.values, got, tt.want)
			}
		})
	}
}

func TestInferType_SampleCap(t *testing.T) {
	// Numeric values up to the cap, garbage beyond it. The garbage must
	// not affect the result.
	values := make([]string, InferSampleSize+10)
	for i := range values {
		values[i] = "42"
	}
	for i := InferSampleSize; i < len(values); i++ {
		values[i] = "not a number"
	}

	if got := InferType(values); got != TypeNumber {
		t.Errorf("InferType beyond sample cap = %q, want %q", got, TypeNumber)
	}
}
