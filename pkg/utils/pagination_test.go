package utils

import "testing"

func TestCalculateTotalPages(t *testing.T) {
	tests := []struct {
		total   int64
		perPage int
		want    int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := CalculateTotalPages(tt.total, tt.perPage); got != tt.want {
			t.Errorf("CalculateTotalPages(%d, %d) = %d, want %d", tt.total, tt.perPage, got, tt.want)
		}
	}
}

func TestParsePositiveInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 7},
		{"3", 3},
		{"0", 7},
		{"-2", 7},
		{"abc", 7},
	}
	for _, tt := range tests {
		if got := ParsePositiveInt(tt.in, 7); got != tt.want {
			t.Errorf("ParsePositiveInt(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
