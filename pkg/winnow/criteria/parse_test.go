package criteria

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-03-15")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("got %s, want %s", got, want)
	}

	// Whitespace is tolerated.
	if _, err := ParseDate("  2024-03-15 "); err != nil {
		t.Errorf("padded date should parse: %v", err)
	}

	for _, bad := range []string{"", "2024/03/15", "15-03-2024", "2024-13-01", "yesterday"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrBadWindow) {
			t.Errorf("ParseDate(%q): expected ErrBadWindow, got %v", bad, err)
		}
	}
}

func TestSplitPatterns(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"  ", nil},
		{",;,", nil},
		{"*.png", []string{"*.png"}},
		{"*.png,*.txt", []string{"*.png", "*.txt"}},
		{"*.png; *.txt", []string{"*.png", "*.txt"}},
		{" *.log ,, __pycache__* ", []string{"*.log", "__pycache__*"}},
	}

	for _, tt := range tests {
		got := SplitPatterns(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("SplitPatterns(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("SplitPatterns(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}
