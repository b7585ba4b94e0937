package ui

import (
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
)

func TestFormatTimeRelAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero", time.Time{}, "never"},
		{"future", now.Add(time.Hour), "now"},
		{"seconds", now.Add(-30 * time.Second), "now"},
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"hours", now.Add(-3 * time.Hour), "3h ago"},
		{"days", now.Add(-50 * time.Hour), "2d ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatTimeRelAt(tt.t, now); got != tt.want {
				t.Errorf("formatTimeRelAt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"Espresso", 20, "Espresso"},
		{"Caesar salad", 6, "Caesa…"},
		{"Caesar salad", 0, ""},
		{"日本語のメニュー", 7, "日本語…"},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.width)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
		if tt.width > 0 && runewidth.StringWidth(got) > tt.width {
			t.Errorf("truncate(%q, %d) is %d cells wide", tt.in, tt.width, runewidth.StringWidth(got))
		}
	}
}

func TestTruncateRunesHelperSuffixWiderThanWidth(t *testing.T) {
	if got := truncateRunesHelper("abcdef", 2, "..."); got != ".." {
		t.Errorf("got %q, want %q", got, "..")
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 5); got != "ab   " {
		t.Errorf("padRight = %q", got)
	}
	if got := padRight("abcdef", 3); got != "abcdef" {
		t.Errorf("padRight should not cut: %q", got)
	}
	if got := runewidth.StringWidth(padRight("日本", 6)); got != 6 {
		t.Errorf("wide padRight width = %d, want 6", got)
	}
}

func TestFormatCents(t *testing.T) {
	tests := map[int]string{
		0:    "€0.00",
		250:  "€2.50",
		1205: "€12.05",
	}
	for in, want := range tests {
		if got := formatCents(in); got != want {
			t.Errorf("formatCents(%d) = %q, want %q", in, got, want)
		}
	}
}
