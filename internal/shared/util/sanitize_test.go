package util

import "testing"

func TestSanitizeFreeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "plain", in: "Yellow spots on leaves", max: 100, want: "Yellow spots on leaves"},
		{name: "whitespace runs", in: "  wet\n\n\tafter   rain  ", max: 100, want: "wet after rain"},
		{name: "control chars", in: "dry\x00\x07 soil", max: 100, want: "dry soil"},
		{name: "truncate runes", in: "température élevée", max: 11, want: "température"},
		{name: "no limit", in: "a b", max: 0, want: "a b"},
		{name: "empty", in: " \n ", max: 10, want: ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFreeText(tt.in, tt.max); got != tt.want {
				t.Fatalf("SanitizeFreeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
