package utils

import "testing"

func TestFormatRUB(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "0 ₽"},
		{650, "650 ₽"},
		{1750, "1 750 ₽"},
		{100000, "100 000 ₽"},
		{1234567, "1 234 567 ₽"},
		{-1500, "-1 500 ₽"},
	}
	for _, tt := range tests {
		if got := FormatRUB(tt.amount); got != tt.want {
			t.Errorf("FormatRUB(%d) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}
