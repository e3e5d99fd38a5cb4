package util

import "testing"

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault("", 50); got != 50 {
		t.Fatalf("empty: got %d", got)
	}
	if got := ParseIntDefault("abc", 50); got != 50 {
		t.Fatalf("invalid: got %d", got)
	}
	if got := ParseIntDefault(" 30 ", 50); got != 30 {
		t.Fatalf("padded: got %d", got)
	}
}

func TestClampInt(t *testing.T) {
	cases := map[int]int{5: 20, 20: 20, 60: 60, 100: 100, 500: 100}
	for in, want := range cases {
		if got := ClampInt(in, 20, 100); got != want {
			t.Fatalf("ClampInt(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestNormalizeSymbol(t *testing.T) {
	if got := NormalizeSymbol(" btcusdt "); got != "BTCUSDT" {
		t.Fatalf("got %q", got)
	}
}
