package mysql

import (
	"strings"
	"testing"
)

func TestQuoteIdent(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"users", "`users`", false},
		{"order items", "`order items`", false},
		{"we`ird", "`we``ird`", false},
		{"", "", true},
		{strings.Repeat("a", 65), "", true},
	}
	for _, tc := range tests {
		got, err := QuoteIdent(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("QuoteIdent(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("QuoteIdent(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestQuoteString(t *testing.T) {
	tests := map[string]string{
		"shop":        `'shop'`,
		"o'reilly":    `'o\'reilly'`,
		`back\slash`:  `'back\\slash'`,
		`x' OR '1'='1`: `'x\' OR \'1\'=\'1'`,
	}
	for in, want := range tests {
		if got := QuoteString(in); got != want {
			t.Errorf("QuoteString(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestTruncateQuery(t *testing.T) {
	if got := TruncateQuery("SELECT 1", 100); got != "SELECT 1" {
		t.Errorf("got %q", got)
	}
	if got := TruncateQuery("SELECT * FROM users", 6); got != "SELECT..." {
		t.Errorf("got %q", got)
	}
}
