package menu

import (
	"reflect"
	"testing"
)

func TestNormalizePatterns(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty is wildcard", "", []string{AllURLs}},
		{"single", "*://example.com/*", []string{"*://example.com/*"}},
		{"two lines", "a\nb", []string{"a", "b"}},
		{"crlf", "a\r\nb", []string{"a", "b"}},
		{"blank lines collapse", "a\n\n\nb", []string{"a", "b"}},
		{"leading and trailing", "\n\na\nb\n\n", []string{"a", "b"}},
		{"only newlines", "\n\n", []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePatterns(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizePatterns(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
