package util

import "testing"

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n[1,2]\n```", `[1,2]`},
		{"whitespace", "  \n```json {\"a\":1}```  ", `{"a":1}`},
		{"unterminated", "```json\n{\"a\":1}", `{"a":1}`},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := StripCodeFence(tt.input)
			if result != tt.expected {
				t.Errorf("StripCodeFence(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"spaces", "Operation Storm", "Operation_Storm"},
		{"colon", "Op: Storm", "Op__Storm"},
		{"path traversal", "../../etc/passwd", "_.._etc_passwd"},
		{"reserved chars", `a<b>c"d|e?f*g`, "abcdefg"},
		{"empty", "   ", "plan"},
		{"dots only", "..", "plan"},
		{"unicode", "Operação Tempestade", "Operação_Tempestade"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeFilename(tt.input)
			if result != tt.expected {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := Truncate("a longer description", 10); got != "a longe..." {
		t.Errorf("got %q", got)
	}
	if got := Truncate("abcdef", 2); got != "ab" {
		t.Errorf("got %q", got)
	}
}
