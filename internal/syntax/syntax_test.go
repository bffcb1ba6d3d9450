package syntax

import "testing"

func TestColorize(t *testing.T) {
	content := "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}"

	lines := Colorize("main.go", content)
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}
	if len(lines[0].Tokens()) == 0 {
		t.Error("expected tokens in first line")
	}
	if lines[0].Plain() != "package main" {
		t.Errorf("plain text mismatch: %q", lines[0].Plain())
	}
	if lines[1].Plain() != "" {
		t.Errorf("expected empty second line, got %q", lines[1].Plain())
	}
}

func TestColorizeUnknownLanguage(t *testing.T) {
	lines := Colorize("mystery.xyz123", "some content\nmore content")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Plain() != "some content" {
		t.Errorf("expected plain passthrough, got %q", lines[0].Plain())
	}
}
