package session

import (
	"errors"
	"testing"
)

const highlightDoc = `line one
line two
has foo here
line four
line five
line six
more foo again
`

func TestLocateLiteral(t *testing.T) {
	ranges, err := Locate(highlightDoc, "foo", false)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if len(ranges) != 2 {
		t.Fatalf("expected 2 ranges, got %d: %+v", len(ranges), ranges)
	}
	if ranges[0].Line != 3 || ranges[1].Line != 7 {
		t.Errorf("expected lines 3 and 7, got %d and %d", ranges[0].Line, ranges[1].Line)
	}
	if ranges[0].StartCol != 5 || ranges[0].EndCol != 8 {
		t.Errorf("expected cols 5..8, got %d..%d", ranges[0].StartCol, ranges[0].EndCol)
	}
}

func TestLocateLiteralCaseInsensitive(t *testing.T) {
	ranges, err := Locate("Foo\nFOO\nfoo\n", "foo", false)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if len(ranges) != 3 {
		t.Errorf("expected 3 ranges, got %d", len(ranges))
	}
}

func TestLocateMultiplePerLine(t *testing.T) {
	ranges, err := Locate("foo bar foo", "foo", false)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if len(ranges) != 2 {
		t.Fatalf("expected 2 ranges, got %d", len(ranges))
	}
	if ranges[1].StartCol != 9 {
		t.Errorf("second match should start at col 9, got %d", ranges[1].StartCol)
	}
}

func TestLocateRegex(t *testing.T) {
	ranges, err := Locate("alpha\nbeta12\ngamma7\n", `[a-z]+\d+`, true)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if len(ranges) != 2 {
		t.Errorf("expected 2 ranges, got %d: %+v", len(ranges), ranges)
	}
}

func TestLocateMalformedRegexDegrades(t *testing.T) {
	ranges, err := Locate(highlightDoc, "(", true)
	if len(ranges) != 0 {
		t.Errorf("malformed pattern should yield no ranges, got %+v", ranges)
	}
	var mpe *MalformedPatternError
	if !errors.As(err, &mpe) {
		t.Fatalf("expected MalformedPatternError, got %v", err)
	}
	if mpe.Pattern != "(" {
		t.Errorf("error should carry the pattern, got %q", mpe.Pattern)
	}
}

func TestLocateEmptyPattern(t *testing.T) {
	ranges, err := Locate(highlightDoc, "", false)
	if err != nil || ranges != nil {
		t.Errorf("empty pattern should be a no-op, got %v / %v", ranges, err)
	}
}
