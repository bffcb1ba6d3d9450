package session

import (
	"regexp"
	"strings"

	"github.com/sprite-ai/trawl/internal/model"
)

// Locate finds every occurrence of pattern in content and returns the text
// ranges to decorate, line by line. Literal matching is case-insensitive,
// matching the authority's search. A malformed regex never propagates as a
// failure: the result is an empty slice plus a MalformedPatternError the
// caller may surface as a notice. The ranges are a pure projection of the
// local buffer; nothing here mutates content.
func Locate(content, pattern string, isRegex bool) ([]model.Range, error) {
	if pattern == "" {
		return nil, nil
	}

	var re *regexp.Regexp
	if isRegex {
		var err error
		re, err = regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, &MalformedPatternError{Pattern: pattern, Err: err}
		}
	}
	patternLower := strings.ToLower(pattern)

	var ranges []model.Range
	for i, line := range strings.Split(content, "\n") {
		if re != nil {
			for _, loc := range re.FindAllStringIndex(line, -1) {
				if loc[1] == loc[0] {
					continue // zero-width match, nothing to mark
				}
				ranges = append(ranges, model.Range{
					Line:     i + 1,
					StartCol: loc[0] + 1,
					EndCol:   loc[1] + 1,
				})
			}
			continue
		}

		lower := strings.ToLower(line)
		for start := 0; ; {
			idx := strings.Index(lower[start:], patternLower)
			if idx < 0 {
				break
			}
			at := start + idx
			ranges = append(ranges, model.Range{
				Line:     i + 1,
				StartCol: at + 1,
				EndCol:   at + len(patternLower) + 1,
			})
			start = at + len(patternLower)
		}
	}
	return ranges, nil
}
