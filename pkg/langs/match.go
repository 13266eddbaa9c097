package langs

import (
	"bytes"

	"github.com/nullsector/judged/pkg/types"
)

// matches compares got against expected under rule.
func matches(got, expected []byte, rule types.MatchRule) bool {
	switch rule {
	case types.MatchIgnoreAllWhitespace:
		return bytes.Equal(collapseWhitespace(got), collapseWhitespace(expected))
	case types.MatchIgnoreTrailingWhitespace:
		return linesEqualIgnoringTrailingWhitespace(got, expected)
	default:
		return bytes.Equal(got, expected)
	}
}

// collapseWhitespace collapses any run of ' ', '\t', '\n', '\r' into a
// single space and trims the result, so "a  b\n" and "a b" compare
// equal but "a b" and "ab" do not.
func collapseWhitespace(b []byte) []byte {
	fields := bytes.FieldsFunc(b, isCollapseSpace)
	return bytes.Join(fields, []byte{' '})
}

func isCollapseSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// linesEqualIgnoringTrailingWhitespace compares line-by-line, each
// line's trailing whitespace stripped, and ignores wholly blank
// trailing lines on either side (the usual "no newline at EOF"
// non-issue).
func linesEqualIgnoringTrailingWhitespace(a, b []byte) bool {
	la := splitLinesTrimmed(a)
	lb := splitLinesTrimmed(b)
	for len(la) > 0 && la[len(la)-1] == "" {
		la = la[:len(la)-1]
	}
	for len(lb) > 0 && lb[len(lb)-1] == "" {
		lb = lb[:len(lb)-1]
	}
	if len(la) != len(lb) {
		return false
	}
	for i := range la {
		if la[i] != lb[i] {
			return false
		}
	}
	return true
}

func splitLinesTrimmed(b []byte) []string {
	var lines []string
	for _, line := range bytes.Split(b, []byte("\n")) {
		end := len(line)
		for end > 0 && isSpace(line[end-1]) {
			end--
		}
		lines = append(lines, string(line[:end]))
	}
	return lines
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\v' || c == '\f'
}
