package truthlock

import "strings"

// splitLines breaks text into lines on every Unicode line boundary:
// \n, \r, \r\n, VT, FF, FS, GS, RS, NEL, LS and PS. A trailing boundary
// does not produce an empty final line.
func splitLines(text string) []string {
	var lines []string
	var b strings.Builder
	runes := []rune(text)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if !isLineBoundary(r) {
			b.WriteRune(r)
			continue
		}
		if r == '\r' && i+1 < len(runes) && runes[i+1] == '\n' {
			i++
		}
		lines = append(lines, b.String())
		b.Reset()
	}
	if b.Len() > 0 {
		lines = append(lines, b.String())
	}
	return lines
}

func isLineBoundary(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}
