package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// Tail returns the last n entries of the log at path, oldest first. n <= 0
// returns every entry. Lines that do not parse as entries are skipped.
func Tail(path string, n int) ([]AuditEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audit: open log: %w", err)
	}
	defer f.Close()

	var entries []AuditEntry
	err = eachLine(f, func(_ int, line []byte) error {
		var e AuditEntry
		if json.Unmarshal(line, &e) != nil {
			return nil
		}
		entries = append(entries, e)
		if n > 0 && len(entries) > n {
			entries = entries[1:]
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("audit: read log: %w", err)
	}
	return entries, nil
}

// FormatEntries renders entries as an aligned text table.
func FormatEntries(entries []AuditEntry) string {
	if len(entries) == 0 {
		return "No entries.\n"
	}

	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%-24s %-8s %-9s %s\n",
			e.Timestamp, e.Action.Command, e.Result, truncate(e.Action.Resource, 60))
	}
	return b.String()
}

// truncate keeps the last max-3 runes of s behind "...". Paths differ at
// the end, so the tail is the useful part.
func truncate(s string, max int) string {
	n := utf8.RuneCountInString(s)
	if n <= max {
		return s
	}
	runes := []rune(s)
	return "..." + string(runes[n-max+3:])
}
