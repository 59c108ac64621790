// Package rankparse extracts "N. Song - Extra" lines from pasted ranking text.
// Parsing never fails: lines that do not fit the grammar are dropped.
package rankparse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/songrank/songrank/pkg/storage"
)

var lineRe = regexp.MustCompile(`^(\d+)\.\s+(.+?)(?:\s+-\s+.+)?$`)

// Entry is one parsed line.
type Entry struct {
	Rank int
	Name string
}

// Submission is the parsed list of one user.
type Submission struct {
	User    string
	Entries []Entry
}

// ParseLine parses a single line. ok is false when the line does not match.
func ParseLine(line string) (Entry, bool) {
	m := lineRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Entry{}, false
	}
	rank, err := strconv.Atoi(m[1])
	if err != nil {
		// Overflowing rank numbers are treated like any other malformed line.
		return Entry{}, false
	}
	name := strings.TrimSpace(m[2])
	if name == "" {
		return Entry{}, false
	}
	return Entry{Rank: rank, Name: name}, true
}

// ParseText parses every newline-separated line of a block.
func ParseText(text string) []Entry {
	var out []Entry
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		if e, ok := ParseLine(line); ok {
			out = append(out, e)
		}
	}
	return out
}

// Batch is the result of parsing the submission inbox.
type Batch struct {
	// Submissions holds users with at least one valid entry, in column order.
	Submissions []Submission
	// Empty lists users whose column produced no valid entry.
	Empty []string
	// Duplicates lists user names that appeared in more than one column.
	// The later column replaces the earlier one.
	Duplicates []string
}

// ParseBatch reads the inbox: column 0 holds labels, every further column is
// one user with the name in row 0 and pasted text below it.
func ParseBatch(t *storage.Table) Batch {
	var b Batch
	if t == nil {
		return b
	}
	index := make(map[string]int)
	for col := 1; col < t.Width(); col++ {
		user := strings.TrimSpace(t.Cell(0, col))
		if user == "" {
			continue
		}
		var entries []Entry
		for row := 1; row < len(t.Rows); row++ {
			cell := strings.TrimSpace(t.Cell(row, col))
			if cell == "" {
				continue
			}
			entries = append(entries, ParseText(cell)...)
		}
		if len(entries) == 0 {
			b.Empty = append(b.Empty, user)
			continue
		}
		if i, ok := index[user]; ok {
			b.Duplicates = append(b.Duplicates, user)
			b.Submissions[i].Entries = entries
			continue
		}
		index[user] = len(b.Submissions)
		b.Submissions = append(b.Submissions, Submission{User: user, Entries: entries})
	}
	return b
}

// Users returns the submitting user names in order.
func (b Batch) Users() []string {
	out := make([]string, 0, len(b.Submissions))
	for _, s := range b.Submissions {
		out = append(out, s.User)
	}
	return out
}

// Format renders names as "N. Name" lines, numbered from 1.
func Format(names []string) string {
	var sb strings.Builder
	for i, n := range names {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(". ")
		sb.WriteString(n)
	}
	return sb.String()
}
