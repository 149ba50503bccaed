package domain

import "strings"

// ProblemKind describes why a required section failed.
type ProblemKind int

const (
	ProblemNotFound ProblemKind = iota // No matching heading
	ProblemEmpty                       // Heading present, no content until the next heading
)

// Problem is a required section that failed validation.
type Problem struct {
	Section string
	Label   string
	Kind    ProblemKind
}

func (p Problem) String() string {
	var msg string
	switch p.Kind {
	case ProblemEmpty:
		msg = "Section " + p.Section + " seems to be empty"
	default:
		msg = "Section required but not found: " + p.Section
	}
	return msg + "(for label " + p.Label + ")"
}

// line is one line of an issue body together with its byte offset.
type line struct {
	text     string
	start    int
	boundary bool // Starts with '#' and follows a newline
}

// lexLines splits body into lines. A line is a section boundary when it
// begins with '#' and is not the first line of the body.
func lexLines(body string) []line {
	var lines []line
	start := 0
	for i := 0; i <= len(body); i++ {
		if i < len(body) && body[i] != '\n' {
			continue
		}
		text := body[start:i]
		lines = append(lines, line{
			text:     text,
			start:    start,
			boundary: start > 0 && strings.HasPrefix(text, "#"),
		})
		start = i + 1
	}
	return lines
}

// matchHeading returns the offset just past section within text when text
// contains a run of '#', one or more spaces, then section. The match is not
// anchored, so "## steps to reproduce" matches section "steps".
func matchHeading(text, section string) (int, bool) {
	for p := 0; p < len(text); p++ {
		if text[p] != '#' {
			continue
		}
		q := p
		for q < len(text) && text[q] == '#' {
			q++
		}
		r := q
		for r < len(text) && text[r] == ' ' {
			r++
		}
		if r > q && strings.HasPrefix(text[r:], section) {
			return r + len(section), true
		}
		p = q - 1
	}
	return 0, false
}

// CheckSection locates section in body and reports whether it is missing or
// empty. body is expected to be lowercased by the caller. The returned
// Problem has no Label; callers attach the owning label.
func CheckSection(body, section string) *Problem {
	lines := lexLines(body)

	heading := -1
	contentStart := 0
	for i, l := range lines {
		if end, ok := matchHeading(l.text, section); ok {
			heading = i
			contentStart = l.start + end
			break
		}
	}
	if heading == -1 {
		return &Problem{Section: section, Kind: ProblemNotFound}
	}

	contentEnd := len(body)
	for _, l := range lines[heading+1:] {
		if l.boundary {
			contentEnd = l.start
			break
		}
	}

	if isBlank(body[contentStart:contentEnd]) {
		return &Problem{Section: section, Kind: ProblemEmpty}
	}
	return nil
}

// isBlank reports whether s holds nothing but CR, LF and spaces. Tabs count
// as content.
func isBlank(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\r', '\n', ' ':
		default:
			return false
		}
	}
	return true
}
