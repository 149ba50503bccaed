package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const validatorTitle = "## Issue validator"

var updateCounterRe = regexp.MustCompile(`update # (\d+)`)

// RenderHeader returns the validator comment header carrying the update
// counter. It is always the first line of the comment body.
func RenderHeader(counter int) string {
	return fmt.Sprintf("%s - update # %d", validatorTitle, counter)
}

// ParseUpdateCounter extracts the counter from a validator comment body.
func ParseUpdateCounter(body string) (int, bool) {
	m := updateCounterRe.FindStringSubmatch(body)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// NextUpdateCounter returns the counter for the comment that replaces prior.
// A prior comment without a readable counter restarts at 1.
func NextUpdateCounter(prior string) int {
	n, ok := ParseUpdateCounter(prior)
	if !ok {
		return 1
	}
	return n + 1
}

// RenderReport renders the comment body (without header) for a set of
// problems. The output depends only on problems and their order.
func RenderReport(problems []Problem) string {
	if len(problems) == 0 {
		return "\n\nThe issue is valid. All required sections are present, congratulations!\n"
	}

	var sb strings.Builder
	sb.WriteString("\n\nThe issue is invalid!\n\n")
	for _, p := range problems {
		fmt.Fprintf(&sb, "- %s\n", p)
	}
	return sb.String()
}

// ComposeComment prepends the header to report.
func ComposeComment(counter int, report string) string {
	return RenderHeader(counter) + report
}
