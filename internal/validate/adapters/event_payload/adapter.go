// Package eventpayload decodes GitHub issues event payloads.
package eventpayload

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/go-github/v68/github"

	"github.com/nathantilsley/issue-validator/internal/validate/domain"
)

// ErrNotIssueEvent is returned when a payload carries no issue.
var ErrNotIssueEvent = errors.New("payload is not an issues event")

// Decode reads an issues event payload from r.
func Decode(r io.Reader) (domain.IssueEvent, error) {
	var ev github.IssuesEvent
	if err := json.NewDecoder(r).Decode(&ev); err != nil {
		return domain.IssueEvent{}, fmt.Errorf("decoding issues event: %w", err)
	}
	return FromIssuesEvent(&ev)
}

// DecodeFile reads an issues event payload from path, as written by GitHub
// Actions to GITHUB_EVENT_PATH.
func DecodeFile(path string) (domain.IssueEvent, error) {
	//nolint:gosec // G304: path comes from the runner environment
	f, err := os.Open(path)
	if err != nil {
		return domain.IssueEvent{}, fmt.Errorf("opening event payload: %w", err)
	}
	//nolint:errcheck // Read-only file, close error not actionable
	defer func() { _ = f.Close() }()

	return Decode(f)
}

// FromIssuesEvent converts a go-github issues event into a domain event.
// A null issue body is treated as empty.
func FromIssuesEvent(ev *github.IssuesEvent) (domain.IssueEvent, error) {
	issue := ev.GetIssue()
	if issue == nil {
		return domain.IssueEvent{}, ErrNotIssueEvent
	}

	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}

	repo := ev.GetRepo()
	return domain.IssueEvent{
		Ref: domain.IssueRef{
			Owner:  repo.GetOwner().GetLogin(),
			Repo:   repo.GetName(),
			Number: issue.GetNumber(),
		},
		Body:   issue.GetBody(),
		Labels: labels,
		Action: domain.Action(ev.GetAction()),
		Label:  ev.GetLabel().GetName(),
	}, nil
}
