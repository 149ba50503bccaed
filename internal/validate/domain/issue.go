package domain

import "strconv"

// Action is the kind of issue event that triggered a run.
type Action string

const (
	ActionEdited    Action = "edited"
	ActionLabeled   Action = "labeled"
	ActionUnlabeled Action = "unlabeled"
)

// Supported reports whether the action is one the validator reacts to.
func (a Action) Supported() bool {
	switch a {
	case ActionEdited, ActionLabeled, ActionUnlabeled:
		return true
	}
	return false
}

// IssueRef identifies an issue on the host.
type IssueRef struct {
	Owner  string
	Repo   string
	Number int
}

func (r IssueRef) String() string {
	return r.Owner + "/" + r.Repo + "#" + strconv.Itoa(r.Number)
}

// IssueEvent holds the details of a single issues event.
type IssueEvent struct {
	Ref    IssueRef
	Body   string
	Labels []string
	Action Action
	Label  string // Label added or removed; empty for edited
}
