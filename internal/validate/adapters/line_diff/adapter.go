package linediff

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Adapter implements ports.DiffPort with a line-based unified diff.
type Adapter struct{}

// New creates a new line diff adapter.
func New() *Adapter {
	return &Adapter{}
}

// ComputeDiff returns a unified diff with 3 lines of context, or an empty
// string when old and new are identical.
func (a *Adapter) ComputeDiff(oldName, newName string, old, new []byte) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(old)),
		B:        difflib.SplitLines(string(new)),
		FromFile: oldName,
		ToFile:   newName,
		Context:  3,
	}

	out, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}
