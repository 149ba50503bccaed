package domain

import (
	"slices"
	"strings"
)

// RequiredSection is a section that must be present and non-empty because
// its owning label applies to the current run.
type RequiredSection struct {
	Section string
	Label   string
}

// LabelGroup lists the sections required by one label, in configured order.
type LabelGroup struct {
	Label    string
	Sections []string
}

// ParseRequirements parses "label1,section1,section2;label2,section3" into
// label groups. Everything is lowercased; tokens are trimmed and empty ones
// dropped. Duplicate labels or sections are kept as separate entries.
func ParseRequirements(config string) []LabelGroup {
	var groups []LabelGroup
	for _, raw := range strings.Split(strings.ToLower(config), ";") {
		tokens := strings.Split(raw, ",")
		label := strings.TrimSpace(tokens[0])
		if label == "" {
			continue
		}
		group := LabelGroup{Label: label}
		for _, tok := range tokens[1:] {
			if s := strings.TrimSpace(tok); s != "" {
				group.Sections = append(group.Sections, s)
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// Resolve returns the sections to check for event.
//
// A labeled event only pulls in the group of the label that was just added.
// An unlabeled event resolves nothing. Any other action pulls in every group
// whose label is currently on the issue.
func Resolve(groups []LabelGroup, event IssueEvent) []RequiredSection {
	if event.Action == ActionUnlabeled {
		return nil
	}

	var required []RequiredSection
	for _, g := range groups {
		if event.Action == ActionLabeled {
			if g.Label != strings.ToLower(event.Label) {
				continue
			}
		} else if !hasLabel(event.Labels, g.Label) {
			continue
		}
		for _, s := range g.Sections {
			required = append(required, RequiredSection{Section: s, Label: g.Label})
		}
	}
	return required
}

// ShouldReport reports whether a run with the given resolved sections posts
// a comment. An unlabeled run always reports so that a removed requirement
// is reflected in the validator comment.
func ShouldReport(action Action, required []RequiredSection) bool {
	return len(required) > 0 || action == ActionUnlabeled
}

func hasLabel(labels []string, label string) bool {
	return slices.ContainsFunc(labels, func(l string) bool {
		return strings.ToLower(l) == label
	})
}
