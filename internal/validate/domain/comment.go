package domain

import "strings"

// Comment is a single comment on an issue.
type Comment struct {
	ID     int64
	Author string
	Body   string
}

// AuthorPredicate reports whether a comment was written by our own
// automation.
type AuthorPredicate func(Comment) bool

// AuthoredBy returns a predicate matching comments whose author login equals
// login, ignoring case.
func AuthoredBy(login string) AuthorPredicate {
	return func(c Comment) bool {
		return login != "" && strings.EqualFold(c.Author, login)
	}
}

// DefaultBotLogin is the identity GitHub Actions posts comments as.
const DefaultBotLogin = "github-actions[bot]"
