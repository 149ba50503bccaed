// Package ports defines the interfaces the validator core depends on.
package ports

import (
	"context"

	"github.com/nathantilsley/issue-validator/internal/validate/domain"
)

// CommentPort reads and writes comments on an issue.
type CommentPort interface {
	// ListComments returns every comment on the issue, oldest first.
	ListComments(ctx context.Context, ref domain.IssueRef) ([]domain.Comment, error)
	CreateComment(ctx context.Context, ref domain.IssueRef, body string) (domain.Comment, error)
	UpdateComment(ctx context.Context, ref domain.IssueRef, commentID int64, body string) (domain.Comment, error)
}

// DiffPort renders a human-readable diff between two texts.
type DiffPort interface {
	ComputeDiff(oldName, newName string, old, new []byte) string
}
