// Package issuecomments reads and writes issue comments through the GitHub API.
package issuecomments

import (
	"context"
	"fmt"

	"github.com/google/go-github/v68/github"

	"github.com/nathantilsley/issue-validator/internal/validate/domain"
)

// Adapter implements ports.CommentPort by calling the GitHub issues API.
type Adapter struct {
	client *github.Client
}

// New creates a new issue comments adapter.
func New(client *github.Client) *Adapter {
	return &Adapter{client: client}
}

// ListComments returns every comment on the issue, oldest first.
func (a *Adapter) ListComments(ctx context.Context, ref domain.IssueRef) ([]domain.Comment, error) {
	client := a.client

	var comments []domain.Comment
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{
			PerPage: 100,
		},
	}

	for {
		page, resp, err := client.Issues.ListComments(ctx, ref.Owner, ref.Repo, ref.Number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing issue comments: %w", err)
		}

		for _, c := range page {
			comments = append(comments, toDomain(c))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return comments, nil
}

// CreateComment posts a new comment on the issue.
func (a *Adapter) CreateComment(ctx context.Context, ref domain.IssueRef, body string) (domain.Comment, error) {
	c, _, err := a.client.Issues.CreateComment(ctx, ref.Owner, ref.Repo, ref.Number, &github.IssueComment{
		Body: github.Ptr(body),
	})
	if err != nil {
		return domain.Comment{}, fmt.Errorf("creating issue comment: %w", err)
	}
	return toDomain(c), nil
}

// UpdateComment replaces the body of an existing comment.
func (a *Adapter) UpdateComment(ctx context.Context, ref domain.IssueRef, commentID int64, body string) (domain.Comment, error) {
	c, _, err := a.client.Issues.EditComment(ctx, ref.Owner, ref.Repo, commentID, &github.IssueComment{
		Body: github.Ptr(body),
	})
	if err != nil {
		return domain.Comment{}, fmt.Errorf("updating issue comment %d: %w", commentID, err)
	}
	return toDomain(c), nil
}

func toDomain(c *github.IssueComment) domain.Comment {
	return domain.Comment{
		ID:     c.GetID(),
		Author: c.GetUser().GetLogin(),
		Body:   c.GetBody(),
	}
}
