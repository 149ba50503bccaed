package app

import (
	"context"
	"fmt"

	"github.com/nathantilsley/issue-validator/internal/validate/domain"
)

const botLogin = "github-actions[bot]"

// fakeComments is an in-memory ports.CommentPort.
type fakeComments struct {
	comments []domain.Comment
	nextID   int64
	calls    []string

	listErr   error
	createErr error
	updateErr error
}

func (f *fakeComments) ListComments(_ context.Context, _ domain.IssueRef) ([]domain.Comment, error) {
	f.calls = append(f.calls, "list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.Comment(nil), f.comments...), nil
}

func (f *fakeComments) CreateComment(_ context.Context, _ domain.IssueRef, body string) (domain.Comment, error) {
	f.calls = append(f.calls, "create")
	if f.createErr != nil {
		return domain.Comment{}, f.createErr
	}
	f.nextID++
	c := domain.Comment{ID: 1000 + f.nextID, Author: botLogin, Body: body}
	f.comments = append(f.comments, c)
	return c, nil
}

func (f *fakeComments) UpdateComment(_ context.Context, _ domain.IssueRef, id int64, body string) (domain.Comment, error) {
	f.calls = append(f.calls, "update")
	if f.updateErr != nil {
		return domain.Comment{}, f.updateErr
	}
	for i := range f.comments {
		if f.comments[i].ID == id {
			f.comments[i].Body = body
			return f.comments[i], nil
		}
	}
	return domain.Comment{}, fmt.Errorf("comment %d not found", id)
}

// humanSays appends a comment from a person.
func (f *fakeComments) humanSays(body string) {
	f.nextID++
	f.comments = append(f.comments, domain.Comment{ID: 1000 + f.nextID, Author: "octocat", Body: body})
}

// fakeDiff records what it was asked to diff.
type fakeDiff struct {
	oldName, newName string
}

func (d *fakeDiff) ComputeDiff(oldName, newName string, _, _ []byte) string {
	d.oldName, d.newName = oldName, newName
	return "diff " + oldName + " -> " + newName
}
