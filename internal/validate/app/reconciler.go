// Package app wires the section checker and the comment reconciler into
// a single run per issue event.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/nathantilsley/issue-validator/internal/validate/domain"
	"github.com/nathantilsley/issue-validator/internal/validate/ports"
)

// CommentAction is what the reconciler did (or would do) to the issue.
type CommentAction int

const (
	CommentNone    CommentAction = iota // Nothing posted
	CommentCreated                      // New validator comment
	CommentUpdated                      // Trailing validator comment overwritten
)

func (a CommentAction) String() string {
	switch a {
	case CommentCreated:
		return "created"
	case CommentUpdated:
		return "updated"
	default:
		return "none"
	}
}

// Outcome describes the result of a reconcile.
type Outcome struct {
	Action    CommentAction
	CommentID int64 // Zero when a dry run plans a create
	Counter   int
	Body      string
	DryRun    bool
	Preview   string // Unified diff of the planned change, dry runs only
}

// Reconciler keeps a single validator comment per issue up to date.
//
// Only the trailing comment is ever reused: when a human has replied after
// the last validator comment, a new one is posted instead of reviving the
// older one. Two concurrent runs on the same issue are not serialised and
// may both create a comment.
type Reconciler struct {
	comments ports.CommentPort
	isOwn    domain.AuthorPredicate
	diff     ports.DiffPort
	dryRun   bool
	logger   *slog.Logger
}

// ReconcilerOption configures optional Reconciler behaviour.
type ReconcilerOption func(*Reconciler)

// WithDryRun makes Reconcile plan the change without writing it. The planned
// body is diffed against the existing comment with diff.
func WithDryRun(diff ports.DiffPort) ReconcilerOption {
	return func(r *Reconciler) {
		r.dryRun = true
		r.diff = diff
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// NewReconciler creates a Reconciler. isOwn identifies comments written by
// this automation.
func NewReconciler(comments ports.CommentPort, isOwn domain.AuthorPredicate, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		comments: comments,
		isOwn:    isOwn,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile posts report on the issue, updating the trailing validator
// comment in place when there is one and creating a new comment otherwise.
func (r *Reconciler) Reconcile(ctx context.Context, ref domain.IssueRef, report string) (Outcome, error) {
	existing, err := r.comments.ListComments(ctx, ref)
	if err != nil {
		return Outcome{}, fmt.Errorf("listing comments on %s: %w", ref, err)
	}

	prior, ok := r.trailingOwnComment(existing)
	if !ok {
		body := domain.ComposeComment(1, report)
		if r.dryRun {
			return r.plan(CommentCreated, domain.Comment{}, 1, body), nil
		}

		r.logger.Info("creating validator comment", "issue", ref.String())
		created, err := r.comments.CreateComment(ctx, ref, body)
		if err != nil {
			return Outcome{}, fmt.Errorf("creating comment on %s: %w", ref, err)
		}
		return Outcome{Action: CommentCreated, CommentID: created.ID, Counter: 1, Body: body}, nil
	}

	counter := domain.NextUpdateCounter(prior.Body)
	body := domain.ComposeComment(counter, report)
	if r.dryRun {
		return r.plan(CommentUpdated, prior, counter, body), nil
	}

	r.logger.Info("updating validator comment",
		"issue", ref.String(), "comment_id", prior.ID, "update", counter)
	updated, err := r.comments.UpdateComment(ctx, ref, prior.ID, body)
	if err != nil {
		return Outcome{}, fmt.Errorf("updating comment %d on %s: %w", prior.ID, ref, err)
	}
	return Outcome{Action: CommentUpdated, CommentID: updated.ID, Counter: counter, Body: body}, nil
}

func (r *Reconciler) trailingOwnComment(comments []domain.Comment) (domain.Comment, bool) {
	if len(comments) == 0 {
		return domain.Comment{}, false
	}
	last := comments[len(comments)-1]
	if r.isOwn == nil || !r.isOwn(last) {
		return domain.Comment{}, false
	}
	return last, true
}

func (r *Reconciler) plan(action CommentAction, prior domain.Comment, counter int, body string) Outcome {
	out := Outcome{
		Action:    action,
		CommentID: prior.ID,
		Counter:   counter,
		Body:      body,
		DryRun:    true,
	}
	if r.diff != nil {
		oldName := "(no comment)"
		if prior.ID != 0 {
			oldName = "comment " + strconv.FormatInt(prior.ID, 10)
		}
		out.Preview = r.diff.ComputeDiff(oldName, "planned", []byte(prior.Body), []byte(body))
	}
	r.logger.Info("dry run, not writing comment", "action", action.String(), "update", counter)
	return out
}
