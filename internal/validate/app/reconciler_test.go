package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathantilsley/issue-validator/internal/validate/domain"
)

var ref = domain.IssueRef{Owner: "acme", Repo: "widgets", Number: 7}

func TestReconciler_CreatesWhenNoComments(t *testing.T) {
	port := &fakeComments{}
	r := NewReconciler(port, domain.AuthoredBy(botLogin))

	out, err := r.Reconcile(context.Background(), ref, "\n\nreport")
	require.NoError(t, err)

	assert.Equal(t, CommentCreated, out.Action)
	assert.Equal(t, 1, out.Counter)
	assert.Equal(t, []string{"list", "create"}, port.calls)
	require.Len(t, port.comments, 1)
	assert.Equal(t, "## Issue validator - update # 1\n\nreport", port.comments[0].Body)
}

func TestReconciler_UpdatesTrailingBotComment(t *testing.T) {
	port := &fakeComments{}
	port.humanSays("first!")
	r := NewReconciler(port, domain.AuthoredBy(botLogin))
	ctx := context.Background()

	first, err := r.Reconcile(ctx, ref, "\n\nv1")
	require.NoError(t, err)
	require.Equal(t, CommentCreated, first.Action)

	for want := 2; want <= 4; want++ {
		out, err := r.Reconcile(ctx, ref, "\n\nagain")
		require.NoError(t, err)
		assert.Equal(t, CommentUpdated, out.Action)
		assert.Equal(t, want, out.Counter)
		assert.Equal(t, first.CommentID, out.CommentID)
	}

	require.Len(t, port.comments, 2, "never creates a second validator comment")
	assert.Equal(t, "## Issue validator - update # 4\n\nagain", port.comments[1].Body)
}

func TestReconciler_HumanReplyStartsNewComment(t *testing.T) {
	port := &fakeComments{}
	r := NewReconciler(port, domain.AuthoredBy(botLogin))
	ctx := context.Background()

	_, err := r.Reconcile(ctx, ref, "\n\nv1")
	require.NoError(t, err)
	_, err = r.Reconcile(ctx, ref, "\n\nv2")
	require.NoError(t, err)

	port.humanSays("fixed it, please re-check")

	out, err := r.Reconcile(ctx, ref, "\n\nv3")
	require.NoError(t, err)
	assert.Equal(t, CommentCreated, out.Action)
	assert.Equal(t, 1, out.Counter)
	require.Len(t, port.comments, 3)
	assert.Equal(t, "## Issue validator - update # 2\n\nv2", port.comments[0].Body, "older bot comment untouched")
}

func TestReconciler_MalformedCounterRestartsAtOne(t *testing.T) {
	port := &fakeComments{comments: []domain.Comment{
		{ID: 5, Author: botLogin, Body: "## Issue validator\n\nThe issue is invalid!"},
	}}
	r := NewReconciler(port, domain.AuthoredBy(botLogin))

	out, err := r.Reconcile(context.Background(), ref, "\n\nreport")
	require.NoError(t, err)
	assert.Equal(t, CommentUpdated, out.Action)
	assert.Equal(t, 1, out.Counter)
	assert.Equal(t, "## Issue validator - update # 1\n\nreport", port.comments[0].Body)
}

func TestReconciler_InjectedPredicate(t *testing.T) {
	port := &fakeComments{comments: []domain.Comment{
		{ID: 5, Author: "my-app[bot]", Body: domain.RenderHeader(3)},
	}}

	out, err := NewReconciler(port, domain.AuthoredBy("my-app[bot]")).Reconcile(context.Background(), ref, "")
	require.NoError(t, err)
	assert.Equal(t, CommentUpdated, out.Action)
	assert.Equal(t, 4, out.Counter)

	port = &fakeComments{comments: []domain.Comment{
		{ID: 5, Author: "my-app[bot]", Body: domain.RenderHeader(3)},
	}}
	out, err = NewReconciler(port, domain.AuthoredBy(botLogin)).Reconcile(context.Background(), ref, "")
	require.NoError(t, err)
	assert.Equal(t, CommentCreated, out.Action)
}

func TestReconciler_Errors(t *testing.T) {
	boom := errors.New("api rate limit exceeded")

	tests := []struct {
		name      string
		port      *fakeComments
		wantCalls []string
	}{
		{
			name:      "list fails",
			port:      &fakeComments{listErr: boom},
			wantCalls: []string{"list"},
		},
		{
			name:      "create fails",
			port:      &fakeComments{createErr: boom},
			wantCalls: []string{"list", "create"},
		},
		{
			name: "update fails",
			port: &fakeComments{
				updateErr: boom,
				comments:  []domain.Comment{{ID: 1, Author: botLogin, Body: domain.RenderHeader(1)}},
			},
			wantCalls: []string{"list", "update"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReconciler(tt.port, domain.AuthoredBy(botLogin)).Reconcile(context.Background(), ref, "")
			require.ErrorIs(t, err, boom)
			assert.Contains(t, err.Error(), "acme/widgets#7")
			assert.Equal(t, tt.wantCalls, tt.port.calls, "no retries")
		})
	}
}

func TestReconciler_DryRun(t *testing.T) {
	t.Run("plans an update", func(t *testing.T) {
		port := &fakeComments{comments: []domain.Comment{
			{ID: 42, Author: botLogin, Body: domain.RenderHeader(2) + "\n\nold"},
		}}
		diff := &fakeDiff{}
		r := NewReconciler(port, domain.AuthoredBy(botLogin), WithDryRun(diff))

		out, err := r.Reconcile(context.Background(), ref, "\n\nnew")
		require.NoError(t, err)
		assert.True(t, out.DryRun)
		assert.Equal(t, CommentUpdated, out.Action)
		assert.Equal(t, int64(42), out.CommentID)
		assert.Equal(t, 3, out.Counter)
		assert.Equal(t, "diff comment 42 -> planned", out.Preview)
		assert.Equal(t, []string{"list"}, port.calls)
		assert.Equal(t, domain.RenderHeader(2)+"\n\nold", port.comments[0].Body)
	})

	t.Run("plans a create", func(t *testing.T) {
		port := &fakeComments{}
		diff := &fakeDiff{}
		r := NewReconciler(port, domain.AuthoredBy(botLogin), WithDryRun(diff))

		out, err := r.Reconcile(context.Background(), ref, "\n\nnew")
		require.NoError(t, err)
		assert.Equal(t, CommentCreated, out.Action)
		assert.Equal(t, "(no comment)", diff.oldName)
		assert.Equal(t, []string{"list"}, port.calls)
	})
}
