package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nathantilsley/issue-validator/internal/config"
	eventpayload "github.com/nathantilsley/issue-validator/internal/validate/adapters/event_payload"
	issuecomments "github.com/nathantilsley/issue-validator/internal/validate/adapters/issue_comments"
	linediff "github.com/nathantilsley/issue-validator/internal/validate/adapters/line_diff"
	"github.com/nathantilsley/issue-validator/internal/validate/app"
	"github.com/nathantilsley/issue-validator/internal/validate/domain"
	"github.com/nathantilsley/issue-validator/internal/validate/ports"
)

var actionCmd = &cobra.Command{
	Use:   "action",
	Short: "Validate the issue from the current GitHub Actions event",
	Long: `Reads the issues event that triggered the workflow (GITHUB_EVENT_PATH),
checks the required sections and creates or updates the validator comment.

The workflow should trigger on issues: [edited, labeled, unlabeled].
Missing sections are reported in the comment; the step only fails when the
GitHub API cannot be reached or the configuration is incomplete.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		eventPath, _ := cmd.Flags().GetString("event-path")
		err := runAction(cmd.Context(), cmd.OutOrStdout(), eventPath)
		if err != nil {
			setFailed(cmd.OutOrStdout(), err.Error())
		}
		return err
	},
}

func init() {
	actionCmd.Flags().String("github-token", "", "token used to read and write issue comments")
	actionCmd.Flags().String("event-path", "", "issues event payload (default $GITHUB_EVENT_PATH)")
	bindFlags(actionCmd, "github-token")
}

func runAction(ctx context.Context, stdout io.Writer, eventPath string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	if err := cfg.ValidateAction(); err != nil {
		return err
	}

	logger, err := newLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}

	groups, err := cfg.Groups()
	if err != nil {
		return err
	}

	event, err := loadActionEvent(eventPath)
	if err != nil {
		return err
	}

	client, err := newTokenClient(ctx, cfg.GitHubToken, cfg.GitHubAPIURL)
	if err != nil {
		return err
	}

	svc := app.NewService(groups, newReconciler(issuecomments.New(client), cfg, domain.DefaultBotLogin, logger), logger)
	result, err := svc.Handle(ctx, event)
	if err != nil {
		return err
	}

	reportResult(stdout, logger, result)
	return nil
}

// newReconciler builds the reconciler shared by action and serve modes.
func newReconciler(comments ports.CommentPort, cfg *config.Config, defaultLogin string, logger *slog.Logger) *app.Reconciler {
	login := cfg.BotLogin
	if login == "" {
		login = defaultLogin
	}

	opts := []app.ReconcilerOption{app.WithLogger(logger)}
	if cfg.DryRun {
		opts = append(opts, app.WithDryRun(linediff.New()))
	}
	return app.NewReconciler(comments, domain.AuthoredBy(login), opts...)
}

// loadActionEvent decodes the issues event at path, or at
// $GITHUB_EVENT_PATH when path is empty.
func loadActionEvent(path string) (domain.IssueEvent, error) {
	if path == "" {
		path = os.Getenv("GITHUB_EVENT_PATH")
	}
	if path == "" {
		return domain.IssueEvent{}, errors.New("no event payload: GITHUB_EVENT_PATH is not set")
	}

	event, err := eventpayload.DecodeFile(path)
	if err != nil {
		return domain.IssueEvent{}, err
	}

	// Older payloads may lack the repository block.
	if event.Ref.Owner == "" || event.Ref.Repo == "" {
		owner, repo, ok := strings.Cut(os.Getenv("GITHUB_REPOSITORY"), "/")
		if !ok {
			return domain.IssueEvent{}, fmt.Errorf("cannot determine repository for issue #%d", event.Ref.Number)
		}
		event.Ref.Owner, event.Ref.Repo = owner, repo
	}
	return event, nil
}

func reportResult(w io.Writer, logger *slog.Logger, result app.Result) {
	if result.Skipped {
		return
	}

	logger.Info("validation finished",
		"problems", len(result.Problems),
		"comment", result.Outcome.Action.String(),
		"comment_id", result.Outcome.CommentID,
		"update", result.Outcome.Counter)

	if result.Outcome.DryRun {
		preview := result.Outcome.Preview
		if preview == "" {
			preview = result.Outcome.Body
		}
		group(w, "Planned validator comment ("+result.Outcome.Action.String()+")", preview)
	}
}
