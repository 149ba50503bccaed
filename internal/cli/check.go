package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nathantilsley/issue-validator/internal/config"
	"github.com/nathantilsley/issue-validator/internal/validate/app"
	"github.com/nathantilsley/issue-validator/internal/validate/domain"
)

// ErrProblemsFound is returned by check --strict when sections fail.
var ErrProblemsFound = errors.New("required sections missing or empty")

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Validate a local markdown file without calling GitHub",
	Long: `Checks a markdown file (or stdin when the file is "-" or omitted) as if
it were the body of an issue carrying the given labels, and prints the
report the validator would post.

Example:
  issue-validator check --required-sections "bug,steps,expected" --labels bug ISSUE_TEMPLATE/bug.md`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "-"
		if len(args) == 1 {
			path = args[0]
		}
		return runCheck(cmd, path)
	},
}

func init() {
	checkCmd.Flags().StringSlice("labels", nil, "labels applied to the issue")
	checkCmd.Flags().String("action", string(domain.ActionEdited), "event action: edited, labeled or unlabeled")
	checkCmd.Flags().String("label", "", "label added or removed, for labeled and unlabeled")
	checkCmd.Flags().Bool("strict", false, "exit non-zero when a section is missing or empty")
}

func runCheck(cmd *cobra.Command, path string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	if _, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel); err != nil {
		return err
	}

	groups, err := cfg.Groups()
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		return domain.NewMissingInputError("required-sections", "set --required-sections or --sections-file")
	}

	body, err := readBody(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	labels, _ := cmd.Flags().GetStringSlice("labels")
	action, _ := cmd.Flags().GetString("action")
	label, _ := cmd.Flags().GetString("label")
	strict, _ := cmd.Flags().GetBool("strict")

	event := domain.IssueEvent{
		Body:   body,
		Labels: labels,
		Action: domain.Action(strings.ToLower(action)),
		Label:  strings.ToLower(label),
	}
	for i, l := range event.Labels {
		event.Labels[i] = strings.ToLower(l)
	}

	required := domain.Resolve(groups, event)
	out := cmd.OutOrStdout()
	if !domain.ShouldReport(event.Action, required) {
		fmt.Fprintln(out, "No required sections for these labels; nothing would be posted.")
		return nil
	}

	problems := app.CheckAll(body, required)
	fmt.Fprint(out, strings.TrimLeft(domain.RenderReport(problems), "\n"))

	if strict && len(problems) > 0 {
		return ErrProblemsFound
	}
	return nil
}

func readBody(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	//nolint:gosec // G304: user-supplied path is the point of this command
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
