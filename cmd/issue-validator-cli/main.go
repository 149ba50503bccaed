// Package main provides a CLI tool to trigger issue-validator webhooks for testing.
package main

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strconv"

	"github.com/google/go-github/v68/github"
	"github.com/google/uuid"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := parseCliConfig()
	if err != nil {
		return err
	}

	issueURL := flag.Arg(0)
	owner, repo, number, err := parseIssueURL(issueURL)
	if err != nil {
		return fmt.Errorf("parsing issue URL: %w", err)
	}

	ctx := context.Background()
	issue, err := fetchIssue(ctx, cfg.token, owner, repo, number)
	if err != nil {
		return err
	}

	payload, err := buildWebhookPayload(issue, owner, repo, cfg)
	if err != nil {
		return err
	}
	return sendWebhook(ctx, cfg.webhookURL, cfg.secret, payload, issue, issueURL)
}

type cliConfig struct {
	token      string
	webhookURL string
	secret     string
	installID  int64
	action     string
	label      string
}

func parseCliConfig() (cliConfig, error) {
	var (
		token      = flag.String("token", "", "GitHub personal access token (or use GITHUB_TOKEN env var)")
		webhookURL = flag.String("url", "http://localhost:8080/webhook", "Webhook URL")
		secret     = flag.String(
			"secret",
			"",
			"Webhook secret for signing (read from WEBHOOK_SECRET env var if not set)",
		)
		installID = flag.Int64(
			"installation-id",
			0,
			"GitHub App installation ID (read from GITHUB_INSTALLATION_ID env var if not set)",
		)
		action = flag.String("action", "edited", "Issue event action: edited, labeled or unlabeled")
		label  = flag.String("label", "", "Label added or removed (required for labeled and unlabeled)")
	)
	flag.Parse()

	cfg := cliConfig{
		token:      getEnvOrFlag(*token, "GITHUB_TOKEN"),
		secret:     getEnvOrFlag(*secret, "WEBHOOK_SECRET"),
		webhookURL: *webhookURL,
		action:     *action,
		label:      *label,
	}

	if cfg.token == "" {
		return cfg, errors.New("github token required\nProvide via -token flag or GITHUB_TOKEN env var")
	}
	if cfg.secret == "" {
		return cfg, errors.New("webhook secret required\nProvide via -secret flag or WEBHOOK_SECRET env var")
	}

	switch cfg.action {
	case "edited":
	case "labeled", "unlabeled":
		if cfg.label == "" {
			return cfg, fmt.Errorf("-label is required for %s events", cfg.action)
		}
	default:
		return cfg, fmt.Errorf("unsupported action %q (must be edited, labeled or unlabeled)", cfg.action)
	}

	cfg.installID = *installID
	if cfg.installID == 0 {
		if idStr := os.Getenv("GITHUB_INSTALLATION_ID"); idStr != "" {
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				return cfg, fmt.Errorf("invalid GITHUB_INSTALLATION_ID: %w", err)
			}
			cfg.installID = id
		}
	}
	if cfg.installID == 0 {
		return cfg, errors.New(
			"github App installation ID required\nProvide via -installation-id flag or GITHUB_INSTALLATION_ID env var",
		)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		return cfg, errors.New("missing issue URL argument")
	}

	return cfg, nil
}

func getEnvOrFlag(flagValue, envKey string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(envKey)
}

func fetchIssue(ctx context.Context, token, owner, repo string, number int) (*github.Issue, error) {
	client := github.NewClient(nil).WithAuthToken(token)
	fmt.Printf("Fetching issue details from GitHub...\n")
	issue, _, err := client.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("fetching issue: %w", err)
	}
	return issue, nil
}

// buildWebhookPayload builds an issues event as GitHub would deliver it for
// the current state of issue.
func buildWebhookPayload(issue *github.Issue, owner, repo string, cfg cliConfig) ([]byte, error) {
	event := github.IssuesEvent{
		Action: github.Ptr(cfg.action),
		Issue:  issue,
		Repo: &github.Repository{
			Name:  github.Ptr(repo),
			Owner: &github.User{Login: github.Ptr(owner)},
		},
		Installation: &github.Installation{ID: github.Ptr(cfg.installID)},
	}
	if cfg.label != "" {
		event.Label = &github.Label{Name: github.Ptr(cfg.label)}
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}
	return payload, nil
}

func sendWebhook(
	ctx context.Context,
	webhookURL, secret string,
	payload []byte,
	issue *github.Issue,
	issueURL string,
) error {
	signature := signPayload(payload, secret)

	fmt.Printf("\nSending webhook to %s...\n", webhookURL)
	fmt.Printf("  Issue: #%d %s\n", issue.GetNumber(), issue.GetTitle())
	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}
	fmt.Printf("  Labels: %v\n", labels)
	fmt.Println()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", "issues")
	req.Header.Set("X-Hub-Signature-256", "sha256="+signature)
	req.Header.Set("X-GitHub-Delivery", uuid.NewString())

	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	//nolint:errcheck // Best effort read for logging only
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusAccepted {
		fmt.Printf("✓ Webhook accepted (status %d)\n", resp.StatusCode)
		if len(body) > 0 {
			fmt.Printf("Response: %s\n", string(body))
		}
		fmt.Printf("\nCheck the issue for the validator comment!\n")
		fmt.Printf("%s\n", issueURL)
		return nil
	}

	fmt.Printf("✗ Webhook failed (status %d)\n", resp.StatusCode)
	if len(body) > 0 {
		fmt.Printf("Response: %s\n", string(body))
	}
	return fmt.Errorf("webhook returned status %d", resp.StatusCode)
}

var issueURLRe = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)/issues/(\d+)(?:[/#?].*)?$`)

// parseIssueURL extracts owner, repo, and issue number from a GitHub issue URL
// Handles formats:
//   - https://github.com/owner/repo/issues/123
//   - https://github.com/owner/repo/issues/123#issuecomment-456
func parseIssueURL(url string) (string, string, int, error) {
	matches := issueURLRe.FindStringSubmatch(url)

	if len(matches) != 4 {
		return "", "", 0, fmt.Errorf(
			"invalid issue URL format, expected: https://github.com/owner/repo/issues/123, got: %s",
			url,
		)
	}

	owner := matches[1]
	repo := matches[2]
	number, err := strconv.Atoi(matches[3])
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid issue number: %w", err)
	}

	return owner, repo, number, nil
}

// signPayload creates HMAC SHA256 signature for the payload
func signPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
