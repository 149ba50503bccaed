package cli

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

const publicAPIURL = "https://api.github.com"

// newTokenClient creates a GitHub client authenticated with a static token.
func newTokenClient(ctx context.Context, token, apiURL string) (*github.Client, error) {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	return newClient(oauth2.NewClient(ctx, ts), apiURL)
}

// newClient wraps httpClient in a go-github client, pointing it at apiURL
// when that is a GitHub Enterprise Server endpoint.
func newClient(httpClient *http.Client, apiURL string) (*github.Client, error) {
	client := github.NewClient(httpClient)
	if apiURL == "" || strings.TrimSuffix(apiURL, "/") == publicAPIURL {
		return client, nil
	}

	client, err := client.WithEnterpriseURLs(apiURL, apiURL)
	if err != nil {
		return nil, fmt.Errorf("configuring GitHub API URL: %w", err)
	}
	return client, nil
}
