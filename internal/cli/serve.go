package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v68/github"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nathantilsley/issue-validator/internal/config"
	issuecomments "github.com/nathantilsley/issue-validator/internal/validate/adapters/issue_comments"
	"github.com/nathantilsley/issue-validator/internal/validate/adapters/webhook"
	"github.com/nathantilsley/issue-validator/internal/validate/app"
	"github.com/nathantilsley/issue-validator/internal/validate/domain"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a GitHub App webhook server",
	Long: `Starts an HTTP server that receives issues webhooks for a GitHub App
installation and validates each edited, labeled or unlabeled issue.

Endpoints:
  POST /webhook   GitHub webhook deliveries (HMAC-SHA256 signed)
  GET  /healthz   liveness probe
  GET  /metrics   Prometheus metrics`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func init() {
	serveCmd.Flags().Int64("app-id", 0, "GitHub App ID")
	serveCmd.Flags().String("private-key-path", "", "path to the GitHub App private key (PEM)")
	serveCmd.Flags().String("webhook-secret", "", "webhook secret used to verify deliveries")
	serveCmd.Flags().String("listen-addr", "", "address to listen on (default :8080)")
	bindFlags(serveCmd, "app-id", "private-key-path", "webhook-secret", "listen-addr")
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
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

	installations, err := newInstallationClients(cfg)
	if err != nil {
		return err
	}

	botLogin := cfg.BotLogin
	if botLogin == "" {
		if botLogin, err = installations.botLogin(ctx); err != nil {
			return err
		}
	}
	logger.Info("validator comments are posted as", "login", botLogin)

	factory := func(_ context.Context, installationID int64) (webhook.EventHandler, error) {
		client, err := installations.client(installationID)
		if err != nil {
			return nil, err
		}
		reconciler := newReconciler(issuecomments.New(client), cfg, botLogin, logger)
		return app.NewService(groups, reconciler, logger), nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	mux := http.NewServeMux()
	mux.Handle("POST /webhook", webhook.New([]byte(cfg.WebhookSecret), factory, webhook.NewMetrics(reg), logger))
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// installationClients hands out one go-github client per App installation.
// Each client keeps its own installation token cache.
type installationClients struct {
	apps   *ghinstallation.AppsTransport
	apiURL string

	mu      sync.Mutex
	clients map[int64]*github.Client
}

func newInstallationClients(cfg *config.Config) (*installationClients, error) {
	//nolint:gosec // G304: key path is operator-supplied configuration
	key, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading private key: %w", err)
	}

	apps, err := ghinstallation.NewAppsTransport(http.DefaultTransport, cfg.AppID, key)
	if err != nil {
		return nil, fmt.Errorf("creating app transport: %w", err)
	}
	if cfg.GitHubAPIURL != "" {
		apps.BaseURL = cfg.GitHubAPIURL
	}

	return &installationClients{
		apps:    apps,
		apiURL:  cfg.GitHubAPIURL,
		clients: make(map[int64]*github.Client),
	}, nil
}

func (c *installationClients) client(installationID int64) (*github.Client, error) {
	if installationID == 0 {
		return nil, errors.New("webhook carries no installation id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[installationID]; ok {
		return client, nil
	}

	tr := ghinstallation.NewFromAppsTransport(c.apps, installationID)
	if c.apiURL != "" {
		tr.BaseURL = c.apiURL
	}
	client, err := newClient(&http.Client{Transport: tr}, c.apiURL)
	if err != nil {
		return nil, err
	}
	c.clients[installationID] = client
	return client, nil
}

// botLogin resolves the login the App comments as, "<slug>[bot]".
func (c *installationClients) botLogin(ctx context.Context) (string, error) {
	client, err := newClient(&http.Client{Transport: c.apps}, c.apiURL)
	if err != nil {
		return "", err
	}

	ghApp, _, err := client.Apps.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("looking up GitHub App: %w", err)
	}
	if ghApp.GetSlug() == "" {
		return domain.DefaultBotLogin, nil
	}
	return ghApp.GetSlug() + "[bot]", nil
}
