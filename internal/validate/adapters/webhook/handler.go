// Package webhook receives GitHub App webhook deliveries and runs the
// validator for issues events.
package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v68/github"
	"github.com/google/uuid"

	eventpayload "github.com/nathantilsley/issue-validator/internal/validate/adapters/event_payload"
	"github.com/nathantilsley/issue-validator/internal/validate/app"
	"github.com/nathantilsley/issue-validator/internal/validate/domain"
)

// EventHandler runs the validator for one issue event.
type EventHandler interface {
	Handle(ctx context.Context, event domain.IssueEvent) (app.Result, error)
}

// HandlerFactory returns an EventHandler authenticated for the given App
// installation.
type HandlerFactory func(ctx context.Context, installationID int64) (EventHandler, error)

// Handler is an http.Handler for GitHub webhook deliveries.
type Handler struct {
	secret  []byte
	factory HandlerFactory
	metrics *Metrics
	logger  *slog.Logger
}

// New creates a webhook handler. Deliveries are rejected unless signed with
// secret.
func New(secret []byte, factory HandlerFactory, metrics *Metrics, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		secret:  secret,
		factory: factory,
		metrics: metrics,
		logger:  logger,
	}
}

type response struct {
	Delivery string `json:"delivery"`
	Status   string `json:"status"`
	Problems int    `json:"problems,omitempty"`
	Comment  string `json:"comment,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	delivery := github.DeliveryID(r)
	if delivery == "" {
		delivery = uuid.NewString()
	}
	eventType := github.WebHookType(r)
	log := h.logger.With("delivery", delivery, "event", eventType)

	payload, err := github.ValidatePayload(r, h.secret)
	if err != nil {
		log.Warn("rejecting webhook", "error", err)
		h.metrics.delivery(eventType, "rejected")
		h.reply(w, http.StatusUnauthorized, response{Delivery: delivery, Status: "rejected", Error: err.Error()})
		return
	}

	parsed, err := github.ParseWebHook(eventType, payload)
	if err != nil {
		log.Warn("unparseable webhook", "error", err)
		h.metrics.delivery(eventType, "invalid")
		h.reply(w, http.StatusBadRequest, response{Delivery: delivery, Status: "invalid", Error: err.Error()})
		return
	}

	ev, ok := parsed.(*github.IssuesEvent)
	if !ok || !domain.Action(ev.GetAction()).Supported() {
		log.Debug("ignoring webhook", "action", actionOf(parsed))
		h.metrics.delivery(eventType, "ignored")
		h.reply(w, http.StatusAccepted, response{Delivery: delivery, Status: "ignored"})
		return
	}

	event, err := eventpayload.FromIssuesEvent(ev)
	if err != nil {
		h.metrics.delivery(eventType, "invalid")
		h.reply(w, http.StatusBadRequest, response{Delivery: delivery, Status: "invalid", Error: err.Error()})
		return
	}

	svc, err := h.factory(r.Context(), ev.GetInstallation().GetID())
	if err != nil {
		log.Error("creating installation client", "error", err)
		h.metrics.delivery(eventType, "error")
		h.reply(w, http.StatusInternalServerError, response{Delivery: delivery, Status: "error", Error: err.Error()})
		return
	}

	result, err := svc.Handle(r.Context(), event)
	h.metrics.run(event.Action, result, err)
	if err != nil {
		log.Error("validating issue", "issue", event.Ref.String(), "error", err)
		h.metrics.delivery(eventType, "error")
		h.reply(w, http.StatusBadGateway, response{Delivery: delivery, Status: "error", Error: err.Error()})
		return
	}

	h.metrics.delivery(eventType, "handled")
	resp := response{Delivery: delivery, Status: "handled", Problems: len(result.Problems)}
	if result.Skipped {
		resp.Status = "skipped"
	} else {
		resp.Comment = result.Outcome.Action.String()
	}
	h.reply(w, http.StatusOK, resp)
}

func (h *Handler) reply(w http.ResponseWriter, status int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Warn("failed to write webhook response", "error", err)
	}
}

func actionOf(event any) string {
	if a, ok := event.(interface{ GetAction() string }); ok {
		return a.GetAction()
	}
	return ""
}
