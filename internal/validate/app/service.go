package app

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nathantilsley/issue-validator/internal/validate/domain"
)

// Result summarises one run.
type Result struct {
	Required []domain.RequiredSection
	Problems []domain.Problem
	Skipped  bool // Nothing to check; no API calls were made
	Outcome  Outcome
}

// Service validates issues against the configured label groups and reports
// through the Reconciler.
type Service struct {
	groups     []domain.LabelGroup
	reconciler *Reconciler
	logger     *slog.Logger
}

// NewService creates a new validation service.
func NewService(groups []domain.LabelGroup, reconciler *Reconciler, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		groups:     groups,
		reconciler: reconciler,
		logger:     logger,
	}
}

// Handle runs the validator for a single issue event. Missing or empty
// sections are returned as Problems, not as an error; an error means the
// comment could not be reconciled.
func (s *Service) Handle(ctx context.Context, event domain.IssueEvent) (Result, error) {
	labels := make([]string, len(event.Labels))
	for i, l := range event.Labels {
		labels[i] = strings.ToLower(l)
	}
	event.Labels = labels
	event.Label = strings.ToLower(event.Label)

	log := s.logger.With("issue", event.Ref.String(), "action", string(event.Action))
	log.Debug("labels in issue detected", "labels", labels)
	if event.Action == domain.ActionLabeled {
		log.Debug("labeled with", "label", event.Label)
	}

	required := domain.Resolve(s.groups, event)
	log.Debug("required sections", "sections", required)

	if !domain.ShouldReport(event.Action, required) {
		log.Info("nothing to do")
		return Result{Skipped: true}, nil
	}

	problems := CheckAll(event.Body, required)
	for _, p := range problems {
		log.Info("section problem", "section", p.Section, "label", p.Label, "problem", p.String())
	}

	outcome, err := s.reconciler.Reconcile(ctx, event.Ref, domain.RenderReport(problems))
	if err != nil {
		return Result{Required: required, Problems: problems}, err
	}

	return Result{
		Required: required,
		Problems: problems,
		Outcome:  outcome,
	}, nil
}

// CheckAll checks every required section against body and returns the
// failures in order, each annotated with its owning label.
func CheckAll(body string, required []domain.RequiredSection) []domain.Problem {
	body = strings.ToLower(body)

	var problems []domain.Problem
	for _, rs := range required {
		if p := domain.CheckSection(body, rs.Section); p != nil {
			p.Label = rs.Label
			problems = append(problems, *p)
		}
	}
	return problems
}
