package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathantilsley/issue-validator/internal/validate/app"
	"github.com/nathantilsley/issue-validator/internal/validate/domain"
)

const secret = "s3cret"

type fakeHandler struct {
	events []domain.IssueEvent
	result app.Result
	err    error
}

func (f *fakeHandler) Handle(_ context.Context, event domain.IssueEvent) (app.Result, error) {
	f.events = append(f.events, event)
	return f.result, f.err
}

func issuesPayload(action string) []byte {
	return []byte(`{
		"action": "` + action + `",
		"issue": {"number": 5, "body": "## steps\n", "labels": [{"name": "bug"}]},
		"label": {"name": "bug"},
		"repository": {"name": "widgets", "owner": {"login": "acme"}},
		"installation": {"id": 99}
	}`)
}

func sign(payload []byte, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func newRequest(event string, payload []byte, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", event)
	req.Header.Set("X-GitHub-Delivery", "delivery-1")
	req.Header.Set("X-Hub-Signature-256", signature)
	return req
}

func TestHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name        string
		event       string
		payload     []byte
		signWith    string
		result      app.Result
		handleErr   error
		factoryErr  error
		wantStatus  int
		wantState   string
		wantHandled bool
	}{
		{
			name:        "labeled issue is validated",
			event:       "issues",
			payload:     issuesPayload("labeled"),
			signWith:    secret,
			result:      app.Result{Outcome: app.Outcome{Action: app.CommentCreated}},
			wantStatus:  http.StatusOK,
			wantState:   "handled",
			wantHandled: true,
		},
		{
			name:        "skipped run",
			event:       "issues",
			payload:     issuesPayload("edited"),
			signWith:    secret,
			result:      app.Result{Skipped: true},
			wantStatus:  http.StatusOK,
			wantState:   "skipped",
			wantHandled: true,
		},
		{
			name:       "bad signature",
			event:      "issues",
			payload:    issuesPayload("edited"),
			signWith:   "wrong",
			wantStatus: http.StatusUnauthorized,
			wantState:  "rejected",
		},
		{
			name:       "unsupported action",
			event:      "issues",
			payload:    issuesPayload("opened"),
			signWith:   secret,
			wantStatus: http.StatusAccepted,
			wantState:  "ignored",
		},
		{
			name:       "other event type",
			event:      "ping",
			payload:    []byte(`{"zen": "keep it simple"}`),
			signWith:   secret,
			wantStatus: http.StatusAccepted,
			wantState:  "ignored",
		},
		{
			name:        "upstream failure",
			event:       "issues",
			payload:     issuesPayload("edited"),
			signWith:    secret,
			handleErr:   errors.New("listing comments: 502"),
			wantStatus:  http.StatusBadGateway,
			wantState:   "error",
			wantHandled: true,
		},
		{
			name:       "installation client failure",
			event:      "issues",
			payload:    issuesPayload("edited"),
			signWith:   secret,
			factoryErr: errors.New("no key"),
			wantStatus: http.StatusInternalServerError,
			wantState:  "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeHandler{result: tt.result, err: tt.handleErr}
			var gotInstallation int64
			factory := func(_ context.Context, id int64) (EventHandler, error) {
				gotInstallation = id
				if tt.factoryErr != nil {
					return nil, tt.factoryErr
				}
				return fake, nil
			}

			h := New([]byte(secret), factory, NewMetrics(prometheus.NewRegistry()), nil)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, newRequest(tt.event, tt.payload, sign(tt.payload, tt.signWith)))

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp response
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantState, resp.Status)
			assert.Equal(t, "delivery-1", resp.Delivery)

			if !tt.wantHandled {
				assert.Empty(t, fake.events)
				return
			}
			require.Len(t, fake.events, 1)
			assert.Equal(t, int64(99), gotInstallation)
			assert.Equal(t, domain.IssueRef{Owner: "acme", Repo: "widgets", Number: 5}, fake.events[0].Ref)
		})
	}
}

func TestHandler_GeneratesDeliveryID(t *testing.T) {
	payload := issuesPayload("opened")
	req := newRequest("issues", payload, sign(payload, secret))
	req.Header.Del("X-GitHub-Delivery")

	h := New([]byte(secret), nil, nil, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Delivery, 36)
}

func TestMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.run(domain.ActionEdited, app.Result{
		Problems: []domain.Problem{{Kind: domain.ProblemEmpty}, {Kind: domain.ProblemNotFound}},
		Outcome:  app.Outcome{Action: app.CommentUpdated},
	}, nil)
	m.run(domain.ActionEdited, app.Result{Skipped: true}, nil)
	m.run(domain.ActionLabeled, app.Result{}, errors.New("boom"))

	assert.InDelta(t, 1, testutil.ToFloat64(m.runs.WithLabelValues("edited", "updated")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.runs.WithLabelValues("edited", "skipped")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.runs.WithLabelValues("labeled", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.problems.WithLabelValues("empty")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.problems.WithLabelValues("not_found")), 0)

	var nilMetrics *Metrics
	nilMetrics.delivery("issues", "handled")
}
